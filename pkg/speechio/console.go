package speechio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleRecognizer is a line-oriented capture device for terminals and
// tests: each line read from the underlying reader becomes one final
// transcript. It lets the assistant run end to end on platforms without
// speech hardware; a real recognizer plugs in through the same
// interface.
type ConsoleRecognizer struct {
	r     io.Reader
	once  sync.Once
	lines chan string
}

// NewConsoleRecognizer creates a recognizer reading from r.
func NewConsoleRecognizer(r io.Reader) *ConsoleRecognizer {
	return &ConsoleRecognizer{r: r}
}

// Start implements Recognizer. Single-shot mode ends the session after
// the first non-empty line; continuous mode keeps emitting one final
// transcript per line until ctx is canceled.
func (c *ConsoleRecognizer) Start(ctx context.Context, opts CaptureOptions) (<-chan Event, error) {
	c.once.Do(func() {
		c.lines = make(chan string)
		go c.readLoop()
	})

	out := make(chan Event, 4)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				out <- Event{Kind: EventCaptureError, Err: ctx.Err(), At: time.Now()}
				return
			case line, ok := <-c.lines:
				if !ok {
					out <- Event{Kind: EventCaptureError, Err: io.EOF, At: time.Now()}
					return
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				out <- Event{Kind: EventFinalTranscript, Text: line, At: time.Now()}
				if !opts.Continuous {
					return
				}
			}
		}
	}()
	return out, nil
}

// readLoop pumps lines from the reader for the lifetime of the device.
// It persists across capture sessions so the stream is restartable.
func (c *ConsoleRecognizer) readLoop() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}

// ConsoleSynthesizer narrates by writing text to a writer, pacing the
// terminal event by text length so narration visibly takes time.
type ConsoleSynthesizer struct {
	w io.Writer

	// PerRune is the simulated playback time per rune at rate 1.0.
	PerRune time.Duration

	mu sync.Mutex
}

// NewConsoleSynthesizer creates a synthesizer writing to w.
func NewConsoleSynthesizer(w io.Writer) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{w: w, PerRune: 60 * time.Millisecond}
}

// Speak implements Synthesizer.
func (c *ConsoleSynthesizer) Speak(ctx context.Context, req SpeakRequest) (<-chan Event, error) {
	out := make(chan Event, 4)

	rate := req.Rate
	if rate <= 0 {
		rate = 1.0
	}
	d := time.Duration(float64(len([]rune(req.Text))) * float64(c.PerRune) / rate)

	go func() {
		defer close(out)
		c.mu.Lock()
		fmt.Fprintf(c.w, "🔊 %s\n", req.Text)
		c.mu.Unlock()

		out <- Event{Kind: EventSpeechStarted, Text: req.Text, At: time.Now()}

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			out <- Event{Kind: EventSpeechError, Text: req.Text, Err: ctx.Err(), At: time.Now()}
		case <-timer.C:
			out <- Event{Kind: EventSpeechEnded, Text: req.Text, At: time.Now()}
		}
	}()
	return out, nil
}
