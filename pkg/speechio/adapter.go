package speechio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Adapter multiplexes one capture device and one playback device onto a
// single event stream.
//
// Invariants enforced here rather than in the devices:
//   - at most one active capture; starting while active stops the
//     running session first, and its late events are dropped
//   - at most one active narration; Speak cancels the previous one and
//     suppresses its stale terminal events (last-write-wins)
type Adapter struct {
	rec Recognizer
	syn Synthesizer

	locale string
	rate   float64

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	captureGen    int
	captureCancel context.CancelFunc
	speechID      string
	speechCancel  context.CancelFunc
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLocale sets the default narration locale.
func WithLocale(locale string) Option {
	return func(a *Adapter) { a.locale = locale }
}

// WithRate sets the default narration rate multiplier.
func WithRate(rate float64) Option {
	return func(a *Adapter) { a.rate = rate }
}

// NewAdapter creates an adapter over the given devices. Either device
// may be nil; the corresponding capability then reports unsupported.
func NewAdapter(rec Recognizer, syn Synthesizer, opts ...Option) *Adapter {
	a := &Adapter{
		rec:    rec,
		syn:    syn,
		rate:   1.0,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Events returns the adapter's event stream. The channel is closed by
// Close.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// SupportsCapture reports whether a capture device is available.
func (a *Adapter) SupportsCapture() bool { return a.rec != nil }

// SupportsNarration reports whether a playback device is available.
func (a *Adapter) SupportsNarration() bool { return a.syn != nil }

// StartCapture begins a capture session. If a session is already
// active it is stopped first; there are never two concurrent captures.
// Returns ErrCaptureUnsupported synchronously when no capture device
// is present.
func (a *Adapter) StartCapture(locale string, continuous bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.rec == nil {
		return ErrCaptureUnsupported
	}

	if a.captureCancel != nil {
		a.captureCancel()
		a.captureCancel = nil
	}
	a.captureGen++
	gen := a.captureGen

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.rec.Start(ctx, CaptureOptions{Locale: locale, Continuous: continuous})
	if err != nil {
		cancel()
		return err
	}
	a.captureCancel = cancel

	a.wg.Add(1)
	go a.pumpCapture(gen, ch)
	return nil
}

// StopCapture stops the active capture session, if any. Idempotent.
func (a *Adapter) StopCapture() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.captureCancel != nil {
		a.captureCancel()
		a.captureCancel = nil
	}
	// Invalidate so late events from the stopped session are dropped.
	a.captureGen++
}

// Capturing reports whether a capture session is active.
func (a *Adapter) Capturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.captureCancel != nil
}

// Speak enqueues text for narration, canceling any narration already
// in progress. Returns the utterance ID tagged on the resulting speech
// events, or ErrNarrationUnsupported when no playback device is
// present.
func (a *Adapter) Speak(text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return "", ErrClosed
	}
	if a.syn == nil {
		return "", ErrNarrationUnsupported
	}

	if a.speechCancel != nil {
		a.speechCancel()
		a.speechCancel = nil
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.syn.Speak(ctx, SpeakRequest{Text: text, Locale: a.locale, Rate: a.rate})
	if err != nil {
		cancel()
		return "", err
	}
	a.speechID = id
	a.speechCancel = cancel

	a.wg.Add(1)
	go a.pumpSpeech(id, ch)
	return id, nil
}

// CancelNarration stops the active narration, if any. Idempotent.
func (a *Adapter) CancelNarration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speechCancel != nil {
		a.speechCancel()
		a.speechCancel = nil
	}
	a.speechID = ""
}

// Close stops all activity and closes the event stream.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.captureCancel != nil {
		a.captureCancel()
		a.captureCancel = nil
	}
	if a.speechCancel != nil {
		a.speechCancel()
		a.speechCancel = nil
	}
	a.mu.Unlock()

	close(a.done)
	a.wg.Wait()
	close(a.events)
}

func (a *Adapter) pumpCapture(gen int, ch <-chan Event) {
	defer a.wg.Done()
	for ev := range ch {
		a.mu.Lock()
		current := gen == a.captureGen
		if current && ev.Kind.Terminal() && a.captureCancel != nil {
			a.captureCancel()
			a.captureCancel = nil
		}
		a.mu.Unlock()
		if !current {
			continue
		}
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		a.send(ev)
	}
}

func (a *Adapter) pumpSpeech(id string, ch <-chan Event) {
	defer a.wg.Done()
	for ev := range ch {
		a.mu.Lock()
		current := id == a.speechID
		if current && ev.Kind.Terminal() {
			if a.speechCancel != nil {
				a.speechCancel()
				a.speechCancel = nil
			}
			a.speechID = ""
		}
		a.mu.Unlock()
		if !current {
			continue
		}
		ev.Utterance = id
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		a.send(ev)
	}
}

func (a *Adapter) send(ev Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}
