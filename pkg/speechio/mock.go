package speechio

import (
	"context"
	"sync"
	"time"
)

// MockRecognizer implements Recognizer for testing.
// Each Start replays the scripted events, unless StartFunc overrides
// the behavior entirely.
type MockRecognizer struct {
	// StartFunc, if set, replaces the default scripted behavior.
	StartFunc func(ctx context.Context, opts CaptureOptions) (<-chan Event, error)

	// Script is replayed on each Start. The sequence should end with a
	// terminal capture event.
	Script []Event

	mu     sync.Mutex
	starts []CaptureOptions
}

// CaptureScript builds a partials-then-final event sequence.
func CaptureScript(partials []string, final string) []Event {
	var evs []Event
	for _, p := range partials {
		evs = append(evs, Event{Kind: EventPartialTranscript, Text: p})
	}
	return append(evs, Event{Kind: EventFinalTranscript, Text: final})
}

// CaptureFailure builds a capture sequence ending in an error.
func CaptureFailure(err error) []Event {
	return []Event{{Kind: EventCaptureError, Err: err}}
}

// Start implements Recognizer.
func (m *MockRecognizer) Start(ctx context.Context, opts CaptureOptions) (<-chan Event, error) {
	m.mu.Lock()
	m.starts = append(m.starts, opts)
	script := make([]Event, len(m.Script))
	copy(script, m.Script)
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, opts)
	}

	out := make(chan Event, len(script)+1)
	go func() {
		defer close(out)
		for _, ev := range script {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out, nil
}

// Starts returns the recorded capture options, one per Start call.
func (m *MockRecognizer) Starts() []CaptureOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CaptureOptions, len(m.starts))
	copy(out, m.starts)
	return out
}

// MockSynthesizer implements Synthesizer for testing.
// By default each Speak emits EventSpeechStarted, waits Delay, then
// emits EventSpeechEnded. Canceling the context emits EventSpeechError
// instead of the ended event.
type MockSynthesizer struct {
	// SpeakFunc, if set, replaces the default behavior.
	SpeakFunc func(ctx context.Context, req SpeakRequest) (<-chan Event, error)

	// Delay between the started and terminal events.
	Delay time.Duration

	mu    sync.Mutex
	reqs  []SpeakRequest
	ended []string // texts whose EventSpeechEnded actually fired
}

// Speak implements Synthesizer.
func (m *MockSynthesizer) Speak(ctx context.Context, req SpeakRequest) (<-chan Event, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()

	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, req)
	}

	out := make(chan Event, 2)
	go func() {
		defer close(out)
		out <- Event{Kind: EventSpeechStarted, Text: req.Text}

		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			out <- Event{Kind: EventSpeechError, Text: req.Text, Err: ctx.Err()}
		case <-timer.C:
			m.mu.Lock()
			m.ended = append(m.ended, req.Text)
			m.mu.Unlock()
			out <- Event{Kind: EventSpeechEnded, Text: req.Text}
		}
	}()
	return out, nil
}

// Spoken returns the recorded speak requests in order.
func (m *MockSynthesizer) Spoken() []SpeakRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SpeakRequest, len(m.reqs))
	copy(out, m.reqs)
	return out
}

// Ended returns the texts whose narration ran to completion.
func (m *MockSynthesizer) Ended() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ended))
	copy(out, m.ended)
	return out
}
