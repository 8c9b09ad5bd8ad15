// Package speechio provides a unified interface over speech capture and
// narration devices.
//
// Platform speech facilities (microphone capture, synthesized playback)
// are modeled as capability interfaces so callers depend on an injected
// device, not a process-wide singleton. The Adapter sits on top and
// enforces the session rules: at most one active capture and one active
// narration per adapter, stop-then-start capture semantics, and
// last-write-wins narration where a new Speak cancels the previous one.
//
// Example usage:
//
//	adapter := speechio.NewAdapter(
//	    speechio.NewConsoleRecognizer(os.Stdin),
//	    speechio.NewConsoleSynthesizer(os.Stdout),
//	)
//	defer adapter.Close()
//
//	adapter.StartCapture("zh-CN", false)
//	for ev := range adapter.Events() {
//	    // ...
//	}
package speechio

import (
	"context"
	"time"
)

// EventKind identifies a capture or narration event.
type EventKind int

const (
	// EventPartialTranscript is an interim capture result.
	EventPartialTranscript EventKind = iota
	// EventFinalTranscript is the terminal capture result.
	EventFinalTranscript
	// EventCaptureError terminates a capture that produced no transcript.
	EventCaptureError
	// EventSpeechStarted fires when narration playback begins.
	EventSpeechStarted
	// EventSpeechEnded fires when narration playback completes.
	EventSpeechEnded
	// EventSpeechError terminates a narration that failed.
	EventSpeechError
)

// String returns a human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case EventPartialTranscript:
		return "partial_transcript"
	case EventFinalTranscript:
		return "final_transcript"
	case EventCaptureError:
		return "capture_error"
	case EventSpeechStarted:
		return "speech_started"
	case EventSpeechEnded:
		return "speech_ended"
	case EventSpeechError:
		return "speech_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends its capture or narration.
func (k EventKind) Terminal() bool {
	switch k {
	case EventFinalTranscript, EventCaptureError, EventSpeechEnded, EventSpeechError:
		return true
	}
	return false
}

// Event is a single capture or narration event.
type Event struct {
	Kind EventKind

	// Text is the transcript for capture events, or the narrated text
	// for speech events.
	Text string

	// Utterance identifies the narration a speech event belongs to.
	// Set by the Adapter; empty on capture events.
	Utterance string

	// Err is set on EventCaptureError and EventSpeechError.
	Err error

	// At is when the event was produced.
	At time.Time
}

// CaptureOptions configures a capture session.
type CaptureOptions struct {
	// Locale is the recognition language, e.g. "zh-CN".
	Locale string

	// Continuous keeps the device listening after a final transcript.
	// Single-shot mode ends the session on the first final result.
	Continuous bool
}

// Recognizer is the speech capture device.
//
// Start begins listening and returns a stream of capture events: zero or
// more EventPartialTranscript followed by exactly one terminal event
// (EventFinalTranscript or EventCaptureError), after which the channel
// is closed. Canceling ctx stops the device; the stream still closes.
type Recognizer interface {
	Start(ctx context.Context, opts CaptureOptions) (<-chan Event, error)
}

// SpeakRequest describes one narration.
type SpeakRequest struct {
	Text   string
	Locale string
	// Rate is the playback speed multiplier; 0 means the device default.
	Rate float64
}

// Synthesizer is the narration playback device.
//
// Speak begins playback and returns a stream of speech events:
// EventSpeechStarted followed by exactly one terminal event
// (EventSpeechEnded or EventSpeechError), after which the channel is
// closed. Canceling ctx stops playback.
type Synthesizer interface {
	Speak(ctx context.Context, req SpeakRequest) (<-chan Event, error)
}
