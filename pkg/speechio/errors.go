package speechio

import "errors"

// Sentinel errors for the speechio package.
var (
	// ErrCaptureUnsupported is returned when no capture device is
	// available. Reported synchronously so the caller can present a
	// disabled affordance instead of attempting capture.
	ErrCaptureUnsupported = errors.New("speechio: speech capture not supported")

	// ErrNarrationUnsupported is returned when no playback device is
	// available.
	ErrNarrationUnsupported = errors.New("speechio: narration not supported")

	// ErrClosed is returned when using an adapter after Close.
	ErrClosed = errors.New("speechio: adapter closed")
)
