package mediafeed

import "errors"

// Sentinel errors for the mediafeed package.
var (
	// ErrMalformedPushPayload indicates a push message that did not
	// parse as a media list. The message is discarded; the displayed
	// list is left untouched.
	ErrMalformedPushPayload = errors.New("mediafeed: malformed push payload")

	// ErrPushChannel indicates the push connection failed. The
	// connection is closed; reopening is the caller's decision unless
	// reconnection was explicitly enabled.
	ErrPushChannel = errors.New("mediafeed: push channel error")
)
