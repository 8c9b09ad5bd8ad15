package session

// State is the voice session state.
//
// A cycle runs Idle → Capturing → Dispatching → AwaitingResponse →
// Speaking (or Errored) → Idle. Transitions are processed strictly in
// the order their triggering events arrive; no reentrant transition is
// possible because all events funnel through one goroutine.
type State int

const (
	// StateIdle means no cycle is active.
	StateIdle State = iota
	// StateCapturing means the capture device is listening.
	StateCapturing
	// StateDispatching means a final transcript was accepted and the
	// search request is being built.
	StateDispatching
	// StateAwaitingResponse means the request is in flight.
	StateAwaitingResponse
	// StateSpeaking means the response is being narrated.
	StateSpeaking
	// StateErrored is the transient failure state; the session returns
	// to Idle automatically.
	StateErrored
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateSpeaking:
		return "speaking"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Busy reports whether a request cycle is in flight. Toggling capture
// is disabled while busy: at most one request at a time.
func (s State) Busy() bool {
	return s == StateDispatching || s == StateAwaitingResponse
}
