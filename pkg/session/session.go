// Package session drives the voice search conversation: capture →
// dispatch → response → narration, appending every turn to the
// conversation log and handing media lists to the feed synchronizer.
//
// All triggering events — capture results, search responses, narration
// callbacks, user toggles — are serialized onto a single goroutine, the
// Go rendition of a UI event loop. Public methods only enqueue; the
// loop in Run owns every state transition, so transitions happen
// strictly in event arrival order and can never reenter.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/pkg/convlog"
	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
	"github.com/voicemedia/go-voicemedia/pkg/search"
	"github.com/voicemedia/go-voicemedia/pkg/speechio"
)

// Sentinel errors for the session package.
var (
	// ErrBusy is returned when capture is toggled while a request is
	// in flight.
	ErrBusy = errors.New("session: request in flight")

	// ErrNotIdle is returned when a replay is requested mid-cycle.
	ErrNotIdle = errors.New("session: not idle")
)

// Searcher dispatches a search request for an utterance.
// *search.Client satisfies this.
type Searcher interface {
	Search(ctx context.Context, message string) (*search.Response, error)
}

// Feed receives whole-list media updates from search responses.
// *mediafeed.Synchronizer satisfies this.
type Feed interface {
	ApplySearchResult(items []mediafeed.Item)
}

// command is a user-initiated action, enqueued onto the loop.
type command int

const (
	cmdToggle command = iota
	cmdCancelCapture
)

// searchResult carries a finished request back onto the loop.
type searchResult struct {
	gen  int
	resp *search.Response
	err  error
}

// replayRequest asks the loop to re-narrate a logged turn.
type replayRequest struct {
	turnID string
	reply  chan error
}

// Controller is the voice session state machine. It exclusively owns
// the session state and the in-flight utterance; the conversation log
// and the media feed are mutated only through their entry points.
type Controller struct {
	cfg      Config
	adapter  *speechio.Adapter
	searcher Searcher
	convo    *convlog.Log
	feed     Feed

	commands chan command
	replays  chan replayRequest
	results  chan searchResult
	done     chan struct{}

	// Loop-owned; state is mirrored for State() readers.
	stateCh    chan State
	transcript string
	gen        int

	onState   func(State)
	onTurn    func(convlog.Turn)
	onPartial func(string)
}

// New creates a controller. The feed may be nil when no media surface
// exists (voice-only deployments).
func New(adapter *speechio.Adapter, searcher Searcher, convo *convlog.Log, feed Feed, cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg,
		adapter:  adapter,
		searcher: searcher,
		convo:    convo,
		feed:     feed,
		commands: make(chan command, 16),
		replays:  make(chan replayRequest),
		results:  make(chan searchResult, 1),
		done:     make(chan struct{}),
		stateCh:  make(chan State, 1),
	}
	c.stateCh <- StateIdle
	return c, nil
}

// OnStateChange sets the callback invoked on every state transition.
// Must be set before Run.
func (c *Controller) OnStateChange(fn func(State)) { c.onState = fn }

// OnTurn sets the callback invoked for every appended turn.
// Must be set before Run.
func (c *Controller) OnTurn(fn func(convlog.Turn)) { c.onTurn = fn }

// OnPartial sets the callback for interim transcripts.
// Must be set before Run.
func (c *Controller) OnPartial(fn func(string)) { c.onPartial = fn }

// State returns the current session state.
func (c *Controller) State() State {
	s := <-c.stateCh
	c.stateCh <- s
	return s
}

// SupportsCapture reports whether speech capture is available. When
// false, present a disabled affordance instead of toggling.
func (c *Controller) SupportsCapture() bool {
	return c.adapter.SupportsCapture()
}

// ToggleCapture starts capture when idle and cancels it while
// capturing, mirroring a mic button. Returns ErrCaptureUnsupported
// synchronously when no capture device exists, and ErrBusy while a
// request is in flight.
func (c *Controller) ToggleCapture() error {
	if !c.adapter.SupportsCapture() {
		return speechio.ErrCaptureUnsupported
	}
	if c.State().Busy() {
		return ErrBusy
	}
	select {
	case c.commands <- cmdToggle:
		return nil
	case <-c.done:
		return ErrNotIdle
	}
}

// CancelCapture stops a running capture without dispatching. A request
// already dispatched is unaffected and its response is still applied.
func (c *Controller) CancelCapture() {
	select {
	case c.commands <- cmdCancelCapture:
	case <-c.done:
	}
}

// Replay re-narrates a logged assistant turn. Only available while
// idle.
func (c *Controller) Replay(turnID string) error {
	req := replayRequest{turnID: turnID, reply: make(chan error, 1)}
	select {
	case c.replays <- req:
		return <-req.reply
	case <-c.done:
		return ErrNotIdle
	}
}

// Run executes the session event loop until ctx is canceled. It
// consumes the adapter's event stream, so exactly one Run per adapter.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.adapter.StopCapture()
	defer c.adapter.CancelNarration()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-c.commands:
			c.handleCommand(cmd)

		case req := <-c.replays:
			req.reply <- c.handleReplay(req.turnID)

		case ev, ok := <-c.adapter.Events():
			if !ok {
				return nil
			}
			c.handleSpeechEvent(ev)

		case res := <-c.results:
			c.handleResult(res)
		}
	}
}

func (c *Controller) handleCommand(cmd command) {
	state := c.State()
	switch cmd {
	case cmdToggle:
		switch state {
		case StateIdle:
			c.transcript = ""
			if err := c.adapter.StartCapture(c.cfg.Locale, c.cfg.Continuous); err != nil {
				log.Error("starting capture", "error", err)
				return
			}
			c.setState(StateCapturing)
		case StateCapturing:
			c.adapter.StopCapture()
			c.transcript = ""
			c.setState(StateIdle)
		default:
			// Toggling is disabled mid-cycle; one request at a time.
		}
	case cmdCancelCapture:
		if state == StateCapturing {
			c.adapter.StopCapture()
			c.transcript = ""
			c.setState(StateIdle)
		}
	}
}

func (c *Controller) handleReplay(turnID string) error {
	if c.State() != StateIdle {
		return ErrNotIdle
	}
	turn, ok := c.convo.Find(turnID)
	if !ok || turn.Role != convlog.RoleAssistant {
		return fmt.Errorf("session: no assistant turn %q", turnID)
	}
	if _, err := c.adapter.Speak(turn.Content); err != nil {
		return err
	}
	c.setState(StateSpeaking)
	return nil
}

func (c *Controller) handleSpeechEvent(ev speechio.Event) {
	state := c.State()
	switch ev.Kind {
	case speechio.EventPartialTranscript:
		if state == StateCapturing {
			c.transcript = ev.Text
			if c.onPartial != nil {
				c.onPartial(ev.Text)
			}
		}

	case speechio.EventFinalTranscript:
		if state != StateCapturing {
			return
		}
		c.transcript = ev.Text
		c.dispatch()

	case speechio.EventCaptureError:
		if state != StateCapturing {
			return
		}
		c.transcript = ""
		c.failCycle(c.cfg.CaptureFailureMessage, ev.Err)

	case speechio.EventSpeechEnded, speechio.EventSpeechError:
		if state == StateSpeaking {
			c.setState(StateIdle)
		}

	case speechio.EventSpeechStarted:
		// Narration confirmed; no transition.
	}
}

// dispatch accepts the buffered transcript, appends the user turn, and
// launches the search request. The buffer is cleared here — exactly
// once per cycle — so a stale transcript can never leak into the next
// capture.
func (c *Controller) dispatch() {
	text := c.transcript
	c.transcript = ""
	if text == "" {
		c.setState(StateIdle)
		return
	}

	c.setState(StateDispatching)
	c.append(convlog.NewTurn(convlog.RoleUser, text))

	c.gen++
	gen := c.gen
	go c.search(gen, text)

	c.setState(StateAwaitingResponse)
}

// search runs off-loop; the result is delivered back through the
// results channel so the loop applies it in arrival order.
func (c *Controller) search(gen int, text string) {
	ctx := context.Background()
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := c.searcher.Search(ctx, text)
	select {
	case c.results <- searchResult{gen: gen, resp: resp, err: err}:
	case <-c.done:
	}
}

func (c *Controller) handleResult(res searchResult) {
	// A response from a superseded cycle is stale: the session already
	// moved past AwaitingResponse through an error.
	if res.gen != c.gen || c.State() != StateAwaitingResponse {
		log.Debug("discarding stale search response", "gen", res.gen)
		return
	}

	if res.err != nil {
		c.failCycle(c.errorMessage(res.err), res.err)
		return
	}

	if res.resp.Status != search.StatusSuccess {
		// The agent's chat field carries the user-visible message.
		c.failCycle(res.resp.Chat, nil)
		return
	}

	c.append(convlog.NewTurn(convlog.RoleAssistant, res.resp.Chat))
	if c.feed != nil && len(res.resp.Medias) > 0 {
		c.feed.ApplySearchResult(res.resp.Medias)
	}

	if _, err := c.adapter.Speak(res.resp.Chat); err != nil {
		// Narration unavailable degrades silently to text-only.
		log.Warn("narration unavailable", "error", err)
		c.setState(StateIdle)
		return
	}
	c.setState(StateSpeaking)
}

// failCycle terminates the current cycle with a single user-visible
// error turn and no narration. Errored is transient: the session
// returns to Idle immediately after observers are notified.
func (c *Controller) failCycle(message string, cause error) {
	if cause != nil {
		log.Error("search cycle failed", "error", cause)
	}
	c.adapter.StopCapture()
	c.append(convlog.NewTurn(convlog.RoleError, message))
	c.setState(StateErrored)
	c.setState(StateIdle)
}

// errorMessage maps a request failure to the user-visible error text.
func (c *Controller) errorMessage(err error) string {
	var apiErr *search.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: HTTP %d", c.cfg.RequestFailurePrefix, apiErr.StatusCode)
	}
	return c.cfg.NetworkFailureMessage
}

func (c *Controller) append(turn convlog.Turn) {
	c.convo.Append(turn)
	if c.onTurn != nil {
		c.onTurn(turn)
	}
}

func (c *Controller) setState(s State) {
	<-c.stateCh
	c.stateCh <- s
	if c.onState != nil {
		c.onState(s)
	}
}
