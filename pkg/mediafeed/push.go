package mediafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicemedia/go-voicemedia/internal/log"
)

// ConnState represents the push connection state.
type ConnState int

const (
	// StateClosed indicates no push connection.
	StateClosed ConnState = iota
	// StateConnecting indicates the connection is being established.
	StateConnecting
	// StateOpen indicates an active connection.
	StateOpen
)

// String returns a human-readable connection state.
func (s ConnState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// pushState holds the push connection, guarded by the Synchronizer
// mutex. The connection is a singleton per synchronizer: open-if-absent
// by construction, so a second open cannot leak a connection. Every
// open and close bumps gen; a dial that lands after its generation was
// superseded discards its connection instead of installing it.
type pushState struct {
	gen               int
	state             ConnState
	conn              *websocket.Conn
	closing           bool
	redialing         bool
	endpoint          string
	reconnect         bool
	reconnectInterval time.Duration
}

var dialer = &websocket.Dialer{
	HandshakeTimeout: 10 * time.Second,
}

// OpenPushChannel opens the persistent push connection. If a channel is
// already open or connecting this is a no-op. On connection failure the
// channel is left closed and the error is reported; there is no retry
// unless reconnection was enabled with WithReconnect.
func (s *Synchronizer) OpenPushChannel(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	if s.push.state != StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.push.gen++
	gen := s.push.gen
	s.push.state = StateConnecting
	s.push.closing = false
	s.push.endpoint = endpoint
	dial := s.dial
	s.mu.Unlock()

	conn, resp, err := dial.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.mu.Lock()
		if s.push.gen == gen {
			s.push.state = StateClosed
		}
		s.mu.Unlock()
		err = fmt.Errorf("%w: connect %s: %v", ErrPushChannel, endpoint, err)
		s.reportError(err)
		return err
	}

	s.mu.Lock()
	if s.push.gen != gen || s.push.closing {
		// Torn down or superseded while the dial was in flight. A
		// newer generation owns the channel state; only this dial's
		// connection is released.
		if s.push.gen == gen {
			s.push.state = StateClosed
		}
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.push.conn = conn
	s.push.state = StateOpen
	s.mu.Unlock()

	log.Debug("push channel open", "endpoint", endpoint)
	go s.readLoop(gen, conn)
	return nil
}

// ClosePushChannel releases the push connection. Safe to call multiple
// times and on all exit paths, including while a connect is in flight.
func (s *Synchronizer) ClosePushChannel() error {
	s.mu.Lock()
	s.push.gen++
	s.push.closing = true
	conn := s.push.conn
	s.push.conn = nil
	s.push.state = StateClosed
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	return nil
}

// PushState returns the current push connection state.
func (s *Synchronizer) PushState() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.push.state
}

// readLoop consumes push messages until the connection dies. Each
// message is a complete media list replacing the displayed one;
// malformed messages are reported and skipped without affecting the
// connection.
func (s *Synchronizer) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			// A superseded generation was closed deliberately; only the
			// current one reports and reconnects.
			closing := s.push.closing || s.push.gen != gen
			if s.push.conn == conn {
				s.push.conn = nil
				s.push.state = StateClosed
			}
			reconnect := s.push.reconnect && !closing && !s.push.redialing
			if reconnect {
				s.push.redialing = true
			}
			endpoint := s.push.endpoint
			interval := s.push.reconnectInterval
			s.mu.Unlock()

			conn.Close()
			if closing {
				return
			}
			s.reportError(fmt.Errorf("%w: %v", ErrPushChannel, err))
			if reconnect {
				go s.redial(endpoint, interval)
			}
			return
		}
		s.HandlePushPayload(payload)
	}
}

// redial reopens the channel on an interval until it succeeds or the
// synchronizer is deliberately closed.
func (s *Synchronizer) redial(endpoint string, interval time.Duration) {
	defer func() {
		s.mu.Lock()
		s.push.redialing = false
		s.mu.Unlock()
	}()

	for {
		time.Sleep(interval)

		s.mu.Lock()
		closing := s.push.closing
		s.mu.Unlock()
		if closing {
			return
		}

		if err := s.OpenPushChannel(context.Background(), endpoint); err == nil {
			return
		}
		log.Debug("push channel redial failed", "endpoint", endpoint)
	}
}
