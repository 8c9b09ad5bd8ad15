package mediafeed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func item(id int64, title string) Item {
	return Item{ID: id, Title: title}
}

func TestApplySearchResultReplacesList(t *testing.T) {
	s := New()
	s.ApplySearchResult([]Item{item(1, "a"), item(2, "b")})

	s.ApplySearchResult([]Item{item(3, "c")})

	got := s.Items()
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("expected whole-list replacement to [3], got %+v", got)
	}
}

func TestPushPayloadReplacesList(t *testing.T) {
	s := New()
	s.ApplySearchResult([]Item{item(1, "a"), item(2, "b")})

	if err := s.HandlePushPayload([]byte(`[{"id":3,"name":"c"}]`)); err != nil {
		t.Fatalf("HandlePushPayload: %v", err)
	}

	got := s.Items()
	if len(got) != 1 || got[0].ID != 3 || got[0].Title != "c" {
		t.Errorf("expected push to replace list with [3], got %+v", got)
	}
}

func TestEmptyPushPayloadClearsList(t *testing.T) {
	s := New()
	s.ApplySearchResult([]Item{item(1, "a")})

	if err := s.HandlePushPayload([]byte(`[]`)); err != nil {
		t.Fatalf("HandlePushPayload: %v", err)
	}
	if got := s.Items(); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
}

func TestMalformedPushPayloadLeavesListUntouched(t *testing.T) {
	s := New()
	var reported error
	s.OnError(func(err error) { reported = err })
	s.ApplySearchResult([]Item{item(1, "a")})

	err := s.HandlePushPayload([]byte(`not-json`))
	if !errors.Is(err, ErrMalformedPushPayload) {
		t.Fatalf("expected ErrMalformedPushPayload, got %v", err)
	}
	if !errors.Is(reported, ErrMalformedPushPayload) {
		t.Errorf("expected error to be reported, got %v", reported)
	}

	got := s.Items()
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("list should be untouched after malformed payload, got %+v", got)
	}
}

func TestReplaceDeduplicatesByID(t *testing.T) {
	s := New()
	s.ApplySearchResult([]Item{item(1, "first"), item(2, "b"), item(1, "second")})

	got := s.Items()
	if len(got) != 2 {
		t.Fatalf("expected 2 items after dedupe, got %d", len(got))
	}
	if got[0].Title != "first" {
		t.Errorf("first occurrence should win, got %q", got[0].Title)
	}
}

func TestOnUpdateReceivesSnapshot(t *testing.T) {
	s := New()
	var seen [][]Item
	s.OnUpdate(func(items []Item) { seen = append(seen, items) })

	s.ApplySearchResult([]Item{item(1, "a")})
	s.HandlePushPayload([]byte(`[{"id":2,"name":"b"}]`))

	if len(seen) != 2 {
		t.Fatalf("expected 2 update callbacks, got %d", len(seen))
	}
	if len(seen[0]) != 1 || seen[0][0].ID != 1 {
		t.Errorf("unexpected first update: %+v", seen[0])
	}
	if len(seen[1]) != 1 || seen[1][0].ID != 2 {
		t.Errorf("unexpected second update: %+v", seen[1])
	}

	// Mutating the delivered slice must not leak into the list.
	seen[1][0].Title = "mutated"
	if got := s.Items(); got[0].Title != "b" {
		t.Errorf("list mutated through update callback: %q", got[0].Title)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := New()
	s.ApplySearchResult([]Item{item(1, "a")})

	snap := s.Items()
	snap[0].Title = "mutated"

	if got := s.Items()[0].Title; got != "a" {
		t.Errorf("list mutated through snapshot: %q", got)
	}
}

func TestClosePushChannelIdempotent(t *testing.T) {
	s := New()
	if err := s.ClosePushChannel(); err != nil {
		t.Fatalf("ClosePushChannel: %v", err)
	}
	if err := s.ClosePushChannel(); err != nil {
		t.Fatalf("second ClosePushChannel: %v", err)
	}
	if got := s.PushState(); got != StateClosed {
		t.Errorf("expected closed state, got %v", got)
	}
}

func TestOpenPushChannelConnectFailure(t *testing.T) {
	s := New()
	var reported error
	s.OnError(func(err error) { reported = err })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := s.OpenPushChannel(ctx, "ws://127.0.0.1:1/ws/medias")
	if !errors.Is(err, ErrPushChannel) {
		t.Fatalf("expected ErrPushChannel, got %v", err)
	}
	if !errors.Is(reported, ErrPushChannel) {
		t.Errorf("expected failure to be reported, got %v", reported)
	}
	if got := s.PushState(); got != StateClosed {
		t.Errorf("expected closed state after failed connect, got %v", got)
	}
}

// pushServer is a minimal websocket endpoint feeding payloads to a
// synchronizer under test.
type pushServer struct {
	srv   *httptest.Server
	mu    sync.Mutex
	conns []*websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	ps := &pushServer{}
	upgrader := websocket.Upgrader{}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ps.mu.Lock()
		ps.conns = append(ps.conns, conn)
		ps.mu.Unlock()
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func (ps *pushServer) send(t *testing.T, payload string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		ps.mu.Lock()
		n := len(ps.conns)
		ps.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no push connection established")
		}
		time.Sleep(10 * time.Millisecond)
	}
	ps.mu.Lock()
	conn := ps.conns[len(ps.conns)-1]
	ps.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write push payload: %v", err)
	}
}

func TestPushChannelDeliversUpdatesInOrder(t *testing.T) {
	ps := newPushServer(t)

	s := New()
	updates := make(chan []Item, 4)
	s.OnUpdate(func(items []Item) { updates <- items })

	if err := s.OpenPushChannel(context.Background(), ps.url()); err != nil {
		t.Fatalf("OpenPushChannel: %v", err)
	}
	defer s.ClosePushChannel()

	if got := s.PushState(); got != StateOpen {
		t.Fatalf("expected open state, got %v", got)
	}

	ps.send(t, `[{"id":1,"name":"x"}]`)
	ps.send(t, `[{"id":2,"name":"y"}]`)

	waitUpdate := func() []Item {
		select {
		case items := <-updates:
			return items
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for push update")
			return nil
		}
	}

	first := waitUpdate()
	if len(first) != 1 || first[0].ID != 1 {
		t.Errorf("unexpected first update: %+v", first)
	}
	second := waitUpdate()
	if len(second) != 1 || second[0].ID != 2 {
		t.Errorf("unexpected second update: %+v", second)
	}

	got := s.Items()
	if len(got) != 1 || got[0].Title != "y" {
		t.Errorf("expected last push to win, got %+v", got)
	}
}

func waitPushState(t *testing.T, s *Synchronizer, want ConnState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.PushState() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected push state %v, have %v", want, s.PushState())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReopenDuringDialKeepsSingleConnection(t *testing.T) {
	ps := newPushServer(t)

	s := New()
	// The first dial is held back so a close-and-reopen can interleave
	// with it; the reopened channel's dial proceeds at full speed.
	var dials int32
	s.dial = &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if atomic.AddInt32(&dials, 1) == 1 {
				time.Sleep(200 * time.Millisecond)
			}
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.OpenPushChannel(context.Background(), ps.url()) }()
	waitPushState(t, s, StateConnecting)

	if err := s.ClosePushChannel(); err != nil {
		t.Fatalf("ClosePushChannel: %v", err)
	}
	if err := s.OpenPushChannel(context.Background(), ps.url()); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.ClosePushChannel()

	if err := <-firstDone; err != nil {
		t.Fatalf("superseded open: %v", err)
	}

	// Both dials reached the server; the superseded one's connection
	// must have been released, leaving exactly one live.
	deadline := time.Now().Add(2 * time.Second)
	for {
		ps.mu.Lock()
		n := len(ps.conns)
		ps.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 dials to land, have %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ps.mu.Lock()
	conns := append([]*websocket.Conn(nil), ps.conns...)
	ps.mu.Unlock()

	var torn int
	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		if _, _, err := conn.ReadMessage(); err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // still live
			}
			torn++
		}
	}
	if torn != 1 {
		t.Errorf("expected exactly one connection to be torn down, got %d of %d", torn, len(conns))
	}
	if got := s.PushState(); got != StateOpen {
		t.Errorf("expected the reopened channel to stay open, got %v", got)
	}
}

func TestOpenPushChannelIsSingleton(t *testing.T) {
	ps := newPushServer(t)

	s := New()
	if err := s.OpenPushChannel(context.Background(), ps.url()); err != nil {
		t.Fatalf("OpenPushChannel: %v", err)
	}
	defer s.ClosePushChannel()

	// A second open while the channel is live must be a no-op.
	if err := s.OpenPushChannel(context.Background(), ps.url()); err != nil {
		t.Fatalf("second OpenPushChannel: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	ps.mu.Lock()
	n := len(ps.conns)
	ps.mu.Unlock()
	if n != 1 {
		t.Errorf("expected a single connection, got %d", n)
	}
}
