// Package mediafeed maintains the displayed media list for a voice
// search session.
//
// Two independent sources update the list: the direct search response
// and a server push channel. Both replace the list wholesale — no
// field-by-field merging — so the displayed state is always exactly one
// source's most recent answer. When both race, whichever handler runs
// last wins; that is a documented property, not a defect.
package mediafeed

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Item is one entry of the displayed media list.
// JSON field names follow the agent's wire format.
type Item struct {
	ID           int64  `json:"id"`
	Title        string `json:"name"`
	ThumbnailURL string `json:"img"`
	PlaybackURL  string `json:"url"`
	ViewCount    string `json:"views"`
	Duration     string `json:"duration"`
}

// Synchronizer owns the displayed media list and the push connection.
// Safe for concurrent use.
type Synchronizer struct {
	mu    sync.Mutex
	items []Item

	onUpdate func([]Item)
	onError  func(error)

	dial *websocket.Dialer
	push pushState
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithReconnect enables automatic push channel reconnection.
// Off by default: a failed channel stays closed until reopened.
func WithReconnect(interval time.Duration) Option {
	return func(s *Synchronizer) {
		s.push.reconnect = true
		s.push.reconnectInterval = interval
	}
}

// New creates an empty synchronizer.
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{dial: dialer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnUpdate sets the callback invoked with a snapshot of the new list
// after every reconciliation.
func (s *Synchronizer) OnUpdate(fn func([]Item)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// OnError sets the callback for push channel faults. Faults are
// localized: they suppress the specific update and never affect the
// current list.
func (s *Synchronizer) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// ApplySearchResult replaces the displayed list with a search
// response's media, synchronously.
func (s *Synchronizer) ApplySearchResult(items []Item) {
	s.replace(items)
}

// Items returns a snapshot of the displayed list.
func (s *Synchronizer) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// HandlePushPayload parses a push message and applies it as a
// whole-list replacement. A payload that does not parse is discarded
// and reported; the current list is never partially applied.
func (s *Synchronizer) HandlePushPayload(payload []byte) error {
	var items []Item
	if err := json.Unmarshal(payload, &items); err != nil {
		err = fmt.Errorf("%w: %v", ErrMalformedPushPayload, err)
		s.reportError(err)
		return err
	}
	s.replace(items)
	return nil
}

// replace installs the new list, deduplicated by item ID
// (first occurrence wins), and notifies the update callback.
func (s *Synchronizer) replace(items []Item) {
	deduped := make([]Item, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		deduped = append(deduped, it)
	}

	s.mu.Lock()
	s.items = deduped
	fn := s.onUpdate
	snapshot := make([]Item, len(deduped))
	copy(snapshot, deduped)
	s.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

func (s *Synchronizer) reportError(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
