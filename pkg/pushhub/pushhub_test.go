package pushhub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
)

func newTestClient(h *Hub) *Client {
	c := &Client{hub: h, send: make(chan []byte, 64)}
	h.register <- c
	return c
}

func recv(t *testing.T, c *Client) []mediafeed.Item {
	t.Helper()
	select {
	case payload := <-c.send:
		var items []mediafeed.Item
		if err := json.Unmarshal(payload, &items); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		return items
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a payload")
		return nil
	}
}

func waitClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesAllClients(t *testing.T) {
	h := New()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	waitClients(t, h, 2)

	if err := h.Publish([]mediafeed.Item{{ID: 1, Title: "x"}}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{a, b} {
		items := recv(t, c)
		if len(items) != 1 || items[0].ID != 1 {
			t.Errorf("unexpected payload: %+v", items)
		}
	}
}

func TestLateJoinerGetsLatestList(t *testing.T) {
	h := New()
	go h.Run()

	first := newTestClient(h)
	waitClients(t, h, 1)

	h.Publish([]mediafeed.Item{{ID: 1}})
	h.Publish([]mediafeed.Item{{ID: 2}})
	recv(t, first)
	recv(t, first)

	late := newTestClient(h)
	items := recv(t, late)
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("late joiner should start from the latest list, got %+v", items)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := New()
	go h.Run()

	c := newTestClient(h)
	waitClients(t, h, 1)

	h.unregister <- c
	waitClients(t, h, 0)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
}
