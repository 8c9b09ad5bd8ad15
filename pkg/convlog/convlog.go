// Package convlog keeps the append-only record of a voice session's
// dialogue. Turns are immutable once appended and ordered by append
// time; there is no edit or delete path.
package convlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleUser is a transcribed user utterance.
	RoleUser Role = "user"
	// RoleAssistant is a response from the agent.
	RoleAssistant Role = "assistant"
	// RoleError is a synthesized user-visible failure entry.
	RoleError Role = "error"
)

// Turn is a single dialogue entry. Immutable once appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Log is an ordered, append-only sequence of turns.
// Safe for concurrent use.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append adds a turn to the end of the log. It never fails.
func (l *Log) Append(turn Turn) {
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
}

// Snapshot returns a copy of the log in append order.
// Mutating the returned slice does not affect the log.
func (l *Log) Snapshot() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Find returns the turn with the given ID, if present.
func (l *Log) Find(id string) (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.turns {
		if t.ID == id {
			return t, true
		}
	}
	return Turn{}, false
}
