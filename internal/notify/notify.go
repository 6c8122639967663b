// Package notify keeps the short list of user-visible notices raised by
// background work, such as an optimistic change that had to be rolled back.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
)

// DefaultCapacity bounds the notice list when none is configured.
const DefaultCapacity = 50

// Level grades a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is one user-visible message.
type Notice struct {
	ID       string    `json:"id"`
	Level    Level     `json:"level"`
	Source   string    `json:"source"`
	RecordID string    `json:"record_id,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Publisher accepts notices.
type Publisher interface {
	Publish(n Notice) Notice
}

// Center is a bounded, newest-first, in-memory notice list.
type Center struct {
	mu       sync.Mutex
	capacity int
	notices  []Notice
	logger   *slog.Logger
	now      func() time.Time
}

// NewCenter returns a Center holding at most capacity notices.
func NewCenter(capacity int, logger *slog.Logger) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{capacity: capacity, logger: logger, now: time.Now}
}

// Publish records n, filling in the id, level and time when unset, and drops
// the oldest notice once the list is full.
func (c *Center) Publish(n Notice) Notice {
	if n.ID == "" {
		n.ID = collection.NewID("notice")
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if n.At.IsZero() {
		n.At = c.now().UTC()
	}
	c.mu.Lock()
	c.notices = slices.Insert(c.notices, 0, n)
	if len(c.notices) > c.capacity {
		c.notices = c.notices[:c.capacity]
	}
	c.mu.Unlock()

	c.logger.Info("notice published",
		slog.String("source", n.Source),
		slog.String("level", string(n.Level)),
		slog.String("record_id", n.RecordID))
	return n
}

// List returns the notices, newest first.
func (c *Center) List() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.notices)
}

// Clear drops every notice and reports how many there were.
func (c *Center) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.notices)
	c.notices = nil
	return n
}
