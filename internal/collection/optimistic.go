package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Undo identifies an optimistic mutation that may still be rolled back.
type Undo struct {
	Token    string `json:"token"`
	RecordID string `json:"record_id"`
}

// Apply is the first phase of an optimistic mutation: it snapshots the record,
// applies fn, persists, and hands back an Undo. The caller later settles it
// with Commit or Rollback. A missing id yields a zero Undo and false.
func (c *Collection[T]) Apply(ctx context.Context, id string, fn func(*T) error) (Undo, bool, error) {
	if err := c.Load(ctx); err != nil {
		return Undo{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Undo{}, false, nil
	}
	before := c.clone(c.items[i])
	next := c.clone(c.items[i])
	if err := fn(&next); err != nil {
		return Undo{}, false, err
	}
	after, err := json.Marshal(next)
	if err != nil {
		return Undo{}, false, fmt.Errorf("collection: encode: %w", err)
	}
	if err := c.commitLocked(ctx, "apply", func(items []T) []T {
		items[i] = next
		return items
	}); err != nil {
		return Undo{}, false, err
	}
	u := Undo{Token: uuid.NewString(), RecordID: id}
	c.undo[u.Token] = snapshot[T]{id: id, before: before, after: after}
	return u, true, nil
}

// Commit confirms an optimistic mutation and forgets its snapshot.
func (c *Collection[T]) Commit(u Undo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.undo, u.Token)
}

// Rollback restores the snapshot taken by Apply. It reports false when the
// token is unknown or already settled, when the record has been deleted in the
// meantime, or when the record was edited after Apply. A deleted record is
// never resurrected and a later edit is never undone.
func (c *Collection[T]) Rollback(ctx context.Context, u Undo) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.undo[u.Token]
	if !ok {
		return false, nil
	}
	delete(c.undo, u.Token)
	i := c.indexOf(snap.id)
	if i < 0 {
		c.logger.Debug("rollback skipped, record gone", slog.String("id", snap.id))
		return false, nil
	}
	if cur, err := json.Marshal(c.items[i]); err != nil || !bytes.Equal(cur, snap.after) {
		c.logger.Debug("rollback skipped, record changed", slog.String("id", snap.id))
		return false, nil
	}
	if err := c.commitLocked(ctx, "rollback", func(items []T) []T {
		items[i] = snap.before
		return items
	}); err != nil {
		return false, err
	}
	if c.observer != nil {
		c.observer.ObserveRollback(c.key)
	}
	return true, nil
}

// Pending reports how many optimistic mutations are unsettled.
func (c *Collection[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo)
}
