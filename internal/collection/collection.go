// Package collection holds page-local record stores. Each Collection keeps its
// records in memory, loads them once from a Repository (falling back to a
// seed) and writes the whole array back after every mutation.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// ErrDuplicateID is returned when an insert reuses an identifier.
var ErrDuplicateID = fmt.Errorf("%w: duplicate id", shared.ErrConflict)

// Options configures a Collection.
type Options[T any] struct {
	// Key is the namespaced persistence key, e.g. "mentordesk.reviews.reviews".
	Key  string
	Repo Repository
	ID   func(T) string
	// Seed builds the fixture collection used when nothing is stored yet.
	Seed func() []T
	// Clone deep-copies a record. Records holding slices or maps need one so
	// snapshots stay independent of later edits.
	Clone    func(T) T
	Logger   *slog.Logger
	Observer Observer
	Notifier Notifier
}

// Collection is the record store for one page.
type Collection[T any] struct {
	key      string
	repo     Repository
	id       func(T) string
	seed     func() []T
	clone    func(T) T
	logger   *slog.Logger
	observer Observer
	notifier Notifier

	loads singleflight.Group

	mu     sync.Mutex
	loaded bool
	gen    uint64 // bumped by every committed write
	items  []T
	etag   string
	undo   map[string]snapshot[T]
}

type snapshot[T any] struct {
	id     string
	before T
	after  []byte
}

// New constructs a Collection. It does not touch the repository until Load.
func New[T any](opts Options[T]) *Collection[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clone := opts.Clone
	if clone == nil {
		clone = func(v T) T { return v }
	}
	seed := opts.Seed
	if seed == nil {
		seed = func() []T { return nil }
	}
	return &Collection[T]{
		key:      opts.Key,
		repo:     opts.Repo,
		id:       opts.ID,
		seed:     seed,
		clone:    clone,
		logger:   logger.With(slog.String("collection", opts.Key)),
		observer: opts.Observer,
		notifier: opts.Notifier,
		undo:     make(map[string]snapshot[T]),
	}
}

// Key returns the persistence key.
func (c *Collection[T]) Key() string { return c.key }

// Load reads the collection from the repository once. A missing key or a
// null payload falls back to the seed, which is not written back until the
// first mutation. A write committed while the read is in flight wins over the
// fetched payload.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	_, err, _ := c.loads.Do(c.key, func() (any, error) {
		c.mu.Lock()
		start := c.gen
		c.mu.Unlock()
		items, etag, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != start {
			c.logger.Debug("discarded stale load", slog.Uint64("generation", c.gen))
			c.loaded = true
			return nil, nil
		}
		c.items = items
		c.etag = etag
		c.loaded = true
		return nil, nil
	})
	return err
}

// Reload drops the cached copy and loads again.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Collection[T]) fetch(ctx context.Context) ([]T, string, error) {
	payload, err := c.repo.Load(ctx, c.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", fmt.Errorf("collection: load %s: %w", c.key, err)
	}
	items, ok, err := Decode[T](payload)
	if err != nil {
		return nil, "", fmt.Errorf("collection: load %s: %w", c.key, err)
	}
	if !ok {
		items = c.seed()
		c.logger.Debug("seeded collection", slog.Int("records", len(items)))
		payload, err = Encode(items)
		if err != nil {
			return nil, "", err
		}
	}
	return items, ETag(payload), nil
}

// List returns a copy of every record in stored order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = c.clone(item)
	}
	return out, nil
}

// ETag fingerprints the last loaded or saved payload.
func (c *Collection[T]) ETag(ctx context.Context) (string, error) {
	if err := c.Load(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.etag, nil
}

// listWithETag copies the records and reads the etag under one lock.
func (c *Collection[T]) listWithETag(ctx context.Context) ([]T, string, error) {
	if err := c.Load(ctx); err != nil {
		return nil, "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = c.clone(item)
	}
	return out, c.etag, nil
}

// Get returns the record with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if err := c.Load(ctx); err != nil {
		return zero, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return zero, false, nil
	}
	return c.clone(c.items[i]), true, nil
}

// Exists reports whether a record with id is present.
func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := c.Get(ctx, id)
	return ok, err
}

// Update replaces the record with id by the result of fn. A missing id is a
// silent no-op reported as false. An error from fn aborts without writing.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (bool, error) {
	if err := c.Load(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next := c.clone(c.items[i])
	if err := fn(&next); err != nil {
		return false, err
	}
	if err := c.commitLocked(ctx, "update", func(items []T) []T {
		items[i] = next
		return items
	}); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateAll applies fn to every record and reports how many changed.
func (c *Collection[T]) UpdateAll(ctx context.Context, fn func(*T) bool) (int, error) {
	if err := c.Load(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := 0
	next := make([]T, len(c.items))
	for i, item := range c.items {
		cp := c.clone(item)
		if fn(&cp) {
			changed++
		}
		next[i] = cp
	}
	if changed == 0 {
		return 0, nil
	}
	if err := c.commitLocked(ctx, "update_all", func([]T) []T { return next }); err != nil {
		return 0, err
	}
	return changed, nil
}

// Delete removes the record with id. A missing id is a silent no-op.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	return c.DeleteWhere(ctx, func(item T) bool { return c.id(item) == id })
}

// DeleteWhere removes every record matching pred.
func (c *Collection[T]) DeleteWhere(ctx context.Context, pred func(T) bool) (bool, error) {
	if err := c.Load(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.ContainsFunc(c.items, pred) {
		return false, nil
	}
	if err := c.commitLocked(ctx, "delete", func(items []T) []T {
		return slices.DeleteFunc(items, pred)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Prepend inserts item at the front.
func (c *Collection[T]) Prepend(ctx context.Context, item T) error {
	return c.insert(ctx, "prepend", item, true)
}

// Append inserts item at the back.
func (c *Collection[T]) Append(ctx context.Context, item T) error {
	return c.insert(ctx, "append", item, false)
}

func (c *Collection[T]) insert(ctx context.Context, op string, item T, front bool) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.id(item)
	if id == "" {
		return shared.NewValidationError("id", "required")
	}
	if c.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	return c.commitLocked(ctx, op, func(items []T) []T {
		if front {
			return slices.Insert(items, 0, item)
		}
		return append(items, item)
	})
}

// Replace swaps the whole collection, used by seeding tools.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := c.id(item)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	if err := c.commitLocked(ctx, "replace", func([]T) []T { return slices.Clone(items) }); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// commitLocked applies change to a copy of the records, persists the result
// and only then swaps it in. c.mu must be held.
func (c *Collection[T]) commitLocked(ctx context.Context, op string, change func([]T) []T) error {
	next := change(slices.Clone(c.items))
	payload, err := Encode(next)
	if err != nil {
		return err
	}
	if err := c.repo.Save(ctx, c.key, payload); err != nil {
		return fmt.Errorf("collection: save %s: %w", c.key, err)
	}
	c.items = next
	c.etag = ETag(payload)
	c.gen++
	if c.observer != nil {
		c.observer.ObserveMutation(c.key, op)
	}
	if c.notifier != nil {
		if err := c.notifier.Bump(ctx, c.key); err != nil {
			c.logger.Warn("publish invalidation", slog.Any("error", err))
		}
	}
	return nil
}

func (c *Collection[T]) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool { return c.id(item) == id })
}

// NewID returns a fresh identifier with a readable prefix.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Seed writes the fixture records to the repository. Without force it leaves
// an already stored key alone and reports false.
func (c *Collection[T]) Seed(ctx context.Context, force bool) (bool, error) {
	if !force {
		payload, err := c.repo.Load(ctx, c.key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("collection: seed %s: %w", c.key, err)
		}
		_, ok, err := Decode[T](payload)
		if err != nil {
			return false, fmt.Errorf("collection: seed %s: %w", c.key, err)
		}
		if ok {
			return false, nil
		}
	}
	if err := c.Replace(ctx, c.seed()); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns the records encoded the way they are persisted.
func (c *Collection[T]) Snapshot(ctx context.Context) ([]byte, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Encode(items)
}
