package activity

import (
	"context"
	"io"
	"log/slog"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
)

// NewItems binds the feed collection in env, seeded from the activity fixture.
func NewItems(env collection.Env) *collection.Collection[Item] {
	return collection.Bind(env, CollectionName, collection.Options[Item]{
		ID:    func(i Item) string { return i.ID },
		Seed:  seed.Func[Item]("activity"),
		Clone: Item.Clone,
	})
}

// Service implements the activity page.
type Service struct {
	items  *collection.Collection[Item]
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(items *collection.Collection[Item], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{items: items, logger: logger}
}

// List runs v over the feed and returns the page with the collection ETag.
func (s *Service) List(ctx context.Context, v *query.View) (query.Page[Item], string, error) {
	return s.items.Query(ctx, v, Schema)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (Item, bool, error) {
	return s.items.Get(ctx, id)
}

// SetRead marks an entry read or unread. Missing ids are a no-op.
func (s *Service) SetRead(ctx context.Context, id string, read bool) (bool, error) {
	return s.items.Update(ctx, id, func(i *Item) error {
		i.Read = read
		return nil
	})
}

// ToggleArchive flips the archived flag.
func (s *Service) ToggleArchive(ctx context.Context, id string) (bool, error) {
	return s.items.Update(ctx, id, func(i *Item) error {
		i.Archived = !i.Archived
		return nil
	})
}

// MarkAllRead marks every unread entry read and reports how many changed.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	n, err := s.items.UpdateAll(ctx, func(i *Item) bool {
		if i.Read {
			return false
		}
		i.Read = true
		return true
	})
	if err == nil && n > 0 {
		s.logger.Info("activity marked read", slog.Int("count", n))
	}
	return n, err
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.items.Delete(ctx, id)
}

// Export writes every entry matching v, in v's order, as CSV. Pagination is
// ignored.
func (s *Service) Export(ctx context.Context, v *query.View, w io.Writer) error {
	items, err := s.items.List(ctx)
	if err != nil {
		return err
	}
	sorted, err := query.Select(v, Schema, items)
	if err != nil {
		return err
	}
	return WriteCSV(w, sorted)
}
