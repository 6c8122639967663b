package reviews

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// ActionReplyProgress is the delayed step that advances a reply's status.
const ActionReplyProgress = "reviews.reply.progress"

const maxReplyLength = 2000

// errStale marks a delayed step whose target no longer accepts it.
var errStale = errors.New("reviews: stale step")

// Config holds the reply receipt delays.
type Config struct {
	// DeliveredAfter is the delay from sending to delivered.
	DeliveredAfter time.Duration
	// ReadAfter is the delay from delivered to read.
	ReadAfter time.Duration
}

// DefaultConfig matches the dashboard's simulated receipts.
func DefaultConfig() Config {
	return Config{DeliveredAfter: 400 * time.Millisecond, ReadAfter: 600 * time.Millisecond}
}

// NewReviews binds the reviews collection.
func NewReviews(env collection.Env) *collection.Collection[Review] {
	return collection.Bind(env, CollectionName, collection.Options[Review]{
		ID:    func(r Review) string { return r.ID },
		Seed:  seed.Func[Review]("reviews"),
		Clone: Review.Clone,
	})
}

// Service implements the reviews page.
type Service struct {
	reviews   *collection.Collection[Review]
	scheduler collection.Scheduler
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the service. Replies schedule their receipts on
// scheduler.
func NewService(reviews *collection.Collection[Review], scheduler collection.Scheduler, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reviews: reviews, scheduler: scheduler, cfg: cfg, logger: logger, now: time.Now}
}

// RegisterSteps installs the reply progression handler.
func (s *Service) RegisterSteps(steps *collection.Steps) {
	steps.Handle(ActionReplyProgress, s.progressReply)
	steps.Track(s.reviews.Key(), s.reviews.Reload)
}

// List runs v over the reviews.
func (s *Service) List(ctx context.Context, v *query.View) (query.Page[Review], string, error) {
	return s.reviews.Query(ctx, v, Schema)
}

// Get returns one review.
func (s *Service) Get(ctx context.Context, id string) (Review, bool, error) {
	return s.reviews.Get(ctx, id)
}

// ToggleFeatured flips the featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	return s.reviews.Update(ctx, id, func(r *Review) error {
		r.Featured = !r.Featured
		return nil
	})
}

// SetStatus moves a review along the moderation allow-list.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (bool, error) {
	if !slices.Contains(Transitions.States(), string(to)) {
		return false, shared.NewValidationError("status", "unknown status")
	}
	return s.reviews.Update(ctx, id, func(r *Review) error {
		if err := Transitions.Check(string(r.Status), string(to)); err != nil {
			return err
		}
		r.Status = to
		return nil
	})
}

// Flag marks a review for moderation.
func (s *Service) Flag(ctx context.Context, id string) (bool, error) {
	return s.SetStatus(ctx, id, StatusFlagged)
}

// Unflag publishes a flagged review again.
func (s *Service) Unflag(ctx context.Context, id string) (bool, error) {
	return s.SetStatus(ctx, id, StatusPublished)
}

// Archive hides a review.
func (s *Service) Archive(ctx context.Context, id string) (bool, error) {
	return s.SetStatus(ctx, id, StatusArchived)
}

// Unarchive publishes an archived review.
func (s *Service) Unarchive(ctx context.Context, id string) (bool, error) {
	return s.SetStatus(ctx, id, StatusPublished)
}

// Resolve closes a flagged review.
func (s *Service) Resolve(ctx context.Context, id string) (bool, error) {
	return s.SetStatus(ctx, id, StatusResolved)
}

// Delete removes a review. Pending reply receipts become no-ops.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.reviews.Delete(ctx, id)
}

// Reply appends a sent reply and schedules its delivered and read receipts.
// A missing review reports false.
func (s *Service) Reply(ctx context.Context, id, body string) (Reply, bool, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Reply{}, false, shared.NewValidationError("body", "required")
	}
	if len(body) > maxReplyLength {
		return Reply{}, false, shared.NewValidationError("body", "too long")
	}
	reply := Reply{
		ID:        collection.NewID("reply"),
		Body:      body,
		Status:    ReplySent,
		CreatedAt: s.now().UTC(),
	}
	ok, err := s.reviews.Update(ctx, id, func(r *Review) error {
		r.Replies = append(r.Replies, reply)
		return nil
	})
	if err != nil || !ok {
		return Reply{}, ok, err
	}

	steps := []collection.Step{
		s.replyStep(id, reply.ID, ReplyDelivered, s.cfg.DeliveredAfter),
		s.replyStep(id, reply.ID, ReplyRead, s.cfg.DeliveredAfter+s.cfg.ReadAfter),
	}
	for _, step := range steps {
		if err := s.scheduler.Schedule(ctx, step); err != nil {
			s.logger.Warn("schedule reply receipt",
				slog.String("review_id", id),
				slog.String("reply_id", reply.ID),
				slog.Any("error", err))
		}
	}
	return reply, true, nil
}

func (s *Service) replyStep(reviewID, replyID string, to ReplyStatus, delay time.Duration) collection.Step {
	return collection.Step{
		Action:   ActionReplyProgress,
		Key:      s.reviews.Key(),
		RecordID: reviewID,
		Args:     map[string]string{"reply_id": replyID, "status": string(to)},
		Delay:    delay,
	}
}

// progressReply advances a reply. A deleted review or reply, or a status
// that would move backwards, leaves the collection untouched.
func (s *Service) progressReply(ctx context.Context, step collection.Step) error {
	replyID := step.Args["reply_id"]
	to := ReplyStatus(step.Args["status"])
	if to.rank() == 0 {
		return shared.NewValidationError("status", "unknown reply status")
	}
	ok, err := s.reviews.Update(ctx, step.RecordID, func(r *Review) error {
		i := slices.IndexFunc(r.Replies, func(rp Reply) bool { return rp.ID == replyID })
		if i < 0 || r.Replies[i].Status.rank() >= to.rank() {
			return errStale
		}
		r.Replies[i].Status = to
		return nil
	})
	if errors.Is(err, errStale) || (err == nil && !ok) {
		s.logger.Debug("reply receipt skipped",
			slog.String("review_id", step.RecordID),
			slog.String("reply_id", replyID))
		return nil
	}
	return err
}

// Stats summarises the reviews matching v.
func (s *Service) Stats(ctx context.Context, v *query.View) (Stats, error) {
	items, err := s.reviews.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	matched, err := query.Select(v, Schema, items)
	if err != nil {
		return Stats{}, err
	}
	return Summarise(matched), nil
}
