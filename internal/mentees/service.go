package mentees

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/notify"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// ActionConfirmStatus settles an optimistic status toggle.
const ActionConfirmStatus = "mentees.status.confirm"

// Config tunes the simulated confirmation of status toggles.
type Config struct {
	ConfirmDelay time.Duration
	// FailureRate is the probability in [0, 1] that a confirmation fails.
	FailureRate float64
	// Rand returns a number in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// DefaultConfig matches the dashboard's simulated backend.
func DefaultConfig() Config {
	return Config{ConfirmDelay: 800 * time.Millisecond, FailureRate: 0.1}
}

// NewMentees binds the roster collection.
func NewMentees(env collection.Env) *collection.Collection[Mentee] {
	return collection.Bind(env, CollectionName, collection.Options[Mentee]{
		ID:    func(m Mentee) string { return m.ID },
		Seed:  seed.Func[Mentee]("mentees"),
		Clone: Mentee.Clone,
	})
}

// Service implements the mentees page.
type Service struct {
	mentees   *collection.Collection[Mentee]
	scheduler collection.Scheduler
	notices   notify.Publisher
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the service. Status confirmations hold undo tokens
// in memory, so scheduler must run steps in this process.
func NewService(
	mentees *collection.Collection[Mentee],
	scheduler collection.Scheduler,
	notices notify.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	return &Service{
		mentees:   mentees,
		scheduler: scheduler,
		notices:   notices,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterSteps installs the confirmation handler.
func (s *Service) RegisterSteps(steps *collection.Steps) {
	steps.Handle(ActionConfirmStatus, s.confirmStatus)
	steps.Track(s.mentees.Key(), s.mentees.Reload)
}

// List runs v over the roster.
func (s *Service) List(ctx context.Context, v *query.View) (query.Page[Mentee], string, error) {
	return s.mentees.Query(ctx, v, Schema)
}

// Get returns one mentee.
func (s *Service) Get(ctx context.Context, id string) (Mentee, bool, error) {
	return s.mentees.Get(ctx, id)
}

// Create validates in and prepends a new active mentee.
func (s *Service) Create(ctx context.Context, in NewMentee) (Mentee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(in); err != nil {
		return Mentee{}, err
	}
	m := Mentee{
		ID:       collection.NewID("mentee"),
		Name:     in.Name,
		Email:    in.Email,
		Goals:    in.Goals,
		Tags:     in.Tags,
		Status:   StatusActive,
		JoinedAt: s.now().UTC(),
		Notes:    in.Notes,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if err := s.mentees.Prepend(ctx, m); err != nil {
		return Mentee{}, fmt.Errorf("mentees: create: %w", err)
	}
	s.logger.Info("mentee created", slog.String("id", m.ID))
	return m, nil
}

// ToggleStatus flips active and paused optimistically. The change is visible
// at once; a confirmation step later commits it or rolls it back and raises
// a notice.
func (s *Service) ToggleStatus(ctx context.Context, id string) (bool, error) {
	undo, ok, err := s.mentees.Apply(ctx, id, func(m *Mentee) error {
		switch m.Status {
		case StatusActive:
			m.Status = StatusPaused
		case StatusPaused:
			m.Status = StatusActive
		default:
			return fmt.Errorf("%w: cannot toggle %s", collection.ErrInvalidTransition, m.Status)
		}
		return nil
	})
	if err != nil || !ok {
		return ok, err
	}
	step := collection.Step{
		Action:   ActionConfirmStatus,
		Key:      s.mentees.Key(),
		RecordID: id,
		Args:     map[string]string{"token": undo.Token},
		Delay:    s.cfg.ConfirmDelay,
	}
	if err := s.scheduler.Schedule(ctx, step); err != nil {
		s.logger.Warn("schedule status confirmation", slog.String("id", id), slog.Any("error", err))
		s.mentees.Commit(undo)
	}
	return true, nil
}

func (s *Service) confirmStatus(ctx context.Context, step collection.Step) error {
	undo := collection.Undo{Token: step.Args["token"], RecordID: step.RecordID}
	if s.cfg.Rand() >= s.cfg.FailureRate {
		s.mentees.Commit(undo)
		return nil
	}
	rolled, err := s.mentees.Rollback(ctx, undo)
	if err != nil {
		return fmt.Errorf("mentees: rollback: %w", err)
	}
	if !rolled {
		s.logger.Debug("status rollback skipped", slog.String("id", step.RecordID))
		return nil
	}
	s.logger.Warn("status change rolled back", slog.String("id", step.RecordID))
	if s.notices != nil {
		s.notices.Publish(notify.Notice{
			Level:    notify.LevelError,
			Source:   "mentees",
			RecordID: step.RecordID,
			Message:  "Could not update the mentee's status. The change was reverted.",
		})
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, id string, to Status) (bool, error) {
	return s.mentees.Update(ctx, id, func(m *Mentee) error {
		if err := Transitions.Check(string(m.Status), string(to)); err != nil {
			return err
		}
		m.Status = to
		return nil
	})
}

// Archive hides a mentee from the active roster.
func (s *Service) Archive(ctx context.Context, id string) (bool, error) {
	return s.setStatus(ctx, id, StatusArchived)
}

// Unarchive restores an archived mentee as active.
func (s *Service) Unarchive(ctx context.Context, id string) (bool, error) {
	return s.setStatus(ctx, id, StatusActive)
}

// Delete removes a mentee. A pending confirmation becomes a no-op.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.mentees.Delete(ctx, id)
}
