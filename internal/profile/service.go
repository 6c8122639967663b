package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// DefaultActor is recorded when a change carries no actor.
const DefaultActor = "mentor"

// NewProfiles binds the one-record profile collection.
func NewProfiles(env collection.Env) *collection.Collection[Profile] {
	return collection.Bind(env, ProfileCollection, collection.Options[Profile]{
		ID:    func(p Profile) string { return p.ID },
		Seed:  seed.Func[Profile]("profile"),
		Clone: Profile.Clone,
	})
}

// NewAudit binds the audit log collection.
func NewAudit(env collection.Env) *collection.Collection[AuditEntry] {
	return collection.Bind(env, AuditCollection, collection.Options[AuditEntry]{
		ID:   func(a AuditEntry) string { return a.ID },
		Seed: seed.Func[AuditEntry]("profile_audit"),
	})
}

// Service implements the profile page.
type Service struct {
	profiles *collection.Collection[Profile]
	audit    *collection.Collection[AuditEntry]
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service.
func NewService(profiles *collection.Collection[Profile], audit *collection.Collection[AuditEntry], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profiles: profiles, audit: audit, logger: logger, now: time.Now}
}

// Get returns the profile.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	p, ok, err := s.profiles.Get(ctx, ProfileID)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

// Update validates and applies patch, then appends one audit entry per
// changed field, newest first. It returns the stored profile and the entries
// written.
func (s *Service) Update(ctx context.Context, actor string, patch Patch) (Profile, []AuditEntry, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Profile{}, nil, err
	}
	next := current.Clone()
	patch.apply(&next)
	if err := shared.ValidateStruct(next); err != nil {
		return Profile{}, nil, err
	}

	now := s.now().UTC()
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = DefaultActor
	}
	var entries []AuditEntry
	before := current.fields()
	for i, after := range next.fields() {
		if before[i][1] == after[1] {
			continue
		}
		entries = append(entries, AuditEntry{
			ID:     collection.NewID("audit"),
			Action: ActionUpdate,
			Actor:  actor,
			Field:  after[0],
			Before: before[i][1],
			After:  after[1],
			At:     now,
		})
	}
	if len(entries) == 0 {
		return current, nil, nil
	}

	next.UpdatedAt = now
	if _, err := s.profiles.Update(ctx, ProfileID, func(p *Profile) error {
		*p = next
		return nil
	}); err != nil {
		return Profile{}, nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if err := s.audit.Prepend(ctx, entries[i]); err != nil {
			return Profile{}, nil, err
		}
	}
	s.logger.Info("profile updated", slog.String("actor", actor), slog.Int("fields", len(entries)))
	return next, entries, nil
}

// ListAudit runs v over the audit log.
func (s *Service) ListAudit(ctx context.Context, v *query.View) (query.Page[AuditEntry], string, error) {
	return s.audit.Query(ctx, v, AuditSchema)
}
