// Package settings stores the mentor's account preferences.
package settings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

const (
	// CollectionName is the storage name of the settings record.
	CollectionName = "settings.settings"
	// RecordID identifies the single settings record.
	RecordID = "settings"
)

// Notifications selects the channels the mentor is alerted on.
type Notifications struct {
	Email  bool   `json:"email" yaml:"email"`
	SMS    bool   `json:"sms" yaml:"sms"`
	Push   bool   `json:"push" yaml:"push"`
	Digest string `json:"digest" yaml:"digest" validate:"oneof=off daily weekly"`
}

// Privacy controls what the public profile shows.
type Privacy struct {
	PublicProfile bool `json:"public_profile" yaml:"public_profile"`
	ShowRates     bool `json:"show_rates" yaml:"show_rates"`
}

// Settings is the single preferences record.
type Settings struct {
	ID            string        `json:"id" yaml:"id"`
	Timezone      string        `json:"timezone" yaml:"timezone" validate:"required,timezone"`
	Currency      string        `json:"currency" yaml:"currency" validate:"required,iso4217"`
	WeekStartsOn  string        `json:"week_starts_on" yaml:"week_starts_on" validate:"oneof=monday sunday saturday"`
	Notifications Notifications `json:"notifications" yaml:"notifications"`
	Privacy       Privacy       `json:"privacy" yaml:"privacy"`
	UpdatedAt     time.Time     `json:"updated_at" yaml:"updated_at"`
}

// Input is the update payload; every field is replaced.
type Input struct {
	Timezone      string        `json:"timezone"`
	Currency      string        `json:"currency"`
	WeekStartsOn  string        `json:"week_starts_on"`
	Notifications Notifications `json:"notifications"`
	Privacy       Privacy       `json:"privacy"`
}

// NewSettings binds the settings collection.
func NewSettings(env collection.Env) *collection.Collection[Settings] {
	return collection.Bind(env, CollectionName, collection.Options[Settings]{
		ID:   func(s Settings) string { return s.ID },
		Seed: seed.Func[Settings]("settings"),
	})
}

// Service implements the settings page.
type Service struct {
	settings *collection.Collection[Settings]
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service.
func NewService(settings *collection.Collection[Settings], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{settings: settings, logger: logger, now: time.Now}
}

// Get returns the settings record.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	st, ok, err := s.settings.Get(ctx, RecordID)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Settings{}, shared.ErrNotFound
	}
	return st, nil
}

// Update validates in and replaces the stored settings. Nothing is written
// when validation fails.
func (s *Service) Update(ctx context.Context, in Input) (Settings, error) {
	next := Settings{
		ID:            RecordID,
		Timezone:      strings.TrimSpace(in.Timezone),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		WeekStartsOn:  strings.ToLower(strings.TrimSpace(in.WeekStartsOn)),
		Notifications: in.Notifications,
		Privacy:       in.Privacy,
	}
	if next.Notifications.Digest == "" {
		next.Notifications.Digest = "off"
	}
	if err := shared.ValidateStruct(next); err != nil {
		return Settings{}, err
	}
	next.UpdatedAt = s.now().UTC()
	ok, err := s.settings.Update(ctx, RecordID, func(st *Settings) error {
		*st = next
		return nil
	})
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Settings{}, shared.ErrNotFound
	}
	s.logger.Info("settings updated",
		slog.String("timezone", next.Timezone),
		slog.String("currency", next.Currency))
	return next, nil
}
