package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mentordesk/mentordesk/internal/activity"
	"github.com/mentordesk/mentordesk/internal/integrations"
	"github.com/mentordesk/mentordesk/internal/kyc"
	"github.com/mentordesk/mentordesk/internal/mentees"
	"github.com/mentordesk/mentordesk/internal/notify"
	"github.com/mentordesk/mentordesk/internal/observability"
	"github.com/mentordesk/mentordesk/internal/offers"
	"github.com/mentordesk/mentordesk/internal/payouts"
	"github.com/mentordesk/mentordesk/internal/profile"
	"github.com/mentordesk/mentordesk/internal/reviews"
	"github.com/mentordesk/mentordesk/internal/settings"
	"github.com/mentordesk/mentordesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ActivityHandler     *activity.Handler
	KYCHandler          *kyc.Handler
	ProfileHandler      *profile.Handler
	ReviewsHandler      *reviews.Handler
	PayoutsHandler      *payouts.Handler
	MenteesHandler      *mentees.Handler
	OffersHandler       *offers.Handler
	IntegrationsHandler *integrations.Handler
	SettingsHandler     *settings.Handler

	NoticesHandler *notify.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// RouterParamsFor builds every handler from a bootstrapped Runtime.
func RouterParamsFor(rt *Runtime) RouterParams {
	logger := rt.Logger
	return RouterParams{
		Logger:              logger,
		Config:              rt.Config,
		ActivityHandler:     activity.NewHandler(logger, rt.Activity),
		KYCHandler:          kyc.NewHandler(logger, rt.KYC, rt.Config.KYCMaxUpload),
		ProfileHandler:      profile.NewHandler(logger, rt.Profile),
		ReviewsHandler:      reviews.NewHandler(logger, rt.Reviews),
		PayoutsHandler:      payouts.NewHandler(logger, rt.Payouts),
		MenteesHandler:      mentees.NewHandler(logger, rt.Mentees),
		OffersHandler:       offers.NewHandler(logger, rt.Offers),
		IntegrationsHandler: integrations.NewHandler(logger, rt.Integrations),
		SettingsHandler:     settings.NewHandler(logger, rt.Settings),
		NoticesHandler:      notify.NewHandler(rt.Notices),
		JobHandler:          rt.JobHandler(),
		Metrics:             rt.Metrics,
	}
}

type mounter interface {
	MountRoutes(r chi.Router)
}

// NewRouter constructs the chi.Router with MentorDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		pages := []struct {
			path    string
			handler mounter
			enabled bool
		}{
			{"/activity", params.ActivityHandler, params.ActivityHandler != nil},
			{"/kyc", params.KYCHandler, params.KYCHandler != nil},
			{"/profile", params.ProfileHandler, params.ProfileHandler != nil},
			{"/reviews", params.ReviewsHandler, params.ReviewsHandler != nil},
			{"/payouts", params.PayoutsHandler, params.PayoutsHandler != nil},
			{"/mentees", params.MenteesHandler, params.MenteesHandler != nil},
			{"/offers", params.OffersHandler, params.OffersHandler != nil},
			{"/integrations", params.IntegrationsHandler, params.IntegrationsHandler != nil},
			{"/settings", params.SettingsHandler, params.SettingsHandler != nil},
		}
		for _, page := range pages {
			if page.enabled {
				r.Route(page.path, page.handler.MountRoutes)
			}
		}
	})

	if params.NoticesHandler != nil {
		r.Route("/notices", params.NoticesHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
