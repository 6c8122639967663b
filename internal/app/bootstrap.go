package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/mentordesk/mentordesk/internal/activity"
	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/integrations"
	"github.com/mentordesk/mentordesk/internal/kyc"
	"github.com/mentordesk/mentordesk/internal/mentees"
	"github.com/mentordesk/mentordesk/internal/notify"
	"github.com/mentordesk/mentordesk/internal/observability"
	"github.com/mentordesk/mentordesk/internal/offers"
	"github.com/mentordesk/mentordesk/internal/payouts"
	"github.com/mentordesk/mentordesk/internal/platform/cache"
	"github.com/mentordesk/mentordesk/internal/profile"
	"github.com/mentordesk/mentordesk/internal/reviews"
	"github.com/mentordesk/mentordesk/internal/settings"
	"github.com/mentordesk/mentordesk/internal/store"
	"github.com/mentordesk/mentordesk/jobs"
)

// Runtime is one process worth of wired collections and services. The
// server, the worker and mentorctl all build the same Runtime.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Notices *notify.Center

	Redis       *redis.Client
	Backend     *store.Backend
	Invalidator *collection.Invalidator
	Registry    *collection.Registry
	Steps       *collection.Steps

	// Timers always runs in-process; mentee confirmations hold undo tokens
	// that only exist in this process.
	Timers    *collection.TimerScheduler
	Scheduler collection.Scheduler

	Activity     *activity.Service
	KYC          *kyc.Service
	Profile      *profile.Service
	Reviews      *reviews.Service
	Payouts      *payouts.Service
	Mentees      *mentees.Service
	Offers       *offers.Service
	Integrations *integrations.Service
	Settings     *settings.Service

	closers []func() error
}

// Bootstrap connects the configured backends and wires every page.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Notices:  notify.NewCenter(cfg.NoticeCapacity, logger),
		Registry: collection.NewRegistry(),
		Steps:    collection.NewSteps(),
	}

	if cfg.UsesRedis() {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		rt.Redis = client
		rt.closers = append(rt.closers, client.Close)
		rt.Invalidator = collection.NewInvalidator(client, cfg.StoreNamespace+".invalidate", logger)
	}

	storeCfg := cfg.StoreConfig()
	storeCfg.Redis = rt.Redis
	backend, err := store.Open(ctx, storeCfg, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	rt.Backend = backend
	rt.closers = append(rt.closers, func() error { backend.Close(); return nil })

	env := collection.Env{
		Namespace: cfg.StoreNamespace,
		Repo:      backend.Repo,
		Logger:    logger,
		Observer:  rt.Metrics,
	}
	if rt.Invalidator != nil {
		env.Notifier = rt.Invalidator
	}

	rt.Timers = collection.NewTimerScheduler(rt.Steps, logger)
	rt.Scheduler = rt.Timers
	if cfg.Scheduler == SchedulerAsynq {
		client := jobs.NewClient(rt.redisOpts())
		rt.closers = append(rt.closers, client.Close)
		rt.Scheduler = jobs.NewAsynqScheduler(client)
	}

	rt.wire(env)
	return rt, nil
}

func (rt *Runtime) wire(env collection.Env) {
	cfg, logger := rt.Config, rt.Logger

	items := activity.NewItems(env)
	rt.Activity = activity.NewService(items, logger)

	docs, verification := kyc.NewDocuments(env), kyc.NewVerification(env)
	rt.KYC = kyc.NewService(docs, verification, logger)

	profiles, audit := profile.NewProfiles(env), profile.NewAudit(env)
	rt.Profile = profile.NewService(profiles, audit, logger)

	reviewItems := reviews.NewReviews(env)
	rt.Reviews = reviews.NewService(reviewItems, rt.Scheduler, reviews.Config{
		DeliveredAfter: cfg.ReplyDeliveredAfter,
		ReadAfter:      cfg.ReplyReadAfter,
	}, logger)
	rt.Reviews.RegisterSteps(rt.Steps)

	invoices, payoutItems, taxes := payouts.NewInvoices(env), payouts.NewPayouts(env), payouts.NewTaxes(env)
	rt.Payouts = payouts.NewService(invoices, payoutItems, taxes, logger)

	roster := mentees.NewMentees(env)
	menteeCfg := mentees.DefaultConfig()
	menteeCfg.ConfirmDelay = cfg.MenteeConfirmDelay
	menteeCfg.FailureRate = cfg.MenteeFailureRate
	rt.Mentees = mentees.NewService(roster, rt.Timers, rt.Notices, menteeCfg, logger)
	rt.Mentees.RegisterSteps(rt.Steps)

	offerItems, sessions, requests := offers.NewOffers(env), offers.NewSessions(env), offers.NewRequests(env)
	rt.Offers = offers.NewService(offerItems, sessions, requests, logger)

	webhooks, deliveries := integrations.NewWebhooks(env), integrations.NewDeliveries(env)
	rt.Integrations = integrations.NewService(webhooks, deliveries, rt.Scheduler, cfg.RedeliveryAfter, logger)
	rt.Integrations.RegisterSteps(rt.Steps)

	prefs := settings.NewSettings(env)
	rt.Settings = settings.NewService(prefs, logger)

	rt.Registry.Add(
		items, docs, verification, profiles, audit, reviewItems,
		invoices, payoutItems, taxes, roster,
		offerItems, sessions, requests, webhooks, deliveries, prefs,
	)
}

func (rt *Runtime) redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: rt.Config.RedisAddr, Password: rt.Config.RedisPassword, DB: rt.Config.RedisDB}
}

// Load reads every collection up front so the first request does not pay for it.
func (rt *Runtime) Load(ctx context.Context) error {
	if err := rt.Registry.LoadAll(ctx); err != nil {
		return fmt.Errorf("app: load collections: %w", err)
	}
	rt.Logger.Info("collections loaded", slog.Int("count", len(rt.Registry.Keys())))
	return nil
}

// Listen reloads collections written by other processes. Without redis it
// returns immediately.
func (rt *Runtime) Listen(ctx context.Context) error {
	return rt.Invalidator.Listen(ctx, func(ctx context.Context, key string) {
		if err := rt.Registry.Reload(ctx, key); err != nil {
			rt.Logger.Warn("reload collection", slog.String("key", key), slog.Any("error", err))
			return
		}
		rt.Logger.Debug("collection reloaded", slog.String("key", key))
	})
}

// JobHandler exposes queue health. The in-process scheduler has no queue.
func (rt *Runtime) JobHandler() *jobs.Handler {
	if rt.Config.Scheduler != SchedulerAsynq {
		return jobs.NewHandler(nil, rt.Logger)
	}
	inspector := asynq.NewInspector(rt.redisOpts())
	rt.closers = append(rt.closers, inspector.Close)
	return jobs.NewHandler(inspector, rt.Logger)
}

// Close waits for armed timers and releases every handle.
func (rt *Runtime) Close() {
	if rt.Timers != nil {
		rt.Timers.Wait()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.Logger.Warn("close runtime", slog.Any("error", err))
		}
	}
	rt.closers = nil
}
