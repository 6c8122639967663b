package integrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// ActionDeliveryProgress completes a pending redelivery.
const ActionDeliveryProgress = "integrations.delivery.progress"

// DefaultRedeliveryAfter is how long a simulated redelivery stays pending.
const DefaultRedeliveryAfter = 800 * time.Millisecond

// errStale marks a progress step for a delivery that has already settled.
var errStale = errors.New("integrations: stale step")

// NewWebhooks binds the webhooks collection.
func NewWebhooks(env collection.Env) *collection.Collection[Webhook] {
	return collection.Bind(env, WebhooksCollection, collection.Options[Webhook]{
		ID:    func(w Webhook) string { return w.ID },
		Seed:  seed.Func[Webhook]("webhooks"),
		Clone: Webhook.Clone,
	})
}

// NewDeliveries binds the delivery log.
func NewDeliveries(env collection.Env) *collection.Collection[Delivery] {
	return collection.Bind(env, DeliveriesCollection, collection.Options[Delivery]{
		ID:   func(d Delivery) string { return d.ID },
		Seed: seed.Func[Delivery]("deliveries"),
	})
}

// Service implements the integrations page.
type Service struct {
	webhooks      *collection.Collection[Webhook]
	deliveries    *collection.Collection[Delivery]
	scheduler     collection.Scheduler
	redeliveryLag time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewService constructs the service. Redeliveries settle redeliveryAfter
// after they are queued.
func NewService(
	webhooks *collection.Collection[Webhook],
	deliveries *collection.Collection[Delivery],
	scheduler collection.Scheduler,
	redeliveryAfter time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		webhooks:      webhooks,
		deliveries:    deliveries,
		scheduler:     scheduler,
		redeliveryLag: redeliveryAfter,
		logger:        logger,
		now:           time.Now,
	}
}

// RegisterSteps installs the redelivery handler.
func (s *Service) RegisterSteps(steps *collection.Steps) {
	steps.Handle(ActionDeliveryProgress, s.progressDelivery)
	steps.Track(s.deliveries.Key(), s.deliveries.Reload)
}

// ListWebhooks runs v over the webhooks.
func (s *Service) ListWebhooks(ctx context.Context, v *query.View) (query.Page[Webhook], string, error) {
	return s.webhooks.Query(ctx, v, WebhookSchema)
}

// GetWebhook returns one webhook.
func (s *Service) GetWebhook(ctx context.Context, id string) (Webhook, bool, error) {
	return s.webhooks.Get(ctx, id)
}

func newSecret() string {
	return "whsec_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateWebhook validates in and prepends an active webhook with a fresh
// signing secret.
func (s *Service) CreateWebhook(ctx context.Context, in WebhookInput) (Webhook, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := shared.ValidateStruct(in); err != nil {
		return Webhook{}, err
	}
	events := slices.Clone(in.Events)
	slices.Sort(events)
	w := Webhook{
		ID:        collection.NewID("wh"),
		URL:       in.URL,
		Events:    slices.Compact(events),
		Active:    true,
		Secret:    newSecret(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.webhooks.Prepend(ctx, w); err != nil {
		return Webhook{}, fmt.Errorf("integrations: create webhook: %w", err)
	}
	s.logger.Info("webhook created", slog.String("id", w.ID), slog.String("url", w.URL))
	return w, nil
}

// ToggleWebhook flips whether a webhook receives events.
func (s *Service) ToggleWebhook(ctx context.Context, id string) (bool, error) {
	return s.webhooks.Update(ctx, id, func(w *Webhook) error {
		w.Active = !w.Active
		return nil
	})
}

// DeleteWebhook removes a webhook together with its deliveries.
func (s *Service) DeleteWebhook(ctx context.Context, id string) (bool, error) {
	removed, err := s.webhooks.Delete(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	if _, err := s.deliveries.DeleteWhere(ctx, func(d Delivery) bool { return d.WebhookID == id }); err != nil {
		return true, fmt.Errorf("integrations: delete deliveries of %s: %w", id, err)
	}
	return true, nil
}

// ListDeliveries runs v over the delivery log.
func (s *Service) ListDeliveries(ctx context.Context, v *query.View) (query.Page[Delivery], string, error) {
	return s.deliveries.Query(ctx, v, DeliverySchema)
}

// Redeliver queues a new pending attempt for the event of delivery id. The
// attempt succeeds after the redelivery delay unless it is deleted first. A
// missing delivery or webhook reports false.
func (s *Service) Redeliver(ctx context.Context, id string) (Delivery, bool, error) {
	orig, ok, err := s.deliveries.Get(ctx, id)
	if err != nil || !ok {
		return Delivery{}, false, err
	}
	exists, err := s.webhooks.Exists(ctx, orig.WebhookID)
	if err != nil || !exists {
		return Delivery{}, false, err
	}
	d := Delivery{
		ID:        collection.NewID("dlv"),
		WebhookID: orig.WebhookID,
		Event:     orig.Event,
		Status:    DeliveryPending,
		At:        s.now().UTC(),
	}
	if err := s.deliveries.Prepend(ctx, d); err != nil {
		return Delivery{}, false, fmt.Errorf("integrations: redeliver: %w", err)
	}
	step := collection.Step{
		Action:   ActionDeliveryProgress,
		Key:      s.deliveries.Key(),
		RecordID: d.ID,
		Args:     map[string]string{"status": string(DeliverySucceeded)},
		Delay:    s.redeliveryLag,
	}
	if err := s.scheduler.Schedule(ctx, step); err != nil {
		s.logger.Warn("schedule redelivery", slog.String("id", d.ID), slog.Any("error", err))
	}
	return d, true, nil
}

func (s *Service) progressDelivery(ctx context.Context, step collection.Step) error {
	to := DeliveryStatus(step.Args["status"])
	if to != DeliverySucceeded && to != DeliveryFailed {
		return fmt.Errorf("%w: delivery status %q", collection.ErrInvalidTransition, to)
	}
	code := 200
	if to == DeliveryFailed {
		code = 500
	}
	ok, err := s.deliveries.Update(ctx, step.RecordID, func(d *Delivery) error {
		if DeliveryTransitions.Check(string(d.Status), string(to)) != nil {
			return errStale
		}
		d.Status = to
		d.ResponseCode = code
		d.DurationMS = int(step.Delay / time.Millisecond)
		return nil
	})
	if errors.Is(err, errStale) || (err == nil && !ok) {
		s.logger.Debug("redelivery step skipped", slog.String("id", step.RecordID))
		return nil
	}
	return err
}
