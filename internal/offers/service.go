package offers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// NewOffers binds the offers collection.
func NewOffers(env collection.Env) *collection.Collection[Offer] {
	return collection.Bind(env, OffersCollection, collection.Options[Offer]{
		ID:    func(o Offer) string { return o.ID },
		Seed:  seed.Func[Offer]("offers"),
		Clone: Offer.Clone,
	})
}

// NewSessions binds the group sessions collection.
func NewSessions(env collection.Env) *collection.Collection[GroupSession] {
	return collection.Bind(env, SessionsCollection, collection.Options[GroupSession]{
		ID:   func(g GroupSession) string { return g.ID },
		Seed: seed.Func[GroupSession]("group_sessions"),
	})
}

// NewRequests binds the session requests collection.
func NewRequests(env collection.Env) *collection.Collection[Request] {
	return collection.Bind(env, RequestsCollection, collection.Options[Request]{
		ID:   func(r Request) string { return r.ID },
		Seed: seed.Func[Request]("session_requests"),
	})
}

// Service implements the offers page.
type Service struct {
	offers   *collection.Collection[Offer]
	sessions *collection.Collection[GroupSession]
	requests *collection.Collection[Request]
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service.
func NewService(
	offers *collection.Collection[Offer],
	sessions *collection.Collection[GroupSession],
	requests *collection.Collection[Request],
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{offers: offers, sessions: sessions, requests: requests, logger: logger, now: time.Now}
}

// ListOffers runs v over the offers.
func (s *Service) ListOffers(ctx context.Context, v *query.View) (query.Page[Offer], string, error) {
	return s.offers.Query(ctx, v, OfferSchema)
}

// GetOffer returns one offer.
func (s *Service) GetOffer(ctx context.Context, id string) (Offer, bool, error) {
	return s.offers.Get(ctx, id)
}

func normalizeOffer(in OfferInput) (OfferInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return in, shared.ValidateStruct(in)
}

// CreateOffer validates in and prepends a new active offer.
func (s *Service) CreateOffer(ctx context.Context, in OfferInput) (Offer, error) {
	in, err := normalizeOffer(in)
	if err != nil {
		return Offer{}, err
	}
	o := Offer{
		ID:        collection.NewID("offer"),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	o.apply(in)
	if err := s.offers.Prepend(ctx, o); err != nil {
		return Offer{}, fmt.Errorf("offers: create: %w", err)
	}
	s.logger.Info("offer created", slog.String("id", o.ID), slog.String("kind", string(o.Kind)))
	return o, nil
}

func (o *Offer) apply(in OfferInput) {
	o.Title = in.Title
	o.Description = in.Description
	o.Kind = in.Kind
	o.Price = in.Price
	o.Currency = in.Currency
	o.DurationMinutes = in.DurationMinutes
	o.Tags = in.Tags
}

// UpdateOffer replaces the editable fields of an offer.
func (s *Service) UpdateOffer(ctx context.Context, id string, in OfferInput) (bool, error) {
	in, err := normalizeOffer(in)
	if err != nil {
		return false, err
	}
	return s.offers.Update(ctx, id, func(o *Offer) error {
		o.apply(in)
		return nil
	})
}

// ToggleActive flips whether an offer can be booked.
func (s *Service) ToggleActive(ctx context.Context, id string) (bool, error) {
	return s.offers.Update(ctx, id, func(o *Offer) error {
		o.Active = !o.Active
		return nil
	})
}

// ToggleFeatured flips the featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	return s.offers.Update(ctx, id, func(o *Offer) error {
		o.Featured = !o.Featured
		return nil
	})
}

// DeleteOffer removes an offer. Its sessions and requests are kept as
// history.
func (s *Service) DeleteOffer(ctx context.Context, id string) (bool, error) {
	return s.offers.Delete(ctx, id)
}

// ListSessions runs v over the group sessions.
func (s *Service) ListSessions(ctx context.Context, v *query.View) (query.Page[GroupSession], string, error) {
	return s.sessions.Query(ctx, v, SessionSchema)
}

// CreateSession schedules a group session for an existing group offer.
func (s *Service) CreateSession(ctx context.Context, in SessionInput) (GroupSession, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := shared.ValidateStruct(in); err != nil {
		return GroupSession{}, err
	}
	offer, ok, err := s.offers.Get(ctx, in.OfferID)
	if err != nil {
		return GroupSession{}, err
	}
	if !ok || offer.Kind != KindGroup {
		return GroupSession{}, shared.NewValidationError("offer_id", "must reference a group offer")
	}
	g := GroupSession{
		ID:       collection.NewID("session"),
		OfferID:  in.OfferID,
		Title:    in.Title,
		StartsAt: in.StartsAt.UTC(),
		Capacity: in.Capacity,
		Enrolled: in.Enrolled,
		Price:    in.Price,
		Status:   SessionScheduled,
	}
	if err := s.sessions.Prepend(ctx, g); err != nil {
		return GroupSession{}, fmt.Errorf("offers: create session: %w", err)
	}
	return g, nil
}

func (s *Service) setSessionStatus(ctx context.Context, id string, to SessionStatus) (bool, error) {
	return s.sessions.Update(ctx, id, func(g *GroupSession) error {
		if err := SessionTransitions.Check(string(g.Status), string(to)); err != nil {
			return err
		}
		g.Status = to
		return nil
	})
}

// CancelSession cancels a scheduled session.
func (s *Service) CancelSession(ctx context.Context, id string) (bool, error) {
	return s.setSessionStatus(ctx, id, SessionCancelled)
}

// CompleteSession marks a scheduled session as held.
func (s *Service) CompleteSession(ctx context.Context, id string) (bool, error) {
	return s.setSessionStatus(ctx, id, SessionCompleted)
}

// ListRequests runs v over the session requests.
func (s *Service) ListRequests(ctx context.Context, v *query.View) (query.Page[Request], string, error) {
	return s.requests.Query(ctx, v, RequestSchema)
}

func (s *Service) decide(ctx context.Context, id string, to RequestStatus) (bool, error) {
	changed, err := s.requests.Update(ctx, id, func(r *Request) error {
		if err := RequestTransitions.Check(string(r.Status), string(to)); err != nil {
			return err
		}
		r.Status = to
		return nil
	})
	if changed {
		s.logger.Info("session request decided", slog.String("id", id), slog.String("status", string(to)))
	}
	return changed, err
}

// ApproveRequest accepts a pending request.
func (s *Service) ApproveRequest(ctx context.Context, id string) (bool, error) {
	return s.decide(ctx, id, RequestApproved)
}

// DeclineRequest turns down a pending request.
func (s *Service) DeclineRequest(ctx context.Context, id string) (bool, error) {
	return s.decide(ctx, id, RequestDeclined)
}
