package integrations_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/integrations"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/shared"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

type fixture struct {
	svc        *integrations.Service
	deliveries *collection.Collection[integrations.Delivery]
	steps      *collection.Steps
	sched      *collection.TimerScheduler
}

func newFixture(t *testing.T, after time.Duration) fixture {
	t.Helper()
	env := testenv.Env(t)
	deliveries := integrations.NewDeliveries(env)
	steps := collection.NewSteps()
	sched := collection.NewTimerScheduler(steps, testenv.Logger())
	svc := integrations.NewService(integrations.NewWebhooks(env), deliveries, sched, after, testenv.Logger())
	svc.RegisterSteps(steps)
	t.Cleanup(sched.Wait)
	return fixture{svc: svc, deliveries: deliveries, steps: steps, sched: sched}
}

func delivery(t *testing.T, f fixture, id string) (integrations.Delivery, bool) {
	t.Helper()
	d, ok, err := f.deliveries.Get(context.Background(), id)
	require.NoError(t, err)
	return d, ok
}

func TestCreateWebhook(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	_, err := f.svc.CreateWebhook(ctx, integrations.WebhookInput{URL: "ftp://example.com", Events: []string{"booking.created"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "must be a valid URL", verr.Fields["url"])

	_, err = f.svc.CreateWebhook(ctx, integrations.WebhookInput{URL: "https://example.com/hook"})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "events")

	a, err := f.svc.CreateWebhook(ctx, integrations.WebhookInput{
		URL:    " https://example.com/hook ",
		Events: []string{"payout.paid", "booking.created", "payout.paid"},
	})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/hook", a.URL)
	require.Equal(t, []string{"booking.created", "payout.paid"}, a.Events)
	require.True(t, a.Active)
	require.True(t, strings.HasPrefix(a.Secret, "whsec_"))

	b, err := f.svc.CreateWebhook(ctx, integrations.WebhookInput{URL: "https://example.com/other", Events: []string{"review.created"}})
	require.NoError(t, err)
	require.NotEqual(t, a.Secret, b.Secret)
}

func TestDeleteWebhookRemovesDeliveries(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	changed, err := f.svc.DeleteWebhook(ctx, "wh-2")
	require.NoError(t, err)
	require.True(t, changed)

	all, err := f.deliveries.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, d := range all {
		require.NotEqual(t, "wh-2", d.WebhookID)
	}

	changed, err = f.svc.DeleteWebhook(ctx, "wh-2")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestRedeliverSucceedsAfterDelay(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)

	d, ok, err := f.svc.Redeliver(context.Background(), "dlv-9004")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, integrations.DeliveryPending, d.Status)
	require.Equal(t, "wh-2", d.WebhookID)
	require.Equal(t, "invoice.paid", d.Event)

	all, err := f.deliveries.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, d.ID, all[0].ID)

	f.sched.Wait()
	got, ok := delivery(t, f, d.ID)
	require.True(t, ok)
	require.Equal(t, integrations.DeliverySucceeded, got.Status)
	require.Equal(t, 200, got.ResponseCode)
	require.Equal(t, 10, got.DurationMS)
}

func TestRepeatedDeliveryStepIsNoop(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	ctx := context.Background()

	d, ok, err := f.svc.Redeliver(ctx, "dlv-9004")
	require.NoError(t, err)
	require.True(t, ok)
	f.sched.Wait()

	step := collection.Step{
		Action:   integrations.ActionDeliveryProgress,
		Key:      f.deliveries.Key(),
		RecordID: d.ID,
		Args:     map[string]string{"status": string(integrations.DeliveryFailed)},
	}
	require.NoError(t, f.steps.Dispatch(ctx, step))
	got, ok := delivery(t, f, d.ID)
	require.True(t, ok)
	require.Equal(t, integrations.DeliverySucceeded, got.Status)
	require.Equal(t, 200, got.ResponseCode)

	step.Args["status"] = "bounced"
	require.ErrorIs(t, f.steps.Dispatch(ctx, step), collection.ErrInvalidTransition)
}

func TestRedeliveryOfDeletedWebhookIsNoop(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	ctx := context.Background()

	d, ok, err := f.svc.Redeliver(ctx, "dlv-9005")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.svc.DeleteWebhook(ctx, "wh-1")
	require.NoError(t, err)

	f.sched.Wait()
	_, ok = delivery(t, f, d.ID)
	require.False(t, ok)

	_, ok, err = f.svc.Redeliver(ctx, "dlv-9003")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListDeliveries(t *testing.T) {
	f := newFixture(t, time.Millisecond)

	v := query.NewView(0)
	v.SetStatus(query.Only(string(integrations.DeliveryFailed)))
	v.SetCategories(query.Only("invoice.paid", "review.created"))
	page, _, err := f.svc.ListDeliveries(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "dlv-9004", page.Items[0].ID)

	v = query.NewView(0)
	v.SetSort("slowest")
	page, _, err = f.svc.ListDeliveries(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, "dlv-9004", page.Items[0].ID)
}

func TestHandler(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	r := chi.NewRouter()
	r.Route("/api/integrations", integrations.NewHandler(testenv.Logger(), f.svc).MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks",
		bytes.NewBufferString(`{"url":"https://example.com/x","events":["booking.created"]}`)))
	require.Equal(t, http.StatusCreated, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/wh-3/toggle", nil))
	require.Equal(t, http.StatusOK, res.Code)
	var out struct {
		Changed bool                 `json:"changed"`
		Record  integrations.Webhook `json:"record"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.True(t, out.Record.Active)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/integrations/deliveries/dlv-9002/redeliver", nil))
	require.Equal(t, http.StatusAccepted, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/integrations/deliveries/dlv-0000/redeliver", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"id":"dlv-0000","changed":false}`, res.Body.String())

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/integrations/webhooks/wh-9", nil))
	require.Equal(t, http.StatusNotFound, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/integrations/webhooks/wh-1?confirm=wh-1", nil))
	require.Equal(t, http.StatusOK, res.Code)
}
