package reviews_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/platform/httpx"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/reviews"
	"github.com/mentordesk/mentordesk/internal/shared"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

type fixture struct {
	svc     *reviews.Service
	reviews *collection.Collection[reviews.Review]
	steps   *collection.Steps
	sched   *collection.TimerScheduler
}

func newFixture(t *testing.T, cfg reviews.Config) fixture {
	t.Helper()
	coll := reviews.NewReviews(testenv.Env(t))
	steps := collection.NewSteps()
	sched := collection.NewTimerScheduler(steps, testenv.Logger())
	svc := reviews.NewService(coll, sched, cfg, testenv.Logger())
	svc.RegisterSteps(steps)
	t.Cleanup(sched.Wait)
	return fixture{svc: svc, reviews: coll, steps: steps, sched: sched}
}

func ids(items []reviews.Review) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func TestToggleFeaturedTwice(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	for _, want := range []bool{true, false} {
		changed, err := f.svc.ToggleFeatured(ctx, "rev-502")
		require.NoError(t, err)
		require.True(t, changed)
		r, _, err := f.svc.Get(ctx, "rev-502")
		require.NoError(t, err)
		require.Equal(t, want, r.Featured)
	}
}

func TestModerationTransitions(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, "rev-502")
	require.ErrorIs(t, err, collection.ErrInvalidTransition)

	changed, err := f.svc.Flag(ctx, "rev-502")
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = f.svc.Resolve(ctx, "rev-502")
	require.NoError(t, err)
	require.True(t, changed)
	_, err = f.svc.Flag(ctx, "rev-502")
	require.ErrorIs(t, err, collection.ErrInvalidTransition)

	changed, err = f.svc.Unarchive(ctx, "rev-505")
	require.NoError(t, err)
	require.True(t, changed)

	_, err = f.svc.SetStatus(ctx, "rev-501", "hidden")
	require.ErrorIs(t, err, shared.ErrValidation)

	changed, err = f.svc.Archive(ctx, "missing")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestListSortsAndFlags(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	v := query.NewView(0)
	v.SetSort("flagged_first")
	page, _, err := f.svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"rev-503", "rev-501", "rev-502", "rev-504", "rev-505", "rev-506"}, ids(page.Items))

	v = query.NewView(0)
	v.SetSort("rating_desc")
	page, _, err = f.svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"rev-501", "rev-502", "rev-506", "rev-504", "rev-503", "rev-505"}, ids(page.Items))

	v = query.NewView(0)
	v.SetFlag("has_reply", query.TernaryNo)
	v.SetFlag("has_media", query.TernaryNo)
	page, _, err = f.svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"rev-502", "rev-503", "rev-506"}, ids(page.Items))

	v = query.NewView(0)
	lo := 4.0
	v.SetNumberRange(&lo, nil)
	v.SetCategories(query.Only("system design"))
	page, _, err = f.svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"rev-501", "rev-506"}, ids(page.Items))
}

func TestReplyProgression(t *testing.T) {
	f := newFixture(t, reviews.Config{DeliveredAfter: 20 * time.Millisecond, ReadAfter: 400 * time.Millisecond})
	ctx := context.Background()

	reply, ok, err := f.svc.Reply(ctx, "rev-502", "  Thanks Tomás!  ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Thanks Tomás!", reply.Body)

	status := func() reviews.ReplyStatus {
		r, _, err := f.svc.Get(ctx, "rev-502")
		require.NoError(t, err)
		require.Len(t, r.Replies, 1)
		return r.Replies[0].Status
	}
	require.Equal(t, reviews.ReplySent, status())
	require.Eventually(t, func() bool { return status() == reviews.ReplyDelivered }, 300*time.Millisecond, 5*time.Millisecond)

	f.sched.Wait()
	require.Equal(t, reviews.ReplyRead, status())
}

func TestReplyReceiptsSkipDeletedReview(t *testing.T) {
	f := newFixture(t, reviews.Config{DeliveredAfter: 10 * time.Millisecond, ReadAfter: 10 * time.Millisecond})
	ctx := context.Background()

	_, ok, err := f.svc.Reply(ctx, "rev-503", "Sorry about the overrun")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.svc.Delete(ctx, "rev-503")
	require.NoError(t, err)
	etag, err := f.reviews.ETag(ctx)
	require.NoError(t, err)

	f.sched.Wait()
	exists, err := f.reviews.Exists(ctx, "rev-503")
	require.NoError(t, err)
	require.False(t, exists)
	after, err := f.reviews.ETag(ctx)
	require.NoError(t, err)
	require.Equal(t, etag, after)
}

func TestReplyReceiptNeverMovesBackwards(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	err := f.steps.Dispatch(ctx, collection.Step{
		Action:   reviews.ActionReplyProgress,
		Key:      f.reviews.Key(),
		RecordID: "rev-501",
		Args:     map[string]string{"reply_id": "reply-801", "status": string(reviews.ReplyDelivered)},
	})
	require.NoError(t, err)
	r, _, err := f.svc.Get(ctx, "rev-501")
	require.NoError(t, err)
	require.Equal(t, reviews.ReplyRead, r.Replies[0].Status)

	err = f.steps.Dispatch(ctx, collection.Step{
		Action:   reviews.ActionReplyProgress,
		RecordID: "rev-505",
		Args:     map[string]string{"reply_id": "reply-802", "status": string(reviews.ReplyRead)},
	})
	require.NoError(t, err)
	r, _, err = f.svc.Get(ctx, "rev-505")
	require.NoError(t, err)
	require.Equal(t, reviews.ReplyRead, r.Replies[0].Status)
}

func TestReplyValidationAndMissingReview(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	_, _, err := f.svc.Reply(ctx, "rev-502", "   ")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, ok, err := f.svc.Reply(ctx, "missing", "hello")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStats(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	ctx := context.Background()

	st, err := f.svc.Stats(ctx, query.NewView(0))
	require.NoError(t, err)
	require.Equal(t, 6, st.Count)
	require.InDelta(t, 4.0, st.Average, 0.001)
	require.Equal(t, map[int]int{1: 0, 2: 1, 3: 1, 4: 1, 5: 3}, st.Distribution)
	require.Equal(t, 1, st.Featured)
	require.Equal(t, 2, st.Replied)
	require.Equal(t, 3, st.ByStatus[reviews.StatusPublished])

	v := query.NewView(0)
	v.SetStatus(query.Only(string(reviews.StatusPublished)))
	st, err = f.svc.Stats(ctx, v)
	require.NoError(t, err)
	require.InDelta(t, 4.67, st.Average, 0.001)

	require.Zero(t, reviews.Summarise(nil).Average)
}

func TestHandlerReplyAndStatus(t *testing.T) {
	f := newFixture(t, reviews.DefaultConfig())
	h := reviews.NewHandler(testenv.Logger(), f.svc)
	r := chi.NewRouter()
	r.Route("/api/reviews", h.MountRoutes)

	post := func(target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		return res
	}

	res := post("/api/reviews/rev-502/replies", `{"body":"Thank you!"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	var reply reviews.Reply
	require.NoError(t, json.NewDecoder(res.Body).Decode(&reply))
	require.Equal(t, reviews.ReplySent, reply.Status)

	res = post("/api/reviews/ghost/replies", `{"body":"hello"}`)
	require.Equal(t, http.StatusOK, res.Code)

	res = post("/api/reviews/rev-501/status", `{"status":"resolved"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = post("/api/reviews/rev-501/feature", "")
	require.Equal(t, http.StatusOK, res.Code)
	var result httpx.MutationResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	require.True(t, result.Changed)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/stats?status=flagged", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var st reviews.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	require.Equal(t, 1, st.Count)
}
