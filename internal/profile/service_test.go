package profile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
	"github.com/mentordesk/mentordesk/internal/profile"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/shared"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

func newService(t *testing.T) *profile.Service {
	t.Helper()
	env := testenv.Env(t)
	return profile.NewService(profile.NewProfiles(env), profile.NewAudit(env), testenv.Logger())
}

func ptr[T any](v T) *T { return &v }

func TestUpdateWritesOneAuditEntryPerField(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, entries, err := svc.Update(ctx, "ops@example.com", profile.Patch{
		Headline:   ptr("Principal engineer"),
		HourlyRate: ptr(150.0),
		Email:      ptr("amara@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "Principal engineer", p.Headline)
	require.Len(t, entries, 2)
	require.Equal(t, "headline", entries[0].Field)
	require.Equal(t, "hourly_rate", entries[1].Field)
	require.Equal(t, "120.00", entries[1].Before)
	require.Equal(t, "150.00", entries[1].After)
	require.Equal(t, "ops@example.com", entries[0].Actor)

	page, _, err := svc.ListAudit(ctx, query.NewView(0))
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)

	v := query.NewView(0)
	v.SetCategories(query.Only("hourly_rate"))
	page, _, err = svc.ListAudit(ctx, v)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "150.00", page.Items[0].After)
}

func TestUpdateWithoutChangesWritesNothing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, entries, err := svc.Update(ctx, "", profile.Patch{DisplayName: ptr(" Amara Okafor ")})
	require.NoError(t, err)
	require.Empty(t, entries)

	page, _, err := svc.ListAudit(ctx, query.NewView(0))
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
}

func TestUpdateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.Update(ctx, "", profile.Patch{
		DisplayName: ptr(""),
		Email:       ptr("not-an-email"),
		HourlyRate:  ptr(-5.0),
		Timezone:    ptr("Mars/Olympus"),
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "display_name")
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "hourly_rate")
	require.Contains(t, verr.Fields, "timezone")

	p, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Amara Okafor", p.DisplayName)
}

func TestHandlerPatch(t *testing.T) {
	h := profile.NewHandler(testenv.Logger(), newService(t))
	r := chi.NewRouter()
	r.Route("/api/profile", h.MountRoutes)

	req := httptest.NewRequest(http.MethodPatch, "/api/profile", bytes.NewBufferString(`{"languages":["English","German","French"]}`))
	req.Header.Set(profile.ActorHeader, "amara")
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		Profile profile.Profile      `json:"profile"`
		Audit   []profile.AuditEntry `json:"audit"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, []string{"English", "German", "French"}, body.Profile.Languages)
	require.Len(t, body.Audit, 1)
	require.Equal(t, "English, German, French", body.Audit[0].After)

	req = httptest.NewRequest(http.MethodPatch, "/api/profile", bytes.NewBufferString(`{"email":"bad"}`))
	res = httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(res.Body).Decode(&problem))
	require.Contains(t, problem.Errors, "email")

	req = httptest.NewRequest(http.MethodPatch, "/api/profile", bytes.NewBufferString(`{"nickname":"x"}`))
	res = httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
