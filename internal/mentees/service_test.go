package mentees_test

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
	"github.com/mentordesk/mentordesk/internal/mentees"
	"github.com/mentordesk/mentordesk/internal/notify"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/shared"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

type fixture struct {
	svc     *mentees.Service
	mentees *collection.Collection[mentees.Mentee]
	notices *notify.Center
	sched   *collection.TimerScheduler
}

func newFixture(t *testing.T, cfg mentees.Config) fixture {
	t.Helper()
	coll := mentees.NewMentees(testenv.Env(t))
	steps := collection.NewSteps()
	sched := collection.NewTimerScheduler(steps, testenv.Logger())
	notices := notify.NewCenter(10, testenv.Logger())
	svc := mentees.NewService(coll, sched, notices, cfg, testenv.Logger())
	svc.RegisterSteps(steps)
	t.Cleanup(sched.Wait)
	return fixture{svc: svc, mentees: coll, notices: notices, sched: sched}
}

func status(t *testing.T, f fixture, id string) mentees.Status {
	t.Helper()
	m, ok, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return m.Status
}

func TestToggleStatusConfirmed(t *testing.T) {
	f := newFixture(t, mentees.Config{ConfirmDelay: time.Millisecond, FailureRate: 0.5, Rand: func() float64 { return 0.9 }})

	changed, err := f.svc.ToggleStatus(context.Background(), "mentee-101")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, mentees.StatusPaused, status(t, f, "mentee-101"))

	f.sched.Wait()
	require.Equal(t, mentees.StatusPaused, status(t, f, "mentee-101"))
	require.Zero(t, f.mentees.Pending())
	require.Empty(t, f.notices.List())
}

func TestToggleStatusRolledBackOnFailure(t *testing.T) {
	f := newFixture(t, mentees.Config{ConfirmDelay: 20 * time.Millisecond, FailureRate: 1, Rand: func() float64 { return 0 }})

	changed, err := f.svc.ToggleStatus(context.Background(), "mentee-103")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, mentees.StatusActive, status(t, f, "mentee-103"))

	f.sched.Wait()
	require.Equal(t, mentees.StatusPaused, status(t, f, "mentee-103"))
	notices := f.notices.List()
	require.Len(t, notices, 1)
	require.Equal(t, "mentee-103", notices[0].RecordID)
	require.Equal(t, notify.LevelError, notices[0].Level)
}

func TestRollbackDoesNotResurrectDeletedMentee(t *testing.T) {
	f := newFixture(t, mentees.Config{ConfirmDelay: 30 * time.Millisecond, FailureRate: 1, Rand: func() float64 { return 0 }})
	ctx := context.Background()

	_, err := f.svc.ToggleStatus(ctx, "mentee-102")
	require.NoError(t, err)
	deleted, err := f.svc.Delete(ctx, "mentee-102")
	require.NoError(t, err)
	require.True(t, deleted)

	f.sched.Wait()
	_, ok, err := f.svc.Get(ctx, "mentee-102")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, f.notices.List())
}

func TestRollbackKeepsArchiveMadeDuringConfirmation(t *testing.T) {
	f := newFixture(t, mentees.Config{ConfirmDelay: 30 * time.Millisecond, FailureRate: 1, Rand: func() float64 { return 0 }})
	ctx := context.Background()

	_, err := f.svc.ToggleStatus(ctx, "mentee-102")
	require.NoError(t, err)
	archived, err := f.svc.Archive(ctx, "mentee-102")
	require.NoError(t, err)
	require.True(t, archived)

	f.sched.Wait()
	require.Equal(t, mentees.StatusArchived, status(t, f, "mentee-102"))
	require.Zero(t, f.mentees.Pending())
	require.Empty(t, f.notices.List())
}

func TestToggleStatusRejectsArchivedAndMissing(t *testing.T) {
	f := newFixture(t, mentees.DefaultConfig())
	ctx := context.Background()

	_, err := f.svc.ToggleStatus(ctx, "mentee-105")
	require.ErrorIs(t, err, collection.ErrInvalidTransition)
	require.Equal(t, mentees.StatusArchived, status(t, f, "mentee-105"))

	changed, err := f.svc.ToggleStatus(ctx, "mentee-999")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestArchiveAndUnarchive(t *testing.T) {
	f := newFixture(t, mentees.DefaultConfig())
	ctx := context.Background()

	changed, err := f.svc.Archive(ctx, "mentee-104")
	require.NoError(t, err)
	require.True(t, changed)
	_, err = f.svc.Archive(ctx, "mentee-104")
	require.ErrorIs(t, err, collection.ErrInvalidTransition)

	changed, err = f.svc.Unarchive(ctx, "mentee-104")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, mentees.StatusActive, status(t, f, "mentee-104"))
}

func TestCreateValidatesAndPrepends(t *testing.T) {
	f := newFixture(t, mentees.DefaultConfig())
	ctx := context.Background()

	_, err := f.svc.Create(ctx, mentees.NewMentee{Name: " ", Email: "not-an-email"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "email")

	m, err := f.svc.Create(ctx, mentees.NewMentee{Name: "Ada Byron", Email: "ada@example.com", Tags: []string{"go"}})
	require.NoError(t, err)
	require.Equal(t, mentees.StatusActive, m.Status)
	require.NotEmpty(t, m.ID)

	all, err := f.mentees.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)
	require.Equal(t, m.ID, all[0].ID)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, mentees.DefaultConfig())

	v := query.NewView(0)
	v.SetStatus(query.Only(string(mentees.StatusActive)))
	v.SetCategories(query.Only("go"))
	v.SetSort("sessions_desc")
	page, _, err := f.svc.List(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "mentee-102", page.Items[0].ID)
	require.Equal(t, "mentee-104", page.Items[1].ID)

	v = query.NewView(0)
	v.SetFlag("has_sessions", query.TernaryNo)
	page, _, err = f.svc.List(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "mentee-106", page.Items[0].ID)
}

func TestHandler(t *testing.T) {
	f := newFixture(t, mentees.Config{ConfirmDelay: time.Millisecond, FailureRate: 0})
	r := chi.NewRouter()
	r.Route("/api/mentees", mentees.NewHandler(testenv.Logger(), f.svc).MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/mentees/mentee-101", nil))
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/mentees/mentee-999", nil))
	require.Equal(t, http.StatusNotFound, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/mentees", bytes.NewBufferString(`{"name":"Ada","email":"bad"}`)))
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/mentees", bytes.NewBufferString(`{"name":"Ada","email":"ada@example.com"}`)))
	require.Equal(t, http.StatusCreated, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/mentees/mentee-101/toggle-status", nil))
	require.Equal(t, http.StatusOK, res.Code)
	var out struct {
		Changed bool           `json:"changed"`
		Record  mentees.Mentee `json:"record"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.True(t, out.Changed)
	require.Equal(t, mentees.StatusPaused, out.Record.Status)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/mentees/mentee-101", nil))
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/mentees/mentee-101?confirm=mentee-101", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"id":"mentee-101","changed":true}`, res.Body.String())
}
