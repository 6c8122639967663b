package activity_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/activity"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/testing/golden"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

func newService(t *testing.T) *activity.Service {
	t.Helper()
	return activity.NewService(activity.NewItems(testenv.Env(t)), testenv.Logger())
}

func ids(items []activity.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestListDefaultsToNewestFirst(t *testing.T) {
	svc := newService(t)
	page, etag, err := svc.List(context.Background(), query.NewView(0))
	require.NoError(t, err)
	require.NotEmpty(t, etag)
	require.Equal(t, 8, page.Total)
	require.Equal(t, 1, page.TotalPages)
	require.Equal(t, "act-1001", page.Items[0].ID)
	require.Equal(t, "act-1008", page.Items[7].ID)
}

func TestListFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	v := query.NewView(0)
	v.SetFlag("unread", query.TernaryYes)
	page, _, err := svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"act-1001", "act-1003", "act-1006", "act-1007"}, ids(page.Items))

	v = query.NewView(0)
	v.SetStatus(query.Only(string(activity.KindPayout)))
	page, _, err = svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"act-1002", "act-1007"}, ids(page.Items))

	v = query.NewView(0)
	v.SetCategories(query.Only("session"))
	v.SetQuery("LENA")
	page, _, err = svc.List(ctx, v)
	require.NoError(t, err)
	require.Equal(t, []string{"act-1004"}, ids(page.Items))
}

func TestMarkAllRead(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	n, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = svc.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	v := query.NewView(0)
	v.SetFlag("unread", query.TernaryYes)
	page, _, err := svc.List(ctx, v)
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestToggleArchiveTwiceRestores(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	before, ok, err := svc.Get(ctx, "act-1003")
	require.NoError(t, err)
	require.True(t, ok)

	for range 2 {
		changed, err := svc.ToggleArchive(ctx, "act-1003")
		require.NoError(t, err)
		require.True(t, changed)
	}
	after, _, err := svc.Get(ctx, "act-1003")
	require.NoError(t, err)
	require.Equal(t, before, after)

	changed, err := svc.ToggleArchive(ctx, "missing")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestExportFollowsView(t *testing.T) {
	svc := newService(t)
	v := query.NewView(2)
	v.SetStatus(query.Only(string(activity.KindBooking)))
	v.SetSort("oldest")

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), v, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Join(activity.CSVHeader, ","), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "act-1006,"))
	require.True(t, strings.HasPrefix(lines[2], "act-1001,"))
}

func TestWriteCSVGolden(t *testing.T) {
	items := []activity.Item{
		{
			ID:          "a-1",
			Kind:        activity.KindReview,
			Title:       `Said "great"`,
			Description: "Clear, practical",
			Actor:       "Tomás",
			Tags:        []string{"review", "feedback"},
			CreatedAt:   time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:          "a-2",
			Kind:        activity.KindSystem,
			Title:       "Welcome",
			Description: "line1\nline2",
			Actor:       "MentorDesk",
			CreatedAt:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			Read:        true,
			Archived:    true,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, activity.WriteCSV(&buf, items))
	golden.Assert(t, "activity_export", buf.Bytes())
}
