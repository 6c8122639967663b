package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/testing/testenv"
)

func TestCenterKeepsNewestWithinCapacity(t *testing.T) {
	c := NewCenter(2, testenv.Logger())
	c.Publish(Notice{Source: "mentees", Message: "one"})
	c.Publish(Notice{Source: "mentees", Message: "two"})
	third := c.Publish(Notice{Source: "mentees", Message: "three", Level: LevelError})

	require.NotEmpty(t, third.ID)
	require.False(t, third.At.IsZero())

	got := c.List()
	require.Len(t, got, 2)
	require.Equal(t, "three", got[0].Message)
	require.Equal(t, LevelError, got[0].Level)
	require.Equal(t, "two", got[1].Message)
	require.Equal(t, LevelInfo, got[1].Level)

	require.Equal(t, 2, c.Clear())
	require.Empty(t, c.List())
}

func TestListIsACopy(t *testing.T) {
	c := NewCenter(0, testenv.Logger())
	c.Publish(Notice{Message: "x", At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	got := c.List()
	got[0].Message = "changed"
	require.Equal(t, "x", c.List()[0].Message)
}

func TestHandler(t *testing.T) {
	c := NewCenter(5, testenv.Logger())
	r := chi.NewRouter()
	r.Route("/notices", NewHandler(c).MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/notices", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"items":[]}`, res.Body.String())

	c.Publish(Notice{Source: "mentees", RecordID: "m-1", Message: "rolled back"})
	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/notices", nil))
	var body struct {
		Items []Notice `json:"items"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	require.Equal(t, "m-1", body.Items[0].RecordID)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/notices", nil))
	require.JSONEq(t, `{"cleared":1}`, res.Body.String())
}
