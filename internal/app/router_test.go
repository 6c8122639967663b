package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/kyc"
	"github.com/mentordesk/mentordesk/internal/payouts"
	"github.com/mentordesk/mentordesk/internal/store"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
)

func testConfig() *Config {
	return &Config{
		AppEnv:              "test",
		AppRequestTimeout:   5 * time.Second,
		StoreDriver:         store.DriverMemory,
		StoreNamespace:      "mentordesk",
		Scheduler:           SchedulerTimer,
		ReplyDeliveredAfter: time.Millisecond,
		ReplyReadAfter:      time.Millisecond,
		RedeliveryAfter:     time.Millisecond,
		MenteeConfirmDelay:  time.Millisecond,
		RateLimitPerMinute:  1000,
		KYCMaxUpload:        kyc.DefaultMaxUpload,
		NoticeCapacity:      10,
	}
}

func newRuntime(t *testing.T, cfg *Config) *Runtime {
	t.Helper()
	rt, err := Bootstrap(context.Background(), cfg, testenv.Logger())
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	require.NoError(t, rt.Load(context.Background()))
	return rt
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRouterServesEveryPage(t *testing.T) {
	rt := newRuntime(t, testConfig())
	srv := httptest.NewServer(NewRouter(RouterParamsFor(rt)))
	defer srv.Close()

	resp, body := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	for _, path := range []string{
		"/api/activity",
		"/api/kyc/documents",
		"/api/profile",
		"/api/reviews",
		"/api/payouts/invoices",
		"/api/mentees",
		"/api/offers",
		"/api/integrations/webhooks",
		"/api/settings",
		"/notices",
		"/jobs/health",
	} {
		resp, body := get(t, srv, path)
		require.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", path, body)
		require.Contains(t, resp.Header.Get("Content-Type"), "application/json", path)
	}

	resp, body = get(t, srv, "/api/payouts/invoices/INV-2042/receipt.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "amount: USD 120.00\n")

	resp, body = get(t, srv, "/api/activity/export.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "id,kind,title,description,actor,tags,created_at,read,archived")

	resp, body = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "mentordesk_http_requests_total")
}

func TestMenteeRollbackSurfacesNotice(t *testing.T) {
	cfg := testConfig()
	cfg.MenteeFailureRate = 1
	rt := newRuntime(t, cfg)
	srv := httptest.NewServer(NewRouter(RouterParamsFor(rt)))
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/api/mentees/mentee-101/toggle-status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rt.Timers.Wait()

	_, body := get(t, srv, "/notices")
	var notices struct {
		Items []struct {
			Level    string `json:"level"`
			RecordID string `json:"record_id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &notices))
	require.Len(t, notices.Items, 1)
	require.Equal(t, "error", notices.Items[0].Level)
	require.Equal(t, "mentee-101", notices.Items[0].RecordID)

	_, body = get(t, srv, "/api/mentees/mentee-101")
	require.Contains(t, body, `"status":"active"`)
}

func TestInvalidationReloadsOtherProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.StoreDriver = store.DriverRedis
	cfg.RedisAddr = mr.Addr()

	writer := newRuntime(t, cfg)
	reader := newRuntime(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reader.Listen(ctx))

	changed, err := writer.Payouts.SetInvoiceStatus(ctx, "INV-2041", payouts.InvoicePaid)
	require.NoError(t, err)
	require.True(t, changed)

	require.Eventually(t, func() bool {
		inv, ok, err := reader.Payouts.GetInvoice(ctx, "INV-2041")
		return err == nil && ok && inv.Status == payouts.InvoicePaid
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRegistryCoversEveryCollection(t *testing.T) {
	rt := newRuntime(t, testConfig())
	keys := rt.Registry.Keys()
	require.Len(t, keys, 16)
	for _, name := range []string{"activity.items", "reviews.reviews", "mentees.mentees", "settings.settings", "sessions.requests"} {
		_, ok := rt.Registry.Lookup(name)
		require.True(t, ok, name)
	}
}
