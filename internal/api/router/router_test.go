package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carservice-desk/internal/appointments"
	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/internal/http/handlers"
	"github.com/wolfman30/carservice-desk/internal/observability/metrics"
	"github.com/wolfman30/carservice-desk/internal/temporal"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewDialogMetrics(reg)
	svc := appointments.NewService(appointments.NewMemoryStore(), logger, m)
	resolver := temporal.NewResolver(temporal.FixedClock{At: time.Date(2025, 12, 3, 9, 30, 0, 0, time.UTC)}, time.UTC)
	engine := dialog.NewEngine(dialog.NewMachine(resolver, svc, logger), dialog.NewMemorySessionStore(time.Hour, logger), logger).
		WithMetrics(m)

	cfg.Logger = logger
	cfg.Conversation = handlers.NewConversationHandler(engine, nil, logger)
	cfg.Appointments = handlers.NewAppointmentsHandler(svc, logger)
	cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return New(&cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(t, Config{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterBookingFlowAndListing(t *testing.T) {
	router := newTestRouter(t, Config{})

	rec := do(t, router, http.MethodPost, "/start", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var start dialog.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))

	for _, u := range []string{"John Smith", "yes", "book appointment", "KA01AB1234", "yes", "5 December 2025", "yes", "10 am", "yes"} {
		body, _ := json.Marshal(map[string]string{"session_id": start.SessionID, "message": u})
		rec = do(t, router, http.MethodPost, "/listen", string(body))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"John Smith","vehicle":"KA01AB1234","date":"2025-12-05","time":"10:00","time_label":"10 AM"}]`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `carservice_bookings_outcomes_total{outcome="booked"} 1`)
	assert.Contains(t, rec.Body.String(), "carservice_dialog_turns_total")
}

func TestRouterOptionalRoutesAbsent(t *testing.T) {
	router := newTestRouter(t, Config{})

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/listen/audio", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/ws", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/conversations/abc", "").Code)
}

func TestRouterRateLimitsConversation(t *testing.T) {
	router := newTestRouter(t, Config{RateLimitPerSecond: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/start", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodPost, "/start", `{}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", "").Code, "health is never limited")
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Config{CORSAllowedOrigins: []string{"https://desk.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/listen", nil)
	req.Header.Set("Origin", "https://desk.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://desk.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
