package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"procurement/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.PurchaseOrderCreated("APPROVED")
	m.PurchaseOrderCreated("APPROVED")
	m.ApprovalDecided("approve")
	m.NotificationFailed()
	m.RFQsAutoClosed(3)
	m.RFQsAutoClosed(0)

	count, err := testutil.GatherAndCount(reg,
		"procurement_purchase_orders_created_total",
		"procurement_approval_decisions_total",
		"procurement_notifications_failed_total",
		"procurement_rfqs_auto_closed_total",
	)
	require.NoError(t, err)
	require.Equal(t, 4, count)

	expected := `
# HELP procurement_rfqs_auto_closed_total RFQs closed by the scheduler after their due date
# TYPE procurement_rfqs_auto_closed_total counter
procurement_rfqs_auto_closed_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "procurement_rfqs_auto_closed_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.PurchaseOrderCreated("APPROVED")
	m.NotificationFailed()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/rfq/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rfq/"+id, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	count, err := testutil.GatherAndCount(reg, "procurement_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
