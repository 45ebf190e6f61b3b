package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/reports/fines")

	req := httptest.NewRequest(http.MethodGet, "/reports/fines", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `bibliodash_http_requests_total{code="418",route="/reports/fines"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `bibliodash_http_request_duration_seconds_bucket{route="/reports/fines"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestMetricsCountsReportFailuresAndExports(t *testing.T) {
	metrics := NewMetrics()
	metrics.QueryFailed("overdue")
	metrics.QueryFailed("overdue")
	metrics.Exported("fines", "csv", nil)
	metrics.Exported("fines", "pdf", errors.New("gotenberg down"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `bibliodash_report_query_failures_total{report="overdue"} 2`) {
		t.Fatalf("expected failure counter, got: %s", body)
	}
	if !strings.Contains(body, `bibliodash_exports_total{format="pdf",report="fines",status="failure"} 1`) {
		t.Fatalf("expected export counter, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.QueryFailed("members")
	metrics.Exported("members", "csv", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
