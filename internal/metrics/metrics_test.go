package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDispatch(t *testing.T) {
	m := New(false)
	m.ObserveDispatch("statuses", "success", 200, 10*time.Millisecond)
	m.ObserveDispatch("statuses", "success", 200, 20*time.Millisecond)
	m.ObserveDispatch("", "not_found", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues("statuses", "success", "200")); got != 2 {
		t.Fatalf("expected 2 dispatches, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues("none", "not_found", "404")); got != 1 {
		t.Fatalf("unmatched requests should be labelled none, got %v", got)
	}
}

func TestInflightAndJobs(t *testing.T) {
	m := New(false)
	done := m.TrackInflight()
	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Fatalf("expected 1 inflight, got %v", got)
	}
	done()
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Fatalf("expected 0 inflight, got %v", got)
	}

	m.ObserveJob("version_check", nil)
	m.ObserveJob("version_check", errors.New("boom"))
	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("version_check", "failure")); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch("x", "success", 200, time.Second)
	m.ObserveRedirect("tor")
	m.TrackInflight()()
	m.SetTenantVersion(3)
}

func TestHandlerExposition(t *testing.T) {
	m := New(false)
	m.SetTenantVersion(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/-/metrics", nil))
	if !strings.Contains(rec.Body.String(), "gl_gateway_tenants_snapshot_version 7") {
		t.Fatalf("exposition missing tenant version:\n%s", rec.Body.String())
	}
}
