package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}
	if time.Since(timer.start) > time.Second {
		t.Error("NewTimer() start time is not recent")
	}
}

func TestTimer_ObserveDuration(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_timer_seconds", Help: "t"})
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	timer.ObserveDuration(h)

	if n := testutil.CollectAndCount(h); n != 1 {
		t.Fatalf("expected 1 collected metric, got %d", n)
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(WorkflowRunsTotal.WithLabelValues("provision_ide", "success"))
	WorkflowRunsTotal.WithLabelValues("provision_ide", "success").Inc()
	after := testutil.ToFloat64(WorkflowRunsTotal.WithLabelValues("provision_ide", "success"))

	if after-before != 1 {
		t.Fatalf("expected increment by 1, got %v", after-before)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	SyncRunsTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ideforge_sync_runs_total") {
		t.Fatal("sync counter not exposed")
	}
}
