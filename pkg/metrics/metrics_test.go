package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_CountsEvents(t *testing.T) {
	r := New()
	r.Event("loadData")
	r.Event("loadData")
	r.Event("enterForm")

	if got := testutil.ToFloat64(r.events.WithLabelValues("loadData")); got != 2 {
		t.Fatalf("loadData count = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(r.events); got != 2 {
		t.Fatalf("series = %d, want 2", got)
	}
}

func TestRecorder_PhaseAndFailures(t *testing.T) {
	r := New()
	r.Phase("renderPages", 3*time.Millisecond)
	r.LoadFailure("form")

	if got := testutil.CollectAndCount(r.phaseDuration); got != 1 {
		t.Fatalf("phase series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(r.loadFailures.WithLabelValues("form")); got != 1 {
		t.Fatalf("form failures = %v, want 1", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.Event("x")
	r.Phase("x", time.Second)
	r.LoadFailure("form")
	if r.Registry() != nil {
		t.Fatalf("nil recorder should have no registry")
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Event("enterFormComplete")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `formapp_events_total{event="enterFormComplete"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
