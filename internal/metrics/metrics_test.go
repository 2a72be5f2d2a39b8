package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}

	rec.CacheLookup("abstract-summary", true)
	rec.CacheLookup("abstract-summary", false)
	rec.CacheLookup("abstract-summary", false)
	rec.ObserveBackend("huggingface", "summarize", OutcomeSuccess, 2*time.Second)

	if got := testutil.ToFloat64(rec.cacheLookups.WithLabelValues("abstract-summary", "miss")); got != 2 {
		t.Fatalf("miss count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.backendCalls.WithLabelValues("huggingface", "summarize", OutcomeSuccess)); got != 1 {
		t.Fatalf("backend calls = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(rec.backendDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestPrometheusRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheus(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
