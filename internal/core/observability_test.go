package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "ingest", true, 10*time.Millisecond)
	rec.Observe(ctx, "ingest", true, 5*time.Millisecond)
	rec.Observe(ctx, "ingest", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if got := snap.Results["ingest"]["success"]; got != 2 {
		t.Fatalf("success count: got %d want 2", got)
	}
	if got := snap.Results["ingest"]["error"]; got != 1 {
		t.Fatalf("error count: got %d want 1", got)
	}
	if got := snap.DurationsMS["ingest"]; got != 16 {
		t.Fatalf("duration total: got %g want 16", got)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation recorded: %+v", snap.Results)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "ingest", true, 10*time.Millisecond)
	rec.Observe(ctx, "ingest", false, 10*time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("ingest", "success")); got != 1 {
		t.Fatalf("success counter: got %g want 1", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("ingest", "error")); got != 1 {
		t.Fatalf("error counter: got %g want 1", got)
	}

	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("duplicate registration succeeded")
	}
}

func TestJSONTracerEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "ingest")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "ingest")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries: got %d want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("entries: %+v", entries)
	}

	dec := json.NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		var entry JSONTraceEntry
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode line %d: %v", i, err)
		}
		if entry.Operation != "ingest" {
			t.Fatalf("line %d operation: %q", i, entry.Operation)
		}
	}
}

func TestObservabilityZeroValueIsInert(t *testing.T) {
	var obs Observability
	called := false
	err := obs.instrument(context.Background(), "noop", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("instrument altered execution: called=%v err=%v", called, err)
	}
}
