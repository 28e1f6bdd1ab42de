package core

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"xrfcore/internal/infra/persistence/memory"
	"xrfcore/internal/rawfile"
	"xrfcore/pkg/domain"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	opts = append([]ServiceOption{WithLogger(zap.NewNop())}, opts...)
	return NewService(memory.NewStore(NewDefaultRulesEngine()), rawfile.NewMemory(), opts...)
}

func TestServiceIngestionEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, _, err := svc.RegisterSample(ctx, Sample{LabID: "S-001", Name: "steel coupon"}); err != nil {
		t.Fatalf("register sample: %v", err)
	}

	created, _, err := svc.CreateMeasurement(ctx, Measurement{Name: "scan batch"})
	if err != nil {
		t.Fatalf("create measurement: %v", err)
	}
	if created.ID == "" || created.Method != domain.MethodXRF {
		t.Fatalf("created record incomplete: %+v", created)
	}

	attached, _, err := svc.AttachRawData(ctx, created.ID, "export.txt", []byte(exportFixture))
	if err != nil {
		t.Fatalf("attach raw data: %v", err)
	}
	if attached.DataFile == nil || *attached.DataFile != "export.txt" {
		t.Fatalf("data file not set: %v", attached.DataFile)
	}

	normalized, state, _, err := svc.NormalizeMeasurement(ctx, created.ID)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateParsed {
		t.Fatalf("state: got %s want %s", state, StateParsed)
	}
	if len(normalized.Results) != 2 {
		t.Fatalf("results: got %d want 2", len(normalized.Results))
	}
	if len(normalized.Samples) != 1 {
		t.Fatalf("samples: %+v", normalized.Samples)
	}
	if normalized.Samples[0].SampleID == nil {
		t.Fatalf("reference not resolved against registered sample: %+v", normalized.Samples[0])
	}

	// The normalized record is persisted, not just returned.
	stored, ok := svc.GetMeasurement(created.ID)
	if !ok {
		t.Fatalf("normalized record not found")
	}
	if len(stored.Results) != 2 || len(stored.Elements) == 0 {
		t.Fatalf("normalized record not persisted: %+v", stored)
	}
}

func TestServiceNormalizeWithoutRawFile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, _, err := svc.CreateMeasurement(ctx, Measurement{Name: "bare"})
	if err != nil {
		t.Fatalf("create measurement: %v", err)
	}
	_, state, _, err := svc.NormalizeMeasurement(ctx, created.ID)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateUnparsed {
		t.Fatalf("state: got %s want %s", state, StateUnparsed)
	}
}

func TestServiceAttachRawDataIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	created, _, err := svc.CreateMeasurement(ctx, Measurement{Name: "scan"})
	if err != nil {
		t.Fatalf("create measurement: %v", err)
	}
	if _, _, err := svc.AttachRawData(ctx, created.ID, "export.txt", []byte("a")); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if _, _, err := svc.AttachRawData(ctx, created.ID, "export.txt", []byte("b")); err == nil {
		t.Fatalf("second attach with same key succeeded")
	}
}

func TestServiceUpdateAndDeleteMeasurement(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	created, _, err := svc.CreateMeasurement(ctx, Measurement{Name: "before"})
	if err != nil {
		t.Fatalf("create measurement: %v", err)
	}

	updated, _, err := svc.UpdateMeasurement(ctx, created.ID, func(m *Measurement) error {
		m.Name = "after"
		return nil
	})
	if err != nil {
		t.Fatalf("update measurement: %v", err)
	}
	if updated.Name != "after" {
		t.Fatalf("update not applied: %q", updated.Name)
	}

	if _, err := svc.DeleteMeasurement(ctx, created.ID); err != nil {
		t.Fatalf("delete measurement: %v", err)
	}
	if _, ok := svc.GetMeasurement(created.ID); ok {
		t.Fatalf("record still present after delete")
	}
	if len(svc.ListMeasurements()) != 0 {
		t.Fatalf("list not empty after delete")
	}
}

func TestServiceRegisterSampleRejectsDuplicateLabID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.RegisterSample(ctx, Sample{LabID: "S-1"}); err != nil {
		t.Fatalf("register sample: %v", err)
	}
	if _, _, err := svc.RegisterSample(ctx, Sample{LabID: "S-1"}); err == nil {
		t.Fatalf("duplicate lab id accepted")
	}
	if got := len(svc.ListSamples()); got != 1 {
		t.Fatalf("samples: got %d want 1", got)
	}
}

func TestServiceInstrumentation(t *testing.T) {
	ctx := context.Background()
	metrics := NewExpvarMetricsRecorder("")
	tracer := NewJSONTracer(nil)
	svc := newTestService(t, WithObservability(Observability{Metrics: metrics, Tracer: tracer}))

	if _, _, err := svc.CreateMeasurement(ctx, Measurement{Name: "scan"}); err != nil {
		t.Fatalf("create measurement: %v", err)
	}
	if _, _, _, err := svc.NormalizeMeasurement(ctx, "missing"); err == nil {
		t.Fatalf("normalize of missing record succeeded")
	}

	snap := metrics.Snapshot()
	if snap.Results["create_measurement"]["success"] != 1 {
		t.Fatalf("create not recorded: %+v", snap.Results)
	}
	if snap.Results["normalize_measurement"]["error"] != 1 {
		t.Fatalf("failed normalize not recorded: %+v", snap.Results)
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("spans: got %d want 2", len(entries))
	}
	if entries[0].Operation != "create_measurement" || entries[0].Status != "success" {
		t.Fatalf("first span: %+v", entries[0])
	}
	if entries[1].Operation != "normalize_measurement" || entries[1].Status != "error" {
		t.Fatalf("second span: %+v", entries[1])
	}
}
