package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"xrfcore/pkg/domain"
)

func strp(s string) *string { return &s }

func TestMeasurementLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	var created domain.Measurement
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMeasurement(domain.Measurement{Name: "scan"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("no id assigned")
	}
	if created.Method != domain.MethodXRF {
		t.Fatalf("method default: %q", created.Method)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created.Base)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateMeasurement(created.ID, func(m *domain.Measurement) error {
			m.DataFile = strp("export.txt")
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok := store.GetMeasurement(created.ID)
	if !ok {
		t.Fatalf("measurement not found after update")
	}
	if got.DataFile == nil || *got.DataFile != "export.txt" {
		t.Fatalf("update not committed: %v", got.DataFile)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteMeasurement(created.ID)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetMeasurement(created.ID); ok {
		t.Fatalf("measurement present after delete")
	}
}

func TestTransactionErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	wantErr := errors.New("abort")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateMeasurement(domain.Measurement{Name: "scan"}); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(store.ListMeasurements()); got != 0 {
		t.Fatalf("aborted transaction committed %d records", got)
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	if len(view.ListMeasurements()) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "block_all",
		Severity: domain.SeverityBlock,
		Message:  "measurements forbidden",
		Entity:   domain.EntityMeasurement,
	}}}, nil
}

func TestBlockingViolationAbortsCommit(t *testing.T) {
	ctx := context.Background()
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateMeasurement(domain.Measurement{Name: "scan"})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("result carries no blocking violation: %+v", res)
	}
	if got := len(store.ListMeasurements()); got != 0 {
		t.Fatalf("blocked transaction committed %d records", got)
	}
}

func TestSampleLabIDUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSample(domain.Sample{LabID: "S-1", Name: "coupon"})
		return err
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSample(domain.Sample{LabID: "S-1"})
		return err
	}); err == nil {
		t.Fatalf("duplicate lab id accepted")
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSample(domain.Sample{})
		return err
	}); err == nil {
		t.Fatalf("empty lab id accepted")
	}

	smp, ok := store.GetSampleByLabID("S-1")
	if !ok || smp.Name != "coupon" {
		t.Fatalf("lookup by lab id: %+v ok=%v", smp, ok)
	}
}

func TestTransactionIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	var created domain.Measurement
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMeasurement(domain.Measurement{Name: "scan", Samples: []domain.SampleReference{{LabID: strp("S-1")}}})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := store.GetMeasurement(created.ID)
	*got.Samples[0].LabID = "mutated"

	again, _ := store.GetMeasurement(created.ID)
	if *again.Samples[0].LabID != "S-1" {
		t.Fatalf("caller mutation leaked into store: %q", *again.Samples[0].LabID)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for i := 0; i < 3; i++ {
			if _, err := tx.CreateMeasurement(domain.Measurement{Name: fmt.Sprintf("scan-%d", i)}); err != nil {
				return err
			}
		}
		_, err := tx.CreateSample(domain.Sample{LabID: "S-1"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snapshot := store.ExportState()
	restored := NewStore(nil)
	restored.ImportState(snapshot)

	if !reflect.DeepEqual(restored.ExportState(), snapshot) {
		t.Fatalf("round trip diverged")
	}
	if got := len(restored.ListMeasurements()); got != 3 {
		t.Fatalf("measurements after import: got %d want 3", got)
	}
}
