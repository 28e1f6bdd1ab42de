package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateMeasurement(Measurement) (Measurement, error)
	UpdateMeasurement(id string, mutator func(*Measurement) error) (Measurement, error)
	DeleteMeasurement(id string) error
	CreateSample(Sample) (Sample, error)
	UpdateSample(id string, mutator func(*Sample) error) (Sample, error)
	DeleteSample(id string) error
	FindMeasurement(id string) (Measurement, bool)
	FindSampleByLabID(labID string) (Sample, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListMeasurements() []Measurement
	ListSamples() []Sample
	FindMeasurement(id string) (Measurement, bool)
	FindSampleByLabID(labID string) (Sample, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetMeasurement(id string) (Measurement, bool)
	ListMeasurements() []Measurement
	GetSample(id string) (Sample, bool)
	GetSampleByLabID(labID string) (Sample, bool)
	ListSamples() []Sample
}
