package core

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"xrfcore/internal/rawfile"
	"xrfcore/internal/reader"
)

// Service exposes higher-level transactional operations over measurement
// and sample records, including the raw-export ingestion pipeline.
type Service struct {
	store   PersistentStore
	files   rawfile.Store
	readers *reader.Registry
	logger  *zap.Logger
	obs     Observability
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger attaches a logger used for pipeline warnings.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithObservability attaches metrics and tracing seams.
func WithObservability(obs Observability) ServiceOption {
	return func(s *Service) { s.obs = obs }
}

// WithReaderRegistry overrides the built-in reader format set.
func WithReaderRegistry(registry *reader.Registry) ServiceOption {
	return func(s *Service) { s.readers = registry }
}

// NewService constructs a service backed by the supplied store and raw-file store.
func NewService(store PersistentStore, files rawfile.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		files:   files,
		readers: reader.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// CreateMeasurement persists a new measurement record.
func (s *Service) CreateMeasurement(ctx context.Context, m Measurement) (Measurement, Result, error) {
	var created Measurement
	var res Result
	err := s.obs.instrument(ctx, "create_measurement", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateMeasurement(m)
			return txErr
		})
		return err
	})
	return created, res, err
}

// UpdateMeasurement mutates a measurement record using the provided mutator.
func (s *Service) UpdateMeasurement(ctx context.Context, id string, mutator func(*Measurement) error) (Measurement, Result, error) {
	var updated Measurement
	var res Result
	err := s.obs.instrument(ctx, "update_measurement", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateMeasurement(id, mutator)
			return txErr
		})
		return err
	})
	return updated, res, err
}

// DeleteMeasurement removes a measurement record.
func (s *Service) DeleteMeasurement(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.obs.instrument(ctx, "delete_measurement", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteMeasurement(id)
		})
		return err
	})
	return res, err
}

// GetMeasurement retrieves a measurement record by ID.
func (s *Service) GetMeasurement(id string) (Measurement, bool) {
	return s.store.GetMeasurement(id)
}

// ListMeasurements returns all measurement records.
func (s *Service) ListMeasurements() []Measurement {
	return s.store.ListMeasurements()
}

// RegisterSample persists a new laboratory sample.
func (s *Service) RegisterSample(ctx context.Context, smp Sample) (Sample, Result, error) {
	var created Sample
	var res Result
	err := s.obs.instrument(ctx, "register_sample", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateSample(smp)
			return txErr
		})
		return err
	})
	return created, res, err
}

// ListSamples returns all registered samples.
func (s *Service) ListSamples() []Sample {
	return s.store.ListSamples()
}

// AttachRawData uploads a raw export to the raw-file store under the given
// key and sets it as the measurement's data file. The upload is create-only;
// attaching a key that already exists fails.
func (s *Service) AttachRawData(ctx context.Context, id, key string, data []byte) (Measurement, Result, error) {
	var updated Measurement
	var res Result
	err := s.obs.instrument(ctx, "attach_raw_data", func(ctx context.Context) error {
		if _, err := s.files.Put(ctx, key, bytes.NewReader(data), rawfile.PutOptions{ContentType: "text/plain"}); err != nil {
			return fmt.Errorf("store raw data file: %w", err)
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateMeasurement(id, func(m *Measurement) error {
				k := key
				m.DataFile = &k
				return nil
			})
			return txErr
		})
		return err
	})
	return updated, res, err
}

// NormalizeMeasurement runs the ingestion pipeline on the record and
// persists the normalized outcome. The returned state reports whether raw
// measurement data was parsed; recoverable parse conditions degrade to
// StateUnparsed while reader failures abort the transaction.
func (s *Service) NormalizeMeasurement(ctx context.Context, id string) (Measurement, ParseState, Result, error) {
	var normalized Measurement
	var state ParseState
	var res Result
	err := s.obs.instrument(ctx, "normalize_measurement", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			pipeline := NewPipeline(s.readers, s.files, NewNormalizer(snapshotResolver{tx.Snapshot()}, s.logger), s.logger)
			var txErr error
			normalized, txErr = tx.UpdateMeasurement(id, func(m *Measurement) error {
				var perr error
				state, perr = pipeline.Normalize(ctx, m)
				return perr
			})
			return txErr
		})
		return err
	})
	return normalized, state, res, err
}

// snapshotResolver adapts a transaction view to the SampleResolver seam.
type snapshotResolver struct {
	view TransactionView
}

func (r snapshotResolver) FindSampleByLabID(labID string) (Sample, bool) {
	return r.view.FindSampleByLabID(labID)
}
