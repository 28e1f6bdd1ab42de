// Package memory implements the transactional in-memory store for
// measurement and sample records. Durable backends wrap it and snapshot
// its state after each successful transaction.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"xrfcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type state struct {
	measurements map[string]domain.Measurement
	samples      map[string]domain.Sample
}

func newState() state {
	return state{
		measurements: make(map[string]domain.Measurement),
		samples:      make(map[string]domain.Sample),
	}
}

func (s state) clone() state {
	cloned := newState()
	for k, v := range s.measurements {
		cloned.measurements[k] = domain.CloneMeasurement(v)
	}
	for k, v := range s.samples {
		cloned.samples[k] = domain.CloneSample(v)
	}
	return cloned
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	store   *Store
	state   state
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// view exposes a read-only snapshot of the transactional state to rules.
type view struct {
	state *state
}

var _ domain.TransactionView = view{}

// ListMeasurements returns all measurement records within the snapshot.
func (v view) ListMeasurements() []domain.Measurement {
	out := make([]domain.Measurement, 0, len(v.state.measurements))
	for _, m := range v.state.measurements {
		out = append(out, domain.CloneMeasurement(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListSamples returns all sample records within the snapshot.
func (v view) ListSamples() []domain.Sample {
	out := make([]domain.Sample, 0, len(v.state.samples))
	for _, s := range v.state.samples {
		out = append(out, domain.CloneSample(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindMeasurement retrieves a measurement by ID from the snapshot.
func (v view) FindMeasurement(id string) (domain.Measurement, bool) {
	m, ok := v.state.measurements[id]
	if !ok {
		return domain.Measurement{}, false
	}
	return domain.CloneMeasurement(m), true
}

// FindSampleByLabID retrieves a sample by laboratory identifier from the snapshot.
func (v view) FindSampleByLabID(labID string) (domain.Sample, bool) {
	for _, s := range v.state.samples {
		if s.LabID == labID {
			return domain.CloneSample(s), true
		}
	}
	return domain.Sample{}, false
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules are evaluated before commit; blocking violations abort.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// Snapshot exposes the transactional state to rules and normalize hooks.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return view{state: &tx.state}
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// CreateMeasurement stores a new measurement record within the transaction.
func (tx *Transaction) CreateMeasurement(m domain.Measurement) (domain.Measurement, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.measurements[m.ID]; exists {
		return domain.Measurement{}, fmt.Errorf("measurement %q already exists", m.ID)
	}
	if m.Method == "" {
		m.Method = domain.MethodXRF
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.measurements[m.ID] = domain.CloneMeasurement(m)
	tx.recordChange(domain.Change{Entity: domain.EntityMeasurement, Action: domain.ActionCreate, After: domain.CloneMeasurement(m)})
	return domain.CloneMeasurement(m), nil
}

// UpdateMeasurement mutates a measurement using the provided mutator function.
func (tx *Transaction) UpdateMeasurement(id string, mutator func(*domain.Measurement) error) (domain.Measurement, error) {
	current, ok := tx.state.measurements[id]
	if !ok {
		return domain.Measurement{}, fmt.Errorf("measurement %q not found", id)
	}
	before := domain.CloneMeasurement(current)
	if err := mutator(&current); err != nil {
		return domain.Measurement{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.measurements[id] = domain.CloneMeasurement(current)
	tx.recordChange(domain.Change{Entity: domain.EntityMeasurement, Action: domain.ActionUpdate, Before: before, After: domain.CloneMeasurement(current)})
	return domain.CloneMeasurement(current), nil
}

// DeleteMeasurement removes a measurement from the transaction state.
func (tx *Transaction) DeleteMeasurement(id string) error {
	current, ok := tx.state.measurements[id]
	if !ok {
		return fmt.Errorf("measurement %q not found", id)
	}
	delete(tx.state.measurements, id)
	tx.recordChange(domain.Change{Entity: domain.EntityMeasurement, Action: domain.ActionDelete, Before: domain.CloneMeasurement(current)})
	return nil
}

// CreateSample stores a new sample record. Laboratory identifiers are unique.
func (tx *Transaction) CreateSample(smp domain.Sample) (domain.Sample, error) {
	if smp.LabID == "" {
		return domain.Sample{}, fmt.Errorf("sample lab id required")
	}
	if smp.ID == "" {
		smp.ID = tx.store.newID()
	}
	if _, exists := tx.state.samples[smp.ID]; exists {
		return domain.Sample{}, fmt.Errorf("sample %q already exists", smp.ID)
	}
	for _, existing := range tx.state.samples {
		if existing.LabID == smp.LabID {
			return domain.Sample{}, fmt.Errorf("sample with lab id %q already exists", smp.LabID)
		}
	}
	smp.CreatedAt = tx.now
	smp.UpdatedAt = tx.now
	tx.state.samples[smp.ID] = domain.CloneSample(smp)
	tx.recordChange(domain.Change{Entity: domain.EntitySample, Action: domain.ActionCreate, After: domain.CloneSample(smp)})
	return domain.CloneSample(smp), nil
}

// UpdateSample mutates an existing sample record.
func (tx *Transaction) UpdateSample(id string, mutator func(*domain.Sample) error) (domain.Sample, error) {
	current, ok := tx.state.samples[id]
	if !ok {
		return domain.Sample{}, fmt.Errorf("sample %q not found", id)
	}
	before := domain.CloneSample(current)
	if err := mutator(&current); err != nil {
		return domain.Sample{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.samples[id] = domain.CloneSample(current)
	tx.recordChange(domain.Change{Entity: domain.EntitySample, Action: domain.ActionUpdate, Before: before, After: domain.CloneSample(current)})
	return domain.CloneSample(current), nil
}

// DeleteSample removes a sample from the transaction state.
func (tx *Transaction) DeleteSample(id string) error {
	current, ok := tx.state.samples[id]
	if !ok {
		return fmt.Errorf("sample %q not found", id)
	}
	delete(tx.state.samples, id)
	tx.recordChange(domain.Change{Entity: domain.EntitySample, Action: domain.ActionDelete, Before: domain.CloneSample(current)})
	return nil
}

// FindMeasurement retrieves a measurement by ID from the transaction state.
func (tx *Transaction) FindMeasurement(id string) (domain.Measurement, bool) {
	m, ok := tx.state.measurements[id]
	if !ok {
		return domain.Measurement{}, false
	}
	return domain.CloneMeasurement(m), true
}

// FindSampleByLabID retrieves a sample by laboratory identifier from the transaction state.
func (tx *Transaction) FindSampleByLabID(labID string) (domain.Sample, bool) {
	return view{state: &tx.state}.FindSampleByLabID(labID)
}

// Read helpers ---------------------------------------------------------------

// GetMeasurement retrieves a measurement by ID from committed state.
func (s *Store) GetMeasurement(id string) (domain.Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.measurements[id]
	if !ok {
		return domain.Measurement{}, false
	}
	return domain.CloneMeasurement(m), true
}

// ListMeasurements returns all measurements from committed state, ID ascending.
func (s *Store) ListMeasurements() []domain.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListMeasurements()
}

// GetSample retrieves a sample by ID from committed state.
func (s *Store) GetSample(id string) (domain.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	smp, ok := s.state.samples[id]
	if !ok {
		return domain.Sample{}, false
	}
	return domain.CloneSample(smp), true
}

// GetSampleByLabID retrieves a sample by laboratory identifier from committed state.
func (s *Store) GetSampleByLabID(labID string) (domain.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindSampleByLabID(labID)
}

// ListSamples returns all samples from committed state, ID ascending.
func (s *Store) ListSamples() []domain.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListSamples()
}

// Snapshot is the serialisable representation of the full store state used
// by durable backends.
type Snapshot struct {
	Measurements []domain.Measurement `json:"measurements"`
	Samples      []domain.Sample      `json:"samples"`
}

// ExportState returns a deterministic snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Measurements: view{state: &s.state}.ListMeasurements(),
		Samples:      view{state: &s.state}.ListSamples(),
	}
}

// ImportState replaces committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := newState()
	for _, m := range snapshot.Measurements {
		st.measurements[m.ID] = domain.CloneMeasurement(m)
	}
	for _, smp := range snapshot.Samples {
		st.samples[smp.ID] = domain.CloneSample(smp)
	}
	s.state = st
}
