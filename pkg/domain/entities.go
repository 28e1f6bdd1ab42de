// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by xrfcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityMeasurement identifies an X-ray fluorescence measurement record.
	EntityMeasurement EntityType = "measurement"
	// EntitySample identifies a registered laboratory sample record.
	EntitySample EntityType = "sample"
)

// MethodXRF is the canonical method label carried by every measurement record.
const MethodXRF = "X-Ray Fluorescence (XRF)"

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ElementalComposition carries per-element quantitative readings tied to a
// specific spectral line. All numeric fields are optional; a nil pointer
// means the instrument export did not report the value.
type ElementalComposition struct {
	Element              string   `json:"element"`
	MassFraction         *float64 `json:"mass_fraction,omitempty"`
	AtomicFraction       *float64 `json:"atomic_fraction,omitempty"`
	Line                 *string  `json:"line,omitempty"`
	IntensityPeak        *float64 `json:"intensity_peak,omitempty"`
	IntensityBackground  *float64 `json:"intensity_background,omitempty"`
	IntensityBackground2 *float64 `json:"intensity_background_2,omitempty"`
}

// Layer is a physical stratum of the measured sample. Elements keep the
// order emitted by the reader; duplicate element symbols are legal and
// preserved.
type Layer struct {
	Name        string                 `json:"name"`
	ThicknessNM *float64               `json:"thickness_nm,omitempty"`
	Elements    []ElementalComposition `json:"elements"`
}

// MeasurementResult holds the outcome of one raw measurement entry: an
// ordered layer stack plus the acquisition metadata the export carried.
type MeasurementResult struct {
	Name   *string    `json:"name,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
	Layers []Layer    `json:"layers"`
}

// SampleReference points at a registered sample by laboratory identifier.
// Equality is by identifier value.
type SampleReference struct {
	LabID *string `json:"lab_id,omitempty"`
	// SampleID is derived during normalization when the identifier resolves
	// against the sample registry.
	SampleID *string `json:"sample_id,omitempty"`
}

// Equal reports whether two references carry the same identifier.
// Derived fields do not participate in equality.
func (r SampleReference) Equal(other SampleReference) bool {
	if r.LabID == nil || other.LabID == nil {
		return r.LabID == nil && other.LabID == nil
	}
	return *r.LabID == *other.LabID
}

// Settings holds instrument acquisition parameters. The ingestion pipeline
// constructs it empty; populating it from parsed data is a deliberate
// extension point.
type Settings struct {
	XRayEnergyEV     *float64 `json:"xray_energy_ev,omitempty"`
	CurrentUA        *float64 `json:"current_ua,omitempty"`
	SpotSizeMM       *float64 `json:"spot_size_mm,omitempty"`
	IntegrationTimeS *float64 `json:"integration_time_s,omitempty"`
	ElementLine      *string  `json:"element_line,omitempty"`
}

// IsZero reports whether no acquisition parameter is set.
func (s Settings) IsZero() bool {
	return s.XRayEnergyEV == nil &&
		s.CurrentUA == nil &&
		s.SpotSizeMM == nil &&
		s.IntegrationTimeS == nil &&
		s.ElementLine == nil
}

// Measurement is the root record of one X-ray fluorescence measurement
// entry: acquisition settings, ordered results, ordered sample references,
// and an optional raw-data-file key into the raw file store.
type Measurement struct {
	Base
	Name     string              `json:"name"`
	Method   string              `json:"method"`
	DataFile *string             `json:"data_file,omitempty"`
	Settings Settings            `json:"settings"`
	Results  []MeasurementResult `json:"results"`
	Samples  []SampleReference   `json:"samples"`
	// Elements is derived by baseline normalization: the distinct element
	// symbols present across all layers, sorted.
	Elements []string `json:"elements,omitempty"`
}

// Sample is a registered laboratory sample that measurement records
// reference by laboratory identifier.
type Sample struct {
	Base
	LabID       string  `json:"lab_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
