package core

import (
	"sort"

	"go.uber.org/zap"

	"xrfcore/pkg/domain"
)

// SampleResolver resolves laboratory identifiers against the sample
// registry. The persistent store's read view satisfies it.
type SampleResolver interface {
	FindSampleByLabID(labID string) (Sample, bool)
}

// Normalizer applies post-construction derivations to freshly built
// entities. It may mutate derived fields in place but must not change
// identifier or equality semantics.
type Normalizer interface {
	NormalizeResult(res *MeasurementResult)
	NormalizeSampleReference(ref *SampleReference)
	NormalizeSettings(set *Settings)
	NormalizeMeasurement(m *Measurement)
}

// recordNormalizer is the default Normalizer. It resolves sample references
// against the registry and derives the record-level summary fields.
type recordNormalizer struct {
	samples SampleResolver
	logger  *zap.Logger
}

// NewNormalizer constructs the default normalizer. Both arguments may be
// nil; resolution and warnings are then skipped.
func NewNormalizer(samples SampleResolver, logger *zap.Logger) Normalizer {
	return &recordNormalizer{samples: samples, logger: logger}
}

// NormalizeResult fills the result name from its first layer when the
// export carried no application label.
func (n *recordNormalizer) NormalizeResult(res *MeasurementResult) {
	if res == nil {
		return
	}
	if res.Name == nil && len(res.Layers) > 0 && res.Layers[0].Name != "" {
		name := res.Layers[0].Name
		res.Name = &name
	}
}

// NormalizeSampleReference resolves the lab identifier against the sample
// registry, linking the reference to the registered sample when found.
func (n *recordNormalizer) NormalizeSampleReference(ref *SampleReference) {
	if ref == nil || ref.LabID == nil {
		return
	}
	if n.samples == nil {
		return
	}
	smp, ok := n.samples.FindSampleByLabID(*ref.LabID)
	if !ok {
		if n.logger != nil {
			n.logger.Warn("sample reference does not resolve against registry", zap.String("lab_id", *ref.LabID))
		}
		return
	}
	id := smp.ID
	ref.SampleID = &id
}

// NormalizeSettings is a no-op: acquisition settings are never derived from
// parsed data. Extension point for instrument metadata extraction.
func (n *recordNormalizer) NormalizeSettings(_ *Settings) {}

// NormalizeMeasurement applies the baseline record derivations: the method
// label and the distinct-element summary across all layers.
func (n *recordNormalizer) NormalizeMeasurement(m *Measurement) {
	if m == nil {
		return
	}
	if m.Method == "" {
		m.Method = domain.MethodXRF
	}
	m.Elements = elementSummary(m.Results)
}

// elementSummary collects the distinct element symbols across all layers of
// all results, sorted. Returns nil when no results carry elements.
func elementSummary(results []MeasurementResult) []string {
	seen := make(map[string]struct{})
	for _, res := range results {
		for _, layer := range res.Layers {
			for _, comp := range layer.Elements {
				if comp.Element != "" {
					seen[comp.Element] = struct{}{}
				}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for symbol := range seen {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}
