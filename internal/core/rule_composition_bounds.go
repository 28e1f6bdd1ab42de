package core

import (
	"context"
	"fmt"

	"xrfcore/pkg/domain"
)

// NewCompositionBoundsRule returns the default in-transaction rule checking
// that elemental fractions lie within [0,1] and intensities are
// non-negative.
func NewCompositionBoundsRule() domain.Rule {
	return compositionBoundsRule{}
}

type compositionBoundsRule struct{}

func (compositionBoundsRule) Name() string { return "composition_bounds" }

func (compositionBoundsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, m := range view.ListMeasurements() {
		for ri, result := range m.Results {
			for _, layer := range result.Layers {
				for ei, comp := range layer.Elements {
					at := fmt.Sprintf("result %d layer %q element %d (%s)", ri, layer.Name, ei, comp.Element)
					checkFraction(&res, m.ID, at, "mass_fraction", comp.MassFraction)
					checkFraction(&res, m.ID, at, "atomic_fraction", comp.AtomicFraction)
					checkNonNegative(&res, m.ID, at, "intensity_peak", comp.IntensityPeak)
					checkNonNegative(&res, m.ID, at, "intensity_background", comp.IntensityBackground)
					checkNonNegative(&res, m.ID, at, "intensity_background_2", comp.IntensityBackground2)
				}
				if layer.ThicknessNM != nil && *layer.ThicknessNM < 0 {
					res.Violations = append(res.Violations, domain.Violation{
						Rule:     "composition_bounds",
						Severity: domain.SeverityBlock,
						Message:  fmt.Sprintf("result %d layer %q: negative thickness %g nm", ri, layer.Name, *layer.ThicknessNM),
						Entity:   domain.EntityMeasurement,
						EntityID: m.ID,
					})
				}
			}
		}
	}
	return res, nil
}

func checkFraction(res *domain.Result, id, at, field string, value *float64) {
	if value == nil {
		return
	}
	if *value < 0 || *value > 1 {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "composition_bounds",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s: %s %g outside [0,1]", at, field, *value),
			Entity:   domain.EntityMeasurement,
			EntityID: id,
		})
	}
}

func checkNonNegative(res *domain.Result, id, at, field string, value *float64) {
	if value == nil || *value >= 0 {
		return
	}
	res.Violations = append(res.Violations, domain.Violation{
		Rule:     "composition_bounds",
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("%s: negative %s %g", at, field, *value),
		Entity:   domain.EntityMeasurement,
		EntityID: id,
	})
}
