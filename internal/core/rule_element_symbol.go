package core

import (
	"context"
	"fmt"

	"xrfcore/pkg/domain"
)

// NewElementSymbolRule returns the default in-transaction rule checking
// that every elemental composition names a non-empty, recognised
// periodic-table symbol.
func NewElementSymbolRule() domain.Rule {
	return elementSymbolRule{}
}

type elementSymbolRule struct{}

func (elementSymbolRule) Name() string { return "element_symbol" }

func (elementSymbolRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, m := range view.ListMeasurements() {
		for ri, result := range m.Results {
			for _, layer := range result.Layers {
				for ei, comp := range layer.Elements {
					if comp.Element == "" {
						res.Violations = append(res.Violations, domain.Violation{
							Rule:     "element_symbol",
							Severity: domain.SeverityBlock,
							Message:  fmt.Sprintf("result %d layer %q element %d: empty element symbol", ri, layer.Name, ei),
							Entity:   domain.EntityMeasurement,
							EntityID: m.ID,
						})
						continue
					}
					if !domain.KnownElement(comp.Element) {
						res.Violations = append(res.Violations, domain.Violation{
							Rule:     "element_symbol",
							Severity: domain.SeverityBlock,
							Message:  fmt.Sprintf("result %d layer %q element %d: unknown element symbol %q", ri, layer.Name, ei, comp.Element),
							Entity:   domain.EntityMeasurement,
							EntityID: m.ID,
						})
					}
				}
			}
		}
	}
	return res, nil
}
