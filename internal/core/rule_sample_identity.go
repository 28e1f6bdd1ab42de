package core

import (
	"context"
	"fmt"

	"xrfcore/pkg/domain"
)

// NewSampleIdentityRule returns the default in-transaction rule warning on
// duplicate laboratory identifiers among a record's sample references. The
// entity builder already deduplicates derived references; the rule guards
// manual edits.
func NewSampleIdentityRule() domain.Rule {
	return sampleIdentityRule{}
}

type sampleIdentityRule struct{}

func (sampleIdentityRule) Name() string { return "sample_identity" }

func (sampleIdentityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, m := range view.ListMeasurements() {
		seen := make(map[string]struct{}, len(m.Samples))
		for _, ref := range m.Samples {
			if ref.LabID == nil {
				continue
			}
			if _, dup := seen[*ref.LabID]; dup {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "sample_identity",
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("duplicate sample reference %q", *ref.LabID),
					Entity:   domain.EntityMeasurement,
					EntityID: m.ID,
				})
				continue
			}
			seen[*ref.LabID] = struct{}{}
		}
	}
	return res, nil
}
