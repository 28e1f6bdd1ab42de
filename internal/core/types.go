package core

import "xrfcore/pkg/domain"

type (
	EntityType           = domain.EntityType
	Severity             = domain.Severity
	Base                 = domain.Base
	ElementalComposition = domain.ElementalComposition
	Layer                = domain.Layer
	MeasurementResult    = domain.MeasurementResult
	SampleReference      = domain.SampleReference
	Settings             = domain.Settings
	Measurement          = domain.Measurement
	Sample               = domain.Sample
	Change               = domain.Change
	Action               = domain.Action
	Violation            = domain.Violation
	Result               = domain.Result
	Rule                 = domain.Rule
	RuleView             = domain.RuleView
	RulesEngine          = domain.RulesEngine
	Transaction          = domain.Transaction
	TransactionView      = domain.TransactionView
	PersistentStore      = domain.PersistentStore
	RuleViolationError   = domain.RuleViolationError
)

const (
	EntityMeasurement = domain.EntityMeasurement
	EntitySample      = domain.EntitySample
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewCompositionBoundsRule())
	engine.Register(NewElementSymbolRule())
	engine.Register(NewSampleIdentityRule())
	return engine
}
