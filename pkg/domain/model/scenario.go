package model

import (
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Scenario is a named, derived risk set for what-if comparison.
// It is created by the scenario generator; Results is attached after a
// simulation run has executed against its risk set.
type Scenario struct {
	ID            types.ScenarioID
	Name          string
	Risks         []*Risk
	Modifications []Modification
	Results       *SimulationResults
	CreatedAt     time.Time
}

// Clone returns a copy safe to hand across the repository boundary.
// Risks and modifications are deep-copied; attached results are shared,
// they are immutable once a run completes.
func (s *Scenario) Clone() *Scenario {
	if s == nil {
		return nil
	}
	c := *s
	c.Risks = CloneRisks(s.Risks)
	c.Modifications = make([]Modification, len(s.Modifications))
	for i, m := range s.Modifications {
		c.Modifications[i] = *m.Clone()
	}
	return &c
}

// Modification describes one targeted change to a base risk set.
// Exactly one action applies: removal, distribution replacement,
// baseline override, or mitigation application.
type Modification struct {
	RiskID types.RiskID

	// Remove drops the risk from the scenario entirely
	Remove bool

	// Cost / Schedule replace the corresponding distribution when non-nil
	Cost     *Distribution
	Schedule *Distribution

	// BaselineCost / BaselineSchedule override the deterministic baseline
	BaselineCost     *float64
	BaselineSchedule *float64

	// Mitigation applies impact scaling to the risk
	Mitigation *Mitigation
}

// Validate checks that the modification targets a risk and carries one action
func (m *Modification) Validate() error {
	if err := m.RiskID.Validate(); err != nil {
		return goerr.Wrap(err, "modification requires a valid risk ID")
	}

	actions := 0
	if m.Remove {
		actions++
	}
	if m.Cost != nil || m.Schedule != nil {
		actions++
	}
	if m.BaselineCost != nil || m.BaselineSchedule != nil {
		actions++
	}
	if m.Mitigation != nil {
		actions++
	}
	if actions == 0 {
		return goerr.Wrap(ErrValidation, "modification carries no action", goerr.V(RiskIDKey, m.RiskID))
	}
	if m.Remove && actions > 1 {
		return goerr.Wrap(ErrValidation, "removal cannot be combined with other changes", goerr.V(RiskIDKey, m.RiskID))
	}

	if m.Cost != nil {
		if err := m.Cost.Validate(); err != nil {
			return goerr.Wrap(err, "invalid replacement cost distribution", goerr.V(RiskIDKey, m.RiskID))
		}
	}
	if m.Schedule != nil {
		if err := m.Schedule.Validate(); err != nil {
			return goerr.Wrap(err, "invalid replacement schedule distribution", goerr.V(RiskIDKey, m.RiskID))
		}
	}
	if m.Mitigation != nil {
		if err := m.Mitigation.Validate(); err != nil {
			return goerr.Wrap(err, "invalid mitigation", goerr.V(RiskIDKey, m.RiskID))
		}
	}

	return nil
}

// Clone returns a deep copy of the modification
func (m *Modification) Clone() *Modification {
	if m == nil {
		return nil
	}
	c := *m
	c.Cost = m.Cost.Clone()
	c.Schedule = m.Schedule.Clone()
	if m.BaselineCost != nil {
		v := *m.BaselineCost
		c.BaselineCost = &v
	}
	if m.BaselineSchedule != nil {
		v := *m.BaselineSchedule
		c.BaselineSchedule = &v
	}
	if m.Mitigation != nil {
		v := *m.Mitigation
		c.Mitigation = &v
	}
	return &c
}

// Mitigation is a candidate risk response: it costs Cost to implement and
// scales the risk's sampled impacts by the given factors (1 = no effect,
// 0 = fully eliminated).
type Mitigation struct {
	Name          string
	Cost          float64
	CostScale     float64
	ScheduleScale float64
}

// Validate checks the mitigation parameters
func (m *Mitigation) Validate() error {
	if m.Name == "" {
		return goerr.Wrap(ErrValidation, "mitigation name is required")
	}
	if m.Cost < 0 || math.IsNaN(m.Cost) || math.IsInf(m.Cost, 0) {
		return goerr.Wrap(ErrValidation, "mitigation cost must be non-negative and finite",
			goerr.V(ParameterKey, "cost"), goerr.V("value", m.Cost))
	}
	if m.CostScale < 0 || m.CostScale > 1 {
		return goerr.Wrap(ErrValidation, "mitigation cost scale must be within [0, 1]",
			goerr.V(ParameterKey, "cost_scale"), goerr.V("value", m.CostScale))
	}
	if m.ScheduleScale < 0 || m.ScheduleScale > 1 {
		return goerr.Wrap(ErrValidation, "mitigation schedule scale must be within [0, 1]",
			goerr.V(ParameterKey, "schedule_scale"), goerr.V("value", m.ScheduleScale))
	}
	return nil
}

// MitigationAnalysis reports the expected value of applying a mitigation
type MitigationAnalysis struct {
	Mitigation Mitigation

	BaseMeanCost      float64
	MitigatedMeanCost float64

	// ExpectedReduction is the drop in mean total cost outcome
	ExpectedReduction float64

	// NetExpectedValue is ExpectedReduction minus the mitigation cost;
	// positive means the mitigation pays for itself in expectation
	NetExpectedValue float64

	BaseMeanSchedule      float64
	MitigatedMeanSchedule float64
	ScheduleReduction     float64
}
