package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Risk is a registered project risk with its impact estimates.
// A Risk handed to a simulation run is treated as immutable: the engine
// and scenario generator only ever work on copies produced by Clone.
type Risk struct {
	ID       types.RiskID
	Name     string
	Category types.CategoryID
	Impact   types.ImpactType

	// Deterministic baseline impact added on top of the sampled impact
	BaselineCost     float64
	BaselineSchedule float64

	// Cost is required when Impact affects cost, Schedule when it affects
	// the schedule axis. A BOTH risk carries both plus CrossCorrelation,
	// the coupling between its own cost and schedule draws.
	Cost             *Distribution
	Schedule         *Distribution
	CrossCorrelation float64

	// Correlated lists risks this one is correlated with; the coefficients
	// live in the run's correlation specification.
	Correlated []types.RiskID

	Mitigations []Mitigation
}

// Validate checks the risk for structural and distribution validity
func (r *Risk) Validate() error {
	if r == nil {
		return goerr.Wrap(ErrValidation, "risk is nil")
	}
	if err := r.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid risk ID")
	}
	if r.Name == "" {
		return goerr.Wrap(ErrValidation, "risk name is required", goerr.V(RiskIDKey, r.ID))
	}
	if !r.Impact.IsValid() {
		return goerr.Wrap(ErrValidation, "invalid impact type",
			goerr.V(RiskIDKey, r.ID), goerr.V("impact", r.Impact))
	}

	if r.Impact.AffectsCost() {
		if r.Cost == nil {
			return goerr.Wrap(ErrValidation, "cost distribution is required",
				goerr.V(RiskIDKey, r.ID), goerr.V(ParameterKey, "cost"))
		}
		if err := r.Cost.Validate(); err != nil {
			return goerr.Wrap(err, "invalid cost distribution", goerr.V(RiskIDKey, r.ID))
		}
	}
	if r.Impact.AffectsSchedule() {
		if r.Schedule == nil {
			return goerr.Wrap(ErrValidation, "schedule distribution is required",
				goerr.V(RiskIDKey, r.ID), goerr.V(ParameterKey, "schedule"))
		}
		if err := r.Schedule.Validate(); err != nil {
			return goerr.Wrap(err, "invalid schedule distribution", goerr.V(RiskIDKey, r.ID))
		}
	}
	if r.CrossCorrelation < -1 || r.CrossCorrelation > 1 {
		return goerr.Wrap(ErrValidation, "cross correlation must be within [-1, 1]",
			goerr.V(RiskIDKey, r.ID), goerr.V(ParameterKey, "cross_correlation"),
			goerr.V("value", r.CrossCorrelation))
	}

	for _, m := range r.Mitigations {
		if err := m.Validate(); err != nil {
			return goerr.Wrap(err, "invalid mitigation", goerr.V(RiskIDKey, r.ID))
		}
	}

	return nil
}

// Clone returns a deep copy of the risk
func (r *Risk) Clone() *Risk {
	if r == nil {
		return nil
	}
	c := *r
	c.Cost = r.Cost.Clone()
	c.Schedule = r.Schedule.Clone()
	c.Correlated = slices.Clone(r.Correlated)
	c.Mitigations = slices.Clone(r.Mitigations)
	return &c
}

// CloneRisks deep-copies a risk set preserving order
func CloneRisks(risks []*Risk) []*Risk {
	cloned := make([]*Risk, len(risks))
	for i, r := range risks {
		cloned[i] = r.Clone()
	}
	return cloned
}
