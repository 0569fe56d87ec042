package scenario

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
)

// Generator derives what-if scenarios from a base risk set. Derived
// scenarios never share mutable state with the base: every risk is
// deep-copied before modifications are applied, so later edits to the
// base leave existing scenarios untouched.
type Generator struct {
	engine *montecarlo.Engine
}

// New creates a Generator backed by the given simulation engine
func New(engine *montecarlo.Engine) *Generator {
	return &Generator{engine: engine}
}

// Create builds a scenario by applying the modifications, in order, to a
// deep copy of the base risk set. The base slice and its risks are never
// mutated.
func (g *Generator) Create(name string, base []*model.Risk, mods []model.Modification) (*model.Scenario, error) {
	if name == "" {
		return nil, goerr.Wrap(model.ErrValidation, "scenario name is required")
	}

	index := make(map[types.RiskID]int, len(base))
	for i, r := range base {
		index[r.ID] = i
	}

	risks := model.CloneRisks(base)
	removed := make(map[types.RiskID]bool)

	for _, mod := range mods {
		if err := mod.Validate(); err != nil {
			return nil, err
		}
		i, ok := index[mod.RiskID]
		if !ok {
			return nil, goerr.Wrap(model.ErrValidation, "modification targets unknown risk",
				goerr.V(model.RiskIDKey, mod.RiskID))
		}
		if removed[mod.RiskID] {
			return nil, goerr.Wrap(model.ErrValidation, "modification targets removed risk",
				goerr.V(model.RiskIDKey, mod.RiskID))
		}

		if mod.Remove {
			removed[mod.RiskID] = true
			continue
		}

		r := risks[i]
		if err := applyModification(r, &mod); err != nil {
			return nil, err
		}
		if eliminated(r) {
			removed[mod.RiskID] = true
			continue
		}
		if err := r.Validate(); err != nil {
			return nil, goerr.Wrap(err, "modification produced an invalid risk",
				goerr.V(model.RiskIDKey, mod.RiskID))
		}
	}

	kept := make([]*model.Risk, 0, len(risks))
	for _, r := range risks {
		if !removed[r.ID] {
			kept = append(kept, r)
		}
	}

	return &model.Scenario{
		ID:            types.NewScenarioID(),
		Name:          name,
		Risks:         kept,
		Modifications: mods,
		CreatedAt:     time.Now(),
	}, nil
}

func applyModification(r *model.Risk, mod *model.Modification) error {
	if mod.Cost != nil {
		if !r.Impact.AffectsCost() {
			return goerr.Wrap(model.ErrValidation, "risk has no cost axis to replace",
				goerr.V(model.RiskIDKey, r.ID))
		}
		r.Cost = mod.Cost.Clone()
	}
	if mod.Schedule != nil {
		if !r.Impact.AffectsSchedule() {
			return goerr.Wrap(model.ErrValidation, "risk has no schedule axis to replace",
				goerr.V(model.RiskIDKey, r.ID))
		}
		r.Schedule = mod.Schedule.Clone()
	}
	if mod.BaselineCost != nil {
		r.BaselineCost = *mod.BaselineCost
	}
	if mod.BaselineSchedule != nil {
		r.BaselineSchedule = *mod.BaselineSchedule
	}
	if mod.Mitigation != nil {
		if err := applyMitigation(r, mod.Mitigation); err != nil {
			return err
		}
	}
	return nil
}

// applyMitigation scales the risk's sampled and baseline impacts by the
// mitigation factors. A factor of zero eliminates that axis; a risk with
// no axis left is dropped from the scenario by the caller.
func applyMitigation(r *model.Risk, mit *model.Mitigation) error {
	if r.Impact.AffectsCost() {
		if mit.CostScale == 0 {
			r.Cost = nil
			r.BaselineCost = 0
		} else if mit.CostScale < 1 {
			scaled, err := r.Cost.Scaled(mit.CostScale)
			if err != nil {
				return goerr.Wrap(err, "failed to scale cost distribution", goerr.V(model.RiskIDKey, r.ID))
			}
			r.Cost = scaled
			r.BaselineCost *= mit.CostScale
		}
	}
	if r.Impact.AffectsSchedule() {
		if mit.ScheduleScale == 0 {
			r.Schedule = nil
			r.BaselineSchedule = 0
		} else if mit.ScheduleScale < 1 {
			scaled, err := r.Schedule.Scaled(mit.ScheduleScale)
			if err != nil {
				return goerr.Wrap(err, "failed to scale schedule distribution", goerr.V(model.RiskIDKey, r.ID))
			}
			r.Schedule = scaled
			r.BaselineSchedule *= mit.ScheduleScale
		}
	}

	// Re-derive the impact axes after eliminations
	switch {
	case r.Cost != nil && r.Schedule != nil:
		r.Impact = types.ImpactBoth
	case r.Cost != nil:
		r.Impact = types.ImpactCost
		r.CrossCorrelation = 0
	case r.Schedule != nil:
		r.Impact = types.ImpactSchedule
		r.CrossCorrelation = 0
	}

	return nil
}

func eliminated(r *model.Risk) bool {
	return r.Cost == nil && r.Schedule == nil
}

// EvaluateMitigation runs the base risk set and a copy with the
// mitigation applied to the target risk, under identical simulation
// options, and reports the expected impact reduction against the
// mitigation's implementation cost. The scenario outcomes themselves
// never include the implementation cost; it only enters the net
// expected value.
func (g *Generator) EvaluateMitigation(ctx context.Context, base []*model.Risk, target types.RiskID, mit model.Mitigation, opts ...montecarlo.Option) (*model.MitigationAnalysis, error) {
	if err := mit.Validate(); err != nil {
		return nil, err
	}

	mitigated, err := g.Create("mitigation evaluation", base, []model.Modification{
		{RiskID: target, Mitigation: &mit},
	})
	if err != nil {
		return nil, err
	}

	baseRes, err := g.engine.Run(ctx, base, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "base run failed")
	}

	var mitRes *model.SimulationResults
	if len(mitigated.Risks) > 0 {
		mitRes, err = g.engine.Run(ctx, mitigated.Risks, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "mitigated run failed")
		}
	}

	analysis := &model.MitigationAnalysis{
		Mitigation:       mit,
		BaseMeanCost:     stat.Mean(baseRes.Cost, nil),
		BaseMeanSchedule: stat.Mean(baseRes.Schedule, nil),
	}
	if mitRes != nil {
		analysis.MitigatedMeanCost = stat.Mean(mitRes.Cost, nil)
		analysis.MitigatedMeanSchedule = stat.Mean(mitRes.Schedule, nil)
	}
	analysis.ExpectedReduction = analysis.BaseMeanCost - analysis.MitigatedMeanCost
	analysis.NetExpectedValue = analysis.ExpectedReduction - mit.Cost
	analysis.ScheduleReduction = analysis.BaseMeanSchedule - analysis.MitigatedMeanSchedule

	return analysis, nil
}
