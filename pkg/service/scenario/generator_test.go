package scenario_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/correlation"
	"github.com/quantrail/riskforge/pkg/service/distribution"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
	"github.com/quantrail/riskforge/pkg/service/scenario"
)

func newGenerator() *scenario.Generator {
	modeler := distribution.New()
	return scenario.New(montecarlo.New(modeler, correlation.New(modeler)))
}

func baseRisks() []*model.Risk {
	return []*model.Risk{
		{
			ID: "site-conditions", Name: "Unknown site conditions", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistTriangular, Min: 10000, Mode: 15000, Max: 25000},
		},
		{
			ID: "permit-delay", Name: "Permit delay", Impact: types.ImpactSchedule,
			Schedule: &model.Distribution{Type: types.DistTriangular, Min: 5, Mode: 10, Max: 30},
		},
		{
			ID: "scope-creep", Name: "Scope creep", Impact: types.ImpactBoth,
			Cost:             &model.Distribution{Type: types.DistNormal, Mean: 5000, StdDev: 1000},
			Schedule:         &model.Distribution{Type: types.DistNormal, Mean: 15, StdDev: 3},
			CrossCorrelation: 0.7,
		},
	}
}

func TestCreate(t *testing.T) {
	g := newGenerator()

	t.Run("empty modification list copies the base", func(t *testing.T) {
		s, err := g.Create("as-is", baseRisks(), nil)
		gt.NoError(t, err).Required()
		gt.Value(t, s.Name).Equal("as-is")
		gt.Array(t, s.Risks).Length(3)
		gt.NoError(t, s.ID.Validate())
	})

	t.Run("removal drops the risk", func(t *testing.T) {
		s, err := g.Create("without-permits", baseRisks(), []model.Modification{
			{RiskID: "permit-delay", Remove: true},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, s.Risks).Length(2)
		for _, r := range s.Risks {
			gt.Value(t, r.ID).NotEqual(types.RiskID("permit-delay"))
		}
	})

	t.Run("distribution replacement", func(t *testing.T) {
		repl := &model.Distribution{Type: types.DistUniform, Min: 1000, Max: 2000}
		s, err := g.Create("cheaper-site", baseRisks(), []model.Modification{
			{RiskID: "site-conditions", Cost: repl},
		})
		gt.NoError(t, err).Required()
		gt.Bool(t, s.Risks[0].Cost.Equal(repl)).True()
	})

	t.Run("baseline override", func(t *testing.T) {
		baseline := 3000.0
		s, err := g.Create("contingency", baseRisks(), []model.Modification{
			{RiskID: "site-conditions", BaselineCost: &baseline},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, s.Risks[0].BaselineCost).Equal(3000.0)
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		_, err := g.Create("bad", baseRisks(), []model.Modification{
			{RiskID: "no-such-risk", Remove: true},
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("rejects modification of a removed risk", func(t *testing.T) {
		scale := &model.Mitigation{Name: "late fix", Cost: 100, CostScale: 0.5, ScheduleScale: 1}
		_, err := g.Create("bad", baseRisks(), []model.Modification{
			{RiskID: "site-conditions", Remove: true},
			{RiskID: "site-conditions", Mitigation: scale},
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("rejects actionless modification", func(t *testing.T) {
		_, err := g.Create("bad", baseRisks(), []model.Modification{
			{RiskID: "site-conditions"},
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("rejects replacement on the wrong axis", func(t *testing.T) {
		_, err := g.Create("bad", baseRisks(), []model.Modification{
			{RiskID: "site-conditions", Schedule: &model.Distribution{Type: types.DistUniform, Min: 1, Max: 2}},
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})
}

func TestCreateIsolation(t *testing.T) {
	g := newGenerator()
	base := baseRisks()

	s, err := g.Create("derived", base, []model.Modification{
		{RiskID: "site-conditions", Mitigation: &model.Mitigation{
			Name: "geotech survey", Cost: 500, CostScale: 0.5, ScheduleScale: 1,
		}},
	})
	gt.NoError(t, err).Required()

	// Base set is untouched by the modification
	gt.Value(t, base[0].Cost.Min).Equal(10000.0)
	gt.Value(t, s.Risks[0].Cost.Min).Equal(5000.0)

	// Mutating the base after creation does not leak into the scenario
	base[1].Schedule.Max = 999
	gt.Value(t, s.Risks[1].Schedule.Max).Equal(30.0)
}

func TestMitigationScaling(t *testing.T) {
	g := newGenerator()

	t.Run("scales both axes of a BOTH risk", func(t *testing.T) {
		s, err := g.Create("mitigated", baseRisks(), []model.Modification{
			{RiskID: "scope-creep", Mitigation: &model.Mitigation{
				Name: "change control board", Cost: 2000, CostScale: 0.4, ScheduleScale: 0.5,
			}},
		})
		gt.NoError(t, err).Required()

		r := s.Risks[2]
		gt.Value(t, r.Cost.Mean).Equal(2000.0)
		gt.Value(t, r.Cost.StdDev).Equal(400.0)
		gt.Value(t, r.Schedule.Mean).Equal(7.5)
		gt.Value(t, r.Impact).Equal(types.ImpactBoth)
	})

	t.Run("zero scale eliminates the axis", func(t *testing.T) {
		s, err := g.Create("cost-eliminated", baseRisks(), []model.Modification{
			{RiskID: "scope-creep", Mitigation: &model.Mitigation{
				Name: "fixed price contract", Cost: 1000, CostScale: 0, ScheduleScale: 1,
			}},
		})
		gt.NoError(t, err).Required()

		r := s.Risks[2]
		gt.Value(t, r.Impact).Equal(types.ImpactSchedule)
		gt.Value(t, r.CrossCorrelation).Equal(0.0)
		gt.Bool(t, r.Cost == nil).True()
	})

	t.Run("eliminating every axis drops the risk", func(t *testing.T) {
		s, err := g.Create("fully-avoided", baseRisks(), []model.Modification{
			{RiskID: "site-conditions", Mitigation: &model.Mitigation{
				Name: "avoidance", Cost: 8000, CostScale: 0, ScheduleScale: 0,
			}},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, s.Risks).Length(2)
	})
}

func TestEvaluateMitigation(t *testing.T) {
	g := newGenerator()
	ctx := context.Background()

	base := []*model.Risk{
		{
			ID: "material-prices", Name: "Material prices", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 10000, StdDev: 1000},
		},
	}

	t.Run("worthwhile mitigation has positive net value", func(t *testing.T) {
		analysis, err := g.EvaluateMitigation(ctx, base, "material-prices",
			model.Mitigation{Name: "forward contract", Cost: 2000, CostScale: 0.5, ScheduleScale: 1},
			montecarlo.WithIterations(10000), montecarlo.WithSeed(13),
		)
		gt.NoError(t, err).Required()

		// Halving a 10000 mean impact saves ~5000 against a 2000 spend
		gt.Bool(t, analysis.ExpectedReduction > 4500 && analysis.ExpectedReduction < 5500).True()
		gt.Bool(t, analysis.NetExpectedValue > 0).True()
	})

	t.Run("overpriced mitigation has negative net value", func(t *testing.T) {
		analysis, err := g.EvaluateMitigation(ctx, base, "material-prices",
			model.Mitigation{Name: "gold plated contract", Cost: 9000, CostScale: 0.5, ScheduleScale: 1},
			montecarlo.WithIterations(10000), montecarlo.WithSeed(13),
		)
		gt.NoError(t, err).Required()
		gt.Bool(t, analysis.NetExpectedValue < 0).True()
	})

	t.Run("rejects invalid mitigation", func(t *testing.T) {
		_, err := g.EvaluateMitigation(ctx, base, "material-prices",
			model.Mitigation{Name: "", CostScale: 0.5, ScheduleScale: 1},
			montecarlo.WithIterations(2000), montecarlo.WithSeed(13),
		)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})
}
