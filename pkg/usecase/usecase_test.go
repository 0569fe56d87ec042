package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/repository/memory"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
	"github.com/quantrail/riskforge/pkg/usecase"
)

func seededRegister(t *testing.T) *memory.Register {
	t.Helper()
	ctx := context.Background()
	reg := memory.NewRegister()

	risks := []*model.Risk{
		{
			ID: "site-conditions", Name: "Unknown site conditions", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistTriangular, Min: 10000, Mode: 15000, Max: 25000},
		},
		{
			ID: "material-prices", Name: "Material prices", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 8000, StdDev: 1500},
		},
		{
			ID: "permit-delay", Name: "Permit delay", Impact: types.ImpactSchedule,
			Schedule: &model.Distribution{Type: types.DistTriangular, Min: 5, Mode: 10, Max: 30},
		},
	}
	for _, r := range risks {
		gt.NoError(t, reg.PutRisk(ctx, r)).Required()
	}
	gt.NoError(t, reg.SetCorrelation(ctx, "site-conditions", "material-prices", 0.5)).Required()
	return reg
}

func newUseCases(t *testing.T) (*usecase.UseCases, *memory.Register) {
	t.Helper()
	reg := seededRegister(t)
	uc := usecase.New(memory.New(), reg,
		usecase.WithCorrelationSource(reg),
		usecase.WithBaselineProvider(reg),
	)
	return uc, reg
}

func TestSimulate(t *testing.T) {
	ctx := context.Background()
	uc, reg := newUseCases(t)

	res, err := uc.Simulate(ctx, montecarlo.WithIterations(5000), montecarlo.WithSeed(42))
	gt.NoError(t, err).Required()
	gt.Value(t, res.Iterations).Equal(5000)
	gt.Array(t, res.Cost).Length(5000)

	t.Run("register correlations apply", func(t *testing.T) {
		gt.Array(t, res.RiskIDs).Length(3)
		gt.Value(t, len(res.CostByRisk)).Equal(2)
	})

	t.Run("baseline applies", func(t *testing.T) {
		gt.NoError(t, reg.SetBaseline(ctx, model.Baseline{Cost: 1000000}))
		withBase, err := uc.Simulate(ctx, montecarlo.WithIterations(5000), montecarlo.WithSeed(42))
		gt.NoError(t, err).Required()
		gt.Value(t, withBase.Cost[0]).Equal(res.Cost[0] + 1000000)
		gt.NoError(t, reg.SetBaseline(ctx, model.Baseline{}))
	})

	t.Run("empty register is rejected", func(t *testing.T) {
		empty := usecase.New(memory.New(), memory.NewRegister())
		_, err := empty.Simulate(ctx, montecarlo.WithSeed(1))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEmptyRegister)).True()
	})
}

func TestCheckParameters(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCases(t)

	res, err := uc.CheckParameters(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, res.HasIssues()).False()

	t.Run("empty register reports an issue", func(t *testing.T) {
		empty := usecase.New(memory.New(), memory.NewRegister())
		res, err := empty.CheckParameters(ctx)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.HasIssues()).True()
	})
}

func TestScenarioLifecycle(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCases(t)

	created, err := uc.CreateScenario(ctx, "without permits", []model.Modification{
		{RiskID: "permit-delay", Remove: true},
	})
	gt.NoError(t, err).Required()
	gt.Array(t, created.Risks).Length(2)

	t.Run("stored and listable", func(t *testing.T) {
		got, err := uc.GetScenario(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("without permits")

		list, err := uc.ListScenarios(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(1)
	})

	t.Run("run attaches results", func(t *testing.T) {
		ran, err := uc.RunScenario(ctx, created.ID,
			montecarlo.WithIterations(5000), montecarlo.WithSeed(7))
		gt.NoError(t, err).Required()
		gt.Value(t, ran.Results).NotNil()
		gt.Value(t, ran.Results.Iterations).Equal(5000)

		got, err := uc.GetScenario(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Results.Seed).Equal(uint64(7))
	})

	t.Run("compare against baseline scenario", func(t *testing.T) {
		base, err := uc.CreateScenario(ctx, "as registered", nil)
		gt.NoError(t, err).Required()
		_, err = uc.RunScenario(ctx, base.ID,
			montecarlo.WithIterations(5000), montecarlo.WithSeed(8))
		gt.NoError(t, err).Required()

		cmp, err := uc.CompareScenarios(ctx, base.ID, created.ID)
		gt.NoError(t, err).Required()

		// Removing the only schedule risk wipes the schedule outcome
		gt.Bool(t, cmp.Schedule.MeanDelta < 0).True()
		gt.Bool(t, cmp.Schedule.Significant).True()
	})

	t.Run("compare requires executed scenarios", func(t *testing.T) {
		unrun, err := uc.CreateScenario(ctx, "never run", nil)
		gt.NoError(t, err).Required()

		ran, err := uc.ListScenarios(ctx)
		gt.NoError(t, err).Required()

		_, err = uc.CompareScenarios(ctx, ran[0].ID, unrun.ID)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrScenarioNotExecuted)).True()
	})

	t.Run("delete", func(t *testing.T) {
		gt.NoError(t, uc.DeleteScenario(ctx, created.ID))
		_, err := uc.GetScenario(ctx, created.ID)
		gt.Bool(t, errors.Is(err, memory.ErrNotFound)).True()
	})
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCases(t)

	res, err := uc.Simulate(ctx, montecarlo.WithIterations(10000), montecarlo.WithSeed(42))
	gt.NoError(t, err).Required()

	report, err := uc.Analyze(ctx, res, 5)
	gt.NoError(t, err).Required()

	gt.Value(t, report.Results).Equal(res)
	gt.Value(t, len(report.Percentiles.Cost)).Equal(7)
	gt.Value(t, len(report.Intervals.Cost)).Equal(3)
	gt.Array(t, report.Contributors.Cost).Length(2)

	// P50 should sit between the outer percentiles
	gt.Bool(t, report.Percentiles.Cost[10] <= report.Percentiles.Cost[50]).True()
	gt.Bool(t, report.Percentiles.Cost[50] <= report.Percentiles.Cost[99]).True()
}

func TestEvaluateMitigation(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCases(t)

	analysis, err := uc.EvaluateMitigation(ctx, "material-prices",
		model.Mitigation{Name: "forward contract", Cost: 1000, CostScale: 0.5, ScheduleScale: 1},
		montecarlo.WithIterations(5000), montecarlo.WithSeed(3),
	)
	gt.NoError(t, err).Required()

	// Halving an 8000 mean impact saves ~4000 against a 1000 spend
	gt.Bool(t, analysis.ExpectedReduction > 3000).True()
	gt.Bool(t, analysis.NetExpectedValue > 0).True()
}

func TestFitHistorical(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCases(t)

	t.Run("fits observed overruns", func(t *testing.T) {
		samples := []float64{1200, 1350, 1100, 1500, 1250, 1400, 1300, 1150, 1450, 1280}
		d, err := uc.FitHistorical(ctx, samples)
		gt.NoError(t, err).Required()
		gt.NoError(t, d.Validate())
	})

	t.Run("too few samples", func(t *testing.T) {
		_, err := uc.FitHistorical(ctx, []float64{1, 2})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInsufficientData)).True()
	})
}
