package montecarlo_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/m-mizutani/gt"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/correlation"
	"github.com/quantrail/riskforge/pkg/service/distribution"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
)

func newEngine() *montecarlo.Engine {
	modeler := distribution.New()
	return montecarlo.New(modeler, correlation.New(modeler))
}

func triangularRisk(id types.RiskID, lo, mode, hi float64) *model.Risk {
	return &model.Risk{
		ID:     id,
		Name:   string(id),
		Impact: types.ImpactCost,
		Cost:   &model.Distribution{Type: types.DistTriangular, Min: lo, Mode: mode, Max: hi},
	}
}

// Three independent triangular cost risks, the canonical smoke scenario
func exampleRisks() []*model.Risk {
	return []*model.Risk{
		triangularRisk("site-conditions", 10000, 15000, 25000),
		triangularRisk("material-prices", 5000, 8000, 12000),
		triangularRisk("permit-delay", 2000, 3000, 6000),
	}
}

func TestRunExampleScenario(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	res, err := e.Run(ctx, exampleRisks(),
		montecarlo.WithIterations(10000),
		montecarlo.WithSeed(42),
	)
	gt.NoError(t, err).Required()

	gt.Value(t, res.Iterations).Equal(10000)
	gt.Value(t, res.Seed).Equal(uint64(42))
	gt.Array(t, res.Cost).Length(10000)
	gt.Array(t, res.Schedule).Length(10000)
	gt.Value(t, res.State).Equal(types.RunCompleted)
	gt.Bool(t, res.Converged).True()

	// Every outcome stays within the sum of supports
	for _, v := range res.Cost {
		gt.Bool(t, v >= 17000 && v <= 43000).True()
	}

	// Mean lies between sum of minimums and sum of maximums, near the
	// analytic mean of the three triangulars
	mean := stat.Mean(res.Cost, nil)
	gt.Bool(t, mean > 17000 && mean < 43000).True()
	analytic := (10000+15000+25000)/3.0 + (5000+8000+12000)/3.0 + (2000+3000+6000)/3.0
	gt.Bool(t, mean > analytic-500 && mean < analytic+500).True()

	// P50 sits near the sum of modes
	sorted := append([]float64(nil), res.Cost...)
	sort.Float64s(sorted)
	p50 := sorted[len(sorted)/2]
	gt.Bool(t, p50 > 24000 && p50 < 32000).True()

	// Per-risk contribution arrays align with iterations
	gt.Value(t, len(res.CostByRisk)).Equal(3)
	for _, arr := range res.CostByRisk {
		gt.Array(t, arr).Length(10000)
	}
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	a, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(7))
	gt.NoError(t, err).Required()
	b, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(7))
	gt.NoError(t, err).Required()

	gt.Value(t, a.Cost).Equal(b.Cost)
	gt.Value(t, a.Schedule).Equal(b.Schedule)

	c, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(8))
	gt.NoError(t, err).Required()
	gt.Value(t, c.Cost).NotEqual(a.Cost)
}

func TestRunIndependentOfWorkerCount(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	serial, err := e.Run(ctx, exampleRisks(),
		montecarlo.WithIterations(4000), montecarlo.WithSeed(11), montecarlo.WithWorkers(1))
	gt.NoError(t, err).Required()

	parallel, err := e.Run(ctx, exampleRisks(),
		montecarlo.WithIterations(4000), montecarlo.WithSeed(11), montecarlo.WithWorkers(8))
	gt.NoError(t, err).Required()

	gt.Value(t, serial.Cost).Equal(parallel.Cost)
	gt.Value(t, serial.Schedule).Equal(parallel.Schedule)
}

func TestRunParameterChangeChangesOutcome(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	base, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(3))
	gt.NoError(t, err).Required()

	shifted := exampleRisks()
	shifted[0].Cost.Max = 50000

	res, err := e.Run(ctx, shifted, montecarlo.WithIterations(2000), montecarlo.WithSeed(3))
	gt.NoError(t, err).Required()

	// Same seed, modified input: no caching may hand back stale arrays
	gt.Value(t, res.Cost).NotEqual(base.Cost)
}

func TestRunAddingPositiveRiskRaisesMean(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	base, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(5000), montecarlo.WithSeed(21))
	gt.NoError(t, err).Required()

	extended := append(exampleRisks(), triangularRisk("labor-shortage", 1000, 2000, 4000))
	grown, err := e.Run(ctx, extended, montecarlo.WithIterations(5000), montecarlo.WithSeed(21))
	gt.NoError(t, err).Required()

	gt.Bool(t, stat.Mean(grown.Cost, nil) >= stat.Mean(base.Cost, nil)).True()
}

func TestRunRejectsBadParameters(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	t.Run("empty risk set", func(t *testing.T) {
		_, err := e.Run(ctx, nil, montecarlo.WithSeed(1))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("iterations below hard minimum", func(t *testing.T) {
		_, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(500), montecarlo.WithSeed(1))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("invalid distribution", func(t *testing.T) {
		risks := exampleRisks()
		risks[1].Cost.Mode = 99999 // outside [min, max]
		_, err := e.Run(ctx, risks, montecarlo.WithSeed(1))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})
}

func TestRunWithCorrelations(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	risks := []*model.Risk{
		{
			ID: "steel-price", Name: "Steel price", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 100, StdDev: 10},
		},
		{
			ID: "freight-cost", Name: "Freight cost", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 100, StdDev: 10},
		},
	}
	pairs := map[model.CorrelationPair]float64{
		{A: "steel-price", B: "freight-cost"}: 0.9,
	}

	res, err := e.Run(ctx, risks,
		montecarlo.WithIterations(10000), montecarlo.WithSeed(42),
		montecarlo.WithCorrelations(pairs),
	)
	gt.NoError(t, err).Required()
	gt.Bool(t, res.CorrelationCorrected).False()

	r := stat.Correlation(res.CostByRisk["steel-price"], res.CostByRisk["freight-cost"], nil)
	gt.Bool(t, r >= 0.85).True()
}

func TestRunNonPSDMatrix(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	risks := []*model.Risk{
		triangularRisk("alpha", 0, 1, 2),
		triangularRisk("beta", 0, 1, 2),
		triangularRisk("gamma", 0, 1, 2),
	}
	pairs := map[model.CorrelationPair]float64{
		{A: "alpha", B: "beta"}:  0.9,
		{A: "beta", B: "gamma"}:  0.9,
		{A: "alpha", B: "gamma"}: -0.9,
	}

	t.Run("rejected without opt-in", func(t *testing.T) {
		_, err := e.Run(ctx, risks, montecarlo.WithSeed(1), montecarlo.WithCorrelations(pairs))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("corrected and reported with opt-in", func(t *testing.T) {
		res, err := e.Run(ctx, risks,
			montecarlo.WithSeed(1),
			montecarlo.WithCorrelations(pairs),
			montecarlo.WithMatrixCorrection(),
		)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.CorrelationCorrected).True()
	})
}

func TestRunPerfectlyCorrelatedPair(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	// A coefficient of exactly 1 is valid input but leaves the matrix
	// singular, so Cholesky cannot factorize it. The run must fall back
	// to the eigenvalue transform and produce perfectly coupled draws,
	// not die mid-sampling or misreport the failure as a cancellation.
	risks := []*model.Risk{
		{
			ID: "steel-price", Name: "Steel price", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 1000, StdDev: 100},
		},
		{
			ID: "rebar-price", Name: "Rebar price", Impact: types.ImpactCost,
			Cost: &model.Distribution{Type: types.DistNormal, Mean: 500, StdDev: 50},
		},
	}
	pairs := map[model.CorrelationPair]float64{
		{A: "steel-price", B: "rebar-price"}: 1.0,
	}

	res, err := e.Run(ctx, risks,
		montecarlo.WithIterations(5000),
		montecarlo.WithSeed(21),
		montecarlo.WithCorrelations(pairs),
	)
	gt.NoError(t, err).Required()
	gt.Bool(t, res.CorrelationCorrected).False()

	r := stat.Correlation(res.CostByRisk["steel-price"], res.CostByRisk["rebar-price"], nil)
	gt.Bool(t, r > 0.999).True()
}

func TestRunCancellation(t *testing.T) {
	e := newEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(100000), montecarlo.WithSeed(1))
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, model.ErrCancelled)).True()
}

func TestRunProgress(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	var last int
	res, err := e.Run(ctx, exampleRisks(),
		montecarlo.WithIterations(3000), montecarlo.WithSeed(2), montecarlo.WithWorkers(1),
		montecarlo.WithProgress(func(completed, total int) {
			gt.Value(t, total).Equal(3000)
			gt.Bool(t, completed > last).True()
			last = completed
		}),
	)
	gt.NoError(t, err).Required()
	gt.Value(t, last).Equal(3000)
	gt.Value(t, res.Iterations).Equal(3000)
}

func TestRunBothImpactRisk(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	risks := []*model.Risk{
		{
			ID: "scope-creep", Name: "Scope creep", Impact: types.ImpactBoth,
			Cost:             &model.Distribution{Type: types.DistNormal, Mean: 5000, StdDev: 500},
			Schedule:         &model.Distribution{Type: types.DistNormal, Mean: 20, StdDev: 4},
			CrossCorrelation: 0.8,
		},
	}

	res, err := e.Run(ctx, risks, montecarlo.WithIterations(10000), montecarlo.WithSeed(19))
	gt.NoError(t, err).Required()

	// Cost and schedule impacts of a BOTH risk move together
	r := stat.Correlation(res.Cost, res.Schedule, nil)
	gt.Bool(t, r >= 0.7).True()
}

func TestRunBaselineOverlay(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	plain, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(5))
	gt.NoError(t, err).Required()

	offset, err := e.Run(ctx, exampleRisks(), montecarlo.WithIterations(2000), montecarlo.WithSeed(5),
		montecarlo.WithBaseline(model.Baseline{Cost: 100000, ScheduleDays: 200}))
	gt.NoError(t, err).Required()

	for i := range plain.Cost {
		gt.Value(t, offset.Cost[i]).Equal(plain.Cost[i] + 100000)
		gt.Value(t, offset.Schedule[i]).Equal(plain.Schedule[i] + 200)
	}
}

func TestValidateParameters(t *testing.T) {
	e := newEngine()

	t.Run("clean set has no issues", func(t *testing.T) {
		res := e.ValidateParameters(exampleRisks(), nil)
		gt.Bool(t, res.HasIssues()).False()
	})

	t.Run("collects multiple issues", func(t *testing.T) {
		risks := exampleRisks()
		risks[0].Name = ""
		risks = append(risks, risks[1]) // duplicate ID

		res := e.ValidateParameters(risks, map[model.CorrelationPair]float64{
			{A: "permit-delay", B: "unknown-risk"}: 2.0,
		})
		gt.Bool(t, res.HasIssues()).True()
		gt.Bool(t, len(res.Issues) >= 3).True()
	})

	t.Run("issue order does not depend on map layout", func(t *testing.T) {
		pairs := map[model.CorrelationPair]float64{
			{A: "material-prices", B: "site-conditions"}: 1.7,
			{A: "permit-delay", B: "site-conditions"}:    -1.2,
		}

		first := e.ValidateParameters(exampleRisks(), pairs)
		gt.Array(t, first.Issues).Length(2)
		gt.Value(t, first.Issues[0].RiskID).Equal(types.RiskID("material-prices"))

		for i := 0; i < 20; i++ {
			again := e.ValidateParameters(exampleRisks(), pairs)
			gt.Value(t, again.Issues).Equal(first.Issues)
		}
	})
}
