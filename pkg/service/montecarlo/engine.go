package montecarlo

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/correlation"
	"github.com/quantrail/riskforge/pkg/service/distribution"
	"github.com/quantrail/riskforge/pkg/utils/async"
	"github.com/quantrail/riskforge/pkg/utils/logging"
)

// Engine orchestrates the Monte Carlo sampling loop. It is stateless
// across runs: every Run call is an independent, referentially
// transparent computation over its inputs and seed.
type Engine struct {
	modeler    *distribution.Modeler
	correlator *correlation.Analyzer
}

// New creates an Engine
func New(modeler *distribution.Modeler, correlator *correlation.Analyzer) *Engine {
	return &Engine{
		modeler:    modeler,
		correlator: correlator,
	}
}

// compiledRisk is a risk prepared for the sampling loop: validated
// distributions compiled to error-free evaluators, with the primary
// axis (the one driving the inter-risk correlation structure) resolved.
type compiledRisk struct {
	risk     *model.Risk
	cost     *distribution.Evaluator
	schedule *distribution.Evaluator

	// crossRho couples the schedule draw to the cost score for BOTH risks
	crossRho float64
}

// Run executes one simulation: it validates every risk, builds and
// validates the correlation structure, draws the configured number of
// joint samples in deterministic batches, and aggregates per-iteration
// cost and schedule impacts. Changing any risk parameter and re-running
// with the same seed recomputes from scratch; nothing is cached.
func (e *Engine) Run(ctx context.Context, risks []*model.Risk, opts ...Option) (*model.SimulationResults, error) {
	cfg := newConfig(opts)
	logger := logging.From(ctx)
	started := time.Now()

	state := types.RunConfigured

	fail := func(err error) (*model.SimulationResults, error) {
		state = types.RunFailed
		return nil, err
	}

	// Fail fast: no sampling starts before every input is validated
	if res := e.ValidateParameters(risks, cfg.pairs); res.HasIssues() {
		issue := res.Issues[0]
		return fail(goerr.Wrap(model.ErrValidation, issue.Message,
			goerr.V(model.RiskIDKey, issue.RiskID), goerr.V("issues", len(res.Issues))))
	}
	if cfg.iterations < MinIterations {
		return fail(goerr.Wrap(model.ErrValidation, "iteration count below hard minimum",
			goerr.V(model.ParameterKey, "iterations"),
			goerr.V("value", cfg.iterations), goerr.V("minimum", MinIterations)))
	}
	if cfg.iterations < RecommendedIterations {
		logger.Warn("iteration count below recommended minimum, statistical significance may be weak",
			"iterations", cfg.iterations, "recommended", RecommendedIterations)
	}

	compiled, err := e.compile(risks)
	if err != nil {
		return fail(err)
	}

	matrix, corrected, err := e.buildMatrix(ctx, risks, cfg)
	if err != nil {
		return fail(err)
	}

	// Factorize once, before sampling starts, so a numerically unusable
	// matrix fails the run here rather than inside a batch
	transform, err := e.correlator.Compile(matrix)
	if err != nil {
		return fail(err)
	}

	if !state.CanTransitionTo(types.RunSampling) {
		return fail(goerr.New("illegal run state transition", goerr.V("from", state)))
	}
	state = types.RunSampling

	acc := newAccumulator(risks, cfg.iterations)
	total := cfg.iterations
	batches := (total + batchSize - 1) / batchSize

	completed := make(chan int, batches)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for b := 0; b < batches; b++ {
		g.Go(func() error {
			// Cooperative cancellation between batches
			if err := gctx.Err(); err != nil {
				return goerr.Wrap(model.ErrCancelled, "run cancelled between batches")
			}

			offset := b * batchSize
			n := min(batchSize, total-offset)

			// Each batch derives its own source from the master seed and
			// the batch index, so results do not depend on worker count
			src := rand.NewPCG(cfg.seed, uint64(b))
			e.sampleBatch(compiled, transform, acc, offset, n, src)

			completed <- n
			return nil
		})
	}

	// The watcher serialises progress callbacks; a panicking observer is
	// contained by the dispatcher instead of killing the run
	watcherDone := make(chan struct{})
	async.Dispatch(ctx, func(ctx context.Context) error {
		defer close(watcherDone)
		done := 0
		for n := range completed {
			done += n
			if cfg.progress != nil {
				cfg.progress(done, total)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		close(completed)
		<-watcherDone
		// Classify on the returned error alone: once any batch fails the
		// errgroup context is cancelled too, so gctx proves nothing about
		// why the run stopped
		if errors.Is(err, model.ErrCancelled) {
			state = types.RunCancelled
			return nil, goerr.Wrap(model.ErrCancelled, "simulation cancelled",
				goerr.V("iterations", total))
		}
		state = types.RunFailed
		return nil, err
	}
	close(completed)
	<-watcherDone

	if !state.CanTransitionTo(types.RunAggregating) {
		return fail(goerr.New("illegal run state transition", goerr.V("from", state)))
	}
	state = types.RunAggregating

	results := acc.finalize(cfg, corrected, time.Since(started))
	state = types.RunCompleted
	results.State = state

	logger.Info("simulation completed",
		"simulation_id", results.ID,
		"risks", len(risks),
		"iterations", results.Iterations,
		"seed", results.Seed,
		"duration", results.Duration.String(),
		"converged", results.Converged,
		"correlation_corrected", results.CorrelationCorrected,
	)

	return results, nil
}

func (e *Engine) compile(risks []*model.Risk) ([]compiledRisk, error) {
	compiled := make([]compiledRisk, len(risks))
	for i, r := range risks {
		cr := compiledRisk{risk: r}
		if r.Impact.AffectsCost() && r.Impact.AffectsSchedule() {
			// Both axes sample jointly from a cross-impact model
			cim, err := e.modeler.NewCrossImpact(r.Cost, r.Schedule, r.CrossCorrelation)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to build cross impact model", goerr.V(model.RiskIDKey, r.ID))
			}
			cr.crossRho = cim.Correlation
		}
		if r.Impact.AffectsCost() {
			ev, err := e.modeler.Compile(r.Cost)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to compile cost distribution", goerr.V(model.RiskIDKey, r.ID))
			}
			cr.cost = ev
		}
		if r.Impact.AffectsSchedule() {
			ev, err := e.modeler.Compile(r.Schedule)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to compile schedule distribution", goerr.V(model.RiskIDKey, r.ID))
			}
			cr.schedule = ev
		}
		compiled[i] = cr
	}
	return compiled, nil
}

// buildMatrix assembles and validates the inter-risk correlation matrix.
// Risks without a correlation specification run independent (identity).
func (e *Engine) buildMatrix(ctx context.Context, risks []*model.Risk, cfg *config) (*model.CorrelationMatrix, bool, error) {
	ids := make([]types.RiskID, len(risks))
	for i, r := range risks {
		ids[i] = r.ID
	}

	matrix, err := e.correlator.BuildMatrix(ids, cfg.pairs)
	if err != nil {
		return nil, false, err
	}

	if matrix.IsIdentity() {
		return matrix, false, nil
	}

	check, err := e.correlator.Validate(matrix)
	if err != nil {
		return nil, false, err
	}
	if check.Valid {
		return matrix, false, nil
	}

	if !cfg.allowCorrection {
		return nil, false, goerr.Wrap(model.ErrValidation, "correlation matrix is not positive semi-definite",
			goerr.V(model.EigenvalueKey, check.MinEigenvalue))
	}

	fixed, err := e.correlator.NearestPSD(matrix)
	if err != nil {
		return nil, false, err
	}
	logging.From(ctx).Warn("correlation matrix corrected to nearest positive semi-definite matrix",
		"min_eigenvalue", check.MinEigenvalue)
	return fixed, true, nil
}

// sampleBatch draws n joint samples writing iterations [offset, offset+n)
// of the accumulator. All randomness comes from src; the transform was
// factorized before sampling started, so nothing in here can fail.
func (e *Engine) sampleBatch(compiled []compiledRisk, transform *correlation.Transform, acc *accumulator, offset, n int, src rand.Source) {
	scores := transform.Scores(n, src)

	// Extra independent scores for the schedule axis of BOTH risks,
	// drawn after the joint block so the consumption order is fixed
	gen := rand.New(src)

	for row := 0; row < n; row++ {
		it := offset + row
		for j, cr := range compiled {
			w := scores.At(row, j)
			u := correlation.ScoreToProbability(w)

			switch {
			case cr.cost != nil && cr.schedule != nil:
				costVal := cr.risk.BaselineCost + cr.cost.Quantile(u)
				// Couple the schedule draw to the cost score
				ws := cr.crossRho*w + math.Sqrt(1-cr.crossRho*cr.crossRho)*gen.NormFloat64()
				schedVal := cr.risk.BaselineSchedule + cr.schedule.Quantile(correlation.ScoreToProbability(ws))
				acc.add(it, cr.risk.ID, costVal, schedVal)

			case cr.cost != nil:
				acc.addCost(it, cr.risk.ID, cr.risk.BaselineCost+cr.cost.Quantile(u))

			case cr.schedule != nil:
				acc.addSchedule(it, cr.risk.ID, cr.risk.BaselineSchedule+cr.schedule.Quantile(u))
			}
		}
	}
}

// accumulator owns the raw outcome arrays for the duration of one run.
// Batches write disjoint index windows, so no locking is needed.
type accumulator struct {
	cost     []float64
	schedule []float64

	costByRisk     map[types.RiskID][]float64
	scheduleByRisk map[types.RiskID][]float64
	riskIDs        []types.RiskID
}

func newAccumulator(risks []*model.Risk, iterations int) *accumulator {
	acc := &accumulator{
		cost:           make([]float64, iterations),
		schedule:       make([]float64, iterations),
		costByRisk:     make(map[types.RiskID][]float64),
		scheduleByRisk: make(map[types.RiskID][]float64),
		riskIDs:        make([]types.RiskID, len(risks)),
	}
	for i, r := range risks {
		acc.riskIDs[i] = r.ID
		if r.Impact.AffectsCost() {
			acc.costByRisk[r.ID] = make([]float64, iterations)
		}
		if r.Impact.AffectsSchedule() {
			acc.scheduleByRisk[r.ID] = make([]float64, iterations)
		}
	}
	return acc
}

func (a *accumulator) addCost(it int, id types.RiskID, v float64) {
	a.cost[it] += v
	a.costByRisk[id][it] = v
}

func (a *accumulator) addSchedule(it int, id types.RiskID, v float64) {
	a.schedule[it] += v
	a.scheduleByRisk[id][it] = v
}

func (a *accumulator) add(it int, id types.RiskID, costV, schedV float64) {
	a.addCost(it, id, costV)
	a.addSchedule(it, id, schedV)
}

func (a *accumulator) finalize(cfg *config, corrected bool, duration time.Duration) *model.SimulationResults {
	if cfg.baseline.Cost != 0 || cfg.baseline.ScheduleDays != 0 {
		for i := range a.cost {
			a.cost[i] += cfg.baseline.Cost
			a.schedule[i] += cfg.baseline.ScheduleDays
		}
	}

	return &model.SimulationResults{
		ID:                   types.NewSimulationID(),
		Iterations:           cfg.iterations,
		Seed:                 cfg.seed,
		Cost:                 a.cost,
		Schedule:             a.schedule,
		CostByRisk:           a.costByRisk,
		ScheduleByRisk:       a.scheduleByRisk,
		RiskIDs:              a.riskIDs,
		Duration:             duration,
		Converged:            converged(a.cost) && converged(a.schedule),
		CorrelationCorrected: corrected,
	}
}

// converged compares split-half means against the overall spread: when
// the two halves agree within a small fraction of a standard deviation,
// the estimate has stabilised
func converged(outcomes []float64) bool {
	n := len(outcomes)
	if n < 2 {
		return false
	}
	half := n / 2
	m1 := stat.Mean(outcomes[:half], nil)
	m2 := stat.Mean(outcomes[half:], nil)
	sd := stat.StdDev(outcomes, nil)
	if sd == 0 {
		return m1 == m2
	}
	return math.Abs(m1-m2) < 0.1*sd
}
