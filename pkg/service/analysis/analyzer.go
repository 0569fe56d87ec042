package analysis

import (
	"math"
	"slices"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Default reporting levels. Callers override per analyzer via options.
var (
	DefaultPercentiles      = []int{10, 25, 50, 75, 90, 95, 99}
	DefaultConfidenceLevels = []float64{0.80, 0.90, 0.95}
)

// DefaultAlpha is the significance threshold for scenario comparisons
const DefaultAlpha = 0.05

// Analyzer derives statistics from completed simulation results. It
// never mutates the result arrays; ordering work happens on copies.
type Analyzer struct {
	percentiles []int
	levels      []float64
	alpha       float64
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithPercentiles overrides the reported percentile levels
func WithPercentiles(levels []int) Option {
	return func(a *Analyzer) {
		a.percentiles = levels
	}
}

// WithConfidenceLevels overrides the reported confidence interval levels
func WithConfidenceLevels(levels []float64) Option {
	return func(a *Analyzer) {
		a.levels = levels
	}
}

// WithAlpha sets the significance threshold for scenario comparisons
func WithAlpha(alpha float64) Option {
	return func(a *Analyzer) {
		a.alpha = alpha
	}
}

// New creates an Analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		percentiles: DefaultPercentiles,
		levels:      DefaultConfidenceLevels,
		alpha:       DefaultAlpha,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Percentiles computes the configured percentile levels for both axes
func (a *Analyzer) Percentiles(res *model.SimulationResults) (*model.PercentileAnalysis, error) {
	if err := checkResults(res); err != nil {
		return nil, err
	}
	for _, p := range a.percentiles {
		if p <= 0 || p >= 100 {
			return nil, goerr.Wrap(model.ErrValidation, "percentile level out of range",
				goerr.V(model.ParameterKey, "percentile"), goerr.V("value", p))
		}
	}

	cost := sortedCopy(res.Cost)
	schedule := sortedCopy(res.Schedule)

	out := &model.PercentileAnalysis{
		Cost:     make(map[int]float64, len(a.percentiles)),
		Schedule: make(map[int]float64, len(a.percentiles)),
	}
	for _, p := range a.percentiles {
		q := float64(p) / 100
		out.Cost[p] = stat.Quantile(q, stat.LinInterp, cost, nil)
		out.Schedule[p] = stat.Quantile(q, stat.LinInterp, schedule, nil)
	}
	return out, nil
}

// ConfidenceIntervals computes central intervals at the configured
// levels: a level of 0.90 yields the [P5, P95] band
func (a *Analyzer) ConfidenceIntervals(res *model.SimulationResults) (*model.ConfidenceIntervals, error) {
	if err := checkResults(res); err != nil {
		return nil, err
	}
	for _, l := range a.levels {
		if l <= 0 || l >= 1 {
			return nil, goerr.Wrap(model.ErrValidation, "confidence level out of range",
				goerr.V(model.ParameterKey, "confidence_level"), goerr.V("value", l))
		}
	}

	cost := sortedCopy(res.Cost)
	schedule := sortedCopy(res.Schedule)

	out := &model.ConfidenceIntervals{
		Cost:     make(map[float64]model.ConfidenceInterval, len(a.levels)),
		Schedule: make(map[float64]model.ConfidenceInterval, len(a.levels)),
	}
	for _, l := range a.levels {
		lo := (1 - l) / 2
		hi := 1 - lo
		out.Cost[l] = model.ConfidenceInterval{
			Level: l,
			Lower: stat.Quantile(lo, stat.LinInterp, cost, nil),
			Upper: stat.Quantile(hi, stat.LinInterp, cost, nil),
		}
		out.Schedule[l] = model.ConfidenceInterval{
			Level: l,
			Lower: stat.Quantile(lo, stat.LinInterp, schedule, nil),
			Upper: stat.Quantile(hi, stat.LinInterp, schedule, nil),
		}
	}
	return out, nil
}

// Contributions holds ranked per-risk contributions for both axes
type Contributions struct {
	Cost     []model.RiskContribution
	Schedule []model.RiskContribution
}

// TopContributors ranks each risk by its share of the outcome variance,
// per axis. A limit of zero or less returns the full ranking. Ties in
// share break by risk ID so the ranking is deterministic.
func (a *Analyzer) TopContributors(res *model.SimulationResults, limit int) (*Contributions, error) {
	if err := checkResults(res); err != nil {
		return nil, err
	}

	cost, err := rankContributions(res.Cost, res.CostByRisk, res.RiskIDs, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "cost contribution ranking failed")
	}
	schedule, err := rankContributions(res.Schedule, res.ScheduleByRisk, res.RiskIDs, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "schedule contribution ranking failed")
	}

	return &Contributions{Cost: cost, Schedule: schedule}, nil
}

func rankContributions(total []float64, byRisk map[types.RiskID][]float64, order []types.RiskID, limit int) ([]model.RiskContribution, error) {
	if len(byRisk) == 0 {
		return nil, nil
	}

	variance := stat.Variance(total, nil)
	if variance == 0 {
		return nil, goerr.Wrap(model.ErrNumericalInstability, "outcome variance is zero, contribution shares are undefined")
	}

	contribs := make([]model.RiskContribution, 0, len(byRisk))
	for _, id := range order {
		arr, ok := byRisk[id]
		if !ok {
			continue
		}
		cov := stat.Covariance(arr, total, nil)
		contribs = append(contribs, model.RiskContribution{
			RiskID:      id,
			Share:       cov / variance,
			Correlation: stat.Correlation(arr, total, nil),
		})
	}

	sort.Slice(contribs, func(i, j int) bool {
		if contribs[i].Share != contribs[j].Share {
			return contribs[i].Share > contribs[j].Share
		}
		return contribs[i].RiskID < contribs[j].RiskID
	})
	for i := range contribs {
		contribs[i].Rank = i + 1
	}

	if limit > 0 && limit < len(contribs) {
		contribs = contribs[:limit]
	}
	return contribs, nil
}

// CompareScenarios tests whether two executed scenarios differ
// significantly, per axis, using Welch's t-test on the raw outcome
// arrays. Both scenarios must carry results from runs with the same
// iteration count.
func (a *Analyzer) CompareScenarios(base, other *model.Scenario) (*model.ScenarioComparison, error) {
	if base == nil || other == nil {
		return nil, goerr.Wrap(model.ErrValidation, "both scenarios are required")
	}
	if base.Results == nil {
		return nil, goerr.Wrap(model.ErrIncompatibleScenarios, "base scenario has no results",
			goerr.V(model.ScenarioIDKey, base.ID))
	}
	if other.Results == nil {
		return nil, goerr.Wrap(model.ErrIncompatibleScenarios, "other scenario has no results",
			goerr.V(model.ScenarioIDKey, other.ID))
	}
	if base.Results.Iterations != other.Results.Iterations {
		return nil, goerr.Wrap(model.ErrIncompatibleScenarios, "iteration counts differ",
			goerr.V("base_iterations", base.Results.Iterations),
			goerr.V("other_iterations", other.Results.Iterations))
	}

	// The runs must sample at least one common impact axis. A what-if
	// variant may drop coverage of an axis the base still samples (that
	// delta is the point of the comparison), but when no axis is sampled
	// by both, every t-test would be constants against noise.
	baseCost, baseSched := axisCoverage(base.Results)
	otherCost, otherSched := axisCoverage(other.Results)
	if !(baseCost && otherCost) && !(baseSched && otherSched) {
		return nil, goerr.Wrap(model.ErrIncompatibleScenarios, "scenarios share no sampled impact axis",
			goerr.V("base_cost_risks", len(base.Results.CostByRisk)),
			goerr.V("base_schedule_risks", len(base.Results.ScheduleByRisk)),
			goerr.V("other_cost_risks", len(other.Results.CostByRisk)),
			goerr.V("other_schedule_risks", len(other.Results.ScheduleByRisk)))
	}

	cost, err := a.compareAxis(base.Results.Cost, other.Results.Cost)
	if err != nil {
		return nil, goerr.Wrap(err, "cost axis comparison failed")
	}
	schedule, err := a.compareAxis(base.Results.Schedule, other.Results.Schedule)
	if err != nil {
		return nil, goerr.Wrap(err, "schedule axis comparison failed")
	}

	return &model.ScenarioComparison{
		BaseID:   string(base.ID),
		OtherID:  string(other.ID),
		Cost:     cost,
		Schedule: schedule,
		Alpha:    a.alpha,
	}, nil
}

// axisCoverage reports which outcome axes the run actually sampled,
// judged by whether any risk contributed to the axis
func axisCoverage(r *model.SimulationResults) (cost, schedule bool) {
	return len(r.CostByRisk) > 0, len(r.ScheduleByRisk) > 0
}

func (a *Analyzer) compareAxis(x, y []float64) (*model.AxisComparison, error) {
	if len(x) < 2 || len(y) < 2 {
		return nil, goerr.Wrap(model.ErrInsufficientData, "too few outcomes for a comparison",
			goerr.V("base_n", len(x)), goerr.V("other_n", len(y)))
	}

	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	vx, vy := stat.Variance(x, nil), stat.Variance(y, nil)
	nx, ny := float64(len(x)), float64(len(y))

	cmp := &model.AxisComparison{
		MeanDelta:       my - mx,
		VarianceDelta:   vy - vx,
		PercentileDelta: make(map[int]float64, len(a.percentiles)),
	}

	sx, sy := sortedCopy(x), sortedCopy(y)
	for _, p := range a.percentiles {
		q := float64(p) / 100
		cmp.PercentileDelta[p] = stat.Quantile(q, stat.LinInterp, sy, nil) - stat.Quantile(q, stat.LinInterp, sx, nil)
	}

	se2 := vx/nx + vy/ny
	switch {
	case se2 == 0 && cmp.MeanDelta == 0:
		// Both arrays are constant and equal
		cmp.TStatistic = 0
		cmp.DegreesFreedom = nx + ny - 2
		cmp.PValue = 1
	case se2 == 0:
		// Constant arrays with different means differ exactly
		cmp.TStatistic = math.Inf(sign(cmp.MeanDelta))
		cmp.DegreesFreedom = nx + ny - 2
		cmp.PValue = 0
	default:
		cmp.TStatistic = cmp.MeanDelta / math.Sqrt(se2)
		cmp.DegreesFreedom = welchDF(vx, vy, nx, ny)
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: cmp.DegreesFreedom}
		cmp.PValue = 2 * dist.CDF(-math.Abs(cmp.TStatistic))
	}

	cmp.Significant = cmp.PValue < a.alpha
	return cmp, nil
}

// welchDF is the Welch-Satterthwaite degrees of freedom approximation
func welchDF(vx, vy, nx, ny float64) float64 {
	num := vx/nx + vy/ny
	den := (vx/nx)*(vx/nx)/(nx-1) + (vy/ny)*(vy/ny)/(ny-1)
	if den == 0 {
		return nx + ny - 2
	}
	return num * num / den
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

func checkResults(res *model.SimulationResults) error {
	if res == nil {
		return goerr.Wrap(model.ErrValidation, "simulation results are required")
	}
	if len(res.Cost) == 0 || len(res.Schedule) == 0 {
		return goerr.Wrap(model.ErrInsufficientData, "simulation results carry no outcomes")
	}
	return nil
}

func sortedCopy(values []float64) []float64 {
	c := slices.Clone(values)
	sort.Float64s(c)
	return c
}
