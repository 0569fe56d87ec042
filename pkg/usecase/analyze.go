package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/service/analysis"
)

// Report bundles the standard statistical views over one run's results
type Report struct {
	Results      *model.SimulationResults
	Percentiles  *model.PercentileAnalysis
	Intervals    *model.ConfidenceIntervals
	Contributors *analysis.Contributions
}

// Analyze derives the standard report from completed results. The
// contributor rankings keep the top limit entries per axis; a limit of
// zero or less keeps all.
func (uc *UseCases) Analyze(ctx context.Context, results *model.SimulationResults, limit int) (*Report, error) {
	percentiles, err := uc.analyzer.Percentiles(results)
	if err != nil {
		return nil, goerr.Wrap(err, "percentile analysis failed")
	}
	intervals, err := uc.analyzer.ConfidenceIntervals(results)
	if err != nil {
		return nil, goerr.Wrap(err, "confidence interval analysis failed")
	}
	contributors, err := uc.analyzer.TopContributors(results, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "contribution ranking failed")
	}

	return &Report{
		Results:      results,
		Percentiles:  percentiles,
		Intervals:    intervals,
		Contributors: contributors,
	}, nil
}

// FitHistorical estimates a distribution from observed historical
// impact values
func (uc *UseCases) FitHistorical(ctx context.Context, samples []float64) (*model.Distribution, error) {
	return uc.modeler.FitHistorical(samples)
}
