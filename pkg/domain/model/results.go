package model

import (
	"time"

	"github.com/quantrail/riskforge/pkg/domain/types"
)

// SimulationResults holds the raw outcome of one completed run.
// It is created once, fully populated, and never mutated afterwards:
// the analyzer borrows the arrays read-only and works on copies when
// it needs to reorder values.
type SimulationResults struct {
	ID         types.SimulationID
	Iterations int
	Seed       uint64

	// Cost and Schedule hold one aggregated outcome per iteration
	Cost     []float64
	Schedule []float64

	// Per-risk raw contribution arrays, keyed by risk ID, aligned with
	// the outcome arrays iteration by iteration
	CostByRisk     map[types.RiskID][]float64
	ScheduleByRisk map[types.RiskID][]float64

	// RiskIDs preserves the input risk order for deterministic reporting
	RiskIDs []types.RiskID

	Duration  time.Duration
	Converged bool
	State     types.RunState

	// CorrelationCorrected is set when the run accepted a nearest-PSD
	// repaired correlation matrix
	CorrelationCorrected bool
}

// RiskContribution ranks one risk's share of the aggregate outcome variance
type RiskContribution struct {
	RiskID types.RiskID

	// Share is cov(risk contribution, total outcome) / var(total outcome),
	// the risk's portion of a linear variance decomposition
	Share float64

	// Correlation is the Pearson correlation between the risk's
	// per-iteration contribution and the total outcome
	Correlation float64

	Rank int
}
