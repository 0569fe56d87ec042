package model

// PercentileAnalysis maps percentile levels (10, 25, 50, ...) to outcome
// values for both axes of a run
type PercentileAnalysis struct {
	Cost     map[int]float64
	Schedule map[int]float64
}

// ConfidenceInterval is a central interval at a given confidence level
type ConfidenceInterval struct {
	Level float64
	Lower float64
	Upper float64
}

// ConfidenceIntervals holds central intervals per level for both axes
type ConfidenceIntervals struct {
	Cost     map[float64]ConfidenceInterval
	Schedule map[float64]ConfidenceInterval
}

// AxisComparison is a per-axis statistical comparison of two runs
type AxisComparison struct {
	MeanDelta     float64
	VarianceDelta float64

	// PercentileDelta holds b minus a per percentile level
	PercentileDelta map[int]float64

	// Welch's t-test on the two outcome arrays
	TStatistic     float64
	DegreesFreedom float64
	PValue         float64

	// Significant is true when PValue is below the configured alpha
	Significant bool
}

// ScenarioComparison is the result of comparing two executed scenarios
type ScenarioComparison struct {
	BaseID  string
	OtherID string

	Cost     *AxisComparison
	Schedule *AxisComparison

	Alpha float64
}
