package model

// Baseline carries the project's deterministic baseline figures from
// financial/schedule tracking. Simulated risk impacts are overlaid on
// top of these.
type Baseline struct {
	Cost         float64
	ScheduleDays float64
}
