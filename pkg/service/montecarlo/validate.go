package montecarlo

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// ValidationIssue represents a single problem found during pre-flight
// validation of simulation parameters
type ValidationIssue struct {
	RiskID  types.RiskID
	Message string
}

// ValidationResult holds the results of a pre-flight check
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateParameters runs the same checks Run performs before sampling,
// surfaced as a result the caller can inspect before committing to a run.
// It does not touch any random state.
func (e *Engine) ValidateParameters(risks []*model.Risk, pairs map[model.CorrelationPair]float64) *ValidationResult {
	result := &ValidationResult{}

	if len(risks) == 0 {
		result.AddIssue(ValidationIssue{Message: "risk set is empty"})
		return result
	}

	seen := make(map[types.RiskID]bool, len(risks))
	for _, r := range risks {
		if err := r.Validate(); err != nil {
			result.AddIssue(ValidationIssue{RiskID: r.ID, Message: err.Error()})
			continue
		}
		if seen[r.ID] {
			result.AddIssue(ValidationIssue{RiskID: r.ID, Message: "duplicate risk ID"})
		}
		seen[r.ID] = true
	}

	// Pairs are checked in a fixed order so the issue list, and which
	// issue a wrapped error ends up naming, never depends on map layout
	sortedPairs := make([]model.CorrelationPair, 0, len(pairs))
	for pair := range pairs {
		sortedPairs = append(sortedPairs, pair)
	}
	slices.SortFunc(sortedPairs, func(x, y model.CorrelationPair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})

	for _, pair := range sortedPairs {
		coef := pairs[pair]
		if coef < -1 || coef > 1 {
			result.AddIssue(ValidationIssue{
				RiskID:  pair.A,
				Message: fmt.Sprintf("correlation with %s out of range: %v", pair.B, coef),
			})
		}
		if !seen[pair.A] {
			result.AddIssue(ValidationIssue{RiskID: pair.A, Message: "correlation references unknown risk"})
		}
		if !seen[pair.B] {
			result.AddIssue(ValidationIssue{RiskID: pair.B, Message: "correlation references unknown risk"})
		}
		if pair.A == pair.B {
			result.AddIssue(ValidationIssue{RiskID: pair.A, Message: "self correlation is not configurable"})
		}
	}

	return result
}
