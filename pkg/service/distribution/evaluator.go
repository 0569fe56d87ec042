package distribution

import "github.com/quantrail/riskforge/pkg/domain/model"

// Evaluator is a compiled, validated distribution. Construction performs
// all validation up front so evaluation is error-free in tight loops
// (the copula calls Quantile once per iteration per risk).
type Evaluator struct {
	mg marginal
}

// Compile validates the distribution and returns its evaluator
func (m *Modeler) Compile(d *model.Distribution) (*Evaluator, error) {
	mg, err := newMarginal(d, nil)
	if err != nil {
		return nil, err
	}
	return &Evaluator{mg: mg}, nil
}

// Quantile evaluates the inverse CDF at p
func (e *Evaluator) Quantile(p float64) float64 {
	return e.mg.Quantile(p)
}

// CDF evaluates the distribution function at x
func (e *Evaluator) CDF(x float64) float64 {
	return e.mg.CDF(x)
}
