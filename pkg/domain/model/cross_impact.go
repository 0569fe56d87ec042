package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// CrossImpactModel joins a cost and a schedule distribution with a
// correlation coefficient for joint sampling of a single risk that hits
// both axes (cost overruns that also push the schedule, and vice versa).
type CrossImpactModel struct {
	Cost        *Distribution
	Schedule    *Distribution
	Correlation float64
}

// Validate checks both marginals and the coefficient range
func (c *CrossImpactModel) Validate() error {
	if c == nil {
		return goerr.Wrap(ErrValidation, "cross impact model is nil")
	}
	if err := c.Cost.Validate(); err != nil {
		return goerr.Wrap(err, "invalid cost marginal")
	}
	if err := c.Schedule.Validate(); err != nil {
		return goerr.Wrap(err, "invalid schedule marginal")
	}
	if c.Correlation < -1 || c.Correlation > 1 {
		return goerr.Wrap(ErrValidation, "cross impact correlation must be within [-1, 1]",
			goerr.V(ParameterKey, "correlation"), goerr.V("value", c.Correlation))
	}
	return nil
}
