package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Bound restricts the support of a distribution to [Min, Max]
type Bound struct {
	Min float64
	Max float64
}

// Distribution is a closed tagged variant over the supported distribution
// families. Which parameter fields are meaningful depends on Type:
//
//   - NORMAL:     Mean, StdDev
//   - TRIANGULAR: Min, Mode, Max
//   - UNIFORM:    Min, Max
//   - BETA:       Alpha, Beta, scaled onto [Min, Max] (defaults to [0, 1])
//   - LOGNORMAL:  Mu, Sigma (parameters of the underlying normal)
//
// Sampling, CDF and quantile evaluation live in the distribution service;
// the model only carries parameters and their validation.
type Distribution struct {
	Type types.DistributionType

	Mean   float64
	StdDev float64

	Min  float64
	Mode float64
	Max  float64

	Alpha float64
	Beta  float64

	Mu    float64
	Sigma float64

	Bound *Bound
}

// Validate checks the parameters for mathematical well-formedness.
// It never clamps: an invalid parameter is reported, not repaired.
func (d *Distribution) Validate() error {
	if d == nil {
		return goerr.Wrap(ErrValidation, "distribution is nil")
	}
	if !d.Type.IsValid() {
		return goerr.Wrap(ErrValidation, "unknown distribution type", goerr.V(ParameterKey, "type"), goerr.V("type", d.Type))
	}

	switch d.Type {
	case types.DistNormal:
		if err := requireFinite("mean", d.Mean); err != nil {
			return err
		}
		if !(d.StdDev > 0) || math.IsInf(d.StdDev, 0) {
			return goerr.Wrap(ErrValidation, "normal standard deviation must be positive and finite",
				goerr.V(ParameterKey, "std_dev"), goerr.V("value", d.StdDev))
		}

	case types.DistTriangular:
		for _, p := range []struct {
			name  string
			value float64
		}{{"min", d.Min}, {"mode", d.Mode}, {"max", d.Max}} {
			if err := requireFinite(p.name, p.value); err != nil {
				return err
			}
		}
		if !(d.Min < d.Max) {
			return goerr.Wrap(ErrValidation, "triangular min must be strictly less than max",
				goerr.V(ParameterKey, "min"), goerr.V("min", d.Min), goerr.V("max", d.Max))
		}
		if d.Mode < d.Min || d.Mode > d.Max {
			return goerr.Wrap(ErrValidation, "triangular mode must lie within [min, max]",
				goerr.V(ParameterKey, "mode"), goerr.V("mode", d.Mode), goerr.V("min", d.Min), goerr.V("max", d.Max))
		}

	case types.DistUniform:
		if err := requireFinite("min", d.Min); err != nil {
			return err
		}
		if err := requireFinite("max", d.Max); err != nil {
			return err
		}
		if !(d.Min < d.Max) {
			return goerr.Wrap(ErrValidation, "uniform min must be strictly less than max",
				goerr.V(ParameterKey, "min"), goerr.V("min", d.Min), goerr.V("max", d.Max))
		}

	case types.DistBeta:
		if !(d.Alpha > 0) || math.IsInf(d.Alpha, 0) {
			return goerr.Wrap(ErrValidation, "beta alpha shape must be positive and finite",
				goerr.V(ParameterKey, "alpha"), goerr.V("value", d.Alpha))
		}
		if !(d.Beta > 0) || math.IsInf(d.Beta, 0) {
			return goerr.Wrap(ErrValidation, "beta beta shape must be positive and finite",
				goerr.V(ParameterKey, "beta"), goerr.V("value", d.Beta))
		}
		if d.Min != 0 || d.Max != 0 {
			if !(d.Min < d.Max) {
				return goerr.Wrap(ErrValidation, "beta scale requires min strictly less than max",
					goerr.V(ParameterKey, "min"), goerr.V("min", d.Min), goerr.V("max", d.Max))
			}
		}

	case types.DistLogNormal:
		if err := requireFinite("mu", d.Mu); err != nil {
			return err
		}
		if !(d.Sigma > 0) || math.IsInf(d.Sigma, 0) {
			return goerr.Wrap(ErrValidation, "lognormal sigma must be positive and finite",
				goerr.V(ParameterKey, "sigma"), goerr.V("value", d.Sigma))
		}
	}

	if d.Bound != nil {
		if err := requireFinite("bound.min", d.Bound.Min); err != nil {
			return err
		}
		if err := requireFinite("bound.max", d.Bound.Max); err != nil {
			return err
		}
		if !(d.Bound.Min < d.Bound.Max) {
			return goerr.Wrap(ErrValidation, "bound min must be strictly less than bound max",
				goerr.V(ParameterKey, "bound"), goerr.V("min", d.Bound.Min), goerr.V("max", d.Bound.Max))
		}
	}

	return nil
}

func requireFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return goerr.Wrap(ErrValidation, "parameter must be finite",
			goerr.V(ParameterKey, name), goerr.V("value", v))
	}
	return nil
}

// ExpectedValue returns the analytic mean of the distribution,
// ignoring any truncation bound.
func (d *Distribution) ExpectedValue() float64 {
	switch d.Type {
	case types.DistNormal:
		return d.Mean
	case types.DistTriangular:
		return (d.Min + d.Mode + d.Max) / 3
	case types.DistUniform:
		return (d.Min + d.Max) / 2
	case types.DistBeta:
		mean := d.Alpha / (d.Alpha + d.Beta)
		if d.Min != 0 || d.Max != 0 {
			return d.Min + mean*(d.Max-d.Min)
		}
		return mean
	case types.DistLogNormal:
		return math.Exp(d.Mu + d.Sigma*d.Sigma/2)
	default:
		return math.NaN()
	}
}

// Scaled returns a copy whose sampled values are the original's
// multiplied by factor. The factor must be positive; scaling to zero is
// an elimination, not a distribution.
func (d *Distribution) Scaled(factor float64) (*Distribution, error) {
	if d == nil {
		return nil, goerr.Wrap(ErrValidation, "distribution is nil")
	}
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, goerr.Wrap(ErrValidation, "scale factor must be positive and finite",
			goerr.V(ParameterKey, "scale"), goerr.V("value", factor))
	}

	c := d.Clone()
	switch d.Type {
	case types.DistNormal:
		c.Mean *= factor
		c.StdDev *= factor
	case types.DistTriangular:
		c.Min *= factor
		c.Mode *= factor
		c.Max *= factor
	case types.DistUniform:
		c.Min *= factor
		c.Max *= factor
	case types.DistBeta:
		if d.Min == 0 && d.Max == 0 {
			c.Max = factor
		} else {
			c.Min *= factor
			c.Max *= factor
		}
	case types.DistLogNormal:
		c.Mu += math.Log(factor)
	default:
		return nil, goerr.Wrap(ErrValidation, "unknown distribution type",
			goerr.V(ParameterKey, "type"), goerr.V("type", d.Type))
	}
	if c.Bound != nil {
		c.Bound.Min *= factor
		c.Bound.Max *= factor
	}
	return c, nil
}

// Clone returns a deep copy of the distribution
func (d *Distribution) Clone() *Distribution {
	if d == nil {
		return nil
	}
	c := *d
	if d.Bound != nil {
		b := *d.Bound
		c.Bound = &b
	}
	return &c
}

// Equal reports whether two distributions carry identical parameters
func (d *Distribution) Equal(other *Distribution) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Type != other.Type ||
		d.Mean != other.Mean || d.StdDev != other.StdDev ||
		d.Min != other.Min || d.Mode != other.Mode || d.Max != other.Max ||
		d.Alpha != other.Alpha || d.Beta != other.Beta ||
		d.Mu != other.Mu || d.Sigma != other.Sigma {
		return false
	}
	if (d.Bound == nil) != (other.Bound == nil) {
		return false
	}
	if d.Bound != nil && *d.Bound != *other.Bound {
		return false
	}
	return true
}
