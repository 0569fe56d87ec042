package distribution

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Modeler converts raw impact estimates into typed, validated probability
// distributions and evaluates them (sampling, CDF, quantiles). It holds no
// state; every sampling call takes an explicit random source.
type Modeler struct{}

// New creates a Modeler
func New() *Modeler {
	return &Modeler{}
}

// Estimate is a raw impact estimate as supplied by the risk register,
// before it is typed. Which fields are read depends on the requested
// distribution type.
type Estimate struct {
	// Three-point estimate (triangular, uniform)
	Optimistic  float64
	MostLikely  float64
	Pessimistic float64

	// Parametric estimates
	Mean   float64
	StdDev float64
	Alpha  float64
	Beta   float64
	Mu     float64
	Sigma  float64

	Bound *model.Bound
}

// Create builds a validated distribution of the requested type from a raw
// estimate. Malformed parameters are rejected with the offending parameter
// named; values are never clamped into range.
func (m *Modeler) Create(dtype types.DistributionType, est Estimate) (*model.Distribution, error) {
	d := &model.Distribution{Type: dtype, Bound: est.Bound}

	switch dtype {
	case types.DistNormal:
		d.Mean = est.Mean
		d.StdDev = est.StdDev
	case types.DistTriangular:
		d.Min = est.Optimistic
		d.Mode = est.MostLikely
		d.Max = est.Pessimistic
	case types.DistUniform:
		d.Min = est.Optimistic
		d.Max = est.Pessimistic
	case types.DistBeta:
		d.Alpha = est.Alpha
		d.Beta = est.Beta
		d.Min = est.Optimistic
		d.Max = est.Pessimistic
	case types.DistLogNormal:
		d.Mu = est.Mu
		d.Sigma = est.Sigma
	default:
		return nil, goerr.Wrap(model.ErrValidation, "unknown distribution type",
			goerr.V(model.ParameterKey, "type"), goerr.V("type", dtype))
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewCrossImpact pairs a cost and a schedule distribution with a
// correlation coefficient for joint sampling
func (m *Modeler) NewCrossImpact(cost, schedule *model.Distribution, correlation float64) (*model.CrossImpactModel, error) {
	cim := &model.CrossImpactModel{
		Cost:        cost,
		Schedule:    schedule,
		Correlation: correlation,
	}
	if err := cim.Validate(); err != nil {
		return nil, err
	}
	return cim, nil
}
