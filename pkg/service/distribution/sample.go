package distribution

import (
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// marginal is the evaluated form of a model.Distribution
type marginal interface {
	Rand() float64
	CDF(x float64) float64
	Quantile(p float64) float64
}

// newMarginal maps a validated distribution onto its gonum implementation.
// The switch is exhaustive over the closed type set; the default arm only
// fires on an unvalidated value.
func newMarginal(d *model.Distribution, src rand.Source) (marginal, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var base marginal
	switch d.Type {
	case types.DistNormal:
		base = distuv.Normal{Mu: d.Mean, Sigma: d.StdDev, Src: src}
	case types.DistTriangular:
		base = distuv.NewTriangle(d.Min, d.Max, d.Mode, src)
	case types.DistUniform:
		base = distuv.Uniform{Min: d.Min, Max: d.Max, Src: src}
	case types.DistBeta:
		beta := distuv.Beta{Alpha: d.Alpha, Beta: d.Beta, Src: src}
		if d.Min != 0 || d.Max != 0 {
			base = affine{base: beta, shift: d.Min, scale: d.Max - d.Min}
		} else {
			base = beta
		}
	case types.DistLogNormal:
		base = distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: src}
	default:
		return nil, goerr.Wrap(model.ErrValidation, "unknown distribution type",
			goerr.V(model.ParameterKey, "type"), goerr.V("type", d.Type))
	}

	if d.Bound != nil {
		return newTruncated(base, d.Bound, src)
	}
	return base, nil
}

// affine rescales a unit-interval marginal onto [shift, shift+scale]
type affine struct {
	base  marginal
	shift float64
	scale float64
}

func (a affine) Rand() float64 {
	return a.shift + a.scale*a.base.Rand()
}

func (a affine) CDF(x float64) float64 {
	return a.base.CDF((x - a.shift) / a.scale)
}

func (a affine) Quantile(p float64) float64 {
	return a.shift + a.scale*a.base.Quantile(p)
}

// truncated restricts a marginal to [bound.Min, bound.Max] by sampling in
// quantile space, so draws keep the conditional distribution exactly
type truncated struct {
	base marginal
	u    distuv.Uniform
	pLo  float64
	pHi  float64
}

func newTruncated(base marginal, bound *model.Bound, src rand.Source) (marginal, error) {
	pLo := base.CDF(bound.Min)
	pHi := base.CDF(bound.Max)
	if !(pHi > pLo) {
		return nil, goerr.Wrap(model.ErrValidation, "bound excludes all probability mass",
			goerr.V(model.ParameterKey, "bound"), goerr.V("min", bound.Min), goerr.V("max", bound.Max))
	}
	return truncated{
		base: base,
		u:    distuv.Uniform{Min: pLo, Max: pHi, Src: src},
		pLo:  pLo,
		pHi:  pHi,
	}, nil
}

func (t truncated) Rand() float64 {
	return t.base.Quantile(t.u.Rand())
}

func (t truncated) CDF(x float64) float64 {
	p := (t.base.CDF(x) - t.pLo) / (t.pHi - t.pLo)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func (t truncated) Quantile(p float64) float64 {
	return t.base.Quantile(t.pLo + p*(t.pHi-t.pLo))
}

// Sample produces n independent draws from the distribution using the
// supplied source. There is no hidden global random state: determinism is
// entirely in the caller's hands via src.
func (m *Modeler) Sample(d *model.Distribution, n int, src rand.Source) ([]float64, error) {
	if n <= 0 {
		return nil, goerr.Wrap(model.ErrValidation, "sample count must be positive",
			goerr.V(model.ParameterKey, "n"), goerr.V("value", n))
	}

	mg, err := newMarginal(d, src)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = mg.Rand()
	}
	return out, nil
}

// Quantile evaluates the inverse CDF of the distribution at p ∈ [0, 1]
func (m *Modeler) Quantile(d *model.Distribution, p float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, goerr.Wrap(model.ErrValidation, "quantile probability must be within [0, 1]",
			goerr.V(model.ParameterKey, "p"), goerr.V("value", p))
	}
	mg, err := newMarginal(d, nil)
	if err != nil {
		return 0, err
	}
	return mg.Quantile(p), nil
}

// CDF evaluates the distribution function at x
func (m *Modeler) CDF(d *model.Distribution, x float64) (float64, error) {
	mg, err := newMarginal(d, nil)
	if err != nil {
		return 0, err
	}
	return mg.CDF(x), nil
}
