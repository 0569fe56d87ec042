package distribution

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// MinHistoricalSamples is the smallest sample set FitHistorical accepts
const MinHistoricalSamples = 3

// FitHistorical fits a distribution to a historical sample set by maximum
// likelihood: each candidate family is fitted, scored by log-likelihood
// over the samples, and the best-scoring candidate wins. Candidates are
// normal, uniform, triangular, and (for all-positive samples) lognormal.
func (m *Modeler) FitHistorical(samples []float64) (*model.Distribution, error) {
	if len(samples) < MinHistoricalSamples {
		return nil, goerr.Wrap(model.ErrInsufficientData, "historical fitting requires more samples",
			goerr.V("samples", len(samples)), goerr.V("minimum", MinHistoricalSamples))
	}
	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, goerr.Wrap(model.ErrValidation, "historical samples must be finite",
				goerr.V(model.ParameterKey, "samples"), goerr.V("value", v))
		}
	}

	lo := floats.Min(samples)
	hi := floats.Max(samples)
	if !(hi > lo) {
		return nil, goerr.Wrap(model.ErrValidation, "historical samples are degenerate",
			goerr.V(model.ParameterKey, "samples"), goerr.V("value", lo))
	}

	best := struct {
		dist *model.Distribution
		ll   float64
	}{ll: math.Inf(-1)}

	for _, cand := range fitCandidates(samples, lo, hi) {
		if cand.Validate() != nil {
			continue
		}
		ll, ok := logLikelihood(cand, samples)
		if ok && ll > best.ll {
			best.dist = cand
			best.ll = ll
		}
	}

	if best.dist == nil {
		return nil, goerr.Wrap(model.ErrValidation, "no distribution family fits the samples")
	}
	return best.dist, nil
}

func fitCandidates(samples []float64, lo, hi float64) []*model.Distribution {
	mean := stat.Mean(samples, nil)
	sd := stat.StdDev(samples, nil)

	// Order is the deterministic tie-break: earlier candidates win equal scores.
	cands := []*model.Distribution{
		{Type: types.DistNormal, Mean: mean, StdDev: sd},
	}

	if lo > 0 {
		logs := make([]float64, len(samples))
		for i, v := range samples {
			logs[i] = math.Log(v)
		}
		cands = append(cands, &model.Distribution{
			Type:  types.DistLogNormal,
			Mu:    stat.Mean(logs, nil),
			Sigma: stat.StdDev(logs, nil),
		})
	}

	// Support edges are widened slightly so observed extremes keep
	// non-zero density under the fitted family.
	pad := 0.005 * (hi - lo)
	tmin, tmax := lo-pad, hi+pad

	mode := 3*mean - tmin - tmax
	if mode < tmin {
		mode = tmin
	}
	if mode > tmax {
		mode = tmax
	}

	cands = append(cands,
		&model.Distribution{Type: types.DistTriangular, Min: tmin, Mode: mode, Max: tmax},
		&model.Distribution{Type: types.DistUniform, Min: tmin, Max: tmax},
	)

	return cands
}

func logLikelihood(d *model.Distribution, samples []float64) (float64, bool) {
	var logProb func(x float64) float64

	switch d.Type {
	case types.DistNormal:
		dist := distuv.Normal{Mu: d.Mean, Sigma: d.StdDev}
		logProb = dist.LogProb
	case types.DistLogNormal:
		dist := distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma}
		logProb = dist.LogProb
	case types.DistTriangular:
		dist := distuv.NewTriangle(d.Min, d.Max, d.Mode, nil)
		logProb = dist.LogProb
	case types.DistUniform:
		dist := distuv.Uniform{Min: d.Min, Max: d.Max}
		logProb = dist.LogProb
	default:
		return 0, false
	}

	sum := 0.0
	for _, v := range samples {
		lp := logProb(v)
		if math.IsInf(lp, -1) || math.IsNaN(lp) {
			return 0, false
		}
		sum += lp
	}
	return sum, true
}
