package correlation

import (
	"math"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/service/distribution"
)

// Transform is the precomputed linear map from independent standard
// normal draws to correlated scores for one correlation matrix. The
// factorisation happens once, before any sampling starts, so drawing
// scores can never fail mid-run.
type Transform struct {
	dim    int
	factor *mat.Dense
}

// Dim returns the number of correlated variables
func (t *Transform) Dim() int {
	return t.dim
}

// Compile factorizes the matrix into a sampling transform. Strictly
// positive definite matrices use the Cholesky factor. A singular but
// still positive semi-definite matrix (a coefficient of exactly +-1 is
// valid input) falls back to the eigenvalue factor V*diag(sqrt(lambda)),
// which induces the same covariance. Matrices with eigenvalues below
// the PSD tolerance are rejected.
func (a *Analyzer) Compile(m *model.CorrelationMatrix) (*Transform, error) {
	k := m.Dim()
	sym := mat.NewSymDense(k, m.Raw())

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var lower mat.TriDense
		chol.LTo(&lower)
		factor := mat.NewDense(k, k, nil)
		factor.Copy(&lower)
		return &Transform{dim: k, factor: factor}, nil
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, goerr.Wrap(model.ErrNumericalInstability, "eigenvalue decomposition of correlation matrix failed",
			goerr.V("dim", k), goerr.V("corrected", m.Corrected))
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	factor := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		lambda := vals[j]
		if lambda < psdTolerance {
			return nil, goerr.Wrap(model.ErrNumericalInstability, "correlation matrix is not positive semi-definite",
				goerr.V(model.EigenvalueKey, lambda), goerr.V("corrected", m.Corrected))
		}
		if lambda < 0 {
			lambda = 0
		}
		s := math.Sqrt(lambda)
		for i := 0; i < k; i++ {
			factor.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return &Transform{dim: k, factor: factor}, nil
}

// Scores draws n rows of correlated standard normal scores: independent
// N(0,1) draws mapped through the factor, w = F*z. All randomness comes
// from src.
func (t *Transform) Scores(n int, src rand.Source) *mat.Dense {
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	out := mat.NewDense(n, t.dim, nil)
	z := make([]float64, t.dim)

	for row := 0; row < n; row++ {
		for i := range z {
			z[i] = stdNormal.Rand()
		}
		for i := 0; i < t.dim; i++ {
			sum := 0.0
			for j := 0; j < t.dim; j++ {
				sum += t.factor.At(i, j) * z[j]
			}
			out.Set(row, i, sum)
		}
	}

	return out
}

// CorrelatedScores draws n rows of k correlated standard normal scores.
// The engine compiles the transform itself so it can factorize once per
// run; this wrapper serves one-off callers.
func (a *Analyzer) CorrelatedScores(m *model.CorrelationMatrix, n int, src rand.Source) (*mat.Dense, error) {
	if n <= 0 {
		return nil, goerr.Wrap(model.ErrValidation, "sample count must be positive",
			goerr.V(model.ParameterKey, "n"), goerr.V("value", n))
	}

	transform, err := a.Compile(m)
	if err != nil {
		return nil, err
	}
	return transform.Scores(n, src), nil
}

// ScoreToProbability maps a standard normal score to its CDF value,
// guarded away from exactly 0 and 1 so quantile evaluation stays finite
func ScoreToProbability(w float64) float64 {
	u := distuv.UnitNormal.CDF(w)
	if u <= 0 {
		return 1e-12
	}
	if u >= 1 {
		return 1 - 1e-12
	}
	return u
}

// CorrelatedSamples draws n joint samples across k marginal distributions
// with the dependence structure of the given correlation matrix, using a
// Gaussian copula: correlated standard-normal scores are pushed through
// the standard normal CDF and mapped through each marginal's quantile
// function. Marginals are preserved exactly; the matrix controls the
// rank correlation.
//
// The returned matrix is n×k, one row per joint draw, columns aligned
// with dists (and with m's risk ID order).
func (a *Analyzer) CorrelatedSamples(dists []*model.Distribution, m *model.CorrelationMatrix, n int, src rand.Source) (*mat.Dense, error) {
	k := len(dists)
	if k == 0 {
		return nil, goerr.Wrap(model.ErrValidation, "no distributions supplied")
	}
	if m.Dim() != k {
		return nil, goerr.Wrap(model.ErrValidation, "correlation matrix dimension does not match distribution count",
			goerr.V("matrix_dim", m.Dim()), goerr.V("distributions", k))
	}

	evals := make([]*distribution.Evaluator, k)
	for i, d := range dists {
		ev, err := a.modeler.Compile(d)
		if err != nil {
			return nil, err
		}
		evals[i] = ev
	}

	scores, err := a.CorrelatedScores(m, n, src)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(n, k, nil)
	for row := 0; row < n; row++ {
		for i := 0; i < k; i++ {
			u := ScoreToProbability(scores.At(row, i))
			out.Set(row, i, evals[i].Quantile(u))
		}
	}

	return out, nil
}
