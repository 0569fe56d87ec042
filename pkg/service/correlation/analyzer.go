package correlation

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/distribution"
)

// psdTolerance is how far below zero an eigenvalue may sit before the
// matrix is considered non-positive-semi-definite. Strictly negative
// values this small are floating point noise, not real structure.
const psdTolerance = -1e-8

// psdRidge is the identity blend applied to a repaired matrix. Clipping
// eigenvalues at zero leaves the matrix singular, which Cholesky
// factorisation rejects; shrinking the off-diagonals by this factor
// keeps it strictly positive definite at a negligible change to the
// coefficients.
const psdRidge = 1e-6

// Analyzer builds and validates correlation matrices and produces
// correlated joint samples via a Gaussian copula
type Analyzer struct {
	modeler *distribution.Modeler
}

// New creates an Analyzer backed by the given distribution modeler
func New(modeler *distribution.Modeler) *Analyzer {
	return &Analyzer{modeler: modeler}
}

// BuildMatrix assembles the full symmetric correlation matrix over ids
// from a sparse pair specification. Unspecified pairs stay at zero and
// the diagonal is fixed at one. Coefficients outside [-1, 1] and pairs
// referencing unknown risks are rejected.
func (a *Analyzer) BuildMatrix(ids []types.RiskID, pairs map[model.CorrelationPair]float64) (*model.CorrelationMatrix, error) {
	m, err := model.NewCorrelationMatrix(ids)
	if err != nil {
		return nil, err
	}

	for pair, coef := range pairs {
		if pair.A == pair.B {
			return nil, goerr.Wrap(model.ErrValidation, "self correlation is not configurable",
				goerr.V(model.RiskIDKey, pair.A))
		}
		if err := m.Set(pair.A, pair.B, coef); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ValidationResult reports the outcome of a positive semi-definiteness check
type ValidationResult struct {
	Valid         bool
	MinEigenvalue float64
	Dim           int
}

// Validate checks the matrix for positive semi-definiteness via
// eigenvalue decomposition
func (a *Analyzer) Validate(m *model.CorrelationMatrix) (*ValidationResult, error) {
	n := m.Dim()
	sym := mat.NewSymDense(n, m.Raw())

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil, goerr.Wrap(model.ErrNumericalInstability, "eigenvalue decomposition failed",
			goerr.V("dim", n))
	}

	vals := eig.Values(nil)
	minEig := vals[0]
	for _, v := range vals[1:] {
		if v < minEig {
			minEig = v
		}
	}

	return &ValidationResult{
		Valid:         minEig >= psdTolerance,
		MinEigenvalue: minEig,
		Dim:           n,
	}, nil
}

// NearestPSD repairs a non-positive-semi-definite matrix by clipping
// negative eigenvalues at zero, reconstructing, and rescaling the
// diagonal back to one. The returned matrix carries Corrected=true so
// the repair is visible to callers; it is never applied silently.
func (a *Analyzer) NearestPSD(m *model.CorrelationMatrix) (*model.CorrelationMatrix, error) {
	n := m.Dim()
	sym := mat.NewSymDense(n, m.Raw())

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, goerr.Wrap(model.ErrNumericalInstability, "eigenvalue decomposition failed",
			goerr.V("dim", n))
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// B = V * diag(max(λ, 0)) * Vᵀ
	clipped := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		lambda := vals[j]
		if lambda < 0 {
			lambda = 0
		}
		for i := 0; i < n; i++ {
			clipped.Set(i, j, vecs.At(i, j)*lambda)
		}
	}
	var b mat.Dense
	b.Mul(clipped, vecs.T())

	out := m.Clone()
	out.Corrected = true
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Rescale so the diagonal returns to exactly one
			denom := b.At(i, i) * b.At(j, j)
			coef := 0.0
			if denom > 0 {
				coef = b.At(i, j) / math.Sqrt(denom)
			}
			if coef > 1 {
				coef = 1
			}
			if coef < -1 {
				coef = -1
			}
			out.SetAt(i, j, coef*(1-psdRidge))
		}
	}

	check, err := a.Validate(out)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, goerr.Wrap(model.ErrNumericalInstability, "matrix remains non-PSD after correction",
			goerr.V(model.EigenvalueKey, check.MinEigenvalue))
	}

	return out, nil
}
