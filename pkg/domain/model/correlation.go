package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// CorrelationPair identifies an unordered pair of correlated risks
type CorrelationPair struct {
	A types.RiskID
	B types.RiskID
}

// CorrelationMatrix is a square symmetric matrix of correlation
// coefficients over an ordered set of risk IDs. The diagonal is always 1
// and off-diagonal entries are within [-1, 1]. Positive semi-definiteness
// is checked separately by the correlation analyzer.
type CorrelationMatrix struct {
	ids   []types.RiskID
	index map[types.RiskID]int
	data  []float64

	// Corrected is set when the matrix was repaired to the nearest
	// positive semi-definite matrix. Corrections are never silent.
	Corrected bool
}

// NewCorrelationMatrix creates an identity correlation matrix over ids
func NewCorrelationMatrix(ids []types.RiskID) (*CorrelationMatrix, error) {
	if len(ids) == 0 {
		return nil, goerr.Wrap(ErrValidation, "correlation matrix requires at least one risk")
	}

	index := make(map[types.RiskID]int, len(ids))
	for i, id := range ids {
		if _, exists := index[id]; exists {
			return nil, goerr.Wrap(ErrValidation, "duplicate risk ID in correlation matrix", goerr.V(RiskIDKey, id))
		}
		index[id] = i
	}

	n := len(ids)
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}

	return &CorrelationMatrix{
		ids:   slices.Clone(ids),
		index: index,
		data:  data,
	}, nil
}

// Dim returns the matrix dimension
func (m *CorrelationMatrix) Dim() int {
	return len(m.ids)
}

// IDs returns the ordered risk IDs the matrix is indexed by
func (m *CorrelationMatrix) IDs() []types.RiskID {
	return slices.Clone(m.ids)
}

// At returns the coefficient at row i, column j
func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.data[i*len(m.ids)+j]
}

// Coefficient returns the coefficient between two risks by ID
func (m *CorrelationMatrix) Coefficient(a, b types.RiskID) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, goerr.Wrap(ErrValidation, "risk not present in correlation matrix", goerr.V(RiskIDKey, a))
	}
	j, ok := m.index[b]
	if !ok {
		return 0, goerr.Wrap(ErrValidation, "risk not present in correlation matrix", goerr.V(RiskIDKey, b))
	}
	return m.At(i, j), nil
}

// Set assigns a coefficient to both symmetric positions. The diagonal
// cannot be overwritten and coefficients must be within [-1, 1].
func (m *CorrelationMatrix) Set(a, b types.RiskID, coef float64) error {
	if coef < -1 || coef > 1 {
		return goerr.Wrap(ErrValidation, "correlation coefficient must be within [-1, 1]",
			goerr.V(RiskIDKey, a), goerr.V("with", b), goerr.V("coefficient", coef))
	}

	i, ok := m.index[a]
	if !ok {
		return goerr.Wrap(ErrValidation, "risk not present in correlation matrix", goerr.V(RiskIDKey, a))
	}
	j, ok := m.index[b]
	if !ok {
		return goerr.Wrap(ErrValidation, "risk not present in correlation matrix", goerr.V(RiskIDKey, b))
	}
	if i == j {
		return goerr.Wrap(ErrValidation, "correlation matrix diagonal is fixed at 1", goerr.V(RiskIDKey, a))
	}

	n := len(m.ids)
	m.data[i*n+j] = coef
	m.data[j*n+i] = coef
	return nil
}

// SetAt assigns a coefficient by index positions, keeping symmetry.
// Used by the analyzer when rebuilding a corrected matrix.
func (m *CorrelationMatrix) SetAt(i, j int, coef float64) {
	n := len(m.ids)
	m.data[i*n+j] = coef
	m.data[j*n+i] = coef
}

// Raw returns the matrix in row-major order (a copy)
func (m *CorrelationMatrix) Raw() []float64 {
	return slices.Clone(m.data)
}

// IsIdentity reports whether all off-diagonal coefficients are zero
func (m *CorrelationMatrix) IsIdentity() bool {
	n := len(m.ids)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && m.data[i*n+j] != 0 {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the matrix
func (m *CorrelationMatrix) Clone() *CorrelationMatrix {
	if m == nil {
		return nil
	}
	index := make(map[types.RiskID]int, len(m.index))
	for k, v := range m.index {
		index[k] = v
	}
	return &CorrelationMatrix{
		ids:       slices.Clone(m.ids),
		index:     index,
		data:      slices.Clone(m.data),
		Corrected: m.Corrected,
	}
}
