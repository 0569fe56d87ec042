package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/quantrail/riskforge/pkg/domain/interfaces"
	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Register is the in-memory risk register: the registered risks, their
// pairwise correlations, and the project baseline. Reads hand out
// copies; callers never see shared state.
type Register struct {
	mu       sync.RWMutex
	risks    map[types.RiskID]*model.Risk
	order    []types.RiskID
	pairs    map[model.CorrelationPair]float64
	baseline model.Baseline
}

var (
	_ interfaces.RiskRegistry      = &Register{}
	_ interfaces.CorrelationSource = &Register{}
	_ interfaces.BaselineProvider  = &Register{}
)

func NewRegister() *Register {
	return &Register{
		risks: make(map[types.RiskID]*model.Risk),
		pairs: make(map[model.CorrelationPair]float64),
	}
}

// PutRisk registers a risk. Registering an existing ID replaces the
// stored risk in place, preserving its registration order.
func (r *Register) PutRisk(ctx context.Context, risk *model.Risk) error {
	if err := risk.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.risks[risk.ID]; !exists {
		r.order = append(r.order, risk.ID)
	}
	r.risks[risk.ID] = risk.Clone()
	return nil
}

func (r *Register) GetRisk(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}
	return risk.Clone(), nil
}

// ListRisks returns all registered risks in registration order
func (r *Register) ListRisks(ctx context.Context) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.order))
	for _, id := range r.order {
		risks = append(risks, r.risks[id].Clone())
	}
	return risks, nil
}

func (r *Register) DeleteRisk(ctx context.Context, id types.RiskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.risks[id]; !exists {
		return goerr.Wrap(ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}
	delete(r.risks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetCorrelation records a pairwise correlation between two registered risks
func (r *Register) SetCorrelation(ctx context.Context, a, b types.RiskID, coefficient float64) error {
	if a == b {
		return goerr.Wrap(model.ErrValidation, "self correlation is not configurable",
			goerr.V(model.RiskIDKey, a))
	}
	if coefficient < -1 || coefficient > 1 {
		return goerr.Wrap(model.ErrValidation, "correlation coefficient must be within [-1, 1]",
			goerr.V(model.ParameterKey, "coefficient"), goerr.V("value", coefficient))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range []types.RiskID{a, b} {
		if _, exists := r.risks[id]; !exists {
			return goerr.Wrap(ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
	}

	// Store the pair in a canonical order so (a, b) and (b, a) collapse
	if b < a {
		a, b = b, a
	}
	r.pairs[model.CorrelationPair{A: a, B: b}] = coefficient
	return nil
}

func (r *Register) Correlations(ctx context.Context) (map[model.CorrelationPair]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.pairs), nil
}

func (r *Register) SetBaseline(ctx context.Context, b model.Baseline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseline = b
	return nil
}

func (r *Register) Baseline(ctx context.Context) (model.Baseline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.baseline, nil
}
