package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

type scenarioRepository struct {
	mu        sync.RWMutex
	scenarios map[types.ScenarioID]*model.Scenario
}

func newScenarioRepository() *scenarioRepository {
	return &scenarioRepository{
		scenarios: make(map[types.ScenarioID]*model.Scenario),
	}
}

func (r *scenarioRepository) Create(ctx context.Context, scenario *model.Scenario) (*model.Scenario, error) {
	if scenario == nil {
		return nil, goerr.Wrap(model.ErrValidation, "scenario is nil")
	}
	if err := scenario.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "scenario requires a valid ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[scenario.ID]; exists {
		return nil, goerr.Wrap(ErrAlreadyExists, "scenario already exists",
			goerr.V(model.ScenarioIDKey, scenario.ID))
	}

	stored := scenario.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.scenarios[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *scenarioRepository) Get(ctx context.Context, id types.ScenarioID) (*model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scenario, exists := r.scenarios[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "scenario not found", goerr.V(model.ScenarioIDKey, id))
	}

	// Return a copy to prevent external modification
	return scenario.Clone(), nil
}

func (r *scenarioRepository) List(ctx context.Context) ([]*model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scenarios := make([]*model.Scenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		scenarios = append(scenarios, s.Clone())
	}

	// Stable order: creation time, then ID
	sort.Slice(scenarios, func(i, j int) bool {
		if !scenarios[i].CreatedAt.Equal(scenarios[j].CreatedAt) {
			return scenarios[i].CreatedAt.Before(scenarios[j].CreatedAt)
		}
		return scenarios[i].ID < scenarios[j].ID
	})

	return scenarios, nil
}

func (r *scenarioRepository) AttachResults(ctx context.Context, id types.ScenarioID, results *model.SimulationResults) (*model.Scenario, error) {
	if results == nil {
		return nil, goerr.Wrap(model.ErrValidation, "results are nil", goerr.V(model.ScenarioIDKey, id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scenario, exists := r.scenarios[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "scenario not found", goerr.V(model.ScenarioIDKey, id))
	}

	scenario.Results = results
	return scenario.Clone(), nil
}

func (r *scenarioRepository) Delete(ctx context.Context, id types.ScenarioID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[id]; !exists {
		return goerr.Wrap(ErrNotFound, "scenario not found", goerr.V(model.ScenarioIDKey, id))
	}

	delete(r.scenarios, id)
	return nil
}
