package interfaces

import (
	"context"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// Repository defines the interface for scenario persistence
type Repository interface {
	Scenario() ScenarioRepository
}

type ScenarioRepository interface {
	// Create stores a new scenario
	Create(ctx context.Context, scenario *model.Scenario) (*model.Scenario, error)

	// Get retrieves a scenario by ID
	Get(ctx context.Context, id types.ScenarioID) (*model.Scenario, error)

	// List retrieves all scenarios
	List(ctx context.Context) ([]*model.Scenario, error)

	// AttachResults attaches simulation results to an executed scenario
	AttachResults(ctx context.Context, id types.ScenarioID, results *model.SimulationResults) (*model.Scenario, error)

	// Delete deletes a scenario by ID
	Delete(ctx context.Context, id types.ScenarioID) error
}
