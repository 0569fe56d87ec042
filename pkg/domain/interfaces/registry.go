package interfaces

import (
	"context"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
)

// RiskRegistry is the read-only view of the risk register the engine
// consumes. Implementations must return copies the caller can mutate
// freely.
type RiskRegistry interface {
	// GetRisk retrieves a single risk by ID
	GetRisk(ctx context.Context, id types.RiskID) (*model.Risk, error)

	// ListRisks retrieves all registered risks in a stable order
	ListRisks(ctx context.Context) ([]*model.Risk, error)
}

// CorrelationSource supplies the pairwise correlation specification
// registered alongside the risks
type CorrelationSource interface {
	Correlations(ctx context.Context) (map[model.CorrelationPair]float64, error)
}

// BaselineProvider supplies the project's baseline cost and schedule
// figures from financial/schedule tracking. Read-only.
type BaselineProvider interface {
	Baseline(ctx context.Context) (model.Baseline, error)
}
