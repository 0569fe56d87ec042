package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
)

// CreateScenario derives a scenario from the current risk register and
// persists it
func (uc *UseCases) CreateScenario(ctx context.Context, name string, mods []model.Modification) (*model.Scenario, error) {
	risks, err := uc.registry.ListRisks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load risk register")
	}

	s, err := uc.generator.Create(name, risks, mods)
	if err != nil {
		return nil, err
	}

	return uc.repo.Scenario().Create(ctx, s)
}

// GetScenario retrieves a stored scenario
func (uc *UseCases) GetScenario(ctx context.Context, id types.ScenarioID) (*model.Scenario, error) {
	return uc.repo.Scenario().Get(ctx, id)
}

// ListScenarios retrieves all stored scenarios
func (uc *UseCases) ListScenarios(ctx context.Context) ([]*model.Scenario, error) {
	return uc.repo.Scenario().List(ctx)
}

// DeleteScenario removes a stored scenario
func (uc *UseCases) DeleteScenario(ctx context.Context, id types.ScenarioID) error {
	return uc.repo.Scenario().Delete(ctx, id)
}

// RunScenario executes a stored scenario's risk set and attaches the
// results to it. Register correlations restricted to the scenario's
// risks and the project baseline apply the same way Simulate applies
// them.
func (uc *UseCases) RunScenario(ctx context.Context, id types.ScenarioID, opts ...montecarlo.Option) (*model.Scenario, error) {
	s, err := uc.repo.Scenario().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	runOpts, err := uc.ambientOptions(ctx, s.Risks)
	if err != nil {
		return nil, err
	}
	runOpts = append(runOpts, opts...)

	results, err := uc.engine.Run(ctx, s.Risks, runOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "scenario run failed", goerr.V(ScenarioIDKey, id))
	}

	return uc.repo.Scenario().AttachResults(ctx, id, results)
}

// CompareScenarios tests two executed scenarios for a statistically
// significant difference in their outcomes
func (uc *UseCases) CompareScenarios(ctx context.Context, baseID, otherID types.ScenarioID) (*model.ScenarioComparison, error) {
	base, err := uc.repo.Scenario().Get(ctx, baseID)
	if err != nil {
		return nil, err
	}
	other, err := uc.repo.Scenario().Get(ctx, otherID)
	if err != nil {
		return nil, err
	}

	if base.Results == nil {
		return nil, goerr.Wrap(ErrScenarioNotExecuted, "base scenario must be run first",
			goerr.V(ScenarioIDKey, baseID))
	}
	if other.Results == nil {
		return nil, goerr.Wrap(ErrScenarioNotExecuted, "other scenario must be run first",
			goerr.V(ScenarioIDKey, otherID))
	}

	return uc.analyzer.CompareScenarios(base, other)
}

// EvaluateMitigation measures what applying a mitigation to one
// registered risk is worth in expectation
func (uc *UseCases) EvaluateMitigation(ctx context.Context, target types.RiskID, mit model.Mitigation, opts ...montecarlo.Option) (*model.MitigationAnalysis, error) {
	risks, err := uc.registry.ListRisks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load risk register")
	}
	if len(risks) == 0 {
		return nil, goerr.Wrap(ErrEmptyRegister, "nothing to evaluate")
	}

	return uc.generator.EvaluateMitigation(ctx, risks, target, mit, opts...)
}
