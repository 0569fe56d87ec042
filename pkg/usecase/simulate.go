package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
)

// Simulate runs the registered risk portfolio through the engine. The
// register's correlation specification and the project baseline, when
// configured, apply automatically; explicit options are appended last
// so callers can still override run settings.
func (uc *UseCases) Simulate(ctx context.Context, opts ...montecarlo.Option) (*model.SimulationResults, error) {
	risks, err := uc.registry.ListRisks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load risk register")
	}
	if len(risks) == 0 {
		return nil, goerr.Wrap(ErrEmptyRegister, "nothing to simulate")
	}

	runOpts, err := uc.ambientOptions(ctx, risks)
	if err != nil {
		return nil, err
	}
	runOpts = append(runOpts, opts...)

	return uc.engine.Run(ctx, risks, runOpts...)
}

// CheckParameters runs the engine's pre-flight validation over the
// registered portfolio without consuming any random state
func (uc *UseCases) CheckParameters(ctx context.Context) (*montecarlo.ValidationResult, error) {
	risks, err := uc.registry.ListRisks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load risk register")
	}

	var pairs map[model.CorrelationPair]float64
	if uc.correlations != nil {
		if pairs, err = uc.correlations.Correlations(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to load correlations")
		}
	}

	return uc.engine.ValidateParameters(risks, pairs), nil
}

// ambientOptions assembles the run options implied by the configured
// register state: correlations restricted to the given risk set, and
// the project baseline.
func (uc *UseCases) ambientOptions(ctx context.Context, risks []*model.Risk) ([]montecarlo.Option, error) {
	var opts []montecarlo.Option

	if uc.correlations != nil {
		pairs, err := uc.correlations.Correlations(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load correlations")
		}
		if filtered := restrictPairs(pairs, risks); len(filtered) > 0 {
			opts = append(opts, montecarlo.WithCorrelations(filtered))
		}
	}

	if uc.baseline != nil {
		baseline, err := uc.baseline.Baseline(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load baseline")
		}
		opts = append(opts, montecarlo.WithBaseline(baseline))
	}

	return opts, nil
}

// restrictPairs drops correlation pairs referencing risks outside the
// given set, so scenarios that remove risks keep a consistent
// specification
func restrictPairs(pairs map[model.CorrelationPair]float64, risks []*model.Risk) map[model.CorrelationPair]float64 {
	if len(pairs) == 0 {
		return nil
	}
	present := make(map[types.RiskID]bool, len(risks))
	for _, r := range risks {
		present[r.ID] = true
	}

	filtered := make(map[model.CorrelationPair]float64, len(pairs))
	for pair, coef := range pairs {
		if present[pair.A] && present[pair.B] {
			filtered[pair] = coef
		}
	}
	return filtered
}
