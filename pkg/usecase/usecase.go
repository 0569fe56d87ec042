package usecase

import (
	"github.com/quantrail/riskforge/pkg/domain/interfaces"
	"github.com/quantrail/riskforge/pkg/service/analysis"
	"github.com/quantrail/riskforge/pkg/service/correlation"
	"github.com/quantrail/riskforge/pkg/service/distribution"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
	"github.com/quantrail/riskforge/pkg/service/scenario"
)

type UseCases struct {
	repo     interfaces.Repository
	registry interfaces.RiskRegistry

	correlations interfaces.CorrelationSource
	baseline     interfaces.BaselineProvider

	modeler   *distribution.Modeler
	engine    *montecarlo.Engine
	analyzer  *analysis.Analyzer
	generator *scenario.Generator
}

type Option func(*UseCases)

// WithCorrelationSource attaches the pairwise correlation specification
// applied to every simulation run
func WithCorrelationSource(src interfaces.CorrelationSource) Option {
	return func(uc *UseCases) {
		uc.correlations = src
	}
}

// WithBaselineProvider attaches the project baseline overlaid on run outcomes
func WithBaselineProvider(p interfaces.BaselineProvider) Option {
	return func(uc *UseCases) {
		uc.baseline = p
	}
}

// WithAnalyzer overrides the default result analyzer
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(uc *UseCases) {
		uc.analyzer = a
	}
}

func New(repo interfaces.Repository, registry interfaces.RiskRegistry, opts ...Option) *UseCases {
	modeler := distribution.New()
	engine := montecarlo.New(modeler, correlation.New(modeler))

	uc := &UseCases{
		repo:      repo,
		registry:  registry,
		modeler:   modeler,
		engine:    engine,
		analyzer:  analysis.New(),
		generator: scenario.New(engine),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
