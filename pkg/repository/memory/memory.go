package memory

import (
	"github.com/quantrail/riskforge/pkg/domain/interfaces"
)

// Memory is the in-memory persistence backend. It backs single-process
// runs and tests; everything lives for the lifetime of the process.
type Memory struct {
	scenario *scenarioRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		scenario: newScenarioRepository(),
	}
}

func (m *Memory) Scenario() interfaces.ScenarioRepository {
	return m.scenario
}
