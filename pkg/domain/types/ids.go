package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

// RiskID represents a unique identifier for a registered risk
type RiskID string

// Validate checks if the RiskID is valid
func (r RiskID) Validate() error {
	if r == "" {
		return goerr.New("risk ID cannot be empty")
	}
	if !idPattern.MatchString(string(r)) {
		return goerr.New("risk ID must be lowercase alphanumeric with hyphens", goerr.V("id", r))
	}
	return nil
}

// String returns the string representation of RiskID
func (r RiskID) String() string {
	return string(r)
}

// CategoryID represents a unique identifier for a risk category
type CategoryID string

// Validate checks if the CategoryID is valid
func (c CategoryID) Validate() error {
	if c == "" {
		return goerr.New("category ID cannot be empty")
	}
	if !idPattern.MatchString(string(c)) {
		return goerr.New("category ID must be lowercase alphanumeric with hyphens", goerr.V("id", c))
	}
	return nil
}

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// ScenarioID represents a unique identifier for a what-if scenario
type ScenarioID string

// NewScenarioID generates a new random ScenarioID
func NewScenarioID() ScenarioID {
	return ScenarioID(uuid.New().String())
}

// Validate checks if the ScenarioID is valid
func (s ScenarioID) Validate() error {
	if s == "" {
		return goerr.New("scenario ID cannot be empty")
	}
	return nil
}

// String returns the string representation of ScenarioID
func (s ScenarioID) String() string {
	return string(s)
}

// SimulationID represents a unique identifier for a simulation run
type SimulationID string

// NewSimulationID generates a new random SimulationID
func NewSimulationID() SimulationID {
	return SimulationID(uuid.New().String())
}

// Validate checks if the SimulationID is valid
func (s SimulationID) Validate() error {
	if s == "" {
		return goerr.New("simulation ID cannot be empty")
	}
	return nil
}

// String returns the string representation of SimulationID
func (s SimulationID) String() string {
	return string(s)
}
