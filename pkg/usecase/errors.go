package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrEmptyRegister       = errors.New("risk register is empty")
	ErrScenarioNotExecuted = errors.New("scenario has not been executed")
)

// Context keys for error values
const (
	ScenarioIDKey = "scenario_id"
)
