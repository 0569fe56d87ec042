package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the simulation error taxonomy. Services wrap these
// with goerr.Wrap and attach the offending risk/parameter via goerr.V so
// callers can both branch with errors.Is and surface diagnostics.
var (
	// ErrValidation covers malformed distribution parameters, out-of-range
	// correlation coefficients, and rejected correlation matrices.
	ErrValidation = goerr.New("validation failed")

	// ErrInsufficientData is returned when historical fitting has too few samples
	ErrInsufficientData = goerr.New("insufficient historical data")

	// ErrIncompatibleScenarios is returned when two runs cannot be compared directly
	ErrIncompatibleScenarios = goerr.New("scenarios are not comparable")

	// ErrNumericalInstability covers decomposition failures that survive correction
	ErrNumericalInstability = goerr.New("numerical instability")

	// ErrCancelled is returned when a run is cooperatively cancelled mid-sampling
	ErrCancelled = goerr.New("simulation cancelled")
)

// Context keys for error values
const (
	RiskIDKey     = "risk_id"
	ParameterKey  = "parameter"
	ScenarioIDKey = "scenario_id"
	EigenvalueKey = "eigenvalue"
)
