package types_test

import (
	"testing"

	"github.com/quantrail/riskforge/pkg/domain/types"
)

func TestRiskIDValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      types.RiskID
		wantErr bool
	}{
		{name: "valid simple ID", id: "weather-delay", wantErr: false},
		{name: "valid with numbers", id: "risk-001", wantErr: false},
		{name: "valid with underscore", id: "supply_chain", wantErr: false},
		{name: "empty ID", id: "", wantErr: true},
		{name: "uppercase rejected", id: "Weather", wantErr: true},
		{name: "spaces rejected", id: "weather delay", wantErr: true},
		{name: "trailing hyphen rejected", id: "weather-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImpactType(t *testing.T) {
	tests := []struct {
		name           string
		impact         types.ImpactType
		valid          bool
		affectsCost    bool
		affectsSchedul bool
	}{
		{name: "cost", impact: types.ImpactCost, valid: true, affectsCost: true},
		{name: "schedule", impact: types.ImpactSchedule, valid: true, affectsSchedul: true},
		{name: "both", impact: types.ImpactBoth, valid: true, affectsCost: true, affectsSchedul: true},
		{name: "unknown", impact: types.ImpactType("QUALITY"), valid: false},
		{name: "empty", impact: types.ImpactType(""), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.impact.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.impact.AffectsCost(); got != tt.affectsCost {
				t.Errorf("AffectsCost() = %v, want %v", got, tt.affectsCost)
			}
			if got := tt.impact.AffectsSchedule(); got != tt.affectsSchedul {
				t.Errorf("AffectsSchedule() = %v, want %v", got, tt.affectsSchedul)
			}
		})
	}
}

func TestParseDistributionType(t *testing.T) {
	for _, dt := range types.AllDistributionTypes() {
		parsed, err := types.ParseDistributionType(dt.String())
		if err != nil {
			t.Errorf("ParseDistributionType(%q) unexpected error: %v", dt, err)
		}
		if parsed != dt {
			t.Errorf("ParseDistributionType(%q) = %v, want %v", dt, parsed, dt)
		}
	}

	if _, err := types.ParseDistributionType("CAUCHY"); err == nil {
		t.Error("ParseDistributionType should reject unknown type")
	}
}

func TestRunStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    types.RunState
		to      types.RunState
		allowed bool
	}{
		{name: "configured to sampling", from: types.RunConfigured, to: types.RunSampling, allowed: true},
		{name: "sampling to aggregating", from: types.RunSampling, to: types.RunAggregating, allowed: true},
		{name: "aggregating to completed", from: types.RunAggregating, to: types.RunCompleted, allowed: true},
		{name: "sampling to failed", from: types.RunSampling, to: types.RunFailed, allowed: true},
		{name: "configured to cancelled", from: types.RunConfigured, to: types.RunCancelled, allowed: true},
		{name: "configured to completed skips states", from: types.RunConfigured, to: types.RunCompleted, allowed: false},
		{name: "completed is terminal", from: types.RunCompleted, to: types.RunSampling, allowed: false},
		{name: "cancelled is terminal", from: types.RunCancelled, to: types.RunFailed, allowed: false},
		{name: "failed is terminal", from: types.RunFailed, to: types.RunSampling, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%v -> %v) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestRunStateTerminal(t *testing.T) {
	for _, s := range types.AllRunStates() {
		terminal := s == types.RunCompleted || s == types.RunFailed || s == types.RunCancelled
		if got := s.IsTerminal(); got != terminal {
			t.Errorf("IsTerminal(%v) = %v, want %v", s, got, terminal)
		}
	}
}

func TestNewSimulationID(t *testing.T) {
	a := types.NewSimulationID()
	b := types.NewSimulationID()
	if a == b {
		t.Error("NewSimulationID should generate unique IDs")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("generated SimulationID failed validation: %v", err)
	}
}
