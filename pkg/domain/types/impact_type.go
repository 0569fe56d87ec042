package types

import "fmt"

// ImpactType represents which outcome axes a risk affects
type ImpactType string

const (
	ImpactCost     ImpactType = "COST"
	ImpactSchedule ImpactType = "SCHEDULE"
	ImpactBoth     ImpactType = "BOTH"
)

// AllImpactTypes returns all valid impact types
func AllImpactTypes() []ImpactType {
	return []ImpactType{
		ImpactCost,
		ImpactSchedule,
		ImpactBoth,
	}
}

// IsValid checks if the impact type is valid
func (t ImpactType) IsValid() bool {
	switch t {
	case ImpactCost,
		ImpactSchedule,
		ImpactBoth:
		return true
	default:
		return false
	}
}

// AffectsCost reports whether risks of this impact type contribute to the cost outcome
func (t ImpactType) AffectsCost() bool {
	return t == ImpactCost || t == ImpactBoth
}

// AffectsSchedule reports whether risks of this impact type contribute to the schedule outcome
func (t ImpactType) AffectsSchedule() bool {
	return t == ImpactSchedule || t == ImpactBoth
}

// String returns the string representation of the impact type
func (t ImpactType) String() string {
	return string(t)
}

// ParseImpactType parses a string into an ImpactType
func ParseImpactType(s string) (ImpactType, error) {
	t := ImpactType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid impact type: %s", s)
	}
	return t, nil
}
