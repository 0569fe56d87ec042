package types

import "fmt"

// DistributionType represents the family of a risk impact distribution.
// The set is closed: sampling and validation switch exhaustively over it.
type DistributionType string

const (
	DistNormal     DistributionType = "NORMAL"
	DistTriangular DistributionType = "TRIANGULAR"
	DistUniform    DistributionType = "UNIFORM"
	DistBeta       DistributionType = "BETA"
	DistLogNormal  DistributionType = "LOGNORMAL"
)

// AllDistributionTypes returns all valid distribution types
func AllDistributionTypes() []DistributionType {
	return []DistributionType{
		DistNormal,
		DistTriangular,
		DistUniform,
		DistBeta,
		DistLogNormal,
	}
}

// IsValid checks if the distribution type is valid
func (t DistributionType) IsValid() bool {
	switch t {
	case DistNormal,
		DistTriangular,
		DistUniform,
		DistBeta,
		DistLogNormal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the distribution type
func (t DistributionType) String() string {
	return string(t)
}

// ParseDistributionType parses a string into a DistributionType
func ParseDistributionType(s string) (DistributionType, error) {
	t := DistributionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid distribution type: %s", s)
	}
	return t, nil
}
