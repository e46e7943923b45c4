package enums

import "fmt"

// SurplusUnit maps to the surplus_unit enum in Postgres.
type SurplusUnit string

const (
	SurplusUnitKg     SurplusUnit = "kg"
	SurplusUnitTons   SurplusUnit = "tons"
	SurplusUnitBags   SurplusUnit = "bags"
	SurplusUnitCrates SurplusUnit = "crates"
)

var validSurplusUnits = []SurplusUnit{
	SurplusUnitKg,
	SurplusUnitTons,
	SurplusUnitBags,
	SurplusUnitCrates,
}

// IsValid checks whether the given unit matches the canonical enum.
func (u SurplusUnit) IsValid() bool {
	for _, candidate := range validSurplusUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseSurplusUnit converts raw strings into SurplusUnit.
func ParseSurplusUnit(value string) (SurplusUnit, error) {
	for _, candidate := range validSurplusUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid surplus unit %q", value)
}
