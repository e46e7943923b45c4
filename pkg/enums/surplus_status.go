package enums

import "fmt"

// SurplusStatus maps to the surplus_status enum in Postgres.
// Listings advance available -> claimed -> collected; expiry is a separate,
// time-based terminal state applied outside the claim workflow.
type SurplusStatus string

const (
	SurplusStatusAvailable SurplusStatus = "available"
	SurplusStatusClaimed   SurplusStatus = "claimed"
	SurplusStatusCollected SurplusStatus = "collected"
	SurplusStatusExpired   SurplusStatus = "expired"
)

var validSurplusStatuses = []SurplusStatus{
	SurplusStatusAvailable,
	SurplusStatusClaimed,
	SurplusStatusCollected,
	SurplusStatusExpired,
}

// IsValid checks whether the given status matches the canonical enum.
func (s SurplusStatus) IsValid() bool {
	for _, candidate := range validSurplusStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the monotonic claim workflow allows moving to next.
func (s SurplusStatus) CanTransitionTo(next SurplusStatus) bool {
	switch s {
	case SurplusStatusAvailable:
		return next == SurplusStatusClaimed || next == SurplusStatusExpired
	case SurplusStatusClaimed:
		return next == SurplusStatusCollected
	default:
		return false
	}
}

// ParseSurplusStatus converts raw strings into SurplusStatus.
func ParseSurplusStatus(value string) (SurplusStatus, error) {
	for _, candidate := range validSurplusStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid surplus status %q", value)
}
