package models

import (
	"time"

	"github.com/google/uuid"
)

// SurplusMatch is a scored pairing between one listing and one kitchen.
// The (surplus_id, kitchen_id) pair is unique; re-scoring upserts in place.
// DistanceKM carries the ordinal location proxy (0/5/25), not real kilometers.
type SurplusMatch struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SurplusID           uuid.UUID  `gorm:"column:surplus_id;type:uuid;not null;uniqueIndex:ux_surplus_matches_pair,priority:1"`
	KitchenID           uuid.UUID  `gorm:"column:kitchen_id;type:uuid;not null;uniqueIndex:ux_surplus_matches_pair,priority:2"`
	MatchScore          float64    `gorm:"column:match_score;not null"`
	NutritionalFitScore float64    `gorm:"column:nutritional_fit_score;not null"`
	CapacityFitScore    float64    `gorm:"column:capacity_fit_score;not null"`
	DistanceKM          float64    `gorm:"column:distance_km;not null"`
	Claimed             bool       `gorm:"column:claimed;not null;default:false"`
	ClaimedAt           *time.Time `gorm:"column:claimed_at"`
	PickupScheduledAt   *time.Time `gorm:"column:pickup_scheduled_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
