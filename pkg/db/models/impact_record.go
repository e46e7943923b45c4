package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImpactRecord captures the estimated rescue impact of one successful claim.
// Rows are append-only; nothing in the platform updates or deletes them.
type ImpactRecord struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SurplusID      uuid.UUID       `gorm:"column:surplus_id;type:uuid;not null"`
	KitchenID      uuid.UUID       `gorm:"column:kitchen_id;type:uuid;not null"`
	KgRescued      decimal.Decimal `gorm:"column:kg_rescued;type:numeric(12,3);not null"`
	EstimatedMeals int64           `gorm:"column:estimated_meals;not null"`
	CO2SavedKg     decimal.Decimal `gorm:"column:co2_saved_kg;type:numeric(12,3);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
