package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// KitchenDetail stores kitchen-specific attributes joined onto the profile.
type KitchenDetail struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID           uuid.UUID      `gorm:"column:profile_id;type:uuid;not null;uniqueIndex"`
	KitchenName         string         `gorm:"column:kitchen_name;not null"`
	CapacityPeople      int            `gorm:"column:capacity_people;not null;default:50"`
	StorageCapacity     *string        `gorm:"column:storage_capacity"`
	OperatingHours      *string        `gorm:"column:operating_hours"`
	DietaryRestrictions pq.StringArray `gorm:"column:dietary_restrictions;type:text[]"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
