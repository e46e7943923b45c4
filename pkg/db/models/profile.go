package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/pkg/enums"
)

// Profile is the shared account profile for farmers and kitchens.
type Profile struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserType        enums.UserType `gorm:"column:user_type;type:user_type;not null"`
	FullName        string         `gorm:"column:full_name;not null"`
	PhoneNumber     *string        `gorm:"column:phone_number"`
	Location        string         `gorm:"column:location;not null"`
	WhatsappOptedIn bool           `gorm:"column:whatsapp_opted_in;not null;default:false"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	KitchenDetail *KitchenDetail `gorm:"foreignKey:ProfileID"`
}
