package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kaiub/surplus-backend/pkg/enums"
)

// SurplusListing is a farmer's offer of surplus food available for redistribution.
type SurplusListing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FarmerID    uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null"`
	ProductName string              `gorm:"column:product_name;not null"`
	Quantity    decimal.Decimal     `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit        enums.SurplusUnit   `gorm:"column:unit;type:surplus_unit;not null;default:'kg'"`
	ExpiryDate  time.Time           `gorm:"column:expiry_date;type:date;not null"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Description *string             `gorm:"column:description"`
	Status      enums.SurplusStatus `gorm:"column:status;type:surplus_status;not null;default:'available'"`
	Location    string              `gorm:"column:location;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Farmer *Profile `gorm:"foreignKey:FarmerID"`
}

// IsDonation reports whether the listing is offered for free.
func (l SurplusListing) IsDonation() bool {
	return !l.Price.IsPositive()
}
