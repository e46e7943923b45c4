package notify

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
)

// Repository exposes the reads and the impact write the dispatcher needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindListingWithFarmer(ctx context.Context, id uuid.UUID) (*models.SurplusListing, error)
	FindKitchen(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	InsertImpactRecord(ctx context.Context, record *models.ImpactRecord) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notify repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindListingWithFarmer(ctx context.Context, id uuid.UUID) (*models.SurplusListing, error) {
	var listing models.SurplusListing
	err := r.db.WithContext(ctx).
		Preload("Farmer").
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repositoryImpl) FindKitchen(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var kitchen models.Profile
	err := r.db.WithContext(ctx).
		Preload("KitchenDetail").
		Where("id = ?", id).
		First(&kitchen).Error
	if err != nil {
		return nil, err
	}
	return &kitchen, nil
}

func (r *repositoryImpl) InsertImpactRecord(ctx context.Context, record *models.ImpactRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
