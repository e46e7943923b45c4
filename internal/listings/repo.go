package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	"github.com/kaiub/surplus-backend/pkg/pagination"
)

// Repository exposes persistence helpers for surplus listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.SurplusListing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SurplusListing, error)
	FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SurplusStatus) error
	MarkMatchClaimed(ctx context.Context, surplusID, kitchenID uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, params listListingsParams) ([]models.SurplusListing, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a listings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listListingsParams struct {
	FarmerID *uuid.UUID
	Status   *enums.SurplusStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, listing *models.SurplusListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.SurplusListing, error) {
	var listing models.SurplusListing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repositoryImpl) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SurplusStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.SurplusListing{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// MarkMatchClaimed flags the match row for the pair, when one exists. Claims
// without a prior match are legitimate (a kitchen can claim straight off the
// dashboard), so a missing row is not an error.
func (r *repositoryImpl) MarkMatchClaimed(ctx context.Context, surplusID, kitchenID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SurplusMatch{}).
		Where("surplus_id = ? AND kitchen_id = ? AND claimed = ?", surplusID, kitchenID, false).
		Updates(map[string]any{
			"claimed":    true,
			"claimed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listListingsParams) ([]models.SurplusListing, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.SurplusListing{})
	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var listings []models.SurplusListing
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&listings).Error; err != nil {
		return nil, nil, err
	}

	if len(listings) > normalized {
		listings = listings[:normalized]
		last := listings[len(listings)-1]
		return listings, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return listings, nil, nil
}
