package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	"github.com/kaiub/surplus-backend/pkg/pagination"
)

// Repository exposes the persistence the match generator needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAvailableByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.SurplusListing, error)
	ListKitchens(ctx context.Context) ([]models.Profile, error)
	UpsertMatch(ctx context.Context, match *models.SurplusMatch) error
	ListByKitchen(ctx context.Context, params listMatchesParams) ([]models.SurplusMatch, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a matching repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listMatchesParams struct {
	KitchenID uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
	Claimed   *bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListAvailableByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.SurplusListing, error) {
	var listings []models.SurplusListing
	err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND status = ?", farmerID, enums.SurplusStatusAvailable).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repositoryImpl) ListKitchens(ctx context.Context) ([]models.Profile, error) {
	var kitchens []models.Profile
	err := r.db.WithContext(ctx).
		Preload("KitchenDetail").
		Where("user_type = ?", enums.UserTypeKitchen).
		Find(&kitchens).Error
	if err != nil {
		return nil, err
	}
	return kitchens, nil
}

// UpsertMatch writes a scored pair keyed on (surplus_id, kitchen_id). On
// conflict only the score columns are refreshed; claimed and claimed_at belong
// to the claim workflow and are never touched here.
func (r *repositoryImpl) UpsertMatch(ctx context.Context, match *models.SurplusMatch) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "surplus_id"}, {Name: "kitchen_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"match_score":           match.MatchScore,
				"nutritional_fit_score": match.NutritionalFitScore,
				"capacity_fit_score":    match.CapacityFitScore,
				"distance_km":           match.DistanceKM,
				"updated_at":            time.Now(),
			}),
		}).
		Create(match).Error
}

func (r *repositoryImpl) ListByKitchen(ctx context.Context, params listMatchesParams) ([]models.SurplusMatch, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.SurplusMatch{}).Where("kitchen_id = ?", params.KitchenID)
	if params.Claimed != nil {
		query = query.Where("claimed = ?", *params.Claimed)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var matches []models.SurplusMatch
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	if len(matches) > normalized {
		matches = matches[:normalized]
		last := matches[len(matches)-1]
		return matches, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return matches, nil, nil
}
