package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/outbox"
	"github.com/kaiub/surplus-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the listing lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SurplusListing, error)
	Claim(ctx context.Context, listingID, kitchenID uuid.UUID) (*models.SurplusListing, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// CreateInput captures a farmer's new surplus offer.
type CreateInput struct {
	FarmerID    uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	Unit        enums.SurplusUnit
	ExpiryDate  time.Time
	Price       decimal.Decimal
	Description *string
	Location    string
}

// ListParams configures listing pagination and filters.
type ListParams struct {
	FarmerID *uuid.UUID
	Status   *enums.SurplusStatus
	Limit    int
	Cursor   string
}

// ListResult wraps returned listings and the cursor for the next page.
type ListResult struct {
	Items  []models.SurplusListing `json:"items"`
	Cursor string                  `json:"cursor"`
}

// ListingCreatedEvent is emitted when a farmer publishes a listing.
type ListingCreatedEvent struct {
	ListingID   uuid.UUID `json:"listing_id"`
	FarmerID    uuid.UUID `json:"farmer_id"`
	ProductName string    `json:"product_name"`
	Location    string    `json:"location"`
}

// ListingClaimedEvent is emitted when a kitchen claims a listing.
type ListingClaimedEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	FarmerID  uuid.UUID `json:"farmer_id"`
	KitchenID uuid.UUID `json:"kitchen_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// NewService wires the listings lifecycle dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "listings repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SurplusListing, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	farmer, err := s.repo.FindProfile(ctx, input.FarmerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer profile")
	}
	if farmer.UserType != enums.UserTypeFarmer {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile is not a farmer")
	}

	listing := &models.SurplusListing{
		ID:          uuid.New(),
		FarmerID:    input.FarmerID,
		ProductName: input.ProductName,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		ExpiryDate:  input.ExpiryDate,
		Price:       input.Price,
		Description: input.Description,
		Status:      enums.SurplusStatusAvailable,
		Location:    input.Location,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventListingCreated,
			AggregateType: enums.AggregateSurplusListing,
			AggregateID:   listing.ID,
			Version:       1,
			Data: ListingCreatedEvent{
				ListingID:   listing.ID,
				FarmerID:    listing.FarmerID,
				ProductName: listing.ProductName,
				Location:    listing.Location,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithListingID(s.logg.WithFarmerID(ctx, listing.FarmerID.String()), listing.ID.String())
	s.logg.Info(logCtx, "surplus listing created")
	return listing, nil
}

// Claim moves an available listing to claimed, flags the match row for the
// pair when one exists and queues the farmer notification event, all in one
// transaction.
func (s *service) Claim(ctx context.Context, listingID, kitchenID uuid.UUID) (*models.SurplusListing, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if kitchenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kitchen id required")
	}

	kitchen, err := s.repo.FindProfile(ctx, kitchenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kitchen profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchen profile")
	}
	if kitchen.UserType != enums.UserTypeKitchen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile is not a kitchen")
	}

	var claimed *models.SurplusListing
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByID(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if !listing.Status.CanTransitionTo(enums.SurplusStatusClaimed) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not available to claim")
		}

		claimedAt := s.now()
		if err := repo.UpdateStatus(ctx, listing.ID, enums.SurplusStatusClaimed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
		}
		if _, err := repo.MarkMatchClaimed(ctx, listing.ID, kitchenID, claimedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark match claimed")
		}

		listing.Status = enums.SurplusStatusClaimed
		claimed = listing

		event := outbox.DomainEvent{
			EventType:     enums.EventListingClaimed,
			AggregateType: enums.AggregateSurplusListing,
			AggregateID:   listing.ID,
			Version:       1,
			Data: ListingClaimedEvent{
				ListingID: listing.ID,
				FarmerID:  listing.FarmerID,
				KitchenID: kitchenID,
				ClaimedAt: claimedAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithKitchenID(s.logg.WithListingID(ctx, listingID.String()), kitchenID.String())
	s.logg.Info(logCtx, "surplus listing claimed")
	return claimed, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listListingsParams{
		FarmerID: params.FarmerID,
		Status:   params.Status,
		Limit:    params.Limit,
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing status")
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func validateCreateInput(input CreateInput) error {
	if input.FarmerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}
	if input.ProductName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !input.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if input.ExpiryDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry date required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Location == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}
	return nil
}
