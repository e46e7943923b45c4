package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kaiub/surplus-backend/api/responses"
	"github.com/kaiub/surplus-backend/api/validators"
	"github.com/kaiub/surplus-backend/internal/listings"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

type createListingRequest struct {
	FarmerID    string          `json:"farmer_id" validate:"required,uuid"`
	ProductName string          `json:"product_name" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	Unit        string          `json:"unit" validate:"required"`
	ExpiryDate  time.Time       `json:"expiry_date" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description,omitempty"`
	Location    string          `json:"location" validate:"required"`
}

func (p createListingRequest) toInput() (listings.CreateInput, error) {
	farmerID, err := uuid.Parse(p.FarmerID)
	if err != nil {
		return listings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid farmer id")
	}
	return listings.CreateInput{
		FarmerID:    farmerID,
		ProductName: p.ProductName,
		Quantity:    p.Quantity,
		Unit:        enums.SurplusUnit(p.Unit),
		ExpiryDate:  p.ExpiryDate,
		Price:       p.Price,
		Description: p.Description,
		Location:    p.Location,
	}, nil
}

// CreateListing handles a farmer publishing a new surplus offer.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

type claimListingRequest struct {
	KitchenID string `json:"kitchen_id" validate:"required,uuid"`
}

// ClaimListing handles a kitchen claiming an available listing.
func ClaimListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		var payload claimListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kitchenID, err := uuid.Parse(payload.KitchenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kitchen id"))
			return
		}

		listing, err := svc.Claim(r.Context(), listingID, kitchenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListListings returns paginated listings with optional farmer and status filters.
func ListListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		params := listings.ListParams{}

		if raw := strings.TrimSpace(r.URL.Query().Get("farmer_id")); raw != "" {
			farmerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid farmer id"))
				return
			}
			params.FarmerID = &farmerID
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.SurplusStatus(raw)
			params.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
