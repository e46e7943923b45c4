package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/api/responses"
	"github.com/kaiub/surplus-backend/api/validators"
	"github.com/kaiub/surplus-backend/internal/matching"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

type generateMatchesRequest struct {
	FarmerID string `json:"farmer_id" validate:"required,uuid"`
}

// GenerateMatches scores every available listing of a farmer against every
// kitchen and returns the run summary.
func GenerateMatches(svc matching.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matching service unavailable"))
			return
		}

		var payload generateMatchesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmerID, err := uuid.Parse(payload.FarmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid farmer id"))
			return
		}

		summary, err := svc.GenerateMatches(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ListMatches returns paginated matches for a kitchen, newest first.
func ListMatches(svc matching.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matching service unavailable"))
			return
		}

		kitchenID, err := validators.ParseQueryUUID(r, "kitchen_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claimed, err := validators.ParseQueryBool(r, "claimed")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListKitchenMatches(r.Context(), matching.ListMatchesParams{
			KitchenID: kitchenID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
			Claimed:   claimed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
