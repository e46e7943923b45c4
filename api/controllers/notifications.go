package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/api/responses"
	"github.com/kaiub/surplus-backend/api/validators"
	"github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

type dispatchNotificationRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	KitchenID string `json:"kitchen_id" validate:"required,uuid"`
	EventType string `json:"event_type" validate:"required,oneof=surplus_claimed new_match"`
}

// DispatchNotification delivers a WhatsApp-style message for a listing event.
func DispatchNotification(svc notify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notify service unavailable"))
			return
		}

		var payload dispatchNotificationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}
		kitchenID, err := uuid.Parse(payload.KitchenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kitchen id"))
			return
		}

		result, err := svc.Notify(r.Context(), listingID, kitchenID, enums.NotificationEvent(payload.EventType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
