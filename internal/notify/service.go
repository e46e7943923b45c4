package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/metrics"
)

// Rough accounting constants: one kilogram of rescued food is counted as two
// meals and 2.5kg of avoided CO2.
var (
	mealsPerKg = decimal.NewFromInt(2)
	co2PerKg   = decimal.NewFromFloat(2.5)
)

// Status distinguishes a delivered notification from a deliberate skip.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
)

// Result reports the outcome of one dispatch. Skipped is not a failure.
type Result struct {
	Status     Status `json:"status"`
	DeliveryID string `json:"delivery_id,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// Service composes and dispatches outbound notifications.
type Service interface {
	Notify(ctx context.Context, listingID, kitchenID uuid.UUID, eventType enums.NotificationEvent) (*Result, error)
}

type service struct {
	repo      Repository
	messenger Messenger
	metrics   *metrics.NotifyMetrics
	logg      *logger.Logger
}

// NewService wires the notification dispatcher.
func NewService(repo Repository, messenger Messenger, m *metrics.NotifyMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify repository required")
	}
	if messenger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messenger required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:      repo,
		messenger: messenger,
		metrics:   m,
		logg:      logg,
	}, nil
}

// Notify loads the pair, composes the message for the event's recipient and
// attempts delivery unless the recipient opted out or has no phone on file.
// For surplus_claimed an impact record is written regardless of the delivery
// outcome; an impact write failure is logged, never returned.
func (s *service) Notify(ctx context.Context, listingID, kitchenID uuid.UUID, eventType enums.NotificationEvent) (*Result, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if kitchenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kitchen id required")
	}
	if !eventType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification event")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"listing_id": listingID.String(),
		"kitchen_id": kitchenID.String(),
		"event_type": eventType,
	})

	listing, err := s.repo.FindListingWithFarmer(logCtx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.Farmer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer profile not found")
	}

	kitchen, err := s.repo.FindKitchen(logCtx, kitchenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kitchen profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchen")
	}

	var message string
	var recipient *models.Profile
	switch eventType {
	case enums.NotificationEventSurplusClaimed:
		message = claimedMessage(*listing, *kitchen)
		recipient = listing.Farmer
	case enums.NotificationEventNewMatch:
		message = newMatchMessage(*listing)
		recipient = kitchen
	}

	phone := ""
	if recipient.PhoneNumber != nil {
		phone = *recipient.PhoneNumber
	}

	result := &Result{Status: StatusSent}
	var sendErr error
	if !recipient.WhatsappOptedIn || phone == "" {
		result.Status = StatusSkipped
		result.SkipReason = "recipient not opted in or no phone number"
		s.logg.Info(logCtx, "notification skipped")
	} else {
		result.DeliveryID, sendErr = s.messenger.Send(logCtx, phone, message)
	}

	// Impact accounting is tied to the claim event itself, not to whether the
	// farmer could be reached.
	if eventType == enums.NotificationEventSurplusClaimed {
		s.recordImpact(logCtx, listing, kitchenID)
	}

	if sendErr != nil {
		if s.metrics != nil {
			s.metrics.IncFailed(string(eventType))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, sendErr, "send notification")
	}

	if s.metrics != nil {
		switch result.Status {
		case StatusSent:
			s.metrics.IncSent(string(eventType))
		case StatusSkipped:
			s.metrics.IncSkipped(string(eventType))
		}
	}
	return result, nil
}

func (s *service) recordImpact(ctx context.Context, listing *models.SurplusListing, kitchenID uuid.UUID) {
	record := &models.ImpactRecord{
		SurplusID:      listing.ID,
		KitchenID:      kitchenID,
		KgRescued:      listing.Quantity,
		EstimatedMeals: listing.Quantity.Mul(mealsPerKg).Floor().IntPart(),
		CO2SavedKg:     listing.Quantity.Mul(co2PerKg),
	}
	if err := s.repo.InsertImpactRecord(ctx, record); err != nil {
		s.logg.Error(ctx, "failed to create impact record", err)
	}
}
