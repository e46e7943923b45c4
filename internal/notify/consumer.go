package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/pkg/enums"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/outbox"
)

const consumerName = "notify"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// listingClaimedPayload is the slice of the listing_claimed event this
// consumer needs.
type listingClaimedPayload struct {
	ListingID uuid.UUID `json:"listing_id"`
	KitchenID uuid.UUID `json:"kitchen_id"`
}

// Consumer dispatches farmer notifications when kitchens claim listings.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the notify consumer on the domain subscription.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, errors.New("notify service required")
	}
	if subscription == nil {
		return nil, errors.New("notify subscription required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		manager:      manager,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := c.handle(ctx, msg.Attributes["event_type"], msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) handle(ctx context.Context, eventType string, data []byte) error {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	if eventType != string(enums.EventListingClaimed) {
		c.logg.Debug(logCtx, "event not handled by notify consumer")
		return nil
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var payload listingClaimedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode claim payload", err)
		return nil
	}
	if payload.ListingID == uuid.Nil || payload.KitchenID == uuid.Nil {
		c.logg.Warn(logCtx, "claim event missing listing or kitchen id")
		return nil
	}

	result, err := c.svc.Notify(logCtx, payload.ListingID, payload.KitchenID, enums.NotificationEventSurplusClaimed)
	if err != nil {
		c.logg.Error(logCtx, "claim notification failed", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"status":      result.Status,
		"delivery_id": result.DeliveryID,
	}), "claim notification dispatched")
	return nil
}
