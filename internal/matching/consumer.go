package matching

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

const consumerName = "matching"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// listingCreatedPayload is the slice of the listing_created event this
// consumer needs.
type listingCreatedPayload struct {
	ListingID uuid.UUID `json:"listing_id"`
	FarmerID  uuid.UUID `json:"farmer_id"`
}

// Consumer regenerates matches whenever a farmer publishes a new listing.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the matching consumer on the domain subscription.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, errors.New("matching service required")
	}
	if subscription == nil {
		return nil, errors.New("matching subscription required")
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

	if eventType != string(enums.EventListingCreated) {
		c.logg.Debug(logCtx, "event not handled by matching consumer")
		return nil
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		// Malformed envelopes never become parseable; do not redeliver.
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

	var payload listingCreatedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode listing payload", err)
		return nil
	}
	if payload.FarmerID == uuid.Nil {
		c.logg.Warn(logCtx, "listing event missing farmer id")
		return nil
	}

	summary, err := c.svc.GenerateMatches(logCtx, payload.FarmerID)
	if err != nil {
		c.logg.Error(logCtx, "match generation failed", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"listing_id":      payload.ListingID.String(),
		"matches_written": summary.MatchesWritten,
		"pair_failures":   summary.PairFailures,
	}), "matches regenerated for listing event")
	return nil
}
