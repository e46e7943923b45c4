package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaiub/surplus-backend/pkg/logger"
)

// Messenger sends a text message to a phone number and returns a delivery id.
// Real WhatsApp Business delivery plugs in behind this interface.
type Messenger interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

// logMessenger logs the composed message instead of delivering it and
// fabricates a delivery id, mirroring a dry-run WhatsApp integration.
type logMessenger struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewLogMessenger builds the simulated delivery channel.
func NewLogMessenger(logg *logger.Logger) (Messenger, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &logMessenger{logg: logg, now: time.Now}, nil
}

func (m *logMessenger) Send(ctx context.Context, phone, message string) (string, error) {
	deliveryID := fmt.Sprintf("msg_%d", m.now().UnixMilli())
	logCtx := m.logg.WithFields(ctx, map[string]any{
		"to":          phone,
		"delivery_id": deliveryID,
		"message":     message,
	})
	m.logg.Info(logCtx, "whatsapp message to send")
	return deliveryID, nil
}
