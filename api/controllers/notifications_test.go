package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
)

type testNotifyService struct {
	notifyFn func(ctx context.Context, listingID, kitchenID uuid.UUID, eventType enums.NotificationEvent) (*notify.Result, error)
}

func (s *testNotifyService) Notify(ctx context.Context, listingID, kitchenID uuid.UUID, eventType enums.NotificationEvent) (*notify.Result, error) {
	if s.notifyFn != nil {
		return s.notifyFn(ctx, listingID, kitchenID, eventType)
	}
	return &notify.Result{Status: notify.StatusSent}, nil
}

func TestDispatchNotificationSuccess(t *testing.T) {
	listingID := uuid.New()
	kitchenID := uuid.New()
	svc := &testNotifyService{
		notifyFn: func(_ context.Context, lid, kid uuid.UUID, eventType enums.NotificationEvent) (*notify.Result, error) {
			if lid != listingID || kid != kitchenID {
				t.Fatalf("unexpected pair %s/%s", lid, kid)
			}
			if eventType != enums.NotificationEventSurplusClaimed {
				t.Fatalf("unexpected event %s", eventType)
			}
			return &notify.Result{Status: notify.StatusSent, DeliveryID: "msg_1700000000000"}, nil
		},
	}

	payload := `{"listing_id":"` + listingID.String() + `","kitchen_id":"` + kitchenID.String() + `","event_type":"surplus_claimed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/dispatch", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	DispatchNotification(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data notify.Result `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.DeliveryID != "msg_1700000000000" {
		t.Fatalf("unexpected delivery id %s", envelope.Data.DeliveryID)
	}
}

func TestDispatchNotificationRejectsUnknownEvent(t *testing.T) {
	svc := &testNotifyService{
		notifyFn: func(context.Context, uuid.UUID, uuid.UUID, enums.NotificationEvent) (*notify.Result, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	payload := `{"listing_id":"` + uuid.NewString() + `","kitchen_id":"` + uuid.NewString() + `","event_type":"sms_blast"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/dispatch", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	DispatchNotification(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestDispatchNotificationMissingRows(t *testing.T) {
	svc := &testNotifyService{
		notifyFn: func(context.Context, uuid.UUID, uuid.UUID, enums.NotificationEvent) (*notify.Result, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		},
	}

	payload := `{"listing_id":"` + uuid.NewString() + `","kitchen_id":"` + uuid.NewString() + `","event_type":"new_match"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/dispatch", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	DispatchNotification(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
