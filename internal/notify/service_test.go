package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

type stubNotifyRepo struct {
	listing   *models.SurplusListing
	kitchen   *models.Profile
	impacts   []*models.ImpactRecord
	impactErr error
}

func (s *stubNotifyRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubNotifyRepo) FindListingWithFarmer(ctx context.Context, id uuid.UUID) (*models.SurplusListing, error) {
	if s.listing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.listing, nil
}

func (s *stubNotifyRepo) FindKitchen(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.kitchen == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.kitchen, nil
}

func (s *stubNotifyRepo) InsertImpactRecord(ctx context.Context, record *models.ImpactRecord) error {
	if s.impactErr != nil {
		return s.impactErr
	}
	s.impacts = append(s.impacts, record)
	return nil
}

type recordingMessenger struct {
	phones   []string
	messages []string
	err      error
}

func (m *recordingMessenger) Send(ctx context.Context, phone, message string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.phones = append(m.phones, phone)
	m.messages = append(m.messages, message)
	return "msg_1700000000000", nil
}

func strPtr(s string) *string {
	return &s
}

func optedInFarmer() *models.Profile {
	return &models.Profile{
		ID:              uuid.New(),
		UserType:        enums.UserTypeFarmer,
		FullName:        "Maria the Farmer",
		PhoneNumber:     strPtr("+264811111111"),
		Location:        "Okahandja",
		WhatsappOptedIn: true,
	}
}

func optedInKitchen() *models.Profile {
	return &models.Profile{
		ID:              uuid.New(),
		UserType:        enums.UserTypeKitchen,
		FullName:        "Kitchen Owner",
		PhoneNumber:     strPtr("+264822222222"),
		Location:        "Katutura",
		WhatsappOptedIn: true,
		KitchenDetail: &models.KitchenDetail{
			KitchenName:    "Hope Kitchen",
			CapacityPeople: 80,
		},
	}
}

func claimableListing(farmer *models.Profile, quantity int64) *models.SurplusListing {
	return &models.SurplusListing{
		ID:          uuid.New(),
		FarmerID:    farmer.ID,
		ProductName: "Mixed Vegetables",
		Quantity:    decimal.NewFromInt(quantity),
		Unit:        enums.SurplusUnitKg,
		ExpiryDate:  time.Now().Add(48 * time.Hour),
		Price:       decimal.Zero,
		Status:      enums.SurplusStatusClaimed,
		Location:    "Okahandja",
		Farmer:      farmer,
	}
}

func newNotifyService(t *testing.T, repo Repository, messenger Messenger) Service {
	t.Helper()
	svc, err := NewService(repo, messenger, nil, logger.New(logger.Options{ServiceName: "notify-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNotifyClaimedSendsToFarmerAndRecordsImpact(t *testing.T) {
	farmer := optedInFarmer()
	kitchen := optedInKitchen()
	repo := &stubNotifyRepo{listing: claimableListing(farmer, 20), kitchen: kitchen}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	result, err := svc.Notify(context.Background(), repo.listing.ID, kitchen.ID, enums.NotificationEventSurplusClaimed)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if result.Status != StatusSent {
		t.Fatalf("status = %s", result.Status)
	}
	if result.DeliveryID != "msg_1700000000000" {
		t.Fatalf("delivery id = %q", result.DeliveryID)
	}
	if len(messenger.phones) != 1 || messenger.phones[0] != "+264811111111" {
		t.Fatalf("claimed event must message the farmer, got %v", messenger.phones)
	}
	for _, fragment := range []string{"Mixed Vegetables", "Hope Kitchen", "+264822222222", "Katutura"} {
		if !strings.Contains(messenger.messages[0], fragment) {
			t.Fatalf("message missing %q:\n%s", fragment, messenger.messages[0])
		}
	}

	if len(repo.impacts) != 1 {
		t.Fatalf("expected one impact record, got %d", len(repo.impacts))
	}
	impact := repo.impacts[0]
	if impact.EstimatedMeals != 40 {
		t.Fatalf("estimated meals = %d, want 40 for 20kg", impact.EstimatedMeals)
	}
	if !impact.CO2SavedKg.Equal(decimal.NewFromFloat(50.0)) {
		t.Fatalf("co2 saved = %s, want 50", impact.CO2SavedKg)
	}
	if !impact.KgRescued.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("kg rescued = %s", impact.KgRescued)
	}
	if impact.SurplusID != repo.listing.ID || impact.KitchenID != kitchen.ID {
		t.Fatal("impact record keyed on the wrong pair")
	}
}

func TestNotifySkippedOnOptOutStillRecordsImpact(t *testing.T) {
	farmer := optedInFarmer()
	farmer.WhatsappOptedIn = false
	kitchen := optedInKitchen()
	repo := &stubNotifyRepo{listing: claimableListing(farmer, 12), kitchen: kitchen}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	result, err := svc.Notify(context.Background(), repo.listing.ID, kitchen.ID, enums.NotificationEventSurplusClaimed)
	if err != nil {
		t.Fatalf("a skip is not an error: %v", err)
	}
	if result.Status != StatusSkipped {
		t.Fatalf("status = %s", result.Status)
	}
	if len(messenger.phones) != 0 {
		t.Fatal("no delivery attempt expected when skipped")
	}
	if len(repo.impacts) != 1 {
		t.Fatalf("claimed event records impact even when skipped, got %d", len(repo.impacts))
	}
	if repo.impacts[0].EstimatedMeals != 24 {
		t.Fatalf("estimated meals = %d", repo.impacts[0].EstimatedMeals)
	}
}

func TestNotifySkippedOnMissingPhone(t *testing.T) {
	farmer := optedInFarmer()
	farmer.PhoneNumber = nil
	kitchen := optedInKitchen()
	repo := &stubNotifyRepo{listing: claimableListing(farmer, 5), kitchen: kitchen}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	result, err := svc.Notify(context.Background(), repo.listing.ID, kitchen.ID, enums.NotificationEventSurplusClaimed)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if result.Status != StatusSkipped || len(messenger.phones) != 0 {
		t.Fatalf("expected skip without delivery attempt, got %s", result.Status)
	}
}

func TestNotifyImpactFailureDoesNotFailCall(t *testing.T) {
	farmer := optedInFarmer()
	kitchen := optedInKitchen()
	repo := &stubNotifyRepo{
		listing:   claimableListing(farmer, 20),
		kitchen:   kitchen,
		impactErr: errors.New("insert failed"),
	}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	result, err := svc.Notify(context.Background(), repo.listing.ID, kitchen.ID, enums.NotificationEventSurplusClaimed)
	if err != nil {
		t.Fatalf("impact failure must not fail the notification: %v", err)
	}
	if result.Status != StatusSent {
		t.Fatalf("status = %s", result.Status)
	}
}

func TestNotifyNewMatchMessagesKitchenWithoutImpact(t *testing.T) {
	farmer := optedInFarmer()
	kitchen := optedInKitchen()
	listing := claimableListing(farmer, 20)
	listing.Status = enums.SurplusStatusAvailable
	repo := &stubNotifyRepo{listing: listing, kitchen: kitchen}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	result, err := svc.Notify(context.Background(), listing.ID, kitchen.ID, enums.NotificationEventNewMatch)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if result.Status != StatusSent {
		t.Fatalf("status = %s", result.Status)
	}
	if len(messenger.phones) != 1 || messenger.phones[0] != "+264822222222" {
		t.Fatalf("new_match must message the kitchen, got %v", messenger.phones)
	}
	if !strings.Contains(messenger.messages[0], "FREE donation") {
		t.Fatalf("donation listing should be framed as free:\n%s", messenger.messages[0])
	}
	if len(repo.impacts) != 0 {
		t.Fatal("new_match must not record impact")
	}
}

func TestNotifyNewMatchShowsPriceWhenNotDonation(t *testing.T) {
	farmer := optedInFarmer()
	kitchen := optedInKitchen()
	listing := claimableListing(farmer, 20)
	listing.Price = decimal.NewFromInt(150)
	repo := &stubNotifyRepo{listing: listing, kitchen: kitchen}
	messenger := &recordingMessenger{}

	svc := newNotifyService(t, repo, messenger)
	if _, err := svc.Notify(context.Background(), listing.ID, kitchen.ID, enums.NotificationEventNewMatch); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(messenger.messages[0], "Price: R150") {
		t.Fatalf("expected price framing:\n%s", messenger.messages[0])
	}
}

func TestNotifyValidation(t *testing.T) {
	svc := newNotifyService(t, &stubNotifyRepo{}, &recordingMessenger{})

	cases := []struct {
		name      string
		listingID uuid.UUID
		kitchenID uuid.UUID
		event     enums.NotificationEvent
	}{
		{"missing listing id", uuid.Nil, uuid.New(), enums.NotificationEventSurplusClaimed},
		{"missing kitchen id", uuid.New(), uuid.Nil, enums.NotificationEventSurplusClaimed},
		{"invalid event", uuid.New(), uuid.New(), enums.NotificationEvent("sms_blast")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Notify(context.Background(), tc.listingID, tc.kitchenID, tc.event)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNotifyMissingRowsAreNotFound(t *testing.T) {
	svc := newNotifyService(t, &stubNotifyRepo{}, &recordingMessenger{})
	_, err := svc.Notify(context.Background(), uuid.New(), uuid.New(), enums.NotificationEventSurplusClaimed)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing listing, got %v", err)
	}

	farmer := optedInFarmer()
	repo := &stubNotifyRepo{listing: claimableListing(farmer, 5)}
	svc = newNotifyService(t, repo, &recordingMessenger{})
	_, err = svc.Notify(context.Background(), repo.listing.ID, uuid.New(), enums.NotificationEventSurplusClaimed)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing kitchen, got %v", err)
	}
}
