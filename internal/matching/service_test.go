package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/pagination"
)

type stubMatchingRepo struct {
	listings      []models.SurplusListing
	kitchens      []models.Profile
	listingsErr   error
	kitchensErr   error
	upserts       []*models.SurplusMatch
	upsertErr     func(match *models.SurplusMatch) error
	listByKitchen func(params listMatchesParams) ([]models.SurplusMatch, *pagination.Cursor, error)
}

func (s *stubMatchingRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubMatchingRepo) ListAvailableByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.SurplusListing, error) {
	if s.listingsErr != nil {
		return nil, s.listingsErr
	}
	return s.listings, nil
}

func (s *stubMatchingRepo) ListKitchens(ctx context.Context) ([]models.Profile, error) {
	if s.kitchensErr != nil {
		return nil, s.kitchensErr
	}
	return s.kitchens, nil
}

func (s *stubMatchingRepo) UpsertMatch(ctx context.Context, match *models.SurplusMatch) error {
	if s.upsertErr != nil {
		if err := s.upsertErr(match); err != nil {
			return err
		}
	}
	s.upserts = append(s.upserts, match)
	return nil
}

func (s *stubMatchingRepo) ListByKitchen(ctx context.Context, params listMatchesParams) ([]models.SurplusMatch, *pagination.Cursor, error) {
	if s.listByKitchen != nil {
		return s.listByKitchen(params)
	}
	return nil, nil, nil
}

func newTestService(t *testing.T, repo Repository, scorer Scorer) Service {
	t.Helper()
	svc, err := NewService(repo, scorer, nil, logger.New(logger.Options{ServiceName: "matching-test"}), "test")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func availableListing(location string) models.SurplusListing {
	return models.SurplusListing{
		ID:          uuid.New(),
		FarmerID:    uuid.New(),
		ProductName: "Mixed Vegetables",
		Quantity:    decimal.NewFromInt(20),
		Unit:        enums.SurplusUnitKg,
		ExpiryDate:  time.Now().Add(24 * time.Hour),
		Status:      enums.SurplusStatusAvailable,
		Location:    location,
	}
}

func kitchenProfile(capacity int, location string) models.Profile {
	return models.Profile{
		ID:       uuid.New(),
		UserType: enums.UserTypeKitchen,
		FullName: "Kitchen Owner",
		Location: location,
		KitchenDetail: &models.KitchenDetail{
			KitchenName:    "Hope Kitchen",
			CapacityPeople: capacity,
		},
	}
}

func TestGenerateMatchesRequiresFarmerID(t *testing.T) {
	svc := newTestService(t, &stubMatchingRepo{}, &fixedScorer{})

	_, err := svc.GenerateMatches(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateMatchesThresholdIsStrict(t *testing.T) {
	repo := &stubMatchingRepo{
		listings: []models.SurplusListing{availableListing("Soweto")},
		kitchens: []models.Profile{kitchenProfile(50, "Soweto")},
	}

	svc := newTestService(t, repo, &fixedScorer{score: 0.3})
	summary, err := svc.GenerateMatches(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GenerateMatches: %v", err)
	}
	if summary.MatchesWritten != 0 || len(repo.upserts) != 0 {
		t.Fatalf("score of exactly 0.3 must not persist a match, wrote %d", len(repo.upserts))
	}
	if summary.PairsScored != 1 {
		t.Fatalf("expected 1 pair scored, got %d", summary.PairsScored)
	}

	svc = newTestService(t, repo, &fixedScorer{score: 0.31})
	summary, err = svc.GenerateMatches(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GenerateMatches: %v", err)
	}
	if summary.MatchesWritten != 1 || len(repo.upserts) != 1 {
		t.Fatalf("score above 0.3 must persist a match, wrote %d", len(repo.upserts))
	}
}

func TestGenerateMatchesPopulatesScoreFields(t *testing.T) {
	listing := availableListing("Soweto")
	kitchen := kitchenProfile(50, "Katutura")
	repo := &stubMatchingRepo{
		listings: []models.SurplusListing{listing},
		kitchens: []models.Profile{kitchen},
	}

	svc := newTestService(t, repo, &fixedScorer{score: 0.9})
	if _, err := svc.GenerateMatches(context.Background(), listing.FarmerID); err != nil {
		t.Fatalf("GenerateMatches: %v", err)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserts))
	}

	match := repo.upserts[0]
	if match.SurplusID != listing.ID || match.KitchenID != kitchen.ID {
		t.Fatal("match keyed on the wrong pair")
	}
	if match.MatchScore != 0.9 {
		t.Fatalf("match score = %v", match.MatchScore)
	}
	if match.NutritionalFitScore != 0.8 {
		t.Fatalf("nutritional fit = %v, want 0.8 for vegetables", match.NutritionalFitScore)
	}
	// 20 lies inside the [5, 25] window for capacity 50.
	if match.CapacityFitScore != 1.0 {
		t.Fatalf("capacity fit = %v", match.CapacityFitScore)
	}
	if match.DistanceKM != 25 {
		t.Fatalf("distance = %v, want 25 for unrelated locations", match.DistanceKM)
	}
	if match.Claimed || match.ClaimedAt != nil {
		t.Fatal("generator must not touch claim fields")
	}
}

func TestGenerateMatchesContinuesAfterPairFailure(t *testing.T) {
	kitchens := []models.Profile{
		kitchenProfile(50, "Soweto"),
		kitchenProfile(80, "Katutura"),
		kitchenProfile(120, "Windhoek"),
	}
	failing := kitchens[0].ID
	repo := &stubMatchingRepo{
		listings: []models.SurplusListing{availableListing("Soweto")},
		kitchens: kitchens,
	}
	repo.upsertErr = func(match *models.SurplusMatch) error {
		if match.KitchenID == failing {
			return errors.New("unique constraint race")
		}
		return nil
	}

	svc := newTestService(t, repo, &fixedScorer{score: 0.8})
	summary, err := svc.GenerateMatches(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("a pair failure must not fail the batch: %v", err)
	}
	if summary.PairsScored != 3 {
		t.Fatalf("pairs scored = %d", summary.PairsScored)
	}
	if summary.PairFailures != 1 {
		t.Fatalf("pair failures = %d", summary.PairFailures)
	}
	if summary.MatchesWritten != 2 {
		t.Fatalf("matches written = %d", summary.MatchesWritten)
	}
}

func TestGenerateMatchesReadFailuresAreFatal(t *testing.T) {
	repo := &stubMatchingRepo{listingsErr: errors.New("connection refused")}
	svc := newTestService(t, repo, &fixedScorer{score: 0.8})

	_, err := svc.GenerateMatches(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for listings read, got %v", err)
	}

	repo = &stubMatchingRepo{
		listings:    []models.SurplusListing{availableListing("Soweto")},
		kitchensErr: errors.New("connection refused"),
	}
	svc = newTestService(t, repo, &fixedScorer{score: 0.8})

	_, err = svc.GenerateMatches(context.Background(), uuid.New())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for kitchens read, got %v", err)
	}
}

func TestListKitchenMatches(t *testing.T) {
	kitchenID := uuid.New()
	next := pagination.Cursor{CreatedAt: time.Now(), ID: uuid.New()}
	repo := &stubMatchingRepo{
		listByKitchen: func(params listMatchesParams) ([]models.SurplusMatch, *pagination.Cursor, error) {
			if params.KitchenID != kitchenID {
				t.Fatalf("unexpected kitchen id %s", params.KitchenID)
			}
			return []models.SurplusMatch{{ID: uuid.New(), KitchenID: kitchenID}}, &next, nil
		},
	}

	svc := newTestService(t, repo, &fixedScorer{})
	list, err := svc.ListKitchenMatches(context.Background(), ListMatchesParams{KitchenID: kitchenID})
	if err != nil {
		t.Fatalf("ListKitchenMatches: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected one match, got %d", len(list.Items))
	}
	if list.Cursor == "" {
		t.Fatal("expected a next-page cursor")
	}

	if _, err := svc.ListKitchenMatches(context.Background(), ListMatchesParams{}); pkgerrors.As(err) == nil {
		t.Fatal("expected validation error without kitchen id")
	}

	_, err = svc.ListKitchenMatches(context.Background(), ListMatchesParams{KitchenID: kitchenID, Cursor: "not-base64!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}
