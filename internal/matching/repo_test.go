package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
)

func setupMatchingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:matching_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	profiles := `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  user_type TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone_number TEXT,
  location TEXT NOT NULL,
  whatsapp_opted_in INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	kitchenDetails := `
CREATE TABLE IF NOT EXISTS kitchen_details (
  id TEXT PRIMARY KEY,
  profile_id TEXT NOT NULL UNIQUE,
  kitchen_name TEXT NOT NULL,
  capacity_people INTEGER NOT NULL DEFAULT 50,
  storage_capacity TEXT,
  operating_hours TEXT,
  dietary_restrictions TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	surplusListings := `
CREATE TABLE IF NOT EXISTS surplus_listings (
  id TEXT PRIMARY KEY,
  farmer_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  unit TEXT NOT NULL,
  expiry_date DATETIME NOT NULL,
  price NUMERIC NOT NULL DEFAULT 0,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'available',
  location TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	surplusMatches := `
CREATE TABLE IF NOT EXISTS surplus_matches (
  id TEXT PRIMARY KEY,
  surplus_id TEXT NOT NULL,
  kitchen_id TEXT NOT NULL,
  match_score REAL NOT NULL,
  nutritional_fit_score REAL NOT NULL,
  capacity_fit_score REAL NOT NULL,
  distance_km REAL NOT NULL,
  claimed INTEGER NOT NULL DEFAULT 0,
  claimed_at DATETIME,
  pickup_scheduled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (surplus_id, kitchen_id)
);`

	for _, ddl := range []string{profiles, kitchenDetails, surplusListings, surplusMatches} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedListing(t *testing.T, db *gorm.DB, farmerID uuid.UUID, status enums.SurplusStatus, createdAt time.Time) models.SurplusListing {
	t.Helper()
	listing := models.SurplusListing{
		ID:          uuid.New(),
		FarmerID:    farmerID,
		ProductName: "Mixed Vegetables",
		Quantity:    decimal.NewFromInt(20),
		Unit:        enums.SurplusUnitKg,
		ExpiryDate:  time.Now().Add(48 * time.Hour),
		Price:       decimal.Zero,
		Status:      status,
		Location:    "Soweto",
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&listing).Error)
	return listing
}

func seedKitchen(t *testing.T, db *gorm.DB, capacity int) models.Profile {
	t.Helper()
	profile := models.Profile{
		ID:       uuid.New(),
		UserType: enums.UserTypeKitchen,
		FullName: "Kitchen Owner",
		Location: "Katutura",
	}
	require.NoError(t, db.Create(&profile).Error)

	detail := models.KitchenDetail{
		ID:             uuid.New(),
		ProfileID:      profile.ID,
		KitchenName:    "Hope Kitchen",
		CapacityPeople: capacity,
	}
	require.NoError(t, db.Create(&detail).Error)
	return profile
}

func TestListAvailableByFarmerFiltersAndOrders(t *testing.T) {
	db := setupMatchingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	farmerID := uuid.New()
	otherFarmer := uuid.New()
	base := time.Now().Add(-time.Hour)

	older := seedListing(t, db, farmerID, enums.SurplusStatusAvailable, base)
	newer := seedListing(t, db, farmerID, enums.SurplusStatusAvailable, base.Add(10*time.Minute))
	seedListing(t, db, farmerID, enums.SurplusStatusClaimed, base.Add(20*time.Minute))
	seedListing(t, db, otherFarmer, enums.SurplusStatusAvailable, base.Add(30*time.Minute))

	listings, err := repo.ListAvailableByFarmer(ctx, farmerID)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, newer.ID, listings[0].ID, "newest listing first")
	assert.Equal(t, older.ID, listings[1].ID)
}

func TestListKitchensPreloadsDetails(t *testing.T) {
	db := setupMatchingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	kitchen := seedKitchen(t, db, 120)
	farmer := models.Profile{
		ID:       uuid.New(),
		UserType: enums.UserTypeFarmer,
		FullName: "Farmer",
		Location: "Okahandja",
	}
	require.NoError(t, db.Create(&farmer).Error)

	kitchens, err := repo.ListKitchens(ctx)
	require.NoError(t, err)
	require.Len(t, kitchens, 1, "farmers must be excluded")
	assert.Equal(t, kitchen.ID, kitchens[0].ID)
	require.NotNil(t, kitchens[0].KitchenDetail)
	assert.Equal(t, 120, kitchens[0].KitchenDetail.CapacityPeople)
	assert.Equal(t, "Hope Kitchen", kitchens[0].KitchenDetail.KitchenName)
}

func TestUpsertMatchIsIdempotentOnPair(t *testing.T) {
	db := setupMatchingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	surplusID := uuid.New()
	kitchenID := uuid.New()

	first := &models.SurplusMatch{
		ID:                  uuid.New(),
		SurplusID:           surplusID,
		KitchenID:           kitchenID,
		MatchScore:          0.6,
		NutritionalFitScore: 0.8,
		CapacityFitScore:    1.0,
		DistanceKM:          5,
	}
	require.NoError(t, repo.UpsertMatch(ctx, first))

	// The claim workflow marks the row claimed between scoring runs.
	claimedAt := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, db.Model(&models.SurplusMatch{}).
		Where("surplus_id = ? AND kitchen_id = ?", surplusID, kitchenID).
		Updates(map[string]any{"claimed": true, "claimed_at": claimedAt}).Error)

	second := &models.SurplusMatch{
		ID:                  uuid.New(),
		SurplusID:           surplusID,
		KitchenID:           kitchenID,
		MatchScore:          0.9,
		NutritionalFitScore: 0.9,
		CapacityFitScore:    0.7,
		DistanceKM:          0,
	}
	require.NoError(t, repo.UpsertMatch(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.SurplusMatch{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-scoring must never duplicate a pair")

	var row models.SurplusMatch
	require.NoError(t, db.Where("surplus_id = ? AND kitchen_id = ?", surplusID, kitchenID).First(&row).Error)
	assert.Equal(t, first.ID, row.ID, "original row survives the upsert")
	assert.Equal(t, 0.9, row.MatchScore)
	assert.Equal(t, 0.9, row.NutritionalFitScore)
	assert.Equal(t, 0.7, row.CapacityFitScore)
	assert.Equal(t, float64(0), row.DistanceKM)
	assert.True(t, row.Claimed, "upsert must not reset the claimed flag")
	require.NotNil(t, row.ClaimedAt)
	assert.WithinDuration(t, claimedAt, *row.ClaimedAt, time.Second)
}

func TestListByKitchenPaginates(t *testing.T) {
	db := setupMatchingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	kitchenID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		match := models.SurplusMatch{
			ID:                  uuid.New(),
			SurplusID:           uuid.New(),
			KitchenID:           kitchenID,
			MatchScore:          0.5,
			NutritionalFitScore: 0.6,
			CapacityFitScore:    0.4,
			DistanceKM:          25,
			CreatedAt:           base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&match).Error)
	}

	page, next, err := repo.ListByKitchen(ctx, listMatchesParams{KitchenID: kitchenID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt), "newest match first")

	rest, last, err := repo.ListByKitchen(ctx, listMatchesParams{KitchenID: kitchenID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, last)
}

func TestListByKitchenClaimedFilter(t *testing.T) {
	db := setupMatchingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	kitchenID := uuid.New()
	claimed := models.SurplusMatch{
		ID:         uuid.New(),
		SurplusID:  uuid.New(),
		KitchenID:  kitchenID,
		MatchScore: 0.8,
		Claimed:    true,
	}
	open := models.SurplusMatch{
		ID:         uuid.New(),
		SurplusID:  uuid.New(),
		KitchenID:  kitchenID,
		MatchScore: 0.7,
	}
	require.NoError(t, db.Create(&claimed).Error)
	require.NoError(t, db.Create(&open).Error)

	onlyClaimed := true
	page, _, err := repo.ListByKitchen(ctx, listMatchesParams{KitchenID: kitchenID, Limit: 10, Claimed: &onlyClaimed})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, claimed.ID, page[0].ID)
}
