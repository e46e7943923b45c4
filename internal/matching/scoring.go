package matching

import (
	"strings"
	"time"

	"github.com/kaiub/surplus-backend/pkg/db/models"
)

const (
	baseScore     = 0.5
	quantityBonus = 0.2
	urgencyBonus  = 0.2
	locationBonus = 0.3

	// urgencyWindowDays marks a listing as urgent. A negative days-to-expiry
	// still qualifies: an already-expired listing keeps the urgency bonus.
	urgencyWindowDays = 3.0

	// defaultKitchenCapacity stands in when a kitchen has no detail row.
	defaultKitchenCapacity = 50

	defaultNutritionScore = 0.6
)

// nutritionTable maps product-name keywords to nutritional value. The first
// keyword contained in the product name wins, so declaration order matters.
var nutritionTable = []struct {
	keyword string
	score   float64
}{
	{"vegetables", 0.8},
	{"fruits", 0.7},
	{"grains", 0.9},
	{"protein", 0.9},
	{"dairy", 0.6},
}

// BasicMatchScore rates a (listing, kitchen) pair with the deterministic
// heuristic: 0.5 base, +0.2 when the quantity covers at least half the
// kitchen's capacity, +0.2 when expiry is within three days, +0.3 when the
// location strings overlap. The result is clamped to [0, 1].
func BasicMatchScore(listing models.SurplusListing, kitchen models.Profile, now time.Time) float64 {
	score := baseScore

	capacity := float64(kitchenCapacity(kitchen))
	if listing.Quantity.InexactFloat64() >= capacity*0.5 {
		score += quantityBonus
	}

	daysToExpiry := listing.ExpiryDate.Sub(now).Hours() / 24
	if daysToExpiry <= urgencyWindowDays {
		score += urgencyBonus
	}

	if locationsOverlap(listing.Location, kitchen.Location) {
		score += locationBonus
	}

	return clamp01(score)
}

// NutritionalFit scores the listing's product name against the keyword table.
// Kitchen attributes deliberately do not factor in: the fit describes the food
// itself, and the same listing scores identically for every kitchen.
func NutritionalFit(listing models.SurplusListing) float64 {
	product := strings.ToLower(listing.ProductName)
	for _, entry := range nutritionTable {
		if strings.Contains(product, entry.keyword) {
			return entry.score
		}
	}
	return defaultNutritionScore
}

// CapacityFit rates how well the quantity fits the kitchen's serving window
// [0.1c, 0.5c]: inside (inclusive) is ideal, above is too much but usable,
// below is too little but better than nothing.
func CapacityFit(listing models.SurplusListing, kitchen models.Profile) float64 {
	capacity := float64(kitchenCapacity(kitchen))
	quantity := listing.Quantity.InexactFloat64()

	windowMin := capacity * 0.1
	windowMax := capacity * 0.5

	switch {
	case quantity >= windowMin && quantity <= windowMax:
		return 1.0
	case quantity > windowMax:
		return 0.7
	default:
		return 0.4
	}
}

// LocationDistance returns an ordinal proximity proxy from string comparison:
// 0 for equal locations, 5 when one contains the other, 25 otherwise. It is
// persisted in the distance column but is not kilometers.
func LocationDistance(locA, locB string) float64 {
	a := strings.ToLower(locA)
	b := strings.ToLower(locB)

	switch {
	case a == b:
		return 0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 5
	default:
		return 25
	}
}

func kitchenCapacity(kitchen models.Profile) int {
	if kitchen.KitchenDetail != nil && kitchen.KitchenDetail.CapacityPeople > 0 {
		return kitchen.KitchenDetail.CapacityPeople
	}
	return defaultKitchenCapacity
}

func locationsOverlap(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
