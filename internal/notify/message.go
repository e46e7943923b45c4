package notify

import (
	"fmt"

	"github.com/kaiub/surplus-backend/pkg/db/models"
)

// kitchenDisplayName prefers the kitchen's registered name over the owner's.
func kitchenDisplayName(kitchen models.Profile) string {
	if kitchen.KitchenDetail != nil && kitchen.KitchenDetail.KitchenName != "" {
		return kitchen.KitchenDetail.KitchenName
	}
	return kitchen.FullName
}

// claimedMessage tells the farmer which kitchen claimed their listing and how
// to reach it.
func claimedMessage(listing models.SurplusListing, kitchen models.Profile) string {
	contact := ""
	if kitchen.PhoneNumber != nil {
		contact = *kitchen.PhoneNumber
	}
	return fmt.Sprintf(
		"🎉 Great news! Your surplus listing %q (%s%s) has been claimed by %s.\n\n"+
			"They will contact you soon to arrange pickup. Kitchen contact: %s\n\n"+
			"Location: %s\n\n"+
			"Thank you for helping reduce food waste with Kaiǀūb! 🌱",
		listing.ProductName,
		listing.Quantity.String(),
		listing.Unit,
		kitchenDisplayName(kitchen),
		contact,
		kitchen.Location,
	)
}

// newMatchMessage invites the kitchen to claim a freshly matched listing.
func newMatchMessage(listing models.SurplusListing) string {
	priceLine := "FREE donation"
	if listing.Price.IsPositive() {
		priceLine = fmt.Sprintf("Price: R%s", listing.Price.String())
	}
	return fmt.Sprintf(
		"🍅 New surplus match found!\n\n"+
			"%q - %s%s\n"+
			"Location: %s\n"+
			"Expires: %s\n"+
			"%s\n\n"+
			"Claim it now on Kaiǀūb dashboard before it expires! 🌱",
		listing.ProductName,
		listing.Quantity.String(),
		listing.Unit,
		listing.Location,
		listing.ExpiryDate.Format("2 Jan 2006"),
		priceLine,
	)
}
