// Package pricing computes campaign purchase quotes. All amounts are integer
// minor-currency units.
package pricing

import "math"

// MemberDiscountPercent is applied when the purchasing profile holds an
// active membership.
const MemberDiscountPercent = 5.0

// Quote is the price breakdown for a day-based campaign purchase.
type Quote struct {
	SubtotalCents       int64   `json:"subtotal_cents"`
	DiscountPercent     float64 `json:"discount_percent"`
	DiscountAmountCents int64   `json:"discount_amount_cents"`
	TotalCents          int64   `json:"total_cents"`
}

// Calculate prices a purchase of days at dailyRateCents. Discount rounding is
// half-up on the fractional cent. Callers validate days >= 1 and rate >= 1;
// Calculate itself has no failure modes.
func Calculate(days int, dailyRateCents int64, hasMembership bool) Quote {
	subtotal := int64(days) * dailyRateCents

	var discountPercent float64
	if hasMembership {
		discountPercent = MemberDiscountPercent
	}

	discount := int64(math.Round(float64(subtotal) * discountPercent / 100))

	return Quote{
		SubtotalCents:       subtotal,
		DiscountPercent:     discountPercent,
		DiscountAmountCents: discount,
		TotalCents:          subtotal - discount,
	}
}
