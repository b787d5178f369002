// Package campaign holds the date arithmetic behind the single-timeline
// campaign model: every purchase for a business lands on one run, extended
// end-to-end, never stacked in parallel.
package campaign

import (
	"time"

	"github.com/citypages/billing/internal/models"
)

// ResolveDates computes the window a purchase of daysPurchased covers.
//
// A purchase against a campaign that still has runway starts exactly where
// that campaign ends (no gap, no overlap). With no campaign, or one that
// already lapsed, the new run starts at now. The end is calendar-day
// arithmetic from the start, so a window spanning a DST shift keeps its
// wall-clock boundary.
func ResolveDates(daysPurchased int, current *models.AdCampaign, now time.Time) (startAt, endAt time.Time) {
	startAt = now
	if current.Live(now) {
		startAt = current.EndAt
	}
	endAt = startAt.AddDate(0, 0, daysPurchased)
	return startAt, endAt
}
