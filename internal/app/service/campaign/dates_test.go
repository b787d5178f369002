package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/types"
)

func TestResolveDates_ExtendsLiveCampaign(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := &models.AdCampaign{
		Status: types.CampaignStatusActive,
		StartAt: now.AddDate(0, 0, -5),
		EndAt:   now.AddDate(0, 0, 10),
	}

	start, end := ResolveDates(5, current, now)

	assert.Equal(t, current.EndAt, start, "extension starts where the live run ends")
	assert.Equal(t, current.EndAt.AddDate(0, 0, 5), end)
}

func TestResolveDates_FreshRunWhenNoCampaign(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	start, end := ResolveDates(7, nil, now)

	assert.Equal(t, now, start)
	assert.Equal(t, now.AddDate(0, 0, 7), end)
}

func TestResolveDates_FreshRunWhenCampaignLapsed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	lapsed := &models.AdCampaign{
		Status: types.CampaignStatusActive,
		StartAt: now.AddDate(0, 0, -30),
		EndAt:   now.AddDate(0, 0, -2),
	}

	start, end := ResolveDates(3, lapsed, now)

	assert.Equal(t, now, start, "a lapsed run leaves a gap; the new one starts immediately")
	assert.Equal(t, now.AddDate(0, 0, 3), end)
}

func TestResolveDates_PendingPaymentCountsAsLive(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pending := &models.AdCampaign{
		Status: types.CampaignStatusPendingPayment,
		StartAt: now,
		EndAt:   now.AddDate(0, 0, 4),
	}

	start, _ := ResolveDates(2, pending, now)
	assert.Equal(t, pending.EndAt, start)
}

func TestResolveDates_CalendarDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-03-09 02:00 EST → EDT: the night of the spring-forward shift.
	now := time.Date(2025, 3, 8, 9, 0, 0, 0, loc)

	_, end := ResolveDates(2, nil, now)

	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, loc), end,
		"end keeps the wall-clock hour across the shift")
	assert.Equal(t, 47*time.Hour, end.Sub(now), "the window is a calendar window, not 48 fixed hours")
}

func TestResolveDates_BackToBackPurchasesLeaveNoGap(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	start1, end1 := ResolveDates(7, nil, now)
	c := &models.AdCampaign{Status: types.CampaignStatusActive, StartAt: start1, EndAt: end1}

	start2, end2 := ResolveDates(3, c, now.Add(time.Hour))

	assert.Equal(t, end1, start2)
	assert.Equal(t, end1.AddDate(0, 0, 3), end2)
}
