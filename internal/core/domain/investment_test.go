package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
)

func validInvestment() domain.Investment {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return domain.Investment{
		ID:           42,
		UserID:       7,
		PlanName:     "Starter",
		DailyProfit:  decimal.NewFromInt(2),
		PlanDuration: 3,
		TotalReturn:  decimal.RequireFromString("30.00"),
		Amount:       decimal.NewFromInt(500),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 3),
		TotalEarned:  decimal.Zero,
		Status:       domain.StatusActive,
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*domain.Investment)
		valid  bool
	}{
		{"well formed", func(i *domain.Investment) {}, true},
		{"zero id", func(i *domain.Investment) { i.ID = 0 }, false},
		{"missing user", func(i *domain.Investment) { i.UserID = 0 }, false},
		{"zero principal", func(i *domain.Investment) { i.Amount = decimal.Zero }, false},
		{"negative rate", func(i *domain.Investment) { i.DailyProfit = decimal.NewFromInt(-1) }, false},
		{"zero duration", func(i *domain.Investment) { i.PlanDuration = 0 }, false},
		{"no start date", func(i *domain.Investment) { i.StartDate = time.Time{} }, false},
		{"earned beyond total", func(i *domain.Investment) { i.TotalEarned = decimal.NewFromInt(31) }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inv := validInvestment()
			tc.mutate(&inv)
			err := inv.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			}
		})
	}
}

func TestDailyReturn(t *testing.T) {
	inv := validInvestment()
	// 500 at 2% per day is exactly 10.00
	assert.True(t, decimal.RequireFromString("10.00").Equal(inv.DailyReturn()))

	inv.Amount = decimal.RequireFromString("333.33")
	inv.DailyProfit = decimal.RequireFromString("1.5")
	// 4.999950 rounds to cents
	assert.True(t, decimal.RequireFromString("5.00").Equal(inv.DailyReturn()))
}

func TestDaysElapsedCandidate(t *testing.T) {
	inv := validInvestment()

	// Run on the start day counts as day 1.
	sameDay := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, inv.DaysElapsedCandidate(sameDay))

	// Day 2 at any time of day.
	assert.Equal(t, 2, inv.DaysElapsedCandidate(time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)))

	// A missed day advances the counter past the gap.
	assert.Equal(t, 4, inv.DaysElapsedCandidate(time.Date(2025, 6, 4, 1, 0, 0, 0, time.UTC)))
}

func TestCompletionDue(t *testing.T) {
	inv := validInvestment() // 3-day plan starting 2025-06-01

	assert.False(t, inv.CompletionDue(time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)))
	assert.True(t, inv.CompletionDue(time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)))
	assert.True(t, inv.CompletionDue(time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)))

	// Single-day plans complete on their very first due day.
	oneDay := validInvestment()
	oneDay.PlanDuration = 1
	assert.True(t, oneDay.CompletionDue(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func TestResidualAndPayout(t *testing.T) {
	inv := validInvestment()
	inv.TotalReturn = decimal.RequireFromString("106.00")
	inv.TotalEarned = decimal.RequireFromString("60.00")

	assert.True(t, decimal.RequireFromString("46.00").Equal(inv.ResidualReturn()))
	assert.True(t, decimal.RequireFromString("606.00").Equal(inv.TotalPayout()))
}
