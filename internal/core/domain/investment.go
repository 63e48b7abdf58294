package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	"github.com/yieldcrest/invest_accrual/internal/utils/dateutil"
)

// InvestmentStatus is the lifecycle state of an investment.
type InvestmentStatus string

const (
	StatusActive    InvestmentStatus = "active"
	StatusCompleted InvestmentStatus = "completed"
	StatusCancelled InvestmentStatus = "cancelled"
)

// Investment represents a funded investment plan owned by a user.
// It is created externally when a deposit is approved; the accrual scheduler
// only ever advances it (daily return) or completes it.
type Investment struct {
	ID            int64
	UserID        int64
	TransactionID int64 // the approved deposit that funded this investment

	PlanName     string
	DailyProfit  decimal.Decimal // percentage, e.g. 2 means 2% of principal per day
	PlanDuration int             // days
	TotalReturn  decimal.Decimal // total expected earnings over the full duration
	Amount       decimal.Decimal // principal

	StartDate         time.Time
	EndDate           time.Time
	FirstProfitDate   *time.Time // set on creation, cleared once the first return is applied
	LastReturnApplied *time.Time // UTC date of the most recent return

	DaysElapsed int
	TotalEarned decimal.Decimal
	Status      InvestmentStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate rejects malformed rows before any accrual math runs on them.
// A row that fails validation is skipped for the run, never processed.
func (i *Investment) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("investment id must be positive: %w", apperrors.ErrValidation)
	}
	if i.UserID <= 0 {
		return fmt.Errorf("investment %d has no owning user: %w", i.ID, apperrors.ErrValidation)
	}
	if !i.Amount.IsPositive() {
		return fmt.Errorf("investment %d has non-positive principal: %w", i.ID, apperrors.ErrValidation)
	}
	if !i.DailyProfit.IsPositive() {
		return fmt.Errorf("investment %d has non-positive daily profit rate: %w", i.ID, apperrors.ErrValidation)
	}
	if i.PlanDuration <= 0 {
		return fmt.Errorf("investment %d has non-positive plan duration: %w", i.ID, apperrors.ErrValidation)
	}
	if i.StartDate.IsZero() {
		return fmt.Errorf("investment %d has no start date: %w", i.ID, apperrors.ErrValidation)
	}
	if i.TotalEarned.GreaterThan(i.TotalReturn) {
		return fmt.Errorf("investment %d earned %s beyond expected total %s: %w",
			i.ID, i.TotalEarned, i.TotalReturn, apperrors.ErrValidation)
	}
	return nil
}

// DailyReturn is the amount credited for one accrual day:
// principal * daily_profit / 100, rounded to cents.
func (i *Investment) DailyReturn() decimal.Decimal {
	return i.Amount.Mul(i.DailyProfit).Div(decimal.NewFromInt(100)).Round(2)
}

// DaysElapsedCandidate is the day counter the investment should hold after a
// run at now: whole UTC days since the start date, plus one for the start day.
func (i *Investment) DaysElapsedCandidate(now time.Time) int {
	return dateutil.DaysBetween(i.StartDate, now) + 1
}

// CompletionDue reports whether a run at now must take the completion branch
// instead of a regular accrual.
func (i *Investment) CompletionDue(now time.Time) bool {
	return i.DaysElapsedCandidate(now) >= i.PlanDuration
}

// ResidualReturn is the shortfall between what has been earned so far and the
// full expected return. The completion branch credits exactly this amount.
func (i *Investment) ResidualReturn() decimal.Decimal {
	return i.TotalReturn.Sub(i.TotalEarned)
}

// TotalPayout is principal plus full earnings, reported in completion notices.
func (i *Investment) TotalPayout() decimal.Decimal {
	return i.Amount.Add(i.TotalReturn)
}
