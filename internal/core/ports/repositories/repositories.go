// Package repositories defines the persistence capabilities the core services
// depend on. Implementations live under internal/adapters; services only ever
// see these interfaces so they stay testable without a live database.
package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
)

// InvestmentReader selects investments for processing.
type InvestmentReader interface {
	// FindDueInvestments returns every active investment eligible for an
	// accrual or completion as of now: first_profit_date has arrived, or a new
	// UTC day has elapsed since last_return_applied. Investments already
	// touched today are excluded, which is the first half of the idempotency
	// gate.
	FindDueInvestments(ctx context.Context, now time.Time) ([]domain.Investment, error)

	// ListActiveStartedBefore returns active investments whose start date is
	// strictly before cutoff. Used by the backfill tooling to find day gaps.
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.Investment, error)

	// ListStartedSince returns investments (any status) whose start date is at
	// or after since. Used by reconciliation, scoped to the ledger retention
	// window.
	ListStartedSince(ctx context.Context, since time.Time) ([]domain.Investment, error)
}

// InvestmentWriter applies the financial mutations. Every method runs as a
// single database transaction: credit the user balance, insert the ledger
// entry, then advance the investment behind a guard on last_return_applied.
// A second invocation for the same investment on the same UTC day returns
// apperrors.ErrAlreadyApplied and leaves all state untouched.
type InvestmentWriter interface {
	// ApplyAccrual credits one daily return and advances the investment to
	// daysElapsed, stamping last_return_applied with the UTC date of appliedOn
	// and clearing first_profit_date.
	ApplyAccrual(ctx context.Context, inv domain.Investment, amount decimal.Decimal, daysElapsed int, appliedOn time.Time) error

	// ApplyCompletion credits the residual amount (which may be zero, in which
	// case no balance update or ledger row is produced) and transitions the
	// investment to completed with days_elapsed = plan_duration and
	// total_earned = total_return.
	ApplyCompletion(ctx context.Context, inv domain.Investment, residual decimal.Decimal, completedOn time.Time) error

	// ApplyBackfill credits a batch of missed daily returns, one ledger entry
	// per missed day, advancing days_elapsed and last_return_applied to the
	// most recent backfilled date. Today's regular accrual is left for the
	// normal run.
	ApplyBackfill(ctx context.Context, inv domain.Investment, entries []domain.InvestmentReturn, daysElapsed int, lastApplied time.Time) error
}

// InvestmentRepository is the full investment capability surface.
type InvestmentRepository interface {
	InvestmentReader
	InvestmentWriter
}

// ReturnRepository manages the append-only return ledger.
type ReturnRepository interface {
	// DeleteReturnsBefore prunes ledger rows with a return date strictly
	// before cutoff and reports how many were removed.
	DeleteReturnsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// SumReturnsByInvestment totals the ledger for one investment.
	SumReturnsByInvestment(ctx context.Context, investmentID int64) (decimal.Decimal, error)
}

// UserReader looks up investment owners for crediting and notification.
type UserReader interface {
	FindUserByID(ctx context.Context, userID int64) (*domain.User, error)
}
