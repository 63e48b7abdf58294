package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
	portsrepo "github.com/yieldcrest/invest_accrual/internal/core/ports/repositories"
	"github.com/yieldcrest/invest_accrual/internal/utils/dateutil"
)

// DefaultRetentionDays is how long ledger rows are kept before pruning.
const DefaultRetentionDays = 30

// ReconciliationDrift reports an investment whose ledger sum disagrees with
// its recorded total earned.
type ReconciliationDrift struct {
	InvestmentID int64
	TotalEarned  decimal.Decimal
	LedgerSum    decimal.Decimal
}

// BackfillSummary reports what a backfill pass did.
type BackfillSummary struct {
	Examined      int
	Backfilled    int
	EntriesAdded  int
	TotalCredited decimal.Decimal
}

// HousekeepingService owns the maintenance tooling around the accrual pass:
// ledger retention pruning, ledger-versus-state reconciliation, and backfill
// of missed accrual days.
type HousekeepingService struct {
	BaseService
	investmentRepo portsrepo.InvestmentRepository
	returnRepo     portsrepo.ReturnRepository
	retentionDays  int
}

// NewHousekeepingService creates the maintenance runner. retentionDays at or
// below zero falls back to DefaultRetentionDays.
func NewHousekeepingService(logger *slog.Logger, investmentRepo portsrepo.InvestmentRepository, returnRepo portsrepo.ReturnRepository, retentionDays int) *HousekeepingService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &HousekeepingService{
		BaseService:    BaseService{Logger: logger},
		investmentRepo: investmentRepo,
		returnRepo:     returnRepo,
		retentionDays:  retentionDays,
	}
}

// RetentionCutoff is the oldest return date kept as of now.
func (s *HousekeepingService) RetentionCutoff(now time.Time) time.Time {
	return dateutil.StartOfUTCDay(now).AddDate(0, 0, -s.retentionDays)
}

// PruneReturns deletes ledger rows older than the retention window. This is
// maintenance only; callers log failures and keep the run's exit status.
func (s *HousekeepingService) PruneReturns(ctx context.Context, now time.Time) (int64, error) {
	cutoff := s.RetentionCutoff(now)
	pruned, err := s.returnRepo.DeleteReturnsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune returns before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	s.LogInfo(ctx, "pruned old return entries",
		slog.Int64("count", pruned),
		slog.String("cutoff", cutoff.Format("2006-01-02")))
	return pruned, nil
}

// Reconcile compares each investment's ledger sum against its total earned,
// limited to investments started inside the retention window (older ledgers
// are partially pruned, so the sums no longer line up by design of the
// retention policy). Read-only.
func (s *HousekeepingService) Reconcile(ctx context.Context, now time.Time) ([]ReconciliationDrift, error) {
	since := s.RetentionCutoff(now)
	investments, err := s.investmentRepo.ListStartedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments for reconciliation: %w", err)
	}

	var drifts []ReconciliationDrift
	for _, inv := range investments {
		sum, err := s.returnRepo.SumReturnsByInvestment(ctx, inv.ID)
		if err != nil {
			s.LogError(ctx, err, "failed to sum ledger for investment",
				slog.Int64("investment_id", inv.ID))
			continue
		}
		if !sum.Equal(inv.TotalEarned) {
			drifts = append(drifts, ReconciliationDrift{
				InvestmentID: inv.ID,
				TotalEarned:  inv.TotalEarned,
				LedgerSum:    sum,
			})
			s.LogWarn(ctx, "ledger drift detected",
				slog.Int64("investment_id", inv.ID),
				slog.String("total_earned", inv.TotalEarned.StringFixed(2)),
				slog.String("ledger_sum", sum.StringFixed(2)))
		}
	}

	s.LogInfo(ctx, "reconciliation finished",
		slog.Int("investments", len(investments)),
		slog.Int("drifts", len(drifts)))
	return drifts, nil
}

// BackfillMissedAccruals credits accrual days the daily pass missed (e.g. the
// scheduler did not fire). Each missed day becomes its own ledger entry dated
// on that day. The catch-up stops one day short of the plan duration so the
// regular completion branch still absorbs the final residual, and it never
// touches today: last_return_applied lands on the last backfilled date, which
// leaves the investment due for the normal pass.
func (s *HousekeepingService) BackfillMissedAccruals(ctx context.Context, now time.Time, dryRun bool) (*BackfillSummary, error) {
	today := dateutil.StartOfUTCDay(now)
	summary := &BackfillSummary{TotalCredited: decimal.Zero}

	candidates, err := s.investmentRepo.ListActiveStartedBefore(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list backfill candidates: %w", err)
	}

	for _, inv := range candidates {
		summary.Examined++
		if err := inv.Validate(); err != nil {
			s.LogWarn(ctx, "skipping malformed investment row",
				slog.Int64("investment_id", inv.ID),
				slog.String("error", err.Error()))
			continue
		}
		// Plans that never had their first return consumed are started by the
		// regular pass, not backfilled.
		if inv.FirstProfitDate != nil {
			continue
		}

		entries, lastApplied := s.missedEntries(inv, today)
		if len(entries) == 0 {
			continue
		}

		credited := decimal.Zero
		for _, e := range entries {
			credited = credited.Add(e.Amount)
		}
		daysElapsed := inv.DaysElapsed + len(entries)

		if dryRun {
			s.LogInfo(ctx, "dry run: would backfill missed returns",
				slog.Int64("investment_id", inv.ID),
				slog.Int("missed_days", len(entries)),
				slog.String("amount", credited.StringFixed(2)))
		} else {
			if err := s.investmentRepo.ApplyBackfill(ctx, inv, entries, daysElapsed, lastApplied); err != nil {
				s.LogError(ctx, err, "failed to backfill investment",
					slog.Int64("investment_id", inv.ID))
				continue
			}
			s.LogInfo(ctx, "backfilled missed returns",
				slog.Int64("investment_id", inv.ID),
				slog.Int("missed_days", len(entries)),
				slog.String("amount", credited.StringFixed(2)))
		}

		summary.Backfilled++
		summary.EntriesAdded += len(entries)
		summary.TotalCredited = summary.TotalCredited.Add(credited)
	}

	return summary, nil
}

// missedEntries builds one ledger entry per missed accrual day, from the day
// after the current counter up to yesterday's candidate, capped at
// plan_duration - 1.
func (s *HousekeepingService) missedEntries(inv domain.Investment, today time.Time) ([]domain.InvestmentReturn, time.Time) {
	// Day counter the investment should hold as of yesterday.
	target := dateutil.DaysBetween(inv.StartDate, today)
	if max := inv.PlanDuration - 1; target > max {
		target = max
	}
	if target <= inv.DaysElapsed {
		return nil, time.Time{}
	}

	amount := inv.DailyReturn()
	start := dateutil.StartOfUTCDay(inv.StartDate)
	var entries []domain.InvestmentReturn
	var lastApplied time.Time
	for day := inv.DaysElapsed + 1; day <= target; day++ {
		returnDate := start.AddDate(0, 0, day-1)
		entries = append(entries, domain.InvestmentReturn{
			InvestmentID: inv.ID,
			UserID:       inv.UserID,
			Amount:       amount,
			ReturnDate:   returnDate,
		})
		lastApplied = returnDate
	}
	return entries, lastApplied
}
