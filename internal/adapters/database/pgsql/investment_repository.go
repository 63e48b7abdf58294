package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
	portsrepo "github.com/yieldcrest/invest_accrual/internal/core/ports/repositories"
	"github.com/yieldcrest/invest_accrual/internal/utils/dateutil"
)

const investmentColumns = `
	id, user_id, transaction_id, plan_name, daily_profit, plan_duration,
	total_return, amount, start_date, end_date, first_profit_date,
	last_return_applied, days_elapsed, total_earned, status, created_at, updated_at`

type PgxInvestmentRepository struct {
	pool *pgxpool.Pool
}

// NewPgxInvestmentRepository creates a new repository for investment rows and
// their financial mutations.
func NewPgxInvestmentRepository(pool *pgxpool.Pool) portsrepo.InvestmentRepository {
	return &PgxInvestmentRepository{pool: pool}
}

// FindDueInvestments selects every active investment due for an accrual or
// completion as of now: either the first profit date has arrived, or the last
// applied return predates the current UTC day. Rows already touched today are
// excluded, which keeps re-runs within one day idempotent at the selection
// level.
func (r *PgxInvestmentRepository) FindDueInvestments(ctx context.Context, now time.Time) ([]domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE status = 'active'
		  AND (
		    (first_profit_date IS NOT NULL AND first_profit_date <= $1)
		    OR (first_profit_date IS NULL AND (last_return_applied IS NULL OR last_return_applied < $2))
		  );
	`
	rows, err := r.pool.Query(ctx, query, now.UTC(), dateutil.StartOfUTCDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query due investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// ListActiveStartedBefore returns active investments started strictly before cutoff.
func (r *PgxInvestmentRepository) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE status = 'active' AND start_date < $1
		ORDER BY id;
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query started investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// ListStartedSince returns investments of any status started at or after since.
func (r *PgxInvestmentRepository) ListStartedSince(ctx context.Context, since time.Time) ([]domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE start_date >= $1
		ORDER BY id;
	`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// ApplyAccrual credits one daily return inside a single transaction:
// user balance first, then the ledger entry, then the guarded investment
// advance. The guard on last_return_applied turns a same-day re-run into
// ErrAlreadyApplied and rolls the credit back with it.
func (r *PgxInvestmentRepository) ApplyAccrual(ctx context.Context, inv domain.Investment, amount decimal.Decimal, daysElapsed int, appliedOn time.Time) error {
	today := dateutil.StartOfUTCDay(appliedOn)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := creditUserBalance(ctx, tx, inv.UserID, amount); err != nil {
		return err
	}
	if err := insertReturn(ctx, tx, inv.ID, inv.UserID, amount, today); err != nil {
		return err
	}

	advanceQuery := `
		UPDATE investments
		SET days_elapsed = $1,
		    total_earned = total_earned + $2,
		    last_return_applied = $3,
		    first_profit_date = NULL,
		    updated_at = NOW()
		WHERE id = $4
		  AND status = 'active'
		  AND (last_return_applied IS NULL OR last_return_applied < $3);
	`
	tag, err := tx.Exec(ctx, advanceQuery, daysElapsed, amount, today, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to advance investment %d: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyApplied
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit accrual for investment %d: %w", inv.ID, err)
	}
	return nil
}

// ApplyCompletion performs the terminal transition. A zero residual skips the
// balance credit and the ledger row; the state transition always runs, guarded
// on status so a completed row can never be completed twice.
func (r *PgxInvestmentRepository) ApplyCompletion(ctx context.Context, inv domain.Investment, residual decimal.Decimal, completedOn time.Time) error {
	today := dateutil.StartOfUTCDay(completedOn)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if residual.IsPositive() {
		if err := creditUserBalance(ctx, tx, inv.UserID, residual); err != nil {
			return err
		}
		if err := insertReturn(ctx, tx, inv.ID, inv.UserID, residual, today); err != nil {
			return err
		}
	}

	completeQuery := `
		UPDATE investments
		SET status = 'completed',
		    days_elapsed = plan_duration,
		    total_earned = total_return,
		    last_return_applied = $1,
		    first_profit_date = NULL,
		    updated_at = NOW()
		WHERE id = $2
		  AND status = 'active';
	`
	tag, err := tx.Exec(ctx, completeQuery, today, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to complete investment %d: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyApplied
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion for investment %d: %w", inv.ID, err)
	}
	return nil
}

// ApplyBackfill credits a batch of missed daily returns in one transaction,
// one ledger row per missed day. The advance is guarded on the day counter the
// caller computed against, so a concurrent run cannot stack on top of it.
func (r *PgxInvestmentRepository) ApplyBackfill(ctx context.Context, inv domain.Investment, entries []domain.InvestmentReturn, daysElapsed int, lastApplied time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := creditUserBalance(ctx, tx, inv.UserID, total); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	insertQuery := `
		INSERT INTO investment_returns (investment_id, user_id, amount, return_date, created_at)
		VALUES ($1, $2, $3, $4, NOW());
	`
	for _, e := range entries {
		batch.Queue(insertQuery, e.InvestmentID, e.UserID, e.Amount, dateutil.StartOfUTCDay(e.ReturnDate))
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert backfill entries for investment %d: %w", inv.ID, err)
	}

	advanceQuery := `
		UPDATE investments
		SET days_elapsed = $1,
		    total_earned = total_earned + $2,
		    last_return_applied = $3,
		    updated_at = NOW()
		WHERE id = $4
		  AND status = 'active'
		  AND days_elapsed = $5;
	`
	tag, err := tx.Exec(ctx, advanceQuery, daysElapsed, total, dateutil.StartOfUTCDay(lastApplied), inv.ID, inv.DaysElapsed)
	if err != nil {
		return fmt.Errorf("failed to advance backfilled investment %d: %w", inv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyApplied
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit backfill for investment %d: %w", inv.ID, err)
	}
	return nil
}

// creditUserBalance atomically increments the user's balance within tx.
// Zero rows affected means the user row is missing; the caller's transaction
// rolls back so the investment is never advanced without the credit.
func creditUserBalance(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal) error {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2;
	`
	tag, err := tx.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func insertReturn(ctx context.Context, tx pgx.Tx, investmentID, userID int64, amount decimal.Decimal, returnDate time.Time) error {
	query := `
		INSERT INTO investment_returns (investment_id, user_id, amount, return_date, created_at)
		VALUES ($1, $2, $3, $4, NOW());
	`
	if _, err := tx.Exec(ctx, query, investmentID, userID, amount, returnDate); err != nil {
		return fmt.Errorf("failed to insert return for investment %d: %w", investmentID, err)
	}
	return nil
}

func collectInvestments(rows pgx.Rows) ([]domain.Investment, error) {
	investments := []domain.Investment{}
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(
			&inv.ID,
			&inv.UserID,
			&inv.TransactionID,
			&inv.PlanName,
			&inv.DailyProfit,
			&inv.PlanDuration,
			&inv.TotalReturn,
			&inv.Amount,
			&inv.StartDate,
			&inv.EndDate,
			&inv.FirstProfitDate,
			&inv.LastReturnApplied,
			&inv.DaysElapsed,
			&inv.TotalEarned,
			&inv.Status,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investment row: %w", err)
		}
		investments = append(investments, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment rows: %w", err)
	}
	return investments, nil
}
