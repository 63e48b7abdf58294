package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	portsrepo "github.com/yieldcrest/invest_accrual/internal/core/ports/repositories"
)

type PgxReturnRepository struct {
	pool *pgxpool.Pool
}

// NewPgxReturnRepository creates a new repository for the return ledger.
func NewPgxReturnRepository(pool *pgxpool.Pool) portsrepo.ReturnRepository {
	return &PgxReturnRepository{pool: pool}
}

// DeleteReturnsBefore prunes ledger rows dated strictly before cutoff.
func (r *PgxReturnRepository) DeleteReturnsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM investment_returns WHERE return_date < $1;`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete returns before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	return tag.RowsAffected(), nil
}

// SumReturnsByInvestment totals the ledger for one investment.
func (r *PgxReturnRepository) SumReturnsByInvestment(ctx context.Context, investmentID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM investment_returns WHERE investment_id = $1;`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, investmentID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum returns for investment %d: %w", investmentID, err)
	}
	return sum, nil
}
