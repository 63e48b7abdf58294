package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentReturn is one immutable ledger entry: a single amount credited to
// a user's balance for one investment on one UTC date. Entries are append-only;
// the sum of entries for an investment equals that investment's TotalEarned.
type InvestmentReturn struct {
	ID           int64
	InvestmentID int64
	UserID       int64
	Amount       decimal.Decimal
	ReturnDate   time.Time // UTC date the return belongs to
	CreatedAt    time.Time
}
