package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the slice of the platform's user record the scheduler needs:
// identity for crediting, email for notices. The balance is owned by the
// users store; this core only ever increments it.
type User struct {
	ID        int64
	Name      string
	Email     string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
