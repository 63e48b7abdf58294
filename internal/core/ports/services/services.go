// Package services defines the collaborator interfaces consumed by the core
// services: email dispatch and cross-run locking. Keeping these as ports means
// notification and locking failures can be exercised in unit tests without a
// mail provider or Redis.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
)

// Mailer sends one templated email. Implementations must bound their own I/O
// with finite timeouts; the core treats any returned error as
// logged-and-swallowed, never as a reason to revisit a financial mutation.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Notifier produces the two user-facing emails the scheduler emits. Nothing
// else in the system sends notifications.
type Notifier interface {
	// SendAccrualNotice reports one day's credited return. nextAccrual is the
	// UTC time of the next scheduled return.
	SendAccrualNotice(ctx context.Context, user domain.User, inv domain.Investment, credited decimal.Decimal, nextAccrual time.Time) error

	// SendCompletionNotice reports the terminal payout for a finished plan.
	SendCompletionNotice(ctx context.Context, user domain.User, inv domain.Investment, credited decimal.Decimal, completedAt time.Time) error
}

// RunLocker guards against two scheduler runs overlapping. Acquire returns a
// release function on success and apperrors.ErrRunInProgress when another run
// holds the lock. The lock is advisory: the per-investment idempotency gate is
// the correctness backstop either way.
type RunLocker interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context), err error)
}
