package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
	portsrepo "github.com/yieldcrest/invest_accrual/internal/core/ports/repositories"
	portssvc "github.com/yieldcrest/invest_accrual/internal/core/ports/services"
	"github.com/yieldcrest/invest_accrual/internal/utils/audit"
	"github.com/yieldcrest/invest_accrual/internal/utils/dateutil"
)

const defaultRunLockTTL = 15 * time.Minute

// RunOptions controls one invocation of the daily pass.
type RunOptions struct {
	// DryRun performs all reads and computations but suppresses balance
	// updates, state advances, ledger inserts and emails.
	DryRun bool
}

// RunSummary reports what one daily pass did.
type RunSummary struct {
	RunID         string
	Due           int
	Accrued       int
	Completed     int
	Skipped       int
	Failed        int
	TotalCredited decimal.Decimal
}

// AccrualService runs the daily investment returns pass: select the due set,
// apply one accrual or completion per investment, and dispatch notices.
// Per-investment failures are contained; only a due-set selection failure
// aborts the run.
type AccrualService struct {
	BaseService
	investmentRepo portsrepo.InvestmentRepository
	userRepo       portsrepo.UserReader
	notifier       portssvc.Notifier
	locker         portssvc.RunLocker
	auditSink      *audit.Sink
	lockTTL        time.Duration
}

// AccrualOption configures optional collaborators on the accrual service.
type AccrualOption func(*AccrualService)

// WithRunLocker enables the cross-run lock.
func WithRunLocker(locker portssvc.RunLocker) AccrualOption {
	return func(s *AccrualService) {
		s.locker = locker
	}
}

// WithAuditSink enables best-effort audit events per processed investment.
func WithAuditSink(sink *audit.Sink) AccrualOption {
	return func(s *AccrualService) {
		s.auditSink = sink
	}
}

// WithRunLockTTL overrides how long an acquired run lock is held at most.
func WithRunLockTTL(ttl time.Duration) AccrualOption {
	return func(s *AccrualService) {
		s.lockTTL = ttl
	}
}

// NewAccrualService creates the daily pass runner.
func NewAccrualService(
	logger *slog.Logger,
	investmentRepo portsrepo.InvestmentRepository,
	userRepo portsrepo.UserReader,
	notifier portssvc.Notifier,
	options ...AccrualOption,
) *AccrualService {
	svc := &AccrualService{
		BaseService:    BaseService{Logger: logger},
		investmentRepo: investmentRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		lockTTL:        defaultRunLockTTL,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Run executes one daily pass as of now. It returns apperrors.ErrRunInProgress
// when another run holds the lock, and a wrapped error when the due set cannot
// be fetched at all. Everything else is handled per investment.
func (s *AccrualService) Run(ctx context.Context, now time.Time, opts RunOptions) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:         uuid.NewString(),
		TotalCredited: decimal.Zero,
	}

	runLogger := s.GetLogger().With(
		slog.String("run_id", summary.RunID),
		slog.Bool("dry_run", opts.DryRun),
	)
	runLogger.Info("starting daily returns pass", slog.Time("now", now.UTC()))

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, s.lockTTL)
		switch {
		case errors.Is(err, apperrors.ErrRunInProgress):
			runLogger.Warn("another run holds the lock, skipping this invocation")
			return summary, apperrors.ErrRunInProgress
		case err != nil:
			// The lock is advisory only. The per-investment gate below still
			// prevents double credits, so an unreachable Redis does not stop
			// the pass.
			runLogger.Warn("run lock unavailable, proceeding without it", slog.String("error", err.Error()))
		default:
			defer release(ctx)
		}
	}

	due, err := s.investmentRepo.FindDueInvestments(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due investments: %w", err)
	}
	summary.Due = len(due)
	runLogger.Info("due set selected", slog.Int("count", len(due)))

	for _, inv := range due {
		s.processInvestment(ctx, runLogger, inv, now, opts, summary)
	}

	runLogger.Info("daily returns pass finished",
		slog.Int("due", summary.Due),
		slog.Int("accrued", summary.Accrued),
		slog.Int("completed", summary.Completed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.String("total_credited", summary.TotalCredited.StringFixed(2)),
	)
	s.captureRunSummary(summary, opts)
	return summary, nil
}

// processInvestment applies one accrual or completion. Errors are logged and
// counted but never propagated, so one bad investment cannot poison the batch.
func (s *AccrualService) processInvestment(ctx context.Context, logger *slog.Logger, inv domain.Investment, now time.Time, opts RunOptions, summary *RunSummary) {
	invLogger := logger.With(
		slog.Int64("investment_id", inv.ID),
		slog.Int64("user_id", inv.UserID),
		slog.String("plan", inv.PlanName),
	)

	if err := inv.Validate(); err != nil {
		invLogger.Warn("skipping malformed investment row", slog.String("error", err.Error()))
		summary.Skipped++
		return
	}

	user, err := s.userRepo.FindUserByID(ctx, inv.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			invLogger.Warn("owning user not found, skipping investment")
			summary.Skipped++
			return
		}
		invLogger.Error("failed to load owning user", slog.String("error", err.Error()))
		summary.Failed++
		return
	}

	if inv.CompletionDue(now) {
		s.completeInvestment(ctx, invLogger, inv, *user, now, opts, summary)
		return
	}
	s.accrueInvestment(ctx, invLogger, inv, *user, now, opts, summary)
}

func (s *AccrualService) accrueInvestment(ctx context.Context, logger *slog.Logger, inv domain.Investment, user domain.User, now time.Time, opts RunOptions, summary *RunSummary) {
	amount := inv.DailyReturn()
	daysElapsed := inv.DaysElapsedCandidate(now)

	logger = logger.With(
		slog.String("amount", amount.StringFixed(2)),
		slog.Int("day", daysElapsed),
		slog.Int("duration", inv.PlanDuration),
	)

	if opts.DryRun {
		logger.Info("dry run: would credit daily return")
		summary.Accrued++
		summary.TotalCredited = summary.TotalCredited.Add(amount)
		return
	}

	if err := s.investmentRepo.ApplyAccrual(ctx, inv, amount, daysElapsed, now); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyApplied):
			logger.Info("return already applied today, nothing to do")
			summary.Skipped++
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("balance credit found no user row, investment left untouched")
			summary.Skipped++
		default:
			logger.Error("failed to apply daily return", slog.String("error", err.Error()))
			summary.Failed++
		}
		return
	}

	summary.Accrued++
	summary.TotalCredited = summary.TotalCredited.Add(amount)
	logger.Info("daily return credited")

	s.captureInvestmentEvent(inv, amount, daysElapsed, false)

	// The notice reports the advanced state, not the pre-credit row.
	notified := inv
	notified.DaysElapsed = daysElapsed
	notified.TotalEarned = inv.TotalEarned.Add(amount)
	if err := s.notifier.SendAccrualNotice(ctx, user, notified, amount, dateutil.NextUTCDay(now)); err != nil {
		// Notification failures never affect the financial mutation.
		logger.Warn("failed to send accrual notice", slog.String("error", err.Error()))
	}
}

func (s *AccrualService) completeInvestment(ctx context.Context, logger *slog.Logger, inv domain.Investment, user domain.User, now time.Time, opts RunOptions, summary *RunSummary) {
	residual := inv.ResidualReturn()
	logger = logger.With(
		slog.String("residual", residual.StringFixed(2)),
		slog.Int("duration", inv.PlanDuration),
	)

	if residual.IsNegative() {
		logger.Warn("earned exceeds expected total, skipping completion")
		summary.Skipped++
		return
	}

	if opts.DryRun {
		logger.Info("dry run: would complete investment")
		summary.Completed++
		summary.TotalCredited = summary.TotalCredited.Add(residual)
		return
	}

	if err := s.investmentRepo.ApplyCompletion(ctx, inv, residual, now); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyApplied):
			logger.Info("completion already applied, nothing to do")
			summary.Skipped++
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("balance credit found no user row, investment left untouched")
			summary.Skipped++
		default:
			logger.Error("failed to complete investment", slog.String("error", err.Error()))
			summary.Failed++
		}
		return
	}

	summary.Completed++
	summary.TotalCredited = summary.TotalCredited.Add(residual)
	logger.Info("investment completed")

	s.captureInvestmentEvent(inv, residual, inv.PlanDuration, true)
	if err := s.notifier.SendCompletionNotice(ctx, user, inv, residual, now); err != nil {
		logger.Warn("failed to send completion notice", slog.String("error", err.Error()))
	}
}

func (s *AccrualService) captureInvestmentEvent(inv domain.Investment, amount decimal.Decimal, day int, completed bool) {
	if s.auditSink == nil {
		return
	}
	event := "investment_return_applied"
	if completed {
		event = "investment_completed"
	}
	s.auditSink.Enqueue(strconv.FormatInt(inv.UserID, 10), event, map[string]any{
		"investment_id": inv.ID,
		"plan":          inv.PlanName,
		"amount":        amount.StringFixed(2),
		"day":           day,
		"duration":      inv.PlanDuration,
	})
}

func (s *AccrualService) captureRunSummary(summary *RunSummary, opts RunOptions) {
	if s.auditSink == nil || opts.DryRun {
		return
	}
	s.auditSink.Enqueue("accrual_runner", "daily_returns_run", map[string]any{
		"run_id":         summary.RunID,
		"due":            summary.Due,
		"accrued":        summary.Accrued,
		"completed":      summary.Completed,
		"skipped":        summary.Skipped,
		"failed":         summary.Failed,
		"total_credited": summary.TotalCredited.StringFixed(2),
	})
}
