package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yieldcrest/invest_accrual/internal/adapters/database/pgsql"
	"github.com/yieldcrest/invest_accrual/internal/adapters/redislock"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	"github.com/yieldcrest/invest_accrual/internal/core/services"
	"github.com/yieldcrest/invest_accrual/internal/scheduler"
	"github.com/yieldcrest/invest_accrual/internal/utils/audit"
	"github.com/yieldcrest/invest_accrual/pkg/config"
	"github.com/yieldcrest/invest_accrual/pkg/database"
	"github.com/yieldcrest/invest_accrual/pkg/mailclient"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "compute and log mutations without writing or emailing")
	daemon := flag.Bool("daemon", false, "stay resident and run on the cron schedule instead of once")
	verify := flag.Bool("verify", false, "reconcile the return ledger against investment state and exit")
	backfill := flag.Bool("backfill", false, "credit missed accrual days and exit")
	flag.Parse()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire repositories and services.
	investmentRepo := pgsql.NewPgxInvestmentRepository(dbPool)
	returnRepo := pgsql.NewPgxReturnRepository(dbPool)
	userRepo := pgsql.NewPgxUserRepository(dbPool)

	mailer := mailclient.NewClient(cfg.MailAPIBaseURL, cfg.MailAPIKey, cfg.MailFrom)
	notifier := services.NewNotificationService(logger, mailer)

	auditSink := audit.NewSink(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer auditSink.Close()

	accrualOpts := []services.AccrualOption{
		services.WithAuditSink(auditSink),
		services.WithRunLockTTL(cfg.RunLockTTL),
	}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to parse REDIS_URL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		accrualOpts = append(accrualOpts, services.WithRunLocker(redislock.NewLocker(redisClient, cfg.RunLockKey, logger)))
	}

	accrualSvc := services.NewAccrualService(logger, investmentRepo, userRepo, notifier, accrualOpts...)
	housekeepingSvc := services.NewHousekeepingService(logger, investmentRepo, returnRepo, cfg.RetentionDays)

	switch {
	case *verify:
		os.Exit(runVerify(logger, housekeepingSvc))
	case *backfill:
		os.Exit(runBackfill(logger, housekeepingSvc, *dryRun))
	case *daemon:
		os.Exit(runDaemon(logger, cfg.AccrualSchedule, accrualSvc, housekeepingSvc, *dryRun))
	default:
		os.Exit(runOnce(context.Background(), logger, accrualSvc, housekeepingSvc, *dryRun))
	}
}

// runOnce executes one daily pass plus housekeeping, the mode an external
// cron invokes. Only a due-set failure produces a non-zero exit.
func runOnce(ctx context.Context, logger *slog.Logger, accrualSvc *services.AccrualService, housekeepingSvc *services.HousekeepingService, dryRun bool) int {
	now := time.Now().UTC()

	_, err := accrualSvc.Run(ctx, now, services.RunOptions{DryRun: dryRun})
	if err != nil {
		if errors.Is(err, apperrors.ErrRunInProgress) {
			// Another invocation is already processing today's due set.
			return 0
		}
		logger.Error("Daily returns pass failed", slog.String("error", err.Error()))
		return 1
	}

	if dryRun {
		logger.Info("Dry run: skipping ledger pruning")
		return 0
	}
	if _, err := housekeepingSvc.PruneReturns(ctx, now); err != nil {
		// Housekeeping is non-critical and never changes the exit status.
		logger.Error("Ledger pruning failed", slog.String("error", err.Error()))
	}
	return 0
}

func runVerify(logger *slog.Logger, housekeepingSvc *services.HousekeepingService) int {
	drifts, err := housekeepingSvc.Reconcile(context.Background(), time.Now().UTC())
	if err != nil {
		logger.Error("Reconciliation failed", slog.String("error", err.Error()))
		return 1
	}
	if len(drifts) > 0 {
		logger.Error("Ledger drift detected", slog.Int("investments", len(drifts)))
		return 1
	}
	logger.Info("Ledger reconciliation clean")
	return 0
}

func runBackfill(logger *slog.Logger, housekeepingSvc *services.HousekeepingService, dryRun bool) int {
	summary, err := housekeepingSvc.BackfillMissedAccruals(context.Background(), time.Now().UTC(), dryRun)
	if err != nil {
		logger.Error("Backfill failed", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("Backfill finished",
		slog.Int("examined", summary.Examined),
		slog.Int("backfilled", summary.Backfilled),
		slog.Int("entries_added", summary.EntriesAdded),
		slog.String("total_credited", summary.TotalCredited.StringFixed(2)))
	return 0
}

// runDaemon stays resident and triggers the pass on the configured cron
// schedule. SIGINT/SIGTERM stop the scheduler and wait for a running pass.
func runDaemon(logger *slog.Logger, schedule string, accrualSvc *services.AccrualService, housekeepingSvc *services.HousekeepingService, dryRun bool) int {
	sched := scheduler.New(logger)
	err := sched.Schedule(schedule, func(ctx context.Context) {
		runOnce(ctx, logger, accrualSvc, housekeepingSvc, dryRun)
	})
	if err != nil {
		logger.Error("Failed to schedule daily returns job", slog.String("error", err.Error()))
		return 1
	}
	sched.Start()
	logger.Info("Scheduler daemon started", slog.String("schedule", schedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler daemon")
	<-sched.Stop().Done()
	return 0
}

// runMigrations applies pending migrations over a temporary database/sql
// connection using the pgx stdlib driver, compatible with the main pool.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
