package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/clock"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/config"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/engine"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/storage/postgres"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/telemetry"
	"github.com/amanshresthaa/SajiloReserveX-sub003/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(startupCtx); err != nil {
		logger.Error("ping postgres", "error", err)
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	bookings := postgres.NewBookingRepository(pool)
	holdRepo := postgres.NewHoldRepository(pool)
	allocRepo := postgres.NewAllocationRepository(pool)
	tables := postgres.NewTableRepository(pool)
	settings := postgres.NewSettingsRepository(pool)

	recorder := telemetry.NewAsyncRecorder(postgres.NewTelemetrySink(pool), logger, 512)
	defer recorder.Close()

	clk := clock.NewSystem()
	holds := engine.NewHoldService(holdRepo, clk,
		engine.WithHoldTTL(cfg.HoldTTL),
		engine.WithHoldLogger(logger),
	)
	commits := engine.NewCommitService(allocRepo, clk, logger)

	orch := engine.NewOrchestrator(engine.OrchestratorDeps{
		Catalog:   tables,
		Bookings:  bookings,
		Snapshots: allocRepo,
		Settings:  settings,
		Schedule:  settings,
		Holds:     holds,
		Commits:   commits,
		Recorder:  recorder,
		Clock:     clk,
		Config: domain.StrategyConfig{
			MaxTables: cfg.MaxTables,
			MaxSlack:  cfg.MaxSlack,
			HoldTTL:   cfg.HoldTTL,
		},
		Logger:    logger,
		CreatedBy: "sweeper",
	})

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		logger.Error("create scheduler", "error", err)
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() { runSweep(ctx, logger, bookings, orch, clk) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("schedule sweep job", "error", err)
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.JanitorInterval),
		gocron.NewTask(func() { runJanitor(ctx, logger, holds, cfg.JanitorBatch) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("schedule janitor job", "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("sweeper started",
		"sweep_interval", cfg.SweepInterval,
		"janitor_interval", cfg.JanitorInterval,
		"hold_ttl", cfg.HoldTTL,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := scheduler.Shutdown(); err != nil {
		logger.Warn("scheduler shutdown", "error", err)
	}
}

// runSweep re-attempts assignment for every restaurant that still has
// unallocated bookings, one restaurant at a time.
func runSweep(ctx context.Context, logger *slog.Logger, bookings *postgres.BookingRepository, orch *engine.Orchestrator, clk clock.Clock) {
	now := clk.Now().UTC()
	cutoff := now.Truncate(24 * time.Hour)

	ids, err := bookings.RestaurantsWithUnassigned(ctx, cutoff)
	if err != nil {
		logger.Error("list restaurants for sweep", "error", err)
		return
	}

	for _, restaurantID := range ids {
		report, err := orch.Sweep(ctx, restaurantID, now)
		if err != nil {
			logger.Error("sweep failed", "restaurant_id", restaurantID, "error", err)
			continue
		}
		if report.Assigned+report.Unassigned+report.Failed > 0 {
			logger.Info("sweep finished",
				"restaurant_id", restaurantID,
				"assigned", report.Assigned,
				"unassigned", report.Unassigned,
				"failed", report.Failed,
			)
		}
	}
}

func runJanitor(ctx context.Context, logger *slog.Logger, holds *engine.HoldService, batch int) {
	removed, err := holds.SweepExpired(ctx, batch)
	if err != nil {
		logger.Error("expired hold sweep failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Debug("removed expired holds", "count", removed)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
