package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/edupay/backend/internal/auth"
	"github.com/edupay/backend/internal/commission"
	"github.com/edupay/backend/internal/dashboard"
	"github.com/edupay/backend/internal/database"
	"github.com/edupay/backend/internal/ledger"
	"github.com/edupay/backend/internal/router"
	"github.com/edupay/backend/internal/withdrawals"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := LoadConfig()

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("Schema migrations failed", "error", err)
		os.Exit(1)
	}

	// River migrations (job queue tables)
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}

	// Ledger
	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)

	// Commission accrual: enqueue func is set after the River client is
	// created (breaks init cycle)
	var enqueueMu sync.Mutex
	var enqueueFn commission.EnqueueAccrualTxFunc
	enqueueAccrual := func(ctx context.Context, tx pgx.Tx, args commission.PurchaseConfirmedArgs) error {
		enqueueMu.Lock()
		fn := enqueueFn
		enqueueMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	commissionRepo := commission.NewRepository(pool)
	commissionSvc := commission.NewService(pool, commissionRepo, ledgerSvc, enqueueAccrual, cfg.CommissionRate)

	workers := river.NewWorkers()
	river.AddWorker(workers, commission.NewAccrualWorker(commissionSvc))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	enqueueMu.Lock()
	enqueueFn = func(ctx context.Context, tx pgx.Tx, args commission.PurchaseConfirmedArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	enqueueMu.Unlock()

	// Auth
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo)
	authHandler := auth.NewHandler(authSvc, logger)

	// Withdrawals
	withdrawalRepo := withdrawals.NewRepository(pool)
	withdrawalSvc := withdrawals.NewService(pool, withdrawalRepo, ledgerSvc, authSvc, withdrawals.Config{
		MinAmount:       cfg.MinAmount,
		MaxPending:      cfg.MaxPending,
		DuplicateWindow: cfg.DuplicateWindow,
	})
	withdrawalHandler := withdrawals.NewHandler(withdrawalSvc, logger)

	commissionHandler := commission.NewHandler(commissionSvc, logger)
	dashHandler := dashboard.NewHandler(ledgerSvc, commissionSvc, logger)

	apiRouter := router.New(authHandler, withdrawalHandler, commissionHandler, dashHandler, authSvc)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	// Start River client (processes accrual jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
