package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demo-options-trader/internal/config"
	"demo-options-trader/internal/database"
	"demo-options-trader/internal/history"
	"demo-options-trader/internal/ledger"
	"demo-options-trader/internal/logger"
	"demo-options-trader/internal/notify"
	"demo-options-trader/internal/trader"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded")

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// History store: SQLite when a DSN is configured, memory otherwise.
	var store history.Store
	if cfg.Database.DSN == "" {
		log.Warn("No database configured, trade history will not survive a restart")
		store = history.NewMemoryStore()
	} else {
		db, err := database.NewDatabase(cfg.Database.DSN)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Info("Database connection successful and schema migrated.")
		store = history.NewGormStore(db, cfg.Trading.HistoryNamespace)
	}
	tradeLog := history.NewLog(ctx, store, cfg.Trading.HistoryLimit, log)

	balance := ledger.New(decimal.NewFromFloat(cfg.Trading.InitialBalance))
	balance.Subscribe(func(b decimal.Decimal) {
		log.Debug("Balance changed", zap.String("balance", b.String()))
	})

	// Notifications go to the log, websocket clients and, if set, a webhook.
	hub := notify.NewHub(log)
	go hub.Run(ctx)
	notifiers := notify.Multi{notify.NewLogNotifier(log), hub}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(&cfg.Notify, log))
		log.Info("Webhook notifications enabled", zap.String("url", cfg.Notify.WebhookURL))
	}

	engine := trader.NewEngine(log, &cfg, trader.Dependencies{
		Ledger:   balance,
		History:  tradeLog,
		Notifier: notifiers,
		Clock:    trader.SystemClock{},
		Random:   trader.NewRandomSource(cfg.Trading.RandomSeed),
	})
	engine.OnCountdown(func(id uuid.UUID, remaining int) {
		hub.BroadcastCountdown(id, remaining)
	})

	api := trader.NewAPIServer(log, engine, hub, cfg.Server.Port)
	go func() {
		if err := api.Start(); err != nil {
			log.Error("API server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}
	engine.Close()

	log.Info("Trader has been shut down.")
}
