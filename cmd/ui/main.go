package main

import (
	"fmt"
	"net/http"
	"os"

	"demo-options-trader/internal/config"
	"demo-options-trader/internal/database"
	"demo-options-trader/internal/history"
	"demo-options-trader/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Database.DSN == "" {
		log.Fatal("The history viewer needs database.dsn to be set")
	}

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	apiHandler := NewAPIHandler(log, history.NewGormStore(db, cfg.Trading.HistoryNamespace))

	addr := fmt.Sprintf(":%d", cfg.Server.UIPort)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, newRouter(apiHandler)); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}

func newRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/trades", h.TradesHandler)
	r.Get("/api/statistics", h.StatisticsHandler)
	return r
}
