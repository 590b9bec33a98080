// Command server starts the GART risk decision API.
//
// Configuration comes from an optional config.yaml, GART_-prefixed
// environment variables, and a local .env file. The classifier artifact at
// model_path must exist and parse: the engine cannot score without it, so a
// bad artifact aborts startup rather than degrading per request.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gart/risk-api/internal/alert"
	"gart/risk-api/internal/api"
	"gart/risk-api/internal/config"
	"gart/risk-api/internal/logger"
	"gart/risk-api/internal/model"
	"gart/risk-api/internal/scoring"
	"gart/risk-api/internal/store"
)

func main() {
	// Local development convenience; absence of .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// ── Load the classifier (fatal on failure) ────────────────────────────────
	forest, err := model.LoadForest(cfg.ModelPath)
	if err != nil {
		log.Fatal("classifier artifact unusable", zap.String("path", cfg.ModelPath), zap.Error(err))
	}

	// ── Open the event log (missing file = cold start) ────────────────────────
	eventLog, err := store.Open(cfg.HistoryPath)
	if err != nil {
		log.Fatal("event log unusable", zap.String("path", cfg.HistoryPath), zap.Error(err))
	}
	log.Info("event log loaded",
		zap.String("path", cfg.HistoryPath),
		zap.Int("records", eventLog.Len()),
	)

	// ── Wire dependencies ─────────────────────────────────────────────────────
	adapter := model.NewRiskAdapter(forest, model.NewMapper(cfg.HighRiskCountries))
	engine := scoring.New(eventLog, adapter)
	notifier := alert.New(cfg.AlertURL, cfg.AlertThreshold, log)
	handler := api.NewHandler(engine, eventLog, notifier, log)
	router := api.NewRouter(handler)

	// ── Start HTTP server ─────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening",
			zap.Int("port", cfg.Port),
			zap.String("model", cfg.ModelPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}
