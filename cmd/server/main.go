package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/coach"
	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/database"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/logger"
	"trading-risk-assistant-go/internal/metrics"
	"trading-risk-assistant-go/internal/risk"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Server.MetricsAddr, nil, log.Named("metrics"))

	store := journal.NewStore(db, log)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	handler := NewAPIHandler(log.Named("api"), risk.NewAssistant(cfg, log), store, coach.New(cfg, store, log, rng))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/evaluate", handler.EvaluateHandler)
	mux.HandleFunc("/api/sessions", handler.SessionsHandler)
	mux.HandleFunc("/api/stats", handler.StatsHandler)
	mux.HandleFunc("/api/insights", handler.InsightsHandler)
	mux.HandleFunc("/api/questions", handler.QuestionsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Evaluation server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Evaluation server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Evaluation server shutdown error", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
