package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/coach"
	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/database"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/logger"
	"trading-risk-assistant-go/internal/risk"
	"trading-risk-assistant-go/internal/telegram"
)

// app holds the wired components the commands share.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	assistant *risk.Assistant
	store     *journal.Store
	coach     *coach.Coach
	notifier  telegram.Notifier
}

// newApp runs the standard bootstrap: env, config, logger, database, then the
// components on top.
func newApp(configPath string) (*app, error) {
	// Secrets such as the Telegram token come in through the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	store := journal.NewStore(db, log)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &app{
		cfg:       cfg,
		log:       log,
		assistant: risk.NewAssistant(cfg, log),
		store:     store,
		coach:     coach.New(cfg, store, log, rng),
		notifier:  telegram.FromConfig(cfg.Telegram, log),
	}, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
