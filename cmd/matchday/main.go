// Command matchday runs the football prediction game: the Telegram bot, the
// live-score monitor, and the ops API server, all in one process.
//
// Usage:
//
//	matchday
//	LIVE_POLL_SECONDS=5 matchday
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/goalpost-labs/matchday/internal/api"
	"github.com/goalpost-labs/matchday/internal/api/handler"
	"github.com/goalpost-labs/matchday/internal/bot"
	"github.com/goalpost-labs/matchday/internal/config"
	"github.com/goalpost-labs/matchday/internal/db"
	"github.com/goalpost-labs/matchday/internal/feed"
	"github.com/goalpost-labs/matchday/internal/monitor"
	"github.com/goalpost-labs/matchday/internal/notify"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/settle"
	"github.com/goalpost-labs/matchday/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireGame(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Local JSON stores
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	fixtures := store.NewFixtureStore(cfg.DataDir)
	profiles := store.NewProfileStore(cfg.DataDir)
	tracker := store.NewTracker(cfg.DataDir)
	preds := prediction.NewStore(pool.Pool)

	// Football feed
	feedClient := feed.NewClient(
		cfg.FootballBaseURL, cfg.FootballAPIKey,
		cfg.FootballLeague, cfg.FootballSeason,
		cfg.FootballReqPerMin, logger,
	)

	// Telegram
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("Telegram authorized", "username", botAPI.Self.UserName)
	notifier := notify.NewTelegram(botAPI, cfg.GroupID, logger)

	// Settlement and live monitoring
	engine := settle.NewEngine(fixtures, preds, profiles, notifier, logger)
	mon := monitor.New(fixtures, preds, feedClient, tracker, notifier, engine,
		cfg.LivePollInterval, logger)
	go mon.Run(ctx)

	// Bot front end with session eviction sweeper
	sessions := bot.NewSessions(30 * time.Minute)
	go sessions.Sweep(ctx, 10*time.Minute, logger)
	front := bot.New(botAPI, cfg, fixtures, profiles, preds, feedClient, notifier, sessions, logger)
	go front.Run(ctx)

	// Ops API server
	h := handler.New(fixtures, preds, pool)
	router := api.NewRouter(h, cfg)
	addr := fmt.Sprintf("%s:%d", cfg.OpsHost, cfg.OpsPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("Starting ops API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ops API failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ops API shutdown failed", "error", err)
	}
	logger.Info("Shutdown complete")
}
