// Command buycast watches the token purchase feed and announces every new
// qualifying buy to the configured Telegram chats.
//
// Usage:
//
//	buycast
//	MINIMUM_BUY=50 BUY_POLL_SECONDS=15 buycast
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/goalpost-labs/matchday/internal/buybot"
	"github.com/goalpost-labs/matchday/internal/config"
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
	if err := cfg.RequireBuycast(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BuycastToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("Telegram authorized", "username", botAPI.Self.UserName)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	branding := buybot.Branding{
		TokenSymbol:   cfg.BuyTokenSymbol,
		WebsiteURL:    cfg.BuyWebsiteURL,
		CommunityURL:  cfg.BuyCommunityURL,
		TwitterURL:    cfg.BuyTwitterURL,
		WhitepaperURL: cfg.BuyWhitepaperURL,
	}

	broadcaster := buybot.NewBroadcaster(
		buybot.NewClient(cfg.PurchaseFeedURL),
		store.NewProcessedTxStore(cfg.DataDir),
		buybot.NewVideoSender(botAPI, cfg.BuyVideoPath, branding),
		cfg.BuycastChatIDs,
		cfg.MinimumBuy, cfg.EmojiDollars,
		branding,
		logger,
	)

	broadcaster.Run(ctx, cfg.BuyPollInterval)
}
