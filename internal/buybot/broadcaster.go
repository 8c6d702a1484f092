package buybot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PurchaseFeed fetches recent purchases.
type PurchaseFeed interface {
	Recent(ctx context.Context) ([]Purchase, error)
}

// Dedupe remembers which purchases were already announced.
type Dedupe interface {
	Contains(key string) (bool, error)
	Add(key string) error
}

// Sender posts one announcement to one chat.
type Sender interface {
	SendBuy(chatID int64, caption string) error
}

// Broadcaster polls the purchase feed and announces each new qualifying buy
// to every configured chat.
type Broadcaster struct {
	feed         PurchaseFeed
	processed    Dedupe
	sender       Sender
	chatIDs      []int64
	minimumBuy   float64
	emojiDollars float64
	branding     Branding
	logger       *slog.Logger
}

// NewBroadcaster creates a buy broadcaster.
func NewBroadcaster(
	feed PurchaseFeed,
	processed Dedupe,
	sender Sender,
	chatIDs []int64,
	minimumBuy, emojiDollars float64,
	branding Branding,
	logger *slog.Logger,
) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		feed:         feed,
		processed:    processed,
		sender:       sender,
		chatIDs:      chatIDs,
		minimumBuy:   minimumBuy,
		emojiDollars: emojiDollars,
		branding:     branding,
		logger:       logger,
	}
}

// Run polls until ctx is cancelled. Intended to be called with `go`. Tick
// errors are logged; the next tick retries.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	b.logger.Info("Buy broadcaster started", "interval", interval, "chats", len(b.chatIDs))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Tick(ctx); err != nil {
				b.logger.Error("buy broadcaster tick failed", "error", err)
			}
		case <-ctx.Done():
			b.logger.Info("Buy broadcaster stopped")
			return
		}
	}
}

// Tick fetches the feed and announces each new buy at or above the minimum.
// A purchase is marked processed before its announcements go out, so a send
// failure never causes a re-announcement on the next tick.
func (b *Broadcaster) Tick(ctx context.Context) error {
	purchases, err := b.feed.Recent(ctx)
	if err != nil {
		return fmt.Errorf("fetch purchases: %w", err)
	}

	for _, p := range purchases {
		if p.PurchaseTotal < b.minimumBuy {
			continue
		}
		key := p.Key()
		if key == "" {
			b.logger.Warn("purchase has no id or tx hash, skipping")
			continue
		}

		seen, err := b.processed.Contains(key)
		if err != nil {
			return fmt.Errorf("check processed transactions: %w", err)
		}
		if seen {
			continue
		}
		if err := b.processed.Add(key); err != nil {
			return fmt.Errorf("record processed transaction: %w", err)
		}

		caption := Caption(p, b.branding, b.emojiDollars)
		for _, chatID := range b.chatIDs {
			if err := b.sender.SendBuy(chatID, caption); err != nil {
				b.logger.Warn("could not announce buy",
					"chat_id", chatID, "tx", key, "error", err)
			}
		}
		b.logger.Info("buy announced", "tx", key, "total_usd", p.PurchaseTotal)
	}
	return nil
}

// --------------------------------------------------------------------------
// Telegram sender
// --------------------------------------------------------------------------

// VideoSender posts the announcement video with caption and action buttons.
type VideoSender struct {
	api       *tgbotapi.BotAPI
	videoPath string
	branding  Branding
}

// NewVideoSender creates a sender that posts videoPath with each caption.
func NewVideoSender(api *tgbotapi.BotAPI, videoPath string, branding Branding) *VideoSender {
	return &VideoSender{api: api, videoPath: videoPath, branding: branding}
}

// SendBuy posts the video announcement to one chat.
func (s *VideoSender) SendBuy(chatID int64, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(s.videoPath))
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeHTML
	video.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Buy $"+s.branding.TokenSymbol, s.branding.WebsiteURL),
			tgbotapi.NewInlineKeyboardButtonURL("Stake $"+s.branding.TokenSymbol, s.branding.WebsiteURL),
		),
	)
	if _, err := s.api.Send(video); err != nil {
		return fmt.Errorf("send buy video to %d: %w", chatID, err)
	}
	return nil
}
