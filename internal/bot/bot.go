// Package bot is the Telegram front end of the prediction game: the update
// loop, the user-facing prediction flows, and the admin panel. All multi-step
// conversation state lives in Sessions; everything durable goes through the
// stores.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goalpost-labs/matchday/internal/config"
	"github.com/goalpost-labs/matchday/internal/feed"
	"github.com/goalpost-labs/matchday/internal/notify"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

// Bot wires the Telegram update stream to the game's stores and flows.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	fixtures *store.FixtureStore
	profiles *store.ProfileStore
	preds    *prediction.Store
	feed     *feed.Client
	notifier *notify.Telegram
	sessions *Sessions
	logger   *slog.Logger

	// Upcoming fixtures shown in the last admin match-selection menu, kept
	// so a setmatch callback can resolve its fixture without refetching.
	// Replaced wholesale each time the menu is rendered.
	selectionMu sync.Mutex
	selection   map[string]feed.UpcomingFixture
}

// New creates the bot front end.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	fixtures *store.FixtureStore,
	profiles *store.ProfileStore,
	preds *prediction.Store,
	feedClient *feed.Client,
	notifier *notify.Telegram,
	sessions *Sessions,
	logger *slog.Logger,
) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:       api,
		cfg:       cfg,
		fixtures:  fixtures,
		profiles:  profiles,
		preds:     preds,
		feed:      feedClient,
		notifier:  notifier,
		sessions:  sessions,
		logger:    logger,
		selection: make(map[string]feed.UpcomingFixture),
	}
}

// Run consumes the long-poll update stream until ctx is cancelled. Intended
// to be called with `go`. Handler panics are not recovered; handlers must
// return errors instead.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started", "username", b.api.Self.UserName)
	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Telegram bot stopped")
			return
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(msg)
		case "admin":
			b.handleAdminCommand(msg)
		}
		return
	}

	// Non-command text from an admin who pressed Broadcast is the broadcast
	// payload.
	if b.cfg.IsAdmin(msg.From.ID) && b.sessions.TakeBroadcastWait(msg.From.ID) {
		b.handleBroadcastMessage(msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	data := cb.Data

	switch {
	// User flows.
	case data == "user_main_menu":
		b.answer(cb, "")
		b.showMainMenu(cb)
	case data == "user_play":
		b.answer(cb, "")
		b.showPlayMenu(ctx, cb)
	case strings.HasPrefix(data, "play_match:"):
		b.handlePlayMatch(ctx, cb, strings.TrimPrefix(data, "play_match:"))
	case strings.HasPrefix(data, "predict_home:"):
		b.handlePredictHome(cb, strings.TrimPrefix(data, "predict_home:"))
	case strings.HasPrefix(data, "predict_away:"):
		b.handlePredictAway(ctx, cb, strings.TrimPrefix(data, "predict_away:"))
	case data == "user_myfixtures":
		b.answer(cb, "")
		b.showMyFixtures(cb)
	case data == "user_profile":
		b.answer(cb, "")
		b.showProfile(ctx, cb)
	case data == "download_predictions":
		b.handleDownload(cb)
	case data == "user_administration":
		b.answer(cb, "")
		b.showAdministration(cb)
	case data == "user_faq":
		b.answer(cb, "")
		b.showFAQ(cb)

	// Admin flows. Every admin callback re-checks the allowlist; menus can
	// outlive a revoked admin.
	case strings.HasPrefix(data, "admin_") || strings.HasPrefix(data, "setmatch:") || strings.HasPrefix(data, "removematch:"):
		if !b.cfg.IsAdmin(cb.From.ID) {
			b.answer(cb, "Not authorized.")
			return
		}
		b.handleAdminCallback(ctx, cb)
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	switch {
	case data == "admin_main":
		b.answer(cb, "")
		b.showAdminMenu(cb)
	case data == "admin_set_match":
		b.answer(cb, "")
		b.showMatchSelection(ctx, cb)
	case strings.HasPrefix(data, "setmatch:"):
		b.handleSetMatch(ctx, cb, strings.TrimPrefix(data, "setmatch:"))
	case data == "admin_remove_match":
		b.answer(cb, "")
		b.showRemoveMenu(cb)
	case strings.HasPrefix(data, "removematch:"):
		b.handleRemoveMatch(cb, strings.TrimPrefix(data, "removematch:"))
	case data == "admin_fixtures":
		b.answer(cb, "")
		b.showFixtureInfo(ctx, cb)
	case data == "admin_participants":
		b.answer(cb, "")
		b.showParticipants(cb)
	case data == "admin_broadcast":
		b.answer(cb, "")
		b.handleBroadcastStart(cb)
	default:
		b.answer(cb, "")
	}
}

// --------------------------------------------------------------------------
// Telegram plumbing
// --------------------------------------------------------------------------

// answer acknowledges a callback query so the client stops its spinner.
// Non-empty text shows as a toast.
func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.logger.Warn("could not answer callback", "error", err)
	}
}

// alert acknowledges a callback with a modal alert.
func (b *Bot) alert(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text)); err != nil {
		b.logger.Warn("could not answer callback", "error", err)
	}
}

// edit replaces the text and keyboard of the message the callback came from,
// keeping menu navigation inside a single message.
func (b *Bot) edit(cb *tgbotapi.CallbackQuery, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, text, markup)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("could not edit message",
			"chat_id", cb.Message.Chat.ID, "error", err)
	}
}

// reply sends a fresh message with an optional keyboard.
func (b *Bot) reply(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("could not send message", "chat_id", chatID, "error", err)
	}
}

// kickoffTime converts a fixture's scheduling key back to its kickoff.
func kickoffTime(f store.Fixture) time.Time {
	return time.Unix(f.SchedulingKey+store.SchedulingKeyOffset, 0).UTC()
}
