package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goalpost-labs/matchday/internal/feed"
	"github.com/goalpost-labs/matchday/internal/store"
)

// handleAdminCommand opens the admin panel for allowlisted users. Everyone
// else gets silence, same as an unknown command.
func (b *Bot) handleAdminCommand(msg *tgbotapi.Message) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return
	}
	markup := adminMenuMarkup()
	b.reply(msg.Chat.ID, adminMenuText(), &markup)
}

func (b *Bot) showAdminMenu(cb *tgbotapi.CallbackQuery) {
	b.edit(cb, adminMenuText(), adminMenuMarkup())
}

func adminMenuText() string {
	return "🛠 <b>Admin Panel</b>\n\nManage fixtures, check participation, or broadcast to all players."
}

func adminMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Set Match", "admin_set_match"),
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove Match", "admin_remove_match"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Fixtures", "admin_fixtures"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Participants", "admin_participants"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 Broadcast", "admin_broadcast"),
		),
	)
}

// --------------------------------------------------------------------------
// Set / remove match
// --------------------------------------------------------------------------

// showMatchSelection fetches upcoming fixtures from the feed and lists them,
// flagging the ones already set. The fetched batch is cached so setmatch
// callbacks can resolve team names and kickoff without another feed call.
func (b *Bot) showMatchSelection(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	window := time.Duration(b.cfg.FixtureWindowDays) * 24 * time.Hour
	upcoming, err := b.feed.Upcoming(ctx, window)
	if err != nil {
		b.logger.Error("could not fetch upcoming fixtures", "error", err)
		b.edit(cb, "Could not reach the fixtures feed, try again in a minute.",
			backRow("admin_main"))
		return
	}
	if len(upcoming) == 0 {
		b.edit(cb, fmt.Sprintf("No upcoming fixtures in the next %d days.", b.cfg.FixtureWindowDays),
			backRow("admin_main"))
		return
	}

	existing, err := b.fixtures.List()
	if err != nil {
		b.logger.Error("could not list fixtures", "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("admin_main"))
		return
	}
	set := make(map[string]bool, len(existing))
	for _, f := range existing {
		set[f.ID] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	b.selectionMu.Lock()
	b.selection = make(map[string]feed.UpcomingFixture, len(upcoming))
	for _, u := range upcoming {
		b.selection[u.ID] = u
		label := fmt.Sprintf("%s  %s vs %s",
			u.Kickoff.Format("02 Jan 15:04"), u.Home.Name, u.Away.Name)
		if set[u.ID] {
			label = "🔴 " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "setmatch:"+u.ID)))
	}
	b.selectionMu.Unlock()
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "admin_main")))

	b.edit(cb, "➕ <b>Pick a match to open for predictions:</b>\n🔴 = already set",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleSetMatch(ctx context.Context, cb *tgbotapi.CallbackQuery, fixtureID string) {
	b.selectionMu.Lock()
	u, ok := b.selection[fixtureID]
	b.selectionMu.Unlock()
	if !ok {
		b.alert(cb, "That menu expired, open Set Match again.")
		return
	}

	f := store.Fixture{
		ID:            fixtureID,
		Home:          store.Team{ID: u.Home.ID, Name: u.Home.Name},
		Away:          store.Team{ID: u.Away.ID, Name: u.Away.Name},
		SchedulingKey: u.Timestamp - store.SchedulingKeyOffset,
	}
	err := b.fixtures.Add(f)
	if errors.Is(err, store.ErrExists) {
		b.alert(cb, "That match is already set.")
		return
	}
	if err != nil {
		b.logger.Error("could not add fixture", "fixture_id", fixtureID, "error", err)
		b.alert(cb, "Could not set the match, please try again.")
		return
	}

	b.logger.Info("fixture set",
		"fixture_id", fixtureID, "home", f.Home.Name, "away", f.Away.Name)
	b.answer(cb, "Match set!")
	b.showMatchSelection(ctx, cb)
}

func (b *Bot) showRemoveMenu(cb *tgbotapi.CallbackQuery) {
	fixtures, err := b.fixtures.List()
	if err != nil {
		b.logger.Error("could not list fixtures", "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("admin_main"))
		return
	}
	if len(fixtures) == 0 {
		b.edit(cb, "No fixtures are currently set.", backRow("admin_main"))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range fixtures {
		label := fmt.Sprintf("%s  %s vs %s",
			kickoffTime(f).Format("02 Jan"), f.Home.Name, f.Away.Name)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "removematch:"+f.ID)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "admin_main")))

	b.edit(cb, "➖ <b>Pick a match to remove:</b>\nStored predictions stay in place, but the match stops being tracked.",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleRemoveMatch(cb *tgbotapi.CallbackQuery, fixtureID string) {
	err := b.fixtures.Remove(fixtureID)
	if errors.Is(err, store.ErrNotFound) {
		b.alert(cb, "That match was already removed.")
		return
	}
	if err != nil {
		b.logger.Error("could not remove fixture", "fixture_id", fixtureID, "error", err)
		b.alert(cb, "Could not remove the match, please try again.")
		return
	}

	b.logger.Info("fixture removed", "fixture_id", fixtureID)
	b.answer(cb, "Match removed.")
	b.showRemoveMenu(cb)
}

// --------------------------------------------------------------------------
// Info / broadcast
// --------------------------------------------------------------------------

// showFixtureInfo lists set fixtures with their prediction counts.
func (b *Bot) showFixtureInfo(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	fixtures, err := b.fixtures.List()
	if err != nil {
		b.logger.Error("could not list fixtures", "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("admin_main"))
		return
	}
	if len(fixtures) == 0 {
		b.edit(cb, "No fixtures are currently set.", backRow("admin_main"))
		return
	}

	var lines []string
	for _, f := range fixtures {
		n, err := b.preds.CountByFixture(ctx, f.ID)
		if err != nil {
			b.logger.Warn("could not count predictions", "fixture_id", f.ID, "error", err)
		}
		lines = append(lines, fmt.Sprintf(
			"• <b>%s vs %s</b>\n  %s — %d prediction(s)",
			f.Home.Name, f.Away.Name, kickoffTime(f).Format("02 Jan 15:04 MST"), n))
	}
	b.edit(cb, "📋 <b>Current fixtures:</b>\n\n"+strings.Join(lines, "\n"),
		backRow("admin_main"))
}

func (b *Bot) showParticipants(cb *tgbotapi.CallbackQuery) {
	n, err := b.profiles.Count()
	if err != nil {
		b.logger.Error("could not count participants", "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("admin_main"))
		return
	}
	b.edit(cb, fmt.Sprintf("👥 Registered players: <b>%d</b>", n),
		backRow("admin_main"))
}

// handleBroadcastStart arms the broadcast flow: the admin's next plain text
// message goes to every registered player.
func (b *Bot) handleBroadcastStart(cb *tgbotapi.CallbackQuery) {
	b.sessions.SetBroadcastWait(cb.From.ID)
	b.edit(cb,
		"📣 <b>Broadcast</b>\n\nSend the message you want delivered to every registered player. HTML formatting is supported.",
		backRow("admin_main"))
}

// handleBroadcastMessage fans the admin's text out to every registered user.
// Called only after TakeBroadcastWait confirmed the armed state.
func (b *Bot) handleBroadcastMessage(msg *tgbotapi.Message) {
	ids, err := b.profiles.UserIDs()
	if err != nil {
		b.logger.Error("could not list users for broadcast", "error", err)
		b.reply(msg.Chat.ID, "Could not load the player list, broadcast aborted.", nil)
		return
	}

	sent := 0
	for _, id := range ids {
		if err := b.notifier.SendUser(id, msg.Text); err != nil {
			b.logger.Warn("broadcast delivery failed", "user_id", id, "error", err)
			continue
		}
		sent++
	}

	b.logger.Info("broadcast sent", "recipients", sent, "total", len(ids))
	markup := adminMenuMarkup()
	b.reply(msg.Chat.ID,
		fmt.Sprintf("📣 Broadcast delivered to <b>%d</b> of <b>%d</b> players.", sent, len(ids)),
		&markup)
}
