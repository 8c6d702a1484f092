package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

const maxGoalsPerSide = 10

// handleStart registers the user and shows the main menu. A Telegram
// username is required: display names on the leaderboard come from it.
func (b *Bot) handleStart(msg *tgbotapi.Message) {
	if msg.From.UserName == "" {
		b.reply(msg.Chat.ID,
			"⚠️ You need a Telegram username to play.\n"+
				"Set one in Telegram settings, then send /start again.", nil)
		return
	}

	if _, err := b.profiles.Upsert(msg.From.ID, msg.From.UserName); err != nil {
		b.logger.Error("could not upsert profile", "user_id", msg.From.ID, "error", err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.", nil)
		return
	}

	markup := mainMenuMarkup()
	b.reply(msg.Chat.ID, mainMenuText(msg.From.UserName), &markup)
}

func (b *Bot) showMainMenu(cb *tgbotapi.CallbackQuery) {
	b.edit(cb, mainMenuText(cb.From.UserName), mainMenuMarkup())
}

func mainMenuText(username string) string {
	return fmt.Sprintf(
		"👋 Welcome, <b>%s</b>!\n\n"+
			"Predict exact scorelines for upcoming matches and earn <b>%d points</b> per correct prediction.",
		username, prediction.PointsPerWin,
	)
}

func mainMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚽️ Play", "user_play"),
			tgbotapi.NewInlineKeyboardButtonData("📋 My Fixtures", "user_myfixtures"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "user_profile"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛠 Administration", "user_administration"),
			tgbotapi.NewInlineKeyboardButtonData("❓ FAQ", "user_faq"),
		),
	)
}

// --------------------------------------------------------------------------
// Play flow
// --------------------------------------------------------------------------

// showPlayMenu lists open fixtures, marking the ones the user already
// predicted.
func (b *Bot) showPlayMenu(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	fixtures, err := b.fixtures.List()
	if err != nil {
		b.logger.Error("could not list fixtures", "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("user_main_menu"))
		return
	}
	if len(fixtures) == 0 {
		b.edit(cb, "No matches are open for predictions right now. Check back soon!",
			backRow("user_main_menu"))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range fixtures {
		label := fmt.Sprintf("%s  %s vs %s",
			kickoffTime(f).Format("02 Jan"), f.Home.Name, f.Away.Name)
		done, err := b.preds.Has(ctx, f.ID, cb.From.ID)
		if err != nil {
			b.logger.Warn("could not check prediction", "fixture_id", f.ID, "error", err)
		}
		if done {
			label += " 🔴"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "play_match:"+f.ID)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "user_main_menu")))

	b.edit(cb, "⚽️ <b>Pick a match to predict:</b>\n🔴 = already predicted",
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handlePlayMatch(ctx context.Context, cb *tgbotapi.CallbackQuery, fixtureID string) {
	fixture, err := b.fixtures.Get(fixtureID)
	if errors.Is(err, store.ErrNotFound) {
		b.alert(cb, "That match is no longer open.")
		return
	}
	if err != nil {
		b.logger.Error("could not load fixture", "fixture_id", fixtureID, "error", err)
		b.answer(cb, "Something went wrong.")
		return
	}

	done, err := b.preds.Has(ctx, fixtureID, cb.From.ID)
	if err != nil {
		b.logger.Error("could not check prediction", "fixture_id", fixtureID, "error", err)
		b.answer(cb, "Something went wrong.")
		return
	}
	if done {
		b.alert(cb, "You already predicted this match. Predictions are final.")
		return
	}

	b.answer(cb, "")
	b.sessions.StartPrediction(cb.From.ID, fixtureID)
	text := fmt.Sprintf(
		"<b>%s</b> vs <b>%s</b>\n\nHow many goals will <b>%s</b> score?",
		fixture.Home.Name, fixture.Away.Name, fixture.Home.Name,
	)
	b.edit(cb, text, scoreKeyboard("predict_home", fixtureID))
}

func (b *Bot) handlePredictHome(cb *tgbotapi.CallbackQuery, payload string) {
	score, fixtureID, ok := splitScorePayload(payload)
	if !ok {
		b.answer(cb, "")
		return
	}
	fixture, err := b.fixtures.Get(fixtureID)
	if err != nil {
		b.alert(cb, "That match is no longer open.")
		return
	}

	b.answer(cb, "")
	b.sessions.SetHomeScore(cb.From.ID, fixtureID, score)
	text := fmt.Sprintf(
		"<b>%s</b> vs <b>%s</b>\n%s: <b>%d</b>\n\nHow many goals will <b>%s</b> score?",
		fixture.Home.Name, fixture.Away.Name, fixture.Home.Name, score, fixture.Away.Name,
	)
	b.edit(cb, text, scoreKeyboard("predict_away", fixtureID))
}

func (b *Bot) handlePredictAway(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string) {
	awayScore, fixtureID, ok := splitScorePayload(payload)
	if !ok {
		b.answer(cb, "")
		return
	}

	homeScore, ok := b.sessions.TakePrediction(cb.From.ID, fixtureID)
	if !ok {
		// Abandoned and evicted, or an out-of-order tap. Restart the flow.
		b.alert(cb, "That prediction timed out, please start again.")
		return
	}

	fixture, err := b.fixtures.Get(fixtureID)
	if err != nil {
		b.alert(cb, "That match is no longer open.")
		return
	}

	score := prediction.FormatScore(homeScore, awayScore)
	matchName := fmt.Sprintf("%s vs %s", fixture.Home.Name, fixture.Away.Name)

	err = b.preds.Create(ctx, prediction.Row{
		FixtureID:   fixtureID,
		UserID:      cb.From.ID,
		Score:       score,
		DisplayName: cb.From.UserName,
	})
	if errors.Is(err, prediction.ErrAlreadyPredicted) {
		// Raced a second flow for the same fixture; the first one stands.
		b.alert(cb, "You already predicted this match. Predictions are final.")
		return
	}
	if err != nil {
		b.logger.Error("could not store prediction",
			"fixture_id", fixtureID, "user_id", cb.From.ID, "error", err)
		b.alert(cb, "Could not save your prediction, please try again.")
		return
	}
	if err := b.profiles.PutPrediction(cb.From.ID, cb.From.UserName, fixtureID, matchName, score); err != nil {
		b.logger.Warn("could not mirror prediction to profile",
			"fixture_id", fixtureID, "user_id", cb.From.ID, "error", err)
	}

	b.answer(cb, "Prediction saved!")
	text := fmt.Sprintf(
		"✅ <b>Prediction saved!</b>\n\n"+
			"<b>%s</b>\nYour prediction: <b>%s</b>\n\n"+
			"You'll get live updates once the match kicks off. Good luck! 🍀",
		matchName, score,
	)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚽️ Play Another", "user_play"),
			tgbotapi.NewInlineKeyboardButtonData("« Main Menu", "user_main_menu"),
		),
	)
	b.edit(cb, text, markup)
}

// scoreKeyboard renders 0..maxGoalsPerSide in rows of four, plus a back
// button that abandons the flow.
func scoreKeyboard(prefix, fixtureID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for n := 0; n <= maxGoalsPerSide; n++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(n), fmt.Sprintf("%s:%d:%s", prefix, n, fixtureID)))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Cancel", "user_play")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// splitScorePayload parses "N:fixtureID" callback payloads.
func splitScorePayload(payload string) (score int, fixtureID string, ok bool) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 0 || n > maxGoalsPerSide {
		return 0, "", false
	}
	return n, parts[1], true
}

// --------------------------------------------------------------------------
// My Fixtures / Profile
// --------------------------------------------------------------------------

// showMyFixtures lists the user's open predictions: those whose fixture has
// not settled yet.
func (b *Bot) showMyFixtures(cb *tgbotapi.CallbackQuery) {
	profile, err := b.profiles.Get(cb.From.ID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(profile.Predictions) == 0) {
		b.edit(cb, "You have no predictions yet. Hit Play to make one!",
			backRow("user_main_menu"))
		return
	}
	if err != nil {
		b.logger.Error("could not load profile", "user_id", cb.From.ID, "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("user_main_menu"))
		return
	}

	var open []string
	for _, p := range sortedPredictions(profile) {
		if p.FinalScore == "" {
			open = append(open, fmt.Sprintf("• <b>%s</b> — your prediction: <b>%s</b>", p.Match, p.Prediction))
		}
	}
	if len(open) == 0 {
		b.edit(cb, "All your predicted matches have finished. Hit Play for the next round!",
			backRow("user_main_menu"))
		return
	}
	b.edit(cb, "📋 <b>Your open predictions:</b>\n\n"+strings.Join(open, "\n"),
		backRow("user_main_menu"))
}

func (b *Bot) showProfile(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	stats, err := b.preds.GetStats(ctx, cb.From.ID)
	if errors.Is(err, prediction.ErrNotFound) {
		b.edit(cb,
			"👤 <b>Your Profile</b>\n\nNo settled predictions yet — your stats appear after your first match finishes.",
			backRow("user_main_menu"))
		return
	}
	if err != nil {
		b.logger.Error("could not load stats", "user_id", cb.From.ID, "error", err)
		b.edit(cb, "Something went wrong, please try again.", backRow("user_main_menu"))
		return
	}

	text := fmt.Sprintf(
		"👤 <b>Your Profile</b>\n\n"+
			"Points: <b>%d</b>\n"+
			"Won 👑: <b>%d</b>\n"+
			"Lost 🔴: <b>%d</b>\n"+
			"Rank: <b>%d</b> of <b>%d</b>",
		stats.Points, stats.Won, stats.Lost, stats.Rank, stats.Total,
	)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Download Predictions", "download_predictions"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", "user_main_menu"),
		),
	)
	b.edit(cb, text, markup)
}

// handleDownload sends the user's full prediction history as a text file.
func (b *Bot) handleDownload(cb *tgbotapi.CallbackQuery) {
	profile, err := b.profiles.Get(cb.From.ID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(profile.Predictions) == 0) {
		b.alert(cb, "Nothing to download yet.")
		return
	}
	if err != nil {
		b.logger.Error("could not load profile", "user_id", cb.From.ID, "error", err)
		b.answer(cb, "Something went wrong.")
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Predictions for %s\n\n", profile.Username)
	for _, p := range sortedPredictions(profile) {
		final := p.FinalScore
		if final == "" {
			final = "not finished"
		}
		fmt.Fprintf(&buf, "%s\n  predicted: %s\n  final:     %s\n\n", p.Match, p.Prediction, final)
	}

	b.answer(cb, "")
	err = b.notifier.SendDocument(cb.Message.Chat.ID, "predictions.txt", buf.Bytes(),
		"Your prediction history")
	if err != nil {
		b.logger.Warn("could not send predictions file", "user_id", cb.From.ID, "error", err)
	}
}

// sortedPredictions returns profile predictions in a stable order for
// display, sorted by match name.
func sortedPredictions(p *store.Profile) []*store.ProfilePrediction {
	out := make([]*store.ProfilePrediction, 0, len(p.Predictions))
	for _, pred := range p.Predictions {
		out = append(out, pred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Match < out[j].Match })
	return out
}

// --------------------------------------------------------------------------
// Static pages
// --------------------------------------------------------------------------

func (b *Bot) showAdministration(cb *tgbotapi.CallbackQuery) {
	b.edit(cb,
		"🛠 <b>Administration</b>\n\n"+
			"Questions, problems, or business inquiries? Contact the admins directly through the group chat.",
		backRow("user_main_menu"))
}

func (b *Bot) showFAQ(cb *tgbotapi.CallbackQuery) {
	text := fmt.Sprintf(
		"❓ <b>FAQ</b>\n\n"+
			"<b>How do I win?</b>\n"+
			"Predict the exact final score. The right winner with the wrong score counts as a loss.\n\n"+
			"<b>How many points is a win?</b>\n"+
			"%d points per exact prediction.\n\n"+
			"<b>Can I change a prediction?</b>\n"+
			"No — predictions are final once saved.\n\n"+
			"<b>When do I get updates?</b>\n"+
			"You get a DM on every goal and at the final whistle of matches you predicted.",
		prediction.PointsPerWin,
	)
	b.edit(cb, text, backRow("user_main_menu"))
}

func backRow(target string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", target),
		),
	)
}
