// Package settle finalizes finished fixtures: it scores every prediction
// against the final result, updates profiles and lifetime stats, removes the
// fixture from the tracked set, and fans out result notifications.
package settle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

// FixtureSource reads and removes tracked fixtures.
type FixtureSource interface {
	Get(id string) (*store.Fixture, error)
	Remove(id string) error
}

// PredictionStore scans and finalizes predictions and records results.
type PredictionStore interface {
	ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Row, error)
	SetFinalScore(ctx context.Context, fixtureID string, userID int64, finalScore string) error
	RecordResult(ctx context.Context, userID int64, displayName string, won bool) error
}

// ProfileWriter mirrors final scores into per-user profile files.
type ProfileWriter interface {
	SetFinalScore(userID int64, fixtureID, finalScore string) error
}

// Notifier delivers result messages, best-effort per recipient.
type Notifier interface {
	SendUser(userID int64, html string) error
	SendGroup(html string) error
}

// Engine settles fixtures. It is invoked exactly once per fixture by the
// monitor's finished transition; it keeps no state of its own and re-running
// it for the same fixture would double-count wins and losses. Single
// delivery is the monitor's job, not enforced here.
type Engine struct {
	fixtures FixtureSource
	preds    PredictionStore
	profiles ProfileWriter
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine creates a settlement engine.
func NewEngine(fixtures FixtureSource, preds PredictionStore, profiles ProfileWriter, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fixtures: fixtures,
		preds:    preds,
		profiles: profiles,
		notifier: notifier,
		logger:   logger,
	}
}

// Settle scores every prediction for the fixture against the final result,
// writes final scores and stats, removes the fixture from the store, and
// sends one group summary. A win is an exact scoreline match only; the
// correct outcome with the wrong score is a loss. Not transactional: a crash
// mid-scan leaves some users scored and others not.
func (e *Engine) Settle(ctx context.Context, fixtureID string, homeGoals, awayGoals int, counts prediction.Counts) error {
	fixture, err := e.fixtures.Get(fixtureID)
	if errors.Is(err, store.ErrNotFound) {
		// Should not happen given the monitor's invariants.
		e.logger.Warn("settle called for unknown fixture", "fixture_id", fixtureID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up fixture: %w", err)
	}

	rows, err := e.preds.ListByFixture(ctx, fixtureID)
	if err != nil {
		return fmt.Errorf("scan predictions: %w", err)
	}

	finalScore := prediction.FormatScore(homeGoals, awayGoals)
	wonCount, lostCount := 0, 0

	for _, r := range rows {
		userText := fmt.Sprintf(
			"🏁 <b>The match %s vs %s has finished!</b>\n"+
				"Final Score: <b>%s</b>\n"+
				"Your Prediction: <b>%s</b>\n\n"+
				"Thanks for playing!",
			fixture.Home.Name, fixture.Away.Name, finalScore, r.Score,
		)
		if err := e.notifier.SendUser(r.UserID, userText); err != nil {
			e.logger.Warn("could not send final result",
				"user_id", r.UserID, "fixture_id", fixtureID, "error", err)
		}

		if err := e.preds.SetFinalScore(ctx, fixtureID, r.UserID, finalScore); err != nil {
			e.logger.Warn("could not finalize prediction row",
				"user_id", r.UserID, "fixture_id", fixtureID, "error", err)
		}
		if err := e.profiles.SetFinalScore(r.UserID, fixtureID, finalScore); err != nil {
			e.logger.Warn("could not finalize profile prediction",
				"user_id", r.UserID, "fixture_id", fixtureID, "error", err)
		}

		won := prediction.Exact(r.Score, homeGoals, awayGoals)
		if won {
			wonCount++
		} else {
			lostCount++
		}

		name := r.DisplayName
		if name == "" {
			name = fmt.Sprintf("User%d", r.UserID)
		}
		if err := e.preds.RecordResult(ctx, r.UserID, name, won); err != nil {
			e.logger.Warn("could not record result",
				"user_id", r.UserID, "fixture_id", fixtureID, "error", err)
		}
	}

	// Remove unconditionally, even if some sends failed above.
	if err := e.fixtures.Remove(fixtureID); err != nil {
		e.logger.Warn("could not remove settled fixture",
			"fixture_id", fixtureID, "error", err)
	}

	groupText := fmt.Sprintf(
		"🏁 <b>%s vs %s</b> just finished!\n"+
			"Final Score: <b>%s</b>\n"+
			"Home Predictions: %d\n"+
			"Away Predictions: %d\n"+
			"Draw Predictions: %d\n\n"+
			"Won 👑: <b>%d</b>  |  Lost 🔴: <b>%d</b>",
		fixture.Home.Name, fixture.Away.Name, finalScore,
		counts.Home, counts.Away, counts.Draw,
		wonCount, lostCount,
	)
	if err := e.notifier.SendGroup(groupText); err != nil {
		e.logger.Warn("could not send settlement summary",
			"fixture_id", fixtureID, "error", err)
	}

	e.logger.Info("fixture settled",
		"fixture_id", fixtureID, "final_score", finalScore,
		"won", wonCount, "lost", lostCount)
	return nil
}
