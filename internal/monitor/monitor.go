// Package monitor polls the live-score feed for tracked fixtures, diffs each
// observation against the last-known local state, and drives score-update
// broadcasts and final-whistle settlement.
//
// Per tracked fixture the monitor walks UNSEEN → LIVE → FINISHED. The
// FINISHED transition is terminal: the tracking entry is removed in the same
// tick that hands the fixture to settlement, which is what guarantees
// settlement runs at most once per fixture.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalpost-labs/matchday/internal/feed"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

// Feed statuses that mark a fixture as over. Case-insensitive exact match.
var finishedStatuses = map[string]struct{}{
	"match finished": {},
	"finished":       {},
	"full time":      {},
}

// FixtureSource is the tracked set of fixtures.
type FixtureSource interface {
	List() ([]store.Fixture, error)
	Get(id string) (*store.Fixture, error)
}

// PredictionSource exposes the stored predictions for a fixture.
type PredictionSource interface {
	ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Row, error)
}

// LiveFeed fetches the current state of all live matches.
type LiveFeed interface {
	Live(ctx context.Context) ([]feed.LiveMatch, error)
}

// Notifier delivers formatted messages. Sends are best-effort: a failure for
// one recipient never affects another.
type Notifier interface {
	SendUser(userID int64, html string) error
	SendGroup(html string) error
}

// Settler finalizes a finished fixture.
type Settler interface {
	Settle(ctx context.Context, fixtureID string, homeGoals, awayGoals int, counts prediction.Counts) error
}

// Monitor is the timer-driven live-score poller.
type Monitor struct {
	fixtures FixtureSource
	preds    PredictionSource
	feed     LiveFeed
	tracker  *store.Tracker
	notifier Notifier
	settler  Settler
	interval time.Duration
	logger   *slog.Logger
}

// New creates a monitor. interval is the poll period.
func New(
	fixtures FixtureSource,
	preds PredictionSource,
	liveFeed LiveFeed,
	tracker *store.Tracker,
	notifier Notifier,
	settler Settler,
	interval time.Duration,
	logger *slog.Logger,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		fixtures: fixtures,
		preds:    preds,
		feed:     liveFeed,
		tracker:  tracker,
		notifier: notifier,
		settler:  settler,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. Intended to be called with `go`. Any
// error inside a tick is logged and the tick abandoned; the next tick
// retries from scratch. Nothing here is allowed to kill the process.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Live monitor started", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil {
				m.logger.Error("live monitor tick failed", "error", err)
			}
		case <-ctx.Done():
			m.logger.Info("Live monitor stopped")
			return
		}
	}
}

// Tick runs one poll cycle: load the tracked set, fetch the live feed, diff
// per fixture, broadcast changes, settle finished matches, persist tracking
// state. A transport or parse failure abandons the whole tick with no
// partial application.
func (m *Monitor) Tick(ctx context.Context) error {
	fixtures, err := m.fixtures.List()
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	tracked := make(map[string]store.Fixture, len(fixtures))
	for _, f := range fixtures {
		tracked[f.ID] = f
	}

	live, err := m.feed.Live(ctx)
	if err != nil {
		return fmt.Errorf("fetch live feed: %w", err)
	}

	entries, err := m.tracker.Load()
	if err != nil {
		return fmt.Errorf("load tracking state: %w", err)
	}

	for _, match := range live {
		fixture, ok := tracked[match.FixtureID]
		if !ok {
			continue
		}

		entry, seen := entries[match.FixtureID]
		if !seen {
			rows, err := m.preds.ListByFixture(ctx, match.FixtureID)
			if err != nil {
				// Counts must be snapshotted from a successful scan; try
				// again next tick rather than freezing a partial tally.
				m.logger.Warn("prediction scan failed, deferring fixture",
					"fixture_id", match.FixtureID, "error", err)
				continue
			}
			entry = &store.TrackedMatch{
				HomeGoals: match.HomeGoals,
				AwayGoals: match.AwayGoals,
				Counts:    prediction.Tally(rows),
			}
			entries[match.FixtureID] = entry
			m.broadcastScore(ctx, fixture, match, entry.Counts)
		} else if match.HomeGoals != entry.HomeGoals || match.AwayGoals != entry.AwayGoals {
			// The entry's counts are the snapshot from first observation,
			// never recomputed.
			m.broadcastScore(ctx, fixture, match, entry.Counts)
		}

		entry.HomeGoals = match.HomeGoals
		entry.AwayGoals = match.AwayGoals

		if isFinished(match.Status) {
			counts := entry.Counts
			delete(entries, match.FixtureID)
			if err := m.settler.Settle(ctx, match.FixtureID, match.HomeGoals, match.AwayGoals, counts); err != nil {
				m.logger.Error("settlement failed",
					"fixture_id", match.FixtureID, "error", err)
			}
		}
	}

	if err := m.tracker.Save(entries); err != nil {
		return fmt.Errorf("save tracking state: %w", err)
	}
	return nil
}

func isFinished(status string) bool {
	_, ok := finishedStatuses[strings.ToLower(status)]
	return ok
}

// broadcastScore sends a live-score update: a DM to every predictor of the
// fixture, then one group message with the prediction-count breakdown.
// Per-recipient failures are logged and skipped.
func (m *Monitor) broadcastScore(ctx context.Context, fixture store.Fixture, match feed.LiveMatch, counts prediction.Counts) {
	userText := fmt.Sprintf(
		"⚽️ <b>Live Update for fixture #%s</b>\n"+
			"<b>%s</b> vs <b>%s</b>\n"+
			"Score: <b>%s</b>\n"+
			"Time: <b>%s</b>",
		fixture.ID, fixture.Home.Name, fixture.Away.Name,
		prediction.FormatScore(match.HomeGoals, match.AwayGoals), match.Elapsed,
	)

	rows, err := m.preds.ListByFixture(ctx, fixture.ID)
	if err != nil {
		m.logger.Warn("prediction scan for broadcast failed",
			"fixture_id", fixture.ID, "error", err)
	}
	for _, r := range rows {
		if err := m.notifier.SendUser(r.UserID, userText); err != nil {
			m.logger.Warn("could not send live update",
				"user_id", r.UserID, "fixture_id", fixture.ID, "error", err)
		}
	}

	groupText := fmt.Sprintf(
		"⚽️ <b>Live Update</b> for fixture #%s\n"+
			"<b>%s</b> vs <b>%s</b>\n"+
			"Score: <b>%s</b>  | Time: <b>%s</b>\n\n"+
			"<i>Prediction Counts:</i>\n"+
			"  • %s Win: %d\n"+
			"  • %s Win: %d\n"+
			"  • Draw: %d",
		fixture.ID, fixture.Home.Name, fixture.Away.Name,
		prediction.FormatScore(match.HomeGoals, match.AwayGoals), match.Elapsed,
		fixture.Home.Name, counts.Home,
		fixture.Away.Name, counts.Away,
		counts.Draw,
	)
	if err := m.notifier.SendGroup(groupText); err != nil {
		m.logger.Warn("could not send group update",
			"fixture_id", fixture.ID, "error", err)
	}
}
