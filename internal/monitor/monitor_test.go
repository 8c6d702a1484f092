package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalpost-labs/matchday/internal/feed"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/settle"
	"github.com/goalpost-labs/matchday/internal/store"
)

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeFixtures struct {
	fixtures []store.Fixture
}

func (f *fakeFixtures) List() ([]store.Fixture, error) { return f.fixtures, nil }

func (f *fakeFixtures) Get(id string) (*store.Fixture, error) {
	for i := range f.fixtures {
		if f.fixtures[i].ID == id {
			return &f.fixtures[i], nil
		}
	}
	return nil, store.ErrNotFound
}

type fakePreds struct {
	rows map[string][]prediction.Row
	err  error
}

func (f *fakePreds) ListByFixture(_ context.Context, fixtureID string) ([]prediction.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[fixtureID], nil
}

type fakeFeed struct {
	matches []feed.LiveMatch
	err     error
}

func (f *fakeFeed) Live(context.Context) ([]feed.LiveMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeNotifier struct {
	userMsgs  map[int64][]string
	groupMsgs []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userMsgs: make(map[int64][]string)}
}

func (f *fakeNotifier) SendUser(userID int64, html string) error {
	f.userMsgs[userID] = append(f.userMsgs[userID], html)
	return nil
}

func (f *fakeNotifier) SendGroup(html string) error {
	f.groupMsgs = append(f.groupMsgs, html)
	return nil
}

type settleCall struct {
	fixtureID string
	homeGoals int
	awayGoals int
	counts    prediction.Counts
}

type fakeSettler struct {
	calls []settleCall
}

func (f *fakeSettler) Settle(_ context.Context, fixtureID string, homeGoals, awayGoals int, counts prediction.Counts) error {
	f.calls = append(f.calls, settleCall{fixtureID, homeGoals, awayGoals, counts})
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func testFixture(id string) store.Fixture {
	return store.Fixture{
		ID:            id,
		Home:          store.Team{ID: 1, Name: "Arsenal"},
		Away:          store.Team{ID: 2, Name: "Chelsea"},
		SchedulingKey: 1000,
	}
}

func liveMatch(id string, home, away int, status string) feed.LiveMatch {
	return feed.LiveMatch{
		FixtureID: id,
		HomeGoals: home,
		AwayGoals: away,
		Status:    status,
		Elapsed:   "12:34",
	}
}

type testEnv struct {
	fixtures *fakeFixtures
	preds    *fakePreds
	feed     *fakeFeed
	tracker  *store.Tracker
	notifier *fakeNotifier
	settler  *fakeSettler
	monitor  *Monitor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		fixtures: &fakeFixtures{fixtures: []store.Fixture{testFixture("100")}},
		preds:    &fakePreds{rows: make(map[string][]prediction.Row)},
		feed:     &fakeFeed{},
		tracker:  store.NewTracker(t.TempDir()),
		notifier: newFakeNotifier(),
		settler:  &fakeSettler{},
	}
	env.monitor = New(env.fixtures, env.preds, env.feed, env.tracker,
		env.notifier, env.settler, 0, nil)
	return env
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestTickFirstObservationBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	env.preds.rows["100"] = []prediction.Row{
		{FixtureID: "100", UserID: 1, Score: "2 - 1"},
		{FixtureID: "100", UserID: 2, Score: "0 - 0"},
	}
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 0, 0, "First Half")}

	require.NoError(t, env.monitor.Tick(context.Background()))

	// Every predictor gets a DM, the group gets one summary.
	assert.Len(t, env.notifier.userMsgs[1], 1)
	assert.Len(t, env.notifier.userMsgs[2], 1)
	assert.Len(t, env.notifier.groupMsgs, 1)

	entries, err := env.tracker.Load()
	require.NoError(t, err)
	require.Contains(t, entries, "100")
	assert.Equal(t, prediction.Counts{Home: 1, Draw: 1}, entries["100"].Counts)
}

func TestTickUnchangedScoreIsQuiet(t *testing.T) {
	env := newTestEnv(t)
	env.preds.rows["100"] = []prediction.Row{{FixtureID: "100", UserID: 1, Score: "2 - 1"}}
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 1, 0, "First Half")}

	require.NoError(t, env.monitor.Tick(context.Background()))
	require.NoError(t, env.monitor.Tick(context.Background()))

	// One broadcast for first observation, none for the identical re-read.
	assert.Len(t, env.notifier.userMsgs[1], 1)
	assert.Len(t, env.notifier.groupMsgs, 1)
}

func TestTickCountsSnapshotIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	env.preds.rows["100"] = []prediction.Row{{FixtureID: "100", UserID: 1, Score: "2 - 1"}}
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 0, 0, "First Half")}
	require.NoError(t, env.monitor.Tick(context.Background()))

	// A prediction lands after the fixture went live. The snapshot must not
	// pick it up.
	env.preds.rows["100"] = append(env.preds.rows["100"],
		prediction.Row{FixtureID: "100", UserID: 2, Score: "0 - 2"})
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 1, 0, "First Half")}
	require.NoError(t, env.monitor.Tick(context.Background()))

	entries, err := env.tracker.Load()
	require.NoError(t, err)
	assert.Equal(t, prediction.Counts{Home: 1}, entries["100"].Counts)

	env.feed.matches = []feed.LiveMatch{liveMatch("100", 2, 0, "Match Finished")}
	require.NoError(t, env.monitor.Tick(context.Background()))

	require.Len(t, env.settler.calls, 1)
	assert.Equal(t, prediction.Counts{Home: 1}, env.settler.calls[0].counts)
}

func TestTickFinishedSettlesOnceAndRemovesEntry(t *testing.T) {
	env := newTestEnv(t)
	env.preds.rows["100"] = []prediction.Row{{FixtureID: "100", UserID: 1, Score: "2 - 1"}}
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 2, 1, "First Half")}
	require.NoError(t, env.monitor.Tick(context.Background()))

	env.feed.matches = []feed.LiveMatch{liveMatch("100", 2, 1, "Match Finished")}
	require.NoError(t, env.monitor.Tick(context.Background()))

	require.Len(t, env.settler.calls, 1)
	call := env.settler.calls[0]
	assert.Equal(t, "100", call.fixtureID)
	assert.Equal(t, 2, call.homeGoals)
	assert.Equal(t, 1, call.awayGoals)

	// The tracking entry is gone: settlement cannot fire twice.
	entries, err := env.tracker.Load()
	require.NoError(t, err)
	assert.NotContains(t, entries, "100")
}

func TestFinishedStatusMatching(t *testing.T) {
	assert.True(t, isFinished("Match Finished"))
	assert.True(t, isFinished("FINISHED"))
	assert.True(t, isFinished("Full Time"))
	assert.False(t, isFinished("First Half"))
	assert.False(t, isFinished("Halftime"))
	assert.False(t, isFinished("Match Finished (abandoned)"))
}

func TestTickFeedErrorAbandonsTick(t *testing.T) {
	env := newTestEnv(t)
	env.preds.rows["100"] = []prediction.Row{{FixtureID: "100", UserID: 1, Score: "2 - 1"}}
	env.feed.err = errors.New("upstream 500")

	err := env.monitor.Tick(context.Background())
	assert.Error(t, err)
	assert.Empty(t, env.notifier.groupMsgs)
	assert.Empty(t, env.settler.calls)

	// Recovery: the next tick starts from scratch.
	env.feed.err = nil
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 0, 0, "First Half")}
	require.NoError(t, env.monitor.Tick(context.Background()))
	assert.Len(t, env.notifier.groupMsgs, 1)
}

func TestTickIgnoresUntrackedMatches(t *testing.T) {
	env := newTestEnv(t)
	env.feed.matches = []feed.LiveMatch{liveMatch("999", 3, 3, "First Half")}

	require.NoError(t, env.monitor.Tick(context.Background()))

	assert.Empty(t, env.notifier.groupMsgs)
	entries, err := env.tracker.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTickPredictionScanFailureDefersFixture(t *testing.T) {
	env := newTestEnv(t)
	env.preds.err = errors.New("db down")
	env.feed.matches = []feed.LiveMatch{liveMatch("100", 0, 0, "First Half")}

	require.NoError(t, env.monitor.Tick(context.Background()))

	// No entry frozen with a partial tally, no broadcast.
	entries, err := env.tracker.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, env.notifier.groupMsgs)

	// Once the scan works, the fixture is picked up as unseen.
	env.preds.err = nil
	env.preds.rows["100"] = []prediction.Row{{FixtureID: "100", UserID: 1, Score: "0 - 0"}}
	require.NoError(t, env.monitor.Tick(context.Background()))
	entries, err = env.tracker.Load()
	require.NoError(t, err)
	assert.Contains(t, entries, "100")
}

// --------------------------------------------------------------------------
// End to end: live observation through settlement
// --------------------------------------------------------------------------

type e2eFixtures struct {
	fixtures map[string]store.Fixture
}

func (f *e2eFixtures) List() ([]store.Fixture, error) {
	out := make([]store.Fixture, 0, len(f.fixtures))
	for _, fx := range f.fixtures {
		out = append(out, fx)
	}
	return out, nil
}

func (f *e2eFixtures) Get(id string) (*store.Fixture, error) {
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &fx, nil
}

func (f *e2eFixtures) Remove(id string) error {
	delete(f.fixtures, id)
	return nil
}

type e2ePreds struct {
	rows        []prediction.Row
	finalScores map[int64]string
	wins        map[int64]int
	losses      map[int64]int
}

func (f *e2ePreds) ListByFixture(context.Context, string) ([]prediction.Row, error) {
	return f.rows, nil
}

func (f *e2ePreds) SetFinalScore(_ context.Context, _ string, userID int64, finalScore string) error {
	f.finalScores[userID] = finalScore
	return nil
}

func (f *e2ePreds) RecordResult(_ context.Context, userID int64, _ string, won bool) error {
	if won {
		f.wins[userID]++
	} else {
		f.losses[userID]++
	}
	return nil
}

type noopProfiles struct{}

func (noopProfiles) SetFinalScore(int64, string, string) error { return nil }

func TestEndToEndLiveToSettlement(t *testing.T) {
	fixtures := &e2eFixtures{fixtures: map[string]store.Fixture{
		"100": {ID: "100", Home: store.Team{Name: "A"}, Away: store.Team{Name: "B"}},
	}}
	preds := &e2ePreds{
		rows: []prediction.Row{
			{FixtureID: "100", UserID: 1, Score: "1 - 0", DisplayName: "alice"},
			{FixtureID: "100", UserID: 2, Score: "0 - 0", DisplayName: "bob"},
		},
		finalScores: make(map[int64]string),
		wins:        make(map[int64]int),
		losses:      make(map[int64]int),
	}
	tracker := store.NewTracker(t.TempDir())
	notifier := newFakeNotifier()
	liveFeed := &fakeFeed{}
	engine := settle.NewEngine(fixtures, preds, noopProfiles{}, notifier, nil)
	mon := New(fixtures, preds, liveFeed, tracker, notifier, engine, 0, nil)

	// Kickoff: fixture observed at 0-0.
	liveFeed.matches = []feed.LiveMatch{liveMatch("100", 0, 0, "First Half")}
	require.NoError(t, mon.Tick(context.Background()))

	entries, err := tracker.Load()
	require.NoError(t, err)
	assert.Equal(t, prediction.Counts{Home: 1, Draw: 1}, entries["100"].Counts)

	// Final whistle at 1-0.
	liveFeed.matches = []feed.LiveMatch{liveMatch("100", 1, 0, "Match Finished")}
	require.NoError(t, mon.Tick(context.Background()))

	// Exact predictor wins, draw predictor loses, each scored exactly once.
	assert.Equal(t, 1, preds.wins[1])
	assert.Zero(t, preds.losses[1])
	assert.Equal(t, 1, preds.losses[2])
	assert.Zero(t, preds.wins[2])
	assert.Equal(t, "1 - 0", preds.finalScores[1])
	assert.Equal(t, "1 - 0", preds.finalScores[2])

	// Fixture gone from the store and from tracking.
	assert.Empty(t, fixtures.fixtures)
	entries, err = tracker.Load()
	require.NoError(t, err)
	assert.NotContains(t, entries, "100")

	// One settlement summary with the snapshot counts and the final tally.
	summary := notifier.groupMsgs[len(notifier.groupMsgs)-1]
	assert.Contains(t, summary, "Home Predictions: 1")
	assert.Contains(t, summary, "Draw Predictions: 1")
	assert.Contains(t, summary, "Won 👑: <b>1</b>")
	assert.Contains(t, summary, "Lost 🔴: <b>1</b>")

	// A further tick with the match gone from the feed is quiet.
	liveFeed.matches = nil
	require.NoError(t, mon.Tick(context.Background()))
	assert.Equal(t, 1, preds.wins[1])
}

func TestTickNoFixturesSkipsFeed(t *testing.T) {
	env := newTestEnv(t)
	env.fixtures.fixtures = nil
	env.feed.err = errors.New("should not be called")

	assert.NoError(t, env.monitor.Tick(context.Background()))
}
