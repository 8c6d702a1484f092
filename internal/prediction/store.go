package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Points awarded for an exact-scoreline win. Losses score nothing.
const PointsPerWin = 5

// ErrNotFound is returned when a user has no stats row yet.
var ErrNotFound = errors.New("prediction: not found")

// ErrAlreadyPredicted is returned by Create when the user has a prediction
// for the fixture. Predictions are final once stored.
var ErrAlreadyPredicted = errors.New("prediction: already predicted")

// Row is a single stored prediction, keyed by (fixture_id, user_id).
type Row struct {
	FixtureID   string
	UserID      int64
	Score       string // "H - A"
	DisplayName string
	FinalScore  *string // set exactly once at settlement
}

// Stats is a user's lifetime record across settled fixtures.
type Stats struct {
	UserID      int64
	DisplayName string
	Won         int
	Lost        int
	Points      int
}

// RankedStats is Stats plus the user's leaderboard position.
type RankedStats struct {
	Stats
	Rank  int
	Total int
}

// Store persists predictions and user stats in Postgres. One relation keyed
// by (fixture_id, user_id) replaces the per-fixture tables the game used to
// create on the fly.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a prediction store over an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Put inserts or replaces a user's prediction for a fixture.
func (s *Store) Put(ctx context.Context, r Row) error {
	_, err := s.pool.Exec(ctx, "upsert_prediction", r.FixtureID, r.UserID, r.Score, r.DisplayName)
	if err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	return nil
}

// Create stores a first-time prediction. Unlike Put it refuses to replace:
// ErrAlreadyPredicted when the user has one for this fixture.
func (s *Store) Create(ctx context.Context, r Row) error {
	exists, err := s.Has(ctx, r.FixtureID, r.UserID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyPredicted
	}
	return s.Put(ctx, r)
}

// Has reports whether a user has already predicted a fixture.
func (s *Store) Has(ctx context.Context, fixtureID string, userID int64) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "has_prediction", fixtureID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check prediction: %w", err)
	}
	return true, nil
}

// ListByFixture returns every prediction stored for a fixture.
func (s *Store) ListByFixture(ctx context.Context, fixtureID string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, "predictions_by_fixture", fixtureID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		r := Row{FixtureID: fixtureID}
		if err := rows.Scan(&r.UserID, &r.Score, &r.DisplayName, &r.FinalScore); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountByFixture returns how many predictions a fixture has.
func (s *Store) CountByFixture(ctx context.Context, fixtureID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "count_predictions", fixtureID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return n, nil
}

// SetFinalScore writes the final score onto an existing prediction row.
func (s *Store) SetFinalScore(ctx context.Context, fixtureID string, userID int64, finalScore string) error {
	_, err := s.pool.Exec(ctx, "set_final_score", fixtureID, userID, finalScore)
	if err != nil {
		return fmt.Errorf("set final score: %w", err)
	}
	return nil
}

// RecordResult upserts a user's stats row and applies one settled result.
// A win adds PointsPerWin; the display name refreshes on every call.
func (s *Store) RecordResult(ctx context.Context, userID int64, displayName string, won bool) error {
	wonInc, lostInc, ptsInc := 0, 1, 0
	if won {
		wonInc, lostInc, ptsInc = 1, 0, PointsPerWin
	}
	_, err := s.pool.Exec(ctx, "record_result", userID, displayName, wonInc, lostInc, ptsInc)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// GetStats returns a user's stats with leaderboard rank. Rank orders by
// points descending, user id ascending for ties.
func (s *Store) GetStats(ctx context.Context, userID int64) (*RankedStats, error) {
	var rs RankedStats
	err := s.pool.QueryRow(ctx, "user_stats_ranked", userID).Scan(
		&rs.UserID, &rs.DisplayName, &rs.Won, &rs.Lost, &rs.Points, &rs.Rank, &rs.Total,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &rs, nil
}

// Leaderboard returns the top N users by points.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Stats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, "leaderboard", limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var result []Stats
	for rows.Next() {
		var st Stats
		if err := rows.Scan(&st.UserID, &st.DisplayName, &st.Won, &st.Lost, &st.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
