// Package handler provides HTTP handlers for the ops API: health probes and
// read-only views of the game state for dashboards.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goalpost-labs/matchday/internal/api/respond"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

// FixtureLister reads the tracked fixture set.
type FixtureLister interface {
	List() ([]store.Fixture, error)
}

// LeaderboardSource reads ranked user stats.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]prediction.Stats, error)
}

// DBHealth verifies database connectivity.
type DBHealth interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	fixtures FixtureLister
	preds    LeaderboardSource
	db       DBHealth
}

// New creates a Handler with shared dependencies.
func New(fixtures FixtureLister, preds LeaderboardSource, db DBHealth) *Handler {
	return &Handler{fixtures: fixtures, preds: preds, db: db}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Matchday Ops API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "db_unavailable", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"db":     "connected",
	})
}

type fixtureView struct {
	ID      string `json:"fixture_id"`
	Home    string `json:"home"`
	Away    string `json:"away"`
	Kickoff string `json:"kickoff"`
}

// Fixtures lists the currently tracked fixtures.
func (h *Handler) Fixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := h.fixtures.List()
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "fixtures_unavailable", err.Error())
		return
	}

	views := make([]fixtureView, 0, len(fixtures))
	for _, f := range fixtures {
		views = append(views, fixtureView{
			ID:      f.ID,
			Home:    f.Home.Name,
			Away:    f.Away.Name,
			Kickoff: time.Unix(f.SchedulingKey+store.SchedulingKeyOffset, 0).UTC().Format(time.RFC3339),
		})
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"count":    len(views),
		"fixtures": views,
	})
}

type leaderboardRow struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"display_name"`
	Won         int    `json:"won"`
	Lost        int    `json:"lost"`
	Points      int    `json:"points"`
}

// Leaderboard returns the top users by points. ?top=N caps the list, default
// 10, maximum 100.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, "bad_request", "top must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	stats, err := h.preds.Leaderboard(r.Context(), limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "leaderboard_unavailable", err.Error())
		return
	}

	rows := make([]leaderboardRow, 0, len(stats))
	for i, st := range stats {
		rows = append(rows, leaderboardRow{
			Rank:        i + 1,
			DisplayName: st.DisplayName,
			Won:         st.Won,
			Lost:        st.Lost,
			Points:      st.Points,
		})
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"count":       len(rows),
		"leaderboard": rows,
	})
}
