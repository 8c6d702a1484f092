// Package db provides a pgxpool-based connection pool with schema setup,
// prepared statement registration, and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goalpost-labs/matchday/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New ensures the schema exists, then creates and validates a connection
// pool. Prepared statements are registered on every new connection, so the
// schema must be in place before the first connection opens.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := ensureSchema(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// ensureSchema creates the prediction and stats relations if missing. Runs
// over a dedicated connection so pool connections can prepare statements
// against existing tables.
func ensureSchema(ctx context.Context, dbURL string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect for schema setup: %w", err)
	}
	defer conn.Close(ctx)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			fixture_id   TEXT   NOT NULL,
			user_id      BIGINT NOT NULL,
			prediction   TEXT   NOT NULL,
			display_name TEXT   NOT NULL DEFAULT '',
			final_score  TEXT,
			PRIMARY KEY (fixture_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id      BIGINT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			won          INT  NOT NULL DEFAULT 0,
			lost         INT  NOT NULL DEFAULT 0,
			pts          INT  NOT NULL DEFAULT 0
		)`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// registerPreparedStatements registers all statements the bot, settlement
// engine, and ops API use. Prepared statements eliminate parse overhead on
// every poll tick.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Predictions
		"upsert_prediction": `
			INSERT INTO predictions (fixture_id, user_id, prediction, display_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (fixture_id, user_id) DO UPDATE
			SET prediction = EXCLUDED.prediction, display_name = EXCLUDED.display_name`,
		"has_prediction":          "SELECT 1 FROM predictions WHERE fixture_id = $1 AND user_id = $2",
		"predictions_by_fixture":  "SELECT user_id, prediction, display_name, final_score FROM predictions WHERE fixture_id = $1 ORDER BY user_id",
		"count_predictions":       "SELECT COUNT(*) FROM predictions WHERE fixture_id = $1",
		"set_final_score":         "UPDATE predictions SET final_score = $3 WHERE fixture_id = $1 AND user_id = $2",

		// User stats
		"record_result": `
			INSERT INTO user_stats (user_id, display_name, won, lost, pts)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE
			SET display_name = EXCLUDED.display_name,
				won  = user_stats.won  + $3,
				lost = user_stats.lost + $4,
				pts  = user_stats.pts  + $5`,
		"user_stats_ranked": `
			SELECT user_id, display_name, won, lost, pts, rank, total FROM (
				SELECT user_id, display_name, won, lost, pts,
					ROW_NUMBER() OVER (ORDER BY pts DESC, user_id ASC) AS rank,
					COUNT(*) OVER () AS total
				FROM user_stats
			) ranked WHERE user_id = $1`,
		"leaderboard": "SELECT user_id, display_name, won, lost, pts FROM user_stats ORDER BY pts DESC, user_id ASC LIMIT $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
