// Command matchdayctl is the operator CLI for the prediction game.
//
// Usage:
//
//	matchdayctl fixtures list
//	matchdayctl fixtures remove --id 1035042
//	matchdayctl leaderboard --top 20
//	matchdayctl stats --user 123456789
//	matchdayctl broadcast --message "Predictions close at kickoff!"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goalpost-labs/matchday/internal/config"
	"github.com/goalpost-labs/matchday/internal/db"
	"github.com/goalpost-labs/matchday/internal/notify"
	"github.com/goalpost-labs/matchday/internal/prediction"
	"github.com/goalpost-labs/matchday/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "matchdayctl",
		Short: "Prediction game operator CLI",
	}

	root.AddCommand(fixturesCmd())
	root.AddCommand(leaderboardCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(broadcastCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// fixtures command
// --------------------------------------------------------------------------

func fixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect and edit the tracked fixture set",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fixtures, err := store.NewFixtureStore(cfg.DataDir).List()
			if err != nil {
				return err
			}
			if len(fixtures) == 0 {
				fmt.Println("no fixtures set")
				return nil
			}
			for _, f := range fixtures {
				kickoff := time.Unix(f.SchedulingKey+store.SchedulingKeyOffset, 0).UTC()
				fmt.Printf("%-12s %s  %s vs %s\n",
					f.ID, kickoff.Format("2006-01-02 15:04"), f.Home.Name, f.Away.Name)
			}
			return nil
		},
	}

	var removeID string
	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove a tracked fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := store.NewFixtureStore(cfg.DataDir).Remove(removeID); err != nil {
				return err
			}
			logger.Info("fixture removed", "fixture_id", removeID)
			return nil
		},
	}
	remove.Flags().StringVar(&removeID, "id", "", "fixture id to remove")
	remove.MarkFlagRequired("id")

	cmd.AddCommand(list)
	cmd.AddCommand(remove)
	return cmd
}

// --------------------------------------------------------------------------
// leaderboard / stats commands
// --------------------------------------------------------------------------

func leaderboardCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top users by points",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			preds, closePool, err := openPredictions(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			stats, err := preds.Leaderboard(ctx, top)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("no settled predictions yet")
				return nil
			}
			for i, st := range stats {
				fmt.Printf("%3d. %-24s %4d pts  (won %d / lost %d)\n",
					i+1, st.DisplayName, st.Points, st.Won, st.Lost)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of users to print")
	return cmd
}

func statsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print one user's stats and rank",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			preds, closePool, err := openPredictions(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			rs, err := preds.GetStats(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d pts, won %d, lost %d, rank %d of %d\n",
				rs.DisplayName, rs.Points, rs.Won, rs.Lost, rs.Rank, rs.Total)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id")
	cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// broadcast command
// --------------------------------------------------------------------------

func broadcastCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a message to every registered player",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.BotToken == "" {
				return fmt.Errorf("BOT_TOKEN must be set")
			}

			botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
			if err != nil {
				return fmt.Errorf("connect to Telegram: %w", err)
			}
			notifier := notify.NewTelegram(botAPI, cfg.GroupID, logger)

			ids, err := store.NewProfileStore(cfg.DataDir).UserIDs()
			if err != nil {
				return err
			}

			sent := 0
			for _, id := range ids {
				if err := notifier.SendUser(id, message); err != nil {
					logger.Warn("broadcast delivery failed", "user_id", id, "error", err)
					continue
				}
				sent++
			}
			logger.Info("broadcast sent", "recipients", sent, "total", len(ids))
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "HTML message to send")
	cmd.MarkFlagRequired("message")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openPredictions connects the pool and returns the prediction store plus a
// close func.
func openPredictions(ctx context.Context) (*prediction.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL must be set")
	}
	pool, err := db.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return prediction.NewStore(pool.Pool), pool.Close, nil
}
