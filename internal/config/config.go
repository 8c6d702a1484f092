// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/matchday, cmd/buycast, and cmd/matchdayctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is populated from environment variables.
type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Prediction-game bot
	BotToken string
	AdminIDs []int64
	GroupID  int64

	// Football API (live scores + upcoming fixtures)
	FootballAPIKey    string
	FootballBaseURL   string
	FootballLeague    int
	FootballSeason    int
	FootballReqPerMin int
	LivePollInterval  time.Duration
	FixtureWindowDays int

	// Local JSON stores
	DataDir string

	// Ops API server
	OpsHost          string
	OpsPort          int
	CORSAllowOrigins []string

	// Buy broadcaster
	BuycastToken    string
	BuycastChatIDs  []int64
	PurchaseFeedURL string
	MinimumBuy      float64
	EmojiDollars    float64
	BuyVideoPath    string
	BuyPollInterval time.Duration

	// Buy broadcaster branding
	BuyTokenSymbol   string
	BuyWebsiteURL    string
	BuyCommunityURL  string
	BuyTwitterURL    string
	BuyWhitepaperURL string
}

// Load reads configuration from environment variables with sensible defaults.
// Binary-specific required keys are validated by RequireGame/RequireBuycast
// so the same Load serves all three commands.
func Load() (*Config, error) {
	return &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		BotToken: envOr("BOT_TOKEN", ""),
		AdminIDs: envInt64List("ADMIN_IDS", nil),
		GroupID:  envInt64("GROUP_ID", 0),

		FootballAPIKey:    envOr("FOOTBALL_API_KEY", ""),
		FootballBaseURL:   envOr("FOOTBALL_API_URL", "https://v3.football.api-sports.io"),
		FootballLeague:    envInt("FOOTBALL_LEAGUE", 39),
		FootballSeason:    envInt("FOOTBALL_SEASON", 2024),
		FootballReqPerMin: envInt("FOOTBALL_REQ_PER_MIN", 30),
		LivePollInterval:  time.Duration(envInt("LIVE_POLL_SECONDS", 10)) * time.Second,
		FixtureWindowDays: envInt("FIXTURE_WINDOW_DAYS", 20),

		DataDir: envOr("DATA_DIR", "data"),

		OpsHost:          envOr("OPS_HOST", "0.0.0.0"),
		OpsPort:          envInt("OPS_PORT", 8090),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),

		BuycastToken:    envOr("BUYCAST_BOT_TOKEN", ""),
		BuycastChatIDs:  envInt64List("BUYCAST_CHAT_IDS", nil),
		PurchaseFeedURL: envOr("PURCHASE_FEED_URL", ""),
		MinimumBuy:      envFloat("MINIMUM_BUY", 0),
		EmojiDollars:    envFloat("EMOJI_DOLLARS", 10),
		BuyVideoPath:    envOr("BUY_VIDEO_PATH", "animation.mp4"),
		BuyPollInterval: time.Duration(envInt("BUY_POLL_SECONDS", 10)) * time.Second,

		BuyTokenSymbol:   envOr("BUY_TOKEN_SYMBOL", "JOGE"),
		BuyWebsiteURL:    envOr("BUY_WEBSITE_URL", "https://jokerdoge.com/"),
		BuyCommunityURL:  envOr("BUY_COMMUNITY_URL", "https://t.me/+ilYg1VjXp4xhODAx"),
		BuyTwitterURL:    envOr("BUY_TWITTER_URL", "https://x.com/JokerdogeSol"),
		BuyWhitepaperURL: envOr("BUY_WHITEPAPER_URL", "https://jokerdoge.com/assets/joge.pdf-CGDTxqoe.pdf"),
	}, nil
}

// RequireGame validates the keys the prediction-game bot cannot run without.
func (c *Config) RequireGame() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN must be set")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.FootballAPIKey == "" {
		return fmt.Errorf("FOOTBALL_API_KEY must be set")
	}
	return nil
}

// RequireBuycast validates the keys the buy broadcaster cannot run without.
func (c *Config) RequireBuycast() error {
	if c.BuycastToken == "" {
		return fmt.Errorf("BUYCAST_BOT_TOKEN must be set")
	}
	if len(c.BuycastChatIDs) == 0 {
		return fmt.Errorf("BUYCAST_CHAT_IDS must be set")
	}
	if c.PurchaseFeedURL == "" {
		return fmt.Errorf("PURCHASE_FEED_URL must be set")
	}
	return nil
}

// IsAdmin reports whether the given Telegram user is in the admin allowlist.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func envInt64List(key string, fallback []int64) []int64 {
	raw := envList(key, nil)
	if raw == nil {
		return fallback
	}
	result := make([]int64, 0, len(raw))
	for _, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			result = append(result, n)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
