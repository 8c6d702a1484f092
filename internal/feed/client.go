// Package feed provides the HTTP client for the football live-score and
// fixtures API.
//
// The API authenticates with an x-apisports-key header. Rate limiting is
// handled via a token bucket limiter so admin flows and the live monitor
// share one budget.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client is the shared HTTP client for all football API endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	league     int
	season     int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a football API client with rate limiting.
func NewClient(baseURL, apiKey string, league, season, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		league:     league,
		season:     season,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Live returns the current state of every live match in the configured
// league. The feed includes matches outside the tracked set; callers filter.
func (c *Client) Live(ctx context.Context) ([]LiveMatch, error) {
	params := url.Values{}
	params.Set("live", "all")
	params.Set("league", strconv.Itoa(c.league))

	var resp liveResponse
	if err := c.get(ctx, "/fixtures", params, &resp); err != nil {
		return nil, err
	}

	matches := make([]LiveMatch, 0, len(resp.Response))
	for _, item := range resp.Response {
		matches = append(matches, LiveMatch{
			FixtureID: strconv.FormatInt(item.Fixture.ID, 10),
			HomeGoals: item.Teams.Home.Goals,
			AwayGoals: item.Teams.Away.Goals,
			Status:    item.Fixture.Status.Long,
			Elapsed:   item.Fixture.Status.Seconds,
		})
	}
	return matches, nil
}

// Upcoming returns not-started fixtures in the configured league and season
// kicking off within the given window, sorted by kickoff time.
func (c *Client) Upcoming(ctx context.Context, within time.Duration) ([]UpcomingFixture, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(c.league))
	params.Set("season", strconv.Itoa(c.season))
	params.Set("status", "NS")

	var resp fixturesResponse
	if err := c.get(ctx, "/fixtures", params, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cutoff := now.Add(within)
	var upcoming []UpcomingFixture
	for _, item := range resp.Response {
		kickoff, err := time.Parse(time.RFC3339, item.Fixture.Date)
		if err != nil {
			continue
		}
		if kickoff.Before(now) || kickoff.After(cutoff) {
			continue
		}
		upcoming = append(upcoming, UpcomingFixture{
			ID:        strconv.FormatInt(item.Fixture.ID, 10),
			Kickoff:   kickoff,
			Timestamp: item.Fixture.Timestamp,
			Home:      Team{ID: item.Teams.Home.ID, Name: item.Teams.Home.Name},
			Away:      Team{ID: item.Teams.Away.ID, Name: item.Teams.Away.Name},
		})
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Kickoff.Before(upcoming[j].Kickoff)
	})
	return upcoming, nil
}

// get performs a rate-limited GET request to an API endpoint.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("football API %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
