package feed

import "time"

// Team identifies one side of a fixture as reported by the feed.
type Team struct {
	ID   int
	Name string
}

// LiveMatch is the feed's current view of one in-play fixture.
type LiveMatch struct {
	FixtureID string
	HomeGoals int
	AwayGoals int
	Status    string // e.g. "Halftime", "Match Finished"
	Elapsed   string // "MM:SS" match clock
}

// UpcomingFixture is a scheduled, not-yet-started match.
type UpcomingFixture struct {
	ID        string
	Kickoff   time.Time
	Timestamp int64 // kickoff unix time
	Home      Team
	Away      Team
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type liveResponse struct {
	Response []liveItem `json:"response"`
}

type liveItem struct {
	Fixture struct {
		ID     int64 `json:"id"`
		Status struct {
			Long    string `json:"long"`
			Seconds string `json:"seconds"`
		} `json:"status"`
	} `json:"fixture"`
	Teams struct {
		Home liveTeam `json:"home"`
		Away liveTeam `json:"away"`
	} `json:"teams"`
}

type liveTeam struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Goals int    `json:"goals"`
}

type fixturesResponse struct {
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture struct {
		ID        int64  `json:"id"`
		Date      string `json:"date"`
		Timestamp int64  `json:"timestamp"`
	} `json:"fixture"`
	Teams struct {
		Home struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
}
