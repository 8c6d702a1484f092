// Package prediction holds the score-prediction domain: score-string parsing,
// outcome classification, per-fixture tallies, and the Postgres-backed
// prediction and user-stats relations.
package prediction

import (
	"fmt"
	"strconv"
	"strings"
)

// Outcome is the coarse result category of a scoreline.
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeHome
	OutcomeAway
)

// ParseScore parses a score string of the form "<int> - <int>" into its two
// goal counts. Whitespace is ignored. Malformed input parses to (0, 0) rather
// than returning an error; stored predictions predate this code and a lenient
// fallback keeps them readable. A side effect is that garbage counts as a 0-0
// draw prediction.
func ParseScore(s string) (home, away int) {
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), "-")
	if len(parts) != 2 {
		return 0, 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0
	}
	a, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0
	}
	if h < 0 || a < 0 {
		return 0, 0
	}
	return h, a
}

// FormatScore renders goal counts in the canonical "H - A" form used in
// stored predictions and outgoing messages.
func FormatScore(home, away int) string {
	return fmt.Sprintf("%d - %d", home, away)
}

// Classify returns the outcome category for a scoreline.
func Classify(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHome
	case away > home:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// Counts is a per-fixture tally of predictions by outcome category.
type Counts struct {
	Home int `json:"home"`
	Away int `json:"away"`
	Draw int `json:"draw"`
}

// Tally classifies each prediction row and counts outcomes.
func Tally(rows []Row) Counts {
	var c Counts
	for _, r := range rows {
		h, a := ParseScore(r.Score)
		switch Classify(h, a) {
		case OutcomeHome:
			c.Home++
		case OutcomeAway:
			c.Away++
		default:
			c.Draw++
		}
	}
	return c
}

// Exact reports whether a prediction string matches the final scoreline
// exactly. Correct outcome with the wrong score is still a miss.
func Exact(predicted string, finalHome, finalAway int) bool {
	h, a := ParseScore(predicted)
	return h == finalHome && a == finalAway
}
