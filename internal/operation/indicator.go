package operation

import (
	"encoding/json"
	"fmt"
)

// Score is a reputation verdict on the platform's 0-3 scale.
type Score int

const (
	// ScoreNone means unknown or neutral
	ScoreNone Score = 0

	// ScoreGood means benign
	ScoreGood Score = 1

	// ScoreSuspicious means suspicious
	ScoreSuspicious Score = 2

	// ScoreBad means malicious
	ScoreBad Score = 3
)

// Verdict returns the display text for the score.
func (s Score) Verdict() string {
	switch s {
	case ScoreNone:
		return "Unknown"
	case ScoreGood:
		return "Good"
	case ScoreSuspicious:
		return "Suspicious"
	case ScoreBad:
		return "Bad"
	default:
		return fmt.Sprintf("Score(%d)", int(s))
	}
}

// Indicator types.
const (
	IndicatorDomain = "Domain"
	IndicatorIP     = "IP"
	IndicatorURL    = "URL"
)

// Indicator attaches a reputation verdict to an observable value.
type Indicator struct {
	// Indicator is the observable (e.g., "google.com")
	Indicator string `json:"indicator"`

	// Type is the observable type (e.g., "Domain")
	Type string `json:"type"`

	// Vendor names the scoring source
	Vendor string `json:"vendor"`

	// Score is the verdict
	Score Score `json:"score"`

	// Reliability is the source reliability tag
	Reliability string `json:"reliability,omitempty"`
}

// MarshalJSON adds the verdict text next to the numeric score.
func (i Indicator) MarshalJSON() ([]byte, error) {
	type plain Indicator
	return json.Marshal(struct {
		plain
		Verdict string `json:"verdict"`
	}{plain(i), i.Score.Verdict()})
}
