package models

import (
	"fmt"
	"strings"
	"time"
)

// ScreenGroup identifies one of the three ranking screens
type ScreenGroup string

// Screen group constants
const (
	ScreenGrowth1           ScreenGroup = "GROWTH_1"
	ScreenGrowth2           ScreenGroup = "GROWTH_2"
	ScreenDefensiveDividend ScreenGroup = "DEFENSIVE_DIVIDEND"
)

// ScreenGroups lists the groups in universe priority order
var ScreenGroups = []ScreenGroup{ScreenGrowth1, ScreenGrowth2, ScreenDefensiveDividend}

// Label returns the human-readable screen name
func (g ScreenGroup) Label() string {
	switch g {
	case ScreenGrowth1:
		return "Growth 1"
	case ScreenGrowth2:
		return "Growth 2"
	case ScreenDefensiveDividend:
		return "Defensive Dividend"
	}
	return string(g)
}

// IsGrowth reports whether the group is one of the growth screens
func (g ScreenGroup) IsGrowth() bool {
	return g == ScreenGrowth1 || g == ScreenGrowth2
}

// ParseScreenGroup accepts the canonical names as well as the loose
// spellings used in export file names ("growth1", "Growth 2", "defensive")
func ParseScreenGroup(s string) (ScreenGroup, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	switch {
	case key == "growth1":
		return ScreenGrowth1, nil
	case key == "growth2":
		return ScreenGrowth2, nil
	case strings.HasPrefix(key, "defensive"), key == "dividend", key == "dividends":
		return ScreenDefensiveDividend, nil
	}
	return "", fmt.Errorf("unknown screen group: %q", s)
}

// ScreenEntry is one row of a ranking screen. Rank is nil when the
// source cell could not be read as an integer
type ScreenEntry struct {
	Ticker       string      `json:"ticker"`
	Rank         *int        `json:"rank"`
	ScreenGroup  ScreenGroup `json:"screen_group"`
	SnapshotDate time.Time   `json:"snapshot_date"`
}

// HasRank reports whether the entry carries a usable rank equal to r
func (e ScreenEntry) HasRank(r int) bool {
	return e.Rank != nil && *e.Rank == r
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// ScreenSnapshotEvent represents a Kafka message carrying one exported screen
type ScreenSnapshotEvent struct {
	EventType string             `json:"event_type"`
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Data      ScreenSnapshotData `json:"data"`
}

// ScreenSnapshotData holds the raw table of a screen export
type ScreenSnapshotData struct {
	Group        string     `json:"group"`
	SnapshotDate string     `json:"snapshot_date"`
	FileName     string     `json:"file_name,omitempty"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
}
