package models

// ChangeKind classifies a ticker's rank change between two snapshots
type ChangeKind string

// Change kind constants
const (
	ChangeNewEntrant ChangeKind = "NEW_ENTRANT"
	ChangeRemoved    ChangeKind = "REMOVED"
	ChangeUpgraded   ChangeKind = "UPGRADED"
	ChangeDowngraded ChangeKind = "DOWNGRADED"
	ChangeUnchanged  ChangeKind = "UNCHANGED"
)

// DeltaRecord is the classified change of one ticker within one screen group
type DeltaRecord struct {
	Ticker       string      `json:"ticker"`
	ScreenGroup  ScreenGroup `json:"screen_group"`
	PreviousRank *int        `json:"previous_rank"`
	CurrentRank  *int        `json:"current_rank"`
	ChangeKind   ChangeKind  `json:"change_kind"`
}

// DeltaEvent represents a Kafka event for one rank change
type DeltaEvent struct {
	EventType string      `json:"event_type"`
	Source    string      `json:"source"`
	Timestamp string      `json:"timestamp"`
	Data      DeltaRecord `json:"data"`
}
