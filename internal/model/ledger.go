package model

import "time"

// Deduction severity bands. The bands carry suggested ranges in the parent
// UI (minor 10-20, medium 30-50, major 75-100) but the engine records the
// amount verbatim and only enforces the non-negative XP floor.
const (
	SeverityMinor  = "minor"
	SeverityMedium = "medium"
	SeverityMajor  = "major"
)

// XPLedgerEntry is an append-only audit record of a punitive XP deduction,
// with before/after snapshots of XP and level. Entries are never mutated
// after creation except for marking an attached redemption quest complete.
type XPLedgerEntry struct {
	ID                  int64     `json:"id"`
	ChildID             int64     `json:"child_id"`
	Delta               int       `json:"delta"`
	Severity            string    `json:"severity"`
	Reason              string    `json:"reason"`
	PreviousXP          int       `json:"previous_xp"`
	NewXP               int       `json:"new_xp"`
	PreviousLevel       int       `json:"previous_level"`
	NewLevel            int       `json:"new_level"`
	RedemptionQuest     bool      `json:"redemption_quest"`
	RedemptionDetails   string    `json:"redemption_details,omitempty"`
	RedemptionCompleted bool      `json:"redemption_completed"`
	AppliedBy           int64     `json:"applied_by"`
	AppliedAt           time.Time `json:"applied_at"`
}

func ValidSeverity(s string) bool {
	return s == SeverityMinor || s == SeverityMedium || s == SeverityMajor
}
