package model

import "time"

const (
	FrequencyDaily    = "Daily"
	FrequencyWeekly   = "Weekly"
	FrequencyBiWeekly = "Bi-Weekly"
	FrequencyMonthly  = "Monthly"
)

// Task instance lifecycle states. The status column is the single source of
// truth; verified/denied are derived, never stored separately.
const (
	StatusAvailable     = "available"
	StatusInProgress    = "in-progress"
	StatusPendingReview = "pending-review"
	StatusApproved      = "approved"
	StatusDenied        = "denied"
)

type TaskDefinition struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Category               string    `json:"category"`
	Frequency              string    `json:"frequency"`
	XPYoung                int       `json:"xp_young"`
	XPOld                  int       `json:"xp_old"`
	GoldYoung              int       `json:"gold_young"`
	GoldOld                int       `json:"gold_old"`
	RequiresPhoto          bool      `json:"requires_photo"`
	RequiresParentApproval bool      `json:"requires_parent_approval"`
	TimeLimitMinutes       int       `json:"time_limit_minutes"`
	Notes                  string    `json:"notes"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// XPFor resolves the age-banded XP reward for a completing account.
func (d TaskDefinition) XPFor(age int) int {
	if age <= YoungAgeMax {
		return d.XPYoung
	}
	return d.XPOld
}

// GoldFor resolves the age-banded gold reward. A zero gold column falls back
// to the XP column, matching the seeded catalog where gold mirrors XP.
func (d TaskDefinition) GoldFor(age int) int {
	if age <= YoungAgeMax {
		if d.GoldYoung > 0 {
			return d.GoldYoung
		}
		return d.XPYoung
	}
	if d.GoldOld > 0 {
		return d.GoldOld
	}
	return d.XPOld
}

// NeedsReview reports whether completion must pass through parent review
// before rewards are granted.
func (d TaskDefinition) NeedsReview() bool {
	return d.RequiresPhoto || d.RequiresParentApproval
}

type TaskInstance struct {
	ID            int64      `json:"id"`
	DefinitionID  int64      `json:"definition_id"`
	Status        string     `json:"status"`
	SelectedBy    *int64     `json:"selected_by"`
	CompletedBy   *int64     `json:"completed_by"`
	CompletedAt   *time.Time `json:"completed_at"`
	PhotoSupplied bool       `json:"photo_supplied"`
	Feedback      *string    `json:"feedback"`
	LastUpdated   time.Time  `json:"last_updated"`
}

func (i TaskInstance) Verified() bool { return i.Status == StatusApproved }
func (i TaskInstance) Denied() bool   { return i.Status == StatusDenied }

// InstanceDetail joins an instance with its definition for listing and
// cycle computations.
type InstanceDetail struct {
	TaskInstance
	Definition TaskDefinition `json:"definition"`
}
