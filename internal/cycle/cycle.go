// Package cycle implements the daily boundary: deciding when an account's
// day has rolled over, which task instances reset to available, and how much
// XP an account has earned on a given day against the daily cap.
package cycle

import (
	"time"

	"github.com/pjhalloran/questkeep/internal/clock"
	"github.com/pjhalloran/questkeep/internal/model"
)

// DefaultDailyXPCap bounds how much XP an account can earn per calendar day
// before new task selection is blocked. Overridable via settings.
const DefaultDailyXPCap = 250

// ShouldReset reports whether a reset is due given the recorded last reset
// date (clock.DateFormat, possibly empty for never) and today's date.
func ShouldReset(lastResetDate string, today time.Time) bool {
	return lastResetDate != today.Format(clock.DateFormat)
}

// Resettable reports whether an instance of the given definition re-enters
// the available pool on a sweep run on the given day. Only Daily tasks cycle
// daily. Instances awaiting parent review or sitting denied are preserved so
// the review outcome is not lost to a rollover, and activity from today
// itself is never swept: the instance pool is shared across accounts, so a
// stale account's lazy reset must not return an instance another child
// completed or selected in the current cycle.
func Resettable(def model.TaskDefinition, inst model.TaskInstance, today time.Time) bool {
	if def.Frequency != model.FrequencyDaily {
		return false
	}
	switch inst.Status {
	case model.StatusApproved:
		return inst.CompletedAt == nil || !clock.SameDay(*inst.CompletedAt, today)
	case model.StatusInProgress:
		return !clock.SameDay(inst.LastUpdated, today)
	default:
		return false
	}
}

// DailyXPEarned sums the age-banded XP of instances the account completed
// and had verified on the given day.
func DailyXPEarned(accountID int64, age int, instances []model.InstanceDetail, day time.Time) int {
	total := 0
	for _, it := range instances {
		if it.CompletedBy == nil || *it.CompletedBy != accountID {
			continue
		}
		if !it.Verified() || it.CompletedAt == nil {
			continue
		}
		if !clock.SameDay(*it.CompletedAt, day) {
			continue
		}
		total += it.Definition.XPFor(age)
	}
	return total
}

// IsCapped reports whether the account has reached the daily XP cap.
func IsCapped(accountID int64, age int, instances []model.InstanceDetail, day time.Time, cap int) bool {
	if cap <= 0 {
		cap = DefaultDailyXPCap
	}
	return DailyXPEarned(accountID, age, instances, day) >= cap
}
