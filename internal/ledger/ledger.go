// Package ledger builds the audit entries behind punitive XP deductions.
// An entry always captures before/after XP and level snapshots, and the
// deduction itself is clamped so an account can never go below zero XP.
// Persistence of the entry alongside the account mutation is the engine's
// job.
package ledger

import (
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/progression"
)

// Deduction describes a requested XP deduction before clamping.
type Deduction struct {
	ChildID           int64
	Amount            int
	Severity          string
	Reason            string
	RedemptionQuest   bool
	RedemptionDetails string
	AppliedBy         int64
}

// BuildEntry clamps the deduction against the account's current XP and
// produces the ledger entry to append. Delta is negative; NewXP is never
// below zero. Gold already banked is untouched.
func BuildEntry(account model.Account, d Deduction, now time.Time) model.XPLedgerEntry {
	final := d.Amount
	if final > account.CurrentXP {
		final = account.CurrentXP
	}
	if final < 0 {
		final = 0
	}
	newXP := account.CurrentXP - final

	return model.XPLedgerEntry{
		ChildID:           d.ChildID,
		Delta:             -final,
		Severity:          d.Severity,
		Reason:            d.Reason,
		PreviousXP:        account.CurrentXP,
		NewXP:             newXP,
		PreviousLevel:     progression.LevelFor(account.CurrentXP),
		NewLevel:          progression.LevelFor(newXP),
		RedemptionQuest:   d.RedemptionQuest,
		RedemptionDetails: d.RedemptionDetails,
		AppliedBy:         d.AppliedBy,
		AppliedAt:         now,
	}
}
