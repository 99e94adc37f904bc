package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pjhalloran/questkeep/internal/ledger"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
)

// ApplyDeduction subtracts XP from a child as a consequence, recording an
// audit entry with before/after snapshots. The amount is clamped so the
// child never drops below zero XP; banked gold is untouched. An optional
// redemption quest lets the child earn the deduction back.
func (e *Engine) ApplyDeduction(d ledger.Deduction) (*model.XPLedgerEntry, error) {
	if !model.ValidSeverity(d.Severity) {
		return nil, fmt.Errorf("severity %q: %w", d.Severity, ErrInvalidSeverity)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return nil, fmt.Errorf("deduction reason required: %w", ErrInvalidTransition)
	}
	if d.Amount <= 0 {
		return nil, fmt.Errorf("deduction amount must be positive: %w", ErrInvalidTransition)
	}

	unlock := e.lock(accountKey(d.ChildID))
	defer unlock()

	account, err := e.child(d.ChildID)
	if err != nil {
		return nil, err
	}

	entry := ledger.BuildEntry(*account, d, e.clock.Now())

	var entryID int64
	if err := e.withTx(func(tx *sql.Tx) error {
		var err error
		entryID, err = e.entries.AppendTx(tx, entry)
		if err != nil {
			return err
		}
		return e.accounts.UpdateProgressTx(tx, account.ID, entry.NewXP, entry.NewLevel, account.GoldCoins)
	}); err != nil {
		return nil, err
	}

	e.logger.Info("deduction applied",
		"child", d.ChildID, "severity", d.Severity, "delta", entry.Delta,
		"applied_by", d.AppliedBy, "redemption_quest", d.RedemptionQuest)
	e.emit(notify.DeductionApplied(d.ChildID, entryID, entry.Delta, d.Severity))

	return e.entries.GetByID(entryID)
}

// DeductionHistory returns a child's ledger entries, newest first.
func (e *Engine) DeductionHistory(childID int64) ([]model.XPLedgerEntry, error) {
	if _, err := e.child(childID); err != nil {
		return nil, err
	}
	return e.entries.ListByChild(childID)
}

// OpenRedemptionQuests returns a child's uncompleted redemption quests.
func (e *Engine) OpenRedemptionQuests(childID int64) ([]model.XPLedgerEntry, error) {
	if _, err := e.child(childID); err != nil {
		return nil, err
	}
	return e.entries.ListOpenRedemptionQuests(childID)
}

// CompleteRedemption marks a redemption quest done. The deduction itself is
// not reversed; redemption is tracked for the family, not refunded.
func (e *Engine) CompleteRedemption(entryID int64) (*model.XPLedgerEntry, error) {
	entry, err := e.entries.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("ledger entry %d: %w", entryID, ErrNotFound)
	}
	if !entry.RedemptionQuest || entry.RedemptionCompleted {
		return nil, fmt.Errorf("entry %d has no open redemption quest: %w", entryID, ErrInvalidTransition)
	}
	if err := e.entries.CompleteRedemption(entryID); err != nil {
		return nil, err
	}
	return e.entries.GetByID(entryID)
}
