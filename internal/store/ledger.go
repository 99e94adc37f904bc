package store

import (
	"database/sql"
	"fmt"

	"github.com/pjhalloran/questkeep/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func scanLedgerEntry(scanner interface{ Scan(...any) error }) (*model.XPLedgerEntry, error) {
	var e model.XPLedgerEntry
	var quest, completed int

	err := scanner.Scan(
		&e.ID, &e.ChildID, &e.Delta, &e.Severity, &e.Reason,
		&e.PreviousXP, &e.NewXP, &e.PreviousLevel, &e.NewLevel,
		&quest, &e.RedemptionDetails, &completed, &e.AppliedBy, &e.AppliedAt,
	)
	if err != nil {
		return nil, err
	}

	e.RedemptionQuest = quest != 0
	e.RedemptionCompleted = completed != 0
	return &e, nil
}

const ledgerCols = `id, child_id, delta, severity, reason, previous_xp, new_xp, previous_level, new_level,
	redemption_quest, redemption_details, redemption_completed, applied_by, applied_at`

// AppendTx writes a ledger entry inside an engine transaction so the entry
// and the account mutation commit together. The log is append-only; there
// is deliberately no update or delete for entries.
func (s *LedgerStore) AppendTx(tx *sql.Tx, e model.XPLedgerEntry) (int64, error) {
	result, err := tx.Exec(
		`INSERT INTO xp_ledger
		 (child_id, delta, severity, reason, previous_xp, new_xp, previous_level, new_level,
		  redemption_quest, redemption_details, applied_by, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ChildID, e.Delta, e.Severity, e.Reason, e.PreviousXP, e.NewXP, e.PreviousLevel, e.NewLevel,
		boolToInt(e.RedemptionQuest), e.RedemptionDetails, e.AppliedBy, e.AppliedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *LedgerStore) GetByID(id int64) (*model.XPLedgerEntry, error) {
	row := s.db.QueryRow(`SELECT `+ledgerCols+` FROM xp_ledger WHERE id = ?`, id)
	e, err := scanLedgerEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// ListByChild returns a child's deduction history, newest first.
func (s *LedgerStore) ListByChild(childID int64) ([]model.XPLedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+ledgerCols+` FROM xp_ledger WHERE child_id = ? ORDER BY applied_at DESC, id DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	return collectLedgerEntries(rows)
}

// ListOpenRedemptionQuests returns entries offering a redemption quest the
// child has not yet completed.
func (s *LedgerStore) ListOpenRedemptionQuests(childID int64) ([]model.XPLedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+ledgerCols+` FROM xp_ledger
		 WHERE child_id = ? AND redemption_quest = 1 AND redemption_completed = 0
		 ORDER BY applied_at ASC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list open redemption quests: %w", err)
	}
	defer rows.Close()
	return collectLedgerEntries(rows)
}

// CompleteRedemption marks an entry's redemption quest done. This is the
// only permitted mutation of a ledger row; the audit fields stay frozen.
func (s *LedgerStore) CompleteRedemption(id int64) error {
	result, err := s.db.Exec(
		`UPDATE xp_ledger SET redemption_completed = 1 WHERE id = ? AND redemption_quest = 1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("complete redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ledger entry %d has no redemption quest", id)
	}
	return nil
}

func collectLedgerEntries(rows *sql.Rows) ([]model.XPLedgerEntry, error) {
	var entries []model.XPLedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
