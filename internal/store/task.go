package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// --- Definition methods ---

func scanDefinition(scanner interface{ Scan(...any) error }) (*model.TaskDefinition, error) {
	var d model.TaskDefinition
	var photo, approval int

	err := scanner.Scan(
		&d.ID, &d.Name, &d.Category, &d.Frequency,
		&d.XPYoung, &d.XPOld, &d.GoldYoung, &d.GoldOld,
		&photo, &approval, &d.TimeLimitMinutes, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.RequiresPhoto = photo != 0
	d.RequiresParentApproval = approval != 0
	return &d, nil
}

const definitionCols = `id, name, category, frequency, xp_young, xp_old, gold_young, gold_old,
	requires_photo, requires_parent_approval, time_limit_minutes, notes, created_at, updated_at`

// CreateDefinition inserts a definition and its live instance for the
// current cycle in one transaction.
func (s *TaskStore) CreateDefinition(d model.TaskDefinition) (*model.TaskDefinition, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO task_definitions
		 (name, category, frequency, xp_young, xp_old, gold_young, gold_old,
		  requires_photo, requires_parent_approval, time_limit_minutes, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Category, d.Frequency, d.XPYoung, d.XPOld, d.GoldYoung, d.GoldOld,
		boolToInt(d.RequiresPhoto), boolToInt(d.RequiresParentApproval), d.TimeLimitMinutes, d.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert definition: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO task_instances (definition_id) VALUES (?)`, id); err != nil {
		return nil, fmt.Errorf("insert instance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetDefinition(id)
}

func (s *TaskStore) GetDefinition(id int64) (*model.TaskDefinition, error) {
	row := s.db.QueryRow(`SELECT `+definitionCols+` FROM task_definitions WHERE id = ?`, id)
	d, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}
	return d, nil
}

func (s *TaskStore) ListDefinitions() ([]model.TaskDefinition, error) {
	rows, err := s.db.Query(`SELECT ` + definitionCols + ` FROM task_definitions ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var defs []model.TaskDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

func (s *TaskStore) UpdateDefinition(id int64, d model.TaskDefinition) (*model.TaskDefinition, error) {
	_, err := s.db.Exec(
		`UPDATE task_definitions SET name = ?, category = ?, frequency = ?,
		 xp_young = ?, xp_old = ?, gold_young = ?, gold_old = ?,
		 requires_photo = ?, requires_parent_approval = ?, time_limit_minutes = ?, notes = ?,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		d.Name, d.Category, d.Frequency, d.XPYoung, d.XPOld, d.GoldYoung, d.GoldOld,
		boolToInt(d.RequiresPhoto), boolToInt(d.RequiresParentApproval), d.TimeLimitMinutes, d.Notes,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update definition: %w", err)
	}
	return s.GetDefinition(id)
}

func (s *TaskStore) DeleteDefinition(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	return nil
}

// --- Instance methods ---

func scanInstance(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var i model.TaskInstance
	var selectedBy, completedBy sql.NullInt64
	var completedAt sql.NullTime
	var feedback sql.NullString
	var photo int

	err := scanner.Scan(
		&i.ID, &i.DefinitionID, &i.Status, &selectedBy, &completedBy,
		&completedAt, &photo, &feedback, &i.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if selectedBy.Valid {
		i.SelectedBy = &selectedBy.Int64
	}
	if completedBy.Valid {
		i.CompletedBy = &completedBy.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		i.CompletedAt = &t
	}
	if feedback.Valid {
		f := feedback.String
		i.Feedback = &f
	}
	i.PhotoSupplied = photo != 0
	return &i, nil
}

const instanceCols = `id, definition_id, status, selected_by, completed_by, completed_at, photo_supplied, feedback, last_updated`

func (s *TaskStore) GetInstance(id int64) (*model.TaskInstance, error) {
	row := s.db.QueryRow(`SELECT `+instanceCols+` FROM task_instances WHERE id = ?`, id)
	i, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return i, nil
}

// GetInstanceDetail returns the instance joined with its definition.
func (s *TaskStore) GetInstanceDetail(id int64) (*model.InstanceDetail, error) {
	inst, err := s.GetInstance(id)
	if err != nil || inst == nil {
		return nil, err
	}
	def, err := s.GetDefinition(inst.DefinitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("instance %d references missing definition %d", id, inst.DefinitionID)
	}
	return &model.InstanceDetail{TaskInstance: *inst, Definition: *def}, nil
}

// ListInstanceDetails returns every live instance joined with its
// definition, ordered by category and name.
func (s *TaskStore) ListInstanceDetails() ([]model.InstanceDetail, error) {
	return s.listInstanceDetails(s.db)
}

// ListInstanceDetailsTx is ListInstanceDetails inside an engine transaction,
// so a read-modify-write over the instance pool sees its own writes.
func (s *TaskStore) ListInstanceDetailsTx(tx *sql.Tx) ([]model.InstanceDetail, error) {
	return s.listInstanceDetails(tx)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func (s *TaskStore) listInstanceDetails(q querier) ([]model.InstanceDetail, error) {
	rows, err := q.Query(
		`SELECT i.id, i.definition_id, i.status, i.selected_by, i.completed_by,
		        i.completed_at, i.photo_supplied, i.feedback, i.last_updated,
		        d.id, d.name, d.category, d.frequency, d.xp_young, d.xp_old,
		        d.gold_young, d.gold_old, d.requires_photo, d.requires_parent_approval,
		        d.time_limit_minutes, d.notes, d.created_at, d.updated_at
		 FROM task_instances i
		 JOIN task_definitions d ON d.id = i.definition_id
		 ORDER BY d.category ASC, d.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list instance details: %w", err)
	}
	defer rows.Close()

	var details []model.InstanceDetail
	for rows.Next() {
		var i model.TaskInstance
		var d model.TaskDefinition
		var selectedBy, completedBy sql.NullInt64
		var completedAt sql.NullTime
		var feedback sql.NullString
		var photo, defPhoto, defApproval int

		err := rows.Scan(
			&i.ID, &i.DefinitionID, &i.Status, &selectedBy, &completedBy,
			&completedAt, &photo, &feedback, &i.LastUpdated,
			&d.ID, &d.Name, &d.Category, &d.Frequency, &d.XPYoung, &d.XPOld,
			&d.GoldYoung, &d.GoldOld, &defPhoto, &defApproval,
			&d.TimeLimitMinutes, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan instance detail: %w", err)
		}

		if selectedBy.Valid {
			i.SelectedBy = &selectedBy.Int64
		}
		if completedBy.Valid {
			i.CompletedBy = &completedBy.Int64
		}
		if completedAt.Valid {
			t := completedAt.Time
			i.CompletedAt = &t
		}
		if feedback.Valid {
			f := feedback.String
			i.Feedback = &f
		}
		i.PhotoSupplied = photo != 0
		d.RequiresPhoto = defPhoto != 0
		d.RequiresParentApproval = defApproval != 0

		details = append(details, model.InstanceDetail{TaskInstance: i, Definition: d})
	}
	return details, rows.Err()
}

// ListPendingReview returns instances awaiting parent verification.
func (s *TaskStore) ListPendingReview() ([]model.InstanceDetail, error) {
	details, err := s.ListInstanceDetails()
	if err != nil {
		return nil, err
	}
	var pending []model.InstanceDetail
	for _, d := range details {
		if d.Status == model.StatusPendingReview {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

// UpdateInstanceTx persists the mutable lifecycle fields of an instance
// inside an engine transaction.
func (s *TaskStore) UpdateInstanceTx(tx *sql.Tx, i model.TaskInstance, now time.Time) error {
	var selectedBy, completedBy sql.NullInt64
	if i.SelectedBy != nil {
		selectedBy = sql.NullInt64{Int64: *i.SelectedBy, Valid: true}
	}
	if i.CompletedBy != nil {
		completedBy = sql.NullInt64{Int64: *i.CompletedBy, Valid: true}
	}
	var completedAt sql.NullTime
	if i.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *i.CompletedAt, Valid: true}
	}
	var feedback sql.NullString
	if i.Feedback != nil {
		feedback = sql.NullString{String: *i.Feedback, Valid: true}
	}

	_, err := tx.Exec(
		`UPDATE task_instances SET status = ?, selected_by = ?, completed_by = ?,
		 completed_at = ?, photo_supplied = ?, feedback = ?, last_updated = ?
		 WHERE id = ?`,
		i.Status, selectedBy, completedBy, completedAt,
		boolToInt(i.PhotoSupplied), feedback, now.UTC(), i.ID,
	)
	if err != nil {
		return fmt.Errorf("update instance: %w", err)
	}
	return nil
}

// ResetInstanceTx returns an instance to the available state, clearing all
// completion bookkeeping.
func (s *TaskStore) ResetInstanceTx(tx *sql.Tx, id int64, now time.Time) error {
	_, err := tx.Exec(
		`UPDATE task_instances SET status = ?, selected_by = NULL, completed_by = NULL,
		 completed_at = NULL, photo_supplied = 0, feedback = NULL, last_updated = ?
		 WHERE id = ?`,
		model.StatusAvailable, now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("reset instance: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
