package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
)

const seededDefinitions = 5

func TestTaskSeedCatalog(t *testing.T) {
	ts := NewTaskStore(setupTestDB(t))

	defs, err := ts.ListDefinitions()
	if err != nil {
		t.Fatalf("list definitions: %v", err)
	}
	if len(defs) != seededDefinitions {
		t.Fatalf("seeded definitions = %d, want %d", len(defs), seededDefinitions)
	}

	details, err := ts.ListInstanceDetails()
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(details) != seededDefinitions {
		t.Fatalf("seeded instances = %d, want %d", len(details), seededDefinitions)
	}
	for _, d := range details {
		if d.Status != model.StatusAvailable {
			t.Errorf("seeded instance %d status = %q, want available", d.ID, d.Status)
		}
	}
}

func TestCreateDefinitionSpawnsInstance(t *testing.T) {
	ts := NewTaskStore(setupTestDB(t))

	def, err := ts.CreateDefinition(model.TaskDefinition{
		Name:      "Water the Plants",
		Category:  "Garden",
		Frequency: model.FrequencyDaily,
		XPYoung:   10,
		XPOld:     5,
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if def.ID == 0 {
		t.Error("expected non-zero id")
	}

	details, err := ts.ListInstanceDetails()
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	found := false
	for _, d := range details {
		if d.DefinitionID == def.ID {
			found = true
			if d.Status != model.StatusAvailable {
				t.Errorf("new instance status = %q, want available", d.Status)
			}
		}
	}
	if !found {
		t.Error("expected an instance for the new definition")
	}
}

func TestUpdateDefinition(t *testing.T) {
	ts := NewTaskStore(setupTestDB(t))

	def, _ := ts.CreateDefinition(model.TaskDefinition{
		Name:      "Water the Plants",
		Frequency: model.FrequencyDaily,
		XPYoung:   10,
		XPOld:     5,
	})

	updated, err := ts.UpdateDefinition(def.ID, model.TaskDefinition{
		Name:          "Water All the Plants",
		Frequency:     model.FrequencyWeekly,
		XPYoung:       20,
		XPOld:         15,
		RequiresPhoto: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Water All the Plants" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Frequency != model.FrequencyWeekly {
		t.Errorf("frequency = %q, want Weekly", updated.Frequency)
	}
	if !updated.RequiresPhoto {
		t.Error("expected requires_photo true")
	}
}

func TestDeleteDefinitionCascades(t *testing.T) {
	ts := NewTaskStore(setupTestDB(t))

	def, _ := ts.CreateDefinition(model.TaskDefinition{
		Name:      "Water the Plants",
		Frequency: model.FrequencyDaily,
	})

	if err := ts.DeleteDefinition(def.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	details, _ := ts.ListInstanceDetails()
	for _, d := range details {
		if d.DefinitionID == def.ID {
			t.Error("expected instance deleted with definition")
		}
	}
}

func TestUpdateInstanceLifecycleFields(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	as := NewAccountStore(db)

	child, _ := as.Create("Milo", model.RoleChild, 10)
	details, _ := ts.ListInstanceDetails()
	inst := details[0].TaskInstance

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	feedback := "needs another pass"
	inst.Status = model.StatusDenied
	inst.SelectedBy = &child.ID
	inst.CompletedBy = &child.ID
	inst.CompletedAt = &now
	inst.PhotoSupplied = true
	inst.Feedback = &feedback

	inTx(t, db, func(tx *sql.Tx) error {
		return ts.UpdateInstanceTx(tx, inst, now)
	})

	got, err := ts.GetInstance(inst.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusDenied {
		t.Errorf("status = %q, want denied", got.Status)
	}
	if got.CompletedBy == nil || *got.CompletedBy != child.ID {
		t.Error("expected completed_by persisted")
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", got.CompletedAt, now)
	}
	if !got.PhotoSupplied {
		t.Error("expected photo_supplied persisted")
	}
	if got.Feedback == nil || *got.Feedback != feedback {
		t.Error("expected feedback persisted")
	}
}

func TestResetInstanceClearsBookkeeping(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	as := NewAccountStore(db)

	child, _ := as.Create("Milo", model.RoleChild, 10)
	details, _ := ts.ListInstanceDetails()
	inst := details[0].TaskInstance

	now := time.Now().UTC()
	inst.Status = model.StatusApproved
	inst.SelectedBy = &child.ID
	inst.CompletedBy = &child.ID
	inst.CompletedAt = &now

	inTx(t, db, func(tx *sql.Tx) error {
		if err := ts.UpdateInstanceTx(tx, inst, now); err != nil {
			return err
		}
		return ts.ResetInstanceTx(tx, inst.ID, now)
	})

	got, _ := ts.GetInstance(inst.ID)
	if got.Status != model.StatusAvailable {
		t.Errorf("status = %q, want available", got.Status)
	}
	if got.SelectedBy != nil || got.CompletedBy != nil || got.CompletedAt != nil || got.Feedback != nil {
		t.Error("expected all bookkeeping cleared")
	}
	if got.PhotoSupplied {
		t.Error("expected photo_supplied cleared")
	}
}

func TestListPendingReview(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	as := NewAccountStore(db)

	child, _ := as.Create("Milo", model.RoleChild, 10)
	details, _ := ts.ListInstanceDetails()
	inst := details[0].TaskInstance

	now := time.Now().UTC()
	inst.Status = model.StatusPendingReview
	inst.CompletedBy = &child.ID
	inst.CompletedAt = &now

	inTx(t, db, func(tx *sql.Tx) error {
		return ts.UpdateInstanceTx(tx, inst, now)
	})

	pending, err := ts.ListPendingReview()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].ID != inst.ID {
		t.Errorf("pending id = %d, want %d", pending[0].ID, inst.ID)
	}
	if pending[0].Definition.ID != inst.DefinitionID {
		t.Error("expected definition joined onto pending instance")
	}
}
