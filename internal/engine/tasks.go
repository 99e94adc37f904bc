package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pjhalloran/questkeep/internal/cycle"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
	"github.com/pjhalloran/questkeep/internal/progression"
)

// SelectTask moves an available task instance to in-progress for the child.
// Selection is refused once the child has reached the daily XP cap.
func (e *Engine) SelectTask(childID, instanceID int64) (*model.TaskInstance, error) {
	unlock := e.lock(accountKey(childID))
	defer unlock()

	account, err := e.child(childID)
	if err != nil {
		return nil, err
	}
	if err := e.freshen(account); err != nil {
		return nil, err
	}

	inst, err := e.tasks.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if inst.Status != model.StatusAvailable {
		return nil, fmt.Errorf("select from %s: %w", inst.Status, ErrInvalidTransition)
	}

	details, err := e.tasks.ListInstanceDetails()
	if err != nil {
		return nil, err
	}
	if cycle.IsCapped(childID, account.Age, details, e.clock.Today(), e.dailyCap()) {
		return nil, ErrDailyCapReached
	}

	inst.Status = model.StatusInProgress
	inst.SelectedBy = &childID
	if err := e.withTx(func(tx *sql.Tx) error {
		return e.tasks.UpdateInstanceTx(tx, *inst, e.clock.Now())
	}); err != nil {
		return nil, err
	}

	e.logger.Info("task selected", "child", childID, "instance", instanceID)
	return inst, nil
}

// SubmitTask completes an in-progress task. Tasks that require photo proof
// or parent approval move to pending-review; everything else is approved
// immediately and the child's rewards are granted in the same transaction.
func (e *Engine) SubmitTask(childID, instanceID int64, photoSupplied bool) (*model.TaskInstance, error) {
	unlock := e.lock(accountKey(childID))
	defer unlock()

	account, err := e.child(childID)
	if err != nil {
		return nil, err
	}
	if err := e.freshen(account); err != nil {
		return nil, err
	}

	detail, err := e.tasks.GetInstanceDetail(instanceID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if detail.Status != model.StatusInProgress || detail.SelectedBy == nil || *detail.SelectedBy != childID {
		return nil, fmt.Errorf("submit from %s: %w", detail.Status, ErrInvalidTransition)
	}
	if detail.Definition.RequiresPhoto && !photoSupplied {
		return nil, ErrPhotoRequired
	}

	now := e.clock.Now()
	inst := detail.TaskInstance
	inst.CompletedBy = &childID
	inst.CompletedAt = &now
	inst.PhotoSupplied = photoSupplied

	if detail.Definition.NeedsReview() {
		inst.Status = model.StatusPendingReview
		if err := e.withTx(func(tx *sql.Tx) error {
			return e.tasks.UpdateInstanceTx(tx, inst, now)
		}); err != nil {
			return nil, err
		}
		e.logger.Info("task submitted for review", "child", childID, "instance", instanceID)
		e.emit(notify.TaskSubmitted(childID, instanceID, true))
		return &inst, nil
	}

	inst.Status = model.StatusApproved
	var events []notify.Event
	if err := e.withTx(func(tx *sql.Tx) error {
		if err := e.tasks.UpdateInstanceTx(tx, inst, now); err != nil {
			return err
		}
		events, err = e.grantTx(tx, account, detail.Definition, instanceID)
		return err
	}); err != nil {
		return nil, err
	}

	e.logger.Info("task completed", "child", childID, "instance", instanceID)
	e.emit(notify.TaskSubmitted(childID, instanceID, false))
	e.emit(events...)
	return &inst, nil
}

// VerifyTask approves a pending-review submission and grants the completing
// child their rewards. Verifying the same submission twice fails.
func (e *Engine) VerifyTask(parentID, instanceID int64) (*model.TaskInstance, error) {
	peek, err := e.tasks.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if peek.Status != model.StatusPendingReview || peek.CompletedBy == nil {
		return nil, fmt.Errorf("verify from %s: %w", peek.Status, ErrInvalidTransition)
	}
	childID := *peek.CompletedBy

	unlock := e.lock(accountKey(childID))
	defer unlock()

	// Re-read under the lock so a concurrent verify or reset cannot
	// double-grant.
	detail, err := e.tasks.GetInstanceDetail(instanceID)
	if err != nil {
		return nil, err
	}
	if detail == nil || detail.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("verify: %w", ErrInvalidTransition)
	}

	account, err := e.child(childID)
	if err != nil {
		return nil, err
	}

	inst := detail.TaskInstance
	inst.Status = model.StatusApproved
	var events []notify.Event
	if err := e.withTx(func(tx *sql.Tx) error {
		if err := e.tasks.UpdateInstanceTx(tx, inst, e.clock.Now()); err != nil {
			return err
		}
		events, err = e.grantTx(tx, account, detail.Definition, instanceID)
		return err
	}); err != nil {
		return nil, err
	}

	e.logger.Info("task verified", "parent", parentID, "child", childID, "instance", instanceID)
	e.emit(events...)
	return &inst, nil
}

// DenyTask rejects a pending-review submission. Feedback is mandatory so
// the child knows what to fix before retrying.
func (e *Engine) DenyTask(parentID, instanceID int64, feedback string) (*model.TaskInstance, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrFeedbackRequired
	}

	peek, err := e.tasks.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if peek.Status != model.StatusPendingReview || peek.CompletedBy == nil {
		return nil, fmt.Errorf("deny from %s: %w", peek.Status, ErrInvalidTransition)
	}
	childID := *peek.CompletedBy

	unlock := e.lock(accountKey(childID))
	defer unlock()

	inst, err := e.tasks.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil || inst.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("deny: %w", ErrInvalidTransition)
	}

	inst.Status = model.StatusDenied
	inst.Feedback = &feedback
	if err := e.withTx(func(tx *sql.Tx) error {
		return e.tasks.UpdateInstanceTx(tx, *inst, e.clock.Now())
	}); err != nil {
		return nil, err
	}

	e.logger.Info("task denied", "parent", parentID, "child", childID, "instance", instanceID)
	e.emit(notify.TaskDenied(childID, instanceID, feedback))
	return inst, nil
}

// RetryTask puts a denied submission back in the child's hands. The denial
// feedback and completion bookkeeping are cleared; the task keeps its
// in-progress claim by the same child.
func (e *Engine) RetryTask(childID, instanceID int64) (*model.TaskInstance, error) {
	unlock := e.lock(accountKey(childID))
	defer unlock()

	if _, err := e.child(childID); err != nil {
		return nil, err
	}

	inst, err := e.tasks.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if inst.Status != model.StatusDenied || inst.CompletedBy == nil || *inst.CompletedBy != childID {
		return nil, fmt.Errorf("retry from %s: %w", inst.Status, ErrInvalidTransition)
	}

	inst.Status = model.StatusInProgress
	inst.CompletedBy = nil
	inst.CompletedAt = nil
	inst.PhotoSupplied = false
	inst.Feedback = nil
	if err := e.withTx(func(tx *sql.Tx) error {
		return e.tasks.UpdateInstanceTx(tx, *inst, e.clock.Now())
	}); err != nil {
		return nil, err
	}

	e.logger.Info("task retried", "child", childID, "instance", instanceID)
	return inst, nil
}

// grantTx applies a verified task's XP and gold to the child inside the
// caller's transaction and returns the events to emit after commit. Level
// is recomputed from total XP; each level crossed pays its gold bonus.
func (e *Engine) grantTx(tx *sql.Tx, account *model.Account, def model.TaskDefinition, instanceID int64) ([]notify.Event, error) {
	xpGain := def.XPFor(account.Age)
	goldGain := def.GoldFor(account.Age)

	newXP := account.CurrentXP + xpGain
	newLevel := progression.LevelFor(newXP)

	bonusGold := 0
	for l := account.Level + 1; l <= newLevel; l++ {
		bonusGold += progression.LevelUpGoldBonus(l)
	}

	// Streak tracking is not persisted yet, so the streak bonus table is
	// consulted with a zero streak and contributes nothing.
	streakGold := progression.StreakGoldBonus(0)

	newGold := account.GoldCoins + goldGain + bonusGold + streakGold
	if err := e.accounts.UpdateProgressTx(tx, account.ID, newXP, newLevel, newGold); err != nil {
		return nil, err
	}

	events := []notify.Event{notify.TaskVerified(account.ID, instanceID, xpGain, goldGain)}
	if newLevel > account.Level {
		events = append(events, notify.LeveledUp(account.ID, newLevel, bonusGold))
	}
	if streakGold > 0 {
		events = append(events, notify.StreakBonus(account.ID, streakGold))
	}

	account.CurrentXP = newXP
	account.Level = newLevel
	account.GoldCoins = newGold
	return events, nil
}
