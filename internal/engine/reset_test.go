package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
)

func TestResetReturnsDailyTasks(t *testing.T) {
	e, clk, rec := setupEngine(t)
	child := createChild(t, e, "Milo", 10)

	inst := seededInstance(t, e, "Feed the Dog")
	if _, err := e.SelectTask(child.ID, inst.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(child.ID, inst.ID, false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	clk.Advance(24 * time.Hour)

	if err := e.ResetDay(child.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := e.tasks.GetInstance(inst.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusAvailable {
		t.Errorf("status after reset = %q, want %q", got.Status, model.StatusAvailable)
	}
	if got.SelectedBy != nil || got.CompletedBy != nil || got.CompletedAt != nil {
		t.Error("expected completion bookkeeping cleared by reset")
	}

	ev := rec.last(notify.TypeCycleReset)
	if ev == nil {
		t.Fatal("expected cycle_reset event")
	}

	// XP earned yesterday survives the reset
	account := reloadAccount(t, e, child.ID)
	if account.CurrentXP != 10 {
		t.Errorf("current_xp after reset = %d, want 10", account.CurrentXP)
	}
}

func TestResetIdempotentWithinDay(t *testing.T) {
	e, clk, rec := setupEngine(t)
	child := createChild(t, e, "Milo", 10)

	clk.Advance(24 * time.Hour)

	if err := e.ResetDay(child.ID); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	first := rec.count(notify.TypeCycleReset)

	if err := e.ResetDay(child.ID); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if got := rec.count(notify.TypeCycleReset); got != first {
		t.Errorf("cycle_reset events = %d, want %d (second reset is a no-op)", got, first)
	}
}

func TestResetPreservesReviewOutcomes(t *testing.T) {
	e, clk, _ := setupEngine(t)
	milo := createChild(t, e, "Milo", 10)
	ada := createChild(t, e, "Ada", 12)
	parent := createParent(t, e, "Sam")

	// Milo's Clean Room submission is waiting for review
	clean := seededInstance(t, e, "Clean Room")
	if _, err := e.SelectTask(milo.ID, clean.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(milo.ID, clean.ID, true); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Ada's walk was denied
	walk := seededInstance(t, e, "Walk the Dog")
	if _, err := e.SelectTask(ada.ID, walk.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(ada.ID, walk.ID, false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = parent

	clk.Advance(24 * time.Hour)
	if err := e.ResetDay(milo.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := e.tasks.GetInstance(clean.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusPendingReview {
		t.Errorf("pending-review status after reset = %q, want preserved", got.Status)
	}
}

func TestResetPreservesDenied(t *testing.T) {
	e, clk, _ := setupEngine(t)
	child := createChild(t, e, "Milo", 10)
	parent := createParent(t, e, "Sam")

	clean := seededInstance(t, e, "Clean Room")
	if _, err := e.SelectTask(child.ID, clean.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(child.ID, clean.ID, true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.DenyTask(parent.ID, clean.ID, "try again"); err != nil {
		t.Fatalf("deny: %v", err)
	}

	clk.Advance(24 * time.Hour)
	if err := e.ResetDay(child.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := e.tasks.GetInstance(clean.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusDenied {
		t.Errorf("denied status after reset = %q, want preserved", got.Status)
	}
	if got.Feedback == nil {
		t.Error("expected denial feedback preserved across reset")
	}
}

func TestLazyResetOnSelect(t *testing.T) {
	e, clk, _ := setupEngine(t)
	child := createChild(t, e, "Milo", 10)

	inst := seededInstance(t, e, "Feed the Dog")
	if _, err := e.SelectTask(child.ID, inst.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(child.ID, inst.ID, false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Same task is gone for today
	if _, err := e.SelectTask(child.ID, inst.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reselect same day: err = %v, want ErrInvalidTransition", err)
	}

	// Next day the select itself triggers the reset
	clk.Advance(24 * time.Hour)
	selected, err := e.SelectTask(child.ID, inst.ID)
	if err != nil {
		t.Fatalf("select next day: %v", err)
	}
	if selected.Status != model.StatusInProgress {
		t.Errorf("status = %q, want %q", selected.Status, model.StatusInProgress)
	}
}

func TestCapClearsNextDay(t *testing.T) {
	e, clk, _ := setupEngine(t)
	child := createChild(t, e, "Milo", 10)

	if err := e.settings.Set("daily_xp_cap", "10"); err != nil {
		t.Fatalf("set cap: %v", err)
	}

	feed := seededInstance(t, e, "Feed the Dog")
	if _, err := e.SelectTask(child.ID, feed.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := e.SubmitTask(child.ID, feed.ID, false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	walk := seededInstance(t, e, "Walk the Dog")
	if _, err := e.SelectTask(child.ID, walk.ID); !errors.Is(err, ErrDailyCapReached) {
		t.Fatalf("select at cap: err = %v, want ErrDailyCapReached", err)
	}

	clk.Advance(24 * time.Hour)
	if _, err := e.SelectTask(child.ID, walk.ID); err != nil {
		t.Errorf("select next day: %v", err)
	}
}

func TestResetAll(t *testing.T) {
	e, clk, _ := setupEngine(t)
	milo := createChild(t, e, "Milo", 10)
	ada := createChild(t, e, "Ada", 12)

	clk.Advance(24 * time.Hour)
	if err := e.ResetAll(); err != nil {
		t.Fatalf("reset all: %v", err)
	}

	today := clk.Today().Format("2006-01-02")
	for _, id := range []int64{milo.ID, ada.ID} {
		account := reloadAccount(t, e, id)
		if account.LastResetDate != today {
			t.Errorf("account %d last_reset_date = %q, want %q", id, account.LastResetDate, today)
		}
	}
}

func TestResetUnknownAccount(t *testing.T) {
	e, _, _ := setupEngine(t)
	if err := e.ResetDay(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("reset unknown account: err = %v, want ErrNotFound", err)
	}
}

func TestResetSparesCurrentCycleCompletions(t *testing.T) {
	e, clk, _ := setupEngine(t)
	ada := createChild(t, e, "Ada", 12)
	bea := createChild(t, e, "Bea", 10)

	clk.Advance(24 * time.Hour)

	// Bea rolls over first and earns Feed the Dog today.
	feed := seededInstance(t, e, "Feed the Dog")
	if _, err := e.SelectTask(bea.ID, feed.ID); err != nil {
		t.Fatalf("bea select: %v", err)
	}
	if _, err := e.SubmitTask(bea.ID, feed.ID, false); err != nil {
		t.Fatalf("bea submit: %v", err)
	}

	// Ada's first action of the day triggers her own lazy reset. The shared
	// instance pool means that sweep sees Bea's completion; it must stay put.
	walk := seededInstance(t, e, "Walk the Dog")
	if _, err := e.SelectTask(ada.ID, walk.ID); err != nil {
		t.Fatalf("ada select: %v", err)
	}

	got, err := e.tasks.GetInstance(feed.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusApproved {
		t.Fatalf("feed status after ada's reset = %q, want %q", got.Status, model.StatusApproved)
	}
	if _, err := e.SelectTask(bea.ID, feed.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-select of today's completion: err = %v, want ErrInvalidTransition", err)
	}

	account := reloadAccount(t, e, bea.ID)
	if account.CurrentXP != 10 {
		t.Errorf("bea xp = %d, want 10 (granted once)", account.CurrentXP)
	}
}

func TestResetSparesCurrentCycleSelections(t *testing.T) {
	e, clk, _ := setupEngine(t)
	ada := createChild(t, e, "Ada", 12)
	bea := createChild(t, e, "Bea", 10)

	clk.Advance(24 * time.Hour)

	// Bea has Morning Routine in progress today.
	morning := seededInstance(t, e, "Morning Routine")
	if _, err := e.SelectTask(bea.ID, morning.ID); err != nil {
		t.Fatalf("bea select: %v", err)
	}

	if err := e.ResetDay(ada.ID); err != nil {
		t.Fatalf("ada reset: %v", err)
	}

	got, err := e.tasks.GetInstance(morning.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("status after ada's reset = %q, want %q", got.Status, model.StatusInProgress)
	}
	if got.SelectedBy == nil || *got.SelectedBy != bea.ID {
		t.Error("expected bea's selection preserved")
	}
}
