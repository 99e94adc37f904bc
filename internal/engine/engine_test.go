package engine

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/pjhalloran/questkeep/internal/clock"
	"github.com/pjhalloran/questkeep/internal/database"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
)

// recorder captures emitted events for assertions.
type recorder struct {
	events []notify.Event
}

func (r *recorder) sink(e notify.Event) {
	r.events = append(r.events, e)
}

func (r *recorder) count(eventType string) int {
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(eventType string) *notify.Event {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return &r.events[i]
		}
	}
	return nil
}

func setupEngine(t *testing.T) (*Engine, *clock.Fixed, *recorder) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	e := New(db, clk, rec.sink, slog.Default())
	return e, clk, rec
}

// createChild makes a child account already stamped with today's reset date
// so lazy resets do not fire mid-test.
func createChild(t *testing.T, e *Engine, name string, age int) *model.Account {
	t.Helper()
	account, err := e.accounts.Create(name, model.RoleChild, age)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	stampToday(t, e, account)
	return account
}

func createParent(t *testing.T, e *Engine, name string) *model.Account {
	t.Helper()
	account, err := e.accounts.Create(name, model.RoleParent, 40)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return account
}

func stampToday(t *testing.T, e *Engine, account *model.Account) {
	t.Helper()
	date := e.clock.Today().Format(clock.DateFormat)
	err := e.withTx(func(tx *sql.Tx) error {
		return e.accounts.SetLastResetDateTx(tx, account.ID, date)
	})
	if err != nil {
		t.Fatalf("stamp reset date: %v", err)
	}
	account.LastResetDate = date
}

// setProgress overwrites an account's XP, level, and gold directly.
func setProgress(t *testing.T, e *Engine, id int64, xp, level, gold int) {
	t.Helper()
	err := e.withTx(func(tx *sql.Tx) error {
		return e.accounts.UpdateProgressTx(tx, id, xp, level, gold)
	})
	if err != nil {
		t.Fatalf("set progress: %v", err)
	}
}

// seededInstance finds the instance of a seeded catalog definition by name.
func seededInstance(t *testing.T, e *Engine, name string) model.InstanceDetail {
	t.Helper()
	details, err := e.tasks.ListInstanceDetails()
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	for _, d := range details {
		if d.Definition.Name == name {
			return d
		}
	}
	t.Fatalf("no seeded instance for %q", name)
	return model.InstanceDetail{}
}

func reloadAccount(t *testing.T, e *Engine, id int64) *model.Account {
	t.Helper()
	account, err := e.accounts.GetByID(id)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if account == nil {
		t.Fatalf("account %d vanished", id)
	}
	return account
}
