package engine

import (
	"database/sql"
	"time"

	"github.com/pjhalloran/questkeep/internal/clock"
	"github.com/pjhalloran/questkeep/internal/cycle"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
)

// freshen runs the daily reset for an account whose recorded reset date is
// behind today. Callers must hold the account lock. Running twice on the
// same day is a no-op, and the instance sweep itself is idempotent.
func (e *Engine) freshen(account *model.Account) error {
	today := e.clock.Today()
	if !cycle.ShouldReset(account.LastResetDate, today) {
		return nil
	}

	count, err := e.sweepAndStamp(account.ID, today)
	if err != nil {
		return err
	}

	account.LastResetDate = today.Format(clock.DateFormat)
	e.logger.Info("daily cycle reset", "account", account.ID, "instances_reset", count)
	e.emit(notify.CycleReset(account.ID, count))
	return nil
}

// sweepAndStamp returns stale daily instances to the available pool and
// stamps the account's last reset date, reading and writing in the same
// transaction. The sweep only touches activity from prior days: completions
// and selections made today stay put, so a late-resetting account cannot
// hand back an instance another child already earned this cycle.
func (e *Engine) sweepAndStamp(accountID int64, today time.Time) (int, error) {
	count := 0
	err := e.withTx(func(tx *sql.Tx) error {
		details, err := e.tasks.ListInstanceDetailsTx(tx)
		if err != nil {
			return err
		}
		for _, d := range details {
			if !cycle.Resettable(d.Definition, d.TaskInstance, today) {
				continue
			}
			if err := e.tasks.ResetInstanceTx(tx, d.ID, e.clock.Now()); err != nil {
				return err
			}
			count++
		}
		return e.accounts.SetLastResetDateTx(tx, accountID, today.Format(clock.DateFormat))
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ResetDay runs the daily reset for one account if it is due. It is safe to
// call repeatedly; only the first call on a given day does work.
func (e *Engine) ResetDay(accountID int64) error {
	unlock := e.lock(accountKey(accountID))
	defer unlock()

	account, err := e.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrNotFound
	}
	return e.freshen(account)
}

// ResetAll runs the daily reset across every account, for the explicit
// reset endpoint and the midnight sweep.
func (e *Engine) ResetAll() error {
	accounts, err := e.accounts.List()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if err := e.ResetDay(a.ID); err != nil {
			return err
		}
	}
	return nil
}
