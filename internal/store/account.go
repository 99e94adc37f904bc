package store

import (
	"database/sql"
	"fmt"

	"github.com/pjhalloran/questkeep/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var hasPIN int

	err := scanner.Scan(
		&a.ID, &a.Name, &a.Role, &a.Age, &a.Level, &a.CurrentXP, &a.GoldCoins,
		&hasPIN, &a.LastResetDate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.HasPIN = hasPIN != 0
	return &a, nil
}

const accountCols = `id, name, role, age, level, current_xp, gold_coins, pin IS NOT NULL, last_reset_date, created_at, updated_at`

func (s *AccountStore) Create(name, role string, age int) (*model.Account, error) {
	result, err := s.db.Exec(
		`INSERT INTO accounts (name, role, age) VALUES (?, ?, ?)`,
		name, role, age,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AccountStore) GetByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) List() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountCols + ` FROM accounts ORDER BY role DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListChildren returns child accounts only, ordered by name.
func (s *AccountStore) ListChildren() ([]model.Account, error) {
	rows, err := s.db.Query(
		`SELECT `+accountCols+` FROM accounts WHERE role = ? ORDER BY name ASC`,
		model.RoleChild,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]model.Account, error) {
	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) Update(id int64, name string, age int) (*model.Account, error) {
	_, err := s.db.Exec(
		`UPDATE accounts SET name = ?, age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, age, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetByID(id)
}

func (s *AccountStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// UpdateProgressTx writes the XP/level/gold triple inside an engine
// transaction so the account can never be observed mid-grant.
func (s *AccountStore) UpdateProgressTx(tx *sql.Tx, id int64, currentXP, level, goldCoins int) error {
	_, err := tx.Exec(
		`UPDATE accounts SET current_xp = ?, level = ?, gold_coins = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		currentXP, level, goldCoins, id,
	)
	if err != nil {
		return fmt.Errorf("update account progress: %w", err)
	}
	return nil
}

// SetLastResetDateTx records the calendar date of the account's last daily
// cycle reset.
func (s *AccountStore) SetLastResetDateTx(tx *sql.Tx, id int64, date string) error {
	_, err := tx.Exec(
		`UPDATE accounts SET last_reset_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		date, id,
	)
	if err != nil {
		return fmt.Errorf("set last reset date: %w", err)
	}
	return nil
}

func (s *AccountStore) SetPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE accounts SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *AccountStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(`UPDATE accounts SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns the stored PIN hash, or empty string if no PIN is set.
func (s *AccountStore) GetPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM accounts WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("account not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}
