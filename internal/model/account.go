package model

import "time"

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

// YoungAgeMax is the upper bound (inclusive) of the "young" age band used
// to resolve task XP and gold columns.
const YoungAgeMax = 8

type Account struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Age           int       `json:"age"`
	Level         int       `json:"level"`
	CurrentXP     int       `json:"current_xp"`
	GoldCoins     int       `json:"gold_coins"`
	HasPIN        bool      `json:"has_pin"`
	LastResetDate string    `json:"last_reset_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a Account) IsParent() bool { return a.Role == RoleParent }

// IsYoung reports whether the account falls in the young age band.
func (a Account) IsYoung() bool { return a.Age <= YoungAgeMax }
