package model

import "time"

const (
	TierStandard  = "standard"
	TierElite     = "elite"
	TierEpic      = "epic"
	TierLegendary = "legendary"
	TierSpecial   = "special"
)

type Reward struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Tier             string     `json:"tier"`
	XPCost           int        `json:"xp_cost"`
	MinLevel         int        `json:"min_level"`
	RequiresApproval bool       `json:"requires_approval"`
	Unlimited        bool       `json:"unlimited"`
	Available        bool       `json:"available"`
	ExpiresAt        *time.Time `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Expired reports whether the reward carries an expiry that has passed.
func (r Reward) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Claim records a child's redemption of a reward. Cost is a snapshot of the
// reward's XP cost at claim time and never changes afterward. Approved and
// denied are mutually exclusive; both false means the claim is pending.
type Claim struct {
	ID         int64      `json:"id"`
	RewardID   int64      `json:"reward_id"`
	ChildID    int64      `json:"child_id"`
	Cost       int        `json:"cost"`
	Approved   bool       `json:"approved"`
	Denied     bool       `json:"denied"`
	ClaimedAt  time.Time  `json:"claimed_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

func (c Claim) Pending() bool { return !c.Approved && !c.Denied }
