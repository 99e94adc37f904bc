// Package economy covers the reward catalog rules and the fixed cash-out
// conversion tiers. Catalog mutation and claim workflow live in the engine;
// everything here is pure.
package economy

import (
	"math"
	"sort"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
)

// CashOutValue is a fixed dollar amount purchasable for a fixed XP cost.
type CashOutValue struct {
	Amount int `json:"amount"`
	XPCost int `json:"xp_cost"`
}

var cashOutTiers = map[string]CashOutValue{
	model.TierStandard:  {Amount: 10, XPCost: 1500},
	model.TierElite:     {Amount: 25, XPCost: 7500},
	model.TierEpic:      {Amount: 50, XPCost: 20000},
	model.TierLegendary: {Amount: 100, XPCost: 40000},
}

// CashOutTier returns the conversion for a tier, falling back to standard
// for unknown tiers.
func CashOutTier(tier string) CashOutValue {
	if v, ok := cashOutTiers[tier]; ok {
		return v
	}
	return cashOutTiers[model.TierStandard]
}

// CashOutTiers returns the full tier table keyed by tier name.
func CashOutTiers() map[string]CashOutValue {
	out := make(map[string]CashOutValue, len(cashOutTiers))
	for k, v := range cashOutTiers {
		out[k] = v
	}
	return out
}

// CashOutRate returns the tier's dollars-per-1000-XP rate, rounded to two
// decimals for display.
func CashOutRate(tier string) float64 {
	v := CashOutTier(tier)
	rate := float64(v.Amount) / float64(v.XPCost) * 1000
	return math.Round(rate*100) / 100
}

// ListAvailable filters the catalog to rewards the account can see: marked
// available, not expired, and level-gated. Affordability is deliberately not
// a listing filter; the claim path enforces it.
func ListAvailable(rewards []model.Reward, accountLevel int, now time.Time) []model.Reward {
	var out []model.Reward
	for _, r := range rewards {
		if !r.Available || r.Expired(now) {
			continue
		}
		if accountLevel < r.MinLevel {
			continue
		}
		out = append(out, r)
	}
	return out
}

// LimitedTime returns unexpired rewards that carry an expiry, soonest first.
func LimitedTime(rewards []model.Reward, now time.Time) []model.Reward {
	var out []model.Reward
	for _, r := range rewards {
		if r.ExpiresAt != nil && !r.Expired(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	return out
}

// RewardProgress returns the percentage of a reward's XP cost the account
// has banked, capped at 100.
func RewardProgress(currentXP int, reward model.Reward) int {
	if reward.XPCost <= 0 {
		return 100
	}
	pct := int(math.Round(float64(currentXP) / float64(reward.XPCost) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
