package economy

import (
	"testing"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
)

func TestCashOutRateTable(t *testing.T) {
	cases := []struct {
		tier string
		want float64
	}{
		{model.TierStandard, 6.67},
		{model.TierElite, 3.33},
		{model.TierEpic, 2.5},
		{model.TierLegendary, 2.5},
	}
	for _, c := range cases {
		if got := CashOutRate(c.tier); got != c.want {
			t.Errorf("CashOutRate(%s) = %v, want %v", c.tier, got, c.want)
		}
	}
}

func TestCashOutTierFallback(t *testing.T) {
	v := CashOutTier("unknown")
	if v.Amount != 10 || v.XPCost != 1500 {
		t.Errorf("unknown tier = %+v, want standard", v)
	}
}

func TestCashOutTierValues(t *testing.T) {
	elite := CashOutTier(model.TierElite)
	if elite.Amount != 25 || elite.XPCost != 7500 {
		t.Errorf("elite = %+v, want $25/7500xp", elite)
	}
	legendary := CashOutTier(model.TierLegendary)
	if legendary.Amount != 100 || legendary.XPCost != 40000 {
		t.Errorf("legendary = %+v, want $100/40000xp", legendary)
	}
}

func TestListAvailable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	rewards := []model.Reward{
		{ID: 1, Available: true, MinLevel: 1},
		{ID: 2, Available: false, MinLevel: 1},
		{ID: 3, Available: true, MinLevel: 5},
		{ID: 4, Available: true, MinLevel: 1, ExpiresAt: &past},
		{ID: 5, Available: true, MinLevel: 1, ExpiresAt: &future},
		{ID: 6, Available: true, MinLevel: 1, XPCost: 99999}, // unaffordable but listed
	}

	got := ListAvailable(rewards, 3, now)
	want := []int64{1, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %d rewards, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestLimitedTimeOrdering(t *testing.T) {
	now := time.Now()
	soon := now.Add(time.Hour)
	later := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	rewards := []model.Reward{
		{ID: 1, ExpiresAt: &later},
		{ID: 2},
		{ID: 3, ExpiresAt: &soon},
		{ID: 4, ExpiresAt: &past},
	}

	got := LimitedTime(rewards, now)
	if len(got) != 2 {
		t.Fatalf("got %d limited-time rewards, want 2", len(got))
	}
	if got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("order = [%d, %d], want [3, 1]", got[0].ID, got[1].ID)
	}
}

func TestRewardProgress(t *testing.T) {
	r := model.Reward{XPCost: 1000}
	cases := []struct {
		xp   int
		want int
	}{
		{0, 0},
		{250, 25},
		{999, 100}, // rounds to 100
		{1000, 100},
		{5000, 100},
	}
	for _, c := range cases {
		if got := RewardProgress(c.xp, r); got != c.want {
			t.Errorf("RewardProgress(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}
