// Package progression holds the pure XP-to-level math: the fixed ten-level
// threshold table, progress toward the next level, and the gold bonus tables
// for level-ups and streaks. Everything here is stateless and safe for
// concurrent use.
package progression

// MaxLevel is the level cap; XP keeps accumulating past it but the level
// and progress percentage stay pinned.
const MaxLevel = 10

// thresholds[i] is the cumulative XP required to reach level i+1.
var thresholds = [MaxLevel]int{
	0,     // level 1
	500,   // level 2
	1250,  // level 3
	2500,  // level 4
	4000,  // level 5
	6000,  // level 6
	8500,  // level 7
	11500, // level 8
	15000, // level 9
	19000, // level 10
}

// LevelFor returns the level for a cumulative XP total, in [1, MaxLevel].
func LevelFor(xp int) int {
	for i := MaxLevel - 1; i >= 0; i-- {
		if xp >= thresholds[i] {
			return i + 1
		}
	}
	return 1
}

// Threshold returns the cumulative XP required to reach the given level.
// Levels at or below 1 return 0; levels above MaxLevel return the final
// threshold.
func Threshold(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return thresholds[level-1]
}

// Summary describes an account's position within its current level.
type Summary struct {
	CurrentLevel    int     `json:"current_level"`
	XPToNextLevel   int     `json:"xp_to_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
	IsMaxLevel      bool    `json:"is_max_level"`
}

// Progress computes the level summary for a cumulative XP total. At max
// level the percentage is pinned to 100 and XPToNextLevel to 0.
func Progress(xp int) Summary {
	level := LevelFor(xp)
	if level == MaxLevel {
		return Summary{
			CurrentLevel:    MaxLevel,
			XPToNextLevel:   0,
			ProgressPercent: 100,
			IsMaxLevel:      true,
		}
	}

	lower := Threshold(level)
	upper := Threshold(level + 1)
	pct := float64(xp-lower) / float64(upper-lower) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Summary{
		CurrentLevel:    level,
		XPToNextLevel:   upper - xp,
		ProgressPercent: pct,
	}
}

// LevelUpGoldBonus returns the gold awarded for reaching a level.
func LevelUpGoldBonus(level int) int {
	switch {
	case level <= 1:
		return 0
	case level == 2:
		return 50
	case level == 3:
		return 100
	case level == 4:
		return 150
	case level == 5:
		return 200
	default:
		return 250 + (level-5)*50
	}
}

// StreakGoldBonus returns the gold awarded for a completion streak of the
// given length in days. Streak tracking is not wired into the grant path
// yet; callers currently pass 0.
func StreakGoldBonus(streak int) int {
	switch {
	case streak >= 30:
		return 200
	case streak >= 14:
		return 75
	case streak >= 7:
		return 30
	case streak >= 3:
		return 10
	default:
		return 0
	}
}
