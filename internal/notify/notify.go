// Package notify carries engine events to out-of-band consumers: the
// WebSocket hub for connected dashboards and the web-push service for
// subscribed devices. Delivery is best-effort; a failed notification never
// affects the state change that produced it.
package notify

// Event types emitted by the engine.
const (
	TypeTaskSubmitted       = "task_submitted"
	TypeTaskVerified        = "task_verified"
	TypeTaskDenied          = "task_denied"
	TypeLeveledUp           = "leveled_up"
	TypeStreakBonus         = "streak_bonus"
	TypeClaimCreated        = "claim_created"
	TypeRewardClaimResolved = "claim_resolved"
	TypeDeductionApplied    = "deduction_applied"
	TypeCycleReset          = "cycle_reset"
)

// Event is a single engine occurrence worth telling someone about.
type Event struct {
	Type    string         `json:"type"`
	ChildID int64          `json:"child_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Sink consumes events fire-and-forget. Implementations must not block the
// caller on network I/O.
type Sink func(Event)

// Discard is a Sink that drops every event, for tests and headless use.
func Discard(Event) {}

func TaskSubmitted(childID, instanceID int64, pendingReview bool) Event {
	return Event{
		Type:    TypeTaskSubmitted,
		ChildID: childID,
		Data:    map[string]any{"instance_id": instanceID, "pending_review": pendingReview},
	}
}

func TaskVerified(childID, instanceID int64, xp, gold int) Event {
	return Event{
		Type:    TypeTaskVerified,
		ChildID: childID,
		Data:    map[string]any{"instance_id": instanceID, "xp": xp, "gold": gold},
	}
}

func TaskDenied(childID, instanceID int64, feedback string) Event {
	return Event{
		Type:    TypeTaskDenied,
		ChildID: childID,
		Data:    map[string]any{"instance_id": instanceID, "feedback": feedback},
	}
}

func LeveledUp(childID int64, newLevel, bonusGold int) Event {
	return Event{
		Type:    TypeLeveledUp,
		ChildID: childID,
		Data:    map[string]any{"new_level": newLevel, "bonus_gold": bonusGold},
	}
}

func StreakBonus(childID int64, amount int) Event {
	return Event{
		Type:    TypeStreakBonus,
		ChildID: childID,
		Data:    map[string]any{"amount": amount},
	}
}

func ClaimCreated(childID, claimID, rewardID int64, cost int) Event {
	return Event{
		Type:    TypeClaimCreated,
		ChildID: childID,
		Data:    map[string]any{"claim_id": claimID, "reward_id": rewardID, "cost": cost},
	}
}

func RewardClaimResolved(childID, claimID int64, approved bool) Event {
	return Event{
		Type:    TypeRewardClaimResolved,
		ChildID: childID,
		Data:    map[string]any{"claim_id": claimID, "approved": approved},
	}
}

func DeductionApplied(childID, entryID int64, delta int, severity string) Event {
	return Event{
		Type:    TypeDeductionApplied,
		ChildID: childID,
		Data:    map[string]any{"entry_id": entryID, "delta": delta, "severity": severity},
	}
}

func CycleReset(childID int64, resetCount int) Event {
	return Event{
		Type:    TypeCycleReset,
		ChildID: childID,
		Data:    map[string]any{"reset_count": resetCount},
	}
}
