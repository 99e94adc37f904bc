package engine

import (
	"database/sql"
	"fmt"

	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/notify"
	"github.com/pjhalloran/questkeep/internal/progression"
)

// ClaimReward spends a child's XP on a reward. The XP cost is debited
// immediately and snapshotted on the claim. Rewards that require parent
// approval leave the claim pending; others are approved on the spot.
// A non-unlimited reward is taken off the shelf by the first claim.
func (e *Engine) ClaimReward(childID, rewardID int64) (*model.Claim, error) {
	unlockReward := e.lock(rewardKey(rewardID))
	defer unlockReward()
	unlockAccount := e.lock(accountKey(childID))
	defer unlockAccount()

	account, err := e.child(childID)
	if err != nil {
		return nil, err
	}

	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
	}
	now := e.clock.Now()
	if !reward.Available || reward.Expired(now) {
		return nil, ErrRewardUnavailable
	}
	if account.Level < reward.MinLevel {
		return nil, fmt.Errorf("level %d below %d: %w", account.Level, reward.MinLevel, ErrRewardUnavailable)
	}
	if account.CurrentXP < reward.XPCost {
		return nil, ErrInsufficientXP
	}

	approved := !reward.RequiresApproval
	newXP := account.CurrentXP - reward.XPCost
	newLevel := progression.LevelFor(newXP)

	var claimID int64
	if err := e.withTx(func(tx *sql.Tx) error {
		var err error
		claimID, err = e.rewards.CreateClaimTx(tx, rewardID, childID, reward.XPCost, approved, now)
		if err != nil {
			return err
		}
		if err := e.accounts.UpdateProgressTx(tx, childID, newXP, newLevel, account.GoldCoins); err != nil {
			return err
		}
		if !reward.Unlimited {
			return e.rewards.SetAvailabilityTx(tx, rewardID, false)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	account.CurrentXP = newXP
	account.Level = newLevel

	e.logger.Info("reward claimed", "child", childID, "reward", rewardID, "cost", reward.XPCost, "approved", approved)
	e.emit(notify.ClaimCreated(childID, claimID, rewardID, reward.XPCost))
	if approved {
		e.emit(notify.RewardClaimResolved(childID, claimID, true))
	}

	return e.rewards.GetClaim(claimID)
}

// ApproveClaim resolves a pending claim in the child's favor. The XP was
// already debited at claim time, so approval touches only the claim.
func (e *Engine) ApproveClaim(parentID, claimID int64) (*model.Claim, error) {
	claim, err := e.pendingClaim(claimID)
	if err != nil {
		return nil, err
	}

	unlockReward := e.lock(rewardKey(claim.RewardID))
	defer unlockReward()
	unlockAccount := e.lock(accountKey(claim.ChildID))
	defer unlockAccount()

	claim, err = e.pendingClaim(claimID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if err := e.withTx(func(tx *sql.Tx) error {
		return e.rewards.ResolveClaimTx(tx, claimID, true, now)
	}); err != nil {
		return nil, err
	}

	e.logger.Info("claim approved", "parent", parentID, "claim", claimID, "child", claim.ChildID)
	e.emit(notify.RewardClaimResolved(claim.ChildID, claimID, true))
	return e.rewards.GetClaim(claimID)
}

// DenyClaim resolves a pending claim against the child: the snapshotted XP
// cost is refunded and a reward taken off the shelf by this claim is put
// back.
func (e *Engine) DenyClaim(parentID, claimID int64) (*model.Claim, error) {
	claim, err := e.pendingClaim(claimID)
	if err != nil {
		return nil, err
	}

	unlockReward := e.lock(rewardKey(claim.RewardID))
	defer unlockReward()
	unlockAccount := e.lock(accountKey(claim.ChildID))
	defer unlockAccount()

	claim, err = e.pendingClaim(claimID)
	if err != nil {
		return nil, err
	}

	account, err := e.child(claim.ChildID)
	if err != nil {
		return nil, err
	}
	reward, err := e.rewards.GetByID(claim.RewardID)
	if err != nil {
		return nil, err
	}

	newXP := account.CurrentXP + claim.Cost
	newLevel := progression.LevelFor(newXP)

	now := e.clock.Now()
	if err := e.withTx(func(tx *sql.Tx) error {
		if err := e.rewards.ResolveClaimTx(tx, claimID, false, now); err != nil {
			return err
		}
		if err := e.accounts.UpdateProgressTx(tx, account.ID, newXP, newLevel, account.GoldCoins); err != nil {
			return err
		}
		if reward != nil && !reward.Unlimited && !reward.Expired(now) {
			return e.rewards.SetAvailabilityTx(tx, reward.ID, true)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	e.logger.Info("claim denied", "parent", parentID, "claim", claimID, "child", claim.ChildID, "refund", claim.Cost)
	e.emit(notify.RewardClaimResolved(claim.ChildID, claimID, false))
	return e.rewards.GetClaim(claimID)
}

// pendingClaim loads a claim and verifies it has not been resolved.
func (e *Engine) pendingClaim(claimID int64) (*model.Claim, error) {
	claim, err := e.rewards.GetClaim(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, ErrNotFound)
	}
	if !claim.Pending() {
		return nil, fmt.Errorf("claim %d already resolved: %w", claimID, ErrInvalidTransition)
	}
	return claim, nil
}

// PruneExpiredRewards removes rewards whose expiry has passed. Limited-time
// rewards are already hidden from listings once expired; pruning keeps the
// catalog from accumulating dead rows.
func (e *Engine) PruneExpiredRewards() (int64, error) {
	n, err := e.rewards.DeleteExpired(e.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.logger.Info("pruned expired rewards", "deleted", n)
	}
	return n, nil
}
