package engine

import "errors"

// Sentinel errors returned by engine operations. Handlers map these onto
// HTTP statuses; everything else is a 500.
var (
	// ErrNotFound means the referenced account, task, reward, or claim
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the operation is not legal from the
	// entity's current state, e.g. verifying a task that is not awaiting
	// review or resolving a claim twice.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrFeedbackRequired means a denial was attempted without the
	// feedback text the child needs to retry.
	ErrFeedbackRequired = errors.New("feedback required to deny")

	// ErrPhotoRequired means a task that demands photo proof was
	// submitted without one.
	ErrPhotoRequired = errors.New("photo proof required")

	// ErrDailyCapReached means the child has already earned the daily XP
	// cap and cannot start new tasks until the next reset.
	ErrDailyCapReached = errors.New("daily XP cap reached")

	// ErrInsufficientXP means the child cannot cover a reward's XP cost.
	ErrInsufficientXP = errors.New("insufficient XP")

	// ErrRewardUnavailable means the reward is claimed out, expired,
	// delisted, or gated behind a higher level.
	ErrRewardUnavailable = errors.New("reward unavailable")

	// ErrInvalidSeverity means a deduction named a severity outside the
	// minor/medium/major bands.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrNotChild means the operation targets an account that is not a
	// child account.
	ErrNotChild = errors.New("account is not a child")
)
