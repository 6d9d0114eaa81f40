// Package ledger implements the credit economy: balance gating, debits,
// rewards, and the daily claim cooldown. Every successful mutation is one
// read-modify-persist step through the injected saver, so the gateway's
// single-mutator invariant holds even with asynchronous persistence
// underneath.
package ledger

import (
	"errors"
	"fmt"

	"crocsthepen/internal/logging"
	"crocsthepen/internal/types"
)

var (
	// ErrInsufficientCredits signals a pre-flight rejection; no state changed.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrCooldownActive signals a daily claim attempted before the cooldown
	// elapsed.
	ErrCooldownActive = errors.New("daily reward cooldown active")

	// ErrTaskCompleted signals a one-time task that was already credited.
	ErrTaskCompleted = errors.New("task already completed")

	// ErrUnknownTask signals a task id outside the fixed reward table.
	ErrUnknownTask = errors.New("unknown reward task")
)

// Task is one entry in the fixed one-time reward table.
type Task struct {
	ID     string
	Reward int
}

// Tasks is the fixed one-time reward table. Task ids outside this table are
// never credited.
var Tasks = []Task{
	{ID: "roblox_follow", Reward: 10},
	{ID: "roblox_group", Reward: 15},
}

// TaskReward looks up the reward for a task id.
func TaskReward(taskID string) (int, bool) {
	for _, t := range Tasks {
		if t.ID == taskID {
			return t.Reward, true
		}
	}
	return 0, false
}

// UserSaver persists an updated user record. The concrete implementation is
// the auth registry; tests inject fakes.
type UserSaver interface {
	SaveUser(u *types.User) error
}

// Ledger mutates user credit state. It holds no state of its own beyond the
/// persistence collaborator: operations take the current user record and
// return an updated copy.
type Ledger struct {
	saver UserSaver
}

// New creates a ledger backed by the given saver.
func New(saver UserSaver) *Ledger {
	return &Ledger{saver: saver}
}

// Balance returns the user's current credit balance.
func (l *Ledger) Balance(u *types.User) int {
	return u.Credits
}

// CanAfford reports whether the balance covers a non-negative cost.
func (l *Ledger) CanAfford(u *types.User, cost int) bool {
	return cost >= 0 && u.Credits >= cost
}

// Debit reduces the balance by amount and persists the result. If amount
// exceeds the balance nothing changes and ErrInsufficientCredits is returned.
func (l *Ledger) Debit(u *types.User, amount int) (*types.User, error) {
	if amount < 0 {
		return nil, fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	if amount > u.Credits {
		logging.Ledger("Debit rejected: user=%s balance=%d amount=%d", u.ID, u.Credits, amount)
		return nil, ErrInsufficientCredits
	}

	updated := clone(u)
	updated.Credits -= amount
	if err := l.saver.SaveUser(updated); err != nil {
		return nil, fmt.Errorf("persist debit: %w", err)
	}
	logging.Ledger("Debited %d CR: user=%s balance=%d", amount, u.ID, updated.Credits)
	return updated, nil
}

// CreditOpts carries the optional side effects of a credit.
type CreditOpts struct {
	// SetLastClaim stamps the daily claim timestamp (epoch millis) when > 0.
	SetLastClaim int64
	// TaskID appends a completed one-time task id when non-empty. Crediting
	// the same task twice is the caller's error to prevent; see CompleteTask.
	TaskID string
}

// Credit increases the balance, optionally updating the claim timestamp and
// completed-task set, and persists the result.
func (l *Ledger) Credit(u *types.User, amount int, opts CreditOpts) (*types.User, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}

	updated := clone(u)
	updated.Credits += amount
	if opts.SetLastClaim > 0 {
		updated.LastDailyClaim = opts.SetLastClaim
	}
	if opts.TaskID != "" {
		updated.TasksCompleted = append(updated.TasksCompleted, opts.TaskID)
	}
	if err := l.saver.SaveUser(updated); err != nil {
		return nil, fmt.Errorf("persist credit: %w", err)
	}
	logging.Ledger("Credited %d CR: user=%s balance=%d", amount, u.ID, updated.Credits)
	return updated, nil
}

// TimeUntilNextClaim returns the milliseconds remaining before the daily
// reward is claimable again, 0 if claimable now.
func (l *Ledger) TimeUntilNextClaim(u *types.User, now, cooldownMs int64) int64 {
	elapsed := now - u.LastDailyClaim
	if elapsed >= cooldownMs {
		return 0
	}
	return cooldownMs - elapsed
}

// ClaimDaily credits the daily reward and stamps the claim time. Claims
// inside the cooldown window are rejected without state change.
func (l *Ledger) ClaimDaily(u *types.User, now int64) (*types.User, error) {
	if l.TimeUntilNextClaim(u, now, types.RewardCooldownMs) > 0 {
		return nil, ErrCooldownActive
	}
	return l.Credit(u, types.DailyRewardAmount, CreditOpts{SetLastClaim: now})
}

// CompleteTask credits a one-time task reward at most once per task id. The
// reward amount comes from the fixed task table; unknown ids are rejected.
func (l *Ledger) CompleteTask(u *types.User, taskID string) (*types.User, error) {
	reward, ok := TaskReward(taskID)
	if !ok {
		return nil, ErrUnknownTask
	}
	if u.HasCompletedTask(taskID) {
		return nil, ErrTaskCompleted
	}
	return l.Credit(u, reward, CreditOpts{TaskID: taskID})
}

func clone(u *types.User) *types.User {
	c := *u
	if len(u.TasksCompleted) > 0 {
		c.TasksCompleted = append([]string(nil), u.TasksCompleted...)
	}
	return &c
}
