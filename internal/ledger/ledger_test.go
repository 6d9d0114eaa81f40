package ledger

import (
	"errors"
	"testing"

	"crocsthepen/internal/types"
)

type fakeSaver struct {
	saved []*types.User
	err   error
}

func (f *fakeSaver) SaveUser(u *types.User) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, u)
	return nil
}

func testUser(credits int) *types.User {
	return &types.User{ID: "u1", Username: "Tester", Email: "test@example.com", Credits: credits}
}

func TestDebit_Success(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)
	u := testUser(20)

	updated, err := l.Debit(u, 5)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if updated.Credits != 15 {
		t.Fatalf("balance=%d, want 15", updated.Credits)
	}
	if u.Credits != 20 {
		t.Fatalf("original mutated: balance=%d, want 20", u.Credits)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(saver.saved))
	}
}

func TestDebit_InsufficientCredits(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)
	u := testUser(20)

	if _, err := l.Debit(u, 50); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err=%v, want ErrInsufficientCredits", err)
	}
	if u.Credits != 20 {
		t.Fatalf("balance changed on rejected debit: %d", u.Credits)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("persisted on rejected debit")
	}
}

func TestDebit_PersistFailureLeavesBalance(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	l := New(saver)
	u := testUser(20)

	if _, err := l.Debit(u, 5); err == nil {
		t.Fatalf("expected persist error")
	}
	if u.Credits != 20 {
		t.Fatalf("balance changed on failed persist: %d", u.Credits)
	}
}

func TestCanAfford(t *testing.T) {
	l := New(&fakeSaver{})
	u := testUser(5)

	if !l.CanAfford(u, 5) {
		t.Fatalf("CanAfford(5)=false with balance 5")
	}
	if l.CanAfford(u, 6) {
		t.Fatalf("CanAfford(6)=true with balance 5")
	}
	if l.CanAfford(u, -1) {
		t.Fatalf("CanAfford(-1)=true")
	}
}

func TestCredit_SetsClaimAndTask(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)
	u := testUser(0)

	updated, err := l.Credit(u, 10, CreditOpts{SetLastClaim: 1234, TaskID: "follow_x"})
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if updated.Credits != 10 {
		t.Fatalf("balance=%d, want 10", updated.Credits)
	}
	if updated.LastDailyClaim != 1234 {
		t.Fatalf("lastClaim=%d, want 1234", updated.LastDailyClaim)
	}
	if !updated.HasCompletedTask("follow_x") {
		t.Fatalf("task not recorded")
	}
}

func TestTimeUntilNextClaim(t *testing.T) {
	l := New(&fakeSaver{})
	u := testUser(0) // lastClaim=0, immediately claimable

	if got := l.TimeUntilNextClaim(u, types.RewardCooldownMs, types.RewardCooldownMs); got != 0 {
		t.Fatalf("remaining=%d, want 0", got)
	}

	u.LastDailyClaim = 1_000_000
	now := u.LastDailyClaim + 1000
	remaining := l.TimeUntilNextClaim(u, now, types.RewardCooldownMs)
	if remaining != types.RewardCooldownMs-1000 {
		t.Fatalf("remaining=%d, want %d", remaining, types.RewardCooldownMs-1000)
	}

	// Strictly decreasing as time advances.
	later := l.TimeUntilNextClaim(u, now+5000, types.RewardCooldownMs)
	if later >= remaining {
		t.Fatalf("remaining did not decrease: %d -> %d", remaining, later)
	}

	// Exactly at the boundary the claim opens.
	if got := l.TimeUntilNextClaim(u, u.LastDailyClaim+types.RewardCooldownMs, types.RewardCooldownMs); got != 0 {
		t.Fatalf("remaining at boundary=%d, want 0", got)
	}
}

func TestClaimDaily(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)
	u := testUser(10)

	now := int64(5_000_000_000)
	updated, err := l.ClaimDaily(u, now)
	if err != nil {
		t.Fatalf("ClaimDaily: %v", err)
	}
	if updated.Credits != 10+types.DailyRewardAmount {
		t.Fatalf("balance=%d, want %d", updated.Credits, 10+types.DailyRewardAmount)
	}
	if updated.LastDailyClaim != now {
		t.Fatalf("lastClaim=%d, want %d", updated.LastDailyClaim, now)
	}

	// Second claim inside the window is rejected without state change.
	if _, err := l.ClaimDaily(updated, now+1000); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("err=%v, want ErrCooldownActive", err)
	}
	if got := l.TimeUntilNextClaim(updated, now+1000, types.RewardCooldownMs); got != types.RewardCooldownMs-1000 {
		t.Fatalf("remaining=%d, want %d", got, types.RewardCooldownMs-1000)
	}
}

func TestCompleteTask_Idempotent(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)
	u := testUser(0)

	updated, err := l.CompleteTask(u, "roblox_group")
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if updated.Credits != 15 {
		t.Fatalf("balance=%d, want 15", updated.Credits)
	}

	if _, err := l.CompleteTask(updated, "roblox_group"); !errors.Is(err, ErrTaskCompleted) {
		t.Fatalf("err=%v, want ErrTaskCompleted", err)
	}
}

func TestCompleteTask_RewardsComeFromFixedTable(t *testing.T) {
	saver := &fakeSaver{}
	l := New(saver)

	// Unknown ids are rejected before any state change.
	if _, err := l.CompleteTask(testUser(0), "invented_task"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err=%v, want ErrUnknownTask", err)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("unknown task persisted a user, saves=%d", len(saver.saved))
	}

	// Every table entry credits exactly its listed reward.
	u := testUser(0)
	total := 0
	for _, task := range Tasks {
		updated, err := l.CompleteTask(u, task.ID)
		if err != nil {
			t.Fatalf("CompleteTask(%s): %v", task.ID, err)
		}
		total += task.Reward
		if updated.Credits != total {
			t.Fatalf("balance after %s = %d, want %d", task.ID, updated.Credits, total)
		}
		u = updated
	}
}
