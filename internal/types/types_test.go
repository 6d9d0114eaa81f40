package types

import "testing"

func TestChatModeValid(t *testing.T) {
	for _, mode := range []ChatMode{ModeGeneral, ModeImage, ModeCode, ModeWebsite} {
		if !mode.Valid() {
			t.Errorf("mode %q should be valid", mode)
		}
	}
	if ChatMode("audio").Valid() {
		t.Error("unknown mode should be invalid")
	}
	if ChatMode("").Valid() {
		t.Error("empty mode should be invalid")
	}
}

func TestActionCost(t *testing.T) {
	cases := []struct {
		kind ActionKind
		want int
	}{
		{ActionMessage, 1},
		{ActionImage, 5},
		{ActionWebsite, 20},
		{ActionVideo, 50},
	}
	for _, tc := range cases {
		if got := tc.kind.Cost(); got != tc.want {
			t.Errorf("%s cost = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestHasCompletedTask(t *testing.T) {
	u := User{TasksCompleted: []string{"first-website", "invite-friend"}}
	if !u.HasCompletedTask("first-website") {
		t.Error("expected completed task to be found")
	}
	if u.HasCompletedTask("daily-streak") {
		t.Error("unexpected task reported complete")
	}
	var empty User
	if empty.HasCompletedTask("anything") {
		t.Error("empty user has no completed tasks")
	}
}
