package gemini

import (
	"strings"
	"testing"

	"crocsthepen/internal/config"
	"crocsthepen/internal/types"
)

func TestInstructionForMode(t *testing.T) {
	if got := instructionForMode(types.ModeCode); !strings.Contains(got, "software engineer") {
		t.Fatalf("code instruction = %q", got)
	}
	if got := instructionForMode(types.ModeImage); !strings.Contains(got, "visual artist") {
		t.Fatalf("image instruction = %q", got)
	}
	if got := instructionForMode(types.ModeGeneral); !strings.Contains(got, "Google Search") {
		t.Fatalf("general instruction = %q", got)
	}
}

func TestChatModelSelection(t *testing.T) {
	c := &Client{cfg: config.DefaultConfig().Gemini}
	if got := c.chatModel(false); got != "gemini-3-flash-preview" {
		t.Fatalf("flash model = %q", got)
	}
	if got := c.chatModel(true); got != "gemini-3-pro-preview" {
		t.Fatalf("pro model = %q", got)
	}
}

func TestBuildContents_WindowAndRoles(t *testing.T) {
	var history []types.Message
	for i := 0; i < 20; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		history = append(history, types.Message{ID: "m", Role: role, Content: "turn"})
	}

	contents := buildContents(history, chatHistoryWindow, "", true)
	if len(contents) != chatHistoryWindow {
		t.Fatalf("window: got %d contents, want %d", len(contents), chatHistoryWindow)
	}
	// 20 turns, last 15 kept: history[5:] starts with an assistant turn.
	if contents[0].Role != "model" {
		t.Fatalf("first role = %q, want model", contents[0].Role)
	}
	if contents[len(contents)-1].Role != "user" {
		t.Fatalf("last role = %q, want user", contents[len(contents)-1].Role)
	}
}

func TestBuildContents_EmptyHistoryUsesPrompt(t *testing.T) {
	contents := buildContents(nil, chatHistoryWindow, "hello", false)
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	if contents[0].Role != "user" {
		t.Fatalf("role = %q, want user", contents[0].Role)
	}
}

func TestBuildContents_PartsOverContent(t *testing.T) {
	history := []types.Message{{
		ID:      "m1",
		Role:    types.RoleUser,
		Content: "fallback",
		Parts: []types.MessagePart{
			types.TextPart("describe this"),
			types.InlineDataPart("image/png", "aGVsbG8="),
			types.MediaURLPart(types.MediaImage, "https://ignored.example/x.png"),
		},
	}}

	contents := buildContents(history, chatHistoryWindow, "", false)
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	// Text part + inline part; the media URL part has no request form.
	if len(contents[0].Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(contents[0].Parts))
	}
}

func TestBuildContents_TextOnlyIgnoresParts(t *testing.T) {
	history := []types.Message{{
		ID:      "m1",
		Role:    types.RoleUser,
		Content: "build a todo app",
		Parts:   []types.MessagePart{types.InlineDataPart("image/png", "aGVsbG8=")},
	}}

	contents := buildContents(history, websiteHistoryWindow, "", true)
	if len(contents) != 1 || len(contents[0].Parts) != 1 {
		t.Fatalf("text-only history should carry exactly the content text")
	}
	if contents[0].Parts[0].Text != "build a todo app" {
		t.Fatalf("part text = %q", contents[0].Parts[0].Text)
	}
}

func TestStripDataURL(t *testing.T) {
	if got := stripDataURL("data:image/png;base64,AAAA"); got != "AAAA" {
		t.Fatalf("got %q", got)
	}
	if got := stripDataURL("AAAA"); got != "AAAA" {
		t.Fatalf("got %q", got)
	}
}
