// Package types provides shared type definitions used across crocsthepen packages.
// This package exists to break import cycles between ledger, session, stream,
// and gateway. Types in this package should be foundational data structures
// with no complex dependencies.
package types

import "time"

// =============================================================================
// CHAT MODES AND ACTION COSTS
// =============================================================================

// ChatMode identifies which studio a session belongs to.
type ChatMode string

const (
	ModeGeneral ChatMode = "general"
	ModeImage   ChatMode = "image"
	ModeCode    ChatMode = "code"
	ModeWebsite ChatMode = "website"
)

// Valid reports whether m is a known chat mode.
func (m ChatMode) Valid() bool {
	switch m {
	case ModeGeneral, ModeImage, ModeCode, ModeWebsite:
		return true
	}
	return false
}

// ActionKind identifies a metered capability invocation.
type ActionKind string

const (
	ActionMessage ActionKind = "message"
	ActionImage   ActionKind = "image"
	ActionWebsite ActionKind = "website"
	ActionVideo   ActionKind = "video"
)

// Credit economy constants.
const (
	StartingCredits   = 50
	CostPerMessage    = 1
	CostPerImage      = 5
	CostPerWebsite    = 20
	CostPerVideo      = 50
	DailyRewardAmount = 40

	// RewardCooldownMs is the daily claim cooldown in epoch milliseconds.
	RewardCooldownMs = int64(24 * 60 * 60 * 1000)
)

// Cost returns the fixed credit cost for an action kind.
func (a ActionKind) Cost() int {
	switch a {
	case ActionImage:
		return CostPerImage
	case ActionWebsite:
		return CostPerWebsite
	case ActionVideo:
		return CostPerVideo
	default:
		return CostPerMessage
	}
}

// =============================================================================
// USER / ECONOMY STATE
// =============================================================================

// User is one account plus its credit ledger fields.
// Credits never go negative as a result of a gated action; the gateway
// rejects actions pre-emptively when the balance cannot cover the cost.
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Avatar         string   `json:"avatar"`
	Credits        int      `json:"credits"`
	LastDailyClaim int64    `json:"lastDailyClaim,omitempty"` // epoch millis, 0 = never claimed
	TasksCompleted []string `json:"tasksCompleted,omitempty"`
}

// HasCompletedTask reports whether the one-time task id was already credited.
func (u *User) HasCompletedTask(taskID string) bool {
	for _, id := range u.TasksCompleted {
		if id == taskID {
			return true
		}
	}
	return false
}

// =============================================================================
// MESSAGES AND SESSIONS
// =============================================================================

// Role identifies who produced a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind tags the variant of a MessagePart. Exactly one payload field is
// populated per part.
type PartKind string

const (
	PartText       PartKind = "text"
	PartInlineData PartKind = "inline_data"
	PartMediaURL   PartKind = "media_url"
)

// MediaKind distinguishes resolved media URLs.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MessagePart is a closed tagged variant: plain text, an inline binary
// payload (base64 + MIME type), or a resolved media URL.
type MessagePart struct {
	Kind PartKind `json:"kind"`

	// PartText
	Text string `json:"text,omitempty"`

	// PartInlineData
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64, no data: prefix

	// PartMediaURL
	URL   string    `json:"url,omitempty"`
	Media MediaKind `json:"media,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) MessagePart {
	return MessagePart{Kind: PartText, Text: text}
}

// InlineDataPart builds an inline binary part. Callers must strip any
// data-URL prefix from the payload first.
func InlineDataPart(mimeType, data string) MessagePart {
	return MessagePart{Kind: PartInlineData, MIMEType: mimeType, Data: data}
}

// MediaURLPart builds a resolved media reference.
func MediaURLPart(kind MediaKind, url string) MessagePart {
	return MessagePart{Kind: PartMediaURL, URL: url, Media: kind}
}

// GroundingChunk is one web citation attached to a generated answer.
type GroundingChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one conversation turn, exclusively owned by its session.
// While Generating is true the content may still change; once it flips to
// false the content is final.
type Message struct {
	ID         string           `json:"id"`
	Role       Role             `json:"role"`
	Content    string           `json:"content"`
	Parts      []MessagePart    `json:"parts,omitempty"`
	Timestamp  int64            `json:"timestamp"` // epoch millis
	Generating bool             `json:"isGenerating,omitempty"`
	Grounding  []GroundingChunk `json:"grounding,omitempty"`
}

// ChatSession is one conversation thread. Messages are append-only during the
// session's active life; insertion order is chronological.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Mode      ChatMode  `json:"mode"`
	Messages  []Message `json:"messages"`
	UpdatedAt int64     `json:"updatedAt"` // epoch millis
}

// DefaultSessionTitle is given to freshly created sessions.
const DefaultSessionTitle = "New Conversation"

// NowMillis returns the current wall clock in epoch milliseconds, the unit
// used for every timestamp persisted by this module.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
