// Package gateway orchestrates one user action end to end: validate against
// the credit ledger, dispatch to exactly one generation capability, drive the
// streaming accumulator into the active session, and settle (debit + persist)
// on terminal success. On any failure nothing is debited and the in-flight
// message is annotated with the error.
//
// Per action the machine moves Idle -> Validating -> Dispatching ->
// Streaming -> Settling -> Idle, with an error edge from any non-idle state
// to Failed -> Idle. At most one action is in flight per session; a second
// request while one runs is rejected as busy, never queued.
package gateway

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"crocsthepen/internal/gemini"
	"crocsthepen/internal/ledger"
	"crocsthepen/internal/logging"
	"crocsthepen/internal/session"
	"crocsthepen/internal/stream"
	"crocsthepen/internal/types"
)

// State names one phase of an in-flight action.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateDispatching State = "dispatching"
	StateStreaming   State = "streaming"
	StateSettling    State = "settling"
	StateFailed      State = "failed"
)

// Generator is the external generation service surface the gateway dispatches
// to. The concrete implementation is the gemini client; tests inject fakes.
type Generator interface {
	StreamChat(ctx context.Context, req gemini.ChatRequest, onFragment func(stream.Fragment)) error
	StreamWebsite(ctx context.Context, history []types.Message, onFragment func(stream.Fragment)) error
	GenerateImage(ctx context.Context, prompt string, input *gemini.InlineImage) (string, error)
	GenerateVideo(ctx context.Context, req gemini.VideoRequest) (string, error)
}

// Gateway wires the ledger, session store, and generation client together.
// It is the only component that mutates credit balance or session history.
type Gateway struct {
	ledger   *ledger.Ledger
	sessions *session.Store
	gen      Generator

	mu       sync.Mutex
	inflight map[string]bool

	// observer, when set, receives state transitions. Test hook.
	observer func(scope string, s State)
}

// New creates a gateway.
func New(l *ledger.Ledger, sessions *session.Store, gen Generator) *Gateway {
	return &Gateway{
		ledger:   l,
		sessions: sessions,
		gen:      gen,
		inflight: make(map[string]bool),
	}
}

func (g *Gateway) enter(scope string, s State) {
	logging.GatewayDebug("%s -> %s", scope, s)
	if g.observer != nil {
		g.observer(scope, s)
	}
}

// acquire marks the scope busy. Returns false when an action is already in
// flight for it.
func (g *Gateway) acquire(scope string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[scope] {
		return false
	}
	g.inflight[scope] = true
	return true
}

func (g *Gateway) release(scope string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, scope)
	g.enter(scope, StateIdle)
}

// Attachment is an inline binary input accompanying a prompt.
type Attachment struct {
	Base64   string
	MIMEType string
}

// ChatInput is one chat-studio action.
type ChatInput struct {
	User        *types.User
	SessionID   string
	Mode        types.ChatMode
	Prompt      string
	Attachments []Attachment
	UsePro      bool
	// ForceImage requests image generation regardless of mode.
	ForceImage bool
	// Render receives every progressive update of the assistant message.
	Render stream.Sink
}

// Result is the terminal outcome of a successful action.
type Result struct {
	// User carries the post-debit balance.
	User *types.User
	// Message is the finalized assistant message.
	Message types.Message
	// Artifact is the extracted website document, when applicable.
	Artifact string
	// VideoURL is the downloadable media URI, when applicable.
	VideoURL string
}

// SendMessage runs one chat-studio turn: streamed text generation, or a
// single-shot image generation when the mode (or ForceImage) asks for it.
func (g *Gateway) SendMessage(ctx context.Context, in ChatInput) (*Result, error) {
	scope := in.SessionID
	if !g.acquire(scope) {
		return nil, ErrBusy
	}
	defer g.release(scope)

	isImage := in.Mode == types.ModeImage || in.ForceImage
	cost := types.CostPerMessage
	kind := "text"
	if isImage {
		cost = types.CostPerImage
		kind = "image"
	}

	// Validating: fails closed, no side effects.
	g.enter(scope, StateValidating)
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" && len(in.Attachments) == 0 {
		return nil, ErrInvalidInput
	}
	if !g.ledger.CanAfford(in.User, cost) {
		return nil, ledger.ErrInsufficientCredits
	}

	// Record the user turn before dispatch so the request history window
	// includes it, matching what the session shows.
	userMsg := buildUserMessage(prompt, in.Attachments)
	if err := g.sessions.AppendMessage(in.User.ID, in.SessionID, userMsg); err != nil {
		return nil, err
	}
	sess, err := g.sessions.Get(in.User.ID, in.SessionID)
	if err != nil {
		return nil, err
	}

	g.enter(scope, StateDispatching)
	acc := stream.Begin(uuid.NewString(), g.persistingSink(in.User.ID, in.SessionID, in.Render))

	var final types.Message
	if isImage {
		var input *gemini.InlineImage
		if len(in.Attachments) > 0 {
			input = &gemini.InlineImage{Base64: in.Attachments[0].Base64, MIMEType: in.Attachments[0].MIMEType}
		}
		imagePrompt := prompt
		if imagePrompt == "" {
			imagePrompt = "Create art"
		}
		url, err := g.gen.GenerateImage(ctx, imagePrompt, input)
		if err != nil {
			return nil, g.fail(scope, acc, kind, err)
		}
		final = acc.Finalize(types.MediaURLPart(types.MediaImage, url))
	} else {
		g.enter(scope, StateStreaming)
		err := g.gen.StreamChat(ctx, gemini.ChatRequest{
			Prompt:  prompt,
			History: sess.Messages,
			Mode:    in.Mode,
			UsePro:  in.UsePro,
		}, acc.OnFragment)
		if err != nil {
			return nil, g.fail(scope, acc, kind, err)
		}
		final = acc.Finalize()
	}

	// Settling: debit exactly once, persist, idle. A debit failure here is a
	// persistence problem, not a generation failure; the finalized message
	// stands and the ledger error goes back unwrapped.
	g.enter(scope, StateSettling)
	updated, err := g.ledger.Debit(in.User, cost)
	if err != nil {
		g.enter(scope, StateFailed)
		logging.Gateway("Settle failed (%s): %v", kind, err)
		return nil, err
	}
	return &Result{User: updated, Message: final}, nil
}

// WebsiteInput is one website-builder action.
type WebsiteInput struct {
	User      *types.User
	SessionID string
	Prompt    string
	Render    stream.Sink
	// OnArtifact receives the live-updating document preview as matching
	// content streams in.
	OnArtifact func(code string)
}

// BuildWebsite runs one website-builder turn: streamed document generation
// with live artifact extraction. The action settles (debits) only when a
// complete artifact was produced.
func (g *Gateway) BuildWebsite(ctx context.Context, in WebsiteInput) (*Result, error) {
	scope := in.SessionID
	if !g.acquire(scope) {
		return nil, ErrBusy
	}
	defer g.release(scope)

	g.enter(scope, StateValidating)
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, ErrInvalidInput
	}
	if !g.ledger.CanAfford(in.User, types.CostPerWebsite) {
		return nil, ledger.ErrInsufficientCredits
	}

	userMsg := buildUserMessage(prompt, nil)
	if err := g.sessions.AppendMessage(in.User.ID, in.SessionID, userMsg); err != nil {
		return nil, err
	}
	sess, err := g.sessions.Get(in.User.ID, in.SessionID)
	if err != nil {
		return nil, err
	}

	g.enter(scope, StateDispatching)
	acc := stream.Begin(uuid.NewString(), g.persistingSink(in.User.ID, in.SessionID, in.Render))

	g.enter(scope, StateStreaming)
	err = g.gen.StreamWebsite(ctx, sess.Messages, func(f stream.Fragment) {
		acc.OnFragment(f)
		if in.OnArtifact != nil {
			if code, ok := stream.ExtractLiveArtifact(acc.Content()); ok {
				in.OnArtifact(code)
			}
		}
	})
	if err != nil {
		return nil, g.fail(scope, acc, "website", err)
	}
	final := acc.Finalize()

	// Settle only when a complete document came out; a prose-only answer
	// costs nothing.
	artifact, ok := stream.ExtractArtifact(final.Content)
	if !ok {
		logging.Gateway("Website turn produced no artifact; not debited")
		return &Result{User: in.User, Message: final}, nil
	}

	g.enter(scope, StateSettling)
	updated, err := g.ledger.Debit(in.User, types.CostPerWebsite)
	if err != nil {
		g.enter(scope, StateFailed)
		logging.Gateway("Settle failed (website): %v", err)
		return nil, err
	}
	return &Result{User: updated, Message: final, Artifact: artifact}, nil
}

// VideoInput is one video generation action. Video runs outside chat
// sessions; the busy scope is per user.
type VideoInput struct {
	User        *types.User
	Prompt      string
	AspectRatio string
	Reference   *Attachment
}

// GenerateVideo submits and polls one video job, debiting on success.
func (g *Gateway) GenerateVideo(ctx context.Context, in VideoInput) (*Result, error) {
	scope := "video:" + in.User.ID
	if !g.acquire(scope) {
		return nil, ErrBusy
	}
	defer g.release(scope)

	g.enter(scope, StateValidating)
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" && in.Reference == nil {
		return nil, ErrInvalidInput
	}
	if !g.ledger.CanAfford(in.User, types.CostPerVideo) {
		return nil, ledger.ErrInsufficientCredits
	}

	aspect := in.AspectRatio
	if aspect != "9:16" {
		aspect = "16:9"
	}
	req := gemini.VideoRequest{Prompt: prompt, AspectRatio: aspect}
	if in.Reference != nil {
		req.Reference = &gemini.InlineImage{Base64: in.Reference.Base64, MIMEType: in.Reference.MIMEType}
	}

	g.enter(scope, StateDispatching)
	url, err := g.gen.GenerateVideo(ctx, req)
	if err != nil {
		g.enter(scope, StateFailed)
		return nil, g.wrapGenerationErr("video", err)
	}

	g.enter(scope, StateSettling)
	updated, err := g.ledger.Debit(in.User, types.CostPerVideo)
	if err != nil {
		g.enter(scope, StateFailed)
		return nil, err
	}
	return &Result{User: updated, VideoURL: url}, nil
}

// fail routes a dispatch/stream failure: the in-flight message becomes a
// terminal error, nothing is debited, and the wrapped error is returned.
func (g *Gateway) fail(scope string, acc *stream.Accumulator, kind string, err error) error {
	g.enter(scope, StateFailed)
	acc.Fail(err)
	logging.Gateway("Action failed (%s): %v", kind, err)
	return g.wrapGenerationErr(kind, err)
}

func (g *Gateway) wrapGenerationErr(kind string, err error) error {
	if gemini.IsPermissionError(err) {
		return &PermissionError{
			Err:  err,
			Hint: "this capability requires a valid paid-tier API key; store one with 'croc apikey'",
		}
	}
	return &GenerationError{Kind: kind, Err: err}
}

// persistingSink renders progressive updates and keeps the stored session in
// step: every update upserts the trailing message, so a crash mid-stream
// still leaves the partial turn on disk.
func (g *Gateway) persistingSink(userID, sessionID string, render stream.Sink) stream.Sink {
	return func(m types.Message) {
		if err := g.sessions.AppendMessage(userID, sessionID, m); err != nil {
			logging.Get(logging.CategoryGateway).Error("Failed to persist message update: %v", err)
		}
		if render != nil {
			render(m)
		}
	}
}

func buildUserMessage(prompt string, attachments []Attachment) types.Message {
	content := prompt
	if content == "" {
		content = "Multimedia Message"
	}
	msg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Content:   content,
		Timestamp: types.NowMillis(),
	}
	if prompt != "" && len(attachments) > 0 {
		msg.Parts = append(msg.Parts, types.TextPart(prompt))
	}
	for _, a := range attachments {
		msg.Parts = append(msg.Parts, types.InlineDataPart(a.MIMEType, a.Base64))
	}
	return msg
}
