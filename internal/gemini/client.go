// Package gemini wraps the hosted generation service behind the five
// capabilities the gateway dispatches to: streamed multi-turn text, single
// shot image generation/edit, long-running video jobs, streamed website
// document generation, speech synthesis, and the bidirectional live audio
// session.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"crocsthepen/internal/config"
	"crocsthepen/internal/logging"
	"crocsthepen/internal/types"
)

// History windows: older turns are dropped before dispatch.
const (
	chatHistoryWindow    = 15
	websiteHistoryWindow = 5
)

// Client is the generation service wrapper. One client serves all
// capabilities for the lifetime of the process.
type Client struct {
	ai   *genai.Client
	cfg  config.GeminiConfig
	poll config.VideoConfig
}

// NewClient creates a generation client from config. An empty API key is
// rejected here so every capability can assume a usable credential.
func NewClient(ctx context.Context, cfg config.GeminiConfig, poll config.VideoConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generation API key is required")
	}

	ai, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{ai: ai, cfg: cfg, poll: poll}, nil
}

// instructionForMode returns the per-mode system instruction.
func instructionForMode(mode types.ChatMode) string {
	switch mode {
	case types.ModeCode:
		return "You are a senior staff software engineer. You write robust, clean, and highly performant code. You prefer TypeScript, React, and modern stacks. Always explain your architectural decisions briefly."
	case types.ModeImage:
		return "You are a visual artist assistant. Your primary goal is to help users craft perfect prompts for image generation or explain visual concepts."
	default:
		return "You are CrocSthepen AI, a helpful, witty, and highly intelligent assistant. You have access to Google Search to provide up-to-date information."
	}
}

const websiteInstruction = "You are an expert Frontend Engineer. You write single-file HTML/JS/CSS solutions using TailwindCSS and FontAwesome via CDN."

// transformPart converts a message part to a request part. Media URL parts
// have no request representation and are skipped.
func transformPart(p types.MessagePart) *genai.Part {
	switch p.Kind {
	case types.PartText:
		if p.Text == "" {
			return nil
		}
		return genai.NewPartFromText(p.Text)
	case types.PartInlineData:
		data := stripDataURL(p.Data)
		if data == "" {
			return nil
		}
		raw, err := decodeBase64(data)
		if err != nil {
			logging.Get(logging.CategoryAPI).Warn("Dropping undecodable inline part (%s): %v", p.MIMEType, err)
			return nil
		}
		return &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: raw}}
	default:
		return nil
	}
}

// buildContents converts a history window into request contents. When the
// history is empty and a prompt is present, the prompt becomes a single user
// turn.
func buildContents(history []types.Message, window int, prompt string, textOnly bool) []*genai.Content {
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var contents []*genai.Content
	for _, msg := range history {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		if !textOnly && len(msg.Parts) > 0 {
			for _, p := range msg.Parts {
				if tp := transformPart(p); tp != nil {
					parts = append(parts, tp)
				}
			}
		} else if msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	if len(contents) == 0 && prompt != "" {
		contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	}
	return contents
}

// systemContent wraps an instruction string for the request config.
func systemContent(instruction string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
}

// IsPermissionError reports whether err is a credential/permission rejection
// from the service, which the gateway surfaces with a remediation hint
// instead of a generic failure.
func IsPermissionError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission") || strings.Contains(msg, "api key")
}
