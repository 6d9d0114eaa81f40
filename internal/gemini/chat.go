package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"crocsthepen/internal/logging"
	"crocsthepen/internal/stream"
	"crocsthepen/internal/types"
)

// ChatRequest carries one streamed chat turn.
type ChatRequest struct {
	Prompt string
	// History includes the just-appended user message, mirroring what the
	// session holds at dispatch time. Only the trailing window is sent.
	History []types.Message
	Mode    types.ChatMode
	// UsePro selects the pro model over flash.
	UsePro bool
}

func (c *Client) chatModel(usePro bool) string {
	if usePro {
		return c.cfg.ProModel
	}
	return c.cfg.FlashModel
}

// StreamChat streams a multi-turn text generation, invoking onFragment for
// every incremental piece in arrival order. Google Search grounding is
// enabled only in general mode.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest, onFragment func(stream.Fragment)) error {
	model := c.chatModel(req.UsePro)
	logging.API("StreamChat: model=%s mode=%s history=%d", model, req.Mode, len(req.History))
	timer := logging.StartTimer(logging.CategoryAPI, "StreamChat")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemContent(instructionForMode(req.Mode)),
	}
	if req.Mode == types.ModeGeneral {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := buildContents(req.History, chatHistoryWindow, req.Prompt, false)

	for resp, err := range c.ai.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("text generation failed: %w", err)
		}
		onFragment(stream.Fragment{
			Text:      resp.Text(),
			Grounding: extractGrounding(resp),
		})
	}
	return nil
}

// StreamWebsite streams the single-document website generation. History is
// sent text-only with a shorter window.
func (c *Client) StreamWebsite(ctx context.Context, history []types.Message, onFragment func(stream.Fragment)) error {
	model := c.cfg.ProModel
	logging.API("StreamWebsite: model=%s history=%d", model, len(history))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemContent(websiteInstruction),
	}
	contents := buildContents(history, websiteHistoryWindow, "", true)

	for resp, err := range c.ai.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("website generation failed: %w", err)
		}
		onFragment(stream.Fragment{Text: resp.Text()})
	}
	return nil
}

// extractGrounding pulls web citations from a response chunk, in the order
// the service produced them.
func extractGrounding(resp *genai.GenerateContentResponse) []types.GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var out []types.GroundingChunk
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, types.GroundingChunk{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}
