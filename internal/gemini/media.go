package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"crocsthepen/internal/logging"
)

// ErrVideoTimeout is returned when a video job does not complete within the
// configured poll budget.
var ErrVideoTimeout = errors.New("video generation did not complete in time")

// InlineImage is a base64 payload plus MIME type, the shape attachments
// arrive in.
type InlineImage struct {
	Base64   string
	MIMEType string
}

// GenerateImage runs a single-shot image generation or edit. The result is a
// data URL ready to attach as a resolved media part.
func (c *Client) GenerateImage(ctx context.Context, prompt string, input *InlineImage) (string, error) {
	logging.API("GenerateImage: model=%s edit=%v", c.cfg.ImageModel, input != nil)

	var parts []*genai.Part
	if input != nil {
		raw, err := decodeBase64(stripDataURL(input.Base64))
		if err != nil {
			return "", fmt.Errorf("decode input image: %w", err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: input.MIMEType, Data: raw}})
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := c.ai.Models.GenerateContent(ctx, c.cfg.ImageModel,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: "1:1"},
		},
	)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
				return fmt.Sprintf("data:%s;base64,%s", part.InlineData.MIMEType, encoded), nil
			}
		}
	}
	return "", errors.New("no image generated")
}

// VideoRequest describes a long-running video generation job.
type VideoRequest struct {
	Prompt      string
	AspectRatio string // "16:9" or "9:16"
	// Reference selects the slower reference-conditioned model when set.
	Reference *InlineImage
}

// GenerateVideo submits a video job and polls it to completion at a fixed
// interval, bounded by the configured max poll count. On success it returns
// the downloadable media URI.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	model := c.cfg.VideoModel
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    req.AspectRatio,
	}

	if req.Reference != nil {
		model = c.cfg.VideoModelRef
		raw, err := decodeBase64(stripDataURL(req.Reference.Base64))
		if err != nil {
			return "", fmt.Errorf("decode reference image: %w", err)
		}
		cfg.ReferenceImages = []*genai.VideoGenerationReferenceImage{{
			Image:         &genai.Image{ImageBytes: raw, MIMEType: req.Reference.MIMEType},
			ReferenceType: genai.VideoGenerationReferenceTypeAsset,
		}}
	}

	logging.API("GenerateVideo: model=%s aspect=%s ref=%v", model, req.AspectRatio, req.Reference != nil)
	timer := logging.StartTimer(logging.CategoryAPI, "GenerateVideo")
	defer timer.StopWithThreshold(2 * time.Minute)

	op, err := c.ai.Models.GenerateVideos(ctx, model, req.Prompt, nil, cfg)
	if err != nil {
		return "", fmt.Errorf("video job submission failed: %w", err)
	}

	interval := c.poll.PollIntervalDuration()
	maxPolls := c.poll.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}

	for i := 0; !op.Done; i++ {
		if i >= maxPolls {
			return "", ErrVideoTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
		op, err = c.ai.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", fmt.Errorf("video job poll failed: %w", err)
		}
		logging.Get(logging.CategoryAPI).Debug("Video poll %d/%d done=%v", i+1, maxPolls, op.Done)
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0].Video == nil ||
		op.Response.GeneratedVideos[0].Video.URI == "" {
		return "", errors.New("video URI not found")
	}

	// Downloads require the credential appended as a query parameter.
	uri := op.Response.GeneratedVideos[0].Video.URI
	return uri + "&key=" + c.cfg.APIKey, nil
}

// GenerateSpeech synthesizes speech for text and returns raw PCM audio bytes.
func (c *Client) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	logging.API("GenerateSpeech: model=%s chars=%d", c.cfg.TTSModel, len(text))

	resp, err := c.ai.Models.GenerateContent(ctx, c.cfg.TTSModel,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: "Kore"},
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("speech generation failed: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("no audio generated")
}

// stripDataURL removes a data-URL prefix ("data:image/png;base64,") when
// present, leaving the bare base64 payload.
func stripDataURL(data string) string {
	if idx := strings.Index(data, ","); idx >= 0 {
		return data[idx+1:]
	}
	return data
}

func decodeBase64(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("empty payload")
	}
	return base64.StdEncoding.DecodeString(data)
}
