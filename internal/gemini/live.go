package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"crocsthepen/internal/logging"
)

const liveInstruction = "You are CrocSthepen AI, a helpful and witty voice assistant."

// LiveVoices are the selectable prebuilt voices for the live session.
var LiveVoices = []string{"Zephyr", "Puck", "Charon", "Kore", "Fenrir"}

// ConnectLive opens the bidirectional low-latency audio session. The caller
// streams PCM16 microphone chunks in via SendAudio and drains synthesized
// audio plus interruption signals via Receive. Close tears the session down.
func (c *Client) ConnectLive(ctx context.Context, voice string) (*LiveSession, error) {
	if voice == "" {
		voice = c.cfg.LiveVoice
	}
	logging.Live("Connecting live session: model=%s voice=%s", c.cfg.LiveModel, voice)

	session, err := c.ai.Live.Connect(ctx, c.cfg.LiveModel, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		SystemInstruction: systemContent(liveInstruction),
	})
	if err != nil {
		return nil, fmt.Errorf("live connect failed: %w", err)
	}
	return &LiveSession{session: session}, nil
}

// LiveSession wraps the upstream live connection behind the small surface the
// live package consumes, so tests can fake the transport.
type LiveSession struct {
	session *genai.Session
}

// SendAudio streams one raw PCM16 microphone chunk to the service.
func (s *LiveSession) SendAudio(pcm []byte, mimeType string) error {
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{MIMEType: mimeType, Data: pcm},
	})
}

// ServerAudio is one inbound event: synthesized audio and/or an interruption
// signal.
type ServerAudio struct {
	PCM         []byte
	Interrupted bool
	TurnDone    bool
}

// Receive blocks for the next inbound event. Returns an error when the
// session ends.
func (s *LiveSession) Receive() (ServerAudio, error) {
	msg, err := s.session.Receive()
	if err != nil {
		return ServerAudio{}, err
	}

	var out ServerAudio
	if sc := msg.ServerContent; sc != nil {
		out.Interrupted = sc.Interrupted
		out.TurnDone = sc.TurnComplete
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil {
					out.PCM = append(out.PCM, part.InlineData.Data...)
				}
			}
		}
	}
	return out, nil
}

// Close ends the live session.
func (s *LiveSession) Close() error {
	logging.Live("Closing live session")
	return s.session.Close()
}
