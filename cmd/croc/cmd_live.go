package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crocsthepen/internal/gemini"
	"crocsthepen/internal/live"
)

var (
	liveVoice string
	liveIn    string
	liveOut   string
)

// liveFrameDuration is how much microphone audio each uploaded frame carries.
const liveFrameDuration = 200 * time.Millisecond

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Hold a live voice conversation",
	Long: `Opens a bidirectional voice session: raw PCM16 mono audio at 16kHz
is streamed up from the input file, and the synthesized 24kHz reply is
written to the output file as it arrives. Interrupting the model (speaking
over it) drops whatever reply audio was still queued.

Voices: ` + fmt.Sprint(gemini.LiveVoices) + `

Example:
  croc live --voice Puck --in question.pcm --out answer.pcm`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&liveVoice, "voice", "", "Prebuilt voice name (default from config)")
	liveCmd.Flags().StringVar(&liveIn, "in", "", "Input PCM16 16kHz mono file (required)")
	liveCmd.Flags().StringVar(&liveOut, "out", "reply.pcm", "Output PCM16 24kHz mono file")
	liveCmd.MarkFlagRequired("in")
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if liveVoice != "" && !slices.Contains(gemini.LiveVoices, liveVoice) {
		return fmt.Errorf("unknown voice %q (want one of %v)", liveVoice, gemini.LiveVoices)
	}

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireUser(); err != nil {
		return err
	}

	input, err := os.ReadFile(liveIn)
	if err != nil {
		return fmt.Errorf("failed to read input audio: %w", err)
	}
	out, err := os.Create(liveOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	transport, err := a.client.ConnectLive(ctx, liveVoice)
	if err != nil {
		return err
	}
	sess := live.Start(ctx, transport)
	defer sess.Close()

	fmt.Println(mutedStyle.Render("Live session open; Ctrl-C to hang up."))

	// Upload paced at real time so the service hears speech, not a burst.
	go func() {
		frameBytes := live.InputSampleRate * 2 * int(liveFrameDuration/time.Millisecond) / 1000
		ticker := time.NewTicker(liveFrameDuration)
		defer ticker.Stop()
		for off := 0; off < len(input); off += frameBytes {
			end := off + frameBytes
			if end > len(input) {
				end = len(input)
			}
			if err := sess.SendFrame(ctx, live.DecodePCM16(input[off:end])); err != nil {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	var written int
	for ev := range sess.Events() {
		if ev.Interrupted {
			fmt.Println(mutedStyle.Render("[interrupted]"))
		}
		if len(ev.Samples) > 0 {
			if _, err := out.Write(live.EncodePCM16(ev.Samples)); err != nil {
				return err
			}
			written += len(ev.Samples)
		}
		if ev.TurnDone {
			fmt.Println(mutedStyle.Render("[turn complete]"))
		}
	}
	if err := sess.Err(); err != nil {
		return err
	}

	secs := float64(written) / float64(live.OutputSampleRate)
	fmt.Printf("Saved %.1fs of audio to %s\n", secs, accentStyle.Render(liveOut))
	return nil
}
