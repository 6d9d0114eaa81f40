package main

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crocsthepen/internal/gateway"
	"crocsthepen/internal/live"
	"crocsthepen/internal/types"
)

var (
	imageAttach string
	imageOut    string

	videoAspect string
	videoRef    string

	sayOut string
)

var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate or edit an image (5 credits)",
	Long: `Generates an image from a prompt, or edits an attached one.

Examples:
  croc image "a crocodile in a top hat" --out hat.png
  croc image "make the sky purple" --attach photo.jpg --out edited.png`,
	RunE: runImage,
}

var videoCmd = &cobra.Command{
	Use:   "video [prompt]",
	Short: "Generate a short video (50 credits)",
	Long: `Submits a video generation job and polls it to completion. The job
can take a few minutes; the printed URL carries the access key needed to
download the clip.

Examples:
  croc video "a crocodile surfing at sunset"
  croc video "animate this" --ref still.png --aspect 9:16`,
	RunE: runVideo,
}

var sayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Synthesize speech from text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	imageCmd.Flags().StringVar(&imageAttach, "attach", "", "Source image to edit")
	imageCmd.Flags().StringVar(&imageOut, "out", "image.png", "Output file")

	videoCmd.Flags().StringVar(&videoAspect, "aspect", "16:9", "Aspect ratio: 16:9 or 9:16")
	videoCmd.Flags().StringVar(&videoRef, "ref", "", "Reference image file")

	sayCmd.Flags().StringVar(&sayOut, "out", "speech.wav", "Output WAV file")
}

func runImage(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	var attachments []gateway.Attachment
	if imageAttach != "" {
		attachments, err = loadAttachments([]string{imageAttach})
		if err != nil {
			return err
		}
	}

	sess, err := a.sessions.Active(user.ID, types.ModeImage)
	if err != nil {
		return err
	}

	res, err := a.gw.SendMessage(ctx, gateway.ChatInput{
		User:        user,
		SessionID:   sess.ID,
		Mode:        types.ModeImage,
		Prompt:      strings.Join(args, " "),
		Attachments: attachments,
	})
	if err != nil {
		return describeActionErr(err, user)
	}

	for _, part := range res.Message.Parts {
		if part.Kind == types.PartMediaURL && part.Media == types.MediaImage {
			if err := writeDataURL(part.URL, imageOut); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", accentStyle.Render(imageOut))
		}
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Balance: %d credits", res.User.Credits)))
	return nil
}

func runVideo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	in := gateway.VideoInput{
		User:        user,
		Prompt:      strings.Join(args, " "),
		AspectRatio: videoAspect,
	}
	if videoRef != "" {
		refs, err := loadAttachments([]string{videoRef})
		if err != nil {
			return err
		}
		in.Reference = &refs[0]
	}

	fmt.Println(mutedStyle.Render("Generating video; this can take a few minutes..."))
	res, err := a.gw.GenerateVideo(ctx, in)
	if err != nil {
		return describeActionErr(err, user)
	}

	fmt.Printf("Video ready: %s\n", accentStyle.Render(res.VideoURL))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Balance: %d credits", res.User.Credits)))
	return nil
}

func runSay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireUser(); err != nil {
		return err
	}

	pcm, err := a.client.GenerateSpeech(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := writeWAV(sayOut, pcm, live.OutputSampleRate); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", accentStyle.Render(sayOut))
	return nil
}

// writeDataURL decodes a base64 data URL to a file.
func writeDataURL(url, path string) error {
	const marker = ";base64,"
	idx := strings.Index(url, marker)
	if !strings.HasPrefix(url, "data:") || idx < 0 {
		return fmt.Errorf("unexpected image URL format")
	}
	data, err := base64.StdEncoding.DecodeString(url[idx+len(marker):])
	if err != nil {
		return fmt.Errorf("failed to decode image payload: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// writeWAV wraps raw mono PCM16 in a minimal RIFF header.
func writeWAV(path string, pcm []byte, sampleRate int) error {
	var h [44]byte
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], uint32(36+len(pcm)))
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:], 1) // mono
	binary.LittleEndian.PutUint32(h[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(h[32:], 2)
	binary.LittleEndian.PutUint16(h[34:], 16)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], uint32(len(pcm)))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(h[:]); err != nil {
		return err
	}
	_, err = f.Write(pcm)
	return err
}
