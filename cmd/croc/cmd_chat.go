package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crocsthepen/internal/gateway"
	"crocsthepen/internal/ledger"
	"crocsthepen/internal/types"
)

var (
	chatMode    string
	chatPro     bool
	chatAttach  []string
	chatSession string
	chatNew     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat message (1 credit)",
	Long: `Sends one message in the active conversation and streams the reply.

Modes:
  general: everyday assistant with web search grounding
  code:    senior software engineer persona

Examples:
  croc chat "explain goroutines"
  croc chat --mode code "review this function" --attach main.go
  croc chat --pro "write a detailed migration plan"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", "general", "Chat mode: general or code")
	chatCmd.Flags().BoolVar(&chatPro, "pro", false, "Use the pro model")
	chatCmd.Flags().StringSliceVar(&chatAttach, "attach", nil, "Attach a file (repeatable)")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "Target session ID (default: most recent)")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a new conversation")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mode := types.ChatMode(chatMode)
	if !mode.Valid() || mode == types.ModeWebsite || mode == types.ModeImage {
		return fmt.Errorf("invalid chat mode %q (want general or code)", chatMode)
	}

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	sessionID, err := resolveSession(a, user.ID, mode)
	if err != nil {
		return err
	}

	attachments, err := loadAttachments(chatAttach)
	if err != nil {
		return err
	}

	printer := &streamPrinter{}
	res, err := a.gw.SendMessage(ctx, gateway.ChatInput{
		User:        user,
		SessionID:   sessionID,
		Mode:        mode,
		Prompt:      strings.Join(args, " "),
		Attachments: attachments,
		UsePro:      chatPro,
		Render:      printer.update,
	})
	printer.finish()
	if err != nil {
		return describeActionErr(err, user)
	}

	fmt.Print(renderMarkdown(res.Message.Content))
	fmt.Print(renderGrounding(res.Message.Grounding))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Balance: %d credits", res.User.Credits)))
	return nil
}

// resolveSession picks the explicit session, the newest one for the mode, or
// a fresh one.
func resolveSession(a *app, userID string, mode types.ChatMode) (string, error) {
	if chatSession != "" {
		return chatSession, nil
	}
	if chatNew {
		sess, err := a.sessions.Create(userID, mode)
		if err != nil {
			return "", err
		}
		return sess.ID, nil
	}
	sess, err := a.sessions.Active(userID, mode)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func loadAttachments(paths []string) ([]gateway.Attachment, error) {
	var out []gateway.Attachment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		out = append(out, gateway.Attachment{
			Base64:   base64.StdEncoding.EncodeToString(data),
			MIMEType: http.DetectContentType(data),
		})
	}
	return out, nil
}

// describeActionErr turns gateway errors into actionable CLI messages.
func describeActionErr(err error, user *types.User) error {
	var perm *gateway.PermissionError
	if errors.As(err, &perm) {
		return fmt.Errorf("%v\nHint: %s", perm.Err, perm.Hint)
	}
	if errors.Is(err, ledger.ErrInsufficientCredits) {
		return fmt.Errorf("%w (balance: %d); claim your daily reward with 'croc rewards claim'",
			err, user.Credits)
	}
	return err
}
