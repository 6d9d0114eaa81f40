package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crocsthepen/internal/gateway"
	"crocsthepen/internal/types"
)

var (
	websiteOut     string
	websiteSession string
	websiteNew     bool
)

var websiteCmd = &cobra.Command{
	Use:   "website [prompt]",
	Short: "Build a single-file website (20 credits)",
	Long: `Generates a complete standalone HTML document from a description.
The conversation is iterative: follow-up prompts in the same session refine
the previous version.

Credits are only charged when a complete document comes out; an answer that
asks for clarification costs nothing.

Example:
  croc website "a landing page for a crocodile sanctuary" --out index.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWebsite,
}

func init() {
	websiteCmd.Flags().StringVar(&websiteOut, "out", "index.html", "Output HTML file")
	websiteCmd.Flags().StringVar(&websiteSession, "session", "", "Target session ID (default: most recent)")
	websiteCmd.Flags().BoolVar(&websiteNew, "new", false, "Start a new website project")
}

func runWebsite(cmd *cobra.Command, args []string) error {
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

	sessionID := websiteSession
	if sessionID == "" {
		var sess types.ChatSession
		if websiteNew {
			sess, err = a.sessions.Create(user.ID, types.ModeWebsite)
		} else {
			sess, err = a.sessions.Active(user.ID, types.ModeWebsite)
		}
		if err != nil {
			return err
		}
		sessionID = sess.ID
	}

	// Keep the latest partial document on disk while generation streams, so
	// a browser tab pointed at the file can be refreshed mid-build.
	res, err := a.gw.BuildWebsite(ctx, gateway.WebsiteInput{
		User:      user,
		SessionID: sessionID,
		Prompt:    strings.Join(args, " "),
		OnArtifact: func(code string) {
			_ = os.WriteFile(websiteOut, []byte(code), 0644)
		},
	})
	if err != nil {
		return describeActionErr(err, user)
	}

	if res.Artifact == "" {
		fmt.Print(renderMarkdown(res.Message.Content))
		fmt.Println(mutedStyle.Render("No document produced; nothing was charged."))
		return nil
	}

	if err := os.WriteFile(websiteOut, []byte(res.Artifact), 0644); err != nil {
		return fmt.Errorf("failed to write website: %w", err)
	}
	fmt.Printf("Saved %s\n", accentStyle.Render(websiteOut))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Balance: %d credits", res.User.Credits)))
	return nil
}
