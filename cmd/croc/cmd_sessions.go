package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crocsthepen/internal/types"
)

var sessionsMode string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation history",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recent first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsListCmd.Flags().StringVar(&sessionsMode, "mode", "", "Filter by mode: general, code, image, website")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	mode := types.ChatMode(sessionsMode)
	if sessionsMode != "" && !mode.Valid() {
		return fmt.Errorf("invalid mode %q", sessionsMode)
	}

	sessions, err := a.sessions.List(user.ID, mode)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println(mutedStyle.Render("No conversations yet."))
		return nil
	}

	for _, s := range sessions {
		updated := time.UnixMilli(s.UpdatedAt).Format("2006-01-02 15:04")
		fmt.Printf("%s  %-8s  %-30s  %s\n",
			s.ID, s.Mode, s.Title, mutedStyle.Render(updated))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	sess, err := a.sessions.Get(user.ID, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n\n", accentStyle.Render(sess.Title), sess.Mode)
	for _, msg := range sess.Messages {
		who := "You"
		if msg.Role == types.RoleAssistant {
			who = "Croc"
		}
		fmt.Println(accentStyle.Render(who + ":"))
		fmt.Print(renderMarkdown(msg.Content))
		fmt.Print(renderGrounding(msg.Grounding))
		for _, part := range msg.Parts {
			if part.Kind == types.PartMediaURL {
				fmt.Println(mutedStyle.Render(fmt.Sprintf("[%s] %s", part.Media, part.URL)))
			}
		}
		fmt.Println()
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	if err := a.sessions.Delete(user.ID, args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
