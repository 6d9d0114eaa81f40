package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crocsthepen/internal/auth"
	"crocsthepen/internal/types"
)

var (
	signupUsername string
	signupEmail    string
	signupAvatar   string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Long: `Creates a local account with the starting credit balance and signs in.

Example:
  croc signup --username Steve --email steve@example.com`,
	RunE: runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in to an existing account",
	Long: `Signs in by email. Use the demo account to try the studio without
registering:

  croc login test@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile and credit balance",
	RunE:  runWhoami,
}

func init() {
	signupCmd.Flags().StringVar(&signupUsername, "username", "", "Display name (required)")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address (required)")
	signupCmd.Flags().StringVar(&signupAvatar, "avatar", "", "Avatar URL (default: generated)")
	signupCmd.MarkFlagRequired("username")
	signupCmd.MarkFlagRequired("email")
}

func runSignup(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.registry.Signup(signupUsername, signupEmail, signupAvatar)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You start with %s.\n",
		accentStyle.Render(user.Username), renderCredits(user.Credits))
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	email := args[0]
	if email == auth.DemoEmail {
		if err := a.registry.SeedDemo(); err != nil {
			return err
		}
	}
	user, err := a.registry.Login(email)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s).\n",
		accentStyle.Render(user.Username), renderCredits(user.Credits))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.registry.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s>\n", accentStyle.Render(user.Username), user.Email)
	fmt.Printf("Balance: %s\n", renderCredits(user.Credits))

	remaining := a.ledger.TimeUntilNextClaim(user, types.NowMillis(), types.RewardCooldownMs)
	if remaining <= 0 {
		fmt.Println(mutedStyle.Render("Daily reward available: run 'croc rewards claim'"))
	} else {
		d := time.Duration(remaining) * time.Millisecond
		fmt.Println(mutedStyle.Render(fmt.Sprintf("Next daily reward in %s", d.Round(time.Minute))))
	}
	if len(user.TasksCompleted) > 0 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("Tasks completed: %d", len(user.TasksCompleted))))
	}
	return nil
}
