package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crocsthepen/internal/ledger"
	"crocsthepen/internal/types"
)

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Credit rewards",
}

var rewardsClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the daily credit reward",
	RunE:  runClaimDaily,
}

var taskCmd = &cobra.Command{
	Use:   "task [task-id]",
	Short: "Redeem a one-time task reward",
	Long: `Credits a one-time task reward. Reward amounts are fixed per task,
and each task can be redeemed once per account. Run without arguments to
list the available tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompleteTask,
}

func init() {
	rewardsCmd.AddCommand(rewardsClaimCmd)
}

func runClaimDaily(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	updated, err := a.ledger.ClaimDaily(user, types.NowMillis())
	if errors.Is(err, ledger.ErrCooldownActive) {
		remaining := a.ledger.TimeUntilNextClaim(user, types.NowMillis(), types.RewardCooldownMs)
		d := time.Duration(remaining) * time.Millisecond
		return fmt.Errorf("daily reward already claimed; next claim in %s", d.Round(time.Minute))
	}
	if err != nil {
		return err
	}

	fmt.Printf("Claimed %d credits! Balance: %s\n",
		types.DailyRewardAmount, renderCredits(updated.Credits))
	return nil
}

func runCompleteTask(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, task := range ledger.Tasks {
			done := ""
			if user.HasCompletedTask(task.ID) {
				done = mutedStyle.Render("  (redeemed)")
			}
			fmt.Printf("  %s  +%d credits%s\n", accentStyle.Render(task.ID), task.Reward, done)
		}
		return nil
	}

	updated, err := a.ledger.CompleteTask(user, args[0])
	if errors.Is(err, ledger.ErrUnknownTask) {
		return fmt.Errorf("unknown task %q; run 'croc task' to list available tasks", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Printf("Task %s complete. Balance: %s\n",
		accentStyle.Render(args[0]), renderCredits(updated.Credits))
	return nil
}
