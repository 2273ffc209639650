package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/common"
	"github.com/spf13/cobra"
)

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect scheduled todo reminders",
	}

	due := &cobra.Command{
		Use:   "due",
		Short: "List reminders whose fire time has passed",
		RunE:  runRemindersDue,
	}
	due.Flags().String("at", "", "Check against this time instead of now (YYYY-MM-DD HH:MM)")
	due.Flags().Bool("ack", false, "Cancel the listed reminders after printing them")

	cmd.AddCommand(due)
	return cmd
}

func runRemindersDue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	now := time.Now()
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		parsed, err := time.ParseInLocation("2006-01-02 15:04", at, time.Local)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("invalid --at time %q, want YYYY-MM-DD HH:MM", at), err)
		}
		now = parsed
	}
	ack, _ := cmd.Flags().GetBool("ack")

	scheduler, closeReminders, err := initReminders(ctx)
	if err != nil {
		return err
	}
	defer closeReminders()
	if scheduler == nil {
		return common.NewUserError("reminders need redis.addr to be configured", common.ErrMissingConfig)
	}

	due, err := scheduler.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to read due reminders: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(due) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("no reminders due"))
		return nil
	}
	for _, r := range due {
		fmt.Fprintf(out, "%s  %s  %s\n", r.FireAt.Local().Format("2006-01-02 15:04"), r.Title, cli.SubtleStyle.Render(r.RecordID))
		if ack {
			if err := scheduler.Cancel(ctx, r.ID); err != nil {
				return fmt.Errorf("failed to cancel reminder %s: %w", r.ID, err)
			}
		}
	}
	return nil
}
