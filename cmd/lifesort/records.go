package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/Veraticus/lifesort/internal/service"
	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage stored records",
	}

	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsShowCmd())
	cmd.AddCommand(recordsDeleteCmd())

	return cmd
}

func recordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filter, err := recordFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.ListRecords(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderRecords(records))
			return nil
		},
	}

	cmd.Flags().String("route", "", "Only show one route (finance, todo, inventory)")
	cmd.Flags().String("since", "", "Only show records created on or after this date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 50, "Maximum number of records to show (0 for all)")

	return cmd
}

func recordsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.GetRecord(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get record %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderResult(model.ClassificationResult{
				Route:      rec.Route,
				Confidence: rec.Confidence,
				Summary:    rec.Summary,
				Payload:    rec.Payload,
			}))
			return nil
		},
	}
}

func recordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored record and its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reminders, closeReminders, err := initReminders(ctx)
			if err != nil {
				return err
			}
			defer closeReminders()

			var scheduler service.ReminderScheduler
			if reminders != nil {
				scheduler = reminders
			}
			if err := deleteRecord(ctx, store, scheduler, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("deleted "+args[0]))
			return nil
		},
	}
}

// deleteRecord removes the record and cancels its reminder, if one was
// scheduled. reminders may be nil.
func deleteRecord(ctx context.Context, store service.RecordStore, reminders service.ReminderScheduler, id string) error {
	if err := store.DeleteRecord(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError("no record with id "+id, err)
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if reminders == nil {
		return nil
	}
	if err := reminders.Cancel(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("record deleted but its reminder could not be canceled: %w", err)
	}
	return nil
}

func recordFilterFromFlags(cmd *cobra.Command) (service.RecordFilter, error) {
	var filter service.RecordFilter

	if route, _ := cmd.Flags().GetString("route"); route != "" {
		filter.Route = model.ParseRoute(route)
		if filter.Route == model.RouteUnknown {
			return filter, common.NewUserError(fmt.Sprintf("unknown route %q", route), common.ErrInvalidConfig)
		}
	}

	since, err := parseSince(cmd)
	if err != nil {
		return filter, err
	}
	filter.Since = since

	if cmd.Flags().Lookup("limit") != nil {
		filter.Limit, _ = cmd.Flags().GetInt("limit")
	}
	return filter, nil
}

// parseSince reads the --since flag as a local date.
func parseSince(cmd *cobra.Command) (*time.Time, error) {
	value, _ := cmd.Flags().GetString("since")
	if value == "" {
		return nil, nil
	}
	since, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("invalid --since date %q, want YYYY-MM-DD", value), err)
	}
	return &since, nil
}
