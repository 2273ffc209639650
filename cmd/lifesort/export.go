package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/config"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/Veraticus/lifesort/internal/service"
	"github.com/Veraticus/lifesort/internal/sheets"
	"github.com/Veraticus/lifesort/internal/tasks"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored records to external services",
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Append stored expenses to the Google Sheets ledger",
		Long: `Append one ledger row per stored expense to Google Sheets.

When sheets.spreadsheet_id is not configured a new spreadsheet is created
and its id is printed so it can be added to the config.`,
		RunE: runExportSheets,
	}
	sheetsCmd.Flags().String("since", "", "Only export expenses created on or after this date (YYYY-MM-DD)")
	cmd.AddCommand(sheetsCmd)

	return cmd
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync stored records with external services",
	}

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Insert stored todos into Google Tasks",
		RunE:  runSyncTasks,
	}
	tasksCmd.Flags().String("since", "", "Only sync todos created on or after this date (YYYY-MM-DD)")
	cmd.AddCommand(tasksCmd)

	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	since, err := parseSince(cmd)
	if err != nil {
		return err
	}

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return configError("sheets", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	writer, err := sheets.NewLedgerWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return err
	}

	n, err := exportExpenses(ctx, store, writer, since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("exported %d expenses", n)))
	if sheetsConfig.SpreadsheetID == "" && writer.SpreadsheetID() != "" {
		fmt.Fprintln(out, cli.FormatInfo("created spreadsheet "+writer.SpreadsheetID()+"; set sheets.spreadsheet_id to keep appending to it"))
	}
	return nil
}

func runSyncTasks(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	since, err := parseSince(cmd)
	if err != nil {
		return err
	}

	tasksConfig, err := config.LoadTasksConfig()
	if err != nil {
		return configError("tasks", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	syncer, err := tasks.NewSyncer(ctx, *tasksConfig, slog.Default())
	if err != nil {
		return err
	}

	n, err := syncTodos(ctx, store, syncer, since)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("synced %d todos", n)))
	return nil
}

// exportExpenses appends every stored expense created since the cutoff.
func exportExpenses(ctx context.Context, store service.RecordStore, exporter service.ExpenseExporter, since *time.Time) (int, error) {
	records, err := store.ListRecords(ctx, service.RecordFilter{Route: model.RouteFinance, Since: since})
	if err != nil {
		return 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return exporter.AppendExpenses(ctx, oldestFirst(records))
}

// syncTodos inserts every stored todo created since the cutoff.
func syncTodos(ctx context.Context, store service.RecordStore, syncer service.TodoSyncer, since *time.Time) (int, error) {
	records, err := store.ListRecords(ctx, service.RecordFilter{Route: model.RouteTodo, Since: since})
	if err != nil {
		return 0, fmt.Errorf("failed to list todos: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return syncer.SyncTodos(ctx, oldestFirst(records))
}

// oldestFirst reverses the store's newest-first order so rows land in the
// order they were recorded.
func oldestFirst(records []model.StoredRecord) []model.StoredRecord {
	out := make([]model.StoredRecord, len(records))
	for i, rec := range records {
		out[len(records)-1-i] = rec
	}
	return out
}
