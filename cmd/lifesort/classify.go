package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/llm"
	"github.com/Veraticus/lifesort/internal/media"
	"github.com/Veraticus/lifesort/internal/pipeline"
	"github.com/Veraticus/lifesort/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify typed text",
		Long: `Classify text as an expense, a todo or a household item.

The text is taken from the arguments, or from standard input when no
arguments are given. With --batch the input may describe several items
and one result is printed per item. With --save accepted results are
stored and todo reminders are scheduled.`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("batch", false, "Split the input into every item it describes")
	cmd.Flags().Bool("save", false, "Store accepted results in the record store")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	batch, _ := cmd.Flags().GetBool("batch")
	save, _ := cmd.Flags().GetBool("save")

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	client, classifier, err := newInference(ctx)
	if err != nil {
		return err
	}

	var router service.Router = singleRouter{classifier}
	if batch {
		router = classifier
	}

	ingestor, cleanup, err := buildIngestor(ctx, router, client, save)
	if err != nil {
		return err
	}
	defer cleanup()

	ingestion, err := ingestor.IngestText(ctx, text)
	if err != nil {
		return err
	}
	printIngestion(cmd.OutOrStdout(), ingestion, save)
	return nil
}

// buildIngestor wires the pipeline around router. The record store and the
// reminder scheduler are attached only when save is set.
func buildIngestor(ctx context.Context, router service.Router, client llm.Client, save bool, opts ...pipeline.Option) (*pipeline.Ingestor, func(), error) {
	logger := slog.Default()
	closers := []func(){}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts = append(opts,
		pipeline.WithMedia(media.NewTranscriber(client, logger), media.NewDescriber(client, logger)),
		pipeline.WithConcurrency(viper.GetInt("ingest.concurrency")),
	)

	if save {
		store, err := initStorage(ctx)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = store.Close() })
		opts = append(opts, pipeline.WithStore(store))

		reminders, closeReminders, err := initReminders(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, closeReminders)
		if reminders != nil {
			opts = append(opts, pipeline.WithReminders(reminders))
		}
	}

	return pipeline.NewIngestor(router, logger, opts...), cleanup, nil
}

func printIngestion(w io.Writer, in pipeline.Ingestion, save bool) {
	if in.Path != "" {
		fmt.Fprintln(w, cli.FormatTitle(in.Path))
	}
	if in.Err != nil {
		fmt.Fprintln(w, cli.FormatError(in.Err.Error()))
		return
	}
	fmt.Fprintln(w, cli.RenderResults(in.Results))
	if save {
		fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("saved %d of %d results", len(in.Stored), len(in.Results))))
	}
}
