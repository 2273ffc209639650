package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/pipeline"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Classify voice memos and photos",
		Long: `Transcribe audio files and describe images, then classify what they say.

Files ending in a known audio extension are transcribed; anything else is
treated as a photo. Files are processed concurrently, and a failure on one
file does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("save", false, "Store accepted results in the record store")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context(), save)
	defer stop()

	client, classifier, err := newInference(ctx)
	if err != nil {
		return err
	}

	progress := cli.NewProgress(os.Stderr, len(args), "Ingesting files...")
	ingestor, cleanup, err := buildIngestor(ctx, classifier, client, save, pipeline.WithProgress(progress.Step))
	if err != nil {
		return err
	}
	defer cleanup()

	ingestions, err := ingestor.IngestFiles(ctx, args)
	progress.Finish()

	out := cmd.OutOrStdout()
	for _, in := range ingestions {
		printIngestion(out, in, save)
	}

	if err != nil {
		failed := 0
		for _, in := range ingestions {
			if in.Err != nil {
				failed++
			}
		}
		return fmt.Errorf("%d of %d files failed: %w", failed, len(ingestions), err)
	}
	return nil
}
