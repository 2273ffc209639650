// Package pipeline connects media adapters, the router and the record store:
// raw media becomes text, text becomes routed records, and accepted records
// are persisted and scheduled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/media"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/Veraticus/lifesort/internal/service"
)

// DefaultConcurrency bounds how many files IngestFiles works on at once.
const DefaultConcurrency = 4

// Ingestion is the outcome of one unit of input.
type Ingestion struct {
	Err     error
	Source  model.Source
	Path    string
	Text    string
	Results []model.ClassificationResult
	Stored  []model.StoredRecord
}

// Ingestor runs input through the classification pipeline.
type Ingestor struct {
	router      service.Router
	transcriber service.Transcriber
	describer   service.Describer
	store       service.RecordStore
	reminders   service.ReminderScheduler
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	progress    func()
	concurrency int
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithMedia sets the adapters used for audio and images.
func WithMedia(t service.Transcriber, d service.Describer) Option {
	return func(i *Ingestor) {
		i.transcriber = t
		i.describer = d
	}
}

// WithStore persists every accepted result.
func WithStore(store service.RecordStore) Option {
	return func(i *Ingestor) { i.store = store }
}

// WithReminders schedules todo reminders for stored records.
func WithReminders(r service.ReminderScheduler) Option {
	return func(i *Ingestor) { i.reminders = r }
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithProgress is called once per finished file in IngestFiles.
func WithProgress(fn func()) Option {
	return func(i *Ingestor) { i.progress = fn }
}

// WithClock sets the clock stamped on stored records.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) { i.now = now }
}

// WithIDs sets the record id generator.
func WithIDs(newID func() string) Option {
	return func(i *Ingestor) { i.newID = newID }
}

// NewIngestor creates an Ingestor around a router.
func NewIngestor(router service.Router, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingestor{
		router:      router,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestText classifies typed text.
func (i *Ingestor) IngestText(ctx context.Context, text string) (Ingestion, error) {
	return i.ingest(ctx, Ingestion{Source: model.SourceText, Text: text})
}

// IngestAudio transcribes an audio file and classifies the transcript.
// Silent audio yields a single unknown result without any inference call.
func (i *Ingestor) IngestAudio(ctx context.Context, path string) (Ingestion, error) {
	in := Ingestion{Source: model.SourceVoice, Path: path}
	if i.transcriber == nil {
		return in, fmt.Errorf("no transcriber configured: %w", common.ErrMissingConfig)
	}

	text, err := i.transcriber.Transcribe(ctx, path)
	if errors.Is(err, media.ErrSilentAudio) {
		i.logger.Info("audio has no speech", "path", path)
		in.Results = []model.ClassificationResult{model.UnknownResult(common.ErrEmptyInput.Error())}
		return in, nil
	}
	if err != nil {
		return in, fmt.Errorf("failed to transcribe %s: %w", path, err)
	}

	in.Text = text
	return i.ingest(ctx, in)
}

// IngestImages describes one or more photos and classifies the description.
func (i *Ingestor) IngestImages(ctx context.Context, paths ...string) (Ingestion, error) {
	in := Ingestion{Source: model.SourcePhoto, Path: strings.Join(paths, ",")}
	if i.describer == nil {
		return in, fmt.Errorf("no describer configured: %w", common.ErrMissingConfig)
	}

	text, err := i.describer.Describe(ctx, paths...)
	if err != nil {
		return in, fmt.Errorf("failed to describe %s: %w", in.Path, err)
	}

	in.Text = text
	return i.ingest(ctx, in)
}

// IngestFiles processes media files concurrently, each as an independent
// unit of work. Audio is recognized by extension; anything else is treated
// as an image. Results keep the order of paths; per-file failures are
// reported on the Ingestion and joined into the returned error.
func (i *Ingestor) IngestFiles(ctx context.Context, paths []string) ([]Ingestion, error) {
	out := make([]Ingestion, len(paths))

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for idx, path := range paths {
		g.Go(func() error {
			var in Ingestion
			var err error
			if media.IsAudio(path) {
				in, err = i.IngestAudio(ctx, path)
			} else {
				in, err = i.IngestImages(ctx, path)
			}
			if err != nil {
				common.LogError(i.logger, err, "file ingestion failed", common.Fields{"path": path})
			}
			in.Err = err
			out[idx] = in
			if i.progress != nil {
				i.progress()
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, in := range out {
		if in.Err != nil {
			errs = append(errs, in.Err)
		}
	}
	return out, errors.Join(errs...)
}

func (i *Ingestor) ingest(ctx context.Context, in Ingestion) (Ingestion, error) {
	in.Results = i.router.ClassifyBatch(ctx, in.Text)

	if i.store == nil {
		return in, nil
	}
	for _, result := range in.Results {
		rec, ok := model.NewStoredRecord(i.newID(), result, in.Source, i.now())
		if !ok {
			continue
		}
		if err := i.store.SaveRecord(ctx, rec); err != nil {
			return in, fmt.Errorf("failed to store %s record: %w", rec.Route, err)
		}
		in.Stored = append(in.Stored, rec)

		if err := i.schedule(ctx, rec); err != nil {
			return in, err
		}
	}

	i.logger.Info("input ingested",
		"source", in.Source,
		"results", len(in.Results),
		"stored", len(in.Stored))
	return in, nil
}

func (i *Ingestor) schedule(ctx context.Context, rec model.StoredRecord) error {
	if i.reminders == nil {
		return nil
	}
	reminder, ok := model.ReminderFor(rec)
	if !ok {
		return nil
	}
	if err := i.reminders.Schedule(ctx, reminder); err != nil {
		return fmt.Errorf("failed to schedule reminder for %s: %w", rec.ID, err)
	}
	return nil
}
