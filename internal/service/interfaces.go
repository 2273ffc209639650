// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/lifesort/internal/model"
)

// RecordFilter defines filtering options for record queries.
type RecordFilter struct {
	Since *time.Time
	Route model.Route
	Limit int
}

// RecordStore is the persistence collaborator: it receives exactly one
// normalized payload per accepted classification.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec model.StoredRecord) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.StoredRecord, error)
	GetRecord(ctx context.Context, id string) (model.StoredRecord, error)
	DeleteRecord(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReminderScheduler queues notifications for todo records.
type ReminderScheduler interface {
	Schedule(ctx context.Context, reminder model.Reminder) error
	Due(ctx context.Context, now time.Time) ([]model.Reminder, error)
	Cancel(ctx context.Context, id string) error
}

// Router classifies text into routed records.
type Router interface {
	Classify(ctx context.Context, text string) model.ClassificationResult
	ClassifyBatch(ctx context.Context, text string) []model.ClassificationResult
}

// Transcriber converts an audio asset into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Describer converts images into a free-text description.
type Describer interface {
	Describe(ctx context.Context, paths ...string) (string, error)
}

// ExpenseExporter writes finance records to an external ledger.
type ExpenseExporter interface {
	AppendExpenses(ctx context.Context, records []model.StoredRecord) (int, error)
}

// TodoSyncer pushes todo records to an external task list.
type TodoSyncer interface {
	SyncTodos(ctx context.Context, records []model.StoredRecord) (int, error)
}
