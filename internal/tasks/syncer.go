package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/googleauth"
	"github.com/Veraticus/lifesort/internal/model"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

// Syncer inserts todos into a Google Tasks list.
type Syncer struct {
	service *gtasks.Service
	logger  *slog.Logger
	config  Config
}

// NewSyncer creates a syncer authenticated with the configured credentials.
func NewSyncer(ctx context.Context, config Config, logger *slog.Logger, opts ...option.ClientOption) (*Syncer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient, err := googleauth.HTTPClient(ctx, config.Credentials, gtasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gtasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return newSyncer(srv, config, logger), nil
}

func newSyncer(srv *gtasks.Service, config Config, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TaskList == "" {
		config.TaskList = DefaultTaskList
	}
	return &Syncer{service: srv, logger: logger, config: config}
}

// SyncTodos inserts one task per todo record and returns how many were
// created. Records of other routes are ignored. It stops at the first
// failed insert.
func (s *Syncer) SyncTodos(ctx context.Context, records []model.StoredRecord) (int, error) {
	created := 0
	for _, rec := range records {
		todo, ok := rec.Payload.(model.TodoRecord)
		if !ok {
			continue
		}

		task := taskFor(todo)
		var inserted *gtasks.Task
		err := common.WithRetry(ctx, func() error {
			var err error
			inserted, err = s.service.Tasks.Insert(s.config.TaskList, task).Context(ctx).Do()
			return googleauth.ClassifyError(err)
		}, common.RetryOptions{
			MaxAttempts:  s.config.RetryAttempts,
			InitialDelay: s.config.RetryDelay,
		})
		if err != nil {
			return created, fmt.Errorf("failed to insert task for record %s: %w", rec.ID, err)
		}

		created++
		s.logger.Debug("inserted task", "record_id", rec.ID, "task_id", inserted.Id, "title", todo.Title)
	}

	if created > 0 {
		s.logger.Info("synced todos", "task_list", s.config.TaskList, "created", created)
	}
	return created, nil
}

// taskFor maps a todo onto a Google task. The Tasks API keeps only the date
// part of Due, so the due time and any reminder travel in the notes.
func taskFor(todo model.TodoRecord) *gtasks.Task {
	task := &gtasks.Task{
		Title:  todo.Title,
		Notes:  notesFor(todo),
		Status: "needsAction",
	}
	if todo.DueDate != nil {
		due := time.Date(todo.DueDate.Year(), todo.DueDate.Month(), todo.DueDate.Day(), 0, 0, 0, 0, time.UTC)
		task.Due = due.Format(time.RFC3339)
	}
	return task
}

func notesFor(todo model.TodoRecord) string {
	var lines []string
	if todo.Description != "" {
		lines = append(lines, todo.Description)
	}
	lines = append(lines, fmt.Sprintf("类别: %s", todo.Category))
	lines = append(lines, fmt.Sprintf("优先级: %d", todo.Priority))
	if todo.DueTime != "" {
		lines = append(lines, fmt.Sprintf("时间: %s", todo.DueTime))
	}
	if todo.ReminderTime != nil {
		lines = append(lines, fmt.Sprintf("提醒: %s", todo.ReminderTime.Format("2006-01-02 15:04")))
	}
	if repeat := repeatLabel(todo.Repeat); repeat != "" {
		lines = append(lines, fmt.Sprintf("重复: %s", repeat))
	}
	return strings.Join(lines, "\n")
}

func repeatLabel(rule model.RepeatRule) string {
	switch rule.Frequency {
	case model.RepeatDaily:
		return "每天"
	case model.RepeatWeekly:
		return "每周"
	case model.RepeatMonthly:
		return "每月"
	case model.RepeatCustom:
		return fmt.Sprintf("每%d天", rule.IntervalDays)
	default:
		return ""
	}
}
