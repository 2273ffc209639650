package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/googleauth"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

type fakeTasksAPI struct {
	inserted []gtasks.Task
	paths    []string
	failures []int
	mu       sync.Mutex
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	if len(f.failures) > 0 {
		code := f.failures[0]
		f.failures = f.failures[1:]
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": code, "message": "injected"}})
		return
	}

	var task gtasks.Task
	_ = json.NewDecoder(r.Body).Decode(&task)
	f.inserted = append(f.inserted, task)
	task.Id = "task-" + task.Title
	_ = json.NewEncoder(w).Encode(task)
}

func newTestSyncer(t *testing.T, api *fakeTasksAPI, taskList string) *Syncer {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	srv, err := gtasks.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	config := DefaultConfig()
	config.TaskList = taskList
	config.RetryDelay = time.Millisecond
	return newSyncer(srv, config, nil)
}

func todoRecords() []model.StoredRecord {
	due := time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)
	remind := time.Date(2024, 6, 2, 20, 0, 0, 0, time.Local)
	return []model.StoredRecord{
		{
			ID:    "t1",
			Route: model.RouteTodo,
			Payload: model.TodoRecord{
				Title:        "交房租",
				Description:  "转账给房东",
				Kind:         model.TodoKindReminder,
				Category:     model.TodoCategoryLife,
				Priority:     1,
				DueDate:      &due,
				DueTime:      "09:00",
				ReminderTime: &remind,
				Repeat:       model.RepeatRule{Frequency: model.RepeatMonthly},
			},
		},
		{
			ID:      "f1",
			Route:   model.RouteFinance,
			Payload: model.FinanceRecord{Amount: 12, Category: "餐饮"},
		},
		{
			ID:    "t2",
			Route: model.RouteTodo,
			Payload: model.TodoRecord{
				Title:    "写周报",
				Kind:     model.TodoKindTask,
				Category: model.TodoCategoryWork,
				Priority: 2,
				Repeat:   model.RepeatRule{Frequency: model.RepeatNone},
			},
		},
	}
}

func TestTaskFor(t *testing.T) {
	records := todoRecords()

	task := taskFor(records[0].Payload.(model.TodoRecord))
	assert.Equal(t, "交房租", task.Title)
	assert.Equal(t, "2024-06-03T00:00:00Z", task.Due)
	assert.Equal(t, "needsAction", task.Status)
	assert.Equal(t, "转账给房东\n类别: 生活\n优先级: 1\n时间: 09:00\n提醒: 2024-06-02 20:00\n重复: 每月", task.Notes)

	plain := taskFor(records[2].Payload.(model.TodoRecord))
	assert.Empty(t, plain.Due)
	assert.Equal(t, "类别: 工作\n优先级: 2", plain.Notes)
}

func TestRepeatLabel(t *testing.T) {
	tests := []struct {
		want string
		rule model.RepeatRule
	}{
		{rule: model.RepeatRule{Frequency: model.RepeatNone}, want: ""},
		{rule: model.RepeatRule{Frequency: model.RepeatDaily}, want: "每天"},
		{rule: model.RepeatRule{Frequency: model.RepeatWeekly}, want: "每周"},
		{rule: model.RepeatRule{Frequency: model.RepeatCustom, IntervalDays: 3}, want: "每3天"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repeatLabel(tt.rule))
	}
}

func TestSyncTodos(t *testing.T) {
	api := &fakeTasksAPI{}
	syncer := newTestSyncer(t, api, "list-1")

	n, err := syncer.SyncTodos(context.Background(), todoRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, api.inserted, 2)
	assert.Equal(t, "交房租", api.inserted[0].Title)
	assert.Equal(t, "写周报", api.inserted[1].Title)
	for _, path := range api.paths {
		assert.Equal(t, "POST /tasks/v1/lists/list-1/tasks", path)
	}
}

func TestSyncTodos_Failures(t *testing.T) {
	t.Run("server error is retried", func(t *testing.T) {
		api := &fakeTasksAPI{failures: []int{http.StatusServiceUnavailable}}
		syncer := newTestSyncer(t, api, DefaultTaskList)

		n, err := syncer.SyncTodos(context.Background(), todoRecords())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, api.paths, 3)
	})

	t.Run("client error stops the sync", func(t *testing.T) {
		api := &fakeTasksAPI{failures: []int{http.StatusForbidden}}
		syncer := newTestSyncer(t, api, DefaultTaskList)

		n, err := syncer.SyncTodos(context.Background(), todoRecords())
		require.Error(t, err)
		assert.Zero(t, n)
		assert.True(t, strings.Contains(err.Error(), "t1"))
		assert.Len(t, api.paths, 1)
	})
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	assert.ErrorIs(t, config.Validate(), common.ErrMissingConfig)

	config.Credentials = googleauth.Credentials{ServiceAccountPath: "/keys/sa.json"}
	assert.NoError(t, config.Validate())

	config.TaskList = ""
	assert.ErrorIs(t, config.Validate(), common.ErrInvalidConfig)
}
