package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/lifesort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI is a minimal stand-in for the Sheets REST endpoints the
// ledger writer uses.
type fakeSheetsAPI struct {
	calls       []string
	appended    [][]any
	header      [][]any
	tabs        []string
	appendFails []int
	mu          sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		f.calls = append(f.calls, "create")
		_, _ = w.Write([]byte(`{"spreadsheetId":"new-id","spreadsheetUrl":"https://sheets.example/new-id","sheets":[{"properties":{"sheetId":7,"title":"Expenses"}}]}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.calls = append(f.calls, "append")
		if len(f.appendFails) > 0 {
			code := f.appendFails[0]
			f.appendFails = f.appendFails[1:]
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": code, "message": "injected"}})
			return
		}
		var body sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, row := range body.Values {
			f.appended = append(f.appended, row)
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "batchUpdate")
		_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":9,"title":"Expenses"}}}]}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		var body sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.header = body.Values
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get")
		props := make([]map[string]any, 0, len(f.tabs))
		for _, tab := range f.tabs {
			props = append(props, map[string]any{"properties": map[string]any{"title": tab}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": props})
	default:
		http.Error(w, "unexpected request", http.StatusNotImplemented)
	}
}

func (f *fakeSheetsAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, mutate func(*Config)) *LedgerWriter {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	if mutate != nil {
		mutate(&config)
	}
	return newLedgerWriter(srv, config, nil)
}

func boolPtr(b bool) *bool { return &b }

func ledgerRecords() []model.StoredRecord {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
	return []model.StoredRecord{
		{
			ID:    "a",
			Route: model.RouteFinance,
			Payload: model.FinanceRecord{
				Amount: 35, Category: "餐饮", Description: "咖啡", Emotion: "开心",
				IsEssential: boolPtr(false), RecordDate: day,
			},
		},
		{
			ID:      "b",
			Route:   model.RouteTodo,
			Payload: model.TodoRecord{Title: "交房租", Kind: model.TodoKindTask, Priority: 2},
		},
		{
			ID:    "c",
			Route: model.RouteFinance,
			Payload: model.FinanceRecord{
				Amount: 12.346, Category: "交通", Description: "地铁", RecordDate: day.AddDate(0, 0, 1),
			},
		},
	}
}

func TestExpenseRows(t *testing.T) {
	rows := expenseRows(ledgerRecords())
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"2024-06-01", 35.0, "餐饮", "咖啡", "开心", "否"}, rows[0])
	assert.Equal(t, []any{"2024-06-02", 12.35, "交通", "地铁", "", ""}, rows[1])

	assert.Empty(t, expenseRows(nil))
	assert.Equal(t, "是", essentialLabel(boolPtr(true)))
}

func TestAppendExpenses_CreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	writer := newTestWriter(t, api, nil)

	n, err := writer.AppendExpenses(context.Background(), ledgerRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "new-id", writer.SpreadsheetID())
	assert.Equal(t, []string{"create", "update", "batchUpdate", "append"}, api.callLog())
	assert.Equal(t, [][]any{{"日期", "金额", "类别", "描述", "情绪", "必要"}}, api.header)
	require.Len(t, api.appended, 2)
	assert.Equal(t, "咖啡", api.appended[0][3])

	// The created spreadsheet is reused.
	_, err = writer.AppendExpenses(context.Background(), ledgerRecords()[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "update", "batchUpdate", "append", "get", "append"}, api.callLog())
}

func TestAppendExpenses_ExistingSpreadsheet(t *testing.T) {
	tests := []struct {
		name      string
		tabs      []string
		wantCalls []string
	}{
		{
			name:      "tab exists",
			tabs:      []string{"Sheet1", "Expenses"},
			wantCalls: []string{"get", "append"},
		},
		{
			name:      "tab missing",
			tabs:      []string{"Sheet1"},
			wantCalls: []string{"get", "batchUpdate", "update", "append"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSheetsAPI{tabs: tt.tabs}
			writer := newTestWriter(t, api, func(c *Config) {
				c.SpreadsheetID = "sheet-123"
				c.EnableFormatting = false
			})

			n, err := writer.AppendExpenses(context.Background(), ledgerRecords())
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, tt.wantCalls, api.callLog())
		})
	}
}

func TestAppendExpenses_Batches(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Expenses"}}
	writer := newTestWriter(t, api, func(c *Config) {
		c.SpreadsheetID = "sheet-123"
		c.BatchSize = 1
	})

	n, err := writer.AppendExpenses(context.Background(), ledgerRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"get", "append", "append"}, api.callLog())
}

func TestAppendExpenses_NoExpenses(t *testing.T) {
	api := &fakeSheetsAPI{}
	writer := newTestWriter(t, api, nil)

	n, err := writer.AppendExpenses(context.Background(), ledgerRecords()[1:2])
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, api.callLog())
}

func TestAppendExpenses_Retries(t *testing.T) {
	t.Run("server error is retried", func(t *testing.T) {
		api := &fakeSheetsAPI{tabs: []string{"Expenses"}, appendFails: []int{http.StatusInternalServerError}}
		writer := newTestWriter(t, api, func(c *Config) { c.SpreadsheetID = "sheet-123" })

		n, err := writer.AppendExpenses(context.Background(), ledgerRecords())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"get", "append", "append"}, api.callLog())
	})

	t.Run("client error is permanent", func(t *testing.T) {
		api := &fakeSheetsAPI{tabs: []string{"Expenses"}, appendFails: []int{http.StatusBadRequest}}
		writer := newTestWriter(t, api, func(c *Config) { c.SpreadsheetID = "sheet-123" })

		n, err := writer.AppendExpenses(context.Background(), ledgerRecords())
		require.Error(t, err)
		assert.Zero(t, n)
		assert.Equal(t, []string{"get", "append"}, api.callLog())
	})
}
