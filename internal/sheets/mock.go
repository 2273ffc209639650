package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/lifesort/internal/model"
)

// MockExporter is a mock implementation of service.ExpenseExporter for testing.
type MockExporter struct {
	AppendFunc      func(ctx context.Context, records []model.StoredRecord) (int, error)
	LastRecords     []model.StoredRecord
	AppendCalls     []AppendCall
	AppendCallCount int
	mu              sync.Mutex
}

// AppendCall represents a single call to AppendExpenses.
type AppendCall struct {
	Error   error
	Records []model.StoredRecord
	Written int
}

// NewMockExporter creates a new mock exporter.
func NewMockExporter() *MockExporter {
	return &MockExporter{
		AppendCalls: make([]AppendCall, 0),
	}
}

// AppendExpenses implements service.ExpenseExporter. Without an AppendFunc it
// reports one written row per finance record.
func (m *MockExporter) AppendExpenses(ctx context.Context, records []model.StoredRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCallCount++
	m.LastRecords = records

	var (
		written int
		err     error
	)
	if m.AppendFunc != nil {
		written, err = m.AppendFunc(ctx, records)
	} else {
		written = len(expenseRows(records))
	}

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		Records: records,
		Written: written,
		Error:   err,
	})

	return written, err
}

// Reset clears all recorded calls.
func (m *MockExporter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCallCount = 0
	m.AppendCalls = make([]AppendCall, 0)
	m.LastRecords = nil
}

// GetAppendCalls returns a copy of all append calls.
func (m *MockExporter) GetAppendCalls() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]AppendCall, len(m.AppendCalls))
	copy(calls, m.AppendCalls)
	return calls
}

// SetAppendError configures the mock to fail every AppendExpenses call.
func (m *MockExporter) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendFunc = func(_ context.Context, _ []model.StoredRecord) (int, error) {
		return 0, err
	}
}
