package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Veraticus/lifesort/internal/common"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// mockReply is one scripted outcome of Generate.
type mockReply struct {
	err  error
	text string
}

// mockClient is a test implementation of the Client interface that replays
// scripted replies in order and records every request.
type mockClient struct {
	replies  []mockReply
	requests []Request
	mu       sync.Mutex
}

func (m *mockClient) Generate(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.requests)
	m.requests = append(m.requests, req)

	if idx >= len(m.replies) {
		return Response{}, fmt.Errorf("no more mock replies (call %d): %w", idx, common.ErrTransport)
	}
	r := m.replies[idx]
	if r.err != nil {
		return Response{}, r.err
	}
	return Response{Text: r.text}, nil
}

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockClient) request(i int) Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

// sleepRecorder stands in for the back-off wait.
type sleepRecorder struct {
	delays []time.Duration
	mu     sync.Mutex
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func transportFailure() mockReply {
	return mockReply{err: fmt.Errorf("dial tcp: connection refused: %w", common.ErrTransport)}
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

func newTestClassifier(client Client, opts ...Option) (*Classifier, *sleepRecorder) {
	rec := &sleepRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithSleep(rec.sleep), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewClassifier(client, Config{}, logger, opts...), rec
}
