package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// fakeSignals wires a handler to a channel the test controls.
func fakeSignals(h *InterruptHandler) (send func(), stopped chan struct{}) {
	registered := make(chan chan<- os.Signal, 1)
	stopped = make(chan struct{})
	h.notify = func(c chan<- os.Signal) { registered <- c }
	h.stopNotify = func(chan<- os.Signal) { close(stopped) }
	return func() { (<-registered) <- os.Interrupt }, stopped
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting")
	}
}

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil)
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestHandleInterrupts_Signal(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		notExpected []string
		saving      bool
	}{
		{
			name:     "saving",
			saving:   true,
			expected: []string{"Interrupted!", "were saved"},
		},
		{
			name:        "not saving",
			expected:    []string{"Interrupted!"},
			notExpected: []string{"were saved"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &syncBuffer{}
			handler := NewInterruptHandler(output)
			send, stopped := fakeSignals(handler)

			ctx, cancel := handler.HandleInterrupts(context.Background(), tt.saving)
			defer cancel()

			require.NoError(t, ctx.Err())
			send()
			waitClosed(t, ctx.Done())
			waitClosed(t, stopped)

			assert.True(t, handler.WasInterrupted())
			for _, s := range tt.expected {
				assert.Contains(t, output.String(), s)
			}
			for _, s := range tt.notExpected {
				assert.NotContains(t, output.String(), s)
			}
			assert.Equal(t, 1, strings.Count(output.String(), "Interrupted!"))
		})
	}
}

func TestHandleInterrupts_CancelWithoutSignal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)
	_, stopped := fakeSignals(handler)

	_, cancel := handler.HandleInterrupts(context.Background(), true)
	cancel()
	waitClosed(t, stopped)

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
