package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/llm"
)

type fakeClient struct {
	err      error
	text     string
	requests []llm.Request
	mu       sync.Mutex
}

func (f *fakeClient) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	tests := []struct {
		path string
		data []byte
		want string
	}{
		{"memo.m4a", nil, "audio/mp4"},
		{"memo.MP3", nil, "audio/mpeg"},
		{"receipt.jpg", nil, "image/jpeg"},
		{"receipt.HEIC", nil, "image/heic"},
		{"no-extension", png, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.path, tt.data))
		})
	}

	assert.True(t, IsAudio("a.wav"))
	assert.False(t, IsAudio("a.png"))
}

func TestTranscriber_Transcribe(t *testing.T) {
	client := &fakeClient{text: "  花了25元买咖啡 \n"}
	tr := NewTranscriber(client, nil)

	path := writeFile(t, "memo.m4a", []byte("fake-audio"))
	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "花了25元买咖啡", text)

	require.Len(t, client.requests, 1)
	part := client.requests[0].Messages[0].Parts[0]
	require.NotNil(t, part.Media)
	assert.Equal(t, "audio/mp4", part.Media.MIMEType)
	assert.Equal(t, []byte("fake-audio"), part.Media.Data)
}

func TestTranscriber_Silence(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		reply     string
		wantCalls int
	}{
		{name: "empty file skips inference", data: nil, wantCalls: 0},
		{name: "blank transcript", data: []byte("x"), reply: "   ", wantCalls: 1},
		{name: "silence marker", data: []byte("x"), reply: "[silence]", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{text: tt.reply}
			tr := NewTranscriber(client, nil)

			_, err := tr.Transcribe(context.Background(), writeFile(t, "memo.wav", tt.data))
			assert.ErrorIs(t, err, ErrSilentAudio)
			assert.Len(t, client.requests, tt.wantCalls)
		})
	}
}

func TestTranscriber_Errors(t *testing.T) {
	client := &fakeClient{err: errors.New("unreachable")}
	tr := NewTranscriber(client, nil)

	_, err := tr.Transcribe(context.Background(), writeFile(t, "photo.png", []byte("x")))
	require.Error(t, err)
	assert.Empty(t, client.requests, "non-audio input never reaches the client")

	_, err = tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.m4a"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = tr.Transcribe(context.Background(), writeFile(t, "memo.mp3", []byte("x")))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSilentAudio)
}

func TestDescriber_Describe(t *testing.T) {
	client := &fakeClient{text: "超市小票，总计58元"}
	d := NewDescriber(client, nil)

	a := writeFile(t, "a.jpg", []byte("jpeg-a"))
	b := writeFile(t, "b.png", []byte("png-b"))

	text, err := d.Describe(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "超市小票，总计58元", text)

	require.Len(t, client.requests, 1)
	parts := client.requests[0].Messages[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "image/jpeg", parts[0].Media.MIMEType)
	assert.Equal(t, "image/png", parts[1].Media.MIMEType)
}

func TestDescriber_Errors(t *testing.T) {
	d := NewDescriber(&fakeClient{}, nil)

	_, err := d.Describe(context.Background())
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	_, err = d.Describe(context.Background(), writeFile(t, "a.jpg", []byte("x")))
	assert.ErrorIs(t, err, common.ErrEmptyInput, "blank description")

	_, err = d.Describe(context.Background(), writeFile(t, "memo.m4a", []byte("x")))
	require.Error(t, err)
}
