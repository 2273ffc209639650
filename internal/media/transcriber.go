package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/lifesort/internal/llm"
)

const (
	silenceMarker = "[SILENCE]"

	transcribeInstruction = `Transcribe the speech in this recording verbatim, in the language spoken.
Reply with the transcript only. If the recording holds no intelligible speech, reply with ` + silenceMarker + `.`
)

// Transcriber converts an audio asset into a transcript.
type Transcriber struct {
	client   llm.Client
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewTranscriber creates a transcriber that sends audio inline to client.
func NewTranscriber(client llm.Client, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{client: client, logger: logger, readFile: os.ReadFile}
}

// Transcribe returns the transcript of the audio at path. Empty files and
// recordings without speech yield ErrSilentAudio.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	data, err := t.readFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrSilentAudio)
	}

	mimeType := DetectMIME(path, data)
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", fmt.Errorf("%s is %s, not audio", path, mimeType)
	}

	resp, err := t.client.Generate(ctx, llm.Request{
		Instruction: transcribeInstruction,
		Messages: []llm.Message{{
			Role:  llm.RoleUser,
			Parts: []llm.Part{{Media: &llm.Media{MIMEType: mimeType, Data: data}}},
		}},
		Config: llm.GenerationConfig{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	transcript := strings.TrimSpace(resp.Text)
	if transcript == "" || strings.Contains(strings.ToUpper(transcript), silenceMarker) {
		return "", fmt.Errorf("%s: %w", path, ErrSilentAudio)
	}

	t.logger.Debug("audio transcribed", "path", path, "mime", mimeType, "chars", len([]rune(transcript)))
	return transcript, nil
}
