package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/llm"
)

const describeInstruction = `Describe what these photos show so the description can be filed as an expense, a to-do or a household item.
Mention prices and totals on receipts, item names, counts and where items are stored, and any dates or deadlines.
Reply in the language of any visible text, in plain sentences.`

// Describer converts one or more images into a free-text description.
type Describer struct {
	client   llm.Client
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewDescriber creates a describer that sends images inline to client.
func NewDescriber(client llm.Client, logger *slog.Logger) *Describer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Describer{client: client, logger: logger, readFile: os.ReadFile}
}

// Describe sends every image in a single request and returns the description.
func (d *Describer) Describe(ctx context.Context, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no images given: %w", common.ErrEmptyInput)
	}

	parts := make([]llm.Part, 0, len(paths))
	for _, path := range paths {
		data, err := d.readFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read image %s: %w", path, err)
		}
		mimeType := DetectMIME(path, data)
		if !strings.HasPrefix(mimeType, "image/") {
			return "", fmt.Errorf("%s is %s, not an image", path, mimeType)
		}
		parts = append(parts, llm.Part{Media: &llm.Media{MIMEType: mimeType, Data: data}})
	}

	resp, err := d.client.Generate(ctx, llm.Request{
		Instruction: describeInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Parts: parts}},
		Config:      llm.GenerationConfig{Temperature: 0.2},
	})
	if err != nil {
		return "", fmt.Errorf("image description failed: %w", err)
	}

	description := strings.TrimSpace(resp.Text)
	if description == "" {
		return "", fmt.Errorf("empty description: %w", common.ErrEmptyInput)
	}

	d.logger.Debug("images described", "count", len(paths))
	return description, nil
}
