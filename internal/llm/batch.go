package llm

import (
	"context"
	"strings"

	"github.com/Veraticus/lifesort/internal/model"
)

// ClassifyBatch splits text into independent records. It always returns at
// least one result. When no attempt yields a usable item the call falls back
// to Classify.
func (c *Classifier) ClassifyBatch(ctx context.Context, text string) []model.ClassificationResult {
	if strings.TrimSpace(text) == "" {
		return []model.ClassificationResult{c.Classify(ctx, text)}
	}

	state := newAttemptState(c.maxRetries)
	results, ok := runAttempts(ctx, c, state, func(attempt int) ([]model.ClassificationResult, error) {
		raw, err := c.generate(ctx, text, attempt, true)
		if err != nil {
			return nil, err
		}
		items, err := c.parser.ParseBatch(raw)
		if err != nil {
			return nil, err
		}

		out := make([]model.ClassificationResult, 0, len(items))
		for _, item := range items {
			out = append(out, c.normalizer.Normalize(validate(item)))
		}
		return out, nil
	})

	if !ok {
		c.logger.Info("batch extraction failed, falling back to single classification",
			"correlation_id", state.rc.CorrelationID)
		return []model.ClassificationResult{c.Classify(ctx, text)}
	}

	c.logger.Info("batch classified",
		"correlation_id", state.rc.CorrelationID,
		"attempt", state.rc.Attempt,
		"items", len(results))
	return results
}
