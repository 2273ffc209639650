package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/classification"
	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/model"
)

// Defaults for the Classifier.
const (
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = time.Second
	DefaultMaxTokens      = 1024
	DefaultTrustThreshold = 0.4
)

// Summaries attached to results that carry no usable classification.
const (
	SummaryConnectivity = "connectivity error: the inference service could not be reached"
	SummaryFormat       = "format error: the inference reply could not be read"
)

// Classifier routes text to a life domain and extracts a typed record. It
// never returns an error: every path ends in a well-formed result.
type Classifier struct {
	client         Client
	parser         *ResponseParser
	normalizer     *classification.Normalizer
	heuristic      classification.Heuristic
	logger         *slog.Logger
	sleep          func(context.Context, time.Duration) error
	now            func() time.Time
	maxRetries     int
	retryDelay     time.Duration
	maxTokens      int
	trustThreshold float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSleep replaces the back-off wait between attempts.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Classifier) { c.sleep = sleep }
}

// WithParser replaces the response parser.
func WithParser(p *ResponseParser) Option {
	return func(c *Classifier) { c.parser = p }
}

// WithClock sets the clock used for default dates and the prompt's notion of today.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
		c.normalizer = classification.NewNormalizer(now)
	}
}

// NewClassifier creates a Classifier on top of an inference client.
// A zero MaxRetries means DefaultMaxRetries; a negative one disables retries.
func NewClassifier(client Client, cfg Config, logger *slog.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		client:         client,
		heuristic:      classification.NewHeuristic(),
		normalizer:     classification.NewNormalizer(nil),
		logger:         logger,
		sleep:          common.Sleep,
		now:            time.Now,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		maxTokens:      cfg.MaxTokens,
		trustThreshold: cfg.TrustThreshold,
	}

	switch {
	case c.maxRetries == 0:
		c.maxRetries = DefaultMaxRetries
	case c.maxRetries < 0:
		c.maxRetries = 0
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.trustThreshold <= 0 {
		c.trustThreshold = DefaultTrustThreshold
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.parser == nil {
		c.parser = NewResponseParser(WithParserLogger(logger))
	}
	return c
}

// failureKind records why an attempt failed.
type failureKind int

const (
	failureNone failureKind = iota
	failureTransport
	failureFormat
)

// attemptState is the retry state machine for one logical call.
type attemptState struct {
	rc           model.RequestContext
	attempt      int
	maxAttempts  int
	lastFailure  failureKind
	sawTransport bool
}

func newAttemptState(maxRetries int) *attemptState {
	return &attemptState{
		rc:          model.NewRequestContext(),
		maxAttempts: maxRetries + 1,
	}
}

// next advances to the following attempt and reports whether one is left.
func (s *attemptState) next() bool {
	if s.attempt >= s.maxAttempts {
		return false
	}
	s.attempt++
	s.rc = s.rc.WithAttempt(s.attempt)
	return true
}

func (s *attemptState) fail(err error) {
	if errors.Is(err, common.ErrMalformedResponse) || errors.Is(err, common.ErrInvalidStructure) {
		s.lastFailure = failureFormat
		return
	}
	s.lastFailure = failureTransport
	s.sawTransport = true
}

func (s *attemptState) last() bool {
	return s.attempt >= s.maxAttempts
}

// exhaustedSummary distinguishes a connectivity problem from replies that
// were received but never readable.
func (s *attemptState) exhaustedSummary() string {
	if s.sawTransport {
		return SummaryConnectivity
	}
	return SummaryFormat
}

// runAttempts drives the attempt loop shared by Classify and ClassifyBatch.
// Attempts are strictly sequential with a back-off of attempt × retryDelay
// between them. ok is false when every attempt failed.
func runAttempts[T any](ctx context.Context, c *Classifier, state *attemptState, do func(attempt int) (T, error)) (T, bool) {
	var zero T
	for state.next() {
		logger := c.logger.With("correlation_id", state.rc.CorrelationID, "attempt", state.rc.Attempt)

		out, err := do(state.attempt)
		if err == nil {
			return out, true
		}
		state.fail(err)
		logger.Warn("classification attempt failed",
			"error", err,
			"max_attempts", state.maxAttempts)

		if state.last() {
			break
		}
		if err := c.sleep(ctx, common.LinearBackoff(state.attempt, c.retryDelay)); err != nil {
			state.fail(fmt.Errorf("back-off interrupted: %w", err))
			break
		}
	}
	return zero, false
}

// Classify produces one classification result for text.
func (c *Classifier) Classify(ctx context.Context, text string) model.ClassificationResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.UnknownResult(common.ErrEmptyInput.Error())
	}

	state := newAttemptState(c.maxRetries)
	result, ok := runAttempts(ctx, c, state, func(attempt int) (model.ClassificationResult, error) {
		raw, err := c.generate(ctx, text, attempt, false)
		if err != nil {
			return model.ClassificationResult{}, err
		}
		return c.parser.Parse(raw)
	})

	logger := c.logger.With("correlation_id", state.rc.CorrelationID, "attempt", state.rc.Attempt)
	if !ok {
		return c.exhausted(text, state, logger)
	}
	return c.decide(text, result, logger)
}

func (c *Classifier) generate(ctx context.Context, text string, attempt int, batch bool) (string, error) {
	resp, err := c.client.Generate(ctx, buildRequest(text, attempt, batch, c.maxTokens, c.now()))
	if err != nil {
		if !errors.Is(err, common.ErrTransport) {
			err = fmt.Errorf("%w: %w", common.ErrTransport, err)
		}
		return "", err
	}
	return resp.Text, nil
}

// validate coerces the route to a legal value and clamps confidence.
func validate(result model.ClassificationResult) model.ClassificationResult {
	if !result.Route.Valid() {
		result.Route = model.RouteUnknown
	}
	result.Confidence = model.ClampConfidence(result.Confidence)
	return result
}

// decide applies the trust threshold: an unknown or low-confidence
// inference result is replaced by the heuristic guess when there is one.
func (c *Classifier) decide(text string, result model.ClassificationResult, logger *slog.Logger) model.ClassificationResult {
	result = c.normalizer.Normalize(validate(result))

	if result.IsUnknown() || result.Confidence < c.trustThreshold {
		if guess, ok := c.heuristic.Classify(text); ok {
			guess = c.normalizer.Normalize(guess)
			logger.Info("low-trust inference replaced by heuristic",
				"inference_route", result.Route,
				"inference_confidence", result.Confidence,
				"route", guess.Route)
			return guess
		}
	}

	logger.Info("text classified",
		"route", result.Route,
		"confidence", result.Confidence)
	return result
}

// exhausted handles a call whose every attempt failed. The heuristic gets
// the last word before the call degrades to an unknown result.
func (c *Classifier) exhausted(text string, state *attemptState, logger *slog.Logger) model.ClassificationResult {
	if guess, ok := c.heuristic.Classify(text); ok {
		guess = c.normalizer.Normalize(guess)
		logger.Info("inference unavailable, using heuristic", "route", guess.Route)
		return guess
	}

	summary := state.exhaustedSummary()
	logger.Warn("classification exhausted", "summary", summary)
	return model.UnknownResult(summary)
}
