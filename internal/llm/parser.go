package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/model"
)

// ParseTier identifies one extraction strategy of the ResponseParser.
type ParseTier int

// Parser tiers, in the order they are tried.
const (
	TierStrict ParseTier = iota + 1
	TierSubstring
	TierFieldSalvage
)

func (t ParseTier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierSubstring:
		return "substring"
	case TierFieldSalvage:
		return "field_salvage"
	}
	return "unknown"
}

// ResponseParser turns raw model output into classification results. The
// results it returns are not yet validated or normalized.
type ResponseParser struct {
	observe func(ParseTier)
	logger  *slog.Logger
}

// ParserOption configures a ResponseParser.
type ParserOption func(*ResponseParser)

// WithTierObserver registers fn to be called each time a tier is attempted.
func WithTierObserver(fn func(ParseTier)) ParserOption {
	return func(p *ResponseParser) { p.observe = fn }
}

// WithParserLogger sets the logger used for per-tier debug output.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *ResponseParser) { p.logger = logger }
}

// NewResponseParser creates a parser.
func NewResponseParser(opts ...ParserOption) *ResponseParser {
	p := &ResponseParser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

var (
	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\n?(.*?)\\s*(?:```\\s*)?$")
	objectPattern    = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern     = regexp.MustCompile(`(?s)\[.*\]`)

	salvageRoute       = regexp.MustCompile(`"?route_type"?\s*[:=]\s*"?([A-Za-z_]+|\p{Han}+)`)
	salvageConfidence  = regexp.MustCompile(`"?confidence"?\s*[:=]\s*"?(-?[0-9]*\.?[0-9]+)`)
	salvageSummary     = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvageAmount      = regexp.MustCompile(`"amount"\s*:\s*"?(-?[0-9]+(?:\.[0-9]+)?)`)
	salvageCategory    = regexp.MustCompile(`"category"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvageDescription = regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`)

	leadingNumber = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)
)

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// Parse extracts a single classification result from raw. Tiers run in
// order and the first success wins. The error wraps
// common.ErrInvalidStructure when structured data was found but carried no
// route, and common.ErrMalformedResponse otherwise.
func (p *ResponseParser) Parse(raw string) (model.ClassificationResult, error) {
	text := StripCodeFence(raw)
	missingRoute := false

	p.enter(TierStrict)
	if strings.HasPrefix(text, "{") && strings.Contains(text, "}") {
		if obj, err := decodeObject(text); err == nil {
			if result, ok := resultFromObject(obj); ok {
				return result, nil
			}
			missingRoute = true
		} else {
			p.logger.Debug("strict parse failed", "error", err)
		}
	}

	p.enter(TierSubstring)
	if span := objectPattern.FindString(text); span != "" {
		if obj, err := decodeObject(span); err == nil {
			if result, ok := resultFromObject(obj); ok {
				return result, nil
			}
			missingRoute = true
		} else {
			p.logger.Debug("substring parse failed", "error", err)
		}
	}

	p.enter(TierFieldSalvage)
	if result, ok := salvageFields(text); ok {
		p.logger.Debug("salvaged fields from malformed response", "route", result.Route)
		return result, nil
	}

	if missingRoute {
		return model.ClassificationResult{}, fmt.Errorf("response has no route_type: %w", common.ErrInvalidStructure)
	}
	return model.ClassificationResult{}, fmt.Errorf("no parser tier matched %q: %w", truncate(text, 80), common.ErrMalformedResponse)
}

// ParseBatch extracts a list of results. It accepts {"items": [...]}, a bare
// array, or a single bare result. Elements without a route are dropped; an
// error is returned only when no element survives.
func (p *ResponseParser) ParseBatch(raw string) ([]model.ClassificationResult, error) {
	text := StripCodeFence(raw)

	candidates := []string{text}
	if span := objectPattern.FindString(text); span != "" && span != text {
		candidates = append(candidates, span)
	}
	if span := arrayPattern.FindString(text); span != "" && span != text {
		candidates = append(candidates, span)
	}

	var lastErr error
	for i, candidate := range candidates {
		if i == 0 {
			p.enter(TierStrict)
		} else {
			p.enter(TierSubstring)
		}

		var decoded any
		if err := unmarshalNumbers(candidate, &decoded); err != nil {
			lastErr = err
			continue
		}

		var results []model.ClassificationResult
		for _, item := range batchItems(decoded) {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if result, ok := resultFromObject(obj); ok {
				results = append(results, result)
			}
		}
		if len(results) > 0 {
			return results, nil
		}
		lastErr = fmt.Errorf("batch response has no routed items: %w", common.ErrInvalidStructure)
	}

	if !errors.Is(lastErr, common.ErrInvalidStructure) {
		return nil, fmt.Errorf("batch response unreadable: %w", common.ErrMalformedResponse)
	}
	return nil, lastErr
}

func (p *ResponseParser) enter(tier ParseTier) {
	if p.observe != nil {
		p.observe(tier)
	}
}

func batchItems(decoded any) []any {
	switch v := decoded.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items
		}
		return []any{v}
	}
	return nil
}

func unmarshalNumbers(text string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func decodeObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := unmarshalNumbers(text, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("decode: not an object")
	}
	return obj, nil
}

// resultFromObject maps one decoded reply object onto a result. It reports
// false when the object has no route_type.
func resultFromObject(obj map[string]any) (model.ClassificationResult, bool) {
	routeRaw, ok := stringField(obj, "route_type")
	if !ok {
		return model.ClassificationResult{}, false
	}

	result := model.ClassificationResult{
		Route:      model.ParseRoute(routeRaw),
		Confidence: numberField(obj, "confidence", math.NaN()),
	}
	result.Summary, _ = stringField(obj, "summary")

	data, ok := obj["data"].(map[string]any)
	if !ok {
		data = obj
	}
	result.Payload = decodePayload(result.Route, data)
	return result, true
}

func decodePayload(route model.Route, data map[string]any) model.Payload {
	switch route {
	case model.RouteFinance:
		rec := model.FinanceRecord{
			Amount:      numberField(data, "amount", math.NaN()),
			IsEssential: boolField(data, "is_essential"),
		}
		rec.Category, _ = stringField(data, "category")
		rec.Description, _ = stringField(data, "description")
		rec.Emotion, _ = stringField(data, "emotion")
		if t, ok := timeField(data, "record_date"); ok {
			rec.RecordDate = t
		}
		return rec

	case model.RouteTodo:
		rec := model.TodoRecord{}
		rec.Title, _ = stringField(data, "title")
		rec.Description, _ = stringField(data, "description")
		rec.DueTime, _ = stringField(data, "due_time")
		rec.Category, _ = stringField(data, "category")
		kind, _ := stringField(data, "type")
		rec.Kind = model.TodoKind(kind)
		if p := numberField(data, "priority", 0); !math.IsNaN(p) && !math.IsInf(p, 0) {
			rec.Priority = int(math.Round(p))
		}
		if t, ok := timeField(data, "due_date"); ok {
			rec.DueDate = &t
		}
		if t, ok := timeField(data, "reminder_time"); ok {
			rec.ReminderTime = &t
		}
		rec.Repeat = repeatField(data)
		return rec

	case model.RouteInventory:
		rec := model.InventoryRecord{
			Quantity: numberField(data, "quantity", math.NaN()),
		}
		rec.Name, _ = stringField(data, "name")
		rec.Category, _ = stringField(data, "category")
		rec.Unit, _ = stringField(data, "unit")
		zone, _ := stringField(data, "storage_zone")
		rec.StorageZone = model.StorageZone(zone)
		if t, ok := timeField(data, "expiry_date"); ok {
			rec.ExpiryDate = &t
		}
		return rec
	}
	return nil
}

// salvageFields regex-extracts the essentials from text that is not valid
// structured data, typically a reply cut off at the token limit.
func salvageFields(text string) (model.ClassificationResult, bool) {
	m := salvageRoute.FindStringSubmatch(text)
	if m == nil {
		return model.ClassificationResult{}, false
	}

	result := model.ClassificationResult{
		Route:      model.ParseRoute(m[1]),
		Confidence: math.NaN(),
	}
	if m := salvageConfidence.FindStringSubmatch(text); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.Confidence = c
		}
	}
	if m := salvageSummary.FindStringSubmatch(text); m != nil {
		result.Summary = unescape(m[1])
	}

	switch result.Route {
	case model.RouteFinance:
		rec := model.FinanceRecord{Amount: math.NaN()}
		if m := salvageAmount.FindStringSubmatch(text); m != nil {
			if a, err := strconv.ParseFloat(m[1], 64); err == nil {
				rec.Amount = a
			}
		}
		if m := salvageCategory.FindStringSubmatch(text); m != nil {
			rec.Category = unescape(m[1])
		}
		if m := salvageDescription.FindStringSubmatch(text); m != nil {
			rec.Description = unescape(m[1])
		}
		result.Payload = rec
	default:
		result.Payload = decodePayload(result.Route, map[string]any{})
	}
	return result, true
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// numberField reads a JSON number or a numeric string. Absent or unreadable
// values yield def.
func numberField(m map[string]any, key string, def float64) float64 {
	switch t := m[key].(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case float64:
		return t
	case string:
		if n := leadingNumber.FindString(t); n != "" {
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return def
}

func boolField(m map[string]any, key string) *bool {
	var b bool
	switch t := m[key].(type) {
	case bool:
		b = t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "是", "1":
			b = true
		case "false", "no", "否", "0":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
}

func timeField(m map[string]any, key string) (time.Time, bool) {
	s, ok := stringField(m, key)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func repeatField(data map[string]any) model.RepeatRule {
	var rule model.RepeatRule
	switch v := data["repeat"].(type) {
	case string:
		rule.Frequency = model.RepeatFrequency(strings.TrimSpace(v))
	case map[string]any:
		freq, _ := stringField(v, "frequency")
		rule.Frequency = model.RepeatFrequency(freq)
		if n := numberField(v, "interval_days", 0); n > 0 && !math.IsInf(n, 0) {
			rule.IntervalDays = int(n)
		}
	}
	if n := numberField(data, "repeat_interval_days", 0); n > 0 && !math.IsInf(n, 0) {
		rule.IntervalDays = int(n)
	}
	return rule
}
