package classification

import (
	"math"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/model"
)

// Documented defaults applied by the normalizer.
const (
	DefaultFinanceCategory   = "其他"
	DefaultTodoTitle         = "新待办"
	DefaultTodoPriority      = 2
	DefaultInventoryName     = "未命名物品"
	DefaultInventoryCategory = "其他"
	DefaultInventoryUnit     = "个"
	DefaultInventoryQuantity = 1.0
	dueTimeLayout            = "15:04"
)

// Normalizer fills defaults and canonicalizes the payload of a result.
// It is total: every input produces a fully populated payload whose shape
// matches the route, and Normalize(Normalize(x)) == Normalize(x).
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer. now supplies the default record date;
// nil means time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize returns a normalized copy of result.
func (n *Normalizer) Normalize(result model.ClassificationResult) model.ClassificationResult {
	out := model.ClassificationResult{
		Route:      result.Route,
		Confidence: model.ClampConfidence(result.Confidence),
		Summary:    strings.TrimSpace(result.Summary),
	}
	if !out.Route.Valid() {
		out.Route = model.RouteUnknown
	}

	switch out.Route {
	case model.RouteFinance:
		rec, _ := result.Payload.(model.FinanceRecord)
		out.Payload = n.normalizeFinance(rec, out.Summary)
	case model.RouteTodo:
		rec, _ := result.Payload.(model.TodoRecord)
		out.Payload = normalizeTodo(rec, out.Summary)
	case model.RouteInventory:
		rec, _ := result.Payload.(model.InventoryRecord)
		out.Payload = normalizeInventory(rec, out.Summary)
	default:
		out.Payload = nil
	}
	return out
}

func (n *Normalizer) normalizeFinance(rec model.FinanceRecord, summary string) model.FinanceRecord {
	switch {
	case math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0):
		rec.Amount = 0
	case rec.Amount < 0:
		rec.Amount = -rec.Amount
	}

	rec.Category = firstNonEmpty(rec.Category, DefaultFinanceCategory)
	rec.Description = firstNonEmpty(rec.Description, summary)
	rec.Emotion = strings.TrimSpace(rec.Emotion)

	if rec.RecordDate.IsZero() {
		rec.RecordDate = n.now()
	}
	rec.RecordDate = dateOnly(rec.RecordDate)
	return rec
}

func normalizeTodo(rec model.TodoRecord, summary string) model.TodoRecord {
	rec.Title = firstNonEmpty(rec.Title, summary, DefaultTodoTitle)
	rec.Description = strings.TrimSpace(rec.Description)
	rec.Kind = normalizeTodoKind(rec.Kind, rec.ReminderTime != nil)

	switch {
	case rec.Priority == 0:
		rec.Priority = DefaultTodoPriority
	case rec.Priority < 1:
		rec.Priority = 1
	case rec.Priority > 3:
		rec.Priority = 3
	}

	if rec.DueDate != nil {
		d := dateOnly(*rec.DueDate)
		rec.DueDate = &d
	}
	if _, err := time.Parse(dueTimeLayout, strings.TrimSpace(rec.DueTime)); err != nil {
		rec.DueTime = ""
	} else {
		rec.DueTime = strings.TrimSpace(rec.DueTime)
	}

	rec.Repeat = normalizeRepeat(rec.Repeat)

	// Keyword inference wins; the explicit label is only a fallback.
	if inferred := InferTodoCategory(rec.Title + " " + rec.Description); inferred != "" {
		rec.Category = inferred
	} else if canonical, ok := todoCategoryAliases[strings.ToLower(strings.TrimSpace(rec.Category))]; ok {
		rec.Category = canonical
	} else {
		rec.Category = model.TodoCategoryUncategorized
	}
	return rec
}

func normalizeInventory(rec model.InventoryRecord, summary string) model.InventoryRecord {
	rec.Name = firstNonEmpty(rec.Name, summary, DefaultInventoryName)
	rec.Category = firstNonEmpty(rec.Category, DefaultInventoryCategory)
	rec.StorageZone = ParseStorageZone(string(rec.StorageZone))
	rec.Unit = firstNonEmpty(rec.Unit, DefaultInventoryUnit)

	if math.IsNaN(rec.Quantity) || math.IsInf(rec.Quantity, 0) || rec.Quantity < 0 {
		rec.Quantity = DefaultInventoryQuantity
	}
	if rec.ExpiryDate != nil {
		d := dateOnly(*rec.ExpiryDate)
		rec.ExpiryDate = &d
	}
	return rec
}

var todoKindAliases = map[string]model.TodoKind{
	"task":        model.TodoKindTask,
	"任务":          model.TodoKindTask,
	"待办":          model.TodoKindTask,
	"reminder":    model.TodoKindReminder,
	"提醒":          model.TodoKindReminder,
	"inspiration": model.TodoKindInspiration,
	"idea":        model.TodoKindInspiration,
	"灵感":          model.TodoKindInspiration,
	"想法":          model.TodoKindInspiration,
}

func normalizeTodoKind(kind model.TodoKind, hasReminder bool) model.TodoKind {
	if k, ok := todoKindAliases[strings.ToLower(strings.TrimSpace(string(kind)))]; ok {
		return k
	}
	if hasReminder {
		return model.TodoKindReminder
	}
	return model.TodoKindTask
}

var repeatAliases = map[string]model.RepeatFrequency{
	"":        model.RepeatNone,
	"none":    model.RepeatNone,
	"never":   model.RepeatNone,
	"不重复":     model.RepeatNone,
	"daily":   model.RepeatDaily,
	"每天":      model.RepeatDaily,
	"weekly":  model.RepeatWeekly,
	"每周":      model.RepeatWeekly,
	"monthly": model.RepeatMonthly,
	"每月":      model.RepeatMonthly,
	"custom":  model.RepeatCustom,
	"自定义":     model.RepeatCustom,
}

func normalizeRepeat(rule model.RepeatRule) model.RepeatRule {
	freq, ok := repeatAliases[strings.ToLower(strings.TrimSpace(string(rule.Frequency)))]
	if !ok {
		freq = model.RepeatNone
	}
	if freq != model.RepeatCustom {
		return model.RepeatRule{Frequency: freq}
	}
	if rule.IntervalDays < 1 {
		return model.RepeatRule{Frequency: model.RepeatNone}
	}
	return model.RepeatRule{Frequency: model.RepeatCustom, IntervalDays: rule.IntervalDays}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize normalizes result using the wall clock for date defaults.
func Normalize(result model.ClassificationResult) model.ClassificationResult {
	return defaultNormalizer.Normalize(result)
}
