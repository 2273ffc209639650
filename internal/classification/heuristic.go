package classification

import (
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/lifesort/internal/model"
)

// HeuristicConfidence is attached to every heuristic guess: better than
// nothing, never authoritative.
const HeuristicConfidence = 0.4

const heuristicSummaryRunes = 20

// Heuristic is a deterministic keyword classifier used when the inference
// service is unavailable or not confident enough.
type Heuristic struct{}

// NewHeuristic returns the keyword classifier.
func NewHeuristic() Heuristic {
	return Heuristic{}
}

// Classify guesses a route from raw text alone. The boolean is false when no
// rule applies. Rules are evaluated in a fixed priority: inventory, finance,
// todo. Finance only beats inventory when a money amount is present.
func (Heuristic) Classify(text string) (model.ClassificationResult, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ClassificationResult{}, false
	}

	hasFinance := matchesAny(financeKeywords, text)
	hasInventory := matchesAny(inventoryKeywords, text)
	amount, hasAmount := extractAmount(text)
	summary := truncateRunes(text, heuristicSummaryRunes)

	switch {
	case hasInventory && !(hasFinance && hasAmount):
		qty, unit, ok := extractQuantity(text)
		if !ok {
			qty, unit = 1, DefaultInventoryUnit
		}
		return model.ClassificationResult{
			Route:      model.RouteInventory,
			Confidence: HeuristicConfidence,
			Summary:    summary,
			Payload: model.InventoryRecord{
				Name:        summary,
				StorageZone: zoneFromText(text),
				Quantity:    qty,
				Unit:        unit,
			},
		}, true

	case hasFinance && hasAmount:
		return model.ClassificationResult{
			Route:      model.RouteFinance,
			Confidence: HeuristicConfidence,
			Summary:    summary,
			Payload: model.FinanceRecord{
				Amount:      amount,
				Description: summary,
			},
		}, true

	case matchesAny(todoKeywords, text):
		return model.ClassificationResult{
			Route:      model.RouteTodo,
			Confidence: HeuristicConfidence,
			Summary:    summary,
			Payload: model.TodoRecord{
				Title:    summary,
				Kind:     model.TodoKindTask,
				Priority: DefaultTodoPriority,
				Category: InferTodoCategory(text),
			},
		}, true
	}

	return model.ClassificationResult{}, false
}

func matchesAny(patterns []CompiledPattern, text string) bool {
	for _, p := range patterns {
		if p.Matches(text) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
