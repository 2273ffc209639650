package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/model"
)

const (
	baseTemperature = 0.3

	routingInstruction = `You sort short personal notes into one of three domains and extract a record.

Domains:
- finance: money that was spent. data: amount (number), category, description, emotion, is_essential (bool), record_date (YYYY-MM-DD).
- todo: something to do, remember or an idea. data: title, description, type (task|reminder|inspiration), priority (1-3, 1 is highest), due_date (YYYY-MM-DD), due_time (HH:MM), reminder_time (YYYY-MM-DD HH:MM), repeat (none|daily|weekly|monthly|custom), repeat_interval_days, category.
- inventory: a household item and where it is kept. data: name, category, storage_zone (%s), quantity (number), unit, expiry_date (YYYY-MM-DD).
Use unknown when none fits.

Keep labels in the language of the note. Today is %s.`

	singleShape = `Reply with one JSON object: {"route_type": "...", "confidence": 0.0-1.0, "summary": "short summary", "data": {...}}.`

	batchShape = `The note may mention several independent things. Reply with {"items": [...]} where every item is an object {"route_type": "...", "confidence": 0.0-1.0, "summary": "short summary", "data": {...}}.`

	strictSuffix = `Your previous reply could not be read. Output must be valid JSON and nothing else: no markdown fences, no commentary, start with { and end with }.`
)

// temperatureFor lowers creativity as attempts accumulate.
func temperatureFor(attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	return baseTemperature / float64(attempt)
}

// instructionFor builds the system instruction for an attempt. Retries add
// an explicit demand for valid structured output.
func instructionFor(attempt int, batch bool, today time.Time) string {
	zones := make([]string, len(model.StorageZones))
	for i, z := range model.StorageZones {
		zones[i] = string(z)
	}

	var b strings.Builder
	fmt.Fprintf(&b, routingInstruction, strings.Join(zones, "|"), today.Format("2006-01-02"))
	b.WriteString("\n\n")
	if batch {
		b.WriteString(batchShape)
	} else {
		b.WriteString(singleShape)
	}
	if attempt > 1 {
		b.WriteString("\n\n")
		b.WriteString(strictSuffix)
	}
	return b.String()
}

// buildRequest assembles the inference request for one attempt.
func buildRequest(text string, attempt int, batch bool, maxTokens int, today time.Time) Request {
	return Request{
		Instruction: instructionFor(attempt, batch, today),
		Messages:    []Message{UserText(text)},
		Config: GenerationConfig{
			Temperature:     temperatureFor(attempt),
			MaxOutputTokens: maxTokens,
			JSONMode:        true,
		},
	}
}
