package model

import "time"

// Source records how a piece of input reached the pipeline.
type Source string

// Input sources.
const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
	SourcePhoto Source = "photo"
)

// StoredRecord is an accepted classification as persisted by the record store.
type StoredRecord struct {
	CreatedAt  time.Time
	Payload    Payload
	ID         string
	Route      Route
	Summary    string
	Source     Source
	Confidence float64
}

// NewStoredRecord wraps an accepted result for persistence. It returns false
// for unknown results, which are never stored.
func NewStoredRecord(id string, result ClassificationResult, source Source, now time.Time) (StoredRecord, bool) {
	if result.IsUnknown() || result.Payload == nil {
		return StoredRecord{}, false
	}
	return StoredRecord{
		ID:         id,
		Route:      result.Route,
		Confidence: result.Confidence,
		Summary:    result.Summary,
		Source:     source,
		CreatedAt:  now,
		Payload:    result.Payload,
	}, true
}
