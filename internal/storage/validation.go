package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/lifesort/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidRecord = errors.New("invalid record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord checks that a record is storable: it has an id, a routed
// payload of the matching shape, and finite numbers.
func validateRecord(rec model.StoredRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if rec.Payload == nil || rec.Route == model.RouteUnknown {
		return fmt.Errorf("%w: unknown records are not stored", ErrInvalidRecord)
	}
	if rec.Payload.Route() != rec.Route {
		return fmt.Errorf("%w: route %s carries %s payload", ErrInvalidRecord, rec.Route, rec.Payload.Route())
	}
	if rec.Confidence < 0 || rec.Confidence > 1 || math.IsNaN(rec.Confidence) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidRecord, rec.Confidence)
	}
	if rec.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrInvalidRecord)
	}

	switch p := rec.Payload.(type) {
	case model.FinanceRecord:
		if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount < 0 {
			return fmt.Errorf("%w: amount %v", ErrInvalidRecord, p.Amount)
		}
	case model.TodoRecord:
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("%w: todo without title", ErrInvalidRecord)
		}
	case model.InventoryRecord:
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: item without name", ErrInvalidRecord)
		}
		if math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) || p.Quantity < 0 {
			return fmt.Errorf("%w: quantity %v", ErrInvalidRecord, p.Quantity)
		}
	}
	return nil
}
