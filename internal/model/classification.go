// Package model defines the core domain models used throughout the application.
package model

import (
	"math"
	"strings"
)

// Route is the life-domain a piece of input is assigned to.
type Route string

// Route constants.
const (
	RouteFinance   Route = "finance"
	RouteTodo      Route = "todo"
	RouteInventory Route = "inventory"
	RouteUnknown   Route = "unknown"
)

// DefaultConfidence is used when the inference reply carries no usable confidence.
const DefaultConfidence = 0.5

// routeAliases maps the spellings models tend to emit onto the four legal routes.
var routeAliases = map[string]Route{
	"finance":   RouteFinance,
	"expense":   RouteFinance,
	"expenses":  RouteFinance,
	"记账":        RouteFinance,
	"todo":      RouteTodo,
	"task":      RouteTodo,
	"tasks":     RouteTodo,
	"待办":        RouteTodo,
	"inventory": RouteInventory,
	"item":      RouteInventory,
	"items":     RouteInventory,
	"物品":        RouteInventory,
	"unknown":   RouteUnknown,
}

// ParseRoute coerces free text into a Route. Unrecognized values become RouteUnknown.
func ParseRoute(s string) Route {
	if r, ok := routeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r
	}
	return RouteUnknown
}

// Valid reports whether r is one of the four legal routes.
func (r Route) Valid() bool {
	switch r {
	case RouteFinance, RouteTodo, RouteInventory, RouteUnknown:
		return true
	}
	return false
}

// Payload is the typed record attached to a non-unknown ClassificationResult.
// It is implemented only by FinanceRecord, TodoRecord and InventoryRecord.
type Payload interface {
	Route() Route
	isPayload()
}

// ClassificationResult is the outcome of classifying one piece of input.
// Payload is nil iff Route is RouteUnknown, and its concrete type always
// matches Route once the result has been normalized.
type ClassificationResult struct {
	Payload    Payload `json:"data,omitempty"`
	Route      Route   `json:"route_type"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// UnknownResult builds an unknown result with zero confidence.
func UnknownResult(summary string) ClassificationResult {
	return ClassificationResult{
		Route:      RouteUnknown,
		Confidence: 0,
		Summary:    summary,
	}
}

// Finance returns the finance payload, if any.
func (r ClassificationResult) Finance() (FinanceRecord, bool) {
	rec, ok := r.Payload.(FinanceRecord)
	return rec, ok
}

// Todo returns the todo payload, if any.
func (r ClassificationResult) Todo() (TodoRecord, bool) {
	rec, ok := r.Payload.(TodoRecord)
	return rec, ok
}

// Inventory returns the inventory payload, if any.
func (r ClassificationResult) Inventory() (InventoryRecord, bool) {
	rec, ok := r.Payload.(InventoryRecord)
	return rec, ok
}

// IsUnknown reports whether the result carries no usable route.
func (r ClassificationResult) IsUnknown() bool {
	return r.Route == RouteUnknown
}

// ClampConfidence forces c into [0,1]. NaN becomes DefaultConfidence.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return DefaultConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
