package model

import "github.com/google/uuid"

// RequestContext correlates the log lines of one logical classification call.
// The correlation id is stable across retries; Attempt counts from 1.
type RequestContext struct {
	CorrelationID string
	Attempt       int
}

// NewRequestContext starts a fresh logical call.
func NewRequestContext() RequestContext {
	return RequestContext{CorrelationID: uuid.NewString()}
}

// WithAttempt returns a copy carrying the given attempt number.
func (rc RequestContext) WithAttempt(attempt int) RequestContext {
	rc.Attempt = attempt
	return rc
}
