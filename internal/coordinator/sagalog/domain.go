// Package sagalog records every transition of a checkout saga.
//
// The log is append-only: one row per transition, so the latest row for a
// saga id is its current state and the full history explains how it got
// there. Rows carry the trace and span ids that were active when they were
// written, which joins them to the request trace.
package sagalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("sagalog: saga not found")

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether no further rows are expected for the saga.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SagaLog is one transition of a saga.
type SagaLog struct {
	// SagaID is the order id of the checkout.
	SagaID string

	Status Status

	// CurrentStep names the step that just ran, failed or was compensated.
	CurrentStep string

	// Payload is the JSON checkout request. Only the STARTED row carries it.
	Payload string

	// ErrorMessages is a JSON array of the errors collected so far.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
