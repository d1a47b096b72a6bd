package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes the engine can surface.
// Concrete error values wrap these, so callers branch with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConvergence  = errors.New("convergence failure")
	ErrAnomaly      = errors.New("numerical anomaly")
)

// InputError reports a malformed scenario or solver configuration. It is
// always raised before any integration work begins.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// ConvergenceError reports that the integrator could not meet its error
// tolerance within the step-size floor and retry budget. Deadline expiry
// and step-count exhaustion surface through the same type.
type ConvergenceError struct {
	Time   float64
	Steps  int
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("convergence failure at t=%.6g after %d steps: %s", e.Time, e.Steps, e.Reason)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }

// AnomalyError reports a state that left the physically valid domain. The
// integrator handles anomalies internally by shrinking the step; this type
// only escapes wrapped inside a ConvergenceError reason when retries are
// exhausted.
type AnomalyError struct {
	Time   float64
	Reason string
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("numerical anomaly at t=%.6g: %s", e.Time, e.Reason)
}

func (e *AnomalyError) Unwrap() error { return ErrAnomaly }
