// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanViolation reports a generated plan outside the allowed bounds.
	ErrPlanViolation = errors.New("research plan violates bounds")

	// ErrProviderFailure reports a failed search or generation call.
	ErrProviderFailure = errors.New("provider failure")

	// ErrMalformedOutput reports structured output that does not decode into
	// the expected shape or carries out-of-range values. It also matches
	// ErrProviderFailure.
	ErrMalformedOutput = errors.New("malformed capability output")

	// ErrEmptyTopic is returned when Run is called without a topic.
	ErrEmptyTopic = errors.New("research topic is empty")
)

// PhaseError records which phase and step of a run failed.
type PhaseError struct {
	Phase  string
	StepID string
	Err    error
}

func (e *PhaseError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s %s: %v", e.Phase, e.StepID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// malformedError wraps a decode or validation failure so it matches both
// ErrMalformedOutput and ErrProviderFailure.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return fmt.Sprintf("%v: %v", ErrMalformedOutput, e.err) }

func (e *malformedError) Unwrap() error { return e.err }

func (e *malformedError) Is(target error) bool {
	return target == ErrMalformedOutput || target == ErrProviderFailure
}

func malformed(format string, args ...any) error {
	return &malformedError{err: fmt.Errorf(format, args...)}
}

func providerFailure(err error) error {
	var m *malformedError
	if errors.As(err, &m) || errors.Is(err, ErrProviderFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProviderFailure, err)
}
