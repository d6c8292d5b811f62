package engagement

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	// FailureSoftMetric is a view-count failure. It is never shown to the user.
	FailureSoftMetric FailureKind = "SOFT_METRIC"
	// FailureMutationFailed means an optimistic mutation was rolled back.
	FailureMutationFailed FailureKind = "MUTATION_FAILED"
	FailureAuthRequired   FailureKind = "AUTH_REQUIRED"
	// FailureFetchFailed is a list/reply fetch failure with a retry affordance.
	FailureFetchFailed FailureKind = "FETCH_FAILED"
	// FailureInFlight rejects a toggle while another one for the same target is pending.
	FailureInFlight FailureKind = "TOGGLE_IN_FLIGHT"

	FailureInvalid   FailureKind = "INVALID"
	FailureUnmounted FailureKind = "UNMOUNTED"
)

// Failure is the only error shape that leaves a controller. Message is safe
// to show; Err carries the raw cause for logs.
type Failure struct {
	Kind    FailureKind
	Op      string
	Target  Target
	Message string
	Err     error
}

func (failure *Failure) Error() string {
	if failure.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", failure.Op, failure.Kind, failure.Message, failure.Err)
	}

	return fmt.Sprintf("%s %s: %s", failure.Op, failure.Kind, failure.Message)
}

func (failure *Failure) Unwrap() error {
	return failure.Err
}

func (failure *Failure) Retryable() bool {
	return failure.Kind == FailureFetchFailed
}

func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}

	return nil, false
}

func IsKind(err error, kind FailureKind) bool {
	failure, ok := AsFailure(err)
	return ok && failure.Kind == kind
}

var ErrUnmounted = errors.New("controller is no longer mounted")

func invalid(op string, target Target, message string, err error) *Failure {
	return &Failure{Kind: FailureInvalid, Op: op, Target: target, Message: message, Err: err}
}

func authRequired(op string, target Target) *Failure {
	return &Failure{
		Kind:    FailureAuthRequired,
		Op:      op,
		Target:  target,
		Message: "Please sign in to continue",
	}
}

func inFlight(op string, target Target) *Failure {
	return &Failure{
		Kind:    FailureInFlight,
		Op:      op,
		Target:  target,
		Message: "A previous action is still being processed",
	}
}

func unmounted(op string, target Target) *Failure {
	return &Failure{
		Kind:    FailureUnmounted,
		Op:      op,
		Target:  target,
		Message: "This item is no longer displayed",
		Err:     ErrUnmounted,
	}
}

// classify converts a backend error into a Failure of the given kind. A
// backend that already returned an auth or validation Failure keeps its kind.
func classify(op string, target Target, kind FailureKind, message string, err error) *Failure {
	if failure, ok := AsFailure(err); ok {
		switch failure.Kind {
		case FailureAuthRequired, FailureInvalid:
			return &Failure{Kind: failure.Kind, Op: op, Target: target, Message: failure.Message, Err: err}
		}
	}

	return &Failure{Kind: kind, Op: op, Target: target, Message: message, Err: err}
}

// Rejected is what a Backend returns when a request cannot succeed as sent,
// e.g. a missing target or someone else's comment. message is shown to the user.
func Rejected(message string) *Failure {
	return &Failure{Kind: FailureInvalid, Op: "backend", Message: message}
}

// Unauthenticated is what a Backend returns when the viewer must sign in.
func Unauthenticated() *Failure {
	return authRequired("backend", Target{})
}
