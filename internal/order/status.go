package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var allStatuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus accepts any casing and returns the stored lowercase form.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(allStatuses, st) {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Label is the capitalized display form, e.g. "Shipped".
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Policy decides which status changes an admin may make.
type Policy string

const (
	// PolicyStrict follows pending → processing → shipped → delivered, with
	// cancellation allowed from any non-terminal state.
	PolicyStrict Policy = "strict"
	// PolicyFree allows any status to any status.
	PolicyFree Policy = "free"
)

var strictTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// StatusTransitionError represents a refused status change.
type StatusTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *StatusTransitionError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "transition not permitted"
	}
	return "order status transition from " + string(e.From) + " to " + string(e.To) + ": " + reason
}

func (e *StatusTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Check returns nil when from → to is allowed. Same-status is always allowed.
func (p Policy) Check(from, to Status) error {
	if from == to || p == PolicyFree {
		return nil
	}
	if from.IsTerminal() {
		return &StatusTransitionError{From: from, To: to, Reason: from.Label() + " orders cannot change status"}
	}
	if !slices.Contains(strictTransitions[from], to) {
		return &StatusTransitionError{From: from, To: to}
	}
	return nil
}

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict, "":
		return PolicyStrict, nil
	case PolicyFree:
		return PolicyFree, nil
	default:
		return "", fmt.Errorf("unknown status policy %q", s)
	}
}
