package service

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// ReasonCode identifies which constraint rejected a request.
type ReasonCode string

const (
	ReasonNameLength           ReasonCode = "name_length"
	ReasonEmailInvalid         ReasonCode = "email_invalid"
	ReasonEmailRequired        ReasonCode = "email_required"
	ReasonQuantityRange        ReasonCode = "quantity_out_of_range"
	ReasonNegativeQuantity     ReasonCode = "negative_quantity"
	ReasonUnknownTier          ReasonCode = "unknown_tier"
	ReasonEventNotPublished    ReasonCode = "event_not_published"
	ReasonEventInPast          ReasonCode = "event_in_past"
	ReasonInsufficientCapacity ReasonCode = "insufficient_capacity"
	ReasonDuplicateWaitlist    ReasonCode = "duplicate_waitlist"
	ReasonInvalidTransition    ReasonCode = "invalid_transition"
	ReasonPersistence          ReasonCode = "persistence_failure"
)

// Rejection is implemented by every error this package returns to callers.
type Rejection interface {
	error
	Reason() ReasonCode
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Code    ReasonCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Reason() ReasonCode { return e.Code }

func invalid(code ReasonCode, field, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced event, reservation or waitlist entry
// that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Reason() ReasonCode {
	return ReasonCode(e.Resource + "_not_found")
}

// CapacityExceededError carries the remaining count of the tier so the
// caller can suggest a smaller quantity.
type CapacityExceededError struct {
	Tier      model.Tier
	Requested int
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("only %d %s ticket(s) remaining, %d requested", e.Remaining, e.Tier, e.Requested)
}

func (e *CapacityExceededError) Reason() ReasonCode { return ReasonInsufficientCapacity }

// DuplicateWaitlistError reports an attendee already waiting for the event.
type DuplicateWaitlistError struct {
	EventID string
	Email   string
}

func (e *DuplicateWaitlistError) Error() string {
	return fmt.Sprintf("%s is already on the waitlist for event %s", e.Email, e.EventID)
}

func (e *DuplicateWaitlistError) Reason() ReasonCode { return ReasonDuplicateWaitlist }

// TransitionError reports a status change attempted on an entry that has
// already left the waiting state.
type TransitionError struct {
	EntryID int64
	From    model.WaitlistStatus
	To      model.WaitlistStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("waitlist entry %d is %s and cannot become %s", e.EntryID, e.From, e.To)
}

func (e *TransitionError) Reason() ReasonCode { return ReasonInvalidTransition }

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Reason() ReasonCode { return ReasonPersistence }

// persistence leaves rejections untouched and wraps anything else.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var r Rejection
	if errors.As(err, &r) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
