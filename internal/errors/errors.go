package errors

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// PreconditionReason tells the caller why a transition was refused.
type PreconditionReason string

const (
	ReasonWrongRole       PreconditionReason = "WRONG_ROLE"
	ReasonWrongState      PreconditionReason = "WRONG_STATE"
	ReasonAlreadyAssigned PreconditionReason = "ALREADY_ASSIGNED"
	ReasonStaleState      PreconditionReason = "STALE_STATE"
)

// PreconditionError is returned when a transition is illegal for the current
// order state or actor. The order is left untouched.
type PreconditionError struct {
	Reason  PreconditionReason
	Message string
	Cause   error
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

func NewPreconditionError(reason PreconditionReason, message string) *PreconditionError {
	return &PreconditionError{
		Reason:  reason,
		Message: message,
	}
}

func NewWrongRoleError(message string) *PreconditionError {
	return NewPreconditionError(ReasonWrongRole, message)
}

func NewWrongStateError(message string) *PreconditionError {
	return NewPreconditionError(ReasonWrongState, message)
}

func NewAlreadyAssignedError(message string) *PreconditionError {
	return NewPreconditionError(ReasonAlreadyAssigned, message)
}

// NewStaleStateError wraps a lost compare-and-swap so callers can treat it
// like any other precondition failure while still matching ConflictError.
func NewStaleStateError(message string, cause error) *PreconditionError {
	return &PreconditionError{
		Reason:  ReasonStaleState,
		Message: message,
		Cause:   cause,
	}
}

func IsPreconditionError(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// HasReason reports whether err is a PreconditionError with the given reason.
func HasReason(err error, reason PreconditionReason) bool {
	pe, ok := IsPreconditionError(err)
	return ok && pe.Reason == reason
}

type OTPMismatchError struct {
	Message string
}

func (e *OTPMismatchError) Error() string {
	return e.Message
}

func NewOTPMismatchError(message string) *OTPMismatchError {
	return &OTPMismatchError{Message: message}
}

func IsOTPMismatchError(err error) (*OTPMismatchError, bool) {
	var oe *OTPMismatchError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
