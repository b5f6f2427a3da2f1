package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("order abc not found")

	nfe, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "order abc not found", nfe.Message)
	assert.Equal(t, "order abc not found", err.Error())
}

func TestNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NewNotFoundError("missing"))

	nfe, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "missing", nfe.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	nfe, ok := IsNotFoundError(errors.New("some other error"))
	assert.False(t, ok)
	assert.Nil(t, nfe)
}

func TestValidationError_Creation(t *testing.T) {
	err := NewValidationError("validation failed",
		ValidationDetail{Field: "otp", Message: "otp is required"},
		ValidationDetail{Field: "receivedBy", Message: "receivedBy is required"},
	)

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", ve.Error())
	assert.Len(t, ve.Details, 2)
}

func TestPreconditionError_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		err    *PreconditionError
		reason PreconditionReason
	}{
		{"wrong role", NewWrongRoleError("not the assignee"), ReasonWrongRole},
		{"wrong state", NewWrongStateError("order is delivered"), ReasonWrongState},
		{"already assigned", NewAlreadyAssignedError("designer already set"), ReasonAlreadyAssigned},
		{"stale state", NewStaleStateError("order changed", nil), ReasonStaleState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			pe, ok := IsPreconditionError(err)
			assert.True(t, ok)
			assert.Equal(t, tt.reason, pe.Reason)
			assert.True(t, HasReason(err, tt.reason))
		})
	}
}

func TestPreconditionError_StaleStateMatchesConflict(t *testing.T) {
	conflict := NewConflictError("status changed concurrently")
	err := NewStaleStateError("order was modified by another request", conflict)

	ce, ok := IsConflictError(err)
	assert.True(t, ok)
	assert.Same(t, conflict, ce)
	assert.True(t, HasReason(err, ReasonStaleState))
}

func TestHasReason_OtherError(t *testing.T) {
	assert.False(t, HasReason(errors.New("boom"), ReasonWrongState))
	assert.False(t, HasReason(NewOTPMismatchError("bad code"), ReasonWrongState))
}

func TestOTPMismatchError(t *testing.T) {
	oe, ok := IsOTPMismatchError(NewOTPMismatchError("invalid delivery OTP"))
	assert.True(t, ok)
	assert.Equal(t, "invalid delivery OTP", oe.Message)
}

func TestDeadlockError(t *testing.T) {
	_, ok := IsDeadlockError(NewDeadlockError("max retries exceeded"))
	assert.True(t, ok)
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "underlying error")
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}
