package dto

import (
	"time"

	apperrors "designden/internal/errors"
)

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Message   string                       `json:"message"`
	Code      string                       `json:"code"`
	OrderID   string                       `json:"orderId,omitempty"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}
