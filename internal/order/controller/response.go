package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"designden/internal/domain"
	"designden/internal/dto"
	apperrors "designden/internal/errors"
	"designden/internal/order/tracking"
)

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, req request, err error) {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, req, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeErrorResponse(w, req, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details)
		return
	}

	if pe, ok := apperrors.IsPreconditionError(err); ok {
		status := http.StatusConflict
		if pe.Reason == apperrors.ReasonWrongRole {
			status = http.StatusForbidden
		}
		c.writeErrorResponse(w, req, status, string(pe.Reason), pe.Message, nil)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeErrorResponse(w, req, http.StatusConflict, string(apperrors.ReasonStaleState), err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsOTPMismatchError(err); ok {
		c.writeErrorResponse(w, req, http.StatusUnprocessableEntity, "OTP_MISMATCH", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		c.writeErrorResponse(w, req, http.StatusConflict, "DEADLOCK", err.Error(), nil)
		return
	}

	req.logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, req, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func (c *OrderController) writeOrder(w http.ResponseWriter, req request, status int, order *domain.Order) {
	c.writeJSON(w, status, dto.OrderResponse{
		TraceID:   req.traceID,
		Order:     toOrderDTO(order),
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, req request, statusCode int, code, message string, details []apperrors.ValidationDetail) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   req.traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		OrderID:   req.orderID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, req request, message string, details ...apperrors.ValidationDetail) {
	c.writeErrorResponse(w, req, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(c.logger, w, status, data)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func toOrderDTO(o *domain.Order) dto.OrderDTO {
	out := dto.OrderDTO{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		OrderType:          string(o.OrderType),
		Status:             string(o.Status),
		Items:              make([]dto.OrderItemDTO, len(o.Items)),
		TotalAmount:        o.TotalAmount,
		PaymentStatus:      string(o.PaymentStatus),
		ManagerID:          o.ManagerID,
		DesignerID:         o.DesignerID,
		DeliveryPersonID:   o.DeliveryPersonID,
		ProgressPercentage: o.ProgressPercentage,
		Timeline:           toTimelineDTO(o.Timeline),
		ShippingAddress:    toAddressDTO(o.ShippingAddress),
		Milestones:         dto.MilestonesDTO(o.Milestones),
		Version:            o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	for i, item := range o.Items {
		out.Items[i] = dto.OrderItemDTO{
			ProductID: item.ProductID,
			DesignID:  item.DesignID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Size:      item.Size,
			Color:     item.Color,
		}
	}

	if o.DeliveryOTP != nil {
		out.DeliveryOTP = &dto.DeliveryOTPDTO{
			Code:        o.DeliveryOTP.Code,
			GeneratedAt: o.DeliveryOTP.GeneratedAt,
			Verified:    o.DeliveryOTP.Verified,
		}
	}
	if o.ProofOfDelivery != nil {
		pod := dto.ProofOfDeliveryDTO(*o.ProofOfDelivery)
		out.ProofOfDelivery = &pod
	}

	return out
}

func toTrackingResponse(traceID string, v *tracking.View) dto.TrackingResponse {
	steps := make([]dto.TrackingStepDTO, len(v.Steps))
	for i, s := range v.Steps {
		steps[i] = dto.TrackingStepDTO{
			Status:    string(s.Status),
			Index:     s.Index,
			Completed: s.Completed,
			Current:   s.Current,
			At:        s.At,
		}
	}

	return dto.TrackingResponse{
		TraceID:            traceID,
		OrderID:            v.OrderID,
		OrderType:          string(v.OrderType),
		CurrentStatus:      string(v.CurrentStatus),
		CurrentStep:        v.CurrentIndex,
		Steps:              steps,
		ProgressPercentage: v.ProgressPercentage,
		OTP:                v.OTP,
		DesignerID:         v.DesignerID,
		DeliveryPersonID:   v.DeliveryPersonID,
		Timeline:           toTimelineDTO(v.Timeline),
		ShippingAddress:    toAddressDTO(v.ShippingAddress),
		Timestamp:          time.Now().UTC(),
	}
}

func toTimelineDTO(events []domain.TimelineEvent) []dto.TimelineEventDTO {
	out := make([]dto.TimelineEventDTO, len(events))
	for i, e := range events {
		out[i] = dto.TimelineEventDTO{
			Status:   string(e.Status),
			At:       e.At,
			Note:     e.Note,
			Location: e.Location,
			ActorID:  e.ActorID,
		}
	}
	return out
}

func toAddressDTO(a domain.Address) dto.AddressDTO {
	return dto.AddressDTO(a)
}

func toDomainAddress(a dto.AddressDTO) domain.Address {
	return domain.Address(a)
}
