package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"designden/internal/dto"
	apperrors "designden/internal/errors"
)

const maxSearchIDs = 100

type Searcher interface {
	SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error)
}

type Controller struct {
	useCase Searcher
	logger  *zap.Logger
}

func NewController(useCase Searcher, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

// HandleSearchProducts resolves product ids to orderable catalog entries so a
// client can show prices before checkout.
func (c *Controller) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req SearchProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	for i, id := range req.ProductIDs {
		req.ProductIDs[i] = strings.TrimSpace(id)
	}

	if err := validateSearchRequest(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.SearchProducts(r.Context(), req)
	if err != nil {
		logger.Error("search products failed", zap.Error(err), zap.Int("requested", len(req.ProductIDs)))
		c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}
	resp.TraceID = traceID

	c.writeJSON(w, http.StatusOK, resp)
}

func validateSearchRequest(req SearchProductsRequest) error {
	switch {
	case len(req.ProductIDs) == 0:
		return apperrors.NewValidationError("productIds is required", apperrors.ValidationDetail{
			Field:   "productIds",
			Message: "productIds must not be empty",
		})
	case len(req.ProductIDs) > maxSearchIDs:
		return apperrors.NewValidationError("too many productIds", apperrors.ValidationDetail{
			Field:   "productIds",
			Message: "productIds exceeds maximum of " + strconv.Itoa(maxSearchIDs),
		})
	}

	var details []apperrors.ValidationDetail
	for i, id := range req.ProductIDs {
		if id == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "productIds[" + strconv.Itoa(i) + "]",
				Message: "productId must be a non-empty string",
			})
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

func (c *Controller) writeError(w http.ResponseWriter, traceID string, status int, code, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
