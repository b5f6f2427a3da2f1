package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"designden/internal/catalog"
	"designden/internal/domain"
	"designden/internal/dto"
	apperrors "designden/internal/errors"
	"designden/internal/order/service"
	"designden/internal/order/tracking"
	"designden/internal/order/usecase"
)

type TransitionUseCase interface {
	AssignToManager(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	AssignDesigner(ctx context.Context, actor domain.Actor, orderID, designerID string) (*domain.Order, error)
	AssignDelivery(ctx context.Context, actor domain.Actor, orderID, deliveryPersonID string) (*domain.Order, error)
	Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	StartProduction(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	UpdateProgress(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error)
	Complete(ctx context.Context, actor domain.Actor, orderID, notes string) (*domain.Order, error)
	Pickup(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	MarkInTransit(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error)
	MarkOutForDelivery(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error)
	Deliver(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error)
}

type QueryUseCase interface {
	Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Track(ctx context.Context, actor domain.Actor, orderID string) (*tracking.View, error)
	List(ctx context.Context, actor domain.Actor, q usecase.ListQuery) ([]*domain.Order, error)
	Stats(ctx context.Context, actor domain.Actor) (map[domain.Status]int, error)
}

type CheckoutUseCase interface {
	Checkout(ctx context.Context, actor domain.Actor, in usecase.CheckoutInput) (*domain.Order, error)
}

type OrderController struct {
	transitions TransitionUseCase
	queries     QueryUseCase
	checkout    CheckoutUseCase
	logger      *zap.Logger
}

func NewOrderController(transitions TransitionUseCase, queries QueryUseCase, checkout CheckoutUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		transitions: transitions,
		queries:     queries,
		checkout:    checkout,
		logger:      logger,
	}
}

// Routes mounts every order endpoint. Callers are expected to wrap r with
// Identity.
func (c *OrderController) Routes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", c.Checkout)
		r.Get("/", c.List)
		r.Get("/stats", c.Stats)
		r.Get("/{orderId}", c.Get)
		r.Get("/{orderId}/tracking", c.Track)
		r.Post("/{orderId}/cancel", c.Cancel)
	})
	r.Route("/manager/orders/{orderId}", func(r chi.Router) {
		r.Post("/accept", c.AssignToManager)
		r.Post("/assign-designer", c.AssignDesigner)
		r.Post("/assign-delivery", c.AssignDelivery)
	})
	r.Route("/designer/orders/{orderId}", func(r chi.Router) {
		r.Post("/accept", c.AcceptDesign)
		r.Post("/start-production", c.StartProduction)
		r.Put("/progress", c.UpdateProgress)
		r.Post("/complete", c.CompleteProduction)
	})
	r.Route("/delivery/orders/{orderId}", func(r chi.Router) {
		r.Post("/pickup", c.Pickup)
		r.Post("/in-transit", c.MarkInTransit)
		r.Post("/out-for-delivery", c.MarkOutForDelivery)
		r.Post("/deliver", c.Deliver)
	})
}

// request carries what every handler needs: a trace id, a scoped logger and
// the caller.
type request struct {
	traceID string
	orderID string
	actor   domain.Actor
	logger  *zap.Logger
}

func (c *OrderController) begin(w http.ResponseWriter, r *http.Request) (request, bool) {
	traceID := uuid.New().String()
	req := request{
		traceID: traceID,
		orderID: chi.URLParam(r, "orderId"),
		logger:  c.logger.With(zap.String("traceId", traceID)),
	}

	actor, ok := ActorFrom(r.Context())
	if !ok {
		c.writeErrorResponse(w, req, http.StatusUnauthorized, "UNAUTHORIZED", "missing or unknown caller identity", nil)
		return req, false
	}
	req.actor = actor
	req.logger = req.logger.With(zap.String("actorId", actor.ID), zap.String("role", string(actor.Role)))
	return req, true
}

func (c *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	var body dto.CheckoutRequest
	if !c.decode(w, r, req, &body, false) {
		return
	}

	lines := make([]catalog.LineRequest, len(body.Items))
	for i, item := range body.Items {
		lines[i] = catalog.LineRequest{
			ProductID: strings.TrimSpace(item.ProductID),
			DesignID:  strings.TrimSpace(item.DesignID),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		}
	}

	order, err := c.checkout.Checkout(r.Context(), req.actor, usecase.CheckoutInput{
		Lines:           lines,
		ShippingAddress: toDomainAddress(body.ShippingAddress),
		PaymentStatus:   domain.PaymentStatus(strings.TrimSpace(body.PaymentStatus)),
	})
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	c.writeOrder(w, req, http.StatusCreated, order)
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var details []apperrors.ValidationDetail
	limit := parseIntParam(query.Get("limit"), "limit", &details)
	offset := parseIntParam(query.Get("offset"), "offset", &details)
	if len(details) > 0 {
		c.writeValidationError(w, req, "validation failed", details...)
		return
	}

	var statuses []string
	for _, raw := range query["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	orders, err := c.queries.List(r.Context(), req.actor, usecase.ListQuery{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	items := make([]dto.OrderDTO, len(orders))
	for i, o := range orders {
		items[i] = toOrderDTO(o)
	}

	c.writeJSON(w, http.StatusOK, dto.OrderListResponse{
		TraceID:   req.traceID,
		Orders:    items,
		Count:     len(items),
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) Stats(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	counts, err := c.queries.Stats(r.Context(), req.actor)
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	resp := dto.OrderStatsResponse{
		TraceID:   req.traceID,
		Counts:    make(map[string]int, len(counts)),
		Timestamp: time.Now().UTC(),
	}
	for status, n := range counts {
		resp.Counts[string(status)] = n
		resp.Total += n
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	order, err := c.queries.Get(r.Context(), req.actor, req.orderID)
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	c.writeOrder(w, req, http.StatusOK, order)
}

func (c *OrderController) Track(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	view, err := c.queries.Track(r.Context(), req.actor, req.orderID)
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	c.writeJSON(w, http.StatusOK, toTrackingResponse(req.traceID, view))
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	var body dto.CancelRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.Cancel(ctx, req.actor, req.orderID, body.Reason)
	})
}

func (c *OrderController) AssignToManager(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, nil, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.AssignToManager(ctx, req.actor, req.orderID)
	})
}

func (c *OrderController) AssignDesigner(w http.ResponseWriter, r *http.Request) {
	var body dto.AssignDesignerRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.AssignDesigner(ctx, req.actor, req.orderID, body.DesignerID)
	})
}

func (c *OrderController) AssignDelivery(w http.ResponseWriter, r *http.Request) {
	var body dto.AssignDeliveryRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.AssignDelivery(ctx, req.actor, req.orderID, body.DeliveryPersonID)
	})
}

func (c *OrderController) AcceptDesign(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, nil, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.Accept(ctx, req.actor, req.orderID)
	})
}

func (c *OrderController) StartProduction(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, nil, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.StartProduction(ctx, req.actor, req.orderID)
	})
}

func (c *OrderController) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var body dto.UpdateProgressRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		if body.ProgressPercentage == nil {
			return nil, apperrors.NewValidationError("progressPercentage is required", apperrors.ValidationDetail{
				Field:   "progressPercentage",
				Message: "progressPercentage is required",
			})
		}
		return c.transitions.UpdateProgress(ctx, req.actor, req.orderID, *body.ProgressPercentage, body.Note)
	})
}

func (c *OrderController) CompleteProduction(w http.ResponseWriter, r *http.Request) {
	var body dto.CompleteProductionRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.Complete(ctx, req.actor, req.orderID, body.Notes)
	})
}

func (c *OrderController) Pickup(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, nil, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.Pickup(ctx, req.actor, req.orderID)
	})
}

func (c *OrderController) MarkInTransit(w http.ResponseWriter, r *http.Request) {
	var body dto.LocationRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.MarkInTransit(ctx, req.actor, req.orderID, body.Location)
	})
}

func (c *OrderController) MarkOutForDelivery(w http.ResponseWriter, r *http.Request) {
	var body dto.LocationRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.MarkOutForDelivery(ctx, req.actor, req.orderID, body.Location)
	})
}

func (c *OrderController) Deliver(w http.ResponseWriter, r *http.Request) {
	var body dto.DeliverRequest
	c.transition(w, r, &body, func(ctx context.Context, req request) (*domain.Order, error) {
		return c.transitions.Deliver(ctx, req.actor, req.orderID, service.DeliveryConfirmation{
			OTP:          body.OTP,
			ReceivedBy:   body.ReceivedBy,
			Relationship: body.Relationship,
			Notes:        body.Notes,
		})
	})
}

// transition decodes an optional body into dst and runs call. A nil dst means
// the endpoint takes no body.
func (c *OrderController) transition(w http.ResponseWriter, r *http.Request, dst any, call func(context.Context, request) (*domain.Order, error)) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}

	if dst != nil && !c.decode(w, r, req, dst, true) {
		return
	}

	order, err := call(r.Context(), req)
	if err != nil {
		c.handleUseCaseError(w, req, err)
		return
	}

	c.writeOrder(w, req, http.StatusOK, order)
}

// decode reads the JSON body into dst. An empty body is accepted only when
// optional is set.
func (c *OrderController) decode(w http.ResponseWriter, r *http.Request, req request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}

	req.logger.Warn("invalid JSON body", zap.Error(err))
	c.writeValidationError(w, req, "invalid JSON body", apperrors.ValidationDetail{
		Field:   "body",
		Message: "request body must be valid JSON",
	})
	return false
}

func parseIntParam(raw, field string, details *[]apperrors.ValidationDetail) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		*details = append(*details, apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be a non-negative integer",
		})
		return 0
	}
	return n
}
