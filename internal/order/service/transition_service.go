package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"designden/internal/domain"
	apperrors "designden/internal/errors"
	"designden/internal/infrastructure/metrics"
)

var tracer = otel.Tracer("order/service")

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Commit(ctx context.Context, order *domain.Order, expected domain.Status) error
}

type Notifier interface {
	Notify(ctx context.Context, event domain.StatusChangedEvent)
}

// TransitionService is the only writer of order status, assignments,
// progress and timeline. Each call loads the order, applies one transition to
// a copy and commits it with a compare-and-swap on the prior status.
type TransitionService struct {
	repo     OrderRepository
	otp      OTPGenerator
	notifier Notifier
	metrics  *metrics.OrderMetrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewTransitionService(
	repo OrderRepository,
	otp OTPGenerator,
	notifier Notifier,
	orderMetrics *metrics.OrderMetrics,
	logger *zap.Logger,
) *TransitionService {
	return &TransitionService{
		repo:     repo,
		otp:      otp,
		notifier: notifier,
		metrics:  orderMetrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (s *TransitionService) WithClock(now func() time.Time) *TransitionService {
	s.now = now
	return s
}

func (s *TransitionService) AssignToManager(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "assign_to_manager", actor, orderID, assignToManager(actor))
}

func (s *TransitionService) AssignDesigner(ctx context.Context, actor domain.Actor, orderID, designerID string) (*domain.Order, error) {
	return s.transition(ctx, "assign_designer", actor, orderID, assignDesigner(actor, designerID))
}

func (s *TransitionService) AssignDelivery(ctx context.Context, actor domain.Actor, orderID, deliveryPersonID string) (*domain.Order, error) {
	return s.transition(ctx, "assign_delivery", actor, orderID, assignDelivery(actor, deliveryPersonID, s.otp))
}

func (s *TransitionService) Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "accept", actor, orderID, acceptDesign(actor))
}

func (s *TransitionService) StartProduction(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "start_production", actor, orderID, startProduction(actor))
}

func (s *TransitionService) UpdateProgress(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error) {
	return s.transition(ctx, "update_progress", actor, orderID, updateProgress(actor, pct, note))
}

func (s *TransitionService) Complete(ctx context.Context, actor domain.Actor, orderID, notes string) (*domain.Order, error) {
	return s.transition(ctx, "complete", actor, orderID, completeProduction(actor, notes))
}

func (s *TransitionService) Pickup(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "pickup", actor, orderID, pickup(actor, s.otp))
}

func (s *TransitionService) MarkInTransit(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	return s.transition(ctx, "mark_in_transit", actor, orderID, markInTransit(actor, location))
}

func (s *TransitionService) MarkOutForDelivery(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	return s.transition(ctx, "mark_out_for_delivery", actor, orderID, markOutForDelivery(actor, location))
}

func (s *TransitionService) Deliver(ctx context.Context, actor domain.Actor, orderID string, conf DeliveryConfirmation) (*domain.Order, error) {
	return s.transition(ctx, "deliver", actor, orderID, deliver(actor, conf))
}

func (s *TransitionService) Cancel(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	return s.transition(ctx, "cancel", actor, orderID, cancelOrder(actor, reason))
}

// BackfillOTP attaches a code to an order already in a delivery status. It
// does not change status, so no notification is sent.
func (s *TransitionService) BackfillOTP(ctx context.Context, orderID string) (*domain.Order, error) {
	order, _, err := s.apply(ctx, "backfill_otp", orderID, backfillOTP(s.otp))
	return order, err
}

func (s *TransitionService) transition(ctx context.Context, operation string, actor domain.Actor, orderID string, mutate mutation) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	)

	logger := s.logger.With(
		zap.String("orderId", orderID),
		zap.String("operation", operation),
		zap.String("actorId", actor.ID),
		zap.String("role", string(actor.Role)),
	)

	order, prior, err := s.apply(ctx, operation, orderID, mutate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("transition rejected", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.status", string(order.Status)))
	logger.Info("transition committed",
		zap.String("from", string(prior)),
		zap.String("status", string(order.Status)),
		zap.Int("version", order.Version),
	)

	s.notifier.Notify(ctx, domain.StatusChangedEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: order.UpdatedAt,
	})

	return order, nil
}

// apply runs load, mutate and commit. The stored order is only replaced when
// the commit succeeds.
func (s *TransitionService) apply(ctx context.Context, operation, orderID string, mutate mutation) (*domain.Order, domain.Status, error) {
	start := time.Now()

	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		s.metrics.ObserveTransition(operation, resultLabel(err), time.Since(start))
		return nil, "", err
	}

	next := current.Clone()
	now := s.now()
	if err := mutate(next, now); err != nil {
		s.metrics.ObserveTransition(operation, resultLabel(err), time.Since(start))
		return nil, "", err
	}
	next.UpdatedAt = now

	if err := s.repo.Commit(ctx, next, current.Status); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			err = apperrors.NewStaleStateError("order was modified concurrently, reload and retry", err)
		}
		s.metrics.ObserveTransition(operation, resultLabel(err), time.Since(start))
		return nil, "", err
	}

	s.metrics.ObserveTransition(operation, "ok", time.Since(start))
	return next, current.Status, nil
}

func resultLabel(err error) string {
	if pe, ok := apperrors.IsPreconditionError(err); ok {
		return string(pe.Reason)
	}

	var (
		nfe *apperrors.NotFoundError
		ve  *apperrors.ValidationError
		oe  *apperrors.OTPMismatchError
	)
	switch {
	case errors.As(err, &nfe):
		return "NOT_FOUND"
	case errors.As(err, &ve):
		return "VALIDATION_ERROR"
	case errors.As(err, &oe):
		return "OTP_MISMATCH"
	}
	return "error"
}
