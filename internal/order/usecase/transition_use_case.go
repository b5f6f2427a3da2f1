package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"designden/internal/domain"
	dtoerrors "designden/internal/errors"
	"designden/internal/infrastructure/mysql"
	"designden/internal/order/service"
)

type TransitionService interface {
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

const retryBackoff = 100 * time.Millisecond

// Input limits follow the widths of the columns the values are stored in.
const (
	maxIDLength           = 64
	maxNoteLength         = 500
	maxLocationLength     = 255
	maxReceivedByLength   = 200
	maxRelationshipLength = 100
)

// TransitionUseCase rejects malformed input before any state is read and
// retries a transition that lost a MySQL deadlock. Compare-and-swap conflicts
// are returned to the caller unchanged.
type TransitionUseCase struct {
	svc              TransitionService
	logger           *zap.Logger
	txTimeout        time.Duration
	maxRetryAttempts int
}

func NewTransitionUseCase(
	svc TransitionService,
	logger *zap.Logger,
	txTimeout time.Duration,
	maxRetryAttempts int,
) *TransitionUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &TransitionUseCase{
		svc:              svc,
		logger:           logger,
		txTimeout:        txTimeout,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *TransitionUseCase) AssignToManager(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := validate(requireText("orderId", orderID)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.AssignToManager(ctx, actor, orderID)
	})
}

func (uc *TransitionUseCase) AssignDesigner(ctx context.Context, actor domain.Actor, orderID, designerID string) (*domain.Order, error) {
	designerID = strings.TrimSpace(designerID)
	if err := validate(
		requireText("orderId", orderID),
		requireText("designerId", designerID),
		maxLength("designerId", designerID, maxIDLength),
	); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.AssignDesigner(ctx, actor, orderID, designerID)
	})
}

func (uc *TransitionUseCase) AssignDelivery(ctx context.Context, actor domain.Actor, orderID, deliveryPersonID string) (*domain.Order, error) {
	deliveryPersonID = strings.TrimSpace(deliveryPersonID)
	if err := validate(
		requireText("orderId", orderID),
		requireText("deliveryPersonId", deliveryPersonID),
		maxLength("deliveryPersonId", deliveryPersonID, maxIDLength),
	); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.AssignDelivery(ctx, actor, orderID, deliveryPersonID)
	})
}

func (uc *TransitionUseCase) Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := validate(requireText("orderId", orderID)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.Accept(ctx, actor, orderID)
	})
}

func (uc *TransitionUseCase) StartProduction(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := validate(requireText("orderId", orderID)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.StartProduction(ctx, actor, orderID)
	})
}

func (uc *TransitionUseCase) UpdateProgress(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error) {
	var progress *dtoerrors.ValidationDetail
	if pct < 0 || pct > 100 {
		progress = &dtoerrors.ValidationDetail{
			Field:   "progressPercentage",
			Message: "progressPercentage must be between 0 and 100",
		}
	}
	note = strings.TrimSpace(note)
	if err := validate(requireText("orderId", orderID), progress, maxLength("note", note, maxNoteLength)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.UpdateProgress(ctx, actor, orderID, pct, note)
	})
}

func (uc *TransitionUseCase) Complete(ctx context.Context, actor domain.Actor, orderID, notes string) (*domain.Order, error) {
	notes = strings.TrimSpace(notes)
	if err := validate(requireText("orderId", orderID), maxLength("notes", notes, maxNoteLength)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.Complete(ctx, actor, orderID, notes)
	})
}

func (uc *TransitionUseCase) Pickup(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := validate(requireText("orderId", orderID)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.Pickup(ctx, actor, orderID)
	})
}

func (uc *TransitionUseCase) MarkInTransit(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	location = strings.TrimSpace(location)
	if err := validate(requireText("orderId", orderID), maxLength("location", location, maxLocationLength)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.MarkInTransit(ctx, actor, orderID, location)
	})
}

func (uc *TransitionUseCase) MarkOutForDelivery(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	location = strings.TrimSpace(location)
	if err := validate(requireText("orderId", orderID), maxLength("location", location, maxLocationLength)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.MarkOutForDelivery(ctx, actor, orderID, location)
	})
}

func (uc *TransitionUseCase) Deliver(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error) {
	conf.OTP = strings.TrimSpace(conf.OTP)
	conf.ReceivedBy = strings.TrimSpace(conf.ReceivedBy)
	conf.Relationship = strings.TrimSpace(conf.Relationship)

	if err := validate(
		requireText("orderId", orderID),
		requireText("otp", conf.OTP),
		requireText("receivedBy", conf.ReceivedBy),
		maxLength("receivedBy", conf.ReceivedBy, maxReceivedByLength),
		maxLength("relationship", conf.Relationship, maxRelationshipLength),
		maxLength("notes", conf.Notes, maxNoteLength),
	); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.Deliver(ctx, actor, orderID, conf)
	})
}

func (uc *TransitionUseCase) Cancel(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if err := validate(requireText("orderId", orderID), maxLength("reason", reason, maxNoteLength)); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func(ctx context.Context) (*domain.Order, error) {
		return uc.svc.Cancel(ctx, actor, orderID, reason)
	})
}

func (uc *TransitionUseCase) withRetry(ctx context.Context, orderID string, run func(ctx context.Context) (*domain.Order, error)) (*domain.Order, error) {
	if uc.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.txTimeout)
		defer cancel()
	}

	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		order, err := run(ctx)
		if err == nil {
			return order, nil
		}

		if !mysql.IsDeadlock(err) {
			return nil, err
		}
		if attempt == uc.maxRetryAttempts {
			break
		}

		uc.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.String("orderId", orderID),
		)
		if err := sleep(ctx, backoff(attempt)); err != nil {
			return nil, err
		}
	}

	return nil, dtoerrors.NewDeadlockError("max retries exceeded")
}

// backoff grows linearly with ±20% jitter.
func backoff(attempt int) time.Duration {
	base := retryBackoff * time.Duration(attempt)
	return time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requireText(field, value string) *dtoerrors.ValidationDetail {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &dtoerrors.ValidationDetail{
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// maxLength counts characters, as MySQL VARCHAR widths do.
func maxLength(field, value string, limit int) *dtoerrors.ValidationDetail {
	if utf8.RuneCountInString(value) <= limit {
		return nil
	}
	return &dtoerrors.ValidationDetail{
		Field:   field,
		Message: fmt.Sprintf("%s must be at most %d characters", field, limit),
	}
}

func validate(checks ...*dtoerrors.ValidationDetail) error {
	var details []dtoerrors.ValidationDetail
	for _, d := range checks {
		if d != nil {
			details = append(details, *d)
		}
	}
	if len(details) == 0 {
		return nil
	}
	return dtoerrors.NewValidationError("validation failed", details...)
}
