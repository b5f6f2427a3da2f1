package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"designden/internal/domain"
	dtoerrors "designden/internal/errors"
	"designden/internal/order/repository"
	"designden/internal/order/tracking"
)

type OrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, error)
	CountByStatus(ctx context.Context, filter repository.ListFilter) (map[domain.Status]int, error)
}

type ListQuery struct {
	Statuses []string
	Limit    int
	Offset   int
}

// QueryUseCase serves reads. Every result is scoped to what the caller's role
// may see and carries the delivery code only where the caller may read it.
type QueryUseCase struct {
	repo   OrderReader
	logger *zap.Logger
}

func NewQueryUseCase(repo OrderReader, logger *zap.Logger) *QueryUseCase {
	return &QueryUseCase{
		repo:   repo,
		logger: logger,
	}
}

func (uc *QueryUseCase) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return redact(order, actor), nil
}

func (uc *QueryUseCase) Track(ctx context.Context, actor domain.Actor, orderID string) (*tracking.View, error) {
	order, err := uc.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	view := tracking.Project(order, actor)
	return &view, nil
}

func (uc *QueryUseCase) List(ctx context.Context, actor domain.Actor, q ListQuery) ([]*domain.Order, error) {
	statuses, err := normalizeStatuses(q.Statuses)
	if err != nil {
		return nil, err
	}

	filter := scopeFilter(actor)
	filter.Statuses = statuses
	filter.Limit = q.Limit
	filter.Offset = q.Offset

	orders, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Order, len(orders))
	for i, o := range orders {
		result[i] = redact(o, actor)
	}
	return result, nil
}

func (uc *QueryUseCase) Stats(ctx context.Context, actor domain.Actor) (map[domain.Status]int, error) {
	return uc.repo.CountByStatus(ctx, scopeFilter(actor))
}

func (uc *QueryUseCase) load(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := validate(requireText("orderId", orderID)); err != nil {
		return nil, err
	}

	order, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canView(order, actor) {
		uc.logger.Debug("order read denied",
			zap.String("orderId", orderID),
			zap.String("actorId", actor.ID),
			zap.String("role", string(actor.Role)),
		)
		return nil, dtoerrors.NewWrongRoleError(fmt.Sprintf("order %s is not visible to %s %s", orderID, actor.Role, actor.ID))
	}
	return order, nil
}

func canView(o *domain.Order, actor domain.Actor) bool {
	switch actor.Role {
	case domain.RoleManager:
		return true
	case domain.RoleCustomer:
		return o.CustomerID == actor.ID
	case domain.RoleDesigner:
		return o.DesignerID != nil && *o.DesignerID == actor.ID
	case domain.RoleDelivery:
		return o.DeliveryPersonID != nil && *o.DeliveryPersonID == actor.ID
	}
	return false
}

func scopeFilter(actor domain.Actor) repository.ListFilter {
	switch actor.Role {
	case domain.RoleCustomer:
		return repository.ListFilter{CustomerID: actor.ID}
	case domain.RoleDesigner:
		return repository.ListFilter{DesignerID: actor.ID}
	case domain.RoleDelivery:
		return repository.ListFilter{DeliveryPersonID: actor.ID}
	}
	return repository.ListFilter{}
}

// normalizeStatuses maps legacy tokens onto their canonical status and keeps
// the raw token too, so rows still stored with it match.
func normalizeStatuses(raw []string) ([]domain.Status, error) {
	var (
		out     []domain.Status
		details []dtoerrors.ValidationDetail
	)
	for _, r := range raw {
		s := domain.Status(strings.TrimSpace(r))
		if s == "" {
			continue
		}
		if s.IsCanonical() {
			out = append(out, s)
			continue
		}
		if resolved := domain.ResolveAlias(s); resolved != s && resolved.IsCanonical() {
			out = append(out, resolved, s)
			continue
		}
		details = append(details, dtoerrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", r),
		})
	}
	if len(details) > 0 {
		return nil, dtoerrors.NewValidationError("validation failed", details...)
	}
	return out, nil
}

// redact returns a copy whose delivery code is blank unless the caller may
// read it.
func redact(o *domain.Order, actor domain.Actor) *domain.Order {
	c := o.Clone()
	if c.DeliveryOTP != nil && tracking.VisibleOTP(o, actor) == "" {
		c.DeliveryOTP.Code = ""
	}
	return c
}
