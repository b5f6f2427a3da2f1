package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"designden/internal/domain"
	"designden/internal/errors"
)

// MemoryOrderRepository keeps whole aggregates behind a mutex. Readers always
// get a copy, so they never observe a half-applied commit.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *MemoryOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return errors.NewConflictError(fmt.Sprintf("order with id %s already exists", order.ID))
	}

	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *MemoryOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}

	return order.Clone(), nil
}

// Commit stores order if the stored copy still has the expected status and the
// same version. On success order.Version is advanced.
func (r *MemoryOrderRepository) Commit(ctx context.Context, order *domain.Order, expected domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[order.ID]
	if !exists {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", order.ID))
	}

	if stored.Status != expected || stored.Version != order.Version {
		return errors.NewConflictError(fmt.Sprintf("order %s changed: status %s version %d", order.ID, stored.Status, stored.Version))
	}

	order.Version++
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *MemoryOrderRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Order
	for _, o := range r.orders {
		if filter.matches(o) {
			matched = append(matched, o.Clone())
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*domain.Order{}, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.limit() {
		matched = matched[:filter.limit()]
	}

	return matched, nil
}

func (r *MemoryOrderRepository) CountByStatus(ctx context.Context, filter ListFilter) (map[domain.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.Status]int)
	for _, o := range r.orders {
		if filter.matches(o) {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func (r *MemoryOrderRepository) FindMissingOTP(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, o := range r.orders {
		if domain.IsDeliveryEligible(o.Status) && (o.DeliveryOTP == nil || o.DeliveryOTP.Code == "") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
