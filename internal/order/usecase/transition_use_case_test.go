package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"designden/internal/domain"
	dtoerrors "designden/internal/errors"
	"designden/internal/order/service"
)

func createDeadlockError() error {
	return &mysql.MySQLError{Number: 1213}
}

func newTestTransitionUseCase(svc TransitionService) *TransitionUseCase {
	return NewTransitionUseCase(svc, zap.NewNop(), 5*time.Second, 3)
}

type mockTransitionService struct {
	AssignToManagerFunc    func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	AssignDesignerFunc     func(ctx context.Context, actor domain.Actor, orderID, designerID string) (*domain.Order, error)
	AssignDeliveryFunc     func(ctx context.Context, actor domain.Actor, orderID, deliveryPersonID string) (*domain.Order, error)
	AcceptFunc             func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	StartProductionFunc    func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	UpdateProgressFunc     func(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error)
	CompleteFunc           func(ctx context.Context, actor domain.Actor, orderID, notes string) (*domain.Order, error)
	PickupFunc             func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	MarkInTransitFunc      func(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error)
	MarkOutForDeliveryFunc func(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error)
	DeliverFunc            func(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error)
	CancelFunc             func(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error)
}

func (m *mockTransitionService) AssignToManager(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return m.AssignToManagerFunc(ctx, actor, orderID)
}

func (m *mockTransitionService) AssignDesigner(ctx context.Context, actor domain.Actor, orderID, designerID string) (*domain.Order, error) {
	return m.AssignDesignerFunc(ctx, actor, orderID, designerID)
}

func (m *mockTransitionService) AssignDelivery(ctx context.Context, actor domain.Actor, orderID, deliveryPersonID string) (*domain.Order, error) {
	return m.AssignDeliveryFunc(ctx, actor, orderID, deliveryPersonID)
}

func (m *mockTransitionService) Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return m.AcceptFunc(ctx, actor, orderID)
}

func (m *mockTransitionService) StartProduction(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return m.StartProductionFunc(ctx, actor, orderID)
}

func (m *mockTransitionService) UpdateProgress(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error) {
	return m.UpdateProgressFunc(ctx, actor, orderID, pct, note)
}

func (m *mockTransitionService) Complete(ctx context.Context, actor domain.Actor, orderID, notes string) (*domain.Order, error) {
	return m.CompleteFunc(ctx, actor, orderID, notes)
}

func (m *mockTransitionService) Pickup(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return m.PickupFunc(ctx, actor, orderID)
}

func (m *mockTransitionService) MarkInTransit(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	return m.MarkInTransitFunc(ctx, actor, orderID, location)
}

func (m *mockTransitionService) MarkOutForDelivery(ctx context.Context, actor domain.Actor, orderID, location string) (*domain.Order, error) {
	return m.MarkOutForDeliveryFunc(ctx, actor, orderID, location)
}

func (m *mockTransitionService) Deliver(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error) {
	return m.DeliverFunc(ctx, actor, orderID, conf)
}

func (m *mockTransitionService) Cancel(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	return m.CancelFunc(ctx, actor, orderID, reason)
}

var (
	testManager  = domain.Actor{ID: "mgr-1", Role: domain.RoleManager}
	testDesigner = domain.Actor{ID: "des-1", Role: domain.RoleDesigner}
	testCourier  = domain.Actor{ID: "del-1", Role: domain.RoleDelivery}
	testCustomer = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
)

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	ve, ok := dtoerrors.IsValidationError(err)
	require.Truef(t, ok, "expected ValidationError, got %T", err)
	fields := make([]string, len(ve.Details))
	for i, d := range ve.Details {
		fields[i] = d.Field
	}
	assert.Contains(t, fields, field)
}

func TestTransitionUseCase_ValidationHappensBeforeService(t *testing.T) {
	uc := newTestTransitionUseCase(&mockTransitionService{})
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"blank order id", func() error { _, err := uc.Accept(ctx, testDesigner, " "); return err }, "orderId"},
		{"blank designer", func() error { _, err := uc.AssignDesigner(ctx, testManager, "o-1", ""); return err }, "designerId"},
		{"blank courier", func() error { _, err := uc.AssignDelivery(ctx, testManager, "o-1", ""); return err }, "deliveryPersonId"},
		{"progress below range", func() error { _, err := uc.UpdateProgress(ctx, testDesigner, "o-1", -1, ""); return err }, "progressPercentage"},
		{"progress above range", func() error { _, err := uc.UpdateProgress(ctx, testDesigner, "o-1", 101, ""); return err }, "progressPercentage"},
		{"empty otp", func() error {
			_, err := uc.Deliver(ctx, testCourier, "o-1", service.DeliveryConfirmation{OTP: "  ", ReceivedBy: "Ana"})
			return err
		}, "otp"},
		{"missing receiver", func() error {
			_, err := uc.Deliver(ctx, testCourier, "o-1", service.DeliveryConfirmation{OTP: "1234"})
			return err
		}, "receivedBy"},
		{"cancel without id", func() error { _, err := uc.Cancel(ctx, testCustomer, "", "changed my mind"); return err }, "orderId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireValidationField(t, tt.call(), tt.field)
		})
	}
}

func TestTransitionUseCase_TextLengthLimits(t *testing.T) {
	ok := func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
		return &domain.Order{ID: orderID}, nil
	}
	withText := func(ctx context.Context, actor domain.Actor, orderID, text string) (*domain.Order, error) {
		return ok(ctx, actor, orderID)
	}
	svc := &mockTransitionService{
		AssignDesignerFunc:     withText,
		AssignDeliveryFunc:     withText,
		CompleteFunc:           withText,
		MarkInTransitFunc:      withText,
		MarkOutForDeliveryFunc: withText,
		CancelFunc:             withText,
		UpdateProgressFunc: func(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error) {
			return ok(ctx, actor, orderID)
		},
		DeliverFunc: func(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error) {
			return ok(ctx, actor, orderID)
		},
	}
	uc := newTestTransitionUseCase(svc)
	ctx := context.Background()

	tests := []struct {
		name  string
		field string
		limit int
		call  func(text string) error
	}{
		{"designer id", "designerId", 64, func(s string) error { _, err := uc.AssignDesigner(ctx, testManager, "o-1", s); return err }},
		{"courier id", "deliveryPersonId", 64, func(s string) error { _, err := uc.AssignDelivery(ctx, testManager, "o-1", s); return err }},
		{"progress note", "note", 500, func(s string) error { _, err := uc.UpdateProgress(ctx, testDesigner, "o-1", 50, s); return err }},
		{"completion notes", "notes", 500, func(s string) error { _, err := uc.Complete(ctx, testDesigner, "o-1", s); return err }},
		{"transit location", "location", 255, func(s string) error { _, err := uc.MarkInTransit(ctx, testCourier, "o-1", s); return err }},
		{"out for delivery location", "location", 255, func(s string) error { _, err := uc.MarkOutForDelivery(ctx, testCourier, "o-1", s); return err }},
		{"cancel reason", "reason", 500, func(s string) error { _, err := uc.Cancel(ctx, testCustomer, "o-1", s); return err }},
		{"receiver", "receivedBy", 200, func(s string) error {
			_, err := uc.Deliver(ctx, testCourier, "o-1", service.DeliveryConfirmation{OTP: "1234", ReceivedBy: s})
			return err
		}},
		{"relationship", "relationship", 100, func(s string) error {
			_, err := uc.Deliver(ctx, testCourier, "o-1", service.DeliveryConfirmation{OTP: "1234", ReceivedBy: "Ana", Relationship: s})
			return err
		}},
		{"delivery notes", "notes", 500, func(s string) error {
			_, err := uc.Deliver(ctx, testCourier, "o-1", service.DeliveryConfirmation{OTP: "1234", ReceivedBy: "Ana", Notes: s})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.call(strings.Repeat("a", tt.limit)))
			requireValidationField(t, tt.call(strings.Repeat("a", tt.limit+1)), tt.field)
		})
	}

	t.Run("limits count characters not bytes", func(t *testing.T) {
		_, err := uc.MarkInTransit(ctx, testCourier, "o-1", strings.Repeat("ñ", 255))
		assert.NoError(t, err)
	})

	t.Run("surrounding whitespace is not counted", func(t *testing.T) {
		_, err := uc.Cancel(ctx, testCustomer, "o-1", "  "+strings.Repeat("a", 500)+"  ")
		assert.NoError(t, err)
	})
}

func TestTransitionUseCase_PassesTrimmedInput(t *testing.T) {
	var got service.DeliveryConfirmation
	svc := &mockTransitionService{
		DeliverFunc: func(ctx context.Context, actor domain.Actor, orderID string, conf service.DeliveryConfirmation) (*domain.Order, error) {
			got = conf
			return &domain.Order{ID: orderID, Status: domain.StatusDelivered}, nil
		},
	}
	uc := newTestTransitionUseCase(svc)

	order, err := uc.Deliver(context.Background(), testCourier, "o-1", service.DeliveryConfirmation{
		OTP: " 4821 ", ReceivedBy: " Ana ", Relationship: " neighbour ", Notes: "left at door",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, order.Status)
	assert.Equal(t, service.DeliveryConfirmation{OTP: "4821", ReceivedBy: "Ana", Relationship: "neighbour", Notes: "left at door"}, got)
}

func TestTransitionUseCase_RetriesDeadlock(t *testing.T) {
	calls := 0
	svc := &mockTransitionService{
		PickupFunc: func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
			calls++
			if calls < 3 {
				return nil, createDeadlockError()
			}
			return &domain.Order{ID: orderID, Status: domain.StatusPickedUp}, nil
		},
	}
	uc := newTestTransitionUseCase(svc)

	order, err := uc.Pickup(context.Background(), testCourier, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPickedUp, order.Status)
	assert.Equal(t, 3, calls)
}

func TestTransitionUseCase_DeadlockRetriesExhausted(t *testing.T) {
	calls := 0
	svc := &mockTransitionService{
		AssignToManagerFunc: func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
			calls++
			return nil, fmt.Errorf("committing: %w", createDeadlockError())
		},
	}
	uc := newTestTransitionUseCase(svc)

	_, err := uc.AssignToManager(context.Background(), testManager, "o-1")
	require.Error(t, err)
	_, ok := dtoerrors.IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestTransitionUseCase_ConflictNotRetried(t *testing.T) {
	calls := 0
	stale := dtoerrors.NewStaleStateError("order was modified concurrently", dtoerrors.NewConflictError("lost"))
	svc := &mockTransitionService{
		UpdateProgressFunc: func(ctx context.Context, actor domain.Actor, orderID string, pct int, note string) (*domain.Order, error) {
			calls++
			return nil, stale
		},
	}
	uc := newTestTransitionUseCase(svc)

	_, err := uc.UpdateProgress(context.Background(), testDesigner, "o-1", 40, "")
	assert.Same(t, stale, err)
	assert.Equal(t, 1, calls)
}

func TestTransitionUseCase_OtherErrorsReturnedImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	svc := &mockTransitionService{
		CancelFunc: func(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
			calls++
			return nil, boom
		},
	}
	uc := newTestTransitionUseCase(svc)

	_, err := uc.Cancel(context.Background(), testCustomer, "o-1", "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestTransitionUseCase_AppliesTimeout(t *testing.T) {
	svc := &mockTransitionService{
		AcceptFunc: func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			return &domain.Order{ID: orderID}, nil
		},
	}
	uc := newTestTransitionUseCase(svc)

	_, err := uc.Accept(context.Background(), testDesigner, "o-1")
	require.NoError(t, err)
}

func TestBackoff(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		base := retryBackoff * time.Duration(attempt)
		d := backoff(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.8))
		assert.LessOrEqual(t, d, time.Duration(float64(base)*1.2))
	}
}
