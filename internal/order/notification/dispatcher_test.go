package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"designden/internal/domain"
	"designden/internal/infrastructure/metrics"
)

type mockPublisher struct {
	mu          sync.Mutex
	keys        []string
	PublishFunc func(ctx context.Context, key string, event any) error
}

func (m *mockPublisher) Publish(ctx context.Context, key string, event any) error {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, key, event)
	}
	return nil
}

func (m *mockPublisher) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

func event(id string, status domain.Status) domain.StatusChangedEvent {
	return domain.StatusChangedEvent{OrderID: id, Status: status, Timestamp: time.Now().UTC()}
}

func newTestMetrics() *metrics.OrderMetrics {
	return metrics.NewOrderMetrics(prometheus.NewRegistry())
}

func TestDispatcher_PublishesInOrder(t *testing.T) {
	pub := &mockPublisher{}
	m := newTestMetrics()
	d := NewDispatcher(pub, 8, time.Second, m, zap.NewNop())
	d.Start()

	d.Notify(context.Background(), event("o-1", domain.StatusAssignedToManager))
	d.Notify(context.Background(), event("o-2", domain.StatusCancelled))
	d.Notify(context.Background(), event("o-1", domain.StatusReadyForPickup))

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, []string{"o-1", "o-2", "o-1"}, pub.published())
	assert.Equal(t, float64(3), promtestutil.ToFloat64(m.Notifications.WithLabelValues("published")))
}

func TestDispatcher_DropsWhenBufferFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	pub := &mockPublisher{
		PublishFunc: func(ctx context.Context, key string, event any) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return nil
		},
	}
	m := newTestMetrics()
	d := NewDispatcher(pub, 1, time.Second, m, zap.NewNop())
	d.Start()

	d.Notify(context.Background(), event("o-1", domain.StatusAssignedToManager))
	<-started

	done := make(chan struct{})
	go func() {
		d.Notify(context.Background(), event("o-2", domain.StatusAssignedToManager))
		d.Notify(context.Background(), event("o-3", domain.StatusAssignedToManager))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full buffer")
	}

	close(release)
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Notifications.WithLabelValues("dropped")))
	assert.Equal(t, []string{"o-1", "o-2"}, pub.published())
}

func TestDispatcher_FailedPublishIsCounted(t *testing.T) {
	pub := &mockPublisher{
		PublishFunc: func(ctx context.Context, key string, event any) error {
			return errors.New("broker unavailable")
		},
	}
	m := newTestMetrics()
	d := NewDispatcher(pub, 4, time.Second, m, zap.NewNop())
	d.Start()

	d.Notify(context.Background(), event("o-1", domain.StatusDelivered))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
}

func TestDispatcher_PublishTimeout(t *testing.T) {
	pub := &mockPublisher{
		PublishFunc: func(ctx context.Context, key string, event any) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	m := newTestMetrics()
	d := NewDispatcher(pub, 4, 20*time.Millisecond, m, zap.NewNop())
	d.Start()

	d.Notify(context.Background(), event("o-1", domain.StatusDelivered))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
}

func TestDispatcher_NotifyAfterClose(t *testing.T) {
	pub := &mockPublisher{}
	m := newTestMetrics()
	d := NewDispatcher(pub, 4, time.Second, m, zap.NewNop())
	d.Start()
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	d.Notify(context.Background(), event("o-1", domain.StatusDelivered))

	assert.Empty(t, pub.published())
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Notifications.WithLabelValues("dropped")))
}

func TestDispatcher_CloseHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	pub := &mockPublisher{
		PublishFunc: func(ctx context.Context, key string, event any) error {
			<-release
			return nil
		},
	}
	d := NewDispatcher(pub, 4, time.Minute, nil, zap.NewNop())
	d.Start()
	d.Notify(context.Background(), event("o-1", domain.StatusDelivered))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "order.out_for_delivery", RoutingKey("o-1", event("o-1", domain.StatusOutForDelivery)))
	assert.Equal(t, "order.unknown", RoutingKey("o-1", "not an event"))
}
