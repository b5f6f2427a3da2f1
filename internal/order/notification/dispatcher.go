package notification

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"designden/internal/domain"
	"designden/internal/infrastructure/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Dispatcher decouples transitions from event delivery. Notify never blocks:
// events that do not fit in the buffer are dropped and counted.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.OrderMetrics
	queued    metric.Int64UpDownCounter

	mu     sync.RWMutex
	closed bool
	events chan domain.StatusChangedEvent
	done   chan struct{}
}

func NewDispatcher(publisher Publisher, bufferSize int, timeout time.Duration, orderMetrics *metrics.OrderMetrics, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}

	queued, err := otel.Meter("order/notification").Int64UpDownCounter(
		"designden.notifications.queued",
		metric.WithDescription("Status change events waiting to be published."),
	)
	if err != nil {
		logger.Warn("creating queued events instrument", zap.Error(err))
	}

	return &Dispatcher{
		publisher: publisher,
		timeout:   timeout,
		logger:    logger,
		metrics:   orderMetrics,
		queued:    queued,
		events:    make(chan domain.StatusChangedEvent, bufferSize),
		done:      make(chan struct{}),
	}
}

// Start launches the publishing goroutine. It returns when Close drains the
// buffer.
func (d *Dispatcher) Start() {
	go d.run()
}

func (d *Dispatcher) Notify(ctx context.Context, event domain.StatusChangedEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	select {
	case d.events <- event:
		d.addQueued(ctx, 1)
	default:
		d.drop(event, "buffer full")
	}
}

// Close stops accepting events and waits for the buffer to drain or ctx to
// expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.events {
		d.addQueued(context.Background(), -1)
		d.publish(event)
	}
}

func (d *Dispatcher) publish(event domain.StatusChangedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event.OrderID, event); err != nil {
		d.metrics.NotificationOutcome("failed")
		d.logger.Warn("publishing status change failed",
			zap.String("orderId", event.OrderID),
			zap.String("status", string(event.Status)),
			zap.Error(err),
		)
		return
	}

	d.metrics.NotificationOutcome("published")
	d.logger.Debug("status change published",
		zap.String("orderId", event.OrderID),
		zap.String("status", string(event.Status)),
	)
}

func (d *Dispatcher) drop(event domain.StatusChangedEvent, reason string) {
	d.metrics.NotificationOutcome("dropped")
	d.logger.Warn("status change notification dropped",
		zap.String("orderId", event.OrderID),
		zap.String("status", string(event.Status)),
		zap.String("reason", reason),
	)
}

func (d *Dispatcher) addQueued(ctx context.Context, n int64) {
	if d.queued != nil {
		d.queued.Add(ctx, n)
	}
}
