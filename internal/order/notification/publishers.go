package notification

import (
	"context"

	"go.uber.org/zap"

	"designden/internal/domain"
)

// LogPublisher writes events to the log. It backs the "log" notifier driver.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, key string, event any) error {
	p.logger.Info("order status changed", zap.String("key", key), zap.Any("event", event))
	return nil
}

// RoutingKey maps an event to the topic exchange key order.<status>.
func RoutingKey(key string, event any) string {
	if e, ok := event.(domain.StatusChangedEvent); ok {
		return "order." + string(e.Status)
	}
	return "order.unknown"
}
