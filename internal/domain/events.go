package domain

import "time"

// StatusChangedEvent is emitted after every committed transition.
type StatusChangedEvent struct {
	OrderID   string    `json:"orderId"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
