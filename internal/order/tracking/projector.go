// Package tracking derives the read-only progress view of an order. Nothing
// here mutates the order or fails on unknown statuses.
package tracking

import (
	"time"

	"designden/internal/domain"
)

type Step struct {
	Status    domain.Status
	Index     int
	Completed bool
	Current   bool
	At        *time.Time
}

type View struct {
	OrderID            string
	OrderType          domain.OrderType
	CurrentStatus      domain.Status
	CurrentIndex       int
	Steps              []Step
	ProgressPercentage int
	OTP                string
	DesignerID         *string
	DeliveryPersonID   *string
	Timeline           []domain.TimelineEvent
	ShippingAddress    domain.Address
}

// IsStepCompleted reports whether the workflow step at index counts as done
// for an order currently in status. Cancelled orders show no completed steps.
func IsStepCompleted(workflow []domain.Status, status domain.Status, index int) bool {
	if status == domain.StatusCancelled {
		return false
	}
	current := domain.StatusIndex(workflow, status)
	if current == -1 {
		return false
	}
	return index <= current
}

// Project builds the tracking view of order as seen by viewer.
func Project(order *domain.Order, viewer domain.Actor) View {
	workflow := domain.WorkflowFor(order)
	current := domain.StatusIndex(workflow, order.Status)

	steps := make([]Step, len(workflow))
	for i, status := range workflow {
		completed := IsStepCompleted(workflow, order.Status, i)
		step := Step{
			Status:    status,
			Index:     i,
			Completed: completed,
			Current:   i == current,
		}
		if completed {
			step.At = StepTimestamp(order, status)
		}
		steps[i] = step
	}

	orderType := domain.OrderTypeShop
	if domain.IsCustomOrder(order) {
		orderType = domain.OrderTypeCustom
	}

	timeline := make([]domain.TimelineEvent, len(order.Timeline))
	copy(timeline, order.Timeline)

	return View{
		OrderID:            order.ID,
		OrderType:          orderType,
		CurrentStatus:      order.Status,
		CurrentIndex:       current,
		Steps:              steps,
		ProgressPercentage: VisibleProgress(order),
		OTP:                VisibleOTP(order, viewer),
		DesignerID:         order.DesignerID,
		DeliveryPersonID:   order.DeliveryPersonID,
		Timeline:           timeline,
		ShippingAddress:    order.ShippingAddress,
	}
}

// StepTimestamp prefers the milestone recorded for status and falls back to
// the first timeline entry with that status.
func StepTimestamp(order *domain.Order, status domain.Status) *time.Time {
	var milestone *time.Time
	switch status {
	case domain.StatusPending:
		milestone = order.Milestones.OrderPlaced
	case domain.StatusAssignedToManager:
		milestone = order.Milestones.ManagerAssigned
	case domain.StatusAssignedToDesigner:
		milestone = order.Milestones.DesignerAssigned
	case domain.StatusDesignerAccepted:
		milestone = order.Milestones.DesignerAccepted
	case domain.StatusProductionCompleted:
		milestone = order.Milestones.ProductionCompleted
	case domain.StatusReadyForPickup, domain.StatusLegacyReadyForDelivery:
		milestone = order.Milestones.DeliveryAssigned
	}
	if milestone != nil {
		at := *milestone
		return &at
	}

	for _, e := range order.Timeline {
		if e.Status == status {
			at := e.At
			return &at
		}
	}
	return nil
}

// VisibleProgress is the stored percentage for custom orders in production and
// zero otherwise.
func VisibleProgress(order *domain.Order) int {
	if domain.IsCustomOrder(order) && order.Status == domain.StatusInProduction {
		return order.ProgressPercentage
	}
	return 0
}

// VisibleOTP returns the delivery code only to the owning customer and the
// assigned delivery person while the order is out for delivery.
func VisibleOTP(order *domain.Order, viewer domain.Actor) string {
	if order.DeliveryOTP == nil || order.DeliveryOTP.Verified {
		return ""
	}
	if !domain.IsDeliveryEligible(order.Status) {
		return ""
	}

	switch viewer.Role {
	case domain.RoleCustomer:
		if order.CustomerID == viewer.ID {
			return order.DeliveryOTP.Code
		}
	case domain.RoleDelivery:
		if order.DeliveryPersonID != nil && *order.DeliveryPersonID == viewer.ID {
			return order.DeliveryOTP.Code
		}
	}
	return ""
}
