package domain

type Status string

const (
	StatusPending             Status = "pending"
	StatusAssignedToManager   Status = "assigned_to_manager"
	StatusAssignedToDesigner  Status = "assigned_to_designer"
	StatusDesignerAccepted    Status = "designer_accepted"
	StatusInProduction        Status = "in_production"
	StatusProductionCompleted Status = "production_completed"
	StatusReadyForPickup      Status = "ready_for_pickup"
	StatusPickedUp            Status = "picked_up"
	StatusInTransit           Status = "in_transit"
	StatusOutForDelivery      Status = "out_for_delivery"
	StatusDelivered           Status = "delivered"
	StatusCancelled           Status = "cancelled"
)

// Legacy tokens still found in older records. They are never written.
const (
	StatusLegacyAssigned         Status = "assigned"
	StatusLegacyShipped          Status = "shipped"
	StatusLegacyCompleted        Status = "completed"
	StatusLegacyReadyForDelivery Status = "ready_for_delivery"
)

var canonicalStatuses = map[Status]struct{}{
	StatusPending:             {},
	StatusAssignedToManager:   {},
	StatusAssignedToDesigner:  {},
	StatusDesignerAccepted:    {},
	StatusInProduction:        {},
	StatusProductionCompleted: {},
	StatusReadyForPickup:      {},
	StatusPickedUp:            {},
	StatusInTransit:           {},
	StatusOutForDelivery:      {},
	StatusDelivered:           {},
	StatusCancelled:           {},
}

var ShopWorkflow = []Status{
	StatusPending,
	StatusAssignedToManager,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusDelivered,
}

var CustomWorkflow = []Status{
	StatusPending,
	StatusAssignedToManager,
	StatusAssignedToDesigner,
	StatusDesignerAccepted,
	StatusInProduction,
	StatusProductionCompleted,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusDelivered,
}

// statusAliases maps sub-states and legacy tokens to the workflow step they
// are displayed as.
var statusAliases = map[Status]Status{
	StatusPickedUp:               StatusOutForDelivery,
	StatusInTransit:              StatusOutForDelivery,
	StatusLegacyAssigned:         StatusAssignedToManager,
	StatusLegacyShipped:          StatusOutForDelivery,
	StatusLegacyCompleted:        StatusDelivered,
	StatusLegacyReadyForDelivery: StatusReadyForPickup,
}

func (s Status) String() string {
	return string(s)
}

// IsCanonical reports whether s is part of the persisted status vocabulary.
func (s Status) IsCanonical() bool {
	_, ok := canonicalStatuses[s]
	return ok
}

func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsDeliveryEligible reports whether an order in status s must carry a
// delivery OTP.
func IsDeliveryEligible(s Status) bool {
	switch s {
	case StatusReadyForPickup, StatusPickedUp, StatusInTransit, StatusOutForDelivery:
		return true
	}
	return false
}

// ResolveAlias returns the workflow step s is shown as. Statuses without an
// alias are returned unchanged.
func ResolveAlias(s Status) Status {
	if target, ok := statusAliases[s]; ok {
		return target
	}
	return s
}

// WorkflowFor returns the ordered milestone sequence for the order's type.
func WorkflowFor(o *Order) []Status {
	if IsCustomOrder(o) {
		return CustomWorkflow
	}
	return ShopWorkflow
}

// StatusIndex returns the position of s in workflow, falling back to the alias
// table. Unknown statuses yield -1.
func StatusIndex(workflow []Status, s Status) int {
	if idx := indexOf(workflow, s); idx != -1 {
		return idx
	}
	if target, ok := statusAliases[s]; ok {
		return indexOf(workflow, target)
	}
	return -1
}

func indexOf(workflow []Status, s Status) int {
	for i, step := range workflow {
		if step == s {
			return i
		}
	}
	return -1
}
