package dto

import "time"

type OrderResponse struct {
	TraceID   string    `json:"traceId"`
	Order     OrderDTO  `json:"order"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderListResponse struct {
	TraceID   string     `json:"traceId"`
	Orders    []OrderDTO `json:"orders"`
	Count     int        `json:"count"`
	Timestamp time.Time  `json:"timestamp"`
}

type OrderStatsResponse struct {
	TraceID   string         `json:"traceId"`
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	Timestamp time.Time      `json:"timestamp"`
}

type OrderDTO struct {
	ID                 string              `json:"id"`
	CustomerID         string              `json:"customerId"`
	OrderType          string              `json:"orderType"`
	Status             string              `json:"status"`
	Items              []OrderItemDTO      `json:"items"`
	TotalAmount        float64             `json:"totalAmount"`
	PaymentStatus      string              `json:"paymentStatus"`
	ManagerID          *string             `json:"managerId"`
	DesignerID         *string             `json:"designerId"`
	DeliveryPersonID   *string             `json:"deliveryPersonId"`
	ProgressPercentage int                 `json:"progressPercentage"`
	DeliveryOTP        *DeliveryOTPDTO     `json:"deliveryOTP,omitempty"`
	Timeline           []TimelineEventDTO  `json:"timeline"`
	ShippingAddress    AddressDTO          `json:"shippingAddress"`
	Milestones         MilestonesDTO       `json:"milestones"`
	ProofOfDelivery    *ProofOfDeliveryDTO `json:"proofOfDelivery,omitempty"`
	Version            int                 `json:"version"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

type OrderItemDTO struct {
	ProductID *string `json:"productId,omitempty"`
	DesignID  *string `json:"designId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// DeliveryOTPDTO omits the code for callers that may not read it.
type DeliveryOTPDTO struct {
	Code        string    `json:"code,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Verified    bool      `json:"verified"`
}

type TimelineEventDTO struct {
	Status   string    `json:"status"`
	At       time.Time `json:"timestamp"`
	Note     string    `json:"note,omitempty"`
	Location string    `json:"location,omitempty"`
	ActorID  string    `json:"actorId,omitempty"`
}

type AddressDTO struct {
	FullName string `json:"fullName"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type MilestonesDTO struct {
	OrderPlaced         *time.Time `json:"orderPlaced,omitempty"`
	ManagerAssigned     *time.Time `json:"managerAssigned,omitempty"`
	DesignerAssigned    *time.Time `json:"designerAssigned,omitempty"`
	DesignerAccepted    *time.Time `json:"designerAccepted,omitempty"`
	ProductionStarted   *time.Time `json:"productionStarted,omitempty"`
	ProductionCompleted *time.Time `json:"productionCompleted,omitempty"`
	DeliveryAssigned    *time.Time `json:"deliveryAssigned,omitempty"`
	PickedUp            *time.Time `json:"pickedUp,omitempty"`
	Delivered           *time.Time `json:"delivered,omitempty"`
}

type ProofOfDeliveryDTO struct {
	ReceivedBy   string    `json:"receivedBy"`
	Relationship string    `json:"relationship,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	DeliveredAt  time.Time `json:"deliveredAt"`
}
