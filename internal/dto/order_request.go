package dto

type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress AddressDTO     `json:"shippingAddress"`
	PaymentStatus   string         `json:"paymentStatus,omitempty"`
}

// CheckoutItem references exactly one of a catalog product or a design.
type CheckoutItem struct {
	ProductID string `json:"productId,omitempty"`
	DesignID  string `json:"designId,omitempty"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type AssignDesignerRequest struct {
	DesignerID string `json:"designerId"`
}

type AssignDeliveryRequest struct {
	DeliveryPersonID string `json:"deliveryPersonId"`
}

type UpdateProgressRequest struct {
	ProgressPercentage *int   `json:"progressPercentage"`
	Note               string `json:"note,omitempty"`
}

type CompleteProductionRequest struct {
	Notes string `json:"notes,omitempty"`
}

type LocationRequest struct {
	Location string `json:"location,omitempty"`
}

type DeliverRequest struct {
	OTP          string `json:"otp"`
	ReceivedBy   string `json:"receivedBy"`
	Relationship string `json:"relationship,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
