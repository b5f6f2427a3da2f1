package dto

import "time"

type TrackingResponse struct {
	TraceID            string             `json:"traceId"`
	OrderID            string             `json:"orderId"`
	OrderType          string             `json:"orderType"`
	CurrentStatus      string             `json:"currentStatus"`
	CurrentStep        int                `json:"currentStep"`
	Steps              []TrackingStepDTO  `json:"steps"`
	ProgressPercentage int                `json:"progressPercentage"`
	OTP                string             `json:"otp,omitempty"`
	DesignerID         *string            `json:"designerId"`
	DeliveryPersonID   *string            `json:"deliveryPersonId"`
	Timeline           []TimelineEventDTO `json:"timeline"`
	ShippingAddress    AddressDTO         `json:"shippingAddress"`
	Timestamp          time.Time          `json:"timestamp"`
}

type TrackingStepDTO struct {
	Status    string     `json:"status"`
	Index     int        `json:"index"`
	Completed bool       `json:"completed"`
	Current   bool       `json:"current"`
	At        *time.Time `json:"timestamp,omitempty"`
}
