package domain

import "time"

type OrderType string

const (
	OrderTypeShop   OrderType = "shop"
	OrderTypeCustom OrderType = "custom"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type Order struct {
	ID                 string
	CustomerID         string
	OrderType          OrderType
	Status             Status
	Items              []OrderItem
	TotalAmount        float64
	PaymentStatus      PaymentStatus
	ManagerID          *string
	DesignerID         *string
	DeliveryPersonID   *string
	ProgressPercentage int
	DeliveryOTP        *DeliveryOTP
	Timeline           []TimelineEvent
	ShippingAddress    Address
	Milestones         Milestones
	ProofOfDelivery    *ProofOfDelivery
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderItem references either a catalog product or a custom design.
type OrderItem struct {
	ProductID *string
	DesignID  *string
	Name      string
	Quantity  int
	UnitPrice float64
	Size      string
	Color     string
}

type DeliveryOTP struct {
	Code        string
	GeneratedAt time.Time
	Verified    bool
}

type TimelineEvent struct {
	Status   Status
	At       time.Time
	Note     string
	Location string
	ActorID  string
}

type Address struct {
	FullName string `json:"fullName"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Milestones holds the first time an order reached each semantic step.
type Milestones struct {
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

type ProofOfDelivery struct {
	ReceivedBy   string    `json:"receivedBy"`
	Relationship string    `json:"relationship,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	DeliveredAt  time.Time `json:"deliveredAt"`
}

func (i OrderItem) IsDesign() bool {
	return i.DesignID != nil && i.ProductID == nil
}

func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// IsCustomOrder is derived from the items on every call; any design line
// without a product reference makes the order custom.
func IsCustomOrder(o *Order) bool {
	for _, item := range o.Items {
		if item.IsDesign() {
			return true
		}
	}
	return false
}

// ClassifyItems returns the order type a checkout with these items gets.
func ClassifyItems(items []OrderItem) OrderType {
	if IsCustomOrder(&Order{Items: items}) {
		return OrderTypeCustom
	}
	return OrderTypeShop
}

// Clone returns a deep copy so a transition can work on a checked-out copy
// and leave the original untouched on failure.
func (o *Order) Clone() *Order {
	c := *o

	c.Items = make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.ProductID = cloneString(item.ProductID)
		item.DesignID = cloneString(item.DesignID)
		c.Items[i] = item
	}

	c.Timeline = make([]TimelineEvent, len(o.Timeline))
	copy(c.Timeline, o.Timeline)

	c.ManagerID = cloneString(o.ManagerID)
	c.DesignerID = cloneString(o.DesignerID)
	c.DeliveryPersonID = cloneString(o.DeliveryPersonID)

	if o.DeliveryOTP != nil {
		otp := *o.DeliveryOTP
		c.DeliveryOTP = &otp
	}
	if o.ProofOfDelivery != nil {
		pod := *o.ProofOfDelivery
		c.ProofOfDelivery = &pod
	}

	c.Milestones = Milestones{
		OrderPlaced:         cloneTime(o.Milestones.OrderPlaced),
		ManagerAssigned:     cloneTime(o.Milestones.ManagerAssigned),
		DesignerAssigned:    cloneTime(o.Milestones.DesignerAssigned),
		DesignerAccepted:    cloneTime(o.Milestones.DesignerAccepted),
		ProductionStarted:   cloneTime(o.Milestones.ProductionStarted),
		ProductionCompleted: cloneTime(o.Milestones.ProductionCompleted),
		DeliveryAssigned:    cloneTime(o.Milestones.DeliveryAssigned),
		PickedUp:            cloneTime(o.Milestones.PickedUp),
		Delivered:           cloneTime(o.Milestones.Delivered),
	}

	return &c
}

// AppendTimeline is the only way entries are added; existing entries are
// never modified.
func (o *Order) AppendTimeline(event TimelineEvent) {
	o.Timeline = append(o.Timeline, event)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
