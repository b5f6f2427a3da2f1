package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designden/internal/domain"
)

func strPtr(s string) *string { return &s }

func at(minute int) time.Time {
	return time.Date(2026, 6, 1, 12, minute, 0, 0, time.UTC)
}

func shopOrder(status domain.Status) *domain.Order {
	return &domain.Order{
		ID:         "o-1",
		CustomerID: "cust-1",
		Status:     status,
		Items:      []domain.OrderItem{{ProductID: strPtr("p-1"), Quantity: 1}},
	}
}

func customOrder(status domain.Status) *domain.Order {
	o := shopOrder(status)
	o.Items = []domain.OrderItem{{DesignID: strPtr("d-1"), Quantity: 1}}
	return o
}

func completedCount(v View) int {
	n := 0
	for _, s := range v.Steps {
		if s.Completed {
			n++
		}
	}
	return n
}

func TestProject_SelectsWorkflow(t *testing.T) {
	shop := Project(shopOrder(domain.StatusPending), domain.Actor{})
	assert.Len(t, shop.Steps, len(domain.ShopWorkflow))
	assert.Equal(t, domain.OrderTypeShop, shop.OrderType)

	custom := Project(customOrder(domain.StatusPending), domain.Actor{})
	assert.Len(t, custom.Steps, len(domain.CustomWorkflow))
	assert.Equal(t, domain.OrderTypeCustom, custom.OrderType)
}

func TestProject_DeliverySubStatesShareIndex(t *testing.T) {
	want := Project(shopOrder(domain.StatusOutForDelivery), domain.Actor{}).CurrentIndex
	require.Equal(t, 3, want)

	for _, s := range []domain.Status{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusLegacyShipped} {
		v := Project(shopOrder(s), domain.Actor{})
		assert.Equal(t, want, v.CurrentIndex, s)
		assert.Equal(t, 4, completedCount(v), s)
	}
}

func TestProject_LegacyAliases(t *testing.T) {
	tests := []struct {
		status domain.Status
		index  int
	}{
		{domain.StatusLegacyAssigned, 1},
		{domain.StatusLegacyReadyForDelivery, 2},
		{domain.StatusLegacyCompleted, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.index, Project(shopOrder(tt.status), domain.Actor{}).CurrentIndex)
		})
	}
}

func TestProject_UnknownStatus(t *testing.T) {
	v := Project(shopOrder("on_hold"), domain.Actor{})
	assert.Equal(t, -1, v.CurrentIndex)
	assert.Zero(t, completedCount(v))
}

func TestProject_CancelledShowsNoCompletedSteps(t *testing.T) {
	o := customOrder(domain.StatusCancelled)
	o.Milestones.OrderPlaced = ptrTime(at(0))
	o.Timeline = []domain.TimelineEvent{
		{Status: domain.StatusAssignedToManager, At: at(1)},
		{Status: domain.StatusCancelled, At: at(2)},
	}

	v := Project(o, domain.Actor{})
	assert.Zero(t, completedCount(v))
	for _, s := range v.Steps {
		assert.Nil(t, s.At)
	}
}

func TestProject_StepTimestamps(t *testing.T) {
	o := customOrder(domain.StatusInProduction)
	o.Milestones.OrderPlaced = ptrTime(at(0))
	o.Milestones.DesignerAccepted = ptrTime(at(30))
	o.Timeline = []domain.TimelineEvent{
		{Status: domain.StatusAssignedToManager, At: at(10)},
		{Status: domain.StatusAssignedToDesigner, At: at(20)},
		{Status: domain.StatusDesignerAccepted, At: at(31)},
		{Status: domain.StatusInProduction, At: at(40)},
		{Status: domain.StatusInProduction, At: at(50), Note: "production progress 20%"},
	}

	v := Project(o, domain.Actor{})
	require.Len(t, v.Steps, 9)

	assert.Equal(t, at(0), *v.Steps[0].At)
	assert.Equal(t, at(10), *v.Steps[1].At)
	assert.Equal(t, at(20), *v.Steps[2].At)
	assert.Equal(t, at(30), *v.Steps[3].At, "milestone wins over timeline")
	assert.Equal(t, at(40), *v.Steps[4].At, "first matching timeline entry")
	assert.True(t, v.Steps[4].Current)
	for _, s := range v.Steps[5:] {
		assert.False(t, s.Completed)
		assert.Nil(t, s.At)
	}
}

func TestProject_ProgressVisibility(t *testing.T) {
	custom := customOrder(domain.StatusInProduction)
	custom.ProgressPercentage = 70
	assert.Equal(t, 70, Project(custom, domain.Actor{}).ProgressPercentage)

	done := customOrder(domain.StatusProductionCompleted)
	done.ProgressPercentage = 100
	assert.Zero(t, Project(done, domain.Actor{}).ProgressPercentage)

	shop := shopOrder(domain.StatusInProduction)
	shop.ProgressPercentage = 70
	assert.Zero(t, Project(shop, domain.Actor{}).ProgressPercentage)
}

func TestVisibleOTP(t *testing.T) {
	base := func(status domain.Status) *domain.Order {
		o := shopOrder(status)
		o.DeliveryPersonID = strPtr("del-1")
		o.DesignerID = strPtr("des-1")
		o.DeliveryOTP = &domain.DeliveryOTP{Code: "5150"}
		return o
	}

	tests := []struct {
		name   string
		order  *domain.Order
		viewer domain.Actor
		want   string
	}{
		{"owning customer", base(domain.StatusOutForDelivery), domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}, "5150"},
		{"other customer", base(domain.StatusOutForDelivery), domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}, ""},
		{"assigned courier", base(domain.StatusReadyForPickup), domain.Actor{ID: "del-1", Role: domain.RoleDelivery}, "5150"},
		{"other courier", base(domain.StatusReadyForPickup), domain.Actor{ID: "del-2", Role: domain.RoleDelivery}, ""},
		{"designer", base(domain.StatusOutForDelivery), domain.Actor{ID: "des-1", Role: domain.RoleDesigner}, ""},
		{"manager", base(domain.StatusOutForDelivery), domain.Actor{ID: "mgr-1", Role: domain.RoleManager}, ""},
		{"after delivery", base(domain.StatusDelivered), domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibleOTP(tt.order, tt.viewer))
			assert.Equal(t, tt.want, Project(tt.order, tt.viewer).OTP)
		})
	}
}

func TestProject_DoesNotMutateOrder(t *testing.T) {
	o := customOrder(domain.StatusInProduction)
	o.Timeline = []domain.TimelineEvent{{Status: domain.StatusInProduction, At: at(1)}}
	before := o.Clone()

	v := Project(o, domain.Actor{ID: "cust-1", Role: domain.RoleCustomer})
	v.Timeline[0].Note = "changed"

	assert.Equal(t, before, o)
}

func ptrTime(t time.Time) *time.Time { return &t }
