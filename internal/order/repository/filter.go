package repository

import "designden/internal/domain"

// ListFilter scopes order queries. Empty fields do not constrain the result.
type ListFilter struct {
	CustomerID       string
	DesignerID       string
	DeliveryPersonID string
	Statuses         []domain.Status
	Limit            int
	Offset           int
}

const defaultListLimit = 50

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 200 {
		return defaultListLimit
	}
	return f.Limit
}

func (f ListFilter) matches(o *domain.Order) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.DesignerID != "" && (o.DesignerID == nil || *o.DesignerID != f.DesignerID) {
		return false
	}
	if f.DeliveryPersonID != "" && (o.DeliveryPersonID == nil || *o.DeliveryPersonID != f.DeliveryPersonID) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}
