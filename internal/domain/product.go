package domain

import "time"

// Product is a catalog item a shop order line can reference.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Category  string
	IsActive  bool
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Design is a custom design a custom order line can reference.
type Design struct {
	ID         string
	Name       string
	DesignerID *string
	Price      float64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p Product) IsOrderable() bool {
	return p.IsActive && !p.IsDeleted
}
