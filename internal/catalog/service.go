package catalog

import (
	"context"
	"fmt"

	"designden/internal/domain"
	apperrors "designden/internal/errors"
)

// LineRequest is one checkout line before pricing. Exactly one of ProductID
// and DesignID is set.
type LineRequest struct {
	ProductID string
	DesignID  string
	Quantity  int
	Size      string
	Color     string
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PriceItems resolves every line against the catalog. Unknown or inactive
// references are reported together as one validation error.
func (s *Service) PriceItems(ctx context.Context, lines []LineRequest) ([]domain.OrderItem, error) {
	var productIDs, designIDs []string
	for _, l := range lines {
		if l.ProductID != "" {
			productIDs = append(productIDs, l.ProductID)
		} else {
			designIDs = append(designIDs, l.DesignID)
		}
	}

	products, err := s.repo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	designs, err := s.repo.FindDesignsByIDs(ctx, designIDs)
	if err != nil {
		return nil, err
	}

	productByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	designByID := make(map[string]domain.Design, len(designs))
	for _, d := range designs {
		designByID[d.ID] = d
	}

	items := make([]domain.OrderItem, 0, len(lines))
	var details []apperrors.ValidationDetail
	for idx, l := range lines {
		field := fmt.Sprintf("items[%d]", idx)
		item := domain.OrderItem{Quantity: l.Quantity, Size: l.Size, Color: l.Color}

		if l.ProductID != "" {
			p, ok := productByID[l.ProductID]
			if !ok || !p.IsOrderable() {
				details = append(details, apperrors.ValidationDetail{Field: field + ".productId", Message: "product " + l.ProductID + " is not available"})
				continue
			}
			id := p.ID
			item.ProductID = &id
			item.Name = p.Name
			item.UnitPrice = p.Price
		} else {
			d, ok := designByID[l.DesignID]
			if !ok || !d.IsActive {
				details = append(details, apperrors.ValidationDetail{Field: field + ".designId", Message: "design " + l.DesignID + " is not available"})
				continue
			}
			id := d.ID
			item.DesignID = &id
			item.Name = d.Name
			item.UnitPrice = d.Price
		}

		items = append(items, item)
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("some items are not available", details...)
	}

	return items, nil
}

// SearchProducts returns the orderable products among ids together with the
// ids that did not resolve to one, in request order.
func (s *Service) SearchProducts(ctx context.Context, ids []string) ([]domain.Product, []string, error) {
	found, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		if p.IsOrderable() {
			byID[p.ID] = p
		}
	}

	products := make([]domain.Product, 0, len(byID))
	var notFound []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if p, ok := byID[id]; ok {
			products = append(products, p)
			continue
		}
		notFound = append(notFound, id)
	}

	return products, notFound, nil
}
