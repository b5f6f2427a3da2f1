package catalog

import (
	"context"

	"designden/internal/domain"
)

type ProductSearcher interface {
	SearchProducts(ctx context.Context, ids []string) ([]domain.Product, []string, error)
}

type SearchUseCase struct {
	service ProductSearcher
}

func NewSearchUseCase(service ProductSearcher) *SearchUseCase {
	return &SearchUseCase{service: service}
}

func (uc *SearchUseCase) SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error) {
	found, notFound, err := uc.service.SearchProducts(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}

	products := make([]ProductDTO, 0, len(found))
	for _, p := range found {
		products = append(products, ProductDTO{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
		})
	}

	if notFound == nil {
		notFound = []string{}
	}

	return &SearchProductsResponse{
		Products: products,
		NotFound: notFound,
	}, nil
}
