package catalog

import (
	"context"

	"designden/internal/domain"
)

type Repository interface {
	FindProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	FindDesignsByIDs(ctx context.Context, ids []string) ([]domain.Design, error)
}
