package application

import (
	"context"
	"log/slog"

	"github.com/grocify/storefront/internal/catalog/domain"
)

// ProductAPI is the catalog read side of the backend.
type ProductAPI interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
}

type Service struct {
	log *slog.Logger
	api ProductAPI
}

func NewService(log *slog.Logger, api ProductAPI) *Service {
	return &Service{log: log, api: api}
}

// Browse fetches the catalog and applies the client-side filters.
func (s *Service) Browse(ctx context.Context, query, category string) ([]domain.Product, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Filter(products, query, category), nil
}

// Get fetches one product, used for the detail view and for building the
// cart-line snapshot on add.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.api.Product(ctx, id)
}

// Categories lists the distinct categories of the current catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Categories(products), nil
}
