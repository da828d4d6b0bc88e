package application

import (
	"context"
	"log/slog"
	"sort"

	"github.com/grocify/storefront/internal/orders/domain"
)

// HistoryAPI is the order-history read side of the backend.
type HistoryAPI interface {
	MyOrders(ctx context.Context) ([]domain.Order, error)
}

type Service struct {
	log *slog.Logger
	api HistoryAPI
}

func NewService(log *slog.Logger, api HistoryAPI) *Service {
	return &Service{log: log, api: api}
}

// History returns the caller's orders, newest first.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.api.MyOrders(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}
