package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocify/storefront/internal/orders/domain"
)

type fakeHistory struct {
	orders []domain.Order
	err    error
}

func (f fakeHistory) MyOrders(context.Context) ([]domain.Order, error) {
	return f.orders, f.err
}

func TestHistoryNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(slog.New(slog.DiscardHandler), fakeHistory{orders: []domain.Order{
		{ID: 1, OrderDate: base},
		{ID: 3, OrderDate: base.Add(48 * time.Hour)},
		{ID: 2, OrderDate: base.Add(24 * time.Hour)},
	}})

	got, err := svc.History(context.Background())
	require.NoError(t, err)
	ids := []int64{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestHistoryPropagatesBackendError(t *testing.T) {
	svc := NewService(slog.New(slog.DiscardHandler), fakeHistory{err: errors.New("boom")})
	_, err := svc.History(context.Background())
	assert.Error(t, err)
}
