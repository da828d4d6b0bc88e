package application

import (
	"context"

	cartdomain "github.com/grocify/storefront/internal/cart/domain"
	"github.com/grocify/storefront/internal/checkout/domain"
)

// OrderAPI places the order with the backend.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, draft domain.Draft) (orderID int64, err error)
}

// Guard reports whether a usable cached credential is present.
type Guard interface {
	IsAuthenticated(ctx context.Context) bool
}

// CartAccess is the slice of the cart service the orchestrator needs: the
// snapshot to submit and the one-time clear after success.
type CartAccess interface {
	Items(ctx context.Context) cartdomain.Cart
	Clear(ctx context.Context) error
}
