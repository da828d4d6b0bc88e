package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/grocify/storefront/internal/checkout/domain"
	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
	"github.com/grocify/storefront/internal/storage"
)

var (
	ErrEmptyCart        = errors.New("checkout: cart is empty")
	ErrNotAuthenticated = errors.New("checkout: not authenticated")
	ErrSubmitInFlight   = errors.New("checkout: a submit is already in flight")
	ErrCompleted        = errors.New("checkout: order already placed")
)

// Orchestrator converts the cart into an order submission. One
// orchestrator drives one checkout interaction; the state guard makes
// Submit non-reentrant even when invoked programmatically, so at most one
// placement request per cart snapshot is in flight.
//
// The summary it hands to the payment stage carries the locally computed
// subtotal. The backend's authoritative total is deliberately not
// consulted; a price change between browse and submit goes undetected,
// matching the original storefront.
type Orchestrator struct {
	log   *slog.Logger
	guard Guard
	cart  CartAccess
	api   OrderAPI
	store storage.Store

	mu    sync.Mutex
	state domain.State
}

func NewOrchestrator(log *slog.Logger, guard Guard, cart CartAccess, api OrderAPI, store storage.Store) *Orchestrator {
	return &Orchestrator{
		log:   log,
		guard: guard,
		cart:  cart,
		api:   api,
		store: store,
		state: domain.StateIdle,
	}
}

func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// OpenForm enters the checkout form. An empty cart never reaches the
// form; that is the dead-end empty-cart view, not part of this machine.
func (o *Orchestrator) OpenForm(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case domain.StateSubmitting:
		return ErrSubmitInFlight
	case domain.StateCompleted:
		return ErrCompleted
	}
	if len(o.cart.Items(ctx)) == 0 {
		return ErrEmptyCart
	}
	o.state = domain.StateFormOpen
	return nil
}

// Submit validates the form, places the order and on success clears the
// cart, persists the pending-order snapshot and returns the summary.
// Validation and authentication failures never reach the network and
// leave the form open. A backend failure also reopens the form; the cart
// is untouched and the caller may retry. There are no automatic retries.
func (o *Orchestrator) Submit(ctx context.Context, form domain.Form) (ordersdomain.Summary, error) {
	o.mu.Lock()
	switch o.state {
	case domain.StateSubmitting:
		o.mu.Unlock()
		return ordersdomain.Summary{}, ErrSubmitInFlight
	case domain.StateCompleted:
		o.mu.Unlock()
		return ordersdomain.Summary{}, ErrCompleted
	}
	if err := form.Validate(); err != nil {
		o.state = domain.StateFormOpen
		o.mu.Unlock()
		return ordersdomain.Summary{}, err
	}
	if !o.guard.IsAuthenticated(ctx) {
		o.state = domain.StateFormOpen
		o.mu.Unlock()
		return ordersdomain.Summary{}, ErrNotAuthenticated
	}
	snapshot := o.cart.Items(ctx)
	if len(snapshot) == 0 {
		o.state = domain.StateFormOpen
		o.mu.Unlock()
		return ordersdomain.Summary{}, ErrEmptyCart
	}
	o.state = domain.StateSubmitting
	o.mu.Unlock()

	items := make([]domain.DraftItem, 0, len(snapshot))
	for _, line := range snapshot {
		items = append(items, domain.DraftItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	draft := domain.Draft{
		Items:           items,
		ShippingAddress: form.ShippingAddress,
		PaymentMethod:   form.PaymentMethod,
		Notes:           form.Notes,
		IdempotencyKey:  uuid.NewString(),
	}

	orderID, err := o.api.PlaceOrder(ctx, draft)
	if err != nil {
		o.mu.Lock()
		o.state = domain.StateFormOpen
		o.mu.Unlock()
		o.log.Error("order placement failed", "err", err)
		return ordersdomain.Summary{}, err
	}

	summary := ordersdomain.Summary{
		OrderID:         orderID,
		TotalAmount:     snapshot.Subtotal(),
		ItemCount:       snapshot.ItemCount(),
		ShippingAddress: form.ShippingAddress,
		PaymentMethod:   form.PaymentMethod,
	}

	// The order is placed; everything past here is local bookkeeping and
	// must not fail the submit.
	if err := o.cart.Clear(ctx); err != nil {
		o.log.Error("cart clear after placement failed", "order_id", orderID, "err", err)
	}
	if raw, err := json.Marshal(summary); err == nil {
		if err := o.store.Set(ctx, storage.KeyPendingOrder, raw); err != nil {
			o.log.Error("pending order persist failed", "order_id", orderID, "err", err)
		}
	}

	o.mu.Lock()
	o.state = domain.StateCompleted
	o.mu.Unlock()
	o.log.Info("order placed", "order_id", orderID, "total", summary.TotalAmount, "items", summary.ItemCount)
	return summary, nil
}
