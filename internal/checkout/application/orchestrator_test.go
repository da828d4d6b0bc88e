package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/grocify/storefront/internal/cart/domain"
	"github.com/grocify/storefront/internal/checkout/domain"
	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
	"github.com/grocify/storefront/internal/storage"
	"github.com/grocify/storefront/internal/storage/memory"
)

type fakeGuard struct{ ok bool }

func (g fakeGuard) IsAuthenticated(context.Context) bool { return g.ok }

type fakeCart struct {
	mu      sync.Mutex
	items   cartdomain.Cart
	cleared bool
}

func (c *fakeCart) Items(context.Context) cartdomain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(cartdomain.Cart(nil), c.items...)
}

func (c *fakeCart) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.cleared = true
	return nil
}

type fakeOrderAPI struct {
	mu     sync.Mutex
	calls  int
	drafts []domain.Draft
	id     int64
	err    error

	// entered/release let a test hold a call open to probe reentrancy.
	entered chan struct{}
	release chan struct{}
}

func (a *fakeOrderAPI) PlaceOrder(ctx context.Context, draft domain.Draft) (int64, error) {
	a.mu.Lock()
	a.calls++
	a.drafts = append(a.drafts, draft)
	a.mu.Unlock()
	if a.entered != nil {
		a.entered <- struct{}{}
		select {
		case <-a.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return a.id, a.err
}

func (a *fakeOrderAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func twoLineCart() cartdomain.Cart {
	return cartdomain.Cart{
		{ProductID: 1, Name: "Bananas", UnitPrice: 40, Quantity: 2},
		{ProductID: 2, Name: "Whole Milk", UnitPrice: 62.5, Quantity: 1},
	}
}

func newOrchestrator(guard Guard, cart CartAccess, api OrderAPI, store storage.Store) *Orchestrator {
	return NewOrchestrator(slog.New(slog.DiscardHandler), guard, cart, api, store)
}

func validForm() domain.Form {
	return domain.Form{ShippingAddress: "12 Market Lane", PaymentMethod: domain.MethodCashOnDelivery}
}

func TestOpenFormRejectsEmptyCart(t *testing.T) {
	o := newOrchestrator(fakeGuard{ok: true}, &fakeCart{}, &fakeOrderAPI{}, memory.New())
	err := o.OpenForm(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, domain.StateIdle, o.State())
}

func TestSubmitBlankAddressStaysOnFormWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	cart := &fakeCart{items: twoLineCart()}
	api := &fakeOrderAPI{id: 7}
	o := newOrchestrator(fakeGuard{ok: true}, cart, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, domain.Form{ShippingAddress: "   ", PaymentMethod: domain.MethodCashOnDelivery})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shippingAddress", verr.Field)

	assert.Equal(t, 0, api.callCount())
	assert.Equal(t, domain.StateFormOpen, o.State())
	assert.Len(t, cart.Items(ctx), 2)
}

func TestSubmitUnknownMethodStaysOnForm(t *testing.T) {
	ctx := context.Background()
	api := &fakeOrderAPI{id: 7}
	o := newOrchestrator(fakeGuard{ok: true}, &fakeCart{items: twoLineCart()}, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, domain.Form{ShippingAddress: "12 Market Lane", PaymentMethod: "BARTER"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "paymentMethod", verr.Field)
	assert.Equal(t, 0, api.callCount())
}

func TestSubmitUnauthenticatedNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	api := &fakeOrderAPI{id: 7}
	o := newOrchestrator(fakeGuard{ok: false}, &fakeCart{items: twoLineCart()}, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, api.callCount())
	assert.Equal(t, domain.StateFormOpen, o.State())
}

func TestSubmitSuccessClearsCartAndPersistsPendingOrder(t *testing.T) {
	ctx := context.Background()
	cart := &fakeCart{items: twoLineCart()}
	api := &fakeOrderAPI{id: 41}
	store := memory.New()
	o := newOrchestrator(fakeGuard{ok: true}, cart, api, store)
	require.NoError(t, o.OpenForm(ctx))

	wantTotal := cart.Items(ctx).Subtotal()
	summary, err := o.Submit(ctx, validForm())
	require.NoError(t, err)

	assert.Equal(t, int64(41), summary.OrderID)
	assert.Equal(t, wantTotal, summary.TotalAmount)
	assert.Equal(t, 3, summary.ItemCount)
	assert.True(t, cart.cleared)
	assert.Equal(t, domain.StateCompleted, o.State())

	raw, err := store.Get(ctx, storage.KeyPendingOrder)
	require.NoError(t, err)
	var persisted ordersdomain.Summary
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, summary, persisted)
}

func TestSubmitSendsSnapshotWithIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	api := &fakeOrderAPI{id: 9}
	o := newOrchestrator(fakeGuard{ok: true}, &fakeCart{items: twoLineCart()}, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, validForm())
	require.NoError(t, err)

	require.Len(t, api.drafts, 1)
	draft := api.drafts[0]
	assert.Equal(t, []domain.DraftItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, draft.Items)
	assert.Equal(t, "12 Market Lane", draft.ShippingAddress)
	assert.NotEmpty(t, draft.IdempotencyKey)
}

func TestSubmitBackendFailureReopensFormAndKeepsCart(t *testing.T) {
	ctx := context.Background()
	cart := &fakeCart{items: twoLineCart()}
	api := &fakeOrderAPI{err: errors.New("503 from backend")}
	store := memory.New()
	o := newOrchestrator(fakeGuard{ok: true}, cart, api, store)
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, validForm())
	require.Error(t, err)

	assert.Equal(t, domain.StateFormOpen, o.State())
	assert.False(t, cart.cleared)
	assert.Len(t, cart.Items(ctx), 2)
	_, err = store.Get(ctx, storage.KeyPendingOrder)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Retry is the caller's decision, and a retry works.
	api.err = nil
	api.id = 5
	_, err = o.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, 2, api.callCount())
}

func TestSubmitIsNotReentrant(t *testing.T) {
	ctx := context.Background()
	api := &fakeOrderAPI{id: 3, entered: make(chan struct{}), release: make(chan struct{})}
	o := newOrchestrator(fakeGuard{ok: true}, &fakeCart{items: twoLineCart()}, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(ctx, validForm())
		done <- err
	}()
	<-api.entered

	_, err := o.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.Equal(t, domain.StateSubmitting, o.State())

	close(api.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.callCount())
}

func TestSubmitCancelledMidFlightReopensFormAndKeepsCart(t *testing.T) {
	cart := &fakeCart{items: twoLineCart()}
	api := &fakeOrderAPI{id: 3, entered: make(chan struct{}), release: make(chan struct{})}
	store := memory.New()
	o := newOrchestrator(fakeGuard{ok: true}, cart, api, store)
	require.NoError(t, o.OpenForm(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(ctx, validForm())
		done <- err
	}()
	<-api.entered

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, domain.StateFormOpen, o.State())
	assert.False(t, cart.cleared)
	assert.Len(t, cart.Items(context.Background()), 2)
	_, err := store.Get(context.Background(), storage.KeyPendingOrder)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The interaction is still live; a fresh submit goes through.
	api.entered = nil
	_, err = o.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, o.State())
}

func TestSubmitAfterCompletedIsRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeOrderAPI{id: 3}
	o := newOrchestrator(fakeGuard{ok: true}, &fakeCart{items: twoLineCart()}, api, memory.New())
	require.NoError(t, o.OpenForm(ctx))

	_, err := o.Submit(ctx, validForm())
	require.NoError(t, err)

	_, err = o.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrCompleted)
	assert.Equal(t, 1, api.callCount())
}
