package backend_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocify/storefront/internal/backend"
	"github.com/grocify/storefront/internal/backendsim"
	checkoutdomain "github.com/grocify/storefront/internal/checkout/domain"
	feedbackdomain "github.com/grocify/storefront/internal/feedback/domain"
	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
)

type staticToken struct{ tok string }

func (s *staticToken) Token(context.Context) (string, bool) {
	return s.tok, s.tok != ""
}

func newClient(t *testing.T) (*backend.Client, *staticToken) {
	t.Helper()
	sim := backendsim.New(slog.New(slog.DiscardHandler), []byte("test-secret"), backendsim.DefaultCatalog())
	ts := httptest.NewServer(sim.Routes())
	t.Cleanup(ts.Close)
	token := &staticToken{}
	return backend.New(slog.New(slog.DiscardHandler), ts.URL, token), token
}

func TestSignupPlacePayList(t *testing.T) {
	ctx := context.Background()
	c, token := newClient(t)

	res, err := c.Signup(ctx, "alice", "pw", "")
	require.NoError(t, err)
	token.tok = res.Token

	orderID, err := c.PlaceOrder(ctx, checkoutdomain.Draft{
		Items:           []checkoutdomain.DraftItem{{ProductID: 1, Quantity: 2}},
		ShippingAddress: "12 Market Lane",
		PaymentMethod:   checkoutdomain.MethodOnlinePayment,
		IdempotencyKey:  "k-1",
	})
	require.NoError(t, err)
	require.NotZero(t, orderID)

	require.NoError(t, c.MarkPaid(ctx, orderID))

	orders, err := c.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
	assert.Equal(t, ordersdomain.StatusPaid, orders[0].Status)
	assert.Equal(t, 96.0, orders[0].TotalAmount)
}

func TestPlaceOrderReplaySameKeySameOrder(t *testing.T) {
	ctx := context.Background()
	c, token := newClient(t)
	res, err := c.Signup(ctx, "alice", "pw", "")
	require.NoError(t, err)
	token.tok = res.Token

	draft := checkoutdomain.Draft{
		Items:           []checkoutdomain.DraftItem{{ProductID: 3, Quantity: 1}},
		ShippingAddress: "12 Market Lane",
		PaymentMethod:   checkoutdomain.MethodCashOnDelivery,
		IdempotencyKey:  "retry-key",
	}
	id1, err := c.PlaceOrder(ctx, draft)
	require.NoError(t, err)
	id2, err := c.PlaceOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestAuthenticatedCallWithoutCredential(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	_, err := c.MyOrders(ctx)
	assert.ErrorIs(t, err, backend.ErrNoCredential)
}

func TestBadCredentialsSurfaceAsAPIError(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	_, err := c.Login(ctx, "nobody", "pw")
	var apiErr *backend.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad credentials")
}

func TestForgedTokenRejected(t *testing.T) {
	ctx := context.Background()
	c, token := newClient(t)
	token.tok = "not-a-real-token"

	_, err := c.MyOrders(ctx)
	var apiErr *backend.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestProductsAndFeedbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, token := newClient(t)

	products, err := c.Products(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	p, err := c.Product(ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, products[0].Name, p.Name)

	res, err := c.Signup(ctx, "alice", "pw", "")
	require.NoError(t, err)
	token.tok = res.Token

	require.NoError(t, c.SubmitFeedback(ctx, feedbackdomain.Submission{
		ProductID: p.ID, Rating: 5, Comment: "excellent", FeedbackType: feedbackdomain.TypeReview,
	}))
	list, err := c.ProductFeedback(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)
}
