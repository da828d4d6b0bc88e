// Package backend is the REST client for the Grocify API. It is the only
// component that touches the network; everything above it sees ports.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	catalogdomain "github.com/grocify/storefront/internal/catalog/domain"
	checkoutdomain "github.com/grocify/storefront/internal/checkout/domain"
	feedbackdomain "github.com/grocify/storefront/internal/feedback/domain"
	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
	"github.com/grocify/storefront/internal/session"
)

// ErrNoCredential means an authenticated call was attempted while signed
// out; callers hand control to the auth flow instead of retrying.
var ErrNoCredential = errors.New("backend: no cached credential")

// Error is a non-2xx response. Anything else returned from the client is
// a transport failure wrapping the underlying error; both revert the
// calling state machine to its pre-attempt state.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Body)
}

// TokenSource supplies the bearer credential for authenticated calls.
// Satisfied by session.Manager.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Client struct {
	log    *slog.Logger
	base   string
	httpc  *http.Client
	token  TokenSource
	tracer trace.Tracer
}

func New(log *slog.Logger, baseURL string, token TokenSource) *Client {
	return &Client{
		log:    log,
		base:   strings.TrimRight(baseURL, "/"),
		httpc:  &http.Client{Timeout: 15 * time.Second},
		token:  token,
		tracer: otel.Tracer("backend-client"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool, headers map[string]string) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path)
	defer span.End()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		tok, ok := c.token.Token(ctx)
		if !ok {
			return ErrNoCredential
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpc.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("backend: %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		span.RecordError(apiErr)
		return apiErr
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("backend: decode %s: %w", path, err)
		}
	}
	return nil
}

// --- auth ---

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (session.AuthResult, error) {
	var out session.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsReq{Username: username, Password: password}, &out, false, nil)
	return out, err
}

func (c *Client) Signup(ctx context.Context, username, password, role string) (session.AuthResult, error) {
	var out session.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentialsReq{Username: username, Password: password, Role: role}, &out, false, nil)
	return out, err
}

// --- catalog ---

func (c *Client) Products(ctx context.Context) ([]catalogdomain.Product, error) {
	var out []catalogdomain.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &out, false, nil)
	return out, err
}

func (c *Client) Product(ctx context.Context, id int64) (catalogdomain.Product, error) {
	var out catalogdomain.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &out, false, nil)
	return out, err
}

// --- orders ---

type placeOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type placeOrderReq struct {
	CartItems       []placeOrderItem `json:"cartItems"`
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	Notes           string           `json:"notes"`
}

// PlaceOrder submits the draft and returns the backend's order id. The
// idempotency key rides a header; a backend that supports it can dedupe a
// client retry after an ambiguous failure.
func (c *Client) PlaceOrder(ctx context.Context, draft checkoutdomain.Draft) (int64, error) {
	req := placeOrderReq{
		CartItems:       make([]placeOrderItem, 0, len(draft.Items)),
		ShippingAddress: draft.ShippingAddress,
		PaymentMethod:   draft.PaymentMethod,
		Notes:           draft.Notes,
	}
	for _, it := range draft.Items {
		req.CartItems = append(req.CartItems, placeOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	var headers map[string]string
	if draft.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": draft.IdempotencyKey}
	}
	var out ordersdomain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders/place", req, &out, true, headers); err != nil {
		return 0, err
	}
	return out.ID, nil
}

type statusUpdateReq struct {
	Status ordersdomain.Status `json:"status"`
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status ordersdomain.Status) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), statusUpdateReq{Status: status}, nil, true, nil)
}

// MarkPaid flips the order to PAID after a simulated capture.
func (c *Client) MarkPaid(ctx context.Context, orderID int64) error {
	return c.UpdateOrderStatus(ctx, orderID, ordersdomain.StatusPaid)
}

func (c *Client) MyOrders(ctx context.Context) ([]ordersdomain.Order, error) {
	var out []ordersdomain.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/my-orders", nil, &out, true, nil)
	return out, err
}

// --- feedback ---

func (c *Client) SubmitFeedback(ctx context.Context, sub feedbackdomain.Submission) error {
	return c.do(ctx, http.MethodPost, "/api/feedback/submit", sub, nil, true, nil)
}

func (c *Client) ProductFeedback(ctx context.Context, productID int64) ([]feedbackdomain.Feedback, error) {
	var out []feedbackdomain.Feedback
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/feedback/product/%d", productID), nil, &out, false, nil)
	return out, err
}
