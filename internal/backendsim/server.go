// Package backendsim is a stand-in for the Grocify backend, used for
// local development and tests. It keeps everything in memory and issues
// real signed tokens, but it is not production logic and does not try to
// be: stock, orders and users vanish with the process.
package backendsim

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	catalogdomain "github.com/grocify/storefront/internal/catalog/domain"
	feedbackdomain "github.com/grocify/storefront/internal/feedback/domain"
	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
)

type userRec struct {
	password string
	role     string
}

type Server struct {
	log    *slog.Logger
	secret []byte

	mu          sync.Mutex
	products    []catalogdomain.Product
	users       map[string]userRec
	orders      map[int64]ordersdomain.Order
	orderOwner  map[int64]string
	feedback    []feedbackdomain.Feedback
	seenKeys    map[string]int64
	nextOrderID int64
	nextFbID    int64
}

func New(log *slog.Logger, secret []byte, products []catalogdomain.Product) *Server {
	return &Server{
		log:         log,
		secret:      secret,
		products:    products,
		users:       make(map[string]userRec),
		orders:      make(map[int64]ordersdomain.Order),
		orderOwner:  make(map[int64]string),
		seenKeys:    make(map[string]int64),
		nextOrderID: 1,
		nextFbID:    1,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/auth/signup", s.signup)
	r.Post("/api/auth/login", s.login)
	r.Get("/api/products", s.listProducts)
	r.Get("/api/products/{id}", s.getProduct)
	r.Get("/api/feedback/product/{id}", s.productFeedback)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)
		pr.Post("/api/orders/place", s.placeOrder)
		pr.Put("/api/orders/{id}/status", s.updateStatus)
		pr.Get("/api/orders/my-orders", s.myOrders)
		pr.Post("/api/feedback/submit", s.submitFeedback)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]catalogdomain.Product, len(s.products))
	copy(out, s.products)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	http.Error(w, "product not found", http.StatusNotFound)
}

type placeOrderReq struct {
	CartItems []struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	} `json:"cartItems"`
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
	Notes           string `json:"notes"`
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(req.CartItems) == 0 {
		http.Error(w, "empty order", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent replay: same key returns the order placed the first time.
	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		if id, ok := s.seenKeys[key]; ok {
			writeJSON(w, http.StatusOK, s.orders[id])
			return
		}
	}

	// Validate the whole order before touching stock; a rejected order
	// must leave the catalog exactly as it found it.
	idxs := make([]int, 0, len(req.CartItems))
	need := make(map[int]int, len(req.CartItems))
	for _, ci := range req.CartItems {
		idx := -1
		for i, p := range s.products {
			if p.ID == ci.ProductID {
				idx = i
				break
			}
		}
		if idx < 0 {
			http.Error(w, "unknown product", http.StatusBadRequest)
			return
		}
		need[idx] += ci.Quantity
		if s.products[idx].Stock < need[idx] {
			http.Error(w, "insufficient stock", http.StatusBadRequest)
			return
		}
		idxs = append(idxs, idx)
	}

	var items []ordersdomain.Item
	var total float64
	for i, ci := range req.CartItems {
		idx := idxs[i]
		s.products[idx].Stock -= ci.Quantity
		p := s.products[idx]
		items = append(items, ordersdomain.Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    ci.Quantity,
			Price:       p.Price,
		})
		total += p.Price * float64(ci.Quantity)
	}

	order := ordersdomain.Order{
		ID:              s.nextOrderID,
		Items:           items,
		TotalAmount:     total,
		Status:          ordersdomain.StatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		OrderDate:       time.Now().UTC(),
	}
	s.nextOrderID++
	s.orders[order.ID] = order
	s.orderOwner[order.ID] = username
	if key != "" {
		s.seenKeys[key] = order.ID
	}
	s.log.Info("order placed", "order_id", order.ID, "user", username, "total", total)
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	var req struct {
		Status ordersdomain.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Known() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	order.Status = req.Status
	s.orders[id] = order
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ordersdomain.Order, 0)
	for id, owner := range s.orderOwner {
		if owner == username {
			out = append(out, s.orders[id])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	var sub feedbackdomain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := sub.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	fb := feedbackdomain.Feedback{
		ID:           s.nextFbID,
		Username:     username,
		ProductID:    sub.ProductID,
		Rating:       sub.Rating,
		Comment:      sub.Comment,
		FeedbackType: sub.FeedbackType,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextFbID++
	s.feedback = append(s.feedback, fb)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, fb)
}

func (s *Server) productFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feedbackdomain.Feedback, 0)
	for _, fb := range s.feedback {
		if fb.ProductID == id {
			out = append(out, fb)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
