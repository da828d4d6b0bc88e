package domain

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Known reports whether s is one of the statuses the backend accepts.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Item struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Order is a placed order as returned by the backend.
type Order struct {
	ID              int64     `json:"id"`
	Items           []Item    `json:"items"`
	TotalAmount     float64   `json:"totalAmount"`
	Status          Status    `json:"status"`
	ShippingAddress string    `json:"shippingAddress"`
	PaymentMethod   string    `json:"paymentMethod"`
	Notes           string    `json:"notes,omitempty"`
	OrderDate       time.Time `json:"orderDate"`
}

// Summary is the locally derived record of a placed order that drives the
// payment stage. TotalAmount is the cart subtotal at the moment of
// submission; it is never reconciled with the backend's figure. When
// persisted it lives under the pendingOrder storage key.
type Summary struct {
	OrderID         int64   `json:"orderId"`
	TotalAmount     float64 `json:"totalAmount"`
	ItemCount       int     `json:"itemCount"`
	ShippingAddress string  `json:"shippingAddress"`
	PaymentMethod   string  `json:"paymentMethod"`
}
