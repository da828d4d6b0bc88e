package domain

import (
	"fmt"
	"strings"
)

// Payment methods offered on the checkout form.
const (
	MethodCashOnDelivery = "CASH_ON_DELIVERY"
	MethodOnlinePayment  = "ONLINE_PAYMENT"
)

// State of the checkout orchestrator.
type State string

const (
	StateIdle       State = "idle"
	StateFormOpen   State = "form_open"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: invalid %s: %s", e.Field, e.Reason)
}

// Form is the transient checkout input. It lives only for the duration of
// the checkout interaction and is never persisted.
type Form struct {
	ShippingAddress string
	PaymentMethod   string
	Notes           string
}

func (f Form) Validate() error {
	if strings.TrimSpace(f.ShippingAddress) == "" {
		return &ValidationError{Field: "shippingAddress", Reason: "shipping address is required"}
	}
	switch f.PaymentMethod {
	case MethodCashOnDelivery, MethodOnlinePayment:
	default:
		return &ValidationError{Field: "paymentMethod", Reason: "unknown payment method"}
	}
	return nil
}

// DraftItem references a cart line in the order submission payload.
type DraftItem struct {
	ProductID int64
	Quantity  int
}

// Draft is the order submission built from the cart snapshot at submit
// time. The idempotency key is minted per draft so a backend can dedupe a
// retry after an ambiguous network failure.
type Draft struct {
	Items           []DraftItem
	ShippingAddress string
	PaymentMethod   string
	Notes           string
	IdempotencyKey  string
}
