package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	ordersdomain "github.com/grocify/storefront/internal/orders/domain"
	"github.com/grocify/storefront/internal/payment/domain"
	"github.com/grocify/storefront/internal/storage"
)

var (
	ErrNoPendingOrder  = errors.New("payment: no order to pay for")
	ErrPaymentInFlight = errors.New("payment: a payment is already in flight")
	ErrAlreadyPaid     = errors.New("payment: order already paid")
)

// OrderAPI marks the order paid with the backend.
type OrderAPI interface {
	MarkPaid(ctx context.Context, orderID int64) error
}

// Stage drives one simulated payment for a placed order. There is no real
// gateway behind it: processing is a timed delay followed by the mark-paid
// call, exactly as the original storefront faked it. The status guard
// makes Pay non-reentrant, so at most one attempt per order is in flight.
type Stage struct {
	log   *slog.Logger
	api   OrderAPI
	store storage.Store
	delay time.Duration

	mu      sync.Mutex
	status  domain.Status
	method  domain.Method
	card    domain.CardDetails
	upi     domain.UPIDetails
	summary ordersdomain.Summary
}

// NewStage enters the payment stage for summary. delay is the simulated
// processing latency.
func NewStage(log *slog.Logger, api OrderAPI, store storage.Store, summary ordersdomain.Summary, delay time.Duration) *Stage {
	return &Stage{
		log:     log,
		api:     api,
		store:   store,
		delay:   delay,
		status:  domain.StatusDraft,
		method:  domain.MethodCard,
		summary: summary,
	}
}

// Resume reconstructs the stage from the persisted pending-order
// snapshot, for entry after a reload. An absent or unusable snapshot is
// ErrNoPendingOrder: there is nothing to pay for and the caller should
// navigate away.
func Resume(ctx context.Context, log *slog.Logger, api OrderAPI, store storage.Store, delay time.Duration) (*Stage, error) {
	raw, err := store.Get(ctx, storage.KeyPendingOrder)
	if err != nil {
		return nil, ErrNoPendingOrder
	}
	var summary ordersdomain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil || summary.OrderID == 0 {
		return nil, ErrNoPendingOrder
	}
	return NewStage(log, api, store, summary, delay), nil
}

func (s *Stage) Summary() ordersdomain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Stage) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Stage) Method() domain.Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// SelectMethod switches the active instrument form. Values entered for
// the other instrument are kept. Draft-only.
func (s *Stage) SelectMethod(m domain.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusDraft {
		return ErrPaymentInFlight
	}
	switch m {
	case domain.MethodCard, domain.MethodUPI:
		s.method = m
		return nil
	default:
		return &domain.ValidationError{Field: "method", Reason: "unknown payment method"}
	}
}

// SetCard records the card input. Draft-only.
func (s *Stage) SetCard(d domain.CardDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusDraft {
		return ErrPaymentInFlight
	}
	s.card = d
	return nil
}

// SetUPI records the UPI input. Draft-only.
func (s *Stage) SetUPI(d domain.UPIDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusDraft {
		return ErrPaymentInFlight
	}
	s.upi = d
	return nil
}

// Pay validates the active instrument, simulates processing and marks the
// order paid. A validation failure surfaces before any network call and
// leaves the attempt in draft. A backend failure or a cancelled ctx also
// returns the attempt to draft; retry is caller-initiated. Success
// deletes the pending-order snapshot.
func (s *Stage) Pay(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case domain.StatusValidating, domain.StatusSubmitting:
		s.mu.Unlock()
		return ErrPaymentInFlight
	case domain.StatusSucceeded:
		s.mu.Unlock()
		return ErrAlreadyPaid
	}
	s.status = domain.StatusValidating
	var err error
	switch s.method {
	case domain.MethodUPI:
		err = s.upi.Validate()
	default:
		err = s.card.Validate()
	}
	if err != nil {
		s.status = domain.StatusDraft
		s.mu.Unlock()
		return err
	}
	s.status = domain.StatusSubmitting
	summary := s.summary
	method := s.method
	s.mu.Unlock()

	// Simulated gateway latency. A cancelled ctx (navigation away)
	// abandons the attempt and reverts to draft.
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			s.revert()
			return ctx.Err()
		}
	}

	if err := s.api.MarkPaid(ctx, summary.OrderID); err != nil {
		s.revert()
		s.log.Error("mark paid failed", "order_id", summary.OrderID, "err", err)
		return err
	}

	if err := s.store.Delete(ctx, storage.KeyPendingOrder); err != nil {
		s.log.Error("pending order cleanup failed", "order_id", summary.OrderID, "err", err)
	}
	s.mu.Lock()
	s.status = domain.StatusSucceeded
	s.mu.Unlock()
	s.log.Info("payment captured", "order_id", summary.OrderID, "method", string(method))
	return nil
}

func (s *Stage) revert() {
	s.mu.Lock()
	s.status = domain.StatusDraft
	s.mu.Unlock()
}
