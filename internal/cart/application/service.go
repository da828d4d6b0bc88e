package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/grocify/storefront/internal/cart/domain"
	"github.com/grocify/storefront/internal/storage"
	"github.com/grocify/storefront/pkg/pubsub"
)

// Service owns all reads and writes of the persisted cart. The persisted
// document is the single source of truth: every read parses it fresh, and
// every successful write publishes a change signal before returning.
type Service struct {
	log   *slog.Logger
	store storage.Store
	pub   Publisher
}

func NewService(log *slog.Logger, store storage.Store, pub Publisher) *Service {
	return &Service{log: log, store: store, pub: pub}
}

// Items returns the cart parsed fresh from the store. An absent or
// malformed document is an empty cart, never an error.
func (s *Service) Items(ctx context.Context) domain.Cart {
	raw, err := s.store.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("cart read failed", "err", err)
		}
		return nil
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		s.log.Warn("discarding malformed cart document", "err", err)
		return nil
	}
	return c
}

// Add increments the quantity of an existing line or appends a new one.
func (s *Service) Add(ctx context.Context, line domain.Line, quantity int) (domain.Cart, error) {
	c := s.Items(ctx).AddOrIncrement(line, quantity)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetQuantity sets a line's quantity exactly; zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	c := s.Items(ctx).SetQuantity(productID, quantity)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes a line.
func (s *Service) Remove(ctx context.Context, productID int64) (domain.Cart, error) {
	c := s.Items(ctx).Remove(productID)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties the cart. Called once, after a successful order placement.
func (s *Service) Clear(ctx context.Context) error {
	return s.persist(ctx, domain.Cart{})
}

func (s *Service) persist(ctx context.Context, c domain.Cart) error {
	if c == nil {
		c = domain.Cart{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, storage.KeyCart, raw); err != nil {
		return err
	}
	// Signal after the persist completes, before returning to the caller.
	if err := s.pub.Publish(ctx, pubsub.Event{Topic: pubsub.TopicCartChanged}); err != nil {
		s.log.Error("cart change publish failed", "err", err)
	}
	return nil
}
