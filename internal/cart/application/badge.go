package application

import (
	"context"
	"sync"

	"github.com/grocify/storefront/pkg/pubsub"
)

// Badge is the navigation cart-count view model: it re-reads the cart
// whenever a change signal arrives and serves the current item count.
type Badge struct {
	svc *Service

	mu    sync.RWMutex
	count int
}

func NewBadge(svc *Service) *Badge {
	return &Badge{svc: svc}
}

// Count returns the last computed item count.
func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Refresh recounts from the store immediately and returns the new count.
func (b *Badge) Refresh(ctx context.Context) int {
	n := b.svc.Items(ctx).ItemCount()
	b.mu.Lock()
	b.count = n
	b.mu.Unlock()
	return n
}

// Run refreshes on every cart-change event until ctx is cancelled.
func (b *Badge) Run(ctx context.Context, bus *pubsub.Bus) error {
	events, cancel := bus.Subscribe(pubsub.TopicCartChanged)
	defer cancel()

	b.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			b.Refresh(ctx)
		}
	}
}
