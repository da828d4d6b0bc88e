package application

import (
	"context"

	"github.com/grocify/storefront/pkg/pubsub"
)

// Publisher carries the cart-change signal. Satisfied by pubsub.Bus and
// by the redis bridge when cross-process fan-out is enabled.
type Publisher interface {
	Publish(ctx context.Context, ev pubsub.Event) error
}
