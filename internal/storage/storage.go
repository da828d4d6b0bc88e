// Package storage defines the client-local keyed store that stands in for
// the browser's local storage. Values are opaque bytes; the callers store
// JSON documents under a small fixed set of keys.
package storage

import (
	"context"
	"errors"
)

// Keys mirror the local-storage keys of the original web client, so a
// file-backed store is byte-compatible with what the pages persisted.
const (
	KeyCart         = "cart"
	KeyToken        = "token"
	KeyUser         = "user"
	KeyPendingOrder = "pendingOrder"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence port shared by the cart, session and payment
// components. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
