package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/grocify/storefront/internal/cart/application"
	cartdomain "github.com/grocify/storefront/internal/cart/domain"
	"github.com/grocify/storefront/internal/storage"
	redisstore "github.com/grocify/storefront/internal/storage/redis"
	"github.com/grocify/storefront/pkg/pubsub"
)

func setupEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	env, err := Setup(ctx)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { env.Teardown(context.Background()) })
	return env
}

func TestRedisStoreRoundTrip(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	store := redisstore.New(env.Client, "it-session")

	_, err := store.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, storage.KeyCart, []byte(`[{"id":1,"quantity":2}]`)))
	raw, err := store.Get(ctx, storage.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"quantity":2}]`, string(raw))

	require.NoError(t, store.Delete(ctx, storage.KeyCart))
	_, err = store.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStorePrefixIsolation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	a := redisstore.New(env.Client, "session-a")
	b := redisstore.New(env.Client, "session-b")

	require.NoError(t, a.Set(ctx, storage.KeyToken, []byte("tok-a")))
	_, err := b.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// Two storefront processes share one redis session. A cart change made in
// the first is observed by the second's badge through the pub/sub bridge.
func TestCartChangePropagatesAcrossProcesses(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := slog.New(slog.DiscardHandler)

	store := redisstore.New(env.Client, "shared-session")

	busA := pubsub.NewBus()
	bridgeA := pubsub.NewBridge(log, env.Client, busA, "shared-session.events")
	svcA := cartapp.NewService(log, store, bridgeA)
	go func() { _ = bridgeA.Run(ctx) }()

	busB := pubsub.NewBus()
	bridgeB := pubsub.NewBridge(log, env.Client, busB, "shared-session.events")
	svcB := cartapp.NewService(log, store, bridgeB)
	go func() { _ = bridgeB.Run(ctx) }()

	badge := cartapp.NewBadge(svcB)
	go func() { _ = badge.Run(ctx, busB) }()

	events, stop := busB.Subscribe(pubsub.TopicCartChanged)
	defer stop()

	// The redis subscriptions come up asynchronously; keep nudging the
	// cart until a change event arrives on the other side's bus.
	deadline := time.After(15 * time.Second)
	var next int64 = 1
	received := false
	for !received {
		_, err := svcA.Add(ctx, cartdomain.Line{ProductID: next, Name: "probe", UnitPrice: 1}, 1)
		require.NoError(t, err)
		next++
		select {
		case ev := <-events:
			assert.Equal(t, pubsub.TopicCartChanged, ev.Topic)
			received = true
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("no cart change event crossed the bridge")
		}
	}

	assert.Eventually(t, func() bool { return badge.Count() > 0 }, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, len(svcA.Items(ctx)), len(svcB.Items(ctx)))
}
