package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Bridge mirrors bus traffic over redis pub/sub so separate storefront
// processes sharing a redis-backed store see each other's cart changes.
// It is kept distinct from the in-process Bus on purpose: local writers
// notify local readers through the Bus directly, and the Bridge only
// carries the optional cross-process fan-out.
type Bridge struct {
	log     *slog.Logger
	rdb     *goredis.Client
	bus     *Bus
	channel string
	origin  string
}

func NewBridge(log *slog.Logger, rdb *goredis.Client, bus *Bus, channel string) *Bridge {
	return &Bridge{log: log, rdb: rdb, bus: bus, channel: channel, origin: uuid.NewString()}
}

// Publish sends ev to the local bus first, then to the redis channel.
func (br *Bridge) Publish(ctx context.Context, ev Event) error {
	_ = br.bus.Publish(ctx, ev)
	ev.Origin = br.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return br.rdb.Publish(ctx, br.channel, payload).Err()
}

// Run consumes remote events and republishes them onto the local bus
// until ctx is cancelled.
func (br *Bridge) Run(ctx context.Context) error {
	sub := br.rdb.Subscribe(ctx, br.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			br.log.Info("pubsub bridge stopping", "channel", br.channel)
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				br.log.Error("pubsub bridge bad payload", "err", err)
				continue
			}
			if ev.Origin == br.origin {
				continue
			}
			_ = br.bus.Publish(ctx, ev)
		}
	}
}
