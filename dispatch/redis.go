package dispatch

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/go-broadcast/wsrooms"
)

// Redis relays events over a redis pub/sub channel. Every instance
// subscribed to the same channel mirrors the others' broadcasts.
type Redis struct {
	rdb      *redis.Client
	channel  string
	origin   string
	log      *zap.Logger
	callback func(wsrooms.Event)
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, addr, channel string, log *zap.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Redis{
		rdb:     rdb,
		channel: channel,
		origin:  xid.New().String(),
		log:     log,
	}, nil
}

// Dispatch publishes the event for other instances to pick up.
func (d *Redis) Dispatch(e wsrooms.Event) {
	raw, err := encodeEvent(d.origin, e)
	if err != nil {
		d.log.Debug("event encode failed", zap.Error(err))
		return
	}

	if err := d.rdb.Publish(context.Background(), d.channel, raw).Err(); err != nil {
		d.log.Debug("redis publish failed", zap.String("room", e.Room), zap.Error(err))
	}
}

// Received stores the callback invoked for events consumed in Run.
func (d *Redis) Received(callback func(e wsrooms.Event)) {
	d.callback = callback
}

// Run consumes events published by other instances until ctx is done.
// Events published by this instance are skipped.
func (d *Redis) Run(ctx context.Context) {
	pubsub := d.rdb.Subscribe(ctx, d.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			origin, e, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				d.log.Debug("bad event payload", zap.Error(err))
				continue
			}

			if origin == d.origin || d.callback == nil {
				continue
			}

			d.callback(e)
		}
	}
}

// Close shuts down the redis connection.
func (d *Redis) Close() error {
	return d.rdb.Close()
}
