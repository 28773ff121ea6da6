package notify

import (
	"context"
	"encoding/json"
	"fmt"

	model "auction-engine/internal/models"

	backend "github.com/redis/go-redis/v9"
)

// RedisDispatcher publishes events as JSON on Redis pub/sub channels:
// <channel>:<event type> and <channel>:auction:<auction id>.
type RedisDispatcher struct {
	client  *backend.Client
	channel string
}

type Option func(*RedisDispatcher)

// WithChannel sets the channel prefix.
func WithChannel(channel string) Option {
	return func(d *RedisDispatcher) {
		d.channel = channel
	}
}

// NewRedisDispatcher creates a dispatcher with its own client.
func NewRedisDispatcher(address, password string, db int, opts ...Option) *RedisDispatcher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisDispatcherFromClient(rdb, opts...)
}

// NewRedisDispatcherFromClient creates a dispatcher from an existing client.
func NewRedisDispatcherFromClient(client *backend.Client, opts ...Option) *RedisDispatcher {
	d := &RedisDispatcher{
		client:  client,
		channel: "auction-engine",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TypeChannel is the channel carrying every event of type t.
func (d *RedisDispatcher) TypeChannel(t model.EventType) string {
	return d.channel + ":" + string(t)
}

// AuctionChannel is the channel carrying every event of one auction.
func (d *RedisDispatcher) AuctionChannel(auctionID string) string {
	return d.channel + ":auction:" + auctionID
}

// Notify publishes the event on both channels in one round trip.
func (d *RedisDispatcher) Notify(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := d.client.Pipeline()
	pipe.Publish(ctx, d.TypeChannel(event.Type), data)
	pipe.Publish(ctx, d.AuctionChannel(event.AuctionID), data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event to redis: %w", err)
	}
	return nil
}

// Ping verifies the connection.
func (d *RedisDispatcher) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (d *RedisDispatcher) Close() error {
	return d.client.Close()
}
