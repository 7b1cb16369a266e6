// Package bus is the Redis pub/sub transport carrying telemetry into and out
// of the pipeline.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fleetsync/internal/config"
	"fleetsync/internal/domain"
)

const (
	// InboundChannel carries raw producer payloads into the pipeline.
	InboundChannel = "fleet:telemetry:in"
	// TelemetryChannel re-emits every accepted record to subscribers.
	TelemetryChannel = "fleet:telemetry"
	// AlertsChannel carries structured alert events.
	AlertsChannel = "fleet:alerts"
)

type RedisBus struct {
	client *redis.Client
}

func New(ctx context.Context, cfg *config.Config) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBus{client: client}, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Name() string { return "redis" }

// SubscribeInbound subscribes to the raw producer channel. The caller owns
// the returned PubSub and must Close it to stop delivery.
func (b *RedisBus) SubscribeInbound(ctx context.Context) *redis.PubSub {
	return b.client.Subscribe(ctx, InboundChannel)
}

// Forward copies message payloads onto out until msgs closes or ctx is
// cancelled, then closes out. The send races ctx so a full out channel can
// never wedge shutdown.
func Forward(ctx context.Context, msgs <-chan *redis.Message, out chan<- []byte) {
	defer close(out)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// PublishRaw puts a producer payload on the inbound channel. Used by the
// simulator and by anything else acting as a telemetry source.
func (b *RedisBus) PublishRaw(ctx context.Context, payload []byte) error {
	if err := b.client.Publish(ctx, InboundChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish inbound failed: %w", err)
	}
	return nil
}

func (b *RedisBus) PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal telemetry failed: %w", err)
	}
	if err := b.client.Publish(ctx, TelemetryChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish telemetry failed: %w", err)
	}
	return nil
}

func (b *RedisBus) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal alert failed: %w", err)
	}
	if err := b.client.Publish(ctx, AlertsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert failed: %w", err)
	}
	return nil
}
