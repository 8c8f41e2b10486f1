package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/events"
	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ExecutionEventTypes maps event type names to factories for decoding
// consumed messages.
func ExecutionEventTypes() map[string]func() eventbus.Event {
	return map[string]func() eventbus.Event{
		events.TypeStateChanged:        func() eventbus.Event { return &events.StateChanged{} },
		events.TypePaymentCompleted:    func() eventbus.Event { return &events.PaymentCompleted{} },
		events.TypePaymentFailed:       func() eventbus.Event { return &events.PaymentFailed{} },
		events.TypeRailFailedOver:      func() eventbus.Event { return &events.RailFailedOver{} },
		events.TypeCompensationFlagged: func() eventbus.Event { return &events.CompensationFlagged{} },
	}
}

// RedisEventBus implements eventbus.Bus on Redis Streams with a
// consumer group and a DLQ stream for poison messages.
type RedisEventBus struct {
	client        *redis.Client
	stream        string
	group         string
	typeFactories map[string]func() eventbus.Event
	logger        *slog.Logger
}

// NewWithRedis creates a Redis-backed event bus on the given stream
// and consumer group.
func NewWithRedis(
	client *redis.Client,
	stream, group string,
	types map[string]func() eventbus.Event,
	logger *slog.Logger,
) (*RedisEventBus, error) {
	if client == nil || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: client, stream, and group are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	bus := &RedisEventBus{
		client:        client,
		stream:        stream,
		group:         group,
		typeFactories: types,
		logger:        logger.With("bus", "redis"),
	}
	// Group may already exist; ignore the BUSYGROUP reply.
	_ = client.XGroupCreateMkStream(context.Background(), stream, group, "0")
	return bus, nil
}

// Emit publishes an event to the stream.
func (b *RedisEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal failed: %w", err)
	}
	env, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("redis event bus: envelope marshal failed: %w", err)
	}

	if _, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(env)},
	}).Result(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register starts a consumer for the stream and group, calling handler
// for each event of the given type.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	consumer := fmt.Sprintf("consumer-%s-%d", eventType, time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "consumer", consumer)

	go func() {
		ctx := context.Background()
		for {
			res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    b.group,
				Consumer: consumer,
				Streams:  []string{b.stream, ">"},
				Count:    1,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					b.logger.Error("error reading from stream",
						"error", err, "consumer", consumer)
				}
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range res {
				for _, msg := range stream.Messages {
					b.dispatch(ctx, eventType, handler, msg)
				}
			}
		}
	}()
}

func (b *RedisEventBus) dispatch(
	ctx context.Context,
	eventType string,
	handler eventbus.HandlerFunc,
	msg redis.XMessage,
) {
	defer func() {
		if err := b.client.XAck(ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message",
				"error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Error("failed to unmarshal envelope", "error", err)
		return
	}
	if env.Type != eventType {
		return
	}

	factory, ok := b.typeFactories[env.Type]
	if !ok {
		b.logger.Error("unknown event type", "event_type", env.Type)
		b.pushToDLQ(ctx, msg.Values)
		return
	}
	evt := factory()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		b.logger.Error("failed to unmarshal payload",
			"error", err, "event_type", env.Type)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered",
				"panic", r, "event_type", env.Type)
			b.pushToDLQ(ctx, msg.Values)
		}
	}()
	if err := handler(ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", env.Type)
		b.pushToDLQ(ctx, msg.Values)
	}
}

// pushToDLQ copies a poison message to the DLQ stream for inspection.
func (b *RedisEventBus) pushToDLQ(ctx context.Context, values map[string]any) {
	dlq := b.stream + "-DLQ"
	if _, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: dlq,
		Values: values,
	}).Result(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
	}
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
