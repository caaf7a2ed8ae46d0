package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"crono/internal/logger"
	"crono/internal/models"
	"crono/internal/service"

	"github.com/go-redis/redis/v8"
)

// Publisher fans queue updates out over a Redis pub/sub channel so every
// API instance can forward them to its own websocket subscribers.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) NotifyQueueUpdate(ctx context.Context, upd models.QueueUpdate) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("marshal queue update: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish queue update: %w", err)
	}
	return nil
}

// Relay subscribes to the channel and hands every update to a local notifier,
// usually the websocket hub.
type Relay struct {
	rdb     *redis.Client
	channel string
	target  service.Notifier
	l       logger.Logger
}

func NewRelay(rdb *redis.Client, channel string, target service.Notifier, l logger.Logger) *Relay {
	return &Relay{rdb: rdb, channel: channel, target: target, l: l}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.l.Infow(ctx, "Redis relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", r.channel)
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	var upd models.QueueUpdate
	if err := json.Unmarshal([]byte(payload), &upd); err != nil {
		r.l.Warnf(ctx, "broker.Relay.handle: drop malformed update: %v", err)
		return
	}
	if err := r.target.NotifyQueueUpdate(ctx, upd); err != nil {
		r.l.Warnf(ctx, "broker.Relay.handle: %v", err)
	}
}
