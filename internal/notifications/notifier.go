// Package notifications delivers reader activity to connected admin dashboards.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/redis/go-redis/v9"
)

// AdminActivityChannel carries every comment and like event as JSON.
const AdminActivityChannel = "activity:admin"

// Notifier publishes activity events into Redis so every API instance can
// forward them to its own websocket clients. Without Redis, events are handed
// straight to the local subscriber.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(channel, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends activity to the admin channel.
func (n *Notifier) Publish(ctx context.Context, activity models.Activity) error {
	payload, err := json.Marshal(Envelope{Type: "activity", Payload: activity})
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	return n.publish(ctx, AdminActivityChannel, string(payload))
}

func (n *Notifier) publish(ctx context.Context, channel, payload string) error {
	if n.rdb == nil {
		n.mu.RLock()
		local := n.local
		n.mu.RUnlock()
		if local != nil {
			deliver(local, channel, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// Envelope is the frame written to websocket clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StartSubscriber calls onMessage for every event on the admin channel until
// ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		n.mu.Lock()
		n.local = onMessage
		n.mu.Unlock()
		go func() {
			<-ctx.Done()
			n.mu.Lock()
			n.local = nil
			n.mu.Unlock()
		}()
		return nil
	}

	sub := n.rdb.Subscribe(ctx, AdminActivityChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", AdminActivityChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(onMessage, msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}

func deliver(onMessage func(channel, payload string), channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in activity subscriber",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	onMessage(channel, payload)
}
