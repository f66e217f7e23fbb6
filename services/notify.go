package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// NotificationQueue is the Redis list the worker drains.
const NotificationQueue = "notifications:queue"

// Event is one queued notification: who to tell, about what, and why.
type Event struct {
	AccountID string    `json:"account_id"`
	Kind      string    `json:"kind"` // "application_received", "status_changed", "interview_scheduled"
	EntityID  string    `json:"entity_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier pushes events onto the Redis queue for asynchronous delivery.
// Publishing is fire-and-forget: a queue failure is logged, never bubbled up
// into the mutation that triggered it.
type Notifier struct {
	Redis *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{Redis: rdb}
}

// Publish enqueues one event. A nil Redis client disables delivery, which
// tests rely on.
func (n *Notifier) Publish(ctx context.Context, ev Event) {
	if n == nil || n.Redis == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal notification event: %v", err)
		return
	}
	if err := n.Redis.RPush(ctx, NotificationQueue, b).Err(); err != nil {
		log.Printf("Failed to enqueue notification for %s: %v", ev.AccountID, err)
	}
}
