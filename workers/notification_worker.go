// Package workers runs the background consumers that drain the Redis queues
// populated by the services layer.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/services"
	"github.com/talenthubhq/talenthub/store"
)

// NotificationWorker pops events off the notification queue and writes them
// into the notifications table, where accounts read their feed.
type NotificationWorker struct {
	Redis *redis.Client
	Store store.Store
}

func NewNotificationWorker(rdb *redis.Client, st store.Store) *NotificationWorker {
	return &NotificationWorker{Redis: rdb, Store: st}
}

// Run blocks on the queue until ctx is cancelled. Malformed payloads are
// logged and dropped; store failures are logged and the event is lost rather
// than retried, the queue carries best-effort notifications only.
func (w *NotificationWorker) Run(ctx context.Context) {
	log.Println("Notification worker started, draining", services.NotificationQueue)

	for {
		if ctx.Err() != nil {
			log.Println("Notification worker stopping")
			return
		}

		res, err := w.Redis.BLPop(ctx, 5*time.Second, services.NotificationQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("Failed to pop notification event: %v", err)
			time.Sleep(time.Second)
			continue
		}
		// BLPop returns [key, value].
		if len(res) < 2 {
			continue
		}
		w.handle(ctx, []byte(res[1]))
	}
}

func (w *NotificationWorker) handle(ctx context.Context, payload []byte) {
	var ev services.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("Dropping malformed notification event: %v", err)
		return
	}
	if ev.AccountID == "" {
		log.Println("Dropping notification event without account_id")
		return
	}

	err := w.Store.CreateNotification(ctx, &db.Notification{
		AccountID: ev.AccountID,
		Kind:      ev.Kind,
		EntityID:  ev.EntityID,
		Message:   ev.Message,
		CreatedAt: ev.CreatedAt,
	})
	if err != nil {
		log.Printf("Failed to store notification for %s: %v", ev.AccountID, err)
		return
	}
	log.Printf("Delivered %s notification to %s", ev.Kind, ev.AccountID)
}
