package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/talenthubhq/talenthub/services"
	"github.com/talenthubhq/talenthub/store"
)

func TestHandleStoresEvent(t *testing.T) {
	mem := store.NewMemory()
	w := NewNotificationWorker(nil, mem)
	ctx := context.Background()

	payload, _ := json.Marshal(services.Event{
		AccountID: "acc-1",
		Kind:      "status_changed",
		EntityID:  "app-1",
		Message:   "Your application is now reviewed",
		CreatedAt: time.Now(),
	})
	w.handle(ctx, payload)

	rows, err := mem.ListNotifications(ctx, "acc-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Kind != "status_changed" || rows[0].Read {
		t.Errorf("notifications = %+v, want one unread status_changed", rows)
	}
}

func TestHandleDropsBadPayloads(t *testing.T) {
	mem := store.NewMemory()
	w := NewNotificationWorker(nil, mem)
	ctx := context.Background()

	w.handle(ctx, []byte("{not json"))
	w.handle(ctx, []byte(`{"kind":"x","message":"no recipient"}`))

	rows, err := mem.ListNotifications(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("stored %d notifications from bad payloads, want 0", len(rows))
	}
}
