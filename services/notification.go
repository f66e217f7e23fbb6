package services

import (
	"context"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

// NotificationService exposes an account's delivered notifications. An
// account only ever sees its own feed.
type NotificationService struct {
	Store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{Store: st}
}

func (s *NotificationService) List(ctx context.Context, p authz.Principal, limit int) ([]db.Notification, error) {
	if !p.Active() {
		return nil, authz.Forbidden("notification", authz.ActionRead, "account is not active")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Store.ListNotifications(ctx, p.ID, limit)
}

// MarkRead flags one of the principal's own notifications as read. Ownership
// is enforced by the store, so a foreign id is indistinguishable from a
// missing one.
func (s *NotificationService) MarkRead(ctx context.Context, p authz.Principal, id string) error {
	if !p.Active() {
		return authz.Forbidden("notification", authz.ActionUpdate, "account is not active")
	}
	return s.Store.MarkNotificationRead(ctx, id, p.ID)
}
