package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// NotificationStore caches the notifications of the current role's channel.
// Notifications are never created or edited individually by the client.
type NotificationStore struct {
	*resourceStore[domain.Notification]
	roles ports.RoleSource
}

func NewNotificationStore(gw ports.Gateway, guard ports.SessionGuard, roles ports.RoleSource, log zerolog.Logger) *NotificationStore {
	return &NotificationStore{
		resourceStore: newResourceStore[domain.Notification](gw, guard, "notification", log),
		roles:         roles,
	}
}

// Load replaces the collection with the channel's notifications.
func (s *NotificationStore) Load(ctx context.Context) ([]domain.Notification, error) {
	return s.load(ctx, s.channelPath(), nil)
}

// MarkAllRead marks every notification in the channel read on the backend,
// then flips the held records.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	gen := s.currentGeneration()
	if _, err := s.api.do(ctx, ports.Call{Method: http.MethodPost, Path: s.channelPath()}); err != nil {
		s.countMutation("mark_read", err)
		return err
	}
	s.apply(gen, func(items []domain.Notification) []domain.Notification {
		for i := range items {
			items[i].IsRead = true
		}
		return items
	})
	s.countMutation("mark_read", nil)
	return nil
}

// Unread counts the held notifications not yet read.
func (s *NotificationStore) Unread() int {
	n := 0
	for _, item := range s.Items() {
		if !item.IsRead {
			n++
		}
	}
	return n
}

func (s *NotificationStore) channelPath() string {
	role := domain.RoleEmployee
	if s.roles != nil {
		role = s.roles.CurrentRole()
	}
	return notificationPath(role)
}
