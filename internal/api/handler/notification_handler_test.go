package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/clientx/workspace-client/internal/core/domain"
)

func TestNotificationHandler_ListAndMarkAllRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Notify(ctx, f.employee.ID, domain.Notification{Title: "first"})
	f.store.Notify(ctx, f.employee.ID, domain.Notification{Title: "second"})
	f.store.Notify(ctx, f.client.ID, domain.Notification{Title: "not yours"})
	h := NewNotificationHandler(f.store, "All notifications marked as read")

	c, rec := newContext(http.MethodGet, "/api/notifications/employee/", "", f.employee, "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	notes := decodeBody[[]domain.Notification](t, rec)
	if len(notes) != 2 || notes[0].Title != "second" {
		t.Fatalf("expected own notifications newest first, got %+v", notes)
	}

	c, rec = newContext(http.MethodPost, "/api/notifications/employee/", "", f.employee, "")
	if err := h.MarkAllRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decodeBody[map[string]string](t, rec); resp["message"] != "All notifications marked as read" {
		t.Fatalf("unexpected response %+v", resp)
	}
	for _, n := range f.store.Notifications(ctx, f.employee.ID) {
		if !n.IsRead {
			t.Fatalf("expected %q read", n.Title)
		}
	}
	if f.store.Notifications(ctx, f.client.ID)[0].IsRead {
		t.Fatalf("expected other users' notifications untouched")
	}
}
