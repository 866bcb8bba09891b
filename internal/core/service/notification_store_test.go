package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
)

func TestNotificationStore_ChannelFollowsRole(t *testing.T) {
	cases := map[domain.Role]string{
		domain.RoleAdmin:    "/notifications/admin/",
		domain.RoleManager:  "/notifications/manager/",
		domain.RoleClient:   "/notifications/employee/",
		domain.RoleEmployee: "/notifications/employee/",
		"guest":             "/notifications/employee/",
	}
	for role, path := range cases {
		gw := newStubGateway(nil)
		gw.reply(http.MethodGet, path, http.StatusOK, []map[string]any{{"id": 1, "title": "hi"}})
		s := NewNotificationStore(gw, nil, fixedRole(role), zerolog.Nop())

		if _, err := s.Load(context.Background()); err != nil {
			t.Fatalf("role %q: Load: %v", role, err)
		}
		if n := gw.callCount(http.MethodGet, path); n != 1 {
			t.Fatalf("role %q: expected a call to %s", role, path)
		}
		s.Close()
	}
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	gw := newStubGateway(nil)
	path := notificationPath(domain.RoleManager)
	gw.reply(http.MethodGet, path, http.StatusOK, []map[string]any{
		{"id": 1, "title": "a", "is_read": false},
		{"id": 2, "title": "b", "is_read": true},
		{"id": 3, "title": "c", "is_read": false},
	})
	s := NewNotificationStore(gw, nil, fixedRole(domain.RoleManager), zerolog.Nop())
	defer s.Close()
	_, _ = s.Load(context.Background())

	if s.Unread() != 2 {
		t.Fatalf("expected 2 unread, got %d", s.Unread())
	}

	gw.reply(http.MethodPost, path, http.StatusBadGateway, nil)
	if err := s.MarkAllRead(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if s.Unread() != 2 {
		t.Fatalf("failed mark-all-read changed local state")
	}

	gw.reply(http.MethodPost, path, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if s.Unread() != 0 {
		t.Fatalf("expected all read, got %d unread", s.Unread())
	}
}

func TestStores_RefusedCredentialEndsSession(t *testing.T) {
	session, gw, creds := newTestSession(t)
	_ = creds.Save(context.Background(), domain.Credential{AccessToken: "tok"})
	gw.reply(http.MethodGet, pathProfile, http.StatusOK, profile(3, "emma", "client"))
	if _, err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	notes := NewNotificationStore(gw, session, session, zerolog.Nop())
	defer notes.Close()
	gw.reply(http.MethodGet, notificationPath(domain.RoleEmployee), http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})

	if _, err := notes.Load(context.Background()); err == nil {
		t.Fatalf("expected the load to fail")
	}
	if session.Snapshot().State != domain.StateAnonymous {
		t.Fatalf("expected the refused credential to end the session")
	}
	if cred, _ := creds.Load(context.Background()); cred.Present() {
		t.Fatalf("expected credential cleared")
	}
}

func TestCaller_ReportsOnlyAuthExpired(t *testing.T) {
	gw := newStubGateway(nil)
	_ = gw.creds.Save(context.Background(), domain.Credential{AccessToken: "tok"})
	gw.reply(http.MethodGet, "/a/", http.StatusUnauthorized, nil)
	gw.reply(http.MethodGet, "/b/", http.StatusForbidden, nil)
	guard := &recordingGuard{}
	c := caller{gw: gw, guard: guard}

	_, _ = c.get(context.Background(), "/b/")
	_, _ = c.get(context.Background(), "/a/")

	if len(guard.rejected) != 1 || guard.rejected[0] != "tok" {
		t.Fatalf("expected one refusal of tok, got %v", guard.rejected)
	}
}
