package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

// NotificationHandler serves one /notifications/{channel}/ endpoint. The
// router restricts each channel to its roles.
type NotificationHandler struct {
	store   *memdb.Store
	cleared string
}

// NewNotificationHandler returns a handler answering mark-all-read with
// cleared.
func NewNotificationHandler(store *memdb.Store, cleared string) *NotificationHandler {
	return &NotificationHandler{store: store, cleared: cleared}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Notifications(c.Request().Context(), user.ID))
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	h.store.MarkAllRead(c.Request().Context(), user.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": h.cleared})
}
