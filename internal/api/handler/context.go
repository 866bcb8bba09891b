package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/api/middleware"
	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

// currentUser returns the account injected by the Auth middleware. Its
// absence means the route was registered without Auth.
func currentUser(c echo.Context) (domain.User, error) {
	user, ok := c.Get(middleware.ContextUser).(domain.User)
	if !ok || user.ID == 0 {
		return domain.User{}, echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return user, nil
}

// isStaff reports whether the user manages projects and tasks.
func isStaff(u domain.User) bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleManager
}

// pathID parses the :id route parameter. Non-numeric ids do not match any
// record.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return id, nil
}

// bindValid binds the request body into v and runs the registered validator.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error")
	}
	return c.Validate(v)
}

// unknownUser returns the first id in ids with no account, DRF-style.
func unknownUser(ctx context.Context, store *memdb.Store, field string, ids []int64) *memdb.FieldError {
	for _, id := range ids {
		if _, err := store.User(ctx, id); err != nil {
			return &memdb.FieldError{Field: field, Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)}
		}
	}
	return nil
}
