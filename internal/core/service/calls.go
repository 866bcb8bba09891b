package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// Backend paths, relative to the API base URL.
const (
	pathLogin         = "/users/login/"
	pathRegister      = "/users/register/"
	pathProfile       = "/users/profile/"
	pathTokenRefresh  = "/users/token/refresh/"
	pathPasswordReset = "/users/password-reset/"

	pathDashboard = "/admin-dashboard/"
	pathUsers     = "/admin-dashboard/users/"
	pathAllTasks  = "/admin-dashboard/tasks/"
	pathAnalytics = "/admin-dashboard/analytics/"

	pathProjects   = "/tasks/groups/"
	pathMyTasks    = "/tasks/my-tasks/"
	pathTaskCreate = "/tasks/create/"
)

func projectPath(id int64) string {
	return pathProjects + strconv.FormatInt(id, 10) + "/"
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10) + "/"
}

func notificationPath(role domain.Role) string {
	return "/notifications/" + role.Channel() + "/"
}

// caller issues gateway calls and reports refused credentials to the guard.
type caller struct {
	gw    ports.Gateway
	guard ports.SessionGuard
}

func (c caller) do(ctx context.Context, call ports.Call) (*ports.Reply, error) {
	reply, err := c.gw.Do(ctx, call)
	if err != nil {
		var reqErr *domain.RequestError
		if c.guard != nil && errors.As(err, &reqErr) && reqErr.Kind == domain.FailureAuthExpired {
			c.guard.CredentialRejected(ctx, reqErr.Credential)
		}
		return nil, err
	}
	return reply, nil
}

func (c caller) get(ctx context.Context, path string) (*ports.Reply, error) {
	return c.do(ctx, ports.Call{Method: http.MethodGet, Path: path})
}

func decode[T any](reply *ports.Reply, what string) (T, error) {
	var out T
	if err := json.Unmarshal(reply.Body, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

// validate runs v when one is configured.
func validate(v ports.Validator, payload any) error {
	if v == nil {
		return nil
	}
	return v.Validate(payload)
}
