package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/clientx/workspace-client/internal/api/middleware"
	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
	"github.com/clientx/workspace-client/internal/pkg/validation"
)

// fixture is a store holding one account per role.
type fixture struct {
	store *memdb.Store

	admin, manager, employee, client domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memdb.New()
	f := &fixture{store: store}
	f.admin = addAccount(t, store, "root", domain.RoleAdmin)
	f.manager = addAccount(t, store, "mia", domain.RoleManager)
	f.employee = addAccount(t, store, "eve", domain.RoleEmployee)
	f.client = addAccount(t, store, "carl", domain.RoleClient)
	return f
}

func addAccount(t *testing.T, store *memdb.Store, username string, role domain.Role) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := store.CreateAccount(context.Background(), memdb.Account{
		User:         domain.User{Username: username, Email: username + "@example.com", Role: role},
		PasswordHash: string(hash),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return u
}

// newContext builds an echo context for a JSON request made by user. A zero
// user means an anonymous request. id, when non-empty, is the :id parameter.
func newContext(method, target, body string, user domain.User, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validation.New()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user.ID != 0 {
		c.Set(middleware.ContextUser, user)
		c.Set(middleware.ContextRole, string(user.Role))
	}
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %T %v", err, err)
	}
	return he.Code
}

func fieldErr(t *testing.T, err error) *memdb.FieldError {
	t.Helper()
	var fe *memdb.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *memdb.FieldError, got %T %v", err, err)
	}
	return fe
}
