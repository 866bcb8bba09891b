package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clientx/workspace-client/internal/api/middleware"
	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

type AuthHandler struct {
	store  *memdb.Store
	issuer *middleware.Issuer
	log    zerolog.Logger
}

func NewAuthHandler(store *memdb.Store, issuer *middleware.Issuer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{store: store, issuer: issuer, log: log.With().Str("component", "auth_handler").Logger()}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type registerResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

// Login exchanges a username and password for an access and refresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error")
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"non_field_errors": {"Username and password are required."}})
	}

	acc, err := h.store.AccountByUsername(c.Request().Context(), req.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "No active account found with the given credentials")
	}

	access, refresh, err := h.issuer.Pair(acc.ID)
	if err != nil {
		return err
	}
	h.log.Info().Str("username", acc.Username).Msg("login")
	return c.JSON(http.StatusOK, tokenResponse{Access: access, Refresh: refresh})
}

// Refresh issues a new access token for a valid refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error")
	}
	claims, err := h.issuer.Parse(req.Refresh, middleware.TokenRefresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid or expired")
	}
	if _, err := h.store.User(c.Request().Context(), claims.UserID); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid or expired")
	}
	access, err := h.issuer.Access(claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Access: access})
}

// Register creates an account. Managers may only create employees.
func (h *AuthHandler) Register(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var reg domain.Registration
	if err := bindValid(c, &reg); err != nil {
		return err
	}
	if actor.Role == domain.RoleManager || reg.Role == "" {
		reg.Role = domain.RoleEmployee
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := h.store.CreateAccount(c.Request().Context(), memdb.Account{
		User: domain.User{
			Username:   reg.Username,
			Email:      reg.Email,
			FirstName:  reg.FirstName,
			LastName:   reg.LastName,
			Role:       reg.Role,
			Phone:      reg.Phone,
			Company:    reg.Company,
			Department: reg.Department,
		},
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	h.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Str("by", actor.Username).Msg("account created")
	return c.JSON(http.StatusCreated, registerResponse{Message: "User created successfully", User: user})
}

// PasswordReset answers the same way whether or not the address is known.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	for _, u := range h.store.Users(c.Request().Context()) {
		if strings.EqualFold(u.Email, req.Email) {
			h.log.Info().Int64("user_id", u.ID).Msg("password reset requested")
			break
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "If email exists, reset link sent"})
}

func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies the fields present in the patch to the caller's
// account. The role cannot be changed here.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var patch domain.ProfilePatch
	if err := bindValid(c, &patch); err != nil {
		return err
	}
	var hash []byte
	if patch.Password != nil {
		if hash, err = bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost); err != nil {
			return err
		}
	}

	updated, err := h.store.UpdateAccount(c.Request().Context(), user.ID, func(acc *memdb.Account) {
		setIf(&acc.Email, patch.Email)
		setIf(&acc.FirstName, patch.FirstName)
		setIf(&acc.LastName, patch.LastName)
		setIf(&acc.Phone, patch.Phone)
		setIf(&acc.Company, patch.Company)
		setIf(&acc.Department, patch.Department)
		if hash != nil {
			acc.PasswordHash = string(hash)
		}
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
