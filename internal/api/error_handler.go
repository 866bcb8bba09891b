package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

// detailResponse is the error envelope for everything but field errors.
type detailResponse struct {
	Detail string `json:"detail"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps store and validation errors to their HTTP status codes.
//   - Renders field conflicts as {"<field>": ["<message>"]}.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var fe *memdb.FieldError
		if errors.As(err, &fe) {
			_ = c.JSON(http.StatusBadRequest, map[string][]string{fe.Field: {fe.Message}})
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, detailResponse{Detail: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, auth middleware).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return he.Code, "Not found."
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, reqErr.Message
	}

	if errors.Is(err, memdb.ErrNotFound) {
		return http.StatusNotFound, "Not found."
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "A server error occurred."
}
