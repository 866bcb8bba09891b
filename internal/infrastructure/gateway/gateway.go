// Package gateway is the single network entry point to the backend. It
// attaches the stored access credential to every non-anonymous call and
// classifies each response as success, rejection, not found, expired
// authentication or transport failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
	"github.com/clientx/workspace-client/internal/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 4 << 20

	HeaderRequestID = "X-Request-ID"
)

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client. Its Timeout is left as is.
	HTTPClient *http.Client
}

// Gateway implements ports.Gateway over net/http.
type Gateway struct {
	baseURL string
	client  *http.Client
	creds   ports.CredentialStore
	log     zerolog.Logger
}

var _ ports.Gateway = (*Gateway)(nil)

// New builds a Gateway reading credentials from creds.
func New(cfg Config, creds ports.CredentialStore, log zerolog.Logger) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{
		baseURL: base,
		client:  client,
		creds:   creds,
		log:     log.With().Str("component", "gateway").Logger(),
	}, nil
}

// Do performs call. On 2xx it returns the reply; otherwise it returns a
// *domain.RequestError.
func (g *Gateway) Do(ctx context.Context, call ports.Call) (*ports.Reply, error) {
	var token string
	if !call.Anonymous {
		token = g.accessToken(ctx)
	}
	requestID := uuid.NewString()

	requestURL := g.baseURL + call.Path
	if len(call.Query) > 0 {
		requestURL += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode %s %s body: %w", call.Method, call.Path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build %s %s: %w", call.Method, call.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(call.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, g.fail(call, requestID, &domain.RequestError{
			Kind:       domain.FailureTransport,
			Message:    domain.TransportMessage,
			Credential: token,
			Cause:      err,
		})
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, g.fail(call, requestID, &domain.RequestError{
			Kind:       domain.FailureTransport,
			StatusCode: resp.StatusCode,
			Message:    domain.TransportMessage,
			Credential: token,
			Cause:      err,
		})
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.GatewayRequestsTotal.WithLabelValues(call.Method, "success").Inc()
		g.log.Debug().
			Str("method", call.Method).
			Str("path", call.Path).
			Int("status", resp.StatusCode).
			Str("request_id", requestID).
			Dur("elapsed", time.Since(start)).
			Msg("backend call succeeded")
		return &ports.Reply{StatusCode: resp.StatusCode, Body: payload, Credential: token}, nil
	}

	return nil, g.fail(call, requestID, &domain.RequestError{
		Kind:       classify(resp.StatusCode, token != ""),
		StatusCode: resp.StatusCode,
		Message:    extractMessage(resp.StatusCode, payload),
		Credential: token,
	})
}

func (g *Gateway) accessToken(ctx context.Context) string {
	if g.creds == nil {
		return ""
	}
	cred, err := g.creds.Load(ctx)
	if err != nil {
		// An unreadable store is treated as "no credential".
		g.log.Warn().Err(err).Msg("credential store unreadable, sending unauthenticated")
		return ""
	}
	return cred.AccessToken
}

func (g *Gateway) fail(call ports.Call, requestID string, reqErr *domain.RequestError) error {
	metrics.GatewayRequestsTotal.WithLabelValues(call.Method, reqErr.Kind.String()).Inc()

	ev := g.log.Debug()
	if reqErr.Kind == domain.FailureTransport {
		ev = g.log.Warn().Err(reqErr.Cause)
	}
	ev.Str("method", call.Method).
		Str("path", call.Path).
		Int("status", reqErr.StatusCode).
		Str("outcome", reqErr.Kind.String()).
		Str("request_id", requestID).
		Msg("backend call failed")
	return reqErr
}

// classify maps a non-2xx status onto the failure taxonomy. A 401 only means
// the credential expired when one was actually sent.
func classify(status int, authenticated bool) domain.FailureKind {
	switch {
	case status == http.StatusUnauthorized && authenticated:
		return domain.FailureAuthExpired
	case status == http.StatusNotFound:
		return domain.FailureNotFound
	default:
		return domain.FailureRejected
	}
}

// extractMessage pulls the human-readable reason out of a rejection body.
// Recognised shapes, in order: {"detail"}, {"message"}, {"error"},
// {"non_field_errors": [...]}, {"<field>": [...]}, ["..."].
func extractMessage(status int, body []byte) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = fmt.Sprintf("request failed with status %d", status)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fallback
	}

	switch v := decoded.(type) {
	case map[string]any:
		for _, key := range []string{"detail", "message", "error"} {
			if msg := firstString(v[key]); msg != "" {
				return msg
			}
		}
		if msg := firstString(v["non_field_errors"]); msg != "" {
			return msg
		}
		fields := make([]string, 0, len(v))
		for k := range v {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if msg := firstString(v[field]); msg != "" {
				return field + ": " + msg
			}
		}
	case []any:
		if msg := firstString(v); msg != "" {
			return msg
		}
	case string:
		if v != "" {
			return v
		}
	}
	return fallback
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}
