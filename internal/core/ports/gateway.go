package ports

import (
	"context"
	"net/url"
)

// Call describes one backend request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Anonymous calls are sent without the stored access credential, so a
	// 401 on them is a rejection rather than an expired session.
	Anonymous bool
}

// Reply is a successful (2xx) backend response.
type Reply struct {
	StatusCode int
	Body       []byte
	// Credential is the access credential the call carried, empty if none.
	Credential string
}

// Gateway is the single network entry point. Every failure is returned as a
// *domain.RequestError classified as rejected, not found, auth expired or
// transport. The gateway never retries and never touches stored credentials.
type Gateway interface {
	Do(ctx context.Context, call Call) (*Reply, error)
}
