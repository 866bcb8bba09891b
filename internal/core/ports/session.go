package ports

import (
	"context"

	"github.com/clientx/workspace-client/internal/core/domain"
)

// SessionGuard is notified when the backend refuses a credential. The
// credential argument is the exact token that was sent, so a guard can
// ignore refusals of tokens it has already discarded.
type SessionGuard interface {
	CredentialRejected(ctx context.Context, credential string)
}

// RoleSource resolves the role of the current session.
type RoleSource interface {
	CurrentRole() domain.Role
}

// Validator checks a payload before it is sent to the backend.
type Validator interface {
	Validate(v any) error
}
