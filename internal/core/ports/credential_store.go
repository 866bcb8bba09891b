package ports

import (
	"context"

	"github.com/clientx/workspace-client/internal/core/domain"
)

// CredentialStore persists the credential pair and the cached role hint
// across process restarts. It performs no validation of token contents.
type CredentialStore interface {
	// Save overwrites the stored access credential. An empty renewal token
	// leaves any previously stored renewal token in place.
	Save(ctx context.Context, cred domain.Credential) error
	// Load returns the stored credential. A missing access token is not an
	// error: the returned credential simply reports Present() == false.
	Load(ctx context.Context) (domain.Credential, error)
	SaveRole(ctx context.Context, role domain.Role) error
	// Role returns the cached role hint, or "" when none is stored.
	Role(ctx context.Context) (domain.Role, error)
	// Clear removes the access token, renewal token and role hint.
	// Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
