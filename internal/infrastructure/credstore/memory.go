package credstore

import (
	"context"
	"sync"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// Memory keeps credentials in process memory. Nothing survives a restart;
// it backs tests and the "memory" backend.
type Memory struct {
	mu   sync.RWMutex
	cred domain.Credential
	role domain.Role
}

var _ ports.CredentialStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, cred domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred.AccessToken = cred.AccessToken
	if cred.RenewalToken != "" {
		m.cred.RenewalToken = cred.RenewalToken
	}
	return nil
}

func (m *Memory) Load(_ context.Context) (domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred, nil
}

func (m *Memory) SaveRole(_ context.Context, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = role
	return nil
}

func (m *Memory) Role(_ context.Context) (domain.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = domain.Credential{}
	m.role = ""
	return nil
}
