package memdb

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/clientx/workspace-client/internal/core/domain"
)

// SeedAccount is a login created at startup.
type SeedAccount struct {
	Username string
	Password string
	Email    string
	Role     domain.Role
}

// DefaultSeed has one account per role, all with the password "password".
var DefaultSeed = []SeedAccount{
	{Username: "admin", Password: "password", Email: "admin@example.com", Role: domain.RoleAdmin},
	{Username: "manager", Password: "password", Email: "manager@example.com", Role: domain.RoleManager},
	{Username: "employee", Password: "password", Email: "employee@example.com", Role: domain.RoleEmployee},
	{Username: "client", Password: "password", Email: "client@example.com", Role: domain.RoleClient},
}

// Seed creates accounts, hashing each password with cost. A zero cost uses
// bcrypt.DefaultCost.
func (s *Store) Seed(ctx context.Context, accounts []SeedAccount, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Username, err)
		}
		if _, err := s.CreateAccount(ctx, Account{
			User:         domain.User{Username: a.Username, Email: a.Email, Role: a.Role},
			PasswordHash: string(hash),
		}); err != nil {
			return fmt.Errorf("seed %s: %w", a.Username, err)
		}
	}
	return nil
}
