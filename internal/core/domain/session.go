package domain

// SessionState is the position of the session lifecycle.
//
//	Unresolved → Restoring → Authenticated | Anonymous
type SessionState int

const (
	StateUnresolved SessionState = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// SessionSnapshot is an immutable view of the session published to observers.
// User is non-nil only in StateAuthenticated.
type SessionSnapshot struct {
	State   SessionState
	User    *User
	Loading bool
}

// Role returns the session role, or employee when anonymous.
func (s SessionSnapshot) Role() Role {
	if s.User == nil {
		return RoleEmployee
	}
	return ParseRole(string(s.User.Role))
}

// Navigation resolves the role-gated menu for the snapshot.
func (s SessionSnapshot) Navigation() Navigation {
	return NavigationFor(s.Role())
}

// EntryPath is where a visitor arriving at the generic entry point is sent.
// It is empty while the session is still being restored.
func (s SessionSnapshot) EntryPath() string {
	switch {
	case s.Loading || s.State == StateUnresolved:
		return ""
	case s.User == nil:
		return LoginPath
	default:
		return s.Navigation().LandingPath
	}
}
