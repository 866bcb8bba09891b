package domain

// Role is the closed set of roles the backend assigns to a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
)

// ParseRole maps an arbitrary string onto the closed role set. Anything the
// client does not recognise (including the empty string) becomes employee,
// the most restrictive role.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleClient, RoleEmployee:
		return r
	default:
		return RoleEmployee
	}
}

// Known reports whether r is one of the four backend roles.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleClient, RoleEmployee:
		return true
	}
	return false
}

// Channel returns the notification endpoint segment for the role.
// Clients share the employee channel.
func (r Role) Channel() string {
	switch ParseRole(string(r)) {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	default:
		return "employee"
	}
}

// User is the authenticated actor as reported by the profile endpoint.
// It is immutable for the lifetime of a session.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Role       Role   `json:"role"`
	Phone      string `json:"phone,omitempty"`
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
}

// Credential is the access/renewal token pair. Both values are opaque.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RenewalToken string `json:"refresh_token,omitempty"`
}

// Present reports whether an access credential is held.
func (c Credential) Present() bool {
	return c.AccessToken != ""
}

// Registration is the payload for creating a new account.
type Registration struct {
	Username   string `json:"username" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       Role   `json:"role,omitempty" validate:"omitempty,oneof=admin manager client employee"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
}

// ProfilePatch carries the fields a user may change on their own profile.
// Nil fields are omitted from the request.
type ProfilePatch struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Company    *string `json:"company,omitempty"`
	Department *string `json:"department,omitempty"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=6"`
}
