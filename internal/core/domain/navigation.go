package domain

// MenuEntry is a single navigation item visible to a role.
type MenuEntry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Navigation is the landing view and menu for a role.
type Navigation struct {
	Role        Role        `json:"role"`
	LandingPath string      `json:"landing_path"`
	Menu        []MenuEntry `json:"menu"`
}

// LoginPath is where an anonymous visitor is sent.
const LoginPath = "/login"

var navigationTable = map[Role]Navigation{
	RoleAdmin: {
		Role:        RoleAdmin,
		LandingPath: "/admin",
		Menu: []MenuEntry{
			{Path: "/admin", Label: "Dashboard"},
			{Path: "/admin/users", Label: "Users"},
			{Path: "/projects", Label: "Projects"},
			{Path: "/tasks", Label: "Tasks"},
			{Path: "/notifications", Label: "Notifications"},
			{Path: "/reports", Label: "Reports"},
		},
	},
	RoleManager: {
		Role:        RoleManager,
		LandingPath: "/manager",
		Menu: []MenuEntry{
			{Path: "/manager", Label: "Dashboard"},
			{Path: "/projects", Label: "Projects"},
			{Path: "/tasks", Label: "Tasks"},
			{Path: "/notifications", Label: "Notifications"},
		},
	},
	RoleClient: {
		Role:        RoleClient,
		LandingPath: "/client",
		Menu: []MenuEntry{
			{Path: "/client", Label: "Dashboard"},
			{Path: "/projects", Label: "My Projects"},
			{Path: "/tasks", Label: "My Tasks"},
			{Path: "/notifications", Label: "Notifications"},
		},
	},
	RoleEmployee: {
		Role:        RoleEmployee,
		LandingPath: "/employee",
		Menu: []MenuEntry{
			{Path: "/employee", Label: "Dashboard"},
			{Path: "/tasks", Label: "My Tasks"},
			{Path: "/notifications", Label: "Notifications"},
		},
	},
}

// NavigationFor returns the landing path and menu for role. Unrecognised
// roles get the employee entry set. The returned menu is a fresh copy.
func NavigationFor(role Role) Navigation {
	nav, ok := navigationTable[role]
	if !ok {
		nav = navigationTable[RoleEmployee]
	}
	menu := make([]MenuEntry, len(nav.Menu))
	copy(menu, nav.Menu)
	nav.Menu = menu
	return nav
}

// Allows reports whether path is one of the menu entries of n.
func (n Navigation) Allows(path string) bool {
	for _, e := range n.Menu {
		if e.Path == path {
			return true
		}
	}
	return false
}
