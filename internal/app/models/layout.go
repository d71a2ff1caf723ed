package models

import "github.com/a-h/templ"

// User is the identity decoded from the access token.
type User struct {
	ID    string
	Email string
	Name  string
	Role  string
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName falls back to the email when the token carries no name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type NavItem struct {
	Name string
	URL  string
	Icon string
}

type Navigation struct {
	Items []NavItem
}

type SidebarSection struct {
	Title string
	Items []NavItem
}

type Breadcrumb struct {
	Label string
	URL   string
}

type Flash struct {
	Kind    string
	Message string
}

type HealthBadge struct {
	Up      bool
	Checked bool
	Detail  string
}

type LayoutTempl struct {
	Title       string
	User        *User
	Nav         Navigation
	ActiveNav   string
	Sidebar     []SidebarSection
	ActiveItem  string
	Breadcrumbs []Breadcrumb
	Flashes     []Flash
	Health      HealthBadge
	Content     templ.Component
}

var MainNav = Navigation{
	Items: []NavItem{
		{Name: "Dashboard", URL: "/dashboard"},
		{Name: "Tools", URL: "/tools"},
		{Name: "Workbench", URL: "/workbench"},
		{Name: "Settings", URL: "/settings"},
	},
}

var AdminNavItem = NavItem{Name: "CMS", URL: "/cms"}

var OfflineNav = Navigation{
	Items: []NavItem{
		{Name: "About", URL: "/about"},
		{Name: "Sign in", URL: "/auth/signin"},
		{Name: "Sign up", URL: "/auth/signup"},
	},
}
