package services

import "github.com/krosit/flota-api/internal/models"

// Actor identifies who performs an operation. Handlers build it once per
// request from the authenticated claims and pass it explicitly into every
// service call, so every audited mutation knows its author without any
// hidden request-global state.
type Actor struct {
	UserID *uint
	Email  string
	Role   string
	IP     string
}

// SystemActor is used by background jobs and startup tasks; it has no user.
func SystemActor() Actor {
	return Actor{Role: models.RoleAdmin}
}

// IsAdmin returns true for admin actors
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsStaff returns true for staff and admin actors
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleStaff || a.Role == models.RoleAdmin
}
