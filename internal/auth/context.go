// Package auth carries the per-request caller identity. The middleware
// resolves it once from the JWT plus the user's profile; handlers pass it
// explicitly into services instead of re-checking roles ad hoc.
package auth

import (
	"fmt"

	"github.com/google/uuid"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/pkg/apperror"
)

type Context struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Roles  []entity.Role
}

func (c *Context) HasRole(role entity.Role) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c *Context) IsAdmin() bool {
	return c.HasRole(entity.RoleAdmin)
}

// RequireAuthenticated rejects a nil caller.
func RequireAuthenticated(actor *Context) error {
	if actor == nil || actor.UserID == uuid.Nil {
		return apperror.ErrUnauthenticated
	}
	return nil
}

// RequireRole is the single role policy check: admins pass everything.
func RequireRole(actor *Context, role entity.Role) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.HasRole(role) || actor.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: %s role required", apperror.ErrForbidden, role)
}

// RequireAdmin gates operations reserved for administrators. Admin is an
// explicit role granted at seed time or by another admin, never inferred
// from editor.
func RequireAdmin(actor *Context) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: admin access required", apperror.ErrForbidden)
}
