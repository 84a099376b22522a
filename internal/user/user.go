// Package user defines the gateway's view of tenant user records and the
// lookup contract used to resolve an authenticated subject to a user.
package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user matches the subject within the tenant.
var ErrNotFound = errors.New("user not found")

// Roles a user can hold.
const (
	RoleAdmin      = "admin"
	RoleConsultant = "consultant"
)

// User is one row of a tenant's user table, as the gateway sees it.
type User struct {
	ID            string
	AuthSubjectID string
	Email         string
	Name          string
	Role          string
	TenantID      string
	Active        bool
}

// Directory resolves authenticated subjects to user records. Lookups are
// always scoped to a tenant; a subject known in tenant A must not resolve in
// tenant B.
type Directory interface {
	FindBySubject(ctx context.Context, tenantID, subjectID string) (*User, error)
}
