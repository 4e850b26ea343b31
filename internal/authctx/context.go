// Package authctx carries the caller identity supplied by the upstream
// identity gateway. The engine itself never authenticates; it only honors
// the capability and scope the gateway forwarded.
package authctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

type Caller struct {
	ID        snowflake.ID
	Role      Role
	TeacherID snowflake.ID
}

// CanManageLedger gates every mutating ledger operation.
func (c Caller) CanManageLedger() bool {
	return c.Role == RoleAdmin || c.Role == RoleTeacher
}

// ScopedTeacherID returns the teacher id the caller is restricted to, if any.
// Admin callers see every student.
func (c Caller) ScopedTeacherID() (snowflake.ID, bool) {
	if c.Role == RoleTeacher && c.TeacherID != 0 {
		return c.TeacherID, true
	}
	return 0, false
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
