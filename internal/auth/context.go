package auth

import "context"

type contextKey string

const (
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return context.WithValue(ctx, contextKeySubject, subject)
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	if role, ok := ctx.Value(contextKeyRole).(Role); ok {
		return role
	}
	return ""
}

// SubjectFromContext extracts subject from context. Requests that skipped
// authentication report "anonymous".
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return "anonymous"
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok && subject != "" {
		return subject
	}
	return "anonymous"
}
