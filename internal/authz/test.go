package authz

import (
	"context"
)

// NewTestContext creates context with Test principal (only for test environment).
func NewTestContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{Type: PrincipalTypeTest})
}

// WithTestUnscoped creates context with Test principal and the tenant filter
// disabled. Used by tests that seed data across accounts.
func WithTestUnscoped(ctx context.Context) context.Context {
	unscopedCtx, _ := WithUnscoped(NewTestContext(ctx), "test")
	return unscopedCtx
}
