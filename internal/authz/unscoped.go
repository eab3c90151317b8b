package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/strandhq/strand/internal/log"
)

// unscopedKey is an unexported key type to prevent external forgery.
type unscopedKey struct{}

// unscopedInfo stores unscoped-access metadata.
type unscopedInfo struct {
	Reason    string
	Timestamp time.Time
	Principal Principal
}

// WithUnscoped creates a local unscoped-access context, disabling the
// implicit tenant filter of the store for operations run under it.
// Only Principal=System or Test is allowed to call.
// reason must be a stable audit identifier (e.g., "job-resolve-account", "audit-write").
func WithUnscoped(ctx context.Context, reason string) (context.Context, error) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return nil, fmt.Errorf("authz: WithUnscoped requires a principal in context")
	}

	if !p.IsSystem() && !p.IsTest() {
		return nil, fmt.Errorf("authz: WithUnscoped requires system or test principal, got %s", p.String())
	}

	info := unscopedInfo{
		Reason:    reason,
		Timestamp: time.Now(),
		Principal: p,
	}

	// Record audit log
	recordUnscopedAudit(ctx, info)

	return context.WithValue(ctx, unscopedKey{}, info), nil
}

// RunUnscoped executes an unscoped operation within a closure, limiting the
// bypass scope. Recommended over WithUnscoped to prevent the unscoped
// context from spreading along the call chain.
//
// Example usage:
//
//	account, err := authz.RunUnscoped(ctx, "job-resolve-account", func(ctx context.Context) (*model.Account, error) {
//	    return store.Accounts.GetBySlug(ctx, slug)
//	})
func RunUnscoped[T any](ctx context.Context, reason string, fn func(ctx context.Context) (T, error)) (T, error) {
	unscopedCtx, err := WithUnscoped(ctx, reason)
	if err != nil {
		var zero T
		return zero, err
	}

	return fn(unscopedCtx)
}

// GetUnscopedInfo retrieves current unscoped-access information.
// Used for audit and debugging.
func GetUnscopedInfo(ctx context.Context) (unscopedInfo, bool) {
	info, ok := ctx.Value(unscopedKey{}).(unscopedInfo)
	return info, ok
}

// IsUnscoped checks if the current context bypasses the tenant filter.
func IsUnscoped(ctx context.Context) bool {
	_, ok := ctx.Value(unscopedKey{}).(unscopedInfo)
	return ok
}

// unscopedAuditRecord represents an unscoped-access audit record.
type unscopedAuditRecord struct {
	Timestamp   time.Time
	Principal   string
	Reason      string
	Operation   string
	Description string
}

// auditLogger is the unscoped-access audit logger.
// Can be customized via SetAuditLogger.
var auditLogger func(ctx context.Context, record unscopedAuditRecord)

// SetAuditLogger sets a custom audit logger.
// If not set, default standard log output is used.
func SetAuditLogger(fn func(ctx context.Context, record unscopedAuditRecord)) {
	auditLogger = fn
}

// recordUnscopedAudit records the unscoped-access audit log.
func recordUnscopedAudit(ctx context.Context, info unscopedInfo) {
	record := unscopedAuditRecord{
		Timestamp:   info.Timestamp,
		Principal:   info.Principal.String(),
		Reason:      info.Reason,
		Operation:   "unscoped",
		Description: fmt.Sprintf("Tenant filter bypass triggered: reason=%s, principal=%s", info.Reason, info.Principal.String()),
	}

	if auditLogger != nil {
		auditLogger(ctx, record)
	} else {
		// Default uses standard log
		log.Debug(ctx, "authz: unscoped access",
			log.String("principal", record.Principal),
			log.String("reason", record.Reason),
			log.String("operation", record.Operation),
		)
	}
}
