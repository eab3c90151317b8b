package contexts

import (
	"context"

	"github.com/strandhq/strand/internal/model"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithFreshCarrier installs a new, empty container in the context. Boundary
// adapters call this once per unit of work so that concurrent units never
// share carrier state.
func WithFreshCarrier(ctx context.Context) context.Context {
	return context.WithValue(ctx, containerContextKey, &contextContainer{})
}

// WithUser stores the user entity in the context.
// Deriving the active account and workspace from the user's current
// workspace pointer is the caller's job and happens exactly once, at the
// moment the user is assigned (see biz.IdentityService).
func WithUser(ctx context.Context, user *model.User) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.User = user
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetUser retrieves the user entity from the context.
func GetUser(ctx context.Context) (*model.User, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	return container.User, container.User != nil
}

// WithAccount stores the active account in the context.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.Account = account
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetAccount retrieves the active account from the context.
func GetAccount(ctx context.Context) (*model.Account, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	return container.Account, container.Account != nil
}

// WithWorkspace stores the active workspace in the context.
func WithWorkspace(ctx context.Context, workspace *model.Workspace) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.Workspace = workspace
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetWorkspace retrieves the active workspace from the context.
func GetWorkspace(ctx context.Context) (*model.Workspace, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	return container.Workspace, container.Workspace != nil
}

// WithRequestID stores the request correlation id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.RequestID = &requestID
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetRequestID retrieves the request correlation id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	if container.RequestID != nil {
		return *container.RequestID, true
	}

	return "", false
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.TraceID = &traceID
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	if container.TraceID != nil {
		return *container.TraceID, true
	}

	return "", false
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	container := getContainer(ctx)
	container.mu.Lock()
	container.OperationName = &name
	container.mu.Unlock()

	return withContainer(ctx, container)
}

// GetOperationName retrieves the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	if container.OperationName != nil {
		return *container.OperationName, true
	}

	return "", false
}

// Reset clears every identity field of the container. Calling it twice
// leaves the same empty state as calling it once.
func Reset(ctx context.Context) {
	container, ok := ctx.Value(containerContextKey).(*contextContainer)
	if !ok {
		return
	}

	container.mu.Lock()
	defer container.mu.Unlock()

	container.User = nil
	container.Account = nil
	container.Workspace = nil
	container.RequestID = nil
	container.TraceID = nil
	container.OperationName = nil
}
