package contexts

import (
	"context"

	"github.com/strandhq/strand/internal/model"
)

// Overrides lists the carrier fields a Scoped call replaces for the
// duration of the body. A nil field is left untouched; to clear a field,
// override it with an explicit typed nil via the Clear* helpers.
type Overrides struct {
	User      **model.User
	Account   **model.Account
	Workspace **model.Workspace
	RequestID *string
}

// OverrideUser overrides the active user for a Scoped call.
func OverrideUser(user *model.User) **model.User { return &user }

// OverrideAccount overrides the active account for a Scoped call.
func OverrideAccount(account *model.Account) **model.Account { return &account }

// OverrideWorkspace overrides the active workspace for a Scoped call.
func OverrideWorkspace(workspace *model.Workspace) **model.Workspace { return &workspace }

// Scoped runs fn with the given fields temporarily overridden, restoring
// the prior values on the way out regardless of success, failure, or panic.
func Scoped(ctx context.Context, overrides Overrides, fn func(ctx context.Context) error) error {
	container := getContainer(ctx)
	ctx = withContainer(ctx, container)

	container.mu.Lock()
	prevUser := container.User
	prevAccount := container.Account
	prevWorkspace := container.Workspace
	prevRequestID := container.RequestID

	if overrides.User != nil {
		container.User = *overrides.User
	}

	if overrides.Account != nil {
		container.Account = *overrides.Account
	}

	if overrides.Workspace != nil {
		container.Workspace = *overrides.Workspace
	}

	if overrides.RequestID != nil {
		container.RequestID = overrides.RequestID
	}
	container.mu.Unlock()

	defer func() {
		container.mu.Lock()
		container.User = prevUser
		container.Account = prevAccount
		container.Workspace = prevWorkspace
		container.RequestID = prevRequestID
		container.mu.Unlock()
	}()

	return fn(ctx)
}
