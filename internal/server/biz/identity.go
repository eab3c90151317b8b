package biz

import (
	"context"
	"fmt"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
)

// IdentityService installs an authenticated user into the context carrier.
// Deriving the active account and workspace from the current-workspace
// pointer happens here and nowhere else, exactly once per unit of work.
type IdentityService struct {
	*AbstractService

	UserService *UserService
}

func NewIdentityService(abstract *AbstractService, users *UserService) *IdentityService {
	return &IdentityService{AbstractService: abstract, UserService: users}
}

// InstallUser assigns the user to the carrier and resolves the active
// account and workspace from the sticky pointer. A stale pointer (workspace
// gone, membership revoked) leaves the tenant fields empty rather than
// failing the login; scoped reads then fail closed.
func (s *IdentityService) InstallUser(ctx context.Context, user *model.User) context.Context {
	ctx = contexts.WithUser(ctx, user)
	ctx = authz.NewUserContext(ctx, user.ID)

	if user.CurrentWorkspaceID == nil {
		return ctx
	}

	workspaceID := *user.CurrentWorkspaceID

	workspace, err := authz.RunWithSystemUnscoped(ctx, "identity-resolve-workspace", func(ctx context.Context) (*model.Workspace, error) {
		return s.store.Workspaces.GetByID(ctx, workspaceID)
	})
	if err != nil {
		log.Warn(ctx, "identity: stale current workspace pointer",
			log.String("workspace_id", workspaceID), log.Cause(err))

		return ctx
	}

	membership, err := s.store.Directory().WorkspaceMembership(ctx, workspace.ID, user.ID)
	if err != nil {
		log.Warn(ctx, "identity: membership lookup failed", log.Cause(err))

		return ctx
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		log.Warn(ctx, "identity: no active membership on current workspace",
			log.String("workspace_id", workspace.ID), log.String("user_id", user.ID))

		return ctx
	}

	account, err := authz.RunWithSystemUnscoped(ctx, "identity-resolve-account", func(ctx context.Context) (*model.Account, error) {
		return s.store.Accounts.GetByID(ctx, workspace.AccountID)
	})
	if err != nil {
		log.Warn(ctx, "identity: account lookup failed", log.Cause(err))

		return ctx
	}

	ctx = contexts.WithAccount(ctx, account)
	ctx = contexts.WithWorkspace(ctx, workspace)

	return ctx
}

// ActivateWorkspace validates the target membership and activates the
// workspace on the carrier for this unit of work only. The sticky pointer
// is untouched; header overrides must not outlive the request.
func (s *IdentityService) ActivateWorkspace(ctx context.Context, workspaceID string) (context.Context, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return ctx, err
	}

	membership, err := s.store.Directory().WorkspaceMembership(ctx, workspaceID, user.ID)
	if err != nil {
		return ctx, err
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		return ctx, fmt.Errorf("%w: no active membership on workspace", ErrNotAuthorized)
	}

	workspace, err := authz.RunWithSystemUnscoped(ctx, "identity-resolve-workspace", func(ctx context.Context) (*model.Workspace, error) {
		return s.store.Workspaces.GetByID(ctx, workspaceID)
	})
	if err != nil {
		return ctx, err
	}

	account, err := authz.RunWithSystemUnscoped(ctx, "identity-resolve-account", func(ctx context.Context) (*model.Account, error) {
		return s.store.Accounts.GetByID(ctx, workspace.AccountID)
	})
	if err != nil {
		return ctx, err
	}

	ctx = contexts.WithAccount(ctx, account)
	ctx = contexts.WithWorkspace(ctx, workspace)

	return ctx, nil
}

// SwitchWorkspace validates the target membership, persists the sticky
// pointer and re-derives the carrier. Concurrent switches from two devices
// are both valid; the last write wins.
func (s *IdentityService) SwitchWorkspace(ctx context.Context, workspaceID string) (context.Context, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return ctx, err
	}

	membership, err := s.store.Directory().WorkspaceMembership(ctx, workspaceID, user.ID)
	if err != nil {
		return ctx, err
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		return ctx, fmt.Errorf("%w: no active membership on workspace", ErrNotAuthorized)
	}

	if err := s.UserService.SetCurrentWorkspace(ctx, user.ID, &workspaceID); err != nil {
		return ctx, err
	}

	user.CurrentWorkspaceID = &workspaceID

	ctx = s.InstallUser(ctx, user)

	s.auditor.Record(ctx, "account.switch", audit.WorkspaceSubject(workspaceID), map[string]string{
		"user_id": user.ID,
	})

	return ctx, nil
}
