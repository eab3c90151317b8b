package authz

import (
	"context"

	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
)

// Action is an operation a policy can decide on.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Directory reads memberships and records for policy decisions. Lookups run
// fresh on every decision; implementations must not cache results across
// units of work.
type Directory interface {
	AccountMembership(ctx context.Context, accountID, userID string) (*model.AccountMembership, error)
	WorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error)
	TeamMembership(ctx context.Context, teamID, userID string) (*model.TeamMembership, error)

	AccountMembershipsForUser(ctx context.Context, userID string) ([]*model.AccountMembership, error)
	WorkspaceMembershipsForUser(ctx context.Context, userID string) ([]*model.WorkspaceMembership, error)
	TeamMembershipsForUser(ctx context.Context, userID string) ([]*model.TeamMembership, error)

	AccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error)
	WorkspacesByIDs(ctx context.Context, ids []string) ([]*model.Workspace, error)
	TeamsByIDs(ctx context.Context, ids []string) ([]*model.Team, error)
}

// Policies decides whether an acting user may perform an action on a
// resource. System and test principals pass every check; user decisions
// consult active memberships only.
type Policies struct {
	dir Directory
}

func NewPolicies(dir Directory) *Policies {
	return &Policies{dir: dir}
}

// CanPerform decides a record-level action. resource must be one of
// *model.Account, *model.Workspace, *model.Team.
func (p *Policies) CanPerform(ctx context.Context, user *model.User, action Action, resource any) bool {
	switch record := resource.(type) {
	case *model.Account:
		return p.canPerformAccount(ctx, user, action, record)
	case *model.Workspace:
		return p.canPerformWorkspace(ctx, user, action, record)
	case *model.Team:
		return p.canPerformTeam(ctx, user, action, record)
	default:
		log.Warn(ctx, "authz: decision for unknown resource type", log.Any("resource", resource))
		return false
	}
}

func (p *Policies) principalOverride(ctx context.Context) bool {
	principal, ok := GetPrincipal(ctx)
	return ok && (principal.IsSystem() || principal.IsTest())
}

// ---- Account ----

// CanListAccounts: any authenticated user may list (the visible set narrows
// what they see).
func (p *Policies) CanListAccounts(ctx context.Context, user *model.User) bool {
	return p.principalOverride(ctx) || user != nil
}

// CanCreateAccount: any authenticated user may create an account.
func (p *Policies) CanCreateAccount(ctx context.Context, user *model.User) bool {
	return p.principalOverride(ctx) || user != nil
}

// CanViewAccount requires any active membership on the account.
func (p *Policies) CanViewAccount(ctx context.Context, user *model.User, account *model.Account) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeAccountMembership(ctx, user, account)
	return ok && membership != nil
}

// CanUpdateAccount requires active membership role >= admin.
func (p *Policies) CanUpdateAccount(ctx context.Context, user *model.User, account *model.Account) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeAccountMembership(ctx, user, account)
	if !ok || membership == nil {
		return false
	}

	return roles.AccountRoleAtLeast(membership.Role, roles.AccountRoleAdmin)
}

// CanDeleteAccount requires active membership role = owner.
func (p *Policies) CanDeleteAccount(ctx context.Context, user *model.User, account *model.Account) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeAccountMembership(ctx, user, account)
	if !ok || membership == nil {
		return false
	}

	return membership.Role == roles.AccountRoleOwner
}

func (p *Policies) canPerformAccount(ctx context.Context, user *model.User, action Action, account *model.Account) bool {
	switch action {
	case ActionList:
		return p.CanListAccounts(ctx, user)
	case ActionView:
		return p.CanViewAccount(ctx, user, account)
	case ActionCreate:
		return p.CanCreateAccount(ctx, user)
	case ActionUpdate:
		return p.CanUpdateAccount(ctx, user, account)
	case ActionDelete:
		return p.CanDeleteAccount(ctx, user, account)
	default:
		return false
	}
}

// ---- Workspace ----

// CanListWorkspaces requires active account membership role >= member on
// the owning account.
func (p *Policies) CanListWorkspaces(ctx context.Context, user *model.User, account *model.Account) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeAccountMembership(ctx, user, account)
	if !ok || membership == nil {
		return false
	}

	return roles.AccountRoleAtLeast(membership.Role, roles.AccountRoleMember)
}

// CanCreateWorkspace requires active account membership role >= member.
func (p *Policies) CanCreateWorkspace(ctx context.Context, user *model.User, account *model.Account) bool {
	return p.CanListWorkspaces(ctx, user, account)
}

// CanViewWorkspace requires any active membership on the workspace.
func (p *Policies) CanViewWorkspace(ctx context.Context, user *model.User, workspace *model.Workspace) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeWorkspaceMembership(ctx, user, workspace)
	return ok && membership != nil
}

// CanUpdateWorkspace requires active workspace membership role >= admin.
func (p *Policies) CanUpdateWorkspace(ctx context.Context, user *model.User, workspace *model.Workspace) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeWorkspaceMembership(ctx, user, workspace)
	if !ok || membership == nil {
		return false
	}

	return roles.AccountRoleAtLeast(membership.Role, roles.WorkspaceRoleAdmin)
}

// CanDeleteWorkspace requires active workspace membership role = owner.
func (p *Policies) CanDeleteWorkspace(ctx context.Context, user *model.User, workspace *model.Workspace) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeWorkspaceMembership(ctx, user, workspace)
	if !ok || membership == nil {
		return false
	}

	return membership.Role == roles.WorkspaceRoleOwner
}

func (p *Policies) canPerformWorkspace(ctx context.Context, user *model.User, action Action, workspace *model.Workspace) bool {
	switch action {
	case ActionView:
		return p.CanViewWorkspace(ctx, user, workspace)
	case ActionUpdate:
		return p.CanUpdateWorkspace(ctx, user, workspace)
	case ActionDelete:
		return p.CanDeleteWorkspace(ctx, user, workspace)
	case ActionList, ActionCreate:
		account, ok := p.accountOf(ctx, workspace.AccountID)
		if !ok {
			return false
		}

		if action == ActionList {
			return p.CanListWorkspaces(ctx, user, account)
		}

		return p.CanCreateWorkspace(ctx, user, account)
	default:
		return false
	}
}

// ---- Team ----

// CanListTeams requires active workspace membership role >= member on the
// owning workspace.
func (p *Policies) CanListTeams(ctx context.Context, user *model.User, workspace *model.Workspace) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeWorkspaceMembership(ctx, user, workspace)
	if !ok || membership == nil {
		return false
	}

	return roles.AccountRoleAtLeast(membership.Role, roles.WorkspaceRoleMember)
}

// CanCreateTeam requires active workspace membership role >= member.
func (p *Policies) CanCreateTeam(ctx context.Context, user *model.User, workspace *model.Workspace) bool {
	return p.CanListTeams(ctx, user, workspace)
}

// CanViewTeam requires any active membership on the team.
func (p *Policies) CanViewTeam(ctx context.Context, user *model.User, team *model.Team) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeTeamMembership(ctx, user, team)
	return ok && membership != nil
}

// CanUpdateTeam requires active team membership role = lead.
func (p *Policies) CanUpdateTeam(ctx context.Context, user *model.User, team *model.Team) bool {
	if p.principalOverride(ctx) {
		return true
	}

	membership, ok := p.activeTeamMembership(ctx, user, team)
	if !ok || membership == nil {
		return false
	}

	return membership.Role == roles.TeamRoleLead
}

// CanDeleteTeam requires active team membership role = lead.
func (p *Policies) CanDeleteTeam(ctx context.Context, user *model.User, team *model.Team) bool {
	return p.CanUpdateTeam(ctx, user, team)
}

func (p *Policies) canPerformTeam(ctx context.Context, user *model.User, action Action, team *model.Team) bool {
	switch action {
	case ActionView:
		return p.CanViewTeam(ctx, user, team)
	case ActionUpdate:
		return p.CanUpdateTeam(ctx, user, team)
	case ActionDelete:
		return p.CanDeleteTeam(ctx, user, team)
	case ActionList, ActionCreate:
		workspaces, err := p.dir.WorkspacesByIDs(ctx, []string{team.WorkspaceID})
		if err != nil || len(workspaces) == 0 {
			p.lookupFailed(ctx, err)
			return false
		}

		if action == ActionList {
			return p.CanListTeams(ctx, user, workspaces[0])
		}

		return p.CanCreateTeam(ctx, user, workspaces[0])
	default:
		return false
	}
}

// ---- lookups ----

func (p *Policies) activeAccountMembership(ctx context.Context, user *model.User, account *model.Account) (*model.AccountMembership, bool) {
	if user == nil || account == nil {
		return nil, false
	}

	membership, err := p.dir.AccountMembership(ctx, account.ID, user.ID)
	if err != nil {
		p.lookupFailed(ctx, err)
		return nil, false
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		return nil, true
	}

	return membership, true
}

func (p *Policies) activeWorkspaceMembership(ctx context.Context, user *model.User, workspace *model.Workspace) (*model.WorkspaceMembership, bool) {
	if user == nil || workspace == nil {
		return nil, false
	}

	membership, err := p.dir.WorkspaceMembership(ctx, workspace.ID, user.ID)
	if err != nil {
		p.lookupFailed(ctx, err)
		return nil, false
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		return nil, true
	}

	return membership, true
}

func (p *Policies) activeTeamMembership(ctx context.Context, user *model.User, team *model.Team) (*model.TeamMembership, bool) {
	if user == nil || team == nil {
		return nil, false
	}

	membership, err := p.dir.TeamMembership(ctx, team.ID, user.ID)
	if err != nil {
		p.lookupFailed(ctx, err)
		return nil, false
	}

	if membership == nil || membership.Status != roles.MembershipStatusActive {
		return nil, true
	}

	return membership, true
}

func (p *Policies) accountOf(ctx context.Context, accountID string) (*model.Account, bool) {
	accounts, err := p.dir.AccountsByIDs(ctx, []string{accountID})
	if err != nil || len(accounts) == 0 {
		p.lookupFailed(ctx, err)
		return nil, false
	}

	return accounts[0], true
}

// lookupFailed logs the failure; decisions fail closed.
func (p *Policies) lookupFailed(ctx context.Context, err error) {
	if err != nil {
		log.Warn(ctx, "authz: membership lookup failed, denying", log.Cause(err))
	}
}
