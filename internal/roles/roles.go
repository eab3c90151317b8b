package roles

import "slices"

// AccountRole is a role held on an account membership.
// The same vocabulary applies to workspace memberships.
type AccountRole string

const (
	AccountRoleViewer AccountRole = "viewer"
	AccountRoleMember AccountRole = "member"
	AccountRoleAdmin  AccountRole = "admin"
	AccountRoleOwner  AccountRole = "owner"
)

// WorkspaceRole is a role held on a workspace membership.
type WorkspaceRole = AccountRole

const (
	WorkspaceRoleViewer = AccountRoleViewer
	WorkspaceRoleMember = AccountRoleMember
	WorkspaceRoleAdmin  = AccountRoleAdmin
	WorkspaceRoleOwner  = AccountRoleOwner
)

// TeamRole is a role held on a team membership. Teams use a smaller
// vocabulary than accounts and workspaces.
type TeamRole string

const (
	TeamRoleMember TeamRole = "member"
	TeamRoleLead   TeamRole = "lead"
)

// accountRoleOrder is the total order for the account/workspace vocabulary.
var accountRoleOrder = []AccountRole{
	AccountRoleViewer,
	AccountRoleMember,
	AccountRoleAdmin,
	AccountRoleOwner,
}

// teamRoleOrder is the total order for the team vocabulary.
var teamRoleOrder = []TeamRole{
	TeamRoleMember,
	TeamRoleLead,
}

// AccountRoles returns the account/workspace vocabulary in ascending order.
func AccountRoles() []AccountRole {
	return slices.Clone(accountRoleOrder)
}

// TeamRoles returns the team vocabulary in ascending order.
func TeamRoles() []TeamRole {
	return slices.Clone(teamRoleOrder)
}

// IsValidAccountRole checks if a role belongs to the account/workspace vocabulary.
func IsValidAccountRole(role AccountRole) bool {
	return slices.Contains(accountRoleOrder, role)
}

// IsValidTeamRole checks if a role belongs to the team vocabulary.
func IsValidTeamRole(role TeamRole) bool {
	return slices.Contains(teamRoleOrder, role)
}

// AccountRoleAtLeast reports whether have ranks at or above want.
// Roles outside the vocabulary never satisfy any requirement.
func AccountRoleAtLeast(have, want AccountRole) bool {
	haveIdx := slices.Index(accountRoleOrder, have)
	wantIdx := slices.Index(accountRoleOrder, want)

	if haveIdx < 0 || wantIdx < 0 {
		return false
	}

	return haveIdx >= wantIdx
}

// TeamRoleAtLeast reports whether have ranks at or above want.
func TeamRoleAtLeast(have, want TeamRole) bool {
	haveIdx := slices.Index(teamRoleOrder, have)
	wantIdx := slices.Index(teamRoleOrder, want)

	if haveIdx < 0 || wantIdx < 0 {
		return false
	}

	return haveIdx >= wantIdx
}
