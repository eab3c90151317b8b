package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
)

// fakeDirectory serves policy lookups from in-memory maps.
type fakeDirectory struct {
	accounts   map[string]*model.Account
	workspaces map[string]*model.Workspace
	teams      map[string]*model.Team

	accountMemberships   []*model.AccountMembership
	workspaceMemberships []*model.WorkspaceMembership
	teamMemberships      []*model.TeamMembership

	err error
}

func (d *fakeDirectory) AccountMembership(ctx context.Context, accountID, userID string) (*model.AccountMembership, error) {
	if d.err != nil {
		return nil, d.err
	}

	m, _ := lo.Find(d.accountMemberships, func(m *model.AccountMembership) bool {
		return m.AccountID == accountID && m.UserID == userID
	})

	return m, nil
}

func (d *fakeDirectory) WorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error) {
	if d.err != nil {
		return nil, d.err
	}

	m, _ := lo.Find(d.workspaceMemberships, func(m *model.WorkspaceMembership) bool {
		return m.WorkspaceID == workspaceID && m.UserID == userID
	})

	return m, nil
}

func (d *fakeDirectory) TeamMembership(ctx context.Context, teamID, userID string) (*model.TeamMembership, error) {
	if d.err != nil {
		return nil, d.err
	}

	m, _ := lo.Find(d.teamMemberships, func(m *model.TeamMembership) bool {
		return m.TeamID == teamID && m.UserID == userID
	})

	return m, nil
}

func (d *fakeDirectory) AccountMembershipsForUser(ctx context.Context, userID string) ([]*model.AccountMembership, error) {
	return lo.Filter(d.accountMemberships, func(m *model.AccountMembership, _ int) bool {
		return m.UserID == userID
	}), d.err
}

func (d *fakeDirectory) WorkspaceMembershipsForUser(ctx context.Context, userID string) ([]*model.WorkspaceMembership, error) {
	return lo.Filter(d.workspaceMemberships, func(m *model.WorkspaceMembership, _ int) bool {
		return m.UserID == userID
	}), d.err
}

func (d *fakeDirectory) TeamMembershipsForUser(ctx context.Context, userID string) ([]*model.TeamMembership, error) {
	return lo.Filter(d.teamMemberships, func(m *model.TeamMembership, _ int) bool {
		return m.UserID == userID
	}), d.err
}

func (d *fakeDirectory) AccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	var out []*model.Account

	for _, id := range ids {
		if a, ok := d.accounts[id]; ok {
			out = append(out, a)
		}
	}

	return out, d.err
}

func (d *fakeDirectory) WorkspacesByIDs(ctx context.Context, ids []string) ([]*model.Workspace, error) {
	var out []*model.Workspace

	for _, id := range ids {
		if w, ok := d.workspaces[id]; ok {
			out = append(out, w)
		}
	}

	return out, d.err
}

func (d *fakeDirectory) TeamsByIDs(ctx context.Context, ids []string) ([]*model.Team, error) {
	var out []*model.Team

	for _, id := range ids {
		if tm, ok := d.teams[id]; ok {
			out = append(out, tm)
		}
	}

	return out, d.err
}

func userCtx(userID string) context.Context {
	return NewUserContext(context.Background(), userID)
}

func accountMember(accountID, userID string, role roles.AccountRole, status roles.MembershipStatus) *model.AccountMembership {
	return &model.AccountMembership{AccountID: accountID, UserID: userID, Role: role, Status: status}
}

func TestAccountDecisionTable(t *testing.T) {
	account := &model.Account{ID: "acc-1", Name: "Acme"}
	dir := &fakeDirectory{
		accounts: map[string]*model.Account{"acc-1": account},
		accountMemberships: []*model.AccountMembership{
			accountMember("acc-1", "viewer", roles.AccountRoleViewer, roles.MembershipStatusActive),
			accountMember("acc-1", "member", roles.AccountRoleMember, roles.MembershipStatusActive),
			accountMember("acc-1", "admin", roles.AccountRoleAdmin, roles.MembershipStatusActive),
			accountMember("acc-1", "owner", roles.AccountRoleOwner, roles.MembershipStatusActive),
			accountMember("acc-1", "pending-admin", roles.AccountRoleAdmin, roles.MembershipStatusPending),
			accountMember("acc-1", "suspended-owner", roles.AccountRoleOwner, roles.MembershipStatusSuspended),
		},
	}
	policies := NewPolicies(dir)

	testCases := []struct {
		userID    string
		canView   bool
		canUpdate bool
		canDelete bool
	}{
		{"viewer", true, false, false},
		{"member", true, false, false},
		{"admin", true, true, false},
		{"owner", true, true, true},
		{"pending-admin", false, false, false},
		{"suspended-owner", false, false, false},
		{"stranger", false, false, false},
	}

	for _, tc := range testCases {
		user := &model.User{ID: tc.userID}
		ctx := userCtx(tc.userID)

		require.Equal(t, tc.canView, policies.CanViewAccount(ctx, user, account), "view %s", tc.userID)
		require.Equal(t, tc.canUpdate, policies.CanUpdateAccount(ctx, user, account), "update %s", tc.userID)
		require.Equal(t, tc.canDelete, policies.CanDeleteAccount(ctx, user, account), "delete %s", tc.userID)
	}
}

func TestWorkspaceDecisionTable(t *testing.T) {
	account := &model.Account{ID: "acc-1"}
	workspace := &model.Workspace{ID: "ws-1", AccountID: "acc-1"}
	dir := &fakeDirectory{
		accounts:   map[string]*model.Account{"acc-1": account},
		workspaces: map[string]*model.Workspace{"ws-1": workspace},
		accountMemberships: []*model.AccountMembership{
			accountMember("acc-1", "acct-member", roles.AccountRoleMember, roles.MembershipStatusActive),
			accountMember("acc-1", "acct-viewer", roles.AccountRoleViewer, roles.MembershipStatusActive),
		},
		workspaceMemberships: []*model.WorkspaceMembership{
			{WorkspaceID: "ws-1", AccountID: "acc-1", UserID: "ws-admin", Role: roles.WorkspaceRoleAdmin, Status: roles.MembershipStatusActive},
			{WorkspaceID: "ws-1", AccountID: "acc-1", UserID: "ws-owner", Role: roles.WorkspaceRoleOwner, Status: roles.MembershipStatusActive},
			{WorkspaceID: "ws-1", AccountID: "acc-1", UserID: "ws-viewer", Role: roles.WorkspaceRoleViewer, Status: roles.MembershipStatusActive},
		},
	}
	policies := NewPolicies(dir)

	// Listing and creating workspaces keys off the account membership.
	member := &model.User{ID: "acct-member"}
	require.True(t, policies.CanListWorkspaces(userCtx("acct-member"), member, account))
	require.True(t, policies.CanCreateWorkspace(userCtx("acct-member"), member, account))

	viewer := &model.User{ID: "acct-viewer"}
	require.False(t, policies.CanListWorkspaces(userCtx("acct-viewer"), viewer, account))
	require.False(t, policies.CanCreateWorkspace(userCtx("acct-viewer"), viewer, account))

	// Record-level decisions key off the workspace membership.
	wsViewer := &model.User{ID: "ws-viewer"}
	require.True(t, policies.CanViewWorkspace(userCtx("ws-viewer"), wsViewer, workspace))
	require.False(t, policies.CanUpdateWorkspace(userCtx("ws-viewer"), wsViewer, workspace))

	wsAdmin := &model.User{ID: "ws-admin"}
	require.True(t, policies.CanUpdateWorkspace(userCtx("ws-admin"), wsAdmin, workspace))
	require.False(t, policies.CanDeleteWorkspace(userCtx("ws-admin"), wsAdmin, workspace))

	wsOwner := &model.User{ID: "ws-owner"}
	require.True(t, policies.CanDeleteWorkspace(userCtx("ws-owner"), wsOwner, workspace))

	// Account membership alone grants nothing on the workspace record.
	require.False(t, policies.CanViewWorkspace(userCtx("acct-member"), member, workspace))
}

func TestTeamDecisionTable(t *testing.T) {
	workspace := &model.Workspace{ID: "ws-1", AccountID: "acc-1"}
	team := &model.Team{ID: "team-1", AccountID: "acc-1", WorkspaceID: "ws-1"}
	dir := &fakeDirectory{
		workspaces: map[string]*model.Workspace{"ws-1": workspace},
		teams:      map[string]*model.Team{"team-1": team},
		workspaceMemberships: []*model.WorkspaceMembership{
			{WorkspaceID: "ws-1", AccountID: "acc-1", UserID: "ws-member", Role: roles.WorkspaceRoleMember, Status: roles.MembershipStatusActive},
		},
		teamMemberships: []*model.TeamMembership{
			{TeamID: "team-1", AccountID: "acc-1", UserID: "lead", Role: roles.TeamRoleLead, Status: roles.MembershipStatusActive},
			{TeamID: "team-1", AccountID: "acc-1", UserID: "dev", Role: roles.TeamRoleMember, Status: roles.MembershipStatusActive},
		},
	}
	policies := NewPolicies(dir)

	lead := &model.User{ID: "lead"}
	require.True(t, policies.CanViewTeam(userCtx("lead"), lead, team))
	require.True(t, policies.CanUpdateTeam(userCtx("lead"), lead, team))
	require.True(t, policies.CanDeleteTeam(userCtx("lead"), lead, team))

	dev := &model.User{ID: "dev"}
	require.True(t, policies.CanViewTeam(userCtx("dev"), dev, team))
	require.False(t, policies.CanUpdateTeam(userCtx("dev"), dev, team))

	// Workspace members may list and create teams without team membership.
	wsMember := &model.User{ID: "ws-member"}
	require.True(t, policies.CanListTeams(userCtx("ws-member"), wsMember, workspace))
	require.True(t, policies.CanCreateTeam(userCtx("ws-member"), wsMember, workspace))
	require.False(t, policies.CanViewTeam(userCtx("ws-member"), wsMember, team))
}

func TestPrincipalOverrides(t *testing.T) {
	account := &model.Account{ID: "acc-1"}
	policies := NewPolicies(&fakeDirectory{accounts: map[string]*model.Account{"acc-1": account}})

	systemCtx := NewSystemContext(context.Background())
	require.True(t, policies.CanViewAccount(systemCtx, nil, account))
	require.True(t, policies.CanUpdateAccount(systemCtx, nil, account))
	require.True(t, policies.CanDeleteAccount(systemCtx, nil, account))

	testCtx := NewTestContext(context.Background())
	require.True(t, policies.CanDeleteAccount(testCtx, nil, account))

	// No principal, no user: everything denied.
	require.False(t, policies.CanViewAccount(context.Background(), nil, account))
}

func TestLookupFailureDeniesAccess(t *testing.T) {
	account := &model.Account{ID: "acc-1"}
	dir := &fakeDirectory{
		accounts: map[string]*model.Account{"acc-1": account},
		accountMemberships: []*model.AccountMembership{
			accountMember("acc-1", "owner", roles.AccountRoleOwner, roles.MembershipStatusActive),
		},
		err: errors.New("directory unavailable"),
	}
	policies := NewPolicies(dir)

	owner := &model.User{ID: "owner"}
	require.False(t, policies.CanViewAccount(userCtx("owner"), owner, account))
	require.False(t, policies.CanDeleteAccount(userCtx("owner"), owner, account))
}

func TestVisibleAccountsAgreesWithCanView(t *testing.T) {
	acme := &model.Account{ID: "acc-1", Name: "Acme"}
	globex := &model.Account{ID: "acc-2", Name: "Globex"}
	initech := &model.Account{ID: "acc-3", Name: "Initech"}

	dir := &fakeDirectory{
		accounts: map[string]*model.Account{"acc-1": acme, "acc-2": globex, "acc-3": initech},
		accountMemberships: []*model.AccountMembership{
			accountMember("acc-1", "u1", roles.AccountRoleMember, roles.MembershipStatusActive),
			accountMember("acc-2", "u1", roles.AccountRoleViewer, roles.MembershipStatusPending),
			accountMember("acc-3", "u1", roles.AccountRoleOwner, roles.MembershipStatusSuspended),
		},
	}
	policies := NewPolicies(dir)

	user := &model.User{ID: "u1"}
	ctx := userCtx("u1")

	visible, err := policies.VisibleAccounts(ctx, user)
	require.NoError(t, err)

	visibleIDs := lo.Map(visible, func(a *model.Account, _ int) string { return a.ID })

	for _, account := range dir.accounts {
		require.Equal(t,
			policies.CanViewAccount(ctx, user, account),
			lo.Contains(visibleIDs, account.ID),
			"membership-set and point decision disagree on %s", account.ID)
	}

	require.Equal(t, []string{"acc-1"}, visibleIDs)
}
