package authz

import (
	"context"

	"github.com/samber/lo"

	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
)

// VisibleAccounts returns the accounts the user holds an active membership
// on. The result agrees with CanViewAccount record by record.
func (p *Policies) VisibleAccounts(ctx context.Context, user *model.User) ([]*model.Account, error) {
	if user == nil {
		return nil, nil
	}

	memberships, err := p.dir.AccountMembershipsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	ids := activeParentIDs(memberships, func(m *model.AccountMembership) (string, roles.MembershipStatus) {
		return m.AccountID, m.Status
	})
	if len(ids) == 0 {
		return nil, nil
	}

	return p.dir.AccountsByIDs(ctx, ids)
}

// VisibleWorkspaces returns the workspaces the user holds an active
// membership on. The result agrees with CanViewWorkspace record by record.
func (p *Policies) VisibleWorkspaces(ctx context.Context, user *model.User) ([]*model.Workspace, error) {
	if user == nil {
		return nil, nil
	}

	memberships, err := p.dir.WorkspaceMembershipsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	ids := activeParentIDs(memberships, func(m *model.WorkspaceMembership) (string, roles.MembershipStatus) {
		return m.WorkspaceID, m.Status
	})
	if len(ids) == 0 {
		return nil, nil
	}

	return p.dir.WorkspacesByIDs(ctx, ids)
}

// VisibleTeams returns the teams the user holds an active membership on.
// The result agrees with CanViewTeam record by record.
func (p *Policies) VisibleTeams(ctx context.Context, user *model.User) ([]*model.Team, error) {
	if user == nil {
		return nil, nil
	}

	memberships, err := p.dir.TeamMembershipsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	ids := activeParentIDs(memberships, func(m *model.TeamMembership) (string, roles.MembershipStatus) {
		return m.TeamID, m.Status
	})
	if len(ids) == 0 {
		return nil, nil
	}

	return p.dir.TeamsByIDs(ctx, ids)
}

func activeParentIDs[M any](memberships []*M, extract func(*M) (string, roles.MembershipStatus)) []string {
	active := lo.Filter(memberships, func(m *M, _ int) bool {
		_, status := extract(m)
		return status == roles.MembershipStatusActive
	})

	return lo.Map(active, func(m *M, _ int) string {
		id, _ := extract(m)
		return id
	})
}
