package api

import (
	"github.com/samber/lo"

	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/objects"
)

func toUserInfo(user *model.User) *objects.UserInfo {
	return &objects.UserInfo{
		ID:                 user.ID,
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		PlatformRole:       string(user.PlatformRole),
		Status:             string(user.Status),
		CurrentWorkspaceID: user.CurrentWorkspaceID,
	}
}

func toAccount(account *model.Account) *objects.Account {
	return &objects.Account{
		ID:        account.ID,
		Name:      account.Name,
		Slug:      account.Slug,
		Status:    string(account.Status),
		PlanTier:  account.PlanTier,
		OwnerID:   account.OwnerID,
		Settings:  account.Settings,
		Metadata:  account.Metadata,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

func toAccounts(accounts []*model.Account) []*objects.Account {
	return lo.Map(accounts, func(a *model.Account, _ int) *objects.Account { return toAccount(a) })
}

func toWorkspace(workspace *model.Workspace) *objects.Workspace {
	return &objects.Workspace{
		ID:        workspace.ID,
		AccountID: workspace.AccountID,
		Name:      workspace.Name,
		Slug:      workspace.Slug,
		Status:    string(workspace.Status),
		Settings:  workspace.Settings,
		Metadata:  workspace.Metadata,
		CreatedAt: workspace.CreatedAt,
		UpdatedAt: workspace.UpdatedAt,
	}
}

func toWorkspaces(workspaces []*model.Workspace) []*objects.Workspace {
	return lo.Map(workspaces, func(w *model.Workspace, _ int) *objects.Workspace { return toWorkspace(w) })
}

func toTeam(team *model.Team) *objects.Team {
	return &objects.Team{
		ID:          team.ID,
		AccountID:   team.AccountID,
		WorkspaceID: team.WorkspaceID,
		Name:        team.Name,
		Slug:        team.Slug,
		Status:      string(team.Status),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}

func toTeams(teams []*model.Team) []*objects.Team {
	return lo.Map(teams, func(t *model.Team, _ int) *objects.Team { return toTeam(t) })
}

func toAccountMembership(m *model.AccountMembership) *objects.Membership {
	return &objects.Membership{
		ID:         m.ID,
		Scope:      "account",
		ParentID:   m.AccountID,
		AccountID:  m.AccountID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		Status:     string(m.Status),
		InviterID:  m.InviterID,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toWorkspaceMembership(m *model.WorkspaceMembership) *objects.Membership {
	return &objects.Membership{
		ID:         m.ID,
		Scope:      "workspace",
		ParentID:   m.WorkspaceID,
		AccountID:  m.AccountID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		Status:     string(m.Status),
		InviterID:  m.InviterID,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toTeamMembership(m *model.TeamMembership) *objects.Membership {
	return &objects.Membership{
		ID:         m.ID,
		Scope:      "team",
		ParentID:   m.TeamID,
		AccountID:  m.AccountID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		Status:     string(m.Status),
		InviterID:  m.InviterID,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
