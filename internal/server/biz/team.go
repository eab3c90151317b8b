package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
	"github.com/strandhq/strand/internal/slug"
	"github.com/strandhq/strand/internal/store"
)

type TeamService struct {
	*AbstractService

	allocator *slug.Allocator
}

func NewTeamService(abstract *AbstractService, tenancy TenancyConfig) *TeamService {
	return &TeamService{
		AbstractService: abstract,
		allocator:       slug.NewAllocator(tenancy.SlugMaxAttempts),
	}
}

type CreateTeamInput struct {
	WorkspaceID string
	Name        string
}

// CreateTeam creates a team in the given workspace. The team's account is
// always the workspace's account; a mismatch with the active account is a
// validation failure, not a silent re-stamp.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*model.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is empty", ErrValidation)
	}

	workspace, err := s.store.Workspaces.GetByID(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if account, ok := contexts.GetAccount(ctx); ok && account.ID != workspace.AccountID {
		return nil, fmt.Errorf("%w: workspace belongs to another account", ErrValidation)
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanCreateTeam(ctx, user, workspace) {
		return nil, ErrNotAuthorized
	}

	var team *model.Team

	for attempt := 0; attempt < createRetries; attempt++ {
		allocated, err := s.allocator.Allocate(ctx, name, func(ctx context.Context, candidate string) (bool, error) {
			return s.store.Teams.SlugTaken(ctx, workspace.ID, candidate)
		})
		if err != nil {
			return nil, err
		}

		candidate := &model.Team{
			AccountID:   workspace.AccountID,
			WorkspaceID: workspace.ID,
			Name:        name,
			Slug:        allocated,
		}

		err = s.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.store.Teams.Create(ctx, candidate); err != nil {
				return err
			}

			// The creator leads the team from the start; otherwise no one
			// could ever manage it.
			if user != nil {
				now := time.Now().UTC()
				membership := &model.TeamMembership{
					AccountID: workspace.AccountID,
					TeamID:    candidate.ID,
					UserID:    user.ID,
					Role:      roles.TeamRoleLead,
					Status:    roles.MembershipStatusActive,
				}
				membership.AcceptedAt = &now

				return s.store.TeamMemberships.Create(ctx, membership)
			}

			return nil
		})
		if err == nil {
			team = candidate
			break
		}

		if !store.IsUniqueViolation(err) {
			return nil, err
		}
	}

	if team == nil {
		return nil, fmt.Errorf("%w: team slug for %q", slug.ErrExhausted, name)
	}

	s.auditor.Record(ctx, "team.create", audit.TeamSubject(team.ID), map[string]string{"slug": team.Slug, "workspace_id": team.WorkspaceID})

	return team, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	team, err := s.store.Teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewTeam(ctx, user, team) {
		return nil, ErrNotAuthorized
	}

	return team, nil
}

func (s *TeamService) ListTeams(ctx context.Context, workspaceID string) ([]*model.Team, error) {
	workspace, err := s.store.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanListTeams(ctx, user, workspace) {
		return nil, ErrNotAuthorized
	}

	return s.store.Teams.ListByWorkspace(ctx, workspaceID)
}

type UpdateTeamInput struct {
	Name *string
}

func (s *TeamService) UpdateTeam(ctx context.Context, id string, input UpdateTeamInput) (*model.Team, error) {
	team, err := s.store.Teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateTeam(ctx, user, team) {
		return nil, ErrNotAuthorized
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: team name is empty", ErrValidation)
		}

		team.Name = strings.TrimSpace(*input.Name)
	}

	if err := s.store.Teams.Update(ctx, team); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "team.update", audit.TeamSubject(team.ID), nil)

	return team, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, id string) error {
	team, err := s.store.Teams.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanDeleteTeam(ctx, user, team) {
		return ErrNotAuthorized
	}

	if err := s.store.Teams.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, "team.delete", audit.TeamSubject(id), map[string]string{"slug": team.Slug})

	return nil
}

func (s *TeamService) ArchiveTeam(ctx context.Context, id string) (*model.Team, error) {
	team, err := s.store.Teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateTeam(ctx, user, team) {
		return nil, ErrNotAuthorized
	}

	team.Status = model.TeamStatusArchived
	if err := s.store.Teams.Update(ctx, team); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "team.archive", audit.TeamSubject(team.ID), nil)

	return team, nil
}
