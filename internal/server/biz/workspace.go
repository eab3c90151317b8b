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

type WorkspaceService struct {
	*AbstractService

	allocator *slug.Allocator
}

func NewWorkspaceService(abstract *AbstractService, tenancy TenancyConfig) *WorkspaceService {
	return &WorkspaceService{
		AbstractService: abstract,
		allocator:       slug.NewAllocator(tenancy.SlugMaxAttempts),
	}
}

type CreateWorkspaceInput struct {
	Name string
}

// CreateWorkspace creates a workspace under the active account. The slug is
// unique within the account; the creator gets an active owner membership.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, input CreateWorkspaceInput) (*model.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: workspace name is empty", ErrValidation)
	}

	account, ok := contexts.GetAccount(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no active account", ErrValidation)
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanCreateWorkspace(ctx, user, account) {
		return nil, ErrNotAuthorized
	}

	var workspace *model.Workspace

	for attempt := 0; attempt < createRetries; attempt++ {
		allocated, err := s.allocator.Allocate(ctx, name, func(ctx context.Context, candidate string) (bool, error) {
			return s.store.Workspaces.SlugTaken(ctx, account.ID, candidate)
		})
		if err != nil {
			return nil, err
		}

		candidate := &model.Workspace{AccountID: account.ID, Name: name, Slug: allocated}

		err = s.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.store.Workspaces.Create(ctx, candidate); err != nil {
				return err
			}

			if user != nil {
				now := time.Now().UTC()
				membership := &model.WorkspaceMembership{
					AccountID:   account.ID,
					WorkspaceID: candidate.ID,
					UserID:      user.ID,
					Role:        roles.WorkspaceRoleOwner,
					Status:      roles.MembershipStatusActive,
				}
				membership.AcceptedAt = &now

				return s.store.WorkspaceMemberships.Create(ctx, membership)
			}

			return nil
		})
		if err == nil {
			workspace = candidate
			break
		}

		if !store.IsUniqueViolation(err) {
			return nil, err
		}
	}

	if workspace == nil {
		return nil, fmt.Errorf("%w: workspace slug for %q", slug.ErrExhausted, name)
	}

	s.auditor.Record(ctx, "workspace.create", audit.WorkspaceSubject(workspace.ID), map[string]string{"slug": workspace.Slug})

	return workspace, nil
}

func (s *WorkspaceService) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	workspace, err := s.store.Workspaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewWorkspace(ctx, user, workspace) {
		return nil, ErrNotAuthorized
	}

	return workspace, nil
}

// ListWorkspaces returns the active account's workspaces the acting user
// may see.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context) ([]*model.Workspace, error) {
	account, ok := contexts.GetAccount(ctx)
	if !ok {
		return nil, nil
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanListWorkspaces(ctx, user, account) {
		return nil, ErrNotAuthorized
	}

	return s.store.Workspaces.List(ctx)
}

type UpdateWorkspaceInput struct {
	Name     *string
	Settings map[string]string
	Metadata map[string]string
}

func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, id string, input UpdateWorkspaceInput) (*model.Workspace, error) {
	workspace, err := s.store.Workspaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateWorkspace(ctx, user, workspace) {
		return nil, ErrNotAuthorized
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: workspace name is empty", ErrValidation)
		}

		workspace.Name = strings.TrimSpace(*input.Name)
	}

	if input.Settings != nil {
		workspace.Settings = input.Settings
	}

	if input.Metadata != nil {
		workspace.Metadata = input.Metadata
	}

	if err := s.store.Workspaces.Update(ctx, workspace); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "workspace.update", audit.WorkspaceSubject(workspace.ID), nil)

	return workspace, nil
}

// DeleteWorkspace removes the workspace and its teams. Workspace owner only.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, id string) error {
	workspace, err := s.store.Workspaces.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanDeleteWorkspace(ctx, user, workspace) {
		return ErrNotAuthorized
	}

	if err := s.store.Workspaces.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, "workspace.delete", audit.WorkspaceSubject(id), map[string]string{"slug": workspace.Slug})

	return nil
}

func (s *WorkspaceService) ArchiveWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	workspace, err := s.store.Workspaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateWorkspace(ctx, user, workspace) {
		return nil, ErrNotAuthorized
	}

	workspace.Status = model.WorkspaceStatusArchived
	if err := s.store.Workspaces.Update(ctx, workspace); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "workspace.archive", audit.WorkspaceSubject(workspace.ID), nil)

	return workspace, nil
}
