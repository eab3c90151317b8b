package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
	"github.com/strandhq/strand/internal/store"
)

// casRetries bounds the re-read-and-retry loop on optimistic conflicts.
const casRetries = 3

type MembershipService struct {
	*AbstractService

	tenancy TenancyConfig
}

func NewMembershipService(abstract *AbstractService, tenancy TenancyConfig) *MembershipService {
	return &MembershipService{
		AbstractService: abstract,
		tenancy:         tenancy,
	}
}

// ---- invitations ----

type InviteInput struct {
	UserID string
	Role   string
}

// InviteToAccount creates a pending account membership. Inviter identity
// and time are captured from the carrier.
func (s *MembershipService) InviteToAccount(ctx context.Context, accountID string, input InviteInput) (*model.AccountMembership, error) {
	role := roles.AccountRole(input.Role)
	if !roles.IsValidAccountRole(role) {
		return nil, fmt.Errorf("%w: unknown account role %q", ErrValidation, input.Role)
	}

	account, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateAccount(ctx, actor, account) {
		return nil, ErrNotAuthorized
	}

	membership := &model.AccountMembership{
		AccountID: accountID,
		UserID:    input.UserID,
		Role:      role,
		Status:    roles.MembershipStatusPending,
	}
	s.stampInvitation(ctx, &membership.Invitation)

	if err := s.store.AccountMemberships.Create(ctx, membership); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already belongs to the account", ErrValidation)
		}

		return nil, err
	}

	s.auditor.Record(ctx, "membership.invite", audit.MembershipSubject(membership.ID), map[string]string{
		"scope":   "account",
		"user_id": input.UserID,
		"role":    input.Role,
	})

	return membership, nil
}

// InviteToWorkspace creates a pending workspace membership. The invitee
// must already hold a membership on the owning account; the tenancy config
// decides whether it must be active.
func (s *MembershipService) InviteToWorkspace(ctx context.Context, workspaceID string, input InviteInput) (*model.WorkspaceMembership, error) {
	role := roles.WorkspaceRole(input.Role)
	if !roles.IsValidAccountRole(role) {
		return nil, fmt.Errorf("%w: unknown workspace role %q", ErrValidation, input.Role)
	}

	workspace, err := s.store.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateWorkspace(ctx, actor, workspace) {
		return nil, ErrNotAuthorized
	}

	parent, err := s.store.Directory().AccountMembership(ctx, workspace.AccountID, input.UserID)
	if err != nil {
		return nil, err
	}

	if parent == nil {
		return nil, fmt.Errorf("%w: user has no membership on the owning account", ErrValidation)
	}

	if s.tenancy.RequireActiveParentMembership && parent.Status != roles.MembershipStatusActive {
		return nil, fmt.Errorf("%w: user has no active membership on the owning account", ErrValidation)
	}

	membership := &model.WorkspaceMembership{
		AccountID:   workspace.AccountID,
		WorkspaceID: workspaceID,
		UserID:      input.UserID,
		Role:        role,
		Status:      roles.MembershipStatusPending,
	}
	s.stampInvitation(ctx, &membership.Invitation)

	if err := s.store.WorkspaceMemberships.Create(ctx, membership); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already belongs to the workspace", ErrValidation)
		}

		return nil, err
	}

	s.auditor.Record(ctx, "membership.invite", audit.MembershipSubject(membership.ID), map[string]string{
		"scope":   "workspace",
		"user_id": input.UserID,
		"role":    input.Role,
	})

	return membership, nil
}

// InviteToTeam creates a pending team membership. The invitee must already
// hold a membership on the owning workspace; the tenancy config decides
// whether it must be active.
func (s *MembershipService) InviteToTeam(ctx context.Context, teamID string, input InviteInput) (*model.TeamMembership, error) {
	role := roles.TeamRole(input.Role)
	if !roles.IsValidTeamRole(role) {
		return nil, fmt.Errorf("%w: unknown team role %q", ErrValidation, input.Role)
	}

	team, err := s.store.Teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateTeam(ctx, actor, team) {
		return nil, ErrNotAuthorized
	}

	parent, err := s.store.Directory().WorkspaceMembership(ctx, team.WorkspaceID, input.UserID)
	if err != nil {
		return nil, err
	}

	if parent == nil {
		return nil, fmt.Errorf("%w: user has no membership on the owning workspace", ErrValidation)
	}

	if s.tenancy.RequireActiveParentMembership && parent.Status != roles.MembershipStatusActive {
		return nil, fmt.Errorf("%w: user has no active membership on the owning workspace", ErrValidation)
	}

	membership := &model.TeamMembership{
		AccountID: team.AccountID,
		TeamID:    teamID,
		UserID:    input.UserID,
		Role:      role,
		Status:    roles.MembershipStatusPending,
	}
	s.stampInvitation(ctx, &membership.Invitation)

	if err := s.store.TeamMemberships.Create(ctx, membership); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already belongs to the team", ErrValidation)
		}

		return nil, err
	}

	s.auditor.Record(ctx, "membership.invite", audit.MembershipSubject(membership.ID), map[string]string{
		"scope":   "team",
		"user_id": input.UserID,
		"role":    input.Role,
	})

	return membership, nil
}

func (s *MembershipService) stampInvitation(ctx context.Context, invitation *model.Invitation) {
	now := time.Now().UTC()
	invitation.InvitedAt = &now

	if actor, ok := contexts.GetUser(ctx); ok {
		invitation.InviterID = &actor.ID
	}
}

// ---- account membership lifecycle ----

// AcceptAccountInvite moves a pending membership to active. Only the
// invited user may accept.
func (s *MembershipService) AcceptAccountInvite(ctx context.Context, membershipID string) (*model.AccountMembership, error) {
	return s.transitionAccount(ctx, membershipID, roles.MembershipStatusActive, "membership.accept", true)
}

// DeclineAccountInvite moves a pending membership to declined. Only the
// invited user may decline.
func (s *MembershipService) DeclineAccountInvite(ctx context.Context, membershipID string) (*model.AccountMembership, error) {
	return s.transitionAccount(ctx, membershipID, roles.MembershipStatusDeclined, "membership.decline", true)
}

// SuspendAccountMembership moves an active membership to suspended. Account
// admin gate.
func (s *MembershipService) SuspendAccountMembership(ctx context.Context, membershipID string) (*model.AccountMembership, error) {
	return s.transitionAccount(ctx, membershipID, roles.MembershipStatusSuspended, "membership.suspend", false)
}

func (s *MembershipService) transitionAccount(ctx context.Context, membershipID string, to roles.MembershipStatus, action string, selfOnly bool) (*model.AccountMembership, error) {
	var membership *model.AccountMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.AccountMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeAccountTransition(ctx, current, selfOnly); err != nil {
			return err
		}

		if err := roles.Transition(current.Status, to); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		current.Status = to

		if to == roles.MembershipStatusActive {
			now := time.Now().UTC()
			current.AcceptedAt = &now
		}

		if err := s.store.AccountMemberships.UpdateStatus(ctx, current); err != nil {
			return err
		}

		membership = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, action, audit.MembershipSubject(membership.ID), map[string]string{
		"scope":  "account",
		"status": string(to),
	})

	return membership, nil
}

func (s *MembershipService) authorizeAccountTransition(ctx context.Context, membership *model.AccountMembership, selfOnly bool) error {
	actor, _ := contexts.GetUser(ctx)

	if selfOnly {
		if actor == nil || actor.ID != membership.UserID {
			return fmt.Errorf("%w: only the invited user may respond", ErrNotAuthorized)
		}

		return nil
	}

	account, err := s.store.Accounts.GetByID(ctx, membership.AccountID)
	if err != nil {
		return err
	}

	if !s.policies.CanUpdateAccount(ctx, actor, account) {
		return ErrNotAuthorized
	}

	return nil
}

// ChangeAccountRole replaces a membership's role. Conflicting concurrent
// changes retry on a fresh read; the final state is one of the requested
// roles, never a blend.
func (s *MembershipService) ChangeAccountRole(ctx context.Context, membershipID string, newRole roles.AccountRole) (*model.AccountMembership, error) {
	if !roles.IsValidAccountRole(newRole) {
		return nil, fmt.Errorf("%w: unknown account role %q", ErrValidation, newRole)
	}

	var membership *model.AccountMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.AccountMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeAccountTransition(ctx, current, false); err != nil {
			return err
		}

		previous := current.Role
		current.Role = newRole

		if err := s.store.AccountMemberships.UpdateRole(ctx, current); err != nil {
			return err
		}

		membership = current

		s.auditor.Record(ctx, "membership.role_change", audit.MembershipSubject(current.ID), map[string]string{
			"scope": "account",
			"from":  string(previous),
			"to":    string(newRole),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ---- workspace membership lifecycle ----

func (s *MembershipService) AcceptWorkspaceInvite(ctx context.Context, membershipID string) (*model.WorkspaceMembership, error) {
	return s.transitionWorkspace(ctx, membershipID, roles.MembershipStatusActive, "membership.accept", true)
}

func (s *MembershipService) DeclineWorkspaceInvite(ctx context.Context, membershipID string) (*model.WorkspaceMembership, error) {
	return s.transitionWorkspace(ctx, membershipID, roles.MembershipStatusDeclined, "membership.decline", true)
}

func (s *MembershipService) SuspendWorkspaceMembership(ctx context.Context, membershipID string) (*model.WorkspaceMembership, error) {
	return s.transitionWorkspace(ctx, membershipID, roles.MembershipStatusSuspended, "membership.suspend", false)
}

func (s *MembershipService) transitionWorkspace(ctx context.Context, membershipID string, to roles.MembershipStatus, action string, selfOnly bool) (*model.WorkspaceMembership, error) {
	var membership *model.WorkspaceMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.WorkspaceMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeWorkspaceTransition(ctx, current, selfOnly); err != nil {
			return err
		}

		if err := roles.Transition(current.Status, to); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		current.Status = to

		if to == roles.MembershipStatusActive {
			now := time.Now().UTC()
			current.AcceptedAt = &now
		}

		if err := s.store.WorkspaceMemberships.UpdateStatus(ctx, current); err != nil {
			return err
		}

		membership = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, action, audit.MembershipSubject(membership.ID), map[string]string{
		"scope":  "workspace",
		"status": string(to),
	})

	return membership, nil
}

func (s *MembershipService) authorizeWorkspaceTransition(ctx context.Context, membership *model.WorkspaceMembership, selfOnly bool) error {
	actor, _ := contexts.GetUser(ctx)

	if selfOnly {
		if actor == nil || actor.ID != membership.UserID {
			return fmt.Errorf("%w: only the invited user may respond", ErrNotAuthorized)
		}

		return nil
	}

	workspace, err := s.store.Workspaces.GetByID(ctx, membership.WorkspaceID)
	if err != nil {
		return err
	}

	if !s.policies.CanUpdateWorkspace(ctx, actor, workspace) {
		return ErrNotAuthorized
	}

	return nil
}

func (s *MembershipService) ChangeWorkspaceRole(ctx context.Context, membershipID string, newRole roles.WorkspaceRole) (*model.WorkspaceMembership, error) {
	if !roles.IsValidAccountRole(newRole) {
		return nil, fmt.Errorf("%w: unknown workspace role %q", ErrValidation, newRole)
	}

	var membership *model.WorkspaceMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.WorkspaceMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeWorkspaceTransition(ctx, current, false); err != nil {
			return err
		}

		previous := current.Role
		current.Role = newRole

		if err := s.store.WorkspaceMemberships.UpdateRole(ctx, current); err != nil {
			return err
		}

		membership = current

		s.auditor.Record(ctx, "membership.role_change", audit.MembershipSubject(current.ID), map[string]string{
			"scope": "workspace",
			"from":  string(previous),
			"to":    string(newRole),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ---- team membership lifecycle ----

func (s *MembershipService) AcceptTeamInvite(ctx context.Context, membershipID string) (*model.TeamMembership, error) {
	return s.transitionTeam(ctx, membershipID, roles.MembershipStatusActive, "membership.accept", true)
}

func (s *MembershipService) DeclineTeamInvite(ctx context.Context, membershipID string) (*model.TeamMembership, error) {
	return s.transitionTeam(ctx, membershipID, roles.MembershipStatusDeclined, "membership.decline", true)
}

func (s *MembershipService) SuspendTeamMembership(ctx context.Context, membershipID string) (*model.TeamMembership, error) {
	return s.transitionTeam(ctx, membershipID, roles.MembershipStatusSuspended, "membership.suspend", false)
}

func (s *MembershipService) transitionTeam(ctx context.Context, membershipID string, to roles.MembershipStatus, action string, selfOnly bool) (*model.TeamMembership, error) {
	var membership *model.TeamMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.TeamMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeTeamTransition(ctx, current, selfOnly); err != nil {
			return err
		}

		if err := roles.Transition(current.Status, to); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		current.Status = to

		if to == roles.MembershipStatusActive {
			now := time.Now().UTC()
			current.AcceptedAt = &now
		}

		if err := s.store.TeamMemberships.UpdateStatus(ctx, current); err != nil {
			return err
		}

		membership = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, action, audit.MembershipSubject(membership.ID), map[string]string{
		"scope":  "team",
		"status": string(to),
	})

	return membership, nil
}

func (s *MembershipService) authorizeTeamTransition(ctx context.Context, membership *model.TeamMembership, selfOnly bool) error {
	actor, _ := contexts.GetUser(ctx)

	if selfOnly {
		if actor == nil || actor.ID != membership.UserID {
			return fmt.Errorf("%w: only the invited user may respond", ErrNotAuthorized)
		}

		return nil
	}

	team, err := s.store.Teams.GetByID(ctx, membership.TeamID)
	if err != nil {
		return err
	}

	if !s.policies.CanUpdateTeam(ctx, actor, team) {
		return ErrNotAuthorized
	}

	return nil
}

func (s *MembershipService) ChangeTeamRole(ctx context.Context, membershipID string, newRole roles.TeamRole) (*model.TeamMembership, error) {
	if !roles.IsValidTeamRole(newRole) {
		return nil, fmt.Errorf("%w: unknown team role %q", ErrValidation, newRole)
	}

	var membership *model.TeamMembership

	err := s.withCASRetry(ctx, func(ctx context.Context) error {
		current, err := s.store.TeamMemberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}

		if err := s.authorizeTeamTransition(ctx, current, false); err != nil {
			return err
		}

		previous := current.Role
		current.Role = newRole

		if err := s.store.TeamMemberships.UpdateRole(ctx, current); err != nil {
			return err
		}

		membership = current

		s.auditor.Record(ctx, "membership.role_change", audit.MembershipSubject(current.ID), map[string]string{
			"scope": "team",
			"from":  string(previous),
			"to":    string(newRole),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ---- listings ----

func (s *MembershipService) ListAccountMemberships(ctx context.Context, accountID string) ([]*model.AccountMembership, error) {
	account, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewAccount(ctx, actor, account) {
		return nil, ErrNotAuthorized
	}

	return s.store.AccountMemberships.ListForAccount(ctx, accountID)
}

func (s *MembershipService) ListWorkspaceMemberships(ctx context.Context, workspaceID string) ([]*model.WorkspaceMembership, error) {
	workspace, err := s.store.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewWorkspace(ctx, actor, workspace) {
		return nil, ErrNotAuthorized
	}

	return s.store.WorkspaceMemberships.ListForWorkspace(ctx, workspaceID)
}

func (s *MembershipService) ListTeamMemberships(ctx context.Context, teamID string) ([]*model.TeamMembership, error) {
	team, err := s.store.Teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actor, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewTeam(ctx, actor, team) {
		return nil, ErrNotAuthorized
	}

	return s.store.TeamMemberships.ListForTeam(ctx, teamID)
}

// withCASRetry re-runs fn on optimistic conflicts, re-reading state each
// round. Exhausted retries surface the conflict to the caller.
func (s *MembershipService) withCASRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt < casRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !store.IsConflict(err) {
			return err
		}
	}

	return err
}
