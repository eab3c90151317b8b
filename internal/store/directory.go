package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/strandhq/strand/internal/model"
)

// Directory is the cross-tenant read view behind policy decisions. Policy
// checks must see memberships regardless of which account is active, so
// every query here runs without the implicit tenant filter. A missing
// membership is returned as nil, nil; only infrastructure failures surface
// as errors.
type Directory struct {
	c *Client
}

func (d *Directory) AccountMembership(ctx context.Context, accountID, userID string) (*model.AccountMembership, error) {
	query := d.c.rebind(`SELECT id, account_id` + membershipColumns + ` FROM account_memberships WHERE account_id = ? AND user_id = ?`)

	membership, err := d.c.AccountMemberships.scanOne(d.c.conn(ctx).QueryRowContext(ctx, query, accountID, userID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return membership, err
}

func (d *Directory) WorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error) {
	query := d.c.rebind(`SELECT id, account_id, workspace_id` + membershipColumns + ` FROM workspace_memberships WHERE workspace_id = ? AND user_id = ?`)

	membership, err := d.c.WorkspaceMemberships.scanOne(d.c.conn(ctx).QueryRowContext(ctx, query, workspaceID, userID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return membership, err
}

func (d *Directory) TeamMembership(ctx context.Context, teamID, userID string) (*model.TeamMembership, error) {
	query := d.c.rebind(`SELECT id, account_id, team_id` + membershipColumns + ` FROM team_memberships WHERE team_id = ? AND user_id = ?`)

	membership, err := d.c.TeamMemberships.scanOne(d.c.conn(ctx).QueryRowContext(ctx, query, teamID, userID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return membership, err
}

func (d *Directory) AccountMembershipsForUser(ctx context.Context, userID string) ([]*model.AccountMembership, error) {
	query := d.c.rebind(`SELECT id, account_id` + membershipColumns + ` FROM account_memberships WHERE user_id = ? ORDER BY created_at`)

	rows, err := d.c.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query account memberships: %w", err)
	}
	defer rows.Close()

	return d.c.AccountMemberships.scanAll(rows)
}

func (d *Directory) WorkspaceMembershipsForUser(ctx context.Context, userID string) ([]*model.WorkspaceMembership, error) {
	query := d.c.rebind(`SELECT id, account_id, workspace_id` + membershipColumns + ` FROM workspace_memberships WHERE user_id = ? ORDER BY created_at`)

	rows, err := d.c.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query workspace memberships: %w", err)
	}
	defer rows.Close()

	return d.c.WorkspaceMemberships.scanAll(rows)
}

func (d *Directory) TeamMembershipsForUser(ctx context.Context, userID string) ([]*model.TeamMembership, error) {
	query := d.c.rebind(`SELECT id, account_id, team_id` + membershipColumns + ` FROM team_memberships WHERE user_id = ? ORDER BY created_at`)

	rows, err := d.c.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query team memberships: %w", err)
	}
	defer rows.Close()

	return d.c.TeamMemberships.scanAll(rows)
}

func (d *Directory) AccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	return d.c.Accounts.ByIDs(ctx, ids)
}

func (d *Directory) WorkspacesByIDs(ctx context.Context, ids []string) ([]*model.Workspace, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := d.c.rebind(`SELECT ` + workspaceColumns + ` FROM workspaces WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY created_at`)

	rows, err := d.c.conn(ctx).QueryContext(ctx, query, anySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	return d.c.Workspaces.scanAll(rows)
}

func (d *Directory) TeamsByIDs(ctx context.Context, ids []string) ([]*model.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := d.c.rebind(`SELECT ` + teamColumns + ` FROM teams WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY created_at`)

	rows, err := d.c.conn(ctx).QueryContext(ctx, query, anySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	return d.c.Teams.scanAll(rows)
}

func anySlice(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return args
}
