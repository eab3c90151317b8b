package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strandhq/strand/internal/model"
)

// TeamRepo persists teams. Teams are tenant-scoped through their
// denormalized account id; the workspace/account consistency invariant is
// validated by the service layer on every write.
type TeamRepo struct {
	c *Client
}

const teamColumns = `id, account_id, workspace_id, name, slug, status, created_at, updated_at`

func (r *TeamRepo) Create(ctx context.Context, team *model.Team) error {
	accountID, err := stampAccountID(ctx, team.AccountID)
	if err != nil {
		return err
	}

	team.AccountID = accountID

	if team.ID == "" {
		team.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now

	if team.Status == "" {
		team.Status = model.TeamStatusActive
	}

	query := r.c.rebind(`INSERT INTO teams (` + teamColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		team.ID, team.AccountID, team.WorkspaceID, team.Name, team.Slug, team.Status,
		team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create team: %w", normalizeErr(err))
	}

	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *TeamRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]*model.Team, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	query := `SELECT ` + teamColumns + ` FROM teams WHERE workspace_id = ?`
	args := []any{workspaceID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	query += ` ORDER BY created_at`

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *TeamRepo) Update(ctx context.Context, team *model.Team) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	team.UpdatedAt = time.Now().UTC()

	query := `UPDATE teams SET name = ?, slug = ?, status = ?, updated_at = ? WHERE id = ?`
	args := []any{team.Name, team.Slug, team.Status, team.UpdatedAt, team.ID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	result, err := r.c.conn(ctx).ExecContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update team: %w", normalizeErr(err))
	}

	return requireAffected(result)
}

// Delete removes the team and cascades to its memberships.
func (r *TeamRepo) Delete(ctx context.Context, id string) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	return r.c.RunInTransaction(ctx, func(ctx context.Context) error {
		conn := r.c.conn(ctx)

		if _, err := conn.ExecContext(ctx, r.c.rebind(`DELETE FROM team_memberships WHERE team_id = ?`), id); err != nil {
			return fmt.Errorf("cascade team delete: %w", err)
		}

		query := `DELETE FROM teams WHERE id = ?`
		args := []any{id}

		if filtered {
			query += ` AND account_id = ?`
			args = append(args, accountID)
		}

		result, err := conn.ExecContext(ctx, r.c.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("delete team: %w", err)
		}

		return requireAffected(result)
	})
}

// SlugTaken probes per-workspace slug uniqueness for the allocator.
func (r *TeamRepo) SlugTaken(ctx context.Context, workspaceID, slug string) (bool, error) {
	query := r.c.rebind(`SELECT COUNT(1) FROM teams WHERE workspace_id = ? AND slug = ?`)

	var count int
	if err := r.c.conn(ctx).QueryRowContext(ctx, query, workspaceID, slug).Scan(&count); err != nil {
		return false, fmt.Errorf("probe team slug: %w", err)
	}

	return count > 0, nil
}

func (r *TeamRepo) scanOne(row *sql.Row) (*model.Team, error) {
	var team model.Team

	err := row.Scan(
		&team.ID, &team.AccountID, &team.WorkspaceID, &team.Name, &team.Slug, &team.Status,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan team: %w", err)
	}

	return &team, nil
}

func (r *TeamRepo) scanAll(rows *sql.Rows) ([]*model.Team, error) {
	var teams []*model.Team

	for rows.Next() {
		var team model.Team

		err := rows.Scan(
			&team.ID, &team.AccountID, &team.WorkspaceID, &team.Name, &team.Slug, &team.Status,
			&team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}

		teams = append(teams, &team)
	}

	return teams, rows.Err()
}
