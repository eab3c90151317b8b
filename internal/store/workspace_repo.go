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

// WorkspaceRepo persists workspaces. Workspaces are tenant-scoped: reads
// are implicitly filtered to the active account, creates are stamped with
// it, and a workspace owned by another tenant behaves like a missing
// record.
type WorkspaceRepo struct {
	c *Client
}

const workspaceColumns = `id, account_id, name, slug, status, settings, metadata, created_at, updated_at`

func (r *WorkspaceRepo) Create(ctx context.Context, workspace *model.Workspace) error {
	accountID, err := stampAccountID(ctx, workspace.AccountID)
	if err != nil {
		return err
	}

	workspace.AccountID = accountID

	if workspace.ID == "" {
		workspace.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now

	if workspace.Status == "" {
		workspace.Status = model.WorkspaceStatusActive
	}

	settings, err := encodeMap(workspace.Settings)
	if err != nil {
		return fmt.Errorf("encode workspace settings: %w", err)
	}

	metadata, err := encodeMap(workspace.Metadata)
	if err != nil {
		return fmt.Errorf("encode workspace metadata: %w", err)
	}

	query := r.c.rebind(`INSERT INTO workspaces (` + workspaceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		workspace.ID, workspace.AccountID, workspace.Name, workspace.Slug, workspace.Status,
		settings, metadata, workspace.CreatedAt, workspace.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create workspace: %w", normalizeErr(err))
	}

	return nil
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id string) (*model.Workspace, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *WorkspaceRepo) GetBySlug(ctx context.Context, slug string) (*model.Workspace, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE slug = ?`
	args := []any{slug}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *WorkspaceRepo) List(ctx context.Context) ([]*model.Workspace, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	query := `SELECT ` + workspaceColumns + ` FROM workspaces`

	var args []any

	if filtered {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}

	query += ` ORDER BY created_at`

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *WorkspaceRepo) Update(ctx context.Context, workspace *model.Workspace) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	workspace.UpdatedAt = time.Now().UTC()

	settings, err := encodeMap(workspace.Settings)
	if err != nil {
		return fmt.Errorf("encode workspace settings: %w", err)
	}

	metadata, err := encodeMap(workspace.Metadata)
	if err != nil {
		return fmt.Errorf("encode workspace metadata: %w", err)
	}

	query := `UPDATE workspaces SET name = ?, slug = ?, status = ?, settings = ?, metadata = ?, updated_at = ? WHERE id = ?`
	args := []any{workspace.Name, workspace.Slug, workspace.Status, settings, metadata, workspace.UpdatedAt, workspace.ID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	result, err := r.c.conn(ctx).ExecContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update workspace: %w", normalizeErr(err))
	}

	return requireAffected(result)
}

// Delete removes the workspace and cascades to its teams and memberships.
func (r *WorkspaceRepo) Delete(ctx context.Context, id string) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	return r.c.RunInTransaction(ctx, func(ctx context.Context) error {
		conn := r.c.conn(ctx)

		cascade := []string{
			`DELETE FROM team_memberships WHERE team_id IN (SELECT id FROM teams WHERE workspace_id = ?)`,
			`DELETE FROM teams WHERE workspace_id = ?`,
			`DELETE FROM workspace_memberships WHERE workspace_id = ?`,
		}

		for _, stmt := range cascade {
			if _, err := conn.ExecContext(ctx, r.c.rebind(stmt), id); err != nil {
				return fmt.Errorf("cascade workspace delete: %w", err)
			}
		}

		query := `DELETE FROM workspaces WHERE id = ?`
		args := []any{id}

		if filtered {
			query += ` AND account_id = ?`
			args = append(args, accountID)
		}

		result, err := conn.ExecContext(ctx, r.c.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("delete workspace: %w", err)
		}

		return requireAffected(result)
	})
}

// BulkUpdateStatus moves every workspace in the active tenant scope with
// status from to status to, returning the number of rows changed. The
// implicit tenant filter applies exactly as it does for single-record
// reads.
func (r *WorkspaceRepo) BulkUpdateStatus(ctx context.Context, from, to model.WorkspaceStatus) (int64, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return 0, nil
	}

	query := `UPDATE workspaces SET status = ?, updated_at = ? WHERE status = ?`
	args := []any{to, time.Now().UTC(), from}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	result, err := r.c.conn(ctx).ExecContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update workspaces: %w", err)
	}

	return result.RowsAffected()
}

// SlugTaken probes per-account slug uniqueness for the allocator.
func (r *WorkspaceRepo) SlugTaken(ctx context.Context, accountID, slug string) (bool, error) {
	query := r.c.rebind(`SELECT COUNT(1) FROM workspaces WHERE account_id = ? AND slug = ?`)

	var count int
	if err := r.c.conn(ctx).QueryRowContext(ctx, query, accountID, slug).Scan(&count); err != nil {
		return false, fmt.Errorf("probe workspace slug: %w", err)
	}

	return count > 0, nil
}

func (r *WorkspaceRepo) scanOne(row *sql.Row) (*model.Workspace, error) {
	var (
		workspace model.Workspace
		settings  sql.NullString
		metadata  sql.NullString
	)

	err := row.Scan(
		&workspace.ID, &workspace.AccountID, &workspace.Name, &workspace.Slug, &workspace.Status,
		&settings, &metadata, &workspace.CreatedAt, &workspace.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	if workspace.Settings, err = decodeMap(settings); err != nil {
		return nil, fmt.Errorf("decode workspace settings: %w", err)
	}

	if workspace.Metadata, err = decodeMap(metadata); err != nil {
		return nil, fmt.Errorf("decode workspace metadata: %w", err)
	}

	return &workspace, nil
}

func (r *WorkspaceRepo) scanAll(rows *sql.Rows) ([]*model.Workspace, error) {
	var workspaces []*model.Workspace

	for rows.Next() {
		var (
			workspace model.Workspace
			settings  sql.NullString
			metadata  sql.NullString
		)

		err := rows.Scan(
			&workspace.ID, &workspace.AccountID, &workspace.Name, &workspace.Slug, &workspace.Status,
			&settings, &metadata, &workspace.CreatedAt, &workspace.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}

		if workspace.Settings, err = decodeMap(settings); err != nil {
			return nil, fmt.Errorf("decode workspace settings: %w", err)
		}

		if workspace.Metadata, err = decodeMap(metadata); err != nil {
			return nil, fmt.Errorf("decode workspace metadata: %w", err)
		}

		workspaces = append(workspaces, &workspace)
	}

	return workspaces, rows.Err()
}
