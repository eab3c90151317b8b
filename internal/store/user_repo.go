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

// UserRepo persists platform users. Users exist above the tenant boundary
// and are not filtered by the active account.
type UserRepo struct {
	c *Client
}

const userColumns = `id, email, first_name, last_name, password, platform_role, status, current_workspace_id, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Status == "" {
		user.Status = model.UserStatusActive
	}

	if user.PlatformRole == "" {
		user.PlatformRole = model.PlatformRoleMember
	}

	query := r.c.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.c.conn(ctx).ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Password,
		user.PlatformRole, user.Status, nullString(user.CurrentWorkspaceID),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", normalizeErr(err))
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := r.c.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, query, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := r.c.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, query, email))
}

func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := r.c.rebind(`UPDATE users SET email = ?, first_name = ?, last_name = ?, password = ?, platform_role = ?, status = ?, current_workspace_id = ?, updated_at = ? WHERE id = ?`)

	result, err := r.c.conn(ctx).ExecContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.Password,
		user.PlatformRole, user.Status, nullString(user.CurrentWorkspaceID),
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", normalizeErr(err))
	}

	return requireAffected(result)
}

// SetCurrentWorkspace updates the session-sticky workspace pointer.
// Concurrent switches from two devices are both valid; the last write
// wins.
func (r *UserRepo) SetCurrentWorkspace(ctx context.Context, userID string, workspaceID *string) error {
	query := r.c.rebind(`UPDATE users SET current_workspace_id = ?, updated_at = ? WHERE id = ?`)

	result, err := r.c.conn(ctx).ExecContext(ctx, query, nullString(workspaceID), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}

	return requireAffected(result)
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		user               model.User
		currentWorkspaceID sql.NullString
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Password,
		&user.PlatformRole, &user.Status, &currentWorkspaceID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.CurrentWorkspaceID = stringPtr(currentWorkspaceID)

	return &user, nil
}
