package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
)

// Membership repositories. All three membership types are tenant-scoped
// and carry a composite unique constraint on (parent, user). Role and
// status updates are optimistic: they compare-and-swap on the version
// column and surface ErrConflict on a lost race instead of silently
// overwriting.

const membershipColumns = `, user_id, role, status, inviter_id, invited_at, accepted_at, version, created_at, updated_at`

// casOutcome converts a zero-row CAS update into ErrConflict when the
// record still exists in scope, and ErrNotFound otherwise.
func (c *Client) casOutcome(ctx context.Context, table, id string) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	query := `SELECT COUNT(1) FROM ` + table + ` WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	var count int
	if err := c.conn(ctx).QueryRowContext(ctx, c.rebind(query), args...).Scan(&count); err != nil {
		return fmt.Errorf("probe %s: %w", table, err)
	}

	if count > 0 {
		return ErrConflict
	}

	return ErrNotFound
}

// ---- AccountMembership ----

type AccountMembershipRepo struct {
	c *Client
}

func (r *AccountMembershipRepo) Create(ctx context.Context, membership *model.AccountMembership) error {
	accountID, err := stampAccountID(ctx, membership.AccountID)
	if err != nil {
		return err
	}

	membership.AccountID = accountID
	prepareMembership(&membership.ID, &membership.Version, &membership.CreatedAt, &membership.UpdatedAt)

	if membership.Status == "" {
		membership.Status = roles.MembershipStatusPending
	}

	query := r.c.rebind(`INSERT INTO account_memberships (id, account_id` + membershipColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		membership.ID, membership.AccountID, membership.UserID, membership.Role, membership.Status,
		nullString(membership.InviterID), nullTime(membership.InvitedAt), nullTime(membership.AcceptedAt),
		membership.Version, membership.CreatedAt, membership.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account membership: %w", normalizeErr(err))
	}

	return nil
}

func (r *AccountMembershipRepo) GetByID(ctx context.Context, id string) (*model.AccountMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT id, account_id` + membershipColumns + ` FROM account_memberships WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *AccountMembershipRepo) GetByUser(ctx context.Context, accountID, userID string) (*model.AccountMembership, error) {
	scopeID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	if filtered && scopeID != accountID {
		return nil, ErrNotFound
	}

	query := r.c.rebind(`SELECT id, account_id` + membershipColumns + ` FROM account_memberships WHERE account_id = ? AND user_id = ?`)

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, query, accountID, userID))
}

func (r *AccountMembershipRepo) ListForAccount(ctx context.Context, accountID string) ([]*model.AccountMembership, error) {
	scopeID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	if filtered && scopeID != accountID {
		return nil, nil
	}

	query := r.c.rebind(`SELECT id, account_id` + membershipColumns + ` FROM account_memberships WHERE account_id = ? ORDER BY created_at`)

	rows, err := r.c.conn(ctx).QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account memberships: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *AccountMembershipRepo) UpdateStatus(ctx context.Context, membership *model.AccountMembership) error {
	return r.c.updateMembershipCAS(ctx, "account_memberships", membership.ID, membership.Version, map[string]any{
		"status":      membership.Status,
		"accepted_at": nullTime(membership.AcceptedAt),
	})
}

func (r *AccountMembershipRepo) UpdateRole(ctx context.Context, membership *model.AccountMembership) error {
	return r.c.updateMembershipCAS(ctx, "account_memberships", membership.ID, membership.Version, map[string]any{
		"role": membership.Role,
	})
}

func (r *AccountMembershipRepo) scanOne(row *sql.Row) (*model.AccountMembership, error) {
	var (
		m          model.AccountMembership
		inviterID  sql.NullString
		invitedAt  sql.NullTime
		acceptedAt sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.AccountID, &m.UserID, &m.Role, &m.Status,
		&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan account membership: %w", err)
	}

	m.InviterID = stringPtr(inviterID)
	m.InvitedAt = timePtr(invitedAt)
	m.AcceptedAt = timePtr(acceptedAt)

	return &m, nil
}

func (r *AccountMembershipRepo) scanAll(rows *sql.Rows) ([]*model.AccountMembership, error) {
	var memberships []*model.AccountMembership

	for rows.Next() {
		var (
			m          model.AccountMembership
			inviterID  sql.NullString
			invitedAt  sql.NullTime
			acceptedAt sql.NullTime
		)

		err := rows.Scan(
			&m.ID, &m.AccountID, &m.UserID, &m.Role, &m.Status,
			&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account membership: %w", err)
		}

		m.InviterID = stringPtr(inviterID)
		m.InvitedAt = timePtr(invitedAt)
		m.AcceptedAt = timePtr(acceptedAt)
		memberships = append(memberships, &m)
	}

	return memberships, rows.Err()
}

// ---- WorkspaceMembership ----

type WorkspaceMembershipRepo struct {
	c *Client
}

func (r *WorkspaceMembershipRepo) Create(ctx context.Context, membership *model.WorkspaceMembership) error {
	accountID, err := stampAccountID(ctx, membership.AccountID)
	if err != nil {
		return err
	}

	membership.AccountID = accountID
	prepareMembership(&membership.ID, &membership.Version, &membership.CreatedAt, &membership.UpdatedAt)

	if membership.Status == "" {
		membership.Status = roles.MembershipStatusPending
	}

	query := r.c.rebind(`INSERT INTO workspace_memberships (id, account_id, workspace_id` + membershipColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		membership.ID, membership.AccountID, membership.WorkspaceID, membership.UserID,
		membership.Role, membership.Status,
		nullString(membership.InviterID), nullTime(membership.InvitedAt), nullTime(membership.AcceptedAt),
		membership.Version, membership.CreatedAt, membership.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create workspace membership: %w", normalizeErr(err))
	}

	return nil
}

func (r *WorkspaceMembershipRepo) GetByID(ctx context.Context, id string) (*model.WorkspaceMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT id, account_id, workspace_id` + membershipColumns + ` FROM workspace_memberships WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *WorkspaceMembershipRepo) GetByUser(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT id, account_id, workspace_id` + membershipColumns + ` FROM workspace_memberships WHERE workspace_id = ? AND user_id = ?`
	args := []any{workspaceID, userID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *WorkspaceMembershipRepo) ListForWorkspace(ctx context.Context, workspaceID string) ([]*model.WorkspaceMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	query := `SELECT id, account_id, workspace_id` + membershipColumns + ` FROM workspace_memberships WHERE workspace_id = ?`
	args := []any{workspaceID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	query += ` ORDER BY created_at`

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list workspace memberships: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *WorkspaceMembershipRepo) UpdateStatus(ctx context.Context, membership *model.WorkspaceMembership) error {
	return r.c.updateMembershipCAS(ctx, "workspace_memberships", membership.ID, membership.Version, map[string]any{
		"status":      membership.Status,
		"accepted_at": nullTime(membership.AcceptedAt),
	})
}

func (r *WorkspaceMembershipRepo) UpdateRole(ctx context.Context, membership *model.WorkspaceMembership) error {
	return r.c.updateMembershipCAS(ctx, "workspace_memberships", membership.ID, membership.Version, map[string]any{
		"role": membership.Role,
	})
}

func (r *WorkspaceMembershipRepo) scanOne(row *sql.Row) (*model.WorkspaceMembership, error) {
	var (
		m          model.WorkspaceMembership
		inviterID  sql.NullString
		invitedAt  sql.NullTime
		acceptedAt sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.AccountID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status,
		&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan workspace membership: %w", err)
	}

	m.InviterID = stringPtr(inviterID)
	m.InvitedAt = timePtr(invitedAt)
	m.AcceptedAt = timePtr(acceptedAt)

	return &m, nil
}

func (r *WorkspaceMembershipRepo) scanAll(rows *sql.Rows) ([]*model.WorkspaceMembership, error) {
	var memberships []*model.WorkspaceMembership

	for rows.Next() {
		var (
			m          model.WorkspaceMembership
			inviterID  sql.NullString
			invitedAt  sql.NullTime
			acceptedAt sql.NullTime
		)

		err := rows.Scan(
			&m.ID, &m.AccountID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status,
			&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan workspace membership: %w", err)
		}

		m.InviterID = stringPtr(inviterID)
		m.InvitedAt = timePtr(invitedAt)
		m.AcceptedAt = timePtr(acceptedAt)
		memberships = append(memberships, &m)
	}

	return memberships, rows.Err()
}

// ---- TeamMembership ----

type TeamMembershipRepo struct {
	c *Client
}

func (r *TeamMembershipRepo) Create(ctx context.Context, membership *model.TeamMembership) error {
	accountID, err := stampAccountID(ctx, membership.AccountID)
	if err != nil {
		return err
	}

	membership.AccountID = accountID
	prepareMembership(&membership.ID, &membership.Version, &membership.CreatedAt, &membership.UpdatedAt)

	if membership.Status == "" {
		membership.Status = roles.MembershipStatusPending
	}

	query := r.c.rebind(`INSERT INTO team_memberships (id, account_id, team_id` + membershipColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		membership.ID, membership.AccountID, membership.TeamID, membership.UserID,
		membership.Role, membership.Status,
		nullString(membership.InviterID), nullTime(membership.InvitedAt), nullTime(membership.AcceptedAt),
		membership.Version, membership.CreatedAt, membership.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create team membership: %w", normalizeErr(err))
	}

	return nil
}

func (r *TeamMembershipRepo) GetByID(ctx context.Context, id string) (*model.TeamMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT id, account_id, team_id` + membershipColumns + ` FROM team_memberships WHERE id = ?`
	args := []any{id}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *TeamMembershipRepo) GetByUser(ctx context.Context, teamID, userID string) (*model.TeamMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, ErrNotFound
	}

	query := `SELECT id, account_id, team_id` + membershipColumns + ` FROM team_memberships WHERE team_id = ? AND user_id = ?`
	args := []any{teamID, userID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, r.c.rebind(query), args...))
}

func (r *TeamMembershipRepo) ListForTeam(ctx context.Context, teamID string) ([]*model.TeamMembership, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	query := `SELECT id, account_id, team_id` + membershipColumns + ` FROM team_memberships WHERE team_id = ?`
	args := []any{teamID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	query += ` ORDER BY created_at`

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list team memberships: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *TeamMembershipRepo) UpdateStatus(ctx context.Context, membership *model.TeamMembership) error {
	return r.c.updateMembershipCAS(ctx, "team_memberships", membership.ID, membership.Version, map[string]any{
		"status":      membership.Status,
		"accepted_at": nullTime(membership.AcceptedAt),
	})
}

func (r *TeamMembershipRepo) UpdateRole(ctx context.Context, membership *model.TeamMembership) error {
	return r.c.updateMembershipCAS(ctx, "team_memberships", membership.ID, membership.Version, map[string]any{
		"role": membership.Role,
	})
}

func (r *TeamMembershipRepo) scanOne(row *sql.Row) (*model.TeamMembership, error) {
	var (
		m          model.TeamMembership
		inviterID  sql.NullString
		invitedAt  sql.NullTime
		acceptedAt sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.AccountID, &m.TeamID, &m.UserID, &m.Role, &m.Status,
		&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan team membership: %w", err)
	}

	m.InviterID = stringPtr(inviterID)
	m.InvitedAt = timePtr(invitedAt)
	m.AcceptedAt = timePtr(acceptedAt)

	return &m, nil
}

func (r *TeamMembershipRepo) scanAll(rows *sql.Rows) ([]*model.TeamMembership, error) {
	var memberships []*model.TeamMembership

	for rows.Next() {
		var (
			m          model.TeamMembership
			inviterID  sql.NullString
			invitedAt  sql.NullTime
			acceptedAt sql.NullTime
		)

		err := rows.Scan(
			&m.ID, &m.AccountID, &m.TeamID, &m.UserID, &m.Role, &m.Status,
			&inviterID, &invitedAt, &acceptedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan team membership: %w", err)
		}

		m.InviterID = stringPtr(inviterID)
		m.InvitedAt = timePtr(invitedAt)
		m.AcceptedAt = timePtr(acceptedAt)
		memberships = append(memberships, &m)
	}

	return memberships, rows.Err()
}

// ---- shared ----

func prepareMembership(id *string, version *int64, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}

	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now

	if *version == 0 {
		*version = 1
	}
}

// updateMembershipCAS applies a compare-and-swap update on the version
// column, respecting the implicit tenant filter. A lost race surfaces as
// ErrConflict so the caller can re-read and retry.
func (c *Client) updateMembershipCAS(ctx context.Context, table, id string, version int64, sets map[string]any) error {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return ErrNotFound
	}

	query := `UPDATE ` + table + ` SET version = version + 1, updated_at = ?`
	args := []any{time.Now().UTC()}

	for column, value := range sets {
		query += `, ` + column + ` = ?`
		args = append(args, value)
	}

	query += ` WHERE id = ? AND version = ?`
	args = append(args, id, version)

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	result, err := c.conn(ctx).ExecContext(ctx, c.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, normalizeErr(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return c.casOutcome(ctx, table, id)
	}

	return nil
}
