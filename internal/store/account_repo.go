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

// AccountRepo persists accounts. Accounts are the tenant roots themselves
// and are not filtered by the active account; visibility is a policy
// decision, not a storage one.
type AccountRepo struct {
	c *Client
}

const accountColumns = `id, name, slug, status, plan_tier, owner_id, settings, metadata, created_at, updated_at`

func (r *AccountRepo) Create(ctx context.Context, account *model.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Status == "" {
		account.Status = model.AccountStatusActive
	}

	settings, err := encodeMap(account.Settings)
	if err != nil {
		return fmt.Errorf("encode account settings: %w", err)
	}

	metadata, err := encodeMap(account.Metadata)
	if err != nil {
		return fmt.Errorf("encode account metadata: %w", err)
	}

	query := r.c.rebind(`INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		account.ID, account.Name, account.Slug, account.Status, account.PlanTier,
		nullString(account.OwnerID), settings, metadata, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", normalizeErr(err))
	}

	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := r.c.rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)
	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, query, id))
}

func (r *AccountRepo) GetBySlug(ctx context.Context, slug string) (*model.Account, error) {
	query := r.c.rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE slug = ?`)
	return r.scanOne(r.c.conn(ctx).QueryRowContext(ctx, query, slug))
}

func (r *AccountRepo) ByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := r.c.rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY created_at`)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.c.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`

	rows, err := r.c.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *AccountRepo) Update(ctx context.Context, account *model.Account) error {
	account.UpdatedAt = time.Now().UTC()

	settings, err := encodeMap(account.Settings)
	if err != nil {
		return fmt.Errorf("encode account settings: %w", err)
	}

	metadata, err := encodeMap(account.Metadata)
	if err != nil {
		return fmt.Errorf("encode account metadata: %w", err)
	}

	query := r.c.rebind(`UPDATE accounts SET name = ?, slug = ?, status = ?, plan_tier = ?, owner_id = ?, settings = ?, metadata = ?, updated_at = ? WHERE id = ?`)

	result, err := r.c.conn(ctx).ExecContext(ctx, query,
		account.Name, account.Slug, account.Status, account.PlanTier,
		nullString(account.OwnerID), settings, metadata, account.UpdatedAt, account.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", normalizeErr(err))
	}

	return requireAffected(result)
}

// Delete removes the account and cascades to its workspaces, teams and all
// membership records.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	return r.c.RunInTransaction(ctx, func(ctx context.Context) error {
		conn := r.c.conn(ctx)

		cascade := []string{
			`DELETE FROM team_memberships WHERE account_id = ?`,
			`DELETE FROM workspace_memberships WHERE account_id = ?`,
			`DELETE FROM account_memberships WHERE account_id = ?`,
			`DELETE FROM teams WHERE account_id = ?`,
			`DELETE FROM workspaces WHERE account_id = ?`,
		}

		for _, stmt := range cascade {
			if _, err := conn.ExecContext(ctx, r.c.rebind(stmt), id); err != nil {
				return fmt.Errorf("cascade account delete: %w", err)
			}
		}

		result, err := conn.ExecContext(ctx, r.c.rebind(`DELETE FROM accounts WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		return requireAffected(result)
	})
}

// SlugTaken probes global slug uniqueness for the allocator.
func (r *AccountRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	query := r.c.rebind(`SELECT COUNT(1) FROM accounts WHERE slug = ?`)

	var count int
	if err := r.c.conn(ctx).QueryRowContext(ctx, query, slug).Scan(&count); err != nil {
		return false, fmt.Errorf("probe account slug: %w", err)
	}

	return count > 0, nil
}

func (r *AccountRepo) scanOne(row *sql.Row) (*model.Account, error) {
	var (
		account  model.Account
		ownerID  sql.NullString
		settings sql.NullString
		metadata sql.NullString
	)

	err := row.Scan(
		&account.ID, &account.Name, &account.Slug, &account.Status, &account.PlanTier,
		&ownerID, &settings, &metadata, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.OwnerID = stringPtr(ownerID)

	if account.Settings, err = decodeMap(settings); err != nil {
		return nil, fmt.Errorf("decode account settings: %w", err)
	}

	if account.Metadata, err = decodeMap(metadata); err != nil {
		return nil, fmt.Errorf("decode account metadata: %w", err)
	}

	return &account, nil
}

func (r *AccountRepo) scanAll(rows *sql.Rows) ([]*model.Account, error) {
	var accounts []*model.Account

	for rows.Next() {
		var (
			account  model.Account
			ownerID  sql.NullString
			settings sql.NullString
			metadata sql.NullString
		)

		err := rows.Scan(
			&account.ID, &account.Name, &account.Slug, &account.Status, &account.PlanTier,
			&ownerID, &settings, &metadata, &account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		account.OwnerID = stringPtr(ownerID)

		if account.Settings, err = decodeMap(settings); err != nil {
			return nil, fmt.Errorf("decode account settings: %w", err)
		}

		if account.Metadata, err = decodeMap(metadata); err != nil {
			return nil, fmt.Errorf("decode account metadata: %w", err)
		}

		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

// requireAffected converts a zero-row write into a not-found outcome, so a
// record outside the caller's reach is indistinguishable from an absent one.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
