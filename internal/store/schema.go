package store

import "context"

// Schema bootstrap. The unique constraints here are the source of truth for
// slug allocation and membership uniqueness; the application-level probes
// only minimize collision retries.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(191) NOT NULL,
		first_name VARCHAR(191) NOT NULL DEFAULT '',
		last_name VARCHAR(191) NOT NULL DEFAULT '',
		password VARCHAR(191) NOT NULL DEFAULT '',
		platform_role VARCHAR(32) NOT NULL DEFAULT 'member',
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		current_workspace_id VARCHAR(64),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_users_email UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		slug VARCHAR(191) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		plan_tier VARCHAR(64) NOT NULL DEFAULT 'free',
		owner_id VARCHAR(64),
		settings TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_accounts_slug UNIQUE (slug)
	)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		name VARCHAR(191) NOT NULL,
		slug VARCHAR(191) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		settings TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_workspaces_account_slug UNIQUE (account_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		workspace_id VARCHAR(64) NOT NULL,
		name VARCHAR(191) NOT NULL,
		slug VARCHAR(191) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_teams_workspace_slug UNIQUE (workspace_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS account_memberships (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		role VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		inviter_id VARCHAR(64),
		invited_at TIMESTAMP,
		accepted_at TIMESTAMP,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_account_memberships UNIQUE (account_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS workspace_memberships (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		workspace_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		role VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		inviter_id VARCHAR(64),
		invited_at TIMESTAMP,
		accepted_at TIMESTAMP,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_workspace_memberships UNIQUE (workspace_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS team_memberships (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		team_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		role VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		inviter_id VARCHAR(64),
		invited_at TIMESTAMP,
		accepted_at TIMESTAMP,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_team_memberships UNIQUE (team_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id VARCHAR(64) PRIMARY KEY,
		action VARCHAR(191) NOT NULL,
		subject_kind VARCHAR(64) NOT NULL DEFAULT '',
		subject_id VARCHAR(64) NOT NULL DEFAULT '',
		actor_id VARCHAR(64),
		account_id VARCHAR(64),
		workspace_id VARCHAR(64),
		metadata TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
}

func (c *Client) bootstrapSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
