package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strandhq/strand/internal/model"
)

// AuditEventRepo persists audit events. Events are append-only: there is no
// update or delete path, and inserts deliberately skip the tenant filter so
// unscoped system actions are recorded too.
type AuditEventRepo struct {
	c *Client
}

const auditColumns = `id, action, subject_kind, subject_id, actor_id, account_id, workspace_id, metadata, created_at`

func (r *AuditEventRepo) Insert(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	metadata, err := encodeMap(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}

	query := r.c.rebind(`INSERT INTO audit_events (` + auditColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.c.conn(ctx).ExecContext(ctx, query,
		event.ID, event.Action, event.SubjectKind, event.SubjectID,
		nullString(event.ActorID), nullString(event.AccountID), nullString(event.WorkspaceID),
		metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

// ListForAccount returns the account's events, newest first. Reads honor the
// tenant filter like every other scoped query.
func (r *AuditEventRepo) ListForAccount(ctx context.Context, accountID string, limit int) ([]*model.AuditEvent, error) {
	scopeID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	if filtered && scopeID != accountID {
		return nil, nil
	}

	query := `SELECT ` + auditColumns + ` FROM audit_events WHERE account_id = ? ORDER BY created_at DESC`
	args := []any{accountID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListForSubject returns the events recorded against one subject, newest
// first.
func (r *AuditEventRepo) ListForSubject(ctx context.Context, subjectKind, subjectID string) ([]*model.AuditEvent, error) {
	accountID, filtered, empty := tenantFilter(ctx)
	if empty {
		return nil, nil
	}

	query := `SELECT ` + auditColumns + ` FROM audit_events WHERE subject_kind = ? AND subject_id = ?`
	args := []any{subjectKind, subjectID}

	if filtered {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.c.conn(ctx).QueryContext(ctx, r.c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *AuditEventRepo) scanAll(rows *sql.Rows) ([]*model.AuditEvent, error) {
	var events []*model.AuditEvent

	for rows.Next() {
		var (
			event       model.AuditEvent
			actorID     sql.NullString
			accountID   sql.NullString
			workspaceID sql.NullString
			metadata    sql.NullString
		)

		err := rows.Scan(
			&event.ID, &event.Action, &event.SubjectKind, &event.SubjectID,
			&actorID, &accountID, &workspaceID, &metadata, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ActorID = stringPtr(actorID)
		event.AccountID = stringPtr(accountID)
		event.WorkspaceID = stringPtr(workspaceID)

		if event.Metadata, err = decodeMap(metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata: %w", err)
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
