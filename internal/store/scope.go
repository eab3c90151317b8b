package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
)

// activeAccountID reads the active account from the context carrier.
func activeAccountID(ctx context.Context) (string, bool) {
	account, ok := contexts.GetAccount(ctx)
	if !ok || account == nil {
		return "", false
	}

	return account.ID, true
}

// tenantFilter resolves the implicit account filter for a tenant-scoped
// read. With an unscoped context the filter is disabled. With no active
// account the read matches zero rows (fail closed, never fail open).
func tenantFilter(ctx context.Context) (accountID string, filtered bool, empty bool) {
	if authz.IsUnscoped(ctx) {
		return "", false, false
	}

	accountID, ok := activeAccountID(ctx)
	if !ok {
		return "", false, true
	}

	return accountID, true, false
}

// stampAccountID resolves the account id for a tenant-scoped create.
// An explicit id on the entity wins; otherwise the active account is
// stamped. With neither, the create fails with ErrMissingTenant.
func stampAccountID(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if authz.IsUnscoped(ctx) {
		// Even unscoped creates need an owner; the caller must set one.
		return "", ErrMissingTenant
	}

	accountID, ok := activeAccountID(ctx)
	if !ok {
		return "", ErrMissingTenant
	}

	return accountID, nil
}

// encodeMap serializes a settings/metadata map to its column form.
func encodeMap(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}

	return sql.NullString{String: string(raw), Valid: true}, nil
}

// decodeMap deserializes a settings/metadata column.
func decodeMap(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, err
	}

	return m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	s := ns.String

	return &s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}

	t := nt.Time

	return &t
}
