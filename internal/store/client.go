package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Dialect string `conf:"dialect" yaml:"dialect" json:"dialect"`
	DSN     string `conf:"dsn" yaml:"dsn" json:"dsn"`
	Debug   bool   `conf:"debug" yaml:"debug" json:"debug"`
}

const (
	dialectPostgres = "postgres"
	dialectMySQL    = "mysql"
	dialectSQLite   = "sqlite"
)

// Client wraps the SQL database and exposes one repository per entity type.
// Tenant-scoped repositories consult the context carrier on every
// operation; the Directory view reads across tenants for policy decisions.
type Client struct {
	db      *sql.DB
	dialect string

	Accounts             *AccountRepo
	Workspaces           *WorkspaceRepo
	Teams                *TeamRepo
	Users                *UserRepo
	AccountMemberships   *AccountMembershipRepo
	WorkspaceMemberships *WorkspaceMembershipRepo
	TeamMemberships      *TeamMembershipRepo
	AuditEvents          *AuditEventRepo
}

// NewClient opens the database and bootstraps the schema. Startup failures
// are fatal.
func NewClient(cfg Config) *Client {
	var (
		sqlDB     *sql.DB
		dbDialect string
		err       error
	)

	switch cfg.Dialect {
	case "postgres", "pgx", "postgresdb", "pg", "postgresql":
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			panic(err)
		}

		dbDialect = dialectPostgres
	case "sqlite3", "sqlite":
		sqlDB, err = sql.Open("sqlite", cfg.DSN)
		if err != nil {
			panic(err)
		}

		dbDialect = dialectSQLite
	case "mysql", "tidb":
		sqlDB, err = sql.Open("mysql", cfg.DSN)
		if err != nil {
			panic(err)
		}

		dbDialect = dialectMySQL
	default:
		panic(fmt.Errorf("invalid dialect: %s", cfg.Dialect))
	}

	client := newClient(sqlDB, dbDialect)

	if err := client.bootstrapSchema(context.Background()); err != nil {
		panic(err)
	}

	return client
}

func newClient(sqlDB *sql.DB, dialect string) *Client {
	client := &Client{db: sqlDB, dialect: dialect}
	client.Accounts = &AccountRepo{c: client}
	client.Workspaces = &WorkspaceRepo{c: client}
	client.Teams = &TeamRepo{c: client}
	client.Users = &UserRepo{c: client}
	client.AccountMemberships = &AccountMembershipRepo{c: client}
	client.WorkspaceMemberships = &WorkspaceMembershipRepo{c: client}
	client.TeamMemberships = &TeamMembershipRepo{c: client}
	client.AuditEvents = &AuditEventRepo{c: client}

	return client
}

func (c *Client) Close() error {
	return c.db.Close()
}

// DB exposes the underlying handle for transaction control.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Directory returns the cross-tenant read view used by policy decisions.
func (c *Client) Directory() *Directory {
	return &Directory{c: c}
}

// RunInTransaction executes fn inside a transaction. A transaction already
// present in the context is joined instead of nested.
func (c *Client) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()

			panic(r)
		}

		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	committed = true

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx
}

// conn returns the transaction bound to the context, or the database.
func (c *Client) conn(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}

	return c.db
}
