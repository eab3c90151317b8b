package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	db.SetMaxOpenConns(1)

	client := newClient(db, dialectSQLite)
	require.NoError(t, client.bootstrapSchema(context.Background()))

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// scopedCtx returns a context with the given account active.
func scopedCtx(account *model.Account) context.Context {
	ctx := contexts.WithFreshCarrier(context.Background())
	return contexts.WithAccount(ctx, account)
}

// unscopedCtx returns a context with the tenant filter disabled.
func unscopedCtx() context.Context {
	return authz.WithTestUnscoped(contexts.WithFreshCarrier(context.Background()))
}

// seedAccount creates an account outside any tenant scope.
func seedAccount(t *testing.T, client *Client, slug string) *model.Account {
	t.Helper()

	account := &model.Account{Name: slug, Slug: slug, PlanTier: "free"}
	require.NoError(t, client.Accounts.Create(unscopedCtx(), account))

	return account
}

func seedWorkspace(t *testing.T, client *Client, ctx context.Context, slug string) *model.Workspace {
	t.Helper()

	workspace := &model.Workspace{Name: slug, Slug: slug}
	require.NoError(t, client.Workspaces.Create(ctx, workspace))

	return workspace
}

func TestWorkspaceScoping_CrossTenantDisjoint(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	beta := seedAccount(t, client, "beta")

	alphaCtx := scopedCtx(alpha)
	betaCtx := scopedCtx(beta)

	wsAlpha := seedWorkspace(t, client, alphaCtx, "eng")
	wsBeta := seedWorkspace(t, client, betaCtx, "eng")

	require.Equal(t, alpha.ID, wsAlpha.AccountID)
	require.Equal(t, beta.ID, wsBeta.AccountID)

	listed, err := client.Workspaces.List(alphaCtx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, wsAlpha.ID, listed[0].ID)

	// A record owned by another tenant behaves like a missing record.
	_, err = client.Workspaces.GetByID(alphaCtx, wsBeta.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = client.Workspaces.Update(alphaCtx, &model.Workspace{ID: wsBeta.ID, Name: "stolen", Slug: "stolen"})
	require.ErrorIs(t, err, ErrNotFound)

	err = client.Workspaces.Delete(alphaCtx, wsBeta.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// The other tenant still sees its own record untouched.
	got, err := client.Workspaces.GetByID(betaCtx, wsBeta.ID)
	require.NoError(t, err)
	require.Equal(t, "eng", got.Slug)
}

func TestWorkspaceScoping_FailClosedWithoutAccount(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	seedWorkspace(t, client, scopedCtx(alpha), "eng")

	bare := contexts.WithFreshCarrier(context.Background())

	listed, err := client.Workspaces.List(bare)
	require.NoError(t, err)
	require.Empty(t, listed)

	_, err = client.Workspaces.GetBySlug(bare, "eng")
	require.ErrorIs(t, err, ErrNotFound)

	err = client.Workspaces.Create(bare, &model.Workspace{Name: "x", Slug: "x"})
	require.ErrorIs(t, err, ErrMissingTenant)
}

func TestWorkspaceScoping_UnscopedSeesAll(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	beta := seedAccount(t, client, "beta")
	seedWorkspace(t, client, scopedCtx(alpha), "eng")
	seedWorkspace(t, client, scopedCtx(beta), "ops")

	listed, err := client.Workspaces.List(unscopedCtx())
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Unscoped creates still need an explicit owner.
	err = client.Workspaces.Create(unscopedCtx(), &model.Workspace{Name: "orphan", Slug: "orphan"})
	require.ErrorIs(t, err, ErrMissingTenant)
}

func TestWorkspaceBulkUpdateStatus_RespectsScope(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	beta := seedAccount(t, client, "beta")

	alphaCtx := scopedCtx(alpha)
	betaCtx := scopedCtx(beta)

	seedWorkspace(t, client, alphaCtx, "one")
	seedWorkspace(t, client, alphaCtx, "two")
	seedWorkspace(t, client, betaCtx, "three")

	changed, err := client.Workspaces.BulkUpdateStatus(alphaCtx, model.WorkspaceStatusActive, model.WorkspaceStatusArchived)
	require.NoError(t, err)
	require.EqualValues(t, 2, changed)

	betaList, err := client.Workspaces.List(betaCtx)
	require.NoError(t, err)
	require.Len(t, betaList, 1)
	require.Equal(t, model.WorkspaceStatusActive, betaList[0].Status)

	// No active account matches zero rows, not every row.
	changed, err = client.Workspaces.BulkUpdateStatus(contexts.WithFreshCarrier(context.Background()), model.WorkspaceStatusActive, model.WorkspaceStatusArchived)
	require.NoError(t, err)
	require.Zero(t, changed)
}

func TestSlugUniqueness(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	beta := seedAccount(t, client, "beta")

	err := client.Accounts.Create(unscopedCtx(), &model.Account{Name: "dup", Slug: "alpha"})
	require.True(t, IsUniqueViolation(err))

	// Workspace slugs are unique per account, not globally.
	seedWorkspace(t, client, scopedCtx(alpha), "eng")
	seedWorkspace(t, client, scopedCtx(beta), "eng")

	err = client.Workspaces.Create(scopedCtx(alpha), &model.Workspace{Name: "dup", Slug: "eng"})
	require.True(t, IsUniqueViolation(err))

	taken, err := client.Workspaces.SlugTaken(scopedCtx(alpha), alpha.ID, "eng")
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = client.Workspaces.SlugTaken(scopedCtx(alpha), alpha.ID, "fresh")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestTeamRepo_ScopedLifecycle(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	alphaCtx := scopedCtx(alpha)
	workspace := seedWorkspace(t, client, alphaCtx, "eng")

	team := &model.Team{WorkspaceID: workspace.ID, Name: "Platform", Slug: "platform"}
	require.NoError(t, client.Teams.Create(alphaCtx, team))
	require.Equal(t, alpha.ID, team.AccountID)

	teams, err := client.Teams.ListByWorkspace(alphaCtx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	team.Name = "Platform Eng"
	require.NoError(t, client.Teams.Update(alphaCtx, team))

	got, err := client.Teams.GetByID(alphaCtx, team.ID)
	require.NoError(t, err)
	require.Equal(t, "Platform Eng", got.Name)

	// Team slugs are unique per workspace.
	err = client.Teams.Create(alphaCtx, &model.Team{WorkspaceID: workspace.ID, Name: "dup", Slug: "platform"})
	require.True(t, IsUniqueViolation(err))

	require.NoError(t, client.Teams.Delete(alphaCtx, team.ID))

	_, err = client.Teams.GetByID(alphaCtx, team.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccountDelete_Cascades(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	alphaCtx := scopedCtx(alpha)

	workspace := seedWorkspace(t, client, alphaCtx, "eng")
	team := &model.Team{WorkspaceID: workspace.ID, Name: "Core", Slug: "core"}
	require.NoError(t, client.Teams.Create(alphaCtx, team))

	user := &model.User{Email: "dev@alpha.test"}
	require.NoError(t, client.Users.Create(unscopedCtx(), user))

	require.NoError(t, client.AccountMemberships.Create(alphaCtx, &model.AccountMembership{UserID: user.ID, Role: "owner"}))
	require.NoError(t, client.WorkspaceMemberships.Create(alphaCtx, &model.WorkspaceMembership{WorkspaceID: workspace.ID, UserID: user.ID, Role: "member"}))
	require.NoError(t, client.TeamMemberships.Create(alphaCtx, &model.TeamMembership{TeamID: team.ID, UserID: user.ID, Role: "member"}))

	require.NoError(t, client.Accounts.Delete(unscopedCtx(), alpha.ID))

	for _, table := range []string{"workspaces", "teams", "account_memberships", "workspace_memberships", "team_memberships"} {
		var count int
		err := client.DB().QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(&count)
		require.NoError(t, err)
		require.Zero(t, count, table)
	}

	// The user survives; users live above the tenant boundary.
	_, err := client.Users.GetByID(unscopedCtx(), user.ID)
	require.NoError(t, err)
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	client := newTestClient(t)
	ctx := unscopedCtx()

	boom := errors.New("boom")

	err := client.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := client.Users.Create(ctx, &model.User{Email: "tx@test"}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = client.Users.GetByEmail(ctx, "tx@test")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRunInTransaction_JoinsExisting(t *testing.T) {
	client := newTestClient(t)
	ctx := unscopedCtx()

	err := client.RunInTransaction(ctx, func(ctx context.Context) error {
		return client.RunInTransaction(ctx, func(ctx context.Context) error {
			return client.Users.Create(ctx, &model.User{Email: "nested@test"})
		})
	})
	require.NoError(t, err)

	_, err = client.Users.GetByEmail(ctx, "nested@test")
	require.NoError(t, err)
}

func TestUserRepo_SetCurrentWorkspace(t *testing.T) {
	client := newTestClient(t)
	ctx := unscopedCtx()

	user := &model.User{Email: "switch@test"}
	require.NoError(t, client.Users.Create(ctx, user))

	wsID := uuid.NewString()
	require.NoError(t, client.Users.SetCurrentWorkspace(ctx, user.ID, &wsID))

	got, err := client.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentWorkspaceID)
	require.Equal(t, wsID, *got.CurrentWorkspaceID)

	require.NoError(t, client.Users.SetCurrentWorkspace(ctx, user.ID, nil))

	got, err = client.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, got.CurrentWorkspaceID)
}

func TestAuditEvents_InsertAndList(t *testing.T) {
	client := newTestClient(t)

	alpha := seedAccount(t, client, "alpha")
	beta := seedAccount(t, client, "beta")

	for i, accountID := range []string{alpha.ID, alpha.ID, beta.ID} {
		id := accountID
		event := &model.AuditEvent{
			Action:      "account.update",
			SubjectKind: "account",
			SubjectID:   id,
			AccountID:   &id,
			Metadata:    map[string]string{"seq": fmt.Sprint(i)},
		}
		require.NoError(t, client.AuditEvents.Insert(unscopedCtx(), event))
	}

	events, err := client.AuditEvents.ListForAccount(scopedCtx(alpha), alpha.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// The tenant filter keeps another account's trail out of reach.
	events, err = client.AuditEvents.ListForAccount(scopedCtx(alpha), beta.ID, 0)
	require.NoError(t, err)
	require.Empty(t, events)

	events, err = client.AuditEvents.ListForSubject(scopedCtx(beta), "account", beta.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}
