package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
	"github.com/strandhq/strand/internal/store"
)

type testEnv struct {
	client      *store.Client
	accounts    *AccountService
	workspaces  *WorkspaceService
	teams       *TeamService
	memberships *MembershipService
	users       *UserService
	auth        *AuthService
	identity    *IdentityService
}

func newTestEnv(t *testing.T, tenancy TenancyConfig) *testEnv {
	t.Helper()

	client := store.NewClient(store.Config{
		Dialect: "sqlite",
		DSN:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	client.DB().SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = client.Close()
	})

	abstract := NewAbstractService(client, authz.NewPolicies(client.Directory()), audit.NewRecorder(client.AuditEvents))
	users := NewUserService(abstract)

	return &testEnv{
		client:      client,
		accounts:    NewAccountService(abstract, tenancy),
		workspaces:  NewWorkspaceService(abstract, tenancy),
		teams:       NewTeamService(abstract, tenancy),
		memberships: NewMembershipService(abstract, tenancy),
		users:       users,
		auth:        NewAuthService(abstract, users, AuthConfig{SecretKey: "test-secret"}),
		identity:    NewIdentityService(abstract, users),
	}
}

func (e *testEnv) newUser(t *testing.T, email string) *model.User {
	t.Helper()

	ctx := authz.WithTestUnscoped(contexts.WithFreshCarrier(context.Background()))

	user, err := e.users.CreateUser(ctx, CreateUserInput{Email: email, Password: "swordfish"})
	require.NoError(t, err)

	return user
}

// userCtx builds a unit-of-work context for the given user with no active
// tenant.
func userCtx(user *model.User) context.Context {
	ctx := contexts.WithFreshCarrier(context.Background())
	ctx = contexts.WithUser(ctx, user)

	return authz.NewUserContext(ctx, user.ID)
}

// tenantCtx builds a unit-of-work context for the user with the account
// active.
func tenantCtx(user *model.User, account *model.Account) context.Context {
	return contexts.WithAccount(userCtx(user), account)
}

func (e *testEnv) newAccount(t *testing.T, owner *model.User, name string) *model.Account {
	t.Helper()

	account, err := e.accounts.CreateAccount(userCtx(owner), CreateAccountInput{Name: name})
	require.NoError(t, err)

	return account
}

func TestAccountService_CreateAccount(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")

	account, err := env.accounts.CreateAccount(userCtx(owner), CreateAccountInput{Name: "Acme Corp"})
	require.NoError(t, err)
	require.Equal(t, "acme-corp", account.Slug)
	require.Equal(t, "free", account.PlanTier)
	require.NotNil(t, account.OwnerID)
	require.Equal(t, owner.ID, *account.OwnerID)

	// The creator holds an immediately active owner membership.
	membership, err := env.client.Directory().AccountMembership(context.Background(), account.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	require.Equal(t, roles.AccountRoleOwner, membership.Role)
	require.Equal(t, roles.MembershipStatusActive, membership.Status)
	require.NotNil(t, membership.AcceptedAt)

	// A name collision gets the next counter.
	second, err := env.accounts.CreateAccount(userCtx(owner), CreateAccountInput{Name: "Acme Corp"})
	require.NoError(t, err)
	require.Equal(t, "acme-corp-1", second.Slug)

	// Creation is audited. The event was recorded before any tenant was
	// active, so read it back unscoped.
	events, err := env.client.AuditEvents.ListForSubject(authz.WithTestUnscoped(contexts.WithFreshCarrier(context.Background())), audit.SubjectKindAccount, account.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, "account.create", events[len(events)-1].Action)
}

func TestAccountService_CreateAccountRequiresUser(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	ctx := contexts.WithFreshCarrier(context.Background())

	_, err := env.accounts.CreateAccount(ctx, CreateAccountInput{Name: "Nobody Inc"})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAccountService_VisibilityAndRoleGates(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	outsider := env.newUser(t, "outsider@other.test")
	account := env.newAccount(t, owner, "Acme Corp")

	// Members see their accounts, outsiders see nothing.
	visible, err := env.accounts.ListAccounts(userCtx(owner))
	require.NoError(t, err)
	require.Len(t, visible, 1)

	visible, err = env.accounts.ListAccounts(userCtx(outsider))
	require.NoError(t, err)
	require.Empty(t, visible)

	_, err = env.accounts.GetAccount(userCtx(outsider), account.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	name := "Acme Renamed"

	_, err = env.accounts.UpdateAccount(userCtx(outsider), account.ID, UpdateAccountInput{Name: &name})
	require.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := env.accounts.UpdateAccount(userCtx(owner), account.ID, UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Acme Renamed", updated.Name)

	require.ErrorIs(t, env.accounts.DeleteAccount(userCtx(outsider), account.ID), ErrNotAuthorized)
	require.NoError(t, env.accounts.DeleteAccount(userCtx(owner), account.ID))
}

func TestWorkspaceService_CreateAndList(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	account := env.newAccount(t, owner, "Acme Corp")
	ctx := tenantCtx(owner, account)

	workspace, err := env.workspaces.CreateWorkspace(ctx, CreateWorkspaceInput{Name: "Engineering"})
	require.NoError(t, err)
	require.Equal(t, "engineering", workspace.Slug)
	require.Equal(t, account.ID, workspace.AccountID)

	// The creator gets an active owner membership on the workspace.
	membership, err := env.client.Directory().WorkspaceMembership(context.Background(), workspace.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	require.Equal(t, roles.WorkspaceRoleOwner, membership.Role)

	listed, err := env.workspaces.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// No active account yields an empty list, not a cross-tenant scan.
	listed, err = env.workspaces.ListWorkspaces(userCtx(owner))
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestWorkspaceService_CreateDeniedWithoutMembership(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	outsider := env.newUser(t, "outsider@other.test")
	account := env.newAccount(t, owner, "Acme Corp")

	_, err := env.workspaces.CreateWorkspace(tenantCtx(outsider, account), CreateWorkspaceInput{Name: "Sneaky"})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestTeamService_CrossEntityValidation(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	accountA := env.newAccount(t, owner, "Acme Corp")
	accountB := env.newAccount(t, owner, "Beta LLC")

	workspace, err := env.workspaces.CreateWorkspace(tenantCtx(owner, accountA), CreateWorkspaceInput{Name: "Engineering"})
	require.NoError(t, err)

	// Creating a team under account B for account A's workspace must fail
	// loudly, not silently re-stamp.
	_, err = env.teams.CreateTeam(tenantCtx(owner, accountB), CreateTeamInput{WorkspaceID: workspace.ID, Name: "Core"})
	require.Error(t, err)

	team, err := env.teams.CreateTeam(tenantCtx(owner, accountA), CreateTeamInput{WorkspaceID: workspace.ID, Name: "Core"})
	require.NoError(t, err)
	require.Equal(t, workspace.AccountID, team.AccountID)
	require.Equal(t, "core", team.Slug)
}

func TestAuthService_PasswordAndJWT(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	user := env.newUser(t, "login@acme.test")

	authed, err := env.auth.AuthenticateUser(context.Background(), "login@acme.test", "swordfish")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)

	_, err = env.auth.AuthenticateUser(context.Background(), "login@acme.test", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = env.auth.AuthenticateUser(context.Background(), "nobody@acme.test", "swordfish")
	require.ErrorIs(t, err, ErrInvalidPassword)

	token, err := env.auth.GenerateJWTToken(context.Background(), user)
	require.NoError(t, err)

	fromToken, err := env.auth.AuthenticateJWTToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, fromToken.ID)

	_, err = env.auth.AuthenticateJWTToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidJWT)
}

func TestIdentityService_InstallUserDerivesTenant(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	account := env.newAccount(t, owner, "Acme Corp")

	workspace, err := env.workspaces.CreateWorkspace(tenantCtx(owner, account), CreateWorkspaceInput{Name: "Engineering"})
	require.NoError(t, err)

	owner.CurrentWorkspaceID = &workspace.ID

	ctx := contexts.WithFreshCarrier(context.Background())
	ctx = env.identity.InstallUser(ctx, owner)

	gotAccount, ok := contexts.GetAccount(ctx)
	require.True(t, ok)
	require.Equal(t, account.ID, gotAccount.ID)

	gotWorkspace, ok := contexts.GetWorkspace(ctx)
	require.True(t, ok)
	require.Equal(t, workspace.ID, gotWorkspace.ID)
}

func TestIdentityService_StalePointerLeavesTenantEmpty(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	user := env.newUser(t, "drifter@acme.test")

	stale := uuid.NewString()
	user.CurrentWorkspaceID = &stale

	ctx := contexts.WithFreshCarrier(context.Background())
	ctx = env.identity.InstallUser(ctx, user)

	_, ok := contexts.GetAccount(ctx)
	require.False(t, ok)

	_, ok = contexts.GetWorkspace(ctx)
	require.False(t, ok)
}

func TestIdentityService_SwitchWorkspace(t *testing.T) {
	env := newTestEnv(t, TenancyConfig{})

	owner := env.newUser(t, "owner@acme.test")
	outsider := env.newUser(t, "outsider@other.test")
	account := env.newAccount(t, owner, "Acme Corp")

	workspace, err := env.workspaces.CreateWorkspace(tenantCtx(owner, account), CreateWorkspaceInput{Name: "Engineering"})
	require.NoError(t, err)

	ctx, err := env.identity.SwitchWorkspace(userCtx(owner), workspace.ID)
	require.NoError(t, err)

	gotWorkspace, ok := contexts.GetWorkspace(ctx)
	require.True(t, ok)
	require.Equal(t, workspace.ID, gotWorkspace.ID)

	persisted, err := env.users.GetUserByID(authz.WithTestUnscoped(context.Background()), owner.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted.CurrentWorkspaceID)
	require.Equal(t, workspace.ID, *persisted.CurrentWorkspaceID)

	_, err = env.identity.SwitchWorkspace(userCtx(outsider), workspace.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)
}
