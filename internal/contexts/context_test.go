package contexts

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/model"
)

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUser(ctx)
	assert.False(t, ok)

	user := &model.User{ID: "u-1", Email: "dev@example.com"}
	ctx = WithUser(ctx, user)

	got, ok := GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestAccountAndWorkspaceRoundTrip(t *testing.T) {
	ctx := context.Background()

	account := &model.Account{ID: "a-1", Slug: "acme"}
	workspace := &model.Workspace{ID: "w-1", AccountID: "a-1"}

	ctx = WithAccount(ctx, account)
	ctx = WithWorkspace(ctx, workspace)

	gotAccount, ok := GetAccount(ctx)
	require.True(t, ok)
	assert.Equal(t, account, gotAccount)

	gotWorkspace, ok := GetWorkspace(ctx)
	require.True(t, ok)
	assert.Equal(t, workspace, gotWorkspace)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	id, ok := GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-123", id)
}

func TestReset(t *testing.T) {
	ctx := WithFreshCarrier(context.Background())
	ctx = WithUser(ctx, &model.User{ID: "u-1"})
	ctx = WithAccount(ctx, &model.Account{ID: "a-1"})
	ctx = WithWorkspace(ctx, &model.Workspace{ID: "w-1"})
	ctx = WithRequestID(ctx, "req-1")

	Reset(ctx)

	_, ok := GetUser(ctx)
	assert.False(t, ok)
	_, ok = GetAccount(ctx)
	assert.False(t, ok)
	_, ok = GetWorkspace(ctx)
	assert.False(t, ok)
	_, ok = GetRequestID(ctx)
	assert.False(t, ok)

	// Idempotent: a second reset leaves the same empty state.
	Reset(ctx)

	_, ok = GetUser(ctx)
	assert.False(t, ok)
}

func TestResetWithoutCarrier(t *testing.T) {
	// Reset on a context that never had a carrier is a no-op.
	Reset(context.Background())
}

func TestCarrierIsolationAcrossGoroutines(t *testing.T) {
	base := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			ctx := WithFreshCarrier(base)
			account := &model.Account{ID: fmt.Sprintf("a-%d", n)}
			ctx = WithAccount(ctx, account)

			got, ok := GetAccount(ctx)
			assert.True(t, ok)
			assert.Equal(t, account.ID, got.ID)
		}(i)
	}

	wg.Wait()

	// The base context observed none of the concurrent writes.
	_, ok := GetAccount(base)
	assert.False(t, ok)
}
