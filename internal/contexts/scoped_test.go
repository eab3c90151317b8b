package contexts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/model"
)

func TestScopedRestoresOnSuccess(t *testing.T) {
	outer := &model.Account{ID: "a-outer"}
	inner := &model.Account{ID: "a-inner"}

	ctx := WithFreshCarrier(context.Background())
	ctx = WithAccount(ctx, outer)

	err := Scoped(ctx, Overrides{Account: OverrideAccount(inner)}, func(ctx context.Context) error {
		got, ok := GetAccount(ctx)
		require.True(t, ok)
		assert.Equal(t, "a-inner", got.ID)

		return nil
	})
	require.NoError(t, err)

	got, ok := GetAccount(ctx)
	require.True(t, ok)
	assert.Equal(t, "a-outer", got.ID)
}

func TestScopedRestoresOnError(t *testing.T) {
	ctx := WithFreshCarrier(context.Background())
	ctx = WithUser(ctx, &model.User{ID: "u-outer"})

	wantErr := errors.New("boom")

	err := Scoped(ctx, Overrides{User: OverrideUser(&model.User{ID: "u-inner"})}, func(ctx context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	got, ok := GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-outer", got.ID)
}

func TestScopedRestoresOnPanic(t *testing.T) {
	ctx := WithFreshCarrier(context.Background())
	ctx = WithAccount(ctx, &model.Account{ID: "a-outer"})

	require.Panics(t, func() {
		_ = Scoped(ctx, Overrides{Account: OverrideAccount(&model.Account{ID: "a-inner"})}, func(ctx context.Context) error {
			panic("boom")
		})
	})

	got, ok := GetAccount(ctx)
	require.True(t, ok)
	assert.Equal(t, "a-outer", got.ID)
}

func TestScopedCanClearFields(t *testing.T) {
	ctx := WithFreshCarrier(context.Background())
	ctx = WithAccount(ctx, &model.Account{ID: "a-outer"})

	err := Scoped(ctx, Overrides{Account: OverrideAccount(nil)}, func(ctx context.Context) error {
		_, ok := GetAccount(ctx)
		assert.False(t, ok)

		return nil
	})
	require.NoError(t, err)

	_, ok := GetAccount(ctx)
	assert.True(t, ok)
}

func TestScopedLeavesUntouchedFields(t *testing.T) {
	ctx := WithFreshCarrier(context.Background())
	ctx = WithUser(ctx, &model.User{ID: "u-1"})
	ctx = WithWorkspace(ctx, &model.Workspace{ID: "w-1"})

	err := Scoped(ctx, Overrides{Account: OverrideAccount(&model.Account{ID: "a-1"})}, func(ctx context.Context) error {
		user, ok := GetUser(ctx)
		require.True(t, ok)
		assert.Equal(t, "u-1", user.ID)

		workspace, ok := GetWorkspace(ctx)
		require.True(t, ok)
		assert.Equal(t, "w-1", workspace.ID)

		return nil
	})
	require.NoError(t, err)
}
