package slug

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Acme Corp", want: "acme-corp"},
		{name: "already normalized", in: "acme-corp", want: "acme-corp"},
		{name: "punctuation collapses", in: "Acme, Corp. (EU)!", want: "acme-corp-eu"},
		{name: "leading trailing junk", in: "--Acme--", want: "acme"},
		{name: "unicode stripped", in: "Café Zürich", want: "caf-z-rich"},
		{name: "digits kept", in: "Team 42", want: "team-42"},
		{name: "consecutive separators", in: "a  __  b", want: "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_EmptyFallsBack(t *testing.T) {
	got := Normalize("!!!")
	require.True(t, strings.HasPrefix(got, "item-"))
	require.Len(t, got, len("item-")+8)

	// Fallbacks are random, two calls must not collide.
	require.NotEqual(t, got, Normalize("!!!"))
}

func TestAllocate_CountsUpOnCollision(t *testing.T) {
	used := map[string]bool{"acme-corp": true}

	alloc := NewAllocator(0)

	got, err := alloc.Allocate(context.Background(), "Acme Corp", func(_ context.Context, candidate string) (bool, error) {
		return used[candidate], nil
	})
	require.NoError(t, err)
	require.Equal(t, "acme-corp-1", got)

	used[got] = true

	got, err = alloc.Allocate(context.Background(), "Acme Corp", func(_ context.Context, candidate string) (bool, error) {
		return used[candidate], nil
	})
	require.NoError(t, err)
	require.Equal(t, "acme-corp-2", got)
}

func TestAllocate_Exhausted(t *testing.T) {
	alloc := NewAllocator(5)

	_, err := alloc.Allocate(context.Background(), "busy", func(_ context.Context, _ string) (bool, error) {
		return true, nil
	})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestAllocate_Concurrent(t *testing.T) {
	// A shared set stands in for the DB unique constraint: the taken probe
	// and the claim happen under one lock, as persist does.
	var mu sync.Mutex

	used := map[string]bool{}
	alloc := NewAllocator(0)

	results := make([]string, 16)

	var g errgroup.Group

	for i := range results {
		i := i

		g.Go(func() error {
			slug, err := alloc.Allocate(context.Background(), "Acme Corp", func(_ context.Context, candidate string) (bool, error) {
				mu.Lock()
				defer mu.Unlock()

				if used[candidate] {
					return true, nil
				}

				used[candidate] = true

				return false, nil
			})
			if err != nil {
				return err
			}

			results[i] = slug

			return nil
		})
	}

	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, slug := range results {
		require.NotEmpty(t, slug)
		require.False(t, seen[slug], slug)

		seen[slug] = true
	}
}
