package svchost

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	t.Parallel()

	t.Run("bounded", func(t *testing.T) {
		t.Parallel()

		pool, _ := NewPool(t.Context(), 1)
		release := make(chan struct{})
		require.True(t, pool.TryGo(func() error {
			<-release
			return nil
		}))
		require.False(t, pool.TryGo(func() error { return nil }))
		close(release)
		require.NoError(t, pool.Wait())
	})

	t.Run("unbounded", func(t *testing.T) {
		t.Parallel()

		pool, _ := NewPool(t.Context(), 0)
		release := make(chan struct{})
		for range 16 {
			require.True(t, pool.TryGo(func() error {
				<-release
				return nil
			}))
		}
		close(release)
		require.NoError(t, pool.Wait())
	})

	t.Run("first error cancels", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		pool, ctx := NewPool(t.Context(), 0)
		pool.Go(func() error {
			<-ctx.Done()
			return nil
		})
		pool.Go(func() error { return errBoom })
		require.ErrorIs(t, pool.Wait(), errBoom)
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
