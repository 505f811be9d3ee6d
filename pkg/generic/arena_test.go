package generic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArena(t *testing.T) {
	t.Run("Arena: reuse before growth", func(t *testing.T) {
		made := 0
		a := NewArena(func() *int {
			made++
			v := made
			return &v
		})

		i0, v0, fresh := a.Acquire()
		require.True(t, fresh)
		i1, _, fresh := a.Acquire()
		require.True(t, fresh)
		require.NotEqual(t, i0, i1)
		require.Equal(t, 2, a.Live())

		require.True(t, a.Release(i0))
		require.False(t, a.Release(i0))
		require.Equal(t, 1, a.Live())

		i2, v2, fresh := a.Acquire()
		require.False(t, fresh)
		require.Equal(t, i0, i2)
		require.Same(t, v0, v2)
		require.Equal(t, 2, made)
		require.Equal(t, 2, a.Len())
	})

	t.Run("Arena: out of range release", func(t *testing.T) {
		a := NewArena(func() int { return 0 })
		require.False(t, a.Release(-1))
		require.False(t, a.Release(5))
	})
}
