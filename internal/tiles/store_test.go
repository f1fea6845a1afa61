package tiles

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

func TestNew_GeneratesUUID(t *testing.T) {
	now := time.Now()
	a := New(now, 100, 1, 2)
	b := New(now, 100, 1, 2)

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 100.0, a.Price)
	assert.Equal(t, 1.0, a.PixelX)
	assert.Equal(t, 2.0, a.PixelY)
}

func TestStore_AddListRemove(t *testing.T) {
	s := NewStore()
	now := time.Now()
	a, b, c := New(now, 1, 0, 0), New(now, 2, 0, 0), New(now, 3, 0, 0)

	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	require.NoError(t, s.Add(c))
	assert.Equal(t, []domain.Tile{a, b, c}, s.List())

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := s.Add(a)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("remove leaves others untouched", func(t *testing.T) {
		assert.True(t, s.Remove(b.ID))
		assert.Equal(t, []domain.Tile{a, c}, s.List())
		_, ok := s.Get(b.ID)
		assert.False(t, ok)
		got, ok := s.Get(c.ID)
		require.True(t, ok)
		assert.Equal(t, c, got)
	})

	t.Run("remove missing id is a no-op", func(t *testing.T) {
		assert.False(t, s.Remove("does-not-exist"))
		assert.False(t, s.Remove(b.ID))
		assert.Equal(t, 2, s.Len())
	})
}

func TestStore_EmptyID(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Add(domain.Tile{}))
	assert.Empty(t, s.List())
}
