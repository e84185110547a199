package readstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/viewport"
)

var _ viewport.ScreenTrack = (*Store)(nil)

func TestStore_RecordsReadPosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "read.db")
	s, err := Open(path, 42)
	require.NoError(t, err)

	s.SetOnscreen([]int{3, 4, 5}, []int{3, 4})
	assert.Equal(t, []int{3, 4, 5}, s.Onscreen())
	assert.True(t, s.IsRead(3))
	assert.False(t, s.IsRead(5))
	assert.Equal(t, 4, s.LastRead())

	s.SetOnscreen([]int{1, 2}, []int{1, 2})
	assert.Equal(t, 4, s.LastRead(), "last read never goes back")
	assert.Equal(t, 4, s.ReadCount())
	require.NoError(t, s.Close())

	reopened, err := Open(path, 42)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 4, reopened.LastRead())
	assert.True(t, reopened.IsRead(2))
	assert.Empty(t, reopened.Onscreen())
}

func TestStore_TopicsAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.db")
	s, err := Open(path, 1)
	require.NoError(t, err)
	s.SetOnscreen([]int{7}, []int{7})
	require.NoError(t, s.Close())

	other, err := Open(path, 2)
	require.NoError(t, err)
	defer other.Close()
	assert.False(t, other.IsRead(7))
	assert.Equal(t, 0, other.LastRead())
}

func TestStore_OnscreenOnly(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "read.db"), 1)
	require.NoError(t, err)
	defer s.Close()

	s.SetOnscreen([]int{1}, nil)
	assert.Equal(t, []int{1}, s.Onscreen())
	assert.Equal(t, 0, s.ReadCount())
}
