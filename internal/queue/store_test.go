package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

func newStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s, err := New("queue", filepath.Join(t.TempDir(), "screenshots"), capacity, nil)
	require.NoError(t, err)
	return s
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "screenshots")
	s, err := New("queue", dir, 0, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, DefaultCapacity, s.Capacity())
}

func TestAddWritesUniqueFiles(t *testing.T) {
	s := newStore(t, 5)

	p1, evicted, err := s.Add([]byte("one"))
	require.NoError(t, err)
	assert.Empty(t, evicted)
	p2, _, err := s.Add([]byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.True(t, strings.HasPrefix(filepath.Base(p1), "screenshot-"))
	assert.Equal(t, ".png", filepath.Ext(p1))

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.Equal(t, []string{p1, p2}, s.List())
}

func TestBoundedQueue(t *testing.T) {
	s := newStore(t, 5)
	var all []string

	for n := 1; n <= 12; n++ {
		path, _, err := s.Add([]byte(fmt.Sprintf("shot-%d", n)))
		require.NoError(t, err)
		all = append(all, path)

		require.Equal(t, min(n, 5), s.Len(), "after %d captures", n)
		if n > 5 {
			assert.Equal(t, all[n-5:], s.List(), "queue keeps the newest five in order")
		}
	}

	for _, evicted := range all[:7] {
		assert.NoFileExists(t, evicted)
	}
	for _, kept := range all[7:] {
		assert.FileExists(t, kept)
	}
}

func TestAddIntoFullQueueEvictsOldest(t *testing.T) {
	s := newStore(t, 5)
	var paths []string
	for i := 0; i < 5; i++ {
		p, _, err := s.Add([]byte("x"))
		require.NoError(t, err)
		paths = append(paths, p)
	}

	for i := 0; i < 2; i++ {
		p, evicted, err := s.Add([]byte("new"))
		require.NoError(t, err)
		assert.Equal(t, []string{paths[i]}, evicted)
		assert.NoFileExists(t, paths[i])
		assert.FileExists(t, p)
		assert.Equal(t, 5, s.Len())
	}
}

func TestAddWriteFailureLeavesQueueUnchanged(t *testing.T) {
	s := newStore(t, 5)
	_, _, err := s.Add([]byte("ok"))
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(s.Dir()))

	_, _, err = s.Add([]byte("lost"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePersistenceFailed))
	assert.Equal(t, 1, s.Len())
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t, 5)
	p, _, err := s.Add([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(p))
	assert.NoFileExists(t, p)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Delete(p), "deleting again is not an error")
	require.NoError(t, s.Delete(filepath.Join(s.Dir(), "never-existed.png")))
	assert.Equal(t, 0, s.Len())
}

func TestDeleteMissingFileStillDropsReference(t *testing.T) {
	s := newStore(t, 5)
	p, _, err := s.Add([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	require.NoError(t, s.Delete(p))
	assert.False(t, s.Contains(p))
}

func TestDeleteFailureKeepsReference(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions differ on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	s := newStore(t, 5)
	p, _, err := s.Add([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, os.Chmod(s.Dir(), 0o500))
	t.Cleanup(func() { _ = os.Chmod(s.Dir(), 0o755) })

	err = s.Delete(p)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePersistenceFailed))
	assert.True(t, s.Contains(p))
}

func TestLast(t *testing.T) {
	s := newStore(t, 5)
	_, ok := s.Last()
	assert.False(t, ok)

	_, _, _ = s.Add([]byte("a"))
	p, _, _ := s.Add([]byte("b"))
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, p, last)
}

func TestClear(t *testing.T) {
	s := newStore(t, 5)
	var paths []string
	for i := 0; i < 3; i++ {
		p, _, err := s.Add([]byte("x"))
		require.NoError(t, err)
		paths = append(paths, p)
	}
	require.NoError(t, os.Remove(paths[1]))

	assert.Equal(t, 3, s.Clear())
	assert.Equal(t, 0, s.Len())
	for _, p := range paths {
		assert.NoFileExists(t, p)
	}
}

func TestPurgeRemovesStalePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screenshots")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := []string{"screenshot-a.png", "screenshot-b.PNG"}
	for _, name := range stale {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644))
	}
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o644))

	s, err := New("queue", dir, 5, nil)
	require.NoError(t, err)
	n, err := s.Purge()
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.Len())
	for _, name := range stale {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
	assert.FileExists(t, keep)
}

func TestOwns(t *testing.T) {
	s := newStore(t, 5)

	assert.True(t, s.Owns(filepath.Join(s.Dir(), "screenshot-1.png")))
	assert.False(t, s.Owns(s.Dir()))
	assert.False(t, s.Owns(filepath.Join(s.Dir(), "sub", "x.png")))
	assert.False(t, s.Owns(filepath.Join(s.Dir(), "..", "x.png")))
	assert.False(t, s.Owns(filepath.Join(t.TempDir(), "x.png")))
}
