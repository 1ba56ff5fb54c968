package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathResolver(t *testing.T) {
	dir := t.TempDir()
	r, err := NewPathResolver(dir)
	require.NoError(t, err)

	got := r.Resolve("workflows/a.cwl")
	assert.Equal(t, filepath.Join(dir, "workflows", "a.cwl"), got)
	assert.Equal(t, filepath.Join("workflows", "a.cwl"), r.Rel(got))

	abs := filepath.Join(dir, "elsewhere", "b.cwl")
	assert.Equal(t, abs, r.Resolve(abs))
}

func TestPathResolverDefaultsToWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	r, err := NewPathResolver("")
	require.NoError(t, err)
	assert.Equal(t, wd, r.BaseDir())
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.cwl")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	require.NoError(t, WriteFileAtomic(path, []byte("new contents")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new contents", string(data))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "f.cwl")
	err := WriteFileAtomic(path, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create temp file")
}

func TestHashing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	sum, err := GetFileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
	assert.Equal(t, sum, HashBytes([]byte("abc")))

	_, err = GetFileSHA256(path + ".missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileLock(t *testing.T) {
	target := filepath.Join(t.TempDir(), "target.cwl")

	first := NewFileLock(target)
	require.NoError(t, first.Acquire(context.Background(), time.Second))
	defer first.Release()

	second := NewFileLock(target)
	assert.Equal(t, first.Path(), second.Path())

	err := second.Acquire(context.Background(), 0)
	assert.ErrorIs(t, err, ErrLockTimeout)

	err = second.Acquire(context.Background(), 120*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(context.Background(), time.Second))
	require.NoError(t, second.Release())
}

func TestWithLock(t *testing.T) {
	target := filepath.Join(t.TempDir(), "target.cwl")

	called := false
	err := WithLock(context.Background(), target, time.Second, func() error {
		called = true
		// The lock is held for the duration of fn.
		other := NewFileLock(target)
		assert.ErrorIs(t, other.Acquire(context.Background(), 0), ErrLockTimeout)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// And released afterwards.
	again := NewFileLock(target)
	require.NoError(t, again.Acquire(context.Background(), 0))
	require.NoError(t, again.Release())
}
