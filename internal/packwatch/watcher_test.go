package packwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string, reload ReloadFunc) *Watcher {
	t.Helper()
	w := New(path, reload, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_ReloadsOnceAfterBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var reloads atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	}

	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())
}

func TestWatcher_SeesReplacementByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var reloads atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	tmp := filepath.Join(dir, "pack.sqlite3.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var reloads atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		reloads.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestWatcher_ReloadErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var reloads atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		reloads.Add(1)
		return errors.New("corrupt pack")
	})

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("v3"), 0o644))
	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var reloads atomic.Int32
	w := New(path, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, WithDebounce(300*time.Millisecond))
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()

	time.Sleep(400 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "pack.sqlite3"), func(context.Context) error { return nil })
	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ReloadsDoNotOverlap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var running, overlaps, reloads atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(150 * time.Millisecond)
		running.Add(-1)
		reloads.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v3"), 0o644))

	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, overlaps.Load())
}

func TestReloadGuard(t *testing.T) {
	var g reloadGuard
	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
	g.Release()
	assert.True(t, g.TryAcquire())
}
