package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/metadata"
)

type fakeTarget struct {
	mutex    sync.Mutex
	reloaded map[string]int
	unloaded map[string]int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{reloaded: make(map[string]int), unloaded: make(map[string]int)}
}

func (f *fakeTarget) ReloadResource(path string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.reloaded[path]++
	return nil
}

func (f *fakeTarget) UnloadResource(path string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.unloaded[path]++
}

func (f *fakeTarget) reloads(path string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.reloaded[path]
}

func (f *fakeTarget) unloads(path string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.unloaded[path]
}

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func startWatcher(t *testing.T, root string) (*Watcher, *fakeTarget) {
	t.Helper()
	target := newFakeTarget()
	w, err := NewWatcher(target, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Initialize(root))
	t.Cleanup(func() { w.Close() })
	return w, target
}

func TestWatcherIndexesExistingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.png"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.wav"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("c"), 0o644))

	w, target := startWatcher(t, root)

	assets := w.Assets()
	require.Len(t, assets, 2)
	assert.Equal(t, filepath.Join(root, "a.png"), assets[0].Path)
	assert.Equal(t, metadata.ResourceTypeImage, assets[0].Type)
	assert.Equal(t, metadata.ResourceTypeAudio, assets[1].Type)
	assert.Equal(t, 0, target.reloads(filepath.Join(root, "a.png")))
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.png")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	_, target := startWatcher(t, root)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	assert.Eventually(t, func() bool { return target.reloads(path) >= 1 }, waitFor, tick)
}

func TestWatcherUnloadsRemovedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.mat")
	require.NoError(t, os.WriteFile(path, []byte("name = \"a\""), 0o644))
	w, target := startWatcher(t, root)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool { return target.unloads(path) == 1 }, waitFor, tick)
	assert.Empty(t, w.Assets())
}

func TestWatcherFollowsNewFolders(t *testing.T) {
	root := t.TempDir()
	w, target := startWatcher(t, root)

	dir := filepath.Join(root, "new")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	nested := filepath.Join(dir, "c.obj")
	assert.Eventually(t, func() bool {
		// the folder may be watched before or after the file lands in it
		_ = os.WriteFile(nested, []byte("v 0 0 0\n"), 0o644)
		return target.reloads(nested) >= 1
	}, waitFor, 50*time.Millisecond)

	assets := w.Assets()
	require.Len(t, assets, 1)
	assert.Equal(t, metadata.ResourceTypeMesh, assets[0].Type)
}

func TestWatcherIgnoresUnknownFiles(t *testing.T) {
	root := t.TempDir()
	_, target := startWatcher(t, root)

	path := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, target.reloads(path))
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(newFakeTarget(), 0)
	require.NoError(t, err)
	require.NoError(t, w.Initialize(t.TempDir()))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Initialize(t.TempDir()))

	_, err = NewWatcher(nil, 0)
	assert.Error(t, err)
}
