package assets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const DefaultDebounce = 200 * time.Millisecond

// ReloadTarget is told about loose files that changed on disk. The resource
// manager implements it.
type ReloadTarget interface {
	ReloadResource(path string) error
	UnloadResource(path string)
}

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// Watcher follows the resources folder while the editor runs and hands
// changed files to its target. Bursts of events on one path are merged into
// a single reload.
type Watcher struct {
	target   ReloadTarget
	debounce time.Duration

	assets map[string]AssetInfo
	timers map[string]*time.Timer
	mutex  sync.Mutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewWatcher(target ReloadTarget, debounce time.Duration) (*Watcher, error) {
	if target == nil {
		return nil, errors.New("func NewWatcher - reload target is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		target:   target,
		debounce: debounce,
		assets:   make(map[string]AssetInfo),
		timers:   make(map[string]*time.Timer),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize starts watching root and every folder below it.
func (w *Watcher) Initialize(root string) error {
	if err := w.addRecursive(root); err != nil {
		return err
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.started {
		w.started = true
		go w.start()
	}
	return nil
}

// Close stops watching and drops pending reloads.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	started := w.started
	w.mutex.Unlock()

	if !started {
		return w.fsnotify.Close()
	}
	close(w.done)
	<-w.stopped
	return nil
}

// Assets returns the indexed loose files sorted by path.
func (w *Watcher) Assets() []AssetInfo {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	out := make([]AssetInfo, 0, len(w.assets))
	for _, a := range w.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (w *Watcher) addRecursive(name string) error {
	w.mutex.Lock()
	closed := w.isClosed
	w.mutex.Unlock()
	if closed {
		return errors.New("watcher already closed")
	}
	return w.watchRecursive(name, false)
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("[Asset Watcher] -> %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := w.watchRecursive(e.Name, true); err != nil {
				core.LogError("[Asset Watcher] -> cannot watch %q: %s", e.Name, err)
			}
		}
		return
	}

	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.schedule(e.Name)
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Can't stat a deleted path, so it may have been a folder as well.
		_ = w.fsnotify.Remove(e.Name)
		w.removeAsset(e.Name)
	}
}

// watchRecursive adds root and all folders under it to the watch list. When
// reload is set, the files found are scheduled for loading, which covers
// files copied in together with a new folder.
func (w *Watcher) watchRecursive(root string, reload bool) error {
	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		if reload {
			w.schedule(walkPath)
		} else {
			w.index(walkPath)
		}
		return nil
	})
}

func (w *Watcher) index(path string) (metadata.ResourceType, bool) {
	kind := metadata.GetResourceType(filepath.Ext(path))
	if !kind.IsValid() {
		return kind, false
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.assets[core.CanonicalPath(path)] = AssetInfo{
		Path:       core.CanonicalPath(path),
		Type:       kind,
		LastLoaded: time.Now(),
	}
	return kind, true
}

func (w *Watcher) schedule(path string) {
	if !metadata.GetResourceType(filepath.Ext(path)).IsValid() {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mutex.Lock()
		delete(w.timers, path)
		closed := w.isClosed
		w.mutex.Unlock()
		if closed {
			return
		}

		w.index(path)
		if err := w.target.ReloadResource(path); err != nil {
			core.LogError("[Asset Watcher] -> failed to reload %q: %s", path, err)
		}
	})
}

// Remove the asset from the index if it was deleted
func (w *Watcher) removeAsset(path string) {
	w.mutex.Lock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
	_, known := w.assets[core.CanonicalPath(path)]
	delete(w.assets, core.CanonicalPath(path))
	w.mutex.Unlock()

	if known {
		w.target.UnloadResource(path)
	}
}
