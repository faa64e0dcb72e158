package resources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
	"github.com/spaghettifunk/lina/engine/resources/packager"
	"github.com/spaghettifunk/lina/engine/systems"
)

const tracerName = "github.com/spaghettifunk/lina/engine/resources"

// Folders directly under the resources root that hold engine-internal assets.
// They are loaded by the editor scan but never listed in the resource tree.
var reservedFolders = map[string]struct{}{
	"engine": {},
	"editor": {},
}

type ManagerState int

const (
	ManagerStateIdle ManagerState = iota
	ManagerStateScanningOrUnpacking
	ManagerStateReady
)

func (s ManagerState) String() string {
	switch s {
	case ManagerStateScanningOrUnpacking:
		return "scanning-or-unpacking"
	case ManagerStateReady:
		return "ready"
	}
	return "idle"
}

type ManagerConfig struct {
	Mode          core.ApplicationMode
	ResourcesRoot string
	LevelDir      string
	PassKey       string
	DefaultLevel  string
}

// EventBus is what the manager needs from the engine's event system.
type EventBus interface {
	core.EventSink
	Register(code core.SystemEventCode, listener interface{}, onEvent core.FnOnEvent) bool
	Unregister(code core.SystemEventCode, listener interface{}) bool
}

// ResourceEntry is one loaded file as shown in the resource tree.
type ResourceEntry struct {
	Path string
	Type metadata.ResourceType
}

type ScanStats struct {
	Loaded int
	Failed int
}

// ResourceManager owns the bundle and the active level. Imports, exports and
// the editor scan run one at a time on the executor: every new operation
// first waits for the previous one to finish.
type ResourceManager struct {
	config   ManagerConfig
	bus      EventBus
	executor systems.Executor
	scene    SceneSerializer
	metrics  *core.ResourceMetrics
	tracer   trace.Tracer

	bundle   *ResourceBundle
	progress *metadata.ResourceProgressData

	// serializes the operations that drain and submit
	opMutex sync.Mutex

	mutex      sync.RWMutex
	mode       core.ApplicationMode
	state      ManagerState
	level      *LevelResource
	future     *systems.Future
	discovered map[string]metadata.ResourceType
}

func NewResourceManager(config ManagerConfig, bus EventBus, executor systems.Executor, scene SceneSerializer, reg prometheus.Registerer) (*ResourceManager, error) {
	if bus == nil {
		return nil, fmt.Errorf("func NewResourceManager - event bus is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("func NewResourceManager - executor is required")
	}
	if config.ResourcesRoot == "" {
		config.ResourcesRoot = "Resources"
	}
	if config.DefaultLevel == "" {
		config.DefaultLevel = "default"
	}

	metrics := core.NewResourceMetrics(reg)
	rm := &ResourceManager{
		config:     config,
		bus:        bus,
		executor:   executor,
		scene:      scene,
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
		bundle:     NewResourceBundle(metrics),
		progress:   &metadata.ResourceProgressData{},
		mode:       config.Mode,
		level:      NewLevelResource(config.DefaultLevel),
		discovered: make(map[string]metadata.ResourceType),
	}

	bus.Register(core.EVENT_CODE_APP_LOAD, rm, rm.onAppLoad)
	bus.Register(core.EVENT_CODE_PRE_MAIN_LOOP, rm, rm.onPreMainLoop)
	bus.Register(core.EVENT_CODE_POST_MAIN_LOOP, rm, rm.onPostMainLoop)

	return rm, nil
}

func (rm *ResourceManager) onAppLoad(ctx core.EventContext) bool {
	mode := rm.Mode()
	if ev, ok := ctx.Data.(*core.AppLoadEvent); ok && ev.Mode != core.ApplicationModeUnknown {
		mode = ev.Mode
	}
	rm.OnAppLoad(mode)
	return false
}

func (rm *ResourceManager) onPreMainLoop(core.EventContext) bool {
	rm.OnPreMainLoop()
	return false
}

func (rm *ResourceManager) onPostMainLoop(core.EventContext) bool {
	rm.OnPostMainLoop()
	return false
}

// OnAppLoad starts the editor scan in editor modes and imports the default
// level in standalone mode.
func (rm *ResourceManager) OnAppLoad(mode core.ApplicationMode) {
	rm.mutex.Lock()
	rm.mode = mode
	rm.mutex.Unlock()

	if mode.IsEditor() {
		rm.opMutex.Lock()
		defer rm.opMutex.Unlock()

		rm.drain(false)
		rm.start("Loading resources...", "scan", func(ctx context.Context) error {
			_, err := rm.FillBundleForEditor(ctx, rm.config.ResourcesRoot)
			if err != nil {
				return err
			}
			rm.bundle.UnloadProcessedPackages()
			return nil
		}, nil)
		return
	}

	if err := rm.ImportLevel("", rm.config.DefaultLevel); err != nil {
		core.LogError("[Resource Manager] -> failed to import level %q: %s", rm.config.DefaultLevel, err)
	}
}

func (rm *ResourceManager) OnPreMainLoop() {
	core.LogDebug("[Resource Manager] -> Startup")
}

// OnPostMainLoop cancels any running operation and waits for it to return.
func (rm *ResourceManager) OnPostMainLoop() {
	rm.opMutex.Lock()
	defer rm.opMutex.Unlock()

	rm.drain(true)
	core.LogDebug("[Resource Manager] -> Shutdown")
}

// Close stops the running operation and detaches the manager from the bus.
func (rm *ResourceManager) Close() {
	rm.OnPostMainLoop()
	rm.bus.Unregister(core.EVENT_CODE_APP_LOAD, rm)
	rm.bus.Unregister(core.EVENT_CODE_PRE_MAIN_LOOP, rm)
	rm.bus.Unregister(core.EVENT_CODE_POST_MAIN_LOOP, rm)
}

// ImportLevel loads the level called name from dir, or from the configured
// level directory when dir is empty. A missing or corrupt level file fails the
// import and keeps the current level. In standalone mode the level's package
// is unpacked in the background and the level-loaded event follows once its
// resources have been published; Wait reports the outcome.
func (rm *ResourceManager) ImportLevel(dir, name string) error {
	rm.opMutex.Lock()
	defer rm.opMutex.Unlock()

	rm.drain(false)

	if dir == "" {
		dir = rm.config.LevelDir
	}
	level := NewLevelResource(name)
	if err := level.LoadFromFile(LevelPath(dir, name), rm.scene); err != nil {
		return err
	}

	rm.mutex.Lock()
	rm.level = level
	mode := rm.mode
	rm.mutex.Unlock()

	if mode != core.ApplicationModeStandalone {
		rm.bus.Fire(core.EventContext{Type: core.EVENT_CODE_LEVEL_LOADED})
		return nil
	}

	bundlePath := BundlePath(dir, name)
	rm.start("Unpacking level resources...", "import", func(ctx context.Context) error {
		discovered := make(map[string]metadata.ResourceType)
		stats, err := packager.Unpack(ctx, bundlePath, rm.config.PassKey, rm.bundle, rm.progress, discovered)
		rm.metrics.Skipped.Add(float64(stats.Skipped))
		if err != nil {
			return err
		}

		rm.mutex.Lock()
		rm.discovered = discovered
		rm.mutex.Unlock()

		rm.bundle.ProcessRawPackages(rm.bus)
		rm.bundle.UnloadProcessedPackages()
		return nil
	}, func() {
		rm.bus.Fire(core.EventContext{Type: core.EVENT_CODE_LEVEL_LOADED})
	})
	return nil
}

// ExportLevel writes the active level and a package of every resource it
// references into dir, or the configured level directory when dir is empty.
// The work happens in the background; Wait reports the outcome.
func (rm *ResourceManager) ExportLevel(dir, name string) error {
	rm.opMutex.Lock()
	defer rm.opMutex.Unlock()

	rm.drain(false)

	if dir == "" {
		dir = rm.config.LevelDir
	}

	rm.mutex.RLock()
	level := rm.level.Clone()
	rm.mutex.RUnlock()
	level.Name = name

	levelPath := LevelPath(dir, name)
	bundlePath := BundlePath(dir, name)
	rm.start("Exporting level...", "export", func(ctx context.Context) error {
		rm.progress.SetCurrentResourceName(levelPath)
		if err := level.Export(levelPath, rm.scene); err != nil {
			return err
		}

		rm.progress.SetTitle("Packing resources...")
		return packager.PackageFileset(ctx, level.UsedResources(), bundlePath, rm.config.PassKey, rm.progress)
	}, nil)
	return nil
}

// start submits one pipeline operation. The caller holds opMutex and has
// drained the previous operation.
func (rm *ResourceManager) start(title, operation string, run func(ctx context.Context) error, onSuccess func()) {
	rm.progress.SetTitle(title)
	rm.progress.SetProgress(0)
	rm.progress.SetState(metadata.ResourceProgressStatePending)

	rm.mutex.Lock()
	rm.state = ManagerStateScanningOrUnpacking
	rm.mutex.Unlock()

	started := false
	future := rm.executor.Submit(metadata.JobTask{
		Name:    operation,
		JobType: metadata.JOB_TYPE_RESOURCE_LOAD,
		OnStart: func(ctx context.Context) (err error) {
			started = true
			ctx, span := rm.tracer.Start(ctx, "resources."+operation, trace.WithAttributes(
				attribute.String("lina.mode", rm.Mode().String()),
				attribute.String("lina.title", title),
			))
			begin := time.Now()
			defer func() {
				rm.metrics.Duration.WithLabelValues(operation).Observe(time.Since(begin).Seconds())
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				span.End()
				rm.finish(err)
				rm.progress.Reset()
				rm.bus.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_PROGRESS_ENDED, Data: rm.progress})
			}()

			rm.progress.SetState(metadata.ResourceProgressStateInProgress)
			rm.bus.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_PROGRESS_STARTED, Data: rm.progress})
			return run(ctx)
		},
		OnComplete: onSuccess,
		OnFailure: func(err error) {
			if !started {
				// cancelled while queued
				rm.finish(err)
				rm.progress.Reset()
			}
		},
	})

	rm.mutex.Lock()
	rm.future = future
	rm.mutex.Unlock()
}

func (rm *ResourceManager) finish(err error) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	if err != nil {
		rm.state = ManagerStateIdle
		return
	}
	rm.state = ManagerStateReady
}

// drain waits for the current operation, cancelling it first when asked.
// The caller holds opMutex.
func (rm *ResourceManager) drain(cancel bool) {
	rm.mutex.RLock()
	future := rm.future
	rm.mutex.RUnlock()
	if future == nil {
		return
	}
	if cancel {
		future.Cancel()
	}
	_ = future.Wait()
}

// Wait blocks until the current operation finishes and returns its error.
func (rm *ResourceManager) Wait() error {
	rm.mutex.RLock()
	future := rm.future
	rm.mutex.RUnlock()
	if future == nil {
		return nil
	}
	return future.Wait()
}

// FillBundleForEditor loads every loose file under root. Subfolders are
// processed before the files of their parent, entries in name order.
func (rm *ResourceManager) FillBundleForEditor(ctx context.Context, root string) (ScanStats, error) {
	var stats ScanStats

	if _, err := os.Stat(root); err != nil {
		core.LogWarn("[Resource Manager] -> resources root %q is not readable: %s", root, err)
		return stats, nil
	}

	scan := &editorScan{total: countLoadableFiles(root), stats: &stats}
	err := rm.fillFolder(ctx, root, scan)
	core.LogInfo("[Resource Manager] -> scanned %s: %d loaded, %d failed", root, stats.Loaded, stats.Failed)
	return stats, err
}

type editorScan struct {
	total int
	done  int
	stats *ScanStats
}

func (rm *ResourceManager) fillFolder(ctx context.Context, dir string, scan *editorScan) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		core.LogError("[Resource Manager] -> cannot read folder %q: %s", dir, err)
		return nil
	}

	for _, e := range entries {
		if e.IsDir() {
			if err := rm.fillFolder(ctx, filepath.Join(dir, e.Name()), scan); err != nil {
				return err
			}
		}
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: editor scan", core.ErrTaskCancelled)
		}
		kind := metadata.GetResourceType(filepath.Ext(e.Name()))
		if !kind.IsValid() || kind.IsMeta() {
			continue
		}

		path := filepath.Join(dir, e.Name())
		scan.done++
		rm.progress.SetProgress(core.Fraction(scan.done, scan.total))
		if err := rm.bundle.FillProcessedPackage(path, kind, rm.progress, rm.bus); err != nil {
			scan.stats.Failed++
			continue
		}
		scan.stats.Loaded++
		rm.recordDiscovered(path, kind)
	}
	return nil
}

func countLoadableFiles(root string) int {
	n := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			kind := metadata.GetResourceType(filepath.Ext(d.Name()))
			if kind.IsValid() && !kind.IsMeta() {
				n++
			}
		}
		return nil
	})
	return n
}

func (rm *ResourceManager) recordDiscovered(path string, kind metadata.ResourceType) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.discovered[core.CanonicalPath(path)] = kind
}

// ReloadResource loads a changed loose file again. A changed sidecar reloads
// the resource it belongs to. Only materials and shaders stay in the bundle
// afterwards, like after the editor scan.
func (rm *ResourceManager) ReloadResource(path string) error {
	if !rm.Mode().IsEditor() {
		return fmt.Errorf("func ReloadResource - hot reload is only available in editor modes")
	}

	kind := metadata.GetResourceType(filepath.Ext(path))
	if kind.IsMeta() {
		owner, ownerKind, ok := rm.ownerOf(path, kind)
		if !ok {
			return nil
		}
		path, kind = owner, ownerKind
	}
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownResourceType, path)
	}

	rm.unloadWithSidecar(path, kind)
	if err := rm.bundle.FillProcessedPackage(path, kind, nil, rm.bus); err != nil {
		return err
	}
	rm.recordDiscovered(path, kind)

	if p, _ := PartitionOf(kind); p != PartitionMaterial && p != PartitionShader {
		rm.bundle.UnloadResource(core.StringID(path))
	}
	if metaPath := metadata.MetaPath(path, kind); metaPath != "" {
		rm.bundle.UnloadResource(core.StringID(metaPath))
	}
	core.LogInfo("[Resource Manager] -> reloaded %s", path)
	return nil
}

// UnloadResource forgets a loose file that was removed from disk.
func (rm *ResourceManager) UnloadResource(path string) {
	kind := metadata.GetResourceType(filepath.Ext(path))
	if kind.IsMeta() {
		return
	}
	rm.unloadWithSidecar(path, kind)

	rm.mutex.Lock()
	delete(rm.discovered, core.CanonicalPath(path))
	rm.mutex.Unlock()
}

func (rm *ResourceManager) unloadWithSidecar(path string, kind metadata.ResourceType) {
	rm.bundle.UnloadResource(core.StringID(path))
	if metaPath := metadata.MetaPath(path, kind); metaPath != "" {
		rm.bundle.UnloadResource(core.StringID(metaPath))
	}
}

func (rm *ResourceManager) ownerOf(metaPath string, metaKind metadata.ResourceType) (string, metadata.ResourceType, bool) {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	canonical := core.CanonicalPath(metaPath)
	for p, kind := range rm.discovered {
		if mk, ok := metadata.MetaTypeFor(kind); ok && mk == metaKind && metadata.MetaPath(p, kind) == canonical {
			return p, kind, true
		}
	}
	return "", metadata.ResourceTypeUnknown, false
}

// AddResourceReference records that the active level uses path.
func (rm *ResourceManager) AddResourceReference(path string, kind metadata.ResourceType) bool {
	if !kind.IsValid() || kind.IsMeta() {
		core.LogWarn("[Resource Manager] -> cannot reference %q of type %s", path, kind)
		return false
	}
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	return rm.level.AddUsedResource(path)
}

func (rm *ResourceManager) RemoveResourceReference(path string, kind metadata.ResourceType) bool {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	return rm.level.RemoveUsedResource(path)
}

func (rm *ResourceManager) GetCurrentProgressData() *metadata.ResourceProgressData {
	return rm.progress
}

// ActiveLevel returns a copy of the active level.
func (rm *ResourceManager) ActiveLevel() *LevelResource {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	return rm.level.Clone()
}

func (rm *ResourceManager) Bundle() *ResourceBundle {
	return rm.bundle
}

func (rm *ResourceManager) Metrics() *core.ResourceMetrics {
	return rm.metrics
}

func (rm *ResourceManager) State() ManagerState {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	return rm.state
}

func (rm *ResourceManager) Mode() core.ApplicationMode {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	return rm.mode
}

// ResourceTree lists the loaded files in path order, leaving out the
// reserved engine and editor folders.
func (rm *ResourceManager) ResourceTree() []ResourceEntry {
	root := core.CanonicalPath(rm.config.ResourcesRoot)

	rm.mutex.RLock()
	entries := make([]ResourceEntry, 0, len(rm.discovered))
	for p, kind := range rm.discovered {
		if isReserved(root, p) {
			continue
		}
		entries = append(entries, ResourceEntry{Path: p, Type: kind})
	}
	rm.mutex.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func isReserved(root, path string) bool {
	rel := path
	if root != "" && root != "." {
		var ok bool
		rel, ok = strings.CutPrefix(path, root+"/")
		if !ok {
			return false
		}
	}
	first, rest, found := strings.Cut(rel, "/")
	if !found || rest == "" {
		return false
	}
	_, reserved := reservedFolders[first]
	return reserved
}

// IsCancelled reports whether err comes from a cancelled operation.
func IsCancelled(err error) bool {
	return errors.Is(err, core.ErrTaskCancelled)
}
