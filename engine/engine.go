package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spaghettifunk/lina/engine/assets"
	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/resources"
	"github.com/spaghettifunk/lina/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const targetFrameTime = time.Second / 60

type Engine struct {
	stage           atomic.Uint32
	gameInstance    *Game
	config          *ApplicationConfig
	clock           *core.Clock
	lastTime        time.Duration
	events          *core.EventBus
	jobSystem       *systems.JobSystem
	resourceManager *resources.ResourceManager
	watcher         *assets.Watcher
	registry        *prometheus.Registry
	metricsServer   *http.Server

	quit     chan struct{}
	quitOnce sync.Once
	running  atomic.Bool
	stopped  chan struct{}

	teardownOnce sync.Once
	teardownErr  error
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("func New - game and application config are required")
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	level, _ := core.ParseLogLevel(config.LogLevel)
	core.SetLogLevel(level)

	js, err := systems.NewJobSystem(config.Workers, config.Workers)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	bus := core.NewEventBus()
	registry := prometheus.NewRegistry()

	rm, err := resources.NewResourceManager(resources.ManagerConfig{
		Mode:          config.Mode,
		ResourcesRoot: config.ResourcesRoot,
		LevelDir:      config.LevelDir,
		PassKey:       config.PassKey,
		DefaultLevel:  config.DefaultLevel,
	}, bus, js, g.Scene, registry)
	if err != nil {
		core.LogError("%s", err)
		_ = js.Shutdown()
		return nil, err
	}

	g.Events = bus
	g.Resources = rm

	return &Engine{
		gameInstance:    g,
		config:          config,
		clock:           core.NewClock(),
		events:          bus,
		jobSystem:       js,
		resourceManager: rm,
		registry:        registry,
		quit:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}, nil
}

func (e *Engine) Stage() Stage {
	return Stage(e.stage.Load())
}

func (e *Engine) setStage(s Stage) {
	e.stage.Store(uint32(s))
}

func (e *Engine) Initialize() error {
	e.setStage(EngineStageInitializing)

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			core.LogError("game boot failed: %s", err)
			return err
		}
	}

	if e.config.MetricsAddr != "" {
		e.startMetricsServer()
	}

	e.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_APP_LOAD,
		Data: &core.AppLoadEvent{Mode: e.config.Mode},
	})

	if e.config.HotReload && e.config.Mode.IsEditor() {
		w, err := assets.NewWatcher(e.resourceManager, assets.DefaultDebounce)
		if err != nil {
			return err
		}
		if err := w.Initialize(e.config.ResourcesRoot); err != nil {
			core.LogWarn("hot reload disabled: %s", err)
			_ = w.Close()
		} else {
			e.watcher = w
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			core.LogError("game initialization failed: %s", err)
			return err
		}
	}

	e.setStage(EngineStageInitialized)
	core.LogInfo("%s initialized in %s mode", e.config.Name, e.config.Mode)
	return nil
}

// Run drives the game loop until the application quits, then tears the
// engine down.
func (e *Engine) Run() error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("func Run - engine is already running")
	}
	defer close(e.stopped)

	select {
	case <-e.quit:
		return e.teardown()
	default:
	}

	e.setStage(EngineStageRunning)
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_PRE_MAIN_LOOP})

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	ticker := time.NewTicker(targetFrameTime)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-e.quit:
			break loop
		case <-ticker.C:
			e.clock.Update()
			currentTime := e.clock.Elapsed()
			delta := (currentTime - e.lastTime).Seconds()

			if e.gameInstance.FnUpdate != nil {
				if err := e.gameInstance.FnUpdate(delta); err != nil {
					core.LogError("Game update failed, shutting down: %s", err)
					runErr = err
					break loop
				}
			}
			e.lastTime = currentTime
		}
	}

	e.clock.Stop()
	return errors.Join(runErr, e.teardown())
}

// Shutdown asks the running loop to stop and waits for the teardown. Without
// a running loop it tears the engine down itself. Safe to call from any
// goroutine.
func (e *Engine) Shutdown() error {
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	e.quitOnce.Do(func() { close(e.quit) })
	if e.running.Load() {
		<-e.stopped
	}
	return e.teardown()
}

// teardown runs once; later calls wait for the first and return its result.
func (e *Engine) teardown() error {
	e.teardownOnce.Do(func() {
		e.teardownErr = e.release()
	})
	return e.teardownErr
}

func (e *Engine) release() error {
	e.setStage(EngineStageShuttingDown)

	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_POST_MAIN_LOOP})

	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	e.resourceManager.Close()
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs, e.jobSystem.Shutdown())
	if e.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, e.metricsServer.Shutdown(ctx))
		cancel()
	}
	e.events.Shutdown()

	e.setStage(EngineStageUninitialized)
	return errors.Join(errs...)
}

func (e *Engine) ResourceManager() *resources.ResourceManager {
	return e.resourceManager
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

func (e *Engine) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.metricsServer = &http.Server{Addr: e.config.MetricsAddr, Handler: mux}

	go func() {
		if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.LogError("metrics server stopped: %s", err)
		}
	}()
	core.LogInfo("serving metrics on %s/metrics", e.config.MetricsAddr)
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.")
		e.quitOnce.Do(func() { close(e.quit) })
		return true
	}
	return false
}
