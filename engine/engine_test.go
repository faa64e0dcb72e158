package engine

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/core"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func testGame(t *testing.T) *Game {
	cfg := DefaultApplicationConfig()
	cfg.ResourcesRoot = t.TempDir()
	cfg.LevelDir = t.TempDir()
	cfg.LogLevel = "error"
	return &Game{ApplicationConfig: cfg}
}

func TestNewRejectsInvalidGame(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Game{})
	assert.Error(t, err)

	g := testGame(t)
	g.ApplicationConfig.Workers = 0
	_, err = New(g)
	assert.Error(t, err)
}

func TestEngineEditorLifecycle(t *testing.T) {
	g := testGame(t)
	writePNG(t, filepath.Join(g.ApplicationConfig.ResourcesRoot, "logo.png"))

	var images, shutdowns atomic.Int32
	g.FnBoot = func() error {
		require.NotNil(t, g.Events)
		require.NotNil(t, g.Resources)
		g.Events.Register(core.EVENT_CODE_IMAGE_RESOURCE_LOADED, g, func(core.EventContext) bool {
			images.Add(1)
			return false
		})
		return nil
	}
	g.FnShutdown = func() error {
		shutdowns.Add(1)
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())

	require.NoError(t, e.ResourceManager().Wait())
	assert.Equal(t, int32(1), images.Load())
	assert.Same(t, g.Resources, e.ResourceManager())
	assert.Same(t, g.Events, e.Events())

	require.NoError(t, e.Shutdown())
	assert.Equal(t, int32(1), shutdowns.Load())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestEngineBootFailure(t *testing.T) {
	g := testGame(t)
	boom := errors.New("boom")
	g.FnBoot = func() error { return boom }

	e, err := New(g)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Initialize(), boom)
	require.NoError(t, e.Shutdown())
}

func TestEngineRunStopsOnUpdateError(t *testing.T) {
	g := testGame(t)
	boom := errors.New("update failed")
	var updates atomic.Int32
	g.FnUpdate = func(float64) error {
		updates.Add(1)
		return boom
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	assert.ErrorIs(t, e.Run(), boom)
	assert.Equal(t, int32(1), updates.Load())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestEngineRunStopsOnQuit(t *testing.T) {
	g := testGame(t)
	g.FnUpdate = func(float64) error {
		g.Events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	assert.NoError(t, e.Run())
}

// countTeardown counts game shutdowns and POST_MAIN_LOOP deliveries.
func countTeardown(g *Game, shutdowns, postLoops *atomic.Int32) {
	g.FnBoot = func() error {
		g.Events.Register(core.EVENT_CODE_POST_MAIN_LOOP, g, func(core.EventContext) bool {
			postLoops.Add(1)
			return false
		})
		return nil
	}
	g.FnShutdown = func() error {
		shutdowns.Add(1)
		return nil
	}
}

func TestEngineShutdownWhileRunning(t *testing.T) {
	g := testGame(t)
	var shutdowns, postLoops atomic.Int32
	countTeardown(g, &shutdowns, &postLoops)

	looping := make(chan struct{})
	var once sync.Once
	g.FnUpdate = func(float64) error {
		once.Do(func() { close(looping) })
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	select {
	case <-looping:
	case <-time.After(5 * time.Second):
		t.Fatal("main loop never ticked")
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Shutdown())
		}()
	}
	wg.Wait()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Equal(t, int32(1), shutdowns.Load())
	assert.Equal(t, int32(1), postLoops.Load())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestEngineShutdownBeforeRun(t *testing.T) {
	g := testGame(t)
	var shutdowns, postLoops atomic.Int32
	countTeardown(g, &shutdowns, &postLoops)
	var updates atomic.Int32
	g.FnUpdate = func(float64) error {
		updates.Add(1)
		return nil
	}

	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Run())

	assert.Equal(t, int32(0), updates.Load())
	assert.Equal(t, int32(1), shutdowns.Load())
	assert.Equal(t, int32(1), postLoops.Load())
	assert.Error(t, e.Run())
}
