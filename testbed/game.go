package testbed

import (
	"sync/atomic"

	"github.com/spaghettifunk/lina/engine"
	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

type TestGame struct {
	*engine.Game
}

// Listeners run on the resource workers and the hot reload goroutine.
type gameState struct {
	imagesUploaded atomic.Int64
	meshesUploaded atomic.Int64
	audioUploaded  atomic.Int64
	levelsLoaded   atomic.Int64
}

func NewTestGame(config *engine.ApplicationConfig) (*TestGame, error) {
	if config == nil {
		config = engine.DefaultApplicationConfig()
	}
	config.Name = "Lina Testbed"

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

// Boot subscribes a stand-in backend that takes the decoded bytes of every
// loaded resource, the way a renderer or audio device would.
func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")

	g.Events.Register(core.EVENT_CODE_IMAGE_RESOURCE_LOADED, g, g.onResourceLoaded)
	g.Events.Register(core.EVENT_CODE_MESH_RESOURCE_LOADED, g, g.onResourceLoaded)
	g.Events.Register(core.EVENT_CODE_AUDIO_RESOURCE_LOADED, g, g.onResourceLoaded)
	g.Events.Register(core.EVENT_CODE_MATERIAL_RESOURCE_LOADED, g, g.onResourceLoaded)
	g.Events.Register(core.EVENT_CODE_SHADER_RESOURCE_LOADED, g, g.onResourceLoaded)
	g.Events.Register(core.EVENT_CODE_RESOURCE_PROGRESS_STARTED, g, g.onProgress)
	g.Events.Register(core.EVENT_CODE_RESOURCE_PROGRESS_ENDED, g, g.onProgress)
	g.Events.Register(core.EVENT_CODE_LEVEL_LOADED, g, g.onLevelLoaded)

	return nil
}

func (g *TestGame) Initialize() error {
	core.LogInfo("testbed running in %s mode", g.ApplicationConfig.Mode)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	core.LogInfo("testbed received %d images, %d meshes, %d audio clips, %d levels",
		state.imagesUploaded.Load(), state.meshesUploaded.Load(), state.audioUploaded.Load(), state.levelsLoaded.Load())
	return nil
}

func (g *TestGame) onResourceLoaded(context core.EventContext) bool {
	state := g.State.(*gameState)

	switch data := context.Data.(type) {
	case *metadata.ImageResourceLoaded:
		state.imagesUploaded.Add(1)
		core.LogDebug("uploading image %s (%dx%d)", data.Path, data.Width, data.Height)
	case *metadata.MeshResourceLoaded:
		state.meshesUploaded.Add(1)
		core.LogDebug("uploading mesh %s (%d vertices, %d indices)", data.Path, data.VertexCount, data.IndexCount)
	case *metadata.AudioResourceLoaded:
		state.audioUploaded.Add(1)
		core.LogDebug("uploading audio %s (%d Hz)", data.Path, data.SampleRate)
	case *metadata.MaterialResourceLoaded:
		core.LogDebug("creating material %s with shader %d", data.Config.Name, data.ShaderID)
	case *metadata.ShaderResourceLoaded:
		core.LogDebug("creating shader module %s (%d words)", data.Path, len(data.Code))
	default:
		core.LogError("wrong event associated with the event type `%d`", context.Type)
	}
	return false
}

func (g *TestGame) onProgress(context core.EventContext) bool {
	progress, ok := context.Data.(*metadata.ResourceProgressData)
	if !ok {
		return false
	}
	snapshot := progress.Snapshot()
	if context.Type == core.EVENT_CODE_RESOURCE_PROGRESS_STARTED {
		core.LogInfo("%s", snapshot.Title)
	} else {
		core.LogInfo("resource operation finished")
	}
	return false
}

func (g *TestGame) onLevelLoaded(context core.EventContext) bool {
	state := g.State.(*gameState)
	state.levelsLoaded.Add(1)

	level := g.Resources.ActiveLevel()
	core.LogInfo("level %q loaded with %d resources", level.Name, len(level.UsedResources()))
	return false
}
