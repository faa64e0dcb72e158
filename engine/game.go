package engine

import (
	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/resources"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by the engine before FnBoot runs.
	Events    *core.EventBus
	Resources *resources.ResourceManager
	// Optional, persisted in level files.
	Scene        resources.SceneSerializer
	State        interface{}
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
