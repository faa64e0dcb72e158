package metadata

import (
	"sync"

	"github.com/spaghettifunk/lina/engine/core"
)

type ResourceProgressState int

const (
	ResourceProgressStateNone ResourceProgressState = iota
	ResourceProgressStatePending
	ResourceProgressStateInProgress
)

func (s ResourceProgressState) String() string {
	switch s {
	case ResourceProgressStatePending:
		return "pending"
	case ResourceProgressStateInProgress:
		return "in-progress"
	}
	return "none"
}

// ProgressSnapshot is a consistent copy of the progress fields.
type ProgressSnapshot struct {
	State               ResourceProgressState
	Title               string
	CurrentResourceName string
	Progress            float32
}

// ResourceProgressData is written by the background task and read by the UI.
// Every access goes through the mutex.
type ResourceProgressData struct {
	mutex    sync.RWMutex
	snapshot ProgressSnapshot
	watchers []func(ResourceProgressState)
}

func (p *ResourceProgressData) Snapshot() ProgressSnapshot {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.snapshot
}

func (p *ResourceProgressData) State() ResourceProgressState {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.snapshot.State
}

// Watch registers fn to be called on every state change, on the goroutine
// that made the change.
func (p *ResourceProgressData) Watch(fn func(ResourceProgressState)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.watchers = append(p.watchers, fn)
}

// SetState changes the state and notifies watchers. Setting the current state again is a no-op.
func (p *ResourceProgressData) SetState(s ResourceProgressState) {
	p.mutex.Lock()
	if p.snapshot.State == s {
		p.mutex.Unlock()
		return
	}
	p.snapshot.State = s
	watchers := p.watchers
	p.mutex.Unlock()

	for _, fn := range watchers {
		fn(s)
	}
}

func (p *ResourceProgressData) SetTitle(title string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.snapshot.Title = title
}

func (p *ResourceProgressData) SetCurrentResourceName(name string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.snapshot.CurrentResourceName = name
}

func (p *ResourceProgressData) SetProgress(f float32) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.snapshot.Progress = core.Clamp(f, 0, 1)
}

// Reset clears every field and moves the state back to None.
func (p *ResourceProgressData) Reset() {
	p.mutex.Lock()
	p.snapshot.Title = ""
	p.snapshot.CurrentResourceName = ""
	p.snapshot.Progress = 0
	p.mutex.Unlock()
	p.SetState(ResourceProgressStateNone)
}
