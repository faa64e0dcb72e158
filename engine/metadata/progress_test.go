package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressWatchSeesEveryChange(t *testing.T) {
	p := &ResourceProgressData{}
	var states []ResourceProgressState
	p.Watch(func(s ResourceProgressState) { states = append(states, s) })

	p.SetState(ResourceProgressStatePending)
	p.SetState(ResourceProgressStatePending)
	p.SetState(ResourceProgressStateInProgress)
	p.Reset()

	assert.Equal(t, []ResourceProgressState{
		ResourceProgressStatePending,
		ResourceProgressStateInProgress,
		ResourceProgressStateNone,
	}, states)
}

func TestProgressResetClearsFields(t *testing.T) {
	p := &ResourceProgressData{}
	p.SetTitle("Loading Level")
	p.SetCurrentResourceName("Resources/wall.png")
	p.SetProgress(0.4)
	p.SetState(ResourceProgressStateInProgress)

	snap := p.Snapshot()
	assert.Equal(t, "Loading Level", snap.Title)
	assert.Equal(t, "Resources/wall.png", snap.CurrentResourceName)
	assert.Equal(t, float32(0.4), snap.Progress)

	p.Reset()
	assert.Equal(t, ProgressSnapshot{}, p.Snapshot())
	assert.Equal(t, ResourceProgressStateNone, p.State())
}

func TestProgressIsClamped(t *testing.T) {
	p := &ResourceProgressData{}

	p.SetProgress(1.5)
	assert.Equal(t, float32(1), p.Snapshot().Progress)

	p.SetProgress(-0.1)
	assert.Equal(t, float32(0), p.Snapshot().Progress)
}

func TestMaterialTextureNames(t *testing.T) {
	mc := MaterialConfig{DiffuseMapName: "a.png", NormalMapName: "n.png"}
	assert.Equal(t, []string{"a.png", "n.png"}, mc.TextureNames())
	assert.Empty(t, (&MaterialConfig{}).TextureNames())
}
