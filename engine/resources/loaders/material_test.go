package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const grassMaterial = `
name = "grass"
shader = "Resources/Shaders/lit.spv"
diffuse_colour = [0.5, 0.75, 0.25, 1.0]
shininess = 16.0
diffuse_map = "Resources/Textures/grass.png"
normal_map = "Resources/Textures/grass_n.png"
`

func TestLoadMaterial(t *testing.T) {
	sink := &recordingSink{}
	res := LoadMaterialFromMemory(core.StringID("Resources/grass.mat"), "Resources/grass.mat", []byte(grassMaterial), sink)
	require.True(t, res.OK(), "%v", res.Err)

	mat := res.Resource.(*MaterialResource)
	assert.Equal(t, metadata.ResourceTypeMaterial, mat.Type())
	assert.Equal(t, "grass", mat.Config.Name)
	assert.Equal(t, [4]float32{0.5, 0.75, 0.25, 1}, mat.Config.DiffuseColour)
	assert.Equal(t, float32(16), mat.Config.Shininess)
	assert.Equal(t, core.StringID("Resources/Shaders/lit.spv"), mat.ShaderID)
	assert.Equal(t, []core.StringIDType{
		core.StringID("Resources/Textures/grass.png"),
		core.StringID("Resources/Textures/grass_n.png"),
	}, mat.TextureIDs)

	events := sink.Events()
	require.Len(t, events, 1)
	loaded := events[0].Data.(*metadata.MaterialResourceLoaded)
	assert.Equal(t, mat.Config, loaded.Config)
	assert.Equal(t, mat.TextureIDs, loaded.TextureIDs)
}

func TestLoadMaterialDefaultsColour(t *testing.T) {
	res := LoadMaterialFromMemory(1, "plain.mat", []byte("name = \"plain\"\nshader = \"plain.spv\"\n"), &recordingSink{})
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, res.Resource.(*MaterialResource).Config.DiffuseColour)
	assert.Empty(t, res.Resource.(*MaterialResource).TextureIDs)
}

func TestLoadMaterialValidation(t *testing.T) {
	tests := map[string]string{
		"missing name":      "shader = \"a.spv\"\n",
		"missing shader":    "name = \"a\"\n",
		"colour too large":  "name = \"a\"\nshader = \"a.spv\"\ndiffuse_colour = [2.0, 0.0, 0.0, 1.0]\n",
		"negative shine":    "name = \"a\"\nshader = \"a.spv\"\nshininess = -1.0\n",
		"texture not image": "name = \"a\"\nshader = \"a.spv\"\ndiffuse_map = \"a.wav\"\n",
		"broken toml":       "name = \n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			res := LoadMaterialFromMemory(1, "bad.mat", []byte(data), sink)
			assert.ErrorIs(t, res.Err, core.ErrDecodeFailed)
			assert.Empty(t, sink.Events())
		})
	}
}
