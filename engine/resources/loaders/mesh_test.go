package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const quadOBJ = `# a quad
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1 -1/1/1
`

const triangleGLTF = `{"asset":{"version":"2.0"},"accessors":[{"componentType":5126,"count":3,"type":"VEC3"}],"meshes":[{"primitives":[{"attributes":{"POSITION":0}}]}]}`

func TestLoadMeshOBJFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	sink := &recordingSink{}
	res := LoadMeshFromFile(path, sink)
	require.True(t, res.OK(), "%v", res.Err)

	mesh := res.Resource.(*MeshResource)
	assert.Equal(t, metadata.ResourceTypeMesh, mesh.Type())
	assert.Equal(t, "obj", mesh.Format)
	assert.Equal(t, uint32(4), mesh.VertexCount)
	assert.Equal(t, uint32(6), mesh.IndexCount)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.EVENT_CODE_MESH_RESOURCE_LOADED, events[0].Type)
	assert.Equal(t, []byte(quadOBJ), events[0].Data.(*metadata.MeshResourceLoaded).Data)
}

func TestLoadMeshGLTFFromMemory(t *testing.T) {
	sink := &recordingSink{}
	res := LoadMeshFromMemory(7, "tri.gltf", []byte(triangleGLTF), sink)
	require.True(t, res.OK(), "%v", res.Err)

	mesh := res.Resource.(*MeshResource)
	assert.Equal(t, "gltf", mesh.Format)
	assert.Equal(t, uint32(3), mesh.VertexCount)
	assert.Equal(t, uint32(3), mesh.IndexCount)
	assert.Len(t, sink.Events(), 1)
}

func TestLoadMeshRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"face out of range": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"short vertex":      "v 0 0\n",
		"bad component":     "v 0 zero 0\n",
		"degenerate face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"no vertices":       "# empty\n",
		"gltf without mesh": `{"asset":{"version":"2.0"}}`,
		"gltf broken json":  `{"asset":`,
		"gltf bad accessor": `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":3}}]}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			res := LoadMeshFromMemory(1, "bad", []byte(data), sink)
			assert.ErrorIs(t, res.Err, core.ErrDecodeFailed)
			assert.Empty(t, sink.Events())
		})
	}
}
