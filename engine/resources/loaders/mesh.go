package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const (
	meshFormatOBJ  = "obj"
	meshFormatGLTF = "gltf"
	meshFormatGLB  = "glb"
)

var glbMagic = []byte("glTF")

// MeshResource holds the counts a backend needs to size its buffers.
type MeshResource struct {
	resourceInfo
	Format      string
	VertexCount uint32
	IndexCount  uint32
}

func LoadMeshFromFile(path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Mesh Loader", path, err)
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format != meshFormatOBJ && format != meshFormatGLTF && format != meshFormatGLB {
		format = sniffMeshFormat(data)
	}
	if format == meshFormatGLTF {
		// Loose .gltf files may reference buffers next to them, let the library resolve them.
		doc, err := gltf.Open(path)
		if err != nil {
			return failed("Mesh Loader", path, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err))
		}
		return publishMesh(core.StringID(path), path, format, data, doc, sink)
	}
	return loadMesh(core.StringID(path), path, format, data, sink)
}

func LoadMeshFromMemory(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	return loadMesh(id, name, sniffMeshFormat(data), data, sink)
}

func loadMesh(id core.StringIDType, name, format string, data []byte, sink core.EventSink) Result {
	switch format {
	case meshFormatGLTF, meshFormatGLB:
		doc := new(gltf.Document)
		if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
			return failed("Mesh Loader", name, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err))
		}
		return publishMesh(id, name, format, data, doc, sink)
	}

	vertices, indices, err := countOBJ(data)
	if err != nil {
		return failed("Mesh Loader", name, err)
	}
	return fireMesh(&MeshResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeMesh},
		Format:       meshFormatOBJ,
		VertexCount:  vertices,
		IndexCount:   indices,
	}, data, sink)
}

func publishMesh(id core.StringIDType, name, format string, data []byte, doc *gltf.Document, sink core.EventSink) Result {
	vertices, indices, err := countGLTF(doc)
	if err != nil {
		return failed("Mesh Loader", name, err)
	}
	return fireMesh(&MeshResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeMesh},
		Format:       format,
		VertexCount:  vertices,
		IndexCount:   indices,
	}, data, sink)
}

func fireMesh(res *MeshResource, data []byte, sink core.EventSink) Result {
	sink.Fire(core.EventContext{
		Type: core.EVENT_CODE_MESH_RESOURCE_LOADED,
		Data: &metadata.MeshResourceLoaded{
			ID:          res.id,
			Path:        res.path,
			Format:      res.Format,
			VertexCount: res.VertexCount,
			IndexCount:  res.IndexCount,
			Data:        cloneBytes(data),
		},
	})
	core.LogDebug("[Mesh Loader] -> Mesh loaded: %s (%d vertices, %d indices)", res.path, res.VertexCount, res.IndexCount)
	return succeeded(res)
}

func sniffMeshFormat(data []byte) string {
	if bytes.HasPrefix(data, glbMagic) {
		return meshFormatGLB
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		return meshFormatGLTF
	}
	return meshFormatOBJ
}

func countGLTF(doc *gltf.Document) (uint32, uint32, error) {
	var vertices, indices uint32
	primitives := 0
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			pos, ok := prim.Attributes["POSITION"]
			if !ok || int(pos) >= len(doc.Accessors) {
				return 0, 0, fmt.Errorf("%w: primitive without a valid POSITION accessor", core.ErrDecodeFailed)
			}
			count := uint32(doc.Accessors[pos].Count)
			vertices += count
			if prim.Indices != nil {
				idx := *prim.Indices
				if int(idx) >= len(doc.Accessors) {
					return 0, 0, fmt.Errorf("%w: index accessor %d out of range", core.ErrDecodeFailed, idx)
				}
				indices += uint32(doc.Accessors[idx].Count)
			} else {
				indices += count
			}
			primitives++
		}
	}
	if primitives == 0 {
		return 0, 0, fmt.Errorf("%w: document has no mesh primitives", core.ErrDecodeFailed)
	}
	return vertices, indices, nil
}

// countOBJ validates a Wavefront OBJ and counts its positions and the
// indices of its faces once triangulated as fans.
func countOBJ(data []byte) (uint32, uint32, error) {
	var vertices, indices uint32
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return 0, 0, fmt.Errorf("%w: line %d: vertex needs 3 components", core.ErrDecodeFailed, line)
			}
			for _, f := range fields[1:4] {
				if _, err := strconv.ParseFloat(f, 32); err != nil {
					return 0, 0, fmt.Errorf("%w: line %d: invalid vertex component %q", core.ErrDecodeFailed, line, f)
				}
			}
			vertices++
		case "f":
			corners := fields[1:]
			if len(corners) < 3 {
				return 0, 0, fmt.Errorf("%w: line %d: face needs at least 3 corners", core.ErrDecodeFailed, line)
			}
			for _, c := range corners {
				ref, err := strconv.Atoi(strings.SplitN(c, "/", 2)[0])
				if err != nil {
					return 0, 0, fmt.Errorf("%w: line %d: invalid face index %q", core.ErrDecodeFailed, line, c)
				}
				// Negative indices are relative to the vertices seen so far.
				if ref < 0 {
					ref = int(vertices) + ref + 1
				}
				if ref < 1 || ref > int(vertices) {
					return 0, 0, fmt.Errorf("%w: line %d: face index %q out of range", core.ErrDecodeFailed, line, c)
				}
			}
			indices += uint32(3 * (len(corners) - 2))
		default:
			// normals, texture coordinates, groups and material statements do not change the counts
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}
	if vertices == 0 {
		return 0, 0, fmt.Errorf("%w: mesh has no vertices", core.ErrDecodeFailed)
	}
	return vertices, indices, nil
}
