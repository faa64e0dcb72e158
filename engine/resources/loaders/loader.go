package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// Result is what every loader returns: either a registered-ready resource or
// the reason it could not be built. A failed Result never carries a resource.
type Result struct {
	Resource metadata.Resource
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Resource != nil
}

func succeeded(res metadata.Resource) Result {
	return Result{Resource: res}
}

func failed(component string, name string, err error) Result {
	core.LogError("[%s] -> failed to load %q: %s", component, name, err)
	return Result{Err: err}
}

type resourceInfo struct {
	id   core.StringIDType
	path string
	kind metadata.ResourceType
}

func (ri resourceInfo) ID() core.StringIDType       { return ri.id }
func (ri resourceInfo) Path() string                { return ri.path }
func (ri resourceInfo) Type() metadata.ResourceType { return ri.kind }

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LoadFromFile loads a primary resource of the given kind from disk.
// Sidecar kinds go through LoadMetadataFromFile since they need their owner.
func LoadFromFile(kind metadata.ResourceType, path string, sink core.EventSink) Result {
	switch kind {
	case metadata.ResourceTypeImage:
		return LoadImageFromFile(path, sink)
	case metadata.ResourceTypeMesh:
		return LoadMeshFromFile(path, sink)
	case metadata.ResourceTypeAudio:
		return LoadAudioFromFile(path, sink)
	case metadata.ResourceTypeMaterial:
		return LoadMaterialFromFile(path, sink)
	case metadata.ResourceTypeShader:
		return LoadShaderFromFile(path, sink)
	}
	return failed("Loader", path, fmt.Errorf("%w: %s", core.ErrUnknownResourceType, kind))
}

// LoadFromMemory builds the resource of the given kind from raw package bytes.
func LoadFromMemory(kind metadata.ResourceType, id core.StringIDType, entry metadata.RawEntry, sink core.EventSink) Result {
	switch kind {
	case metadata.ResourceTypeImage:
		return LoadImageFromMemory(id, entry.Path, entry.Data, sink)
	case metadata.ResourceTypeMesh:
		return LoadMeshFromMemory(id, entry.Path, entry.Data, sink)
	case metadata.ResourceTypeAudio:
		return LoadAudioFromMemory(id, entry.Path, entry.Data, sink)
	case metadata.ResourceTypeMaterial:
		return LoadMaterialFromMemory(id, entry.Path, entry.Data, sink)
	case metadata.ResourceTypeShader:
		return LoadShaderFromMemory(id, entry.Path, entry.Data, sink)
	case metadata.ResourceTypeImageMeta, metadata.ResourceTypeMeshMeta, metadata.ResourceTypeMaterialMeta:
		return LoadMetadataFromMemory(kind, id, entry.Owner, entry.Path, entry.Data, sink)
	}
	return failed("Loader", entry.Path, fmt.Errorf("%w: %s", core.ErrUnknownResourceType, kind))
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
