package loaders

import (
	"fmt"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// MetadataResource is a sidecar describing another resource.
type MetadataResource struct {
	resourceInfo
	OwnerID core.StringIDType
}

func LoadMetadataFromFile(kind metadata.ResourceType, ownerID core.StringIDType, path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Meta Loader", path, err)
	}
	return LoadMetadataFromMemory(kind, core.StringID(path), ownerID, path, data, sink)
}

// LoadMetadataFromMemory decodes a sidecar of the given kind and publishes
// the matching typed event. Kinds other than the three sidecar kinds fail.
func LoadMetadataFromMemory(kind metadata.ResourceType, id, ownerID core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	var event core.EventContext

	switch kind {
	case metadata.ResourceTypeImageMeta:
		settings, err := metadata.DecodeImageMeta(data)
		if err != nil {
			return failed("Meta Loader", name, err)
		}
		event = core.EventContext{
			Type: core.EVENT_CODE_IMAGE_META_RESOURCE_LOADED,
			Data: &metadata.ImageMetaResourceLoaded{ID: id, OwnerID: ownerID, Settings: settings, Data: cloneBytes(data)},
		}
	case metadata.ResourceTypeMeshMeta:
		settings, err := metadata.DecodeMeshMeta(data)
		if err != nil {
			return failed("Meta Loader", name, err)
		}
		event = core.EventContext{
			Type: core.EVENT_CODE_MESH_META_RESOURCE_LOADED,
			Data: &metadata.MeshMetaResourceLoaded{ID: id, OwnerID: ownerID, Settings: settings, Data: cloneBytes(data)},
		}
	case metadata.ResourceTypeMaterialMeta:
		settings, err := metadata.DecodeMaterialMeta(data)
		if err != nil {
			return failed("Meta Loader", name, err)
		}
		event = core.EventContext{
			Type: core.EVENT_CODE_MATERIAL_META_RESOURCE_LOADED,
			Data: &metadata.MaterialMetaResourceLoaded{ID: id, OwnerID: ownerID, Settings: settings, Data: cloneBytes(data)},
		}
	default:
		return failed("Meta Loader", name, fmt.Errorf("%w: %s", core.ErrUnsupportedMetaType, kind))
	}

	sink.Fire(event)
	core.LogDebug("[Meta Loader] -> %s loaded: %s", kind, name)
	return succeeded(&MetadataResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: kind},
		OwnerID:      ownerID,
	})
}
