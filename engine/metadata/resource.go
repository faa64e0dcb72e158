package metadata

import (
	"strings"

	"github.com/spaghettifunk/lina/engine/core"
)

type ResourceType int

/** @brief Pre-defined resource types. The numeric values are persisted in packages. */
const (
	/** @brief Anything the pipeline does not know how to load. */
	ResourceTypeUnknown ResourceType = iota
	/** @brief Image resource type (textures). */
	ResourceTypeImage
	/** @brief Mesh resource type. */
	ResourceTypeMesh
	/** @brief Audio clip resource type. */
	ResourceTypeAudio
	/** @brief Material definition resource type. */
	ResourceTypeMaterial
	/** @brief Compiled SPIR-V shader resource type. */
	ResourceTypeShader
	/** @brief Sampler settings sidecar of an image. */
	ResourceTypeImageMeta
	/** @brief Import settings sidecar of a mesh. */
	ResourceTypeMeshMeta
	/** @brief Render settings sidecar of a material. */
	ResourceTypeMaterialMeta
)

/** @brief Sidecar metadata extensions, appended to the primary path without its extension. */
const (
	ImageMetaExtension    string = ".linaimage"
	MeshMetaExtension     string = ".linamesh"
	MaterialMetaExtension string = ".linamat"
)

/** @brief Files that make up a level on disk. */
const (
	LevelExtension  string = ".linalevel"
	BundleExtension string = ".linabundle"
)

var extensionTypes = map[string]ResourceType{
	"png":       ResourceTypeImage,
	"jpg":       ResourceTypeImage,
	"jpeg":      ResourceTypeImage,
	"bmp":       ResourceTypeImage,
	"tif":       ResourceTypeImage,
	"tiff":      ResourceTypeImage,
	"webp":      ResourceTypeImage,
	"obj":       ResourceTypeMesh,
	"gltf":      ResourceTypeMesh,
	"glb":       ResourceTypeMesh,
	"wav":       ResourceTypeAudio,
	"mp3":       ResourceTypeAudio,
	"mat":       ResourceTypeMaterial,
	"spv":       ResourceTypeShader,
	"linaimage": ResourceTypeImageMeta,
	"linamesh":  ResourceTypeMeshMeta,
	"linamat":   ResourceTypeMaterialMeta,
}

// GetResourceType maps a file extension, with or without the leading dot, to
// its resource kind. Unrecognised extensions are ResourceTypeUnknown.
func GetResourceType(extension string) ResourceType {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return ResourceTypeUnknown
}

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeAudio:
		return "audio"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImageMeta:
		return "image-meta"
	case ResourceTypeMeshMeta:
		return "mesh-meta"
	case ResourceTypeMaterialMeta:
		return "material-meta"
	}
	return "unknown"
}

func (t ResourceType) IsMeta() bool {
	return t == ResourceTypeImageMeta || t == ResourceTypeMeshMeta || t == ResourceTypeMaterialMeta
}

// IsValid reports whether t is one of the persisted kinds.
func (t ResourceType) IsValid() bool {
	return t > ResourceTypeUnknown && t <= ResourceTypeMaterialMeta
}

// MetaTypeFor returns the sidecar kind of a primary kind.
func MetaTypeFor(t ResourceType) (ResourceType, bool) {
	switch t {
	case ResourceTypeImage:
		return ResourceTypeImageMeta, true
	case ResourceTypeMesh:
		return ResourceTypeMeshMeta, true
	case ResourceTypeMaterial:
		return ResourceTypeMaterialMeta, true
	}
	return ResourceTypeUnknown, false
}

// MetaPath returns where the sidecar of a primary resource lives, or "" if the
// kind has none.
func MetaPath(path string, t ResourceType) string {
	var ext string
	switch t {
	case ResourceTypeImage:
		ext = ImageMetaExtension
	case ResourceTypeMesh:
		ext = MeshMetaExtension
	case ResourceTypeMaterial:
		ext = MaterialMetaExtension
	default:
		return ""
	}
	return RemoveExtension(path) + ext
}

// RemoveExtension strips the last extension of the file name in path.
func RemoveExtension(path string) string {
	slash := strings.LastIndexAny(path, "/\\")
	dot := strings.LastIndex(path, ".")
	if dot <= slash+1 {
		return path
	}
	return path[:dot]
}

/**
 * @brief A decoded resource held by the bundle. Concrete types live in the
 * loaders package.
 */
type Resource interface {
	ID() core.StringIDType
	Path() string
	Type() ResourceType
}

/**
 * @brief Undecoded bytes of one resource, as read from a package.
 */
type RawEntry struct {
	/** @brief The original path of the resource, used for logs and manifests. */
	Path string
	/** @brief For sidecar metadata, the ID of the resource it describes. Zero otherwise. */
	Owner core.StringIDType
	/** @brief The raw file contents. */
	Data []byte
}

/** @brief Raw entries of one kind keyed by resource ID. */
type RawPackage map[core.StringIDType]RawEntry
