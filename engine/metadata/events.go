package metadata

import "github.com/spaghettifunk/lina/engine/core"

// Payloads of the typed resource events. Whoever receives one owns its byte
// slices, the pipeline keeps no reference after firing.

type ImageResourceLoaded struct {
	ID       core.StringIDType
	Path     string
	Width    uint32
	Height   uint32
	Channels uint8
	/** @brief Non-premultiplied RGBA8 pixels, row-major, top row first. */
	Pixels []byte
}

type MeshResourceLoaded struct {
	ID          core.StringIDType
	Path        string
	Format      string
	VertexCount uint32
	IndexCount  uint32
	/** @brief The encoded mesh file, parsed again by the backend that uploads it. */
	Data []byte
}

type AudioResourceLoaded struct {
	ID         core.StringIDType
	Path       string
	Format     string
	SampleRate int
	Channels   int
	/** @brief Length of the clip in frames. */
	Samples int
	Data    []byte
}

type MaterialResourceLoaded struct {
	ID         core.StringIDType
	Path       string
	Config     MaterialConfig
	ShaderID   core.StringIDType
	TextureIDs []core.StringIDType
	Data       []byte
}

type ShaderResourceLoaded struct {
	ID   core.StringIDType
	Path string
	Code []uint32
}

type ImageMetaResourceLoaded struct {
	ID       core.StringIDType
	OwnerID  core.StringIDType
	Settings ImageMeta
	Data     []byte
}

type MeshMetaResourceLoaded struct {
	ID       core.StringIDType
	OwnerID  core.StringIDType
	Settings MeshMeta
	Data     []byte
}

type MaterialMetaResourceLoaded struct {
	ID       core.StringIDType
	OwnerID  core.StringIDType
	Settings MaterialMeta
	Data     []byte
}
