package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/lina/engine/core"
)

type TextureFilter uint8

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat uint8

const (
	TextureRepeatRepeat         TextureRepeat = 0x1
	TextureRepeatMirroredRepeat TextureRepeat = 0x2
	TextureRepeatClampToEdge    TextureRepeat = 0x3
	TextureRepeatClampToBorder  TextureRepeat = 0x4
)

var (
	imageMetaTag    = [4]byte{'L', 'I', 'M', 'G'}
	meshMetaTag     = [4]byte{'L', 'M', 'S', 'H'}
	materialMetaTag = [4]byte{'L', 'M', 'A', 'T'}
)

/**
 * @brief Sampler settings stored next to an image as <name>.linaimage.
 */
type ImageMeta struct {
	FilterMinify  TextureFilter
	FilterMagnify TextureFilter
	RepeatU       TextureRepeat
	RepeatV       TextureRepeat
	RepeatW       TextureRepeat
	GenerateMips  bool
	/** @brief 0 means the backend default. */
	Anisotropy float32
}

func DefaultImageMeta() ImageMeta {
	return ImageMeta{
		FilterMinify:  TextureFilterModeLinear,
		FilterMagnify: TextureFilterModeLinear,
		RepeatU:       TextureRepeatRepeat,
		RepeatV:       TextureRepeatRepeat,
		RepeatW:       TextureRepeatRepeat,
		GenerateMips:  true,
	}
}

/**
 * @brief Import settings stored next to a mesh as <name>.linamesh.
 */
type MeshMeta struct {
	Scale             float32
	FlipUVs           bool
	SmoothNormals     bool
	CalculateTangents bool
}

func DefaultMeshMeta() MeshMeta {
	return MeshMeta{Scale: 1}
}

/**
 * @brief Render settings stored next to a material as <name>.linamat.
 */
type MaterialMeta struct {
	SortPriority int32
	DoubleSided  bool
	Transparent  bool
}

func (m ImageMeta) Encode() []byte    { return encodeSidecar(imageMetaTag, m) }
func (m MeshMeta) Encode() []byte     { return encodeSidecar(meshMetaTag, m) }
func (m MaterialMeta) Encode() []byte { return encodeSidecar(materialMetaTag, m) }

func DecodeImageMeta(data []byte) (ImageMeta, error) {
	var m ImageMeta
	err := decodeSidecar(imageMetaTag, data, &m)
	return m, err
}

func DecodeMeshMeta(data []byte) (MeshMeta, error) {
	var m MeshMeta
	err := decodeSidecar(meshMetaTag, data, &m)
	return m, err
}

func DecodeMaterialMeta(data []byte) (MaterialMeta, error) {
	var m MaterialMeta
	err := decodeSidecar(materialMetaTag, data, &m)
	return m, err
}

func encodeSidecar(tag [4]byte, v interface{}) []byte {
	buf := &bytes.Buffer{}
	buf.Write(tag[:])
	// Only fixed-size values reach here, writing to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeSidecar(tag [4]byte, data []byte, v interface{}) error {
	size := binary.Size(v)
	if len(data) != len(tag)+size {
		return fmt.Errorf("%w: sidecar is %d bytes, expected %d", core.ErrDecodeFailed, len(data), len(tag)+size)
	}
	if !bytes.Equal(data[:len(tag)], tag[:]) {
		return fmt.Errorf("%w: sidecar tag %q, expected %q", core.ErrDecodeFailed, data[:len(tag)], tag[:])
	}
	return binary.Read(bytes.NewReader(data[len(tag):]), binary.LittleEndian, v)
}
