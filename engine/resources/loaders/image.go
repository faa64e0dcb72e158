package loaders

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// ImageResource describes a decoded image. The pixels themselves travel in
// the loaded event and are not kept here.
type ImageResource struct {
	resourceInfo
	Width    uint32
	Height   uint32
	Channels uint8
}

func LoadImageFromFile(path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Image Loader", path, err)
	}
	return loadImage(core.StringID(path), path, data, sink)
}

func LoadImageFromMemory(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	return loadImage(id, name, data, sink)
}

func loadImage(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	pixels, err := decodeImage(data)
	if err != nil {
		return failed("Image Loader", name, err)
	}

	bounds := pixels.Bounds()
	res := &ImageResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeImage},
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		Channels:     4,
	}

	sink.Fire(core.EventContext{
		Type: core.EVENT_CODE_IMAGE_RESOURCE_LOADED,
		Data: &metadata.ImageResourceLoaded{
			ID:       id,
			Path:     name,
			Width:    res.Width,
			Height:   res.Height,
			Channels: res.Channels,
			Pixels:   pixels.Pix,
		},
	})
	core.LogDebug("[Image Loader] -> Image loaded: %s (%dx%d)", name, res.Width, res.Height)
	return succeeded(res)
}

// decodeImage returns the image as a tightly packed NRGBA buffer whatever the source format.
func decodeImage(data []byte) (*image.NRGBA, error) {
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: not an image", core.ErrDecodeFailed)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", core.ErrDecodeFailed, format)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst, nil
}
