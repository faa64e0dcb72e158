package loaders

import (
	"bytes"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/h2non/filetype"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// AudioResource describes a decoded clip. The encoded bytes go to the audio
// backend through the loaded event.
type AudioResource struct {
	resourceInfo
	Format     string
	SampleRate int
	Channels   int
	Samples    int
}

func LoadAudioFromFile(path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Audio Loader", path, err)
	}
	return loadAudio(core.StringID(path), path, data, sink)
}

func LoadAudioFromMemory(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	return loadAudio(id, name, data, sink)
}

func loadAudio(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	format, stream, err := decodeAudio(data)
	if err != nil {
		return failed("Audio Loader", name, err)
	}
	samples := stream.Len()
	_ = stream.Close()

	res := &AudioResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeAudio},
		Format:       format.container,
		SampleRate:   int(format.SampleRate),
		Channels:     format.NumChannels,
		Samples:      samples,
	}

	sink.Fire(core.EventContext{
		Type: core.EVENT_CODE_AUDIO_RESOURCE_LOADED,
		Data: &metadata.AudioResourceLoaded{
			ID:         id,
			Path:       name,
			Format:     res.Format,
			SampleRate: res.SampleRate,
			Channels:   res.Channels,
			Samples:    res.Samples,
			Data:       cloneBytes(data),
		},
	})
	core.LogDebug("[Audio Loader] -> Audio loaded: %s (%s, %d Hz, %d channels)", name, res.Format, res.SampleRate, res.Channels)
	return succeeded(res)
}

type audioFormat struct {
	beep.Format
	container string
}

// decodeAudio picks the decoder from the content, the extension is not
// available when loading from a package.
func decodeAudio(data []byte) (audioFormat, beep.StreamSeekCloser, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return audioFormat{}, nil, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}

	var stream beep.StreamSeekCloser
	var format beep.Format
	switch kind.Extension {
	case "wav":
		stream, format, err = wav.Decode(bytes.NewReader(data))
	case "mp3":
		stream, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return audioFormat{}, nil, fmt.Errorf("%w: unsupported audio container %q", core.ErrDecodeFailed, kind.Extension)
	}
	if err != nil {
		return audioFormat{}, nil, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}
	if format.NumChannels <= 0 || format.SampleRate <= 0 {
		_ = stream.Close()
		return audioFormat{}, nil, fmt.Errorf("%w: invalid audio format", core.ErrDecodeFailed)
	}
	return audioFormat{Format: format, container: kind.Extension}, stream, nil
}
