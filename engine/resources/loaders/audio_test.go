package loaders

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// encodeWAV builds a 16-bit PCM clip of the given number of frames.
func encodeWAV(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	dataSize := frames * blockAlign

	buf := &bytes.Buffer{}
	w := func(v interface{}) { require.NoError(t, binary.Write(buf, binary.LittleEndian, v)) }
	buf.WriteString("RIFF")
	w(uint32(36 + dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(channels))
	w(uint32(sampleRate))
	w(uint32(sampleRate * blockAlign))
	w(uint16(blockAlign))
	w(uint16(bitsPerSample))
	buf.WriteString("data")
	w(uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestLoadAudioWAV(t *testing.T) {
	data := encodeWAV(t, 22050, 2, 100)
	sink := &recordingSink{}

	res := LoadAudioFromMemory(core.StringID("Resources/test.wav"), "Resources/test.wav", data, sink)
	require.True(t, res.OK(), "%v", res.Err)

	clip := res.Resource.(*AudioResource)
	assert.Equal(t, metadata.ResourceTypeAudio, clip.Type())
	assert.Equal(t, "wav", clip.Format)
	assert.Equal(t, 22050, clip.SampleRate)
	assert.Equal(t, 2, clip.Channels)
	assert.Equal(t, 100, clip.Samples)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.EVENT_CODE_AUDIO_RESOURCE_LOADED, events[0].Type)
	loaded := events[0].Data.(*metadata.AudioResourceLoaded)
	assert.Equal(t, data, loaded.Data)

	// the event owns its copy
	loaded.Data[0] = 'X'
	assert.Equal(t, byte('R'), data[0])
}

func TestLoadAudioRejectsUnknownContainer(t *testing.T) {
	sink := &recordingSink{}
	res := LoadAudioFromMemory(1, "noise.wav", []byte("this is plain text, not audio"), sink)
	assert.ErrorIs(t, res.Err, core.ErrDecodeFailed)
	assert.Empty(t, sink.Events())
}

func TestLoadAudioRejectsImageBytes(t *testing.T) {
	sink := &recordingSink{}
	res := LoadAudioFromMemory(1, "picture.wav", encodePNG(t, 1, 1), sink)
	assert.ErrorIs(t, res.Err, core.ErrDecodeFailed)
	assert.Empty(t, sink.Events())
}
