package resources

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lina/engine/core"
)

const cubeOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

const litShaderName = "lit.spv"

var spirv = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func wavBytes(t *testing.T) []byte {
	t.Helper()
	const frames = 16
	buf := &bytes.Buffer{}
	w := func(v interface{}) { require.NoError(t, binary.Write(buf, binary.LittleEndian, v)) }
	buf.WriteString("RIFF")
	w(uint32(36 + frames*2))
	buf.WriteString("WAVEfmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(1))
	w(uint32(8000))
	w(uint32(16000))
	w(uint16(2))
	w(uint16(16))
	buf.WriteString("data")
	w(uint32(frames * 2))
	buf.Write(make([]byte, frames*2))
	return buf.Bytes()
}

func materialBytes(shader string) []byte {
	return []byte("name = \"grass\"\nshader = \"" + shader + "\"\n")
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// recordingSink collects fired events in order.
type recordingSink struct {
	mutex  sync.Mutex
	events []core.EventContext
}

func (s *recordingSink) Fire(ctx core.EventContext) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, ctx)
	return false
}

func (s *recordingSink) count(code core.SystemEventCode) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == code {
			n++
		}
	}
	return n
}
