package loaders

import (
	"fmt"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const spirvMagic uint32 = 0x07230203

// ShaderResource keeps the SPIR-V words resident, materials created after an
// import still need them.
type ShaderResource struct {
	resourceInfo
	Code []uint32
}

func LoadShaderFromFile(path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Shader Loader", path, err)
	}
	return loadShader(core.StringID(path), path, data, sink)
}

func LoadShaderFromMemory(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	return loadShader(id, name, data, sink)
}

func loadShader(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	if len(data) == 0 || len(data)%4 != 0 {
		return failed("Shader Loader", name, fmt.Errorf("%w: SPIR-V size %d is not a multiple of 4", core.ErrDecodeFailed, len(data)))
	}
	code := bytesToBytecode(data)
	if code[0] != spirvMagic {
		return failed("Shader Loader", name, fmt.Errorf("%w: bad SPIR-V magic 0x%08x", core.ErrDecodeFailed, code[0]))
	}

	res := &ShaderResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeShader},
		Code:         code,
	}

	event := make([]uint32, len(code))
	copy(event, code)
	sink.Fire(core.EventContext{
		Type: core.EVENT_CODE_SHADER_RESOURCE_LOADED,
		Data: &metadata.ShaderResourceLoaded{ID: id, Path: name, Code: event},
	})
	core.LogDebug("[Shader Loader] -> Shader loaded: %s (%d words)", name, len(code))
	return succeeded(res)
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	return byteCode
}
