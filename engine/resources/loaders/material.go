package loaders

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// MaterialResource stays resident after an import, backends look materials
// up by ID when binding them.
type MaterialResource struct {
	resourceInfo
	Config     metadata.MaterialConfig
	ShaderID   core.StringIDType
	TextureIDs []core.StringIDType
}

func LoadMaterialFromFile(path string, sink core.EventSink) Result {
	data, err := readFile(path)
	if err != nil {
		return failed("Material Loader", path, err)
	}
	return loadMaterial(core.StringID(path), path, data, sink)
}

func LoadMaterialFromMemory(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	return loadMaterial(id, name, data, sink)
}

func loadMaterial(id core.StringIDType, name string, data []byte, sink core.EventSink) Result {
	cfg, err := parseMaterial(data)
	if err != nil {
		return failed("Material Loader", name, err)
	}

	res := &MaterialResource{
		resourceInfo: resourceInfo{id: id, path: name, kind: metadata.ResourceTypeMaterial},
		Config:       *cfg,
	}
	if cfg.ShaderName != "" && metadata.GetResourceType(filepath.Ext(cfg.ShaderName)) == metadata.ResourceTypeShader {
		res.ShaderID = core.StringID(cfg.ShaderName)
	}
	for _, tex := range cfg.TextureNames() {
		res.TextureIDs = append(res.TextureIDs, core.StringID(tex))
	}

	textureIDs := make([]core.StringIDType, len(res.TextureIDs))
	copy(textureIDs, res.TextureIDs)
	sink.Fire(core.EventContext{
		Type: core.EVENT_CODE_MATERIAL_RESOURCE_LOADED,
		Data: &metadata.MaterialResourceLoaded{
			ID:         id,
			Path:       name,
			Config:     res.Config,
			ShaderID:   res.ShaderID,
			TextureIDs: textureIDs,
			Data:       cloneBytes(data),
		},
	})
	core.LogDebug("[Material Loader] -> Material loaded: %s", name)
	return succeeded(res)
}

func parseMaterial(data []byte) (*metadata.MaterialConfig, error) {
	cfg := &metadata.MaterialConfig{
		DiffuseColour: [4]float32{1, 1, 1, 1},
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}
	if err := validateMaterial(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDecodeFailed, err)
	}
	return cfg, nil
}

func validateMaterial(material *metadata.MaterialConfig) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}

	if material.ShaderName == "" {
		return fmt.Errorf("shader name is required")
	}

	// Check that DiffuseColour values are within [0.0, 1.0] range
	for _, c := range material.DiffuseColour {
		if c < 0 || c > 1 {
			return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
		}
	}

	// Check shininess for a non-negative value
	if material.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}

	for _, tex := range material.TextureNames() {
		if metadata.GetResourceType(filepath.Ext(tex)) != metadata.ResourceTypeImage {
			return fmt.Errorf("texture map %q is not an image", tex)
		}
	}

	return nil
}
