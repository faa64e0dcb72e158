package metadata

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Material configuration loaded from a .mat file (TOML).
 * Texture and shader fields hold resource paths relative to the working directory.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string `toml:"name"`
	/** @brief Path of the compiled shader this material renders with. */
	ShaderName string `toml:"shader"`
	/** @brief Indicates if the material should be automatically released when no references to it remain. */
	AutoRelease bool `toml:"auto_release"`
	/** @brief The diffuse colour of the material, RGBA in [0, 1]. */
	DiffuseColour [4]float32 `toml:"diffuse_colour"`
	/** @brief The shininess of the material. */
	Shininess float32 `toml:"shininess"`
	/** @brief The diffuse map path. */
	DiffuseMapName string `toml:"diffuse_map"`
	/** @brief The specular map path. */
	SpecularMapName string `toml:"specular_map"`
	/** @brief The normal map path. */
	NormalMapName string `toml:"normal_map"`
}

// TextureNames returns the non-empty texture references of the material.
func (mc *MaterialConfig) TextureNames() []string {
	names := make([]string, 0, 3)
	for _, n := range []string{mc.DiffuseMapName, mc.SpecularMapName, mc.NormalMapName} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
