package resources

import (
	"encoding/base64"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// SceneSerializer persists the entity state of a level. The ECS registry
// implements it; a nil serializer stores an empty scene.
type SceneSerializer interface {
	SerializeScene() ([]byte, error)
	DeserializeScene(data []byte) error
}

// LevelResource is the active level: its identity, the resource paths its
// scene references and, on disk, the serialized scene.
type LevelResource struct {
	ID            uuid.UUID
	Name          string
	usedResources map[string]struct{}
}

type levelDocument struct {
	Name          string   `yaml:"name"`
	ID            string   `yaml:"id"`
	UsedResources []string `yaml:"used_resources"`
	Scene         string   `yaml:"scene"`
}

func NewLevelResource(name string) *LevelResource {
	return &LevelResource{
		ID:            uuid.New(),
		Name:          name,
		usedResources: make(map[string]struct{}),
	}
}

// LevelPath is where the level called name lives inside dir.
func LevelPath(dir, name string) string {
	return filepath.Join(dir, name+metadata.LevelExtension)
}

// BundlePath is where the package of the level called name lives inside dir.
func BundlePath(dir, name string) string {
	return filepath.Join(dir, name+metadata.BundleExtension)
}

// AddUsedResource records a reference. It returns false if it was already known.
func (l *LevelResource) AddUsedResource(path string) bool {
	path = core.CanonicalPath(path)
	if path == "" {
		return false
	}
	if _, ok := l.usedResources[path]; ok {
		return false
	}
	l.usedResources[path] = struct{}{}
	return true
}

func (l *LevelResource) RemoveUsedResource(path string) bool {
	path = core.CanonicalPath(path)
	if _, ok := l.usedResources[path]; !ok {
		return false
	}
	delete(l.usedResources, path)
	return true
}

func (l *LevelResource) HasUsedResource(path string) bool {
	_, ok := l.usedResources[core.CanonicalPath(path)]
	return ok
}

// UsedResources returns the referenced paths in sorted order.
func (l *LevelResource) UsedResources() []string {
	paths := make([]string, 0, len(l.usedResources))
	for p := range l.usedResources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (l *LevelResource) Clone() *LevelResource {
	c := &LevelResource{
		ID:            l.ID,
		Name:          l.Name,
		usedResources: make(map[string]struct{}, len(l.usedResources)),
	}
	for p := range l.usedResources {
		c.usedResources[p] = struct{}{}
	}
	return c
}

// LoadFromFile replaces the level with the one stored at path and restores
// its scene through scene. The receiver is left untouched on failure.
func (l *LevelResource) LoadFromFile(path string, scene SceneSerializer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(core.ErrLevelNotFound, "level %q", path)
		}
		return errors.Wrapf(err, "read level %q", path)
	}

	var doc levelDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(core.ErrCorruptLevel, "parse level %q: %v", path, err)
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return errors.Wrapf(core.ErrCorruptLevel, "level %q id: %v", path, err)
	}
	sceneData, err := base64.StdEncoding.DecodeString(doc.Scene)
	if err != nil {
		return errors.Wrapf(core.ErrCorruptLevel, "level %q scene: %v", path, err)
	}
	if scene != nil {
		if err := scene.DeserializeScene(sceneData); err != nil {
			return errors.Wrapf(core.ErrCorruptLevel, "level %q scene: %v", path, err)
		}
	}

	used := make(map[string]struct{}, len(doc.UsedResources))
	for _, p := range doc.UsedResources {
		if p = core.CanonicalPath(p); p != "" {
			used[p] = struct{}{}
		}
	}

	l.ID = id
	l.Name = doc.Name
	l.usedResources = used
	return nil
}

// Export writes the level and the current scene to path.
func (l *LevelResource) Export(path string, scene SceneSerializer) error {
	var sceneData []byte
	if scene != nil {
		data, err := scene.SerializeScene()
		if err != nil {
			return errors.Wrap(err, "serialize scene")
		}
		sceneData = data
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	doc := levelDocument{
		Name:          l.Name,
		ID:            l.ID.String(),
		UsedResources: l.UsedResources(),
		Scene:         base64.StdEncoding.EncodeToString(sceneData),
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "encode level")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create level directory")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "write level %q", path)
	}
	return nil
}
