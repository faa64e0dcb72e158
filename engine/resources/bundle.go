package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
	"github.com/spaghettifunk/lina/engine/resources/loaders"
)

type Partition string

const (
	PartitionImage    Partition = "image"
	PartitionAudio    Partition = "audio"
	PartitionMesh     Partition = "mesh"
	PartitionMaterial Partition = "material"
	PartitionShader   Partition = "shader"
	PartitionMetadata Partition = "metadata"
)

var partitions = []Partition{
	PartitionImage, PartitionAudio, PartitionMesh, PartitionMaterial, PartitionShader, PartitionMetadata,
}

// Kinds are decoded in this order so sidecars follow the resources they describe.
var processOrder = []metadata.ResourceType{
	metadata.ResourceTypeShader,
	metadata.ResourceTypeImage,
	metadata.ResourceTypeMaterial,
	metadata.ResourceTypeMesh,
	metadata.ResourceTypeAudio,
	metadata.ResourceTypeImageMeta,
	metadata.ResourceTypeMeshMeta,
	metadata.ResourceTypeMaterialMeta,
}

// PartitionOf returns the partition a kind is stored in.
func PartitionOf(kind metadata.ResourceType) (Partition, bool) {
	switch kind {
	case metadata.ResourceTypeImage:
		return PartitionImage, true
	case metadata.ResourceTypeAudio:
		return PartitionAudio, true
	case metadata.ResourceTypeMesh:
		return PartitionMesh, true
	case metadata.ResourceTypeMaterial:
		return PartitionMaterial, true
	case metadata.ResourceTypeShader:
		return PartitionShader, true
	case metadata.ResourceTypeImageMeta, metadata.ResourceTypeMeshMeta, metadata.ResourceTypeMaterialMeta:
		return PartitionMetadata, true
	}
	return "", false
}

// ProcessStats reports the outcome of a ProcessRawPackages pass.
type ProcessStats struct {
	Loaded int
	Failed int
}

// ResourceBundle stages decoded resources for one import cycle. A resource ID
// lives in at most one partition. Materials and shaders survive
// UnloadProcessedPackages, everything else is dropped once listeners have
// taken the decoded bytes.
type ResourceBundle struct {
	mutex     sync.RWMutex
	processed map[Partition]map[core.StringIDType]metadata.Resource
	raw       map[metadata.ResourceType]metadata.RawPackage
	metrics   *core.ResourceMetrics
}

func NewResourceBundle(metrics *core.ResourceMetrics) *ResourceBundle {
	if metrics == nil {
		metrics = core.NewResourceMetrics(nil)
	}
	rb := &ResourceBundle{
		processed: make(map[Partition]map[core.StringIDType]metadata.Resource, len(partitions)),
		raw:       make(map[metadata.ResourceType]metadata.RawPackage),
		metrics:   metrics,
	}
	for _, p := range partitions {
		rb.processed[p] = make(map[core.StringIDType]metadata.Resource)
	}
	return rb
}

// AddRawEntry stages undecoded bytes. A later entry with the same kind and ID
// replaces the earlier one.
func (rb *ResourceBundle) AddRawEntry(kind metadata.ResourceType, id core.StringIDType, entry metadata.RawEntry) {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()

	pkg, ok := rb.raw[kind]
	if !ok {
		pkg = make(metadata.RawPackage)
		rb.raw[kind] = pkg
	}
	pkg[id] = entry
}

// RawLen is the number of raw entries waiting to be processed.
func (rb *ResourceBundle) RawLen() int {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()

	n := 0
	for _, pkg := range rb.raw {
		n += len(pkg)
	}
	return n
}

func (rb *ResourceBundle) UnloadRawPackages() {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()
	rb.raw = make(map[metadata.ResourceType]metadata.RawPackage)
}

// ProcessRawPackages decodes every staged raw entry with the loader of its
// kind. Failed entries are logged and skipped. The raw packages are always
// released afterwards.
func (rb *ResourceBundle) ProcessRawPackages(sink core.EventSink) ProcessStats {
	defer rb.UnloadRawPackages()

	rb.mutex.RLock()
	raw := rb.raw
	rb.mutex.RUnlock()

	var stats ProcessStats
	for _, kind := range processOrder {
		pkg := raw[kind]
		ids := make([]core.StringIDType, 0, len(pkg))
		for id := range pkg {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			res := loaders.LoadFromMemory(kind, id, pkg[id], sink)
			if !res.OK() {
				rb.metrics.Failed.WithLabelValues(kind.String()).Inc()
				stats.Failed++
				continue
			}
			rb.insert(res.Resource)
			stats.Loaded++
		}
	}

	core.LogInfo("[Resource Bundle] -> processed raw packages: %d loaded, %d failed", stats.Loaded, stats.Failed)
	return stats
}

// FillProcessedPackage loads one loose file and its sidecar, if the sidecar
// exists. A broken sidecar is logged and left out of the bundle.
func (rb *ResourceBundle) FillProcessedPackage(path string, kind metadata.ResourceType, progress *metadata.ResourceProgressData, sink core.EventSink) error {
	if progress != nil {
		progress.SetCurrentResourceName(path)
	}

	if kind.IsMeta() || !kind.IsValid() {
		return fmt.Errorf("%w: cannot fill %s from %q", core.ErrUnknownResourceType, kind, path)
	}

	res := loaders.LoadFromFile(kind, path, sink)
	if !res.OK() {
		rb.metrics.Failed.WithLabelValues(kind.String()).Inc()
		return res.Err
	}
	rb.insert(res.Resource)

	metaKind, ok := metadata.MetaTypeFor(kind)
	if !ok {
		return nil
	}
	metaPath := metadata.MetaPath(path, kind)
	if _, err := os.Stat(metaPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			core.LogWarn("[Resource Bundle] -> cannot stat sidecar %q: %s", metaPath, err)
		}
		return nil
	}

	meta := loaders.LoadMetadataFromFile(metaKind, res.Resource.ID(), metaPath, sink)
	if !meta.OK() {
		rb.metrics.Failed.WithLabelValues(metaKind.String()).Inc()
		return nil
	}
	rb.insert(meta.Resource)
	return nil
}

// UnloadProcessedPackages drops the transient partitions. Materials and
// shaders stay resident.
func (rb *ResourceBundle) UnloadProcessedPackages() {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()

	for _, p := range []Partition{PartitionImage, PartitionAudio, PartitionMesh, PartitionMetadata} {
		rb.processed[p] = make(map[core.StringIDType]metadata.Resource)
		rb.metrics.Resident.WithLabelValues(string(p)).Set(0)
	}
}

// UnloadResource removes id from whichever partition holds it.
func (rb *ResourceBundle) UnloadResource(id core.StringIDType) bool {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()
	return rb.remove(id)
}

func (rb *ResourceBundle) Get(id core.StringIDType) (metadata.Resource, bool) {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()

	for _, p := range partitions {
		if res, ok := rb.processed[p][id]; ok {
			return res, true
		}
	}
	return nil, false
}

func (rb *ResourceBundle) Len(p Partition) int {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()
	return len(rb.processed[p])
}

// IDs returns the IDs held by a partition in ascending order.
func (rb *ResourceBundle) IDs(p Partition) []core.StringIDType {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()

	ids := make([]core.StringIDType, 0, len(rb.processed[p]))
	for id := range rb.processed[p] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (rb *ResourceBundle) insert(res metadata.Resource) {
	p, ok := PartitionOf(res.Type())
	if !ok {
		core.LogWarn("[Resource Bundle] -> no partition for %s %q", res.Type(), res.Path())
		return
	}

	rb.mutex.Lock()
	defer rb.mutex.Unlock()

	rb.remove(res.ID())
	rb.processed[p][res.ID()] = res
	rb.metrics.Loaded.WithLabelValues(res.Type().String()).Inc()
	rb.metrics.Resident.WithLabelValues(string(p)).Set(float64(len(rb.processed[p])))
}

// remove expects the write lock to be held.
func (rb *ResourceBundle) remove(id core.StringIDType) bool {
	found := false
	for _, p := range partitions {
		if _, ok := rb.processed[p][id]; ok {
			delete(rb.processed[p], id)
			rb.metrics.Resident.WithLabelValues(string(p)).Set(float64(len(rb.processed[p])))
			found = true
		}
	}
	return found
}
