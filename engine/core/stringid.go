package core

import (
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// StringIDType is the identity of a resource everywhere in the pipeline.
type StringIDType uint64

const InvalidStringID StringIDType = 0

// CanonicalPath normalises separators and dot segments so that every
// spelling of the same resource hashes to the same ID.
func CanonicalPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}

// StringID hashes the canonical form of p with XXH64. The value is stable
// across runs and machines, packages rely on it.
func StringID(p string) StringIDType {
	return StringIDType(xxhash.Sum64String(CanonicalPath(p)))
}

// Digest hashes arbitrary bytes, used for package checksums and pass keys.
func Digest(b []byte) uint64 {
	return xxhash.Sum64(b)
}
