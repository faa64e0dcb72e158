package packager

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

const (
	Magic   = "LINABNDL"
	Version = uint16(1)

	maxPathLength = 1<<16 - 1
)

var byteOrder = binary.LittleEndian

type header struct {
	Magic      [8]byte
	Version    uint16
	PassDigest uint64
	Count      uint32
}

type entryHeader struct {
	Kind    uint8
	ID      uint64
	Owner   uint64
	PathLen uint16
}

type entryData struct {
	Size     uint64
	Checksum uint64
}

// fileEntry is one resource as it is written to a package.
type fileEntry struct {
	kind  metadata.ResourceType
	id    core.StringIDType
	owner core.StringIDType
	path  string
	data  []byte
}

// EntryInfo describes a package entry without its payload.
type EntryInfo struct {
	Kind  metadata.ResourceType
	ID    core.StringIDType
	Owner core.StringIDType
	Path  string
	Size  uint64
	// Valid is false when the checksum or the path identity does not match.
	Valid bool
}

func passDigest(passKey string) uint64 {
	return core.Digest([]byte(passKey))
}

func writeHeader(w io.Writer, passKey string, count int) error {
	h := header{
		Version:    Version,
		PassDigest: passDigest(passKey),
		Count:      uint32(count),
	}
	copy(h.Magic[:], Magic)
	return errors.Wrap(binary.Write(w, byteOrder, &h), "write header")
}

func writeEntry(w io.Writer, e *fileEntry) error {
	eh := entryHeader{
		Kind:    uint8(e.kind),
		ID:      uint64(e.id),
		Owner:   uint64(e.owner),
		PathLen: uint16(len(e.path)),
	}
	if err := binary.Write(w, byteOrder, &eh); err != nil {
		return errors.Wrapf(err, "write entry %q", e.path)
	}
	if _, err := io.WriteString(w, e.path); err != nil {
		return errors.Wrapf(err, "write entry %q path", e.path)
	}
	ed := entryData{Size: uint64(len(e.data)), Checksum: core.Digest(e.data)}
	if err := binary.Write(w, byteOrder, &ed); err != nil {
		return errors.Wrapf(err, "write entry %q size", e.path)
	}
	if _, err := w.Write(e.data); err != nil {
		return errors.Wrapf(err, "write entry %q data", e.path)
	}
	return nil
}

// readHeader validates magic, version and pass key.
func readHeader(r io.Reader, passKey string) (header, error) {
	var h header
	if err := binary.Read(r, byteOrder, &h); err != nil {
		return h, errors.Wrapf(core.ErrCorruptPackage, "read header: %v", err)
	}
	if string(h.Magic[:]) != Magic {
		return h, errors.Wrapf(core.ErrCorruptPackage, "bad magic %q", h.Magic[:])
	}
	if h.Version != Version {
		return h, errors.Wrapf(core.ErrCorruptPackage, "unsupported version %d", h.Version)
	}
	if h.PassDigest != passDigest(passKey) {
		return h, errors.WithStack(core.ErrPassKeyMismatch)
	}
	return h, nil
}

// readEntry reads the next entry. remaining bounds the declared payload size
// so a corrupt length cannot trigger a huge allocation.
func readEntry(r *bufio.Reader, remaining int64) (EntryInfo, []byte, error) {
	var info EntryInfo

	var eh entryHeader
	if err := binary.Read(r, byteOrder, &eh); err != nil {
		return info, nil, truncated(err, "entry header")
	}
	path := make([]byte, eh.PathLen)
	if _, err := io.ReadFull(r, path); err != nil {
		return info, nil, truncated(err, "entry path")
	}
	var ed entryData
	if err := binary.Read(r, byteOrder, &ed); err != nil {
		return info, nil, truncated(err, "entry size")
	}
	if remaining >= 0 && ed.Size > uint64(remaining) {
		return info, nil, errors.Wrapf(core.ErrCorruptPackage, "entry %q declares %d bytes, %d left", path, ed.Size, remaining)
	}
	data := make([]byte, ed.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return info, nil, truncated(err, "entry data")
	}

	info = EntryInfo{
		Kind:  metadata.ResourceType(eh.Kind),
		ID:    core.StringIDType(eh.ID),
		Owner: core.StringIDType(eh.Owner),
		Path:  string(path),
		Size:  ed.Size,
	}
	info.Valid = info.Kind.IsValid() &&
		core.Digest(data) == ed.Checksum &&
		core.StringID(info.Path) == info.ID
	return info, data, nil
}

func truncated(err error, what string) error {
	return errors.Wrapf(core.ErrCorruptPackage, "%s: %v", what, err)
}
