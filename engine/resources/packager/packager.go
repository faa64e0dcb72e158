package packager

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

// RawSink receives unpacked entries. The resource bundle implements it.
type RawSink interface {
	AddRawEntry(kind metadata.ResourceType, id core.StringIDType, entry metadata.RawEntry)
	UnloadRawPackages()
}

// UnpackStats counts what Unpack did with the entries of a package.
type UnpackStats struct {
	Entries int
	Skipped int
}

// PackageFileset reads every path and writes them into one package at out.
// Image, mesh and material inputs carry their sidecar along when it exists.
// Unknown kinds and missing files are logged and left out. The package is
// written to a temporary file and renamed, so out is never half written.
func PackageFileset(ctx context.Context, paths []string, out string, passKey string, progress *metadata.ResourceProgressData) error {
	entries := collectEntries(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var done atomic.Int64
	total := len(entries)
	for _, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(e.path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				if e.owner == core.InvalidStringID {
					core.LogWarn("[Packager] -> skipping missing file %q", e.path)
				}
			case err != nil:
				return errors.Wrapf(err, "read %q", e.path)
			default:
				e.data = data
			}

			n := done.Add(1)
			if progress != nil {
				progress.SetCurrentResourceName(e.path)
				progress.SetProgress(core.Fraction(int(n), total))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(core.ErrTaskCancelled, "package fileset")
		}
		return err
	}

	present := entries[:0]
	for _, e := range entries {
		if e.data != nil {
			present = append(present, e)
		}
	}

	if err := writePackage(out, passKey, present); err != nil {
		return err
	}
	core.LogInfo("[Packager] -> wrote %d entries to %s", len(present), out)
	return nil
}

func collectEntries(paths []string) []*fileEntry {
	seen := make(map[core.StringIDType]struct{}, len(paths))
	entries := make([]*fileEntry, 0, len(paths))

	add := func(e *fileEntry) {
		if _, ok := seen[e.id]; ok {
			return
		}
		seen[e.id] = struct{}{}
		entries = append(entries, e)
	}

	for _, p := range paths {
		p = core.CanonicalPath(p)
		kind := metadata.GetResourceType(filepath.Ext(p))
		if !kind.IsValid() {
			core.LogWarn("[Packager] -> skipping %q: unknown resource type", p)
			continue
		}
		if kind.IsMeta() {
			// sidecars travel with the resource they describe
			continue
		}
		if len(p) > maxPathLength {
			core.LogWarn("[Packager] -> skipping %q: path too long", p)
			continue
		}

		id := core.StringID(p)
		add(&fileEntry{kind: kind, id: id, path: p})

		if metaKind, ok := metadata.MetaTypeFor(kind); ok {
			metaPath := metadata.MetaPath(p, kind)
			add(&fileEntry{kind: metaKind, id: core.StringID(metaPath), owner: id, path: metaPath})
		}
	}
	return entries
}

func writePackage(out string, passKey string, entries []*fileEntry) (err error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrap(err, "create package directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".linabundle-*")
	if err != nil {
		return errors.Wrap(err, "create temporary package")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = writeHeader(w, passKey, len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err = writeEntry(w, e); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "flush package")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close package")
	}
	if err = os.Rename(tmp.Name(), out); err != nil {
		return errors.Wrapf(err, "rename package to %q", out)
	}
	return nil
}

// Unpack validates the package at path and streams its entries into sink.
// Entries whose checksum or identity does not match are skipped. A bad header,
// a pass key mismatch or a truncated file is fatal and leaves sink empty.
// discovered, when not nil, receives the path and kind of every accepted entry.
func Unpack(ctx context.Context, path string, passKey string, sink RawSink, progress *metadata.ResourceProgressData, discovered map[string]metadata.ResourceType) (UnpackStats, error) {
	stats, err := unpack(ctx, path, passKey, sink, progress, discovered)
	if err != nil {
		sink.UnloadRawPackages()
		core.LogError("[Packager] -> failed to unpack %s: %s", path, err)
		return stats, err
	}
	core.LogInfo("[Packager] -> unpacked %d entries from %s (%d skipped)", stats.Entries, path, stats.Skipped)
	return stats, nil
}

func unpack(ctx context.Context, path string, passKey string, sink RawSink, progress *metadata.ResourceProgressData, discovered map[string]metadata.ResourceType) (UnpackStats, error) {
	var stats UnpackStats

	err := readPackage(ctx, path, passKey, func(i, total int, info EntryInfo, data []byte) {
		if progress != nil {
			progress.SetCurrentResourceName(info.Path)
			progress.SetProgress(core.Fraction(i+1, total))
		}
		if !info.Valid {
			core.LogWarn("[Packager] -> skipping corrupt entry %q", info.Path)
			stats.Skipped++
			return
		}
		sink.AddRawEntry(info.Kind, info.ID, metadata.RawEntry{Path: info.Path, Owner: info.Owner, Data: data})
		if discovered != nil {
			discovered[info.Path] = info.Kind
		}
		stats.Entries++
	})
	return stats, err
}

// List returns the entries of a package in file order.
func List(path string, passKey string) ([]EntryInfo, error) {
	var infos []EntryInfo
	err := readPackage(context.Background(), path, passKey, func(_, _ int, info EntryInfo, _ []byte) {
		infos = append(infos, info)
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func readPackage(ctx context.Context, path string, passKey string, fn func(i, total int, info EntryInfo, data []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(core.ErrResourceNotFound, "package %q", path)
		}
		return errors.Wrapf(err, "open package %q", path)
	}
	defer f.Close()

	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}

	counter := &countingReader{r: f}
	r := bufio.NewReader(counter)
	h, err := readHeader(r, passKey)
	if err != nil {
		return err
	}

	total := int(h.Count)
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			return errors.Wrap(core.ErrTaskCancelled, "unpack")
		}
		remaining := int64(-1)
		if size >= 0 {
			remaining = size - (counter.n - int64(r.Buffered()))
		}
		info, data, err := readEntry(r, remaining)
		if err != nil {
			return errors.Wrapf(err, "entry %d of %d", i+1, total)
		}
		fn(i, total, info, data)
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return errors.Wrap(core.ErrCorruptPackage, "trailing data after last entry")
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
