package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
	"github.com/spaghettifunk/lina/engine/resources"
	"github.com/spaghettifunk/lina/engine/resources/packager"
)

const defaultPassKey = "LINA_PACKAGE_PASS_0001"

// rawFiles collects unpacked entries so they can be written back to disk.
type rawFiles struct {
	entries []metadata.RawEntry
}

func (r *rawFiles) AddRawEntry(_ metadata.ResourceType, _ core.StringIDType, entry metadata.RawEntry) {
	r.entries = append(r.entries, entry)
}

func (r *rawFiles) UnloadRawPackages() {
	r.entries = nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: packer <pack|unpack|list> [flags]")
	fmt.Fprintln(os.Stderr, "  pack   -level <file.linalevel> | files...  -o <bundle>")
	fmt.Fprintln(os.Stderr, "  unpack -i <bundle> -o <dir>")
	fmt.Fprintln(os.Stderr, "  list   -i <bundle>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "pack":
		err = pack(os.Args[2:])
	case "unpack":
		err = unpack(os.Args[2:])
	case "list":
		err = list(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func pack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	levelPath := fs.String("level", "", "Level whose used resources are packed")
	out := fs.String("o", "", "Output package")
	passKey := fs.String("key", defaultPassKey, "Package pass key")
	fs.Parse(args)

	if *out == "" {
		return fmt.Errorf("provide the output package with -o")
	}

	files := fs.Args()
	if *levelPath != "" {
		level := resources.NewLevelResource("")
		if err := level.LoadFromFile(*levelPath, nil); err != nil {
			return err
		}
		files = append(files, level.UsedResources()...)
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to pack, provide -level or a list of files")
	}

	log.Printf("Packing %d files into %s", len(files), *out)
	if err := packager.PackageFileset(context.Background(), files, *out, *passKey, nil); err != nil {
		return err
	}
	log.Println("Complete !")
	return nil
}

func unpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	in := fs.String("i", "", "Package to unpack")
	outDir := fs.String("o", ".", "Output directory")
	passKey := fs.String("key", defaultPassKey, "Package pass key")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("provide the package with -i")
	}

	sink := &rawFiles{}
	stats, err := packager.Unpack(context.Background(), *in, *passKey, sink, nil, nil)
	if err != nil {
		return err
	}
	for _, e := range sink.entries {
		rel := filepath.Clean(filepath.FromSlash(e.Path))
		if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(rel)
		}
		dst := filepath.Join(*outDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, e.Data, 0o644); err != nil {
			return err
		}
	}
	log.Printf("Unpacked %d entries into %s (%d skipped)", stats.Entries, *outDir, stats.Skipped)
	return nil
}

func list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	in := fs.String("i", "", "Package to list")
	passKey := fs.String("key", defaultPassKey, "Package pass key")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("provide the package with -i")
	}

	infos, err := packager.List(*in, *passKey)
	if err != nil {
		return err
	}
	for _, info := range infos {
		status := "ok"
		if !info.Valid {
			status = "corrupt"
		}
		fmt.Printf("%-13s %016x %10d %-7s %s\n", info.Kind, uint64(info.ID), info.Size, status, info.Path)
	}
	return nil
}
