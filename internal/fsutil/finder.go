// Package fsutil provides file system helpers shared by the CLI and the
// writers: input discovery and atomic file replacement.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandInputs turns command line arguments into a sorted, de-duplicated list
// of files. Directories are searched for files with the given extension,
// files are taken as given whatever their extension. Snapshot files written
// by earlier runs (skipSuffix) are never picked up from directories.
func ExpandInputs(args []string, extension, skipSuffix string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := FindFilesByExtension(arg, extension)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if skipSuffix != "" && strings.HasSuffix(f, skipSuffix) {
				continue
			}
			add(f)
		}
	}
	slices.Sort(out)
	return out, nil
}
