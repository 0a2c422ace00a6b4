// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoMatch is returned by ResolvePath when a single file has the wrong
// extension.
var ErrNoMatch = errors.New("file does not have a supported extension")

// FindFilesByExtension recursively searches root for files ending with any
// of the given extensions. Paths are returned in lexical order.
func FindFilesByExtension(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		return nil, errors.New("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasExtension(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ResolvePath returns path itself when it is a file with one of the
// extensions, or every matching file below it when it is a directory.
func ResolvePath(path string, extensions ...string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		return FindFilesByExtension(path, extensions...)
	}
	if !hasExtension(path, extensions) {
		return nil, fmt.Errorf("%w: %s (want %s)", ErrNoMatch, path, strings.Join(extensions, ", "))
	}
	return []string{path}, nil
}

func hasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
