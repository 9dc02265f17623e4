package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// manifestExts are the file extensions recognized as module manifests.
var manifestExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// IsManifest reports whether path has a manifest extension, optionally
// followed by ".gz"
func IsManifest(path string) bool {
	return manifestExts[filepath.Ext(strings.TrimSuffix(path, ".gz"))]
}

// FindManifests recursively finds all manifest files in the specified
// directory, sorted by path
func FindManifests(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		if IsManifest(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandManifests replaces every directory in paths with the manifests it
// contains. Files are kept as given, whatever their extension, and the
// argument order is preserved. A path is returned once even when named twice.
func ExpandManifests(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		found, err := FindManifests(p)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no manifests found in %s", p)
		}
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}
