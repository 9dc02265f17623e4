package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestIsManifest(t *testing.T) {
	assert.True(t, IsManifest("a.yaml"))
	assert.True(t, IsManifest("dir/a.yml"))
	assert.True(t, IsManifest("a.json"))
	assert.True(t, IsManifest("a.json.gz"))
	assert.False(t, IsManifest("a.tar.gz"))
	assert.False(t, IsManifest("a.txt"))
	assert.False(t, IsManifest("yaml"))
}

func TestFindManifests(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.yaml"))
	touch(t, filepath.Join(dir, "a.json"))
	touch(t, filepath.Join(dir, "nested", "c.yml"))
	touch(t, filepath.Join(dir, "README.md"))

	files, err := FindManifests(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yml"),
	}, files)

	_, err = FindManifests(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExpandManifests(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	touch(t, filepath.Join(lib, "b.yaml"))
	touch(t, filepath.Join(lib, "a.yaml"))
	single := filepath.Join(dir, "main.manifest")
	touch(t, single)

	got, err := ExpandManifests([]string{single, lib, filepath.Join(lib, "a.yaml")})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(lib, "a.yaml"), filepath.Join(lib, "b.yaml")}, got)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	_, err = ExpandManifests([]string{empty})
	assert.ErrorContains(t, err, "no manifests found")

	_, err = ExpandManifests([]string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
