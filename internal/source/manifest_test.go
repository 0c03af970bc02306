package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadManifestSynthesizesFromDirectoryListing(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "b.rns"), []byte("pass\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.rns"), []byte("pass\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not source"), 0644))

	m, err := LoadManifest(dir)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.rns", "b.rns"}, m.Files)
}

func TestLoadManifestReadsExplicitCoreYAML(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte("files:\n  - z.rns\n  - a.rns\n"), 0644))

	m, err := LoadManifest(dir)
	assert.NoError(t, err)
	assert.Equal(t, []string{"z.rns", "a.rns"}, m.Files)
}

func TestLoadMergesMainFileAndCoreFilesInManifestOrder(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte("files:\n  - io.rns\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "io.rns"), []byte("def println(s: &str):\n\tpass\n"), 0644))

	mainPath := filepath.Join(t.TempDir(), "main.rns")
	assert.NoError(t, os.WriteFile(mainPath, []byte("def main():\n\tpass\n"), 0644))

	units, err := Load(mainPath, dir)
	assert.NoError(t, err)
	assert.Len(t, units, 2)
	assert.Equal(t, mainPath, units[0].Name)
	assert.Equal(t, filepath.Join(dir, "io.rns"), units[1].Name)
}
