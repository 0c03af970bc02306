package compiler

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/runalang/runac/internal/source"
	"github.com/runalang/runac/internal/util"
)

// bundleText is an end-to-end "main source + core file" fixture in the
// txtar shape internal/source.Bundle formats, per SPEC_FULL.md §8's
// scenario-test contract. It is materialized onto disk rather than read
// straight from memory because Compile's Parse step goes through
// internal/source.Load, which is path-based.
const bundleText = `-- main.rns --
def main() -> int32:
	return add(1, 2)

-- mathx.rns --
def add(a: int32, b: int32) -> int32:
	return a + b
`

func writeBundle(t *testing.T, text string) (mainPath, coreDir string) {
	t.Helper()
	units, err := source.ParseBundle([]byte(text))
	assert.NoError(t, err)

	root := t.TempDir()
	coreDir = filepath.Join(root, "core")
	assert.NoError(t, os.MkdirAll(coreDir, 0755))

	mainPath = filepath.Join(root, units[0].Name)
	assert.NoError(t, os.WriteFile(mainPath, []byte(units[0].Text), 0644))
	for _, u := range units[1:] {
		assert.NoError(t, os.WriteFile(filepath.Join(coreDir, u.Name), []byte(u.Text), 0644))
	}
	return mainPath, coreDir
}

func TestCompileEndToEndMainCallsMergedCoreFunction(t *testing.T) {
	mainPath, coreDir := writeBundle(t, bundleText)

	m, err := Compile(util.Options{Src: mainPath, CoreDir: coreDir})
	assert.NoError(t, err)
	assert.Len(t, m.Funcs, 2)

	var names []string
	for _, fn := range m.Funcs {
		names = append(names, fn.Decl.Name)
		// Neither "main" nor a unique standalone "add" is overloaded, so
		// both keep their bare source name as their link name.
		assert.Equal(t, fn.Decl.Name, fn.LinkName)
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"add", "main"}, names); diff != "" {
		t.Fatalf("collected function set mismatch (-want +got):\n%s", diff)
	}

	assert.NotNil(t, m.LIR)
	assert.Contains(t, m.LIR.String(), "define i32 @main()")
	assert.Contains(t, m.LIR.String(), "define i32 @add(")
}

func TestCompileStopsAtRequestedLastPass(t *testing.T) {
	mainPath, coreDir := writeBundle(t, bundleText)

	m, err := Compile(util.Options{Src: mainPath, CoreDir: coreDir, LastPass: "type"})
	assert.NoError(t, err)
	assert.Nil(t, m.LIR, "LastPass=type should stop before LLIR emission")
}
