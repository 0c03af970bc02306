// Package source discovers and merges the language's core library with a
// single main source file, as spec.md §1 requires ("module-system discovery
// beyond a single source file merged with a fixed core directory" is a
// non-goal — so this package does exactly that one fixed merge, no more).
package source

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the core library's files, in load order, relative to the
// core directory. A core directory without a manifest file falls back to
// every *.rns file in lexical order.
type Manifest struct {
	Files []string `yaml:"files"`
}

const manifestName = "core.yaml"

// LoadManifest reads core.yaml from dir, or synthesizes one from the
// directory listing when no manifest is present.
func LoadManifest(dir string) (Manifest, error) {
	p := filepath.Join(dir, manifestName)
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return synthesizeManifest(dir)
		}
		return Manifest{}, fmt.Errorf("reading core manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing core manifest %s: %w", p, err)
	}
	return m, nil
}

func synthesizeManifest(dir string) (Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Manifest{}, fmt.Errorf("listing core dir: %w", err)
	}
	var m Manifest
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".rns" {
			m.Files = append(m.Files, e.Name())
		}
	}
	return m, nil
}

// Unit is one named source text: the main file or a single core file.
type Unit struct {
	Name string
	Text string
}

// Load reads the main source file followed by every core file named in the
// core directory's manifest, in manifest order.
func Load(mainPath, coreDir string) ([]Unit, error) {
	var units []Unit

	mb, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", mainPath, err)
	}
	units = append(units, Unit{Name: mainPath, Text: string(mb)})

	if coreDir == "" {
		return units, nil
	}
	m, err := LoadManifest(coreDir)
	if err != nil {
		return nil, err
	}
	for _, f := range m.Files {
		p := filepath.Join(coreDir, f)
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading core file %s: %w", p, err)
		}
		units = append(units, Unit{Name: p, Text: string(b)})
	}
	return units, nil
}
