package source

import (
	"fmt"

	"golang.org/x/tools/txtar"
)

// Bundle packs a main source file and its core library files into a single
// txtar archive text, so end-to-end tests can describe "main + merged core"
// as one fixture literal instead of a directory of golden files. The first
// archive file is always the main source; the rest are core files in
// manifest order.
type Bundle struct {
	Main string
	Core []Unit
}

// Format renders the bundle as txtar text.
func (b Bundle) Format() []byte {
	a := &txtar.Archive{}
	a.Files = append(a.Files, txtar.File{Name: "main.rns", Data: []byte(b.Main)})
	for _, u := range b.Core {
		a.Files = append(a.Files, txtar.File{Name: u.Name, Data: []byte(u.Text)})
	}
	return txtar.Format(a)
}

// ParseBundle reads a txtar-formatted bundle back into Units, main file
// first.
func ParseBundle(data []byte) ([]Unit, error) {
	a := txtar.Parse(data)
	if len(a.Files) == 0 {
		return nil, fmt.Errorf("empty bundle")
	}
	units := make([]Unit, 0, len(a.Files))
	for _, f := range a.Files {
		units = append(units, Unit{Name: f.Name, Text: string(f.Data)})
	}
	return units, nil
}
