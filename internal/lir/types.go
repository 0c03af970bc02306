package lir

import (
	"sort"

	"github.com/runalang/runac/internal/types"
)

// EmitTypes walks every class/trait reg has declared and appends the
// corresponding struct/vtable/wrap declarations to m, in a stable
// (name-sorted) order — spec.md §5's "ordering guarantees within emit:
// ... global type declarations are emitted before function bodies".
// linkNameOf resolves a (type, method) pair to its mangled LLIR name for
// vtable-instance initializers; internal/compiler supplies it once its
// naming pass has run.
func EmitTypes(m *Module, reg *types.Registry, linkNameOf func(implType types.Type, method string) string) {
	decls := reg.Declared()
	names := make([]string, 0, len(decls))
	for n := range decls {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		switch t := decls[n].(type) {
		case *types.StructType:
			if t.Name == "str" {
				continue // Builtin; the runtime declares its own layout.
			}
			m.AddStruct(structDeclOf(t.Name, t.Order(), t.Attribs))
		case *types.TraitType:
			vt, wrap := TraitDecls(t)
			m.AddStruct(vt)
			m.AddStruct(wrap)
			for _, impl := range Implementors(decls, t) {
				m.AddGlobal(VtableInstance(impl, t, linkNameOf))
			}
		}
	}
}

// TypeOf exposes toLIRType to other packages (internal/compiler's extern
// registration, chiefly) that need to render a resolved internal/types.Type
// as its LLIR counterpart without duplicating this package's type switch.
func TypeOf(t types.Type) Type { return toLIRType(t) }

func structDeclOf(name string, order []string, attribs types.AttribTable) *StructDecl {
	fields := make([]StructField, len(order))
	for i, a := range order {
		fields[i] = StructField{Name: a, Type: toLIRType(attribs[a].Type)}
	}
	return &StructDecl{Name: name, Fields: fields, SizeConst: name}
}
