package lir

import (
	"fmt"
	"sort"

	"github.com/runalang/runac/internal/types"
)

// TraitDecls builds the `%Trait.vt`/`%Trait.wrap` struct pair for a single
// trait (spec.md §4.10: "a <Trait>.vt struct type holds one function
// pointer per trait method (sorted by name), with the receiver retyped as
// &byte; a <Trait>.wrap is {vt*, i8*}"). Method pointer types are rendered
// generically (`i8*`) since a vtable slot's concrete signature varies per
// implementation and LLIR function-pointer bitcasts paper over the
// mismatch at each call site; this mirrors the reference vtable codegen
// grounding SPEC_FULL.md §4.10 names.
func TraitDecls(tr *types.TraitType) (vt, wrap *StructDecl) {
	fields := make([]StructField, len(tr.Order()))
	for i := range tr.Order() {
		fields[i] = StructField{Name: tr.Order()[i], Type: Ptr8}
	}
	vt = &StructDecl{Name: tr.Name + ".vt", Fields: fields}
	wrap = &StructDecl{
		Name: tr.Name + ".wrap",
		Fields: []StructField{
			{Name: "vt", Type: PtrTy{Elem: NamedTy{Name: vt.Name}}},
			{Name: "obj", Type: Ptr8},
		},
	}
	return vt, wrap
}

// Implementors returns every declared struct/concrete type in decls that
// structurally implements tr (spec.md's rule 10 structural trait
// compatibility — there is no explicit "implements" list in the source
// language, so conformance is discovered the same way Compat checks it at
// a call site).
func Implementors(decls map[string]types.Type, tr *types.TraitType) []types.Type {
	var out []types.Type
	for _, t := range decls {
		switch t.(type) {
		case *types.StructType, *types.ConcreteType:
		default:
			continue
		}
		if types.Compat(t, tr, types.ModeDefault) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeName() < out[j].TypeName() })
	return out
}

// VtableInstance builds the constant global holding one (concrete type,
// trait) pair's vtable: one bitcast function pointer per trait method slot,
// in the same sorted order TraitDecls laid the struct out in. linkNameOf
// resolves a concrete type's method name to its already-mangled LLIR link
// name (internal/compiler's naming pass populates this before emission
// runs, per types.FunctionDecl.LinkName's doc comment).
func VtableInstance(concrete types.Type, tr *types.TraitType, linkNameOf func(implType types.Type, method string) string) *Global {
	name := fmt.Sprintf("%s.%s.vtable", concrete.TypeName(), tr.Name)
	parts := make([]string, len(tr.Order()))
	for i, m := range tr.Order() {
		fn := linkNameOf(concrete, m)
		parts[i] = fmt.Sprintf("i8* bitcast (i8* ()* @%s to i8*)", fn)
	}
	init := "{ " + joinParts(parts) + " }"
	return &Global{
		Name: name,
		Type: NamedTy{Name: tr.Name + ".vt"},
		Init: init,
	}
}

func joinParts(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
