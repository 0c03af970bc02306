package compiler

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/lir"
	"github.com/runalang/runac/internal/types"
)

// registerTypes walks every parsed file's top-level ClassDecl/TraitDecl
// nodes into reg as StructType/TraitType entries (spec.md §4.3's registry,
// which internal/types.Registry implements, has no constructor for this
// step — every existing test builds its registry by hand over a handful of
// builtin scalars, so this is the first place a real multi-class program's
// declarations get registered at all). Two passes: the first declares a
// forward-reference stub per name so a class's attribute can reference a
// class declared later in the same file; the second fills in each stub's
// real attribute/method tables now that every name resolves.
func registerTypes(reg *types.Registry, files []*ast.File) error {
	var classes []*ast.ClassDecl
	var traits []*ast.TraitDecl

	for _, f := range files {
		for _, d := range f.Decls {
			switch v := d.(type) {
			case *ast.ClassDecl:
				classes = append(classes, v)
				reg.Declare(v.Name, &types.StructType{Name: v.Name, Attribs: types.AttribTable{}, Methods: types.MethodTable{}})
			case *ast.TraitDecl:
				traits = append(traits, v)
				reg.Declare(v.Name, &types.TraitType{Name: v.Name, Methods: types.MethodTable{}})
			}
		}
	}

	for _, cd := range classes {
		st, _ := reg.Lookup(cd.Name)
		order, attribs, err := buildAttribs(reg, cd.Attribs)
		if err != nil {
			return err
		}
		methods, err := buildMethods(reg, cd.Methods)
		if err != nil {
			return err
		}
		st.(*types.StructType).SetLayout(order, attribs, methods)
	}
	for _, td := range traits {
		tr, _ := reg.Lookup(td.Name)
		order, methods, err := buildTraitMethods(reg, td.Methods)
		if err != nil {
			return err
		}
		tr.(*types.TraitType).SetLayout(order, methods)
	}
	return nil
}

// collectExterns turns every top-level ast.ExternDecl — a `def` whose
// signature is followed by a newline instead of a body — into an
// lir.ExternFunc, the runtime ABI surface spec.md §6 lists (malloc, free,
// memcpy, the unwinder's raise/personality routine, args, typeid). These
// never reach internal/check at all: an extern has no body to type-check,
// specialize, escape-analyze, or destruct, so this is the only place they
// are ever looked at before internal/lir emits `declare` lines for them.
func collectExterns(reg *types.Registry, files []*ast.File) ([]*lir.ExternFunc, error) {
	var out []*lir.ExternFunc
	for _, f := range files {
		for _, d := range f.Decls {
			ed, ok := d.(*ast.ExternDecl)
			if !ok {
				continue
			}
			var argTypes []lir.Type
			varArgs := false
			for _, p := range ed.Args {
				t, err := reg.FromExpr(p.Type)
				if err != nil {
					return nil, err
				}
				if _, ok := t.(types.VarArgsType); ok {
					varArgs = true
					continue
				}
				argTypes = append(argTypes, lir.TypeOf(t))
			}
			ret := lir.Type(nil)
			if ed.RType != nil {
				t, err := reg.FromExpr(ed.RType)
				if err != nil {
					return nil, err
				}
				ret = lir.TypeOf(t)
			} else {
				ret = lir.TypeOf(reg.Void())
			}
			out = append(out, &lir.ExternFunc{Name: ed.Name, Ret: ret, Args: argTypes, VarArgs: varArgs})
		}
	}
	return out, nil
}

func buildAttribs(reg *types.Registry, params []ast.Param) ([]string, types.AttribTable, error) {
	order := make([]string, len(params))
	attribs := make(types.AttribTable, len(params))
	for i, p := range params {
		t, err := reg.FromExpr(p.Type)
		if err != nil {
			return nil, nil, err
		}
		order[i] = p.Name
		attribs[p.Name] = types.AttribEntry{Index: i, Type: t}
	}
	return order, attribs, nil
}

func buildMethods(reg *types.Registry, decls []*ast.FunctionDecl) (types.MethodTable, error) {
	out := types.MethodTable{}
	for _, d := range decls {
		fd, err := functionDeclOf(reg, d)
		if err != nil {
			return nil, err
		}
		fd.Method = true
		out[d.Name] = append(out[d.Name], fd)
	}
	return out, nil
}

func buildTraitMethods(reg *types.Registry, decls []*ast.FunctionDecl) ([]string, types.MethodTable, error) {
	out := types.MethodTable{}
	order := make([]string, 0, len(decls))
	for _, d := range decls {
		fd, err := functionDeclOf(reg, d)
		if err != nil {
			return nil, nil, err
		}
		fd.Method = true
		out[d.Name] = append(out[d.Name], fd)
		order = append(order, d.Name)
	}
	return order, out, nil
}

func functionDeclOf(reg *types.Registry, d *ast.FunctionDecl) (*types.FunctionDecl, error) {
	args := make([]types.Type, len(d.Args))
	names := make([]string, len(d.Args))
	for i, p := range d.Args {
		t, err := reg.FromExpr(p.Type)
		if err != nil {
			return nil, err
		}
		args[i] = t
		names[i] = p.Name
	}
	var ret types.Type
	if d.RType != nil {
		t, err := reg.FromExpr(d.RType)
		if err != nil {
			return nil, err
		}
		ret = t
	} else {
		ret = reg.Void()
	}
	return &types.FunctionDecl{
		Name: d.Name,
		Sig:  &types.FunctionType{Ret: ret, Args: args, ArgNames: names},
	}, nil
}
