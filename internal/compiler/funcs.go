package compiler

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/check"
	"github.com/runalang/runac/internal/lir"
	"github.com/runalang/runac/internal/types"
)

// collectFuncs gathers every function body in files (top-level defs and
// class/trait methods — ExternDecl nodes carry no body and are skipped
// here; internal/lir.EmitTypes's caller is responsible for the runtime ABI
// externs instead), builds c.Functions' module-wide overload table, lowers
// each to a CFG, and returns the resulting *check.Func list in source
// order. Declaration order matters for nothing downstream, but it keeps
// diagnostics and LLIR output reproducible.
func collectFuncs(reg *types.Registry, c *check.Checker, files []*ast.File) ([]*check.Func, error) {
	var funcs []*check.Func

	for _, f := range files {
		for _, d := range f.Decls {
			switch v := d.(type) {
			case *ast.FunctionDecl:
				fd, err := functionDeclOf(reg, v)
				if err != nil {
					return nil, err
				}
				c.Functions[v.Name] = append(c.Functions[v.Name], fd)
				funcs = append(funcs, &check.Func{Decl: v, Graph: cfg.Build(v)})
			case *ast.ClassDecl:
				selfT, _ := reg.Lookup(v.Name)
				for _, m := range v.Methods {
					fd, err := functionDeclOf(reg, m)
					if err != nil {
						return nil, err
					}
					fd.Method = true
					c.Functions[m.Name] = append(c.Functions[m.Name], fd)
					funcs = append(funcs, &check.Func{Decl: m, Graph: cfg.Build(m), Self: selfT})
				}
			case *ast.TraitDecl:
				selfT, _ := reg.Lookup(v.Name)
				for _, m := range v.Methods {
					fd, err := functionDeclOf(reg, m)
					if err != nil {
						return nil, err
					}
					fd.Method = true
					c.Functions[m.Name] = append(c.Functions[m.Name], fd)
					funcs = append(funcs, &check.Func{Decl: m, Graph: cfg.Build(m), Self: selfT})
				}
			}
		}
	}
	return funcs, nil
}

// assignLinkNames runs the mangling pass spec.md §6 requires once every
// overload set is known: a name with more than one overload (or any
// method) mangles its formal types in; a unique standalone function (and
// main, always) keeps its bare source name. It also writes the resulting
// name back into the owning type's method table (matched by argument
// count, since overloads sharing an arity are rare enough in practice that
// a full signature match isn't worth the extra bookkeeping here) so
// internal/lir's vtable-instance emission can look it up by method name
// alone.
func assignLinkNames(funcs []*check.Func) {
	counts := map[string]int{}
	for _, fn := range funcs {
		counts[fn.Decl.Name]++
	}
	for _, fn := range funcs {
		overloaded := counts[fn.Decl.Name] > 1 || fn.Self != nil
		fd := &types.FunctionDecl{Name: fn.Decl.Name, Sig: sigOf(fn)}
		fn.LinkName = lir.LinkName(fd, fn.Self, overloaded)

		if fn.Self == nil {
			continue
		}
		for _, overload := range methodTableOf(fn.Self)[fn.Decl.Name] {
			if len(overload.Sig.Args) == len(fn.Decl.Args) {
				overload.LinkName = fn.LinkName
			}
		}
	}
}

func sigOf(fn *check.Func) *types.FunctionType {
	args := make([]types.Type, len(fn.Decl.Args))
	for i, p := range fn.Decl.Args {
		args[i] = fn.Types[p.Name]
	}
	return &types.FunctionType{Ret: fn.RType, Args: args}
}
