// Package compiler ties every pass in this repository into the single
// ordered pipeline spec.md §5 names: lex→parse→lower→liveness→type→
// specialize→escape→destruct→emit. It is the package cmd/runac's
// subcommands call into; nothing here is itself a pass, only the glue that
// sequences passes already implemented by internal/frontend, internal/cfg,
// internal/check and internal/lir.
package compiler

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/check"
	"github.com/runalang/runac/internal/frontend"
	"github.com/runalang/runac/internal/lir"
	"github.com/runalang/runac/internal/source"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// Module is one compiled program: the shared registry and checker every
// function was checked against, the set of checked functions, and — once
// Emit has run — the resulting LLIR.
type Module struct {
	Reg     *types.Registry
	Checker *check.Checker
	Funcs   []*check.Func
	Tokens  []frontend.Token // Not set by this package; LexOnly returns its tokens directly.
	Files   []*ast.File      // Populated by Compile.
	LIR     *lir.Module
}

// LexOnly runs just the lexer over opt.Src, for the `tokens` subcommand
// (spec.md §6: "tokens <file> — print each token").
func LexOnly(opt util.Options) ([]frontend.Token, error) {
	units, err := source.Load(opt.Src, "")
	if err != nil {
		return nil, err
	}
	return frontend.Lex(units[0].Name, units[0].Text)
}

// Parse loads and parses opt.Src (and, when set, opt.CoreDir's merged core
// library) without running any later pass, for the `parse`/`show`
// subcommands.
func Parse(opt util.Options) ([]*ast.File, error) {
	units, err := source.Load(opt.Src, opt.CoreDir)
	if err != nil {
		return nil, err
	}
	files := make([]*ast.File, len(units))
	for i, u := range units {
		f, err := frontend.ParseFile(u.Name, u.Text)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	return files, nil
}

// Compile runs the whole pipeline over opt.Src and returns the fully
// checked Module. LastPass, when non-empty, stops the pipeline once that
// named pass has run (spec.md §6's `show --last=<pass>` contract); valid
// names are "lower", "liveness", "type", "specialize", "escape",
// "destruct" — an empty LastPass (or "emit") runs the whole pipeline
// through LLIR generation.
func Compile(opt util.Options) (*Module, error) {
	files, err := Parse(opt)
	if err != nil {
		return nil, err
	}

	reg := types.NewRegistry()
	if err := registerTypes(reg, files); err != nil {
		return nil, err
	}

	externs, err := collectExterns(reg, files)
	if err != nil {
		return nil, err
	}

	c := check.NewChecker(reg)
	funcs, err := collectFuncs(reg, c, files)
	if err != nil {
		return nil, err
	}

	m := &Module{Reg: reg, Checker: c, Funcs: funcs, Files: files}
	if opt.LastPass == "lower" || opt.LastPass == "liveness" {
		// Liveness has no separate stopping point of its own: ComputeLiveness
		// runs as the first step inside TypeCheck, so "lower" and "liveness"
		// both mean "show the graph runPipeline hasn't touched yet."
		return m, nil
	}

	if err := runPipeline(c, funcs, opt.Threads1(), opt.LastPass); err != nil {
		return m, err
	}
	if opt.LastPass != "" && opt.LastPass != "emit" {
		return m, nil
	}

	assignLinkNames(funcs)
	lm := lir.NewModule(lir.HostTriple())
	for _, e := range externs {
		lm.AddExtern(e)
	}
	lir.EmitTypes(lm, reg, linkNameResolver(reg))
	labels := util.NewLabelAllocator()
	for _, fn := range funcs {
		lir.Emit(lm, fn, fn.LinkName, reg, labels)
	}
	m.LIR = lm
	return m, nil
}

// linkNameResolver adapts the module's (type, method) -> link name lookup
// internal/lir's vtable-instance emission needs into the signature
// lir.VtableInstance expects.
func linkNameResolver(reg *types.Registry) func(types.Type, string) string {
	return func(implType types.Type, method string) string {
		table := methodTableOf(implType)
		overloads, ok := table[method]
		if !ok || len(overloads) == 0 {
			return method
		}
		return overloads[0].LinkName
	}
}

func methodTableOf(t types.Type) types.MethodTable {
	switch v := t.(type) {
	case *types.StructType:
		return v.Methods
	case *types.ConcreteType:
		return v.Methods
	default:
		return nil
	}
}
