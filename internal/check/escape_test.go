package check

import (
	"testing"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
)

func checkSpecializeEscape(t *testing.T, c *Checker, decl *ast.FunctionDecl) (*Func, error) {
	t.Helper()
	g := cfg.Build(decl)
	fn := &Func{Decl: decl, Graph: g}
	if err := c.TypeCheck(fn); err != nil {
		return fn, err
	}
	if err := c.Specialize(fn); err != nil {
		return fn, err
	}
	return fn, c.EscapeAnalyze(fn)
}

func TestEscapeReturnedNamePropagatesToItsDef(t *testing.T) {
	fns := parseFuncs(t, "def f() -> $int32:\n\tx = g()\n\treturn x\n")
	reg := types.NewRegistry()
	i32, _ := reg.Lookup("int32")
	c := NewChecker(reg)
	c.Functions["g"] = []*types.FunctionDecl{
		{Name: "g", Sig: &types.FunctionType{Ret: reg.Owner(i32), Args: nil}},
	}
	fn, err := checkSpecializeEscape(t, c, fns[0])
	if err != nil {
		t.Fatalf("check/specialize/escape: %s", err)
	}
	var assignBlock *cfg.Block
	for _, b := range fn.Graph.Blocks() {
		for _, s := range b.Steps {
			if a, ok := s.(*cfg.AssignStep); ok {
				if name, ok := a.LHS.(*ast.NameExpr); ok && name.Name == "x" {
					assignBlock = b
				}
			}
		}
	}
	if assignBlock == nil {
		t.Fatalf("assignment to x not found")
	}
	if len(assignBlock.Escapes["x"]) == 0 {
		t.Fatalf("expected x to be marked escaping (it is returned)")
	}
}

func TestEscapeOwnerArgumentEscapesAtCallSite(t *testing.T) {
	fns := parseFuncs(t, "def f(x: $int32) -> void:\n\tconsume(x)\n\treturn\n")
	reg := types.NewRegistry()
	i32, _ := reg.Lookup("int32")
	c := NewChecker(reg)
	c.Functions["consume"] = []*types.FunctionDecl{
		{Name: "consume", Sig: &types.FunctionType{Ret: reg.Void(), Args: []types.Type{reg.Owner(i32)}, ArgNames: []string{"v"}}},
	}
	fn, err := checkSpecializeEscape(t, c, fns[0])
	if err != nil {
		t.Fatalf("check/specialize/escape: %s", err)
	}
	if !fn.Escaped["x"] {
		t.Fatalf("expected x to be marked escaping (passed into an Owner-typed parameter)")
	}
}
