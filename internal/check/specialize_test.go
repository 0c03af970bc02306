package check

import (
	"testing"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
)

func checkAndSpecialize(t *testing.T, c *Checker, decl *ast.FunctionDecl) (*Func, error) {
	t.Helper()
	g := cfg.Build(decl)
	fn := &Func{Decl: decl, Graph: g}
	if err := c.TypeCheck(fn); err != nil {
		return fn, err
	}
	return fn, c.Specialize(fn)
}

func TestSpecializeReturnLiteralTakesDeclaredWidth(t *testing.T) {
	fns := parseFuncs(t, "def f() -> int16:\n\treturn 1\n")
	c := NewChecker(types.NewRegistry())
	fn, err := checkAndSpecialize(t, c, fns[0])
	if err != nil {
		t.Fatalf("check/specialize: %s", err)
	}
	ret := fn.Graph.Blocks()[0].Term().(*cfg.Return)
	lit := ret.Value.(*ast.IntLit)
	got, ok := fn.Literals[lit]
	if !ok {
		t.Fatalf("literal not recorded in fn.Literals")
	}
	if got.TypeName() != "int16" {
		t.Fatalf("expected int16, got %s", types.String(got))
	}
}

func TestSpecializeDefaultsToWordSizedInt(t *testing.T) {
	fns := parseFuncs(t, "def f() -> int64:\n\tx = 5\n\treturn x\n")
	c := NewChecker(types.NewRegistry())
	fn, err := checkAndSpecialize(t, c, fns[0])
	if err != nil {
		t.Fatalf("check/specialize: %s", err)
	}
	var assign *cfg.AssignStep
	for _, b := range fn.Graph.Blocks() {
		for _, s := range b.Steps {
			if a, ok := s.(*cfg.AssignStep); ok {
				assign = a
			}
		}
	}
	if assign == nil {
		t.Fatalf("no AssignStep found")
	}
	lit := assign.RHS.(*ast.IntLit)
	got, ok := fn.Literals[lit]
	if !ok {
		t.Fatalf("literal not recorded")
	}
	if got.TypeName() != "int64" {
		t.Fatalf("expected default int64 (word-sized), got %s", types.String(got))
	}
}

func TestSpecializeFloatDefault(t *testing.T) {
	fns := parseFuncs(t, "def f() -> float64:\n\treturn 1.5\n")
	c := NewChecker(types.NewRegistry())
	fn, err := checkAndSpecialize(t, c, fns[0])
	if err != nil {
		t.Fatalf("check/specialize: %s", err)
	}
	ret := fn.Graph.Blocks()[0].Term().(*cfg.Return)
	lit := ret.Value.(*ast.FloatLit)
	got, ok := fn.Literals[lit]
	if !ok {
		t.Fatalf("literal not recorded")
	}
	if got.TypeName() != "float64" {
		t.Fatalf("expected float64, got %s", types.String(got))
	}
}
