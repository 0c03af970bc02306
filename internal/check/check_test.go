package check

import (
	"testing"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/frontend"
	"github.com/runalang/runac/internal/types"
)

func parseFuncs(t *testing.T, src string) []*ast.FunctionDecl {
	t.Helper()
	f, err := frontend.ParseFile("t.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	var out []*ast.FunctionDecl
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

func checkFunc(t *testing.T, c *Checker, decl *ast.FunctionDecl) error {
	t.Helper()
	g := cfg.Build(decl)
	return c.TypeCheck(&Func{Decl: decl, Graph: g})
}

func TestTypeCheckStraightLineArith(t *testing.T) {
	fns := parseFuncs(t, "def f(x: int32) -> int32:\n\ty = x + 1\n\treturn y\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err != nil {
		t.Fatalf("TypeCheck: %s", err)
	}
}

func TestTypeCheckReassignMismatch(t *testing.T) {
	fns := parseFuncs(t, "def f(x: int32, y: bool) -> int32:\n\tx = y\n\treturn x\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err == nil {
		t.Fatalf("expected a reassignment-type error assigning bool to an int32 local")
	}
}

func TestTypeCheckOptNarrowing(t *testing.T) {
	fns := parseFuncs(t, "def f(x: ?&int32) -> ?&int32:\n\tif x is None:\n\t\treturn None\n\treturn x\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err != nil {
		t.Fatalf("TypeCheck: %s", err)
	}
}

func TestTypeCheckIfElseJoinReadsBothArms(t *testing.T) {
	fns := parseFuncs(t, "def f(x: int32) -> int32:\n\tif x > 0:\n\t\ty = 1\n\telse:\n\t\ty = 2\n\treturn y\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err != nil {
		t.Fatalf("TypeCheck: %s", err)
	}
}

func TestTypeCheckWhileLoopCarriedVar(t *testing.T) {
	fns := parseFuncs(t, "def f(x: int32) -> int32:\n\ti = 0\n\twhile i < x:\n\t\ti = i + 1\n\treturn i\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err != nil {
		t.Fatalf("TypeCheck: %s", err)
	}
}

func TestTypeCheckUndefinedFunction(t *testing.T) {
	fns := parseFuncs(t, "def f(x: int32) -> int32:\n\treturn missing(x)\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err == nil {
		t.Fatalf("expected an undefined-function error calling an unknown name")
	}
}

func TestTypeCheckCallResolution(t *testing.T) {
	fns := parseFuncs(t, "def g(x: int32) -> int32:\n\treturn x\n\ndef f(y: int32) -> int32:\n\treturn g(y)\n")
	var gDecl, fDecl *ast.FunctionDecl
	for _, fn := range fns {
		switch fn.Name {
		case "g":
			gDecl = fn
		case "f":
			fDecl = fn
		}
	}
	reg := types.NewRegistry()
	i32, _ := reg.Lookup("int32")
	c := NewChecker(reg)
	c.Functions["g"] = []*types.FunctionDecl{
		{Name: "g", Sig: &types.FunctionType{Ret: i32, Args: []types.Type{i32}, ArgNames: []string{"x"}}},
	}
	if err := checkFunc(t, c, gDecl); err != nil {
		t.Fatalf("TypeCheck(g): %s", err)
	}
	if err := checkFunc(t, c, fDecl); err != nil {
		t.Fatalf("TypeCheck(f): %s", err)
	}
}

func TestTypeCheckMainBadArity(t *testing.T) {
	fns := parseFuncs(t, "def main(a: int32, b: int32, c: int32) -> int32:\n\treturn 0\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err == nil {
		t.Fatalf("expected a main-signature error for a three-argument main")
	}
}

func TestTypeCheckInitMustReturnVoid(t *testing.T) {
	fns := parseFuncs(t, "def __init__(self: int32) -> int32:\n\treturn self\n")
	c := NewChecker(types.NewRegistry())
	if err := checkFunc(t, c, fns[0]); err == nil {
		t.Fatalf("expected a void-return-required error for __init__ declaring a non-Void return")
	}
}
