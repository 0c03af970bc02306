package lir

import (
	"strings"
	"testing"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/check"
	"github.com/runalang/runac/internal/frontend"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

func buildFunc(t *testing.T, src string) *check.Func {
	t.Helper()
	f, err := frontend.ParseFile("t.rns", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	var decl *ast.FunctionDecl
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			decl = fn
		}
	}
	if decl == nil {
		t.Fatalf("no function declaration in source")
	}
	reg := types.NewRegistry()
	c := check.NewChecker(reg)
	g := cfg.Build(decl)
	fn := &check.Func{Decl: decl, Graph: g}
	if err := c.TypeCheck(fn); err != nil {
		t.Fatalf("TypeCheck: %s", err)
	}
	if err := c.Specialize(fn); err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	if err := c.EscapeAnalyze(fn); err != nil {
		t.Fatalf("EscapeAnalyze: %s", err)
	}
	if err := c.Destruct(fn); err != nil {
		t.Fatalf("Destruct: %s", err)
	}
	return fn
}

func TestEmitStraightLineArithProducesDefine(t *testing.T) {
	fn := buildFunc(t, "def f(x: int32) -> int32:\n\ty = x + 1\n\treturn y\n")
	m := NewModule(HostTriple())
	out := Emit(m, fn, "f", types.NewRegistry(), util.NewLabelAllocator())
	if out.Name != "f" {
		t.Fatalf("expected function name f, got %s", out.Name)
	}
	text := m.String()
	if !strings.Contains(text, "define i32 @f(i32 %x) uwtable {") {
		t.Fatalf("expected a define line for f, got:\n%s", text)
	}
	if !strings.Contains(text, "ret i32") {
		t.Fatalf("expected a ret i32 instruction, got:\n%s", text)
	}
}

func TestEmitIfElseBranches(t *testing.T) {
	fn := buildFunc(t, "def f(x: int32) -> int32:\n\tif x > 0:\n\t\ty = 1\n\telse:\n\t\ty = 2\n\treturn y\n")
	m := NewModule(HostTriple())
	Emit(m, fn, "f", types.NewRegistry(), util.NewLabelAllocator())
	text := m.String()
	if !strings.Contains(text, "br i1") {
		t.Fatalf("expected a conditional branch, got:\n%s", text)
	}
}

func TestEmitMainSynthesizesArgsFromArgcArgv(t *testing.T) {
	// &str stands in for the real &Array[Str] second parameter here: this
	// package's own test harness (buildFunc, above) never registers an
	// Array template, only the scalar/str names NewRegistry seeds, so a
	// second &str keeps this test self-contained while still exercising
	// Emit's isMain branch, which only cares that main declares exactly
	// two parameters, not their concrete types.
	fn := buildFunc(t, "def main(name: &str, args: &str) -> int32:\n\treturn 0\n")
	m := NewModule(HostTriple())
	out := Emit(m, fn, "main", types.NewRegistry(), util.NewLabelAllocator())
	if out.Name != "main" {
		t.Fatalf("expected function name main, got %s", out.Name)
	}
	text := m.String()
	if !strings.Contains(text, "define i32 @main(i32 %argc, i8** %argv)") {
		t.Fatalf("expected main to take (argc, argv), got:\n%s", text)
	}
	if !strings.Contains(text, "call i8* @rt_args(i32 %argc, i8** %argv)") {
		t.Fatalf("expected a call to the runtime args builder, got:\n%s", text)
	}
	if !strings.Contains(text, "call void @rt_free(") {
		t.Fatalf("expected the constructed args array to be freed before return, got:\n%s", text)
	}
}

func TestHostTripleNamesKnownArch(t *testing.T) {
	tr := HostTriple()
	if tr == "" {
		t.Fatalf("expected a non-empty triple")
	}
}

func TestLinkNameMainStaysBare(t *testing.T) {
	decl := &types.FunctionDecl{Name: "main", Sig: &types.FunctionType{}}
	if got := LinkName(decl, nil, true); got != "main" {
		t.Fatalf("expected main to stay unmangled, got %s", got)
	}
}

func TestLinkNameMangles(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Lookup("int32")
	decl := &types.FunctionDecl{Name: "push", Sig: &types.FunctionType{Args: []types.Type{reg.Owner(i32)}}}
	got := LinkName(decl, nil, true)
	if got != "push_Oint32" {
		t.Fatalf("expected push_Oint32, got %s", got)
	}
}
