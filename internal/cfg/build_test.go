package cfg

import (
	"testing"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/frontend"
)

func parseOneFunc(t *testing.T, src string) *ast.FunctionDecl {
	t.Helper()
	f, err := frontend.ParseFile("t.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			return fn
		}
	}
	t.Fatalf("no function decl found in source")
	return nil
}

func TestBuildStraightLine(t *testing.T) {
	fn := parseOneFunc(t, "def f() -> int32:\n\tx = 1\n\treturn x\n")
	g := Build(fn)
	blocks := g.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("expected a single block for straight-line code, got %d", len(blocks))
	}
	term := blocks[0].Term()
	if _, ok := term.(*Return); !ok {
		t.Fatalf("expected block to end in Return, got %T", term)
	}
}

func TestBuildIfElseJoins(t *testing.T) {
	fn := parseOneFunc(t, "def f(x: int32) -> int32:\n\tif x:\n\t\ty = 1\n\telse:\n\t\ty = 2\n\treturn y\n")
	g := Build(fn)
	for _, b := range g.Blocks() {
		if b.Term() == nil {
			t.Fatalf("block %d has no terminator", b.Id())
		}
	}
	// entry should end in a CondBranch to two distinct successors.
	entry := g.Block(g.Entry)
	cb, ok := entry.Term().(*CondBranch)
	if !ok {
		t.Fatalf("expected entry to end in CondBranch, got %T", entry.Term())
	}
	if cb.Then == cb.Else {
		t.Fatalf("expected distinct then/else successors")
	}
}

func TestBuildWhileBackEdge(t *testing.T) {
	fn := parseOneFunc(t, "def f(x: int32) -> int32:\n\twhile x:\n\t\tx = x\n\treturn x\n")
	g := Build(fn)
	// Find the while-body block and confirm it back-edges to a while-head.
	var bodyID = -1
	for _, b := range g.Blocks() {
		if b.Anno == "while-body" {
			bodyID = b.Id()
		}
	}
	if bodyID < 0 {
		t.Fatalf("no while-body block found")
	}
	succs := g.Succs(bodyID)
	found := false
	for _, s := range succs {
		if g.Block(s).Anno == "while-head" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected while-body to back-edge to while-head, succs=%v", succs)
	}
}

func TestBuildUnreachablePruned(t *testing.T) {
	fn := parseOneFunc(t, "def f() -> int32:\n\treturn 1\n\tx = 2\n")
	g := Build(fn)
	for _, b := range g.Blocks() {
		for _, s := range b.Steps {
			if a, ok := s.(*AssignStep); ok {
				if n, ok := a.LHS.(*ast.NameExpr); ok && n.Name == "x" {
					t.Fatalf("unreachable assignment to x should have been pruned")
				}
			}
		}
	}
}

func TestBuildTryWiresLandingPad(t *testing.T) {
	fn := parseOneFunc(t, "def f() -> int32:\n\ttry:\n\t\trisky()\n\texcept Error:\n\t\tpass\n\treturn 1\n")
	g := Build(fn)
	var padID = -1
	for _, b := range g.Blocks() {
		if b.Anno == "try-pad" {
			padID = b.Id()
		}
	}
	if padID < 0 {
		t.Fatalf("expected a try-pad block")
	}
	pad := g.Block(padID)
	if _, ok := pad.Term().(*LPad); !ok {
		t.Fatalf("expected try-pad's terminator to be LPad, got %T", pad.Term())
	}
}

func TestLivenessOriginsFromArg(t *testing.T) {
	fn := parseOneFunc(t, "def f(x: int32) -> int32:\n\treturn x\n")
	g := Build(fn)
	ComputeLiveness(g, []string{"x"})
	entry := g.Block(g.Entry)
	// The Return step reads x; its origin should resolve to the argument
	// pseudo-block since x is never reassigned.
	retIdx := len(entry.Steps) - 1
	origins := Origins(g, "x", entry.Id(), retIdx)
	if len(origins) != 1 || origins[0].Block != argBlock {
		t.Fatalf("expected x's origin to be the argument pseudo-block, got %v", origins)
	}
}
