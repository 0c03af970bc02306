package frontend

import (
	"testing"

	"github.com/runalang/runac/internal/ast"
)

// TestParseFunctionDecl checks a minimal function with a typed parameter, a
// return type, and a single return statement.
func TestParseFunctionDecl(t *testing.T) {
	src := "def add(a: int32, b: int32) -> int32:\n" +
		"\treturn a + b\n"

	f, err := ParseFile("add.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	if len(f.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(f.Decls))
	}
	fn, ok := f.Decls[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected *ast.FunctionDecl, got %T", f.Decls[0])
	}
	if fn.Name != "add" {
		t.Errorf("expected name %q, got %q", "add", fn.Name)
	}
	if len(fn.Args) != 2 || fn.Args[0].Name != "a" || fn.Args[1].Name != "b" {
		t.Fatalf("unexpected args: %#v", fn.Args)
	}
	if len(fn.Suite) != 1 {
		t.Fatalf("expected 1 statement in suite, got %d", len(fn.Suite))
	}
	ret, ok := fn.Suite[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected *ast.ReturnStmt, got %T", fn.Suite[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected *ast.BinaryExpr, got %T", ret.Value)
	}
	if bin.Op != ast.OpAdd {
		t.Errorf("expected OpAdd, got %v", bin.Op)
	}
}

// TestParseExternDecl checks that a signature with no ':' suite becomes an
// ExternDecl instead of a FunctionDecl.
func TestParseExternDecl(t *testing.T) {
	src := "def puts(s: &str) -> int32\n"
	f, err := ParseFile("extern.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	if _, ok := f.Decls[0].(*ast.ExternDecl); !ok {
		t.Fatalf("expected *ast.ExternDecl, got %T", f.Decls[0])
	}
}

// TestParseIfElifElse checks every arm is captured in order, with the
// trailing else represented by a nil Cond.
func TestParseIfElifElse(t *testing.T) {
	src := "def f(x: int32) -> int32:\n" +
		"\tif x == 0:\n" +
		"\t\treturn 0\n" +
		"\telif x == 1:\n" +
		"\t\treturn 1\n" +
		"\telse:\n" +
		"\t\treturn 2\n"
	f, err := ParseFile("if.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	ifst, ok := fn.Suite[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", fn.Suite[0])
	}
	if len(ifst.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(ifst.Arms))
	}
	if ifst.Arms[2].Cond != nil {
		t.Errorf("expected trailing else arm to have a nil Cond")
	}
}

// TestParseTernary checks `a if cond else b` builds a TernaryExpr with the
// values in then/else order.
func TestParseTernary(t *testing.T) {
	src := "def f(x: int32) -> int32:\n" +
		"\treturn 1 if x == 0 else 2\n"
	f, err := ParseFile("ternary.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	ret := fn.Suite[0].(*ast.ReturnStmt)
	tern, ok := ret.Value.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("expected *ast.TernaryExpr, got %T", ret.Value)
	}
	then, ok := tern.Values[0].(*ast.IntLit)
	if !ok || then.Value != "1" {
		t.Fatalf("expected then-value IntLit(1), got %#v", tern.Values[0])
	}
	els, ok := tern.Values[1].(*ast.IntLit)
	if !ok || els.Value != "2" {
		t.Fatalf("expected else-value IntLit(2), got %#v", tern.Values[1])
	}
}

// TestParsePrecedence checks `a or b and c` parses as `a or (b and c)`
// (AND binds tighter than OR).
func TestParsePrecedence(t *testing.T) {
	src := "def f(a: bool, b: bool, c: bool) -> bool:\n" +
		"\treturn a or b and c\n"
	f, err := ParseFile("prec.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	ret := fn.Suite[0].(*ast.ReturnStmt)
	top, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || top.Op != ast.OpOr {
		t.Fatalf("expected top-level OpOr, got %#v", ret.Value)
	}
	right, ok := top.Right.(*ast.BinaryExpr)
	if !ok || right.Op != ast.OpAnd {
		t.Fatalf("expected right operand OpAnd, got %#v", top.Right)
	}
}

// TestParseOptNarrowGuard checks `x is None` parses to a BinaryExpr with
// OpIs, the form internal/check's opt-narrowing rule (spec.md §4.6) matches
// on.
func TestParseOptNarrowGuard(t *testing.T) {
	src := "def f(x: ?int32) -> int32:\n" +
		"\tif x is None:\n" +
		"\t\treturn 0\n" +
		"\treturn x\n"
	f, err := ParseFile("opt.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	if _, ok := fn.Args[0].Type.(*ast.OptType); !ok {
		t.Fatalf("expected param type *ast.OptType, got %#v", fn.Args[0].Type)
	}
	ifst := fn.Suite[0].(*ast.IfStmt)
	cond, ok := ifst.Arms[0].Cond.(*ast.BinaryExpr)
	if !ok || cond.Op != ast.OpIs {
		t.Fatalf("expected OpIs guard, got %#v", ifst.Arms[0].Cond)
	}
	if _, ok := cond.Right.(*ast.NoneLit); !ok {
		t.Fatalf("expected RHS NoneLit, got %#v", cond.Right)
	}
}

// TestParseClassWithMethods checks a class with one attribute and one
// method parses both, and that the method's Method flag is set.
func TestParseClassWithMethods(t *testing.T) {
	src := "class Point:\n" +
		"\tx: int32\n" +
		"\ty: int32\n" +
		"\tdef sum(self) -> int32:\n" +
		"\t\treturn self.x + self.y\n"
	f, err := ParseFile("class.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	cls, ok := f.Decls[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected *ast.ClassDecl, got %T", f.Decls[0])
	}
	if len(cls.Attribs) != 2 {
		t.Fatalf("expected 2 attribs, got %d", len(cls.Attribs))
	}
	if len(cls.Methods) != 1 || !cls.Methods[0].Method {
		t.Fatalf("expected 1 method marked Method=true, got %#v", cls.Methods)
	}
}

// TestParseTraitDecl checks a trait with an abstract (body-less) method and
// a concrete one both land in Methods.
func TestParseTraitDecl(t *testing.T) {
	src := "trait Shape:\n" +
		"\tdef area(self) -> float64\n" +
		"\tdef describe(self) -> str:\n" +
		"\t\treturn \"shape\"\n"
	f, err := ParseFile("trait.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	tr, ok := f.Decls[0].(*ast.TraitDecl)
	if !ok {
		t.Fatalf("expected *ast.TraitDecl, got %T", f.Decls[0])
	}
	if len(tr.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(tr.Methods))
	}
	if tr.Methods[0].Suite != nil {
		t.Errorf("expected abstract method to have a nil Suite")
	}
	if tr.Methods[1].Suite == nil {
		t.Errorf("expected concrete method to have a non-nil Suite")
	}
}

// TestParseForLoop checks `for x in xs:` builds a ForStmt with the loop
// variable and source expression in the right fields.
func TestParseForLoop(t *testing.T) {
	src := "def f(xs: Array[int32]) -> int32:\n" +
		"\tfor x in xs:\n" +
		"\t\tpass\n" +
		"\treturn 0\n"
	f, err := ParseFile("for.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	fs, ok := fn.Suite[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", fn.Suite[0])
	}
	if fs.LVar != "x" {
		t.Errorf("expected loop var %q, got %q", "x", fs.LVar)
	}
	if _, ok := fs.Source.(*ast.NameExpr); !ok {
		t.Errorf("expected source *ast.NameExpr, got %T", fs.Source)
	}
}

// TestParseTryExcept checks a try block with two except arms.
func TestParseTryExcept(t *testing.T) {
	src := "def f() -> int32:\n" +
		"\ttry:\n" +
		"\t\traise Error()\n" +
		"\texcept ValueError:\n" +
		"\t\treturn 1\n" +
		"\texcept Error:\n" +
		"\t\treturn 2\n"
	f, err := ParseFile("try.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	tr, ok := fn.Suite[0].(*ast.TryStmt)
	if !ok {
		t.Fatalf("expected *ast.TryStmt, got %T", fn.Suite[0])
	}
	if len(tr.Catch) != 2 {
		t.Fatalf("expected 2 catch arms, got %d", len(tr.Catch))
	}
}

// TestParseMultiAssignTuple checks `a, b = 1, 2` builds TupleExpr nodes on
// both sides of the assignment via led's bare-comma case.
func TestParseMultiAssignTuple(t *testing.T) {
	src := "def f() -> int32:\n" +
		"\ta, b = 1, 2\n" +
		"\treturn a\n"
	f, err := ParseFile("multi.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	as, ok := fn.Suite[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected *ast.AssignStmt, got %T", fn.Suite[0])
	}
	lhs, ok := as.LHS.(*ast.TupleExpr)
	if !ok || len(lhs.Values) != 2 {
		t.Fatalf("expected 2-element tuple LHS, got %#v", as.LHS)
	}
	rhs, ok := as.RHS.(*ast.TupleExpr)
	if !ok || len(rhs.Values) != 2 {
		t.Fatalf("expected 2-element tuple RHS, got %#v", as.RHS)
	}
}

// TestParseTemplateInstantiation checks `Box[int32]` in type position
// builds an ElemExpr wrapping a tuple of the template arguments.
func TestParseTemplateInstantiation(t *testing.T) {
	src := "def f(b: Box[int32]) -> int32:\n" +
		"\treturn 0\n"
	f, err := ParseFile("template.rn", src)
	if err != nil {
		t.Fatalf("ParseFile: %s", err)
	}
	fn := f.Decls[0].(*ast.FunctionDecl)
	elem, ok := fn.Args[0].Type.(*ast.ElemExpr)
	if !ok {
		t.Fatalf("expected *ast.ElemExpr, got %#v", fn.Args[0].Type)
	}
	name, ok := elem.Obj.(*ast.NameExpr)
	if !ok || name.Name != "Box" {
		t.Fatalf("expected base name %q, got %#v", "Box", elem.Obj)
	}
}

// TestParseUnexpectedToken checks that a malformed signature is reported as
// a *util.ParseError with the "unexpected token" message form.
func TestParseUnexpectedToken(t *testing.T) {
	_, err := ParseFile("bad.rn", "def f(:\n\treturn 0\n")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}
