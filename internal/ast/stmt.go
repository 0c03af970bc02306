package ast

import "github.com/runalang/runac/internal/util"

type stmtBase struct{ P util.Position }

func (b *stmtBase) Pos() util.Position { return b.P }

func (*AssignStmt) stmtNode()   {}
func (*IAddStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()   {}
func (*YieldStmt) stmtNode()    {}
func (*RaiseStmt) stmtNode()    {}
func (*PassStmt) stmtNode()     {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*TryStmt) stmtNode()      {}
func (*ImportStmt) stmtNode()   {}
func (*RelImportStmt) stmtNode() {}
func (*ExprStmt) stmtNode()     {}

// AssignStmt is `lhs = rhs`. LHS may be a NameExpr, an AttribExpr/ElemExpr
// (store through a reference), or a TupleExpr (positional unpack).
type AssignStmt struct {
	stmtBase
	LHS, RHS Expr
}

// IAddStmt is the `+=` compound-assignment form spec.md §9 leaves
// semantics of undefined on owner-typed values; internal/check rejects it
// there (see SPEC_FULL.md's Open Questions decisions).
type IAddStmt struct {
	stmtBase
	LHS, RHS Expr
}

type ReturnStmt struct {
	stmtBase
	Value Expr // nil for a bare `return`.
}

type YieldStmt struct {
	stmtBase
	Value Expr
}

type RaiseStmt struct {
	stmtBase
	Value Expr
}

type PassStmt struct{ stmtBase }
type BreakStmt struct{ stmtBase }
type ContinueStmt struct{ stmtBase }

// ExprStmt wraps a bare expression used as a statement, e.g. a call for
// its side effect.
type ExprStmt struct {
	stmtBase
	Value Expr
}

// IfArm is one `if`/`elif`/`else` arm; Cond is nil for the trailing `else`.
type IfArm struct {
	Cond  Expr
	Suite []Stmt
}

type IfStmt struct {
	stmtBase
	Arms []IfArm
}

type WhileStmt struct {
	stmtBase
	Cond  Expr
	Suite []Stmt
}

type ForStmt struct {
	stmtBase
	LVar   string
	Source Expr
	Suite  []Stmt
}

// CatchArm is one `except Type:` clause of a TryStmt.
type CatchArm struct {
	Type  Expr
	Suite []Stmt
}

type TryStmt struct {
	stmtBase
	Suite []Stmt
	Catch []CatchArm
}

type ImportStmt struct {
	stmtBase
	Path string
}

// RelImportStmt is `from base import names`.
type RelImportStmt struct {
	stmtBase
	Base  string
	Names []string
}

// Constructors.

func NewAssign(pos util.Position, lhs, rhs Expr) *AssignStmt {
	return &AssignStmt{stmtBase{pos}, lhs, rhs}
}
func NewIAdd(pos util.Position, lhs, rhs Expr) *IAddStmt {
	return &IAddStmt{stmtBase{pos}, lhs, rhs}
}
func NewReturn(pos util.Position, v Expr) *ReturnStmt   { return &ReturnStmt{stmtBase{pos}, v} }
func NewYield(pos util.Position, v Expr) *YieldStmt     { return &YieldStmt{stmtBase{pos}, v} }
func NewRaise(pos util.Position, v Expr) *RaiseStmt     { return &RaiseStmt{stmtBase{pos}, v} }
func NewPass(pos util.Position) *PassStmt               { return &PassStmt{stmtBase{pos}} }
func NewBreak(pos util.Position) *BreakStmt             { return &BreakStmt{stmtBase{pos}} }
func NewContinue(pos util.Position) *ContinueStmt       { return &ContinueStmt{stmtBase{pos}} }
func NewExprStmt(pos util.Position, v Expr) *ExprStmt   { return &ExprStmt{stmtBase{pos}, v} }
func NewIf(pos util.Position, arms []IfArm) *IfStmt     { return &IfStmt{stmtBase{pos}, arms} }
func NewWhile(pos util.Position, cond Expr, suite []Stmt) *WhileStmt {
	return &WhileStmt{stmtBase{pos}, cond, suite}
}
func NewFor(pos util.Position, lvar string, src Expr, suite []Stmt) *ForStmt {
	return &ForStmt{stmtBase{pos}, lvar, src, suite}
}
func NewTry(pos util.Position, suite []Stmt, catch []CatchArm) *TryStmt {
	return &TryStmt{stmtBase{pos}, suite, catch}
}
func NewImport(pos util.Position, path string) *ImportStmt {
	return &ImportStmt{stmtBase{pos}, path}
}
func NewRelImport(pos util.Position, base string, names []string) *RelImportStmt {
	return &RelImportStmt{stmtBase{pos}, base, names}
}
