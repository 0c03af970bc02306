// Package ast defines the syntax tree the parser builds (spec.md §3):
// explicit Go types per node variant instead of a dynamic class hierarchy,
// so later passes dispatch with a type switch instead of reflection-based
// "hasattr" dispatch (spec.md §9).
//
// AST nodes are created once, during parsing, and never mutated except to
// attach the annotations later passes compute (Type, Escapes, IRName): each
// expression node embeds an Ann side-record (reached through Anno()) for
// exactly that purpose,
// matching design note 9's side-table option without needing a second IR.
package ast

import "github.com/runalang/runac/internal/util"

// Type is the minimal surface the ast package needs from internal/types,
// kept as an interface here so ast never imports types (types.Type values
// are attached to expressions by internal/check, which imports both).
type Type interface {
	TypeName() string
}

// Ann carries the annotations attached to an expression after parsing:
// its inferred Type (component 6), whether its value Escapes the call that
// produced it (component 8), and the name it's given in the LLIR (component
// 10).
type Ann struct {
	Type    Type
	Escapes bool
	IRName  string
}

// Expr is any expression node.
type Expr interface {
	Pos() util.Position
	Anno() *Ann
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Pos() util.Position
	stmtNode()
}

// Decl is any top-level declaration.
type Decl interface {
	Pos() util.Position
	declNode()
}

// base is embedded by every expression to supply Pos/Anno without
// boilerplate in each variant.
type base struct {
	P   util.Position
	Ann Ann
}

func (b *base) Pos() util.Position { return b.P }
func (b *base) Anno() *Ann         { return &b.Ann }
