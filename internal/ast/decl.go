package ast

import "github.com/runalang/runac/internal/util"

type declBase struct{ P util.Position }

func (b *declBase) Pos() util.Position { return b.P }

func (*ClassDecl) declNode()    {}
func (*TraitDecl) declNode()    {}
func (*FunctionDecl) declNode() {}
func (*ExternDecl) declNode()   {}

// Param is a name bound to a (possibly nil, for untyped template params)
// type-form expression; used for function arguments and class attributes.
type Param struct {
	Name string
	Type Expr
}

// FunctionDecl is `def name(args) -> rtype: suite`. Decor is the set of
// `@name` decorators collected before the def (spec.md §4.2).
type FunctionDecl struct {
	declBase
	Decor  map[string]bool
	Name   string
	Args   []Param
	RType  Expr // nil means Void.
	Suite  []Stmt
	Method bool // true when parsed inside a class/trait body (first arg is implicit self in source? no — self is explicit per grammar, this only marks context for diagnostics).
}

// ExternDecl is a `def` whose signature is followed by NL instead of `:`,
// declaring an external symbol with no body (spec.md §4.2).
type ExternDecl struct {
	declBase
	Name  string
	Args  []Param
	RType Expr
}

// ClassDecl is `class Name[params]: attribs methods` (or `pass`).
type ClassDecl struct {
	declBase
	Name    string
	Params  []string
	Attribs []Param
	Methods []*FunctionDecl
}

// TraitDecl is `trait Name[params]: methods`.
type TraitDecl struct {
	declBase
	Name    string
	Params  []string
	Methods []*FunctionDecl
}

// File is the whole-program container produced by parsing one source unit:
// an ordered list of top-level declarations and statements (imports may
// appear alongside declarations).
type File struct {
	Path  string
	Decls []Decl
}

func NewFunctionDecl(pos util.Position, decor map[string]bool, name string, args []Param, rtype Expr, suite []Stmt) *FunctionDecl {
	return &FunctionDecl{declBase{pos}, decor, name, args, rtype, suite, false}
}

func NewExternDecl(pos util.Position, name string, args []Param, rtype Expr) *ExternDecl {
	return &ExternDecl{declBase{pos}, name, args, rtype}
}

func NewClassDecl(pos util.Position, name string, params []string, attribs []Param, methods []*FunctionDecl) *ClassDecl {
	return &ClassDecl{declBase{pos}, name, params, attribs, methods}
}

func NewTraitDecl(pos util.Position, name string, params []string, methods []*FunctionDecl) *TraitDecl {
	return &TraitDecl{declBase{pos}, name, params, methods}
}
