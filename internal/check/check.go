// Package check implements the middle-end passes that run over a lowered
// FlowGraph (spec.md §4.6–§4.9): type inference with opt-narrowing,
// specialization of generic literals, escape analysis, and destructor
// insertion. It is grounded on vslc/src/ir's type-checking/validation
// passes (vslc/src/ir/validate.go), generalized from VSL's scalar-only
// type system to the owner/ref/opt/trait model spec.md §4.3 describes.
package check

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// Func bundles a function declaration with its lowered graph — the unit
// every pass in this package operates on.
type Func struct {
	Decl  *ast.FunctionDecl
	Graph *cfg.FlowGraph
	Self  types.Type // Non-nil when Decl is a method; the owning class/trait.

	// LinkName is the mangled name this function is emitted under,
	// assigned by internal/compiler's naming pass once every overload has
	// been collected (mirrors types.FunctionDecl.LinkName).
	LinkName string

	// RType is the resolved return type, filled in by TypeCheck so the
	// specializer (component 7) doesn't have to re-resolve fn.Decl.RType.
	RType types.Type

	// Literals holds each IntLit/FloatLit node's concrete resolved type,
	// filled in by Specialize. Keyed by AST identity since literal nodes
	// carry no Type field of their own (unlike ExprStep/CallStep/Phi).
	Literals map[ast.Expr]types.Type

	// Types is each name's final concrete type (parameter or local),
	// filled in by Specialize; consumed by EscapeAnalyze to tell an
	// Owner-typed value from a Ref/scalar one.
	Types map[string]types.Type

	// OwnedLiterals marks the string literals EscapeAnalyze promoted from
	// the default borrowed `&Str` to an owned, heap-escaping allocation
	// because the slot they were stored or passed into required Owner.
	OwnedLiterals map[ast.Expr]bool

	// Escaped is the set of names EscapeAnalyze determined outlive their
	// defining block (returned, yielded, stored into an escaping object, or
	// passed into an Owner-typed parameter) — the destructor pass (§4.9)
	// consults this to decide whether a Free belongs at a given exit.
	Escaped map[string]bool
}

// Checker carries the module-scoped registry and symbol tables every pass
// needs, mirroring spec.md §9's "no global singleton cache" design: one
// instance threaded explicitly through every call, never a package global.
type Checker struct {
	Reg    *types.Registry
	Scopes map[int]map[string]types.Type // Per-block local scope cache; NewChecker allocates it empty and no pass writes to it.

	// Functions is the module-wide overload table: a bare function name to
	// its declared overload set, populated by the caller (internal/compiler)
	// once every file in a compilation unit has been scanned.
	Functions map[string][]*types.FunctionDecl
}

// NewChecker builds a Checker over an already-populated registry.
func NewChecker(reg *types.Registry) *Checker {
	return &Checker{Reg: reg, Scopes: map[int]map[string]types.Type{}, Functions: map[string][]*types.FunctionDecl{}}
}

// TypeCheck runs the inferencer (component 6) over fn's graph, walking
// blocks in reverse-postorder (see FlowGraph.Blocks) per spec.md §4.6, then
// validates the `__init__`/`__del__`/`main` signature rules.
func (c *Checker) TypeCheck(fn *Func) error {
	argTypes := map[string]types.Type{}
	var argNames []string
	for _, p := range fn.Decl.Args {
		t, err := c.Reg.FromExpr(p.Type)
		if err != nil {
			return err
		}
		argTypes[p.Name] = t
		argNames = append(argNames, p.Name)
	}
	cfg.ComputeLiveness(fn.Graph, argNames)

	var rtype types.Type
	if fn.Decl.RType != nil {
		t, err := c.Reg.FromExpr(fn.Decl.RType)
		if err != nil {
			return err
		}
		rtype = t
	} else {
		rtype = c.Reg.Void()
	}
	fn.RType = rtype

	if err := c.checkSignature(fn, rtype); err != nil {
		return err
	}

	tc := &typeWalk{
		c:     c,
		g:     fn.Graph,
		args:  argTypes,
		rtype: rtype,
		self:  fn.Self,
	}
	for _, b := range fn.Graph.Blocks() {
		if err := tc.block(b); err != nil {
			return err
		}
	}
	return nil
}

// checkSignature enforces spec.md §4.6's `__init__`/`__del__`/`main`
// signature rules.
func (c *Checker) checkSignature(fn *Func, rtype types.Type) error {
	name := fn.Decl.Name
	if name == "__init__" || name == "__del__" {
		if !isVoid(rtype) {
			return util.NewSemanticError(fn.Decl.Pos(), util.ErrVoidReturnRequired,
				"%s must return Void", name)
		}
	}
	if name == "main" {
		switch len(fn.Decl.Args) {
		case 0:
		case 2:
			// (&Str, &Array[Str]) expected; only arity is enforced here —
			// the exact element types are checked against whatever
			// `Str`/`Array` resolve to once core library types are loaded.
		default:
			return util.NewSemanticError(fn.Decl.Pos(), util.ErrMainSignature,
				"main must take no arguments or (&Str, &Array[Str]), got %d arguments", len(fn.Decl.Args))
		}
		if !isVoid(rtype) && !isI32(rtype) {
			return util.NewSemanticError(fn.Decl.Pos(), util.ErrMainSignature,
				"main must return Void or i32")
		}
	}
	return nil
}

func isVoid(t types.Type) bool {
	_, ok := t.(types.VoidType)
	return ok
}

func isI32(t types.Type) bool {
	it, ok := t.(types.IntType)
	return ok && it.Signed && it.Bits == 32
}
