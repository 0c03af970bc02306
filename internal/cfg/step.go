// Package cfg lowers a function's AST suite into a FlowGraph of Blocks
// (spec.md §4.4, "AST → CFG lowering (FlowFinder)") and computes per-block
// liveness (spec.md §4.5). It mirrors vslc/src/ir/lir's Block/Create*
// builder idiom — a block owns an ordered instruction ("step") list built
// through Create* methods and terminated exactly once — generalized from
// LIR opcodes to the higher-level AST-shaped steps the type checker and
// specializer still need to see (Call, Phi, LoopHeader, LPad) rather than
// lowering straight to arithmetic/memory instructions the way the teacher
// does in one pass.
package cfg

import (
	"fmt"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// Step is one entry in a Block's steps list. Most steps are plain
// AST statements/expressions carried over unchanged; Branch, CondBranch,
// Return, Raise, Yield, LoopHeader, and LPad are the CFG-only terminator
// forms spec.md §3's Block data model names.
type Step interface {
	Pos() util.Position
	stepNode()
}

type stepBase struct{ P util.Position }

func (b stepBase) Pos() util.Position { return b.P }

// ExprStep is a plain expression evaluated for its side effect, or one
// produced by inter()'s decomposition (`$k = visit(e)`).
type ExprStep struct {
	stepBase
	Temp  string // Non-empty when this step binds a temporary ("$k").
	Value ast.Expr
	Type  types.Type // Filled in by internal/check; nil until then.
}

func (*ExprStep) stepNode() {}

// AssignStep is `lhs = rhs` lowered to CFG form; RHS has already been
// passed through inter() so it is atomic (Name, literal, or a temp ref).
type AssignStep struct {
	stepBase
	LHS ast.Expr
	RHS ast.Expr

	// Type is LHS's concrete type, filled in by the specializer pass once
	// any AnyInt/AnyFloat in the RHS has been narrowed; nil until then.
	Type types.Type
}

func (*AssignStep) stepNode() {}

// CallStep is a call lowered into the CFG; when Try is true the call sits
// inside a try region and CallBr names the (continue, pad) block pair it
// redirects to, per spec.md §4.4's "Redirect on call inside try".
type CallStep struct {
	stepBase
	Temp   string
	Callee ast.Expr
	Args   []ast.Expr
	Try    bool
	Block  int     // Id of the block this step was appended to (source of the raise edge).
	CallBr [2]int  // [continue block id, landing-pad block id]; -1 until patched.
	Type   types.Type
}

func (*CallStep) stepNode() {}

// Branch is an unconditional terminator.
type Branch struct {
	stepBase
	Dst int
}

func (*Branch) stepNode() {}

// EdgeCheck narrows a name's observed type on an edge: spec.md §4.4's `if
// x is None:` per-edge `{x: False}`/`{x: True}` opt-narrowing record.
type EdgeCheck struct {
	Name   string
	IsNone bool
}

// CondBranch is the two-way conditional terminator produced by `if`/`while`.
type CondBranch struct {
	stepBase
	Cond       ast.Expr
	Then, Else int
	ThenCheck  []EdgeCheck
	ElseCheck  []EdgeCheck
}

func (*CondBranch) stepNode() {}

// Return is a function-exit terminator; Value is nil for a bare `return`
// (including the auto-inserted `Return None` spec.md §4.4 requires).
type Return struct {
	stepBase
	Value ast.Expr
}

func (*Return) stepNode() {}

// Raise is an exception-throwing terminator.
type Raise struct {
	stepBase
	Value ast.Expr
}

func (*Raise) stepNode() {}

// Yield suspends a generator function, resuming at Resume on the next call.
type Yield struct {
	stepBase
	Value  ast.Expr
	Resume int
}

func (*Yield) stepNode() {}

// LoopHeader is the `for` terminator: Ctx is the synthetic LoopSetup
// expression (the generator context), LVar the bound loop variable, Body
// and Exit the two successor blocks.
type LoopHeader struct {
	stepBase
	Ctx        ast.Expr
	LVar       string
	Body, Exit int
}

func (*LoopHeader) stepNode() {}

// LPad is a try/except landing pad's single step: a type → handler-block
// map, checked in declaration order.
type LPad struct {
	stepBase
	Handlers []LPadHandler
}

// LPadHandler is one `except Type:` arm's (type, handler block) pair.
type LPadHandler struct {
	Type    ast.Expr
	Handler int
}

func (*LPad) stepNode() {}

// Phi joins values from exactly two predecessor blocks (spec.md §3's
// invariant); A/B name the source blocks, ValA/ValB the two incoming
// expressions.
type Phi struct {
	stepBase
	Temp       string
	A, B       int
	ValA, ValB ast.Expr
	Type       types.Type
}

func (*Phi) stepNode() {}

// Free destroys an Owner-typed value by name. Never produced by Build;
// spliced in afterward by internal/check's destructor pass (component 9).
type Free struct {
	stepBase
	Name string
}

func (*Free) stepNode() {}

// NewFree builds a Free step at pos — internal/check can't set stepBase
// directly since it is unexported.
func NewFree(pos util.Position, name string) *Free {
	return &Free{stepBase: stepBase{P: pos}, Name: name}
}

func (s *Branch) String() string     { return fmt.Sprintf("branch block%d", s.Dst) }
func (s *CondBranch) String() string { return fmt.Sprintf("condbranch block%d block%d", s.Then, s.Else) }
