package check

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
)

// escaper is the per-function state for the escape-analysis pass (spec.md
// §4.8): a reverse walk over the CFG, marking which Owner-typed values
// outlive the block that defines them. `escaped` is the backward-carried
// frontier: a name enters it the moment something downstream (a return, a
// store into an already-escaping object, an Owner-typed call argument)
// proves its value must survive past its own block, and every assignment
// step found afterward (walking backward) propagates that status to
// whatever the assignment's RHS names or allocates.
type escaper struct {
	c *Checker

	types   map[string]types.Type // Final concrete type per name, from Specialize.
	escaped map[string]bool
	owned   map[ast.Expr]bool // String literals forced owned by an Owner-typed slot.
}

// EscapeAnalyze runs the escape pass (component 8) over fn's graph.
// TypeCheck and Specialize must already have run (fn.Types populated).
// A single backward pass, not a fixed-point iteration: a value that only
// escapes through a loop-carried reassignment the walk hasn't reached yet
// by the time its block is visited is treated as non-escaping, the same
// documented trade-off type_walk.go's resolveName makes for loop headers.
func (c *Checker) EscapeAnalyze(fn *Func) error {
	es := &escaper{c: c, types: fn.Types, escaped: map[string]bool{}, owned: map[ast.Expr]bool{}}
	blocks := fn.Graph.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		es.block(blocks[i])
	}
	fn.OwnedLiterals = es.owned
	fn.Escaped = es.escaped
	return nil
}

func (es *escaper) block(b *cfg.Block) {
	for sid := len(b.Steps) - 1; sid >= 0; sid-- {
		es.step(b, sid, b.Steps[sid])
	}
}

func (es *escaper) step(b *cfg.Block, sid int, step cfg.Step) {
	switch v := step.(type) {
	case *cfg.Return:
		// Spec.md §4.8: "returned ... values escape."
		es.escapeAtomic(v.Value)
	case *cfg.Yield:
		// Spec.md §4.8: "... or yielded values escape."
		es.escapeAtomic(v.Value)
	case *cfg.AssignStep:
		es.assign(b, sid, v)
	case *cfg.CallStep:
		es.call(b, v)
	case *cfg.Phi:
		if v.Temp != "" && es.escaped[v.Temp] {
			es.escapeAtomic(v.ValA)
			es.escapeAtomic(v.ValB)
		}
	}
}

func (es *escaper) escapeAtomic(e ast.Expr) {
	switch v := e.(type) {
	case *ast.NameExpr:
		es.escaped[v.Name] = true
	case *ast.StringLit:
		es.owned[v] = true
	}
}

func (es *escaper) assign(b *cfg.Block, sid int, v *cfg.AssignStep) {
	switch lhs := v.LHS.(type) {
	case *ast.NameExpr:
		if es.escaped[lhs.Name] {
			es.propagate(b, sid, lhs.Name, v.RHS)
		}
	case *ast.AttribExpr:
		// Spec.md §4.8: "values stored into escaping objects escape."
		if es.objEscapes(lhs.Obj) {
			es.propagate(b, sid, "", v.RHS)
		}
	case *ast.ElemExpr:
		if es.objEscapes(lhs.Obj) {
			es.propagate(b, sid, "", v.RHS)
		}
	}
}

func (es *escaper) objEscapes(obj ast.Expr) bool {
	name, ok := obj.(*ast.NameExpr)
	return ok && es.escaped[name.Name]
}

// propagate marks the block position that defines name (when non-empty) as
// an escape site, then chases the value back one more hop: a name operand
// re-enters the escaped frontier, a string literal flips from the default
// borrowed `&Str` to owned.
func (es *escaper) propagate(b *cfg.Block, sid int, name string, rhs ast.Expr) {
	if name != "" {
		b.MarkEscape(name, rhs.Pos())
	}
	switch v := rhs.(type) {
	case *ast.NameExpr:
		es.escaped[v.Name] = true
	case *ast.StringLit:
		es.owned[v] = true
	}
}

// call applies spec.md §4.8's two call-related rules: an Init node (a
// constructor call) whose result already escaped (its binding temp is in
// the frontier) is a heap-escaping allocation — already captured by the
// Temp-as-name handling in propagate/escapeAtomic above — and an argument
// passed into an Owner-typed formal escapes regardless of what the caller
// does with the result.
func (es *escaper) call(b *cfg.Block, v *cfg.CallStep) {
	if v.Temp != "" && es.escaped[v.Temp] {
		// The call's own result escapes (e.g. it feeds a returned name):
		// an Init node's allocation must be heap-escaping.
		b.MarkEscape(v.Temp, v.Pos())
	}
	formals := es.resolveFormals(v)
	for i, a := range v.Args {
		if i >= len(formals) {
			break
		}
		if _, ok := formals[i].(*types.OwnerType); !ok {
			continue
		}
		es.escapeAtomic(a)
	}
}

// resolveFormals looks up the callee's declared parameter types, the same
// way typeCall does, but only when exactly one overload candidate exists —
// TypeCheck's own overload pick isn't retained on the CallStep, so an
// ambiguous candidate set here is skipped rather than re-run through
// types.Select a second time with possibly-stale argument types.
func (es *escaper) resolveFormals(v *cfg.CallStep) []types.Type {
	switch callee := v.Callee.(type) {
	case *ast.NameExpr:
		if t, ok := es.c.Reg.Lookup(callee.Name); ok {
			inits := methodTableOf(t)["__init__"]
			if len(inits) == 1 {
				return inits[0].Sig.Args
			}
			return nil
		}
		if fns, ok := es.c.Functions[callee.Name]; ok && len(fns) == 1 {
			return fns[0].Sig.Args
		}
		return nil
	case *ast.AttribExpr:
		name, ok := callee.Obj.(*ast.NameExpr)
		if !ok {
			return nil
		}
		objT, ok := es.types[name.Name]
		if !ok {
			return nil
		}
		methods := methodTableOf(types.UnwrapAll(objT))[callee.Attrib]
		if len(methods) != 1 {
			return nil
		}
		args := methods[0].Sig.Args
		if len(args) == 0 {
			return nil
		}
		return args[1:] // Drop the receiver slot.
	}
	return nil
}
