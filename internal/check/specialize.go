package check

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
)

// specializer is the per-function state for the specializer pass (spec.md
// §4.7): a second walk over the graph TypeCheck already validated, pushing
// a target type down from each assignment/call/return into the
// AnyInt/AnyFloat literals TypeCheck left unresolved, narrowing each to a
// concrete width. With no target, defaults are the word-sized "int" and
// 64-bit "float" spec.md §4.7 names.
type specializer struct {
	c     *Checker
	rtype types.Type

	names map[string]types.Type   // Concrete type assigned to each name so far.
	lits  map[ast.Expr]types.Type // Resolved width of every IntLit/FloatLit visited.
}

// Specialize runs the specializer over fn's graph; TypeCheck must already
// have run (fn.RType populated, every step's shape validated). Walks blocks
// in the same reverse-postorder TypeCheck uses, so a reassignment sees the
// concrete type its first definition already settled on.
func (c *Checker) Specialize(fn *Func) error {
	sp := &specializer{
		c:     c,
		rtype: fn.RType,
		names: map[string]types.Type{},
		lits:  map[ast.Expr]types.Type{},
	}
	for _, p := range fn.Decl.Args {
		t, err := c.Reg.FromExpr(p.Type)
		if err != nil {
			return err
		}
		sp.names[p.Name] = t
	}
	for _, b := range fn.Graph.Blocks() {
		for _, step := range b.Steps {
			if err := sp.step(step); err != nil {
				return err
			}
		}
	}
	fn.Literals = sp.lits
	fn.Types = sp.names
	return nil
}

func (sp *specializer) step(step cfg.Step) error {
	switch v := step.(type) {
	case *cfg.ExprStep:
		t, err := sp.expr(v.Value, nil)
		if err != nil {
			return err
		}
		v.Type = t
		if v.Temp != "" {
			sp.names[v.Temp] = t
		}
		return nil
	case *cfg.AssignStep:
		return sp.assign(v)
	case *cfg.CallStep:
		for _, a := range v.Args {
			if _, err := sp.expr(a, nil); err != nil {
				return err
			}
		}
		if v.Temp != "" && v.Type != nil {
			sp.names[v.Temp] = v.Type
		}
		return nil
	case *cfg.CondBranch:
		_, err := sp.expr(v.Cond, sp.c.Reg.Bool())
		return err
	case *cfg.Return:
		if v.Value == nil {
			return nil
		}
		_, err := sp.expr(v.Value, sp.rtype)
		return err
	case *cfg.Raise:
		_, err := sp.expr(v.Value, nil)
		return err
	case *cfg.Yield:
		_, err := sp.expr(v.Value, nil)
		return err
	case *cfg.LoopHeader:
		_, err := sp.expr(v.Ctx, nil)
		return err
	case *cfg.Phi:
		a, err := sp.expr(v.ValA, nil)
		if err != nil {
			return err
		}
		b, err := sp.expr(v.ValB, nil)
		if err != nil {
			return err
		}
		if t, err := unifyPhi(a, b); err == nil {
			v.Type = t
		}
		return nil
	}
	return nil
}

func (sp *specializer) assign(v *cfg.AssignStep) error {
	switch lhs := v.LHS.(type) {
	case *ast.NameExpr:
		target := sp.names[lhs.Name] // nil on a name's first definition.
		rt, err := sp.expr(v.RHS, target)
		if err != nil {
			return err
		}
		sp.names[lhs.Name] = rt
		v.Type = rt
		return nil
	case *ast.TupleExpr:
		rt, err := sp.expr(v.RHS, nil)
		if err != nil {
			return err
		}
		v.Type = rt
		tt, ok := rt.(*types.TupleType)
		if !ok || len(tt.Params) != len(lhs.Values) {
			return nil // TypeCheck already rejected an arity mismatch.
		}
		for i, target := range lhs.Values {
			name, ok := target.(*ast.NameExpr)
			if !ok {
				continue
			}
			sp.names[name.Name] = tt.Params[i]
		}
		return nil
	case *ast.AttribExpr, *ast.ElemExpr:
		targetT, err := sp.expr(lhs, nil)
		if err != nil {
			return err
		}
		rt, err := sp.expr(v.RHS, targetT)
		if err != nil {
			return err
		}
		v.Type = rt
		return nil
	default:
		return nil
	}
}

// expr resolves e's type, recording a concrete width for every
// IntLit/FloatLit reached along the way. target is the type context
// propagated down from the nearest enclosing assignment/call/return; nil
// means no context is available and literals fall back to the default
// width.
func (sp *specializer) expr(e ast.Expr, target types.Type) (types.Type, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		t := concreteInt(target, sp.c.Reg)
		sp.lits[e] = t
		return t, nil
	case *ast.FloatLit:
		t := concreteFloat(target, sp.c.Reg)
		sp.lits[e] = t
		return t, nil
	case *ast.BoolLit:
		return sp.c.Reg.Bool(), nil
	case *ast.StringLit:
		return sp.c.Reg.Owner(sp.c.Reg.Str()), nil
	case *ast.NoneLit:
		return types.NoType{}, nil
	case *ast.NameExpr:
		if t, ok := sp.names[v.Name]; ok {
			return t, nil
		}
		return target, nil
	case *ast.NotExpr:
		if _, err := sp.expr(v.Value, sp.c.Reg.Bool()); err != nil {
			return nil, err
		}
		return sp.c.Reg.Bool(), nil
	case *ast.BinaryExpr:
		return sp.binary(v, target)
	case *ast.AttribExpr:
		objT, err := sp.expr(v.Obj, nil)
		if err != nil {
			return nil, err
		}
		attribs := attribTableOf(types.UnwrapAll(objT))
		entry, ok := attribs[v.Attrib]
		if !ok {
			return target, nil
		}
		if ow, ok := entry.Type.(*types.OwnerType); ok {
			return sp.c.Reg.Ref(ow.Elem, false), nil
		}
		return sp.c.Reg.Ref(entry.Type, false), nil
	case *ast.ElemExpr:
		objT, err := sp.expr(v.Obj, nil)
		if err != nil {
			return nil, err
		}
		if _, err := sp.expr(v.Key, nil); err != nil {
			return nil, err
		}
		if ct, ok := types.UnwrapAll(objT).(*types.ConcreteType); ok && len(ct.Args) == 1 {
			return sp.c.Reg.Ref(ct.Args[0], false), nil
		}
		return target, nil
	case *ast.TupleExpr:
		var elemTargets []types.Type
		if tt, ok := target.(*types.TupleType); ok && len(tt.Params) == len(v.Values) {
			elemTargets = tt.Params
		}
		params := make([]types.Type, len(v.Values))
		for i, val := range v.Values {
			var et types.Type
			if elemTargets != nil {
				et = elemTargets[i]
			}
			t, err := sp.expr(val, et)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		return sp.c.Reg.Tuple(params), nil
	case *ast.TernaryExpr:
		if _, err := sp.expr(v.Cond, sp.c.Reg.Bool()); err != nil {
			return nil, err
		}
		thenT, err := sp.expr(v.Values[0], target)
		if err != nil {
			return nil, err
		}
		elseT, err := sp.expr(v.Values[1], target)
		if err != nil {
			return nil, err
		}
		return unifyPhi(thenT, elseT)
	case *ast.AsExpr:
		if _, err := sp.expr(v.Value, nil); err != nil {
			return nil, err
		}
		return sp.c.Reg.FromExpr(v.Type)
	default:
		return target, nil
	}
}

func (sp *specializer) binary(v *ast.BinaryExpr, target types.Type) (types.Type, error) {
	if v.Op == ast.OpIs {
		if _, err := sp.expr(v.Left, nil); err != nil {
			return nil, err
		}
		return sp.c.Reg.Bool(), nil
	}
	switch v.Op {
	case ast.OpAnd, ast.OpOr:
		if _, err := sp.expr(v.Left, sp.c.Reg.Bool()); err != nil {
			return nil, err
		}
		if _, err := sp.expr(v.Right, sp.c.Reg.Bool()); err != nil {
			return nil, err
		}
		return sp.c.Reg.Bool(), nil
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if _, err := sp.expr(v.Left, nil); err != nil {
			return nil, err
		}
		if _, err := sp.expr(v.Right, nil); err != nil {
			return nil, err
		}
		return sp.c.Reg.Bool(), nil
	default: // Arithmetic and bitwise: the outer target (if any) applies to both sides.
		lt, err := sp.expr(v.Left, target)
		if err != nil {
			return nil, err
		}
		rt, err := sp.expr(v.Right, target)
		if err != nil {
			return nil, err
		}
		return widestOf(lt, rt), nil
	}
}

// concreteInt picks target when it is (or unwraps to) a sized integer type,
// else defaults to the word-sized signed "int" spec.md §4.7 names.
func concreteInt(target types.Type, reg *types.Registry) types.Type {
	if target != nil {
		if it, ok := types.UnwrapAll(target).(types.IntType); ok {
			return it
		}
	}
	return reg.Int(64)
}

// concreteFloat picks target when it is (or unwraps to) FloatType, else
// defaults to the 64-bit "float" spec.md §4.7 names.
func concreteFloat(target types.Type, reg *types.Registry) types.Type {
	if target != nil {
		if ft, ok := types.UnwrapAll(target).(types.FloatType); ok {
			return ft
		}
	}
	return reg.Float()
}
