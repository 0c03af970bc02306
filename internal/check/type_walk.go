package check

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// typeWalk is the per-function inference state (spec.md §4.6's
// TypeChecker): it walks blocks in the FlowGraph's reverse-postorder,
// resolving each Name use via cfg.Origins and recording each definition's
// type so later uses (in this block or a successor) can look it up.
type typeWalk struct {
	c     *Checker
	g     *cfg.FlowGraph
	args  map[string]types.Type
	rtype types.Type
	self  types.Type

	// def records the type produced at each (block,step,name) that defines
	// a name — cfg.VarInfo.Sets tracks *that* a definition occurred there;
	// this map is where the resolved type actually lives once inference
	// reaches that step. Keyed by name too since a tuple-unpack assignment
	// defines several names at the one step.
	def map[defKey]types.Type

	scope map[int]map[string]types.Type // Unused cache slot, kept for future incremental re-checking.
}

type defKey struct {
	O    cfg.Origin
	Name string
}

func (tc *typeWalk) ensureDef() map[defKey]types.Type {
	if tc.def == nil {
		tc.def = map[defKey]types.Type{}
	}
	return tc.def
}

func (tc *typeWalk) setDef(bid, sid int, name string, t types.Type) {
	tc.ensureDef()[defKey{O: cfg.Origin{Block: bid, Step: sid}, Name: name}] = t
}

// resolveName looks up name's type as observed at (bid, before) — the
// position of the step doing the lookup — via cfg.Origins, unifying
// multiple origins per spec.md §4.6's Phi-typing rule and applying
// opt-narrowing when the sole incoming edge recorded an `is None` check.
func (tc *typeWalk) resolveName(name string, bid, before int) (types.Type, error) {
	if before < 0 {
		// before < 0 only ever happens when resolving a LoopHeader's own
		// synthesized LVar binding before any step exists; callers never
		// hit this path for a real use.
		before = 0
	}
	origins := cfg.Origins(tc.g, name, bid, before)
	if len(origins) == 0 {
		return nil, util.NewSemanticError(util.Position{}, util.ErrUndefinedName, "undefined name %q", name)
	}
	var result types.Type
	var resolvedAny bool
	for _, o := range origins {
		var t types.Type
		var ok bool
		if o.Block == -1 { // argBlock sentinel, see internal/cfg.
			t, ok = tc.args[name]
		} else {
			t, ok = tc.ensureDef()[defKey{O: o, Name: name}]
		}
		if !ok {
			// A loop back-edge origin (the reassignment lives in a block
			// this forward (reverse-postorder) walk hasn't reached yet):
			// trust whichever origin is already known rather than failing
			// — the reassignment itself is checked against this same name
			// for compat when that block is visited.
			continue
		}
		resolvedAny = true
		unified, err := unifyPhi(result, t)
		if err != nil {
			return nil, err
		}
		result = unified
	}
	if !resolvedAny {
		return nil, util.NewSemanticError(util.Position{}, util.ErrUndefinedName,
			"use of %q before its type is known", name)
	}
	if tc.narrowedNotNone(bid, name) {
		if opt, ok := result.(*types.OptType); ok {
			return opt.Elem, nil
		}
	}
	return result, nil
}

// unifyPhi merges two observed types for the same name per spec.md §4.6's
// Phi rule: equal types stay; one NoType and the other T promotes to
// Opt(T); anything else is a mismatch.
func unifyPhi(a, b types.Type) (types.Type, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if types.String(a) == types.String(b) {
		return a, nil
	}
	if _, ok := a.(types.NoType); ok {
		return &types.OptType{Elem: b}, nil
	}
	if _, ok := b.(types.NoType); ok {
		return &types.OptType{Elem: a}, nil
	}
	if ao, ok := a.(*types.OptType); ok {
		if types.String(ao.Elem) == types.String(b) {
			return a, nil
		}
	}
	if bo, ok := b.(*types.OptType); ok {
		if types.String(bo.Elem) == types.String(a) {
			return b, nil
		}
	}
	return nil, util.NewSemanticError(util.Position{}, util.ErrPhiMismatch,
		"incompatible types at merge point: %s vs %s", types.String(a), types.String(b))
}

// narrowedNotNone reports whether bid's single incoming edge recorded an
// `is None` check that resolved false for name — spec.md §4.6's opt-
// narrowing rule, applied per guarded block rather than per individual
// origin edge (every guarded successor in this lowering has exactly one
// predecessor, the CondBranch block, so the two coincide).
func (tc *typeWalk) narrowedNotNone(bid int, name string) bool {
	b := tc.g.Block(bid)
	if b == nil || len(b.Preds) != 1 {
		return false
	}
	pred := tc.g.Block(b.Preds[0])
	if pred == nil {
		return false
	}
	cb, ok := pred.Term().(*cfg.CondBranch)
	if !ok {
		return false
	}
	var checks []cfg.EdgeCheck
	switch bid {
	case cb.Then:
		checks = cb.ThenCheck
	case cb.Else:
		checks = cb.ElseCheck
	}
	for _, ec := range checks {
		if ec.Name == name && !ec.IsNone {
			return true
		}
	}
	return false
}

// atomicType types an already-decomposed (spec.md §4.4 inter()'d) atomic
// expression: a name, a literal, or None.
func (tc *typeWalk) atomicType(e ast.Expr, bid, sid int) (types.Type, error) {
	switch v := e.(type) {
	case *ast.NameExpr:
		return tc.resolveName(v.Name, bid, sid)
	case *ast.BoolLit:
		return tc.c.Reg.Bool(), nil
	case *ast.IntLit:
		return tc.c.Reg.AnyInt(), nil
	case *ast.FloatLit:
		return tc.c.Reg.AnyFloat(), nil
	case *ast.StringLit:
		return tc.c.Reg.Owner(tc.c.Reg.Str()), nil
	case *ast.NoneLit:
		return types.NoType{}, nil
	default:
		return nil, util.NewSemanticError(e.Pos(), util.ErrUndefinedName, "expected an atomic expression, got %T", e)
	}
}

func (tc *typeWalk) block(b *cfg.Block) error {
	for sid, step := range b.Steps {
		if err := tc.step(b.Id(), sid, step); err != nil {
			return err
		}
	}
	return nil
}

func (tc *typeWalk) step(bid, sid int, step cfg.Step) error {
	switch v := step.(type) {
	case *cfg.ExprStep:
		t, err := tc.typeExpr(v.Value, bid, sid)
		if err != nil {
			return err
		}
		v.Type = t
		if v.Temp != "" {
			tc.setDef(bid, sid, v.Temp, t)
		}
		return nil
	case *cfg.AssignStep:
		return tc.typeAssign(v, bid, sid)
	case *cfg.CallStep:
		t, err := tc.typeCall(v, bid, sid)
		if err != nil {
			return err
		}
		v.Type = t
		if v.Temp != "" {
			tc.setDef(bid, sid, v.Temp, t)
		}
		return nil
	case *cfg.CondBranch:
		_, err := tc.atomicType(v.Cond, bid, sid)
		return err
	case *cfg.Return:
		return tc.typeReturn(v, bid, sid)
	case *cfg.Raise:
		_, err := tc.atomicType(v.Value, bid, sid)
		return err
	case *cfg.Yield:
		return tc.typeYield(v, bid, sid)
	case *cfg.LoopHeader:
		return tc.typeLoopHeader(v, bid, sid)
	case *cfg.Phi:
		a, err := tc.atomicType(v.ValA, bid, sid)
		if err != nil {
			return err
		}
		b2, err := tc.atomicType(v.ValB, bid, sid)
		if err != nil {
			return err
		}
		t, err := unifyPhi(a, b2)
		if err != nil {
			return err
		}
		v.Type = t
		if v.Temp != "" {
			tc.setDef(bid, sid, v.Temp, t)
		}
		return nil
	}
	return nil
}

// typeExpr types a non-atomic expression that inter() routed into an
// ExprStep (arithmetic, comparison, field access, tuple literal, ternary,
// `is None`, `as` cast, boolean negation). Calls never appear here —
// they're always lowered to a CallStep.
func (tc *typeWalk) typeExpr(e ast.Expr, bid, sid int) (types.Type, error) {
	switch v := e.(type) {
	case *ast.BinaryExpr:
		return tc.typeBinary(v, bid, sid)
	case *ast.NotExpr:
		if _, err := tc.atomicType(v.Value, bid, sid); err != nil {
			return nil, err
		}
		return tc.c.Reg.Bool(), nil
	case *ast.AttribExpr:
		return tc.typeAttrib(v, bid, sid)
	case *ast.ElemExpr:
		return tc.typeElem(v, bid, sid)
	case *ast.TupleExpr:
		params := make([]types.Type, len(v.Values))
		for i, val := range v.Values {
			t, err := tc.atomicType(val, bid, sid)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		return tc.c.Reg.Tuple(params), nil
	case *ast.TernaryExpr:
		cond := v.Cond
		if _, err := tc.atomicType(cond, bid, sid); err != nil {
			return nil, err
		}
		thenT, err := tc.atomicType(v.Values[0], bid, sid)
		if err != nil {
			return nil, err
		}
		elseT, err := tc.atomicType(v.Values[1], bid, sid)
		if err != nil {
			return nil, err
		}
		return unifyPhi(thenT, elseT)
	case *ast.AsExpr:
		if _, err := tc.atomicType(v.Value, bid, sid); err != nil {
			return nil, err
		}
		return tc.c.Reg.FromExpr(v.Type)
	default:
		return tc.atomicType(e, bid, sid)
	}
}

// typeBinary applies spec.md §4.6's arithmetic/comparison/`is None` rules.
func (tc *typeWalk) typeBinary(v *ast.BinaryExpr, bid, sid int) (types.Type, error) {
	if v.Op == ast.OpIs {
		if _, err := tc.atomicType(v.Left, bid, sid); err != nil {
			return nil, err
		}
		return tc.c.Reg.Bool(), nil
	}
	lt, err := tc.atomicType(v.Left, bid, sid)
	if err != nil {
		return nil, err
	}
	rt, err := tc.atomicType(v.Right, bid, sid)
	if err != nil {
		return nil, err
	}
	switch v.Op {
	case ast.OpAnd, ast.OpOr:
		return tc.c.Reg.Bool(), nil
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !comparable(lt, rt) {
			return nil, util.NewSemanticError(v.Pos(), util.ErrComparisonMismatch,
				"cannot compare %s with %s", types.String(lt), types.String(rt))
		}
		return tc.c.Reg.Bool(), nil
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor, ast.OpLShift, ast.OpRShift:
		if !sameOrAnyInt(lt, rt) {
			return nil, util.NewSemanticError(v.Pos(), util.ErrBitwiseMismatch,
				"bitwise operator requires matching integer types, got %s and %s", types.String(lt), types.String(rt))
		}
		return widestOf(lt, rt), nil
	default: // Arithmetic: +, -, *, /, %.
		if !sameOrAnyInt(lt, rt) && !sameOrAnyFloat(lt, rt) {
			return nil, util.NewSemanticError(v.Pos(), util.ErrAssignMismatch,
				"arithmetic operator requires matching numeric types, got %s and %s", types.String(lt), types.String(rt))
		}
		return widestOf(lt, rt), nil
	}
}

func comparable(a, b types.Type) bool {
	if types.String(a) == types.String(b) {
		return true
	}
	return sameOrAnyInt(a, b) || sameOrAnyFloat(a, b)
}

func sameOrAnyInt(a, b types.Type) bool {
	_, aAny := a.(types.AnyIntType)
	_, bAny := b.(types.AnyIntType)
	_, aInt := a.(types.IntType)
	_, bInt := b.(types.IntType)
	if aAny && bInt {
		return true
	}
	if bAny && aInt {
		return true
	}
	if aInt && bInt {
		return types.String(a) == types.String(b)
	}
	return aAny && bAny
}

func sameOrAnyFloat(a, b types.Type) bool {
	_, aAny := a.(types.AnyFloatType)
	_, bAny := b.(types.AnyFloatType)
	_, aF := a.(types.FloatType)
	_, bF := b.(types.FloatType)
	return (aAny && bF) || (bAny && aF) || (aF && bF) || (aAny && bAny)
}

// widestOf picks the concrete side of an AnyInt/AnyFloat-vs-sized pair, or
// either side when both are equal/generic.
func widestOf(a, b types.Type) types.Type {
	if _, ok := a.(types.AnyIntType); ok {
		return b
	}
	if _, ok := a.(types.AnyFloatType); ok {
		return b
	}
	return a
}

func (tc *typeWalk) typeAttrib(v *ast.AttribExpr, bid, sid int) (types.Type, error) {
	objT, err := tc.atomicType(v.Obj, bid, sid)
	if err != nil {
		return nil, err
	}
	unwrapped := types.UnwrapAll(objT)
	attribs := attribTableOf(unwrapped)
	if attribs == nil {
		return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName,
			"%s has no attributes", types.String(objT))
	}
	entry, ok := attribs[v.Attrib]
	if !ok {
		return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName,
			"%s has no attribute %q", types.String(objT), v.Attrib)
	}
	// Field access yields Ref(field-type); an Owner(U) field is exposed as
	// Ref(U) rather than Ref(Owner(U)), per spec.md §4.6.
	if ow, ok := entry.Type.(*types.OwnerType); ok {
		return tc.c.Reg.Ref(ow.Elem, false), nil
	}
	return tc.c.Reg.Ref(entry.Type, false), nil
}

func attribTableOf(t types.Type) types.AttribTable {
	switch v := t.(type) {
	case *types.StructType:
		return v.Attribs
	case *types.ConcreteType:
		return v.Attribs
	default:
		return nil
	}
}

func (tc *typeWalk) typeElem(v *ast.ElemExpr, bid, sid int) (types.Type, error) {
	objT, err := tc.atomicType(v.Obj, bid, sid)
	if err != nil {
		return nil, err
	}
	if _, err := tc.atomicType(v.Key, bid, sid); err != nil {
		return nil, err
	}
	// Array[T]/similar template element access: Elem's declared type is
	// the sole type argument of the unwrapped Concrete.
	if ct, ok := types.UnwrapAll(objT).(*types.ConcreteType); ok && len(ct.Args) == 1 {
		return tc.c.Reg.Ref(ct.Args[0], false), nil
	}
	return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName,
		"%s does not support element access", types.String(objT))
}

func (tc *typeWalk) typeAssign(v *cfg.AssignStep, bid, sid int) error {
	rhsT, err := tc.atomicType(v.RHS, bid, sid)
	if err != nil {
		return err
	}
	switch lhs := v.LHS.(type) {
	case *ast.NameExpr:
		origins := cfg.Origins(tc.g, lhs.Name, bid, sid)
		if len(origins) == 0 {
			// New binding.
			tc.setDef(bid, sid, lhs.Name, rhsT)
			return nil
		}
		existing, err := tc.resolveName(lhs.Name, bid, sid)
		if err != nil {
			return err
		}
		if !types.Compat(rhsT, existing, types.ModeDefault) && !types.Compat(existing, rhsT, types.ModeDefault) {
			return util.NewSemanticError(v.Pos(), util.ErrReassignType,
				"cannot assign %s to %q of type %s", types.String(rhsT), lhs.Name, types.String(existing))
		}
		tc.setDef(bid, sid, lhs.Name, rhsT)
		return nil
	case *ast.TupleExpr:
		rt, ok := rhsT.(*types.TupleType)
		if !ok || len(rt.Params) != len(lhs.Values) {
			return util.NewSemanticError(v.Pos(), util.ErrAssignMismatch, "tuple assignment arity mismatch")
		}
		for i, target := range lhs.Values {
			name, ok := target.(*ast.NameExpr)
			if !ok {
				return util.NewSemanticError(v.Pos(), util.ErrUnsupportedCompound, "unsupported tuple-assignment target")
			}
			tc.setDef(bid, sid, name.Name, rt.Params[i])
		}
		return nil
	case *ast.AttribExpr, *ast.ElemExpr:
		targetT, err := tc.typeExpr(lhs, bid, sid)
		if err != nil {
			return err
		}
		if !types.Compat(rhsT, targetT, types.ModeDefault) {
			return util.NewSemanticError(v.Pos(), util.ErrAssignMismatch,
				"cannot store %s into %s", types.String(rhsT), types.String(targetT))
		}
		return nil
	default:
		return util.NewSemanticError(v.Pos(), util.ErrUnsupportedCompound, "unsupported assignment target %T", v.LHS)
	}
}

func (tc *typeWalk) typeReturn(v *cfg.Return, bid, sid int) error {
	if v.Value == nil {
		if !isVoid(tc.rtype) {
			if _, ok := tc.rtype.(*types.OptType); !ok {
				return util.NewSemanticError(v.Pos(), util.ErrReturnMismatch, "bare return in a function declared to return %s", types.String(tc.rtype))
			}
		}
		return nil
	}
	vt, err := tc.atomicType(v.Value, bid, sid)
	if err != nil {
		return err
	}
	if !types.Compat(vt, tc.rtype, types.ModeReturn) {
		return util.NewSemanticError(v.Pos(), util.ErrReturnMismatch,
			"cannot return %s from a function declared to return %s", types.String(vt), types.String(tc.rtype))
	}
	return nil
}

// typeYield checks a yield value against the function's declared yield
// type, taken as the sole argument of an `iter[T]` return type; if the
// declared return type isn't an iter[T] instantiation the check is
// skipped; the core library's concrete iter/generator shape is resolved
// at module-load time, outside this package's scope.
func (tc *typeWalk) typeYield(v *cfg.Yield, bid, sid int) error {
	vt, err := tc.atomicType(v.Value, bid, sid)
	if err != nil {
		return err
	}
	ct, ok := types.UnwrapAll(tc.rtype).(*types.ConcreteType)
	if !ok || ct.Template.Name != "iter" || len(ct.Args) != 1 {
		return nil
	}
	if !types.Compat(vt, ct.Args[0], types.ModeDefault) {
		return util.NewSemanticError(v.Pos(), util.ErrYieldMismatch,
			"cannot yield %s from a generator declared to yield %s", types.String(vt), types.String(ct.Args[0]))
	}
	return nil
}

// typeLoopHeader resolves the source's type, auto-wrapping with
// `.__iter__()` when it is not already `iter[T]` (spec.md §4.4/§4.6), and
// records the loop variable's element type.
func (tc *typeWalk) typeLoopHeader(v *cfg.LoopHeader, bid, sid int) error {
	srcT, err := tc.atomicType(v.Ctx, bid, sid)
	if err != nil {
		return err
	}
	elem := srcT
	if ct, ok := types.UnwrapAll(srcT).(*types.ConcreteType); ok && ct.Template.Name == "iter" && len(ct.Args) == 1 {
		elem = ct.Args[0]
	} else {
		methods := methodTableOf(types.UnwrapAll(srcT))
		candidates, ok := methods["__iter__"]
		if !ok || len(candidates) == 0 {
			return util.NewSemanticError(v.Pos(), util.ErrUndefinedName,
				"%s is not iterable (no __iter__ method)", types.String(srcT))
		}
		v.Ctx = ast.NewCall(v.Pos(), ast.NewAttrib(v.Pos(), v.Ctx, "__iter__"), nil)
		ret := candidates[0].Sig.Ret
		if ct, ok := types.UnwrapAll(ret).(*types.ConcreteType); ok && ct.Template.Name == "iter" && len(ct.Args) == 1 {
			elem = ct.Args[0]
		} else {
			elem = ret
		}
	}
	tc.setDef(bid, sid, v.LVar, elem)
	return nil
}

// typeCall resolves a CallStep's callee against the module's function table,
// a constructor's `__init__` overloads, or a method's receiver-qualified
// overloads, then runs spec.md §4.3's Select and records the chosen
// signature's return type. Owner-slot name arguments are only typed here;
// nothing in this pass marks them as moved.
func (tc *typeWalk) typeCall(v *cfg.CallStep, bid, sid int) (types.Type, error) {
	// A name argument passed into an Owner-typed parameter slot is moved:
	// the destructor pass (component 9) is what actually stops freeing it
	// at its old scope, using escape-analysis results this pass doesn't
	// compute; nothing further is needed here beyond typing the argument.
	argTypes := make([]types.Type, len(v.Args))
	for i, a := range v.Args {
		t, err := tc.atomicType(a, bid, sid)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	switch callee := v.Callee.(type) {
	case *ast.NameExpr:
		if t, ok := tc.c.Reg.Lookup(callee.Name); ok {
			// Constructor call: `Box(1, 2)` resolves against __init__.
			candidates := methodTableOf(t)["__init__"]
			if len(candidates) == 0 {
				return nil, util.NewSemanticError(v.Pos(), util.ErrNoOverload,
					"%s declares no constructor", callee.Name)
			}
			self := tc.c.Reg.Owner(t)
			if _, err := types.Select(v.Pos(), candidates, "__init__", argTypes, nil, self); err != nil {
				return nil, err
			}
			return self, nil
		}
		candidates, ok := tc.c.Functions[callee.Name]
		if !ok {
			return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName, "undefined function %q", callee.Name)
		}
		fd, err := types.Select(v.Pos(), candidates, callee.Name, argTypes, nil, nil)
		if err != nil {
			return nil, err
		}
		return fd.Sig.Ret, nil
	case *ast.AttribExpr:
		objT, err := tc.atomicType(callee.Obj, bid, sid)
		if err != nil {
			return nil, err
		}
		candidates := methodTableOf(types.UnwrapAll(objT))[callee.Attrib]
		if len(candidates) == 0 {
			return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName,
				"%s has no method %q", types.String(objT), callee.Attrib)
		}
		// The receiver is argument 0 of a method's signature; Select only
		// auto-prepends one for __init__, so a plain method call supplies
		// it itself, scored like any other argument.
		withSelf := append([]types.Type{objT}, argTypes...)
		fd, err := types.Select(v.Pos(), candidates, callee.Attrib, withSelf, nil, nil)
		if err != nil {
			return nil, err
		}
		return fd.Sig.Ret, nil
	default:
		return nil, util.NewSemanticError(v.Pos(), util.ErrUnsupportedCompound, "unsupported call target %T", v.Callee)
	}
}

func methodTableOf(t types.Type) types.MethodTable {
	switch v := t.(type) {
	case *types.StructType:
		return v.Methods
	case *types.ConcreteType:
		return v.Methods
	case *types.TraitType:
		return v.Methods
	default:
		return nil
	}
}
