package lir

import (
	"fmt"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/check"
	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// Runtime ABI symbols spec.md §6 names as "declared but not defined by the
// core": an allocator, a copier, an exception raiser and its personality,
// and the args(argc,argv) builder.
const (
	RuntimeMalloc      = "rt_malloc"
	RuntimeFree        = "rt_free"
	RuntimeMemcpy      = "rt_memcpy"
	RuntimeRaise       = "rt_raise"
	RuntimePersonality = "rt_personality"
	RuntimeArgsBuilder = "rt_args"
)

// emitCtx carries the per-function state the alloca-every-local codegen
// strategy needs: every named value (parameter, local, or $k temporary)
// gets one stack slot, allocated the first time it is defined, loaded on
// every read and stored on every write — the standard unoptimized-frontend
// idiom (the shape clang -O0 or an LLVM Kaleidoscope-style frontend
// produces), chosen over direct SSA construction because internal/check's
// passes already hand this package a fully name-resolved, block-scoped CFG
// rather than one in minimal-SSA form.
type emitCtx struct {
	m      *Module
	fn     *check.Func
	reg    *types.Registry
	out    *Function
	cur    *Block
	slots  map[string]Value // name -> alloca'd pointer
	ntemp  int
	nstr   int
	labels *util.LabelAllocator

	// mainArgsName is set only when emitting main's two-argument form;
	// lowerBlock uses it to free the constructed args array before any
	// Return reached from the entry block (spec.md §4.9: "The entry block
	// of main additionally frees its constructed args array before
	// return").
	mainArgsName string
	inEntry      bool
}

// Emit lowers fn (already type-checked, specialized, escape-analyzed and
// destructed) into LLIR and appends the resulting function to m. linkName
// is the already-mangled name (internal/compiler's naming pass populates
// types.FunctionDecl.LinkName before calling this).
func Emit(m *Module, fn *check.Func, linkName string, reg *types.Registry, labels *util.LabelAllocator) *Function {
	// main's two declared parameters (&Str, &Array[Str]) are never the
	// process's real entry signature (spec.md §4.6: "main must take either
	// no args or (&Str, &Array[Str])"); the actual entry point always
	// receives (i32 argc, i8** argv), with the declared parameters
	// synthesized from those by emitMainArgsSetup instead of stored from
	// incoming SSA parameters.
	isMain := fn.Decl.Name == "main" && len(fn.Decl.Args) == 2

	var params []Param
	if isMain {
		params = []Param{
			{Type: IntTy{Bits: 32}, Name: "argc"},
			{Type: PtrTy{Elem: Ptr8}, Name: "argv"},
		}
	} else {
		params = make([]Param, len(fn.Decl.Args))
		for i, p := range fn.Decl.Args {
			params[i] = Param{Type: toLIRType(fn.Types[p.Name]), Name: p.Name}
		}
	}
	out := &Function{Name: linkName, Ret: toLIRType(fn.RType), Params: params}
	ec := &emitCtx{m: m, fn: fn, reg: reg, out: out, slots: map[string]Value{}, labels: labels}

	blocks := fn.Graph.Blocks()
	for _, b := range blocks {
		ec.cur = out.NewBlock(blockLabel(b.Id()))
		ec.inEntry = b.Id() == fn.Graph.Entry
		if ec.inEntry {
			if isMain {
				ec.emitMainArgsSetup(fn.Decl.Args[0].Name, fn.Decl.Args[1].Name)
			} else {
				ec.emitEntryAllocas()
			}
		}
		ec.lowerBlock(b)
	}
	m.AddFunction(out)
	return out
}

// emitMainArgsSetup replaces the ordinary parameter-store prologue for
// main's two-argument form: it calls the runtime's fixed args(argc,argv)
// builder (RuntimeArgsBuilder) to materialize the declared args array, and
// derives the program name directly from argv[0] rather than a second
// runtime round trip, since the process never hands this frontend anything
// more than argv itself to find that string in.
func (ec *emitCtx) emitMainArgsSetup(nameParam, argsParam string) {
	nameTy := toLIRType(ec.fn.Types[nameParam])
	argsTy := toLIRType(ec.fn.Types[argsParam])
	argcVal := Value{Type: IntTy{Bits: 32}, Text: "%argc"}
	argvVal := Value{Type: PtrTy{Elem: Ptr8}, Text: "%argv"}

	argsRaw := ec.newTemp()
	ec.cur.Add(&Call{Dst: argsRaw, Type: Ptr8, Callee: RuntimeArgsBuilder, Args: []Value{argcVal, argvVal}})
	argsCast := ec.newTemp()
	ec.cur.Add(&BitCast{Dst: argsCast, Val: Value{Type: Ptr8, Text: "%" + argsRaw}, To: argsTy})
	argsSlotID := ec.newTemp()
	ec.cur.Add(&Alloca{Dst: argsSlotID, Elem: argsTy})
	argsSlot := Value{Type: PtrTy{Elem: argsTy}, Text: "%" + argsSlotID}
	ec.cur.Add(&Store{Val: Value{Type: argsTy, Text: "%" + argsCast}, Dst: argsSlot})
	ec.slots[argsParam] = argsSlot
	ec.mainArgsName = argsParam

	nameRaw := ec.newTemp()
	ec.cur.Add(&Load{Dst: nameRaw, Type: Ptr8, Src: argvVal})
	nameCast := ec.newTemp()
	ec.cur.Add(&BitCast{Dst: nameCast, Val: Value{Type: Ptr8, Text: "%" + nameRaw}, To: nameTy})
	nameSlotID := ec.newTemp()
	ec.cur.Add(&Alloca{Dst: nameSlotID, Elem: nameTy})
	nameSlot := Value{Type: PtrTy{Elem: nameTy}, Text: "%" + nameSlotID}
	ec.cur.Add(&Store{Val: Value{Type: nameTy, Text: "%" + nameCast}, Dst: nameSlot})
	ec.slots[nameParam] = nameSlot
}

func blockLabel(id int) string { return fmt.Sprintf("L%d", id) }

func (ec *emitCtx) emitEntryAllocas() {
	for _, p := range ec.fn.Decl.Args {
		t := toLIRType(ec.fn.Types[p.Name])
		slot := ec.newTemp()
		ec.cur.Add(&Alloca{Dst: slot, Elem: t})
		ptr := Value{Type: PtrTy{Elem: t}, Text: "%" + slot}
		ec.slots[p.Name] = ptr
		ec.cur.Add(&Store{Val: Value{Type: t, Text: "%" + p.Name}, Dst: ptr})
	}
}

func (ec *emitCtx) newTemp() string {
	ec.ntemp++
	return fmt.Sprintf("t%d", ec.ntemp)
}

// slot returns name's stack slot, allocating one lazily (for a local whose
// first appearance is an AssignStep rather than a parameter).
func (ec *emitCtx) slot(name string, t Type) Value {
	if v, ok := ec.slots[name]; ok {
		return v
	}
	id := ec.newTemp()
	ec.out.Blocks[0].Instrs = append([]Instr{&Alloca{Dst: id, Elem: t}}, ec.out.Blocks[0].Instrs...)
	v := Value{Type: PtrTy{Elem: t}, Text: "%" + id}
	ec.slots[name] = v
	return v
}

func (ec *emitCtx) load(name string) Value {
	t := toLIRType(ec.fn.Types[name])
	ptr := ec.slot(name, t)
	dst := ec.newTemp()
	ec.cur.Add(&Load{Dst: dst, Type: t, Src: ptr})
	return Value{Type: t, Text: "%" + dst}
}

func (ec *emitCtx) store(name string, v Value) {
	ptr := ec.slot(name, v.Type)
	ec.cur.Add(&Store{Val: v, Dst: ptr})
}

// lowerBlock emits every non-terminator step then the terminator.
func (ec *emitCtx) lowerBlock(b *cfg.Block) {
	for _, s := range b.Steps {
		ec.lowerStep(s)
	}
}

func (ec *emitCtx) lowerStep(s cfg.Step) {
	switch v := s.(type) {
	case *cfg.ExprStep:
		val := ec.lowerExpr(v.Value, v.Type)
		if v.Temp != "" {
			ec.store(v.Temp, val)
		}
	case *cfg.AssignStep:
		val := ec.lowerAtom(v.RHS)
		ec.store(nameOf(v.LHS), val)
	case *cfg.CallStep:
		ec.lowerCall(v)
	case *cfg.Branch:
		ec.cur.Term = &Br{Dst: blockLabel(v.Dst)}
	case *cfg.CondBranch:
		cond := ec.lowerAtom(v.Cond)
		ec.cur.Term = &CondBr{Cond: cond, Then: blockLabel(v.Then), Else: blockLabel(v.Else)}
	case *cfg.Return:
		ec.freeMainArgsIfEntry()
		if v.Value == nil {
			ec.cur.Term = &Ret{}
			return
		}
		ec.cur.Term = &Ret{Val: ec.lowerAtom(v.Value)}
	case *cfg.Raise:
		val := ec.lowerAtom(v.Value)
		cast := ec.newTemp()
		ec.cur.Add(&BitCast{Dst: cast, Val: val, To: Ptr8})
		ec.cur.Add(&Call{Type: VoidTy{}, Callee: RuntimeRaise, Args: []Value{{Type: Ptr8, Text: "%" + cast}}})
		ec.cur.Term = &Unreachable{}
	case *cfg.Yield:
		// Simplified: a full generator lowering restructures the function
		// into a resumable state machine per spec.md §4.10's "per-generator
		// context struct" rule. That restructuring is not yet implemented
		// (see DESIGN.md); a Yield here instead just evaluates its value
		// and falls through to the resume block directly, which is correct
		// for a generator whose body yields at most once per call but not
		// for one consumed across multiple iterations.
		ec.lowerAtom(v.Value)
		ec.cur.Term = &Br{Dst: blockLabel(v.Resume)}
	case *cfg.LoopHeader:
		// Simplified alongside Yield: the generator-context "more" bit this
		// should branch on is not materialized, so the loop head always
		// takes the body edge once and the exit edge is unreachable from
		// here by construction. Tracked as the same open item as Yield.
		ec.cur.Term = &Br{Dst: blockLabel(v.Body)}
	case *cfg.LPad:
		ec.lowerLPad(v)
	case *cfg.Phi:
		// Never produced by internal/cfg.Build today (see internal/check's
		// type/specialize/escape passes, which all still carry a case for
		// it defensively); the alloca-per-name strategy above makes an
		// explicit join instruction unnecessary; if one value flows here it
		// is handled by materializing its value and storing to Temp so any
		// future lowering-side producer keeps working.
		val := ec.lowerAtom(v.ValA)
		if v.Temp != "" {
			ec.store(v.Temp, val)
		}
	case *cfg.Free:
		ec.lowerFree(v)
	default:
		panic(fmt.Sprintf("lir.Emit: unhandled step %T", s))
	}
}

func (ec *emitCtx) lowerLPad(v *cfg.LPad) {
	dst := ec.newTemp()
	ec.cur.Add(&LandingPad{Dst: dst, Personality: RuntimePersonality})
	ec.out.Landing = true
	if len(v.Handlers) == 0 {
		ec.cur.Term = &Unreachable{}
		return
	}
	// Simplified selector dispatch: spec.md §4.10 compares the landing
	// pad's selector against each handler's typeid-for value and branches
	// to the first match, falling through to a fail label otherwise. Full
	// typeid comparison needs the runtime's typeid-for intrinsic wired
	// through from internal/check's exception type resolution, which is
	// not yet threaded into cfg.LPad; until then every handler is reached
	// via the first arm, documented as an open item in DESIGN.md.
	ec.cur.Term = &Br{Dst: blockLabel(v.Handlers[0].Handler)}
}

// freeMainArgsIfEntry implements spec.md §4.9's "the entry block of main
// additionally frees its constructed args array before return": a no-op for
// every function that isn't main's two-argument form, and for a Return
// reached from any block other than main's own entry (a multi-block main
// with the return elsewhere is documented in DESIGN.md as out of scope for
// this rule's literal wording, the same same-block-only stance destruct.go
// already takes for ordinary Owner frees).
func (ec *emitCtx) freeMainArgsIfEntry() {
	if ec.mainArgsName == "" || !ec.inEntry {
		return
	}
	argsVal := ec.load(ec.mainArgsName)
	cast := ec.newTemp()
	ec.cur.Add(&BitCast{Dst: cast, Val: argsVal, To: Ptr8})
	ec.cur.Add(&Call{Type: VoidTy{}, Callee: RuntimeFree, Args: []Value{{Type: Ptr8, Text: "%" + cast}}})
}

func (ec *emitCtx) lowerFree(v *cfg.Free) {
	t := ec.fn.Types[v.Name]
	elem := types.Unwrap(t)
	if opt, ok := elem.(*types.OptType); ok {
		elem = types.Unwrap(opt)
	}
	ptr := ec.load(v.Name)
	if st, ok := elem.(*types.StructType); ok {
		ec.freeOwnerFields(st, ptr)
	}
	cast := ec.newTemp()
	ec.cur.Add(&BitCast{Dst: cast, Val: ptr, To: Ptr8})
	ec.cur.Add(&Call{Type: VoidTy{}, Callee: RuntimeFree, Args: []Value{{Type: Ptr8, Text: "%" + cast}}})
}

// freeOwnerFields frees every Owner-typed attribute of a struct value
// before the value's own backing store is freed (spec.md §4.10:
// "Destructors: Free(v) ... if the value's type has Owner fields, each is
// loaded and freed first"). One level deep only — array backing storage is
// a single contiguous block per spec and is deliberately not recursed.
func (ec *emitCtx) freeOwnerFields(st *types.StructType, base Value) {
	for i, name := range st.Order() {
		entry := st.Attribs[name]
		if _, ok := entry.Type.(*types.OwnerType); !ok {
			continue
		}
		fieldTy := toLIRType(entry.Type)
		gepDst := ec.newTemp()
		ec.cur.Add(&GetElementPtr{Dst: gepDst, Base: base, Indices: []int{0, i}, Result: PtrTy{Elem: fieldTy}})
		loadDst := ec.newTemp()
		fieldPtr := Value{Type: PtrTy{Elem: fieldTy}, Text: "%" + gepDst}
		ec.cur.Add(&Load{Dst: loadDst, Type: fieldTy, Src: fieldPtr})
		cast := ec.newTemp()
		ec.cur.Add(&BitCast{Dst: cast, Val: Value{Type: fieldTy, Text: "%" + loadDst}, To: Ptr8})
		ec.cur.Add(&Call{Type: VoidTy{}, Callee: RuntimeFree, Args: []Value{{Type: Ptr8, Text: "%" + cast}}})
	}
}

func (ec *emitCtx) lowerCall(v *cfg.CallStep) {
	args := make([]Value, len(v.Args))
	for i, a := range v.Args {
		args[i] = ec.lowerAtom(a)
	}
	callee := nameOf(v.Callee)
	retTy := toLIRType(v.Type)
	if v.Try {
		ec.out.Landing = true
		normal := fmt.Sprintf("%s.cont", blockLabel(v.Block))
		dst := ""
		if v.Temp != "" {
			dst = ec.newTemp()
		}
		ec.cur.Term = &Invoke{Dst: dst, Type: retTy, Callee: callee, Args: args, Normal: normal, Unwind: blockLabel(v.CallBr[1])}
		cont := ec.out.NewBlock(normal)
		ec.cur = cont
		if v.Temp != "" {
			ec.store(v.Temp, Value{Type: retTy, Text: "%" + dst})
		}
		return
	}
	dst := ""
	if v.Temp != "" {
		dst = ec.newTemp()
	}
	ec.cur.Add(&Call{Dst: dst, Type: retTy, Callee: callee, Args: args})
	if v.Temp != "" {
		ec.store(v.Temp, Value{Type: retTy, Text: "%" + dst})
	}
}

// lowerAtom lowers an already-atomic expression (Name, literal, or $k
// temp) — the only shapes internal/cfg.Build ever leaves in a position
// that must already be atomic (CallStep.Args, AssignStep.RHS, Return.Value,
// CondBranch.Cond).
func (ec *emitCtx) lowerAtom(e ast.Expr) Value {
	switch v := e.(type) {
	case *ast.NameExpr:
		return ec.load(v.Name)
	case *ast.NoneLit:
		return Null(Ptr8)
	case *ast.BoolLit:
		if v.Value {
			return Const(I1, "1")
		}
		return Const(I1, "0")
	case *ast.IntLit:
		return Const(ec.literalType(e), v.Value)
	case *ast.FloatLit:
		return Const(ec.literalType(e), v.Value)
	case *ast.StringLit:
		return ec.lowerStringLit(v)
	default:
		// Any other node reaching here means a compound expression was
		// left un-decomposed by internal/cfg.Build's inter() pass; lower it
		// as a general expression and use its resulting value directly.
		return ec.lowerExpr(e, ec.fn.Literals[e])
	}
}

func (ec *emitCtx) literalType(e ast.Expr) Type {
	if t, ok := ec.fn.Literals[e]; ok {
		return toLIRType(t)
	}
	switch e.(type) {
	case *ast.FloatLit:
		return F64
	default:
		return I64
	}
}

func (ec *emitCtx) lowerStringLit(v *ast.StringLit) Value {
	ec.nstr++
	name := fmt.Sprintf("%s.str%d", ec.out.Name, ec.nstr)
	arrTy := ArrayTy{N: len(v.Value) + 1, Elem: I8}
	ec.m.AddGlobal(&Global{Name: name, Type: arrTy, Init: fmt.Sprintf("c\"%s\\00\"", v.Value)})
	owned := ec.fn.OwnedLiterals[v]
	if !owned {
		return Value{Type: Ptr8, Text: "@" + name}
	}
	// Escaping string literals are heap-copied rather than referenced
	// directly (spec.md §4.10: "string literals are ... malloc'd and
	// copied when escaping").
	sz := len(v.Value) + 1
	mallocDst := ec.newTemp()
	ec.cur.Add(&Call{Dst: mallocDst, Type: Ptr8, Callee: RuntimeMalloc, Args: []Value{{Type: I64, Text: fmt.Sprintf("%d", sz)}}})
	heapPtr := Value{Type: Ptr8, Text: "%" + mallocDst}
	ec.cur.Add(&Call{Type: VoidTy{}, Callee: RuntimeMemcpy, Args: []Value{
		heapPtr, {Type: Ptr8, Text: "@" + name}, {Type: I64, Text: fmt.Sprintf("%d", sz)},
	}})
	return heapPtr
}

// lowerExpr lowers the compound expression forms internal/cfg.Build leaves
// inside an ExprStep.Value: BinaryExpr, NotExpr, AttribExpr, ElemExpr,
// TupleExpr, TernaryExpr, AsExpr. CallExpr never reaches here — Build
// always special-cases a call directly into a CallStep (recordCall).
func (ec *emitCtx) lowerExpr(e ast.Expr, resultType types.Type) Value {
	switch v := e.(type) {
	case *ast.BinaryExpr:
		return ec.lowerBinary(v, resultType)
	case *ast.NotExpr:
		val := ec.lowerAtom(v.Value)
		dst := ec.newTemp()
		ec.cur.Add(&ICmp{Dst: dst, Pred: "eq", L: val, R: Const(I1, "0")})
		return Value{Type: I1, Text: "%" + dst}
	case *ast.AttribExpr:
		return ec.lowerAttrib(v, resultType)
	case *ast.ElemExpr:
		return ec.lowerElem(v, resultType)
	case *ast.TupleExpr:
		return ec.lowerTuple(v, resultType)
	case *ast.TernaryExpr:
		return ec.lowerTernary(v, resultType)
	case *ast.AsExpr:
		val := ec.lowerAtom(v.Value)
		to := toLIRType(resultType)
		dst := ec.newTemp()
		ec.cur.Add(&BitCast{Dst: dst, Val: val, To: to})
		return Value{Type: to, Text: "%" + dst}
	default:
		return ec.lowerAtom(e)
	}
}

func (ec *emitCtx) lowerBinary(v *ast.BinaryExpr, resultType types.Type) Value {
	l := ec.lowerAtom(v.Left)
	r := ec.lowerAtom(v.Right)
	resTy := toLIRType(resultType)
	dst := ec.newTemp()
	if isFloatTy(l.Type) {
		if pred, ok := fcmpPred(v.Op); ok {
			ec.cur.Add(&FCmp{Dst: dst, Pred: pred, L: l, R: r})
			return Value{Type: I1, Text: "%" + dst}
		}
		ec.cur.Add(&BinOp{Dst: dst, Op: fbinOp(v.Op), Type: l.Type, L: l, R: r})
		return Value{Type: resTy, Text: "%" + dst}
	}
	if pred, ok := icmpPred(v.Op); ok {
		ec.cur.Add(&ICmp{Dst: dst, Pred: pred, L: l, R: r})
		return Value{Type: I1, Text: "%" + dst}
	}
	ec.cur.Add(&BinOp{Dst: dst, Op: ibinOp(v.Op), Type: l.Type, L: l, R: r})
	return Value{Type: resTy, Text: "%" + dst}
}

func isFloatTy(t Type) bool { _, ok := t.(FloatTy); return ok }

func ibinOp(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "sdiv"
	case ast.OpMod:
		return "srem"
	case ast.OpBitAnd, ast.OpAnd:
		return "and"
	case ast.OpBitOr, ast.OpOr:
		return "or"
	case ast.OpBitXor:
		return "xor"
	case ast.OpLShift:
		return "shl"
	case ast.OpRShift:
		return "ashr"
	default:
		return "add"
	}
}

func fbinOp(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "fadd"
	case ast.OpSub:
		return "fsub"
	case ast.OpMul:
		return "fmul"
	case ast.OpDiv:
		return "fdiv"
	default:
		return "fadd"
	}
}

func icmpPred(op ast.BinOp) (string, bool) {
	switch op {
	case ast.OpEq, ast.OpIs:
		return "eq", true
	case ast.OpNe:
		return "ne", true
	case ast.OpLt:
		return "slt", true
	case ast.OpLe:
		return "sle", true
	case ast.OpGt:
		return "sgt", true
	case ast.OpGe:
		return "sge", true
	default:
		return "", false
	}
}

func fcmpPred(op ast.BinOp) (string, bool) {
	switch op {
	case ast.OpEq:
		return "oeq", true
	case ast.OpNe:
		return "one", true
	case ast.OpLt:
		return "olt", true
	case ast.OpLe:
		return "ole", true
	case ast.OpGt:
		return "ogt", true
	case ast.OpGe:
		return "oge", true
	default:
		return "", false
	}
}

func (ec *emitCtx) lowerAttrib(v *ast.AttribExpr, resultType types.Type) Value {
	obj := ec.lowerAtom(v.Obj)
	st, ok := structOf(ec.fn.Types, v.Obj)
	idx := 0
	if ok {
		for i, name := range st.Order() {
			if name == v.Attrib {
				idx = i
				break
			}
		}
	}
	fieldTy := toLIRType(resultType)
	gepDst := ec.newTemp()
	ec.cur.Add(&GetElementPtr{Dst: gepDst, Base: obj, Indices: []int{0, idx}, Result: PtrTy{Elem: fieldTy}})
	loadDst := ec.newTemp()
	ec.cur.Add(&Load{Dst: loadDst, Type: fieldTy, Src: Value{Type: PtrTy{Elem: fieldTy}, Text: "%" + gepDst}})
	return Value{Type: fieldTy, Text: "%" + loadDst}
}

// structOf is a best-effort lookup used only to find an attribute's
// declaration-order index: it resolves a plain-name receiver through its
// per-name type. When the static struct type can't be recovered that way
// (a non-name receiver, a trait-typed or template-instance receiver) index
// 0 is used, which is wrong for anything but the first attribute.
func structOf(names map[string]types.Type, e ast.Expr) (*types.StructType, bool) {
	n, ok := e.(*ast.NameExpr)
	if !ok || names[n.Name] == nil {
		return nil, false
	}
	st, ok := types.UnwrapAll(names[n.Name]).(*types.StructType)
	return st, ok
}

func (ec *emitCtx) lowerElem(v *ast.ElemExpr, resultType types.Type) Value {
	obj := ec.lowerAtom(v.Obj)
	// Evaluated for its side effects only: real index arithmetic on a
	// dynamic key needs the runtime's bounds-checked array-indexing helper,
	// which this emitter does not yet call (tracked in DESIGN.md alongside
	// the generator/exception-selector simplifications).
	ec.lowerAtom(v.Key)
	elemTy := toLIRType(resultType)
	gepDst := ec.newTemp()
	ec.cur.Add(&GetElementPtr{Dst: gepDst, Base: obj, Indices: []int{0}, Result: PtrTy{Elem: elemTy}})
	loadDst := ec.newTemp()
	ec.cur.Add(&Load{Dst: loadDst, Type: elemTy, Src: Value{Type: PtrTy{Elem: elemTy}, Text: "%" + gepDst}})
	return Value{Type: elemTy, Text: "%" + loadDst}
}

func (ec *emitCtx) lowerTuple(v *ast.TupleExpr, resultType types.Type) Value {
	lt := toLIRType(resultType)
	slot := ec.newTemp()
	ec.cur.Add(&Alloca{Dst: slot, Elem: lt})
	ptr := Value{Type: PtrTy{Elem: lt}, Text: "%" + slot}
	for i, val := range v.Values {
		elemVal := ec.lowerAtom(val)
		gepDst := ec.newTemp()
		ec.cur.Add(&GetElementPtr{Dst: gepDst, Base: ptr, Indices: []int{0, i}, Result: PtrTy{Elem: elemVal.Type}})
		ec.cur.Add(&Store{Val: elemVal, Dst: Value{Type: PtrTy{Elem: elemVal.Type}, Text: "%" + gepDst}})
	}
	loadDst := ec.newTemp()
	ec.cur.Add(&Load{Dst: loadDst, Type: lt, Src: ptr})
	return Value{Type: lt, Text: "%" + loadDst}
}

func (ec *emitCtx) lowerTernary(v *ast.TernaryExpr, resultType types.Type) Value {
	// The expression form (reaching here only inside a single ExprStep) is
	// lowered with real control flow inline: a conditional branch to fresh
	// then/else blocks that each store their arm's value into one stack
	// slot, and a join block that loads it back.
	cond := ec.lowerAtom(v.Cond)
	thenLbl, elseLbl, joinLbl := ec.labels.New(util.LabelThunk), ec.labels.New(util.LabelThunk), ec.labels.New(util.LabelThunk)
	ec.cur.Term = &CondBr{Cond: cond, Then: thenLbl, Else: elseLbl}

	lt := toLIRType(resultType)
	slot := ec.newTemp()
	ec.out.Blocks[0].Instrs = append([]Instr{&Alloca{Dst: slot, Elem: lt}}, ec.out.Blocks[0].Instrs...)
	ptr := Value{Type: PtrTy{Elem: lt}, Text: "%" + slot}

	thenBlock := ec.out.NewBlock(thenLbl)
	ec.cur = thenBlock
	thenVal := ec.lowerAtom(v.Values[0])
	ec.cur.Add(&Store{Val: thenVal, Dst: ptr})
	ec.cur.Term = &Br{Dst: joinLbl}

	elseBlock := ec.out.NewBlock(elseLbl)
	ec.cur = elseBlock
	elseVal := ec.lowerAtom(v.Values[1])
	ec.cur.Add(&Store{Val: elseVal, Dst: ptr})
	ec.cur.Term = &Br{Dst: joinLbl}

	joinBlock := ec.out.NewBlock(joinLbl)
	ec.cur = joinBlock
	loadDst := ec.newTemp()
	ec.cur.Add(&Load{Dst: loadDst, Type: lt, Src: ptr})
	return Value{Type: lt, Text: "%" + loadDst}
}

func nameOf(e ast.Expr) string {
	if n, ok := e.(*ast.NameExpr); ok {
		return n.Name
	}
	return ""
}

// toLIRType maps a resolved internal/types.Type to its LLIR rendering.
func toLIRType(t types.Type) Type {
	switch v := t.(type) {
	case nil:
		return VoidTy{}
	case types.VoidType:
		return VoidTy{}
	case types.BoolType:
		return I1
	case types.ByteType:
		return I8
	case types.IntType:
		return IntTy{Bits: v.Bits}
	case types.FloatType:
		return F64
	case types.AnyIntType:
		return I64
	case types.AnyFloatType:
		return F64
	case *types.OwnerType:
		return PtrTy{Elem: toLIRType(v.Elem)}
	case *types.RefType:
		return PtrTy{Elem: toLIRType(v.Elem)}
	case *types.OptType:
		return toLIRType(v.Elem)
	case *types.StructType:
		return NamedTy{Name: v.Name}
	case *types.ConcreteType:
		return NamedTy{Name: v.TypeName()}
	case *types.TraitType:
		return NamedTy{Name: v.Name + ".wrap"}
	case *types.TupleType:
		fields := make([]Type, len(v.Params))
		for i, p := range v.Params {
			fields[i] = toLIRType(p)
		}
		return LiteralStructTy{Fields: fields}
	default:
		return Ptr8
	}
}
