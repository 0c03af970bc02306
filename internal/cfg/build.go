package cfg

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/util"
)

// catchFrame tracks the calls recorded while lowering the suite of one
// enclosing try block, so the eventual landing pad can be wired to every
// one of them (spec.md §4.4's "Redirect on call inside try").
type catchFrame struct {
	calls []*CallStep
}

// finder is the per-function lowering state (spec.md §4.4's FlowFinder):
// it keeps a "cur" block being appended to and a "caught" stack, non-empty
// while lowering is nested inside a try suite.
type finder struct {
	g      *FlowGraph
	cur    *Block
	caught []*catchFrame

	// loopExit/loopEntry track the nearest enclosing loop's exit/header
	// block ids, for break/continue lowering (not named as a distinct
	// spec.md rule but required by its "While: body back-edges to head"
	// and "auto Return None" invariants to terminate every block).
	loopExit, loopEntry []int
}

// Build lowers a function's suite into a FlowGraph, per spec.md §4.4.
func Build(fn *ast.FunctionDecl) *FlowGraph {
	g := newFlowGraph()
	entry := g.newBlock("entry")
	g.Entry = entry.id
	f := &finder{g: g, cur: entry}
	f.lowerSuite(fn.Suite)
	f.terminateFallthrough()
	g.linkPreds()
	g.pruneUnreachable()
	return g
}

// inter decomposes an expression per spec.md §4.4: atomic expressions
// (names, literals, None) pass through unchanged; anything else is
// evaluated into a fresh temporary in the current block and replaced by a
// reference to it.
func (f *finder) inter(e ast.Expr) ast.Expr {
	if isAtomic(e) {
		return e
	}
	temp := f.g.newTemp()
	f.cur.Steps = append(f.cur.Steps, &ExprStep{
		stepBase: stepBase{e.Pos()},
		Temp:     temp,
		Value:    e,
	})
	return ast.NewName(e.Pos(), temp)
}

func isAtomic(e ast.Expr) bool {
	switch e.(type) {
	case *ast.NameExpr, *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit, *ast.NoneLit:
		return true
	default:
		return false
	}
}

// recordCall appends a Call step to cur, wiring the try-continue redirect
// described in spec.md §4.4 when lowering is nested inside a try suite.
func (f *finder) recordCall(pos util.Position, callee ast.Expr, args []ast.Expr) ast.Expr {
	temp := f.g.newTemp()
	call := &CallStep{
		stepBase: stepBase{pos},
		Temp:     temp,
		Callee:   callee,
		Args:     args,
		Block:    f.cur.id,
		CallBr:   [2]int{-1, -1},
	}
	f.cur.Steps = append(f.cur.Steps, call)

	if len(f.caught) > 0 {
		call.Try = true
		cont := f.g.newBlock("try-continue")
		call.CallBr[0] = cont.id
		f.g.addEdge(f.cur.id, cont.id)
		frame := f.caught[len(f.caught)-1]
		frame.calls = append(frame.calls, call)
		f.cur = cont
	}
	return ast.NewName(pos, temp)
}

func (f *finder) lowerSuite(suite []ast.Stmt) {
	for _, s := range suite {
		f.lowerStmt(s)
	}
}

func (f *finder) lowerStmt(s ast.Stmt) {
	if f.cur.Term() != nil {
		// A previous statement already terminated this block (e.g. a
		// `return` mid-suite); anything after it is unreachable and is
		// not lowered at all.
		return
	}
	switch v := s.(type) {
	case *ast.ExprStmt:
		f.lowerExprStmt(v)
	case *ast.AssignStmt:
		f.lowerAssign(v)
	case *ast.IAddStmt:
		f.lowerIAdd(v)
	case *ast.ReturnStmt:
		f.lowerReturn(v)
	case *ast.YieldStmt:
		f.lowerYield(v)
	case *ast.RaiseStmt:
		f.lowerRaise(v)
	case *ast.PassStmt:
		// No-op.
	case *ast.BreakStmt:
		f.lowerBreak(v)
	case *ast.ContinueStmt:
		f.lowerContinue(v)
	case *ast.IfStmt:
		f.lowerIf(v)
	case *ast.WhileStmt:
		f.lowerWhile(v)
	case *ast.ForStmt:
		f.lowerFor(v)
	case *ast.TryStmt:
		f.lowerTry(v)
	case *ast.ImportStmt, *ast.RelImportStmt:
		// Resolved at module-load time (internal/source); no CFG presence.
	}
}

func (f *finder) lowerExprStmt(s *ast.ExprStmt) {
	if call, ok := s.Value.(*ast.CallExpr); ok {
		f.recordCall(s.Pos(), call.Callee, call.Args)
		return
	}
	f.inter(s.Value)
}

func (f *finder) lowerAssign(s *ast.AssignStmt) {
	rhs := f.lowerRHS(s.RHS)
	f.cur.Steps = append(f.cur.Steps, &AssignStep{
		stepBase: stepBase{s.Pos()},
		LHS:      s.LHS,
		RHS:      rhs,
	})
}

func (f *finder) lowerIAdd(s *ast.IAddStmt) {
	rhs := f.lowerRHS(s.RHS)
	combined := ast.NewBinary(s.Pos(), ast.OpAdd, s.LHS, rhs)
	f.cur.Steps = append(f.cur.Steps, &AssignStep{
		stepBase: stepBase{s.Pos()},
		LHS:      s.LHS,
		RHS:      f.inter(combined),
	})
}

// lowerRHS evaluates an assignment's right-hand side, routing a bare call
// through recordCall so try-redirect still applies, and inter()-ing
// anything else.
func (f *finder) lowerRHS(e ast.Expr) ast.Expr {
	if call, ok := e.(*ast.CallExpr); ok {
		return f.recordCall(e.Pos(), call.Callee, call.Args)
	}
	return f.inter(e)
}

func (f *finder) lowerReturn(s *ast.ReturnStmt) {
	var val ast.Expr
	if s.Value != nil {
		val = f.lowerRHS(s.Value)
	}
	f.cur.Steps = append(f.cur.Steps, &Return{stepBase{s.Pos()}, val})
	f.cur.Returns = true
}

func (f *finder) lowerYield(s *ast.YieldStmt) {
	val := f.lowerRHS(s.Value)
	resume := f.g.newBlock("yield-resume")
	y := &Yield{stepBase{s.Pos()}, val, resume.id}
	f.cur.Steps = append(f.cur.Steps, y)
	f.g.Yields[f.cur.id] = resume.id
	f.g.addEdge(f.cur.id, resume.id)
	f.cur = resume
}

func (f *finder) lowerRaise(s *ast.RaiseStmt) {
	val := f.lowerRHS(s.Value)
	f.cur.Steps = append(f.cur.Steps, &Raise{stepBase{s.Pos()}, val})
	f.cur.Raises = true
}

func (f *finder) lowerBreak(s *ast.BreakStmt) {
	if len(f.loopExit) == 0 {
		return // Parser/checker rejects break outside a loop before this runs.
	}
	dst := f.loopExit[len(f.loopExit)-1]
	f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, dst})
	f.g.addEdge(f.cur.id, dst)
}

func (f *finder) lowerContinue(s *ast.ContinueStmt) {
	if len(f.loopEntry) == 0 {
		return
	}
	dst := f.loopEntry[len(f.loopEntry)-1]
	f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, dst})
	f.g.addEdge(f.cur.id, dst)
}

// lowerIf lowers a sequence of if/elif/else arms per spec.md §4.4: each
// arm after the first gets its own "if-cond" block to hold the condition's
// evaluation, CondBranch's else slot points at the next arm (or, for the
// last arm, at a shared join block), and an `x is None` condition records
// the opt-narrowing per-edge checks.
func (f *finder) lowerIf(s *ast.IfStmt) {
	join := f.g.newBlock("if-join")
	for i, arm := range s.Arms {
		if arm.Cond == nil {
			// Trailing `else`: falls straight into this arm's suite.
			f.lowerArmSuite(arm.Suite, join)
			return
		}
		condVal := f.inter(arm.Cond)
		then := f.g.newBlock("if-then")

		var elseBlock *Block
		if i+1 < len(s.Arms) {
			elseBlock = f.g.newBlock("if-cond")
		} else {
			elseBlock = join
		}

		checks := narrowChecks(arm.Cond)
		cb := &CondBranch{
			stepBase:  stepBase{s.Pos()},
			Cond:      condVal,
			Then:      then.id,
			Else:      elseBlock.id,
			ThenCheck: checks.thenChecks(),
			ElseCheck: checks.elseChecks(),
		}
		f.cur.Steps = append(f.cur.Steps, cb)
		f.g.addEdge(f.cur.id, then.id)
		f.g.addEdge(f.cur.id, elseBlock.id)

		f.cur = then
		f.lowerArmSuite(arm.Suite, join)

		f.cur = elseBlock
	}
	// Every arm had a condition (no trailing else): the last arm's Else
	// edge already points straight at join, and the loop's final
	// reassignment left cur == join — nothing further to terminate.
	f.cur = join
}

func (f *finder) lowerArmSuite(suite []ast.Stmt, join *Block) {
	f.lowerSuite(suite)
	if f.cur.Term() == nil {
		var pos util.Position
		if len(f.cur.Steps) > 0 {
			pos = f.cur.Steps[len(f.cur.Steps)-1].Pos()
		}
		f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{pos}, join.id})
		f.g.addEdge(f.cur.id, join.id)
	}
}

// optCheck packages the `x is None` narrowing spec.md §4.4 describes.
type optCheck struct {
	name string
	ok   bool
}

func narrowChecks(cond ast.Expr) optCheck {
	bin, ok := cond.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpIs {
		return optCheck{}
	}
	name, ok := bin.Left.(*ast.NameExpr)
	if !ok {
		return optCheck{}
	}
	if _, ok := bin.Right.(*ast.NoneLit); !ok {
		return optCheck{}
	}
	return optCheck{name: name.Name, ok: true}
}

func (c optCheck) thenChecks() []EdgeCheck {
	if !c.ok {
		return nil
	}
	return []EdgeCheck{{Name: c.name, IsNone: true}}
}

func (c optCheck) elseChecks() []EdgeCheck {
	if !c.ok {
		return nil
	}
	return []EdgeCheck{{Name: c.name, IsNone: false}}
}

// lowerWhile builds a head block holding the condition, a body that
// back-edges to the head, and an exit block — per spec.md §4.4.
func (f *finder) lowerWhile(s *ast.WhileStmt) {
	head := f.g.newBlock("while-head")
	f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, head.id})
	f.g.addEdge(f.cur.id, head.id)

	f.cur = head
	condVal := f.inter(s.Cond)
	body := f.g.newBlock("while-body")
	exit := f.g.newBlock("while-exit")
	checks := narrowChecks(s.Cond)
	f.cur.Steps = append(f.cur.Steps, &CondBranch{
		stepBase:  stepBase{s.Pos()},
		Cond:      condVal,
		Then:      body.id,
		Else:      exit.id,
		ThenCheck: checks.thenChecks(),
		ElseCheck: checks.elseChecks(),
	})
	f.g.addEdge(head.id, body.id)
	f.g.addEdge(head.id, exit.id)

	f.loopEntry = append(f.loopEntry, head.id)
	f.loopExit = append(f.loopExit, exit.id)
	f.cur = body
	f.lowerSuite(s.Suite)
	if f.cur.Term() == nil {
		f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, head.id})
		f.g.addEdge(f.cur.id, head.id)
	}
	f.loopEntry = f.loopEntry[:len(f.loopEntry)-1]
	f.loopExit = f.loopExit[:len(f.loopExit)-1]

	f.cur = exit
}

// lowerFor lowers `for lvar in source:` into a synthetic LoopSetup
// expression plus a LoopHeader terminator, per spec.md §4.4. The source is
// auto-wrapped with `.__iter__()` when its static type is not already
// `iter[T]` — that rewrite happens in internal/check once types are known,
// so here the lowering only records the raw source expression; the
// checker mutates Ctx in place once it has resolved the source's type.
func (f *finder) lowerFor(s *ast.ForStmt) {
	srcVal := f.inter(s.Source)
	head := f.g.newBlock("for-head")
	f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, head.id})
	f.g.addEdge(f.cur.id, head.id)

	body := f.g.newBlock("for-body")
	exit := f.g.newBlock("for-exit")
	f.cur = head
	f.cur.Steps = append(f.cur.Steps, &LoopHeader{
		stepBase: stepBase{s.Pos()},
		Ctx:      srcVal, // LoopSetup(srcVal); internal/check retypes this node.
		LVar:     s.LVar,
		Body:     body.id,
		Exit:     exit.id,
	})
	f.g.addEdge(head.id, body.id)
	f.g.addEdge(head.id, exit.id)

	f.loopEntry = append(f.loopEntry, head.id)
	f.loopExit = append(f.loopExit, exit.id)
	f.cur = body
	f.lowerSuite(s.Suite)
	if f.cur.Term() == nil {
		f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, head.id})
		f.g.addEdge(f.cur.id, head.id)
	}
	f.loopEntry = f.loopEntry[:len(f.loopEntry)-1]
	f.loopExit = f.loopExit[:len(f.loopExit)-1]

	f.cur = exit
}

// lowerTry lowers the suite with a fresh catch frame, then wires every
// recorded call's source block to a landing pad and one catch block per
// handler, per spec.md §4.4.
func (f *finder) lowerTry(s *ast.TryStmt) {
	frame := &catchFrame{}
	f.caught = append(f.caught, frame)
	f.lowerSuite(s.Suite)
	f.caught = f.caught[:len(f.caught)-1]

	join := f.g.newBlock("try-join")
	if f.cur.Term() == nil {
		f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, join.id})
		f.g.addEdge(f.cur.id, join.id)
	}

	if len(frame.calls) == 0 {
		f.cur = join
		return
	}

	pad := f.g.newBlock("try-pad")
	for _, call := range frame.calls {
		call.CallBr[1] = pad.id
		f.g.addEdge(call.Block, pad.id)
	}

	handlers := make([]LPadHandler, 0, len(s.Catch))
	f.cur = pad
	for _, arm := range s.Catch {
		handlerBlock := f.g.newBlock("except")
		handlers = append(handlers, LPadHandler{Type: arm.Type, Handler: handlerBlock.id})
		f.g.addEdge(pad.id, handlerBlock.id)
		f.cur = handlerBlock
		f.lowerSuite(arm.Suite)
		if f.cur.Term() == nil {
			f.cur.Steps = append(f.cur.Steps, &Branch{stepBase{s.Pos()}, join.id})
			f.g.addEdge(f.cur.id, join.id)
		}
	}
	pad.Steps = append(pad.Steps, &LPad{stepBase{s.Pos()}, handlers})
	f.cur = join
}

// terminateFallthrough appends the auto `Return None` spec.md §4.4/§3
// require on every block whose last step is not already a terminator.
func (f *finder) terminateFallthrough() {
	for _, b := range f.g.Blocks() {
		if b.Term() == nil {
			var pos util.Position
			if len(b.Steps) > 0 {
				pos = b.Steps[len(b.Steps)-1].Pos()
			}
			b.Steps = append(b.Steps, &Return{stepBase{pos}, nil})
			b.Returns = true
		}
	}
}
