package cfg

import (
	"fmt"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/util"
)

// Dump prints g's blocks in Blocks() order (reverse-postorder from Entry),
// one line per step, the same block-by-block pretty-print shape
// vslc/src/ir/lir's Block.Print uses for its lowered instruction lists —
// generalized here to this package's higher-level steps. Used by the
// `show` subcommand to inspect the graph after whichever pass it was
// asked to stop at.
func (g *FlowGraph) Dump(w *util.Writer, fname string) {
	w.Write("func %s\n", fname)
	for _, b := range g.Blocks() {
		entry := ""
		if b.Id() == g.Entry {
			entry = " (entry)"
		}
		w.Write("  block%d%s preds=%v anno=%q\n", b.Id(), entry, b.Preds, b.Anno)
		for _, s := range b.Steps {
			w.Write("    %s\n", stepString(s))
		}
	}
}

func stepString(s Step) string {
	switch v := s.(type) {
	case *ExprStep:
		if v.Temp != "" {
			return fmt.Sprintf("%s = %s", v.Temp, exprStr(v.Value))
		}
		return exprStr(v.Value)
	case *AssignStep:
		return fmt.Sprintf("%s = %s", exprStr(v.LHS), exprStr(v.RHS))
	case *CallStep:
		prefix := ""
		if v.Temp != "" {
			prefix = v.Temp + " = "
		}
		suffix := ""
		if v.Try {
			suffix = fmt.Sprintf(" callbr(block%d, block%d)", v.CallBr[0], v.CallBr[1])
		}
		return fmt.Sprintf("%scall %s(%s)%s", prefix, exprStr(v.Callee), joinExprStrs(v.Args), suffix)
	case *Branch:
		return v.String()
	case *CondBranch:
		return fmt.Sprintf("if %s %s", exprStr(v.Cond), v.String())
	case *Return:
		return fmt.Sprintf("return %s", exprStr(v.Value))
	case *Raise:
		return fmt.Sprintf("raise %s", exprStr(v.Value))
	case *Yield:
		return fmt.Sprintf("yield %s -> block%d", exprStr(v.Value), v.Resume)
	case *LoopHeader:
		return fmt.Sprintf("loopheader %s in %s -> body block%d, exit block%d", v.LVar, exprStr(v.Ctx), v.Body, v.Exit)
	case *LPad:
		return fmt.Sprintf("lpad %v", v.Handlers)
	case *Phi:
		return fmt.Sprintf("%s = phi [block%d: %s, block%d: %s]", v.Temp, v.A, exprStr(v.ValA), v.B, exprStr(v.ValB))
	case *Free:
		return fmt.Sprintf("free %s", v.Name)
	default:
		return fmt.Sprintf("<unknown step %T>", s)
	}
}

func exprStr(e ast.Expr) string {
	return ast.ExprString(e)
}

func joinExprStrs(es []ast.Expr) string {
	out := ""
	for i, e := range es {
		if i > 0 {
			out += ", "
		}
		out += exprStr(e)
	}
	return out
}
