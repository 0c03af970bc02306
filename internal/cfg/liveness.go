package cfg

import (
	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/types"
)

// argBlock is the sentinel block id function arguments are recorded under
// — spec.md §4.5: "Function arguments are treated as a pseudo-set at
// (bid=None, sid=-1) on the None predecessor chain." Block ids are always
// >= 0, so -1 is a safe sentinel distinguishable from any real block.
const argBlock = -1

// Origin is one (block, step) position that may supply the most recent
// value of a name, returned by Origins.
type Origin struct {
	Block int
	Step  int
}

// ComputeLiveness fills in g.Vars[name].{Sets,Uses} by walking every
// block's steps in order, per spec.md §4.5. args lists the function's
// parameter names, recorded as the pseudo-origin (argBlock, -1).
func ComputeLiveness(g *FlowGraph, args []string) {
	for _, name := range args {
		info := g.varInfo(name)
		if info.Sets[argBlock] == nil {
			info.Sets[argBlock] = map[int]types.Type{}
		}
		info.Sets[argBlock][-1] = nil
	}
	for _, b := range g.Blocks() {
		for sid, step := range b.Steps {
			recordStep(g, b.id, sid, step)
		}
	}
}

func (g *FlowGraph) varInfo(name string) *VarInfo {
	v, ok := g.Vars[name]
	if !ok {
		v = &VarInfo{Sets: map[int]map[int]types.Type{}, Uses: map[int]map[int]bool{}}
		g.Vars[name] = v
	}
	return v
}

func recordStep(g *FlowGraph, bid, sid int, step Step) {
	switch v := step.(type) {
	case *AssignStep:
		recordUses(g, bid, sid, v.RHS)
		if name, ok := v.LHS.(*ast.NameExpr); ok {
			markSet(g, name.Name, bid, sid)
		} else {
			recordUses(g, bid, sid, v.LHS) // Attrib/Elem store: LHS base is a use.
		}
	case *ExprStep:
		recordUses(g, bid, sid, v.Value)
		if v.Temp != "" {
			markSet(g, v.Temp, bid, sid)
		}
	case *CallStep:
		recordUses(g, bid, sid, v.Callee)
		for _, a := range v.Args {
			recordUses(g, bid, sid, a)
		}
		if v.Temp != "" {
			markSet(g, v.Temp, bid, sid)
		}
	case *CondBranch:
		recordUses(g, bid, sid, v.Cond)
	case *Return:
		if v.Value != nil {
			recordUses(g, bid, sid, v.Value)
		}
	case *Raise:
		recordUses(g, bid, sid, v.Value)
	case *Yield:
		recordUses(g, bid, sid, v.Value)
	case *LoopHeader:
		recordUses(g, bid, sid, v.Ctx)
		markSet(g, v.LVar, bid, sid)
	case *Phi:
		recordUses(g, bid, sid, v.ValA)
		recordUses(g, bid, sid, v.ValB)
		if v.Temp != "" {
			markSet(g, v.Temp, bid, sid)
		}
	}
}

func markSet(g *FlowGraph, name string, bid, sid int) {
	info := g.varInfo(name)
	if info.Sets[bid] == nil {
		info.Sets[bid] = map[int]types.Type{}
	}
	info.Sets[bid][sid] = nil
}

func markUse(g *FlowGraph, name string, bid, sid int) {
	info := g.varInfo(name)
	if info.Uses[bid] == nil {
		info.Uses[bid] = map[int]bool{}
	}
	info.Uses[bid][sid] = true
}

func recordUses(g *FlowGraph, bid, sid int, e ast.Expr) {
	switch v := e.(type) {
	case *ast.NameExpr:
		markUse(g, v.Name, bid, sid)
	case *ast.AttribExpr:
		recordUses(g, bid, sid, v.Obj)
	case *ast.ElemExpr:
		recordUses(g, bid, sid, v.Obj)
		recordUses(g, bid, sid, v.Key)
	case *ast.TupleExpr:
		for _, val := range v.Values {
			recordUses(g, bid, sid, val)
		}
	case *ast.BinaryExpr:
		recordUses(g, bid, sid, v.Left)
		recordUses(g, bid, sid, v.Right)
	case *ast.NotExpr:
		recordUses(g, bid, sid, v.Value)
	case *ast.AsExpr:
		recordUses(g, bid, sid, v.Value)
	case *ast.TernaryExpr:
		recordUses(g, bid, sid, v.Cond)
		recordUses(g, bid, sid, v.Values[0])
		recordUses(g, bid, sid, v.Values[1])
	case *ast.CallExpr:
		recordUses(g, bid, sid, v.Callee)
		for _, a := range v.Args {
			recordUses(g, bid, sid, a)
		}
	case *ast.NamedArg:
		recordUses(g, bid, sid, v.Value)
	}
}

// Origins walks predecessors of (bid, before) to find every position that
// supplies the most recent value of name visible there, excluding
// positions at or after (bid, before) within bid itself, per spec.md
// §4.5's `origins(name, (bid,sid))`.
func Origins(g *FlowGraph, name string, bid, before int) []Origin {
	info, ok := g.Vars[name]
	if !ok {
		return nil
	}
	seen := map[int]bool{}
	var out []Origin
	var walk func(id int, limit int)
	walk = func(id int, limit int) {
		if seen[id] {
			return
		}
		seen[id] = true
		sids := info.Sets[id]
		best := -1
		for sid := range sids {
			if limit >= 0 && sid >= limit {
				continue
			}
			if sid > best {
				best = sid
			}
		}
		if best >= 0 {
			out = append(out, Origin{Block: id, Step: best})
			return // This block supplies the value; don't look further back.
		}
		if id == argBlock {
			return
		}
		b := g.Block(id)
		if b == nil || len(b.Preds) == 0 {
			if argSids, ok := info.Sets[argBlock]; ok {
				if _, ok := argSids[-1]; ok {
					out = append(out, Origin{Block: argBlock, Step: -1})
				}
			}
			return
		}
		for _, p := range b.Preds {
			walk(p, -1)
		}
	}
	walk(bid, before)
	return out
}
