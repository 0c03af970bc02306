package check

import (
	"sort"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/cfg"
	"github.com/runalang/runac/internal/types"
)

// pendingFree is one Free step still to be spliced in, keyed by the
// original (pre-splice) step index it belongs immediately before.
type pendingFree struct {
	atSid int
	name  string
}

// Destruct runs the destructor pass (component 9) over fn's graph.
// TypeCheck, Specialize, and EscapeAnalyze must already have run (fn.Types
// and fn.Escaped populated). For every Owner-typed variable: a later
// reassignment within the same block frees the old value right there; a
// variable that isn't reassigned within its defining block is instead freed
// immediately before the terminator of every return block its definition
// can still reach, when — and only when — exactly one definition reaches
// that return (spec.md's "not reached from a Phi" double-free guard, mapped
// onto this implementation's origin-walk: more than one reaching origin, or
// a reaching origin other than this one, both mean a different write
// already owns the free at that exit).
func (c *Checker) Destruct(fn *Func) error {
	reach := reachableReturns(fn.Graph)
	defs := ownerDefsByBlock(fn)

	pending := map[int][]pendingFree{}
	for name, byBlock := range defs {
		if fn.Escaped[name] {
			continue // Escaping values are the caller's responsibility to free.
		}
		for bid, sids := range byBlock {
			sort.Ints(sids)
			for i := 0; i+1 < len(sids); i++ {
				pending[bid] = append(pending[bid], pendingFree{atSid: sids[i+1], name: name})
			}
			last := sids[len(sids)-1]
			for _, rid := range reach[bid] {
				rb := fn.Graph.Block(rid)
				if rb.Term() == nil {
					continue
				}
				termSid := len(rb.Steps) - 1
				origins := cfg.Origins(fn.Graph, name, rid, termSid)
				if len(origins) != 1 || origins[0].Block != bid || origins[0].Step != last {
					// Either this return can be reached through more than one
					// definition of name (ambiguous, skip rather than risk a
					// double free), or a later write elsewhere already owns
					// freeing name at this exit.
					continue
				}
				pending[rid] = append(pending[rid], pendingFree{atSid: termSid, name: name})
			}
		}
	}

	for bid, list := range pending {
		b := fn.Graph.Block(bid)
		// Highest index first: splicing at a larger index never shifts the
		// positions smaller ones still need to target.
		sort.Slice(list, func(i, j int) bool { return list[i].atSid > list[j].atSid })
		for _, pf := range list {
			pos := b.Steps[pf.atSid].Pos()
			insertStep(b, pf.atSid, cfg.NewFree(pos, pf.name))
		}
	}
	return nil
}

// insertStep splices s into b.Steps at idx, shifting idx and everything
// after it one position later.
func insertStep(b *cfg.Block, idx int, s cfg.Step) {
	b.Steps = append(b.Steps, nil)
	copy(b.Steps[idx+1:], b.Steps[idx:])
	b.Steps[idx] = s
}

// ownerDefsByBlock collects every AssignStep that defines a plain name
// (attribute/element stores are container-owned, not a local variable's own
// lifetime) whose final type is Owner — directly or through Opt(Owner(T)) —
// keyed by name then by the block the assignment lives in.
func ownerDefsByBlock(fn *Func) map[string]map[int][]int {
	out := map[string]map[int][]int{}
	for _, b := range fn.Graph.Blocks() {
		for sid, step := range b.Steps {
			a, ok := step.(*cfg.AssignStep)
			if !ok {
				continue
			}
			name, ok := a.LHS.(*ast.NameExpr)
			if !ok {
				continue
			}
			if !isOwnerType(fn.Types[name.Name]) {
				continue
			}
			byBlock := out[name.Name]
			if byBlock == nil {
				byBlock = map[int][]int{}
				out[name.Name] = byBlock
			}
			byBlock[b.Id()] = append(byBlock[b.Id()], sid)
		}
	}
	return out
}

func isOwnerType(t types.Type) bool {
	switch v := t.(type) {
	case *types.OwnerType:
		return true
	case *types.OptType:
		return isOwnerType(v.Elem)
	default:
		return false
	}
}

// reachableReturns maps every block id to the ids of the Return-terminated
// blocks reachable from it by forward control flow (itself included, when
// it is one).
func reachableReturns(g *cfg.FlowGraph) map[int][]int {
	out := map[int][]int{}
	for _, b := range g.Blocks() {
		out[b.Id()] = forwardReturns(g, b.Id())
	}
	return out
}

func forwardReturns(g *cfg.FlowGraph, start int) []int {
	visited := map[int]bool{}
	var rets []int
	var walk func(id int)
	walk = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		if b := g.Block(id); b != nil {
			if _, ok := b.Term().(*cfg.Return); ok {
				rets = append(rets, id)
			}
		}
		for _, succ := range g.Succs(id) {
			walk(succ)
		}
	}
	walk(start)
	return rets
}
