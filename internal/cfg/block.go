package cfg

import (
	"strconv"

	"github.com/runalang/runac/internal/types"
	"github.com/runalang/runac/internal/util"
)

// Block is a basic block in a function's CFG (spec.md §3's Block).
type Block struct {
	id    int
	Anno  string // Diagnostic label, e.g. "if-cond", "while-body", "try-pad".
	Steps []Step

	Preds []int // Populated by FlowGraph.linkPreds after lowering completes.

	Returns bool
	Raises  bool

	// Escapes records, per variable name, the positions where an
	// owner-typed value defined in this block is observed to outlive the
	// block (spec.md §3's "escapes: per-variable record of locations
	// where the value outlives the call"); filled in by internal/check's
	// escape pass.
	Escapes map[string][]util.Position
}

// Id returns the block's unique identifier, stable for the lifetime of the
// FlowGraph it belongs to.
func (b *Block) Id() int { return b.id }

// Term returns the block's terminator step (the last entry of Steps), or
// nil if the block has not yet been terminated.
func (b *Block) Term() Step {
	if len(b.Steps) == 0 {
		return nil
	}
	last := b.Steps[len(b.Steps)-1]
	switch last.(type) {
	case *Branch, *CondBranch, *Return, *Raise, *Yield, *LoopHeader, *LPad:
		return last
	default:
		return nil
	}
}

// MarkEscape records that the Owner-typed value name defines in this block
// is observed, by internal/check's escape pass, to outlive the block.
func (b *Block) MarkEscape(name string, pos util.Position) {
	if b.Escapes == nil {
		b.Escapes = map[string][]util.Position{}
	}
	b.Escapes[name] = append(b.Escapes[name], pos)
}

// FlowGraph is a function's lowered control-flow graph (spec.md §3's
// FlowGraph): blocks keyed by id, edges as src→dst adjacency, and the
// per-name liveness tables internal/cfg's liveness pass fills in.
type FlowGraph struct {
	Entry int
	blocks map[int]*Block
	order  []int // Insertion order, for deterministic iteration/printing.
	edges  map[int][]int

	// Yields maps a yielding block's id to its resume block's id.
	Yields map[int]int

	Vars map[string]*VarInfo

	nextBlock int
	nextTemp  int
}

// VarInfo is the per-name liveness record spec.md §3/§4.5 describes:
// sets[bid][sid]=type and uses[bid]={sid...}.
type VarInfo struct {
	Sets map[int]map[int]types.Type // bid -> sid -> type
	Uses map[int]map[int]bool       // bid -> set of sid
}

func newFlowGraph() *FlowGraph {
	return &FlowGraph{
		blocks: map[int]*Block{},
		edges:  map[int][]int{},
		Yields: map[int]int{},
		Vars:   map[string]*VarInfo{},
	}
}

func (g *FlowGraph) newBlock(anno string) *Block {
	b := &Block{id: g.nextBlock, Anno: anno}
	g.nextBlock++
	g.blocks[b.id] = b
	g.order = append(g.order, b.id)
	return b
}

func (g *FlowGraph) newTemp() string {
	t := g.nextTemp
	g.nextTemp++
	// spec.md §4.4: "Temporaries are named $0, $1, … monotonically per function."
	return "$" + strconv.Itoa(t)
}

func (g *FlowGraph) addEdge(src, dst int) {
	g.edges[src] = append(g.edges[src], dst)
}

// Block returns the block registered under id, or nil.
func (g *FlowGraph) Block(id int) *Block { return g.blocks[id] }

// Blocks returns every block in reverse-postorder from Entry: for any
// forward edge u->v, u precedes v (a back edge, the only kind a loop
// produces, is the sole case this doesn't hold for). internal/check's
// passes walk blocks in this order precisely so a Phi or name lookup in a
// join block can assume the block(s) that feed it have already been typed.
func (g *FlowGraph) Blocks() []*Block {
	visited := map[int]bool{}
	var post []int
	var dfs func(id int)
	dfs = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, succ := range g.edges[id] {
			dfs(succ)
		}
		post = append(post, id)
	}
	dfs(g.Entry)
	out := make([]*Block, 0, len(post))
	for i := len(post) - 1; i >= 0; i-- {
		if b, ok := g.blocks[post[i]]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Succs returns the successor block ids of id.
func (g *FlowGraph) Succs(id int) []int { return g.edges[id] }

// linkPreds populates every block's Preds from the edge map; called once
// lowering is complete, per spec.md §4.4 ("predecessor lists are populated
// from the edge map").
func (g *FlowGraph) linkPreds() {
	for src, dsts := range g.edges {
		for _, dst := range dsts {
			if b, ok := g.blocks[dst]; ok {
				b.Preds = append(b.Preds, src)
			}
		}
	}
}

// pruneUnreachable removes every block not reachable from Entry (spec.md
// §3's invariant: "unreachable blocks are pruned").
func (g *FlowGraph) pruneUnreachable() {
	reachable := map[int]bool{g.Entry: true}
	queue := []int{g.Entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, succ := range g.edges[id] {
			if !reachable[succ] {
				reachable[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	kept := g.order[:0]
	for _, id := range g.order {
		if reachable[id] {
			kept = append(kept, id)
			continue
		}
		delete(g.blocks, id)
		delete(g.edges, id)
	}
	g.order = kept
}
