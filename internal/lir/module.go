package lir

// StructField is one named (for readability only — LLIR structs are
// positional) field of a declared aggregate type.
type StructField struct {
	Name string
	Type Type
}

// StructDecl is a `%Name = type { ... }` declaration: a plain class layout,
// a trait vtable (`%T.vt`), or a trait existential wrapper (`%T.wrap`).
type StructDecl struct {
	Name   string
	Fields []StructField

	// SizeConst, when non-empty, is the companion `@Name.size` global this
	// type's size-probe constant is registered under (spec.md §4.10:
	// "each concrete aggregate gets a size constant computed as
	// ptrtoint(gep(null,1))").
	SizeConst string
}

// Global is a `@Name = constant ...` declaration: a string literal, an
// integer/float literal promoted to a named constant, or a vtable-instance
// constant for one (type, trait) implementation pair.
type Global struct {
	Name string
	Type Type
	Init string // Already-rendered initializer text, e.g. `c"hi\00"` or `{ ... }`.
}

// ExternFunc declares a function with no body: the runtime ABI surface
// (malloc/free/memcpy/raise/personality/args/typeid) plus any source-level
// `def` with no suite (spec.md §4.2's ExternDecl).
type ExternFunc struct {
	Name    string
	Ret     Type
	Args    []Type
	VarArgs bool
}

// Param is one function formal: its LLIR type and its in-body SSA name.
type Param struct {
	Type Type
	Name string
}

// Function is one `define ... { ... }` body.
type Function struct {
	Name    string // Link name (mangled, or the bare source name for main/non-overloaded functions).
	Ret     Type
	Params  []Param
	Blocks  []*Block
	Landing bool // True when this function contains at least one try region; gates personality clause emission.
}

// Block returns the block created with this label, or nil.
func (f *Function) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// NewBlock appends and returns a fresh block labeled label.
func (f *Function) NewBlock(label string) *Block {
	b := &Block{Label: label}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Module is one compiled program's whole LLIR: its target triple, every
// declared type, global, extern and function, emitted by print.go in the
// order spec.md §5's "ordering guarantees within emit" requires (externs,
// then types, then globals, then functions; within a function, blocks in creation
// order and steps in stored order).
type Module struct {
	Triple    string
	Structs   []*StructDecl
	Globals   []*Global
	Externs   []*ExternFunc
	Functions []*Function
}

func NewModule(triple string) *Module { return &Module{Triple: triple} }

func (m *Module) AddStruct(s *StructDecl) { m.Structs = append(m.Structs, s) }
func (m *Module) AddGlobal(g *Global)     { m.Globals = append(m.Globals, g) }
func (m *Module) AddExtern(e *ExternFunc) { m.Externs = append(m.Externs, e) }
func (m *Module) AddFunction(f *Function) { m.Functions = append(m.Functions, f) }
