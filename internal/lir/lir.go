// Package lir implements the LLIR data model and textual emitter (spec.md
// §4.10): a Module/Function/Block/Instr hierarchy and a print.go-style
// emitter, modeled directly on vslc/src/ir/lir's own Module/Function/Block
// builder plus its print.go — generalized from vslc's RISC-V/ARM
// register-assembly target to the LLVM-flavored SSA text spec.md §6
// specifies.
package lir

import "fmt"

// Type is the small, closed set of LLIR type forms this emitter ever needs
// to print: scalars, pointers, named (struct/vtable/wrap) types and fixed
// arrays. Unlike internal/types.Type this is purely a textual-rendering
// concern — internal/check's Specialize/EscapeAnalyze passes have already
// resolved every value to a concrete internal/types.Type by the time this
// package's Emit lowers it.
type Type interface {
	// String renders the type the way it appears in LLIR text: "i32",
	// "i8*", "%Str", "[4 x i8]".
	String() string
}

// IntTy is an N-bit integer (i1 for bool, i8 for byte, i32/i64 for sized
// ints).
type IntTy struct{ Bits int }

func (t IntTy) String() string { return fmt.Sprintf("i%d", t.Bits) }

// FloatTy is LLVM's double, the only float width spec.md's type system
// names.
type FloatTy struct{}

func (FloatTy) String() string { return "double" }

// VoidTy is a function's return type when the source function declares no
// return type (or declares Void explicitly).
type VoidTy struct{}

func (VoidTy) String() string { return "void" }

// PtrTy is a pointer to Elem (`T*`).
type PtrTy struct{ Elem Type }

func (t PtrTy) String() string { return t.Elem.String() + "*" }

// NamedTy references a declared struct/vtable/wrap type by its `%Name`.
type NamedTy struct{ Name string }

func (t NamedTy) String() string { return "%" + t.Name }

// ArrayTy is a fixed-length array (`[N x Elem]`); used for generator
// context padding and the args array's backing store.
type ArrayTy struct {
	N    int
	Elem Type
}

func (t ArrayTy) String() string { return fmt.Sprintf("[%d x %s]", t.N, t.Elem) }

// LiteralStructTy is an anonymous `{ ... }` struct type, used for tuple
// values — tuples have no declared name to hang a NamedTy off of.
type LiteralStructTy struct{ Fields []Type }

func (t LiteralStructTy) String() string {
	s := "{ "
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.String()
	}
	return s + " }"
}

// Value is a single SSA operand: its type plus the textual form the
// operand takes (`%3`, `@G`, `42`, `null`). Every instruction's operand
// list and every terminator's arguments are Values, never a bare string, so
// print.go never has to reconstruct a type from context.
type Value struct {
	Type Type
	Text string
}

func (v Value) String() string { return v.Text }

// Const builds an immediate integer/float constant Value.
func Const(t Type, text string) Value { return Value{Type: t, Text: text} }

// Null builds the null pointer constant of pointer type t.
func Null(t PtrTy) Value { return Value{Type: t, Text: "null"} }

var (
	I1  = IntTy{1}
	I8  = IntTy{8}
	I32 = IntTy{32}
	I64 = IntTy{64}
	F64 = FloatTy{}
	Ptr8 = PtrTy{Elem: I8}
)
