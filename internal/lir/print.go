package lir

import (
	"fmt"
	"strings"
)

// String renders the whole module: triple directive, then extern
// declarations, then types, then globals, then function bodies — spec.md §5's
// ordering guarantee ("global type declarations are emitted before
// function bodies; external function declarations are emitted before type
// declarations that depend on them only to the extent required by the
// backend's parser").
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "target triple = %q\n\n", m.Triple)
	for _, e := range m.Externs {
		writeExtern(&sb, e)
	}
	if len(m.Externs) > 0 {
		sb.WriteString("\n")
	}
	for _, s := range m.Structs {
		writeStruct(&sb, s)
	}
	if len(m.Structs) > 0 {
		sb.WriteString("\n")
	}
	for _, g := range m.Globals {
		fmt.Fprintf(&sb, "@%s = constant %s %s\n", g.Name, g.Type, g.Init)
	}
	if len(m.Globals) > 0 {
		sb.WriteString("\n")
	}
	for i, f := range m.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeFunction(&sb, f)
	}
	return sb.String()
}

func writeExtern(sb *strings.Builder, e *ExternFunc) {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	if e.VarArgs {
		parts = append(parts, "...")
	}
	fmt.Fprintf(sb, "declare %s @%s(%s)\n", e.Ret, e.Name, strings.Join(parts, ", "))
}

func writeStruct(sb *strings.Builder, s *StructDecl) {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Type.String()
	}
	fmt.Fprintf(sb, "%%%s = type { %s }\n", s.Name, strings.Join(parts, ", "))
	if s.SizeConst != "" {
		fmt.Fprintf(sb, "@%s.size = constant i64 ptrtoint (%%%s* getelementptr (%%%s, %%%s* null, i32 1) to i64)\n",
			s.SizeConst, s.Name, s.Name, s.Name)
	}
}

func writeFunction(sb *strings.Builder, f *Function) {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = fmt.Sprintf("%s %%%s", p.Type, p.Name)
	}
	fmt.Fprintf(sb, "define %s @%s(%s) uwtable {\n", f.Ret, f.Name, strings.Join(parts, ", "))
	for _, b := range f.Blocks {
		writeBlock(sb, f, b)
	}
	sb.WriteString("}\n")
}

func writeBlock(sb *strings.Builder, f *Function, b *Block) {
	fmt.Fprintf(sb, "%s:\n", b.Label)
	for _, in := range b.Instrs {
		sb.WriteString("  ")
		writeInstr(sb, in)
		sb.WriteString("\n")
	}
	if b.Term != nil {
		sb.WriteString("  ")
		writeInstr(sb, b.Term)
		sb.WriteString("\n")
	} else if f.Landing {
		// A block left unterminated by a simplified codegen path (see
		// DESIGN.md) still needs valid LLIR; trap rather than emit
		// dangling text.
		sb.WriteString("  unreachable\n")
	}
}

func args(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%s %s", v.Type, v.Text)
	}
	return strings.Join(parts, ", ")
}

func writeInstr(sb *strings.Builder, in Instr) {
	switch v := in.(type) {
	case *Alloca:
		fmt.Fprintf(sb, "%%%s = alloca %s", v.Dst, v.Elem)
	case *Load:
		fmt.Fprintf(sb, "%%%s = load %s, %s* %s", v.Dst, v.Type, v.Type, v.Src)
	case *Store:
		fmt.Fprintf(sb, "store %s %s, %s* %s", v.Val.Type, v.Val, v.Dst.Type, v.Dst)
	case *BinOp:
		fmt.Fprintf(sb, "%%%s = %s %s %s, %s", v.Dst, v.Op, v.Type, v.L, v.R)
	case *ICmp:
		fmt.Fprintf(sb, "%%%s = icmp %s %s %s, %s", v.Dst, v.Pred, v.L.Type, v.L, v.R)
	case *FCmp:
		fmt.Fprintf(sb, "%%%s = fcmp %s %s %s, %s", v.Dst, v.Pred, v.L.Type, v.L, v.R)
	case *Call:
		if v.Dst != "" {
			fmt.Fprintf(sb, "%%%s = call %s @%s(%s)", v.Dst, v.Type, v.Callee, args(v.Args))
		} else {
			fmt.Fprintf(sb, "call %s @%s(%s)", v.Type, v.Callee, args(v.Args))
		}
	case *Invoke:
		if v.Dst != "" {
			fmt.Fprintf(sb, "%%%s = invoke %s @%s(%s) to label %%%s unwind label %%%s",
				v.Dst, v.Type, v.Callee, args(v.Args), v.Normal, v.Unwind)
		} else {
			fmt.Fprintf(sb, "invoke %s @%s(%s) to label %%%s unwind label %%%s",
				v.Type, v.Callee, args(v.Args), v.Normal, v.Unwind)
		}
	case *GetElementPtr:
		idxParts := make([]string, len(v.Indices))
		for i, idx := range v.Indices {
			idxParts[i] = fmt.Sprintf("i32 %d", idx)
		}
		fmt.Fprintf(sb, "%%%s = getelementptr %s, %s %s, %s", v.Dst, v.Result, v.Base.Type, v.Base, strings.Join(idxParts, ", "))
	case *BitCast:
		fmt.Fprintf(sb, "%%%s = bitcast %s %s to %s", v.Dst, v.Val.Type, v.Val, v.To)
	case *LandingPad:
		fmt.Fprintf(sb, "%%%s = landingpad { i8*, i32 } personality i8* bitcast (void ()* @%s to i8*)", v.Dst, v.Personality)
	case *Br:
		fmt.Fprintf(sb, "br label %%%s", v.Dst)
	case *CondBr:
		fmt.Fprintf(sb, "br i1 %s, label %%%s, label %%%s", v.Cond, v.Then, v.Else)
	case *Ret:
		if v.Val.Type == nil {
			sb.WriteString("ret void")
		} else {
			fmt.Fprintf(sb, "ret %s %s", v.Val.Type, v.Val)
		}
	case *Unreachable:
		sb.WriteString("unreachable")
	default:
		fmt.Fprintf(sb, "; unhandled instruction %T", in)
	}
}
