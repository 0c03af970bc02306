package ast

import (
	"fmt"

	"github.com/runalang/runac/internal/util"
)

// Dump prints f's declarations recursively, indenting one level per nesting
// depth — the same `depth<<1` padding scheme vslc/src/ir/nodetype.go's
// Node.Print uses, but through util.Writer rather than fmt.Printf directly
// so concurrent `parse`/`show` output never interleaves with another pass's
// (spec.md's single buffered output sink).
func (f *File) Dump(w *util.Writer) {
	w.Write("file %s\n", f.Path)
	for _, d := range f.Decls {
		dumpDecl(w, d, 1)
	}
}

func pad(w *util.Writer, depth int, format string, args ...interface{}) {
	w.Write("%*c%s\n", depth<<1, ' ', fmt.Sprintf(format, args...))
}

func dumpDecl(w *util.Writer, d Decl, depth int) {
	switch v := d.(type) {
	case *FunctionDecl:
		pad(w, depth, "def %s(%s)%s", v.Name, paramList(v.Args), rtypeSuffix(v.RType))
		for _, s := range v.Suite {
			dumpStmt(w, s, depth+1)
		}
	case *ExternDecl:
		pad(w, depth, "extern %s(%s)%s", v.Name, paramList(v.Args), rtypeSuffix(v.RType))
	case *ClassDecl:
		pad(w, depth, "class %s%s", v.Name, templateParams(v.Params))
		for _, p := range v.Attribs {
			pad(w, depth+1, "attrib %s %s", p.Name, exprString(p.Type))
		}
		for _, m := range v.Methods {
			dumpDecl(w, m, depth+1)
		}
	case *TraitDecl:
		pad(w, depth, "trait %s%s", v.Name, templateParams(v.Params))
		for _, m := range v.Methods {
			dumpDecl(w, m, depth+1)
		}
	default:
		pad(w, depth, "<unknown decl %T>", d)
	}
}

func dumpStmt(w *util.Writer, s Stmt, depth int) {
	switch v := s.(type) {
	case *AssignStmt:
		pad(w, depth, "assign %s = %s", exprString(v.LHS), exprString(v.RHS))
	case *IAddStmt:
		pad(w, depth, "iadd %s += %s", exprString(v.LHS), exprString(v.RHS))
	case *ReturnStmt:
		pad(w, depth, "return %s", exprString(v.Value))
	case *YieldStmt:
		pad(w, depth, "yield %s", exprString(v.Value))
	case *RaiseStmt:
		pad(w, depth, "raise %s", exprString(v.Value))
	case *PassStmt:
		pad(w, depth, "pass")
	case *BreakStmt:
		pad(w, depth, "break")
	case *ContinueStmt:
		pad(w, depth, "continue")
	case *ExprStmt:
		pad(w, depth, "expr %s", exprString(v.Value))
	case *IfStmt:
		pad(w, depth, "if")
		for _, arm := range v.Arms {
			if arm.Cond != nil {
				pad(w, depth+1, "arm %s", exprString(arm.Cond))
			} else {
				pad(w, depth+1, "else")
			}
			for _, st := range arm.Suite {
				dumpStmt(w, st, depth+2)
			}
		}
	case *WhileStmt:
		pad(w, depth, "while %s", exprString(v.Cond))
		for _, st := range v.Suite {
			dumpStmt(w, st, depth+1)
		}
	case *ForStmt:
		pad(w, depth, "for %s in %s", v.LVar, exprString(v.Source))
		for _, st := range v.Suite {
			dumpStmt(w, st, depth+1)
		}
	case *TryStmt:
		pad(w, depth, "try")
		for _, st := range v.Suite {
			dumpStmt(w, st, depth+1)
		}
		for _, c := range v.Catch {
			pad(w, depth+1, "except %s", exprString(c.Type))
			for _, st := range c.Suite {
				dumpStmt(w, st, depth+2)
			}
		}
	case *ImportStmt:
		pad(w, depth, "import %s", v.Path)
	case *RelImportStmt:
		pad(w, depth, "from %s import %v", v.Base, v.Names)
	default:
		pad(w, depth, "<unknown stmt %T>", s)
	}
}

// ExprString renders e as the single-line form used inline in statement
// dumps and type positions; nil (e.g. a bare `return`) renders as "-". It's
// exported so internal/cfg's block dump can render the atoms its steps
// carry without duplicating this switch.
func ExprString(e Expr) string {
	return exprString(e)
}

func exprString(e Expr) string {
	if e == nil {
		return "-"
	}
	switch v := e.(type) {
	case *NoneLit:
		return "None"
	case *BoolLit:
		return fmt.Sprintf("%t", v.Value)
	case *IntLit:
		return v.Value
	case *FloatLit:
		return v.Value
	case *StringLit:
		return fmt.Sprintf("%q", v.Value)
	case *NameExpr:
		return v.Name
	case *AttribExpr:
		return exprString(v.Obj) + "." + v.Attrib
	case *ElemExpr:
		return exprString(v.Obj) + "[" + exprString(v.Key) + "]"
	case *TupleExpr:
		return "(" + joinExprs(v.Values) + ")"
	case *CallExpr:
		return exprString(v.Callee) + "(" + joinExprs(v.Args) + ")"
	case *NamedArg:
		return v.Name + "=" + exprString(v.Value)
	case *BinaryExpr:
		return exprString(v.Left) + " " + binOpString(v.Op) + " " + exprString(v.Right)
	case *NotExpr:
		return "not " + exprString(v.Value)
	case *AsExpr:
		return exprString(v.Value) + " as " + exprString(v.Type)
	case *TernaryExpr:
		return exprString(v.Values[0]) + " if " + exprString(v.Cond) + " else " + exprString(v.Values[1])
	case *OwnerType:
		return "$" + exprString(v.Inner)
	case *RefType:
		return "&" + exprString(v.Inner)
	case *OptType:
		return "?" + exprString(v.Inner)
	case *MutType:
		return "~" + exprString(v.Inner)
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func joinExprs(es []Expr) string {
	var out string
	for i, e := range es {
		if i > 0 {
			out += ", "
		}
		out += exprString(e)
	}
	return out
}

func binOpString(op BinOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIs:
		return "is"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpLShift:
		return "<<"
	case OpRShift:
		return ">>"
	default:
		return "?"
	}
}

func paramList(params []Param) string {
	var out string
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p.Name
		if p.Type != nil {
			out += " " + exprString(p.Type)
		}
	}
	return out
}

func rtypeSuffix(rtype Expr) string {
	if rtype == nil {
		return ""
	}
	return " -> " + exprString(rtype)
}

func templateParams(params []string) string {
	if len(params) == 0 {
		return ""
	}
	out := "["
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + "]"
}
