package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/util"
)

// Registry is the module-scoped type registry spec.md §3/§9 calls for
// instead of a global singleton cache: one instance per Module, threaded
// through every pass as an explicit parameter. All construction goes
// through its methods so equal types are always the same Go value
// ("set-of-instances" semantics, spec.md §3).
//
// internal/compiler's pipeline fans TypeCheck/Specialize out across
// functions concurrently (SPEC_FULL.md §5), and every one of them reaches
// wrapper constructors (Owner/Ref/Opt/Tuple) through this registry — so,
// like vslc/src/ir/lir.Module's embedded sync.Mutex guarding a Module
// touched by parallel optimisation workers, this registry embeds one too.
type Registry struct {
	sync.Mutex
	interned map[string]Type
	names    map[string]Type // Source-level type names (classes, traits, aliases) visible at top scope.
}

// NewRegistry builds a registry pre-seeded with the language's fixed scalar
// types and their source-level names.
func NewRegistry() *Registry {
	r := &Registry{
		interned: map[string]Type{},
		names:    map[string]Type{},
	}
	prims := map[string]Type{
		"void":    VoidType{},
		"bool":    BoolType{},
		"byte":    ByteType{},
		"float64": FloatType{},
		"int":     IntType{Bits: 64, Signed: true}, // Word-sized default (spec.md §4.7).
		"float":   FloatType{},
	}
	for _, bits := range []int{8, 16, 32, 64} {
		prims[fmt.Sprintf("int%d", bits)] = IntType{Bits: bits, Signed: true}
		prims[fmt.Sprintf("uint%d", bits)] = IntType{Bits: bits, Signed: false}
	}
	for name, t := range prims {
		r.interned[t.key()] = t
		r.names[name] = t
	}
	// "str" is seeded here, not left to Str()'s old lazy-on-first-literal
	// path: a source-level `&str`/`$str` parameter or return annotation
	// resolves through FromExpr's plain NameExpr case, which only ever
	// calls Lookup — it never calls Str() itself, so a program whose first
	// string usage is a type annotation rather than a literal would
	// otherwise see "undefined type str".
	str := &StructType{Name: "str", Attribs: AttribTable{}, Methods: MethodTable{}}
	r.interned[str.key()] = str
	r.names["str"] = str
	return r
}

func (r *Registry) intern(t Type) Type {
	r.Lock()
	defer r.Unlock()
	if existing, ok := r.interned[t.key()]; ok {
		return existing
	}
	r.interned[t.key()] = t
	return t
}

// Void, Bool, Byte, Float, AnyInt, AnyFloat are accessors for the fixed
// singleton scalar types.
func (r *Registry) Void() Type      { return r.intern(VoidType{}) }
func (r *Registry) Bool() Type      { return r.intern(BoolType{}) }
func (r *Registry) Byte() Type      { return r.intern(ByteType{}) }
func (r *Registry) Float() Type     { return r.intern(FloatType{}) }
func (r *Registry) AnyInt() Type    { return r.intern(AnyIntType{}) }
func (r *Registry) AnyFloat() Type  { return r.intern(AnyFloatType{}) }
func (r *Registry) NoType() Type    { return r.intern(NoType{}) }
func (r *Registry) VarArgs() Type   { return r.intern(VarArgsType{}) }
func (r *Registry) Int(bits int) Type {
	return r.intern(IntType{Bits: bits, Signed: true})
}
func (r *Registry) Uint(bits int) Type {
	return r.intern(IntType{Bits: bits, Signed: false})
}

// Owner, Ref, Opt build (or return the cached) wrapper type over elem.
func (r *Registry) Owner(elem Type) Type { return r.intern(&OwnerType{Elem: elem}) }
func (r *Registry) Ref(elem Type, mut bool) Type {
	return r.intern(&RefType{Elem: elem, Mut: mut})
}
func (r *Registry) Opt(elem Type) Type { return r.intern(&OptType{Elem: elem}) }
func (r *Registry) Tuple(params []Type) Type {
	return r.intern(&TupleType{Params: params})
}

// Str is the builtin string element type: a byte sequence, always accessed
// through Owner or Ref (spec.md's literal rule "string literal → Owner(Str)").
// NewRegistry seeds "str" eagerly, so this is just a named lookup.
func (r *Registry) Str() Type {
	t, _ := r.Lookup("str")
	return t
}

// Lookup resolves a bare source-level type name (a class, trait, alias, or
// scalar keyword) to its registered Type.
func (r *Registry) Lookup(name string) (Type, bool) {
	r.Lock()
	defer r.Unlock()
	t, ok := r.names[name]
	return t, ok
}

// Declared returns every source-level declared name (class, trait,
// template, alias) and its Type, for passes that need to enumerate the
// module's whole type universe — internal/lir's emission order and vtable
// discovery, chiefly.
func (r *Registry) Declared() map[string]Type {
	r.Lock()
	defer r.Unlock()
	out := make(map[string]Type, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out
}

// Declare registers a class/trait/template under its source name so later
// NameExpr type-forms resolve to it.
func (r *Registry) Declare(name string, t Type) {
	r.Lock()
	defer r.Unlock()
	r.names[name] = t
	r.interned[t.key()] = t
}

// NewStruct allocates a non-generic class type; it is not interned until it
// is passed to Declare.
func NewStruct(name string, attribOrder []string, attribs AttribTable, methods MethodTable) *StructType {
	return &StructType{Name: name, Attribs: attribs, Methods: methods, order: attribOrder}
}

// NewTrait allocates a trait type.
func NewTrait(name string, methodOrder []string, methods MethodTable) *TraitType {
	return &TraitType{Name: name, Methods: methods, order: methodOrder}
}

// NewTemplate allocates an uninstantiated generic class.
func NewTemplate(name string, params []string, attribOrder []string, attribs AttribTable, methods MethodTable) *TemplateType {
	return &TemplateType{Name: name, Params: params, Attribs: attribs, Methods: methods, order: attribOrder}
}

// Instantiate returns the cached Concrete for tpl[args], substituting every
// Stub(p) in the template's attribs/methods with the matching argument
// (spec.md §4.3: "Template[Args] yields a Concrete … with each Stub(p)
// substituted by Args[p]").
func (r *Registry) Instantiate(tpl *TemplateType, args []Type) (*ConcreteType, error) {
	if len(args) != len(tpl.Params) {
		return nil, fmt.Errorf("%s expects %d type arguments, got %d", tpl.Name, len(tpl.Params), len(args))
	}
	key := "concrete:" + tpl.Name
	for _, a := range args {
		key += ":" + a.key()
	}
	r.Lock()
	if existing, ok := r.interned[key]; ok {
		r.Unlock()
		return existing.(*ConcreteType), nil
	}
	r.Unlock()

	sub := make(map[string]Type, len(tpl.Params))
	for i, p := range tpl.Params {
		sub[p] = args[i]
	}
	c := &ConcreteType{
		Template: tpl,
		Args:     args,
		Attribs:  substAttribs(tpl.Attribs, sub),
		Methods:  substMethods(tpl.Methods, sub),
	}

	r.Lock()
	defer r.Unlock()
	// Re-check: a concurrent goroutine may have instantiated the same
	// tpl[args] between the first check and this store.
	if existing, ok := r.interned[key]; ok {
		return existing.(*ConcreteType), nil
	}
	r.interned[key] = c
	return c, nil
}

func substType(t Type, sub map[string]Type) Type {
	switch v := t.(type) {
	case StubType:
		if r, ok := sub[v.Name]; ok {
			return r
		}
		return t
	case *OwnerType:
		return &OwnerType{Elem: substType(v.Elem, sub)}
	case *RefType:
		return &RefType{Elem: substType(v.Elem, sub), Mut: v.Mut}
	case *OptType:
		return &OptType{Elem: substType(v.Elem, sub)}
	case *TupleType:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = substType(p, sub)
		}
		return &TupleType{Params: params}
	default:
		return t
	}
}

func substAttribs(a AttribTable, sub map[string]Type) AttribTable {
	out := make(AttribTable, len(a))
	for name, e := range a {
		out[name] = AttribEntry{Index: e.Index, Type: substType(e.Type, sub)}
	}
	return out
}

func substMethods(m MethodTable, sub map[string]Type) MethodTable {
	out := make(MethodTable, len(m))
	for name, overloads := range m {
		subbed := make([]*FunctionDecl, len(overloads))
		for i, fd := range overloads {
			args := make([]Type, len(fd.Sig.Args))
			for j, a := range fd.Sig.Args {
				args[j] = substType(a, sub)
			}
			subbed[i] = &FunctionDecl{
				Name:     fd.Name,
				LinkName: fd.LinkName,
				Method:   fd.Method,
				Sig: &FunctionType{
					Ret:      substType(fd.Sig.Ret, sub),
					Args:     args,
					ArgNames: fd.Sig.ArgNames,
				},
			}
		}
		out[name] = subbed
	}
	return out
}

// FromExpr resolves an AST type-form expression (NameExpr, OwnerType,
// RefType, OptType, MutType, ElemExpr template instantiation, TupleExpr)
// into a registry Type, per spec.md §4.3's `type(expr)` constructor.
func (r *Registry) FromExpr(e ast.Expr) (Type, error) {
	switch v := e.(type) {
	case *ast.NameExpr:
		if t, ok := r.Lookup(v.Name); ok {
			return t, nil
		}
		return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName, "undefined type %q", v.Name)
	case *ast.OwnerType:
		inner, err := r.FromExpr(v.Inner)
		if err != nil {
			return nil, err
		}
		return r.Owner(inner), nil
	case *ast.RefType:
		inner, err := r.FromExpr(v.Inner)
		if err != nil {
			return nil, err
		}
		return r.Ref(inner, false), nil
	case *ast.MutType:
		// `~&T` source form nests Mut around Ref; flatten to Ref(mut:true)
		// per the Open Question decision (spec.md §9).
		inner, err := r.FromExpr(v.Inner)
		if err != nil {
			return nil, err
		}
		if ref, ok := inner.(*RefType); ok {
			return r.Ref(ref.Elem, true), nil
		}
		return r.Ref(inner, true), nil
	case *ast.OptType:
		inner, err := r.FromExpr(v.Inner)
		if err != nil {
			return nil, err
		}
		return r.Opt(inner), nil
	case *ast.TupleExpr:
		params := make([]Type, len(v.Values))
		for i, val := range v.Values {
			t, err := r.FromExpr(val)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		return r.Tuple(params), nil
	case *ast.ElemExpr:
		baseName, ok := v.Obj.(*ast.NameExpr)
		if !ok {
			return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName, "invalid template base")
		}
		tplAny, ok := r.Lookup(baseName.Name)
		if !ok {
			return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName, "undefined template %q", baseName.Name)
		}
		tpl, ok := tplAny.(*TemplateType)
		if !ok {
			return nil, util.NewSemanticError(v.Pos(), util.ErrUndefinedName, "%q is not a template", baseName.Name)
		}
		var argExprs []ast.Expr
		if tup, ok := v.Key.(*ast.TupleExpr); ok {
			argExprs = tup.Values
		} else {
			argExprs = []ast.Expr{v.Key}
		}
		args := make([]Type, len(argExprs))
		for i, a := range argExprs {
			t, err := r.FromExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return r.Instantiate(tpl, args)
	default:
		return nil, fmt.Errorf("not a type-form expression: %T", e)
	}
}

// String renders a Type for diagnostics and CFG dumps.
func String(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.TypeName()
}

// MangleFragment renders t for the link-name mangling scheme spec.md §6
// specifies: `&→R, $→O, [→BT, ]→ET`.
func MangleFragment(t Type) string {
	s := t.TypeName()
	replacer := strings.NewReplacer("&", "R", "$", "O", "[", "BT", "]", "ET")
	return replacer.Replace(s)
}
