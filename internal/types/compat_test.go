package types

import (
	"testing"

	"github.com/runalang/runac/internal/util"
)

func zeroPos() util.Position { return util.Position{} }

func TestCompatExact(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	if !Compat(i32, i32, ModeDefault) {
		t.Fatalf("expected int32 compat with itself")
	}
}

func TestCompatAnyIntToSized(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	if !Compat(r.AnyInt(), i32, ModeDefault) {
		t.Fatalf("expected AnyInt compat with int32")
	}
	if Compat(i32, r.AnyInt(), ModeDefault) {
		t.Fatalf("expected int32 not compat with AnyInt as formal")
	}
}

func TestCompatRefForOwnerRejected(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	owner := r.Owner(i32)
	ref := r.Ref(i32, false)
	if Compat(ref, owner, ModeDefault) {
		t.Fatalf("expected Ref not compat with required Owner (rule 5)")
	}
}

func TestCompatNonOptForOpt(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	ref := r.Ref(i32, false)
	opt := r.Opt(ref)
	if !Compat(ref, opt, ModeDefault) {
		t.Fatalf("expected non-opt Ref compat with Opt(Ref) (rule 6)")
	}
}

func TestCompatUnsignedWidening(t *testing.T) {
	r := NewRegistry()
	u8 := r.Uint(8)
	u32 := r.Uint(32)
	if !Compat(u8, u32, ModeDefault) {
		t.Fatalf("expected uint8 compat with wider uint32 (rule 7)")
	}
	if Compat(u32, u8, ModeDefault) {
		t.Fatalf("expected uint32 not compat with narrower uint8")
	}
}

func TestCompatMutRefOneDirectional(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	mutRef := r.Ref(i32, true)
	plainRef := r.Ref(i32, false)
	// `~&T` (mut) and `&T` (non-mut) are distinct interned types; rule 8
	// lets a mut ref pass where a plain ref is formal, but never the
	// reverse.
	if !Compat(mutRef, plainRef, ModeDefault) {
		t.Fatalf("expected ~&T compat with &T")
	}
	if Compat(plainRef, mutRef, ModeDefault) {
		t.Fatalf("expected &T not compat with ~&T")
	}
}

func TestCompatTraitStructural(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	trait := NewTrait("Shape", []string{"area"}, MethodTable{
		"area": {{Name: "area", Sig: &FunctionType{Ret: i32, Args: []Type{i32}, ArgNames: []string{"self"}}}},
	})
	box := NewStruct("Box", nil, AttribTable{}, MethodTable{
		"area": {{Name: "area", Sig: &FunctionType{Ret: i32, Args: []Type{i32}, ArgNames: []string{"self"}}}},
	})
	if !Compat(box, trait, ModeDefault) {
		t.Fatalf("expected Box to structurally implement Shape")
	}

	missing := NewStruct("Blob", nil, AttribTable{}, MethodTable{})
	if Compat(missing, trait, ModeDefault) {
		t.Fatalf("expected Blob, lacking area(), not to implement Shape")
	}
}

func TestOverloadSelectUnique(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	f64 := r.Float()
	candidates := []*FunctionDecl{
		{Name: "f", Sig: &FunctionType{Ret: i32, Args: []Type{i32}, ArgNames: []string{"x"}}},
		{Name: "f", Sig: &FunctionType{Ret: i32, Args: []Type{f64}, ArgNames: []string{"x"}}},
	}
	fd, err := Select(zeroPos(), candidates, "f", []Type{i32}, nil, nil)
	if err != nil {
		t.Fatalf("Select: %s", err)
	}
	if fd.Sig.Args[0] != i32 {
		t.Fatalf("expected the int32 overload selected")
	}
}

func TestOverloadSelectAmbiguousAnyInt(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	i64, _ := r.Lookup("int64")
	candidates := []*FunctionDecl{
		{Name: "f", Sig: &FunctionType{Ret: i32, Args: []Type{i32}, ArgNames: []string{"x"}}},
		{Name: "f", Sig: &FunctionType{Ret: i64, Args: []Type{i64}, ArgNames: []string{"x"}}},
	}
	// Both candidates score +1 (AnyInt coerces to either sized int); the
	// call is genuinely ambiguous until the specializer narrows the
	// literal, so Select correctly reports it rather than guessing.
	if _, err := Select(zeroPos(), candidates, "f", []Type{r.AnyInt()}, nil, nil); err == nil {
		t.Fatalf("expected an ambiguous-overload error for an unresolved AnyInt literal")
	}
}

func TestOverloadSelectNoMatch(t *testing.T) {
	r := NewRegistry()
	i32, _ := r.Lookup("int32")
	candidates := []*FunctionDecl{
		{Name: "f", Sig: &FunctionType{Ret: i32, Args: []Type{i32}, ArgNames: []string{"x"}}},
	}
	if _, err := Select(zeroPos(), candidates, "f", []Type{r.Bool()}, nil, nil); err == nil {
		t.Fatalf("expected no-match error passing a bool where int32 is required")
	}
}
