package types

// Mode distinguishes the three compatibility contexts spec.md §4.3 names.
type Mode int

const (
	// ModeDefault is general subsumption (assignment, phi unification).
	ModeDefault Mode = iota
	// ModeArgs is argument passing: one level of wrap/unwrap is allowed
	// either way.
	ModeArgs
	// ModeReturn forbids Owner→Ref degradation on return.
	ModeReturn
)

// Compat decides whether actual type a may pass as formal type f, per the
// eleven ordered rules of spec.md §4.3. The first applicable rule wins.
func Compat(a, f Type, mode Mode) bool {
	// Rule 1: both Concrete-with-params — pairwise compat on params with args mode.
	if ac, ok := a.(*ConcreteType); ok {
		if fc, ok := f.(*ConcreteType); ok {
			if ac.Template != fc.Template || len(ac.Args) != len(fc.Args) {
				return false
			}
			for i := range ac.Args {
				if !Compat(ac.Args[i], fc.Args[i], ModeArgs) {
					return false
				}
			}
			return true
		}
	}

	// Rule 2: both sequences (tuples) — equal length, trailing VarArgs
	// absorbs the tail.
	if at, ok := a.(*TupleType); ok {
		if ft, ok := f.(*TupleType); ok {
			return tupleCompat(at.Params, ft.Params)
		}
	}

	// Rule 3: equal.
	if sameType(a, f) {
		return true
	}

	// Rule 4: AnyInt vs any sized integer type.
	if _, ok := a.(AnyIntType); ok {
		if _, ok := f.(IntType); ok {
			return true
		}
	}
	if _, ok := a.(AnyFloatType); ok {
		if _, ok := f.(FloatType); ok {
			return true
		}
	}

	// Rule 5: Ref supplied for Owner required — cannot steal a borrow.
	if _, fOwner := f.(*OwnerType); fOwner {
		if _, aRef := a.(*RefType); aRef {
			return false
		}
	}

	// Rule 6: non-opt supplied for Opt(T) — recurse with T. NoType (the
	// `None` literal's type) terminates here rather than recursing: it
	// denotes the null case regardless of T, the same way spec.md §4.6's
	// Phi rule promotes a bare NoType arm to Opt(T) without inspecting T.
	if fo, ok := f.(*OptType); ok {
		if _, aIsNo := a.(NoType); aIsNo {
			return true
		}
		if _, aIsOpt := a.(*OptType); !aIsOpt {
			return Compat(a, fo.Elem, mode)
		}
	}

	// Rule 7: unsigned-to-unsigned widening only if strictly fewer bits.
	if ai, ok := a.(IntType); ok {
		if fi, ok := f.(IntType); ok {
			if !ai.Signed && !fi.Signed && ai.Bits < fi.Bits {
				return true
			}
		}
	}

	// Rule 8: both wrapped — recurse on underlyings.
	if aw, aok := wrapperElem(a); aok {
		if fw, fok := wrapperElem(f); fok && sameWrapperKind(a, f) {
			return Compat(aw, fw, mode)
		}
	}

	// Rule 9: args mode with exactly one side wrapped — recurse on underlyings.
	if mode == ModeArgs {
		aw, aok := wrapperElem(a)
		fw, fok := wrapperElem(f)
		if aok != fok {
			switch {
			case aok && !fok:
				return Compat(aw, f, mode)
			case !aok && fok:
				return Compat(a, fw, mode)
			}
		}
	}

	// Rule 10: formal is a trait — every method must be present on the
	// actual with matching return type and structurally matching arg
	// tuples (arg 0, the receiver, excluded).
	if ft, ok := f.(*TraitType); ok {
		return implementsTrait(a, ft)
	}

	// Rule 11: otherwise, false.
	return false
}

func tupleCompat(a, f []Type) bool {
	for i, ft := range f {
		if _, ok := ft.(VarArgsType); ok {
			return true // Trailing VarArgs absorbs the rest of a.
		}
		if i >= len(a) {
			return false
		}
		if !Compat(a[i], ft, ModeArgs) {
			return false
		}
	}
	return len(a) == len(f)
}

// wrapperElem reports whether t is an Owner/Ref/Opt wrapper and its element.
func wrapperElem(t Type) (Type, bool) {
	switch v := t.(type) {
	case *OwnerType:
		return v.Elem, true
	case *RefType:
		return v.Elem, true
	case *OptType:
		return v.Elem, true
	default:
		return nil, false
	}
}

// sameWrapperKind reports whether a and f are the same wrapper kind (both
// Owner, both Ref, or both Opt) — rule 8 only recurses same-kind pairs; a
// cross-kind pair (e.g. Owner vs Ref) is handled by rules 5/9 instead. A
// mut Ref (`~&T`) counts as the same kind as a plain `&T` formal, but a
// plain Ref never matches a mut formal.
func sameWrapperKind(a, f Type) bool {
	switch v := a.(type) {
	case *OwnerType:
		_, ok := f.(*OwnerType)
		return ok
	case *RefType:
		fr, ok := f.(*RefType)
		return ok && (v.Mut || !fr.Mut)
	case *OptType:
		_, ok := f.(*OptType)
		return ok
	}
	return false
}

// implementsTrait checks rule 10: every method of ft is present on a
// (after unwrapping) with a matching return type and structurally matching
// argument tuple, excluding the receiver (arg 0).
func implementsTrait(a Type, ft *TraitType) bool {
	methods := methodTableOf(UnwrapAll(a))
	if methods == nil {
		return false
	}
	for name, want := range ft.Methods {
		have, ok := methods[name]
		if !ok {
			return false
		}
		if !anyOverloadMatches(have, want) {
			return false
		}
	}
	return true
}

func anyOverloadMatches(have, want []*FunctionDecl) bool {
	for _, h := range have {
		for _, w := range want {
			if methodSigMatches(h.Sig, w.Sig) {
				return true
			}
		}
	}
	return false
}

// methodSigMatches compares two method signatures ignoring the receiver
// (argument 0), per rule 10.
func methodSigMatches(h, w *FunctionType) bool {
	if !sameType(h.Ret, w.Ret) {
		return false
	}
	ha, wa := h.Args, w.Args
	if len(ha) > 0 {
		ha = ha[1:]
	}
	if len(wa) > 0 {
		wa = wa[1:]
	}
	if len(ha) != len(wa) {
		return false
	}
	for i := range ha {
		if !Compat(ha[i], wa[i], ModeArgs) {
			return false
		}
	}
	return true
}

func methodTableOf(t Type) MethodTable {
	switch v := t.(type) {
	case *StructType:
		return v.Methods
	case *ConcreteType:
		return v.Methods
	case *TraitType:
		return v.Methods
	default:
		return nil
	}
}
