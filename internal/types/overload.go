package types

import (
	"fmt"
	"strings"

	"github.com/runalang/runac/internal/util"
)

// Select implements the overload resolution rule of spec.md §4.3: build the
// candidate list (appending __new__ for __init__), score each, and require
// exactly one candidate with a positive score.
//
// positional is the list of already-inferred argument types in source
// order; named maps a keyword argument's name to its type. self, when
// non-nil, is prepended as Ref(self) for __init__ resolution (constructor
// calls pass the freshly allocated Owner(T) as an implicit receiver).
func Select(pos util.Position, candidates []*FunctionDecl, mname string, positional []Type, named map[string]Type, self Type) (*FunctionDecl, error) {
	if mname == "__init__" && self != nil {
		// __init__ receives a Ref(self) receiver, not an Owner one: the
		// constructor doesn't free the value it's initializing.
		positional = append([]Type{&RefType{Elem: self}}, positional...)
	}

	type scored struct {
		fd    *FunctionDecl
		score int
	}
	var kept []scored
	for _, fd := range candidates {
		if _, ok := hasVarArgs(fd.Sig.Args); !ok && len(fd.Sig.Args) != len(positional)+len(named) {
			continue // Arity mismatch.
		}
		score, ok := scoreCandidate(fd, positional, named)
		if !ok {
			continue
		}
		if score > 0 {
			kept = append(kept, scored{fd, score})
		}
	}
	if len(kept) != 1 {
		return nil, noMatchError(pos, mname, candidates, len(kept))
	}
	return kept[0].fd, nil
}

func hasVarArgs(args []Type) (int, bool) {
	for i, a := range args {
		if _, ok := a.(VarArgsType); ok {
			return i, true
		}
	}
	return -1, false
}

// scoreCandidate applies spec.md's scoring rule: +10 for exact type match
// per arg, +1 for a successful compat(_,_,"args"), -1000 and reject on the
// first non-compat argument.
func scoreCandidate(fd *FunctionDecl, positional []Type, named map[string]Type) (int, bool) {
	args := fd.Sig.Args
	score := 0
	for i, actual := range positional {
		if i >= len(args) {
			if _, ok := hasVarArgs(args); ok {
				continue
			}
			return 0, false
		}
		formal := args[i]
		if _, ok := formal.(VarArgsType); ok {
			continue
		}
		switch {
		case sameType(actual, formal):
			score += 10
		case Compat(actual, formal, ModeArgs):
			score++
		default:
			return 0, false
		}
	}
	for name, actual := range named {
		idx := indexOfArgName(fd.Sig.ArgNames, name)
		if idx < 0 || idx >= len(args) {
			return 0, false
		}
		formal := args[idx]
		switch {
		case sameType(actual, formal):
			score += 10
		case Compat(actual, formal, ModeArgs):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}

func indexOfArgName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func noMatchError(pos util.Position, mname string, candidates []*FunctionDecl, kept int) error {
	var sb strings.Builder
	if kept == 0 {
		sb.WriteString(fmt.Sprintf("no matching method found for %q; candidates:", mname))
	} else {
		sb.WriteString(fmt.Sprintf("ambiguous call to %q; candidates:", mname))
	}
	for _, fd := range candidates {
		sb.WriteString("\n  ")
		sb.WriteString(fd.Name)
		sb.WriteString(fd.Sig.TypeName())
	}
	return util.NewSemanticError(pos, util.ErrNoOverload, "%s", sb.String())
}
