package lir

import (
	"strings"

	"github.com/runalang/runac/internal/types"
)

// LinkName computes a function's mangled name per spec.md §6: "method
// overloads mangle formal types into the link-name via `&→R, $→O, [→BT,
// ]→ET`. Non-generic standalone functions keep their source name; main is
// always emitted as main." Overload requires a receiver type for methods
// (nil for a standalone function) since only methods and overloaded
// standalone functions are mangled at all.
func LinkName(decl *types.FunctionDecl, self types.Type, overloaded bool) string {
	if decl.Name == "main" {
		return "main"
	}
	if !overloaded && self == nil {
		return decl.Name
	}
	var sb strings.Builder
	sb.WriteString(decl.Name)
	if self != nil {
		sb.WriteString("_")
		sb.WriteString(types.MangleFragment(self))
	}
	for _, a := range decl.Sig.Args {
		sb.WriteString("_")
		sb.WriteString(types.MangleFragment(a))
	}
	return sb.String()
}
