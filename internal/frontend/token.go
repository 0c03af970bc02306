package frontend

import (
	"fmt"

	"github.com/runalang/runac/internal/util"
)

// Kind differentiates the token variants spec.md §3 names. Numbers carry
// their own sub-kind (int vs float) rather than a separate NodeType, mirror
// of how vslc's lexer tags INTEGER/FLOAT as distinct item types from one
// numeric scan state.
type Kind int

const (
	KindName Kind = iota
	KindInt
	KindFloat
	KindString
	KindKeyword
	KindOperator
	KindDecorator
	KindIndent
	KindDedent
	KindNL
	KindEnd
	KindComment
	KindError
)

var kindNames = [...]string{
	"Name", "Int", "Float", "String", "Keyword", "Operator", "Decorator",
	"Indent", "Dedent", "NL", "End", "Comment", "Error",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "?"
	}
	return kindNames[k]
}

// Token is the tagged union spec.md §3 specifies: every variant shares a
// Kind, a literal Value and a Position; only the Kind distinguishes how
// Value should be interpreted.
type Token struct {
	Kind  Kind
	Value string
	Pos   util.Position
}

func (t Token) String() string {
	if len(t.Value) > 10 {
		return fmt.Sprintf("%s(%.10q...)", t.Kind, t.Value)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
}

// IsAtom reports whether the token is a NL/Indent/Dedent/End/Comment
// structural marker rather than carrying literal source text, used by the
// lexer round-trip property test (spec.md §8, property 1).
func (t Token) IsAtom() bool {
	switch t.Kind {
	case KindNL, KindIndent, KindDedent, KindEnd, KindComment:
		return true
	}
	return false
}
