package frontend

import "testing"

// TestLexerBasic verifies that a small sample program is tokenized into the
// expected stream, in the spirit of the teacher's table-driven lexer test:
// a hand-captured expected token slice checked element by element.
func TestLexerBasic(t *testing.T) {
	src := "def add(a: int32, b: int32) -> int32:\n" +
		"\treturn a + b\n"

	toks, err := Lex("sample.rn", src)
	if err != nil {
		t.Fatalf("Lex returned error: %s", err)
	}

	type want struct {
		kind Kind
		val  string
	}
	exp := []want{
		{KindKeyword, "def"},
		{KindName, "add"},
		{KindOperator, "("},
		{KindName, "a"},
		{KindOperator, ":"},
		{KindName, "int32"},
		{KindOperator, ","},
		{KindName, "b"},
		{KindOperator, ":"},
		{KindName, "int32"},
		{KindOperator, ")"},
		{KindOperator, "->"},
		{KindName, "int32"},
		{KindOperator, ":"},
		{KindNL, ""},
		{KindIndent, ""},
		{KindKeyword, "return"},
		{KindName, "a"},
		{KindOperator, "+"},
		{KindName, "b"},
		{KindNL, ""},
		{KindDedent, ""},
		{KindEnd, ""},
	}

	for i, e := range exp {
		if i >= len(toks) {
			t.Fatalf("expected %d tokens, got %d", len(exp), len(toks))
		}
		if toks[i].Kind != e.kind || toks[i].Value != e.val {
			t.Errorf("token %d: expected %s(%q), got %s(%q)", i, e.kind, e.val, toks[i].Kind, toks[i].Value)
		}
	}
	if len(toks) != len(exp) {
		t.Fatalf("expected %d tokens, got %d (extra: %v)", len(exp), len(toks), toks[len(exp):])
	}
}

// TestLexerIndentDedentNesting exercises nested indentation, the one state
// this scanner carries that the teacher's lexer never needed.
func TestLexerIndentDedentNesting(t *testing.T) {
	src := "def f():\n" +
		"\tif True:\n" +
		"\t\tpass\n" +
		"\treturn 0\n"

	toks, err := Lex("nest.rn", src)
	if err != nil {
		t.Fatalf("Lex returned error: %s", err)
	}

	var depth, maxDepth int
	for _, tok := range toks {
		switch tok.Kind {
		case KindIndent:
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case KindDedent:
			depth--
		}
	}
	if depth != 0 {
		t.Fatalf("unbalanced indent/dedent: ended at depth %d", depth)
	}
	if maxDepth != 2 {
		t.Fatalf("expected max indent depth 2, got %d", maxDepth)
	}
}

// TestLexerRoundTrip is the lexer round-trip property from spec.md §8
// (property 1): every non-atom, non-string token's Value appears verbatim
// in the source line recorded in its own Position, at the column recorded
// there.
func TestLexerRoundTrip(t *testing.T) {
	samples := []string{
		"def f(x: int32) -> int32:\n\treturn x\n",
		"x = 1 + 2 * 3\n",
		"class Box[T]:\n\tv: T\n",
	}
	for _, src := range samples {
		toks, err := Lex("roundtrip.rn", src)
		if err != nil {
			t.Fatalf("Lex(%q) returned error: %s", src, err)
		}
		for _, tok := range toks {
			if tok.IsAtom() || tok.Kind == KindString || tok.Value == "" {
				continue
			}
			line := tok.Pos.SrcLine
			col := tok.Pos.StartCol - 1
			if col < 0 || col+len(tok.Value) > len(line) {
				t.Errorf("token %s position %s falls outside its recorded source line %q", tok, tok.Pos, line)
				continue
			}
			if got := line[col : col+len(tok.Value)]; got != tok.Value {
				t.Errorf("token %s: source line %q at col %d reads %q, not %q", tok, line, tok.Pos.StartCol, got, tok.Value)
			}
		}
	}
}

// TestLexerUnterminatedString checks that an unclosed string literal is
// reported as a lexer error rather than silently consuming the rest of the
// file.
func TestLexerUnterminatedString(t *testing.T) {
	_, err := Lex("bad.rn", "x = \"unterminated\n")
	if err == nil {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}
