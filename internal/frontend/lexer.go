// Package frontend implements the lexer and parser: components 1 and 2 of
// the pipeline (spec.md §2). The lexer is a concurrent state-function
// scanner in the idiom of Rob Pike's "Lexical Scanning in Go" talk, the same
// design vslc/src/frontend/lexer.go borrows from; indentation promotion
// (spec.md §4.1) is the one state vslc never needed, since its own source
// language uses begin/end keywords instead of significant whitespace.
package frontend

import (
	"fmt"
	"unicode/utf8"

	"github.com/runalang/runac/internal/util"
	"golang.org/x/text/unicode/norm"
)

type stateFunc func(*lexer) stateFunc

const eof = 0

// lexer scans one source file into a stream of Tokens delivered over a
// channel; Lex drains that channel into a slice before the parser sees any
// token.
type lexer struct {
	file  string
	input string
	start int // Byte offset of the start of the token being scanned.
	pos   int // Current scan position.
	width int // Width in bytes of the last rune returned by next.

	line     int // Current line, 1-indexed.
	startCol int // Column of l.start on its line, 1-indexed.
	col      int // Column of l.pos, 1-indexed.
	lineHead int // Byte offset of the start of the current line.

	atLineStart bool       // True when the scanner is positioned right after a newline.
	indent      util.Stack // Stack of enclosing indent levels (tab counts); starts with a 0 sentinel.

	items chan Token // Emitted tokens.
	err   chan error // Fatal lexer errors (unterminated string, etc).
}

// newLexer prepares a lexer over src, NFC-normalizing it first so identifier
// comparisons and column counts over combining-mark sequences stay stable.
func newLexer(file, src string) *lexer {
	l := &lexer{
		file:        file,
		input:       norm.NFC.String(src),
		line:        1,
		startCol:    1,
		col:         1,
		atLineStart: true,
		items:       make(chan Token, 2),
		err:         make(chan error, 1),
	}
	l.indent.Push(0)
	return l
}

// run drives the state machine to completion, closing items when done.
func (l *lexer) run() {
	defer close(l.items)
	for state := stateFunc(lexLineStart); state != nil; {
		state = state(l)
	}
}

func (l *lexer) curPos() util.Position {
	return util.Position{
		File:      l.file,
		StartLine: l.line,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
		SrcLine:   l.currentLineText(),
	}
}

func (l *lexer) currentLineText() string {
	end := l.lineHead
	for end < len(l.input) && l.input[end] != '\n' {
		end++
	}
	return l.input[l.lineHead:end]
}

func (l *lexer) emit(k Kind) {
	l.items <- Token{Kind: k, Value: l.input[l.start:l.pos], Pos: l.curPos()}
	l.start = l.pos
	l.startCol = l.col
}

func (l *lexer) emitValue(k Kind, v string) {
	l.items <- Token{Kind: k, Value: v, Pos: l.curPos()}
	l.start = l.pos
	l.startCol = l.col
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
		l.lineHead = l.pos
	} else {
		l.col++
	}
	return r
}

func (l *lexer) backup() {
	if l.pos <= l.start {
		return
	}
	l.pos -= l.width
	if l.input[l.pos] == '\n' {
		l.line--
		l.col = 1 // Approximate: backing up across a newline is rare (only EOF checks do it).
	} else {
		l.col--
	}
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) ignore() {
	l.start = l.pos
	l.startCol = l.col
}

func (l *lexer) errorf(format string, args ...interface{}) stateFunc {
	l.err <- fmt.Errorf(format, args...)
	l.items <- Token{Kind: KindError, Value: fmt.Sprintf(format, args...), Pos: l.curPos()}
	return nil
}
