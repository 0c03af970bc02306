package frontend

import (
	"fmt"

	"github.com/runalang/runac/internal/ast"
	"github.com/runalang/runac/internal/util"
)

// Precedence levels, low to high, per spec.md §4.2:
// COMMA < IF < OR < AND < NOT < (comparisons, IS) < | < ^ < & < +- < * / % < AS < [ < .
const (
	lpComma = iota + 1
	lpTernary
	lpOr
	lpAnd
	lpNot
	lpCompare
	lpBitOr
	lpBitXor
	lpBitAnd
	lpShift
	lpAddSub
	lpMulDiv
	lpAs
	lpElem
	lpAttrib
)

// ParseError is returned directly by package functions below; it aliases
// util.ParseError so callers don't need to import internal/util just to
// type-assert.
type ParseError = util.ParseError

// parser walks a flat token slice by index (peekAt looks ahead), building the
// Pratt-parsed expression tree and the recursive-descent statement/suite
// tree in the same pass (spec.md §4.2).
type parser struct {
	file  string
	toks  []Token
	pos   int
	decor map[string]bool // Decorators collected since the last def/class/trait.
}

// ParseFile lexes and parses src into a File. This is component 1+2 of the
// pipeline: a single call that produces the AST handed to internal/cfg.
func ParseFile(path, src string) (*ast.File, error) {
	toks, err := Lex(path, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: path, toks: toks}
	return p.parseFile()
}

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: KindEnd}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return Token{Kind: KindEnd}
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) *ParseError {
	t := p.cur()
	return util.NewParseError(t.Pos, format, args...)
}

func (p *parser) unexpected() *ParseError {
	t := p.cur()
	return p.errorf("unexpected token %s (%s)", t.Kind, t.Value)
}

// skipNL consumes any number of NL tokens (blank lines between statements).
func (p *parser) skipNL() {
	for p.cur().Kind == KindNL {
		p.advance()
	}
}

func (p *parser) isOp(v string) bool {
	t := p.cur()
	return t.Kind == KindOperator && t.Value == v
}

func (p *parser) isKw(v string) bool {
	t := p.cur()
	return t.Kind == KindKeyword && t.Value == v
}

func (p *parser) expectOp(v string) (Token, error) {
	if !p.isOp(v) {
		return Token{}, p.errorf("unexpected token %s (%s), expected %q", p.cur().Kind, p.cur().Value, v)
	}
	return p.advance(), nil
}

func (p *parser) expectKw(v string) (Token, error) {
	if !p.isKw(v) {
		return Token{}, p.errorf("unexpected token %s (%s), expected %q", p.cur().Kind, p.cur().Value, v)
	}
	return p.advance(), nil
}

func (p *parser) expectKind(k Kind) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, p.errorf("unexpected token %s (%s), expected %s", p.cur().Kind, p.cur().Value, k)
	}
	return p.advance(), nil
}

// ---------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------

func (p *parser) parseFile() (*ast.File, error) {
	f := &ast.File{Path: p.file}
	p.skipNL()
	for p.cur().Kind != KindEnd {
		d, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
		p.skipNL()
	}
	return f, nil
}

func (p *parser) parseTopLevel() (ast.Decl, error) {
	for p.cur().Kind == KindDecorator {
		if p.decor == nil {
			p.decor = map[string]bool{}
		}
		p.decor[p.cur().Value] = true
		p.advance()
		p.skipNL()
	}
	switch {
	case p.isKw("def"):
		return p.parseDef()
	case p.isKw("class"):
		return p.parseClass()
	case p.isKw("trait"):
		return p.parseTrait()
	case p.isKw("import"), p.isKw("from"):
		// Imports are folded into the decl stream as statements wrapped for
		// module-scope resolution (no later pass acts on them).
		return p.parseImportDecl()
	default:
		return nil, p.unexpected()
	}
}

func (p *parser) takeDecor() map[string]bool {
	d := p.decor
	p.decor = nil
	return d
}

// ---------------------------------------------------------------------
// def / class / trait
// ---------------------------------------------------------------------

func (p *parser) parseDef() (ast.Decl, error) {
	pos := p.cur().Pos
	if _, err := p.expectKw("def"); err != nil {
		return nil, err
	}
	name, err := p.expectKind(KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	args, err := p.parseParamList(")")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	var rtype ast.Expr
	if p.isOp("->") {
		p.advance()
		rtype, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	decor := p.takeDecor()
	if p.cur().Kind == KindNL {
		// No ':' — this is an external declaration (spec.md §4.2).
		return ast.NewExternDecl(pos, name.Value, args, rtype), nil
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	suite, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionDecl(pos, decor, name.Value, args, rtype, suite), nil
}

func (p *parser) parseParamList(closer string) ([]ast.Param, error) {
	var params []ast.Param
	for !p.isOp(closer) {
		n, err := p.expectKind(KindName)
		if err != nil {
			return nil, err
		}
		var t ast.Expr
		if p.isOp(":") {
			p.advance()
			t, err = p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Name: n.Value, Type: t})
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

func (p *parser) parseClass() (ast.Decl, error) {
	pos := p.cur().Pos
	p.advance() // 'class'
	name, err := p.expectKind(KindName)
	if err != nil {
		return nil, err
	}
	params, err := p.parseOptionalTypeParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(KindNL); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(KindIndent); err != nil {
		return nil, err
	}
	var attribs []ast.Param
	var methods []*ast.FunctionDecl
	for p.cur().Kind != KindDedent {
		p.skipNL()
		if p.cur().Kind == KindDedent {
			break
		}
		if p.isKw("pass") {
			p.advance()
			p.skipNL()
			continue
		}
		for p.cur().Kind == KindDecorator {
			if p.decor == nil {
				p.decor = map[string]bool{}
			}
			p.decor[p.cur().Value] = true
			p.advance()
		}
		if p.isKw("def") {
			d, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			fn, ok := d.(*ast.FunctionDecl)
			if !ok {
				return nil, p.errorf("class method must have a body")
			}
			fn.Method = true
			methods = append(methods, fn)
		} else {
			n, err := p.expectKind(KindName)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(":"); err != nil {
				return nil, err
			}
			t, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			attribs = append(attribs, ast.Param{Name: n.Value, Type: t})
			if _, err := p.expectKind(KindNL); err != nil {
				return nil, err
			}
		}
		p.skipNL()
	}
	if _, err := p.expectKind(KindDedent); err != nil {
		return nil, err
	}
	return ast.NewClassDecl(pos, name.Value, params, attribs, methods), nil
}

func (p *parser) parseTrait() (ast.Decl, error) {
	pos := p.cur().Pos
	p.advance() // 'trait'
	name, err := p.expectKind(KindName)
	if err != nil {
		return nil, err
	}
	params, err := p.parseOptionalTypeParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(KindNL); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(KindIndent); err != nil {
		return nil, err
	}
	var methods []*ast.FunctionDecl
	for p.cur().Kind != KindDedent {
		p.skipNL()
		if p.cur().Kind == KindDedent {
			break
		}
		if p.isKw("pass") {
			p.advance()
			p.skipNL()
			continue
		}
		d, err := p.parseDef()
		if err != nil {
			return nil, err
		}
		if fn, ok := d.(*ast.FunctionDecl); ok {
			fn.Method = true
			methods = append(methods, fn)
		} else if ex, ok := d.(*ast.ExternDecl); ok {
			sig := ast.NewFunctionDecl(ex.Pos(), nil, ex.Name, ex.Args, ex.RType, nil)
			sig.Method = true
			methods = append(methods, sig)
		}
		p.skipNL()
	}
	if _, err := p.expectKind(KindDedent); err != nil {
		return nil, err
	}
	return ast.NewTraitDecl(pos, name.Value, params, methods), nil
}

func (p *parser) parseOptionalTypeParams() ([]string, error) {
	if !p.isOp("[") {
		return nil, nil
	}
	p.advance()
	var params []string
	for !p.isOp("]") {
		n, err := p.expectKind(KindName)
		if err != nil {
			return nil, err
		}
		params = append(params, n.Value)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) parseImportDecl() (ast.Decl, error) {
	// Imports are modeled as statements but may appear at file scope; wrap
	// them in a synthetic FunctionDecl-less container is unnecessary since
	// internal/cfg's module builder accepts ast.Stmt at file scope too via
	// the File.Decls []Decl slot — represent with a tiny Decl adapter.
	pos := p.cur().Pos
	if p.isKw("import") {
		p.advance()
		n, err := p.expectKind(KindName)
		if err != nil {
			return nil, err
		}
		path := n.Value
		for p.isOp(".") {
			p.advance()
			n, err := p.expectKind(KindName)
			if err != nil {
				return nil, err
			}
			path += "." + n.Value
		}
		return &importDeclAdapter{ast.NewImport(pos, path)}, nil
	}
	p.advance() // 'from'
	base, err := p.expectKind(KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKw("import"); err != nil {
		return nil, err
	}
	var names []string
	for {
		n, err := p.expectKind(KindName)
		if err != nil {
			return nil, err
		}
		names = append(names, n.Value)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	return &importDeclAdapter{ast.NewRelImport(pos, base.Value, names)}, nil
}

// importDeclAdapter lets an ast.Stmt (Import/RelImport) sit in a File's
// Decls slot, since imports are file-scope but not a Class/Trait/Function.
type importDeclAdapter struct{ ast.Stmt }

func (a *importDeclAdapter) declNode() {}

// ---------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------

// parseTypeExpr parses a type-form: a bare name, `Name[Args]` (template
// instantiation), or a `$`/`&`/`?`/`~` prefix wrapping another type-form.
func (p *parser) parseTypeExpr() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Kind == KindOperator && t.Value == "$":
		pos := t.Pos
		p.advance()
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewOwnerType(pos, inner), nil
	case t.Kind == KindOperator && t.Value == "&":
		pos := t.Pos
		p.advance()
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewRefType(pos, inner), nil
	case t.Kind == KindOperator && t.Value == "?":
		pos := t.Pos
		p.advance()
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewOptType(pos, inner), nil
	case t.Kind == KindOperator && t.Value == "~":
		pos := t.Pos
		p.advance()
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewMutType(pos, inner), nil
	case t.Kind == KindName || (t.Kind == KindKeyword && t.Value == "int") || (t.Kind == KindKeyword && t.Value == "float"):
		name := t.Value
		p.advance()
		base := ast.NewName(t.Pos, name)
		if p.isOp("[") {
			p.advance()
			var args []ast.Expr
			for !p.isOp("]") {
				a, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.isOp(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			return ast.NewElem(t.Pos, base, ast.NewTuple(t.Pos, args)), nil
		}
		return base, nil
	case t.Kind == KindOperator && t.Value == "(":
		// Tuple type: (A, B).
		pos := t.Pos
		p.advance()
		var parts []ast.Expr
		for !p.isOp(")") {
			a, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			parts = append(parts, a)
			if p.isOp(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return ast.NewTuple(pos, parts), nil
	default:
		return nil, p.unexpected()
	}
}

// ---------------------------------------------------------------------
// Suites & statements
// ---------------------------------------------------------------------

func (p *parser) parseSuite() ([]ast.Stmt, error) {
	if _, err := p.expectKind(KindNL); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(KindIndent); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for {
		p.skipNL()
		if p.cur().Kind == KindDedent {
			break
		}
		if p.cur().Kind == KindEnd {
			return nil, p.errorf("unexpected end of file, expected DEDENT")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expectKind(KindDedent); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	t := p.cur()
	switch {
	case t.Kind == KindKeyword && t.Value == "if":
		return p.parseIf()
	case t.Kind == KindKeyword && t.Value == "while":
		return p.parseWhile()
	case t.Kind == KindKeyword && t.Value == "for":
		return p.parseFor()
	case t.Kind == KindKeyword && t.Value == "try":
		return p.parseTry()
	case t.Kind == KindKeyword && t.Value == "return":
		return p.parseSimpleValueStmt("return", ast.NewReturn)
	case t.Kind == KindKeyword && t.Value == "yield":
		return p.parseSimpleValueStmt("yield", ast.NewYield)
	case t.Kind == KindKeyword && t.Value == "raise":
		return p.parseSimpleValueStmt("raise", ast.NewRaise)
	case t.Kind == KindKeyword && t.Value == "pass":
		p.advance()
		return ast.NewPass(t.Pos), p.endOfStmt()
	case t.Kind == KindKeyword && t.Value == "break":
		p.advance()
		return ast.NewBreak(t.Pos), p.endOfStmt()
	case t.Kind == KindKeyword && t.Value == "continue":
		p.advance()
		return ast.NewContinue(t.Pos), p.endOfStmt()
	case t.Kind == KindKeyword && (t.Value == "import" || t.Value == "from"):
		d, err := p.parseImportDecl()
		if err != nil {
			return nil, err
		}
		return d.(*importDeclAdapter).Stmt, p.endOfStmt()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) endOfStmt() error {
	if p.cur().Kind == KindNL || p.cur().Kind == KindEnd || p.cur().Kind == KindDedent {
		if p.cur().Kind == KindNL {
			p.advance()
		}
		return nil
	}
	return p.unexpected()
}

func (p *parser) parseSimpleValueStmt(kw string, build func(util.Position, ast.Expr) ast.Stmt) (ast.Stmt, error) {
	pos := p.cur().Pos
	p.advance()
	if p.cur().Kind == KindNL || p.cur().Kind == KindDedent || p.cur().Kind == KindEnd {
		s := build(pos, nil)
		return s, p.endOfStmt()
	}
	// minbp 0, not lpComma: `return a, b` builds one TupleExpr via led's
	// comma case rather than stopping at the first element.
	v, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return build(pos, v), p.endOfStmt()
}

func (p *parser) parseExprOrAssignStmt() (ast.Stmt, error) {
	pos := p.cur().Pos
	// minbp 0: a bare comma list at statement level (assignment target,
	// return/expr value) folds into one TupleExpr via led's comma case.
	lhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.isOp("=") {
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(pos, lhs, rhs), p.endOfStmt()
	}
	if p.isOp("+=") {
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.NewIAdd(pos, lhs, rhs), p.endOfStmt()
	}
	return ast.NewExprStmt(pos, lhs), p.endOfStmt()
}

func (p *parser) parseIf() (ast.Stmt, error) {
	pos := p.cur().Pos
	var arms []ast.IfArm
	p.advance() // 'if'
	cond, err := p.parseExpr(lpComma)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	suite, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	arms = append(arms, ast.IfArm{Cond: cond, Suite: suite})
	for p.isKw("elif") {
		p.advance()
		c, err := p.parseExpr(lpComma)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		s, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Cond: c, Suite: s})
	}
	if p.isKw("else") {
		p.advance()
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		s, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Cond: nil, Suite: s})
	}
	return ast.NewIf(pos, arms), nil
}

func (p *parser) parseWhile() (ast.Stmt, error) {
	pos := p.cur().Pos
	p.advance()
	cond, err := p.parseExpr(lpComma)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	suite, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(pos, cond, suite), nil
}

func (p *parser) parseFor() (ast.Stmt, error) {
	pos := p.cur().Pos
	p.advance()
	lvar, err := p.expectKind(KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKw("in"); err != nil {
		return nil, err
	}
	src, err := p.parseExpr(lpComma)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	suite, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return ast.NewFor(pos, lvar.Value, src, suite), nil
}

func (p *parser) parseTry() (ast.Stmt, error) {
	pos := p.cur().Pos
	p.advance()
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	suite, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	var catches []ast.CatchArm
	for p.isKw("except") {
		p.advance()
		typ, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		s, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		catches = append(catches, ast.CatchArm{Type: typ, Suite: s})
	}
	return ast.NewTry(pos, suite, catches), nil
}

// ---------------------------------------------------------------------
// Pratt expression parser
// ---------------------------------------------------------------------

func (p *parser) lbp(t Token) int {
	if t.Kind == KindKeyword {
		switch t.Value {
		case "if":
			return lpTernary
		case "or":
			return lpOr
		case "and":
			return lpAnd
		case "is":
			return lpCompare
		case "as":
			return lpAs
		}
		return 0
	}
	if t.Kind != KindOperator {
		return 0
	}
	switch t.Value {
	case ",":
		return lpComma
	case "==", "!=", "<", ">", "<=", ">=":
		return lpCompare
	case "|":
		return lpBitOr
	case "^":
		return lpBitXor
	case "&":
		return lpBitAnd
	case "+", "-":
		return lpAddSub
	case "*", "/", "%":
		return lpMulDiv
	case "[":
		return lpElem
	case ".":
		return lpAttrib
	case "(":
		return lpAttrib // call binds as tight as attribute access.
	}
	return 0
}

// parseExpr parses an expression with the Pratt algorithm: a nud for the
// first token, then led applications while the next token's lbp exceeds
// minbp.
func (p *parser) parseExpr(minbp int) (ast.Expr, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}
	for p.lbp(p.cur()) > minbp {
		left, err = p.led(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) nud() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Kind == KindKeyword && t.Value == "None":
		p.advance()
		return ast.NewNone(t.Pos), nil
	case t.Kind == KindKeyword && t.Value == "True":
		p.advance()
		return ast.NewBool(t.Pos, true), nil
	case t.Kind == KindKeyword && t.Value == "False":
		p.advance()
		return ast.NewBool(t.Pos, false), nil
	case t.Kind == KindInt:
		p.advance()
		return ast.NewInt(t.Pos, t.Value), nil
	case t.Kind == KindFloat:
		p.advance()
		return ast.NewFloat(t.Pos, t.Value), nil
	case t.Kind == KindString:
		p.advance()
		return ast.NewString(t.Pos, t.Value), nil
	case t.Kind == KindName:
		p.advance()
		return ast.NewName(t.Pos, t.Value), nil
	case t.Kind == KindKeyword && t.Value == "not":
		p.advance()
		v, err := p.parseExpr(lpNot)
		if err != nil {
			return nil, err
		}
		return ast.NewNot(t.Pos, v), nil
	case t.Kind == KindOperator && t.Value == "-":
		p.advance()
		v, err := p.parseExpr(lpMulDiv)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(t.Pos, ast.OpSub, ast.NewInt(t.Pos, "0"), v), nil
	case t.Kind == KindOperator && t.Value == "+":
		p.advance()
		return p.parseExpr(lpMulDiv)
	case t.Kind == KindOperator && t.Value == "~":
		return p.parseTypeExpr()
	case t.Kind == KindOperator && t.Value == "$":
		return p.parseTypeExpr()
	case t.Kind == KindOperator && t.Value == "?":
		return p.parseTypeExpr()
	case t.Kind == KindOperator && t.Value == "(":
		p.advance()
		if p.isOp(")") {
			p.advance()
			return ast.NewTuple(t.Pos, nil), nil
		}
		first, err := p.parseExpr(lpComma) // one comma-free element; commas split manually below
		if err != nil {
			return nil, err
		}
		if p.isOp(",") {
			vals := []ast.Expr{first}
			for p.isOp(",") {
				p.advance()
				if p.isOp(")") {
					break
				}
				v, err := p.parseExpr(lpComma)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return ast.NewTuple(t.Pos, vals), nil
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return first, nil
	default:
		return nil, p.unexpected()
	}
}

func (p *parser) led(left ast.Expr) (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Kind == KindKeyword && t.Value == "if":
		p.advance()
		cond, err := p.parseExpr(lpTernary)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKw("else"); err != nil {
			return nil, err
		}
		els, err := p.parseExpr(lpTernary)
		if err != nil {
			return nil, err
		}
		return ast.NewTernary(t.Pos, cond, left, els), nil
	case t.Kind == KindKeyword && t.Value == "or":
		p.advance()
		r, err := p.parseExpr(lpOr)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(t.Pos, ast.OpOr, left, r), nil
	case t.Kind == KindKeyword && t.Value == "and":
		p.advance()
		r, err := p.parseExpr(lpAnd)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(t.Pos, ast.OpAnd, left, r), nil
	case t.Kind == KindKeyword && t.Value == "is":
		p.advance()
		r, err := p.parseExpr(lpCompare)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(t.Pos, ast.OpIs, left, r), nil
	case t.Kind == KindKeyword && t.Value == "as":
		p.advance()
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewAs(t.Pos, left, ty), nil
	case t.Kind == KindOperator:
		switch t.Value {
		case ",":
			// Bare tuple at expression level (e.g. a return of multiple values).
			p.advance()
			vals := []ast.Expr{left}
			for {
				v, err := p.parseExpr(lpComma)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
				if p.isOp(",") {
					p.advance()
					continue
				}
				break
			}
			return ast.NewTuple(left.Pos(), vals), nil
		case "==":
			return p.binLed(t, left, ast.OpEq, lpCompare)
		case "!=":
			return p.binLed(t, left, ast.OpNe, lpCompare)
		case "<":
			return p.binLed(t, left, ast.OpLt, lpCompare)
		case ">":
			return p.binLed(t, left, ast.OpGt, lpCompare)
		case "<=":
			return p.binLed(t, left, ast.OpLe, lpCompare)
		case ">=":
			return p.binLed(t, left, ast.OpGe, lpCompare)
		case "|":
			return p.binLed(t, left, ast.OpBitOr, lpBitOr)
		case "^":
			return p.binLed(t, left, ast.OpBitXor, lpBitXor)
		case "&":
			return p.binLed(t, left, ast.OpBitAnd, lpBitAnd)
		case "+":
			return p.binLed(t, left, ast.OpAdd, lpAddSub)
		case "-":
			return p.binLed(t, left, ast.OpSub, lpAddSub)
		case "*":
			return p.binLed(t, left, ast.OpMul, lpMulDiv)
		case "/":
			return p.binLed(t, left, ast.OpDiv, lpMulDiv)
		case "%":
			return p.binLed(t, left, ast.OpMod, lpMulDiv)
		case ".":
			p.advance()
			n, err := p.expectKind(KindName)
			if err != nil {
				return nil, err
			}
			return ast.NewAttrib(t.Pos, left, n.Value), nil
		case "[":
			p.advance()
			key, err := p.parseExpr(lpComma)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			return ast.NewElem(t.Pos, left, key), nil
		case "(":
			p.advance()
			var args []ast.Expr
			for !p.isOp(")") {
				a, err := p.parseCallArg()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.isOp(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return ast.NewCall(t.Pos, left, args), nil
		}
	}
	return nil, fmt.Errorf("led: unhandled token %s", t)
}

func (p *parser) binLed(t Token, left ast.Expr, op ast.BinOp, bp int) (ast.Expr, error) {
	p.advance()
	r, err := p.parseExpr(bp)
	if err != nil {
		return nil, err
	}
	return ast.NewBinary(t.Pos, op, left, r), nil
}

func (p *parser) parseCallArg() (ast.Expr, error) {
	if p.cur().Kind == KindName && p.peekAt(1).Kind == KindOperator && p.peekAt(1).Value == "=" {
		n := p.advance()
		p.advance() // '='
		v, err := p.parseExpr(lpComma)
		if err != nil {
			return nil, err
		}
		return ast.NewNamedArg(n.Pos, n.Value, v), nil
	}
	return p.parseExpr(lpComma)
}
