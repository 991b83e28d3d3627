// Package parser implements a hand-written recursive-descent parser
// that turns a token.Token stream into an internal/ast.Program.
//
// Every compound statement accepts both brace blocks and indentation
// blocks uniformly, per spec.md §4.2, and the two styles may be mixed
// freely within one source file.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aquascript/aqua/internal/ast"
	"github.com/aquascript/aqua/internal/lexer"
	"github.com/aquascript/aqua/pkg/token"
)

// Error is a parse-time failure with position information, per spec.md §7.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Message)
}

// Parser consumes a token stream and produces an ast.Program.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
	errs   []*Error
}

// New creates a Parser over an already-scanned token stream.
func New(toks []token.Token, file string) *Parser {
	filtered := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.COMMENT {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Parser{file: file, toks: filtered}
}

// ParseFile lexes and parses source in one step; convenient for tests
// and the CLI front ends.
func ParseFile(source, file string) (*ast.Program, []*Error) {
	lx := lexer.New(source, file)
	toks := lx.ScanTokens()
	p := New(toks, file)
	prog := p.ParseProgram()
	var errs []*Error
	for _, e := range lx.Errors() {
		errs = append(errs, &Error{Pos: e.Pos, Message: e.Message})
	}
	errs = append(errs, p.errs...)
	return prog, errs
}

// Errors returns every parse error accumulated during ParseProgram.
func (p *Parser) Errors() []*Error { return p.errs }

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.skipNewlines()
	}
	return prog
}

// ---- token-stream helpers ---------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) atEnd() bool { return p.cur().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	t := p.cur()
	p.errs = append(p.errs, &Error{Pos: t.Pos, Message: fmt.Sprintf("expected %s, found %s", what, t.Kind)})
	return t
}

func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) || p.check(token.SEMICOLON) {
		p.advance()
	}
}

// ---- blocks -------------------------------------------------------------

// parseBlock parses either a brace block `{ stmts }` or an indentation
// block `: NEWLINE INDENT stmts DEDENT`, per spec.md §4.2.
func (p *Parser) parseBlock() []ast.Stmt {
	if p.check(token.LBRACE) {
		p.advance()
		var out []ast.Stmt
		// Indentation inside braces is layout only: INDENT/DEDENT tokens
		// between the statements of a brace block are skipped.
		skipLayout := func() {
			for p.check(token.NEWLINE) || p.check(token.SEMICOLON) ||
				p.check(token.INDENT) || p.check(token.DEDENT) {
				p.advance()
			}
		}
		skipLayout()
		for !p.check(token.RBRACE) && !p.atEnd() {
			if s := p.parseStatement(); s != nil {
				out = append(out, s)
			}
			skipLayout()
		}
		p.expect(token.RBRACE, "'}'")
		return out
	}

	p.expect(token.COLON, "':' or '{'")
	if p.check(token.NEWLINE) {
		p.skipNewlines()
		p.expect(token.INDENT, "indented block")
		var out []ast.Stmt
		for !p.check(token.DEDENT) && !p.atEnd() {
			if s := p.parseStatement(); s != nil {
				out = append(out, s)
			}
			p.skipNewlines()
		}
		p.expect(token.DEDENT, "dedent")
		return out
	}

	// single inline statement after ':' with no newline.
	var out []ast.Stmt
	if s := p.parseStatement(); s != nil {
		out = append(out, s)
	}
	return out
}

// ---- statements -----------------------------------------------------------

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Kind {
	case token.FUNC:
		return p.parseFuncDef()
	case token.VAR:
		return p.parseVarDecl()
	case token.CLASS:
		return p.parseClassDef()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.REPEAT:
		return p.parseRepeat()
	case token.FOR:
		return p.parseFor()
	case token.SWITCH:
		return p.parseSwitch()
	case token.IMPORT, token.FROM:
		return p.parseImport()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		pos := p.advance().Pos
		return &ast.BreakStmt{Position: pos}
	case token.CONTINUE:
		pos := p.advance().Pos
		return &ast.ContinueStmt{Position: pos}
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		pos := p.advance().Pos
		v := p.parseExpr()
		return &ast.ThrowStmt{Position: pos, Value: v}
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseFuncDef() ast.Stmt {
	pos := p.advance().Pos // 'func'
	name := p.expect(token.IDENT, "function name").Lexeme
	p.expect(token.LPAREN, "'('")
	var params []ast.Param
	for !p.check(token.RPAREN) && !p.atEnd() {
		pname := p.expect(token.IDENT, "parameter name").Lexeme
		if p.match(token.COLON) {
			p.parseTypeAnnotation()
		}
		var def ast.Expr
		if p.match(token.ASSIGN) {
			def = p.parseExpr()
		}
		params = append(params, ast.Param{Name: pname, Default: def})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "')'")
	if p.match(token.ARROW) {
		p.parseTypeAnnotation()
	}
	body := p.parseBlock()
	return &ast.FuncDef{Position: pos, Name: name, Params: params, Body: body}
}

// parseTypeAnnotation consumes and discards a type annotation; the spec
// requires no compile-time type enforcement.
func (p *Parser) parseTypeAnnotation() {
	p.expect(token.IDENT, "type name")
	for p.match(token.LBRACKET) {
		p.parseTypeAnnotation()
		for p.match(token.COMMA) {
			p.parseTypeAnnotation()
		}
		p.expect(token.RBRACKET, "']'")
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	pos := p.advance().Pos // 'var'
	name := p.expect(token.IDENT, "variable name").Lexeme
	if p.match(token.COLON) {
		p.parseTypeAnnotation()
	}
	var val ast.Expr
	if p.match(token.ASSIGN) {
		val = p.parseExpr()
	}
	return &ast.VarDecl{Position: pos, Name: name, Value: val}
}

func (p *Parser) parseClassDef() ast.Stmt {
	pos := p.advance().Pos // 'class'
	name := p.expect(token.IDENT, "class name").Lexeme
	base := ""
	if p.match(token.LPAREN) {
		base = p.expect(token.IDENT, "base class name").Lexeme
		p.expect(token.RPAREN, "')'")
	} else if p.check(token.COLON) && p.peekAt(1).Kind == token.IDENT {
		p.advance() // ':'
		base = p.advance().Lexeme
		return p.finishClassBody(pos, name, base, false)
	}
	return p.finishClassBody(pos, name, base, true)
}

// finishClassBody parses the class body, which may be a brace block or
// an indentation block; needColon is false when the ':' introducing a
// `class Name: Base` clause was already consumed and doubles as the
// block's colon (brace form is unaffected either way).
func (p *Parser) finishClassBody(pos token.Position, name, base string, needColon bool) ast.Stmt {
	var body []ast.Stmt
	if p.check(token.LBRACE) {
		body = p.parseBlock()
	} else if needColon {
		body = p.parseBlock()
	} else {
		// ':' already consumed for the base-class clause; what remains
		// is the same NEWLINE/INDENT...DEDENT shape as parseBlock minus
		// the leading COLON.
		if p.check(token.NEWLINE) {
			p.skipNewlines()
			p.expect(token.INDENT, "indented class body")
			for !p.check(token.DEDENT) && !p.atEnd() {
				if s := p.parseStatement(); s != nil {
					body = append(body, s)
				}
				p.skipNewlines()
			}
			p.expect(token.DEDENT, "dedent")
		} else if s := p.parseStatement(); s != nil {
			body = append(body, s)
		}
	}

	cd := &ast.ClassDef{Position: pos, Name: name, Base: base}
	for _, s := range body {
		switch n := s.(type) {
		case *ast.FuncDef:
			cd.Methods = append(cd.Methods, n)
		case *ast.VarDecl:
			cd.Fields = append(cd.Fields, *n)
		}
	}
	return cd
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.advance().Pos // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Position: pos, Cond: cond, Then: then}

	p.skipNewlinesBeforeElse()
	switch p.cur().Kind {
	case token.ELIF:
		elifPos := p.cur().Pos
		nested := p.parseElifAsIf(elifPos)
		stmt.Else = []ast.Stmt{nested}
	case token.ELSE:
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

// parseElifAsIf lowers an `elif` arm to a nested IfStmt, per
// SPEC_FULL.md §C.2 (no dedicated elif opcode/node).
func (p *Parser) parseElifAsIf(pos token.Position) ast.Stmt {
	p.advance() // 'elif'
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Position: pos, Cond: cond, Then: then}
	p.skipNewlinesBeforeElse()
	switch p.cur().Kind {
	case token.ELIF:
		nested := p.parseElifAsIf(p.cur().Pos)
		stmt.Else = []ast.Stmt{nested}
	case token.ELSE:
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

// skipNewlinesBeforeElse consumes the line break(s) ending an inline
// `if`/`elif` suite when the next line continues the chain with `elif`
// or `else`; otherwise it consumes nothing.
func (p *Parser) skipNewlinesBeforeElse() {
	i := 0
	for p.peekAt(i).Kind == token.NEWLINE {
		i++
	}
	if k := p.peekAt(i).Kind; i > 0 && (k == token.ELIF || k == token.ELSE) {
		p.pos += i
	}
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.advance().Pos
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{Position: pos, Cond: cond, Body: body}
}

// parseRepeat parses `repeat <block> while <expr>` — body runs at
// least once, per spec.md §4.3.
func (p *Parser) parseRepeat() ast.Stmt {
	pos := p.advance().Pos // 'repeat'
	body := p.parseRepeatBody()
	p.expect(token.WHILE, "'while'")
	cond := p.parseExpr()
	return &ast.RepeatStmt{Position: pos, Body: body, Cond: cond}
}

// parseRepeatBody accepts a brace block, or a ':' followed by an
// indentation block (an inline single statement after ':' is not
// accepted).
func (p *Parser) parseRepeatBody() []ast.Stmt {
	if p.check(token.LBRACE) {
		return p.parseBlock()
	}
	p.expect(token.COLON, "':' or '{'")
	p.skipNewlines()
	p.expect(token.INDENT, "indented block")
	var out []ast.Stmt
	for !p.check(token.DEDENT) && !p.atEnd() {
		if s := p.parseStatement(); s != nil {
			out = append(out, s)
		}
		p.skipNewlines()
	}
	p.expect(token.DEDENT, "dedent")
	return out
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.advance().Pos // 'for'
	varName := p.expect(token.IDENT, "loop variable").Lexeme
	p.expect(token.IN, "'in'")
	iter := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{Position: pos, VarName: varName, Iterable: iter, Body: body}
}

func (p *Parser) parseSwitch() ast.Stmt {
	pos := p.advance().Pos // 'switch'
	subject := p.parseExpr()

	brace := p.check(token.LBRACE)
	if brace {
		p.advance()
	} else {
		p.expect(token.COLON, "':' or '{'")
		p.skipNewlines()
		p.expect(token.INDENT, "indented switch body")
	}
	p.skipNewlines()

	stmt := &ast.SwitchStmt{Position: pos, Subject: subject}
	end := token.RBRACE
	if !brace {
		end = token.DEDENT
	}
	for !p.check(end) && !p.atEnd() {
		switch p.cur().Kind {
		case token.CASE:
			p.advance()
			val := p.parseExpr()
			p.expect(token.COLON, "':'")
			body := p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, ast.CaseClause{Value: val, Body: body})
		case token.DEFAULT:
			p.advance()
			p.expect(token.COLON, "':'")
			body := p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, ast.CaseClause{Value: nil, Body: body})
		default:
			p.errs = append(p.errs, &Error{Pos: p.cur().Pos, Message: "expected 'case' or 'default'"})
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(end, "end of switch body")
	return stmt
}

// parseCaseBody reads either an indented block under the case label or
// statements until the next case/default/end marker.
func (p *Parser) parseCaseBody() []ast.Stmt {
	var out []ast.Stmt
	p.skipNewlines()
	if p.match(token.INDENT) {
		for !p.check(token.DEDENT) && !p.atEnd() {
			if s := p.parseStatement(); s != nil {
				out = append(out, s)
			}
			p.skipNewlines()
		}
		p.expect(token.DEDENT, "dedent")
		return out
	}
	for !p.check(token.CASE) && !p.check(token.DEFAULT) &&
		!p.check(token.RBRACE) && !p.check(token.DEDENT) && !p.atEnd() {
		if s := p.parseStatement(); s != nil {
			out = append(out, s)
		}
		p.skipNewlines()
	}
	return out
}

func (p *Parser) parseImport() ast.Stmt {
	pos := p.cur().Pos
	if p.match(token.FROM) {
		path := p.parseDottedPath()
		p.expect(token.IMPORT, "'import'")
		names, aliases := p.parseImportNames()
		return &ast.ImportStmt{Position: pos, Path: path, Names: names, Aliases: aliases}
	}

	p.advance() // 'import'
	path := p.parseDottedPath()
	stmt := &ast.ImportStmt{Position: pos, Path: path}
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.atEnd() {
			stmt.Names = append(stmt.Names, p.expect(token.IDENT, "imported name").Lexeme)
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, "')'")
		return stmt
	}
	if p.match(token.AS) {
		stmt.Alias = p.expect(token.IDENT, "alias").Lexeme
	}
	return stmt
}

func (p *Parser) parseDottedPath() []string {
	parts := []string{p.expect(token.IDENT, "module name").Lexeme}
	for p.match(token.DOT) {
		if p.check(token.LPAREN) {
			// "pkg.(a, b, c)": the dot introduces a selection list, not
			// another path segment. Leave LPAREN for parseImport.
			break
		}
		parts = append(parts, p.expect(token.IDENT, "module name").Lexeme)
	}
	return parts
}

func (p *Parser) parseImportNames() ([]string, map[string]string) {
	var names []string
	aliases := map[string]string{}
	for {
		n := p.expect(token.IDENT, "imported name").Lexeme
		names = append(names, n)
		if p.match(token.AS) {
			aliases[n] = p.expect(token.IDENT, "alias").Lexeme
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return names, aliases
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.advance().Pos
	if p.check(token.NEWLINE) || p.check(token.SEMICOLON) || p.check(token.DEDENT) ||
		p.check(token.RBRACE) || p.atEnd() {
		return &ast.ReturnStmt{Position: pos}
	}
	v := p.parseExpr()
	return &ast.ReturnStmt{Position: pos, Value: v}
}

func (p *Parser) parseTry() ast.Stmt {
	pos := p.advance().Pos // 'try'
	body := p.parseBlock()
	stmt := &ast.TryStmt{Position: pos, Body: body}

	for p.check(token.CATCH) {
		p.advance()
		var clause ast.CatchClause
		if p.check(token.LBRACE) || p.check(token.COLON) {
			// bare `catch { ... }` or `catch: ...` — catch-all, unnamed.
		} else {
			name := p.expect(token.IDENT, "exception type or name").Lexeme
			if p.match(token.AS) {
				clause.TypeName = name
				clause.BindName = p.expect(token.IDENT, "binding name").Lexeme
			} else {
				clause.BindName = name
			}
		}
		clause.Body = p.parseBlock()
		stmt.Catches = append(stmt.Catches, clause)
	}

	if p.match(token.FINALLY) {
		stmt.Finally = p.parseBlock()
	}

	if len(stmt.Catches) == 0 && stmt.Finally == nil {
		p.errs = append(p.errs, &Error{Pos: pos, Message: "try statement requires at least one catch or finally"})
	}
	return stmt
}

// parseExprOrAssignStmt parses an expression statement, discriminating
// plain/attribute/index assignment (and augmented-assignment desugaring)
// from a bare expression statement, per spec.md §4.2.
func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	pos := p.cur().Pos
	expr := p.parseExpr()

	augOp, isAug := augmentedOp(p.cur().Kind)
	if p.check(token.ASSIGN) || isAug {
		p.advance()
		value := p.parseExpr()
		if isAug {
			value = &ast.BinaryExpr{Position: pos, Op: augOp, Left: expr, Right: value}
		}
		switch t := expr.(type) {
		case *ast.Ident:
			return &ast.Assign{Position: pos, Name: t.Name, Value: value}
		case *ast.AttrExpr:
			return &ast.AttrAssign{Position: pos, Object: t.Object, Name: t.Name, Value: value}
		case *ast.IndexExpr:
			return &ast.IndexAssign{Position: pos, Object: t.Object, Index: t.Index, Value: value}
		default:
			p.errs = append(p.errs, &Error{Pos: pos, Message: "invalid assignment target"})
			return &ast.ExprStmt{Position: pos, X: expr}
		}
	}
	return &ast.ExprStmt{Position: pos, X: expr}
}

func augmentedOp(k token.Kind) (token.Kind, bool) {
	switch k {
	case token.PLUS_ASSIGN:
		return token.PLUS, true
	case token.MINUS_ASSIGN:
		return token.MINUS, true
	case token.STAR_ASSIGN:
		return token.STAR, true
	case token.SLASH_ASSIGN:
		return token.SLASH, true
	case token.PERCENT_ASSIGN:
		return token.PERCENT, true
	default:
		return token.ILLEGAL, false
	}
}

// ---- expressions -----------------------------------------------------

// Precedence (lowest to highest): or, and, equality, relational
// (including 'in'), additive, multiplicative, power (right-assoc),
// unary, postfix.

func (p *Parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.check(token.OR) {
		pos := p.advance().Pos
		right := p.parseAnd()
		left = &ast.BinaryExpr{Position: pos, Op: token.OR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.check(token.AND) {
		pos := p.advance().Pos
		right := p.parseEquality()
		left = &ast.BinaryExpr{Position: pos, Op: token.AND, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.check(token.EQ) || p.check(token.NE) {
		op := p.advance()
		right := p.parseRelational()
		left = &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for p.check(token.LT) || p.check(token.GT) || p.check(token.LE) ||
		p.check(token.GE) || p.check(token.IN) {
		op := p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parsePower()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		op := p.advance()
		right := p.parsePower()
		left = &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

// parsePower is right-associative.
func (p *Parser) parsePower() ast.Expr {
	left := p.parseUnary()
	if p.check(token.STARSTAR) {
		op := p.advance()
		right := p.parsePower()
		return &ast.BinaryExpr{Position: op.Pos, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.NOT, token.MINUS, token.PLUS:
		op := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Position: op.Pos, Op: op.Kind, Operand: operand}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LPAREN:
			pos := p.advance().Pos
			var args []ast.Expr
			for !p.check(token.RPAREN) && !p.atEnd() {
				args = append(args, p.parseExpr())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN, "')'")
			expr = &ast.CallExpr{Position: pos, Callee: expr, Args: args}
		case token.DOT:
			pos := p.advance().Pos
			name := p.expect(token.IDENT, "attribute name").Lexeme
			expr = &ast.AttrExpr{Position: pos, Object: expr, Name: name}
		case token.LBRACKET:
			pos := p.advance().Pos
			idx := p.parseExpr()
			p.expect(token.RBRACKET, "']'")
			expr = &ast.IndexExpr{Position: pos, Object: expr, Index: idx}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{Position: t.Pos, Literal: t.Lexeme, IsFloat: strings.Contains(t.Lexeme, ".")}
	case token.STRING:
		p.advance()
		if t.Parts != nil {
			return p.buildFString(t)
		}
		return &ast.StringLit{Position: t.Pos, Value: t.Lexeme}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Position: t.Pos, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Position: t.Pos, Value: false}
	case token.NIL:
		p.advance()
		return &ast.NilLit{Position: t.Pos}
	case token.IDENT:
		p.advance()
		return &ast.Ident{Position: t.Pos, Name: t.Lexeme}
	case token.LAMBDA:
		return p.parseLambda()
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseListOrComp()
	case token.LBRACE:
		return p.parseDict()
	default:
		p.errs = append(p.errs, &Error{Pos: t.Pos, Message: fmt.Sprintf("unexpected token %s in expression", t.Kind)})
		p.advance()
		return &ast.NilLit{Position: t.Pos}
	}
}

func (p *Parser) buildFString(t token.Token) ast.Expr {
	fs := &ast.FString{Position: t.Pos}
	for _, part := range t.Parts {
		if !part.IsExpr {
			fs.Parts = append(fs.Parts, ast.FStringPart{Text: part.Text})
			continue
		}
		sub := New(subLex(part.Text, p.file), p.file)
		expr := sub.parseExpr()
		p.errs = append(p.errs, sub.errs...)
		fs.Parts = append(fs.Parts, ast.FStringPart{IsExpr: true, Expr: expr})
	}
	return fs
}

// subLex re-lexes a raw f-string expression segment, per spec.md §9
// ("expressions inside {…} are parsed by invoking the lexer+parser
// recursively on the captured substring").
func subLex(src, file string) []token.Token {
	lx := lexer.New(src, file)
	return lx.ScanTokens()
}

func (p *Parser) parseLambda() ast.Expr {
	pos := p.advance().Pos // 'lambda'
	var params []string
	for !p.check(token.COLON) && !p.atEnd() {
		params = append(params, p.expect(token.IDENT, "lambda parameter").Lexeme)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.COLON, "':'")
	body := p.parseExpr()
	return &ast.LambdaExpr{Position: pos, Params: params, Body: body}
}

// parseParenOrTuple handles `(expr)` vs `(a, b, ...)` vs `()`/`(a,)`.
func (p *Parser) parseParenOrTuple() ast.Expr {
	pos := p.advance().Pos // '('
	if p.check(token.RPAREN) {
		p.advance()
		return &ast.TupleLit{Position: pos}
	}
	first := p.parseExpr()
	if !p.check(token.COMMA) {
		p.expect(token.RPAREN, "')'")
		return first
	}
	elems := []ast.Expr{first}
	for p.match(token.COMMA) {
		if p.check(token.RPAREN) {
			break // trailing comma
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RPAREN, "')'")
	return &ast.TupleLit{Position: pos, Elements: elems}
}

// parseListOrComp handles list literals (with trailing-comma support)
// and list comprehensions, per spec.md §4.2.
func (p *Parser) parseListOrComp() ast.Expr {
	pos := p.advance().Pos // '['
	if p.check(token.RBRACKET) {
		p.advance()
		return &ast.ListLit{Position: pos}
	}
	first := p.parseExpr()
	if p.check(token.FOR) {
		p.advance()
		varName := p.expect(token.IDENT, "comprehension variable").Lexeme
		p.expect(token.IN, "'in'")
		iterable := p.parseExpr()
		var cond ast.Expr
		if p.match(token.IF) {
			cond = p.parseExpr()
		}
		p.expect(token.RBRACKET, "']'")
		return &ast.ListComp{Position: pos, Elem: first, VarName: varName, Iterable: iterable, Cond: cond}
	}

	elems := []ast.Expr{first}
	for p.match(token.COMMA) {
		if p.check(token.RBRACKET) {
			break // trailing comma
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBRACKET, "']'")
	return &ast.ListLit{Position: pos, Elements: elems}
}

func (p *Parser) parseDict() ast.Expr {
	pos := p.advance().Pos // '{'
	lit := &ast.DictLit{Position: pos}
	if p.check(token.RBRACE) {
		p.advance()
		return lit
	}
	for {
		if p.check(token.RBRACE) {
			break // trailing comma
		}
		key := p.parseExpr()
		p.expect(token.COLON, "':'")
		val := p.parseExpr()
		lit.Entries = append(lit.Entries, ast.DictEntry{Key: key, Value: val})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "'}'")
	return lit
}

// ParseNumber converts a NumberLit's literal text into an int64 or
// float64, matching "parser later decides integer vs float by presence
// of the dot" (spec.md §4.1). Exposed for internal/compiler.
func ParseNumber(lit string, isFloat bool) (int64, float64, error) {
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		return 0, f, err
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	return i, 0, err
}
