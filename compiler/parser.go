package compiler

import (
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Algo
// ---------------------------------------------------------------------------

// Parser parses Algo source into an AST. Syntax errors are recorded as
// diagnostics; the parser resynchronizes at the next semicolon or block
// keyword and keeps going.
type Parser struct {
	tokens    []Token
	idx       int
	curToken  Token
	peekToken Token
	lastEnd   Position

	diags  diagList
	sawEOF bool
}

// bailout unwinds the parser to the nearest recovery point.
type bailout struct{}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	tokens, lexDiags := Tokenize(input)
	p := &Parser{tokens: tokens, idx: -1}
	p.diags = append(p.diags, lexDiags...)
	p.nextToken()
	return p
}

func (p *Parser) tokenAt(i int) Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	if p.idx >= 0 {
		p.lastEnd = p.curToken.End
	}
	p.idx++
	p.curToken = p.tokenAt(p.idx)
	p.peekToken = p.tokenAt(p.idx + 1)
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(types ...TokenType) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

// peekTokenIs checks if the next token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes a token of the given type or fails the current
// production.
func (p *Parser) expect(t TokenType) Token {
	if !p.curTokenIs(t) {
		p.fail()
	}
	tok := p.curToken
	p.nextToken()
	return tok
}

// accept consumes the current token if it has the given type.
func (p *Parser) accept(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	return false
}

// fail records a syntax error at the current token and unwinds.
func (p *Parser) fail() {
	p.syntaxError(p.curToken)
	panic(bailout{})
}

func (p *Parser) syntaxError(tok Token) {
	if tok.Type == TokenEOF {
		if !p.sawEOF {
			p.sawEOF = true
			p.diags = append(p.diags, Diagnostic{
				Message:  "Syntax error at EOF",
				Category: CategorySyntax,
				Code:     CodeSyntaxEOF,
			})
		}
		return
	}
	p.diags.add(tok.Pos, CategorySyntax, CodeSyntax, "Syntax error at '%s'", tok.Literal)
}

// guard runs fn and reports whether it completed without a syntax error.
func (p *Parser) guard(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}

// synchronize skips tokens up to and including the next semicolon. It
// stops early, without consuming, at EOF or any of the stop tokens, and
// reports whether a semicolon was consumed.
func (p *Parser) synchronize(stops ...TokenType) bool {
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(stops...) {
			return false
		}
		if p.curTokenIs(TokenSemicolon) {
			p.nextToken()
			return true
		}
		p.nextToken()
	}
	return false
}

func (p *Parser) span(start Position) Span {
	return Span{Start: start, End: p.lastEnd}
}

// Diagnostics returns lexical and syntax diagnostics.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diags
}

// ---------------------------------------------------------------------------
// Program structure
// ---------------------------------------------------------------------------

var declStarts = []TokenType{TokenVar, TokenConst, TokenType_, TokenFonction, TokenProcedure, TokenDebut, TokenAlgorithme}

// ParseFile parses a complete program:
//
//	[Type ... ; | Fonction ... ; | Procedure ... ;]*
//	Algorithme Name ;
//	[Var ... | Const ... | Type ... | Fonction ... | Procedure ...]*
//	Debut statements Fin .
func (p *Parser) ParseFile() *File {
	file := &File{}
	start := p.curToken.Pos

	for !p.curTokenIs(TokenAlgorithme, TokenEOF) {
		if !p.parseTopDecl(file) {
			p.syntaxError(p.curToken)
			p.nextToken()
			p.synchronize(declStarts...)
		}
	}

	if !p.guard(func() {
		p.expect(TokenAlgorithme)
		file.Name = p.expect(TokenIdentifier).Literal
		p.expect(TokenSemicolon)
	}) {
		p.synchronize(declStarts...)
	}

	for p.curTokenIs(TokenVar, TokenConst, TokenType_, TokenFonction, TokenProcedure) {
		p.parseTopDecl(file)
	}

	p.guard(func() {
		p.expect(TokenDebut)
		file.Body = p.parseBlock(TokenFin)
		p.expect(TokenFin)
		p.expect(TokenDot)
		if !p.curTokenIs(TokenEOF) {
			p.fail()
		}
	})
	file.SpanVal = p.span(start)
	return file
}

// parseTopDecl parses one declaration section. It returns false when the
// current token does not start one.
func (p *Parser) parseTopDecl(file *File) bool {
	switch p.curToken.Type {
	case TokenVar:
		p.nextToken()
		file.Decls = append(file.Decls, p.parseVarDecls()...)
	case TokenConst:
		p.nextToken()
		file.Decls = append(file.Decls, p.parseConstDecls()...)
	case TokenType_:
		if d := p.parseRecordDecl(); d != nil {
			file.Decls = append(file.Decls, d)
		}
	case TokenFonction, TokenProcedure:
		if d := p.parseSubprogram(); d != nil {
			file.Decls = append(file.Decls, d)
		}
	default:
		return false
	}
	return true
}

// parseVarDecls parses `name, t[N], m[R][C] : T ;` lines until the next
// non-identifier.
func (p *Parser) parseVarDecls() []Decl {
	var decls []Decl
	for p.curTokenIs(TokenIdentifier) {
		var d *VarDecl
		if p.guard(func() { d = p.parseVarDecl() }) {
			decls = append(decls, d)
			continue
		}
		errPos := p.curToken.Pos
		p.synchronize(declStarts...)
		p.diags.add(errPos, CategorySyntax, CodeBadStatement, "Missing semicolon or invalid syntax after variable definition")
	}
	return decls
}

func (p *Parser) parseVarDecl() *VarDecl {
	start := p.curToken.Pos
	d := &VarDecl{Names: p.parseDeclNames()}
	p.expect(TokenColon)
	if p.accept(TokenTableau) {
		p.expect(TokenDe)
		d.Unsized = true
	}
	d.Type = p.parseType()
	p.expect(TokenSemicolon)
	d.SpanVal = p.span(start)
	return d
}

// parseDeclNames parses `a, b[10], m[3][4]`.
func (p *Parser) parseDeclNames() []DeclName {
	var names []DeclName
	for {
		tok := p.expect(TokenIdentifier)
		n := DeclName{Pos: tok.Pos, Name: tok.Literal, Dims: p.parseDims()}
		names = append(names, n)
		if !p.accept(TokenComma) {
			return names
		}
	}
}

// parseDims parses up to two `[N]` suffixes.
func (p *Parser) parseDims() []int {
	var dims []int
	for len(dims) < 2 && p.curTokenIs(TokenLBracket) {
		p.nextToken()
		tok := p.expect(TokenInteger)
		n, err := strconv.Atoi(tok.Literal)
		if err != nil {
			p.syntaxError(tok)
			panic(bailout{})
		}
		dims = append(dims, n)
		p.expect(TokenRBracket)
	}
	return dims
}

// parseType parses Entier, Reel, Booleen, Caractere, Chaine, a record
// name, or ^T.
func (p *Parser) parseType() *TypeRef {
	start := p.curToken.Pos
	ref := &TypeRef{}
	switch p.curToken.Type {
	case TokenEntier, TokenReel, TokenBooleen, TokenCaractere, TokenChaine:
		ref.Name = p.curToken.Type.String()
		p.nextToken()
	case TokenIdentifier:
		ref.Name = p.curToken.Literal
		p.nextToken()
	case TokenCaret:
		p.nextToken()
		ref.Elem = p.parseType()
	default:
		p.fail()
	}
	ref.SpanVal = p.span(start)
	return ref
}

func (p *Parser) parseConstDecls() []Decl {
	var decls []Decl
	for p.curTokenIs(TokenIdentifier) {
		var d *ConstDecl
		if p.guard(func() { d = p.parseConstDecl() }) {
			decls = append(decls, d)
			continue
		}
		p.synchronize(declStarts...)
	}
	return decls
}

func (p *Parser) parseConstDecl() *ConstDecl {
	start := p.curToken.Pos
	d := &ConstDecl{Name: p.expect(TokenIdentifier).Literal}
	p.expect(TokenEq)
	switch p.curToken.Type {
	case TokenMinus:
		minusPos := p.curToken.Pos
		p.nextToken()
		if !p.curTokenIs(TokenInteger, TokenReal) {
			p.fail()
		}
		d.Value = &UnaryExpr{Op: "-", X: p.parsePrimary(), SpanVal: p.span(minusPos)}
	case TokenInteger, TokenReal, TokenString, TokenChar, TokenNullChar, TokenVrai, TokenFaux:
		d.Value = p.parsePrimary()
	default:
		p.fail()
	}
	p.expect(TokenSemicolon)
	d.SpanVal = p.span(start)
	return d
}

// parseRecordDecl parses `Type Name = Enregistrement [Debut] fields Fin ;`.
func (p *Parser) parseRecordDecl() *RecordDecl {
	var d *RecordDecl
	if p.guard(func() {
		start := p.curToken.Pos
		p.expect(TokenType_)
		d = &RecordDecl{Name: p.expect(TokenIdentifier).Literal}
		p.expect(TokenEq)
		p.expect(TokenEnregistrement)
		p.accept(TokenDebut)
		for p.curTokenIs(TokenIdentifier) {
			f := &FieldDecl{Names: p.parseDeclNames()}
			p.expect(TokenColon)
			f.Type = p.parseType()
			p.expect(TokenSemicolon)
			d.Fields = append(d.Fields, f)
		}
		p.expect(TokenFin)
		p.expect(TokenSemicolon)
		d.SpanVal = p.span(start)
	}) {
		return d
	}
	p.synchronize(declStarts...)
	return nil
}

// parseSubprogram parses a Fonction or Procedure with its local
// declarations and body.
func (p *Parser) parseSubprogram() *FuncDecl {
	var d *FuncDecl
	start := p.curToken.Pos
	if !p.guard(func() {
		isFunc := p.curTokenIs(TokenFonction)
		p.nextToken()
		d = &FuncDecl{Name: p.expect(TokenIdentifier).Literal}
		p.expect(TokenLParen)
		d.Params = p.parseParams()
		p.expect(TokenRParen)
		if isFunc {
			p.expect(TokenColon)
			d.Result = p.parseType()
		}
		p.accept(TokenSemicolon)
	}) {
		p.synchronize(TokenVar, TokenDebut, TokenFonction, TokenProcedure, TokenAlgorithme)
		if d == nil || !p.curTokenIs(TokenVar, TokenDebut) {
			return nil
		}
	}

	for p.curTokenIs(TokenVar, TokenConst) {
		if p.accept(TokenVar) {
			d.Decls = append(d.Decls, p.parseVarDecls()...)
		} else {
			p.nextToken()
			d.Decls = append(d.Decls, p.parseConstDecls()...)
		}
	}

	if !p.guard(func() {
		p.expect(TokenDebut)
		d.Body = p.parseBlock(TokenFin)
		p.expect(TokenFin)
		p.expect(TokenSemicolon)
	}) {
		p.synchronize(TokenFonction, TokenProcedure, TokenAlgorithme)
	}
	d.SpanVal = p.span(start)
	return d
}

// parseParams parses groups of `[Var] a, b[dims] : T` separated by
// commas or semicolons.
func (p *Parser) parseParams() []*ParamDecl {
	var params []*ParamDecl
	if p.curTokenIs(TokenRParen) {
		return params
	}
	for {
		byRef := p.accept(TokenVar)
		var group []*ParamDecl
		for {
			tok := p.expect(TokenIdentifier)
			group = append(group, &ParamDecl{Pos: tok.Pos, Name: tok.Literal, ByRef: byRef, Dims: p.parseDims()})
			if !p.accept(TokenComma) {
				break
			}
		}
		p.expect(TokenColon)
		typ := p.parseType()
		for _, prm := range group {
			prm.Type = typ
		}
		params = append(params, group...)
		if !p.accept(TokenComma) && !p.accept(TokenSemicolon) {
			return params
		}
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseBlock parses statements until one of the stop tokens or EOF.
func (p *Parser) parseBlock(stops ...TokenType) []Stmt {
	var stmts []Stmt
	for !p.curTokenIs(TokenEOF) && !p.curTokenIs(stops...) {
		if s := p.parseStatement(stops); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// parseStatement parses one statement. On a syntax error it skips to the
// end of the statement and returns nil.
func (p *Parser) parseStatement(stops []TokenType) Stmt {
	if p.accept(TokenSemicolon) {
		return nil
	}
	var s Stmt
	start := p.curToken
	if p.guard(func() { s = p.parseStatementInner() }) {
		return s
	}
	if p.synchronize(stops...) {
		p.diags.add(start.Pos, CategorySyntax, CodeBadStatement, "Syntax error in statement")
	}
	return nil
}

func (p *Parser) parseStatementInner() Stmt {
	start := p.curToken.Pos
	switch p.curToken.Type {
	case TokenSi:
		return p.parseIf()
	case TokenTantQue:
		return p.parseWhile()
	case TokenPour:
		return p.parseFor()
	case TokenRepeter:
		return p.parseRepeat()

	case TokenRetourner:
		p.nextToken()
		s := &ReturnStmt{Value: p.ParseExpression()}
		p.expect(TokenSemicolon)
		s.SpanVal = p.span(start)
		return s

	case TokenEcrire:
		p.nextToken()
		p.expect(TokenLParen)
		s := &WriteStmt{}
		if !p.curTokenIs(TokenRParen) {
			s.Args = p.parseExpressionList()
		}
		p.expect(TokenRParen)
		p.expect(TokenSemicolon)
		s.SpanVal = p.span(start)
		return s

	case TokenLire:
		p.nextToken()
		p.expect(TokenLParen)
		s := &ReadStmt{Targets: p.parseExpressionList()}
		p.expect(TokenRParen)
		p.expect(TokenSemicolon)
		s.SpanVal = p.span(start)
		return s

	case TokenLiberer:
		p.nextToken()
		p.expect(TokenLParen)
		s := &FreeStmt{Ptr: p.ParseExpression()}
		p.expect(TokenRParen)
		p.expect(TokenSemicolon)
		s.SpanVal = p.span(start)
		return s
	}

	x := p.ParseExpression()
	if p.accept(TokenAssign) {
		s := &AssignStmt{Target: x, Value: p.ParseExpression()}
		p.expect(TokenSemicolon)
		s.SpanVal = p.span(start)
		return s
	}
	call, ok := x.(*CallExpr)
	if !ok {
		p.fail()
	}
	p.expect(TokenSemicolon)
	return &CallStmt{Call: call, SpanVal: p.span(start)}
}

// parseIf parses Si c Alors ... [Sinon ...] (Fsi | FinSi | Fin Si) [;].
func (p *Parser) parseIf() Stmt {
	start := p.curToken.Pos
	p.nextToken()
	s := &IfStmt{Cond: p.ParseExpression()}
	p.expect(TokenAlors)
	s.Then = p.parseBlock(TokenSinon, TokenFsi, TokenFin)
	if p.accept(TokenSinon) {
		s.Else = p.parseBlock(TokenFsi, TokenFin)
	}
	p.closeBlock(TokenFsi, TokenSi)
	p.accept(TokenSemicolon)
	s.SpanVal = p.span(start)
	return s
}

// parseWhile parses TantQue [Que] c Faire ... (FinTantQue | Fin TantQue [Que]) [;].
func (p *Parser) parseWhile() Stmt {
	start := p.curToken.Pos
	p.nextToken()
	p.accept(TokenQue)
	s := &WhileStmt{Cond: p.ParseExpression()}
	p.expect(TokenFaire)
	s.Body = p.parseBlock(TokenFinTantQue, TokenFin)
	p.closeBlock(TokenFinTantQue, TokenTantQue)
	p.accept(TokenQue)
	p.accept(TokenSemicolon)
	s.SpanVal = p.span(start)
	return s
}

// parseFor parses Pour v := a a b Faire ... (FinPour | Fin Pour) [;]. The
// keyword between the bounds is a plain identifier that must read "a".
func (p *Parser) parseFor() Stmt {
	start := p.curToken.Pos
	p.nextToken()
	tok := p.expect(TokenIdentifier)
	s := &ForStmt{Var: &Variable{Name: tok.Literal, SpanVal: Span{Start: tok.Pos, End: tok.End}}}
	p.expect(TokenAssign)
	s.From = p.ParseExpression()
	if !p.curTokenIs(TokenIdentifier) {
		p.fail()
	}
	if kw := p.curToken; foldKeyword(kw.Literal) != "a" {
		p.diags.add(kw.Pos, CategorySyntax, CodeForKeyword, "Expected 'a' in Pour loop, got '%s'", kw.Literal)
	}
	p.nextToken()
	s.To = p.ParseExpression()
	p.expect(TokenFaire)
	s.Body = p.parseBlock(TokenFinPour, TokenFin)
	p.closeBlock(TokenFinPour, TokenPour)
	p.accept(TokenSemicolon)
	s.SpanVal = p.span(start)
	return s
}

// parseRepeat parses Repeter ... Jusqua c [;].
func (p *Parser) parseRepeat() Stmt {
	start := p.curToken.Pos
	p.nextToken()
	s := &RepeatStmt{Body: p.parseBlock(TokenJusqua)}
	s.Until = p.expect(TokenJusqua).Pos
	s.Cond = p.ParseExpression()
	p.accept(TokenSemicolon)
	s.SpanVal = p.span(start)
	return s
}

// closeBlock consumes `closer` or `Fin kw`.
func (p *Parser) closeBlock(closer, kw TokenType) {
	switch {
	case p.accept(closer):
	case p.curTokenIs(TokenFin) && p.peekTokenIs(kw):
		p.nextToken()
		p.nextToken()
	default:
		p.fail()
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ParseExpression parses an expression. Precedence, lowest first:
// ou, et, non, relational, + -, * / div mod, unary -, postfix . -> [] ^.
func (p *Parser) ParseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseExpressionList() []Expr {
	list := []Expr{p.ParseExpression()}
	for p.accept(TokenComma) {
		list = append(list, p.ParseExpression())
	}
	return list
}

func (p *Parser) binary(start Position, op string, left, right Expr) Expr {
	return &BinaryExpr{Op: op, Left: left, Right: right, SpanVal: p.span(start)}
}

func (p *Parser) parseOr() Expr {
	start := p.curToken.Pos
	left := p.parseAnd()
	for p.accept(TokenOu) {
		left = p.binary(start, "ou", left, p.parseAnd())
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	start := p.curToken.Pos
	left := p.parseNot()
	for p.accept(TokenEt) {
		left = p.binary(start, "et", left, p.parseNot())
	}
	return left
}

func (p *Parser) parseNot() Expr {
	start := p.curToken.Pos
	if p.accept(TokenNon) {
		x := p.parseNot()
		return &UnaryExpr{Op: "non", X: x, SpanVal: p.span(start)}
	}
	return p.parseRelational()
}

var relationalOps = map[TokenType]string{
	TokenEq: "=", TokenNeq: "<>", TokenLt: "<", TokenLe: "<=", TokenGt: ">", TokenGe: ">=",
}

func (p *Parser) parseRelational() Expr {
	start := p.curToken.Pos
	left := p.parseAdditive()
	for {
		op, ok := relationalOps[p.curToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = p.binary(start, op, left, p.parseAdditive())
	}
}

func (p *Parser) parseAdditive() Expr {
	start := p.curToken.Pos
	left := p.parseMultiplicative()
	for {
		var op string
		switch p.curToken.Type {
		case TokenPlus:
			op = "+"
		case TokenMinus:
			op = "-"
		default:
			return left
		}
		p.nextToken()
		left = p.binary(start, op, left, p.parseMultiplicative())
	}
}

func (p *Parser) parseMultiplicative() Expr {
	start := p.curToken.Pos
	left := p.parseUnary()
	for {
		var op string
		switch p.curToken.Type {
		case TokenStar:
			op = "*"
		case TokenSlash:
			op = "/"
		case TokenDiv:
			op = "div"
		case TokenMod:
			op = "mod"
		default:
			return left
		}
		p.nextToken()
		left = p.binary(start, op, left, p.parseUnary())
	}
}

func (p *Parser) parseUnary() Expr {
	start := p.curToken.Pos
	if p.accept(TokenMinus) {
		x := p.parseUnary()
		return &UnaryExpr{Op: "-", X: x, SpanVal: p.span(start)}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by .f, ->f, [i] and ^.
func (p *Parser) parsePostfix() Expr {
	start := p.curToken.Pos
	x := p.parsePrimary()
	for {
		switch p.curToken.Type {
		case TokenDot:
			if !p.peekTokenIs(TokenIdentifier) {
				return x
			}
			p.nextToken()
			name := p.expect(TokenIdentifier).Literal
			x = &FieldExpr{X: x, Name: name, SpanVal: p.span(start)}
		case TokenArrow:
			p.nextToken()
			name := p.expect(TokenIdentifier).Literal
			x = &FieldExpr{X: x, Name: name, Arrow: true, SpanVal: p.span(start)}
		case TokenLBracket:
			p.nextToken()
			idx := p.ParseExpression()
			p.expect(TokenRBracket)
			x = &IndexExpr{X: x, Index: idx, SpanVal: p.span(start)}
		case TokenCaret:
			p.nextToken()
			x = &DerefExpr{X: x, SpanVal: p.span(start)}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.curToken
	start := tok.Pos
	switch tok.Type {
	case TokenInteger:
		p.nextToken()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.syntaxError(tok)
			panic(bailout{})
		}
		return &IntLiteral{Value: n, SpanVal: p.span(start)}

	case TokenReal:
		p.nextToken()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.syntaxError(tok)
			panic(bailout{})
		}
		return &RealLiteral{Value: f, SpanVal: p.span(start)}

	case TokenString:
		p.nextToken()
		return &StringLiteral{Value: tok.Literal, SpanVal: p.span(start)}

	case TokenChar:
		p.nextToken()
		return &CharLiteral{Value: tok.Literal, SpanVal: p.span(start)}

	case TokenNullChar:
		p.nextToken()
		return &CharLiteral{Null: true, SpanVal: p.span(start)}

	case TokenVrai, TokenFaux:
		p.nextToken()
		return &BoolLiteral{Value: tok.Type == TokenVrai, SpanVal: p.span(start)}

	case TokenNil:
		p.nextToken()
		return &NilLiteral{SpanVal: p.span(start)}

	case TokenLParen:
		p.nextToken()
		x := p.ParseExpression()
		p.expect(TokenRParen)
		return x

	case TokenAmpersand:
		p.nextToken()
		x := p.parsePostfix()
		return &AddrExpr{X: x, SpanVal: p.span(start)}

	case TokenIdentifier:
		p.nextToken()
		if p.accept(TokenLParen) {
			call := &CallExpr{Name: tok.Literal}
			if !p.curTokenIs(TokenRParen) {
				call.Args = p.parseExpressionList()
			}
			p.expect(TokenRParen)
			call.SpanVal = p.span(start)
			return call
		}
		return &Variable{Name: tok.Literal, SpanVal: p.span(start)}

	case TokenLongueur:
		p.nextToken()
		p.expect(TokenLParen)
		x := p.ParseExpression()
		p.expect(TokenRParen)
		return &LengthExpr{X: x, SpanVal: p.span(start)}

	case TokenConcat:
		p.nextToken()
		p.expect(TokenLParen)
		a := p.ParseExpression()
		p.expect(TokenComma)
		b := p.ParseExpression()
		p.expect(TokenRParen)
		return &ConcatExpr{A: a, B: b, SpanVal: p.span(start)}

	case TokenAllouer:
		p.nextToken()
		p.expect(TokenLParen)
		size := p.ParseExpression()
		p.expect(TokenRParen)
		return &AllocExpr{Size: size, SpanVal: p.span(start)}

	case TokenTaille:
		p.nextToken()
		p.expect(TokenLParen)
		t := p.parseType()
		p.expect(TokenRParen)
		return &SizeOfExpr{Type: t, SpanVal: p.span(start)}
	}

	p.fail()
	return nil
}

// Parse parses input and returns the file with lexical and syntax
// diagnostics.
func Parse(input string) (*File, []Diagnostic) {
	p := NewParser(input)
	file := p.ParseFile()
	return file, p.Diagnostics()
}
