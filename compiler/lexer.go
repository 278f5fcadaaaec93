package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Algo source
// ---------------------------------------------------------------------------

// Lexer tokenizes Algo source code. Illegal characters are reported as
// diagnostics and skipped; lexing never stops early.
type Lexer struct {
	input     string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        rune // current character
	line      int  // current line (1-based)
	lineStart int  // offset of current line start

	diagnostics []Diagnostic
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: utf8.RuneCountInString(l.input[l.lineStart:l.pos]) + 1,
	}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// Diagnostics returns the lexical errors seen so far.
func (l *Lexer) Diagnostics() []Diagnostic {
	return l.diagnostics
}

func (l *Lexer) illegal(pos Position, ch rune) {
	l.diagnostics = append(l.diagnostics, Diagnostic{
		Line:     pos.Line,
		Column:   pos.Column,
		Message:  fmt.Sprintf("Illegal character '%c'", ch),
		Category: CategoryLexical,
		Code:     CodeIllegalChar,
	})
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespaceAndComments()
		pos := l.position()
		if l.atEOF() {
			return Token{Type: TokenEOF, Pos: pos, End: pos}
		}
		if tok, ok := l.scan(pos); ok {
			tok.End = l.position()
			return tok
		}
	}
}

// scan reads one token starting at the current character. It returns
// false after reporting and skipping an illegal character.
func (l *Lexer) scan(pos Position) (Token, bool) {
	simple := func(t TokenType, lit string) (Token, bool) {
		for range lit {
			l.readChar()
		}
		return Token{Type: t, Literal: lit, Pos: pos}, true
	}

	switch ch := l.ch; {
	case ch == '(':
		return simple(TokenLParen, "(")
	case ch == ')':
		return simple(TokenRParen, ")")
	case ch == '[':
		return simple(TokenLBracket, "[")
	case ch == ']':
		return simple(TokenRBracket, "]")
	case ch == '^':
		return simple(TokenCaret, "^")
	case ch == '&':
		return simple(TokenAmpersand, "&")
	case ch == '.':
		return simple(TokenDot, ".")
	case ch == ',':
		return simple(TokenComma, ",")
	case ch == ';':
		return simple(TokenSemicolon, ";")
	case ch == '+':
		return simple(TokenPlus, "+")
	case ch == '*':
		return simple(TokenStar, "*")
	case ch == '/':
		return simple(TokenSlash, "/")
	case ch == '=':
		return simple(TokenEq, "=")

	case ch == ':':
		if l.peekChar() == '=' {
			return simple(TokenAssign, ":=")
		}
		return simple(TokenColon, ":")

	case ch == '-':
		if l.peekChar() == '>' {
			return simple(TokenArrow, "->")
		}
		return simple(TokenMinus, "-")

	case ch == '<':
		switch l.peekChar() {
		case '-':
			return simple(TokenAssign, "<-")
		case '=':
			return simple(TokenLe, "<=")
		case '>':
			return simple(TokenNeq, "<>")
		}
		return simple(TokenLt, "<")

	case ch == '>':
		if l.peekChar() == '=' {
			return simple(TokenGe, ">=")
		}
		return simple(TokenGt, ">")

	case ch == '#':
		// only #0 reaches here; other #digit sequences are illegal
		if l.peekChar() == '0' {
			return simple(TokenNullChar, "#0")
		}
		l.illegal(pos, ch)
		l.readChar()
		return Token{}, false

	case ch == '"':
		return l.readString(pos)

	case ch == '\'':
		return l.readCharacter(pos)

	case isDigit(ch):
		return l.readNumber(pos), true

	case isLetter(ch):
		return l.readIdentifierOrKeyword(pos), true
	}

	l.illegal(pos, l.ch)
	l.readChar()
	return Token{}, false
}

// skipWhitespaceAndComments skips blanks, // comments and # comments.
// A # directly followed by a digit is the null character, not a comment.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			l.skipLine()
		case l.ch == '#' && !isDigit(l.peekChar()):
			l.skipLine()
		default:
			return
		}
	}
}

func (l *Lexer) skipLine() {
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
}

// readString reads a double-quoted string. \n and \t are expanded.
func (l *Lexer) readString(pos Position) (Token, bool) {
	end := strings.IndexByte(l.input[l.readPos:], '"')
	if end < 0 {
		l.illegal(pos, l.ch)
		l.readChar()
		return Token{}, false
	}
	raw := l.input[l.readPos : l.readPos+end]
	for l.pos < pos.Offset+end+2 && !l.atEOF() {
		l.readChar()
	}
	value := strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(raw)
	return Token{Type: TokenString, Literal: value, Pos: pos}, true
}

// readCharacter reads a single-quoted literal. Its content is kept as is;
// the parser decides what a multi-character literal means.
func (l *Lexer) readCharacter(pos Position) (Token, bool) {
	end := strings.IndexByte(l.input[l.readPos:], '\'')
	if end < 0 {
		l.illegal(pos, l.ch)
		l.readChar()
		return Token{}, false
	}
	raw := l.input[l.readPos : l.readPos+end]
	for l.pos < pos.Offset+end+2 && !l.atEOF() {
		l.readChar()
	}
	return Token{Type: TokenChar, Literal: raw, Pos: pos}, true
}

// readNumber reads 123 or 123.45. A dot not followed by a digit is left
// for the parser.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenReal, Literal: l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

// readIdentifierOrKeyword reads an identifier or reserved word.
func (l *Lexer) readIdentifierOrKeyword(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if t, ok := reservedWords[foldKeyword(lit)]; ok {
		return Token{Type: t, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenIdentifier, Literal: lit, Pos: pos}
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// foldKeyword strips accents and case so that Début, DEBUT and debut
// all name the same reserved word.
func foldKeyword(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Tokenize returns all tokens of input, ending with EOF, and the lexical
// diagnostics.
func Tokenize(input string) ([]Token, []Diagnostic) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, l.Diagnostics()
}

// IsKeyword reports whether word is a reserved word in any spelling.
func IsKeyword(word string) bool {
	_, ok := reservedWords[foldKeyword(word)]
	return ok
}
