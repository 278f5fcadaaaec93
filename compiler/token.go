package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Algo lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Literals
	TokenInteger    // 42
	TokenReal       // 3.14
	TokenChar       // 'a'
	TokenNullChar   // #0
	TokenString     // "hello\n"
	TokenIdentifier // compteur

	// Operators and delimiters
	TokenAssign    // := or <-
	TokenColon     // :
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenCaret     // ^
	TokenAmpersand // &
	TokenArrow     // ->
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenEq        // =
	TokenNeq       // <>
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=

	// Reserved words
	TokenAlgorithme
	TokenVar
	TokenConst
	TokenType_
	TokenEnregistrement
	TokenDebut
	TokenFin
	TokenSi
	TokenAlors
	TokenSinon
	TokenFsi
	TokenPour
	TokenFinPour
	TokenTantQue
	TokenFinTantQue
	TokenQue
	TokenFaire
	TokenRepeter
	TokenJusqua
	TokenTableau
	TokenDe
	TokenEcrire
	TokenLire
	TokenRetourner
	TokenFonction
	TokenProcedure
	TokenAllouer
	TokenLiberer
	TokenTaille
	TokenEntier
	TokenReel
	TokenChaine
	TokenBooleen
	TokenCaractere
	TokenMod
	TokenDiv
	TokenEt
	TokenOu
	TokenNon
	TokenLongueur
	TokenConcat
	TokenVrai
	TokenFaux
	TokenNil
)

var tokenNames = map[TokenType]string{
	TokenEOF:            "EOF",
	TokenInteger:        "INTEGER",
	TokenReal:           "REAL",
	TokenChar:           "CHAR",
	TokenNullChar:       "#0",
	TokenString:         "STRING",
	TokenIdentifier:     "IDENTIFIER",
	TokenAssign:         ":=",
	TokenColon:          ":",
	TokenSemicolon:      ";",
	TokenComma:          ",",
	TokenDot:            ".",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenCaret:          "^",
	TokenAmpersand:      "&",
	TokenArrow:          "->",
	TokenPlus:           "+",
	TokenMinus:          "-",
	TokenStar:           "*",
	TokenSlash:          "/",
	TokenEq:             "=",
	TokenNeq:            "<>",
	TokenLt:             "<",
	TokenLe:             "<=",
	TokenGt:             ">",
	TokenGe:             ">=",
	TokenAlgorithme:     "Algorithme",
	TokenVar:            "Var",
	TokenConst:          "Const",
	TokenType_:          "Type",
	TokenEnregistrement: "Enregistrement",
	TokenDebut:          "Debut",
	TokenFin:            "Fin",
	TokenSi:             "Si",
	TokenAlors:          "Alors",
	TokenSinon:          "Sinon",
	TokenFsi:            "Fsi",
	TokenPour:           "Pour",
	TokenFinPour:        "FinPour",
	TokenTantQue:        "TantQue",
	TokenFinTantQue:     "FinTantQue",
	TokenQue:            "Que",
	TokenFaire:          "Faire",
	TokenRepeter:        "Repeter",
	TokenJusqua:         "Jusqua",
	TokenTableau:        "Tableau",
	TokenDe:             "de",
	TokenEcrire:         "Ecrire",
	TokenLire:           "Lire",
	TokenRetourner:      "Retourner",
	TokenFonction:       "Fonction",
	TokenProcedure:      "Procedure",
	TokenAllouer:        "allouer",
	TokenLiberer:        "liberer",
	TokenTaille:         "taille",
	TokenEntier:         "Entier",
	TokenReel:           "Reel",
	TokenChaine:         "Chaine",
	TokenBooleen:        "Booleen",
	TokenCaractere:      "Caractere",
	TokenMod:            "mod",
	TokenDiv:            "div",
	TokenEt:             "et",
	TokenOu:             "ou",
	TokenNon:            "non",
	TokenLongueur:       "longueur",
	TokenConcat:         "concat",
	TokenVrai:           "Vrai",
	TokenFaux:           "Faux",
	TokenNil:            "NIL",
}

// String returns the string representation of a token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     Position
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Pos.Line, t.Pos.Column)
}

// reservedWords maps folded keywords to token types. Keywords are matched
// case-insensitively and without accents, so Début and DEBUT are Debut.
var reservedWords = map[string]TokenType{
	"algorithme":     TokenAlgorithme,
	"var":            TokenVar,
	"const":          TokenConst,
	"type":           TokenType_,
	"enregistrement": TokenEnregistrement,
	"debut":          TokenDebut,
	"fin":            TokenFin,
	"si":             TokenSi,
	"alors":          TokenAlors,
	"sinon":          TokenSinon,
	"fsi":            TokenFsi,
	"finsi":          TokenFsi,
	"pour":           TokenPour,
	"finpour":        TokenFinPour,
	"tant":           TokenTantQue,
	"tantque":        TokenTantQue,
	"fintantque":     TokenFinTantQue,
	"que":            TokenQue,
	"faire":          TokenFaire,
	"repeter":        TokenRepeter,
	"jusqua":         TokenJusqua,
	"tableau":        TokenTableau,
	"de":             TokenDe,
	"ecrire":         TokenEcrire,
	"lire":           TokenLire,
	"retourner":      TokenRetourner,
	"fonction":       TokenFonction,
	"procedure":      TokenProcedure,
	"allouer":        TokenAllouer,
	"liberer":        TokenLiberer,
	"taille":         TokenTaille,
	"entier":         TokenEntier,
	"reel":           TokenReel,
	"chaine":         TokenChaine,
	"booleen":        TokenBooleen,
	"caractere":      TokenCaractere,
	"mod":            TokenMod,
	"div":            TokenDiv,
	"et":             TokenEt,
	"ou":             TokenOu,
	"non":            TokenNon,
	"longueur":       TokenLongueur,
	"long":           TokenLongueur,
	"concat":         TokenConcat,
	"vrai":           TokenVrai,
	"faux":           TokenFaux,
	"nil":            TokenNil,
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokenAlgorithme && t <= TokenNil
}

// Keywords lists the reserved words in their usual spelling, for editors.
var Keywords = []string{
	"Algorithme", "Var", "Const", "Type", "Enregistrement", "Debut", "Fin",
	"Si", "Alors", "Sinon", "FinSi", "Pour", "FinPour", "TantQue", "FinTantQue",
	"Faire", "Repeter", "Jusqua", "Tableau", "de", "Ecrire", "Lire", "Retourner",
	"Fonction", "Procedure", "allouer", "liberer", "taille", "Entier", "Reel",
	"Chaine", "Booleen", "Caractere", "mod", "div", "et", "ou", "non",
	"longueur", "concat", "Vrai", "Faux", "NIL",
}
