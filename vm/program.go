package vm

import "strings"

// ---------------------------------------------------------------------------
// Program: the intermediate representation executed by the interpreter
// ---------------------------------------------------------------------------

// Program is a compiled Algo program. Its textual form (see Text) is laid
// out in a fixed order: runtime preamble, memory map, record support,
// globals, subprograms, main statements.
type Program struct {
	Name      string
	StackBase int
	HeapBase  int
	Records   *RecordRegistry
	Memory    []MemEntry
	Globals   []*Var
	Funcs     []*Func
	Main      []Stmt
	EndLine   int
}

// MemEntry is one row of the memory map: a qualified name (scope.name for
// locals) bound to a simulated address.
type MemEntry struct {
	Name     string
	Addr     int
	Type     *Type
	ElemSize int
	Size     int
}

// Var is a global or local variable. Const holds the value of a constant.
type Var struct {
	Name  string
	Type  *Type
	Addr  int
	Const Value
}

// Param is a subprogram parameter. ByRef parameters alias the caller's
// storage; Clone marks by-value pointers copied on entry.
type Param struct {
	Name  string
	Type  *Type
	Addr  int
	ByRef bool
	Clone bool
}

// Func is a Fonction (Result != nil) or a Procedure.
type Func struct {
	Name    string
	Params  []*Param
	Result  *Type
	Locals  []*Var
	Writes  []string // globals assigned from the body
	Body    []Stmt
	Line    int
	EndLine int
}

// Lookup returns the named subprogram.
func (p *Program) Lookup(name string) (*Func, bool) {
	for _, f := range p.Funcs {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Stmt is an executable statement. Every statement carries its source line.
type Stmt interface {
	StmtLine() int
}

type (
	// Assign stores Value into the place denoted by Target.
	Assign struct {
		Line          int
		Target, Value Expr
	}

	// If is Si / Alors / Sinon.
	If struct {
		Line int
		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	// While is a pre-test TantQue loop.
	While struct {
		Line int
		Cond Expr
		Body []Stmt
	}

	// Repeat is a post-test Repeter ... Jusqua loop.
	Repeat struct {
		Line     int
		CondLine int
		Body     []Stmt
		Cond     Expr
	}

	// For is an inclusive Pour loop; bounds are evaluated once.
	For struct {
		Line     int
		Var      Expr
		From, To Expr
		Body     []Stmt
	}

	// Write is Ecrire: arguments joined by one space, no newline.
	Write struct {
		Line int
		Args []Expr
	}

	// Read is Lire: one input line per target, converted to its declared type.
	Read struct {
		Line    int
		Targets []Expr
		Types   []*Type
	}

	// Return is Retourner; Value is nil in a procedure.
	Return struct {
		Line  int
		Value Expr
	}

	// Free is Liberer.
	Free struct {
		Line int
		Ptr  Expr
	}

	// CallStmt invokes a procedure (or a function, discarding its result).
	CallStmt struct {
		Line int
		Call *Call
	}
)

func (s *Assign) StmtLine() int   { return s.Line }
func (s *If) StmtLine() int       { return s.Line }
func (s *While) StmtLine() int    { return s.Line }
func (s *Repeat) StmtLine() int   { return s.Line }
func (s *For) StmtLine() int      { return s.Line }
func (s *Write) StmtLine() int    { return s.Line }
func (s *Read) StmtLine() int     { return s.Line }
func (s *Return) StmtLine() int   { return s.Line }
func (s *Free) StmtLine() int     { return s.Line }
func (s *CallStmt) StmtLine() int { return s.Line }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Expr is an expression node.
type Expr interface {
	isExpr()
}

type (
	// Lit is a literal: Int, Real, Bool, Char, Str or NIL (zero Pointer).
	Lit struct{ Value Value }

	// VarRef names a local, parameter or global.
	VarRef struct{ Name string }

	// Index is X[I] over an array, a fixed string or a pointer.
	Index struct{ X, I Expr }

	// FieldRef is X.Name on a record.
	FieldRef struct {
		X    Expr
		Name string
	}

	// Deref is X^. AsString reads a character pointer up to the terminator.
	Deref struct {
		X        Expr
		AsString bool
	}

	// AddrOf is &X, also emitted for array and string decay.
	AddrOf struct{ X Expr }

	// Unary is "-" or "non".
	Unary struct {
		Op string
		X  Expr
	}

	// Binary is an arithmetic, relational or logical operator.
	Binary struct {
		Op   string
		L, R Expr
	}

	// Call invokes a Fonction.
	Call struct {
		Name string
		Args []Expr
	}

	// Alloc is allouer(Size) producing cells of Elem.
	Alloc struct {
		Size Expr
		Elem *Type
	}

	// SizeOf is taille(T).
	SizeOf struct{ Type *Type }

	// Length is longueur(X).
	Length struct{ X Expr }

	// ConcatExpr is concat(A, B).
	ConcatExpr struct{ A, B Expr }
)

func (*Lit) isExpr()        {}
func (*VarRef) isExpr()     {}
func (*Index) isExpr()      {}
func (*FieldRef) isExpr()   {}
func (*Deref) isExpr()      {}
func (*AddrOf) isExpr()     {}
func (*Unary) isExpr()      {}
func (*Binary) isExpr()     {}
func (*Call) isExpr()       {}
func (*Alloc) isExpr()      {}
func (*SizeOf) isExpr()     {}
func (*Length) isExpr()     {}
func (*ConcatExpr) isExpr() {}
