package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for Algo
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal Span
	Value   int64
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// RealLiteral represents a real literal.
type RealLiteral struct {
	SpanVal Span
	Value   float64
}

func (n *RealLiteral) Span() Span { return n.SpanVal }
func (n *RealLiteral) node()      {}
func (n *RealLiteral) expr()      {}

// StringLiteral represents a double-quoted string.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// CharLiteral represents a single-quoted literal. Null is set for #0.
type CharLiteral struct {
	SpanVal Span
	Value   string
	Null    bool
}

func (n *CharLiteral) Span() Span { return n.SpanVal }
func (n *CharLiteral) node()      {}
func (n *CharLiteral) expr()      {}

// BoolLiteral represents Vrai or Faux.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// NilLiteral represents NIL.
type NilLiteral struct {
	SpanVal Span
}

func (n *NilLiteral) Span() Span { return n.SpanVal }
func (n *NilLiteral) node()      {}
func (n *NilLiteral) expr()      {}

// Variable represents a variable reference.
type Variable struct {
	SpanVal Span
	Name    string
}

func (n *Variable) Span() Span { return n.SpanVal }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// IndexExpr represents x[i].
type IndexExpr struct {
	SpanVal Span
	X       Expr
	Index   Expr
}

func (n *IndexExpr) Span() Span { return n.SpanVal }
func (n *IndexExpr) node()      {}
func (n *IndexExpr) expr()      {}

// FieldExpr represents r.f, or p->f when Arrow is set.
type FieldExpr struct {
	SpanVal Span
	X       Expr
	Name    string
	Arrow   bool
}

func (n *FieldExpr) Span() Span { return n.SpanVal }
func (n *FieldExpr) node()      {}
func (n *FieldExpr) expr()      {}

// DerefExpr represents p^.
type DerefExpr struct {
	SpanVal Span
	X       Expr
}

func (n *DerefExpr) Span() Span { return n.SpanVal }
func (n *DerefExpr) node()      {}
func (n *DerefExpr) expr()      {}

// AddrExpr represents &x.
type AddrExpr struct {
	SpanVal Span
	X       Expr
}

func (n *AddrExpr) Span() Span { return n.SpanVal }
func (n *AddrExpr) node()      {}
func (n *AddrExpr) expr()      {}

// UnaryExpr represents -x or non x.
type UnaryExpr struct {
	SpanVal Span
	Op      string
	X       Expr
}

func (n *UnaryExpr) Span() Span { return n.SpanVal }
func (n *UnaryExpr) node()      {}
func (n *UnaryExpr) expr()      {}

// BinaryExpr represents a binary operation. Op is the canonical operator:
// + - * / div mod = <> < <= > >= et ou.
type BinaryExpr struct {
	SpanVal Span
	Op      string
	Left    Expr
	Right   Expr
}

func (n *BinaryExpr) Span() Span { return n.SpanVal }
func (n *BinaryExpr) node()      {}
func (n *BinaryExpr) expr()      {}

// CallExpr represents a subprogram call.
type CallExpr struct {
	SpanVal Span
	Name    string
	Args    []Expr
}

func (n *CallExpr) Span() Span { return n.SpanVal }
func (n *CallExpr) node()      {}
func (n *CallExpr) expr()      {}

// AllocExpr represents allouer(size).
type AllocExpr struct {
	SpanVal Span
	Size    Expr
}

func (n *AllocExpr) Span() Span { return n.SpanVal }
func (n *AllocExpr) node()      {}
func (n *AllocExpr) expr()      {}

// SizeOfExpr represents taille(T).
type SizeOfExpr struct {
	SpanVal Span
	Type    *TypeRef
}

func (n *SizeOfExpr) Span() Span { return n.SpanVal }
func (n *SizeOfExpr) node()      {}
func (n *SizeOfExpr) expr()      {}

// LengthExpr represents longueur(x).
type LengthExpr struct {
	SpanVal Span
	X       Expr
}

func (n *LengthExpr) Span() Span { return n.SpanVal }
func (n *LengthExpr) node()      {}
func (n *LengthExpr) expr()      {}

// ConcatExpr represents concat(a, b).
type ConcatExpr struct {
	SpanVal Span
	A, B    Expr
}

func (n *ConcatExpr) Span() Span { return n.SpanVal }
func (n *ConcatExpr) node()      {}
func (n *ConcatExpr) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// AssignStmt represents target := value.
type AssignStmt struct {
	SpanVal Span
	Target  Expr
	Value   Expr
}

func (n *AssignStmt) Span() Span { return n.SpanVal }
func (n *AssignStmt) node()      {}
func (n *AssignStmt) stmt()      {}

// IfStmt represents Si / Alors / Sinon.
type IfStmt struct {
	SpanVal Span
	Cond    Expr
	Then    []Stmt
	Else    []Stmt
}

func (n *IfStmt) Span() Span { return n.SpanVal }
func (n *IfStmt) node()      {}
func (n *IfStmt) stmt()      {}

// WhileStmt represents TantQue.
type WhileStmt struct {
	SpanVal Span
	Cond    Expr
	Body    []Stmt
}

func (n *WhileStmt) Span() Span { return n.SpanVal }
func (n *WhileStmt) node()      {}
func (n *WhileStmt) stmt()      {}

// RepeatStmt represents Repeter ... Jusqua.
type RepeatStmt struct {
	SpanVal Span
	Body    []Stmt
	Until   Position
	Cond    Expr
}

func (n *RepeatStmt) Span() Span { return n.SpanVal }
func (n *RepeatStmt) node()      {}
func (n *RepeatStmt) stmt()      {}

// ForStmt represents Pour v := from a to Faire.
type ForStmt struct {
	SpanVal Span
	Var     *Variable
	From    Expr
	To      Expr
	Body    []Stmt
}

func (n *ForStmt) Span() Span { return n.SpanVal }
func (n *ForStmt) node()      {}
func (n *ForStmt) stmt()      {}

// WriteStmt represents Ecrire(...).
type WriteStmt struct {
	SpanVal Span
	Args    []Expr
}

func (n *WriteStmt) Span() Span { return n.SpanVal }
func (n *WriteStmt) node()      {}
func (n *WriteStmt) stmt()      {}

// ReadStmt represents Lire(...).
type ReadStmt struct {
	SpanVal Span
	Targets []Expr
}

func (n *ReadStmt) Span() Span { return n.SpanVal }
func (n *ReadStmt) node()      {}
func (n *ReadStmt) stmt()      {}

// ReturnStmt represents Retourner expr.
type ReturnStmt struct {
	SpanVal Span
	Value   Expr
}

func (n *ReturnStmt) Span() Span { return n.SpanVal }
func (n *ReturnStmt) node()      {}
func (n *ReturnStmt) stmt()      {}

// FreeStmt represents Liberer(p).
type FreeStmt struct {
	SpanVal Span
	Ptr     Expr
}

func (n *FreeStmt) Span() Span { return n.SpanVal }
func (n *FreeStmt) node()      {}
func (n *FreeStmt) stmt()      {}

// CallStmt represents a procedure call used as a statement.
type CallStmt struct {
	SpanVal Span
	Call    *CallExpr
}

func (n *CallStmt) Span() Span { return n.SpanVal }
func (n *CallStmt) node()      {}
func (n *CallStmt) stmt()      {}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// TypeRef is a type as written: a base type name, a record name, or ^T.
type TypeRef struct {
	SpanVal Span
	Name    string   // Entier, Reel, Booleen, Caractere, Chaine or a record name
	Elem    *TypeRef // pointed-to type when the ref is ^T
}

func (n *TypeRef) Span() Span { return n.SpanVal }
func (n *TypeRef) node()      {}

// Decl is the interface for declaration nodes.
type Decl interface {
	Node
	decl() // marker method
}

// DeclName is one declared name with optional dimensions: x, t[10], m[3][4].
type DeclName struct {
	Pos  Position
	Name string
	Dims []int
}

// VarDecl declares one or more variables sharing a type. Unsized marks the
// `t : Tableau de T` form.
type VarDecl struct {
	SpanVal Span
	Names   []DeclName
	Type    *TypeRef
	Unsized bool
}

func (n *VarDecl) Span() Span { return n.SpanVal }
func (n *VarDecl) node()      {}
func (n *VarDecl) decl()      {}

// ConstDecl declares a named constant.
type ConstDecl struct {
	SpanVal Span
	Name    string
	Value   Expr
}

func (n *ConstDecl) Span() Span { return n.SpanVal }
func (n *ConstDecl) node()      {}
func (n *ConstDecl) decl()      {}

// FieldDecl declares record fields sharing a type.
type FieldDecl struct {
	Names []DeclName
	Type  *TypeRef
}

// RecordDecl declares Type Name = Enregistrement ... Fin.
type RecordDecl struct {
	SpanVal Span
	Name    string
	Fields  []*FieldDecl
}

func (n *RecordDecl) Span() Span { return n.SpanVal }
func (n *RecordDecl) node()      {}
func (n *RecordDecl) decl()      {}

// ParamDecl is one formal parameter.
type ParamDecl struct {
	Pos   Position
	Name  string
	ByRef bool
	Dims  []int
	Type  *TypeRef
}

// FuncDecl declares a Fonction (Result != nil) or a Procedure.
type FuncDecl struct {
	SpanVal Span
	Name    string
	Params  []*ParamDecl
	Result  *TypeRef
	Decls   []Decl
	Body    []Stmt
}

func (n *FuncDecl) Span() Span { return n.SpanVal }
func (n *FuncDecl) node()      {}
func (n *FuncDecl) decl()      {}

// IsFunction reports whether the subprogram returns a value.
func (n *FuncDecl) IsFunction() bool { return n.Result != nil }

// ---------------------------------------------------------------------------
// Source file
// ---------------------------------------------------------------------------

// File is a whole program. Decls keep source order, including record and
// subprogram declarations written before Algorithme.
type File struct {
	SpanVal Span
	Name    string
	Decls   []Decl
	Body    []Stmt
}

func (n *File) Span() Span { return n.SpanVal }
func (n *File) node()      {}
