package compiler

import (
	"strings"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

// ---------------------------------------------------------------------------
// Semantic Analyzer: scopes, layout and type checks
// ---------------------------------------------------------------------------

// Info is everything code generation needs from analysis: the record
// registry, the scopes, the memory map and the type of every expression.
type Info struct {
	Records *vm.RecordRegistry
	Global  *Scope
	Memory  *MemoryTable
	Funcs   []*FuncInfo
	Types   map[Expr]*vm.Type
	Sizes   map[*SizeOfExpr]*vm.Type
	Refs    map[*Variable]*Symbol

	funcs map[string]*FuncInfo
}

// Func returns the subprogram registered under name (case-insensitive).
func (in *Info) Func(name string) (*FuncInfo, bool) {
	f, ok := in.funcs[strings.ToLower(name)]
	return f, ok
}

// TypeOf returns the checked type of e, or the invalid type when e was
// never reached by the analyzer.
func (in *Info) TypeOf(e Expr) *vm.Type {
	if t, ok := in.Types[e]; ok && t != nil {
		return t
	}
	return vm.InvalidType
}

// FuncInfo describes one subprogram after analysis.
type FuncInfo struct {
	Decl   *FuncDecl
	Scope  *Scope
	Params []*Symbol
	Result *vm.Type
	Writes []string // globals assigned from the body, in first-write order

	writes map[string]bool
}

func (f *FuncInfo) noteWrite(name string) {
	if f.writes[name] {
		return
	}
	f.writes[name] = true
	f.Writes = append(f.Writes, name)
}

// typeContext tells resolveType where a type appears, which decides how a
// Chaine without capacity is treated.
type typeContext int

const (
	ctxVar typeContext = iota
	ctxParam
	ctxField
)

// Analyzer checks a parsed file and lays out its storage.
type Analyzer struct {
	info    *Info
	diags   *diagList
	records map[string]bool
	scope   *Scope
	fn      *FuncInfo
}

// NewAnalyzer creates an analyzer allocating variables from stackBase.
// Diagnostics are appended to diags.
func NewAnalyzer(stackBase int, diags *diagList) *Analyzer {
	reg := vm.NewRecordRegistry()
	global := NewScope("", nil)
	return &Analyzer{
		info: &Info{
			Records: reg,
			Global:  global,
			Memory:  NewMemoryTable(stackBase, reg),
			Types:   make(map[Expr]*vm.Type),
			Sizes:   make(map[*SizeOfExpr]*vm.Type),
			Refs:    make(map[*Variable]*Symbol),
			funcs:   make(map[string]*FuncInfo),
		},
		diags:   diags,
		records: make(map[string]bool),
		scope:   global,
	}
}

// Analyze checks file and returns the analysis result.
func (a *Analyzer) Analyze(file *File) *Info {
	// Records first, so that any declaration may name any record.
	for _, d := range file.Decls {
		if r, ok := d.(*RecordDecl); ok {
			a.records[strings.ToLower(r.Name)] = true
		}
	}
	for _, d := range file.Decls {
		if r, ok := d.(*RecordDecl); ok {
			a.defineRecord(r)
		}
	}
	a.info.Records.Relayout()

	for _, d := range file.Decls {
		switch d := d.(type) {
		case *VarDecl:
			a.declareVars(d)
		case *ConstDecl:
			a.declareConst(d)
		case *FuncDecl:
			a.declareFunc(d)
		}
	}

	for _, f := range a.info.Funcs {
		a.scope, a.fn = f.Scope, f
		a.checkBlock(f.Decl.Body)
	}
	a.scope, a.fn = a.info.Global, nil
	a.checkBlock(file.Body)
	return a.info
}

func (a *Analyzer) errorAt(pos Position, code, format string, args ...interface{}) {
	a.diags.add(pos, CategorySemantic, code, format, args...)
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (a *Analyzer) defineRecord(d *RecordDecl) {
	var fields []vm.Field
	for _, fd := range d.Fields {
		for _, n := range fd.Names {
			t := a.resolveType(fd.Type, n, ctxField)
			fields = append(fields, vm.Field{Name: n.Name, Type: t})
		}
	}
	a.info.Records.Define(d.Name, fields)
}

// resolveRef resolves a written type without dimensions.
func (a *Analyzer) resolveRef(ref *TypeRef) *vm.Type {
	if ref == nil {
		return vm.InvalidType
	}
	if ref.Elem != nil {
		return vm.PointerTo(a.resolveRef(ref.Elem))
	}
	switch foldKeyword(ref.Name) {
	case "entier":
		return vm.IntType
	case "reel":
		return vm.RealType
	case "booleen":
		return vm.BoolType
	case "caractere":
		return vm.CharType
	case "chaine":
		return vm.StrType
	}
	if a.records[strings.ToLower(ref.Name)] {
		if def, ok := a.info.Records.Lookup(ref.Name); ok {
			return vm.RecordNamed(def.Name)
		}
		return vm.RecordNamed(ref.Name)
	}
	a.errorAt(ref.SpanVal.Start, CodeUnknownType, "Unknown type '%s'", ref.Name)
	return vm.IntType
}

// resolveType applies the dimensions written after a declared name. On a
// Chaine, one dimension is the capacity and two make a word matrix.
func (a *Analyzer) resolveType(ref *TypeRef, n DeclName, ctx typeContext) *vm.Type {
	base := a.resolveRef(ref)
	if base.Kind == vm.KindString && base.Cap == 0 {
		switch len(n.Dims) {
		case 0:
			if ctx == ctxVar {
				a.errorAt(n.Pos, CodeBadStatement,
					"Variables de type Chaine doivent avoir une taille fixe (ex: %s[10]: Chaine)", n.Name)
			}
			return vm.StringOf(vm.MaxStringSize)
		case 1:
			return vm.StringOf(n.Dims[0])
		default:
			return vm.ArrayOf(vm.StringOf(n.Dims[1]), n.Dims[0])
		}
	}
	switch len(n.Dims) {
	case 0:
		return base
	case 1:
		return vm.ArrayOf(base, n.Dims[0])
	default:
		return vm.MatrixOf(base, n.Dims[0], n.Dims[1])
	}
}

func (a *Analyzer) declareVars(d *VarDecl) {
	for _, n := range d.Names {
		var t *vm.Type
		if d.Unsized {
			t = vm.PointerTo(a.resolveRef(d.Type))
		} else {
			t = a.resolveType(d.Type, n, ctxVar)
		}
		a.declare(&Symbol{Name: n.Name, Kind: SymVar, Type: t, Pos: n.Pos})
	}
}

// declare inserts sym into the current scope and gives it storage.
func (a *Analyzer) declare(sym *Symbol) {
	sym.Qualified = a.scope.Qualify(sym.Name)
	e := a.info.Memory.Allocate(sym.Qualified, sym.Type)
	sym.Addr, sym.ElemSize, sym.Size = e.Addr, e.ElemSize, e.Size
	a.scope.Insert(sym)
}

// declareConst registers a constant. Constants have no storage.
func (a *Analyzer) declareConst(d *ConstDecl) {
	v, t := constValue(d.Value)
	a.info.Types[d.Value] = t
	a.scope.Insert(&Symbol{
		Name:      d.Name,
		Qualified: a.scope.Qualify(d.Name),
		Kind:      SymConst,
		Type:      t,
		Value:     v,
		Pos:       d.SpanVal.Start,
	})
}

func constValue(e Expr) (vm.Value, *vm.Type) {
	switch e := e.(type) {
	case *IntLiteral:
		return vm.Int(e.Value), vm.IntType
	case *RealLiteral:
		return vm.Real(e.Value), vm.RealType
	case *StringLiteral:
		return vm.Str(e.Value), vm.StrType
	case *CharLiteral:
		return charLiteral(e)
	case *BoolLiteral:
		return vm.Bool(e.Value), vm.BoolType
	case *UnaryExpr:
		switch v := e.X.(type) {
		case *IntLiteral:
			return vm.Int(-v.Value), vm.IntType
		case *RealLiteral:
			return vm.Real(-v.Value), vm.RealType
		}
	}
	return vm.Int(0), vm.InvalidType
}

// charLiteral types a single-quoted literal: one character (or #0) is a
// Caractere, anything longer is a Chaine.
func charLiteral(e *CharLiteral) (vm.Value, *vm.Type) {
	if e.Null {
		return vm.Char(vm.Terminator), vm.CharType
	}
	r := []rune(e.Value)
	switch len(r) {
	case 0:
		return vm.Char(vm.Terminator), vm.CharType
	case 1:
		return vm.Char(r[0]), vm.CharType
	}
	return vm.Str(e.Value), vm.StrType
}

func (a *Analyzer) declareFunc(d *FuncDecl) {
	f := &FuncInfo{
		Decl:   d,
		Scope:  NewScope(d.Name, a.info.Global),
		writes: make(map[string]bool),
	}
	saved := a.scope
	a.scope = f.Scope
	defer func() { a.scope = saved }()

	for _, p := range d.Params {
		t := a.resolveType(p.Type, DeclName{Pos: p.Pos, Name: p.Name, Dims: p.Dims}, ctxParam)
		sym := &Symbol{Name: p.Name, Kind: SymParam, Type: t, ByRef: p.ByRef, Pos: p.Pos}
		a.declare(sym)
		f.Params = append(f.Params, sym)
	}
	if d.Result != nil {
		f.Result = a.resolveType(d.Result, DeclName{Name: d.Name}, ctxParam)
	}
	for _, ld := range d.Decls {
		switch ld := ld.(type) {
		case *VarDecl:
			a.declareVars(ld)
		case *ConstDecl:
			a.declareConst(ld)
		}
	}

	key := strings.ToLower(d.Name)
	if old, ok := a.info.funcs[key]; ok {
		for i, g := range a.info.Funcs {
			if g == old {
				a.info.Funcs[i] = f
			}
		}
	} else {
		a.info.Funcs = append(a.info.Funcs, f)
	}
	a.info.funcs[key] = f
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (a *Analyzer) checkBlock(list []Stmt) {
	for _, s := range list {
		a.checkStmt(s)
	}
}

func (a *Analyzer) checkStmt(s Stmt) {
	switch s := s.(type) {
	case *AssignStmt:
		a.checkAssign(s)
	case *IfStmt:
		a.checkExpr(s.Cond)
		a.checkBlock(s.Then)
		a.checkBlock(s.Else)
	case *WhileStmt:
		a.checkExpr(s.Cond)
		a.checkBlock(s.Body)
	case *RepeatStmt:
		a.checkBlock(s.Body)
		a.checkExpr(s.Cond)
	case *ForStmt:
		vt := a.checkExpr(s.Var)
		if vt.Kind != vm.KindInt && vt.Kind != vm.KindInvalid {
			a.errorAt(s.Var.SpanVal.Start, CodeTypeMismatch,
				"Type mismatch: la variable de boucle '%s' doit etre un Entier, pas %s", s.Var.Name, vt)
		}
		a.noteWrite(s.Var)
		a.checkNumeric(s.From)
		a.checkNumeric(s.To)
		a.checkBlock(s.Body)
	case *WriteStmt:
		for _, arg := range s.Args {
			a.checkExpr(arg)
		}
	case *ReadStmt:
		for _, t := range s.Targets {
			a.checkExpr(t)
			a.checkTarget(t)
		}
	case *ReturnStmt:
		t := a.checkExpr(s.Value)
		if a.fn == nil || a.fn.Result == nil {
			a.errorAt(s.SpanVal.Start, CodeReturnOutside,
				"Erreur semantique: RETOURNER n'est autorise que dans une FONCTION.")
			return
		}
		if !a.assignable(a.fn.Result, t, s.Value) {
			a.errorAt(s.Value.Span().Start, CodeTypeMismatch,
				"Type mismatch: '%s' doit retourner %s, pas %s", a.fn.Decl.Name, a.fn.Result, t)
		}
	case *FreeStmt:
		t := a.checkExpr(s.Ptr)
		if !t.IsPointer() && t.Kind != vm.KindInvalid {
			a.errorAt(s.Ptr.Span().Start, CodeTypeMismatch,
				"Type mismatch: Liberer attend un pointeur, pas %s", t)
		}
	case *CallStmt:
		a.checkCall(s.Call)
	}
}

func (a *Analyzer) checkNumeric(e Expr) {
	t := a.checkExpr(e)
	if !t.IsNumeric() && t.Kind != vm.KindInvalid {
		a.errorAt(e.Span().Start, CodeTypeMismatch, "Type mismatch: valeur numerique attendue, pas %s", t)
	}
}

func (a *Analyzer) checkAssign(s *AssignStmt) {
	tt := a.checkExpr(s.Target)
	vt := a.checkExpr(s.Value)
	if !a.checkTarget(s.Target) {
		return
	}
	if tt.Kind == vm.KindChar && vt.Kind == vm.KindString {
		a.errorAt(s.Value.Span().Start, CodeStringToChar,
			"Type error: '%s' attend un Caractere (guillemets simples 'X'), pas une Chaine.", describe(s.Target))
		return
	}
	if alloc, ok := s.Value.(*AllocExpr); ok {
		if sz := findSizeOf(alloc.Size); sz != nil {
			want := a.info.Sizes[sz]
			if tt.Kind == vm.KindPointer && want != nil && !sameCell(tt.Elem, want) {
				a.errorAt(s.Value.Span().Start, CodeAllocMismatch,
					"Erreur semantique: Impossible d'allouer espace '%s' pour '%s' (Type declare: %s)",
					strings.ToUpper(want.String()), describe(s.Target), tt)
				return
			}
		}
	}
	if !a.assignable(tt, vt, s.Value) {
		a.errorAt(s.Value.Span().Start, CodeTypeMismatch,
			"Type mismatch: Cannot assign %s to %s (%s)", vt, describe(s.Target), tt)
	}
}

// checkTarget reports targets that cannot be written and records global
// writes from subprograms.
func (a *Analyzer) checkTarget(e Expr) bool {
	if !addressable(e) {
		a.errorAt(e.Span().Start, CodeTypeMismatch, "Cible d'affectation invalide: '%s'", describe(e))
		return false
	}
	if v, ok := e.(*Variable); ok {
		if sym := a.info.Refs[v]; sym != nil && sym.Kind == SymConst {
			a.errorAt(v.SpanVal.Start, CodeConstAssign, "Impossible de modifier la constante '%s'.", v.Name)
			return false
		}
	}
	a.noteWrite(e)
	return true
}

// noteWrite records the root variable of a write path when it is a global
// assigned from inside a subprogram. Writes through pointers are not tracked.
func (a *Analyzer) noteWrite(e Expr) {
	if a.fn == nil {
		return
	}
	for {
		switch x := e.(type) {
		case *Variable:
			if sym := a.info.Refs[x]; sym != nil && sym.Scope != nil && sym.Scope.IsGlobal() {
				a.fn.noteWrite(sym.Name)
			}
			return
		case *IndexExpr:
			e = x.X
		case *FieldExpr:
			if x.Arrow {
				return
			}
			e = x.X
		default:
			return
		}
	}
}

func addressable(e Expr) bool {
	switch e.(type) {
	case *Variable, *IndexExpr, *FieldExpr, *DerefExpr:
		return true
	}
	return false
}

func findSizeOf(e Expr) *SizeOfExpr {
	switch e := e.(type) {
	case *SizeOfExpr:
		return e
	case *BinaryExpr:
		if s := findSizeOf(e.Left); s != nil {
			return s
		}
		return findSizeOf(e.Right)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// checkExpr types e, records the result and returns it. Errors yield the
// invalid type, which is compatible with everything to avoid cascades.
func (a *Analyzer) checkExpr(e Expr) *vm.Type {
	if e == nil {
		return vm.InvalidType
	}
	t := a.exprType(e)
	if t == nil {
		t = vm.InvalidType
	}
	a.info.Types[e] = t
	return t
}

func (a *Analyzer) exprType(e Expr) *vm.Type {
	switch e := e.(type) {
	case *IntLiteral:
		return vm.IntType
	case *RealLiteral:
		return vm.RealType
	case *StringLiteral:
		return vm.StrType
	case *CharLiteral:
		_, t := charLiteral(e)
		return t
	case *BoolLiteral:
		return vm.BoolType
	case *NilLiteral:
		return vm.NilType

	case *Variable:
		sym, ok := a.scope.Lookup(e.Name)
		if !ok {
			a.errorAt(e.SpanVal.Start, CodeUndeclared, "Variable non déclarée: '%s'", e.Name)
			return vm.InvalidType
		}
		a.info.Refs[e] = sym
		return sym.Type

	case *IndexExpr:
		xt := a.checkExpr(e.X)
		it := a.checkExpr(e.Index)
		if it.Kind != vm.KindInt && it.Kind != vm.KindInvalid {
			a.errorAt(e.Index.Span().Start, CodeTypeMismatch, "Type mismatch: indice Entier attendu, pas %s", it)
		}
		switch xt.Kind {
		case vm.KindArray:
			return xt.Elem
		case vm.KindString:
			return vm.CharType
		case vm.KindPointer:
			if xt.Elem.Kind == vm.KindString {
				return vm.CharType
			}
			return xt.Elem
		case vm.KindInvalid:
			return vm.InvalidType
		}
		a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '%s' (%s) n'est pas indexable", describe(e.X), xt)
		return vm.InvalidType

	case *FieldExpr:
		xt := a.checkExpr(e.X)
		rt := xt
		if xt.Kind == vm.KindPointer {
			rt = xt.Elem
		} else if e.Arrow && xt.Kind != vm.KindInvalid {
			a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '->' attend un pointeur, pas %s", xt)
			return vm.InvalidType
		}
		switch rt.Kind {
		case vm.KindInvalid:
			return vm.InvalidType
		case vm.KindRecord:
			def, ok := a.info.Records.Lookup(rt.Record)
			if !ok {
				return vm.InvalidType
			}
			i, ok := def.FieldIndex(e.Name)
			if !ok {
				a.errorAt(e.SpanVal.Start, CodeUnknownField, "Champ inconnu: '%s' dans l'enregistrement '%s'", e.Name, def.Name)
				return vm.InvalidType
			}
			return def.Fields[i].Type
		}
		a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '%s' (%s) n'est pas un enregistrement", describe(e.X), xt)
		return vm.InvalidType

	case *DerefExpr:
		xt := a.checkExpr(e.X)
		switch xt.Kind {
		case vm.KindPointer:
			return xt.Elem
		case vm.KindInvalid, vm.KindNil:
			return vm.InvalidType
		}
		a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '%s' n'est pas un pointeur", describe(e.X))
		return vm.InvalidType

	case *AddrExpr:
		xt := a.checkExpr(e.X)
		if !addressable(e.X) {
			a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '&' attend une variable")
			return vm.InvalidType
		}
		switch xt.Kind {
		case vm.KindArray:
			return vm.PointerTo(xt.Elem)
		case vm.KindString:
			return vm.PointerTo(vm.StrType)
		case vm.KindInvalid:
			return vm.PointerTo(vm.InvalidType)
		}
		return vm.PointerTo(xt)

	case *UnaryExpr:
		xt := a.checkExpr(e.X)
		if e.Op == "non" {
			return vm.BoolType
		}
		if xt.IsNumeric() || xt.Kind == vm.KindInvalid {
			return xt
		}
		a.errorAt(e.SpanVal.Start, CodeTypeMismatch, "Type mismatch: '-' impossible sur %s", xt)
		return vm.InvalidType

	case *BinaryExpr:
		return a.binaryType(e)

	case *CallExpr:
		f := a.checkCall(e)
		if f == nil || f.Result == nil {
			return vm.InvalidType
		}
		return f.Result

	case *AllocExpr:
		a.checkNumeric(e.Size)
		return vm.PointerTo(vm.InvalidType)

	case *SizeOfExpr:
		a.info.Sizes[e] = a.resolveRef(e.Type)
		return vm.IntType

	case *LengthExpr:
		a.checkExpr(e.X)
		return vm.IntType

	case *ConcatExpr:
		a.checkExpr(e.A)
		a.checkExpr(e.B)
		return vm.StrType
	}
	return vm.InvalidType
}

func (a *Analyzer) binaryType(e *BinaryExpr) *vm.Type {
	lt := a.checkExpr(e.Left)
	rt := a.checkExpr(e.Right)
	switch e.Op {
	case "=", "<>", "<", "<=", ">", ">=", "et", "ou":
		return vm.BoolType
	}
	if lt.Kind == vm.KindInvalid || rt.Kind == vm.KindInvalid {
		return vm.InvalidType
	}
	if e.Op == "+" || e.Op == "-" {
		if rt.Kind == vm.KindInt {
			switch lt.Kind {
			case vm.KindPointer:
				return lt
			case vm.KindArray:
				return vm.PointerTo(lt.Elem)
			}
		}
		if e.Op == "+" && isCharLike(lt) && isCharLike(rt) {
			return vm.StrType
		}
	}
	if !lt.IsNumeric() || !rt.IsNumeric() {
		a.errorAt(e.SpanVal.Start, CodeTypeMismatch,
			"Type mismatch: operation '%s' impossible entre %s et %s", e.Op, lt, rt)
		return vm.InvalidType
	}
	switch e.Op {
	case "/":
		return vm.RealType
	default:
		if lt.Kind == vm.KindInt && rt.Kind == vm.KindInt {
			return vm.IntType
		}
		return vm.RealType
	}
}

// checkCall resolves a call and checks its arguments against the formal
// parameters. It returns nil for an unknown subprogram.
func (a *Analyzer) checkCall(c *CallExpr) *FuncInfo {
	argTypes := make([]*vm.Type, len(c.Args))
	for i, arg := range c.Args {
		argTypes[i] = a.checkExpr(arg)
	}
	f, ok := a.info.Func(c.Name)
	if !ok {
		a.errorAt(c.SpanVal.Start, CodeUnknownSubprog, "Sous-programme inconnu: '%s'", c.Name)
		return nil
	}
	if len(c.Args) != len(f.Params) {
		a.errorAt(c.SpanVal.Start, CodeArgCount,
			"'%s' attend %d argument(s), %d fourni(s).", f.Decl.Name, len(f.Params), len(c.Args))
		return f
	}
	for i, p := range f.Params {
		arg := c.Args[i]
		if p.ByRef {
			if !addressable(arg) {
				a.errorAt(arg.Span().Start, CodeRefNotAssignable,
					"Argument %d de '%s': le parametre Var '%s' attend une variable.", i+1, f.Decl.Name, p.Name)
				continue
			}
			a.noteWrite(arg)
		}
		if !a.assignable(p.Type, argTypes[i], arg) {
			a.errorAt(arg.Span().Start, CodeTypeMismatch,
				"Type mismatch: argument %d de '%s' attend %s, pas %s", i+1, f.Decl.Name, p.Type, argTypes[i])
		}
	}
	return f
}

// ---------------------------------------------------------------------------
// Compatibility
// ---------------------------------------------------------------------------

func invalid(t *vm.Type) bool { return t == nil || t.Kind == vm.KindInvalid }

func isCharLike(t *vm.Type) bool {
	return t != nil && (t.Kind == vm.KindChar || t.Kind == vm.KindString)
}

// compatible reports whether a value of type src may be stored in a place
// of type dst.
func compatible(dst, src *vm.Type) bool {
	if invalid(dst) || invalid(src) {
		return true
	}
	switch dst.Kind {
	case vm.KindString:
		return isCharLike(src) || (src.Kind == vm.KindPointer && isCharLike(src.Elem))
	case vm.KindReal:
		return src.IsNumeric()
	case vm.KindPointer:
		switch src.Kind {
		case vm.KindNil:
			return true
		case vm.KindPointer, vm.KindArray:
			return sameCell(dst.Elem, src.Elem)
		case vm.KindString:
			return isCharLike(dst.Elem)
		}
		return false
	case vm.KindArray:
		return src.Kind == vm.KindArray && sameCell(dst.Elem, src.Elem)
	case vm.KindRecord:
		return src.Kind == vm.KindRecord && strings.EqualFold(dst.Record, src.Record)
	}
	return dst.Kind == src.Kind
}

// assignable is compatible plus the decay rule: only storage can decay
// to a pointer, so a literal, constant or computed string or array
// cannot be stored in a pointer.
func (a *Analyzer) assignable(dst, src *vm.Type, e Expr) bool {
	if !compatible(dst, src) {
		return false
	}
	if invalid(dst) || invalid(src) || dst.Kind != vm.KindPointer {
		return true
	}
	if src.Kind != vm.KindString && src.Kind != vm.KindArray {
		return true
	}
	if v, ok := e.(*Variable); ok {
		if sym := a.info.Refs[v]; sym != nil && sym.Kind == SymConst {
			return false
		}
	}
	return addressable(e)
}

// sameCell compares what two pointers or arrays hold. Array lengths and
// string capacities are ignored, and Caractere and Chaine cells match.
func sameCell(a, b *vm.Type) bool {
	if invalid(a) || invalid(b) {
		return true
	}
	if isCharLike(a) && isCharLike(b) {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case vm.KindPointer, vm.KindArray:
		return sameCell(a.Elem, b.Elem)
	case vm.KindRecord:
		return strings.EqualFold(a.Record, b.Record)
	}
	return true
}

// describe renders an access path the way it was written, for messages.
func describe(e Expr) string {
	switch e := e.(type) {
	case *Variable:
		return e.Name
	case *IndexExpr:
		return describe(e.X) + "[...]"
	case *FieldExpr:
		if e.Arrow {
			return describe(e.X) + "->" + e.Name
		}
		return describe(e.X) + "." + e.Name
	case *DerefExpr:
		return describe(e.X) + "^"
	case *CallExpr:
		return e.Name + "(...)"
	}
	return "expression"
}

// Analyze checks a parsed file with variables allocated from stackBase.
func Analyze(file *File, stackBase int) (*Info, []Diagnostic) {
	var diags diagList
	info := NewAnalyzer(stackBase, &diags).Analyze(file)
	return info, diags
}
