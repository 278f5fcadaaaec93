package compiler

import (
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

// ---------------------------------------------------------------------------
// Codegen: lower the checked AST to the vm program
// ---------------------------------------------------------------------------

// Generator lowers a checked file to a vm.Program. Analysis must have run;
// the generator trusts Info for every type decision.
type Generator struct {
	info *Info
	opts Options
	fn   *FuncInfo
}

// NewGenerator creates a generator over analysis results.
func NewGenerator(info *Info, opts Options) *Generator {
	return &Generator{info: info, opts: opts}
}

// Generate builds the program for file. It never fails: code for
// statements with diagnostics is still produced on a best-effort basis.
func (g *Generator) Generate(file *File) *vm.Program {
	prog := &vm.Program{
		Name:      file.Name,
		StackBase: g.opts.StackBase,
		HeapBase:  g.opts.HeapBase,
		Records:   g.info.Records,
		Memory:    g.info.Memory.Entries(),
		EndLine:   file.SpanVal.End.Line,
	}
	for _, sym := range g.info.Global.Symbols() {
		prog.Globals = append(prog.Globals, varOf(sym))
	}
	for _, f := range g.info.Funcs {
		prog.Funcs = append(prog.Funcs, g.function(f))
	}
	g.fn = nil
	prog.Main = g.block(file.Body)
	return prog
}

func varOf(sym *Symbol) *vm.Var {
	v := &vm.Var{Name: sym.Name, Type: sym.Type, Addr: sym.Addr}
	if sym.Kind == SymConst {
		v.Const = sym.Value
	}
	return v
}

func (g *Generator) function(f *FuncInfo) *vm.Func {
	g.fn = f
	out := &vm.Func{
		Name:    f.Decl.Name,
		Result:  f.Result,
		Writes:  f.Writes,
		Line:    f.Decl.SpanVal.Start.Line,
		EndLine: f.Decl.SpanVal.End.Line,
	}
	params := make(map[*Symbol]bool, len(f.Params))
	for _, p := range f.Params {
		params[p] = true
		out.Params = append(out.Params, &vm.Param{
			Name:  p.Name,
			Type:  p.Type,
			Addr:  p.Addr,
			ByRef: p.ByRef,
			Clone: !p.ByRef && p.Type.Kind == vm.KindPointer,
		})
	}
	for _, sym := range f.Scope.Symbols() {
		if !params[sym] {
			out.Locals = append(out.Locals, varOf(sym))
		}
	}
	out.Body = g.block(f.Decl.Body)
	return out
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) block(list []Stmt) []vm.Stmt {
	out := make([]vm.Stmt, 0, len(list))
	for _, s := range list {
		if st := g.stmt(s); st != nil {
			out = append(out, st)
		}
	}
	return out
}

func (g *Generator) stmt(s Stmt) vm.Stmt {
	line := s.Span().Start.Line
	switch s := s.(type) {
	case *AssignStmt:
		return &vm.Assign{
			Line:   line,
			Target: g.expr(s.Target),
			Value:  g.valueFor(s.Value, g.info.TypeOf(s.Target)),
		}
	case *IfStmt:
		return &vm.If{Line: line, Cond: g.expr(s.Cond), Then: g.block(s.Then), Else: g.block(s.Else)}
	case *WhileStmt:
		return &vm.While{Line: line, Cond: g.expr(s.Cond), Body: g.block(s.Body)}
	case *RepeatStmt:
		return &vm.Repeat{Line: line, CondLine: s.Until.Line, Body: g.block(s.Body), Cond: g.expr(s.Cond)}
	case *ForStmt:
		return &vm.For{
			Line: line,
			Var:  &vm.VarRef{Name: s.Var.Name},
			From: g.expr(s.From),
			To:   g.expr(s.To),
			Body: g.block(s.Body),
		}
	case *WriteStmt:
		args := make([]vm.Expr, len(s.Args))
		for i, a := range s.Args {
			args[i] = g.text(a)
		}
		return &vm.Write{Line: line, Args: args}
	case *ReadStmt:
		rd := &vm.Read{Line: line}
		for _, t := range s.Targets {
			rd.Targets = append(rd.Targets, g.expr(t))
			rd.Types = append(rd.Types, g.info.TypeOf(t))
		}
		return rd
	case *ReturnStmt:
		var want *vm.Type
		if g.fn != nil {
			want = g.fn.Result
		}
		return &vm.Return{Line: line, Value: g.valueFor(s.Value, want)}
	case *FreeStmt:
		return &vm.Free{Line: line, Ptr: g.expr(s.Ptr)}
	case *CallStmt:
		return &vm.CallStmt{Line: line, Call: g.call(s.Call)}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// valueFor lowers e for storage into a place of type want. Arrays and
// fixed strings decay to pointers, and allocations take the cell type
// of the receiving pointer.
func (g *Generator) valueFor(e Expr, want *vm.Type) vm.Expr {
	if e == nil {
		return nil
	}
	if want == nil || invalid(want) {
		return g.expr(e)
	}
	switch want.Kind {
	case vm.KindPointer:
		if alloc, ok := e.(*AllocExpr); ok {
			return &vm.Alloc{Size: g.expr(alloc.Size), Elem: g.cellType(alloc, want.Elem)}
		}
		if src := g.info.TypeOf(e); addressable(e) && (src.Kind == vm.KindArray || src.Kind == vm.KindString) {
			return &vm.AddrOf{X: g.expr(e)}
		}
	case vm.KindString:
		return g.text(e)
	}
	return g.expr(e)
}

// cellType decides what a heap block holds: the pointee of the receiving
// pointer, else the type named by taille(T), else characters.
func (g *Generator) cellType(alloc *AllocExpr, pointee *vm.Type) *vm.Type {
	t := pointee
	if invalid(t) {
		t = nil
		if sz := findSizeOf(alloc.Size); sz != nil {
			t = g.info.Sizes[sz]
		}
	}
	if t == nil || invalid(t) || t.Kind == vm.KindString {
		return vm.CharType
	}
	return t
}

// text lowers e where a string is expected. Dereferencing a character
// pointer there reads the whole string up to its terminator.
func (g *Generator) text(e Expr) vm.Expr {
	if d, ok := e.(*DerefExpr); ok {
		if pt := g.info.TypeOf(d.X); pt.Kind == vm.KindPointer && isCharLike(pt.Elem) {
			return &vm.Deref{X: g.expr(d.X), AsString: true}
		}
	}
	return g.expr(e)
}

func (g *Generator) expr(e Expr) vm.Expr {
	switch e := e.(type) {
	case *IntLiteral:
		return &vm.Lit{Value: vm.Int(e.Value)}
	case *RealLiteral:
		return &vm.Lit{Value: vm.Real(e.Value)}
	case *StringLiteral:
		return &vm.Lit{Value: vm.Str(e.Value)}
	case *CharLiteral:
		v, _ := charLiteral(e)
		return &vm.Lit{Value: v}
	case *BoolLiteral:
		return &vm.Lit{Value: vm.Bool(e.Value)}
	case *NilLiteral:
		return &vm.Lit{}

	case *Variable:
		return &vm.VarRef{Name: e.Name}

	case *IndexExpr:
		x := e.X
		// p^[i] on a string pointer indexes through the pointer itself
		if d, ok := x.(*DerefExpr); ok {
			if pt := g.info.TypeOf(d.X); pt.Kind == vm.KindPointer && pt.Elem.Kind == vm.KindString {
				return &vm.Index{X: g.expr(d.X), I: g.expr(e.Index)}
			}
		}
		return &vm.Index{X: g.expr(x), I: g.expr(e.Index)}

	case *FieldExpr:
		x := g.expr(e.X)
		if e.Arrow || g.info.TypeOf(e.X).Kind == vm.KindPointer {
			x = &vm.Deref{X: x}
		}
		return &vm.FieldRef{X: x, Name: e.Name}

	case *DerefExpr:
		pt := g.info.TypeOf(e.X)
		return &vm.Deref{X: g.expr(e.X), AsString: pt.Kind == vm.KindPointer && pt.Elem.Kind == vm.KindString}

	case *AddrExpr:
		return &vm.AddrOf{X: g.expr(e.X)}

	case *UnaryExpr:
		return &vm.Unary{Op: e.Op, X: g.expr(e.X)}

	case *BinaryExpr:
		return g.binary(e)

	case *CallExpr:
		return g.call(e)

	case *AllocExpr:
		return &vm.Alloc{Size: g.expr(e.Size), Elem: g.cellType(e, nil)}

	case *SizeOfExpr:
		return &vm.SizeOf{Type: g.info.Sizes[e]}

	case *LengthExpr:
		return &vm.Length{X: g.text(e.X)}

	case *ConcatExpr:
		return &vm.ConcatExpr{A: g.text(e.A), B: g.text(e.B)}
	}
	return &vm.Lit{Value: vm.Int(0)}
}

func (g *Generator) binary(e *BinaryExpr) vm.Expr {
	lt, rt := g.info.TypeOf(e.Left), g.info.TypeOf(e.Right)
	switch e.Op {
	case "+", "-":
		return &vm.Binary{Op: e.Op, L: g.decay(e.Left, lt), R: g.decay(e.Right, rt)}
	case "=", "<>", "<", "<=", ">", ">=":
		if isCharLike(lt) || isCharLike(rt) {
			return &vm.Binary{Op: e.Op, L: g.text(e.Left), R: g.text(e.Right)}
		}
	}
	return &vm.Binary{Op: e.Op, L: g.expr(e.Left), R: g.expr(e.Right)}
}

// decay turns an array operand of pointer arithmetic into a pointer to
// its first cell.
func (g *Generator) decay(e Expr, t *vm.Type) vm.Expr {
	if t.Kind == vm.KindArray && addressable(e) {
		return &vm.AddrOf{X: g.expr(e)}
	}
	return g.expr(e)
}

func (g *Generator) call(c *CallExpr) *vm.Call {
	out := &vm.Call{Name: c.Name}
	f, ok := g.info.Func(c.Name)
	if ok {
		out.Name = f.Decl.Name
	}
	for i, arg := range c.Args {
		if !ok || i >= len(f.Params) {
			out.Args = append(out.Args, g.expr(arg))
			continue
		}
		p := f.Params[i]
		if p.ByRef {
			out.Args = append(out.Args, g.expr(arg))
			continue
		}
		out.Args = append(out.Args, g.valueFor(arg, p.Type))
	}
	return out
}

// Generate lowers a checked file with the given options.
func Generate(file *File, info *Info, opts Options) *vm.Program {
	return NewGenerator(info, opts).Generate(file)
}
