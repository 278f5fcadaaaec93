package vm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// IR text: S-expression reader
// ---------------------------------------------------------------------------

// sexpr is an atom, a quoted string or a list.
type sexpr struct {
	atom   string
	quoted bool
	list   []sexpr
	isList bool
}

func (s sexpr) head() string {
	if s.isList && len(s.list) > 0 && !s.list[0].isList {
		return s.list[0].atom
	}
	return ""
}

type sexprReader struct {
	src string
	pos int
}

func (r *sexprReader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case unicode.IsSpace(rune(c)):
			r.pos++
		default:
			return
		}
	}
}

func (r *sexprReader) read() (sexpr, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return sexpr{}, fmt.Errorf("unexpected end of input")
	}
	switch c := r.src[r.pos]; c {
	case '(':
		r.pos++
		out := sexpr{isList: true}
		for {
			r.skipSpace()
			if r.pos >= len(r.src) {
				return sexpr{}, fmt.Errorf("unterminated list")
			}
			if r.src[r.pos] == ')' {
				r.pos++
				return out, nil
			}
			item, err := r.read()
			if err != nil {
				return sexpr{}, err
			}
			out.list = append(out.list, item)
		}
	case ')':
		return sexpr{}, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	case '"':
		quoted, err := strconv.QuotedPrefix(r.src[r.pos:])
		if err != nil {
			return sexpr{}, fmt.Errorf("bad string at offset %d: %w", r.pos, err)
		}
		r.pos += len(quoted)
		s, err := strconv.Unquote(quoted)
		if err != nil {
			return sexpr{}, err
		}
		return sexpr{atom: s, quoted: true}, nil
	default:
		start := r.pos
		for r.pos < len(r.src) {
			c := r.src[r.pos]
			if c == '(' || c == ')' || unicode.IsSpace(rune(c)) {
				break
			}
			r.pos++
		}
		return sexpr{atom: r.src[start:r.pos]}, nil
	}
}

// ParseProgram reads a program from its textual form.
func ParseProgram(text string) (prog *Program, err error) {
	r := &sexprReader{src: text}
	root, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("ir: %w", err)
	}
	if root.head() != "program" || len(root.list) < 2 {
		return nil, fmt.Errorf("ir: expected (program ...)")
	}
	defer func() {
		if rec := recover(); rec != nil {
			if pe, ok := rec.(irError); ok {
				prog, err = nil, fmt.Errorf("ir: %s", string(pe))
				return
			}
			prog, err = nil, fmt.Errorf("ir: malformed program: %v", rec)
		}
	}()

	p := &Program{
		Name:      root.list[1].atom,
		StackBase: 1000,
		HeapBase:  DefaultHeapBase,
		Records:   NewRecordRegistry(),
	}
	for _, section := range root.list[2:] {
		switch section.head() {
		case "runtime":
			for _, kv := range section.list[1:] {
				switch kv.head() {
				case "stack-base":
					p.StackBase = atoi(kv.list[1])
				case "heap-base":
					p.HeapBase = atoi(kv.list[1])
				case "end-line":
					p.EndLine = atoi(kv.list[1])
				}
			}
		case "memory":
			for _, s := range section.list[1:] {
				need(s, "slot", 6)
				p.Memory = append(p.Memory, MemEntry{
					Name:     s.list[1].atom,
					Addr:     atoi(s.list[2]),
					Type:     toType(s.list[3]),
					ElemSize: atoi(s.list[4]),
					Size:     atoi(s.list[5]),
				})
			}
		case "records":
			for _, rec := range section.list[1:] {
				need(rec, "record", 3)
				var fields []Field
				for _, f := range rec.list[3:] {
					need(f, "field", 4)
					fields = append(fields, Field{Name: f.list[1].atom, Type: toType(f.list[2]), Offset: atoi(f.list[3])})
				}
				p.Records.Define(rec.list[1].atom, fields)
			}
			p.Records.Relayout()
		case "globals":
			for _, v := range section.list[1:] {
				p.Globals = append(p.Globals, toVar(v))
			}
		case "funcs":
			for _, f := range section.list[1:] {
				p.Funcs = append(p.Funcs, toFunc(f))
			}
		case "main":
			p.Main = toStmts(section.list[1:])
		default:
			return nil, fmt.Errorf("ir: unknown section %q", section.head())
		}
	}
	return p, nil
}

type irError string

func irFail(format string, args ...interface{}) {
	panic(irError(fmt.Sprintf(format, args...)))
}

func need(s sexpr, head string, n int) {
	if s.head() != head || len(s.list) < n {
		irFail("expected (%s ...) with %d elements", head, n-1)
	}
}

func atoi(s sexpr) int {
	n, err := strconv.Atoi(s.atom)
	if err != nil {
		irFail("expected integer, got %q", s.atom)
	}
	return n
}

func toType(s sexpr) *Type {
	if !s.isList {
		switch s.atom {
		case "int":
			return IntType
		case "real":
			return RealType
		case "bool":
			return BoolType
		case "char":
			return CharType
		case "str":
			return StrType
		case "nil":
			return NilType
		case "none":
			return nil
		}
		irFail("unknown type %q", s.atom)
	}
	switch s.head() {
	case "str":
		return StringOf(atoi(s.list[1]))
	case "ptr":
		return PointerTo(toType(s.list[1]))
	case "array":
		return ArrayOf(toType(s.list[2]), atoi(s.list[1]))
	case "matrix":
		return MatrixOf(toType(s.list[3]), atoi(s.list[1]), atoi(s.list[2]))
	case "rec":
		return RecordNamed(s.list[1].atom)
	}
	irFail("unknown type form %q", s.head())
	return nil
}

func toLit(s sexpr) Value {
	if !s.isList {
		if s.atom == "nil" {
			return Pointer{}
		}
		irFail("unknown literal %q", s.atom)
	}
	arg := s.list[1].atom
	switch s.head() {
	case "int":
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			irFail("bad int %q", arg)
		}
		return Int(n)
	case "real":
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			irFail("bad real %q", arg)
		}
		return Real(f)
	case "bool":
		return Bool(arg == "true")
	case "char":
		n, err := strconv.Atoi(arg)
		if err != nil {
			irFail("bad char %q", arg)
		}
		return Char(rune(n))
	case "str":
		return Str(arg)
	}
	irFail("unknown literal %q", s.head())
	return nil
}

func toVar(s sexpr) *Var {
	switch s.head() {
	case "var":
		need(s, "var", 4)
		return &Var{Name: s.list[1].atom, Type: toType(s.list[2]), Addr: atoi(s.list[3])}
	case "const":
		need(s, "const", 5)
		return &Var{Name: s.list[1].atom, Type: toType(s.list[2]), Addr: atoi(s.list[3]), Const: toLit(s.list[4])}
	}
	irFail("expected var or const, got %q", s.head())
	return nil
}

func toFunc(s sexpr) *Func {
	need(s, "func", 4)
	f := &Func{Name: s.list[1].atom, Line: atoi(s.list[2]), EndLine: atoi(s.list[3])}
	for _, part := range s.list[4:] {
		switch part.head() {
		case "params":
			for _, prm := range part.list[1:] {
				need(prm, "param", 5)
				mode := prm.list[4].atom
				f.Params = append(f.Params, &Param{
					Name:  prm.list[1].atom,
					Type:  toType(prm.list[2]),
					Addr:  atoi(prm.list[3]),
					ByRef: mode == "ref",
					Clone: mode == "clone",
				})
			}
		case "result":
			f.Result = toType(part.list[1])
		case "locals":
			for _, v := range part.list[1:] {
				f.Locals = append(f.Locals, toVar(v))
			}
		case "writes":
			for _, g := range part.list[1:] {
				f.Writes = append(f.Writes, g.atom)
			}
		case "body":
			f.Body = toStmts(part.list[1:])
		}
	}
	return f
}

func toStmts(list []sexpr) []Stmt {
	out := make([]Stmt, 0, len(list))
	for _, s := range list {
		out = append(out, toStmt(s))
	}
	return out
}

func block(s sexpr, head string) []Stmt {
	if s.head() != head {
		irFail("expected (%s ...), got %q", head, s.head())
	}
	return toStmts(s.list[1:])
}

func toStmt(s sexpr) Stmt {
	if len(s.list) < 2 {
		irFail("malformed statement %q", s.head())
	}
	line := atoi(s.list[1])
	switch s.head() {
	case "set":
		need(s, "set", 4)
		return &Assign{Line: line, Target: toExpr(s.list[2]), Value: toExpr(s.list[3])}
	case "if":
		need(s, "if", 5)
		return &If{Line: line, Cond: toExpr(s.list[2]), Then: block(s.list[3], "then"), Else: block(s.list[4], "else")}
	case "while":
		need(s, "while", 4)
		return &While{Line: line, Cond: toExpr(s.list[2]), Body: block(s.list[3], "do")}
	case "repeat":
		need(s, "repeat", 5)
		return &Repeat{Line: line, CondLine: atoi(s.list[2]), Body: block(s.list[3], "do"), Cond: toExpr(s.list[4])}
	case "for":
		need(s, "for", 6)
		return &For{Line: line, Var: toExpr(s.list[2]), From: toExpr(s.list[3]), To: toExpr(s.list[4]), Body: block(s.list[5], "do")}
	case "write":
		return &Write{Line: line, Args: toExprs(s.list[2:])}
	case "read":
		st := &Read{Line: line}
		for _, in := range s.list[2:] {
			need(in, "in", 3)
			st.Targets = append(st.Targets, toExpr(in.list[1]))
			st.Types = append(st.Types, toType(in.list[2]))
		}
		return st
	case "return":
		st := &Return{Line: line}
		if len(s.list) > 2 {
			st.Value = toExpr(s.list[2])
		}
		return st
	case "free":
		need(s, "free", 3)
		return &Free{Line: line, Ptr: toExpr(s.list[2])}
	case "call":
		need(s, "call", 3)
		return &CallStmt{Line: line, Call: &Call{Name: s.list[2].atom, Args: toExprs(s.list[3:])}}
	}
	irFail("unknown statement %q", s.head())
	return nil
}

func toExprs(list []sexpr) []Expr {
	out := make([]Expr, 0, len(list))
	for _, s := range list {
		out = append(out, toExpr(s))
	}
	return out
}

func toExpr(s sexpr) Expr {
	if !s.isList {
		return &Lit{Value: toLit(s)}
	}
	switch s.head() {
	case "int", "real", "bool", "char", "str":
		return &Lit{Value: toLit(s)}
	case "var":
		return &VarRef{Name: s.list[1].atom}
	case "index":
		return &Index{X: toExpr(s.list[1]), I: toExpr(s.list[2])}
	case "field":
		return &FieldRef{X: toExpr(s.list[1]), Name: s.list[2].atom}
	case "deref":
		return &Deref{X: toExpr(s.list[1])}
	case "deref-str":
		return &Deref{X: toExpr(s.list[1]), AsString: true}
	case "addr":
		return &AddrOf{X: toExpr(s.list[1])}
	case "un":
		return &Unary{Op: s.list[1].atom, X: toExpr(s.list[2])}
	case "bin":
		return &Binary{Op: s.list[1].atom, L: toExpr(s.list[2]), R: toExpr(s.list[3])}
	case "fcall":
		return &Call{Name: s.list[1].atom, Args: toExprs(s.list[2:])}
	case "alloc":
		return &Alloc{Size: toExpr(s.list[1]), Elem: toType(s.list[2])}
	case "sizeof":
		return &SizeOf{Type: toType(s.list[1])}
	case "len":
		return &Length{X: toExpr(s.list[1])}
	case "concat":
		return &ConcatExpr{A: toExpr(s.list[1]), B: toExpr(s.list[2])}
	}
	irFail("unknown expression %q", strings.TrimSpace(s.head()))
	return nil
}
