package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// IR text: S-expression printer
// ---------------------------------------------------------------------------

const irHeader = "; algo intermediate program"

// Text renders the program in its stable textual form.
func (p *Program) Text() string {
	w := &irWriter{}
	w.line(irHeader)
	w.open("(program %s", strconv.Quote(p.Name))

	w.open("(runtime")
	w.line("(stack-base %d)", p.StackBase)
	w.line("(heap-base %d)", p.HeapBase)
	w.line("(max-string %d)", MaxStringSize)
	w.line("(end-line %d)", p.EndLine)
	w.close()

	w.open("(memory")
	for _, m := range p.Memory {
		w.line("(slot %s %d %s %d %d)", strconv.Quote(m.Name), m.Addr, typeText(m.Type), m.ElemSize, m.Size)
	}
	w.close()

	w.open("(records")
	if p.Records != nil {
		for _, def := range p.Records.Defs() {
			w.open("(record %s %d", strconv.Quote(def.Name), def.Size)
			for _, f := range def.Fields {
				w.line("(field %s %s %d)", strconv.Quote(f.Name), typeText(f.Type), f.Offset)
			}
			w.close()
		}
	}
	w.close()

	w.open("(globals")
	for _, v := range p.Globals {
		w.line("%s", varText(v))
	}
	w.close()

	w.open("(funcs")
	for _, f := range p.Funcs {
		w.open("(func %s %d %d", strconv.Quote(f.Name), f.Line, f.EndLine)
		var params []string
		for _, prm := range f.Params {
			mode := "val"
			switch {
			case prm.ByRef:
				mode = "ref"
			case prm.Clone:
				mode = "clone"
			}
			params = append(params, fmt.Sprintf("(param %s %s %d %s)", strconv.Quote(prm.Name), typeText(prm.Type), prm.Addr, mode))
		}
		w.line("(params%s)", prefixJoin(params))
		if f.Result != nil {
			w.line("(result %s)", typeText(f.Result))
		} else {
			w.line("(result none)")
		}
		w.open("(locals")
		for _, v := range f.Locals {
			w.line("%s", varText(v))
		}
		w.close()
		var writes []string
		for _, g := range f.Writes {
			writes = append(writes, strconv.Quote(g))
		}
		w.line("(writes%s)", prefixJoin(writes))
		w.open("(body")
		w.stmts(f.Body)
		w.close()
		w.close()
	}
	w.close()

	w.open("(main")
	w.stmts(p.Main)
	w.close()

	w.close()
	return w.sb.String()
}

type irWriter struct {
	sb     strings.Builder
	indent int
}

func (w *irWriter) line(format string, args ...interface{}) {
	w.sb.WriteString(strings.Repeat("  ", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *irWriter) open(format string, args ...interface{}) {
	w.line(format, args...)
	w.indent++
}

func (w *irWriter) close() {
	w.indent--
	w.sb.WriteString(strings.Repeat("  ", w.indent))
	w.sb.WriteString(")\n")
}

func (w *irWriter) stmts(list []Stmt) {
	for _, s := range list {
		w.stmt(s)
	}
}

func (w *irWriter) stmt(s Stmt) {
	switch s := s.(type) {
	case *Assign:
		w.line("(set %d %s %s)", s.Line, exprText(s.Target), exprText(s.Value))
	case *If:
		w.open("(if %d %s", s.Line, exprText(s.Cond))
		w.open("(then")
		w.stmts(s.Then)
		w.close()
		w.open("(else")
		w.stmts(s.Else)
		w.close()
		w.close()
	case *While:
		w.open("(while %d %s", s.Line, exprText(s.Cond))
		w.open("(do")
		w.stmts(s.Body)
		w.close()
		w.close()
	case *Repeat:
		w.open("(repeat %d %d", s.Line, s.CondLine)
		w.open("(do")
		w.stmts(s.Body)
		w.close()
		w.line("%s", exprText(s.Cond))
		w.close()
	case *For:
		w.open("(for %d %s %s %s", s.Line, exprText(s.Var), exprText(s.From), exprText(s.To))
		w.open("(do")
		w.stmts(s.Body)
		w.close()
		w.close()
	case *Write:
		w.line("(write %d%s)", s.Line, prefixJoin(exprsText(s.Args)))
	case *Read:
		var parts []string
		for i, t := range s.Targets {
			parts = append(parts, fmt.Sprintf("(in %s %s)", exprText(t), typeText(s.Types[i])))
		}
		w.line("(read %d%s)", s.Line, prefixJoin(parts))
	case *Return:
		if s.Value == nil {
			w.line("(return %d)", s.Line)
		} else {
			w.line("(return %d %s)", s.Line, exprText(s.Value))
		}
	case *Free:
		w.line("(free %d %s)", s.Line, exprText(s.Ptr))
	case *CallStmt:
		w.line("(call %d %s%s)", s.Line, strconv.Quote(s.Call.Name), prefixJoin(exprsText(s.Call.Args)))
	}
}

func prefixJoin(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func varText(v *Var) string {
	if v.Const != nil {
		return fmt.Sprintf("(const %s %s %d %s)", strconv.Quote(v.Name), typeText(v.Type), v.Addr, litText(v.Const))
	}
	return fmt.Sprintf("(var %s %s %d)", strconv.Quote(v.Name), typeText(v.Type), v.Addr)
}

func typeText(t *Type) string {
	if t == nil {
		return "none"
	}
	switch t.Kind {
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		if t.Cap > 0 {
			return fmt.Sprintf("(str %d)", t.Cap)
		}
		return "str"
	case KindPointer:
		return fmt.Sprintf("(ptr %s)", typeText(t.Elem))
	case KindArray:
		if t.Matrix {
			return fmt.Sprintf("(matrix %d %d %s)", t.Len, t.Elem.Len, typeText(t.Elem.Elem))
		}
		return fmt.Sprintf("(array %d %s)", t.Len, typeText(t.Elem))
	case KindRecord:
		return fmt.Sprintf("(rec %s)", strconv.Quote(t.Record))
	case KindNil:
		return "nil"
	}
	return "invalid"
}

func litText(v Value) string {
	switch x := v.(type) {
	case Int:
		return fmt.Sprintf("(int %d)", int64(x))
	case Real:
		return fmt.Sprintf("(real %s)", strconv.FormatFloat(float64(x), 'g', -1, 64))
	case Bool:
		return fmt.Sprintf("(bool %t)", bool(x))
	case Char:
		return fmt.Sprintf("(char %d)", rune(x))
	case Str:
		return fmt.Sprintf("(str %s)", strconv.Quote(string(x)))
	case Pointer:
		return "nil"
	}
	return "nil"
}

func exprsText(list []Expr) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = exprText(e)
	}
	return out
}

func exprText(e Expr) string {
	switch e := e.(type) {
	case *Lit:
		return litText(e.Value)
	case *VarRef:
		return fmt.Sprintf("(var %s)", strconv.Quote(e.Name))
	case *Index:
		return fmt.Sprintf("(index %s %s)", exprText(e.X), exprText(e.I))
	case *FieldRef:
		return fmt.Sprintf("(field %s %s)", exprText(e.X), strconv.Quote(e.Name))
	case *Deref:
		if e.AsString {
			return fmt.Sprintf("(deref-str %s)", exprText(e.X))
		}
		return fmt.Sprintf("(deref %s)", exprText(e.X))
	case *AddrOf:
		return fmt.Sprintf("(addr %s)", exprText(e.X))
	case *Unary:
		return fmt.Sprintf("(un %s %s)", strconv.Quote(e.Op), exprText(e.X))
	case *Binary:
		return fmt.Sprintf("(bin %s %s %s)", strconv.Quote(e.Op), exprText(e.L), exprText(e.R))
	case *Call:
		return fmt.Sprintf("(fcall %s%s)", strconv.Quote(e.Name), prefixJoin(exprsText(e.Args)))
	case *Alloc:
		return fmt.Sprintf("(alloc %s %s)", exprText(e.Size), typeText(e.Elem))
	case *SizeOf:
		return fmt.Sprintf("(sizeof %s)", typeText(e.Type))
	case *Length:
		return fmt.Sprintf("(len %s)", exprText(e.X))
	case *ConcatExpr:
		return fmt.Sprintf("(concat %s %s)", exprText(e.A), exprText(e.B))
	}
	return "nil"
}
