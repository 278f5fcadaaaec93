package vm

import (
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Expression evaluation
// ---------------------------------------------------------------------------

func (m *Machine) eval(e Expr) Value {
	switch e := e.(type) {
	case *Lit:
		if e.Value == nil {
			return Pointer{}
		}
		return e.Value
	case *VarRef:
		return m.lookup(e.Name).place.load()
	case *Index:
		if _, ok := e.X.(*VarRef); !ok {
			if s, isStr := m.peekString(e.X); isStr {
				i := m.toInt(m.eval(e.I))
				r := []rune(s)
				if i < 0 || i >= len(r) {
					return Char(Terminator)
				}
				return Char(r[i])
			}
		}
		return m.place(e).load()
	case *FieldRef:
		return m.place(e).load()
	case *Deref:
		if e.AsString {
			p := m.pointerOf(m.eval(e.X))
			p.Resolve()
			return Str(DisplayString(p))
		}
		return m.place(e).load()
	case *AddrOf:
		return m.addressOf(e.X)
	case *Unary:
		return m.unary(e.Op, m.eval(e.X))
	case *Binary:
		switch e.Op {
		case "et":
			if !m.truth(m.eval(e.L)) {
				return Bool(false)
			}
			return Bool(m.truth(m.eval(e.R)))
		case "ou":
			if m.truth(m.eval(e.L)) {
				return Bool(true)
			}
			return Bool(m.truth(m.eval(e.R)))
		}
		return m.binary(e.Op, m.eval(e.L), m.eval(e.R))
	case *Call:
		return m.call(e)
	case *Alloc:
		size := m.toInt(m.eval(e.Size))
		return m.heap.Alloc(size, e.Elem)
	case *SizeOf:
		return Int(m.reg.SizeOf(e.Type))
	case *Length:
		return Int(Longueur(m.eval(e.X)))
	case *ConcatExpr:
		return Concat(m.eval(e.A), m.eval(e.B))
	}
	fault(ErrInternal, "unknown expression %T", e)
	return nil
}

// peekString evaluates non-addressable string expressions such as
// concat(a, b)[0]; addressable operands are left to place.
func (m *Machine) peekString(e Expr) (string, bool) {
	switch e.(type) {
	case *ConcatExpr, *Call, *Lit:
		if s, ok := m.eval(e).(Str); ok {
			return string(s), true
		}
	}
	return "", false
}

// addressOf implements &x. Arrays and strings decay to a pointer to
// their first cell.
func (m *Machine) addressOf(e Expr) Pointer {
	pl := m.place(e)
	switch agg := pl.load().(type) {
	case *Array:
		return Pointer{Target: agg, Base: pl.Addr, Stride: m.reg.SizeOf(agg.Elem), Heap: pl.Heap}
	case *FixedString:
		return Pointer{Target: agg, Base: pl.Addr, Stride: 1, Heap: pl.Heap}
	}
	return pl.pointer()
}

func (m *Machine) unary(op string, v Value) Value {
	switch op {
	case "-":
		switch x := v.(type) {
		case Int:
			return -x
		case Real:
			return -x
		}
		fault(ErrTypeMismatch, "Opération impossible: - sur %s.", TypeOf(v).Display())
	case "non":
		return Bool(!m.truth(v))
	}
	fault(ErrInternal, "unknown unary operator %q", op)
	return nil
}

func isStringLike(v Value) bool {
	switch v.(type) {
	case Str, *FixedString, Char:
		return true
	}
	return false
}

func numeric(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Real:
		return float64(x), true
	}
	return 0, false
}

func (m *Machine) binary(op string, l, r Value) Value {
	switch op {
	case "=", "<>", "<", "<=", ">", ">=":
		return Bool(m.compare(op, l, r))
	}

	if p, ok := l.(Pointer); ok {
		if n, ok := r.(Int); ok {
			switch op {
			case "+":
				return p.Add(int(n))
			case "-":
				return p.Add(-int(n))
			}
		}
	}
	if op == "+" && isStringLike(l) && isStringLike(r) {
		return Concat(l, r)
	}

	li, lInt := l.(Int)
	ri, rInt := r.(Int)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri
		case "-":
			return li - ri
		case "*":
			return li * ri
		case "/":
			if ri == 0 {
				fault(ErrZeroDivision, "")
			}
			return Real(float64(li) / float64(ri))
		case "div":
			if ri == 0 {
				fault(ErrZeroDivision, "")
			}
			return Int(floorDiv(int64(li), int64(ri)))
		case "mod":
			if ri == 0 {
				fault(ErrZeroDivision, "")
			}
			return Int(floorMod(int64(li), int64(ri)))
		}
	}

	lf, lok := numeric(l)
	rf, rok := numeric(r)
	if !lok || !rok {
		fault(ErrTypeMismatch, "Opération impossible entre ces types: %s %s %s.", TypeOf(l).Display(), op, TypeOf(r).Display())
	}
	switch op {
	case "+":
		return Real(lf + rf)
	case "-":
		return Real(lf - rf)
	case "*":
		return Real(lf * rf)
	case "/":
		if rf == 0 {
			fault(ErrZeroDivision, "")
		}
		return Real(lf / rf)
	case "div":
		if rf == 0 {
			fault(ErrZeroDivision, "")
		}
		return Real(math.Floor(lf / rf))
	case "mod":
		if rf == 0 {
			fault(ErrZeroDivision, "")
		}
		mod := math.Mod(lf, rf)
		if mod != 0 && (mod < 0) != (rf < 0) {
			mod += rf
		}
		return Real(mod)
	}
	fault(ErrInternal, "unknown operator %q", op)
	return nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

// compare implements relational operators. Equality between unrelated
// types is false; ordering them is a runtime error.
func (m *Machine) compare(op string, l, r Value) bool {
	eq := op == "=" || op == "<>"
	var c int
	switch {
	case isPointerish(l) && isPointerish(r):
		if !eq {
			fault(ErrTypeMismatch, "Impossible de comparer deux pointeurs avec %s.", op)
		}
		same := asPointer(l).Equal(asPointer(r))
		return same == (op == "=")
	case isStringLike(l) && isStringLike(r):
		c = strings.Compare(DisplayString(l), DisplayString(r))
	case isNumber(l) && isNumber(r):
		lf, _ := numeric(l)
		rf, _ := numeric(r)
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	case isBool(l) && isBool(r):
		lb, rb := bool(l.(Bool)), bool(r.(Bool))
		switch {
		case lb == rb:
		case !lb:
			c = -1
		default:
			c = 1
		}
	default:
		if eq {
			return op == "<>"
		}
		fault(ErrTypeMismatch, "Impossible de comparer %s et %s.", article(l), article(r))
	}
	switch op {
	case "=":
		return c == 0
	case "<>":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func isPointerish(v Value) bool {
	_, ok := v.(Pointer)
	return ok
}

func asPointer(v Value) Pointer {
	p, _ := v.(Pointer)
	return p
}

func isNumber(v Value) bool {
	_, ok := numeric(v)
	return ok
}

func isBool(v Value) bool {
	_, ok := v.(Bool)
	return ok
}

// article names a value's type with its French article, for messages like
// "Impossible de comparer une Chaîne et un Entier."
func article(v Value) string {
	switch v.(type) {
	case Str, *FixedString:
		return "une Chaîne"
	case Char:
		return "un Caractère"
	case Int:
		return "un Entier"
	case Real:
		return "un Réel"
	case Bool:
		return "un Booléen"
	case Pointer:
		return "un Pointeur"
	case *Array:
		return "un Tableau"
	case *Record:
		return "un Enregistrement"
	}
	return "une valeur"
}
