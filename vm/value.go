package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: closed tagged variant
// ---------------------------------------------------------------------------

// Value is a runtime value. The set of implementations is closed:
// Int, Real, Bool, Char, Str, *FixedString, *Array, *Record and Pointer.
type Value interface {
	isValue()
}

// Int is an Entier.
type Int int64

// Real is a Reel.
type Real float64

// Bool is a Booleen.
type Bool bool

// Char is a Caractere. Terminator is the #0 sentinel.
type Char rune

// Str is an unbounded string value (literals, Concat results, input lines).
type Str string

func (Int) isValue()          {}
func (Real) isValue()         {}
func (Bool) isValue()         {}
func (Char) isValue()         {}
func (Str) isValue()          {}
func (*FixedString) isValue() {}
func (*Array) isValue()       {}
func (*Record) isValue()      {}
func (Pointer) isValue()      {}

// ---------------------------------------------------------------------------
// Aggregates
// ---------------------------------------------------------------------------

// Container is addressable storage: a variable slot, an array, a record's
// fields, a fixed string or a heap block. Pointers target a Container.
type Container interface {
	Len() int
	Load(i int) Value
	Store(i int, v Value)
}

// Slot holds a single variable.
type Slot struct {
	V Value
}

func (s *Slot) Len() int             { return 1 }
func (s *Slot) Load(int) Value       { return s.V }
func (s *Slot) Store(_ int, v Value) { s.V = v }

// Array is a fixed-length sequence of cells. A matrix is an Array of rows.
type Array struct {
	Elem  *Type
	Cells []Value
}

func (a *Array) Len() int             { return len(a.Cells) }
func (a *Array) Load(i int) Value     { return a.Cells[i] }
func (a *Array) Store(i int, v Value) { a.Cells[i] = v }

// Record is an instance of a registered record type.
type Record struct {
	Def    *RecordDef
	Fields []Value
}

func (r *Record) Len() int             { return len(r.Fields) }
func (r *Record) Load(i int) Value     { return r.Fields[i] }
func (r *Record) Store(i int, v Value) { r.Fields[i] = v }

// ---------------------------------------------------------------------------
// Construction and copying
// ---------------------------------------------------------------------------

// Zero returns the default-initialized value of t: 0, 0.0, Faux, an empty
// character, an empty fixed string, NIL, or an aggregate of those.
func Zero(t *Type, reg *RecordRegistry) Value {
	if t == nil {
		return Int(0)
	}
	switch t.Kind {
	case KindInt:
		return Int(0)
	case KindReal:
		return Real(0)
	case KindBool:
		return Bool(false)
	case KindChar:
		return Char(Terminator)
	case KindString:
		if t.Cap > 0 {
			return NewFixedString(t.Cap)
		}
		return Str("")
	case KindPointer, KindNil:
		return Pointer{}
	case KindArray:
		a := &Array{Elem: t.Elem, Cells: make([]Value, t.Len)}
		for i := range a.Cells {
			a.Cells[i] = Zero(t.Elem, reg)
		}
		return a
	case KindRecord:
		def, ok := reg.Lookup(t.Record)
		if !ok {
			return &Record{Def: &RecordDef{Name: t.Record}}
		}
		r := &Record{Def: def, Fields: make([]Value, len(def.Fields))}
		for i, f := range def.Fields {
			r.Fields[i] = Zero(f.Type, reg)
		}
		return r
	}
	return Int(0)
}

// Copy returns a deep copy of aggregates; scalars and pointers are
// returned as-is since they are immutable values.
func Copy(v Value) Value {
	switch x := v.(type) {
	case *FixedString:
		return x.Clone()
	case *Array:
		out := &Array{Elem: x.Elem, Cells: make([]Value, len(x.Cells))}
		for i, c := range x.Cells {
			out.Cells[i] = Copy(c)
		}
		return out
	case *Record:
		out := &Record{Def: x.Def, Fields: make([]Value, len(x.Fields))}
		for i, f := range x.Fields {
			out.Fields[i] = Copy(f)
		}
		return out
	case Pointer:
		return x.Clone()
	}
	return v
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// Format renders a value the way the learner sees it: NIL, Vrai/Faux,
// terminator-aware strings, reals always carrying a decimal point.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "NIL"
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Real:
		return FormatReal(float64(x))
	case Bool:
		if x {
			return "Vrai"
		}
		return "Faux"
	case Char:
		if rune(x) == Terminator || rune(x) == Empty {
			return ""
		}
		return string(rune(x))
	case Str:
		return cutTerminator(string(x))
	case *FixedString:
		return x.String()
	case Pointer:
		return x.String()
	case *Array:
		parts := make([]string, len(x.Cells))
		for i, c := range x.Cells {
			parts[i] = Format(c)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Record:
		return formatRecord(x, len(x.Fields))
	}
	return "?"
}

// formatRecord renders up to limit fields as {f=v, ...}.
func formatRecord(r *Record, limit int) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range r.Fields {
		if i >= limit {
			sb.WriteString(", ...")
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		if r.Def != nil && i < len(r.Def.Fields) {
			sb.WriteString(r.Def.Fields[i].Name)
		}
		sb.WriteByte('=')
		sb.WriteString(Format(f))
	}
	sb.WriteByte('}')
	return sb.String()
}

// FormatReal prints a float like a teaching calculator would: 5.0, 0.25, 1e+20.
func FormatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func cutTerminator(s string) string {
	if i := strings.IndexRune(s, Terminator); i >= 0 {
		return s[:i]
	}
	return s
}

// TypeOf infers a display type for a value with no declared type.
func TypeOf(v Value) *Type {
	switch x := v.(type) {
	case Int:
		return IntType
	case Real:
		return RealType
	case Bool:
		return BoolType
	case Char:
		return CharType
	case Str:
		return StrType
	case *FixedString:
		return StringOf(x.Cap())
	case Pointer:
		return PointerTo(nil)
	case *Array:
		return ArrayOf(x.Elem, len(x.Cells))
	case *Record:
		if x.Def != nil {
			return RecordNamed(x.Def.Name)
		}
	}
	return InvalidType
}
