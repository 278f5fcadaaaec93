package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Type descriptors
// ---------------------------------------------------------------------------

// Kind classifies a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindReal
	KindBool
	KindChar
	KindString
	KindPointer
	KindArray
	KindRecord
	KindNil // type of the NIL literal
)

// Type describes the declared type of a variable, field or expression.
// Types are immutable once resolved.
type Type struct {
	Kind   Kind
	Cap    int    // KindString: slot capacity, 0 for an unbounded literal string
	Len    int    // KindArray: element count (rows for a matrix)
	Elem   *Type  // KindPointer target, KindArray element
	Matrix bool   // KindArray declared as m[R][C]; Elem is the row array
	Record string // KindRecord: registry name
}

var (
	IntType     = &Type{Kind: KindInt}
	RealType    = &Type{Kind: KindReal}
	BoolType    = &Type{Kind: KindBool}
	CharType    = &Type{Kind: KindChar}
	StrType     = &Type{Kind: KindString}
	NilType     = &Type{Kind: KindNil}
	InvalidType = &Type{Kind: KindInvalid}
)

// StringOf returns a fixed-capacity string type.
func StringOf(capacity int) *Type {
	return &Type{Kind: KindString, Cap: capacity}
}

// PointerTo returns a pointer type.
func PointerTo(t *Type) *Type {
	return &Type{Kind: KindPointer, Elem: t}
}

// ArrayOf returns a one-dimensional array type.
func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// MatrixOf returns a rows x cols matrix type, laid out row-major.
func MatrixOf(elem *Type, rows, cols int) *Type {
	return &Type{Kind: KindArray, Len: rows, Matrix: true, Elem: ArrayOf(elem, cols)}
}

// RecordNamed returns a reference to a registered record type.
func RecordNamed(name string) *Type {
	return &Type{Kind: KindRecord, Record: name}
}

// Base returns the innermost element type of an array or matrix.
func (t *Type) Base() *Type {
	for t != nil && t.Kind == KindArray {
		t = t.Elem
	}
	return t
}

// IsNumeric reports whether t is Entier or Reel.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindReal)
}

// IsPointer reports whether t is a pointer or the NIL type.
func (t *Type) IsPointer() bool {
	return t != nil && (t.Kind == KindPointer || t.Kind == KindNil)
}

// Equal reports structural equality.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindPointer:
		return t.Elem.Equal(o.Elem)
	case KindArray:
		return t.Len == o.Len && t.Matrix == o.Matrix && t.Elem.Equal(o.Elem)
	case KindRecord:
		return t.Record == o.Record
	}
	return true
}

// String renders the type the way it is written in source.
func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case KindInt:
		return "Entier"
	case KindReal:
		return "Reel"
	case KindBool:
		return "Booleen"
	case KindChar:
		return "Caractere"
	case KindString:
		if t.Cap > 0 {
			return fmt.Sprintf("Chaine[%d]", t.Cap)
		}
		return "Chaine"
	case KindPointer:
		return "^" + t.Elem.String()
	case KindArray:
		if t.Matrix {
			return fmt.Sprintf("Matrice[%d][%d] de %s", t.Len, t.Elem.Len, t.Elem.Elem)
		}
		return fmt.Sprintf("Tableau[%d] de %s", t.Len, t.Elem)
	case KindRecord:
		return t.Record
	case KindNil:
		return "NIL"
	}
	return "?"
}

// Display is the label shown in snapshots.
func (t *Type) Display() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case KindString:
		return "Chaine"
	case KindPointer, KindNil:
		return "Pointeur"
	case KindArray:
		if t.Matrix {
			return fmt.Sprintf("Matrice (%s)", t.Base().Display())
		}
		return fmt.Sprintf("Tableau (%s)", t.Elem.Display())
	}
	return t.String()
}

// ---------------------------------------------------------------------------
// Record registry
// ---------------------------------------------------------------------------

// Field is one named member of a record.
type Field struct {
	Name   string
	Type   *Type
	Offset int // byte offset from the start of the record
}

// RecordDef is an ordered list of fields. Order drives layout and display.
type RecordDef struct {
	Name   string
	Fields []Field
	Size   int
}

// FieldIndex returns the index of the named field (case-insensitive).
func (d *RecordDef) FieldIndex(name string) (int, bool) {
	for i, f := range d.Fields {
		if strings.EqualFold(f.Name, name) {
			return i, true
		}
	}
	return -1, false
}

// RecordRegistry maps record names to their definitions.
type RecordRegistry struct {
	defs  map[string]*RecordDef
	order []string
}

// NewRecordRegistry creates an empty registry.
func NewRecordRegistry() *RecordRegistry {
	return &RecordRegistry{defs: make(map[string]*RecordDef)}
}

func recordKey(name string) string { return strings.ToLower(name) }

// Define registers or replaces a record type and computes its layout.
// Layout of fields referencing records defined later is resolved on Layout.
func (r *RecordRegistry) Define(name string, fields []Field) *RecordDef {
	key := recordKey(name)
	if _, ok := r.defs[key]; !ok {
		r.order = append(r.order, key)
	}
	def := &RecordDef{Name: name, Fields: fields}
	r.defs[key] = def
	r.layout(def)
	return def
}

// Lookup finds a record definition by name.
func (r *RecordRegistry) Lookup(name string) (*RecordDef, bool) {
	if r == nil {
		return nil, false
	}
	def, ok := r.defs[recordKey(name)]
	return def, ok
}

// Defs returns the definitions in registration order.
func (r *RecordRegistry) Defs() []*RecordDef {
	out := make([]*RecordDef, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.defs[k])
	}
	return out
}

// Relayout recomputes field offsets and sizes of every record. Needed after
// a record refers to one registered later.
func (r *RecordRegistry) Relayout() {
	for _, k := range r.order {
		r.layout(r.defs[k])
	}
}

func (r *RecordRegistry) layout(def *RecordDef) {
	off := 0
	for i := range def.Fields {
		def.Fields[i].Offset = off
		off += r.sizeOf(def.Fields[i].Type, map[string]bool{recordKey(def.Name): true})
	}
	def.Size = off
}

// SizeOf returns the byte size of t in the simulated address space.
// Must agree with the compile-time allocator.
func (r *RecordRegistry) SizeOf(t *Type) int {
	return r.sizeOf(t, map[string]bool{})
}

func (r *RecordRegistry) sizeOf(t *Type, seen map[string]bool) int {
	if t == nil {
		return 4
	}
	switch t.Kind {
	case KindInt:
		return 4
	case KindReal, KindPointer, KindNil:
		return 8
	case KindBool, KindChar:
		return 1
	case KindString:
		if t.Cap > 0 {
			return t.Cap
		}
		return 1
	case KindArray:
		return t.Len * r.sizeOf(t.Elem, seen)
	case KindRecord:
		key := recordKey(t.Record)
		def, ok := r.Lookup(t.Record)
		if !ok || seen[key] {
			return 4
		}
		seen[key] = true
		defer delete(seen, key)
		size := 0
		for _, f := range def.Fields {
			size += r.sizeOf(f.Type, seen)
		}
		return size
	}
	return 4
}

// ElemSize is the stride used for pointer arithmetic over values of type t.
func (r *RecordRegistry) ElemSize(t *Type) int {
	if t != nil && t.Kind == KindArray {
		return r.SizeOf(t.Elem)
	}
	if t != nil && t.Kind == KindString && t.Cap > 0 {
		return 1
	}
	return r.SizeOf(t)
}
