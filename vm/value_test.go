package vm

import (
	"math"
	"testing"
)

// expectFault runs f and returns the kind of the runtime fault it raised.
func expectFault(t *testing.T, f func()) (kind ErrorKind) {
	t.Helper()
	defer func() {
		r := recover()
		e, ok := r.(*RuntimeError)
		if !ok {
			t.Fatalf("expected a runtime fault, got %v", r)
		}
		kind = e.Kind
	}()
	f()
	return ErrInternal
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(-12), "-12"},
		{Real(5), "5.0"},
		{Real(0.25), "0.25"},
		{Real(1e20), "1e+20"},
		{Real(math.Inf(1)), "inf"},
		{Bool(true), "Vrai"},
		{Bool(false), "Faux"},
		{Char('a'), "a"},
		{Char(Terminator), ""},
		{Str("ab\x00cd"), "ab"},
		{MakeString("salut"), "salut"},
		{Pointer{}, "NIL"},
		{nil, "NIL"},
		{&Array{Elem: IntType, Cells: []Value{Int(1), Int(2)}}, "[1, 2]"},
	}
	for _, tc := range tests {
		if got := Format(tc.v); got != tc.want {
			t.Errorf("Format(%#v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestFormatRecord(t *testing.T) {
	reg := NewRecordRegistry()
	reg.Define("Point", []Field{{Name: "x", Type: IntType}, {Name: "y", Type: RealType}})
	r := Zero(RecordNamed("Point"), reg).(*Record)
	r.Fields[0] = Int(3)
	if got, want := Format(r), "{x=3, y=0.0}"; got != want {
		t.Errorf("Format(record) = %q, want %q", got, want)
	}
	if got, want := formatRecord(r, 1), "{x=3, ...}"; got != want {
		t.Errorf("formatRecord(limit 1) = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Zero values and copies
// ---------------------------------------------------------------------------

func TestZero(t *testing.T) {
	reg := NewRecordRegistry()
	reg.Define("Noeud", []Field{{Name: "val", Type: IntType}, {Name: "suiv", Type: PointerTo(RecordNamed("Noeud"))}})

	tests := []struct {
		typ  *Type
		want string
	}{
		{IntType, "0"},
		{RealType, "0.0"},
		{BoolType, "Faux"},
		{CharType, ""},
		{StringOf(8), ""},
		{PointerTo(IntType), "NIL"},
		{ArrayOf(IntType, 3), "[0, 0, 0]"},
		{MatrixOf(IntType, 2, 2), "[[0, 0], [0, 0]]"},
		{RecordNamed("Noeud"), "{val=0, suiv=NIL}"},
	}
	for _, tc := range tests {
		if got := Format(Zero(tc.typ, reg)); got != tc.want {
			t.Errorf("Zero(%s) = %q, want %q", tc.typ, got, tc.want)
		}
	}

	if fs, ok := Zero(StringOf(8), reg).(*FixedString); !ok || fs.Cap() != 8 {
		t.Errorf("Zero(Chaine[8]) = %#v, want an 8-slot string", fs)
	}
}

func TestCopyIsDeep(t *testing.T) {
	reg := NewRecordRegistry()
	a := Zero(ArrayOf(StringOf(4), 2), reg).(*Array)
	a.Cells[0].(*FixedString).Assign("ab")

	b := Copy(a).(*Array)
	b.Cells[0].(*FixedString).Assign("zz")
	b.Cells[1] = MakeString("x")

	if got := Format(a); got != "[ab, ]" {
		t.Errorf("original changed through copy: %s", got)
	}
}

// ---------------------------------------------------------------------------
// Types and layout
// ---------------------------------------------------------------------------

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ     *Type
		source  string
		display string
	}{
		{IntType, "Entier", "Entier"},
		{StringOf(20), "Chaine[20]", "Chaine"},
		{PointerTo(PointerTo(CharType)), "^^Caractere", "Pointeur"},
		{ArrayOf(RealType, 5), "Tableau[5] de Reel", "Tableau (Reel)"},
		{MatrixOf(IntType, 3, 4), "Matrice[3][4] de Entier", "Matrice (Entier)"},
		{RecordNamed("Monome"), "Monome", "Monome"},
	}
	for _, tc := range tests {
		if got := tc.typ.String(); got != tc.source {
			t.Errorf("String() = %q, want %q", got, tc.source)
		}
		if got := tc.typ.Display(); got != tc.display {
			t.Errorf("Display() = %q, want %q", got, tc.display)
		}
	}
}

func TestTypeEqual(t *testing.T) {
	if !PointerTo(IntType).Equal(PointerTo(&Type{Kind: KindInt})) {
		t.Error("^Entier should equal ^Entier")
	}
	if ArrayOf(IntType, 3).Equal(ArrayOf(IntType, 4)) {
		t.Error("arrays of different lengths should differ")
	}
	if RecordNamed("A").Equal(RecordNamed("B")) {
		t.Error("distinct records should differ")
	}
}

func TestSizeOf(t *testing.T) {
	reg := NewRecordRegistry()
	// Liste refers to Monome before Monome exists.
	reg.Define("Liste", []Field{{Name: "tete", Type: RecordNamed("Monome")}, {Name: "n", Type: IntType}})
	reg.Define("Monome", []Field{
		{Name: "coeff", Type: IntType},
		{Name: "exp", Type: IntType},
		{Name: "suiv", Type: PointerTo(RecordNamed("Monome"))},
	})
	reg.Relayout()

	tests := []struct {
		typ  *Type
		want int
	}{
		{IntType, 4},
		{RealType, 8},
		{BoolType, 1},
		{CharType, 1},
		{PointerTo(IntType), 8},
		{StringOf(30), 30},
		{ArrayOf(IntType, 10), 40},
		{MatrixOf(RealType, 2, 3), 48},
		{RecordNamed("Monome"), 16},
		{RecordNamed("Liste"), 20},
	}
	for _, tc := range tests {
		if got := reg.SizeOf(tc.typ); got != tc.want {
			t.Errorf("SizeOf(%s) = %d, want %d", tc.typ, got, tc.want)
		}
	}

	def, _ := reg.Lookup("monome")
	if def.Fields[2].Offset != 8 || def.Size != 16 {
		t.Errorf("Monome layout = %+v", def)
	}
	liste, _ := reg.Lookup("Liste")
	if liste.Fields[1].Offset != 16 {
		t.Errorf("Liste.n offset = %d, want 16 after relayout", liste.Fields[1].Offset)
	}
	if got := reg.ElemSize(ArrayOf(RealType, 4)); got != 8 {
		t.Errorf("ElemSize(Tableau de Reel) = %d, want 8", got)
	}
	if got := reg.ElemSize(StringOf(10)); got != 1 {
		t.Errorf("ElemSize(Chaine[10]) = %d, want 1", got)
	}
}

func TestRecordFieldIndexIgnoresCase(t *testing.T) {
	reg := NewRecordRegistry()
	def := reg.Define("P", []Field{{Name: "Coeff", Type: IntType}})
	if i, ok := def.FieldIndex("coeff"); !ok || i != 0 {
		t.Errorf("FieldIndex(coeff) = %d, %v", i, ok)
	}
	if _, ok := def.FieldIndex("exp"); ok {
		t.Error("FieldIndex(exp) should fail")
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestRuntimeErrorMessages(t *testing.T) {
	tests := []struct {
		err  *RuntimeError
		code string
		want string
	}{
		{&RuntimeError{Kind: ErrZeroDivision}, "E4.5", "Erreur d'exécution (ZeroDivisionError): [E4.5] Division par zéro impossible."},
		{&RuntimeError{Kind: ErrInputMismatch, Detail: "Type mismatch: 'x'"}, "E4.8", "Erreur d'exécution (ValueError): Type mismatch: 'x'"},
		{&RuntimeError{Kind: ErrInternal, Detail: "boom"}, "", "Erreur d'exécution (InternalError): boom"},
	}
	for _, tc := range tests {
		if got := tc.err.Kind.Code(); got != tc.code {
			t.Errorf("Code() = %q, want %q", got, tc.code)
		}
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}
