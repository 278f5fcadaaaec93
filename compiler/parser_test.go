package compiler

import (
	"fmt"
	"strconv"
	"testing"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	file, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return file
}

// parseBody wraps statements in a minimal program and returns them.
func parseBody(t *testing.T, decls, body string) []Stmt {
	t.Helper()
	src := "Algorithme Test;\n" + decls + "\nDebut\n" + body + "\nFin."
	return mustParse(t, src).Body
}

func parseExpr(t *testing.T, src string) Expr {
	t.Helper()
	p := NewParser(src)
	var e Expr
	if !p.guard(func() { e = p.ParseExpression() }) {
		t.Fatalf("ParseExpression(%q) failed: %v", src, p.Diagnostics())
	}
	return e
}

func TestParserProgramShape(t *testing.T) {
	src := `
Type Point = Enregistrement
    x, y : Entier;
Fin;

Algorithme Formes;
Const N = 3;
Var p : Point;
    t[10] : Reel;
Fonction carre(v : Entier) : Entier
Debut
    Retourner v * v;
Fin;
Debut
    p.x := carre(N);
Fin.`
	file := mustParse(t, src)
	if file.Name != "Formes" {
		t.Errorf("Name = %q, want Formes", file.Name)
	}
	// t[10] gets a declaration of its own.
	if len(file.Decls) != 5 {
		t.Fatalf("got %d decls, want 5", len(file.Decls))
	}
	if _, ok := file.Decls[0].(*RecordDecl); !ok {
		t.Errorf("decl[0] is %T, want *RecordDecl", file.Decls[0])
	}
	if c, ok := file.Decls[1].(*ConstDecl); !ok || c.Name != "N" {
		t.Errorf("decl[1] = %#v, want const N", file.Decls[1])
	}
	if v, ok := file.Decls[3].(*VarDecl); !ok || v.Names[0].Name != "t" {
		t.Errorf("decl[3] = %#v, want var t", file.Decls[3])
	}
	fn, ok := file.Decls[4].(*FuncDecl)
	if !ok {
		t.Fatalf("decl[4] is %T, want *FuncDecl", file.Decls[4])
	}
	if !fn.IsFunction() || fn.Name != "carre" || len(fn.Params) != 1 {
		t.Errorf("got func %q params=%d function=%v", fn.Name, len(fn.Params), fn.IsFunction())
	}
	if len(file.Body) != 1 {
		t.Errorf("got %d body statements, want 1", len(file.Body))
	}
}

func TestParserVarDeclarations(t *testing.T) {
	file := mustParse(t, `Algorithme A;
Var a, b : Entier;
    s[20] : Chaine;
    m[3][4] : Reel;
    q : ^^Entier;
    v : Tableau de Entier;
Debut
Fin.`)
	tests := []struct {
		idx     int
		names   []string
		dims    []int
		typ     string
		unsized bool
	}{
		{0, []string{"a", "b"}, nil, "Entier", false},
		{1, []string{"s"}, []int{20}, "Chaine", false},
		{2, []string{"m"}, []int{3, 4}, "Reel", false},
		{4, []string{"v"}, nil, "Entier", true},
	}
	for _, tc := range tests {
		d := file.Decls[tc.idx].(*VarDecl)
		if len(d.Names) != len(tc.names) {
			t.Errorf("decl[%d]: got %d names, want %d", tc.idx, len(d.Names), len(tc.names))
			continue
		}
		for i, n := range d.Names {
			if n.Name != tc.names[i] {
				t.Errorf("decl[%d] name %d = %q, want %q", tc.idx, i, n.Name, tc.names[i])
			}
		}
		if len(d.Names[0].Dims) != len(tc.dims) {
			t.Errorf("decl[%d] dims = %v, want %v", tc.idx, d.Names[0].Dims, tc.dims)
		}
		if d.Type.Name != tc.typ {
			t.Errorf("decl[%d] type = %q, want %q", tc.idx, d.Type.Name, tc.typ)
		}
		if d.Unsized != tc.unsized {
			t.Errorf("decl[%d] unsized = %v, want %v", tc.idx, d.Unsized, tc.unsized)
		}
	}
	q := file.Decls[3].(*VarDecl).Type
	if q.Elem == nil || q.Elem.Elem == nil || q.Elem.Elem.Name != "Entier" {
		t.Errorf("q type not parsed as ^^Entier: %#v", q)
	}
}

func TestParserPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a - b - c", "((a - b) - c)"},
		{"a div b mod c", "((a div b) mod c)"},
		{"-a * b", "((-a) * b)"},
		{"a < b et c > d", "((a < b) et (c > d))"},
		{"a ou b et c", "(a ou (b et c))"},
		{"non a = b", "(non (a = b))"},
		{"p^.x + t[i]", "((p^).x + t[i])"},
		{"p->suiv->val", "((p->suiv)->val)"},
		{"&t[2] + 1", "((&t[2]) + 1)"},
		{"f(x, y) * 2", "(f(x, y) * 2)"},
	}
	for _, tc := range tests {
		if got := exprString(parseExpr(t, tc.input)); got != tc.want {
			t.Errorf("ParseExpression(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

// exprString renders an expression fully parenthesized.
func exprString(e Expr) string {
	switch e := e.(type) {
	case *IntLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *Variable:
		return e.Name
	case *BinaryExpr:
		return "(" + exprString(e.Left) + " " + e.Op + " " + exprString(e.Right) + ")"
	case *UnaryExpr:
		if e.Op == "non" {
			return "(non " + exprString(e.X) + ")"
		}
		return "(-" + exprString(e.X) + ")"
	case *IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	case *FieldExpr:
		if e.Arrow {
			return "(" + exprString(e.X) + "->" + e.Name + ")"
		}
		return "(" + exprString(e.X) + ")." + e.Name
	case *DerefExpr:
		return exprString(e.X) + "^"
	case *AddrExpr:
		return "(&" + exprString(e.X) + ")"
	case *CallExpr:
		s := e.Name + "("
		for i, a := range e.Args {
			if i > 0 {
				s += ", "
			}
			s += exprString(a)
		}
		return s + ")"
	}
	return "?"
}

func TestParserControlFlow(t *testing.T) {
	body := parseBody(t, "Var i, s : Entier;", `
Si s > 0 Alors
    s := 0;
Sinon
    s := 1;
Fin Si
TantQue s < 10 Faire
    s := s + 1;
FinTantQue
Tant Que s > 0 Faire s := s - 1; Fin TantQue;
Pour i <- 1 à 3 Faire
    s := s + i;
FinPour
Repeter
    s := s - 1;
Jusqua s = 0;
Si Vrai Alors Fsi`)
	want := []string{"*compiler.IfStmt", "*compiler.WhileStmt", "*compiler.WhileStmt",
		"*compiler.ForStmt", "*compiler.RepeatStmt", "*compiler.IfStmt"}
	if len(body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(body), len(want))
	}
	for i, s := range body {
		if got := typeName(s); got != want[i] {
			t.Errorf("stmt[%d] = %s, want %s", i, got, want[i])
		}
	}
	ifs := body[0].(*IfStmt)
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Errorf("if branches = %d/%d, want 1/1", len(ifs.Then), len(ifs.Else))
	}
	rep := body[4].(*RepeatStmt)
	if rep.Until.Line != rep.SpanVal.Start.Line+2 {
		t.Errorf("Jusqua line = %d, want %d", rep.Until.Line, rep.SpanVal.Start.Line+2)
	}
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

func TestParserSimpleStatements(t *testing.T) {
	body := parseBody(t, "Var p : ^Entier; x : Entier;", `
Ecrire("x =", x, "\n");
Ecrire();
Lire(x);
p := allouer(taille(Entier));
p^ := 5;
Liberer(p);
afficher(x, 2);`)
	want := []string{"*compiler.WriteStmt", "*compiler.WriteStmt", "*compiler.ReadStmt",
		"*compiler.AssignStmt", "*compiler.AssignStmt", "*compiler.FreeStmt", "*compiler.CallStmt"}
	if len(body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(body), len(want))
	}
	for i, s := range body {
		if got := typeName(s); got != want[i] {
			t.Errorf("stmt[%d] = %s, want %s", i, got, want[i])
		}
	}
	if w := body[0].(*WriteStmt); len(w.Args) != 3 {
		t.Errorf("Ecrire args = %d, want 3", len(w.Args))
	}
	alloc, ok := body[3].(*AssignStmt).Value.(*AllocExpr)
	if !ok {
		t.Fatalf("value is %T, want *AllocExpr", body[3].(*AssignStmt).Value)
	}
	if sz, ok := alloc.Size.(*SizeOfExpr); !ok || sz.Type.Name != "Entier" {
		t.Errorf("allouer size = %#v, want taille(Entier)", alloc.Size)
	}
}

func TestParserSubprogramParams(t *testing.T) {
	file := mustParse(t, `Algorithme A;
Procedure remplir(Var t[5] : Entier; n : Entier, Var p : ^Reel)
Var i : Entier;
Debut
    i := n;
Fin;
Debut
Fin.`)
	fn := file.Decls[0].(*FuncDecl)
	if fn.IsFunction() {
		t.Error("procedure reported as function")
	}
	if len(fn.Params) != 3 {
		t.Fatalf("got %d params, want 3", len(fn.Params))
	}
	if !fn.Params[0].ByRef || len(fn.Params[0].Dims) != 1 {
		t.Errorf("param t = %#v", fn.Params[0])
	}
	if fn.Params[1].ByRef {
		t.Error("param n should be by value")
	}
	if !fn.Params[2].ByRef || fn.Params[2].Type.Elem == nil {
		t.Errorf("param p = %#v", fn.Params[2])
	}
	if len(fn.Decls) != 1 {
		t.Errorf("got %d local decls, want 1", len(fn.Decls))
	}
}

func TestParserDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int // -1 matches any line
	}{
		{
			name: "missing semicolon in declaration",
			src:  "Algorithme A;\nVar x : Entier\nDebut\nFin.",
			code: CodeBadStatement,
			line: -1,
		},
		{
			name: "bad token in statement",
			src:  "Algorithme A;\nVar x : Entier;\nDebut\n  x := * 2;\nFin.",
			code: CodeSyntax,
			line: 4,
		},
		{
			name: "wrong keyword in Pour",
			src:  "Algorithme A;\nVar i : Entier;\nDebut\n  Pour i := 1 jusque 3 Faire\n  FinPour\nFin.",
			code: CodeForKeyword,
			line: 4,
		},
		{
			name: "unexpected end of input",
			src:  "Algorithme A;\nDebut\n  Si Vrai Alors",
			code: CodeSyntaxEOF,
			line: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, diags := Parse(tc.src)
			for _, d := range diags {
				if d.Code == tc.code && (tc.line < 0 || d.Line == tc.line) {
					return
				}
			}
			t.Errorf("got %v, want a %s diagnostic on line %d", diags, tc.code, tc.line)
		})
	}
}

func TestParserRecoversAfterError(t *testing.T) {
	file, diags := Parse("Algorithme A;\nVar x : Entier;\nDebut\n  x := ;\n  x := 2;\n  Ecrire(x);\nFin.")
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic")
	}
	if len(file.Body) != 2 {
		t.Errorf("got %d statements after recovery, want 2", len(file.Body))
	}
}

func TestParserEOFReportedOnce(t *testing.T) {
	_, diags := Parse("Algorithme A;\nDebut\n  Si Vrai Alors\n    TantQue Vrai Faire")
	n := 0
	for _, d := range diags {
		if d.Code == CodeSyntaxEOF {
			n++
			if d.Line != 0 {
				t.Errorf("EOF diagnostic line = %d, want 0", d.Line)
			}
		}
	}
	if n != 1 {
		t.Errorf("got %d EOF diagnostics, want 1", n)
	}
}
