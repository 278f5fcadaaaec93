package compiler

import (
	"testing"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

func generate(t *testing.T, src string) *vm.Program {
	t.Helper()
	res, diags := Compile(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return res.Program
}

func TestCodegenProgramLayout(t *testing.T) {
	prog := generate(t, `Algorithme Couches;
Const MAX = 5;
Var total : Entier;
Procedure ajouter(Var t : Entier; n : Entier; p : ^Entier)
Var tmp : Entier;
Debut
    tmp := n;
    t := t + tmp;
Fin;
Fonction double(x : Entier) : Entier
Debut
    Retourner 2 * x;
Fin;
Debut
    ajouter(total, MAX, NIL);
    total := double(total);
Fin.`)

	if prog.Name != "Couches" || prog.StackBase != DefaultStackBase || prog.HeapBase != vm.DefaultHeapBase {
		t.Errorf("header = %q %d %d", prog.Name, prog.StackBase, prog.HeapBase)
	}
	if len(prog.Globals) != 2 {
		t.Fatalf("got %d globals, want 2", len(prog.Globals))
	}
	if c := prog.Globals[0]; c.Name != "MAX" || c.Const != vm.Int(5) {
		t.Errorf("globals[0] = %+v, want constant MAX", c)
	}
	if g := prog.Globals[1]; g.Name != "total" || g.Addr != 1000 || g.Const != nil {
		t.Errorf("globals[1] = %+v", g)
	}

	if len(prog.Funcs) != 2 {
		t.Fatalf("got %d funcs, want 2", len(prog.Funcs))
	}
	aj := prog.Funcs[0]
	wantParams := []struct {
		name         string
		byRef, clone bool
	}{
		{"t", true, false},
		{"n", false, false},
		{"p", false, true},
	}
	for i, w := range wantParams {
		p := aj.Params[i]
		if p.Name != w.name || p.ByRef != w.byRef || p.Clone != w.clone {
			t.Errorf("param[%d] = %+v, want %+v", i, p, w)
		}
	}
	if len(aj.Locals) != 1 || aj.Locals[0].Name != "tmp" {
		t.Errorf("locals = %+v, want [tmp]", aj.Locals)
	}
	if aj.Line != 4 || aj.EndLine != 9 {
		t.Errorf("ajouter lines = %d..%d, want 4..9", aj.Line, aj.EndLine)
	}
	if d := prog.Funcs[1]; d.Result == nil || d.Result.Kind != vm.KindInt {
		t.Errorf("double result = %v", d.Result)
	}
	if prog.EndLine != 17 {
		t.Errorf("EndLine = %d, want 17", prog.EndLine)
	}
	if len(prog.Main) != 2 || prog.Main[0].StmtLine() != 15 {
		t.Errorf("main = %d statements, first on line %d", len(prog.Main), prog.Main[0].StmtLine())
	}
}

func mainStmts(t *testing.T, decls, body string) []vm.Stmt {
	t.Helper()
	prelude := `Type Noeud = Enregistrement
    val : Entier;
    suiv : ^Noeud;
Fin;
`
	return generate(t, prelude+"Algorithme G;\nVar "+decls+"\nDebut\n"+body+"\nFin.").Main
}

func assignValue(t *testing.T, s vm.Stmt) vm.Expr {
	t.Helper()
	a, ok := s.(*vm.Assign)
	if !ok {
		t.Fatalf("statement is %T, want *vm.Assign", s)
	}
	return a.Value
}

func TestCodegenArrayAndStringDecay(t *testing.T) {
	stmts := mainStmts(t, "t[4] : Entier; s[8] : Chaine; p : ^Entier; c : ^Caractere;", `
p := t;
c := s;
p := t + 2;
p := p + 1;`)

	if _, ok := assignValue(t, stmts[0]).(*vm.AddrOf); !ok {
		t.Errorf("p := t lowered to %T, want *vm.AddrOf", assignValue(t, stmts[0]))
	}
	if _, ok := assignValue(t, stmts[1]).(*vm.AddrOf); !ok {
		t.Errorf("c := s lowered to %T, want *vm.AddrOf", assignValue(t, stmts[1]))
	}
	bin := assignValue(t, stmts[2]).(*vm.Binary)
	if _, ok := bin.L.(*vm.AddrOf); !ok {
		t.Errorf("t + 2 left operand is %T, want *vm.AddrOf", bin.L)
	}
	bin = assignValue(t, stmts[3]).(*vm.Binary)
	if _, ok := bin.L.(*vm.VarRef); !ok {
		t.Errorf("p + 1 left operand is %T, want *vm.VarRef", bin.L)
	}
}

func TestCodegenAllocationCellType(t *testing.T) {
	stmts := mainStmts(t, "n : ^Noeud; s : ^Chaine; p : ^Entier; v : Tableau de Reel;", `
n := allouer(taille(Noeud));
s := allouer(20);
p := allouer(3 * taille(Entier));
v := allouer(4 * taille(Reel));`)
	tests := []struct {
		idx  int
		want string
	}{
		{0, "Noeud"},
		{1, "Caractere"},
		{2, "Entier"},
		{3, "Reel"},
	}
	for _, tc := range tests {
		alloc, ok := assignValue(t, stmts[tc.idx]).(*vm.Alloc)
		if !ok {
			t.Errorf("stmt[%d] value is %T, want *vm.Alloc", tc.idx, assignValue(t, stmts[tc.idx]))
			continue
		}
		if got := alloc.Elem.String(); got != tc.want {
			t.Errorf("stmt[%d] cell type = %s, want %s", tc.idx, got, tc.want)
		}
	}
}

func TestCodegenStringDereference(t *testing.T) {
	stmts := mainStmts(t, "c : ^Caractere; ps : ^Chaine; x : Caractere; s[10] : Chaine;", `
Ecrire(c^);
x := c^;
s := c^;
Ecrire(ps^);
ps^ := "abc";
x := ps^[1];`)

	w := stmts[0].(*vm.Write)
	if d, ok := w.Args[0].(*vm.Deref); !ok || !d.AsString {
		t.Errorf("Ecrire(c^) arg = %#v, want string dereference", w.Args[0])
	}
	if d := assignValue(t, stmts[1]).(*vm.Deref); d.AsString {
		t.Error("x := c^ should read a single character")
	}
	if d := assignValue(t, stmts[2]).(*vm.Deref); !d.AsString {
		t.Error("s := c^ should read a whole string")
	}
	if d := stmts[3].(*vm.Write).Args[0].(*vm.Deref); !d.AsString {
		t.Error("Ecrire(ps^) should read a whole string")
	}
	if d := stmts[4].(*vm.Assign).Target.(*vm.Deref); !d.AsString {
		t.Error("ps^ := ... should store a whole string")
	}
	idx := assignValue(t, stmts[5]).(*vm.Index)
	if _, ok := idx.X.(*vm.VarRef); !ok {
		t.Errorf("ps^[1] indexes %T, want the pointer itself", idx.X)
	}
}

func TestCodegenFieldAccess(t *testing.T) {
	stmts := mainStmts(t, "n : ^Noeud; r : Noeud;", `
n->val := 1;
n^.val := 2;
r.val := 3;
n.val := 4;`)
	for i, wantDeref := range []bool{true, true, false, true} {
		f := stmts[i].(*vm.Assign).Target.(*vm.FieldRef)
		_, isDeref := f.X.(*vm.Deref)
		if isDeref != wantDeref {
			t.Errorf("stmt[%d] field base deref = %v, want %v", i, isDeref, wantDeref)
		}
	}
}

func TestCodegenReadAndLoops(t *testing.T) {
	stmts := mainStmts(t, "i : Entier; r : Reel; s[5] : Chaine;", `
Lire(i, r, s);
Repeter
    i := i - 1;
Jusqua i <= 0;`)
	rd := stmts[0].(*vm.Read)
	want := []vm.Kind{vm.KindInt, vm.KindReal, vm.KindString}
	for i, k := range want {
		if rd.Types[i].Kind != k {
			t.Errorf("read type[%d] = %s, want kind %d", i, rd.Types[i], k)
		}
	}
	rep := stmts[1].(*vm.Repeat)
	if rep.CondLine != rep.Line+2 {
		t.Errorf("CondLine = %d, want %d", rep.CondLine, rep.Line+2)
	}
}

func TestCodegenTextRoundTrip(t *testing.T) {
	res, diags := Compile(`Type Noeud = Enregistrement
    val : Entier;
    suiv : ^Noeud;
Fin;
Algorithme Liste;
Const N = 3;
Var tete, p : ^Noeud;
    i : Entier;
    nom[12] : Chaine;
Debut
    tete := NIL;
    Pour i := 1 a N Faire
        p := allouer(taille(Noeud));
        p->val := i;
        p->suiv := tete;
        tete := p;
    FinPour
    nom := "liste";
    Ecrire(nom, tete->val);
Fin.`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	back, err := vm.ParseProgram(res.Text)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if got := back.Text(); got != res.Text {
		t.Errorf("text changed after a round trip:\n%s\n---\n%s", res.Text, got)
	}
}
