package compiler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

// run compiles src, requires a clean compile, and executes it.
func run(t *testing.T, src string, input ...string) (string, error) {
	t.Helper()
	res, diags := Compile(src)
	require.Empty(t, diags, "diagnostics")
	return vm.RunBatch(context.Background(), res.Program, input, vm.Limits{MaxSteps: 20000, MaxDepth: 50, MaxHeapBytes: 4096})
}

func program(decls, body string) string {
	return "Algorithme T;\n" + decls + "\nDebut\n" + body + "\nFin."
}

func TestCompileDeterministicLayout(t *testing.T) {
	src := program("Var a, b : Entier;\n    s[10] : Chaine;\n    p : ^Reel;", "a := 1;")
	first, _ := Compile(src)
	second, _ := Compile(src)
	require.Equal(t, first.Program.Memory, second.Program.Memory)
	require.Equal(t, first.Text, second.Text)
}

func TestCompileOptionsMoveAddressSpace(t *testing.T) {
	res, diags := NewSession(Options{StackBase: 2000, HeapBase: 90000}).Compile(program("Var a : Entier;", "a := 1;"))
	require.Empty(t, diags)
	require.Equal(t, 2000, res.Program.Globals[0].Addr)
	require.Equal(t, 90000, res.Program.HeapBase)
}

func TestCompileReportsEveryPhase(t *testing.T) {
	_, diags := Compile(program("Var x : Entier;", "x := 1 @ 2;\nx := \"deux\";\ny := 3;"))
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, CodeIllegalChar)
	assert.Contains(t, codes, CodeTypeMismatch)
	assert.Contains(t, codes, CodeUndeclared)
}

func TestRunOutput(t *testing.T) {
	tests := []struct {
		name  string
		decls string
		body  string
		input []string
		want  string
	}{
		{"arithmetic", "Var a : Entier;", "a := 7;\nEcrire(a div 2, a mod 2, a / 2);", nil, "3 1 3.5"},
		{"defaults", "Var i : Entier; r : Reel; b : Booleen; p : ^Entier; s[4] : Chaine;",
			"Ecrire(i, r, b, p);\nEcrire(s);", nil, "0 0.0 Faux NIL"},
		{"truncation", "Var s[4] : Chaine;", "s := \"bonjour\";\nEcrire(s, longueur(s));", nil, "bon 3"},
		{"concat", "Var s[16] : Chaine;", "s := concat(\"ab\", \"cd\");\nEcrire(s);", nil, "abcd"},
		{"string compare", "Var s[8] : Chaine;", "s := \"abc\";\nSi s = \"abc\" Alors Ecrire(\"oui\"); FinSi", nil, "oui"},
		{"for loop", "Var i, t : Entier;", "t := 0;\nPour i := 1 a 10 Faire\n    t := t + i;\nFinPour\nEcrire(t);", nil, "55"},
		{"repeat", "Var i : Entier;", "i := 3;\nRepeter\n    Ecrire(i);\n    i := i - 1;\nJusqua i = 0;", nil, "321"},
		{"read", "Var n : Entier; r : Reel; s[8] : Chaine;", "Lire(n, r, s);\nEcrire(n + 1, r, s);",
			[]string{"41", "2,5", "texte"}, "42 2.5 texte"},
		{"read boolean", "Var b : Booleen;", "Lire(b);\nSi b Alors Ecrire(\"V\"); FinSi", []string{"vrai"}, "V"},
		{"newline escape", "", "Ecrire(\"a\\nb\");", nil, "a\nb"},
		{"heap array", "Var t : Tableau de Entier; i : Entier;",
			"t := allouer(3 * taille(Entier));\nPour i := 0 a 2 Faire\n    t[i] := i * i;\nFinPour\nEcrire(t[2], (t + 1)^);", nil, "4 1"},
		{"address of", "Var a : Entier; p : ^Entier;", "p := &a;\np^ := 9;\nEcrire(a);", nil, "9"},
		{"constants", "Const N = 4; PI = 3.5; C = 'z';", "Ecrire(N * 2, PI, C);", nil, "8 3.5 z"},
		{"pointer to string", "Var s[10] : Chaine; p : ^Chaine;",
			"p := allouer(10);\np^ := \"salut\";\ns := p^;\nEcrire(s, p^[0]);", nil, "salut s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, program(tc.decls, tc.body), tc.input...)
			require.NoError(t, err)
			require.Equal(t, tc.want, out)
		})
	}
}

func TestRunSubprograms(t *testing.T) {
	src := `Algorithme Sous;
Var x, y : Entier;
Procedure echanger(Var a, b : Entier)
Var tmp : Entier;
Debut
    tmp := a;
    a := b;
    b := tmp;
Fin;
Procedure copie(a : Entier)
Debut
    a := 100;
Fin;
Fonction fact(n : Entier) : Entier
Debut
    Si n <= 1 Alors
        Retourner 1;
    FinSi
    Retourner n * fact(n - 1);
Fin;
Debut
    x := 1;
    y := 2;
    echanger(x, y);
    copie(x);
    Ecrire(x, y, fact(5));
Fin.`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "2 1 120", out)
}

func TestRunRecordsAndLists(t *testing.T) {
	src := `Type Noeud = Enregistrement
    val : Entier;
    suiv : ^Noeud;
Fin;
Algorithme Liste;
Var tete, p : ^Noeud;
    i : Entier;
    r : Noeud;
Debut
    tete := NIL;
    Pour i := 1 a 3 Faire
        p := allouer(taille(Noeud));
        p->val := i * 10;
        p->suiv := tete;
        tete := p;
    FinPour
    p := tete;
    TantQue p <> NIL Faire
        Ecrire(p->val);
        p := p->suiv;
    FinTantQue
    r.val := 7;
    Ecrire(r.val, taille(Noeud));
Fin.`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "3020107 12", out)
}

func TestRunFaults(t *testing.T) {
	tests := []struct {
		name  string
		decls string
		body  string
		input []string
		kind  vm.ErrorKind
		line  int
	}{
		{"zero division", "Var a : Entier;", "a := 0;\nEcrire(10 div a);", nil, vm.ErrZeroDivision, 5},
		{"nil dereference", "Var p : ^Entier;", "p := NIL;\np^ := 1;", nil, vm.ErrNilPointer, 5},
		{"use after free", "Var p : ^Entier;", "p := allouer(taille(Entier));\nliberer(p);\nEcrire(p^);", nil, vm.ErrUseAfterFree, 6},
		{"index out of range", "Var t[3] : Entier; i : Entier;", "i := 3;\nt[i] := 1;", nil, vm.ErrIndex, 5},
		{"infinite loop", "", "TantQue Vrai Faire\nFinTantQue", nil, vm.ErrInfiniteLoop, 4},
		{"heap exhaustion", "Var p : ^Entier;", "TantQue Vrai Faire\n    p := allouer(1000);\nFinTantQue", nil, vm.ErrMemory, 5},
		{"bad input", "Var n : Entier;", "Lire(n);", []string{"abc"}, vm.ErrInputMismatch, 4},
		{"end of input", "Var n : Entier;", "Lire(n);", nil, vm.ErrEndOfInput, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, program(tc.decls, tc.body), tc.input...)
			var rerr *vm.RuntimeError
			require.True(t, errors.As(err, &rerr), "got %v", err)
			require.Equal(t, tc.kind, rerr.Kind, rerr.Error())
			require.Equal(t, tc.line, rerr.Line)
		})
	}
}

func TestRunInputMismatchNamesLiteral(t *testing.T) {
	_, err := run(t, program("Var n : Entier;", "Lire(n);"), "douze")
	require.ErrorIs(t, err, &vm.RuntimeError{Kind: vm.ErrInputMismatch})
	require.Contains(t, err.Error(), "'douze'")
}

func TestRunRecursionLimit(t *testing.T) {
	src := `Algorithme Rec;
Var x : Entier;
Fonction f(n : Entier) : Entier
Debut
    Retourner f(n + 1);
Fin;
Debut
    x := f(0);
Fin.`
	_, err := run(t, src)
	require.ErrorIs(t, err, &vm.RuntimeError{Kind: vm.ErrRecursion})
}

func TestRunCancelled(t *testing.T) {
	res, diags := Compile(program("", "TantQue Vrai Faire\nFinTantQue"))
	require.Empty(t, diags)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := vm.RunBatch(ctx, res.Program, nil, vm.DefaultLimits)
	require.ErrorIs(t, err, vm.ErrStopped)
}

func TestCompileAll(t *testing.T) {
	var sources []Source
	for i := 0; i < 8; i++ {
		body := fmt.Sprintf("x := %d;", i)
		if i == 3 {
			body = "x := ;"
		}
		sources = append(sources, Source{Name: fmt.Sprintf("p%d", i), Text: program("Var x : Entier;", body)})
	}

	units, err := CompileAll(context.Background(), sources, DefaultOptions)
	require.NoError(t, err)
	require.Len(t, units, len(sources))
	for i, u := range units {
		require.Equal(t, sources[i].Name, u.Name)
		if i == 3 {
			require.NotEmpty(t, u.Diagnostics)
			continue
		}
		require.Empty(t, u.Diagnostics)
		out, err := vm.RunBatch(context.Background(), u.Result.Program, nil, vm.DefaultLimits)
		require.NoError(t, err)
		require.Empty(t, out)
	}
}

func TestCompileAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CompileAll(ctx, []Source{{Name: "a", Text: program("", "")}}, DefaultOptions)
	require.ErrorIs(t, err, context.Canceled)
}
