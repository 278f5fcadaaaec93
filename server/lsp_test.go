package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text      string
		line, col uint32
		want      string
	}{
		{"x := som", 0, 8, "som"},
		{"Ecr", 0, 3, "Ecr"},
		{"", 0, 0, ""},
		{"premier\nsecond\nTant", 2, 4, "Tant"},
		{"p->suiv", 0, 7, "suiv"},
		{"hello", 0, 0, ""},
		{"une ligne", 5, 0, ""},
		{"élève := 1", 0, 5, "élève"},
		{"x := 1\r\nDéb", 1, 3, "Déb"},
	}
	for _, tc := range tests {
		got := extractPrefix(tc.text, protocol.Position{Line: tc.line, Character: tc.col})
		if got != tc.want {
			t.Errorf("extractPrefix(%q, %d:%d) = %q, want %q", tc.text, tc.line, tc.col, got, tc.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text      string
		line, col uint32
		want      string
	}{
		{"hello world", 0, 3, "hello"},
		{"hello world", 0, 5, "hello"},
		{"hello world", 0, 8, "world"},
		{"", 0, 0, ""},
		{"premier\nObjet", 1, 2, "Objet"},
		{"t[i] := x", 0, 2, "i"},
		{"Répéter", 0, 3, "Répéter"},
		{"a + b", 0, 2, ""},
	}
	for _, tc := range tests {
		got := extractWord(tc.text, protocol.Position{Line: tc.line, Character: tc.col})
		if got != tc.want {
			t.Errorf("extractWord(%q, %d:%d) = %q, want %q", tc.text, tc.line, tc.col, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Analysis-backed features
// ---------------------------------------------------------------------------

const lspSource = `Type Point = Enregistrement
    x, y : Entier;
Fin;
Algorithme Demo;
Const MAX = 10;
Var somme : Entier;
    pt : Point;
Procedure ajouter(Var total : Entier; n : Entier)
Var tmp : Entier;
Debut
    tmp := n;
    total := total + tmp;
    somme := total;
Fin;
Debut
    ajouter(somme, MAX);
Fin.`

func compileForTest(t *testing.T, src string) *compiler.Result {
	t.Helper()
	res, diags := compiler.Compile(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return res
}

func TestHover(t *testing.T) {
	res := compileForTest(t, lspSource)
	tests := []struct {
		word string
		line int
		want []string
	}{
		{"somme", 16, []string{"**somme** : Entier", "@1000", "4 octets"}},
		{"MAX", 16, []string{"= 10", "constante"}},
		{"tmp", 11, []string{"**tmp** : Entier", "locale à `ajouter`"}},
		{"total", 12, []string{"paramètre par référence"}},
		{"n", 11, []string{"paramètre par valeur"}},
		{"ajouter", 16, []string{"Procedure ajouter(Var total : Entier; n : Entier)", "Modifie: `somme`"}},
		{"Point", 7, []string{"Enregistrement, 8 octets", "`y` : Entier (+4)"}},
		{"TantQue", 1, []string{"mot-clé"}},
	}
	for _, tc := range tests {
		h := hover(res, tc.word, tc.line)
		if h == nil {
			t.Errorf("hover(%q) = nil", tc.word)
			continue
		}
		text := h.Contents.(protocol.MarkupContent).Value
		for _, w := range tc.want {
			if !strings.Contains(text, w) {
				t.Errorf("hover(%q) = %q, want it to contain %q", tc.word, text, w)
			}
		}
	}

	if h := hover(res, "inconnu", 16); h != nil {
		t.Errorf("hover(inconnu) = %v, want nil", h)
	}
	if h := hover(res, "tmp", 16); h != nil {
		t.Error("locals must not be visible from the main body")
	}
	if h := hover(nil, "somme", 1); h != nil {
		t.Error("hover without analysis should be nil")
	}
}

func TestComplete(t *testing.T) {
	res := compileForTest(t, lspSource)

	labels := func(items []protocol.CompletionItem) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Label)
		}
		return out
	}

	got := labels(complete(res, "so"))
	if len(got) != 1 || got[0] != "somme" {
		t.Errorf("complete(so) = %v, want [somme]", got)
	}

	got = labels(complete(res, "t"))
	for _, want := range []string{"tmp", "total", "taille", "TantQue", "Tableau"} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("complete(t) = %v, missing %q", got, want)
		}
	}

	got = labels(complete(nil, "ecr"))
	if len(got) != 1 || got[0] != "Ecrire" {
		t.Errorf("complete(ecr) without analysis = %v, want [Ecrire]", got)
	}
}

func TestDefinition(t *testing.T) {
	res := compileForTest(t, lspSource)
	tests := []struct {
		word      string
		line      int
		wantLine  int
		wantFound bool
	}{
		{"somme", 16, 6, true},
		{"ajouter", 16, 8, true},
		{"tmp", 12, 9, true},
		{"Point", 7, 1, true},
		{"nulle", 16, 0, false},
	}
	for _, tc := range tests {
		pos, found := definition(res, tc.word, tc.line)
		if found != tc.wantFound {
			t.Errorf("definition(%q) found = %v, want %v", tc.word, found, tc.wantFound)
			continue
		}
		if found && pos.Line != tc.wantLine {
			t.Errorf("definition(%q) line = %d, want %d", tc.word, pos.Line, tc.wantLine)
		}
	}
}

func TestToProtocolDiagnostics(t *testing.T) {
	src := "Algorithme A;\nVar x : Entier;\nDebut\n    x := y;\nFin"
	_, diags := compiler.Compile(src)
	got := toProtocolDiagnostics(src, diags)
	if len(got) != len(diags) || len(got) < 2 {
		t.Fatalf("got %d diagnostics, want %d (at least 2)", len(got), len(diags))
	}

	var undeclared, eof *protocol.Diagnostic
	for i, d := range diags {
		switch d.Code {
		case compiler.CodeUndeclared:
			undeclared = &got[i]
		case compiler.CodeSyntaxEOF:
			eof = &got[i]
		}
	}
	if undeclared == nil || eof == nil {
		t.Fatalf("got %v, want E3.5 and E2.2", diags)
	}
	if undeclared.Range.Start.Line != 3 || undeclared.Range.Start.Character != 9 {
		t.Errorf("undeclared variable at %d:%d, want 3:9", undeclared.Range.Start.Line, undeclared.Range.Start.Character)
	}
	if undeclared.Code == nil || undeclared.Code.Value != compiler.CodeUndeclared {
		t.Errorf("code = %v, want %s", undeclared.Code, compiler.CodeUndeclared)
	}
	if eof.Range.Start.Line != 4 {
		t.Errorf("end-of-input diagnostic on line %d, want 4", eof.Range.Start.Line)
	}

	if empty := toProtocolDiagnostics("", nil); empty == nil || len(empty) != 0 {
		t.Errorf("no diagnostics should give an empty, non-nil list, got %#v", empty)
	}
}

func TestWorkerCompile(t *testing.T) {
	w := NewWorker(compiler.DefaultOptions)
	defer w.Stop()

	res, diags, err := w.Compile(lspSource)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(diags) != 0 || res.Program.Name != "Demo" {
		t.Errorf("got %v / %q", diags, res.Program.Name)
	}

	_, diags, err = w.Compile("Algorithme ;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(diags) == 0 {
		t.Error("expected diagnostics for a broken program")
	}
}

func TestWorkerStopped(t *testing.T) {
	w := NewWorker(compiler.DefaultOptions)
	w.Stop()
	if _, _, err := w.Compile(lspSource); err == nil {
		t.Error("expected an error from a stopped worker")
	}
}

func TestWorkerStopTwice(t *testing.T) {
	w := NewWorker(compiler.DefaultOptions)
	w.Stop()
	w.Stop()
}
