package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "algo-lsp"

var lspLog = commonlog.GetLogger("algo.lsp")

// document is an open editor buffer and its latest analysis.
type document struct {
	text   string
	result *compiler.Result
}

// LspServer publishes compiler diagnostics to editors and answers hover,
// completion and definition requests from the analysis results.
type LspServer struct {
	worker *Worker

	mu   sync.Mutex
	docs map[string]*document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a language server compiling with opts.
func NewLSP(opts compiler.Options) *LspServer {
	s := &LspServer{
		worker:  NewWorker(opts),
		docs:    make(map[string]*document),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves on stdio until the client disconnects.
func (s *LspServer) Run() error {
	defer s.worker.Stop()
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ">"},
	}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.update(ctx, params.TextDocument.URI, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// update recompiles a document and publishes its diagnostics.
func (s *LspServer) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := s.analyze(uri, text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// analyze compiles text, stores the result for uri and returns the
// diagnostics in protocol form.
func (s *LspServer) analyze(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	result, diags, err := s.worker.Compile(text)
	if err != nil {
		lspLog.Errorf("analyze %s: %v", uri, err)
	}

	s.mu.Lock()
	s.docs[string(uri)] = &document{text: text, result: result}
	s.mu.Unlock()

	return toProtocolDiagnostics(text, diags)
}

func (s *LspServer) document(uri protocol.DocumentUri) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[string(uri)]
	return doc, ok
}

// toProtocolDiagnostics converts compiler diagnostics. Problems at the end
// of input are reported on the last line.
func toProtocolDiagnostics(text string, diags []compiler.Diagnostic) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	lastLine := strings.Count(text, "\n")
	severity := protocol.DiagnosticSeverityError
	source := lspName
	for _, d := range diags {
		line := d.Line - 1
		if d.Line == 0 {
			line = lastLine
		}
		col := d.Column - 1
		if col < 0 {
			col = 0
		}
		code := d.Code
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: code},
			Source:   &source,
			Message:  fmt.Sprintf("[%s] %s", d.Category, d.Message),
		})
	}
	return out
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(doc.text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(doc.result, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc.result, word, int(params.Position.Line)+1), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	pos, found := definition(doc.result, word, int(params.Position.Line)+1)
	if !found {
		return nil, nil
	}
	start := protocol.Position{Line: uint32(pos.Line - 1), Character: uint32(pos.Column - 1)}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: protocol.Range{Start: start, End: start},
	}, nil
}

// --- Analysis-backed logic ---

// scopeAt returns the innermost scope for a 1-based line.
func scopeAt(res *compiler.Result, line int) *compiler.Scope {
	for _, f := range res.Info.Funcs {
		span := f.Decl.SpanVal
		if line >= span.Start.Line && line <= span.End.Line {
			return f.Scope
		}
	}
	return res.Info.Global
}

func complete(res *compiler.Result, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(strings.ToLower(label), strings.ToLower(prefix)) {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	if res != nil && res.Info != nil {
		scopes := []*compiler.Scope{res.Info.Global}
		for _, f := range res.Info.Funcs {
			scopes = append(scopes, f.Scope)
			kind := protocol.CompletionItemKindFunction
			add(f.Decl.Name, kind, signature(f))
		}
		for _, sc := range scopes {
			for _, sym := range sc.Symbols() {
				kind := protocol.CompletionItemKindVariable
				if sym.Kind == compiler.SymConst {
					kind = protocol.CompletionItemKindConstant
				}
				add(sym.Name, kind, sym.Type.String())
			}
		}
		for _, def := range res.Info.Records.Defs() {
			add(def.Name, protocol.CompletionItemKindStruct, fmt.Sprintf("Enregistrement (%d octets)", def.Size))
		}
	}
	for _, kw := range compiler.Keywords {
		add(kw, protocol.CompletionItemKindKeyword, "mot-clé")
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func hover(res *compiler.Result, word string, line int) *protocol.Hover {
	if res == nil || res.Info == nil {
		return nil
	}
	text := hoverText(res, word, line)
	if text == "" {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}
}

func hoverText(res *compiler.Result, word string, line int) string {
	var b strings.Builder
	if sym, ok := scopeAt(res, line).Lookup(word); ok {
		describeSymbol(&b, res, sym)
		return b.String()
	}
	if f, ok := res.Info.Func(word); ok {
		fmt.Fprintf(&b, "```\n%s\n```", signature(f))
		if len(f.Writes) > 0 {
			fmt.Fprintf(&b, "\n\nModifie: `%s`", strings.Join(f.Writes, "`, `"))
		}
		return b.String()
	}
	if def, ok := res.Info.Records.Lookup(word); ok {
		fmt.Fprintf(&b, "**%s** : Enregistrement, %d octets\n", def.Name, def.Size)
		for _, fld := range def.Fields {
			fmt.Fprintf(&b, "\n- `%s` : %s (+%d)", fld.Name, fld.Type, fld.Offset)
		}
		return b.String()
	}
	if compiler.IsKeyword(word) {
		return fmt.Sprintf("mot-clé `%s`", word)
	}
	return ""
}

func describeSymbol(b *strings.Builder, res *compiler.Result, sym *compiler.Symbol) {
	switch sym.Kind {
	case compiler.SymConst:
		fmt.Fprintf(b, "**%s** = %s : %s (constante)", sym.Name, vm.Format(sym.Value), sym.Type)
		return
	case compiler.SymParam:
		mode := "par valeur"
		if sym.ByRef {
			mode = "par référence"
		}
		fmt.Fprintf(b, "**%s** : %s (paramètre %s)", sym.Name, sym.Type, mode)
	default:
		fmt.Fprintf(b, "**%s** : %s", sym.Name, sym.Type)
	}
	fmt.Fprintf(b, "\n\nAdresse `@%d`, taille %d octets", sym.Addr, res.Info.Records.SizeOf(sym.Type))
	if !sym.Scope.IsGlobal() {
		fmt.Fprintf(b, ", locale à `%s`", sym.Scope.Name)
	}
}

func definition(res *compiler.Result, word string, line int) (compiler.Position, bool) {
	if res == nil || res.Info == nil {
		return compiler.Position{}, false
	}
	if sym, ok := scopeAt(res, line).Lookup(word); ok {
		return sym.Pos, true
	}
	if f, ok := res.Info.Func(word); ok {
		return f.Decl.SpanVal.Start, true
	}
	for _, d := range res.File.Decls {
		if r, ok := d.(*compiler.RecordDecl); ok && strings.EqualFold(r.Name, word) {
			return r.SpanVal.Start, true
		}
	}
	return compiler.Position{}, false
}

// signature renders a subprogram header.
func signature(f *compiler.FuncInfo) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		prefix := ""
		if p.ByRef {
			prefix = "Var "
		}
		params[i] = fmt.Sprintf("%s%s : %s", prefix, p.Name, p.Type)
	}
	if f.Result != nil {
		return fmt.Sprintf("Fonction %s(%s) : %s", f.Decl.Name, strings.Join(params, "; "), f.Result)
	}
	return fmt.Sprintf("Procedure %s(%s)", f.Decl.Name, strings.Join(params, "; "))
}

// --- Text extraction helpers ---

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// lineRunes returns the runes of the requested line and the cursor
// column clamped to it.
func lineRunes(text string, pos protocol.Position) ([]rune, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return nil, 0, false
	}
	line := []rune(strings.TrimRight(lines[pos.Line], "\r"))
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line, col, true
}

// extractPrefix returns the identifier fragment before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := lineRunes(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	return string(line[start:col])
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := lineRunes(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentRune(line[end]) {
		end++
	}
	return string(line[start:end])
}

func boolPtr(b bool) *bool {
	return &b
}
