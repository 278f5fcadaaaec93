package compiler

import (
	"context"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

var log = commonlog.GetLogger("algo.compiler")

// ---------------------------------------------------------------------------
// Compilation entry points
// ---------------------------------------------------------------------------

// Options fix the simulated address space of a compilation.
type Options struct {
	StackBase int // first variable address
	HeapBase  int // first heap address
}

// DefaultStackBase is the address of the first declared variable.
const DefaultStackBase = 1000

// DefaultOptions are used by Compile.
var DefaultOptions = Options{StackBase: DefaultStackBase, HeapBase: vm.DefaultHeapBase}

func (o Options) withDefaults() Options {
	if o.StackBase <= 0 {
		o.StackBase = DefaultStackBase
	}
	if o.HeapBase <= 0 {
		o.HeapBase = vm.DefaultHeapBase
	}
	return o
}

// Result is a compiled program together with the artifacts editors need.
type Result struct {
	Program *vm.Program
	Text    string
	File    *File
	Info    *Info
}

// Session holds the state of one compilation. Nothing is shared between
// sessions, so independent sessions may run concurrently.
type Session struct {
	opts  Options
	diags diagList
}

// NewSession creates a compilation session.
func NewSession(opts Options) *Session {
	return &Session{opts: opts.withDefaults()}
}

// Compile runs every phase over source. A program is produced even when
// diagnostics are reported; it is only meant to run when there are none.
func (s *Session) Compile(source string) (*Result, []Diagnostic) {
	s.diags = nil
	p := NewParser(source)
	file := p.ParseFile()
	s.diags = append(s.diags, p.Diagnostics()...)

	info := NewAnalyzer(s.opts.StackBase, &s.diags).Analyze(file)
	prog := NewGenerator(info, s.opts).Generate(file)

	log.Debugf("compiled %q: %d memory entries, %d subprograms, %d diagnostics",
		prog.Name, len(prog.Memory), len(prog.Funcs), len(s.diags))
	return &Result{Program: prog, Text: prog.Text(), File: file, Info: info}, s.diags
}

// Compile compiles source with the default address space.
func Compile(source string) (*Result, []Diagnostic) {
	return NewSession(DefaultOptions).Compile(source)
}

// Source is one named program text.
type Source struct {
	Name string
	Text string
}

// Unit is the outcome of compiling one Source.
type Unit struct {
	Name        string
	Result      *Result
	Diagnostics []Diagnostic
}

// CompileAll compiles sources in parallel, one session each. Units are
// returned in input order. Only cancellation of ctx produces an error;
// diagnostics are reported per unit.
func CompileAll(ctx context.Context, sources []Source, opts Options) ([]Unit, error) {
	units := make([]Unit, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, diags := NewSession(opts).Compile(src.Text)
			units[i] = Unit{Name: src.Name, Result: res, Diagnostics: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}
