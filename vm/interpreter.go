package vm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("algo.vm")

// ---------------------------------------------------------------------------
// Machine: tree-walking interpreter paused at statement boundaries
// ---------------------------------------------------------------------------

// Limits bound a single run.
type Limits struct {
	MaxSteps     int // statements and loop tests executed
	MaxDepth     int // nested subprogram calls
	MaxHeapBytes int // live heap bytes
}

// DefaultLimits are used when a field of Limits is zero.
var DefaultLimits = Limits{
	MaxSteps:     1000000,
	MaxDepth:     500,
	MaxHeapBytes: 1 << 20,
}

func (l Limits) withDefaults() Limits {
	if l.MaxSteps <= 0 {
		l.MaxSteps = DefaultLimits.MaxSteps
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLimits.MaxDepth
	}
	if l.MaxHeapBytes <= 0 {
		l.MaxHeapBytes = DefaultLimits.MaxHeapBytes
	}
	return l
}

// Options configure a Machine.
type Options struct {
	Limits Limits
	IO     IO
	// OnStep receives every snapshot. Nil disables tracing. Returning an
	// error stops the run.
	OnStep func(*Snapshot) error
}

// Machine executes one Program once.
type Machine struct {
	prog    *Program
	reg     *RecordRegistry
	heap    *Heap
	limits  Limits
	io      IO
	onStep  func(*Snapshot) error
	ctx     context.Context
	stopped atomic.Bool

	globals *frame
	frame   *frame
	depth   int
	steps   int
	line    int
	output  strings.Builder
}

// stopSignal unwinds the interpreter when the host stops the run.
type stopSignal struct{}

// frame holds the bindings of one activation.
type frame struct {
	fn       *Func
	binds    map[string]*binding
	order    []string
	ret      Value
	returned bool
	retLine  int
}

// binding maps a name to a place. By-reference parameters bind the
// caller's place, so their address is the caller's.
type binding struct {
	name  string
	typ   *Type
	place Place
	konst bool
}

// Place is an addressable cell: cell I of container C, at simulated
// address Addr. Stride is the size of one cell for pointer arithmetic.
type Place struct {
	C      Container
	I      int
	Addr   int
	Stride int
	Heap   int
}

func (p Place) load() Value { return p.C.Load(p.I) }

func (p Place) pointer() Pointer {
	return Pointer{Target: p.C, Offset: p.I, Base: p.Addr - p.I*p.Stride, Stride: p.Stride, Heap: p.Heap}
}

func newFrame(fn *Func) *frame {
	return &frame{fn: fn, binds: make(map[string]*binding)}
}

func (f *frame) bind(b *binding) {
	if _, ok := f.binds[b.name]; !ok {
		f.order = append(f.order, b.name)
	}
	f.binds[b.name] = b
}

// NewMachine prepares a run of p.
func NewMachine(p *Program, opts Options) *Machine {
	limits := opts.Limits.withDefaults()
	reg := p.Records
	if reg == nil {
		reg = NewRecordRegistry()
	}
	io := opts.IO
	if io == nil {
		io = NewBufferIO(nil)
	}
	return &Machine{
		prog:   p,
		reg:    reg,
		heap:   NewHeap(reg, p.HeapBase, limits.MaxHeapBytes),
		limits: limits,
		io:     io,
		onStep: opts.OnStep,
	}
}

// Stop requests cooperative cancellation. The run unwinds at the next
// statement, snapshot or output write.
func (m *Machine) Stop() { m.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (m *Machine) Stopped() bool { return m.stopped.Load() }

// Output returns everything written so far.
func (m *Machine) Output() string { return m.output.String() }

// Steps returns the number of steps executed.
func (m *Machine) Steps() int { return m.steps }

// Heap exposes the simulated heap.
func (m *Machine) Heap() *Heap { return m.heap }

// Run executes the program. It returns nil on normal completion,
// ErrStopped when interrupted, or a *RuntimeError.
func (m *Machine) Run(ctx context.Context) (err error) {
	m.ctx = ctx
	defer func() {
		if r := recover(); r != nil {
			err = m.recovered(r)
		}
		log.Debugf("run %q finished after %d steps: %v", m.prog.Name, m.steps, err)
	}()

	m.globals = newFrame(nil)
	for _, v := range m.prog.Globals {
		m.globals.bind(m.declare(v.Name, v.Type, v.Addr, v.Const))
	}
	m.frame = m.globals
	m.execBlock(m.prog.Main)
	return nil
}

func (m *Machine) recovered(r interface{}) error {
	switch e := r.(type) {
	case stopSignal:
		return ErrStopped
	case *RuntimeError:
		if e.Line == 0 {
			e.Line = m.line
		}
		return e
	case irError:
		return &RuntimeError{Kind: ErrInternal, Line: m.line, Detail: string(e)}
	}
	log.Errorf("interpreter panic at line %d: %v", m.line, r)
	return &RuntimeError{Kind: ErrInternal, Line: m.line, Detail: fmt.Sprintf("%v", r)}
}

func (m *Machine) declare(name string, t *Type, addr int, konst Value) *binding {
	slot := &Slot{V: Zero(t, m.reg)}
	if konst != nil {
		storeCell(slot, 0, konst)
	}
	return &binding{
		name:  name,
		typ:   t,
		place: Place{C: slot, Addr: addr, Stride: m.reg.ElemSize(t)},
		konst: konst != nil,
	}
}

// ---------------------------------------------------------------------------
// Steps and cancellation
// ---------------------------------------------------------------------------

func (m *Machine) checkAlive() {
	if m.stopped.Load() {
		panic(stopSignal{})
	}
	if m.ctx != nil && m.ctx.Err() != nil {
		m.stopped.Store(true)
		panic(stopSignal{})
	}
}

// step is called before every statement and loop test.
func (m *Machine) step(line int) {
	m.checkAlive()
	m.steps++
	m.line = line
	if m.steps > m.limits.MaxSteps {
		fault(ErrInfiniteLoop, "")
	}
	m.emit(line, EventLine)
}

func (m *Machine) emit(line int, event string) {
	if m.onStep == nil {
		return
	}
	if err := m.onStep(m.snapshot(line, event)); err != nil {
		m.stopped.Store(true)
		panic(stopSignal{})
	}
	m.checkAlive()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (m *Machine) execBlock(list []Stmt) {
	for _, s := range list {
		m.exec(s)
		if m.frame.returned {
			return
		}
	}
}

func (m *Machine) exec(s Stmt) {
	switch s := s.(type) {
	case *Assign:
		m.step(s.Line)
		v := m.eval(s.Value)
		m.assign(s.Target, v)
	case *If:
		m.step(s.Line)
		if m.truth(m.eval(s.Cond)) {
			m.execBlock(s.Then)
		} else {
			m.execBlock(s.Else)
		}
	case *While:
		for {
			m.step(s.Line)
			if !m.truth(m.eval(s.Cond)) {
				return
			}
			m.execBlock(s.Body)
			if m.frame.returned {
				return
			}
		}
	case *Repeat:
		for {
			m.execBlock(s.Body)
			if m.frame.returned {
				return
			}
			m.step(s.CondLine)
			if m.truth(m.eval(s.Cond)) {
				return
			}
		}
	case *For:
		m.step(s.Line)
		from := m.toInt(m.eval(s.From))
		to := m.toInt(m.eval(s.To))
		for v := from; v <= to; v++ {
			m.assign(s.Var, Int(v))
			m.execBlock(s.Body)
			if m.frame.returned {
				return
			}
			if v < to {
				m.step(s.Line)
			}
		}
	case *Write:
		m.step(s.Line)
		parts := make([]string, len(s.Args))
		for i, a := range s.Args {
			parts[i] = DisplayString(m.eval(a))
		}
		m.write(strings.Join(parts, " "))
	case *Read:
		m.step(s.Line)
		for i, target := range s.Targets {
			m.assign(target, m.readValue(s.Types[i]))
		}
	case *Return:
		m.step(s.Line)
		if s.Value != nil {
			v := m.eval(s.Value)
			if m.frame.fn != nil && m.frame.fn.Result != nil {
				slot := &Slot{V: Zero(m.frame.fn.Result, m.reg)}
				storeCell(slot, 0, v)
				v = slot.V
			}
			m.frame.ret = v
		}
		m.frame.returned = true
		m.frame.retLine = s.Line
	case *Free:
		m.step(s.Line)
		p, ok := m.eval(s.Ptr).(Pointer)
		if !ok {
			fault(ErrTypeMismatch, "Liberer attend un pointeur.")
		}
		m.heap.Free(p)
	case *CallStmt:
		m.step(s.Line)
		m.call(s.Call)
	default:
		fault(ErrInternal, "unknown statement %T", s)
	}
}

func (m *Machine) write(text string) {
	if text == "" {
		return
	}
	m.checkAlive()
	m.output.WriteString(text)
	if err := m.io.Write(text); err != nil {
		m.stopped.Store(true)
		panic(stopSignal{})
	}
}

func (m *Machine) readValue(t *Type) Value {
	m.checkAlive()
	line, err := m.io.ReadLine(m.ctx)
	if err != nil {
		m.checkAlive()
		fault(ErrEndOfInput, "Fin des données d'entrée: aucune valeur à lire.")
	}
	return ConvertInput(line, t)
}

// ConvertInput converts one input line to a value of type t.
func ConvertInput(line string, t *Type) Value {
	s := strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(s)
	kind := KindString
	if t != nil {
		kind = t.Kind
	}
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			fault(ErrInputMismatch, "Type mismatch: '%s' n'est pas un Entier valide.", s)
		}
		return Int(n)
	case KindReal:
		f, ok := parseReal(trimmed)
		if !ok {
			fault(ErrInputMismatch, "Type mismatch: '%s' n'est pas un Reel valide.", s)
		}
		return Real(f)
	case KindBool:
		switch strings.ToLower(trimmed) {
		case "vrai", "true", "1":
			return Bool(true)
		case "faux", "false", "0":
			return Bool(false)
		}
		fault(ErrInputMismatch, "Type mismatch: '%s' n'est pas un Booleen valide.", s)
	case KindChar:
		r := []rune(s)
		if len(r) == 0 {
			return Char(Terminator)
		}
		return Char(r[0])
	}
	return Str(s)
}

// parseReal accepts a decimal comma as well as a point.
func parseReal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (m *Machine) call(c *Call) Value {
	fn, ok := m.prog.Lookup(c.Name)
	if !ok {
		fault(ErrUndefined, "Sous-programme inconnu: '%s'", c.Name)
	}
	if len(c.Args) != len(fn.Params) {
		fault(ErrTypeMismatch, "'%s' attend %d argument(s), %d fourni(s).", fn.Name, len(fn.Params), len(c.Args))
	}
	if m.depth+1 > m.limits.MaxDepth {
		fault(ErrRecursion, "")
	}

	fr := newFrame(fn)
	for i, prm := range fn.Params {
		if prm.ByRef {
			fr.bind(&binding{name: prm.Name, typ: prm.Type, place: m.placeOrTemp(c.Args[i])})
			continue
		}
		b := m.declare(prm.Name, prm.Type, prm.Addr, nil)
		v := m.eval(c.Args[i])
		switch x := v.(type) {
		case *Array, *Record, *FixedString:
			// aggregates are passed by sharing
			b.place.C.Store(0, x)
		case Pointer:
			if prm.Clone {
				x = x.Clone()
			}
			storeCell(b.place.C, 0, x)
		default:
			storeCell(b.place.C, 0, v)
		}
		fr.bind(b)
	}
	for _, v := range fn.Locals {
		fr.bind(m.declare(v.Name, v.Type, v.Addr, v.Const))
	}

	saved := m.frame
	m.frame = fr
	m.depth++
	func() {
		defer func() {
			m.depth--
		}()
		m.execBlock(fn.Body)
		line := fr.retLine
		if line == 0 {
			line = fn.EndLine
		}
		m.emit(line, EventReturn)
	}()
	m.frame = saved

	if fr.ret != nil {
		return fr.ret
	}
	if fn.Result != nil {
		return Zero(fn.Result, m.reg)
	}
	return Int(0)
}

// placeOrTemp binds a by-reference argument. Non-addressable arguments
// get a fresh temporary cell.
func (m *Machine) placeOrTemp(e Expr) Place {
	switch e.(type) {
	case *VarRef, *Index, *FieldRef, *Deref:
		return m.place(e)
	}
	v := m.eval(e)
	return Place{C: &Slot{V: Copy(v)}, Stride: 1}
}

// ---------------------------------------------------------------------------
// Places
// ---------------------------------------------------------------------------

func (m *Machine) lookup(name string) *binding {
	if b, ok := m.frame.binds[name]; ok {
		return b
	}
	if b, ok := m.globals.binds[name]; ok {
		return b
	}
	fault(ErrUndefined, "Variable non déclarée ou inconnue: '%s'", name)
	return nil
}

func (m *Machine) place(e Expr) Place {
	switch e := e.(type) {
	case *VarRef:
		return m.lookup(e.Name).place
	case *Index:
		base, basePlace, addressable := m.locate(e.X)
		i := m.toInt(m.eval(e.I))
		switch x := base.(type) {
		case *Array:
			if i < 0 || i >= len(x.Cells) {
				fault(ErrIndex, "")
			}
			stride := m.reg.SizeOf(x.Elem)
			start := 0
			heap := 0
			if addressable {
				start, heap = basePlace.Addr, basePlace.Heap
			}
			return Place{C: x, I: i, Addr: start + i*stride, Stride: stride, Heap: heap}
		case *FixedString:
			start := 0
			if addressable {
				start = basePlace.Addr
			}
			return Place{C: x, I: i, Addr: start + i, Stride: 1}
		case Pointer:
			p := x.Add(i)
			c, idx := p.Resolve()
			return Place{C: c, I: idx, Addr: p.Addr(), Stride: p.Stride, Heap: p.Heap}
		}
		fault(ErrTypeMismatch, "Indexation impossible sur une valeur de type %s.", TypeOf(base).Display())
	case *FieldRef:
		base, basePlace, addressable := m.locate(e.X)
		rec, ok := base.(*Record)
		if !ok {
			fault(ErrTypeMismatch, "Accès au champ '%s' sur une valeur qui n'est pas un enregistrement.", e.Name)
		}
		idx, ok := rec.Def.FieldIndex(e.Name)
		if !ok {
			fault(ErrUndefined, "Champ inconnu: '%s'", e.Name)
		}
		f := rec.Def.Fields[idx]
		addr, heap := 0, 0
		if addressable {
			addr, heap = basePlace.Addr+f.Offset, basePlace.Heap
		}
		stride := m.reg.SizeOf(f.Type)
		return Place{C: rec, I: idx, Addr: addr, Stride: stride, Heap: heap}
	case *Deref:
		p := m.pointerOf(m.eval(e.X))
		c, i := p.Resolve()
		return Place{C: c, I: i, Addr: p.Addr(), Stride: p.Stride, Heap: p.Heap}
	}
	fault(ErrInternal, "expression non adressable %T", e)
	return Place{}
}

// locate evaluates e, also returning its place when e is addressable.
func (m *Machine) locate(e Expr) (Value, Place, bool) {
	switch e.(type) {
	case *VarRef, *Index, *FieldRef, *Deref:
		pl := m.place(e)
		return pl.load(), pl, true
	}
	return m.eval(e), Place{}, false
}

func (m *Machine) assign(target Expr, v Value) {
	if ref, ok := target.(*VarRef); ok {
		if b := m.lookup(ref.Name); b.konst {
			fault(ErrTypeMismatch, "Impossible de modifier la constante '%s'.", ref.Name)
		}
	}
	if d, ok := target.(*Deref); ok && d.AsString {
		m.pointerOf(m.eval(d.X)).StoreString(DisplayString(v))
		return
	}
	pl := m.place(target)
	storeCell(pl.C, pl.I, v)
}

// storeCell writes v into cell i of c, coercing to the cell's current
// type: Entier widens into Reel, strings fill fixed strings in place,
// aggregates are deep-copied.
func storeCell(c Container, i int, v Value) {
	if _, ok := c.(*FixedString); ok {
		c.Store(i, v)
		return
	}
	switch old := c.Load(i).(type) {
	case *FixedString:
		old.Assign(DisplayString(v))
		return
	case Real:
		if n, ok := v.(Int); ok {
			c.Store(i, Real(n))
			return
		}
	case Int:
		if r, ok := v.(Real); ok {
			c.Store(i, Int(int64(r)))
			return
		}
	case Char:
		switch s := v.(type) {
		case Str:
			r := []rune(string(s))
			if len(r) == 0 {
				c.Store(i, Char(Terminator))
			} else {
				c.Store(i, Char(r[0]))
			}
			return
		case *FixedString:
			c.Store(i, s.GetChar(0))
			return
		}
	case Str:
		switch v.(type) {
		case *FixedString, Char, Pointer:
			c.Store(i, Str(DisplayString(v)))
			return
		}
	case Pointer:
		if v == nil {
			c.Store(i, Pointer{})
			return
		}
	}
	c.Store(i, Copy(v))
}

func (m *Machine) pointerOf(v Value) Pointer {
	p, ok := v.(Pointer)
	if !ok {
		fault(ErrTypeMismatch, "Déréférencement d'une valeur qui n'est pas un pointeur.")
	}
	return p
}

func (m *Machine) toInt(v Value) int {
	switch x := v.(type) {
	case Int:
		return int(x)
	case Real:
		if float64(x) == float64(int64(x)) {
			return int(x)
		}
	case Char:
		return int(x)
	}
	fault(ErrTypeMismatch, "Valeur entière attendue, obtenu %s.", TypeOf(v).Display())
	return 0
}

func (m *Machine) truth(v Value) bool {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Real:
		return x != 0
	case Pointer:
		return !x.IsNil()
	}
	fault(ErrTypeMismatch, "Condition booléenne attendue, obtenu %s.", TypeOf(v).Display())
	return false
}
