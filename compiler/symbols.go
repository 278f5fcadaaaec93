package compiler

import (
	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/vm"
)

// ---------------------------------------------------------------------------
// Symbols and scopes
// ---------------------------------------------------------------------------

// SymbolKind classifies a symbol.
type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymParam
	SymConst
)

// Symbol is a declared name with its type and simulated address.
type Symbol struct {
	Name      string
	Qualified string // scope.name for locals, bare name for globals
	Kind      SymbolKind
	Type      *vm.Type
	Addr      int
	ElemSize  int
	Size      int
	ByRef     bool
	Value     vm.Value // constants only
	Pos       Position
	Scope     *Scope
}

// Scope maps names to symbols. Lookups walk innermost to outermost.
type Scope struct {
	Name    string // subprogram name, empty for the global scope
	Parent  *Scope
	symbols map[string]*Symbol
	order   []*Symbol
}

// NewScope creates a scope nested in parent.
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{Name: name, Parent: parent, symbols: make(map[string]*Symbol)}
}

// IsGlobal reports whether s is the outermost scope.
func (s *Scope) IsGlobal() bool { return s.Parent == nil }

// Qualify returns the memory-map name of a symbol declared in s.
func (s *Scope) Qualify(name string) string {
	if s.IsGlobal() {
		return name
	}
	return s.Name + "." + name
}

// Insert adds sym. A redeclaration in the same scope replaces the previous
// symbol in place; it returns true in that case.
func (s *Scope) Insert(sym *Symbol) bool {
	sym.Scope = s
	if old, ok := s.symbols[sym.Name]; ok {
		for i, o := range s.order {
			if o == old {
				s.order[i] = sym
			}
		}
		s.symbols[sym.Name] = sym
		return true
	}
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym)
	return false
}

// LookupLocal finds name in s only.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Lookup finds name in s or an enclosing scope.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Symbols returns the symbols of s in declaration order.
func (s *Scope) Symbols() []*Symbol {
	return s.order
}

// ---------------------------------------------------------------------------
// Memory table: bump allocator for declared storage
// ---------------------------------------------------------------------------

// MemoryTable assigns consecutive simulated addresses to declarations in
// source order, starting at a fixed base.
type MemoryTable struct {
	reg     *vm.RecordRegistry
	next    int
	entries []vm.MemEntry
	index   map[string]int
}

// NewMemoryTable creates an allocator starting at base.
func NewMemoryTable(base int, reg *vm.RecordRegistry) *MemoryTable {
	return &MemoryTable{reg: reg, next: base, index: make(map[string]int)}
}

// Allocate reserves storage for a value of type t under the qualified
// name. Reallocating a name keeps its memory-map row but moves it.
func (m *MemoryTable) Allocate(qualified string, t *vm.Type) vm.MemEntry {
	size := m.reg.SizeOf(t)
	e := vm.MemEntry{
		Name:     qualified,
		Addr:     m.next,
		Type:     t,
		ElemSize: elemSizeOf(m.reg, t),
		Size:     size,
	}
	m.next += size
	if i, ok := m.index[qualified]; ok {
		m.entries[i] = e
	} else {
		m.index[qualified] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return e
}

// Lookup returns the memory-map row of a qualified name.
func (m *MemoryTable) Lookup(qualified string) (vm.MemEntry, bool) {
	i, ok := m.index[qualified]
	if !ok {
		return vm.MemEntry{}, false
	}
	return m.entries[i], true
}

// Entries returns the memory map in allocation order.
func (m *MemoryTable) Entries() []vm.MemEntry {
	return m.entries
}

// Next returns the next free address.
func (m *MemoryTable) Next() int { return m.next }

// elemSizeOf is the size of one element: the innermost element of an
// array, one slot of a string, or the whole value otherwise.
func elemSizeOf(reg *vm.RecordRegistry, t *vm.Type) int {
	b := t.Base()
	if b != nil && b.Kind == vm.KindString {
		return 1
	}
	return reg.SizeOf(b)
}
