package vm

import "fmt"

// ---------------------------------------------------------------------------
// Pointer: a position inside a Container
// ---------------------------------------------------------------------------

// Pointer addresses cell Offset of Target. Base and Stride map the cell to
// the simulated address space; Heap tags pointers into heap blocks.
// The zero Pointer is NIL.
type Pointer struct {
	Target Container
	Offset int
	Base   int
	Stride int
	Heap   int
}

// IsNil reports whether p is NIL: no target and no heap tag.
func (p Pointer) IsNil() bool {
	return p.Target == nil && p.Heap == 0
}

// Addr returns the simulated address p points at.
func (p Pointer) Addr() int {
	stride := p.Stride
	if stride <= 0 {
		stride = 1
	}
	return p.Base + p.Offset*stride
}

func (p Pointer) String() string {
	if p.IsNil() {
		return "NIL"
	}
	return fmt.Sprintf("@%d", p.Addr())
}

// Add performs pointer arithmetic; the result shares storage with p.
func (p Pointer) Add(n int) Pointer {
	p.Offset += n
	return p
}

// Clone returns a copy sharing the same target. Used for by-value
// pointer parameters so callee arithmetic stays local.
func (p Pointer) Clone() Pointer {
	return p
}

// Equal: both NIL, same heap address and offset, or same storage and offset.
func (p Pointer) Equal(o Pointer) bool {
	if p.IsNil() || o.IsNil() {
		return p.IsNil() && o.IsNil()
	}
	if p.Heap != 0 && o.Heap != 0 {
		return p.Addr() == o.Addr()
	}
	return p.Target == o.Target && p.Offset == o.Offset
}

// Resolve checks that p can be dereferenced and returns its target cell.
func (p Pointer) Resolve() (Container, int) {
	if p.Target == nil {
		if p.Heap != 0 {
			fault(ErrUseAfterFree, "")
		}
		fault(ErrNilPointer, "")
	}
	if b, ok := p.Target.(*Block); ok && b.Freed() {
		fault(ErrUseAfterFree, "")
	}
	if _, ok := p.Target.(*FixedString); ok {
		return p.Target, p.Offset
	}
	if p.Offset < 0 || p.Offset >= p.Target.Len() {
		fault(ErrIndex, "")
	}
	return p.Target, p.Offset
}

// Deref loads the value p points at.
func (p Pointer) Deref() Value {
	c, i := p.Resolve()
	return c.Load(i)
}

// Store writes v through p.
func (p Pointer) Store(v Value) {
	c, i := p.Resolve()
	storeCell(c, i, v)
}

// StoreString writes s through a character pointer: the characters land in
// consecutive cells followed by a terminator, truncated to the storage.
func (p Pointer) StoreString(s string) {
	c, i := p.Resolve()
	if fs, ok := c.(*FixedString); ok {
		fs.AssignAt(i, s)
		return
	}
	if _, isChar := c.Load(i).(Char); !isChar {
		storeCell(c, i, Str(s))
		return
	}
	r := []rune(cutTerminator(s))
	n := c.Len() - i
	if len(r) > n-1 {
		r = r[:n-1]
	}
	for k, ch := range r {
		c.Store(i+k, Char(ch))
	}
	c.Store(i+len(r), Char(Terminator))
}
