package vm

import "sort"

// ---------------------------------------------------------------------------
// Heap: bump-allocated simulated dynamic memory
// ---------------------------------------------------------------------------

// DefaultHeapBase is the first heap address.
const DefaultHeapBase = 50000

// Block is one allocation: a run of default-initialized cells of Elem.
type Block struct {
	Addr  int
	Size  int // bytes requested
	Elem  *Type
	cells []Value
	freed bool
}

func (b *Block) Len() int { return len(b.cells) }

func (b *Block) Load(i int) Value {
	if b.freed {
		fault(ErrUseAfterFree, "")
	}
	return b.cells[i]
}

func (b *Block) Store(i int, v Value) {
	if b.freed {
		fault(ErrUseAfterFree, "")
	}
	b.cells[i] = v
}

// Freed reports whether the block was released.
func (b *Block) Freed() bool { return b.freed }

// Cells returns the live cells for inspection.
func (b *Block) Cells() []Value { return b.cells }

// Heap hands out monotonically increasing addresses. Addresses are never
// reused within a run.
type Heap struct {
	reg    *RecordRegistry
	next   int
	limit  int // live byte budget, 0 for unlimited
	live   int
	blocks map[int]*Block
}

// NewHeap creates a heap starting at base with a live-byte budget.
func NewHeap(reg *RecordRegistry, base, limit int) *Heap {
	if base <= 0 {
		base = DefaultHeapBase
	}
	return &Heap{
		reg:    reg,
		next:   base,
		limit:  limit,
		blocks: make(map[int]*Block),
	}
}

// Alloc reserves size bytes holding cells of elem and returns a pointer to
// the first cell. The block gets max(1, size/sizeof(elem)) cells.
func (h *Heap) Alloc(size int, elem *Type) Pointer {
	if size < 1 {
		size = 1
	}
	if h.limit > 0 && h.live+size > h.limit {
		fault(ErrMemory, "")
	}
	if elem == nil {
		elem = IntType
	}
	stride := h.reg.SizeOf(elem)
	if stride < 1 {
		stride = 1
	}
	n := size / stride
	if n < 1 {
		n = 1
	}
	b := &Block{Addr: h.next, Size: size, Elem: elem, cells: make([]Value, n)}
	for i := range b.cells {
		b.cells[i] = Zero(elem, h.reg)
	}
	h.blocks[b.Addr] = b
	h.next += size
	h.live += size
	return Pointer{Target: b, Base: b.Addr, Stride: stride, Heap: b.Addr}
}

// Free releases the block p points into. Freeing NIL does nothing; a
// second free or a pointer to non-heap storage faults.
func (h *Heap) Free(p Pointer) {
	if p.IsNil() {
		return
	}
	b, ok := p.Target.(*Block)
	if !ok {
		fault(ErrTypeMismatch, "Liberer attend un pointeur vers un espace alloué (%s).", p)
	}
	if b.freed {
		fault(ErrUseAfterFree, "double libération de %s", p)
	}
	b.freed = true
	h.live -= b.Size
	delete(h.blocks, b.Addr)
}

// Blocks returns the live blocks ordered by address.
func (h *Heap) Blocks() []*Block {
	out := make([]*Block, 0, len(h.blocks))
	for _, b := range h.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Live returns the number of bytes currently allocated.
func (h *Heap) Live() int { return h.live }

// Next returns the address the next allocation will receive.
func (h *Heap) Next() int { return h.next }
