package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Snapshots: what the learner sees at each step
// ---------------------------------------------------------------------------

// Snapshot event kinds.
const (
	EventLine   = "line"
	EventReturn = "return"
)

// VarView is one row of the variables panel.
type VarView struct {
	Name    string `json:"name" cbor:"name"`
	Label   string `json:"label,omitempty" cbor:"label,omitempty"`
	Value   string `json:"value" cbor:"value"`
	Address string `json:"address" cbor:"address"`
	Type    string `json:"type" cbor:"type"`
	Size    int    `json:"size" cbor:"size"`
}

// Snapshot is the visible state before a statement executes (event
// "line") or as a subprogram returns (event "return").
type Snapshot struct {
	Line      int       `json:"line" cbor:"line"`
	Event     string    `json:"event" cbor:"event"`
	Variables []VarView `json:"variables" cbor:"variables"`
	Output    string    `json:"output" cbor:"output"`
}

// Lookup returns the row with the given name.
func (s *Snapshot) Lookup(name string) (VarView, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VarView{}, false
}

func (m *Machine) snapshot(line int, event string) *Snapshot {
	snap := &Snapshot{Line: line, Event: event, Output: m.output.String()}
	for _, name := range m.globals.order {
		b := m.globals.binds[name]
		if b.konst {
			continue
		}
		if m.frame != m.globals {
			if _, shadowed := m.frame.binds[name]; shadowed {
				continue
			}
		}
		snap.Variables = append(snap.Variables, m.view(name, b))
	}
	if m.frame != m.globals && m.frame.fn != nil {
		for _, name := range m.frame.order {
			if b := m.frame.binds[name]; !b.konst {
				snap.Variables = append(snap.Variables, m.view(m.frame.fn.Name+"."+name, b))
			}
		}
	}
	for _, b := range m.heap.Blocks() {
		snap.Variables = append(snap.Variables, m.heapView(b))
	}
	return snap
}

func (m *Machine) view(name string, b *binding) VarView {
	v := VarView{
		Name:    name,
		Address: fmt.Sprintf("@%d", b.place.Addr),
		Type:    b.typ.Display(),
		Size:    m.reg.SizeOf(b.typ),
	}
	v.Value = m.safeFormat(b.place)
	return v
}

// safeFormat renders a cell; a by-reference binding whose storage was
// freed shows the fault instead of aborting the snapshot.
func (m *Machine) safeFormat(pl Place) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = "?"
		}
	}()
	return Format(pl.load())
}

func (m *Machine) heapView(b *Block) VarView {
	v := VarView{
		Name:    fmt.Sprintf("heap_%d", b.Addr),
		Label:   "Allocated space",
		Address: fmt.Sprintf("@%d", b.Addr),
		Size:    b.Size,
	}
	cells := b.Cells()
	elem := b.Elem
	switch {
	case elem.Kind == KindRecord && len(cells) == 1:
		v.Label = "Enregistrement alloue"
		v.Type = elem.Record
		if r, ok := cells[0].(*Record); ok {
			v.Value = formatRecord(r, 4)
		}
	case elem.Kind == KindChar:
		v.Type = "Tableau (Caractere)"
		v.Value = formatCells(cells)
	case len(cells) == 1:
		v.Type = fmt.Sprintf("Valeur (%s)", elem)
		v.Value = Format(cells[0])
	default:
		v.Type = fmt.Sprintf("Tableau (%s)", elem)
		v.Value = formatCells(cells)
	}
	return v
}

func formatCells(cells []Value) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if r, ok := c.(*Record); ok {
			parts[i] = formatRecord(r, 4)
			continue
		}
		parts[i] = Format(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
