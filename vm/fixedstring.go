package vm

import "strings"

// ---------------------------------------------------------------------------
// FixedString: capacity-bounded character slots
// ---------------------------------------------------------------------------

const (
	// Terminator is the #0 sentinel ending a string.
	Terminator rune = 0
	// Empty marks a slot that was never written or was cleared.
	Empty rune = -1
)

// MaxStringSize bounds strings built at runtime without a declared capacity.
const MaxStringSize = 256

// FixedString is a Chaine[N]. Its logical length is the index of the first
// terminator (or empty slot), or the capacity when there is none.
type FixedString struct {
	slots []rune
}

// NewFixedString creates an empty string of the given capacity.
func NewFixedString(capacity int) *FixedString {
	fs := &FixedString{slots: make([]rune, capacity)}
	for i := range fs.slots {
		fs.slots[i] = Empty
	}
	if capacity > 0 {
		fs.slots[0] = Terminator
	}
	return fs
}

// MakeString builds a fresh string holding s, sized MaxStringSize.
func MakeString(s string) *FixedString {
	fs := NewFixedString(MaxStringSize)
	fs.Assign(s)
	return fs
}

// Cap returns the slot capacity.
func (fs *FixedString) Cap() int { return len(fs.slots) }

// Len is the Container length: the capacity.
func (fs *FixedString) Len() int { return len(fs.slots) }

// Load reads one slot; empty slots read as the terminator.
func (fs *FixedString) Load(i int) Value { return fs.GetChar(i) }

// Store writes one slot.
func (fs *FixedString) Store(i int, v Value) {
	switch c := v.(type) {
	case Char:
		fs.SetChar(i, rune(c))
	case Str:
		r := []rune(string(c))
		if len(r) == 0 {
			fs.SetChar(i, Terminator)
		} else {
			fs.SetChar(i, r[0])
		}
	}
}

// Length is the number of characters before the first terminator.
func (fs *FixedString) Length() int {
	for i, r := range fs.slots {
		if r == Terminator || r == Empty {
			return i
		}
	}
	return len(fs.slots)
}

// String returns the characters before the first terminator.
func (fs *FixedString) String() string {
	return fs.StringFrom(0)
}

// StringFrom returns the characters from offset up to the first terminator.
func (fs *FixedString) StringFrom(offset int) string {
	if offset < 0 || offset >= len(fs.slots) {
		return ""
	}
	var sb strings.Builder
	for _, r := range fs.slots[offset:] {
		if r == Terminator || r == Empty {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Assign stores s truncated to capacity-1 characters, writes one terminator
// and clears every slot after it.
func (fs *FixedString) Assign(s string) {
	fs.AssignAt(0, s)
}

// AssignAt is Assign starting at offset, used when storing through a
// pointer into the middle of a string.
func (fs *FixedString) AssignAt(offset int, s string) {
	limit := len(fs.slots) - offset
	if limit <= 0 || offset < 0 {
		return
	}
	r := []rune(cutTerminator(s))
	if len(r) > limit-1 {
		r = r[:limit-1]
	}
	copy(fs.slots[offset:], r)
	end := offset + len(r)
	fs.slots[end] = Terminator
	for i := end + 1; i < len(fs.slots); i++ {
		fs.slots[i] = Empty
	}
}

// GetChar returns the character at i; out-of-range reads and empty slots
// return the terminator.
func (fs *FixedString) GetChar(i int) Char {
	if i < 0 || i >= len(fs.slots) || fs.slots[i] == Empty {
		return Char(Terminator)
	}
	return Char(fs.slots[i])
}

// SetChar writes c at i. Out-of-range writes are ignored.
func (fs *FixedString) SetChar(i int, c rune) {
	if i < 0 || i >= len(fs.slots) {
		return
	}
	if c == Empty {
		c = Terminator
	}
	fs.slots[i] = c
}

// Clone returns an independent copy.
func (fs *FixedString) Clone() *FixedString {
	out := &FixedString{slots: make([]rune, len(fs.slots))}
	copy(out.slots, fs.slots)
	return out
}

// Slots exposes the raw slots (Terminator / Empty aware) for inspection.
func (fs *FixedString) Slots() []rune {
	out := make([]rune, len(fs.slots))
	copy(out, fs.slots)
	return out
}

// ---------------------------------------------------------------------------
// String coercions
// ---------------------------------------------------------------------------

// DisplayString converts any string-like value to text, stopping at the
// terminator. Pointers into strings read from their offset.
func DisplayString(v Value) string {
	switch x := v.(type) {
	case *FixedString:
		return x.String()
	case Str:
		return cutTerminator(string(x))
	case Char:
		return Format(x)
	case Pointer:
		if fs, ok := x.Target.(*FixedString); ok {
			return fs.StringFrom(x.Offset)
		}
		if b, ok := x.Target.(*Block); ok && !b.Freed() && x.Offset >= 0 && x.Offset < b.Len() {
			if _, isChar := b.Load(x.Offset).(Char); isChar {
				var sb strings.Builder
				for i := x.Offset; i < b.Len(); i++ {
					c, _ := b.Load(i).(Char)
					if rune(c) == Terminator || rune(c) == Empty {
						break
					}
					sb.WriteRune(rune(c))
				}
				return sb.String()
			}
			if s, isStr := b.Load(x.Offset).(Str); isStr {
				return DisplayString(s)
			}
		}
	}
	return Format(v)
}

// Concat joins two string-like values, each cut at its terminator.
func Concat(a, b Value) Str {
	return Str(DisplayString(a) + DisplayString(b))
}

// Longueur returns the logical length of a string-like value.
func Longueur(v Value) int {
	if fs, ok := v.(*FixedString); ok {
		return fs.Length()
	}
	return len([]rune(DisplayString(v)))
}
