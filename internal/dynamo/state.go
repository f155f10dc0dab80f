package dynamo

import (
	"math"
	"strings"
)

// Symbols is an ordered table of names, each bound to a slot index.
// Variables come first, constants after them.
type Symbols struct {
	names []string
	index map[string]int
}

// NewSymbols builds a symbol table. Names must be unique and non-empty.
func NewSymbols(names ...string) (*Symbols, error) {
	s := &Symbols{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, Invalid("names", "empty name")
		}
		if _, dup := s.index[n]; dup {
			return nil, Invalid("names", "duplicate name %q", n)
		}
		s.index[n] = len(s.names)
		s.names = append(s.names, n)
	}
	return s, nil
}

func (s *Symbols) Lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Symbols) Name(slot int) string { return s.names[slot] }
func (s *Symbols) Len() int             { return len(s.names) }

// Names returns a copy of the names in slot order.
func (s *Symbols) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// State holds the current value of every slot in a symbol table.
// A slot that was never assigned cannot be read.
type State struct {
	syms *Symbols
	vals []float64
	set  []bool
}

func NewState(syms *Symbols) *State {
	return &State{
		syms: syms,
		vals: make([]float64, syms.Len()),
		set:  make([]bool, syms.Len()),
	}
}

func (s *State) Symbols() *Symbols { return s.syms }

// Set assigns a value by name.
func (s *State) Set(name string, v float64) error {
	i, ok := s.syms.Lookup(name)
	if !ok {
		return Invalid(name, "unknown name")
	}
	s.SetSlot(i, v)
	return nil
}

func (s *State) SetSlot(slot int, v float64) {
	s.vals[slot] = v
	s.set[slot] = true
}

// Unset forgets a slot's value.
func (s *State) Unset(slot int) {
	s.vals[slot] = 0
	s.set[slot] = false
}

// Get reads a value by name.
func (s *State) Get(name string) (float64, error) {
	i, ok := s.syms.Lookup(name)
	if !ok {
		return 0, Invalid(name, "unknown name")
	}
	return s.Slot(i)
}

// Slot reads a value by slot. Reading an unassigned slot is a ValidationError.
func (s *State) Slot(slot int) (float64, error) {
	if !s.set[slot] {
		return 0, Invalid(s.syms.names[slot], "no value set")
	}
	return s.vals[slot], nil
}

func (s *State) IsSet(slot int) bool { return s.set[slot] }

// Missing returns the first unassigned name among names, or "".
func (s *State) Missing(names []string) string {
	for _, n := range names {
		i, ok := s.syms.Lookup(n)
		if !ok || !s.set[i] {
			return n
		}
	}
	return ""
}

func (s *State) Clone() *State {
	c := &State{
		syms: s.syms,
		vals: make([]float64, len(s.vals)),
		set:  make([]bool, len(s.set)),
	}
	copy(c.vals, s.vals)
	copy(c.set, s.set)
	return c
}

// CopyFrom overwrites s with the values of o. Both must share a symbol table.
func (s *State) CopyFrom(o *State) {
	copy(s.vals, o.vals)
	copy(s.set, o.set)
}

// Values returns the assigned slots as a name -> value map.
func (s *State) Values() map[string]float64 {
	out := make(map[string]float64, len(s.vals))
	for i, n := range s.syms.names {
		if s.set[i] {
			out[n] = s.vals[i]
		}
	}
	return out
}

func (s *State) IsValid() bool {
	for i, v := range s.vals {
		if s.set[i] && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return false
		}
	}
	return true
}

// Mod is the floored modulo: the result carries the sign of m, so
// Mod(-0.5, 2π) lands in [0, 2π). A zero modulus leaves x unchanged.
func Mod(x, m float64) float64 {
	if m == 0 {
		return x
	}
	r := math.Mod(x, m)
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	// x slightly below zero can round up to exactly m.
	if r == m {
		return 0
	}
	return r
}

// Delta is the shortest signed step from a to b on a circle of
// circumference m, in [-m/2, m/2]. A zero modulus gives b - a.
func Delta(a, b, m float64) float64 {
	d := b - a
	if m == 0 {
		return d
	}
	d = math.Mod(d, m)
	if d > m/2 {
		d -= m
	} else if d < -m/2 {
		d += m
	}
	return d
}
