package model

// Layers is a sparse, layer-indexed command store. A slot is either
// absent (never populated) or present; a present slot may be empty.
type Layers struct {
	slots   [][]Command
	present []bool
}

// NewLayers returns a dense model where every given layer is present.
func NewLayers(layers ...[]Command) *Layers {
	l := &Layers{}
	for i, cmds := range layers {
		l.Set(i, cmds)
	}
	return l
}

// Len is one past the highest layer number ever set.
func (l *Layers) Len() int {
	if l == nil {
		return 0
	}
	return len(l.slots)
}

// Set stores cmds at layer n, growing the model as needed. A nil cmds
// still marks the slot present (and empty).
func (l *Layers) Set(n int, cmds []Command) {
	if n < 0 {
		return
	}
	for len(l.slots) <= n {
		l.slots = append(l.slots, nil)
		l.present = append(l.present, false)
	}
	l.slots[n] = cmds
	l.present[n] = true
}

// Layer returns the commands of layer n and whether the slot is present.
func (l *Layers) Layer(n int) ([]Command, bool) {
	if l == nil || n < 0 || n >= len(l.slots) {
		return nil, false
	}
	return l.slots[n], l.present[n]
}

// Present reports whether layer n was ever populated.
func (l *Layers) Present(n int) bool {
	_, ok := l.Layer(n)
	return ok
}

// Count returns the number of present layers.
func (l *Layers) Count() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, p := range l.present {
		if p {
			n++
		}
	}
	return n
}

// Commands returns the total number of commands across all layers.
func (l *Layers) Commands() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, cmds := range l.slots {
		n += len(cmds)
	}
	return n
}

// Equal reports whether both models have the same slots and commands.
func (l *Layers) Equal(o *Layers) bool {
	if l.Len() != o.Len() {
		return false
	}
	for i := 0; i < l.Len(); i++ {
		a, aok := l.Layer(i)
		b, bok := o.Layer(i)
		if aok != bok || len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}
