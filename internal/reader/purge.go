package reader

import (
	"sort"

	"layerscope/internal/model"
)

// Purge returns a dense copy of m holding only layers with at least one
// extruding command, in their original order. m is not modified.
func Purge(m *model.Layers) *model.Layers {
	out, _ := purge(m)
	return out
}

// purge also returns, for every kept slot, the layer number it came from.
func purge(m *model.Layers) (*model.Layers, []int) {
	out := &model.Layers{}
	var kept []int
	for i := 0; i < m.Len(); i++ {
		cmds, ok := m.Layer(i)
		if !ok || !extrudes(cmds) {
			continue
		}
		out.Set(len(kept), cmds)
		kept = append(kept, i)
	}
	return out, kept
}

func extrudes(cmds []model.Command) bool {
	for _, c := range cmds {
		if c.Extrude {
			return true
		}
	}
	return false
}

// SortByHeight returns a dense copy of m with present layers ordered by
// ascending height. heightOf is keyed by slot in m; layers without a
// known height keep their relative order after all known ones. Absent
// slots are dropped.
func SortByHeight(m *model.Layers, heightOf map[int]model.Height) *model.Layers {
	var slots []int
	for i := 0; i < m.Len(); i++ {
		if m.Present(i) {
			slots = append(slots, i)
		}
	}
	sort.SliceStable(slots, func(a, b int) bool {
		za, aok := heightOf[slots[a]]
		zb, bok := heightOf[slots[b]]
		if aok != bok {
			return aok
		}
		return aok && za < zb
	})

	out := &model.Layers{}
	for i, s := range slots {
		cmds, _ := m.Layer(s)
		out.Set(i, cmds)
	}
	return out
}
