package reader

import "layerscope/internal/model"

// BuildRanges computes the percentage range of every slot in m. A layer
// spans from its first command to the first command of the next non-empty
// layer, or to 100 when no later layer has commands. Layers without
// commands, trailing ones included, get model.InvalidRange.
func BuildRanges(m *model.Layers) []model.Range {
	n := m.Len()
	if n == 0 {
		return nil
	}

	result := make([]model.Range, n)
	for i := 0; i < n-1; i++ {
		cmds, _ := m.Layer(i)
		if len(cmds) == 0 {
			result[i] = model.InvalidRange
			continue
		}
		start := cmds[0].Percentage

		end := 100.0
		for j := i + 1; j < n; j++ {
			if next, _ := m.Layer(j); len(next) > 0 {
				end = next[0].Percentage
				break
			}
		}

		result[i] = model.Range{Start: start, End: end}
	}

	if last, _ := m.Layer(n - 1); len(last) > 0 {
		result[n-1] = model.Range{Start: last[0].Percentage, End: 100}
	} else {
		result[n-1] = model.InvalidRange
	}
	return result
}
