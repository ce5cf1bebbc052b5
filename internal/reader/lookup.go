package reader

import "layerscope/internal/model"

// CmdIndexForPercentage resolves pct to a coordinate in the visible model.
// A nil pct returns the last resolved coordinate, which keeps playback
// frozen while no live target exists. ok is false when no model has been
// indexed or nothing has been resolved yet.
func (r *Reader) CmdIndexForPercentage(pct *float64) (model.Coordinate, bool) {
	if pct == nil {
		return r.Hold()
	}
	return r.Resolve(*pct)
}

// Hold returns the cached coordinate without searching.
func (r *Reader) Hold() (model.Coordinate, bool) {
	if !r.indexed || !r.hasCursor {
		return model.Coordinate{}, false
	}
	return r.cursor, true
}

// Resolve finds the command being executed when playback is at pct.
// Sentinel or malformed ranges do not fail the search; the result is then
// flagged Approximate.
func (r *Reader) Resolve(pct float64) (model.Coordinate, bool) {
	if !r.indexed || r.visible.Len() == 0 {
		return model.Coordinate{}, false
	}

	layer := searchInLayers(r.ranges, 0, len(r.ranges)-1, pct)
	cmds, _ := r.visible.Layer(layer)
	cmd := searchInCmds(cmds, 0, len(cmds)-1, pct)

	rg := r.ranges[layer]
	exact := rg.Contains(pct) || (layer == len(r.ranges)-1 && rg.Valid() && pct == rg.End)

	r.cursor = model.Coordinate{
		Layer:       layer,
		Command:     cmd,
		Approximate: !exact || len(cmds) == 0,
	}
	r.hasCursor = true
	return r.cursor, true
}

// searchInLayers narrows [lower, upper] to the range containing key. When
// no range brackets key it returns the index the narrowing converged on.
func searchInLayers(ranges []model.Range, lower, upper int, key float64) int {
	for lower < upper {
		middle := (lower + upper) / 2

		if ranges[middle].Contains(key) {
			return middle
		}

		if ranges[middle].Start > key {
			upper = middle - 1
		} else {
			lower = middle + 1
		}
	}
	return lower
}

// searchInCmds returns the command whose percentage equals key, or the
// lower of two neighbours that straddle it.
func searchInCmds(cmds []model.Command, lower, upper int, key float64) int {
	for lower < upper {
		middle := (lower + upper) / 2

		if cmds[middle].Percentage == key ||
			(cmds[middle].Percentage <= key && cmds[middle+1].Percentage > key) {
			return middle
		}

		if cmds[middle].Percentage > key {
			upper = middle - 1
		} else {
			lower = middle + 1
		}
	}
	if lower < 0 {
		return 0
	}
	return lower
}

// GCodeLines returns the source lines of commands from..to of a visible
// layer, for highlighting.
func (r *Reader) GCodeLines(layer, from, to int) (model.LineRange, error) {
	if !r.indexed {
		return model.LineRange{}, ErrNoModel
	}
	cmds, _ := r.visible.Layer(layer)
	if from < 0 || to < 0 || from >= len(cmds) || to >= len(cmds) {
		return model.LineRange{}, ErrLayerOutOfRange
	}
	return model.LineRange{
		First: cmds[from].GcodeLine,
		Last:  cmds[to].GcodeLine,
	}, nil
}
