package reader

import "layerscope/internal/model"

// ProcessAnalysis replaces the aggregate statistics wholesale.
func (r *Reader) ProcessAnalysis(msg model.AnalysisMsg) bool {
	if !r.current(msg) {
		return false
	}
	r.stats = msg.Stats
	r.hasStats = true
	return true
}

// ModelInfo returns the last analysis. ok is false before any analysis
// has arrived, in which case every field is zero.
func (r *Reader) ModelInfo() (model.Stats, bool) {
	return r.stats, r.hasStats
}

// LayerFilament returns the filament used by the layer at height z.
func (r *Reader) LayerFilament(z model.Height) (float64, bool) {
	v, ok := r.stats.FilamentByLayer[z]
	return v, ok
}

// LayerSpeeds returns the speed table of the layer at height z, or an
// empty table for unknown heights.
func (r *Reader) LayerSpeeds(z model.Height) model.SpeedTable {
	return r.stats.SpeedsByLayer[z]
}

// LayerPrintTime returns the estimated seconds spent on the layer at
// height z.
func (r *Reader) LayerPrintTime(z model.Height) (float64, bool) {
	v, ok := r.stats.PrintTimeByLayer[z]
	return v, ok
}

// VisibleHeight returns the height of a visible layer, taken from its
// first extruding command.
func (r *Reader) VisibleHeight(layer int) (model.Height, bool) {
	cmds, _ := r.visible.Layer(layer)
	for _, c := range cmds {
		if c.Extrude {
			return model.Height(c.Z), true
		}
	}
	if len(cmds) > 0 {
		return model.Height(cmds[0].Z), true
	}
	return 0, false
}
