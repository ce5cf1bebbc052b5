package reader

import "layerscope/internal/model"

// ProcessLayer stores a single parsed layer, overwriting whatever was at
// that layer number. The height index maps msg.Height.Z to the layer
// named by the height key.
func (r *Reader) ProcessLayer(msg model.LayerMsg) bool {
	if !r.current(msg) {
		return false
	}
	r.loading()
	if msg.LayerNum < 0 {
		r.logger.Printf("reader: ignoring negative layer number %d", msg.LayerNum)
		return true
	}
	r.layers.Set(msg.LayerNum, msg.Cmds)
	r.heights[msg.Height.Z] = msg.Height.Layer
	return true
}

// ProcessLayers stores a batch of layers. Heights is read in parallel with
// LayerNums; a missing height leaves the height index untouched.
func (r *Reader) ProcessLayers(msg model.LayersMsg) bool {
	if !r.current(msg) {
		return false
	}
	r.loading()
	for i, n := range msg.LayerNums {
		if n < 0 {
			r.logger.Printf("reader: ignoring negative layer number %d", n)
			continue
		}
		r.layers.Set(n, msg.Fragment[n])
		if i < len(msg.Heights) {
			r.heights[msg.Heights[i]] = n
		}
	}
	return true
}

func (r *Reader) loading() {
	if r.state == StateEmpty {
		r.state = StateLoading
	}
}
