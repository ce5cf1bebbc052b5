package worker

import (
	"math"
	"sort"

	"layerscope/internal/model"
)

// Analyzer computes aggregate statistics over parsed layers.
type Analyzer struct {
	opts model.Options
}

func NewAnalyzer(opts model.Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// speedSet collects distinct feed rates per move kind.
type speedSet struct {
	extrude, move, retract map[float64]bool
}

func newSpeedSet() *speedSet {
	return &speedSet{
		extrude: make(map[float64]bool),
		move:    make(map[float64]bool),
		retract: make(map[float64]bool),
	}
}

func (s *speedSet) add(c model.Command) {
	if c.Speed <= 0 {
		return
	}
	switch {
	case c.Extrude:
		s.extrude[c.Speed] = true
	case c.Retract != 0:
		s.retract[c.Speed] = true
	default:
		s.move[c.Speed] = true
	}
}

func (s *speedSet) table() model.SpeedTable {
	return model.SpeedTable{
		Extrude: sortedKeys(s.extrude),
		Move:    sortedKeys(s.move),
		Retract: sortedKeys(s.retract),
	}
}

func sortedKeys(m map[float64]bool) []float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// Analyze walks every command once. heights is parallel to layers and
// keys the per-layer tables.
func (a *Analyzer) Analyze(layers [][]model.Command, heights []model.Height) model.Stats {
	stats := model.Stats{
		FilamentByLayer:  make(map[model.Height]float64),
		SpeedsByLayer:    make(map[model.Height]model.SpeedTable),
		PrintTimeByLayer: make(map[model.Height]float64),
	}

	global := newSpeedSet()
	bb := model.BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}
	seen := false

	for i, cmds := range layers {
		var z model.Height
		if i < len(heights) {
			z = heights[i]
		}
		local := newSpeedSet()

		for _, c := range cmds {
			global.add(c)
			local.add(c)

			t := moveTime(c)
			stats.PrintTime += t
			stats.PrintTimeByLayer[z] += t

			if !c.Extrude {
				continue
			}
			stats.TotalFilament += c.E
			stats.FilamentByLayer[z] += c.E

			if a.opts.IgnoreOutsideBed && !a.insideBed(c.X, c.Y) {
				continue
			}
			seen = true
			bb.MinX = math.Min(bb.MinX, math.Min(c.PrevX, c.X))
			bb.MaxX = math.Max(bb.MaxX, math.Max(c.PrevX, c.X))
			bb.MinY = math.Min(bb.MinY, math.Min(c.PrevY, c.Y))
			bb.MaxY = math.Max(bb.MaxY, math.Max(c.PrevY, c.Y))
			bb.MinZ = math.Min(bb.MinZ, c.Z)
			bb.MaxZ = math.Max(bb.MaxZ, c.Z)
		}

		if t := local.table(); !t.Empty() {
			stats.SpeedsByLayer[z] = t
		}
	}

	if !seen {
		bb = model.BoundingBox{}
	}
	stats.BoundingBox = bb
	stats.Min = model.Vec3{X: bb.MinX, Y: bb.MinY, Z: bb.MinZ}
	stats.Max = model.Vec3{X: bb.MaxX, Y: bb.MaxY, Z: bb.MaxZ}
	stats.ModelSize = model.Vec3{X: bb.MaxX - bb.MinX, Y: bb.MaxY - bb.MinY, Z: bb.MaxZ - bb.MinZ}
	stats.Speeds = global.table()
	return stats
}

// moveTime estimates seconds for a command at its feed rate (mm/min).
func moveTime(c model.Command) float64 {
	if c.Speed <= 0 {
		return 0
	}
	dist := math.Sqrt(sq(c.X-c.PrevX) + sq(c.Y-c.PrevY) + sq(c.Z-c.PrevZ))
	if dist == 0 {
		dist = math.Abs(c.E)
	}
	return dist / (c.Speed / 60)
}

func sq(v float64) float64 { return v * v }

func (a *Analyzer) insideBed(x, y float64) bool {
	bed := a.opts.Bed
	if bed.Circular {
		if bed.R <= 0 {
			return true
		}
		cx, cy := 0.0, 0.0
		if !bed.CenteredOrigin {
			cx, cy = bed.R, bed.R
		}
		return math.Hypot(x-cx, y-cy) <= bed.R
	}
	if bed.X <= 0 || bed.Y <= 0 {
		return true
	}
	if bed.CenteredOrigin {
		return math.Abs(x) <= bed.X/2 && math.Abs(y) <= bed.Y/2
	}
	return x >= 0 && x <= bed.X && y >= 0 && y <= bed.Y
}
