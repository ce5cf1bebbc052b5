package model

// Offset is a per-tool XY nozzle offset.
type Offset struct {
	X float64
	Y float64
}

// Bed describes the printable area.
type Bed struct {
	X              float64 // Width of a rectangular bed
	Y              float64 // Depth of a rectangular bed
	R              float64 // Radius of a circular bed
	Circular       bool
	CenteredOrigin bool
}

// Options configures parsing and which layers are visible.
type Options struct {
	SortLayers            bool
	PurgeEmptyLayers      bool
	AnalyzeModel          bool
	ToolOffsets           []Offset
	Bed                   Bed
	IgnoreOutsideBed      bool
	G90InfluencesExtruder bool
	BedZ                  float64
}

// DefaultOptions returns the options a fresh reader starts with.
func DefaultOptions() Options {
	return Options{
		PurgeEmptyLayers: true,
		ToolOffsets:      []Offset{{X: 0, Y: 0}},
	}
}

// OptionsPatch is a partial update. Nil fields are left unchanged.
type OptionsPatch struct {
	SortLayers            *bool
	PurgeEmptyLayers      *bool
	AnalyzeModel          *bool
	ToolOffsets           []Offset
	Bed                   *Bed
	IgnoreOutsideBed      *bool
	G90InfluencesExtruder *bool
	BedZ                  *float64
}

// Apply merges p into o and reports whether any value changed.
func (o *Options) Apply(p OptionsPatch) bool {
	dirty := false
	setBool := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			dirty = true
		}
	}
	setBool(&o.SortLayers, p.SortLayers)
	setBool(&o.PurgeEmptyLayers, p.PurgeEmptyLayers)
	setBool(&o.AnalyzeModel, p.AnalyzeModel)
	setBool(&o.IgnoreOutsideBed, p.IgnoreOutsideBed)
	setBool(&o.G90InfluencesExtruder, p.G90InfluencesExtruder)

	if p.ToolOffsets != nil && !sameOffsets(o.ToolOffsets, p.ToolOffsets) {
		o.ToolOffsets = append([]Offset(nil), p.ToolOffsets...)
		dirty = true
	}
	if p.Bed != nil && o.Bed != *p.Bed {
		o.Bed = *p.Bed
		dirty = true
	}
	if p.BedZ != nil && o.BedZ != *p.BedZ {
		o.BedZ = *p.BedZ
		dirty = true
	}
	return dirty
}

func sameOffsets(a, b []Offset) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
