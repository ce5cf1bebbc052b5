package reader

import (
	"fmt"
	"sort"
	"strings"

	"layerscope/internal/model"
)

// LayerInfo summarises one visible layer.
type LayerInfo struct {
	Index     int         `json:"index"`
	Height    float64     `json:"height"`
	Commands  int         `json:"commands"`
	Extruding int         `json:"extruding"`
	Range     model.Range `json:"range"`
	FirstLine int         `json:"firstLine"`
	LastLine  int         `json:"lastLine"`
	PrintTime float64     `json:"printTime"` // Seconds, 0 before analysis
}

// Snapshot is a serialisable view of the reader.
type Snapshot struct {
	Version       string               `json:"version"`
	State         string               `json:"state"`
	Generation    uint64               `json:"generation"`
	SourceLines   int                  `json:"sourceLines"`
	RawLayers     int                  `json:"rawLayers"`
	PresentLayers int                  `json:"presentLayers"`
	VisibleLayers int                  `json:"visibleLayers"`
	Commands      int                  `json:"commands"`
	Options       model.Options        `json:"options"`
	Heights       map[model.Height]int `json:"heights"`
	Layers        []LayerInfo          `json:"layers"`
	Stats         *model.Stats         `json:"stats,omitempty"`
}

// Snapshot captures the current state for JSON output.
func (r *Reader) Snapshot() Snapshot {
	s := Snapshot{
		Version:       model.Version,
		State:         r.state.String(),
		Generation:    r.generation,
		SourceLines:   len(r.source),
		RawLayers:     r.layers.Len(),
		PresentLayers: r.layers.Count(),
		VisibleLayers: r.visible.Len(),
		Commands:      r.visible.Commands(),
		Options:       r.Options(),
		Heights:       r.Heights(),
		Layers:        r.LayerInfos(),
	}
	if stats, ok := r.ModelInfo(); ok {
		s.Stats = &stats
	}
	return s
}

// LayerInfos describes every visible layer.
func (r *Reader) LayerInfos() []LayerInfo {
	infos := make([]LayerInfo, 0, r.visible.Len())
	for i := 0; i < r.visible.Len(); i++ {
		cmds, _ := r.visible.Layer(i)
		info := LayerInfo{
			Index:    i,
			Commands: len(cmds),
			Range:    model.InvalidRange,
		}
		if i < len(r.ranges) {
			info.Range = r.ranges[i]
		}
		if z, ok := r.VisibleHeight(i); ok {
			info.Height = float64(z)
			info.PrintTime, _ = r.LayerPrintTime(z)
		}
		for _, c := range cmds {
			if c.Extrude {
				info.Extruding++
			}
		}
		if len(cmds) > 0 {
			info.FirstLine = cmds[0].GcodeLine
			info.LastLine = cmds[len(cmds)-1].GcodeLine
		}
		infos = append(infos, info)
	}
	return infos
}

// GenerateReport renders a plain-text summary. verbose adds one line per
// visible layer.
func GenerateReport(r *Reader, verbose bool) string {
	var b strings.Builder

	b.WriteString("=== layerscope report ===\n\n")
	fmt.Fprintf(&b, "State:          %s\n", r.State())
	fmt.Fprintf(&b, "Source lines:   %d\n", len(r.Source()))
	fmt.Fprintf(&b, "Layers:         %d parsed, %d present, %d visible\n",
		r.Layers().Len(), r.Layers().Count(), r.Visible().Len())
	fmt.Fprintf(&b, "Commands:       %d visible\n", r.Visible().Commands())

	opts := r.Options()
	fmt.Fprintf(&b, "Purge empty:    %v\n", opts.PurgeEmptyLayers)
	fmt.Fprintf(&b, "Sort layers:    %v\n", opts.SortLayers)

	if stats, ok := r.ModelInfo(); ok {
		bb := stats.BoundingBox
		b.WriteString("\n--- Model ---\n")
		fmt.Fprintf(&b, "Bounding box:   X %.2f..%.2f  Y %.2f..%.2f  Z %.2f..%.2f\n",
			bb.MinX, bb.MaxX, bb.MinY, bb.MaxY, bb.MinZ, bb.MaxZ)
		fmt.Fprintf(&b, "Size:           %.2f x %.2f x %.2f mm\n",
			stats.ModelSize.X, stats.ModelSize.Y, stats.ModelSize.Z)
		fmt.Fprintf(&b, "Filament:       %.2f mm\n", stats.TotalFilament)
		fmt.Fprintf(&b, "Print time:     %s\n", FormatDuration(stats.PrintTime))
		fmt.Fprintf(&b, "Speeds:         extrude %v  move %v  retract %v\n",
			stats.Speeds.Extrude, stats.Speeds.Move, stats.Speeds.Retract)
	}

	invalid := 0
	for _, rg := range r.Ranges() {
		if !rg.Valid() {
			invalid++
		}
	}
	b.WriteString("\n--- Percentage index ---\n")
	fmt.Fprintf(&b, "Ranges:         %d (%d without commands)\n", len(r.Ranges()), invalid)

	if verbose {
		b.WriteString("\n--- Layers ---\n")
		for _, info := range r.LayerInfos() {
			fmt.Fprintf(&b, "%5d  z=%-8.3f cmds=%-6d extr=%-6d [%7.3f, %7.3f)  lines %d-%d",
				info.Index, info.Height, info.Commands, info.Extruding,
				info.Range.Start, info.Range.End, info.FirstLine, info.LastLine)
			if f, ok := r.LayerFilament(model.Height(info.Height)); ok {
				fmt.Fprintf(&b, "  %.2fmm", f)
			}
			if info.PrintTime > 0 {
				fmt.Fprintf(&b, "  %s", FormatDuration(info.PrintTime))
			}
			b.WriteString("\n")
		}

		heights := r.Heights()
		keys := make([]model.Height, 0, len(heights))
		for z := range heights {
			keys = append(keys, z)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		b.WriteString("\n--- Height index ---\n")
		for _, z := range keys {
			fmt.Fprintf(&b, "%10s -> layer %d\n", z, heights[z])
		}
	}

	return b.String()
}

// FormatDuration renders seconds as h:mm:ss.
func FormatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
