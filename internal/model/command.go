package model

// Command is one tool-path instruction as delivered by the parser.
// Percentage, Extrude and GcodeLine are read by the core; the remaining
// fields are geometry payload for the renderer and the analyzer.
type Command struct {
	Percentage float64 // Position in the source file, 0-100
	Extrude    bool    // True if this move deposits material
	GcodeLine  int     // 1-based source line

	X, Y, Z             float64 // Target position
	PrevX, PrevY, PrevZ float64 // Position before the move
	E                   float64 // Extruder delta of this move
	Speed               float64 // Feed rate in mm/min
	Retract             int     // -1 retract, 1 unretract, 0 none
	Tool                int     // Active tool index
}

// Range is the half-open [Start, End) percentage span of one layer.
type Range struct {
	Start float64
	End   float64
}

// InvalidRange marks layers that hold no commands.
var InvalidRange = Range{Start: -1, End: -1}

// Valid reports whether r is not the sentinel range.
func (r Range) Valid() bool {
	return r != InvalidRange
}

// Contains reports whether Start <= pct < End.
func (r Range) Contains(pct float64) bool {
	return r.Start <= pct && r.End > pct
}

// Coordinate addresses one command inside the visible model.
type Coordinate struct {
	Layer       int
	Command     int
	Approximate bool // The search did not land inside a bracketing range
}

// LineRange is the pair of source lines bounding a command sub-range.
type LineRange struct {
	First int
	Last  int
}
