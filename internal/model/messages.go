package model

// SourceLine is one line of the input paired with the percentage of the
// file consumed once the line (and its line ending) has been read.
type SourceLine struct {
	Text       string
	Number     int // 1-based
	Percentage float64
}

// ParseRequest is dispatched to the parser when a file is loaded.
type ParseRequest struct {
	Generation  uint64
	Lines       []SourceLine
	Options     Options
	FirstReport int // Layers delivered one by one before batching starts
}

// Message is anything the parser sends back.
type Message interface {
	Gen() uint64
}

// HeightKey ties a physical Z height to the layer that owns it.
type HeightKey struct {
	Z     Height
	Layer int
}

// LayerMsg delivers a single parsed layer.
type LayerMsg struct {
	Generation uint64
	LayerNum   int
	Cmds       []Command
	Height     HeightKey
}

// LayersMsg delivers several layers at once. Heights is parallel to
// LayerNums.
type LayersMsg struct {
	Generation uint64
	LayerNums  []int
	Fragment   map[int][]Command
	Heights    []Height
}

// DoneMsg signals that every layer has been delivered.
type DoneMsg struct {
	Generation uint64
	Layers     int
}

// AnalysisMsg carries the completed aggregate statistics.
type AnalysisMsg struct {
	Generation uint64
	Stats      Stats
}

// ProgressMsg reports how far into the file the parser is.
type ProgressMsg struct {
	Generation uint64
	Percentage float64
}

func (m LayerMsg) Gen() uint64 { return m.Generation }
func (m LayersMsg) Gen() uint64 { return m.Generation }
func (m DoneMsg) Gen() uint64 { return m.Generation }
func (m AnalysisMsg) Gen() uint64 { return m.Generation }
func (m ProgressMsg) Gen() uint64 { return m.Generation }
