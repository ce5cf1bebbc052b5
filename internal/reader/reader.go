package reader

import (
	"log"

	"layerscope/internal/model"
)

// Parser turns annotated source lines into layer messages. It runs outside
// the reader and delivers results asynchronously.
type Parser interface {
	Parse(req model.ParseRequest)
}

// Renderer receives the visible model whenever its layer content changes.
type Renderer interface {
	Publish(layers *model.Layers, layer int)
}

// State is the loading state of a Reader.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateAssembled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAssembled:
		return "assembled"
	default:
		return "empty"
	}
}

// DefaultFirstReport is how many layers the parser sends one by one
// before switching to batches.
const DefaultFirstReport = 5

// Reader owns the layer model, the height index, the percentage range
// table and the cached cursor. It is not safe for concurrent use: a
// single goroutine drives it and feeds it parser messages one at a time.
type Reader struct {
	opts     model.Options
	parser   Parser
	renderer Renderer
	logger   *log.Logger

	generation uint64
	state      State
	source     []string

	layers  *model.Layers        // consolidated, sparse
	heights map[model.Height]int // height -> layer number

	visible *model.Layers // published view, possibly purged/sorted
	ranges  []model.Range
	indexed bool

	cursor    model.Coordinate
	hasCursor bool

	stats    model.Stats
	hasStats bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithParser sets the collaborator that receives parse requests.
func WithParser(p Parser) Option {
	return func(r *Reader) { r.parser = p }
}

// WithRenderer sets the collaborator that receives the visible model.
func WithRenderer(rd Renderer) Option {
	return func(r *Reader) { r.renderer = rd }
}

// WithLogger overrides log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// WithOptions replaces the default options.
func WithOptions(o model.Options) Option {
	return func(r *Reader) { r.opts = o }
}

// WithGeneration starts generation numbering after g, so a reader that
// shares a parser with an earlier one never reuses its generations.
func WithGeneration(g uint64) Option {
	return func(r *Reader) { r.generation = g }
}

// New returns an empty Reader.
func New(opts ...Option) *Reader {
	r := &Reader{
		opts:    model.DefaultOptions(),
		logger:  log.Default(),
		layers:  &model.Layers{},
		heights: make(map[model.Height]int),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Clear drops everything loaded and returns to StateEmpty. Messages from
// any earlier load are ignored afterwards.
func (r *Reader) Clear() {
	r.generation++
	r.state = StateEmpty
	r.source = nil
	r.layers = &model.Layers{}
	r.heights = make(map[model.Height]int)
	r.visible = nil
	r.ranges = nil
	r.indexed = false
	r.cursor = model.Coordinate{}
	r.hasCursor = false
	r.stats = model.Stats{}
	r.hasStats = false
}

// LoadFile resets the reader and hands raw to the parser. The returned
// generation tags every message that belongs to this load.
func (r *Reader) LoadFile(raw string) (uint64, error) {
	r.Clear()

	lines, err := Prepare(raw, len(raw))
	if err != nil {
		return r.generation, err
	}

	r.source = make([]string, len(lines))
	for i, l := range lines {
		r.source[i] = l.Text
	}
	r.state = StateLoading

	if r.parser != nil {
		r.parser.Parse(model.ParseRequest{
			Generation:  r.generation,
			Lines:       lines,
			Options:     r.opts,
			FirstReport: DefaultFirstReport,
		})
	}
	return r.generation, nil
}

// SetOptions merges p and re-publishes the model if anything changed.
func (r *Reader) SetOptions(p model.OptionsPatch) bool {
	dirty := r.opts.Apply(p)
	if dirty && r.layers.Len() > 0 {
		r.PassDataToRenderer()
	}
	return dirty
}

// Options returns a copy of the current options.
func (r *Reader) Options() model.Options {
	o := r.opts
	o.ToolOffsets = append([]model.Offset(nil), r.opts.ToolOffsets...)
	return o
}

// PassDataToRenderer derives the visible model from the consolidated one,
// rebuilds the percentage range table and publishes the result.
func (r *Reader) PassDataToRenderer() *model.Layers {
	v, raw := r.layers, identity(r.layers.Len())
	if r.opts.PurgeEmptyLayers {
		v, raw = purge(v)
	}
	if r.opts.SortLayers {
		v = SortByHeight(v, r.slotHeights(raw))
	}

	r.visible = v
	r.ranges = BuildRanges(v)
	r.indexed = true

	if r.renderer != nil {
		r.renderer.Publish(v, 0)
	}
	return v
}

// Handle dispatches a parser message. It reports whether the message was
// applied; messages from an earlier load are dropped.
func (r *Reader) Handle(msg model.Message) bool {
	switch m := msg.(type) {
	case model.LayerMsg:
		return r.ProcessLayer(m)
	case model.LayersMsg:
		return r.ProcessLayers(m)
	case model.DoneMsg:
		return r.ProcessDone(m)
	case model.AnalysisMsg:
		return r.ProcessAnalysis(m)
	case model.ProgressMsg:
		return r.current(m)
	}
	return false
}

// ProcessDone marks loading complete and publishes the model.
func (r *Reader) ProcessDone(msg model.DoneMsg) bool {
	if !r.current(msg) {
		return false
	}
	r.state = StateAssembled
	r.PassDataToRenderer()
	return true
}

func (r *Reader) current(msg model.Message) bool {
	if msg.Gen() != r.generation {
		r.logger.Printf("reader: dropping %T from generation %d (current %d)", msg, msg.Gen(), r.generation)
		return false
	}
	return true
}

// Generation identifies the current load.
func (r *Reader) Generation() uint64 { return r.generation }

// State returns the loading state.
func (r *Reader) State() State { return r.state }

// Source returns the lines of the loaded file without line endings.
func (r *Reader) Source() []string { return r.source }

// Layers returns the consolidated, unpurged model.
func (r *Reader) Layers() *model.Layers { return r.layers }

// Visible returns the last published model, or nil before the first
// publish.
func (r *Reader) Visible() *model.Layers { return r.visible }

// Ranges returns the percentage range table of the visible model.
func (r *Reader) Ranges() []model.Range { return r.ranges }

// Heights returns a copy of the height index.
func (r *Reader) Heights() map[model.Height]int {
	out := make(map[model.Height]int, len(r.heights))
	for z, n := range r.heights {
		out[z] = n
	}
	return out
}

// slotHeights maps visible slot -> height, where raw[slot] is the
// consolidated layer number shown in that slot. When several heights
// point at one layer the lowest wins.
func (r *Reader) slotHeights(raw []int) map[int]model.Height {
	byLayer := make(map[int]model.Height, len(r.heights))
	for z, n := range r.heights {
		if cur, ok := byLayer[n]; !ok || z < cur {
			byLayer[n] = z
		}
	}
	out := make(map[int]model.Height, len(raw))
	for slot, n := range raw {
		if z, ok := byLayer[n]; ok {
			out[slot] = z
		}
	}
	return out
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
