// Package web serves a loaded model over a JSON API.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"layerscope/internal/model"
	"layerscope/internal/reader"
	"layerscope/internal/render"
	"layerscope/internal/worker"
)

//go:embed help.md
var helpMD string

// DefaultPort is used when no port is given.
const DefaultPort = "8080"

// reloadTimeout bounds a re-parse triggered by an options change.
const reloadTimeout = 2 * time.Minute

// Server exposes a reader over HTTP. The reader is not safe for
// concurrent use, so every handler holds mu while touching it.
type Server struct {
	mu         sync.Mutex
	reader     *reader.Reader
	canvas     *render.Canvas
	worker     *worker.Worker
	raw        string
	generation uint64 // highest generation handed to the worker
}

// Option configures a Server.
type Option func(*Server)

// WithSource lets the server re-parse raw with w when an option that
// affects parsing changes.
func WithSource(w *worker.Worker, raw string) Option {
	return func(s *Server) {
		s.worker = w
		s.raw = raw
	}
}

// NewServer wraps an assembled reader and the canvas it publishes to.
func NewServer(r *reader.Reader, c *render.Canvas, opts ...Option) *Server {
	s := &Server{reader: r, canvas: c, generation: r.Generation()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the API mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleHelp)
	mux.HandleFunc("/api/help", s.handleHelp)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/ranges", s.handleRanges)
	mux.HandleFunc("/api/resolve", s.handleResolve)
	mux.HandleFunc("/api/layer", s.handleLayer)
	mux.HandleFunc("/api/lines", s.handleLines)
	mux.HandleFunc("/api/filament", s.handleFilament)
	mux.HandleFunc("/api/speeds", s.handleSpeeds)
	mux.HandleFunc("/api/layer.png", s.handleLayerPNG)
	mux.HandleFunc("/api/options", s.handleOptions)
	return mux
}

// StartServer serves the API on port until the listener fails.
func StartServer(s *Server, port string) error {
	if port == "" {
		port = DefaultPort
	}
	fmt.Printf("Starting layerscope web server at http://localhost:%s\n", port)
	fmt.Printf("Go to http://localhost:%s/api/help for the endpoint list.\n", port)
	return http.ListenAndServe(":"+port, s.Handler())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return f, nil
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/api/help" {
		http.NotFound(w, r)
		return
	}
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(text))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.reader.Snapshot()
	s.mu.Unlock()

	writeJSON(w, snap)
}

func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ranges := append([]model.Range{}, s.reader.Ranges()...)
	s.mu.Unlock()

	writeJSON(w, ranges)
}

// ResolveResponse is the result of a percentage lookup.
type ResolveResponse struct {
	Percentage *float64         `json:"percentage"`
	Coordinate model.Coordinate `json:"coordinate"`
	Line       int              `json:"line"`
	Text       string           `json:"text"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var target *float64
	if r.URL.Query().Has("pct") {
		pct, err := queryFloat(r, "pct")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		target = &pct
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coord, ok := s.reader.CmdIndexForPercentage(target)
	if !ok {
		http.Error(w, "no position available", http.StatusServiceUnavailable)
		return
	}
	resp := ResolveResponse{Percentage: target, Coordinate: coord}
	if lines, err := s.reader.GCodeLines(coord.Layer, coord.Command, coord.Command); err == nil {
		resp.Line = lines.First
		resp.Text = model.SliceLines(s.reader.Source(), lines.First, lines.First)
	}
	writeJSON(w, resp)
}

// LayerResponse describes one visible layer.
type LayerResponse struct {
	reader.LayerInfo
	Cmds []model.Command `json:"commandList"`
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	infos := s.reader.LayerInfos()
	if n < 0 || n >= len(infos) {
		http.Error(w, reader.ErrLayerOutOfRange.Error(), http.StatusNotFound)
		return
	}
	cmds, _ := s.reader.Visible().Layer(n)
	writeJSON(w, LayerResponse{LayerInfo: infos[n], Cmds: cmds})
}

// LinesResponse is the source text of a command sub-range.
type LinesResponse struct {
	model.LineRange
	Text string `json:"text"`
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	layer, err := queryInt(r, "layer")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	from, err := queryInt(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := queryInt(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.reader.GCodeLines(layer, from, to)
	switch {
	case errors.Is(err, reader.ErrNoModel):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, LinesResponse{
		LineRange: lines,
		Text:      model.SliceLines(s.reader.Source(), lines.First, lines.Last),
	})
}

func (s *Server) handleFilament(w http.ResponseWriter, r *http.Request) {
	z, err := queryFloat(r, "z")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	filament, ok := s.reader.LayerFilament(model.Height(z))
	s.mu.Unlock()

	writeJSON(w, struct {
		Z        float64 `json:"z"`
		Filament float64 `json:"filament"`
		Known    bool    `json:"known"`
	}{z, filament, ok})
}

func (s *Server) handleSpeeds(w http.ResponseWriter, r *http.Request) {
	z, err := queryFloat(r, "z")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	speeds := s.reader.LayerSpeeds(model.Height(z))
	s.mu.Unlock()

	writeJSON(w, speeds)
}

func (s *Server) handleLayerPNG(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	upTo := -1
	if r.URL.Query().Has("upto") {
		if upTo, err = queryInt(r, "upto"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	opts := render.PNGOptions{Size: 800, Travels: r.URL.Query().Get("travels") != "false"}
	if r.URL.Query().Has("size") {
		if opts.Size, err = queryInt(r, "size"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	opts.Caption = fmt.Sprintf("layer %d", n)
	if z, ok := s.reader.VisibleHeight(n); ok {
		opts.Caption += fmt.Sprintf("  z=%s", z)
	}
	img, err := s.canvas.DrawLayer(n, upTo, opts)
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Printf("web: encode png: %v", err)
	}
}

// parseAffecting reports whether p changes something the parser reads,
// which needs a fresh parse rather than a re-publish.
func parseAffecting(p model.OptionsPatch) bool {
	return p.AnalyzeModel != nil || p.ToolOffsets != nil || p.Bed != nil ||
		p.IgnoreOutsideBed != nil || p.G90InfluencesExtruder != nil || p.BedZ != nil
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		opts := s.reader.Options()
		s.mu.Unlock()
		writeJSON(w, opts)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var patch model.OptionsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid options: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.reader.Options()
	dirty := next.Apply(patch)
	if dirty && parseAffecting(patch) && s.worker != nil {
		if err := s.reload(r.Context(), next); err != nil {
			http.Error(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		s.reader.SetOptions(patch)
	}
	writeJSON(w, struct {
		Changed bool          `json:"changed"`
		Options model.Options `json:"options"`
	}{dirty, s.reader.Options()})
}

// reload parses the source with opts into a fresh reader and canvas and
// swaps them in once the load has finished. On failure the served model
// and its options are left as they were. Callers hold mu.
func (s *Server) reload(ctx context.Context, opts model.Options) error {
	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	canvas := render.NewCanvas()
	next := reader.New(
		reader.WithParser(s.worker),
		reader.WithRenderer(canvas),
		reader.WithOptions(opts),
		reader.WithGeneration(s.generation),
	)
	gen, err := next.LoadFile(s.raw)
	s.generation = gen
	if err != nil {
		return err
	}
	if err := worker.Await(ctx, s.worker, next, gen, opts.AnalyzeModel); err != nil {
		return err
	}
	s.reader, s.canvas = next, canvas
	return nil
}
