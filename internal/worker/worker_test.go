package worker

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"layerscope/internal/model"
	"layerscope/internal/reader"
)

const sample = `; header
G28
G90
M82
G92 E0
G1 Z0.2 F3000
G1 X10 Y0 E1 F1200
G1 X10 Y10 E2
G1 Z0.6 F3000 ; hop
G1 X0 Y0
G1 Z0.4
G1 X10 Y0 E3 F1200
G1 X10 Y10 E4
M2
`

func request(t *testing.T, text string, opts model.Options) model.ParseRequest {
	t.Helper()
	lines, err := reader.Prepare(text, len(text))
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	return model.ParseRequest{Generation: 1, Lines: lines, Options: opts, FirstReport: 1}
}

// collect drains messages until the DoneMsg (and AnalysisMsg if analyze).
func collect(t *testing.T, w *Worker, analyze bool) []model.Message {
	t.Helper()
	var out []model.Message
	timeout := time.After(5 * time.Second)
	done, analysed := false, !analyze
	for !done || !analysed {
		select {
		case msg := <-w.Messages():
			out = append(out, msg)
			switch msg.(type) {
			case model.DoneMsg:
				done = true
			case model.AnalysisMsg:
				analysed = true
			}
		case <-timeout:
			t.Fatal("Timed out waiting for worker")
		}
	}
	return out
}

func TestWorkerLayersAndBatches(t *testing.T) {
	w := New(16)
	w.BatchSize = 2
	defer w.Close()

	w.Parse(request(t, sample, model.DefaultOptions()))
	msgs := collect(t, w, false)

	var singles, batches int
	var layerNums []int
	for _, msg := range msgs {
		switch m := msg.(type) {
		case model.LayerMsg:
			singles++
			layerNums = append(layerNums, m.LayerNum)
		case model.LayersMsg:
			batches++
			layerNums = append(layerNums, m.LayerNums...)
			if len(m.LayerNums) != len(m.Heights) {
				t.Errorf("Heights not parallel to layer numbers: %+v", m)
			}
		case model.DoneMsg:
			if m.Layers != 4 {
				t.Errorf("Expected 4 layers, got %d", m.Layers)
			}
		}
	}
	if singles != 1 || batches != 2 {
		t.Errorf("Expected 1 single and 2 batches, got %d and %d", singles, batches)
	}
	if len(layerNums) != 4 {
		t.Errorf("Expected layers 0-3, got %v", layerNums)
	}
}

func TestWorkerEndToEnd(t *testing.T) {
	w := New(16)
	defer w.Close()

	opts := model.DefaultOptions()
	opts.AnalyzeModel = true
	r := reader.New(
		reader.WithParser(w),
		reader.WithOptions(opts),
		reader.WithLogger(log.New(io.Discard, "", 0)),
	)

	gen, err := r.LoadFile(sample)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Await(ctx, w, r, gen, true); err != nil {
		t.Fatalf("Await error: %v", err)
	}

	if r.State() != reader.StateAssembled {
		t.Errorf("Expected assembled state, got %s", r.State())
	}
	if r.Layers().Len() != 4 {
		t.Errorf("Expected 4 parsed layers, got %d", r.Layers().Len())
	}
	if r.Visible().Len() != 2 {
		t.Errorf("Expected home and hop layers to be purged, got %d visible", r.Visible().Len())
	}
	if n := r.Heights()[0.6]; n != 2 {
		t.Errorf("Expected hop height 0.6 at layer 2, got %d", n)
	}

	stats, ok := r.ModelInfo()
	if !ok {
		t.Fatal("Expected analysis")
	}
	if stats.TotalFilament != 4 {
		t.Errorf("Expected 4mm of filament, got %v", stats.TotalFilament)
	}
	if f, _ := r.LayerFilament(0.2); f != 2 {
		t.Errorf("Expected 2mm at z=0.2, got %v", f)
	}
	if bb := stats.BoundingBox; bb.MaxX != 10 || bb.MaxY != 10 || bb.MinZ != 0.2 || bb.MaxZ != 0.4 {
		t.Errorf("Unexpected bounding box %+v", bb)
	}
	if s := r.LayerSpeeds(0.4); len(s.Extrude) != 1 || s.Extrude[0] != 1200 {
		t.Errorf("Unexpected speeds at z=0.4: %+v", s)
	}

	// Every command resolves back to its own layer.
	for l := 0; l < r.Visible().Len(); l++ {
		cmds, _ := r.Visible().Layer(l)
		for _, c := range cmds {
			got, ok := r.Resolve(c.Percentage)
			if !ok || got.Layer != l {
				t.Errorf("Percentage %v: expected layer %d, got %+v", c.Percentage, l, got)
			}
		}
	}
}

func TestAwaitIgnoresStaleGeneration(t *testing.T) {
	w := New(16)
	defer w.Close()
	r := reader.New(reader.WithParser(w), reader.WithLogger(log.New(io.Discard, "", 0)))

	if _, err := r.LoadFile(sample); err != nil {
		t.Fatal(err)
	}
	gen, err := r.LoadFile("G1 Z0.3\nG1 X5 E1\n")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Await(ctx, w, r, gen, false); err != nil {
		t.Fatalf("Await error: %v", err)
	}
	if r.Layers().Len() != 1 {
		t.Errorf("Expected only the second file's layer, got %d", r.Layers().Len())
	}
}

func TestAwaitContextCancel(t *testing.T) {
	w := New(1)
	defer w.Close()
	r := reader.New(reader.WithLogger(log.New(io.Discard, "", 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Await(ctx, w, r, r.Generation(), false); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAnalyzerIgnoreOutsideBed(t *testing.T) {
	opts := model.DefaultOptions()
	opts.IgnoreOutsideBed = true
	opts.Bed = model.Bed{X: 100, Y: 100}

	layers := [][]model.Command{{
		{Extrude: true, X: 50, Y: 50, Z: 0.2, PrevX: 40, PrevY: 40, E: 1, Speed: 600},
		{Extrude: true, X: 150, Y: 50, Z: 0.2, PrevX: 50, PrevY: 50, E: 1, Speed: 600},
	}}
	stats := NewAnalyzer(opts).Analyze(layers, []model.Height{0.2})

	if stats.BoundingBox.MaxX != 50 {
		t.Errorf("Expected out-of-bed move to be ignored, got maxX %v", stats.BoundingBox.MaxX)
	}
	if stats.TotalFilament != 2 {
		t.Errorf("Expected filament to count both moves, got %v", stats.TotalFilament)
	}
	// 10*sqrt(2) mm + 100 mm at 10 mm/s
	want := (10*1.4142135623730951 + 100) / 10
	if d := stats.PrintTime - want; d > 1e-9 || d < -1e-9 {
		t.Errorf("Expected print time %v, got %v", want, stats.PrintTime)
	}
}

func TestAnalyzerEmpty(t *testing.T) {
	stats := NewAnalyzer(model.DefaultOptions()).Analyze(nil, nil)
	if stats.BoundingBox != (model.BoundingBox{}) {
		t.Errorf("Expected zero bounding box, got %+v", stats.BoundingBox)
	}
	if stats.FilamentByLayer == nil {
		t.Error("Expected initialised per-layer maps")
	}
}
