package reader

import (
	"errors"
	"strings"
	"testing"

	"layerscope/internal/model"
)

func TestLoadFileDispatchesRequest(t *testing.T) {
	p := &recordingParser{}
	r := New(WithParser(p), WithLogger(quietLogger()))

	gen, err := r.LoadFile("G1 X1\nG1 X2\n")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(p.requests) != 1 {
		t.Fatalf("Expected 1 parse request, got %d", len(p.requests))
	}
	req := p.requests[0]
	if req.Generation != gen {
		t.Errorf("Expected generation %d, got %d", gen, req.Generation)
	}
	if len(req.Lines) != 3 {
		t.Errorf("Expected 3 lines (trailing empty line included), got %d", len(req.Lines))
	}
	if !req.Options.PurgeEmptyLayers {
		t.Error("Expected default options to be forwarded")
	}
	if r.State() != StateLoading {
		t.Errorf("Expected loading state, got %s", r.State())
	}
	if got := r.Source(); len(got) != 3 || got[1] != "G1 X2" {
		t.Errorf("Unexpected source lines %q", got)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	p := &recordingParser{}
	r := New(WithParser(p), WithLogger(quietLogger()))

	if _, err := r.LoadFile(""); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Expected ErrEmptyFile, got %v", err)
	}
	if len(p.requests) != 0 {
		t.Error("Expected no parse request for an empty file")
	}
	if r.State() != StateEmpty {
		t.Errorf("Expected empty state, got %s", r.State())
	}
}

func TestStaleMessagesAreDropped(t *testing.T) {
	r := New(WithParser(&recordingParser{}), WithLogger(quietLogger()))

	oldGen, _ := r.LoadFile("G1 Z0.2\n")
	newGen, _ := r.LoadFile("G1 Z0.3\n")
	if oldGen == newGen {
		t.Fatal("Expected a new generation per load")
	}

	if r.ProcessLayer(model.LayerMsg{Generation: oldGen, LayerNum: 0, Cmds: layer(true, 1)}) {
		t.Error("Expected stale layer to be rejected")
	}
	if r.Layers().Len() != 0 {
		t.Error("Stale layer reached the model")
	}
	if r.ProcessAnalysis(model.AnalysisMsg{Generation: oldGen, Stats: model.Stats{TotalFilament: 9}}) {
		t.Error("Expected stale analysis to be rejected")
	}
	if !r.Handle(model.LayerMsg{Generation: newGen, LayerNum: 0, Cmds: layer(true, 1)}) {
		t.Error("Expected current layer to be accepted")
	}
}

func TestBatchOrderIndependence(t *testing.T) {
	deliver := func(order []int) *Reader {
		r := New(WithLogger(quietLogger()))
		for _, n := range order {
			r.ProcessLayer(model.LayerMsg{
				Generation: r.Generation(),
				LayerNum:   n,
				Cmds:       layer(true, float64(n*10), float64(n*10+5)),
				Height:     model.HeightKey{Z: model.Height(n), Layer: n},
			})
		}
		return r
	}

	a := deliver([]int{3, 1, 2})
	b := deliver([]int{1, 2, 3})
	if !a.Layers().Equal(b.Layers()) {
		t.Error("Expected identical models regardless of delivery order")
	}
	if a.Layers().Present(0) {
		t.Error("Expected layer 0 to stay absent")
	}
}

func TestProcessLayersBatch(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	ok := r.ProcessLayers(model.LayersMsg{
		Generation: r.Generation(),
		LayerNums:  []int{4, 2, -1},
		Fragment: map[int][]model.Command{
			2: layer(true, 20),
			4: layer(true, 40),
		},
		Heights: []model.Height{0.8, 0.4, 0.1},
	})
	if !ok {
		t.Fatal("Expected batch to be accepted")
	}
	if r.Layers().Len() != 5 {
		t.Errorf("Expected model length 5, got %d", r.Layers().Len())
	}
	heights := r.Heights()
	if heights[0.8] != 4 || heights[0.4] != 2 {
		t.Errorf("Unexpected height index %v", heights)
	}
	if _, ok := heights[0.1]; ok {
		t.Error("Expected negative layer height to be ignored")
	}
	if r.State() != StateLoading {
		t.Errorf("Expected loading state, got %s", r.State())
	}
}

func TestProcessLayerHeightKey(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	r.ProcessLayer(model.LayerMsg{
		Generation: r.Generation(),
		LayerNum:   3,
		Cmds:       layer(true, 30),
		Height:     model.HeightKey{Z: 0.6, Layer: 2},
	})

	if !r.Layers().Present(3) {
		t.Error("Expected commands stored under the layer number")
	}
	if n, ok := r.Heights()[0.6]; !ok || n != 2 {
		t.Errorf("Expected height 0.6 to map to the height key's layer 2, got %d", n)
	}

	r.ProcessLayer(model.LayerMsg{
		Generation: r.Generation(),
		LayerNum:   -1,
		Cmds:       layer(true, 5),
		Height:     model.HeightKey{Z: 0.1, Layer: -1},
	})
	if _, ok := r.Heights()[0.1]; ok {
		t.Error("Expected negative layer number to be ignored")
	}
}

func TestProcessLayerOverwrites(t *testing.T) {
	r := New(WithLogger(quietLogger()))
	gen := r.Generation()

	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 0, Cmds: layer(true, 1), Height: model.HeightKey{Z: 0.2}})
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 0, Cmds: layer(true, 2, 3), Height: model.HeightKey{Z: 0.2}})

	cmds, _ := r.Layers().Layer(0)
	if len(cmds) != 2 || cmds[0].Percentage != 2 {
		t.Errorf("Expected last write to win, got %+v", cmds)
	}
}

func TestDonePublishesAndIndexes(t *testing.T) {
	rd := &recordingRenderer{}
	r := New(WithRenderer(rd), WithLogger(quietLogger()))
	gen := r.Generation()

	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 0, Cmds: layer(false, 1)})
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 1, Cmds: layer(true, 5, 9)})
	if _, ok := r.Resolve(5); ok {
		t.Error("Expected no lookups before the model is published")
	}

	r.Handle(model.DoneMsg{Generation: gen, Layers: 2})
	if r.State() != StateAssembled {
		t.Errorf("Expected assembled state, got %s", r.State())
	}
	if len(rd.published) != 1 {
		t.Fatalf("Expected one publish, got %d", len(rd.published))
	}
	if rd.published[0].Len() != 1 {
		t.Errorf("Expected purged model with 1 layer, got %d", rd.published[0].Len())
	}
	if len(r.Ranges()) != 1 {
		t.Errorf("Expected 1 range, got %d", len(r.Ranges()))
	}
}

func TestSetOptionsTogglesPurge(t *testing.T) {
	rd := &recordingRenderer{}
	r := New(WithRenderer(rd), WithLogger(quietLogger()))
	gen := r.Generation()
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 0, Cmds: layer(false, 1)})
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 1, Cmds: layer(true, 5)})
	r.ProcessDone(model.DoneMsg{Generation: gen})

	off := false
	if !r.SetOptions(model.OptionsPatch{PurgeEmptyLayers: &off}) {
		t.Fatal("Expected options to be dirty")
	}
	if r.Visible().Len() != 2 {
		t.Errorf("Expected unpurged model with 2 layers, got %d", r.Visible().Len())
	}
	if len(rd.published) != 2 {
		t.Errorf("Expected a re-publish, got %d publishes", len(rd.published))
	}

	if r.SetOptions(model.OptionsPatch{PurgeEmptyLayers: &off}) {
		t.Error("Expected unchanged option not to be dirty")
	}
	if len(rd.published) != 2 {
		t.Error("Expected no publish for a clean patch")
	}

	on := true
	r.SetOptions(model.OptionsPatch{PurgeEmptyLayers: &on})
	if r.Visible().Len() != 1 {
		t.Errorf("Expected purged model again, got %d layers", r.Visible().Len())
	}
	if r.Layers().Len() != 2 {
		t.Error("Expected consolidated model to survive purging")
	}
}

func TestSetOptionsWithoutModel(t *testing.T) {
	rd := &recordingRenderer{}
	r := New(WithRenderer(rd), WithLogger(quietLogger()))

	on := true
	if !r.SetOptions(model.OptionsPatch{SortLayers: &on}) {
		t.Error("Expected dirty patch")
	}
	if len(rd.published) != 0 {
		t.Error("Expected no publish without a model")
	}
	if !r.Options().SortLayers {
		t.Error("Expected option to be stored")
	}
}

func TestSortLayersOption(t *testing.T) {
	r := New(WithLogger(quietLogger()), WithOptions(model.Options{SortLayers: true, PurgeEmptyLayers: true}))
	gen := r.Generation()
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 0, Cmds: layer(true, 1), Height: model.HeightKey{Z: 0.6, Layer: 0}})
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 1, Cmds: layer(false, 2), Height: model.HeightKey{Z: 0.1, Layer: 1}})
	r.ProcessLayer(model.LayerMsg{Generation: gen, LayerNum: 2, Cmds: layer(true, 3), Height: model.HeightKey{Z: 0.2, Layer: 2}})
	r.ProcessDone(model.DoneMsg{Generation: gen})

	v := r.Visible()
	if v.Len() != 2 {
		t.Fatalf("Expected 2 visible layers, got %d", v.Len())
	}
	first, _ := v.Layer(0)
	second, _ := v.Layer(1)
	if first[0].Percentage != 3 || second[0].Percentage != 1 {
		t.Errorf("Expected layers ordered by height, got %v then %v", first[0].Percentage, second[0].Percentage)
	}
}

func TestClearResetsEverything(t *testing.T) {
	r := scenarioReader(t)
	r.Resolve(60)
	r.ProcessAnalysis(model.AnalysisMsg{Generation: r.Generation(), Stats: model.Stats{TotalFilament: 3}})
	gen := r.Generation()

	r.Clear()
	if r.State() != StateEmpty {
		t.Errorf("Expected empty state, got %s", r.State())
	}
	if r.Generation() == gen {
		t.Error("Expected Clear to start a new generation")
	}
	if _, ok := r.Hold(); ok {
		t.Error("Expected cursor to be cleared")
	}
	if _, ok := r.ModelInfo(); ok {
		t.Error("Expected stats to be cleared")
	}
	if r.Layers().Len() != 0 || r.Visible() != nil || r.Ranges() != nil {
		t.Error("Expected model and index to be cleared")
	}
}

func TestStatsStore(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	if _, ok := r.ModelInfo(); ok {
		t.Error("Expected no stats before analysis")
	}
	if s := r.LayerSpeeds(0.2); !s.Empty() {
		t.Errorf("Expected empty speeds, got %+v", s)
	}

	stats := model.Stats{
		TotalFilament:   12.5,
		FilamentByLayer: map[model.Height]float64{0.2: 4.5},
		SpeedsByLayer: map[model.Height]model.SpeedTable{
			0.2: {Extrude: []float64{1200}, Move: []float64{6000}},
		},
		PrintTimeByLayer: map[model.Height]float64{0.2: 30},
	}
	r.ProcessAnalysis(model.AnalysisMsg{Generation: r.Generation(), Stats: stats})

	info, ok := r.ModelInfo()
	if !ok || info.TotalFilament != 12.5 {
		t.Errorf("Unexpected model info %+v", info)
	}
	if f, ok := r.LayerFilament(0.2); !ok || f != 4.5 {
		t.Errorf("Expected 4.5 filament at 0.2, got %v", f)
	}
	if _, ok := r.LayerFilament(0.4); ok {
		t.Error("Expected unknown height to report missing")
	}
	if s := r.LayerSpeeds(0.2); len(s.Extrude) != 1 || s.Extrude[0] != 1200 {
		t.Errorf("Unexpected speeds %+v", s)
	}
	if s := r.LayerSpeeds(0.4); !s.Empty() {
		t.Errorf("Expected empty speeds for unknown height, got %+v", s)
	}
	if sec, ok := r.LayerPrintTime(0.2); !ok || sec != 30 {
		t.Errorf("Expected 30s, got %v", sec)
	}

	r.ProcessAnalysis(model.AnalysisMsg{Generation: r.Generation(), Stats: model.Stats{TotalFilament: 1}})
	if _, ok := r.LayerFilament(0.2); ok {
		t.Error("Expected analysis to replace stats wholesale")
	}
}

func TestGenerateReport(t *testing.T) {
	r := scenarioReader(t)
	r.ProcessAnalysis(model.AnalysisMsg{Generation: r.Generation(), Stats: model.Stats{
		TotalFilament:    42,
		PrintTime:        3725,
		FilamentByLayer:  map[model.Height]float64{0.2: 1.5},
		PrintTimeByLayer: map[model.Height]float64{0: 95}, // test layers sit at z=0
	}})

	if infos := r.LayerInfos(); infos[0].PrintTime != 95 {
		t.Errorf("Expected 95s for layer 0, got %v", infos[0].PrintTime)
	}

	report := GenerateReport(r, true)
	for _, want := range []string{"assembled", "3 visible", "42.00 mm", "1:02:05", "(1 without commands)", "-> layer 2", "0:01:35"} {
		if !strings.Contains(report, want) {
			t.Errorf("Expected report to contain %q:\n%s", want, report)
		}
	}
}

func TestSnapshot(t *testing.T) {
	r := scenarioReader(t)
	s := r.Snapshot()

	if s.VisibleLayers != 3 || s.PresentLayers != 3 || s.Commands != 6 {
		t.Errorf("Unexpected counts %+v", s)
	}
	if len(s.Layers) != 3 || s.Layers[1].Range != model.InvalidRange {
		t.Errorf("Unexpected layer infos %+v", s.Layers)
	}
	if s.Stats != nil {
		t.Error("Expected no stats before analysis")
	}
}
