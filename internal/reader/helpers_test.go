package reader

import (
	"io"
	"log"
	"testing"

	"layerscope/internal/model"
)

// layer builds commands with the given percentages. Line numbers follow
// the percentages so every command is distinguishable.
func layer(extrude bool, pcts ...float64) []model.Command {
	cmds := make([]model.Command, len(pcts))
	for i, p := range pcts {
		cmds[i] = model.Command{
			Percentage: p,
			Extrude:    extrude,
			GcodeLine:  int(p*10) + 1,
		}
	}
	return cmds
}

type recordingParser struct {
	requests []model.ParseRequest
}

func (p *recordingParser) Parse(req model.ParseRequest) {
	p.requests = append(p.requests, req)
}

type recordingRenderer struct {
	published []*model.Layers
}

func (rd *recordingRenderer) Publish(layers *model.Layers, _ int) {
	rd.published = append(rd.published, layers)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestReader returns a reader with the given layers delivered and the
// load completed.
func newTestReader(t *testing.T, opts model.Options, layers ...[]model.Command) *Reader {
	t.Helper()
	r := New(WithOptions(opts), WithLogger(quietLogger()))
	for i, cmds := range layers {
		if !r.ProcessLayer(model.LayerMsg{
			Generation: r.Generation(),
			LayerNum:   i,
			Cmds:       cmds,
			Height:     model.HeightKey{Z: model.Height(0.2 * float64(i+1)), Layer: i},
		}) {
			t.Fatalf("layer %d rejected", i)
		}
	}
	if !r.ProcessDone(model.DoneMsg{Generation: r.Generation(), Layers: len(layers)}) {
		t.Fatal("done rejected")
	}
	return r
}

func unpurged() model.Options {
	o := model.DefaultOptions()
	o.PurgeEmptyLayers = false
	return o
}
