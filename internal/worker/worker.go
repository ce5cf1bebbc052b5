// Package worker parses annotated gcode lines into per-layer command
// batches off the owner goroutine and reports them as messages.
package worker

import (
	"context"
	"log"
	"sync"

	"layerscope/internal/model"
)

// DefaultBatchSize is how many layers go into one LayersMsg once the
// first report has been sent.
const DefaultBatchSize = 64

// Worker runs parse requests on its own goroutine. Results arrive on
// Messages in load order; a newer request does not cancel an older one,
// the consumer tells them apart by generation.
type Worker struct {
	msgs      chan model.Message
	errs      chan error
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	BatchSize int
}

// New creates a Worker whose message channel holds buffer messages.
func New(buffer int) *Worker {
	return &Worker{
		msgs:      make(chan model.Message, buffer),
		errs:      make(chan error, 16), // Buffered to avoid blocking if receiver stops
		quit:      make(chan struct{}),
		BatchSize: DefaultBatchSize,
	}
}

// Messages delivers parser output.
func (w *Worker) Messages() <-chan model.Message { return w.msgs }

// Errors delivers non-fatal decode problems. Errors are dropped when
// nobody reads them.
func (w *Worker) Errors() <-chan error { return w.errs }

// Close stops every running parse and waits for it to exit.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	w.wg.Wait()
}

// Parse starts parsing req in the background.
func (w *Worker) Parse(req model.ParseRequest) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(req)
	}()
}

func (w *Worker) send(msg model.Message) bool {
	select {
	case w.msgs <- msg:
		return true
	case <-w.quit:
		return false
	}
}

func (w *Worker) warn(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

func (w *Worker) run(req model.ParseRequest) {
	em := &emitter{w: w, req: req, batchSize: w.BatchSize}
	if em.batchSize <= 0 {
		em.batchSize = DefaultBatchSize
	}

	layers, heights, ok := w.parse(req, em)
	if !ok {
		return
	}
	if !em.flush() {
		return
	}
	if !w.send(model.DoneMsg{Generation: req.Generation, Layers: len(layers)}) {
		return
	}
	if req.Options.AnalyzeModel {
		stats := NewAnalyzer(req.Options).Analyze(layers, heights)
		w.send(model.AnalysisMsg{Generation: req.Generation, Stats: stats})
	}
}

// parse walks the lines, closing a layer every time a move changes Z.
func (w *Worker) parse(req model.ParseRequest, em *emitter) ([][]model.Command, []model.Height, bool) {
	m := newMachine(req.Options)

	var layers [][]model.Command
	var heights []model.Height
	var cur []model.Command
	curZ := model.Height(m.z)
	nextProgress := 10.0

	closeLayer := func() bool {
		n := len(layers)
		layers = append(layers, cur)
		heights = append(heights, curZ)
		ok := em.layer(n, cur, curZ)
		cur = nil
		return ok
	}

	for _, line := range req.Lines {
		in, ok, err := Decode(line)
		if err != nil {
			w.warn(err)
		}
		if !ok {
			continue
		}
		cmd, isMove := m.Step(in)
		if !isMove {
			continue
		}
		if z := model.Height(cmd.Z); z != curZ {
			if len(cur) > 0 && !closeLayer() {
				return nil, nil, false
			}
			curZ = z
		}
		cur = append(cur, cmd)

		if line.Percentage >= nextProgress {
			if !w.send(model.ProgressMsg{Generation: req.Generation, Percentage: line.Percentage}) {
				return nil, nil, false
			}
			for nextProgress <= line.Percentage {
				nextProgress += 10
			}
		}
	}
	if len(cur) > 0 && !closeLayer() {
		return nil, nil, false
	}
	return layers, heights, true
}

// emitter sends the first layers one by one and the rest in batches.
type emitter struct {
	w         *Worker
	req       model.ParseRequest
	batchSize int

	nums     []int
	fragment map[int][]model.Command
	heights  []model.Height
}

func (e *emitter) layer(n int, cmds []model.Command, z model.Height) bool {
	if n < e.req.FirstReport {
		return e.w.send(model.LayerMsg{
			Generation: e.req.Generation,
			LayerNum:   n,
			Cmds:       cmds,
			Height:     model.HeightKey{Z: z, Layer: n},
		})
	}
	if e.fragment == nil {
		e.fragment = make(map[int][]model.Command, e.batchSize)
	}
	e.nums = append(e.nums, n)
	e.fragment[n] = cmds
	e.heights = append(e.heights, z)
	if len(e.nums) >= e.batchSize {
		return e.flush()
	}
	return true
}

func (e *emitter) flush() bool {
	if len(e.nums) == 0 {
		return true
	}
	msg := model.LayersMsg{
		Generation: e.req.Generation,
		LayerNums:  e.nums,
		Fragment:   e.fragment,
		Heights:    e.heights,
	}
	e.nums, e.fragment, e.heights = nil, nil, nil
	return e.w.send(msg)
}

// Sink consumes parser messages on the owner goroutine.
type Sink interface {
	Handle(msg model.Message) bool
}

// Await feeds messages to sink until the load tagged gen has finished:
// DoneMsg has been handled and, when analyze is set, AnalysisMsg too.
// Decode warnings are logged.
func Await(ctx context.Context, w *Worker, sink Sink, gen uint64, analyze bool) error {
	done, analysed := false, !analyze
	for !done || !analysed {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-w.Errors():
			log.Printf("Parser warning: %v", err)
		case msg := <-w.Messages():
			applied := sink.Handle(msg)
			if !applied || msg.Gen() != gen {
				continue
			}
			switch msg.(type) {
			case model.DoneMsg:
				done = true
			case model.AnalysisMsg:
				analysed = true
			}
		}
	}
	return nil
}
