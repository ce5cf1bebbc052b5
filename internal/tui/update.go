package tui

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"layerscope/internal/model"
	"layerscope/internal/render"
	"layerscope/internal/worker"
)

// MsgLoadFile asks the model to hand raw to the reader.
type MsgLoadFile struct {
	Raw string
}

// MsgParser wraps a message from the worker.
type MsgParser struct {
	model.Message
}

// MsgParseWarning is a non-fatal decode problem reported by the worker.
type MsgParseWarning struct {
	Err error
}

// sourceRadius is how many lines of context surround the current line.
const sourceRadius = 8

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.SourceViewport.Width = msg.Width / 2
		m.SourceViewport.Height = msg.Height / 2
		m.Help.Width = msg.Width
		m.syncSource()
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MsgLoadFile:
		if _, err := m.Reader.LoadFile(msg.Raw); err != nil {
			m.Err = err
			m.Loading = false
			return m, nil
		}
		m.Loading = true
		m.Progress = 0
		return m, waitForParser(m.Worker)

	case MsgParser:
		m.handleParser(msg.Message)
		return m, waitForParser(m.Worker)

	case MsgParseWarning:
		m.Warnings++
		log.Printf("Parser warning: %v", msg.Err)
		return m, waitForParser(m.Worker)

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.jump(m.InputBuffer.Value())
				return m, nil
			case tea.KeyEsc:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.InputBuffer.SetValue("")
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Help):
			m.ShowHelp = !m.ShowHelp
			m.Help.ShowAll = m.ShowHelp
		case key.Matches(msg, m.Keys.Back):
			m.step(-0.1)
		case key.Matches(msg, m.Keys.Forward):
			m.step(0.1)
		case key.Matches(msg, m.Keys.StepBack):
			m.step(-1)
		case key.Matches(msg, m.Keys.StepFwd):
			m.step(1)
		case key.Matches(msg, m.Keys.PageBack):
			m.step(-10)
		case key.Matches(msg, m.Keys.PageFwd):
			m.step(10)
		case key.Matches(msg, m.Keys.Start):
			m.seek(0)
		case key.Matches(msg, m.Keys.End):
			m.seek(100)
		case key.Matches(msg, m.Keys.Hold):
			m.Holding = !m.Holding
			m.refresh()
		case key.Matches(msg, m.Keys.Purge):
			purge := !m.Reader.Options().PurgeEmptyLayers
			m.Reader.SetOptions(model.OptionsPatch{PurgeEmptyLayers: &purge})
			m.Status = fmt.Sprintf("purge empty layers: %v", purge)
			m.refresh()
		case key.Matches(msg, m.Keys.Sort):
			sortLayers := !m.Reader.Options().SortLayers
			m.Reader.SetOptions(model.OptionsPatch{SortLayers: &sortLayers})
			m.Status = fmt.Sprintf("sort layers: %v", sortLayers)
			m.refresh()
		case key.Matches(msg, m.Keys.Copy):
			m.copyLayer()
		case key.Matches(msg, m.Keys.Export):
			m.exportPNG()
		case key.Matches(msg, m.Keys.Jump):
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		default:
			m.SourceViewport, cmd = m.SourceViewport.Update(msg)
		}
	}

	return m, cmd
}

func (m *AppModel) handleParser(msg model.Message) {
	if !m.Reader.Handle(msg) {
		return
	}
	switch msg := msg.(type) {
	case model.ProgressMsg:
		m.Progress = msg.Percentage
	case model.DoneMsg:
		m.Loading = false
		m.Progress = 100
		m.refresh()
	case model.AnalysisMsg:
		m.Status = "analysis complete"
	}
}

// step moves the playback position by delta percent. Held playback does
// not move.
func (m *AppModel) step(delta float64) {
	if m.Holding {
		return
	}
	m.seek(m.Percentage + delta)
}

func (m *AppModel) seek(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	m.Percentage = pct
	m.refresh()
}

func (m *AppModel) jump(value string) {
	pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "%"), 64)
	if err != nil {
		m.Status = fmt.Sprintf("not a percentage: %q", value)
		return
	}
	m.Holding = false
	m.seek(pct)
}

// refresh re-resolves the cursor. While holding, the reader is queried
// without a target and keeps its cached coordinate.
func (m *AppModel) refresh() {
	var target *float64
	if !m.Holding {
		pct := m.Percentage
		target = &pct
	}
	m.Cursor, m.HasCursor = m.Reader.CmdIndexForPercentage(target)
	m.syncSource()
}

// currentLine returns the source line of the command under the cursor.
func (m *AppModel) currentLine() (int, bool) {
	if !m.HasCursor {
		return 0, false
	}
	cmds, _ := m.Reader.Visible().Layer(m.Cursor.Layer)
	if m.Cursor.Command < 0 || m.Cursor.Command >= len(cmds) {
		return 0, false
	}
	return cmds[m.Cursor.Command].GcodeLine, true
}

func (m *AppModel) syncSource() {
	line, ok := m.currentLine()
	if !ok {
		m.SourceViewport.SetContent("")
		return
	}
	ctx := model.GetLineContext(m.Reader.Source(), line, sourceRadius)
	if ctx.ErrorMsg != "" {
		m.SourceViewport.SetContent(ctx.ErrorMsg)
		return
	}

	var b strings.Builder
	n := ctx.FirstLine
	for _, l := range ctx.Before {
		fmt.Fprintf(&b, "  %6d  %s\n", n, l)
		n++
	}
	b.WriteString(currentLineStyle.Render(fmt.Sprintf("%s %6d  %s", model.IconCurrent, n, ctx.Target)))
	n++
	for _, l := range ctx.After {
		fmt.Fprintf(&b, "\n  %6d  %s", n, l)
		n++
	}
	m.SourceViewport.SetContent(b.String())
}

// copyLayer puts the source lines of the current layer on the clipboard.
func (m *AppModel) copyLayer() {
	if !m.HasCursor {
		m.Status = "nothing to copy"
		return
	}
	cmds, _ := m.Reader.Visible().Layer(m.Cursor.Layer)
	lines, err := m.Reader.GCodeLines(m.Cursor.Layer, 0, len(cmds)-1)
	if err != nil {
		m.Status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	text := model.SliceLines(m.Reader.Source(), lines.First, lines.Last)
	if err := m.copyText(text); err != nil {
		m.Status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.Status = fmt.Sprintf("copied lines %d-%d", lines.First, lines.Last)
}

func (m *AppModel) exportPNG() {
	if !m.HasCursor || m.Canvas == nil {
		m.Status = "nothing to export"
		return
	}
	path := filepath.Join(m.ExportDir, fmt.Sprintf("layer-%04d.png", m.Cursor.Layer))
	opts := render.PNGOptions{Size: 800, Travels: true, Caption: m.caption()}
	if err := m.Canvas.SavePNG(path, m.Cursor.Layer, m.Cursor.Command, opts); err != nil {
		m.Status = fmt.Sprintf("export failed: %v", err)
		return
	}
	m.Status = "wrote " + path
}

func (m *AppModel) caption() string {
	caption := fmt.Sprintf("layer %d  %.1f%%", m.Cursor.Layer, m.Percentage)
	if z, ok := m.Reader.VisibleHeight(m.Cursor.Layer); ok {
		caption += fmt.Sprintf("  z=%s", z)
	}
	return caption
}

// waitForParser blocks on the worker until it has something to report.
func waitForParser(w *worker.Worker) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-w.Messages():
			return MsgParser{msg}
		case err := <-w.Errors():
			return MsgParseWarning{Err: err}
		}
	}
}

// Init starts the spinner and the load.
func (m AppModel) Init() tea.Cmd {
	raw := m.raw
	return tea.Batch(m.Spinner.Tick, func() tea.Msg { return MsgLoadFile{Raw: raw} })
}
