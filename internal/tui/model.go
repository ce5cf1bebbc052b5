package tui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"layerscope/internal/model"
	"layerscope/internal/reader"
	"layerscope/internal/render"
	"layerscope/internal/worker"
)

// AppModel holds the TUI state. The reader is only touched from Update,
// which bubbletea runs on a single goroutine.
type AppModel struct {
	// Data
	Reader *reader.Reader
	Worker *worker.Worker
	Canvas *render.Canvas
	Path   string
	raw    string

	Loading  bool
	Progress float64
	Err      error
	Status   string
	Warnings int

	// Playback
	Percentage float64
	Holding    bool
	Cursor     model.Coordinate
	HasCursor  bool

	// UI State
	WindowSize tea.WindowSizeMsg
	ShowHelp   bool
	ExportDir  string

	// Jump State
	InputMode   bool
	InputBuffer textinput.Model

	// Components
	Spinner        spinner.Model
	SourceViewport viewport.Model
	Help           help.Model
	Keys           keyMap

	copyText func(string) error
}

// InitialModel returns the state before raw has been handed to the reader.
func InitialModel(r *reader.Reader, w *worker.Worker, c *render.Canvas, path, raw string) AppModel {
	ti := textinput.New()
	ti.Placeholder = "0-100"
	ti.CharLimit = 8
	ti.Width = 10

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return AppModel{
		Reader:         r,
		Worker:         w,
		Canvas:         c,
		Path:           path,
		raw:            raw,
		Loading:        true,
		Percentage:     100,
		InputBuffer:    ti,
		Spinner:        sp,
		SourceViewport: viewport.New(40, 10),
		Help:           help.New(),
		Keys:           defaultKeyMap(),
		ExportDir:      ".",
		copyText:       clipboard.WriteAll,
	}
}
