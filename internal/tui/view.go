package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"layerscope/internal/model"
	"layerscope/internal/reader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	currentLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true) // Sky Blue/Cyan

	adviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange

	headStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	borderColor = lipgloss.Color("63")
)

func (m AppModel) View() string {
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}
	if m.Loading {
		return fmt.Sprintf("\n  %s Parsing %s... %.0f%%\n", m.Spinner.View(), filepath.Base(m.Path), m.Progress)
	}

	width := m.WindowSize.Width
	height := m.WindowSize.Height

	netWidth := width - 6
	if netWidth < 40 {
		netWidth = 40
	}
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	boxHeight := height - 6
	if boxHeight < 10 {
		boxHeight = 10
	}
	interiorHeight := boxHeight - 2

	header := titleStyle.Render("layerscope "+model.Version) + " " + dimStyle.Render(m.Path)

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.renderLayer(leftWidth, interiorHeight))

	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.renderDetails(rightWidth, interiorHeight))

	footer := "\n" + m.Help.View(m.Keys)
	if m.InputMode {
		footer = fmt.Sprintf("\nJump to %%: %s", m.InputBuffer.View())
	}
	if m.Status != "" {
		footer = "\n" + adviceStyle.Render(m.Status) + footer
	}

	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

// renderLayer draws the current layer as a character raster.
func (m AppModel) renderLayer(width, height int) string {
	if !m.HasCursor || m.Canvas == nil {
		return dimStyle.Render("No layers to show.")
	}
	rows := m.Canvas.Raster(m.Cursor.Layer, m.Cursor.Command, width, height-1)
	if len(rows) == 0 {
		return headingStyle.Render(fmt.Sprintf("Layer %d", m.Cursor.Layer)) + "\n" +
			dimStyle.Render(model.IconEmpty+" no moves")
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Layer %d", m.Cursor.Layer)))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.ReplaceAll(row, "@", headStyle.Render("@")))
	}
	return b.String()
}

func (m AppModel) renderDetails(width, height int) string {
	var b strings.Builder
	r := m.Reader

	b.WriteString(headingStyle.Render("Playback"))
	b.WriteString("\n")

	hold := ""
	if m.Holding {
		hold = " " + model.IconHold + " held"
	}
	fmt.Fprintf(&b, "Position:  %6.2f%%%s\n", m.Percentage, hold)

	if m.HasCursor {
		approx := ""
		if m.Cursor.Approximate {
			approx = " " + model.IconApprox + " approximate"
		}
		cmds, _ := r.Visible().Layer(m.Cursor.Layer)
		fmt.Fprintf(&b, "Layer:     %d / %d%s\n", m.Cursor.Layer, r.Visible().Len()-1, approx)
		fmt.Fprintf(&b, "Command:   %d / %d\n", m.Cursor.Command, len(cmds))
		if m.Cursor.Layer < len(r.Ranges()) {
			rg := r.Ranges()[m.Cursor.Layer]
			fmt.Fprintf(&b, "Range:     %s\n", formatRange(rg))
		}
		if z, ok := r.VisibleHeight(m.Cursor.Layer); ok {
			fmt.Fprintf(&b, "Height:    %s mm\n", z)
			if f, ok := r.LayerFilament(z); ok {
				fmt.Fprintf(&b, "Filament:  %.2f mm\n", f)
			}
			if sec, ok := r.LayerPrintTime(z); ok {
				fmt.Fprintf(&b, "Time:      %s\n", reader.FormatDuration(sec))
			}
			if speeds := r.LayerSpeeds(z); !speeds.Empty() {
				fmt.Fprintf(&b, "Speeds:    extrude %v  move %v\n", speeds.Extrude, speeds.Move)
			}
		}
	} else {
		b.WriteString(dimStyle.Render("No position resolved."))
		b.WriteString("\n")
	}

	if stats, ok := r.ModelInfo(); ok {
		fmt.Fprintf(&b, "Model:     %.1f x %.1f x %.1f mm, %.0f mm filament, %s\n",
			stats.ModelSize.X, stats.ModelSize.Y, stats.ModelSize.Z,
			stats.TotalFilament, reader.FormatDuration(stats.PrintTime))
	}
	opts := r.Options()
	fmt.Fprintf(&b, "Options:   purge=%v sort=%v", opts.PurgeEmptyLayers, opts.SortLayers)
	if m.Warnings > 0 {
		fmt.Fprintf(&b, " warnings=%d", m.Warnings)
	}
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("Layers"))
	b.WriteString("\n")
	b.WriteString(m.renderLayerList(width, 5))
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("Source"))
	b.WriteString("\n")

	used := strings.Count(b.String(), "\n")
	vp := m.SourceViewport
	vp.Width = width
	vp.Height = height - used
	if vp.Height < 1 {
		vp.Height = 1
	}
	b.WriteString(vp.View())

	return b.String()
}

// renderLayerList shows a window of visible layers centred on the cursor.
func (m AppModel) renderLayerList(width, rows int) string {
	infos := m.Reader.LayerInfos()
	if len(infos) == 0 {
		return dimStyle.Render(model.IconAbsent + " no visible layers")
	}

	selected := 0
	if m.HasCursor {
		selected = m.Cursor.Layer
	}
	start := selected - rows/2
	if start+rows > len(infos) {
		start = len(infos) - rows
	}
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(infos) {
		end = len(infos)
	}

	lines := make([]string, 0, end-start)
	for _, info := range infos[start:end] {
		icon := model.IconTravel
		switch {
		case info.Commands == 0:
			icon = model.IconEmpty
		case info.Extruding > 0:
			icon = model.IconExtrude
		}
		marker := " "
		if info.Index == 0 {
			marker = model.IconFirst
		} else if info.Index == len(infos)-1 {
			marker = model.IconLast
		}
		line := fmt.Sprintf("%s%4d %s z=%-6.2f %5d cmds  %s", marker, info.Index, icon, info.Height, info.Commands, formatRange(info.Range))
		if info.Index == selected && m.HasCursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatRange(rg model.Range) string {
	if !rg.Valid() {
		return "[-]"
	}
	if rg.End < 0 {
		return fmt.Sprintf("[%.2f, ?)", rg.Start)
	}
	return fmt.Sprintf("[%.2f, %.2f)", rg.Start, rg.End)
}
