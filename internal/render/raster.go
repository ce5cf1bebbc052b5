package render

import (
	"math"
	"strings"
)

// Raster renders layer up to command upTo as width x height runes: '#'
// for extrusion, '.' for travel, '@' for the tool head. Every layer uses
// the frame of the whole model.
func (c *Canvas) Raster(layer, upTo, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	lines := func() []string {
		out := make([]string, height)
		for i, row := range grid {
			out[i] = string(row)
		}
		return out
	}

	cmds, err := c.moves(layer, upTo)
	if err != nil {
		return lines()
	}
	b, ok := c.extent()
	if !ok {
		return lines()
	}

	span := math.Max(b.width(), b.height())
	if span == 0 {
		span = 1
	}
	// Terminal cells are roughly twice as tall as wide.
	sx := math.Min(float64(width-1)/span, 2*float64(height-1)/span)
	sy := sx / 2
	cell := func(x, y float64) (int, int) {
		col := int(math.Round((x - b.minX) * sx))
		row := height - 1 - int(math.Round((y-b.minY)*sy))
		return col, row
	}
	plot := func(col, row int, r rune) {
		if row < 0 || row >= height || col < 0 || col >= width {
			return
		}
		if grid[row][col] == '#' && r == '.' {
			return
		}
		grid[row][col] = r
	}

	for _, cmd := range cmds {
		r := '.'
		if cmd.Extrude {
			r = '#'
		}
		c0, r0 := cell(cmd.PrevX, cmd.PrevY)
		c1, r1 := cell(cmd.X, cmd.Y)
		steps := max(abs(c1-c0), abs(r1-r0))
		for s := 0; s <= steps; s++ {
			t := 0.0
			if steps > 0 {
				t = float64(s) / float64(steps)
			}
			plot(c0+int(math.Round(t*float64(c1-c0))), r0+int(math.Round(t*float64(r1-r0))), r)
		}
	}
	head := cmds[len(cmds)-1]
	hc, hr := cell(head.X, head.Y)
	plot(hc, hr, '@')

	return lines()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
