package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

var (
	extrudeColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	travelColor  = color.RGBA{R: 0xc0, G: 0xc0, B: 0xd8, A: 0xff}
	headColor    = color.RGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff}
)

// PNGOptions controls image output.
type PNGOptions struct {
	Size    int    // Edge length in pixels of the square image
	Travels bool   // Draw non-extruding moves
	Caption string // Text drawn in the top-left corner
}

// DrawLayer renders layer up to command upTo (negative for all) into an
// image. The last drawn command is marked as the tool head.
func (c *Canvas) DrawLayer(layer, upTo int, opts PNGOptions) (image.Image, error) {
	cmds, err := c.moves(layer, upTo)
	if err != nil {
		return nil, err
	}
	b, ok := c.extent()
	if !ok {
		return nil, ErrNothingToDraw
	}
	size := opts.Size
	if size <= 0 {
		size = 800
	}

	// Add padding
	padding := 20.0
	span := b.width()
	if b.height() > span {
		span = b.height()
	}
	if span == 0 {
		span = 1
	}
	scale := (float64(size) - 2*padding) / span
	px := func(x float64) float64 { return padding + (x-b.minX)*scale }
	py := func(y float64) float64 { return float64(size) - padding - (y-b.minY)*scale }

	dc := gg.NewContext(size, size)
	dc.SetColor(color.White)
	dc.Clear()

	for _, cmd := range cmds {
		if !cmd.Extrude && !opts.Travels {
			continue
		}
		if cmd.Extrude {
			dc.SetColor(extrudeColor)
			dc.SetLineWidth(1.5)
		} else {
			dc.SetColor(travelColor)
			dc.SetLineWidth(0.5)
		}
		dc.DrawLine(px(cmd.PrevX), py(cmd.PrevY), px(cmd.X), py(cmd.Y))
		dc.Stroke()
	}

	head := cmds[len(cmds)-1]
	dc.SetColor(headColor)
	dc.DrawCircle(px(head.X), py(head.Y), 3)
	dc.Fill()

	if opts.Caption != "" {
		// Load font for text rendering
		ttfFont, err := truetype.Parse(gomono.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		face := truetype.NewFace(ttfFont, &truetype.Options{
			Size:    12,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		dc.SetFontFace(face)
		dc.SetColor(color.Black)
		dc.DrawString(opts.Caption, 8, 16)
	}

	return dc.Image(), nil
}

// SavePNG writes DrawLayer's output to path.
func (c *Canvas) SavePNG(path string, layer, upTo int, opts PNGOptions) error {
	img, err := c.DrawLayer(layer, upTo, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
