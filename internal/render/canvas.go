// Package render draws layers of a published model.
package render

import (
	"errors"
	"math"

	"layerscope/internal/model"
)

// ErrNothingToDraw is returned when the requested layer has no moves.
var ErrNothingToDraw = errors.New("nothing to draw")

// Canvas keeps the last model published by the reader and draws its
// layers on request.
type Canvas struct {
	layers *model.Layers
	layer  int
	count  int // publishes received
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

// Publish stores the visible model. layer is the layer to show first.
func (c *Canvas) Publish(layers *model.Layers, layer int) {
	c.layers = layers
	c.layer = layer
	c.count++
}

// Layers returns the last published model.
func (c *Canvas) Layers() *model.Layers { return c.layers }

// Current returns the layer requested by the last publish.
func (c *Canvas) Current() int { return c.layer }

// Publishes returns how many models have been published so far.
func (c *Canvas) Publishes() int { return c.count }

// bounds is the XY extent of a set of moves.
type bounds struct {
	minX, minY, maxX, maxY float64
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

// extent returns the XY extent of the extrusions of every layer, so
// successive layers share one frame.
func (c *Canvas) extent() (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	found := false
	for i := 0; i < c.layers.Len(); i++ {
		cmds, _ := c.layers.Layer(i)
		for _, cmd := range cmds {
			if !cmd.Extrude {
				continue
			}
			found = true
			b.minX = math.Min(b.minX, math.Min(cmd.PrevX, cmd.X))
			b.maxX = math.Max(b.maxX, math.Max(cmd.PrevX, cmd.X))
			b.minY = math.Min(b.minY, math.Min(cmd.PrevY, cmd.Y))
			b.maxY = math.Max(b.maxY, math.Max(cmd.PrevY, cmd.Y))
		}
	}
	return b, found
}

// moves returns the commands of layer up to and including upTo. A
// negative upTo means the whole layer.
func (c *Canvas) moves(layer, upTo int) ([]model.Command, error) {
	cmds, _ := c.layers.Layer(layer)
	if len(cmds) == 0 {
		return nil, ErrNothingToDraw
	}
	if upTo >= 0 && upTo < len(cmds) {
		cmds = cmds[:upTo+1]
	}
	return cmds, nil
}
