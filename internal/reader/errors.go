// Package reader assembles parsed gcode layers into a navigable model and
// maps playback percentages onto (layer, command) coordinates.
package reader

import "errors"

// Load errors
var (
	// ErrEmptyFile indicates that the input has no bytes to index.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNegativeSize indicates a byte size below zero was supplied.
	ErrNegativeSize = errors.New("negative byte size")
)

// Query errors
var (
	// ErrNoModel indicates that no model has been assembled yet.
	ErrNoModel = errors.New("no model loaded")

	// ErrLayerOutOfRange indicates a layer or command index outside the
	// visible model.
	ErrLayerOutOfRange = errors.New("layer or command out of range")
)
