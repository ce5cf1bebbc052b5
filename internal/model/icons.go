package model

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconCurrent = "▸" // Layer under the playback cursor
	IconExtrude = "■" // Layer deposits material
	IconTravel  = "·" // Layer holds only travel moves
	IconEmpty   = "○" // Present but empty
	IconAbsent  = "✗" // Never populated
	IconHold    = "‖" // Playback held at cached position
	IconApprox  = "≈" // Lookup landed outside a bracketing range
	IconFirst   = "¹" // First visible layer
	IconLast    = "¶" // Last visible layer
)
