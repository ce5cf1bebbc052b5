package reader

import (
	"fmt"
	"strings"

	"layerscope/internal/model"
)

// Prepare splits raw gcode into lines and annotates each with the share of
// totalSize consumed once that line and its line ending have been read.
func Prepare(raw string, totalSize int) ([]model.SourceLine, error) {
	if totalSize < 0 {
		return nil, fmt.Errorf("prepare %d bytes: %w", totalSize, ErrNegativeSize)
	}
	if totalSize == 0 {
		return nil, ErrEmptyFile
	}

	texts := strings.Split(raw, "\n")
	lines := make([]model.SourceLine, 0, len(texts))
	byteCount := 0
	for i, text := range texts {
		byteCount += len(text) + 1 // line length + line ending
		pct := float64(byteCount) * 100 / float64(totalSize)
		if pct > 100 {
			pct = 100
		}
		lines = append(lines, model.SourceLine{
			Text:       strings.TrimSuffix(text, "\r"),
			Number:     i + 1,
			Percentage: pct,
		})
	}
	return lines, nil
}
