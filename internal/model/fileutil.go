package model

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LineContext represents a span of source lines around a target line
type LineContext struct {
	Before     []string // Lines preceding the target, oldest first
	Target     string   // The actual target line
	After      []string // Lines following the target
	LineNumber int      // 1-based line number of the target
	FirstLine  int      // Line number of Before[0] (or the target)
	ErrorMsg   string   // Set when the target is out of range
}

// GetLineContext returns the target line with up to radius lines of
// context on each side.
func GetLineContext(lines []string, lineNumber, radius int) LineContext {
	result := LineContext{
		LineNumber: lineNumber,
		FirstLine:  lineNumber,
	}

	// Check if line number is valid
	if lineNumber < 1 || lineNumber > len(lines) {
		result.ErrorMsg = fmt.Sprintf("Line %d out of range (file has %d lines)", lineNumber, len(lines))
		return result
	}

	// Get the target line (convert to 0-indexed)
	idx := lineNumber - 1
	result.Target = lines[idx]

	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + radius + 1
	if end > len(lines) {
		end = len(lines)
	}
	result.Before = lines[start:idx]
	result.After = lines[idx+1 : end]
	result.FirstLine = start + 1

	return result
}

// SliceLines returns lines first..last (1-based, inclusive) joined by
// newlines. Out-of-range bounds are clamped.
func SliceLines(lines []string, first, last int) string {
	if first > last {
		first, last = last, first
	}
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	if first > last {
		return ""
	}
	return strings.Join(lines[first-1:last], "\n")
}

// ReadFile reads a gcode file, expanding a leading ~.
func ReadFile(filePath string) (string, error) {
	// Expand tilde in file path
	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			filePath = strings.Replace(filePath, "~", home, 1)
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("could not read file: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	reader := bufio.NewReaderSize(file, 1024*1024)
	if _, err := reader.WriteTo(&b); err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return b.String(), nil
}
