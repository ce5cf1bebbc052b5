// Package config loads reader options from a key = value file.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"layerscope/internal/model"
)

// FileName is looked up in the home directory when no path is given.
const FileName = ".layerscoperc"

// DefaultPath returns ~/.layerscoperc, or "" when the home directory is
// unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, FileName)
}

// Load reads options from path. A missing file yields the defaults.
func Load(path string) (model.Options, error) {
	opts := model.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	patch, err := Parse(file)
	if err != nil {
		return opts, fmt.Errorf("%s: %w", path, err)
	}
	opts.Apply(patch)
	return opts, nil
}

// Parse reads key = value lines into a patch. Blank lines and lines
// starting with # are skipped, as are unknown keys.
func Parse(r io.Reader) (model.OptionsPatch, error) {
	var patch model.OptionsPatch
	var bed *model.Bed

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		bedField := func() *model.Bed {
			if bed == nil {
				bed = &model.Bed{}
			}
			return bed
		}

		var err error
		switch key {
		case "sort_layers", "sortlayers":
			patch.SortLayers, err = parseBool(value)
		case "purge_empty_layers", "purgeemptylayers":
			patch.PurgeEmptyLayers, err = parseBool(value)
		case "analyze_model", "analyzemodel":
			patch.AnalyzeModel, err = parseBool(value)
		case "ignore_outside_bed", "ignoreoutsidebed":
			patch.IgnoreOutsideBed, err = parseBool(value)
		case "g90_influences_extruder", "g90influencesextruder":
			patch.G90InfluencesExtruder, err = parseBool(value)
		case "bed_z", "bedz":
			patch.BedZ, err = parseFloat(value)
		case "tool_offsets", "tooloffsets":
			patch.ToolOffsets, err = ParseOffsets(value)
		case "bed_x":
			err = setFloat(&bedField().X, value)
		case "bed_y":
			err = setFloat(&bedField().Y, value)
		case "bed_r":
			err = setFloat(&bedField().R, value)
		case "bed_circular":
			err = setBool(&bedField().Circular, value)
		case "bed_centered_origin":
			err = setBool(&bedField().CenteredOrigin, value)
		}
		if err != nil {
			return patch, fmt.Errorf("line %d (%s): %w", lineNum, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return patch, err
	}
	patch.Bed = bed
	return patch, nil
}

// ParseOffsets reads "x,y;x,y" into per-tool offsets.
func ParseOffsets(value string) ([]model.Offset, error) {
	var offsets []model.Offset
	for _, pair := range strings.Split(value, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("offset %q: want x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("offset %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("offset %q: %w", pair, err)
		}
		offsets = append(offsets, model.Offset{X: x, Y: y})
	}
	return offsets, nil
}

func parseBool(value string) (*bool, error) {
	var b bool
	if err := setBool(&b, value); err != nil {
		return nil, err
	}
	return &b, nil
}

func parseFloat(value string) (*float64, error) {
	var f float64
	if err := setFloat(&f, value); err != nil {
		return nil, err
	}
	return &f, nil
}

func setBool(dst *bool, value string) error {
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", value)
	}
	return nil
}

func setFloat(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}
