package worker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"layerscope/internal/model"
)

// Instruction is one decoded gcode line.
type Instruction struct {
	Code   string           // e.g. "G1", "M83", "T1"
	Params map[byte]float64 // parameter letter -> value
	Line   model.SourceLine
}

// Has reports whether the parameter letter was present.
func (in Instruction) Has(letter byte) bool {
	_, ok := in.Params[letter]
	return ok
}

var (
	// Code: G/M/T followed by a number, leading zeros allowed (G01).
	codeRe = regexp.MustCompile(`^([GMT])0*(\d+)`)
	// Param: letter followed by an optionally signed decimal. A bare
	// letter (G28 X) counts as present with value 0.
	paramRe = regexp.MustCompile(`([A-Z])\s*([-+]?(?:\d+\.?\d*|\.\d+))?`)
)

// Decode parses a single source line. ok is false for blank and
// comment-only lines. Unparseable parameter values are reported through
// err but do not stop decoding.
func Decode(line model.SourceLine) (in Instruction, ok bool, err error) {
	text := line.Text
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return Instruction{}, false, nil
	}

	m := codeRe.FindStringSubmatch(text)
	if m == nil {
		return Instruction{}, false, nil
	}

	in = Instruction{
		Code:   m[1] + m[2],
		Params: make(map[byte]float64),
		Line:   line,
	}
	rest := text[len(m[0]):]
	for _, p := range paramRe.FindAllStringSubmatch(rest, -1) {
		if p[2] == "" {
			in.Params[p[1][0]] = 0
			continue
		}
		v, perr := strconv.ParseFloat(p[2], 64)
		if perr != nil {
			err = fmt.Errorf("line %d: parameter %s: %w", line.Number, p[1], perr)
			continue
		}
		in.Params[p[1][0]] = v
	}
	return in, true, err
}
