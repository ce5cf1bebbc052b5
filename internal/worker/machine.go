package worker

import (
	"strconv"

	"layerscope/internal/model"
)

// machine tracks printer state while commands are decoded.
type machine struct {
	opts model.Options

	x, y, z, e   float64
	relative     bool // G91
	extrRelative bool // M83
	tool         int
	speed        float64
}

func newMachine(opts model.Options) *machine {
	return &machine{
		opts: opts,
		z:    opts.BedZ,
	}
}

func (m *machine) offset() model.Offset {
	if m.tool >= 0 && m.tool < len(m.opts.ToolOffsets) {
		return m.opts.ToolOffsets[m.tool]
	}
	return model.Offset{}
}

// Step applies in to the machine state and returns the command it
// produces, if it is a move.
func (m *machine) Step(in Instruction) (model.Command, bool) {
	switch in.Code {
	case "G0", "G1", "G2", "G3":
		return m.move(in), true
	case "G28":
		return m.home(in), true
	case "G10":
		return m.firmwareRetract(in, -1), true
	case "G11":
		return m.firmwareRetract(in, 1), true
	case "G90":
		m.relative = false
		if m.opts.G90InfluencesExtruder {
			m.extrRelative = false
		}
	case "G91":
		m.relative = true
		if m.opts.G90InfluencesExtruder {
			m.extrRelative = true
		}
	case "M82":
		m.extrRelative = false
	case "M83":
		m.extrRelative = true
	case "G92":
		if v, ok := in.Params['X']; ok {
			m.x = v
		}
		if v, ok := in.Params['Y']; ok {
			m.y = v
		}
		if v, ok := in.Params['Z']; ok {
			m.z = v
		}
		if v, ok := in.Params['E']; ok {
			m.e = v
		}
		if len(in.Params) == 0 {
			m.x, m.y, m.z, m.e = 0, 0, 0, 0
		}
	default:
		if in.Code[0] == 'T' {
			if n, err := strconv.Atoi(in.Code[1:]); err == nil {
				m.tool = n
			}
		}
	}
	return model.Command{}, false
}

func (m *machine) command(in Instruction) model.Command {
	return model.Command{
		Percentage: in.Line.Percentage,
		GcodeLine:  in.Line.Number,
		PrevX:      m.x,
		PrevY:      m.y,
		PrevZ:      m.z,
		Tool:       m.tool,
	}
}

func (m *machine) move(in Instruction) model.Command {
	c := m.command(in)
	off := m.offset()

	axis := func(letter byte, cur, offset float64) float64 {
		v, ok := in.Params[letter]
		if !ok {
			return cur
		}
		if m.relative {
			return cur + v
		}
		return v + offset
	}
	m.x = axis('X', m.x, off.X)
	m.y = axis('Y', m.y, off.Y)
	m.z = axis('Z', m.z, 0)

	de := 0.0
	if v, ok := in.Params['E']; ok {
		if m.extrRelative {
			de = v
			m.e += v
		} else {
			de = v - m.e
			m.e = v
		}
	}
	if v, ok := in.Params['F']; ok {
		m.speed = v
	}

	c.X, c.Y, c.Z = m.x, m.y, m.z
	c.E = de
	c.Speed = m.speed

	moved := c.X != c.PrevX || c.Y != c.PrevY
	switch {
	case de > 0 && moved:
		c.Extrude = true
	case de < 0:
		c.Retract = -1
	case de > 0:
		c.Retract = 1
	}
	return c
}

func (m *machine) home(in Instruction) model.Command {
	c := m.command(in)
	all := !in.Has('X') && !in.Has('Y') && !in.Has('Z')
	if all || in.Has('X') {
		m.x = 0
	}
	if all || in.Has('Y') {
		m.y = 0
	}
	if all || in.Has('Z') {
		m.z = 0
	}
	c.X, c.Y, c.Z = m.x, m.y, m.z
	c.Speed = m.speed
	return c
}

func (m *machine) firmwareRetract(in Instruction, dir int) model.Command {
	c := m.command(in)
	c.X, c.Y, c.Z = m.x, m.y, m.z
	c.Retract = dir
	c.Speed = m.speed
	return c
}
