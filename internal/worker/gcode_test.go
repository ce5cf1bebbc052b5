package worker

import (
	"testing"

	"layerscope/internal/model"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		text   string
		ok     bool
		code   string
		params map[byte]float64
	}{
		{"G1 X10.5 Y-3 E.25 F1800", true, "G1", map[byte]float64{'X': 10.5, 'Y': -3, 'E': 0.25, 'F': 1800}},
		{"g01 x1", true, "G1", map[byte]float64{'X': 1}},
		{"G0", true, "G0", map[byte]float64{}},
		{"G10", true, "G10", map[byte]float64{}},
		{"T1", true, "T1", map[byte]float64{}},
		{"M83 ; relative extrusion", true, "M83", map[byte]float64{}},
		{"; only a comment", false, "", nil},
		{"   ", false, "", nil},
		{"HELLO", false, "", nil},
	}

	for _, tt := range tests {
		in, ok, err := Decode(model.SourceLine{Text: tt.text, Number: 7})
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.text, err)
		}
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.text, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if in.Code != tt.code {
			t.Errorf("%q: expected code %s, got %s", tt.text, tt.code, in.Code)
		}
		if len(in.Params) != len(tt.params) {
			t.Errorf("%q: expected %d params, got %v", tt.text, len(tt.params), in.Params)
		}
		for k, v := range tt.params {
			if in.Params[k] != v {
				t.Errorf("%q: param %c expected %v, got %v", tt.text, k, v, in.Params[k])
			}
		}
		if in.Line.Number != 7 {
			t.Errorf("%q: expected source line to be kept", tt.text)
		}
	}
}

func step(t *testing.T, m *machine, text string) (model.Command, bool) {
	t.Helper()
	in, ok, err := Decode(model.SourceLine{Text: text})
	if err != nil || !ok {
		t.Fatalf("Decode(%q) failed: ok=%v err=%v", text, ok, err)
	}
	return m.Step(in)
}

func TestMachineAbsoluteExtrusion(t *testing.T) {
	m := newMachine(model.DefaultOptions())

	c, _ := step(t, m, "G1 X10 Y0 E2 F1200")
	if !c.Extrude || c.E != 2 || c.Speed != 1200 {
		t.Errorf("Expected extruding move with E=2, got %+v", c)
	}
	c, _ = step(t, m, "G1 E1.5")
	if c.Extrude || c.Retract != -1 || c.E != -0.5 {
		t.Errorf("Expected retract of 0.5, got %+v", c)
	}
	c, _ = step(t, m, "G1 E2")
	if c.Retract != 1 {
		t.Errorf("Expected unretract, got %+v", c)
	}
	step(t, m, "G92 E0")
	c, _ = step(t, m, "G1 X20 E1")
	if !c.Extrude || c.E != 1 {
		t.Errorf("Expected E reset by G92, got %+v", c)
	}
}

func TestMachineRelativeModes(t *testing.T) {
	m := newMachine(model.DefaultOptions())

	step(t, m, "M83")
	step(t, m, "G1 X5 E1")
	c, _ := step(t, m, "G1 X10 E1")
	if c.E != 1 || !c.Extrude {
		t.Errorf("Expected relative E of 1, got %+v", c)
	}

	step(t, m, "G91")
	c, _ = step(t, m, "G1 X2 Y3")
	if c.X != 12 || c.Y != 3 || c.PrevX != 10 {
		t.Errorf("Expected relative XY move to (12,3), got %+v", c)
	}

	// G90 leaves extruder mode alone unless configured otherwise.
	step(t, m, "G90")
	c, _ = step(t, m, "G1 X0 E1")
	if c.E != 1 {
		t.Errorf("Expected extruder to stay relative, got E=%v", c.E)
	}
}

func TestMachineG90InfluencesExtruder(t *testing.T) {
	opts := model.DefaultOptions()
	opts.G90InfluencesExtruder = true
	m := newMachine(opts)

	step(t, m, "G91")
	step(t, m, "G1 X1 E1")
	c, _ := step(t, m, "G1 X1 E1")
	if c.E != 1 {
		t.Errorf("Expected G91 to make E relative, got %v", c.E)
	}
	step(t, m, "G90")
	c, _ = step(t, m, "G1 X5 E3")
	if c.E != 1 {
		t.Errorf("Expected G90 to make E absolute (3-2), got %v", c.E)
	}
}

func TestMachineToolOffsetsAndHome(t *testing.T) {
	opts := model.DefaultOptions()
	opts.ToolOffsets = []model.Offset{{}, {X: 20, Y: -5}}
	opts.BedZ = 0.3
	m := newMachine(opts)

	if m.z != 0.3 {
		t.Errorf("Expected initial Z from bed Z, got %v", m.z)
	}
	if _, ok := step(t, m, "T1"); ok {
		t.Error("Tool change should not produce a command")
	}
	c, _ := step(t, m, "G1 X10 Y10")
	if c.X != 30 || c.Y != 5 || c.Tool != 1 {
		t.Errorf("Expected offset position (30,5) on tool 1, got %+v", c)
	}

	c, ok := step(t, m, "G28 X")
	if !ok || c.X != 0 || c.Y != 5 {
		t.Errorf("Expected X-only home, got %+v", c)
	}
	c, _ = step(t, m, "G28")
	if c.X != 0 || c.Y != 0 || c.Z != 0 {
		t.Errorf("Expected full home, got %+v", c)
	}
}

func TestMachineFirmwareRetract(t *testing.T) {
	m := newMachine(model.DefaultOptions())
	c, ok := step(t, m, "G10")
	if !ok || c.Retract != -1 || c.Extrude {
		t.Errorf("Expected firmware retract, got %+v", c)
	}
	c, _ = step(t, m, "G11")
	if c.Retract != 1 {
		t.Errorf("Expected firmware unretract, got %+v", c)
	}
}
