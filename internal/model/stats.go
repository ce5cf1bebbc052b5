package model

// Vec3 holds one value per axis. Values are meaningless until the first
// analysis arrives.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox is the extent of all extruding moves.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// SpeedTable lists the distinct feed rates (mm/min) seen per move kind.
type SpeedTable struct {
	Extrude []float64 `json:"extrude"`
	Move    []float64 `json:"move"`
	Retract []float64 `json:"retract"`
}

// Empty reports whether no speeds were recorded.
func (s SpeedTable) Empty() bool {
	return len(s.Extrude) == 0 && len(s.Move) == 0 && len(s.Retract) == 0
}

// Stats is the aggregate payload of a completed analysis. Per-layer maps
// are keyed by layer height.
type Stats struct {
	Min              Vec3                  `json:"min"`
	Max              Vec3                  `json:"max"`
	ModelSize        Vec3                  `json:"modelSize"`
	BoundingBox      BoundingBox           `json:"boundingBox"`
	TotalFilament    float64               `json:"totalFilament"`
	FilamentByLayer  map[Height]float64    `json:"filamentByLayer"`
	Speeds           SpeedTable            `json:"speeds"`
	SpeedsByLayer    map[Height]SpeedTable `json:"speedsByLayer"`
	PrintTime        float64               `json:"printTime"`
	PrintTimeByLayer map[Height]float64    `json:"printTimeByLayer"`
}
