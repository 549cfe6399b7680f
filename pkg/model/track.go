package model

import "github.com/slipangle/rallyarcade/pkg/geom"

// SurfaceKind identifies the driving surface of a track region.
type SurfaceKind string

const (
	SurfaceAsphalt SurfaceKind = "asphalt"
	SurfaceDirt    SurfaceKind = "dirt"
	SurfaceGrass   SurfaceKind = "grass"
)

// Line is a start or finish gate: a segment of the given width centered at
// Position, facing the driving direction Angle.
type Line struct {
	Position geom.Vector2 `json:"position" yaml:"position"`
	Angle    float64      `json:"angle"    yaml:"angle"`
	Width    float64      `json:"width"    yaml:"width"`
}

// SurfaceRegion assigns a surface kind to a polygonal region.
type SurfaceRegion struct {
	Kind    SurfaceKind    `json:"kind"    yaml:"kind"`
	Polygon []geom.Vector2 `json:"polygon" yaml:"polygon"`
}

// TrackData is the track authoring format. This is what the editor exports
// and the runtime loader consumes.
type TrackData struct {
	Name        string          `json:"name"                 yaml:"name"`
	Outer       []geom.Vector2  `json:"outer"                yaml:"outer"`
	Inner       []geom.Vector2  `json:"inner"                yaml:"inner"`
	Surfaces    []SurfaceRegion `json:"surfaces,omitempty"   yaml:"surfaces,omitempty"`
	StartLine   Line            `json:"startLine"            yaml:"start_line"`
	FinishLine  *Line           `json:"finishLine,omitempty" yaml:"finish_line,omitempty"`
	Checkpoints []geom.Rect     `json:"checkpoints"          yaml:"checkpoints"`
}
