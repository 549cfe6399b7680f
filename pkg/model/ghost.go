package model

import "github.com/slipangle/rallyarcade/pkg/geom"

// GhostSample is one recorded vehicle state, taken once per physics step.
type GhostSample struct {
	Position    geom.Vector2 `json:"position"`
	Heading     float64      `json:"heading"`
	Speed       float64      `json:"speed"`
	SlipAngle   float64      `json:"slipAngle"`
	TimestampMs int64        `json:"timestampMs"`
}

// GhostTrace is a complete recorded attempt. Immutable once recorded.
type GhostTrace struct {
	ID        string        `json:"id"`
	TrackName string        `json:"trackName"`
	StageTime float64       `json:"stageTime"`
	FrameRate int           `json:"frameRate"`
	Samples   []GhostSample `json:"samples"`
}
