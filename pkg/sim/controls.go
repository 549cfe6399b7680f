package sim

import "github.com/slipangle/rallyarcade/pkg/geom"

// Controls is the per-step input vector. It is consumed by the step that
// receives it and not retained.
type Controls struct {
	Steer     float64 `json:"steer"`    // [-1,1]
	Throttle  float64 `json:"throttle"` // [0,1]
	Brake     float64 `json:"brake"`    // [0,1]
	Handbrake bool    `json:"handbrake"`
}

func clampControls(in Controls) Controls {
	in.Steer = geom.Clamp(in.Steer, -1, 1)
	in.Throttle = geom.Clamp(in.Throttle, 0, 1)
	in.Brake = geom.Clamp(in.Brake, 0, 1)
	return in
}
