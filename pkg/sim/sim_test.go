//nolint:funlen // ok for tests
package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slipangle/rallyarcade/pkg/geom"
	"github.com/slipangle/rallyarcade/pkg/model"
	"github.com/slipangle/rallyarcade/pkg/track"
)

// stripData is a long straight corridor: start gate on the left, two
// checkpoints, finish gate on the right. The inner boundary is a small
// obstacle box away from the racing line.
func stripData() *model.TrackData {
	return &model.TrackData{
		Name:  "test-strip",
		Outer: []geom.Vector2{geom.V(0, 0), geom.V(2000, 0), geom.V(2000, 400), geom.V(0, 400)},
		Inner: []geom.Vector2{geom.V(950, 340), geom.V(990, 340), geom.V(990, 380), geom.V(950, 380)},
		StartLine: model.Line{
			Position: geom.V(100, 200), Angle: 0, Width: 400,
		},
		FinishLine: &model.Line{
			Position: geom.V(1800, 200), Angle: 0, Width: 400,
		},
		Checkpoints: []geom.Rect{
			{Position: geom.V(600, 200), Width: 40, Height: 400},
			{Position: geom.V(1200, 200), Width: 40, Height: 400},
		},
	}
}

func stripTrack(t *testing.T) *track.Track {
	t.Helper()
	trk, err := track.New(stripData())
	require.NoError(t, err)
	return trk
}

// ringData is a square annulus used for collision-heavy tests.
func ringData() *model.TrackData {
	return &model.TrackData{
		Name:  "test-ring",
		Outer: []geom.Vector2{geom.V(0, 0), geom.V(400, 0), geom.V(400, 400), geom.V(0, 400)},
		Inner: []geom.Vector2{geom.V(100, 100), geom.V(300, 100), geom.V(300, 300), geom.V(100, 300)},
		StartLine: model.Line{
			Position: geom.V(200, 50), Angle: 0, Width: 100,
		},
		Checkpoints: []geom.Rect{
			{Position: geom.V(350, 200), Width: 100, Height: 40},
		},
	}
}

func ringTrack(t *testing.T) *track.Track {
	t.Helper()
	trk, err := track.New(ringData())
	require.NoError(t, err)
	return trk
}

const testDt = 1.0 / 120.0

func drive(v *Vehicle, trk *track.Track, in Controls, steps int) {
	for range steps {
		v.Step(trk, in, testDt)
	}
}
