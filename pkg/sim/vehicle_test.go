//nolint:funlen // ok for tests
package sim

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipangle/rallyarcade/pkg/geom"
	"github.com/slipangle/rallyarcade/pkg/model"
	"github.com/slipangle/rallyarcade/pkg/track"
)

func TestVehicleAtRestStaysAtRest(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	start := trk.StartLine()
	v.Reset(start.Position, start.Angle)

	v.Step(trk, Controls{}, testDt)

	assert.Zero(t, v.State.Speed)
	assert.Zero(t, v.State.SlipAngle)
	assert.Equal(t, start.Position, v.State.Position)
}

func TestVehicleAcceleratesAlongHeading(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)

	drive(v, trk, Controls{Throttle: 1}, 120)

	assert.Greater(t, v.State.Speed, 50.0)
	assert.Greater(t, v.State.Position.X, 100.0)
	assert.InDelta(t, 200.0, v.State.Position.Y, 1e-6)
	assert.Less(t, math.Abs(v.State.SlipAngle), 0.01)
}

func TestVehicleSpeedNeverExceedsGripCeiling(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)

	maxSeen := 0.0
	for range 600 {
		v.Step(trk, Controls{Throttle: 1}, testDt)
		maxSeen = math.Max(maxSeen, v.State.Speed)
		if v.State.Speed > v.State.CurrentGrip+1e-9 {
			t.Fatalf("speed %f above grip ceiling %f", v.State.Speed, v.State.CurrentGrip)
		}
	}
	assert.Greater(t, maxSeen, 150.0)
	assert.LessOrEqual(t, maxSeen, v.tuning.MaxTraction+1e-9)
}

func TestVehicleGrassLowersCeiling(t *testing.T) {
	data := stripData()
	data.Surfaces = []model.SurfaceRegion{{
		Kind: model.SurfaceGrass,
		Polygon: []geom.Vector2{
			geom.V(0, 0), geom.V(2000, 0), geom.V(2000, 400), geom.V(0, 400),
		},
	}}
	trk, err := track.New(data)
	require.NoError(t, err)

	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)
	drive(v, trk, Controls{Throttle: 1}, 600)

	assert.Equal(t, model.SurfaceGrass, v.State.Surface)
	assert.Less(t, v.State.Speed, 100.0)
}

func TestVehicleBrakingStops(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)

	drive(v, trk, Controls{Throttle: 1}, 240)
	require.Greater(t, v.State.Speed, 100.0)

	drive(v, trk, Controls{Brake: 1}, 240)
	assert.Less(t, v.State.Speed, 1.0)
}

func TestVehicleHandbrakeBreaksTraction(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)

	drive(v, trk, Controls{Throttle: 1}, 240)
	gripBefore := v.State.CurrentGrip

	drive(v, trk, Controls{Throttle: 1, Steer: 1, Handbrake: true}, 30)

	assert.Greater(t, math.Abs(v.State.SlipAngle), v.tuning.SlipThreshold)
	assert.Less(t, v.State.CurrentGrip, gripBefore)
}

func TestVehicleSteeringTurns(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)

	drive(v, trk, Controls{Throttle: 0.5, Steer: 1}, 60)
	assert.Greater(t, v.State.Heading, 0.0)

	v.Reset(geom.V(100, 200), 0)
	drive(v, trk, Controls{Throttle: 0.5, Steer: -1}, 60)
	assert.Less(t, v.State.Heading, 0.0)
}

func TestVehicleWallImpactDampsVelocity(t *testing.T) {
	trk := ringTrack(t)
	v := NewVehicle()
	// aimed straight at the outer wall
	v.Reset(geom.V(200, 50), -math.Pi/2)

	hitWall := false
	for range 600 {
		pre := v.State.Speed
		preVelY := v.State.Velocity.Y
		v.Step(trk, Controls{Throttle: 1}, testDt)
		if hit := trk.ResolveBoundaryCollision(v.State.Position, v.tuning.Radius); hit.Collided {
			t.Fatalf("vehicle left inside a wall at %v", v.State.Position)
		}
		// the bounce flips the normal velocity component away from the wall
		if !hitWall && preVelY < 0 && v.State.Velocity.Y > 0 {
			hitWall = true
			// the impact keeps ~30% and bounces the normal component back out
			assert.Less(t, v.State.Speed, pre*0.6)
		}
	}
	require.True(t, hitWall, "vehicle never reached the wall")
}

func TestVehicleReset(t *testing.T) {
	trk := stripTrack(t)
	v := NewVehicle()
	v.Reset(geom.V(100, 200), 0)
	drive(v, trk, Controls{Throttle: 1, Steer: 0.4, Handbrake: true}, 300)
	require.Greater(t, v.State.Speed, 0.0)

	v.Reset(geom.V(100, 200), 0)

	assert.Zero(t, v.State.Speed)
	assert.Zero(t, v.State.SlipAngle)
	assert.Zero(t, v.State.AngularVelocity)
	assert.Equal(t, geom.Vector2{}, v.State.Velocity)
	assert.Equal(t, geom.V(100, 200), v.State.Position)
}

func TestVehicleDeterminism(t *testing.T) {
	trk := stripTrack(t)
	script := []Controls{
		{Throttle: 1},
		{Throttle: 1, Steer: 0.3},
		{Throttle: 0.8, Steer: -0.6, Handbrake: true},
		{Brake: 1},
	}

	runScript := func() []VehicleState {
		v := NewVehicle()
		v.Reset(geom.V(100, 200), 0)
		var states []VehicleState
		for _, in := range script {
			for range 60 {
				v.Step(trk, in, testDt)
			}
			states = append(states, v.State)
		}
		return states
	}

	if diff := cmp.Diff(runScript(), runScript()); diff != "" {
		t.Errorf("identical runs diverged (-first +second):\n%s", diff)
	}
}

func TestVehicleInputClamping(t *testing.T) {
	in := clampControls(Controls{Steer: -4, Throttle: 7, Brake: -2})
	assert.Equal(t, Controls{Steer: -1, Throttle: 1, Brake: 0}, in)
}

func TestVehicleEmitsTireMarks(t *testing.T) {
	trk := stripTrack(t)
	buf := NewMarkBuffer(256)
	v := NewVehicle(WithMarkSink(buf))
	v.Reset(geom.V(100, 200), 0)

	drive(v, trk, Controls{Throttle: 1}, 240)
	assert.Zero(t, buf.Len(), "straight-line driving should not leave marks")

	drive(v, trk, Controls{Throttle: 1, Steer: 1, Handbrake: true}, 120)
	require.Greater(t, buf.Len(), 0)

	marks := buf.Marks()
	for i := 1; i < len(marks); i++ {
		dist := marks[i].Position.Distance(marks[i-1].Position)
		assert.GreaterOrEqual(t, dist, v.tuning.MarkSpacing-1e-9)
	}
	for _, m := range marks {
		assert.GreaterOrEqual(t, m.Intensity, 0.0)
		assert.LessOrEqual(t, m.Intensity, 1.0)
	}
}
