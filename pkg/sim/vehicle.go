package sim

import (
	"math"

	"github.com/slipangle/rallyarcade/pkg/geom"
	"github.com/slipangle/rallyarcade/pkg/model"
	"github.com/slipangle/rallyarcade/pkg/track"
)

// VehicleState is the mutable state of one driven car. The derived fields
// (Speed, SlipAngle, CurrentGrip, Surface) are refreshed every step.
type VehicleState struct {
	Position        geom.Vector2 `json:"position"`
	Heading         float64      `json:"heading"`
	Velocity        geom.Vector2 `json:"velocity"`
	AngularVelocity float64      `json:"angularVelocity"`

	Speed       float64           `json:"speed"`
	SlipAngle   float64           `json:"slipAngle"`
	CurrentGrip float64           `json:"currentGrip"`
	Surface     model.SurfaceKind `json:"surface"`
}

// Vehicle advances a VehicleState through the drift model: a point mass whose
// heading and velocity direction are decoupled, with lateral grip deciding
// how quickly the two converge.
type Vehicle struct {
	State  VehicleState
	tuning Tuning

	marks    MarkSink
	lastMark geom.Vector2
	hasMark  bool

	simTime float64 // accumulated fixed-step time, drives mark timestamps
}

type VehicleOption func(*Vehicle)

func WithTuning(t Tuning) VehicleOption {
	return func(v *Vehicle) {
		v.tuning = t
	}
}

func WithMarkSink(sink MarkSink) VehicleOption {
	return func(v *Vehicle) {
		v.marks = sink
	}
}

func NewVehicle(opts ...VehicleOption) *Vehicle {
	v := &Vehicle{tuning: DefaultTuning()}
	for _, opt := range opts {
		opt(v)
	}
	v.State.Surface = model.SurfaceAsphalt
	return v
}

func (v *Vehicle) Tuning() Tuning { return v.tuning }

// Reset places the vehicle at the given pose with all motion zeroed. The
// instance is reused, not reallocated.
func (v *Vehicle) Reset(pos geom.Vector2, heading float64) {
	v.State = VehicleState{
		Position: pos,
		Heading:  heading,
		Surface:  model.SurfaceAsphalt,
	}
	v.hasMark = false
	v.simTime = 0
}

// Step advances the vehicle by one fixed timestep.
//
//nolint:funlen // the integration stages read best in one sequence
func (v *Vehicle) Step(trk *track.Track, in Controls, dt float64) {
	in = clampControls(in)
	t := &v.tuning
	s := &v.State
	v.simTime += dt

	// surface & grip base
	s.Surface = trk.SurfaceKindAt(s.Position)
	surface := t.grip(s.Surface)

	// slip angle: signed difference between travel direction and heading,
	// reflected into [-pi/2, pi/2]; zero near standstill to avoid noise
	speed := s.Velocity.Length()
	slip := 0.0
	if speed > t.SpeedThreshold {
		slip = geom.NormalizeAngle(s.Velocity.Angle() - s.Heading)
		slip = reflectSlip(slip)
	}
	if in.Handbrake {
		slip = reflectSlip(slip * t.HandbrakeSlipGain)
	}
	s.SlipAngle = slip

	// lateral grip falloff: full grip below the threshold, then a power
	// curve of the excess slip asymptoting toward the configured minimum
	latMult := 1.0
	if abs := math.Abs(slip); abs > t.SlipThreshold {
		excess := geom.Clamp((abs-t.SlipThreshold)/(math.Pi/2), 0, 1)
		latMult = t.MinLateralGrip +
			(1-t.MinLateralGrip)*math.Pow(1-excess, t.GripFalloffPow)
	}
	speedRatio := geom.Clamp(speed/t.MaxTraction, 0, 1)
	speedGripLoss := 1 - t.SpeedDriftGain*speedRatio
	if in.Handbrake {
		latMult *= t.HandbrakeGrip
	}

	// effective grip; low throttle restores it toward 1. The result is the
	// hard speed ceiling for this step.
	combined := latMult * speedGripLoss
	combined += (1 - combined) * t.RecoveryGain * (1 - in.Throttle)
	s.CurrentGrip = t.MaxTraction * surface.Long * combined

	// steering: authority shrinks as speed approaches the grip ceiling,
	// angular velocity eases toward the target and decays afterwards
	ceilingRatio := 0.0
	if s.CurrentGrip > 0 {
		ceilingRatio = geom.Clamp(speed/s.CurrentGrip, 0, 1)
	}
	target := in.Steer * t.MaxSteerRate * (1 - t.SteerFade*ceilingRatio)
	s.AngularVelocity += (target - s.AngularVelocity) *
		geom.Clamp(t.SteerEaseRate*dt, 0, 1)
	decay := t.SteerDecay
	if math.Abs(in.Steer) < 1e-3 {
		decay = t.IdleDecay
	}
	s.AngularVelocity *= 1 - geom.Clamp(decay*dt, 0, 1)

	// longitudinal force along the heading
	fwd := geom.FromAngle(s.Heading)
	lat := geom.Vector2{X: -fwd.Y, Y: fwd.X}
	vF := s.Velocity.Dot(fwd)
	vL := s.Velocity.Dot(lat)

	vF += in.Throttle * t.AccelRate * surface.Long * dt
	brakeForce := in.Brake * t.BrakeRate * surface.Long
	if in.Handbrake {
		brakeForce += t.HandbrakeRate * surface.Long
	}
	if brakeForce > 0 && vF != 0 {
		// braking opposes the current longitudinal velocity sign
		delta := brakeForce * dt
		if math.Abs(vF) <= delta {
			vF = 0
		} else {
			vF -= math.Copysign(delta, vF)
		}
	}

	// damp the components: rolling friction forward, effective lateral
	// friction sideways. The lateral damping is what converts grip into
	// drift-correcting force.
	vF *= 1 - geom.Clamp(t.LongFriction*dt, 0, 1)
	effLat := surface.Lat * latMult * speedGripLoss
	vL *= 1 - geom.Clamp(t.LatDampRate*effLat*dt, 0, 1)

	s.Velocity = fwd.Scale(vF).Add(lat.Scale(vL))
	if sp := s.Velocity.Length(); sp > s.CurrentGrip && sp > 0 {
		s.Velocity = s.Velocity.Scale(s.CurrentGrip / sp)
	}

	// integrate; a drifting car visually rotates faster than a gripped one
	s.Position = s.Position.Add(s.Velocity.Scale(dt))
	s.Heading = geom.NormalizeAngle(
		s.Heading + s.AngularVelocity*dt*(1+t.SlipSteerGain*math.Abs(slip)))

	v.resolveCollision(trk)
	s.Speed = s.Velocity.Length()

	v.emitMark()
}

// resolveCollision relocates the vehicle out of a boundary wall, keeps ~30%
// of its velocity and bounces the inward normal component back out.
func (v *Vehicle) resolveCollision(trk *track.Track) {
	s := &v.State
	hit := trk.ResolveBoundaryCollision(s.Position, v.tuning.Radius)
	if !hit.Collided {
		return
	}
	normal := hit.Corrected.Sub(s.Position).Normalize()
	s.Position = hit.Corrected
	s.Velocity = s.Velocity.Scale(v.tuning.CollisionRetain)
	if vn := s.Velocity.Dot(normal); vn < 0 {
		s.Velocity = s.Velocity.Sub(normal.Scale((1 + v.tuning.BounceGain) * vn))
	}
}

func (v *Vehicle) emitMark() {
	if v.marks == nil {
		return
	}
	t := &v.tuning
	s := &v.State
	if math.Abs(s.SlipAngle) < t.MarkSlipThreshold || s.Speed < t.MarkMinSpeed {
		return
	}
	if v.hasMark && s.Position.Distance(v.lastMark) < t.MarkSpacing {
		return
	}
	slipRatio := geom.Clamp(math.Abs(s.SlipAngle)/(math.Pi/2), 0, 1)
	speedRatio := geom.Clamp(s.Speed/t.MaxTraction, 0, 1)
	v.marks.Add(Mark{
		Position:    s.Position,
		Heading:     s.Heading,
		Slip:        s.SlipAngle,
		Intensity:   geom.Clamp(0.7*slipRatio+0.3*speedRatio, 0, 1),
		TimestampMs: int64(v.simTime * 1000),
	})
	v.lastMark = s.Position
	v.hasMark = true
}

// reflectSlip folds a slip angle into [-pi/2, pi/2] by reflection, so a car
// rolling backwards reads the same slip magnitude as one rolling forwards.
func reflectSlip(slip float64) float64 {
	slip = geom.NormalizeAngle(slip)
	if slip > math.Pi/2 {
		return math.Pi - slip
	}
	if slip < -math.Pi/2 {
		return -math.Pi - slip
	}
	return slip
}
