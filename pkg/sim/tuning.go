package sim

import "github.com/slipangle/rallyarcade/pkg/model"

// SurfaceGrip holds the longitudinal and lateral grip multipliers of a
// surface kind. Lateral is generally the lower of the two.
type SurfaceGrip struct {
	Long float64
	Lat  float64
}

// Tuning collects every constant of the vehicle model. Values are tuned for
// feel, not physical accuracy.
type Tuning struct {
	// geometry
	Radius float64 // bounding circle used for track collision

	// longitudinal
	MaxTraction    float64 // speed ceiling at full grip (units/s)
	AccelRate      float64 // throttle acceleration (units/s^2)
	BrakeRate      float64 // brake deceleration (units/s^2)
	HandbrakeRate  float64 // extra deceleration while the handbrake is pulled
	LongFriction   float64 // rolling friction on the forward velocity component (1/s)
	SpeedThreshold float64 // below this speed the slip angle reads zero

	// slip / lateral grip
	SlipThreshold  float64 // slip angle where lateral grip starts to fall off
	GripFalloffPow float64 // shape of the falloff power curve
	MinLateralGrip float64 // asymptote of the falloff
	SpeedDriftGain float64 // extra lateral grip loss per unit of speed ratio
	RecoveryGain   float64 // off-throttle grip restoration toward 1
	LatDampRate    float64 // lateral velocity damping at full grip (1/s)

	// handbrake
	HandbrakeGrip     float64 // lateral grip multiplier while pulled
	HandbrakeSlipGain float64 // amplification of the slip angle while pulled

	// steering
	MaxSteerRate  float64 // peak commanded angular velocity (rad/s)
	SteerFade     float64 // authority lost as speed approaches the grip ceiling
	SteerEaseRate float64 // easing of angular velocity toward the target (1/s)
	SteerDecay    float64 // angular velocity decay while steering (1/s)
	IdleDecay     float64 // angular velocity decay with no steering input (1/s)
	SlipSteerGain float64 // heading integration boost per radian of slip

	// collision
	CollisionRetain float64 // velocity magnitude retained on boundary impact
	BounceGain      float64 // amplification of the reflected normal component

	// tire marks
	MarkSlipThreshold float64
	MarkMinSpeed      float64
	MarkSpacing       float64

	Surfaces map[model.SurfaceKind]SurfaceGrip
}

// DefaultTuning returns the stock arcade setup.
func DefaultTuning() Tuning {
	return Tuning{
		Radius: 12,

		MaxTraction:    260,
		AccelRate:      220,
		BrakeRate:      320,
		HandbrakeRate:  140,
		LongFriction:   0.6,
		SpeedThreshold: 2.0,

		SlipThreshold:  0.18,
		GripFalloffPow: 1.6,
		MinLateralGrip: 0.12,
		SpeedDriftGain: 0.3,
		RecoveryGain:   0.5,
		LatDampRate:    9.0,

		HandbrakeGrip:     0.35,
		HandbrakeSlipGain: 1.25,

		MaxSteerRate:  3.2,
		SteerFade:     0.55,
		SteerEaseRate: 11.0,
		SteerDecay:    3.0,
		IdleDecay:     7.5,
		SlipSteerGain: 0.45,

		CollisionRetain: 0.30,
		BounceGain:      1.4,

		MarkSlipThreshold: 0.22,
		MarkMinSpeed:      40,
		MarkSpacing:       6,

		Surfaces: map[model.SurfaceKind]SurfaceGrip{
			model.SurfaceAsphalt: {Long: 1.0, Lat: 1.0},
			model.SurfaceDirt:    {Long: 0.65, Lat: 0.6},
			model.SurfaceGrass:   {Long: 0.3, Lat: 0.25},
		},
	}
}

func (t Tuning) grip(kind model.SurfaceKind) SurfaceGrip {
	if g, ok := t.Surfaces[kind]; ok {
		return g
	}
	return SurfaceGrip{Long: 1, Lat: 1}
}
