package geom

import "math"

// Vector2 is a 2D vector. Operations return new values.
type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func V(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2) Scale(f float64) Vector2 {
	return Vector2{X: v.X * f, Y: v.Y * f}
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns the unit vector. The zero vector normalizes to itself.
func (v Vector2) Normalize() Vector2 {
	l := v.Length()
	if l == 0 {
		return Vector2{}
	}
	return Vector2{X: v.X / l, Y: v.Y / l}
}

func (v Vector2) Distance(o Vector2) float64 {
	return v.Sub(o).Length()
}

// Angle returns the direction of the vector in radians.
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// FromAngle returns the unit vector pointing at the given heading.
func FromAngle(rad float64) Vector2 {
	return Vector2{X: math.Cos(rad), Y: math.Sin(rad)}
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
