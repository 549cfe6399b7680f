package geom

import "math"

// Rect is an axis-aligned rectangle positioned by its center.
type Rect struct {
	Position Vector2 `json:"position" yaml:"position"`
	Width    float64 `json:"width"    yaml:"width"`
	Height   float64 `json:"height"   yaml:"height"`
}

func (r Rect) MinX() float64 { return r.Position.X - r.Width/2 }
func (r Rect) MaxX() float64 { return r.Position.X + r.Width/2 }
func (r Rect) MinY() float64 { return r.Position.Y - r.Height/2 }
func (r Rect) MaxY() float64 { return r.Position.Y + r.Height/2 }

// PointToSegmentDistance returns the shortest distance from p to the finite
// segment a-b. A near-zero-length segment degrades to point distance.
func PointToSegmentDistance(p, a, b Vector2) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq < 1e-12 {
		return p.Distance(a)
	}
	t := Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	closest := a.Add(ab.Scale(t))
	return p.Distance(closest)
}

// ClosestPointOnSegment returns the point on segment a-b nearest to p.
func ClosestPointOnSegment(p, a, b Vector2) Vector2 {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq < 1e-12 {
		return a
	}
	t := Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Scale(t))
}

// PointInPolygon reports whether p lies inside the closed polygon using the
// even-odd crossing rule. Polygons with fewer than 3 vertices contain nothing.
func PointInPolygon(p Vector2, polygon []Vector2) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// CircleRectIntersect reports whether the circle overlaps the axis-aligned
// rectangle, using the clamp-closest-point test.
func CircleRectIntersect(center Vector2, radius float64, rect Rect) bool {
	cx := Clamp(center.X, rect.MinX(), rect.MaxX())
	cy := Clamp(center.Y, rect.MinY(), rect.MaxY())
	dx := center.X - cx
	dy := center.Y - cy
	return dx*dx+dy*dy <= radius*radius
}

// CircleOrientedRectIntersect reports whether the circle overlaps a rectangle
// of the given width/depth centered at pos and rotated by angle. Used for
// start/finish line gates.
func CircleOrientedRectIntersect(
	center Vector2, radius float64,
	pos Vector2, angle, width, depth float64,
) bool {
	// transform the circle center into the rectangle's local frame
	d := center.Sub(pos)
	cos, sin := math.Cos(-angle), math.Sin(-angle)
	local := Vector2{X: d.X*cos - d.Y*sin, Y: d.X*sin + d.Y*cos}
	rect := Rect{Width: depth, Height: width}
	return CircleRectIntersect(local, radius, rect)
}
