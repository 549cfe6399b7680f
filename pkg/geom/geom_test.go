//nolint:funlen // ok for tests
package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointToSegmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Vector2
		want    float64
	}{
		{
			name: "perpendicular foot inside segment",
			p:    V(5, 5), a: V(0, 0), b: V(10, 0),
			want: 5,
		},
		{
			name: "beyond segment end",
			p:    V(13, 4), a: V(0, 0), b: V(10, 0),
			want: 5,
		},
		{
			name: "degenerate zero-length segment",
			p:    V(3, 4), a: V(0, 0), b: V(0, 0),
			want: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointToSegmentDistance(tt.p, tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Vector2{V(0, 0), V(10, 0), V(10, 10), V(0, 10)}
	tests := []struct {
		name    string
		p       Vector2
		polygon []Vector2
		want    bool
	}{
		{name: "inside", p: V(5, 5), polygon: square, want: true},
		{name: "outside", p: V(15, 5), polygon: square, want: false},
		{name: "degenerate polygon", p: V(0, 0), polygon: square[:2], want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, tt.polygon); got != tt.want {
				t.Errorf("PointInPolygon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// L-shape
	poly := []Vector2{V(0, 0), V(10, 0), V(10, 4), V(4, 4), V(4, 10), V(0, 10)}
	assert.True(t, PointInPolygon(V(2, 8), poly))
	assert.False(t, PointInPolygon(V(8, 8), poly))
}

func TestCircleRectIntersect(t *testing.T) {
	rect := Rect{Position: V(0, 0), Width: 10, Height: 4}
	tests := []struct {
		name   string
		center Vector2
		radius float64
		want   bool
	}{
		{name: "center inside", center: V(1, 1), radius: 0.5, want: true},
		{name: "touching edge", center: V(7, 0), radius: 2, want: true},
		{name: "clear of corner", center: V(7, 4), radius: 2, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CircleRectIntersect(tt.center, tt.radius, rect); got != tt.want {
				t.Errorf("CircleRectIntersect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircleOrientedRectIntersect(t *testing.T) {
	// gate at (10,0), facing up, 8 wide and 2 deep: spans x in [6,14], y in [-1,1]
	pos := V(10, 0)
	angle := math.Pi / 2

	assert.True(t, CircleOrientedRectIntersect(V(10, 0), 1, pos, angle, 8, 2))
	assert.True(t, CircleOrientedRectIntersect(V(13, 0), 1, pos, angle, 8, 2))
	assert.False(t, CircleOrientedRectIntersect(V(10, 5), 1, pos, angle, 8, 2))
	assert.False(t, CircleOrientedRectIntersect(V(16, 0), 1, pos, angle, 8, 2))
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0.0, NormalizeAngle(2*math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi, NormalizeAngle(math.Pi), 1e-9)
}

func TestVectorBasics(t *testing.T) {
	v := V(3, 4)
	assert.InDelta(t, 5.0, v.Length(), 1e-9)
	assert.Equal(t, Vector2{}, Vector2{}.Normalize())
	assert.InDelta(t, 1.0, v.Normalize().Length(), 1e-9)
	assert.InDelta(t, math.Pi/2, V(0, 2).Angle(), 1e-9)
}
