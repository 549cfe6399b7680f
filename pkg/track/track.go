package track

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/geom"
	"github.com/slipangle/rallyarcade/pkg/model"
)

const (
	// GateDepth is the depth of the start/finish detection rectangle along
	// the driving direction.
	GateDepth = 24.0
	// safetyMargin keeps a resolved circle slightly clear of the boundary edge.
	safetyMargin = 0.5
)

var (
	ErrBoundaryTooSmall    = errors.New("boundary polygon needs at least 3 vertices")
	ErrNoCheckpoints       = errors.New("track needs at least one checkpoint")
	ErrBadCheckpoint       = errors.New("checkpoint needs positive dimensions")
	ErrUnknownSurfaceKind  = errors.New("unknown surface kind")
	ErrStartLineWidth      = errors.New("start line needs positive width")
	ErrInnerOutsideOuter   = errors.New("inner boundary must lie inside outer boundary")
	ErrSurfacePolygonSmall = errors.New("surface polygon needs at least 3 vertices")
)

// Bounds is the axis-aligned extent over all boundary vertices.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoundaryHit is the result of a boundary collision query.
type BoundaryHit struct {
	Collided  bool
	Corrected geom.Vector2
}

// Track is the immutable runtime description of a stage. Constructed once,
// never mutated during play.
type Track struct {
	name        string
	outer       []geom.Vector2
	inner       []geom.Vector2
	surfaces    []model.SurfaceRegion
	startLine   model.Line
	finishLine  model.Line
	checkpoints []geom.Rect
	bounds      Bounds

	l *log.Logger
}

type Option func(*Track)

func WithLogger(arg *log.Logger) Option {
	return func(t *Track) {
		t.l = arg
	}
}

// New validates the authoring data and builds the runtime track. A missing
// finish line falls back to the start line (implicit lap mode); this is part
// of the authoring contract and is logged.
//
//nolint:cyclop // validation is a flat list of checks
func New(data *model.TrackData, opts ...Option) (*Track, error) {
	t := &Track{
		name:        data.Name,
		outer:       data.Outer,
		inner:       data.Inner,
		surfaces:    data.Surfaces,
		startLine:   data.StartLine,
		checkpoints: data.Checkpoints,
		l:           log.Default().Named("track"),
	}
	for _, opt := range opts {
		opt(t)
	}

	if len(data.Outer) < 3 || len(data.Inner) < 3 {
		return nil, ErrBoundaryTooSmall
	}
	if data.StartLine.Width <= 0 {
		return nil, ErrStartLineWidth
	}
	if len(data.Checkpoints) == 0 {
		return nil, ErrNoCheckpoints
	}
	for i, cp := range data.Checkpoints {
		if cp.Width <= 0 || cp.Height <= 0 {
			return nil, fmt.Errorf("checkpoint %d: %w", i, ErrBadCheckpoint)
		}
	}
	for i, s := range data.Surfaces {
		if !knownSurfaceKind(s.Kind) {
			return nil, fmt.Errorf("surface %d (%s): %w", i, s.Kind, ErrUnknownSurfaceKind)
		}
		if len(s.Polygon) < 3 {
			return nil, fmt.Errorf("surface %d: %w", i, ErrSurfacePolygonSmall)
		}
	}
	if !lo.EveryBy(data.Inner, func(v geom.Vector2) bool {
		return geom.PointInPolygon(v, data.Outer)
	}) {
		return nil, ErrInnerOutsideOuter
	}

	if data.FinishLine != nil {
		t.finishLine = *data.FinishLine
	} else {
		t.finishLine = data.StartLine
		t.l.Info("no finish line defined, reusing start line (lap mode)",
			log.String("track", data.Name))
	}

	t.bounds = computeBounds(append(append([]geom.Vector2{}, data.Outer...), data.Inner...))
	return t, nil
}

func knownSurfaceKind(k model.SurfaceKind) bool {
	switch k {
	case model.SurfaceAsphalt, model.SurfaceDirt, model.SurfaceGrass:
		return true
	}
	return false
}

func computeBounds(vertices []geom.Vector2) Bounds {
	b := Bounds{
		MinX: vertices[0].X, MaxX: vertices[0].X,
		MinY: vertices[0].Y, MaxY: vertices[0].Y,
	}
	for _, v := range vertices[1:] {
		b.MinX = min(b.MinX, v.X)
		b.MaxX = max(b.MaxX, v.X)
		b.MinY = min(b.MinY, v.Y)
		b.MaxY = max(b.MaxY, v.Y)
	}
	return b
}

func (t *Track) Name() string           { return t.name }
func (t *Track) StartLine() model.Line  { return t.startLine }
func (t *Track) FinishLine() model.Line { return t.finishLine }
func (t *Track) Bounds() Bounds         { return t.bounds }

func (t *Track) CheckpointCount() int { return len(t.checkpoints) }

// CheckpointRect returns the checkpoint rectangle at the given index. An
// out-of-range index returns the zero rect, which no query circle matches.
func (t *Track) CheckpointRect(idx int) geom.Rect {
	if idx < 0 || idx >= len(t.checkpoints) {
		return geom.Rect{}
	}
	return t.checkpoints[idx]
}

// SurfaceKindAt returns the surface kind at the query point. The first
// surface polygon containing the point wins; the default is asphalt.
func (t *Track) SurfaceKindAt(p geom.Vector2) model.SurfaceKind {
	for i := range t.surfaces {
		if geom.PointInPolygon(p, t.surfaces[i].Polygon) {
			return t.surfaces[i].Kind
		}
	}
	return model.SurfaceAsphalt
}

// ResolveBoundaryCollision checks the query circle against the outer boundary
// first, then the inner. Only the first colliding edge is resolved: the circle
// is relocated along the locally inward (outer) or outward (inner) normal to
// just clear the edge. Simultaneous penetrations at sharp concave corners are
// not solved in one call; this is a documented limitation of the resolver.
func (t *Track) ResolveBoundaryCollision(pos geom.Vector2, radius float64) BoundaryHit {
	if hit := resolveAgainstPolygon(pos, radius, t.outer, true); hit.Collided {
		return hit
	}
	if hit := resolveAgainstPolygon(pos, radius, t.inner, false); hit.Collided {
		return hit
	}
	return BoundaryHit{Corrected: pos}
}

// resolveAgainstPolygon pushes the circle away from the first edge it is
// within radius of. keepInside selects which side of the polygon is drivable.
func resolveAgainstPolygon(
	pos geom.Vector2, radius float64,
	polygon []geom.Vector2, keepInside bool,
) BoundaryHit {
	n := len(polygon)
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		if geom.PointToSegmentDistance(pos, a, b) >= radius {
			continue
		}
		closest := geom.ClosestPointOnSegment(pos, a, b)
		normal := pos.Sub(closest).Normalize()
		if normal.LengthSq() == 0 {
			// circle center exactly on the edge: use the edge perpendicular
			normal = geom.Vector2{X: -(b.Y - a.Y), Y: b.X - a.X}.Normalize()
		}
		corrected := closest.Add(normal.Scale(radius + safetyMargin))
		if geom.PointInPolygon(corrected, polygon) != keepInside {
			corrected = closest.Add(normal.Scale(-(radius + safetyMargin)))
		}
		return BoundaryHit{Collided: true, Corrected: corrected}
	}
	return BoundaryHit{Corrected: pos}
}
