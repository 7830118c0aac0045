package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Polygon is a planar, possibly multi-contour, possibly concave region in
// the local XY plane at Z=0, bounded by a ray/plane intersection followed
// by a 2D point-in-polygon winding test, per spec 4.2.3's general family
// of swept/planar primitives.
type Polygon struct {
	base
	// Contours holds one or more closed contours; a point is inside the
	// polygon when it is inside an odd number of contours (supporting
	// holes via even-odd fill, matching the reference's winding rule).
	Contours [][]math3d.Vec2
}

// NewPolygon builds a polygon from one or more closed 2D contours in the
// local XY plane.
func NewPolygon(contours [][]math3d.Vec2) (*Polygon, error) {
	if len(contours) == 0 {
		return nil, errDomain("polygon: at least one contour required")
	}
	p := &Polygon{Contours: contours}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range contours {
		if len(c) < 3 {
			return nil, errDomain("polygon: contour needs at least 3 points")
		}
		for _, v := range c {
			minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
			minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
		}
	}
	p.Bounds = math3d.NewBoundingBox(
		math3d.V3(minX, minY, -Epsilon),
		math3d.V3(maxX, maxY, Epsilon),
	)
	return p, nil
}

// containsEvenOdd applies the even-odd rule across all contours so holes
// cut by a second contour are respected.
func (p *Polygon) containsEvenOdd(pt math3d.Vec2) bool {
	inside := false
	for _, c := range p.Contours {
		if windingContains(c, pt) {
			inside = !inside
		}
	}
	return inside
}

func windingContains(poly []math3d.Vec2, pt math3d.Vec2) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			xInt := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < xInt {
				inside = !inside
			}
		}
	}
	return inside
}

func (p *Polygon) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := p.toLocal(origin, direction)
	if math.Abs(d.Z) < Epsilon {
		return false
	}
	t := -o.Z / d.Z
	local := o.Add(d.Scale(t))
	if !p.containsEvenOdd(math3d.V2(local.X, local.Y)) {
		return false
	}
	world := p.toWorldPoint(local)
	if !p.Clips.Accepts(world, thread) {
		return false
	}
	if stack.Push(Hit{T: t, Point: world, Primitive: p, LocalPoint: local}) {
		thread.Stats.RayPrimitiveHits++
		return true
	}
	return false
}

func (p *Polygon) Inside(point math3d.Vec3, thread *Thread) bool {
	// A zero-thickness planar polygon has no interior volume; Inside
	// always reports false prior to inversion/clipping, matching the
	// reference implementation's treatment of flat primitives.
	return p.accept(false, point, thread)
}

func (p *Polygon) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := math3d.V3(0, 0, 1)
	if p.InvertedFlag {
		n = n.Negate()
	}
	return p.toWorldNormal(n)
}

func (p *Polygon) UV(hit *Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Y)
}

func (p *Polygon) Invert() Primitive {
	cp := *p
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
