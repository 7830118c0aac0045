package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Plane is an infinite plane N.P == Distance, with N a unit
// vector in local space.
type Plane struct {
	base
	N        math3d.Vec3
	Distance float64
}

// NewPlane builds a plane through the point N*distance with the
// given (not necessarily normalized) normal.
func NewPlane(normal math3d.Vec3, distance float64) *Plane {
	p := &Plane{N: normal.Normalize(), Distance: distance}
	p.Bounds = math3d.InfiniteBoundingBox()
	return p
}

func (p *Plane) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := p.toLocal(origin, direction)

	denom := p.N.Dot(d)
	if denom == 0 {
		return false
	}
	t := (p.Distance - p.N.Dot(o)) / denom
	localPoint := o.Add(d.Scale(t))
	worldPoint := p.toWorldPoint(localPoint)
	if !p.Clips.Accepts(worldPoint, thread) {
		return false
	}
	if stack.Push(Hit{T: t, Point: worldPoint, Primitive: p, LocalPoint: localPoint}) {
		thread.Stats.RayPrimitiveHits++
		return true
	}
	return false
}

func (p *Plane) Inside(point math3d.Vec3, thread *Thread) bool {
	local := p.toLocalPoint(point)
	inside := p.N.Dot(local) < p.Distance
	return p.accept(inside, point, thread)
}

func (p *Plane) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := p.N
	if p.InvertedFlag {
		n = n.Negate()
	}
	return p.toWorldNormal(n)
}

func (p *Plane) UV(hit *Hit) math3d.Vec2 {
	// Project the local point onto the plane's own basis; pick any two
	// axes orthogonal to N.
	u := axisOrthogonal(p.N)
	v := p.N.Cross(u)
	return math3d.V2(hit.LocalPoint.Dot(u), hit.LocalPoint.Dot(v))
}

func (p *Plane) Invert() Primitive {
	cp := *p
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}

// axisOrthogonal returns an arbitrary unit vector orthogonal to n.
func axisOrthogonal(n math3d.Vec3) math3d.Vec3 {
	if math.Abs(n.X) < 0.9 {
		return math3d.V3(1, 0, 0).Cross(n).Normalize()
	}
	return math3d.V3(0, 1, 0).Cross(n).Normalize()
}
