package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Sphere is a quadric primitive defined by a center and radius, stored in
// local space so that a Transform can carry it to any position/orientation.
type Sphere struct {
	base
	Center math3d.Vec3
	Radius float64
}

// NewSphere builds an axis-aligned, untransformed sphere.
func NewSphere(center math3d.Vec3, radius float64) *Sphere {
	s := &Sphere{Center: center, Radius: radius}
	s.Bounds = math3d.NewBoundingBox(
		center.Sub(math3d.Vec3Scalar(radius)),
		center.Add(math3d.Vec3Scalar(radius)),
	)
	return s
}

// WithTransform returns a copy of s carrying the given transform.
func (s *Sphere) WithTransform(t math3d.Transform) *Sphere {
	cp := *s
	cp.Transform = t
	cp.HasTransform = true
	cp.Bounds = math3d.NewBoundingBox(s.Center.Sub(math3d.Vec3Scalar(s.Radius)), s.Center.Add(math3d.Vec3Scalar(s.Radius))).Transform(t.Forward)
	return &cp
}

func (s *Sphere) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := s.toLocal(origin, direction)

	oc := o.Sub(s.Center)
	a := d.Dot(d)
	b := 2 * oc.Dot(d)
	c := oc.Dot(oc) - s.Radius*s.Radius

	t0, t1, ok := solveQuadraticRobust(a, b, c)
	if !ok {
		return false
	}

	found := false
	for _, t := range [2]float64{t0, t1} {
		localPoint := o.Add(d.Scale(t))
		worldPoint := s.toWorldPoint(localPoint)
		if !s.Clips.Accepts(worldPoint, thread) {
			continue
		}
		if stack.Push(Hit{T: t, Point: worldPoint, Primitive: s, LocalPoint: localPoint}) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (s *Sphere) Inside(point math3d.Vec3, thread *Thread) bool {
	p := s.toLocalPoint(point)
	inside := p.Sub(s.Center).LenSq() < s.Radius*s.Radius
	return s.accept(inside, point, thread)
}

func (s *Sphere) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := hit.LocalPoint.Sub(s.Center).Normalize()
	if s.InvertedFlag {
		n = n.Negate()
	}
	return s.toWorldNormal(n)
}

func (s *Sphere) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint.Sub(s.Center).Normalize()
	u := 0.5 + math.Atan2(p.Z, p.X)/(2*math.Pi)
	v := 0.5 - math.Asin(p.Y)/math.Pi
	return math3d.V2(u, v)
}

func (s *Sphere) Invert() Primitive {
	cp := *s
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
