package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// Quadric is the general second-degree surface:
// A*x^2 + B*y^2 + C*z^2 + D*xy + E*xz + F*yz + G*x + H*y + I*z + J = 0.
type Quadric struct {
	base
	A, B, C, D, E, F, G, H, I, J float64
}

// NewQuadric builds a general quadric with the given bounding box (the
// quadric equation alone does not imply a finite extent, so the caller
// supplies one, typically clipped by an enclosing CSG intersection).
func NewQuadric(coeffs [10]float64, bounds math3d.BoundingBox) *Quadric {
	q := &Quadric{
		A: coeffs[0], B: coeffs[1], C: coeffs[2], D: coeffs[3], E: coeffs[4],
		F: coeffs[5], G: coeffs[6], H: coeffs[7], I: coeffs[8], J: coeffs[9],
	}
	q.Bounds = bounds
	return q
}

func (q *Quadric) eval(p math3d.Vec3) float64 {
	return q.A*p.X*p.X + q.B*p.Y*p.Y + q.C*p.Z*p.Z +
		q.D*p.X*p.Y + q.E*p.X*p.Z + q.F*p.Y*p.Z +
		q.G*p.X + q.H*p.Y + q.I*p.Z + q.J
}

func (q *Quadric) gradient(p math3d.Vec3) math3d.Vec3 {
	return math3d.V3(
		2*q.A*p.X+q.D*p.Y+q.E*p.Z+q.G,
		2*q.B*p.Y+q.D*p.X+q.F*p.Z+q.H,
		2*q.C*p.Z+q.E*p.X+q.F*p.Y+q.I,
	)
}

func (q *Quadric) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := q.toLocal(origin, direction)

	a := q.A*d.X*d.X + q.B*d.Y*d.Y + q.C*d.Z*d.Z +
		q.D*d.X*d.Y + q.E*d.X*d.Z + q.F*d.Y*d.Z
	b := 2*q.A*o.X*d.X + 2*q.B*o.Y*d.Y + 2*q.C*o.Z*d.Z +
		q.D*(o.X*d.Y+o.Y*d.X) + q.E*(o.X*d.Z+o.Z*d.X) + q.F*(o.Y*d.Z+o.Z*d.Y) +
		q.G*d.X + q.H*d.Y + q.I*d.Z
	c := q.eval(o)

	t0, t1, ok := solveQuadraticRobust(a, b, c)
	if !ok {
		return false
	}
	found := false
	for _, t := range [2]float64{t0, t1} {
		local := o.Add(d.Scale(t))
		world := q.toWorldPoint(local)
		if !q.Clips.Accepts(world, thread) {
			continue
		}
		if stack.Push(Hit{T: t, Point: world, Primitive: q, LocalPoint: local}) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (q *Quadric) Inside(point math3d.Vec3, thread *Thread) bool {
	p := q.toLocalPoint(point)
	inside := q.eval(p) < 0
	return q.accept(inside, point, thread)
}

func (q *Quadric) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := q.gradient(hit.LocalPoint).Normalize()
	if q.InvertedFlag {
		n = n.Negate()
	}
	return q.toWorldNormal(n)
}

func (q *Quadric) UV(hit *Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Y)
}

func (q *Quadric) Invert() Primitive {
	cp := *q
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
