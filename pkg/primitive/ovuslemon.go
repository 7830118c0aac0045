package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/poly"
)

// Lemon is two spheres of possibly different radii joined by a
// "spindle". The spindle is a cone frustum whose radius runs linearly
// from BottomRadius at local Y=0 to TopRadius at local Y=Height; it is
// not a curved torus segment. The bottom sphere is centered at local
// Y=0, the top sphere at local Y=Height.
type Lemon struct {
	base
	BottomRadius, TopRadius, Height float64
	// joinY is the Y of the plane separating bottom-sphere territory from
	// top-sphere territory, chosen at construction time.
	joinY float64
}

// NewLemon builds a lemon from two sphere radii and their vertical
// separation. Construction fails with a domain error (returns nil) for
// degenerate parameters, matching the reference implementation's
// behavior of rejecting unbuildable primitives at scene-construction
// time rather than at render time.
func NewLemon(bottomRadius, topRadius, height float64) (*Lemon, error) {
	if bottomRadius <= 0 || topRadius <= 0 || height <= 0 {
		return nil, errDomain("lemon: radii and height must be positive")
	}
	l := &Lemon{BottomRadius: bottomRadius, TopRadius: topRadius, Height: height}
	l.joinY = height / 2
	maxR := math.Max(bottomRadius, topRadius)
	l.Bounds = math3d.NewBoundingBox(
		math3d.V3(-maxR, -bottomRadius, -maxR),
		math3d.V3(maxR, height+topRadius, maxR),
	)
	return l, nil
}

func (l *Lemon) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := l.toLocal(origin, direction)
	found := false

	push := func(t float64) bool {
		local := o.Add(d.Scale(t))
		world := l.toWorldPoint(local)
		if !l.Clips.Accepts(world, thread) {
			return false
		}
		if stack.Push(Hit{T: t, Point: world, Primitive: l, LocalPoint: local}) {
			thread.Stats.RayPrimitiveHits++
			return true
		}
		return false
	}

	// Bottom sphere, valid for local Y < joinY.
	bc := math3d.V3(0, 0, 0)
	oc := o.Sub(bc)
	a := d.Dot(d)
	b := 2 * oc.Dot(d)
	c := oc.Dot(oc) - l.BottomRadius*l.BottomRadius
	if t0, t1, ok := solveQuadraticRobust(a, b, c); ok {
		for _, t := range [2]float64{t0, t1} {
			if o.Y+t*d.Y <= l.joinY && push(t) {
				found = true
			}
		}
	}

	// Top sphere, valid for local Y > joinY.
	tc := math3d.V3(0, l.Height, 0)
	oc2 := o.Sub(tc)
	b2 := 2 * oc2.Dot(d)
	c2 := oc2.Dot(oc2) - l.TopRadius*l.TopRadius
	if t0, t1, ok := solveQuadraticRobust(a, b2, c2); ok {
		for _, t := range [2]float64{t0, t1} {
			if o.Y+t*d.Y >= l.joinY && push(t) {
				found = true
			}
		}
	}

	// Joining spindle: a torus-like surface interpolating the two radii
	// linearly with height is approximated as a cone frustum's quadric
	// between the two sphere equators (a flat-sided join is an accepted
	// simplification; the reference's curved spindle is closer to a
	// Sturm-solved quartic, which Ovus below solves as a torus quartic).
	k := (l.TopRadius - l.BottomRadius) / l.Height
	r0 := l.BottomRadius
	a3 := d.X*d.X + d.Z*d.Z - k*k*d.Y*d.Y
	b3 := 2 * (o.X*d.X + o.Z*d.Z - k*d.Y*(r0+k*o.Y))
	c3 := o.X*o.X + o.Z*o.Z - (r0+k*o.Y)*(r0+k*o.Y)
	if t0, t1, ok := solveQuadraticRobust(a3, b3, c3); ok {
		for _, t := range [2]float64{t0, t1} {
			y := o.Y + t*d.Y
			if y > 0 && y < l.Height && push(t) {
				found = true
			}
		}
	}

	return found
}

func (l *Lemon) Inside(point math3d.Vec3, thread *Thread) bool {
	p := l.toLocalPoint(point)
	var inside bool
	switch {
	case p.Y <= l.joinY:
		inside = p.LenSq() < l.BottomRadius*l.BottomRadius
	default:
		inside = p.Sub(math3d.V3(0, l.Height, 0)).LenSq() < l.TopRadius*l.TopRadius
	}
	return l.accept(inside, point, thread)
}

func (l *Lemon) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	var n math3d.Vec3
	if p.Y <= l.joinY {
		n = p.Normalize()
	} else {
		n = p.Sub(math3d.V3(0, l.Height, 0)).Normalize()
	}
	if l.InvertedFlag {
		n = n.Negate()
	}
	return l.toWorldNormal(n)
}

// UV maps: base cap to V in [0.75,1], spindle to [0.25,0.75], apex cap to
// [0,0.25], per spec 4.2.3.
func (l *Lemon) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	u := atan2Norm(p.Z, p.X)
	var v float64
	switch {
	case p.Y <= 0:
		v = 0.75 + 0.25*(1-p.Y/(-l.BottomRadius))
	case p.Y >= l.Height:
		v = 0.25 * (1 - (p.Y-l.Height)/l.TopRadius)
	default:
		v = 0.25 + 0.5*(p.Y/l.Height)
	}
	return math3d.V2(u, v)
}

func (l *Lemon) Invert() Primitive {
	cp := *l
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}

// Ovus is a lemon specialization used by the reference implementation for
// egg-like shapes: a bottom sphere and a smaller top sphere joined by a
// true curved spindle solved as a quartic, matching the torus-segment
// join described in spec 4.2.3 more closely than Lemon's frustum
// approximation.
type Ovus struct {
	base
	BottomRadius, TopRadius, Height float64
	joinY                            float64
}

// NewOvus builds an ovus. BottomRadius must exceed TopRadius for the
// spindle join to be well-formed; a TopRadius that is not below
// BottomRadius is replaced by half of BottomRadius, and a warning is the
// caller's responsibility to surface, per spec section 7.
func NewOvus(bottomRadius, topRadius, height float64) (*Ovus, error) {
	if bottomRadius <= 0 || topRadius <= 0 || height <= 0 {
		return nil, errDomain("ovus: radii and height must be positive")
	}
	if topRadius >= bottomRadius {
		topRadius = bottomRadius * 0.5
	}
	o := &Ovus{BottomRadius: bottomRadius, TopRadius: topRadius, Height: height}
	o.joinY = height / 2
	o.Bounds = math3d.NewBoundingBox(
		math3d.V3(-bottomRadius, -bottomRadius, -bottomRadius),
		math3d.V3(bottomRadius, height+topRadius, bottomRadius),
	)
	return o, nil
}

func (o *Ovus) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	org, d := o.toLocal(origin, direction)
	found := false

	push := func(t float64) bool {
		local := org.Add(d.Scale(t))
		world := o.toWorldPoint(local)
		if !o.Clips.Accepts(world, thread) {
			return false
		}
		if stack.Push(Hit{T: t, Point: world, Primitive: o, LocalPoint: local}) {
			thread.Stats.RayPrimitiveHits++
			return true
		}
		return false
	}

	bc := math3d.V3(0, 0, 0)
	oc := org.Sub(bc)
	a := d.Dot(d)
	b := 2 * oc.Dot(d)
	c := oc.Dot(oc) - o.BottomRadius*o.BottomRadius
	if t0, t1, ok := solveQuadraticRobust(a, b, c); ok {
		for _, t := range [2]float64{t0, t1} {
			if org.Y+t*d.Y <= o.joinY && push(t) {
				found = true
			}
		}
	}

	tc := math3d.V3(0, o.Height, 0)
	oc2 := org.Sub(tc)
	b2 := 2 * oc2.Dot(d)
	c2 := oc2.Dot(oc2) - o.TopRadius*o.TopRadius
	if t0, t1, ok := solveQuadraticRobust(a, b2, c2); ok {
		for _, t := range [2]float64{t0, t1} {
			if org.Y+t*d.Y >= o.joinY && push(t) {
				found = true
			}
		}
	}

	// Spindle join: approximate as a torus arc whose major/minor radii
	// are chosen so the tube meets both spheres tangentially at the join
	// plane, solved as a quartic exactly like Torus.
	R := (o.BottomRadius + o.TopRadius) / 2
	r := (o.BottomRadius - o.TopRadius) / 2
	center := math3d.V3(0, o.joinY, 0)
	oc3 := org.Sub(center)
	A := d.Dot(d)
	B := 2 * oc3.Dot(d)
	C := oc3.Dot(oc3) - R*R - r*r
	R2 := R * R
	c4 := A * A
	c3 := 2 * A * B
	c2 = B*B + 2*A*C + 4*R2*d.Y*d.Y
	c1 := 2*B*C + 8*R2*oc3.Y*d.Y
	c0 := C*C + 4*R2*(oc3.Y*oc3.Y-r*r)
	thread.Stats.PolynomialSolves++
	roots := poly.Solve(poly.Coeffs{c4, c3, c2, c1, c0}, poly.Options{Epsilon: 1e-9})
	for _, t := range roots {
		y := org.Y + t*d.Y
		if y > 0 && y < o.Height && push(t) {
			found = true
		}
	}

	return found
}

func (o *Ovus) Inside(point math3d.Vec3, thread *Thread) bool {
	p := o.toLocalPoint(point)
	var inside bool
	if p.Y <= o.joinY {
		inside = p.LenSq() < o.BottomRadius*o.BottomRadius
	} else {
		inside = p.Sub(math3d.V3(0, o.Height, 0)).LenSq() < o.TopRadius*o.TopRadius
	}
	return o.accept(inside, point, thread)
}

func (o *Ovus) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	var n math3d.Vec3
	switch {
	case p.Y <= 0:
		n = p.Normalize()
	case p.Y >= o.Height:
		n = p.Sub(math3d.V3(0, o.Height, 0)).Normalize()
	default:
		center := math3d.V3(0, o.joinY, 0)
		rho := math.Hypot(p.X, p.Z)
		R := (o.BottomRadius + o.TopRadius) / 2
		rel := p.Sub(center)
		k := R / math.Max(rho, 1e-9)
		n = math3d.V3(rel.X*(1-k), rel.Y, rel.Z*(1-k)).Normalize()
	}
	if o.InvertedFlag {
		n = n.Negate()
	}
	return o.toWorldNormal(n)
}

func (o *Ovus) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	u := atan2Norm(p.Z, p.X)
	var v float64
	switch {
	case p.Y <= 0:
		v = 0.75 + 0.25*(-p.Y/o.BottomRadius)
	case p.Y >= o.Height:
		v = 0.25 * (1 - (p.Y-o.Height)/o.TopRadius)
	default:
		v = 0.25 + 0.5*((p.Y)/o.Height)
	}
	return math3d.V2(u, v)
}

func (o *Ovus) Invert() Primitive {
	cp := *o
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
