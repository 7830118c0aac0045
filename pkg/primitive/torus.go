package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/poly"
)

// SpindleMode controls how a spindle torus (major radius < minor radius,
// so the tube self-intersects around the axis) resolves visibility of
// the self-intersecting "spindle" region, per spec section 4.2.2.
type SpindleMode int

const (
	// SpindleVisible shows both the outer torus surface and the spindle.
	SpindleVisible SpindleMode = iota
	// SpindleNonSpindleVisible shows only the outer surface.
	SpindleNonSpindleVisible
	// SpindleInside treats the spindle region as solid interior (the
	// default used when a SpindleMode is otherwise unspecified, per the
	// reference implementation's documented ambiguity between its two
	// visibly-distinct behaviors).
	SpindleInside
	// SpindleRelevantForInside hides the spindle surface: the spindle
	// only affects the inside/outside predicate, not visibility.
	SpindleRelevantForInside
)

// Torus is centered at the local origin with its axis along Y.
type Torus struct {
	base
	MajorRadius, MinorRadius float64
	Spindle                  SpindleMode
}

// NewTorus builds a torus; when major < minor the torus self-intersects
// and is treated as a spindle torus using the default SpindleInside mode.
func NewTorus(major, minor float64) *Torus {
	t := &Torus{MajorRadius: major, MinorRadius: minor, Spindle: SpindleInside}
	r := major + minor
	t.Bounds = math3d.NewBoundingBox(
		math3d.V3(-r, -minor, -r),
		math3d.V3(r, minor, r),
	)
	return t
}

// isSpindle reports whether this torus is geometrically self-intersecting.
func (t *Torus) isSpindle() bool {
	return t.MajorRadius < t.MinorRadius
}

// inSpindleRegion reports whether a local-frame point lies within the
// inner "spindle" sphere of radius sqrt(r^2-R^2), per spec 4.2.2.
func (t *Torus) inSpindleRegion(p math3d.Vec3) bool {
	if !t.isSpindle() {
		return false
	}
	spindleR2 := t.MinorRadius*t.MinorRadius - t.MajorRadius*t.MajorRadius
	return p.LenSq() < spindleR2
}

func (t *Torus) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := t.toLocal(origin, direction)

	R, r := t.MajorRadius, t.MinorRadius
	R2, r2 := R*R, r*r

	A := d.Dot(d)
	B := 2 * o.Dot(d)
	C := o.Dot(o) - R2 - r2

	c4 := A * A
	c3 := 2 * A * B
	c2 := B*B + 2*A*C + 4*R2*d.Y*d.Y
	c1 := 2*B*C + 8*R2*o.Y*d.Y
	c0 := C*C + 4*R2*(o.Y*o.Y-r2)

	thread.Stats.PolynomialSolves++
	roots := poly.Solve(poly.Coeffs{c4, c3, c2, c1, c0}, poly.Options{Epsilon: 1e-9})

	found := false
	for _, rt := range roots {
		local := o.Add(d.Scale(rt))
		spindleHit := t.inSpindleRegion(local)

		if t.isSpindle() {
			switch t.Spindle {
			case SpindleNonSpindleVisible:
				if spindleHit {
					continue
				}
			case SpindleRelevantForInside:
				if spindleHit {
					continue // spindle surface affects Inside only, never visible
				}
			}
		}

		world := t.toWorldPoint(local)
		if !t.Clips.Accepts(world, thread) {
			continue
		}
		b1 := 0.0
		if spindleHit {
			b1 = 1
		}
		if stack.Push(Hit{T: rt, Point: world, Primitive: t, LocalPoint: local, D1: b1}) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (t *Torus) Inside(point math3d.Vec3, thread *Thread) bool {
	p := t.toLocalPoint(point)
	rho := math.Sqrt(p.X*p.X + p.Z*p.Z)
	dist2 := (rho-t.MajorRadius)*(rho-t.MajorRadius) + p.Y*p.Y
	inside := dist2 < t.MinorRadius*t.MinorRadius

	if t.isSpindle() && t.inSpindleRegion(p) {
		switch t.Spindle {
		case SpindleInside, SpindleRelevantForInside:
			inside = true
		}
	}
	return t.accept(inside, point, thread)
}

func (t *Torus) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	rho := math.Sqrt(p.X*p.X + p.Z*p.Z)
	if rho == 0 {
		rho = 1e-9
	}
	k := t.MajorRadius / rho
	n := math3d.V3(p.X*(1-k), p.Y, p.Z*(1-k)).Normalize()
	if hit.D1 != 0 {
		// Spindle-region hits have their normal flipped, per spec 4.2.2.
		n = n.Negate()
	}
	if t.InvertedFlag {
		n = n.Negate()
	}
	return t.toWorldNormal(n)
}

func (t *Torus) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	u := atan2Norm(p.Z, p.X)
	rho := math.Sqrt(p.X*p.X + p.Z*p.Z)
	v := atan2Norm(p.Y, rho-t.MajorRadius)
	return math3d.V2(u, v)
}

func (t *Torus) Invert() Primitive {
	cp := *t
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
