package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// Cone is a (possibly truncated) cone along the local Y axis from Y=0
// (radius BottomRadius) to Y=Height (radius TopRadius). A TopRadius of 0
// gives a sharp apex.
type Cone struct {
	base
	BottomRadius, TopRadius, Height float64
}

// NewCone builds a truncated cone; pass topRadius=0 for a sharp apex.
func NewCone(bottomRadius, topRadius, height float64) *Cone {
	c := &Cone{BottomRadius: bottomRadius, TopRadius: topRadius, Height: height}
	r := bottomRadius
	if topRadius > r {
		r = topRadius
	}
	c.Bounds = math3d.NewBoundingBox(math3d.V3(-r, 0, -r), math3d.V3(r, height, r))
	return c
}

// radiusAt returns the cone's radius at local height y, linearly
// interpolated between the base and top radii.
func (c *Cone) radiusAt(y float64) float64 {
	t := y / c.Height
	return c.BottomRadius + (c.TopRadius-c.BottomRadius)*t
}

func (c *Cone) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := c.toLocal(origin, direction)
	found := false

	// Side surface: treat the cone as a quadric in (x, y, z) derived from
	// linear interpolation of radius with y. Let k = (topR-bottomR)/height,
	// r(y) = bottomR + k*y. Surface: x^2+z^2 = r(y)^2.
	k := (c.TopRadius - c.BottomRadius) / c.Height
	r0 := c.BottomRadius

	a := d.X*d.X + d.Z*d.Z - k*k*d.Y*d.Y
	b := 2 * (o.X*d.X + o.Z*d.Z - k*d.Y*(r0+k*o.Y))
	cc := o.X*o.X + o.Z*o.Z - (r0+k*o.Y)*(r0+k*o.Y)

	if t0, t1, ok := solveQuadraticRobust(a, b, cc); ok {
		for _, t := range [2]float64{t0, t1} {
			p := o.Add(d.Scale(t))
			if p.Y < 0 || p.Y > c.Height {
				continue
			}
			if c.pushHit(t, p, 0, stack, thread) {
				found = true
			}
		}
	}

	// End caps, only present when the corresponding radius is nonzero.
	if d.Y != 0 {
		if c.BottomRadius > 0 {
			t := (0 - o.Y) / d.Y
			p := o.Add(d.Scale(t))
			if p.X*p.X+p.Z*p.Z <= c.BottomRadius*c.BottomRadius {
				if c.pushHit(t, p, 1, stack, thread) {
					found = true
				}
			}
		}
		if c.TopRadius > 0 {
			t := (c.Height - o.Y) / d.Y
			p := o.Add(d.Scale(t))
			if p.X*p.X+p.Z*p.Z <= c.TopRadius*c.TopRadius {
				if c.pushHit(t, p, 2, stack, thread) {
					found = true
				}
			}
		}
	}
	return found
}

func (c *Cone) pushHit(t float64, local math3d.Vec3, face int, stack *HitStack, thread *Thread) bool {
	world := c.toWorldPoint(local)
	if !c.Clips.Accepts(world, thread) {
		return false
	}
	if stack.Push(Hit{T: t, Point: world, Primitive: c, LocalPoint: local, I1: face}) {
		thread.Stats.RayPrimitiveHits++
		return true
	}
	return false
}

func (c *Cone) Inside(point math3d.Vec3, thread *Thread) bool {
	p := c.toLocalPoint(point)
	inside := false
	if p.Y >= 0 && p.Y <= c.Height {
		r := c.radiusAt(p.Y)
		inside = p.X*p.X+p.Z*p.Z < r*r
	}
	return c.accept(inside, point, thread)
}

func (c *Cone) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	var n math3d.Vec3
	switch hit.I1 {
	case 1:
		n = math3d.V3(0, -1, 0)
	case 2:
		n = math3d.V3(0, 1, 0)
	default:
		k := (c.TopRadius - c.BottomRadius) / c.Height
		n = math3d.V3(p.X, -k*c.radiusAt(p.Y), p.Z).Normalize()
	}
	if c.InvertedFlag {
		n = n.Negate()
	}
	return c.toWorldNormal(n)
}

func (c *Cone) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	return math3d.V2(atan2Norm(p.Z, p.X), p.Y/c.Height)
}

func (c *Cone) Invert() Primitive {
	cp := *c
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
