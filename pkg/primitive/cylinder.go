package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// Cylinder is a finite cylinder along the local Y axis, from Y=0 to
// Y=Height, with the given Radius. End caps are flat disks whose normal
// is +/-Y.
type Cylinder struct {
	base
	Radius, Height float64
}

// NewCylinder builds a cylinder of the given radius and height, base at
// local Y=0.
func NewCylinder(radius, height float64) *Cylinder {
	c := &Cylinder{Radius: radius, Height: height}
	c.Bounds = math3d.NewBoundingBox(
		math3d.V3(-radius, 0, -radius),
		math3d.V3(radius, height, radius),
	)
	return c
}

func (c *Cylinder) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := c.toLocal(origin, direction)
	found := false

	// Side surface: x^2 + z^2 = r^2.
	a := d.X*d.X + d.Z*d.Z
	b := 2 * (o.X*d.X + o.Z*d.Z)
	cc := o.X*o.X + o.Z*o.Z - c.Radius*c.Radius
	if t0, t1, ok := solveQuadraticRobust(a, b, cc); ok {
		for _, t := range [2]float64{t0, t1} {
			p := o.Add(d.Scale(t))
			if p.Y < 0 || p.Y > c.Height {
				continue
			}
			if c.pushHit(t, p, false, origin, direction, stack, thread) {
				found = true
			}
		}
	}

	// End caps.
	if d.Y != 0 {
		for _, capY := range [2]float64{0, c.Height} {
			t := (capY - o.Y) / d.Y
			p := o.Add(d.Scale(t))
			if p.X*p.X+p.Z*p.Z <= c.Radius*c.Radius {
				if c.pushHit(t, p, true, origin, direction, stack, thread) {
					found = true
				}
			}
		}
	}
	return found
}

func (c *Cylinder) pushHit(t float64, local math3d.Vec3, cap bool, origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	world := c.toWorldPoint(local)
	if !c.Clips.Accepts(world, thread) {
		return false
	}
	b1 := 0.0
	if cap {
		b1 = 1
	}
	if stack.Push(Hit{T: t, Point: world, Primitive: c, LocalPoint: local, D1: b1}) {
		thread.Stats.RayPrimitiveHits++
		return true
	}
	return false
}

func (c *Cylinder) Inside(point math3d.Vec3, thread *Thread) bool {
	p := c.toLocalPoint(point)
	inside := p.Y >= 0 && p.Y <= c.Height && p.X*p.X+p.Z*p.Z < c.Radius*c.Radius
	return c.accept(inside, point, thread)
}

func (c *Cylinder) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	var n math3d.Vec3
	if hit.D1 != 0 {
		if p.Y < c.Height/2 {
			n = math3d.V3(0, -1, 0)
		} else {
			n = math3d.V3(0, 1, 0)
		}
	} else {
		n = math3d.V3(p.X, 0, p.Z).Normalize()
	}
	if c.InvertedFlag {
		n = n.Negate()
	}
	return c.toWorldNormal(n)
}

func (c *Cylinder) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	return math3d.V2(atan2Norm(p.Z, p.X), p.Y/c.Height)
}

func (c *Cylinder) Invert() Primitive {
	cp := *c
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
