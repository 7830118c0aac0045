package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Lathe is a surface of revolution swept around the local Y axis from a
// 2D profile of (radius, height) control points connected by line
// segments (higher-order splines from the reference are approximated the
// same way Prism approximates them: by pre-subdividing the profile into
// enough linear segments before construction).
type Lathe struct {
	base
	Profile []math3d.Vec2 // X = radius, Y = height, sorted by increasing Y
}

// NewLathe builds a lathe from a profile of at least two points.
func NewLathe(profile []math3d.Vec2) (*Lathe, error) {
	if len(profile) < 2 {
		return nil, errDomain("lathe: profile needs at least 2 points")
	}
	l := &Lathe{Profile: profile}
	maxR, minY, maxY := 0.0, math.Inf(1), math.Inf(-1)
	for _, p := range profile {
		maxR = math.Max(maxR, math.Abs(p.X))
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	l.Bounds = math3d.NewBoundingBox(math3d.V3(-maxR, minY, -maxR), math3d.V3(maxR, maxY, maxR))
	return l, nil
}

// segmentQuadratic returns the ray/cone-frustum quadratic coefficients
// for one profile segment spanning local heights [y0,y1] with radii
// [r0,r1], treating the segment as a conical frustum (or cylinder when
// r0==r1), matching the per-segment decomposition used by Cone.
func segmentQuadratic(o, d math3d.Vec3, y0, y1, r0, r1 float64) (a, b, c float64) {
	k := (r1 - r0) / (y1 - y0)
	rAtY0 := r0 - k*y0
	a = d.X*d.X + d.Z*d.Z - k*k*d.Y*d.Y
	b = 2 * (o.X*d.X + o.Z*d.Z - k*d.Y*(rAtY0+k*o.Y))
	c = o.X*o.X + o.Z*o.Z - (rAtY0+k*o.Y)*(rAtY0+k*o.Y)
	return
}

func (l *Lathe) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := l.toLocal(origin, direction)
	found := false

	push := func(t float64, segIdx int) bool {
		local := o.Add(d.Scale(t))
		world := l.toWorldPoint(local)
		if !l.Clips.Accepts(world, thread) {
			return false
		}
		if stack.Push(Hit{T: t, Point: world, Primitive: l, LocalPoint: local, I1: segIdx}) {
			thread.Stats.RayPrimitiveHits++
			return true
		}
		return false
	}

	for i := 0; i < len(l.Profile)-1; i++ {
		p0, p1 := l.Profile[i], l.Profile[i+1]
		y0, y1 := p0.Y, p1.Y
		if y1 == y0 {
			continue
		}
		a, b, c := segmentQuadratic(o, d, y0, y1, p0.X, p1.X)
		if t0, t1, ok := solveQuadraticRobust(a, b, c); ok {
			for _, t := range [2]float64{t0, t1} {
				y := o.Y + t*d.Y
				if y >= math.Min(y0, y1) && y <= math.Max(y0, y1) && push(t, i) {
					found = true
				}
			}
		}
	}

	// End caps at the profile's first and last radius, when nonzero.
	if d.Y != 0 {
		first, last := l.Profile[0], l.Profile[len(l.Profile)-1]
		for idx, p := range [2]math3d.Vec2{first, last} {
			if p.X <= 0 {
				continue
			}
			t := (p.Y - o.Y) / d.Y
			pt := o.Add(d.Scale(t))
			rho2 := pt.X*pt.X + pt.Z*pt.Z
			if rho2 <= p.X*p.X && push(t, -(idx + 1)) {
				found = true
			}
		}
	}
	return found
}

func (l *Lathe) radiusAt(y float64) (float64, int) {
	for i := 0; i < len(l.Profile)-1; i++ {
		p0, p1 := l.Profile[i], l.Profile[i+1]
		lo, hi := math.Min(p0.Y, p1.Y), math.Max(p0.Y, p1.Y)
		if y >= lo && y <= hi {
			t := (y - p0.Y) / (p1.Y - p0.Y)
			return p0.X + (p1.X-p0.X)*t, i
		}
	}
	return 0, -1
}

func (l *Lathe) Inside(point math3d.Vec3, thread *Thread) bool {
	p := l.toLocalPoint(point)
	r, seg := l.radiusAt(p.Y)
	inside := seg >= 0 && (p.X*p.X+p.Z*p.Z) < r*r
	return l.accept(inside, point, thread)
}

func (l *Lathe) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	var n math3d.Vec3
	switch {
	case hit.I1 == -1:
		n = math3d.V3(0, -1, 0)
	case hit.I1 == -2:
		n = math3d.V3(0, 1, 0)
	default:
		p0, p1 := l.Profile[hit.I1], l.Profile[hit.I1+1]
		k := (p1.X - p0.X) / (p1.Y - p0.Y)
		n = math3d.V3(p.X, -k*math.Hypot(p.X, p.Z), p.Z).Normalize()
	}
	if l.InvertedFlag {
		n = n.Negate()
	}
	return l.toWorldNormal(n)
}

func (l *Lathe) UV(hit *Hit) math3d.Vec2 {
	p := hit.LocalPoint
	lo, hi := l.Profile[0].Y, l.Profile[len(l.Profile)-1].Y
	v := (p.Y - lo) / (hi - lo)
	return math3d.V2(atan2Norm(p.Z, p.X), v)
}

func (l *Lathe) Invert() Primitive {
	cp := *l
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
