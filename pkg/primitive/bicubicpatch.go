package primitive

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// BicubicPatch is a Bezier surface over a 4x4 control point grid,
// intersected by flattening it into a triangle mesh at construction time
// and testing each triangle directly, the same tessellate-then-test
// strategy the reference implementation falls back to for its
// non-planar, non-quadric swept surfaces.
type BicubicPatch struct {
	base
	Control    [4][4]math3d.Vec3
	Subdivide  int
	triangles  []bicubicTri
}

type bicubicTri struct {
	a, b, c math3d.Vec3
}

// NewBicubicPatch builds a patch from its 16 control points, tessellated
// into subdivide x subdivide quads (2 triangles each) for intersection.
func NewBicubicPatch(control [4][4]math3d.Vec3, subdivide int) (*BicubicPatch, error) {
	if subdivide < 1 {
		return nil, errDomain("bicubic patch: subdivide must be positive")
	}
	p := &BicubicPatch{Control: control, Subdivide: subdivide}
	p.tessellate()
	min, max := math3d.V3(math.Inf(1), math.Inf(1), math.Inf(1)), math3d.V3(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, row := range control {
		for _, c := range row {
			min = math3d.V3(math.Min(min.X, c.X), math.Min(min.Y, c.Y), math.Min(min.Z, c.Z))
			max = math3d.V3(math.Max(max.X, c.X), math.Max(max.Y, c.Y), math.Max(max.Z, c.Z))
		}
	}
	p.Bounds = math3d.NewBoundingBox(min, max)
	return p, nil
}

func bernstein3(t float64) [4]float64 {
	mt := 1 - t
	return [4]float64{
		mt * mt * mt,
		3 * mt * mt * t,
		3 * mt * t * t,
		t * t * t,
	}
}

func (p *BicubicPatch) eval(u, v float64) math3d.Vec3 {
	bu := bernstein3(u)
	bv := bernstein3(v)
	var sum math3d.Vec3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			w := bu[i] * bv[j]
			sum = sum.Add(p.Control[i][j].Scale(w))
		}
	}
	return sum
}

func (p *BicubicPatch) tessellate() {
	n := p.Subdivide
	grid := make([][]math3d.Vec3, n+1)
	for i := 0; i <= n; i++ {
		grid[i] = make([]math3d.Vec3, n+1)
		u := float64(i) / float64(n)
		for j := 0; j <= n; j++ {
			v := float64(j) / float64(n)
			grid[i][j] = p.eval(u, v)
		}
	}
	p.triangles = nil
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p00, p10, p01, p11 := grid[i][j], grid[i+1][j], grid[i][j+1], grid[i+1][j+1]
			p.triangles = append(p.triangles,
				bicubicTri{p00, p10, p11},
				bicubicTri{p00, p11, p01},
			)
		}
	}
}

func (p *BicubicPatch) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := p.toLocal(origin, direction)
	found := false
	var seen []float64
	for _, tri := range p.triangles {
		t, ok := rayTriangleIntersect(o, d, tri.a, tri.b, tri.c)
		if !ok {
			continue
		}
		// Triangles sharing an edge or vertex the ray passes through all
		// report the same crossing; keep only the first report.
		dup := false
		for _, s := range seen {
			dup = dup || math.Abs(t-s) <= Epsilon
		}
		if dup {
			continue
		}
		seen = append(seen, t)
		local := o.Add(d.Scale(t))
		world := p.toWorldPoint(local)
		if !p.Clips.Accepts(world, thread) {
			continue
		}
		n := tri.b.Sub(tri.a).Cross(tri.c.Sub(tri.a)).Normalize()
		hit := Hit{T: t, Point: world, Primitive: p, LocalPoint: local}
		hit.D1 = n.X
		hit.I1 = int(math.Round(n.Y * 1000))
		hit.I2 = int(math.Round(n.Z * 1000))
		if stack.Push(hit) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (p *BicubicPatch) Inside(point math3d.Vec3, thread *Thread) bool {
	// An open (non-closed) bicubic patch has no well-defined interior;
	// the reference implementation documents the same limitation.
	return p.accept(false, point, thread)
}

func (p *BicubicPatch) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := math3d.V3(hit.D1, float64(hit.I1)/1000, float64(hit.I2)/1000).Normalize()
	if p.InvertedFlag {
		n = n.Negate()
	}
	return p.toWorldNormal(n)
}

func (p *BicubicPatch) UV(hit *Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Z)
}

func (p *BicubicPatch) Invert() Primitive {
	cp := *p
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
