package debugview

import "github.com/taigrr/tracecore/pkg/math3d"

// plane is Ax + By + Cz + D = 0, normal pointing toward the frustum's
// interior.
type plane struct {
	normal math3d.Vec3
	d      float64
}

func (p *plane) normalize() {
	l := p.normal.Len()
	if l == 0 {
		return
	}
	p.normal = p.normal.Scale(1 / l)
	p.d /= l
}

func (p plane) distance(point math3d.Vec3) float64 {
	return p.normal.Dot(point) + p.d
}

// frustum is the six-plane view volume of a Projector, used to cull
// bounding boxes before spending Bresenham line draws on geometry that
// would land entirely off-screen.
type frustum struct {
	planes [6]plane
}

// newFrustum extracts the six frustum planes from a view-projection
// matrix by the Gribb/Hartmann method: each plane is a signed
// combination of the matrix's rows, found by expanding which clip-space
// half-space (x, y, or z within [-w, w]) that row's dot product with the
// homogeneous point tests.
func newFrustum(viewProj math3d.Mat4) frustum {
	var f frustum
	m := viewProj

	f.planes[0] = plane{math3d.V3(m[3]+m[0], m[7]+m[4], m[11]+m[8]), m[15] + m[12]} // left
	f.planes[1] = plane{math3d.V3(m[3]-m[0], m[7]-m[4], m[11]-m[8]), m[15] - m[12]} // right
	f.planes[2] = plane{math3d.V3(m[3]+m[1], m[7]+m[5], m[11]+m[9]), m[15] + m[13]} // bottom
	f.planes[3] = plane{math3d.V3(m[3]-m[1], m[7]-m[5], m[11]-m[9]), m[15] - m[13]} // top
	f.planes[4] = plane{math3d.V3(m[3]+m[2], m[7]+m[6], m[11]+m[10]), m[15] + m[14]} // near
	f.planes[5] = plane{math3d.V3(m[3]-m[2], m[7]-m[6], m[11]-m[10]), m[15] - m[14]} // far

	for i := range f.planes {
		f.planes[i].normalize()
	}
	return f
}

// intersectsBox reports whether any part of box lies inside the frustum,
// by the positive-vertex test: for each plane, only the box corner
// furthest along the plane's normal can be on the inside, so if even
// that corner fails the plane, the whole box is outside it.
func (f frustum) intersectsBox(box math3d.BoundingBox) bool {
	lo, hi := box.LowerLeft, box.Upper()
	for _, p := range f.planes {
		v := math3d.V3(
			selectAxis(p.normal.X >= 0, hi.X, lo.X),
			selectAxis(p.normal.Y >= 0, hi.Y, lo.Y),
			selectAxis(p.normal.Z >= 0, hi.Z, lo.Z),
		)
		if p.distance(v) < 0 {
			return false
		}
	}
	return true
}

func selectAxis(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// Frustum returns the view frustum p currently projects through, for
// callers that want to cull their own geometry before calling Box or
// Mesh.
func (p *Projector) Frustum() frustum {
	return newFrustum(p.viewProj)
}
