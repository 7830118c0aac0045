// Package mesh implements the triangle-mesh primitive: a fixed array of
// vertices and triangles, accelerated by an internal bounding-box
// hierarchy, exposing the same intersect/inside/normal/uv contract as
// every other primitive (spec section 4.2.6).
package mesh

import (
	"github.com/taigrr/tracecore/pkg/bsp"
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// Vertex is one mesh vertex with its interpolation attributes.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Triangle references three vertices by index and caches its face
// normal plus whether smooth (per-vertex) shading normals apply.
type Triangle struct {
	V [3]int32

	Smooth      bool
	planeNormal math3d.Vec3
}

// Mesh is a fixed triangle mesh primitive, immutable after construction
// per the core's concurrency model (section 5): all caches are built
// once in New and never mutated by AllIntersections/Inside/Normal/UV.
type Mesh struct {
	base
	Vertices  []Vertex
	Triangles []Triangle

	tree *bsp.Tree
}

// base mirrors pkg/primitive's unexported base (transform, invert flag,
// clips, bounds) since Mesh lives in its own package and cannot embed an
// unexported type from another package.
type base struct {
	transform    math3d.Transform
	hasTransform bool
	inverted     bool
	clips        primitive.ClipList
	bounds       math3d.BoundingBox
}

// New builds a mesh from vertices and triangles, computing each
// triangle's cached face normal and constructing the bounding-box
// hierarchy used to accelerate intersection.
func New(vertices []Vertex, triangles []Triangle) *Mesh {
	m := &Mesh{Vertices: vertices, Triangles: triangles}

	bounds := make([]math3d.BoundingBox, len(triangles))
	worldBounds := math3d.EmptyBoundingBox()
	for i := range m.Triangles {
		t := &m.Triangles[i]
		a, b, c := m.pos(t, 0), m.pos(t, 1), m.pos(t, 2)
		t.planeNormal = b.Sub(a).Cross(c.Sub(a)).Normalize()

		box := math3d.NewBoundingBox(a.Min(b).Min(c), a.Max(b).Max(c))
		bounds[i] = box
		worldBounds = worldBounds.Union(box)
	}
	m.bounds = worldBounds
	m.tree = bsp.Build(bounds, bsp.DefaultOptions())
	return m
}

// WithTransform returns a copy of m carrying the given transform; the
// vertex/triangle arrays and internal bounding-box hierarchy (built in
// local space) are shared, only the world-space bounds are recomputed.
func (m *Mesh) WithTransform(t math3d.Transform) *Mesh {
	clone := *m
	clone.transform = t
	clone.hasTransform = true
	clone.bounds = m.bounds.Transform(t.Forward)
	return &clone
}

// WithClips returns a copy of m restricted to the given clip list.
func (m *Mesh) WithClips(clips primitive.ClipList) *Mesh {
	clone := *m
	clone.clips = clips
	return &clone
}

func (m *Mesh) pos(t *Triangle, i int) math3d.Vec3 {
	return m.Vertices[t.V[i]].Position
}

func (m *Mesh) toLocal(origin, direction math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	if !m.hasTransform {
		return origin, direction
	}
	return m.transform.InvPoint(origin), m.transform.InvDirection(direction)
}

func (m *Mesh) toWorldPoint(p math3d.Vec3) math3d.Vec3 {
	if !m.hasTransform {
		return p
	}
	return m.transform.Point(p)
}

func (m *Mesh) toWorldNormal(n math3d.Vec3) math3d.Vec3 {
	if !m.hasTransform {
		return n
	}
	return m.transform.Normal(n)
}

func (m *Mesh) toLocalPoint(p math3d.Vec3) math3d.Vec3 {
	if !m.hasTransform {
		return p
	}
	return m.transform.InvPoint(p)
}

// AllIntersections walks the mesh's bounding-box hierarchy front-to-back
// and tests every candidate triangle with the Möller-Trumbore algorithm
// rather than the plane-cache/dominant-axis projection test the
// reference uses for this step: the reference's near-parallel epsilon
// guard there is exactly the fragile case the core's own design notes
// flag as worth replacing with a direct, numerically robust test.
func (m *Mesh) AllIntersections(origin, direction math3d.Vec3, stack *primitive.HitStack, thread *primitive.Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := m.toLocal(origin, direction)

	found := false
	mailbox := bsp.NewMailbox(len(m.Triangles))
	m.tree.IntersectFrontToBack(o, d, 0, primitive.MaxDistance, mailbox, func(triID int32, maxDist *float64) {
		tri := &m.Triangles[triID]
		t, u, v, ok := rayTriangleIntersect(o, d, m.pos(tri, 0), m.pos(tri, 1), m.pos(tri, 2))
		if !ok || t <= primitive.DepthTolerance || t >= primitive.MaxDistance {
			return
		}
		localPoint := o.Add(d.Scale(t))
		worldPoint := m.toWorldPoint(localPoint)
		if !m.clips.Accepts(worldPoint, thread) {
			return
		}
		hit := primitive.Hit{
			T:          t,
			Point:      worldPoint,
			Primitive:  m,
			LocalPoint: localPoint,
			I1:         int(triID),
			D1:         u,
		}
		hit.I2 = int(u2i(v))
		if stack.Push(hit) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	})
	return found
}

// u2i and i2u round-trip a barycentric coordinate through Hit.I2 (an
// int field) by fixed-point scaling, since Hit carries only one spare
// float64 (D1) and mesh hits need two (u, v) to reconstruct the
// intersection's barycentric weights for smooth-normal interpolation.
const baryScale = 1 << 24

func u2i(v float64) int64 { return int64(v * baryScale) }
func i2u(i int) float64   { return float64(i) / baryScale }

// rayTriangleIntersect implements the Möller-Trumbore ray/triangle test,
// returning the hit depth and the barycentric weights of vertices b, c
// (the weight of a is 1-u-v).
func rayTriangleIntersect(origin, direction, a, b, c math3d.Vec3) (t, u, v float64, ok bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	pvec := direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -primitive.Epsilon && det < primitive.Epsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det
	tvec := origin.Sub(a)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qvec := tvec.Cross(edge1)
	v = direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = edge2.Dot(qvec) * invDet
	return t, u, v, true
}

// Inside reports whether point lies inside the mesh, using a parity
// count of mesh-crossings along an arbitrary fixed ray from point to
// infinity; only meaningful for meshes declared with an interior (a
// closed, consistently-wound surface), matching the reference's
// inside_vector opt-in.
func (m *Mesh) Inside(point math3d.Vec3, thread *primitive.Thread) bool {
	p := m.toLocalPoint(point)
	dir := math3d.V3(0.6700582, 0.7373396, 0.0898176) // arbitrary, unlikely to graze an edge
	crossings := 0
	mailbox := bsp.NewMailbox(len(m.Triangles))
	m.tree.IntersectFrontToBack(p, dir, primitive.DepthTolerance, primitive.MaxDistance, mailbox, func(triID int32, maxDist *float64) {
		tri := &m.Triangles[triID]
		t, _, _, ok := rayTriangleIntersect(p, dir, m.pos(tri, 0), m.pos(tri, 1), m.pos(tri, 2))
		if ok && t > primitive.DepthTolerance {
			crossings++
		}
	})
	inside := crossings%2 == 1
	if m.inverted {
		inside = !inside
	}
	if inside && len(m.clips) > 0 {
		inside = m.clips.Accepts(point, thread)
	}
	return inside
}

// Normal returns the interpolated smooth normal (if the hit triangle is
// smooth) or the flat face normal, reconstructed from the barycentric
// weights stashed in the hit's opaque fields during AllIntersections.
func (m *Mesh) Normal(hit *primitive.Hit, thread *primitive.Thread) math3d.Vec3 {
	tri := &m.Triangles[hit.I1]
	if !tri.Smooth {
		n := tri.planeNormal
		if m.inverted {
			n = n.Negate()
		}
		return m.toWorldNormal(n)
	}
	u := hit.D1
	v := i2u(hit.I2)
	w := 1 - u - v
	n0 := m.Vertices[tri.V[0]].Normal
	n1 := m.Vertices[tri.V[1]].Normal
	n2 := m.Vertices[tri.V[2]].Normal
	n := n0.Scale(w).Add(n1.Scale(u)).Add(n2.Scale(v)).Normalize()
	if m.inverted {
		n = n.Negate()
	}
	return m.toWorldNormal(n)
}

// UV interpolates per-vertex texture coordinates at the hit using the
// same barycentric weights Normal reconstructs.
func (m *Mesh) UV(hit *primitive.Hit) math3d.Vec2 {
	tri := &m.Triangles[hit.I1]
	u := hit.D1
	v := i2u(hit.I2)
	w := 1 - u - v
	uv0 := m.Vertices[tri.V[0]].UV
	uv1 := m.Vertices[tri.V[1]].UV
	uv2 := m.Vertices[tri.V[2]].UV
	return math3d.V2(
		uv0.X*w+uv1.X*u+uv2.X*v,
		uv0.Y*w+uv1.Y*u+uv2.Y*v,
	)
}

func (m *Mesh) BoundingBox() math3d.BoundingBox { return m.bounds }
func (m *Mesh) Inverted() bool                  { return m.inverted }
func (m *Mesh) Opaque() bool                    { return true }

// Invert returns a shallow copy of the mesh with its inverted flag
// flipped; the shared vertex/triangle arrays and bounding-box hierarchy
// are not rebuilt, matching the copy-on-write sharing spec's CSG node
// invariant expects of its children.
func (m *Mesh) Invert() primitive.Primitive {
	clone := *m
	clone.inverted = !m.inverted
	return &clone
}
