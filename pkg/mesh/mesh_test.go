package mesh

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

func unitQuad() *Mesh {
	vertices := []Vertex{
		{Position: math3d.V3(-1, -1, 0), UV: math3d.V2(0, 0)},
		{Position: math3d.V3(1, -1, 0), UV: math3d.V2(1, 0)},
		{Position: math3d.V3(1, 1, 0), UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-1, 1, 0), UV: math3d.V2(0, 1)},
	}
	triangles := []Triangle{
		{V: [3]int32{0, 1, 2}},
		{V: [3]int32{0, 2, 3}},
	}
	return New(vertices, triangles)
}

func TestAllIntersectionsHitsFlatQuad(t *testing.T) {
	m := unitQuad()
	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}

	ok := m.AllIntersections(math3d.V3(0.2, 0.3, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit through the quad's interior")
	}
	hit, _ := stack.Closest()
	if math.Abs(hit.T-5) > 1e-9 {
		t.Errorf("T = %v, want 5", hit.T)
	}
}

func TestAllIntersectionsMissesOutsideQuad(t *testing.T) {
	m := unitQuad()
	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}

	ok := m.AllIntersections(math3d.V3(5, 5, -5), math3d.V3(0, 0, 1), stack, thread)
	if ok {
		t.Error("ray outside the quad's footprint should not hit")
	}
}

func TestNormalMatchesFlatFace(t *testing.T) {
	m := unitQuad()
	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}

	m.AllIntersections(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1), stack, thread)
	hit, _ := stack.Closest()
	n := hit.Primitive.Normal(&hit, thread)
	if math.Abs(n.X) > 1e-9 || math.Abs(n.Y) > 1e-9 || math.Abs(math.Abs(n.Z)-1) > 1e-9 {
		t.Errorf("normal = %v, want a unit vector along Z", n)
	}
}

func TestUVInterpolatesAtCenter(t *testing.T) {
	m := unitQuad()
	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}

	m.AllIntersections(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1), stack, thread)
	hit, _ := stack.Closest()
	uv := hit.Primitive.UV(&hit)
	if math.Abs(uv.X-0.5) > 1e-6 || math.Abs(uv.Y-0.5) > 1e-6 {
		t.Errorf("center UV = %v, want (0.5, 0.5)", uv)
	}
}

func TestSmoothNormalInterpolatesAcrossTriangle(t *testing.T) {
	vertices := []Vertex{
		{Position: math3d.V3(-1, -1, 0), Normal: math3d.V3(-1, -1, 1).Normalize()},
		{Position: math3d.V3(1, -1, 0), Normal: math3d.V3(1, -1, 1).Normalize()},
		{Position: math3d.V3(0, 1, 0), Normal: math3d.V3(0, 1, 1).Normalize()},
	}
	triangles := []Triangle{{V: [3]int32{0, 1, 2}, Smooth: true}}
	m := New(vertices, triangles)

	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}
	m.AllIntersections(math3d.V3(0, -0.5, -5), math3d.V3(0, 0, 1), stack, thread)
	hit, ok := stack.Closest()
	if !ok {
		t.Fatal("expected a hit")
	}
	n := hit.Primitive.Normal(&hit, thread)
	if math.Abs(n.Len()-1) > 1e-6 {
		t.Errorf("smooth normal should be unit length, got %v", n.Len())
	}
	// A smooth-shaded interior point should not exactly match any single
	// vertex normal component-for-component (it's a genuine blend).
	if n == vertices[0].Normal || n == vertices[1].Normal || n == vertices[2].Normal {
		t.Error("interpolated normal should differ from every vertex normal at an interior point")
	}
}

func TestInvertFlipsInsideForClosedBox(t *testing.T) {
	m := closedUnitBox()
	thread := &primitive.Thread{}

	inside := m.Inside(math3d.V3(0, 0, 0), thread)
	if !inside {
		t.Fatal("origin should be inside a closed unit box")
	}

	inverted := m.Invert()
	if inverted.Inside(math3d.V3(0, 0, 0), thread) == inside {
		t.Error("inverting should flip the inside test at the same point")
	}
}

// closedUnitBox builds a minimal watertight, consistently-wound box mesh
// (12 triangles) for inside-query testing.
func closedUnitBox() *Mesh {
	c := [8]math3d.Vec3{
		math3d.V3(-1, -1, -1), math3d.V3(1, -1, -1), math3d.V3(1, 1, -1), math3d.V3(-1, 1, -1),
		math3d.V3(-1, -1, 1), math3d.V3(1, -1, 1), math3d.V3(1, 1, 1), math3d.V3(-1, 1, 1),
	}
	vertices := make([]Vertex, 8)
	for i, p := range c {
		vertices[i] = Vertex{Position: p}
	}
	faces := [][4]int32{
		{0, 1, 2, 3}, // -Z
		{5, 4, 7, 6}, // +Z
		{4, 0, 3, 7}, // -X
		{1, 5, 6, 2}, // +X
		{4, 5, 1, 0}, // -Y
		{3, 2, 6, 7}, // +Y
	}
	var triangles []Triangle
	for _, f := range faces {
		triangles = append(triangles,
			Triangle{V: [3]int32{f[0], f[1], f[2]}},
			Triangle{V: [3]int32{f[0], f[2], f[3]}},
		)
	}
	return New(vertices, triangles)
}

func TestBoundingBoxCoversAllVertices(t *testing.T) {
	m := closedUnitBox()
	b := m.BoundingBox()
	if b.LowerLeft != (math3d.Vec3{X: -1, Y: -1, Z: -1}) {
		t.Errorf("LowerLeft = %v, want (-1,-1,-1)", b.LowerLeft)
	}
	up := b.Upper()
	if up != (math3d.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Upper = %v, want (1,1,1)", up)
	}
}
