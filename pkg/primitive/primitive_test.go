package primitive

import (
	"math"
	"sort"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
)

func hitDepths(stack *HitStack) []float64 {
	depths := make([]float64, len(stack.Hits))
	for i, h := range stack.Hits {
		depths[i] = h.T
	}
	sort.Float64s(depths)
	return depths
}

func assertDepths(t *testing.T, got []float64, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d hits %v, want %d hits %v", len(got), got, len(want), want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("hit %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSphereIntersections(t *testing.T) {
	s := NewSphere(math3d.V3(0, 0, 0), 5)
	stack := &HitStack{}
	thread := &Thread{}
	ok := s.AllIntersections(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{5, 15}, 1e-9)
}

func TestBoxIntersections(t *testing.T) {
	b := NewBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	stack := &HitStack{}
	thread := &Thread{}
	ok := b.AllIntersections(math3d.V3(-2, 0, 0), math3d.V3(1, 0, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{1, 3}, 1e-9)
}

func TestCylinderIntersections(t *testing.T) {
	c := NewCylinder(1, 2)
	stack := &HitStack{}
	thread := &Thread{}
	ok := c.AllIntersections(math3d.V3(0, 1, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{4, 6}, 1e-9)
}

func TestConeSharpApex(t *testing.T) {
	c := NewCone(1, 0, 2)
	stack := &HitStack{}
	thread := &Thread{}
	ok := c.AllIntersections(math3d.V3(0, 1, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(stack.Hits) != 2 {
		t.Fatalf("expected 2 hits through the cone's midsection, got %d", len(stack.Hits))
	}
}

// TestTorusIntersections exercises the worked example: a torus with
// major radius 2 and minor radius 0.5 centered at the origin, struck by
// a ray along the X axis through the donut hole and both tube walls.
//
// Direct substitution of this ray into the defining equation
// (|P|^2 - R^2 - r^2)^2 + 4*R^2*(P_y^2 - r^2) = 0 reduces, since the ray
// lies entirely in the y=0, z=0 plane, to (t-5)^2 = (R+-r)^2, giving
// t = 5 +- (R+-r) = {2.5, 3.5, 6.5, 7.5} for R=2, r=0.5.
func TestTorusIntersections(t *testing.T) {
	tor := NewTorus(2, 0.5)
	stack := &HitStack{}
	thread := &Thread{}
	ok := tor.AllIntersections(math3d.V3(-5, 0, 0), math3d.V3(1, 0, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{2.5, 3.5, 6.5, 7.5}, 1e-5)
}

func TestTorusMissesWhenOffAxis(t *testing.T) {
	tor := NewTorus(2, 0.5)
	stack := &HitStack{}
	thread := &Thread{}
	ok := tor.AllIntersections(math3d.V3(0, 10, 0), math3d.V3(0, 1, 0), stack, thread)
	if ok {
		t.Fatalf("expected no hit, got %v", hitDepths(stack))
	}
}

func TestSpindleTorusInsideDefaultsToSolid(t *testing.T) {
	// Minor radius exceeds major radius: the tube self-intersects and
	// forms a spindle region around the axis.
	tor := NewTorus(0.5, 2)
	thread := &Thread{}
	if !tor.Inside(math3d.V3(0, 0, 0), thread) {
		t.Error("expected the default SpindleInside mode to treat the axis as solid")
	}
}

func TestPlaneIntersection(t *testing.T) {
	p := NewPlane(math3d.V3(0, 1, 0), 2)
	stack := &HitStack{}
	thread := &Thread{}
	ok := p.AllIntersections(math3d.V3(0, -3, 0), math3d.V3(0, 1, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{5}, 1e-9)
}

func TestQuadricSphereEquivalence(t *testing.T) {
	bounds := math3d.NewBoundingBox(math3d.V3(-3, -3, -3), math3d.V3(3, 3, 3))
	q := NewQuadric([10]float64{1, 1, 1, 0, 0, 0, 0, 0, 0, -4}, bounds)
	stack := &HitStack{}
	thread := &Thread{}
	ok := q.AllIntersections(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{8, 12}, 1e-9)
}

func TestAlgebraicSurfaceMatchesSphere(t *testing.T) {
	bounds := math3d.NewBoundingBox(math3d.V3(-3, -3, -3), math3d.V3(3, 3, 3))
	terms := []AlgebraicTerm{
		{Coeff: 1, I: 2},
		{Coeff: 1, J: 2},
		{Coeff: 1, K: 2},
		{Coeff: -4},
	}
	a, err := NewAlgebraic(terms, 2, false, bounds)
	if err != nil {
		t.Fatalf("NewAlgebraic: %v", err)
	}
	stack := &HitStack{}
	thread := &Thread{}
	ok := a.AllIntersections(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{8, 12}, 1e-6)
}

func TestPolygonInsideContour(t *testing.T) {
	square := [][]math3d.Vec2{{
		math3d.V2(-1, -1), math3d.V2(1, -1), math3d.V2(1, 1), math3d.V2(-1, 1),
	}}
	poly, err := NewPolygon(square)
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}
	stack := &HitStack{}
	thread := &Thread{}
	ok := poly.AllIntersections(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit through the square's interior")
	}
	assertDepths(t, hitDepths(stack), []float64{5}, 1e-9)

	stack2 := &HitStack{}
	ok = poly.AllIntersections(math3d.V3(5, 5, -5), math3d.V3(0, 0, 1), stack2, thread)
	if ok {
		t.Error("expected a miss outside the square's contour")
	}
}

func TestLemonConstructionRejectsDegenerateInput(t *testing.T) {
	if _, err := NewLemon(0, 1, 1); err == nil {
		t.Error("expected an error for a zero radius")
	}
}

func TestOvusClampsOversizedTopRadius(t *testing.T) {
	o, err := NewOvus(1, 2, 3)
	if err != nil {
		t.Fatalf("NewOvus: %v", err)
	}
	if o.TopRadius >= o.BottomRadius {
		t.Errorf("expected TopRadius to be clamped below BottomRadius, got %v >= %v", o.TopRadius, o.BottomRadius)
	}
}

func TestLatheCylindricalProfile(t *testing.T) {
	profile := []math3d.Vec2{math3d.V2(1, 0), math3d.V2(1, 2)}
	l, err := NewLathe(profile)
	if err != nil {
		t.Fatalf("NewLathe: %v", err)
	}
	stack := &HitStack{}
	thread := &Thread{}
	ok := l.AllIntersections(math3d.V3(0, 1, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, hitDepths(stack), []float64{4, 6}, 1e-6)
}

func TestPrismSquareExtrusion(t *testing.T) {
	contour := []math3d.Vec2{
		math3d.V2(-1, -1), math3d.V2(1, -1), math3d.V2(1, 1), math3d.V2(-1, 1),
	}
	p, err := NewPrism(contour, 0, 2, PrismLinear, 1)
	if err != nil {
		t.Fatalf("NewPrism: %v", err)
	}
	stack := &HitStack{}
	thread := &Thread{}
	ok := p.AllIntersections(math3d.V3(0, 1, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit through the prism's square cross-section")
	}
	assertDepths(t, hitDepths(stack), []float64{4, 6}, 1e-6)
}

func TestBicubicPatchFlatPanel(t *testing.T) {
	var control [4][4]math3d.Vec3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			control[i][j] = math3d.V3(float64(i)-1.5, float64(j)-1.5, 0)
		}
	}
	p, err := NewBicubicPatch(control, 4)
	if err != nil {
		t.Fatalf("NewBicubicPatch: %v", err)
	}
	stack := &HitStack{}
	thread := &Thread{}
	ok := p.AllIntersections(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit on the flat panel")
	}
	assertDepths(t, hitDepths(stack), []float64{5}, 1e-6)
}

func TestInvertFlipsInsideOutside(t *testing.T) {
	s := NewSphere(math3d.V3(0, 0, 0), 1)
	thread := &Thread{}
	inner := math3d.V3(0, 0, 0)
	if !s.Inside(inner, thread) {
		t.Fatal("expected the origin to be inside the unit sphere")
	}
	inverted := s.Invert()
	if inverted.Inside(inner, thread) {
		t.Error("expected the inverted sphere to report the origin as outside")
	}
}
