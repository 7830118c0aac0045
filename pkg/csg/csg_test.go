package csg

import (
	"math"
	"sort"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

func depths(stack *primitive.HitStack) []float64 {
	out := make([]float64, len(stack.Hits))
	for i, h := range stack.Hits {
		out[i] = h.T
	}
	sort.Float64s(out)
	return out
}

func assertDepths(t *testing.T, got, want []float64, tol float64) {
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

// TestDifferenceWorkedExample exercises the scenario: unit sphere A at
// the origin minus unit sphere B at (1.5,0,0), ray origin (-2,0,0)
// direction (1,0,0).
//
// A's surface hits land at world x=-1 (t=1) and x=1 (t=3); B's surface
// hits land at world x=0.5 (t=2.5) and x=2.5 (t=4.5). A \ B keeps A's
// x=-1 hit (outside B) and B's x=0.5 hit (inside A), giving t={1.0, 2.5}.
func TestDifferenceWorkedExample(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1.5, 0, 0), 1)
	diff := NewDifference(a, b)

	thread := &primitive.Thread{}
	stack := &primitive.HitStack{}
	ok := diff.AllIntersections(math3d.V3(-2, 0, 0), math3d.V3(1, 0, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	assertDepths(t, depths(stack), []float64{1.0, 2.5}, 1e-9)
}

func TestUnionInsideMatchesEitherChild(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1.5, 0, 0), 1)
	u := NewUnion(a, b)
	thread := &primitive.Thread{}

	cases := []struct {
		p    math3d.Vec3
		want bool
	}{
		{math3d.V3(0, 0, 0), true},
		{math3d.V3(1.5, 0, 0), true},
		{math3d.V3(5, 5, 5), false},
	}
	for _, c := range cases {
		got := u.Inside(c.p, thread)
		want := a.Inside(c.p, thread) || b.Inside(c.p, thread)
		if got != want || got != c.want {
			t.Errorf("Inside(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestIntersectionInsideMatchesBothChildren(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(0.5, 0, 0), 1)
	inter := NewIntersection(a, b)
	thread := &primitive.Thread{}

	p := math3d.V3(0.25, 0, 0)
	if !inter.Inside(p, thread) {
		t.Error("expected the overlap region to be inside the intersection")
	}
	outside := math3d.V3(-0.9, 0, 0)
	if inter.Inside(outside, thread) {
		t.Error("expected a point inside only A to be outside the intersection")
	}
}

func TestInvertRoundTripPreservesInside(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1.5, 0, 0), 1)
	u := NewUnion(a, b)
	thread := &primitive.Thread{}

	twice := u.Invert().Invert()
	points := []math3d.Vec3{
		math3d.V3(0, 0, 0),
		math3d.V3(1.5, 0, 0),
		math3d.V3(10, 10, 10),
	}
	for _, p := range points {
		if u.Inside(p, thread) != twice.Inside(p, thread) {
			t.Errorf("invert(invert(P)) disagreed with P at %v", p)
		}
	}
}

// TestUnionKeepsAllHitsMergeSuppressesInteriorOnes exercises two
// overlapping unit spheres, A at the origin and B at (1,0,0), along the
// ray from (-2,0,0) toward +x. The ray crosses four surfaces in order:
// A's near side (t=1), B's near side (t=2, inside A), A's far side
// (t=3, inside B), B's far side (t=4). Union reports all four; Merge
// drops the two that land inside the other sphere, leaving only the
// outer boundary.
func TestUnionKeepsAllHitsMergeSuppressesInteriorOnes(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1, 0, 0), 1)
	thread := &primitive.Thread{}

	u := NewUnion(a, b)
	uStack := &primitive.HitStack{}
	if !u.AllIntersections(math3d.V3(-2, 0, 0), math3d.V3(1, 0, 0), uStack, thread) {
		t.Fatal("expected union hits")
	}
	assertDepths(t, depths(uStack), []float64{1, 2, 3, 4}, 1e-9)

	m := NewMerge(a, b)
	mStack := &primitive.HitStack{}
	if !m.AllIntersections(math3d.V3(-2, 0, 0), math3d.V3(1, 0, 0), mStack, thread) {
		t.Fatal("expected merge hits")
	}
	assertDepths(t, depths(mStack), []float64{1, 4}, 1e-9)
}

// TestGSDSymmetricDifferenceAllIntersections reuses the overlapping-sphere
// setup from TestUnionKeepsAllHitsMergeSuppressesInteriorOnes, but with a
// GSD node selecting exactly-one-containing-child (symmetric difference).
// The two hits that land inside the other sphere (t=2, t=3) sit in the
// two-children-containing region, which selected=[false,true,false]
// excludes, leaving only the outer boundary t={1,4}.
func TestGSDSymmetricDifferenceAllIntersections(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1, 0, 0), 1)
	gsd := NewGSD([]primitive.Primitive{a, b}, []bool{false, true, false})
	thread := &primitive.Thread{}

	stack := &primitive.HitStack{}
	if !gsd.AllIntersections(math3d.V3(-2, 0, 0), math3d.V3(1, 0, 0), stack, thread) {
		t.Fatal("expected gsd hits")
	}
	assertDepths(t, depths(stack), []float64{1, 4}, 1e-9)
}

func TestGSDSymmetricDifference(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(1, 0, 0), 1)
	// selected[1] = true picks points contained by exactly one child: the
	// classic symmetric difference.
	gsd := NewGSD([]primitive.Primitive{a, b}, []bool{false, true, false})
	thread := &primitive.Thread{}

	onlyA := math3d.V3(-0.9, 0, 0)
	if !gsd.Inside(onlyA, thread) {
		t.Error("expected a point inside only A to be inside the symmetric difference")
	}
	overlap := math3d.V3(0.5, 0, 0)
	if gsd.Inside(overlap, thread) {
		t.Error("expected a point inside both children to be outside the symmetric difference")
	}
}
