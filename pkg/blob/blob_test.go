package blob

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// singleSphereBlob builds a blob with one element whose support radius
// and threshold are chosen so its field equals exactly 0 at the support
// boundary and the iso-surface sits at a known, easily-checked depth.
func singleSphereBlob(center math3d.Vec3, radius, isoRadius float64) *Blob {
	// density(d^2) = c*(1-(d/r)^2)^2 equals threshold when
	// (d/r)^2 = 1 - sqrt(threshold/c). Choose c=1, threshold such that
	// the iso-surface falls at isoRadius.
	frac := isoRadius / radius
	threshold := math.Pow(1-frac*frac, 2)
	e := NewElement(Sphere, center, math3d.V3(0, 1, 0), math3d.V3(1, 1, 1), radius, 0, 1)
	return New([]Element{e}, threshold)
}

func TestAllIntersectionsHitsSphereLikeBlob(t *testing.T) {
	b := singleSphereBlob(math3d.V3(0, 0, 0), 2, 1)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	ok := b.AllIntersections(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), stack, thread)
	if !ok {
		t.Fatal("expected a hit through the blob's iso-surface")
	}
	hit, _ := stack.Closest()
	if math.Abs(hit.T-9) > 1e-4 {
		t.Errorf("T = %v, want close to 9 (iso radius 1 at z=-1)", hit.T)
	}
}

func TestAllIntersectionsMissesFarRay(t *testing.T) {
	b := singleSphereBlob(math3d.V3(0, 0, 0), 2, 1)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	ok := b.AllIntersections(math3d.V3(10, 10, -10), math3d.V3(0, 0, 1), stack, thread)
	if ok {
		t.Error("ray far from the blob should not hit")
	}
}

func TestInsideMatchesFieldThreshold(t *testing.T) {
	b := singleSphereBlob(math3d.V3(0, 0, 0), 2, 1)
	thread := &primitive.Thread{}

	if !b.Inside(math3d.V3(0, 0, 0), thread) {
		t.Error("center should be inside the iso-surface")
	}
	if b.Inside(math3d.V3(0, 0, 5), thread) {
		t.Error("point well outside the support radius should be outside")
	}
}

func TestInvertFlipsInside(t *testing.T) {
	b := singleSphereBlob(math3d.V3(0, 0, 0), 2, 1)
	thread := &primitive.Thread{}

	inside := b.Inside(math3d.V3(0, 0, 0), thread)
	inverted := b.Invert()
	if inverted.Inside(math3d.V3(0, 0, 0), thread) == inside {
		t.Error("inverting should flip the inside test at the same point")
	}
}

func TestNormalPointsOutwardFromCenter(t *testing.T) {
	b := singleSphereBlob(math3d.V3(0, 0, 0), 2, 1)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	b.AllIntersections(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), stack, thread)
	hit, ok := stack.Closest()
	if !ok {
		t.Fatal("expected a hit")
	}
	n := hit.Primitive.Normal(&hit, thread)
	if n.Z > 0 {
		t.Errorf("normal facing a ray from -Z should point toward -Z, got %v", n)
	}
	if math.Abs(n.Len()-1) > 1e-3 {
		t.Errorf("normal should be unit length, got %v", n.Len())
	}
}

func TestTwoElementsBlendNearMidpoint(t *testing.T) {
	e1 := NewElement(Sphere, math3d.V3(-0.6, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 1), 1, 0, 1)
	e2 := NewElement(Sphere, math3d.V3(0.6, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 1), 1, 0, 1)
	b := New([]Element{e1, e2}, 0.5)
	thread := &primitive.Thread{}

	if !b.Inside(math3d.V3(0, 0, 0), thread) {
		t.Error("midpoint between two overlapping blended elements should meet the threshold")
	}
}

func TestBoundingBoxCoversElementSupport(t *testing.T) {
	b := singleSphereBlob(math3d.V3(1, 2, 3), 2, 1)
	box := b.BoundingBox()
	if !box.ContainsPoint(math3d.V3(3, 2, 3)) {
		t.Error("bounding box should contain a point at the element's support radius")
	}
}
