package heightfield

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// flatField builds a perfectly flat field at the given elevation, so ray
// intersections have a closed-form expected depth.
func flatField(width, depth int, elevation uint16, smooth bool) *HeightField {
	grid := make([]uint16, width*depth)
	for i := range grid {
		grid[i] = elevation
	}
	return New(width, depth, grid, smooth)
}

func TestAllIntersectionsHitsFlatField(t *testing.T) {
	hf := flatField(4, 4, 100, false)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	ok := hf.AllIntersections(math3d.V3(1.5, 1000, 1.5), math3d.V3(0, -1, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit straight down through a flat field")
	}
	hit, _ := stack.Closest()
	if math.Abs(hit.T-900) > 1e-6 {
		t.Errorf("T = %v, want 900 (elevation 100 below y=1000)", hit.T)
	}
}

func TestAllIntersectionsMissesOutsideGrid(t *testing.T) {
	hf := flatField(4, 4, 100, false)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	ok := hf.AllIntersections(math3d.V3(50, 1000, 50), math3d.V3(0, -1, 0), stack, thread)
	if ok {
		t.Error("ray outside the grid footprint should not hit")
	}
}

func TestFlatFieldNormalPointsUp(t *testing.T) {
	hf := flatField(4, 4, 100, false)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	hf.AllIntersections(math3d.V3(1.5, 1000, 1.5), math3d.V3(0, -1, 0), stack, thread)
	hit, ok := stack.Closest()
	if !ok {
		t.Fatal("expected a hit")
	}
	n := hit.Primitive.Normal(&hit, thread)
	if math.Abs(n.Y-1) > 1e-6 {
		t.Errorf("flat field normal = %v, want (0,1,0)", n)
	}
}

func TestSmoothNormalsAreUnitLength(t *testing.T) {
	grid := []uint16{0, 10, 20, 5, 15, 25, 10, 20, 30}
	hf := New(3, 3, grid, true)
	for _, n := range hf.normals {
		v := n.toVec3()
		if math.Abs(v.Len()-1) > 0.05 {
			t.Errorf("quantized normal %v has length %v, want ~1", v, v.Len())
		}
	}
}

func TestBlockFarFromSpikeStaysFlat(t *testing.T) {
	// 5x5 grid, all zero except a spike at the far corner (4,4). The
	// block covering the near corner's cell never sees the spike vertex,
	// so a ray there should behave exactly like a flat field at 0.
	grid := make([]uint16, 25)
	grid[4*5+4] = 65535
	hf := New(5, 5, grid, false)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	ok := hf.AllIntersections(math3d.V3(0.1, 1, 0.1), math3d.V3(0, -1, 0), stack, thread)
	if !ok {
		t.Fatal("expected a hit near the zero-elevation corner")
	}
	hit, _ := stack.Closest()
	if math.Abs(hit.T-1) > 1e-6 {
		t.Errorf("T = %v, want 1 (flat zero elevation near the origin corner)", hit.T)
	}
}

func TestUVSpansUnitSquare(t *testing.T) {
	hf := flatField(5, 5, 10, false)
	stack := &primitive.HitStack{}
	thread := &primitive.Thread{}

	hf.AllIntersections(math3d.V3(3.9, 1000, 3.9), math3d.V3(0, -1, 0), stack, thread)
	hit, ok := stack.Closest()
	if !ok {
		t.Fatal("expected a hit")
	}
	uv := hit.Primitive.UV(&hit)
	if math.Abs(uv.X-0.975) > 1e-6 || math.Abs(uv.Y-0.975) > 1e-6 {
		t.Errorf("UV near far corner = %v, want (0.975,0.975)", uv)
	}
}

func TestInvertFlipsInside(t *testing.T) {
	hf := flatField(4, 4, 100, false)
	thread := &primitive.Thread{}

	inside := hf.Inside(math3d.V3(1.5, 50, 1.5), thread)
	inverted := hf.Invert()
	if inverted.Inside(math3d.V3(1.5, 50, 1.5), thread) == inside {
		t.Error("inverting should flip the inside test at the same point")
	}
}

func TestBoundingBoxSpansGridAndElevation(t *testing.T) {
	grid := []uint16{0, 0, 0, 0, 200, 0, 0, 0, 0}
	hf := New(3, 3, grid, false)
	box := hf.BoundingBox()
	up := box.Upper()
	if up.X != 2 || up.Z != 2 || up.Y != 200 {
		t.Errorf("Upper = %v, want (2,200,2)", up)
	}
}
