package camera

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
)

func TestPerspectiveRayCentered(t *testing.T) {
	c := NewPerspective(math3d.V3(0, 0, 0), math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0))
	ray, ok := c.PrimaryRay(50, 50, 100, 100)
	if !ok {
		t.Fatal("expected ok ray")
	}
	if ray.Origin != (math3d.Vec3{}) {
		t.Errorf("center pixel origin = %v, want zero", ray.Origin)
	}
	want := math3d.V3(0, 0, 1).Normalize()
	if math.Abs(ray.Direction.X-want.X) > 1e-9 || math.Abs(ray.Direction.Y-want.Y) > 1e-9 || math.Abs(ray.Direction.Z-want.Z) > 1e-9 {
		t.Errorf("center pixel direction = %v, want %v", ray.Direction, want)
	}
}

func TestPerspectiveRayOffsetsTowardCorner(t *testing.T) {
	c := NewPerspective(math3d.V3(0, 0, 0), math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0))
	ray, ok := c.PrimaryRay(100, 0, 100, 100)
	if !ok {
		t.Fatal("expected ok ray")
	}
	if ray.Direction.X <= 0 {
		t.Errorf("top-right pixel should deflect toward +X, got %v", ray.Direction)
	}
	if ray.Direction.Y <= 0 {
		t.Errorf("top-right pixel should deflect toward +Y, got %v", ray.Direction)
	}
}

func TestOrthographicRayParallelDirection(t *testing.T) {
	c := &Camera{Type: Orthographic, Location: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1), Right: math3d.V3(2, 0, 0), Up: math3d.V3(0, 2, 0)}
	r1, _ := c.PrimaryRay(0, 0, 100, 100)
	r2, _ := c.PrimaryRay(99, 99, 100, 100)
	if r1.Direction != r2.Direction {
		t.Errorf("orthographic rays should share direction: %v vs %v", r1.Direction, r2.Direction)
	}
	if r1.Origin == r2.Origin {
		t.Error("orthographic rays should originate from distinct points on the image plane")
	}
}

func TestFisheyeRejectsOutsideDisc(t *testing.T) {
	c := &Camera{Type: Fisheye, Location: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1), Right: math3d.V3(1, 0, 0), Up: math3d.V3(0, 1, 0), Angle: math.Pi}
	_, ok := c.PrimaryRay(0, 0, 100, 100)
	if ok {
		t.Error("corner pixel lies outside the fisheye disc and should be rejected")
	}
	_, ok = c.PrimaryRay(50, 50, 100, 100)
	if !ok {
		t.Error("center pixel lies inside the fisheye disc and should be accepted")
	}
}

func TestSphericalUsesDistinctHVAngles(t *testing.T) {
	c := &Camera{Type: Spherical, Location: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1), Right: math3d.V3(1, 0, 0), Up: math3d.V3(0, 1, 0), Angle: math.Pi / 2, VAngle: math.Pi / 4}
	center, _ := c.PrimaryRay(50, 50, 100, 100)
	if math.Abs(center.Direction.X) > 1e-9 || math.Abs(center.Direction.Y) > 1e-9 {
		t.Errorf("center pixel should point straight along Direction, got %v", center.Direction)
	}
	edge, _ := c.PrimaryRay(100, 50, 100, 100)
	if edge.Direction == center.Direction {
		t.Error("edge pixel should rotate away from center")
	}
}

func TestUserDefinedFallsBackToDefaults(t *testing.T) {
	c := &Camera{Type: UserDefined, Location: math3d.V3(1, 2, 3), Direction: math3d.V3(0, 0, 1)}
	ray, ok := c.PrimaryRay(50, 50, 100, 100)
	if !ok {
		t.Fatal("expected ok ray")
	}
	if ray.Origin != (math3d.Vec3{1, 2, 3}) {
		t.Errorf("origin with no user funcs = %v, want location", ray.Origin)
	}
}

func TestUserDefinedInvokesFuncs(t *testing.T) {
	c := &Camera{Type: UserDefined, Location: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1)}
	c.UserFuncs[0] = func(x0, y0 float64) float64 { return x0 * 10 }
	ray, ok := c.PrimaryRay(100, 50, 100, 100)
	if !ok {
		t.Fatal("expected ok ray")
	}
	if ray.Origin.X != 5 {
		t.Errorf("origin.X = %v, want 5 (x0=0.5 * 10)", ray.Origin.X)
	}
}

func TestJitterGridsCoverRequestedCounts(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 4}, {4, 4}, {7, 7}, {19, 19}, {37, 37}, {100, 37},
	}
	for _, tc := range tests {
		got := SamplePoints(tc.n)
		if len(got) != tc.want {
			t.Errorf("SamplePoints(%d) has %d points, want %d", tc.n, len(got), tc.want)
		}
	}
}

func TestJitter2dIsDeterministic(t *testing.T) {
	a1, b1 := Jitter2d(3, 7)
	a2, b2 := Jitter2d(3, 7)
	if a1 != a2 || b1 != b2 {
		t.Error("Jitter2d must be a pure function of its inputs")
	}
	a3, b3 := Jitter2d(4, 7)
	if a1 == a3 && b1 == b3 {
		t.Error("distinct coordinates should usually produce distinct jitter")
	}
}

func TestSampleAdequateRespectsMinSamples(t *testing.T) {
	fb := &FocalBlur{Samples: 37, MinSamples: 4, Confidence: 0.95, Variance: 1.0}
	if SampleAdequate(fb, 2, 0.0) {
		t.Error("should not be adequate before MinSamples taken, even with zero variance")
	}
	if !SampleAdequate(fb, 37, 1000.0) {
		t.Error("should always be adequate once Samples cap is reached")
	}
}

func TestApertureSampleKeepsFocalPointFixed(t *testing.T) {
	c := NewPerspective(math3d.V3(0, 0, 0), math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0))
	c.FocalBlur = &FocalBlur{Aperture: 0.5, FocalDistance: 10}

	origin, dir := math3d.V3(0, 0, 0), math3d.V3(0, 0, 1)
	focal := origin.Add(dir.Scale(10))

	o1, d1 := c.ApertureSample(origin, dir, 0.3, -0.2)
	reached := o1.Add(d1.Scale(focal.Sub(o1).Len()))
	if reached.Distance(focal) > 1e-6 {
		t.Errorf("jittered ray should still pass through the focal point: got %v, want %v", reached, focal)
	}
	if o1 == origin {
		t.Error("aperture sample should displace the ray origin")
	}
}
