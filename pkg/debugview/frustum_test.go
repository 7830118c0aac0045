package debugview

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/camera"
	"github.com/taigrr/tracecore/pkg/math3d"
)

func testProjector() *Projector {
	cam := camera.NewPerspective(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0))
	cam.Angle = math.Pi / 2
	return NewProjector(cam, 64, 64)
}

func TestFrustumIntersectsBoxInView(t *testing.T) {
	proj := testProjector()
	box := math3d.NewBoundingBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	if !proj.Frustum().intersectsBox(box) {
		t.Error("a unit box at the origin should be inside the frustum of a camera looking at it")
	}
}

func TestFrustumRejectsBoxBehindCamera(t *testing.T) {
	proj := testProjector()
	box := math3d.NewBoundingBox(math3d.V3(-1, -1, -20), math3d.V3(1, 1, -18))
	if proj.Frustum().intersectsBox(box) {
		t.Error("a box behind the camera should not intersect its frustum")
	}
}

func TestWireframeBoxCulledOutsideFrustumDrawsNothing(t *testing.T) {
	proj := testProjector()
	fb := NewFramebuffer(64, 64)
	fb.Clear(ColorBackground)

	w := NewWireframe(proj, fb)
	w.Box(math3d.NewBoundingBox(math3d.V3(500, 500, 500), math3d.V3(501, 501, 501)), ColorWireframe)

	for _, p := range fb.Pixels {
		if p == ColorWireframe {
			t.Fatal("expected no wireframe pixels for a box far outside the frustum")
		}
	}
}
