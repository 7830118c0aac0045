package scene

import (
	"math"
	"testing"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

func TestBuildSceneRejectsEmpty(t *testing.T) {
	_, err := BuildScene(nil, Options{})
	if err == nil {
		t.Fatal("expected an error building a scene with no primitives")
	}
}

func TestTraceFindsClosestOfTwoSpheres(t *testing.T) {
	near := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	far := primitive.NewSphere(math3d.V3(0, 0, 10), 1)
	s, err := BuildScene([]primitive.Primitive{near, far}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	thread := s.NewThread()

	ray := math3d.NewRay(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1))
	hit, ok := s.Trace(ray, thread)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.T-4) > 1e-9 {
		t.Errorf("T = %v, want 4 (nearest sphere surface)", hit.T)
	}
	if hit.Primitive != primitive.Primitive(near) {
		t.Error("expected the nearer sphere to be the one hit")
	}
}

func TestTraceMissesEmptySpace(t *testing.T) {
	sph := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	s, _ := BuildScene([]primitive.Primitive{sph}, Options{})
	thread := s.NewThread()

	ray := math3d.NewRay(math3d.V3(10, 10, -5), math3d.V3(0, 0, 1))
	_, ok := s.Trace(ray, thread)
	if ok {
		t.Error("ray far from any primitive should not hit")
	}
}

func TestAllHitsReturnsEveryPrimitiveAlongRay(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(0, 0, 5), 1)
	s, _ := BuildScene([]primitive.Primitive{a, b}, Options{})
	thread := s.NewThread()

	ray := math3d.NewRay(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1))
	hits := s.AllHits(ray, thread)
	if len(hits) != 4 {
		t.Fatalf("got %d hits, want 4 (entry+exit for each of two spheres)", len(hits))
	}
}

func TestInsideReturnsContainingPrimitives(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(0, 0, 0), 5)
	b := primitive.NewSphere(math3d.V3(20, 0, 0), 1)
	s, _ := BuildScene([]primitive.Primitive{a, b}, Options{})
	thread := s.NewThread()

	inside := s.Inside(math3d.V3(0, 0, 0), thread)
	if len(inside) != 1 || inside[0] != primitive.Primitive(a) {
		t.Errorf("Inside(origin) = %v, want just sphere a", inside)
	}
}

func TestBoundingBoxUnionsAllPrimitives(t *testing.T) {
	a := primitive.NewSphere(math3d.V3(-5, 0, 0), 1)
	b := primitive.NewSphere(math3d.V3(5, 0, 0), 1)
	s, _ := BuildScene([]primitive.Primitive{a, b}, Options{})

	box := s.BoundingBox()
	if box.LowerLeft.X > -6 || box.Upper().X < 6 {
		t.Errorf("scene bounds %v don't span both spheres", box)
	}
}
