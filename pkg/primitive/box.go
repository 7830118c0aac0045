package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// Box is an axis-aligned box in local space, given by opposite corners.
type Box struct {
	base
	Min, Max math3d.Vec3
}

// NewBox builds an axis-aligned box between two corners (order does not
// matter).
func NewBox(a, b math3d.Vec3) *Box {
	box := &Box{Min: a.Min(b), Max: a.Max(b)}
	box.Bounds = math3d.NewBoundingBox(box.Min, box.Max)
	return box
}

func (bx *Box) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := bx.toLocal(origin, direction)

	tMin, tMax := -MaxDistance, MaxDistance
	var faceMin, faceMax math3d.Vec3
	faceMin = math3d.Vec3{}
	faceMax = math3d.Vec3{}

	for axis := math3d.AxisX; axis <= math3d.AxisZ; axis++ {
		oc := o.Get(axis)
		dc := d.Get(axis)
		lo := bx.Min.Get(axis)
		hi := bx.Max.Get(axis)

		if dc == 0 {
			if oc < lo || oc > hi {
				return false
			}
			continue
		}

		invD := 1.0 / dc
		t0 := (lo - oc) * invD
		t1 := (hi - oc) * invD
		n0, n1 := -1.0, 1.0
		if t0 > t1 {
			t0, t1 = t1, t0
			n0, n1 = n1, n0
		}
		if t0 > tMin {
			tMin = t0
			faceMin = math3d.Vec3{}.With(axis, n0)
		}
		if t1 < tMax {
			tMax = t1
			faceMax = math3d.Vec3{}.With(axis, n1)
		}
		if tMin > tMax {
			return false
		}
	}

	found := false
	for _, cand := range [2]struct {
		t float64
		n math3d.Vec3
	}{{tMin, faceMin}, {tMax, faceMax}} {
		localPoint := o.Add(d.Scale(cand.t))
		worldPoint := bx.toWorldPoint(localPoint)
		if !bx.Clips.Accepts(worldPoint, thread) {
			continue
		}
		if stack.Push(Hit{T: cand.t, Point: worldPoint, Primitive: bx, LocalPoint: localPoint}) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (bx *Box) Inside(point math3d.Vec3, thread *Thread) bool {
	p := bx.toLocalPoint(point)
	inside := p.X >= bx.Min.X && p.X <= bx.Max.X &&
		p.Y >= bx.Min.Y && p.Y <= bx.Max.Y &&
		p.Z >= bx.Min.Z && p.Z <= bx.Max.Z
	return bx.accept(inside, point, thread)
}

func (bx *Box) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	p := hit.LocalPoint
	center := bx.Min.Add(bx.Max).Scale(0.5)
	half := bx.Max.Sub(bx.Min).Scale(0.5)
	rel := p.Sub(center)

	n := math3d.Vec3{}
	best := -1.0
	for axis := math3d.AxisX; axis <= math3d.AxisZ; axis++ {
		d := rel.Get(axis) / half.Get(axis)
		if absF(d) > best {
			best = absF(d)
			sign := 1.0
			if d < 0 {
				sign = -1.0
			}
			n = math3d.Vec3{}.With(axis, sign)
		}
	}
	if bx.InvertedFlag {
		n = n.Negate()
	}
	return bx.toWorldNormal(n)
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func (bx *Box) UV(hit *Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Y)
}

func (bx *Box) Invert() Primitive {
	cp := *bx
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
