package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// base holds the fields every concrete shape needs regardless of its
// particular geometry: an optional transform carrying the ray into and
// out of the shape's local frame, an inverted flag, an optional clip
// list, and the shape's cached world-space bounding box.
type base struct {
	Transform    math3d.Transform
	HasTransform bool
	InvertedFlag bool
	Clips        ClipList
	Bounds       math3d.BoundingBox
}

func (b *base) Inverted() bool {
	return b.InvertedFlag
}

// toLocal carries a world-space ray into the shape's local frame when a
// transform is present.
func (b *base) toLocal(origin, direction math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	if !b.HasTransform {
		return origin, direction
	}
	return b.Transform.InvPoint(origin), b.Transform.InvDirection(direction)
}

// toWorldPoint carries a local-frame point back into world space.
func (b *base) toWorldPoint(p math3d.Vec3) math3d.Vec3 {
	if !b.HasTransform {
		return p
	}
	return b.Transform.Point(p)
}

// toWorldNormal carries a local-frame normal back into world space using
// the inverse-transpose.
func (b *base) toWorldNormal(n math3d.Vec3) math3d.Vec3 {
	if !b.HasTransform {
		return n
	}
	return b.Transform.Normal(n)
}

// toLocalPoint carries a world-space point into local space, used by
// Inside.
func (b *base) toLocalPoint(p math3d.Vec3) math3d.Vec3 {
	if !b.HasTransform {
		return p
	}
	return b.Transform.InvPoint(p)
}

// accept applies the inverted flag and clip list to an inside/outside
// predicate result, as every primitive's Inside must.
func (b *base) accept(inside bool, p math3d.Vec3, thread *Thread) bool {
	if b.InvertedFlag {
		inside = !inside
	}
	if inside && len(b.Clips) > 0 {
		inside = b.Clips.Accepts(p, thread)
	}
	return inside
}

func (b *base) BoundingBox() math3d.BoundingBox {
	return b.Bounds
}

func (b *base) Opaque() bool {
	return true
}
