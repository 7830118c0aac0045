package math3d

import "math"

// Infinity stands in for an unbounded extent; bounding boxes larger than
// this in any dimension are treated as effectively infinite by BSP
// construction.
const Infinity = 1.0e7

// BoundingBox is an axis-aligned bounding box stored as a lower-left
// corner and a non-negative size, matching the invariant that
// LowerLeft+Size is always the upper-right corner.
type BoundingBox struct {
	LowerLeft Vec3
	Size      Vec3
}

// NewBoundingBox builds a BoundingBox from two arbitrary corners.
func NewBoundingBox(a, b Vec3) BoundingBox {
	lo := a.Min(b)
	hi := a.Max(b)
	return BoundingBox{LowerLeft: lo, Size: hi.Sub(lo)}
}

// InfiniteBoundingBox returns a box that contains all of space.
func InfiniteBoundingBox() BoundingBox {
	return NewBoundingBox(Vec3Scalar(-Infinity), Vec3Scalar(Infinity))
}

// EmptyBoundingBox returns a degenerate, inverted box such that Union with
// any other box yields that other box unchanged.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{LowerLeft: Vec3Scalar(Infinity), Size: Vec3Scalar(-2 * Infinity)}
}

// Vec3Scalar builds a vector with all three components equal to s.
func Vec3Scalar(s float64) Vec3 {
	return Vec3{s, s, s}
}

// Upper returns the upper-right corner.
func (b BoundingBox) Upper() Vec3 {
	return b.LowerLeft.Add(b.Size)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Vec3 {
	return b.LowerLeft.Add(b.Size.Scale(0.5))
}

// Empty reports whether the box contains no volume along any axis.
func (b BoundingBox) Empty() bool {
	return b.Size.X < 0 || b.Size.Y < 0 || b.Size.Z < 0
}

// SurfaceArea returns the surface area of the box, used by the BSP's SAH
// cost model. Returns 0 for an empty box.
func (b BoundingBox) SurfaceArea() float64 {
	if b.Empty() {
		return 0
	}
	s := b.Size
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return NewBoundingBox(b.LowerLeft.Min(o.LowerLeft), b.Upper().Max(o.Upper()))
}

// ExpandToInclude returns the smallest box containing b and the point p.
func (b BoundingBox) ExpandToInclude(p Vec3) BoundingBox {
	return NewBoundingBox(b.LowerLeft.Min(p), b.Upper().Max(p))
}

// ContainsPoint reports whether p lies within the closed box.
func (b BoundingBox) ContainsPoint(p Vec3) bool {
	up := b.Upper()
	return p.X >= b.LowerLeft.X && p.X <= up.X &&
		p.Y >= b.LowerLeft.Y && p.Y <= up.Y &&
		p.Z >= b.LowerLeft.Z && p.Z <= up.Z
}

// Intersects reports whether two boxes overlap (touching counts as
// overlapping).
func (b BoundingBox) Intersects(o BoundingBox) bool {
	up, oup := b.Upper(), o.Upper()
	return b.LowerLeft.X <= oup.X && up.X >= o.LowerLeft.X &&
		b.LowerLeft.Y <= oup.Y && up.Y >= o.LowerLeft.Y &&
		b.LowerLeft.Z <= oup.Z && up.Z >= o.LowerLeft.Z
}

// Clamp shrinks the box so that it never exceeds the given half-width in
// any dimension, centered on the box's own center. CSG bounding boxes use
// this to avoid exploding to near-infinite size after a degenerate
// transform.
func (b BoundingBox) Clamp(maxHalfWidth float64) BoundingBox {
	c := b.Center()
	half := b.Size.Scale(0.5)
	half = half.Min(Vec3Scalar(maxHalfWidth))
	return NewBoundingBox(c.Sub(half), c.Add(half))
}

// Transform returns a BoundingBox that bounds all eight transformed
// corners of b.
func (b BoundingBox) Transform(m Mat4) BoundingBox {
	up := b.Upper()
	corners := [8]Vec3{
		{b.LowerLeft.X, b.LowerLeft.Y, b.LowerLeft.Z},
		{up.X, b.LowerLeft.Y, b.LowerLeft.Z},
		{b.LowerLeft.X, up.Y, b.LowerLeft.Z},
		{up.X, up.Y, b.LowerLeft.Z},
		{b.LowerLeft.X, b.LowerLeft.Y, up.Z},
		{up.X, b.LowerLeft.Y, up.Z},
		{b.LowerLeft.X, up.Y, up.Z},
		{up.X, up.Y, up.Z},
	}
	out := m.MulVec3(corners[0])
	lo, hi := out, out
	for _, c := range corners[1:] {
		out = m.MulVec3(c)
		lo = lo.Min(out)
		hi = hi.Max(out)
	}
	return NewBoundingBox(lo, hi)
}

// RayIntersects is the slab test described in section 4.3: it returns true
// if the ray intersects the box, or originates inside it, within the
// parameter range [tMin, tMax].
//
// The reference implementation dispatches on the sign of each ray
// direction component to avoid a branch in the inner loop (8 variants).
// That micro-optimization is a poor fit for Go's compiler; a direct
// div-and-compare slab test is used instead, with the convention that
// dividing by zero correctly produces +/-Inf and so still compares
// sensibly against the slab bounds.
func (b BoundingBox) RayIntersects(origin, direction Vec3, tMin, tMax float64) bool {
	up := b.Upper()

	for axis := AxisX; axis <= AxisZ; axis++ {
		o := origin.Get(axis)
		d := direction.Get(axis)
		lo := b.LowerLeft.Get(axis)
		hi := up.Get(axis)

		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}

		invD := 1.0 / d
		t0 := (lo - o) * invD
		t1 := (hi - o) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		if tMin > tMax {
			return false
		}
	}
	return true
}
