// Package primitive defines the uniform intersect/inside/normal/transform
// contract shared by every analytic shape in the geometric core, along
// with the quadric and swept-surface primitives that implement it
// directly (more elaborate primitives such as meshes, blobs, height
// fields, and CSG live in their own packages but still implement this
// interface).
package primitive

import "github.com/taigrr/tracecore/pkg/math3d"

// Numerical constants shared across the whole intersection core (spec
// section 6).
const (
	Epsilon         = 1.0e-10
	DepthTolerance  = 1.0e-4
	RootTolerance   = 1.0e-4
	MaxDistance     = 1.0e7
)

// Thread is per-thread scratch state supplied by the caller. It carries
// only the statistics counters: the traversal stacks, mailboxes and hit
// stacks a query needs are not taken from Thread but allocated per call
// by the code that uses them (pkg/bsp, pkg/scene, pkg/mesh). See
// pkg/scene for the owner of this structure.
type Thread struct {
	// Stats accumulates counters the caller may report after a batch of
	// rays; the core only ever increments fields here.
	Stats Stats
}

// Stats are per-thread counters updated during traversal and root
// finding. Aggregating across threads is the caller's responsibility.
type Stats struct {
	RayPrimitiveTests int64
	RayPrimitiveHits  int64
	PolynomialSolves  int64
}

// Hit records one valid intersection of a ray with a primitive.
type Hit struct {
	T         float64
	Point     math3d.Vec3
	Primitive Primitive

	// normal is populated lazily by Primitive.Normal for primitives where
	// computing it eagerly would be wasted work on rays that turn out not
	// to need it (e.g. shadow rays that only care about occlusion).
	normal    math3d.Vec3
	hasNormal bool

	// CSGParent, when non-nil, is the CSG node that produced this hit,
	// used by CSG to resolve multi-texture binding on the boundary.
	CSGParent Primitive

	// Opaque per-primitive scratch fields, carried from intersection time
	// to normal/UV evaluation time so those primitives can avoid
	// recomputing state that intersection already derived.
	I1, I2     int
	D1         float64
	B1         bool
	LocalPoint math3d.Vec3
}

// Normal returns the hit's surface normal, computing it on first access
// via the owning primitive.
func (h *Hit) Normal(thread *Thread) math3d.Vec3 {
	if !h.hasNormal {
		h.normal = h.Primitive.Normal(h, thread)
		h.hasNormal = true
	}
	return h.normal
}

// HitStack accumulates hits for a single ray; CSG and other compound
// primitives append to it and then reduce over the accumulated set.
type HitStack struct {
	Hits []Hit
}

// Push appends a hit whose depth lies in the valid range
// (DepthTolerance, MaxDistance).
func (s *HitStack) Push(h Hit) bool {
	if h.T <= DepthTolerance || h.T >= MaxDistance {
		return false
	}
	s.Hits = append(s.Hits, h)
	return true
}

// Closest returns the hit with the smallest valid T, or false if the
// stack is empty.
func (s *HitStack) Closest() (Hit, bool) {
	if len(s.Hits) == 0 {
		return Hit{}, false
	}
	best := s.Hits[0]
	for _, h := range s.Hits[1:] {
		if h.T < best.T {
			best = h
		}
	}
	return best, true
}

// Primitive is the capability set every concrete shape exposes. Dispatch
// is through ordinary interface method calls rather than a closed tagged
// union: Go's interface dispatch is already a single indirect call (no
// multiple-inheritance vtable layout to fight), and keeping the
// intersection core written against the interface lets CSG, the mesh
// triangle hierarchy, and the BSP tree all hold `[]Primitive` uniformly.
type Primitive interface {
	// AllIntersections appends every valid hit along ray to stack and
	// reports whether any were appended. Clipping against a primitive's
	// clip list (if any) has already been applied by the time a hit is
	// pushed.
	AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool

	// Inside reports whether point is interior to the primitive,
	// respecting the inverted flag.
	Inside(point math3d.Vec3, thread *Thread) bool

	// Normal returns the outward surface normal at a previously recorded
	// hit.
	Normal(hit *Hit, thread *Thread) math3d.Vec3

	// UV returns texture coordinates at a previously recorded hit.
	UV(hit *Hit) math3d.Vec2

	// BoundingBox is a pure accessor for the primitive's world-space
	// bounding box.
	BoundingBox() math3d.BoundingBox

	// Inverted reports whether Invert has been applied an odd number of
	// times.
	Inverted() bool

	// Invert returns a copy of the primitive with inside/outside flipped.
	// Most primitives just flip a boolean; CSG nodes rewrite their
	// children instead.
	Invert() Primitive

	// Opaque reports whether the primitive's texture bindings are
	// guaranteed fully opaque, letting shadow tests short-circuit. The
	// geometric core has no textures of its own, so every concrete
	// primitive here defaults this to true; a caller that attaches
	// textures externally is expected to override the aggregate answer.
	Opaque() bool
}

// ClipList is an optional list of clipping primitives: a hit is only
// valid if its point lies inside every member.
type ClipList []Primitive

// Accepts reports whether p lies inside every clip primitive.
func (c ClipList) Accepts(p math3d.Vec3, thread *Thread) bool {
	for _, clip := range c {
		if !clip.Inside(p, thread) {
			return false
		}
	}
	return true
}
