// Package scene implements the public intersection API over a fixed set
// of top-level primitives: BuildScene constructs an immutable scene
// backed by a BSP tree, and Scene's methods trace rays and containment
// queries against it (spec sections 5 and 6).
package scene

import (
	"errors"

	"github.com/taigrr/tracecore/pkg/bsp"
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// Options configures scene construction. A zero-value BSP field selects
// bsp.DefaultOptions().
type Options struct {
	BSP bsp.Options
}

// Scene is an immutable collection of top-level primitives accelerated
// by a BSP tree over their bounding boxes. Once built, a Scene carries
// no mutable state of its own: statistics counters are supplied by the
// caller via a Thread, and the mailbox and hit stacks each query needs
// are allocated per call rather than taken from the Thread, so one Scene
// can be traced concurrently from any number of goroutines (spec section
// 5's shared-resource policy).
type Scene struct {
	primitives []primitive.Primitive
	tree       *bsp.Tree
	bounds     math3d.BoundingBox
}

// BuildScene constructs a Scene over primitives, building the BSP tree
// once up front.
func BuildScene(primitives []primitive.Primitive, options Options) (*Scene, error) {
	if len(primitives) == 0 {
		return nil, errors.New("scene: at least one primitive is required")
	}

	bounds := make([]math3d.BoundingBox, len(primitives))
	worldBounds := math3d.EmptyBoundingBox()
	for i, p := range primitives {
		bounds[i] = p.BoundingBox()
		worldBounds = worldBounds.Union(bounds[i])
	}

	opts := options.BSP
	if opts == (bsp.Options{}) {
		opts = bsp.DefaultOptions()
	}

	return &Scene{
		primitives: primitives,
		tree:       bsp.Build(bounds, opts),
		bounds:     worldBounds,
	}, nil
}

// NewThread allocates a fresh per-thread scratch block. Callers should
// allocate one Thread per worker goroutine and reuse it across many
// rays, never share one Thread across goroutines, and never allocate a
// Thread per ray (spec section 5's scheduling model).
func (s *Scene) NewThread() *primitive.Thread {
	return &primitive.Thread{}
}

// BoundingBox returns the union of every top-level primitive's bounds.
func (s *Scene) BoundingBox() math3d.BoundingBox { return s.bounds }

// Trace finds the closest valid hit along ray, or false if none exists.
// The BSP traversal shrinks its search window to the closest hit found
// so far, pruning cells that cannot contain anything nearer.
func (s *Scene) Trace(ray math3d.Ray, thread *primitive.Thread) (primitive.Hit, bool) {
	mailbox := bsp.NewMailbox(len(s.primitives))
	stack := &primitive.HitStack{}
	found := false
	var best primitive.Hit

	s.tree.IntersectFrontToBack(ray.Origin, ray.Direction, primitive.DepthTolerance, primitive.MaxDistance, mailbox,
		func(objectID int32, maxDist *float64) {
			local := &primitive.HitStack{}
			if !s.primitives[objectID].AllIntersections(ray.Origin, ray.Direction, local, thread) {
				return
			}
			hit, ok := local.Closest()
			if !ok {
				return
			}
			stack.Hits = append(stack.Hits, hit)
			if !found || hit.T < best.T {
				found = true
				best = hit
			}
			if hit.T < *maxDist {
				*maxDist = hit.T
			}
		})

	return best, found
}

// AllHits appends every valid hit along ray from every top-level
// primitive, unsorted, without pruning by nearest-hit-so-far: useful for
// shadow and CSG-style callers that need every intersection, not just
// the closest.
func (s *Scene) AllHits(ray math3d.Ray, thread *primitive.Thread) []primitive.Hit {
	mailbox := bsp.NewMailbox(len(s.primitives))
	stack := &primitive.HitStack{}

	s.tree.IntersectFrontToBack(ray.Origin, ray.Direction, primitive.DepthTolerance, primitive.MaxDistance, mailbox,
		func(objectID int32, maxDist *float64) {
			// maxDist is intentionally left untouched: shrinking it would
			// prune cells that hold farther, but still valid, hits.
			s.primitives[objectID].AllIntersections(ray.Origin, ray.Direction, stack, thread)
		})

	return stack.Hits
}

// Inside returns every top-level primitive containing point, found by
// querying the BSP tree's bounding-box containment index and then
// confirming with each candidate's own Inside test.
func (s *Scene) Inside(point math3d.Vec3, thread *primitive.Thread) []primitive.Primitive {
	var result []primitive.Primitive
	s.tree.InsideQuery(point, func(objectID int32) bool {
		if s.primitives[objectID].Inside(point, thread) {
			result = append(result, s.primitives[objectID])
		}
		return false
	})
	return result
}
