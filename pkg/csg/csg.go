// Package csg implements constructive solid geometry composition over
// primitive.Primitive children: union, intersection, difference, merge,
// and generalised symmetric difference, per the geometric core's
// composition rules.
package csg

import (
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// Kind selects a CSG node's composition rule.
type Kind int

const (
	Union Kind = iota
	Intersection
	Difference
	Merge
	GSD
)

// Node is a CSG composition of child primitives. Difference is built as
// Intersection with every child after the first pre-inverted at
// construction time, matching A ∧ ¬B ∧ ¬C ...
type Node struct {
	kind     Kind
	children []primitive.Primitive
	inverted bool
	bounds   math3d.BoundingBox
	// selected indexes by containment count for GSD: selected[i] is true
	// when a point contained by exactly i children is "inside" the node.
	selected []bool
}

// NewUnion returns the union of the given children.
func NewUnion(children ...primitive.Primitive) *Node {
	return build(Union, children, nil)
}

// NewIntersection returns the intersection of the given children.
func NewIntersection(children ...primitive.Primitive) *Node {
	return build(Intersection, children, nil)
}

// NewDifference returns first minus the union of the rest: first ∧ ¬(rest...).
func NewDifference(first primitive.Primitive, rest ...primitive.Primitive) *Node {
	children := make([]primitive.Primitive, 0, len(rest)+1)
	children = append(children, first)
	for _, r := range rest {
		children = append(children, r.Invert())
	}
	return build(Difference, children, nil)
}

// NewMerge returns the union of children with internal shared surfaces
// suppressed.
func NewMerge(children ...primitive.Primitive) *Node {
	return build(Merge, children, nil)
}

// NewGSD builds a generalised symmetric difference node: selected[n] is
// true when a point contained by exactly n children belongs to the
// result. len(selected) must be len(children)+1.
func NewGSD(children []primitive.Primitive, selected []bool) *Node {
	return build(GSD, children, selected)
}

func build(kind Kind, children []primitive.Primitive, selected []bool) *Node {
	n := &Node{kind: kind, children: children, selected: selected}
	n.bounds = computeBounds(children)
	return n
}

func computeBounds(children []primitive.Primitive) math3d.BoundingBox {
	if len(children) == 0 {
		return math3d.EmptyBoundingBox()
	}
	b := children[0].BoundingBox()
	for _, c := range children[1:] {
		b = b.Union(c.BoundingBox())
	}
	return b.Clamp(math3d.Infinity)
}

// containmentCount returns how many children contain p.
func (n *Node) containmentCount(p math3d.Vec3, thread *primitive.Thread) int {
	count := 0
	for _, c := range n.children {
		if c.Inside(p, thread) {
			count++
		}
	}
	return count
}

func (n *Node) Inside(point math3d.Vec3, thread *primitive.Thread) bool {
	var inside bool
	switch n.kind {
	case Union, Merge:
		for _, c := range n.children {
			if c.Inside(point, thread) {
				inside = true
				break
			}
		}
	case Intersection, Difference:
		inside = true
		for _, c := range n.children {
			if !c.Inside(point, thread) {
				inside = false
				break
			}
		}
	case GSD:
		count := n.containmentCount(point, thread)
		if count < len(n.selected) {
			inside = n.selected[count]
		}
	}
	if n.inverted {
		inside = !inside
	}
	return inside
}

// AllIntersections gathers every child hit along the ray, then keeps
// only the ones that lie on the composed surface's boundary, per the
// node's composition rule (spec 4.2.7).
func (n *Node) AllIntersections(origin, direction math3d.Vec3, stack *primitive.HitStack, thread *primitive.Thread) bool {
	var raw primitive.HitStack
	for _, c := range n.children {
		c.AllIntersections(origin, direction, &raw, thread)
	}
	if len(raw.Hits) == 0 {
		return false
	}

	found := false
	for _, h := range raw.Hits {
		owner := h.Primitive
		if !n.onBoundary(owner, h.Point, direction, thread) {
			continue
		}
		hit := h
		hit.CSGParent = n
		if stack.Push(hit) {
			found = true
		}
	}
	return found
}

// onBoundary decides, for a hit owned by one child, whether the point
// survives as a boundary of the composed solid.
func (n *Node) onBoundary(owner primitive.Primitive, point math3d.Vec3, direction math3d.Vec3, thread *primitive.Thread) bool {
	switch n.kind {
	case Union:
		// Every hit on any child's surface belongs to the union; unlike
		// Merge, a boundary shared with (or enclosed by) a sibling is still
		// reported, so coincident and internal surfaces both survive.
		return true
	case Intersection, Difference:
		for _, c := range n.children {
			if c == owner {
				continue
			}
			if !c.Inside(point, thread) {
				return false
			}
		}
		return true
	case Merge:
		for _, c := range n.children {
			if c == owner {
				continue
			}
			if c.Inside(point, thread) {
				return false
			}
		}
		return true
	case GSD:
		// point is exactly on owner's surface; below is the containment
		// count at the point itself (owner excluded) and above adds owner,
		// standing for the levels just outside and just inside owner.
		below := n.containmentCount(point, thread)
		above := below + 1
		sel := func(i int) bool {
			if i < 0 || i >= len(n.selected) {
				return false
			}
			return n.selected[i]
		}
		// Two-sided: owner's own containment level must be selected, and
		// differ from at least one neighboring level. A plain below/above
		// flip misses surfaces that coincide with another child's surface
		// at the same point, where the relevant comparison is one level
		// further out.
		return sel(above) && (!sel(below) || !sel(above+1))
	}
	return false
}

func (n *Node) Normal(hit *primitive.Hit, thread *primitive.Thread) math3d.Vec3 {
	return hit.Primitive.Normal(hit, thread)
}

func (n *Node) UV(hit *primitive.Hit) math3d.Vec2 {
	return hit.Primitive.UV(hit)
}

func (n *Node) BoundingBox() math3d.BoundingBox {
	return n.bounds
}

func (n *Node) Inverted() bool {
	return n.inverted
}

// Invert flips the composed node by flipping every child's inverted
// flag recursively, per spec 4.2.7, rather than mutating this node in
// place.
func (n *Node) Invert() primitive.Primitive {
	cp := &Node{kind: n.kind, selected: n.selected, bounds: n.bounds, inverted: !n.inverted}
	cp.children = make([]primitive.Primitive, len(n.children))
	for i, c := range n.children {
		cp.children[i] = c.Invert()
	}
	return cp
}

func (n *Node) Opaque() bool {
	for _, c := range n.children {
		if !c.Opaque() {
			return false
		}
	}
	return true
}
