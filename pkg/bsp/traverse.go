package bsp

import "github.com/taigrr/tracecore/pkg/math3d"

// Mailbox deduplicates per-ray object tests without per-ray allocation:
// each object slot stores the ray number it was last visited on, and a
// new ray simply bumps a monotonically increasing counter rather than
// clearing the whole set, per the core's mailbox design notes.
type Mailbox struct {
	lastSeen []uint64
	rayNum   uint64
}

// NewMailbox allocates a mailbox sized to the tree's object count.
func NewMailbox(objectCount int) *Mailbox {
	return &Mailbox{lastSeen: make([]uint64, objectCount), rayNum: 1}
}

// Reset begins a new ray, invalidating all previous visit marks in O(1).
func (m *Mailbox) Reset() {
	m.rayNum++
}

// Visit reports whether object id has already been tested on the
// current ray, marking it visited as a side effect.
func (m *Mailbox) Visit(id int32) bool {
	if m.lastSeen[id] == m.rayNum {
		return true
	}
	m.lastSeen[id] = m.rayNum
	return false
}

type stackEntry struct {
	idx            int32
	tEntry, tExit  float64
}

// IntersectFunc is invoked once per candidate object id during ray
// traversal; maxDist should be updated in-place when a closer hit is
// found so that traversal can prune remaining leaves.
type IntersectFunc func(objectID int32, maxDist *float64)

// IntersectFrontToBack walks the tree near-to-far, invoking fn once for
// every object id whose leaf the ray passes through, deduplicated by
// mailbox. Traversal stops early once entry distance exceeds *maxDist.
func (t *Tree) IntersectFrontToBack(origin, direction math3d.Vec3, tMin, tMax float64, mailbox *Mailbox, fn IntersectFunc) {
	if len(t.nodes) == 0 {
		return
	}
	mailbox.Reset()
	maxDist := tMax

	stack := make([]stackEntry, 0, maxBSPTreeLevel)
	stack = append(stack, stackEntry{0, tMin, tMax})

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.tEntry > maxDist {
			continue
		}
		n := t.nodes[e.idx]
		if n.axis == axisLeaf {
			for _, id := range n.objects {
				if mailbox.Visit(id) {
					continue
				}
				fn(id, &maxDist)
			}
			continue
		}

		axis := math3d.Axis(n.axis)
		o := origin.Get(axis)
		d := direction.Get(axis)

		var near, far int32
		if o < n.plane || (o == n.plane && d <= 0) {
			near, far = n.left, n.right
		} else {
			near, far = n.right, n.left
		}

		if d == 0 {
			stack = append(stack, stackEntry{near, e.tEntry, e.tExit})
			continue
		}

		tSplit := (n.plane - o) / d
		switch {
		case tSplit <= 0 || tSplit >= e.tExit:
			stack = append(stack, stackEntry{near, e.tEntry, e.tExit})
		case tSplit <= e.tEntry:
			stack = append(stack, stackEntry{far, e.tEntry, e.tExit})
		default:
			stack = append(stack, stackEntry{far, tSplit, e.tExit})
			stack = append(stack, stackEntry{near, e.tEntry, tSplit})
		}
	}
}

// InsideFunc is invoked for every candidate object id during an inside
// query; returning true stops the query early (InsideQuery itself
// returns nothing).
type InsideFunc func(objectID int32) bool

// InsideQuery visits every object whose bounding box contains point,
// invoking fn for each; if fn returns true the query may stop early.
func (t *Tree) InsideQuery(point math3d.Vec3, fn InsideFunc) {
	if len(t.nodes) == 0 {
		return
	}
	visited := make(map[int32]bool)
	t.insideRecurse(0, point, fn, visited)
}

func (t *Tree) insideRecurse(idx int32, point math3d.Vec3, fn InsideFunc, visited map[int32]bool) bool {
	n := t.nodes[idx]
	if n.axis == axisLeaf {
		for _, id := range n.objects {
			if visited[id] {
				continue
			}
			visited[id] = true
			if !t.bounds[id].ContainsPoint(point) {
				continue
			}
			if fn(id) {
				return true
			}
		}
		return false
	}
	axis := math3d.Axis(n.axis)
	v := point.Get(axis)
	if v <= n.plane {
		if t.insideRecurse(n.left, point, fn, visited) {
			return true
		}
	}
	if v >= n.plane {
		if t.insideRecurse(n.right, point, fn, visited) {
			return true
		}
	}
	return false
}

// RootBounds returns the tree's overall scene bounding box.
func (t *Tree) RootBounds() math3d.BoundingBox {
	return t.root
}
