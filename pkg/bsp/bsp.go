// Package bsp implements an axis-aligned Surface Area Heuristic BSP tree
// used both for front-to-back ray traversal and for inside/containment
// queries over a set of bounded objects, per the geometric core's
// acceleration structure.
package bsp

import (
	"sort"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Axis is one of the three coordinate axes a split plane can lie on.
type Axis = math3d.Axis

// Options configures SAH construction, matching the core's configurable
// BSP builder parameters.
type Options struct {
	MaxDepth        int
	ObjectIsectCost float64
	BaseAccessCost  float64
	ChildAccessCost float64
	MissChance      float64
}

// DefaultOptions returns the documented default SAH weights.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        128,
		ObjectIsectCost: 150.0,
		BaseAccessCost:  1.0,
		ChildAccessCost: 5.0,
		MissChance:      0.2,
	}
}

const maxBSPTreeLevel = 128

// node is either a split node (Axis != axisLeaf) or an object-list leaf.
type node struct {
	axis      int8 // -1 for a leaf
	plane     float64
	left      int32
	right     int32
	objects   []int32
}

const axisLeaf = -1

// Metrics records SAH build-time statistics for diagnostics.
type Metrics struct {
	NodeCount        int
	SplitNodeCount   int
	LeafCount        int
	EmptyLeafCount   int
	MaxObjectsInLeaf int
	TotalObjectSlots int
	MaxDepth         int
	DepthAborts      int
}

// Tree is a built BSP tree over a fixed set of object ids [0, N).
type Tree struct {
	nodes   []node
	bounds  []math3d.BoundingBox // per-object bounds, indexed by object id
	root    math3d.BoundingBox
	Metrics Metrics

	opts Options
}

type event struct {
	pos    float64
	kind   int8 // 0 = end(max), 1 = planar, 2 = start(min)
	object int32
}

// Build constructs a SAH BSP tree over the given object bounds.
func Build(bounds []math3d.BoundingBox, opts Options) *Tree {
	t := &Tree{bounds: bounds, opts: opts}
	if len(bounds) == 0 {
		t.root = math3d.EmptyBoundingBox()
		return t
	}
	root := bounds[0]
	ids := make([]int32, len(bounds))
	for i := range bounds {
		ids[i] = int32(i)
		root = root.Union(bounds[i])
	}
	t.root = root
	t.build(ids, root, 0)
	return t
}

// build recursively partitions ids within cell, appending nodes
// depth-first, and returns the index of the node it created.
func (t *Tree) build(ids []int32, cell math3d.BoundingBox, depth int) int32 {
	t.Metrics.NodeCount++
	if depth > t.Metrics.MaxDepth {
		t.Metrics.MaxDepth = depth
	}

	if len(ids) <= 1 || depth >= t.opts.MaxDepth || depth >= maxBSPTreeLevel {
		return t.emitLeaf(ids)
	}

	axis, plane, cost, ok := t.bestSplit(ids, cell)
	noSplitCost := t.opts.ObjectIsectCost*float64(len(ids)) + t.opts.BaseAccessCost
	if !ok || cost >= noSplitCost {
		return t.emitLeaf(ids)
	}

	leftCell, rightCell := splitCell(cell, axis, plane)
	var leftIDs, rightIDs []int32
	for _, id := range ids {
		b := t.bounds[id]
		lo, hi := b.LowerLeft.Get(axis), b.Upper().Get(axis)
		if lo <= plane {
			leftIDs = append(leftIDs, id)
		}
		if hi >= plane {
			rightIDs = append(rightIDs, id)
		}
	}

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{axis: int8(axis), plane: plane})
	t.Metrics.SplitNodeCount++

	left := t.build(leftIDs, leftCell, depth+1)
	right := t.build(rightIDs, rightCell, depth+1)
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

func (t *Tree) emitLeaf(ids []int32) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{axis: axisLeaf, objects: append([]int32(nil), ids...)})
	t.Metrics.LeafCount++
	if len(ids) == 0 {
		t.Metrics.EmptyLeafCount++
	}
	if len(ids) > t.Metrics.MaxObjectsInLeaf {
		t.Metrics.MaxObjectsInLeaf = len(ids)
	}
	t.Metrics.TotalObjectSlots += len(ids)
	return idx
}

func splitCell(cell math3d.BoundingBox, axis math3d.Axis, plane float64) (math3d.BoundingBox, math3d.BoundingBox) {
	lower := cell.LowerLeft
	upper := cell.Upper()
	leftUpper := upper.With(axis, plane)
	rightLower := lower.With(axis, plane)
	left := math3d.NewBoundingBox(lower, leftUpper)
	right := math3d.NewBoundingBox(rightLower, upper)
	return left, right
}

// bestSplit sweeps sorted events per axis and returns the minimum-cost
// split plane, following the cost function in spec 4.4.
func (t *Tree) bestSplit(ids []int32, cell math3d.BoundingBox) (math3d.Axis, float64, float64, bool) {
	size := cell.Size
	dims := [3]float64{size.X, size.Y, size.Z}
	bestCost := math3d.Infinity
	bestAxis := math3d.AxisX
	bestPlane := 0.0
	found := false

	for axis := math3d.AxisX; axis <= math3d.AxisZ; axis++ {
		events := make([]event, 0, len(ids)*2)
		for _, id := range ids {
			b := t.bounds[id]
			lo, hi := b.LowerLeft.Get(axis), b.Upper().Get(axis)
			if lo == hi {
				events = append(events, event{lo, 1, id})
				continue
			}
			events = append(events, event{lo, 2, id}, event{hi, 0, id})
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].pos != events[j].pos {
				return events[i].pos < events[j].pos
			}
			return events[i].kind < events[j].kind
		})

		nLeft, nRight := 0, len(ids)
		i := 0
		for i < len(events) {
			plane := events[i].pos
			startCount, endCount, planarCount := 0, 0, 0
			j := i
			for j < len(events) && events[j].pos == plane && events[j].kind == 0 {
				endCount++
				j++
			}
			for j < len(events) && events[j].pos == plane && events[j].kind == 1 {
				planarCount++
				j++
			}
			for j < len(events) && events[j].pos == plane && events[j].kind == 2 {
				startCount++
				j++
			}

			nRight -= endCount
			nRight -= planarCount

			a, b, c := otherDims(dims, axis)
			cost, ok := sahCost(t.opts, a, b, c, cell.LowerLeft.Get(axis), cell.Upper().Get(axis), plane, nLeft, nRight+planarCount, planarCount)
			if ok && cost < bestCost {
				bestCost = cost
				bestAxis = axis
				bestPlane = plane
				found = true
			}

			nLeft += startCount
			nLeft += planarCount
			i = j
		}
	}
	return bestAxis, bestPlane, bestCost, found
}

func otherDims(dims [3]float64, axis math3d.Axis) (a, b, c float64) {
	switch axis {
	case math3d.AxisX:
		return dims[0], dims[1], dims[2]
	case math3d.AxisY:
		return dims[1], dims[0], dims[2]
	default:
		return dims[2], dims[0], dims[1]
	}
}

// sahCost implements spec 4.4's cost function: a is the split axis'
// extent, b and c the other two cell dimensions.
func sahCost(opts Options, a, b, c, lo, hi, plane float64, nLeft, nRight, nShared int) (float64, bool) {
	if hi <= lo {
		return 0, false
	}
	r := (plane - lo) / (hi - lo)
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	pHitPlane := 0.0
	if b*c+a*b+a*c > 0 {
		pHitPlane = (b * c) / (a*b + a*c + b*c)
	}
	cah := r * pHitPlane
	cbh := (1 - r) * pHitPlane
	missFactor := 1 + opts.MissChance
	cost := opts.BaseAccessCost + (1+pHitPlane)*opts.ChildAccessCost +
		opts.ObjectIsectCost*(float64(nShared)+
			pHitPlane/2*(missFactor*float64(nLeft)+missFactor*float64(nRight))+
			cah*float64(nLeft)+cbh*float64(nRight))
	return cost, true
}
