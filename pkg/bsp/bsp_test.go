package bsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tracecore/pkg/math3d"
)

func unitBox(center math3d.Vec3) math3d.BoundingBox {
	return math3d.NewBoundingBox(center.Sub(math3d.Vec3Scalar(1)), center.Add(math3d.Vec3Scalar(1)))
}

func TestBuildNoObjectsLost(t *testing.T) {
	bounds := []math3d.BoundingBox{
		unitBox(math3d.V3(-3, 0, 0)),
		unitBox(math3d.V3(3, 0, 0)),
		unitBox(math3d.V3(0, 3, 0)),
		unitBox(math3d.V3(0, 0, 3)),
	}
	tree := Build(bounds, DefaultOptions())
	require.NotNil(t, tree)

	for id, b := range bounds {
		mailbox := NewMailbox(len(bounds))
		dir := b.Center().Normalize()
		origin := math3d.V3(0, 0, 0)
		var seen bool
		tree.IntersectFrontToBack(origin, dir, 0, math3d.Infinity, mailbox, func(objID int32, maxDist *float64) {
			if objID == int32(id) {
				seen = true
			}
		})
		assert.Truef(t, seen, "expected traversal of a ray aimed at object %d's center to visit it", id)
	}
}

// TestInsideQuerySpheres reproduces the worked BSP inside-query scenario:
// three unit-radius bounding boxes at (-3,0,0), (3,0,0), (0,3,0); the
// origin is contained by none of them, while (3,0,0) is contained by
// exactly the second.
func TestInsideQuerySpheres(t *testing.T) {
	bounds := []math3d.BoundingBox{
		unitBox(math3d.V3(-3, 0, 0)),
		unitBox(math3d.V3(3, 0, 0)),
		unitBox(math3d.V3(0, 3, 0)),
	}
	tree := Build(bounds, DefaultOptions())

	var hitOrigin []int32
	tree.InsideQuery(math3d.V3(0, 0, 0), func(id int32) bool {
		hitOrigin = append(hitOrigin, id)
		return false
	})
	assert.Empty(t, hitOrigin, "expected no interiors to contain the origin")

	var hitSecond []int32
	tree.InsideQuery(math3d.V3(3, 0, 0), func(id int32) bool {
		hitSecond = append(hitSecond, id)
		return false
	})
	assert.ElementsMatch(t, []int32{1}, hitSecond)
}

func TestMailboxDedupesWithinOneRay(t *testing.T) {
	mb := NewMailbox(3)
	assert.False(t, mb.Visit(0))
	assert.True(t, mb.Visit(0))
	mb.Reset()
	assert.False(t, mb.Visit(0), "expected a new ray to clear prior visits")
}

func TestBuildHandlesEmptyObjectSet(t *testing.T) {
	tree := Build(nil, DefaultOptions())
	require.NotNil(t, tree)
	assert.Equal(t, 0, tree.Metrics.NodeCount)
}

func TestBuildMetricsRecordLeafCounts(t *testing.T) {
	bounds := make([]math3d.BoundingBox, 20)
	for i := range bounds {
		bounds[i] = unitBox(math3d.V3(float64(i)*2, 0, 0))
	}
	tree := Build(bounds, DefaultOptions())
	assert.Greater(t, tree.Metrics.LeafCount, 0)
	assert.LessOrEqual(t, tree.Metrics.MaxObjectsInLeaf, len(bounds))
}
