// Package heightfield implements the elevation-grid primitive: a u16
// sample grid walked by a two-level block/fine DDA traversal, with
// triangles per cell computed implicitly rather than stored (spec
// section 4.2.5).
package heightfield

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// Normal16 is a quantized normal component, scaled by normalScale.
type Normal16 struct{ X, Y, Z int16 }

const normalScale = 32767

func quantizeNormal(n math3d.Vec3) Normal16 {
	return Normal16{
		X: int16(n.X * normalScale),
		Y: int16(n.Y * normalScale),
		Z: int16(n.Z * normalScale),
	}
}

func (n Normal16) toVec3() math3d.Vec3 {
	return math3d.V3(float64(n.X)/normalScale, float64(n.Y)/normalScale, float64(n.Z)/normalScale)
}

// block is one coarse cell of the block-DDA level, holding the min/max
// elevation over the cells it covers for fast rejection.
type block struct {
	yMin, yMax float64
}

// HeightField is an elevation-grid primitive in local space: X in
// [0,Width-1], Z in [0,Depth-1], Y equal to the sampled elevation.
type HeightField struct {
	Width, Depth int
	Map          []uint16 // row-major, index z*Width+x
	Smooth       bool

	normals   []Normal16 // len Width*Depth, only populated when Smooth
	blockSize int
	blocksX   int
	blocksZ   int
	blocks    []block

	bounds math3d.BoundingBox

	transform    math3d.Transform
	hasTransform bool
	inverted     bool
	clips        primitive.ClipList
}

// New builds a height field from a row-major elevation grid, computing
// the block ymin/ymax hierarchy and, if smooth is requested, per-vertex
// averaged normals quantized to int16.
func New(width, depth int, elevations []uint16, smooth bool) *HeightField {
	hf := &HeightField{Width: width, Depth: depth, Map: elevations, Smooth: smooth}

	maxY := 0.0
	for _, e := range elevations {
		if v := float64(e); v > maxY {
			maxY = v
		}
	}
	hf.bounds = math3d.NewBoundingBox(
		math3d.V3(0, 0, 0),
		math3d.V3(float64(width-1), maxY, float64(depth-1)),
	)

	hf.blockSize = int(math.Sqrt(float64(max(width, depth))))
	if hf.blockSize < 1 {
		hf.blockSize = 1
	}
	hf.blocksX = (width - 2 + hf.blockSize) / hf.blockSize
	hf.blocksZ = (depth - 2 + hf.blockSize) / hf.blockSize
	if hf.blocksX < 1 {
		hf.blocksX = 1
	}
	if hf.blocksZ < 1 {
		hf.blocksZ = 1
	}
	hf.blocks = make([]block, hf.blocksX*hf.blocksZ)
	for bz := 0; bz < hf.blocksZ; bz++ {
		for bx := 0; bx < hf.blocksX; bx++ {
			x0, x1 := bx*hf.blockSize, min((bx+1)*hf.blockSize, width-1)
			z0, z1 := bz*hf.blockSize, min((bz+1)*hf.blockSize, depth-1)
			yMin, yMax := math.Inf(1), math.Inf(-1)
			for z := z0; z <= z1; z++ {
				for x := x0; x <= x1; x++ {
					h := hf.height(x, z)
					yMin = math.Min(yMin, h)
					yMax = math.Max(yMax, h)
				}
			}
			hf.blocks[bz*hf.blocksX+bx] = block{yMin: yMin, yMax: yMax}
		}
	}

	if smooth {
		hf.computeSmoothNormals()
	}
	return hf
}

func (hf *HeightField) height(x, z int) float64 {
	x = clampInt(x, 0, hf.Width-1)
	z = clampInt(z, 0, hf.Depth-1)
	return float64(hf.Map[z*hf.Width+x])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// computeSmoothNormals averages the plane normals of every triangle
// touching each grid vertex, once at construction, matching spec
// 4.2.5's "computes per-vertex averaged normals once at load time".
func (hf *HeightField) computeSmoothNormals() {
	hf.normals = make([]Normal16, hf.Width*hf.Depth)
	accum := make([]math3d.Vec3, hf.Width*hf.Depth)

	addFaceNormal := func(a, b, c [2]int) {
		pa := math3d.V3(float64(a[0]), hf.height(a[0], a[1]), float64(a[1]))
		pb := math3d.V3(float64(b[0]), hf.height(b[0], b[1]), float64(b[1]))
		pc := math3d.V3(float64(c[0]), hf.height(c[0], c[1]), float64(c[1]))
		n := pc.Sub(pa).Cross(pb.Sub(pa))
		if n.LenSq() < 1e-18 {
			return
		}
		n = n.Normalize()
		for _, v := range [3][2]int{a, b, c} {
			idx := v[1]*hf.Width + v[0]
			accum[idx] = accum[idx].Add(n)
		}
	}

	for z := 0; z < hf.Depth-1; z++ {
		for x := 0; x < hf.Width-1; x++ {
			p00 := [2]int{x, z}
			p10 := [2]int{x + 1, z}
			p01 := [2]int{x, z + 1}
			p11 := [2]int{x + 1, z + 1}
			addFaceNormal(p00, p10, p11)
			addFaceNormal(p00, p11, p01)
		}
	}

	for i, n := range accum {
		if n.LenSq() < 1e-18 {
			hf.normals[i] = quantizeNormal(math3d.V3(0, 1, 0))
			continue
		}
		hf.normals[i] = quantizeNormal(n.Normalize())
	}
}

// WithTransform returns a copy of hf carrying the given transform.
func (hf *HeightField) WithTransform(t math3d.Transform) *HeightField {
	clone := *hf
	clone.transform = t
	clone.hasTransform = true
	clone.bounds = hf.bounds.Transform(t.Forward)
	return &clone
}

// WithClips returns a copy of hf restricted to the given clip list.
func (hf *HeightField) WithClips(clips primitive.ClipList) *HeightField {
	clone := *hf
	clone.clips = clips
	return &clone
}

func (hf *HeightField) toLocal(origin, direction math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	if !hf.hasTransform {
		return origin, direction
	}
	return hf.transform.InvPoint(origin), hf.transform.InvDirection(direction)
}

func (hf *HeightField) toWorldPoint(p math3d.Vec3) math3d.Vec3 {
	if !hf.hasTransform {
		return p
	}
	return hf.transform.Point(p)
}

func (hf *HeightField) toWorldNormal(n math3d.Vec3) math3d.Vec3 {
	if !hf.hasTransform {
		return n
	}
	return hf.transform.Normal(n)
}

func (hf *HeightField) toLocalPoint(p math3d.Vec3) math3d.Vec3 {
	if !hf.hasTransform {
		return p
	}
	return hf.transform.InvPoint(p)
}

// clipToOuterBox intersects the local ray with the field's axis-aligned
// outer bounding box, returning the entry/exit parameters (spec 4.2.5
// step 1), following the same slab test pkg/primitive's Box uses.
func clipToOuterBox(o, d math3d.Vec3, box math3d.BoundingBox) (tMin, tMax float64, ok bool) {
	tMin, tMax = -primitive.MaxDistance, primitive.MaxDistance
	up := box.Upper()
	for axis := math3d.AxisX; axis <= math3d.AxisZ; axis++ {
		oc, dc := o.Get(axis), d.Get(axis)
		lo, hi := box.LowerLeft.Get(axis), up.Get(axis)
		if math.Abs(dc) < 1e-15 {
			if oc < lo || oc > hi {
				return 0, 0, false
			}
			continue
		}
		invD := 1.0 / dc
		t0, t1 := (lo-oc)*invD, (hi-oc)*invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, 0, false
		}
	}
	return tMin, tMax, true
}

// rayTriangleIntersect is the same Möller-Trumbore test pkg/mesh uses,
// kept local since height field triangles are synthesized per cell
// rather than stored.
func rayTriangleIntersect(origin, direction, a, b, c math3d.Vec3) (t, u, v float64, ok bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	pvec := direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -1e-12 && det < 1e-12 {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det
	tvec := origin.Sub(a)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qvec := tvec.Cross(edge1)
	v = direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = edge2.Dot(qvec) * invDet
	return t, u, v, true
}

// cellCorners returns the four corner positions of cell (x,z).
func (hf *HeightField) cellCorners(x, z int) (p00, p10, p01, p11 math3d.Vec3) {
	p00 = math3d.V3(float64(x), hf.height(x, z), float64(z))
	p10 = math3d.V3(float64(x+1), hf.height(x+1, z), float64(z))
	p01 = math3d.V3(float64(x), hf.height(x, z+1), float64(z+1))
	p11 = math3d.V3(float64(x+1), hf.height(x+1, z+1), float64(z+1))
	return
}

// cellIntersect tests the two triangles of cell (x,z), returning the
// nearest valid hit.
func (hf *HeightField) cellIntersect(o, d math3d.Vec3, x, z int) (t float64, ok bool) {
	p00, p10, p01, p11 := hf.cellCorners(x, z)
	best := math.Inf(1)
	found := false
	if t1, _, _, ok1 := rayTriangleIntersect(o, d, p00, p10, p11); ok1 && t1 < best {
		best, found = t1, true
	}
	if t2, _, _, ok2 := rayTriangleIntersect(o, d, p00, p11, p01); ok2 && t2 < best {
		best, found = t2, true
	}
	return best, found
}

// dda2D walks the integer grid cells a 2D line (ox,oz)+t*(dx,dz) passes
// through between tEnter and tExit, in order of increasing t, calling
// visit for each; visit returns true to stop the walk early. Standard
// Amanatides-Woo grid traversal, restricted to the driving plane.
func dda2D(ox, oz, dx, dz, tEnter, tExit float64, minX, minZ, maxX, maxZ int, visit func(cx, cz int, tCellEnter, tCellExit float64) bool) {
	px, pz := ox+dx*tEnter, oz+dz*tEnter
	cx, cz := clampInt(int(math.Floor(px)), minX, maxX), clampInt(int(math.Floor(pz)), minZ, maxZ)

	stepX, stepZ := 0, 0
	tMaxX, tMaxZ := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaZ := math.Inf(1), math.Inf(1)

	if dx > 1e-15 {
		stepX = 1
		tDeltaX = 1 / dx
		tMaxX = tEnter + (float64(cx+1)-px)/dx
	} else if dx < -1e-15 {
		stepX = -1
		tDeltaX = -1 / dx
		tMaxX = tEnter + (float64(cx)-px)/dx
	}
	if dz > 1e-15 {
		stepZ = 1
		tDeltaZ = 1 / dz
		tMaxZ = tEnter + (float64(cz+1)-pz)/dz
	} else if dz < -1e-15 {
		stepZ = -1
		tDeltaZ = -1 / dz
		tMaxZ = tEnter + (float64(cz)-pz)/dz
	}

	tCur := tEnter
	for {
		var tNext float64
		if tMaxX < tMaxZ {
			tNext = math.Min(tMaxX, tExit)
		} else {
			tNext = math.Min(tMaxZ, tExit)
		}
		if visit(cx, cz, tCur, tNext) {
			return
		}
		if tMaxX < tMaxZ {
			if tMaxX > tExit {
				return
			}
			cx += stepX
			tCur = tMaxX
			tMaxX += tDeltaX
		} else {
			if tMaxZ > tExit {
				return
			}
			cz += stepZ
			tCur = tMaxZ
			tMaxZ += tDeltaZ
		}
		if cx < minX || cx > maxX || cz < minZ || cz > maxZ {
			return
		}
	}
}

// AllIntersections implements the two-level block/fine DDA traversal of
// spec 4.2.5: clip to the outer box, walk blocks rejecting by ymin/ymax
// against the ray's Y range over the block's t-span, then walk cells
// within surviving blocks testing both triangles.
func (hf *HeightField) AllIntersections(origin, direction math3d.Vec3, stack *primitive.HitStack, thread *primitive.Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := hf.toLocal(origin, direction)

	tEnter, tExit, ok := clipToOuterBox(o, d, hf.bounds)
	if !ok {
		return false
	}
	tEnter = math.Max(tEnter, primitive.DepthTolerance)
	if tEnter >= tExit {
		return false
	}

	found := false
	closestT := primitive.MaxDistance

	bs := float64(hf.blockSize)
	dda2D(o.X/bs, o.Z/bs, d.X/bs, d.Z/bs, tEnter, tExit, 0, 0, hf.blocksX-1, hf.blocksZ-1,
		func(bx, bz int, bEnter, bExit float64) bool {
			blk := hf.blocks[bz*hf.blocksX+bx]
			yEnter, yExit := o.Y+d.Y*bEnter, o.Y+d.Y*bExit
			yLo, yHi := math.Min(yEnter, yExit), math.Max(yEnter, yExit)
			if yHi < blk.yMin || yLo > blk.yMax {
				return false
			}

			x0, x1 := bx*hf.blockSize, min((bx+1)*hf.blockSize, hf.Width-2)
			z0, z1 := bz*hf.blockSize, min((bz+1)*hf.blockSize, hf.Depth-2)

			dda2D(o.X, o.Z, d.X, d.Z, bEnter, bExit, x0, z0, x1, z1,
				func(cx, cz int, cEnter, cExit float64) bool {
					t, cok := hf.cellIntersect(o, d, cx, cz)
					if !cok || t <= primitive.DepthTolerance || t >= closestT {
						return false
					}
					localPoint := o.Add(d.Scale(t))
					worldPoint := hf.toWorldPoint(localPoint)
					if !hf.clips.Accepts(worldPoint, thread) {
						return false
					}
					hit := primitive.Hit{
						T:          t,
						Point:      worldPoint,
						Primitive:  hf,
						LocalPoint: localPoint,
					}
					if stack.Push(hit) {
						found = true
						closestT = t
						thread.Stats.RayPrimitiveHits++
					}
					return false
				})
			return false
		})

	return found
}

// Inside reports whether point lies below the field's surface at its
// (x,z) location, matching the reference's solid height field variant.
func (hf *HeightField) Inside(point math3d.Vec3, thread *primitive.Thread) bool {
	p := hf.toLocalPoint(point)
	inside := false
	if p.X >= 0 && p.X <= float64(hf.Width-1) && p.Z >= 0 && p.Z <= float64(hf.Depth-1) {
		x, z := int(math.Floor(p.X)), int(math.Floor(p.Z))
		t, ok := hf.cellIntersect(p, math3d.V3(0, 1, 0), clampInt(x, 0, hf.Width-2), clampInt(z, 0, hf.Depth-2))
		inside = ok && t > 0
	}
	if hf.inverted {
		inside = !inside
	}
	if inside && len(hf.clips) > 0 {
		inside = hf.clips.Accepts(point, thread)
	}
	return inside
}

// Normal returns the flat face normal of the hit cell's triangle, or, if
// Smooth, a bilinear blend of the cell's four quantized corner normals.
func (hf *HeightField) Normal(hit *primitive.Hit, thread *primitive.Thread) math3d.Vec3 {
	p := hit.LocalPoint
	x := clampInt(int(math.Floor(p.X)), 0, hf.Width-2)
	z := clampInt(int(math.Floor(p.Z)), 0, hf.Depth-2)
	fx, fz := p.X-float64(x), p.Z-float64(z)

	var n math3d.Vec3
	if hf.Smooth {
		n00 := hf.normals[z*hf.Width+x].toVec3()
		n10 := hf.normals[z*hf.Width+x+1].toVec3()
		n01 := hf.normals[(z+1)*hf.Width+x].toVec3()
		n11 := hf.normals[(z+1)*hf.Width+x+1].toVec3()
		top := n00.Lerp(n10, fx)
		bottom := n01.Lerp(n11, fx)
		n = top.Lerp(bottom, fz).Normalize()
	} else {
		p00, p10, p01, p11 := hf.cellCorners(x, z)
		if fz <= fx {
			n = p11.Sub(p00).Cross(p10.Sub(p00)).Normalize()
		} else {
			n = p01.Sub(p00).Cross(p11.Sub(p00)).Normalize()
		}
	}
	if hf.inverted {
		n = n.Negate()
	}
	return hf.toWorldNormal(n)
}

// UV maps the hit's grid position into [0,1]x[0,1] across the field.
func (hf *HeightField) UV(hit *primitive.Hit) math3d.Vec2 {
	p := hit.LocalPoint
	return math3d.V2(p.X/float64(hf.Width-1), p.Z/float64(hf.Depth-1))
}

func (hf *HeightField) BoundingBox() math3d.BoundingBox { return hf.bounds }
func (hf *HeightField) Inverted() bool                  { return hf.inverted }
func (hf *HeightField) Opaque() bool                    { return true }

// Invert returns a shallow copy of hf with its inverted flag flipped;
// the shared map and normal caches are not rebuilt.
func (hf *HeightField) Invert() primitive.Primitive {
	clone := *hf
	clone.inverted = !hf.inverted
	return &clone
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
